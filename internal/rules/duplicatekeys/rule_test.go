package duplicatekeys

import (
	"strings"
	"testing"

	"github.com/shivank21/rlconf/internal/lint"
)

func checkSource(t *testing.T, source string) []lint.Diagnostic {
	t.Helper()
	f, err := lint.NewFile("config.yaml", []byte(source))
	if err != nil {
		t.Fatal(err)
	}
	return (&Rule{}).Check(f)
}

func TestCheck_NoDuplicates(t *testing.T) {
	diags := checkSource(t, "optim:\n  lr: 1e-3\n  weight_decay: 0.0\n")
	if len(diags) != 0 {
		t.Errorf("diags = %v, want none", diags)
	}
}

func TestCheck_DuplicateInSection(t *testing.T) {
	diags := checkSource(t, `
optim:
  lr: 1e-3
  batch_size: 256
  lr: 3e-4
`)
	if len(diags) != 1 {
		t.Fatalf("len(diags) = %d, want 1: %v", len(diags), diags)
	}
	if !strings.Contains(diags[0].Message, `"lr"`) {
		t.Errorf("Message = %q", diags[0].Message)
	}
	if !strings.Contains(diags[0].Message, "line 3") {
		t.Errorf("Message = %q, should point at the shadowed line", diags[0].Message)
	}
}

func TestCheck_SameKeyDifferentSectionsOK(t *testing.T) {
	diags := checkSource(t, "env:\n  name: a\nlogger:\n  name: b\n")
	if len(diags) != 0 {
		t.Errorf("diags = %v, want none", diags)
	}
}

func TestCheck_AppliesToWorkflowsToo(t *testing.T) {
	diags := checkSource(t, `
on: {push: {}}
jobs:
  a:
    env:
      MUJOCO_GL: egl
      MUJOCO_GL: osmesa
`)
	if len(diags) != 1 {
		t.Errorf("len(diags) = %d, want 1: %v", len(diags), diags)
	}
}
