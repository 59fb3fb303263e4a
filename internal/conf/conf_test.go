package conf

import (
	"strings"
	"testing"
)

func parseDoc(t *testing.T, source string) *Document {
	t.Helper()
	d, err := Parse([]byte(source))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return d
}

func TestParse_RejectsNonMapping(t *testing.T) {
	_, err := Parse([]byte("- a\n- b\n"))
	if err == nil {
		t.Fatal("expected error for sequence document")
	}
}

func TestParse_EmptyDocument(t *testing.T) {
	d := parseDoc(t, "")
	if d.Has("anything") {
		t.Error("empty document should have no keys")
	}
}

func TestLookup_NestedPath(t *testing.T) {
	d := parseDoc(t, `
env:
  name: Hopper-v4
  train_num_envs: 1
optim:
  lr: 3.0e-4
`)
	n := d.Lookup("env.name")
	if n == nil || n.Value != "Hopper-v4" {
		t.Fatalf("Lookup(env.name) = %v", n)
	}
	if d.Lookup("env.missing") != nil {
		t.Error("expected nil for missing leaf")
	}
	if d.Lookup("env.name.deeper") != nil {
		t.Error("expected nil when traversing through a scalar")
	}
}

func TestSet_CreatesIntermediateSections(t *testing.T) {
	d := parseDoc(t, "env:\n  name: Walker2d-v4\n")
	n, err := ParseOverride("logger.backend=wandb")
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Apply([]Override{n}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	got := d.Lookup("logger.backend")
	if got == nil || got.Value != "wandb" {
		t.Fatalf("logger.backend = %v, want wandb", got)
	}
}

func TestSet_FailsThroughScalar(t *testing.T) {
	d := parseDoc(t, "env: Hopper-v4\n")
	err := d.Set("env.name", nil)
	if err == nil || !strings.Contains(err.Error(), "not a section") {
		t.Fatalf("err = %v, want not-a-section error", err)
	}
}

func TestMarshal_RoundTrips(t *testing.T) {
	d := parseDoc(t, "optim:\n  lr: 3.0e-4\n  weight_decay: 0.0\n")
	out, err := d.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	again := parseDoc(t, string(out))
	if !again.Has("optim.weight_decay") {
		t.Errorf("round trip lost optim.weight_decay:\n%s", out)
	}
}

func TestCopy_Isolated(t *testing.T) {
	d := parseDoc(t, "env:\n  name: Ant-v4\n")
	c := d.Copy()
	o, err := ParseOverride("env.name=Hopper-v4")
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Apply([]Override{o}); err != nil {
		t.Fatal(err)
	}
	if d.Lookup("env.name").Value != "Ant-v4" {
		t.Error("mutating the copy changed the original")
	}
}
