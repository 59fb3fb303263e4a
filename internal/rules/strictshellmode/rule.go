package strictshellmode

import (
	"fmt"
	"strings"

	"github.com/shivank21/rlconf/internal/lint"
	"github.com/shivank21/rlconf/internal/rule"
	"github.com/shivank21/rlconf/internal/workflow"
)

func init() {
	rule.Register(&Rule{})
}

// Rule checks that multi-line run bodies enable strict-mode shell
// flags (errexit, nounset, pipefail) so a failing setup or install
// command aborts the job instead of letting a later step mask it.
type Rule struct{}

// ID implements rule.Rule.
func (r *Rule) ID() string { return "RLC005" }

// Name implements rule.Rule.
func (r *Rule) Name() string { return "strict-shell-mode" }

// Category implements rule.Rule.
func (r *Rule) Category() string { return "workflow" }

// Check implements rule.Rule.
func (r *Rule) Check(f *lint.File) []lint.Diagnostic {
	if f.Kind != lint.KindWorkflow {
		return nil
	}

	w, err := workflow.Decode(f.Root)
	if err != nil {
		return nil
	}

	var diags []lint.Diagnostic
	for _, job := range w.Jobs {
		for _, step := range job.Steps {
			if !multiLine(step.Run) {
				continue
			}
			if workflow.StrictMode(step.Run) {
				continue
			}
			diags = append(diags, lint.Diagnostic{
				File:     f.Path,
				Line:     step.Line,
				Column:   1,
				RuleID:   r.ID(),
				RuleName: r.Name(),
				Severity: lint.Warning,
				Message: fmt.Sprintf(
					"job %s has a run step without strict shell flags (set -euo pipefail)",
					job.ID),
			})
		}
	}
	return diags
}

// multiLine reports whether a run body has more than one command line;
// one-liners inherit the runner's default shell options.
func multiLine(body string) bool {
	seen := 0
	for _, line := range strings.Split(body, "\n") {
		if strings.TrimSpace(line) != "" {
			seen++
		}
		if seen > 1 {
			return true
		}
	}
	return false
}
