package lifecycleorder

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

// Rule checks that each CI job invokes the four canonical lifecycle
// scripts (setup_env, install, run_test, post_process) in order, all
// from a single integration directory.
type Rule struct{}

// ID implements rule.Rule.
func (r *Rule) ID() string { return "RLC004" }

// Name implements rule.Rule.
func (r *Rule) Name() string { return "lifecycle-order" }

// Category implements rule.Rule.
func (r *Rule) Category() string { return "workflow" }

// Check implements rule.Rule.
func (r *Rule) Check(f *lint.File) []lint.Diagnostic {
	if f.Kind != lint.KindWorkflow {
		return nil
	}

	w, err := workflow.Decode(f.Root)
	if err != nil {
		return []lint.Diagnostic{r.diag(f.Path, 1, err.Error())}
	}

	var diags []lint.Diagnostic
	for _, job := range w.Jobs {
		diags = append(diags, r.checkJob(f.Path, job)...)
	}
	return diags
}

func (r *Rule) checkJob(path string, job *workflow.Job) []lint.Diagnostic {
	calls := job.ScriptCalls()
	if len(calls) == 0 {
		return nil
	}

	var diags []lint.Diagnostic

	integration := calls[0].Integration
	for _, c := range calls[1:] {
		if c.Integration != integration {
			diags = append(diags, r.diag(path, c.Line, fmt.Sprintf(
				"job %s mixes integration directories %q and %q",
				job.ID, integration, c.Integration)))
		}
	}

	for i := 1; i < len(calls); i++ {
		if calls[i].Order() < calls[i-1].Order() {
			diags = append(diags, r.diag(path, calls[i].Line, fmt.Sprintf(
				"job %s runs %s after %s; lifecycle order is %s",
				job.ID, calls[i].Script, calls[i-1].Script,
				strings.Join(workflow.LifecycleOrder, " -> "))))
		}
	}

	seen := map[string]bool{}
	for _, c := range calls {
		seen[c.Script] = true
	}
	for _, script := range workflow.LifecycleOrder {
		if !seen[script] {
			diags = append(diags, r.diag(path, job.Line, fmt.Sprintf(
				"job %s never invokes %s.sh", job.ID, script)))
		}
	}

	return diags
}

func (r *Rule) diag(path string, line int, message string) lint.Diagnostic {
	return lint.Diagnostic{
		File:     path,
		Line:     line,
		Column:   1,
		RuleID:   r.ID(),
		RuleName: r.Name(),
		Severity: lint.Error,
		Message:  message,
	}
}
