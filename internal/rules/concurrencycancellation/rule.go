package concurrencycancellation

import (
	"github.com/shivank21/rlconf/internal/lint"
	"github.com/shivank21/rlconf/internal/rule"
	"github.com/shivank21/rlconf/internal/workflow"
)

func init() {
	rule.Register(&Rule{})
}

// Rule checks the workflow's concurrency cancellation policy: newer
// runs for a ref must cancel in-flight ones, while each push to the
// default branch must get its own group so all of them complete.
type Rule struct{}

// ID implements rule.Rule.
func (r *Rule) ID() string { return "RLC007" }

// Name implements rule.Rule.
func (r *Rule) Name() string { return "concurrency-cancellation" }

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

	problem := w.CheckCancellationPolicy()
	if problem == "" {
		return nil
	}

	line := 1
	if w.Concurrency != nil {
		line = w.Concurrency.Line
	}
	return []lint.Diagnostic{{
		File:     f.Path,
		Line:     line,
		Column:   1,
		RuleID:   r.ID(),
		RuleName: r.Name(),
		Severity: lint.Warning,
		Message:  problem,
	}}
}
