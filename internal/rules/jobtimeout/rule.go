package jobtimeout

import (
	"fmt"

	"github.com/shivank21/rlconf/internal/lint"
	"github.com/shivank21/rlconf/internal/rule"
	"github.com/shivank21/rlconf/internal/workflow"
)

func init() {
	rule.Register(&Rule{MaxMinutes: 0})
}

// Rule checks that every job bounds its runtime with timeout-minutes.
// The GPU runners are a shared pool; a wedged simulator can otherwise
// hold one for the platform default of six hours.
type Rule struct {
	// MaxMinutes additionally caps the allowed timeout when > 0.
	MaxMinutes int
}

// ID implements rule.Rule.
func (r *Rule) ID() string { return "RLC008" }

// Name implements rule.Rule.
func (r *Rule) Name() string { return "job-timeout" }

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
		switch {
		case job.TimeoutMinutes == 0:
			diags = append(diags, r.diag(f.Path, job.Line, fmt.Sprintf(
				"job %s has no timeout-minutes", job.ID)))
		case r.MaxMinutes > 0 && job.TimeoutMinutes > r.MaxMinutes:
			diags = append(diags, r.diag(f.Path, job.Line, fmt.Sprintf(
				"job %s timeout of %d minutes exceeds the %d minute cap",
				job.ID, job.TimeoutMinutes, r.MaxMinutes)))
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
		Severity: lint.Warning,
		Message:  message,
	}
}

// ApplySettings implements rule.Configurable.
func (r *Rule) ApplySettings(settings map[string]any) error {
	for key, raw := range settings {
		switch key {
		case "max-minutes":
			n, ok := toInt(raw)
			if !ok || n < 0 {
				return fmt.Errorf("job-timeout: max-minutes must be a non-negative integer, got %v", raw)
			}
			r.MaxMinutes = n
		default:
			return fmt.Errorf("job-timeout: unknown setting %q", key)
		}
	}
	return nil
}

// DefaultSettings implements rule.Configurable.
func (r *Rule) DefaultSettings() map[string]any {
	return map[string]any{"max-minutes": 0}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

var _ rule.Configurable = (*Rule)(nil)
