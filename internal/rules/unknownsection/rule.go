package unknownsection

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shivank21/rlconf/internal/lint"
	"github.com/shivank21/rlconf/internal/rule"
)

func init() {
	rule.Register(&Rule{Allowed: defaultSections()})
}

// defaultSections returns the canonical top-level section names of an
// experiment configuration.
func defaultSections() []string {
	return []string{
		"env",
		"logger",
		"replay_buffer",
		"optim",
		"model",
		"network",
		"loss",
		"collector",
	}
}

// Rule checks that an experiment configuration only uses known
// top-level section names, so typos like "optimm" surface before a
// training run silently ignores them.
type Rule struct {
	Allowed []string
}

// ID implements rule.Rule.
func (r *Rule) ID() string { return "RLC002" }

// Name implements rule.Rule.
func (r *Rule) Name() string { return "unknown-section" }

// Category implements rule.Rule.
func (r *Rule) Category() string { return "config" }

// Check implements rule.Rule.
func (r *Rule) Check(f *lint.File) []lint.Diagnostic {
	if f.Kind != lint.KindExperiment {
		return nil
	}

	allowed := make(map[string]bool, len(r.Allowed))
	for _, s := range r.Allowed {
		allowed[s] = true
	}

	var diags []lint.Diagnostic
	for _, key := range lint.MappingKeys(f.Root) {
		if allowed[key.Value] {
			continue
		}
		diags = append(diags, lint.Diagnostic{
			File:     f.Path,
			Line:     key.Line,
			Column:   key.Column,
			RuleID:   r.ID(),
			RuleName: r.Name(),
			Severity: lint.Warning,
			Message: fmt.Sprintf("unknown section %q (allowed: %s)",
				key.Value, strings.Join(r.sortedAllowed(), ", ")),
		})
	}
	return diags
}

func (r *Rule) sortedAllowed() []string {
	out := append([]string{}, r.Allowed...)
	sort.Strings(out)
	return out
}

// ApplySettings implements rule.Configurable.
func (r *Rule) ApplySettings(settings map[string]any) error {
	for key, raw := range settings {
		switch key {
		case "allowed":
			values, ok := raw.([]any)
			if !ok {
				return fmt.Errorf("unknown-section: allowed must be a list, got %T", raw)
			}
			allowed := make([]string, 0, len(values))
			for _, v := range values {
				s, ok := v.(string)
				if !ok {
					return fmt.Errorf("unknown-section: section names must be strings, got %T", v)
				}
				allowed = append(allowed, s)
			}
			r.Allowed = allowed
		default:
			return fmt.Errorf("unknown-section: unknown setting %q", key)
		}
	}
	return nil
}

// DefaultSettings implements rule.Configurable.
func (r *Rule) DefaultSettings() map[string]any {
	allowed := make([]any, 0, len(defaultSections()))
	for _, s := range defaultSections() {
		allowed = append(allowed, s)
	}
	return map[string]any{"allowed": allowed}
}

var _ rule.Configurable = (*Rule)(nil)
