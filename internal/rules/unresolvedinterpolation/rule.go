package unresolvedinterpolation

import (
	"fmt"

	"github.com/shivank21/rlconf/internal/conf"
	"github.com/shivank21/rlconf/internal/lint"
	"github.com/shivank21/rlconf/internal/rule"
)

func init() {
	rule.Register(&Rule{})
}

// Rule checks that every ${section.field} interpolation reference in an
// experiment configuration resolves to a key in the same document.
type Rule struct{}

// ID implements rule.Rule.
func (r *Rule) ID() string { return "RLC001" }

// Name implements rule.Rule.
func (r *Rule) Name() string { return "unresolved-interpolation" }

// Category implements rule.Rule.
func (r *Rule) Category() string { return "config" }

// Check implements rule.Rule.
func (r *Rule) Check(f *lint.File) []lint.Diagnostic {
	if f.Kind != lint.KindExperiment {
		return nil
	}

	doc, err := conf.FromNode(f.Root)
	if err != nil {
		return nil
	}

	var diags []lint.Diagnostic
	for _, ref := range doc.Refs() {
		if doc.Has(ref.Target) {
			continue
		}
		diags = append(diags, lint.Diagnostic{
			File:     f.Path,
			Line:     ref.Line,
			Column:   ref.Column,
			RuleID:   r.ID(),
			RuleName: r.Name(),
			Severity: lint.Error,
			Message:  fmt.Sprintf("interpolation ${%s} does not resolve to any key", ref.Target),
		})
	}
	return diags
}
