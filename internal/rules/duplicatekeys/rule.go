package duplicatekeys

import (
	"fmt"

	"github.com/shivank21/rlconf/internal/lint"
	"github.com/shivank21/rlconf/internal/rule"
	"gopkg.in/yaml.v3"
)

func init() {
	rule.Register(&Rule{})
}

// Rule checks for duplicate keys within a single mapping. YAML loaders
// keep the last occurrence, so an earlier hyperparameter assignment is
// silently discarded.
type Rule struct{}

// ID implements rule.Rule.
func (r *Rule) ID() string { return "RLC003" }

// Name implements rule.Rule.
func (r *Rule) Name() string { return "duplicate-keys" }

// Category implements rule.Rule.
func (r *Rule) Category() string { return "config" }

// Check implements rule.Rule.
func (r *Rule) Check(f *lint.File) []lint.Diagnostic {
	var diags []lint.Diagnostic
	walkMappings(f.Root, func(n *yaml.Node) {
		seen := map[string]int{}
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i]
			if firstLine, ok := seen[key.Value]; ok {
				diags = append(diags, lint.Diagnostic{
					File:     f.Path,
					Line:     key.Line,
					Column:   key.Column,
					RuleID:   r.ID(),
					RuleName: r.Name(),
					Severity: lint.Error,
					Message: fmt.Sprintf("duplicate key %q shadows the value from line %d",
						key.Value, firstLine),
				})
				continue
			}
			seen[key.Value] = key.Line
		}
	})
	return diags
}

func walkMappings(n *yaml.Node, visit func(*yaml.Node)) {
	if n == nil {
		return
	}
	if n.Kind == yaml.MappingNode {
		visit(n)
	}
	for _, c := range n.Content {
		walkMappings(c, visit)
	}
}
