package workflow

import (
	"fmt"
	"strings"
)

// Gating summarizes what a job's `if:` condition keys on.
type Gating struct {
	// Events are the event names compared against github.event_name.
	Events []string
	// Labels are the PR label names required via
	// contains(github.event.pull_request.labels.*.name, ...).
	Labels []string
}

// Gated reports whether the condition restricts execution at all.
func (g Gating) Gated() bool {
	return len(g.Events) > 0 || len(g.Labels) > 0
}

// HasLabel reports whether the gating requires the given label.
func (g Gating) HasLabel(label string) bool {
	for _, l := range g.Labels {
		if l == label {
			return true
		}
	}
	return false
}

const labelsPath = "github.event.pull_request.labels.*.name"

// ParseGating parses a job `if:` condition and extracts its gating
// facts. The optional ${{ }} wrapper is accepted.
func ParseGating(cond string) (Gating, error) {
	cond = strings.TrimSpace(cond)
	if cond == "" {
		return Gating{}, nil
	}
	if strings.HasPrefix(cond, "${{") && strings.HasSuffix(cond, "}}") {
		cond = strings.TrimSpace(cond[3 : len(cond)-2])
	}

	e, err := ParseExpr(cond)
	if err != nil {
		return Gating{}, fmt.Errorf("parsing condition: %w", err)
	}

	var g Gating
	collectGating(e, &g)
	return g, nil
}

// collectGating walks the expression tree for event-name comparisons
// and label containment checks.
func collectGating(e Expr, g *Gating) {
	switch x := e.(type) {
	case binExpr:
		if x.op == "==" {
			if name, ok := eventComparison(x.left, x.right); ok {
				g.Events = append(g.Events, name)
				return
			}
			if name, ok := eventComparison(x.right, x.left); ok {
				g.Events = append(g.Events, name)
				return
			}
		}
		collectGating(x.left, g)
		collectGating(x.right, g)
	case notExpr:
		collectGating(x.operand, g)
	case callExpr:
		if x.name == "contains" && len(x.args) == 2 {
			if p, ok := x.args[0].(pathExpr); ok && p.path == labelsPath {
				if lit, ok := x.args[1].(litExpr); ok {
					if s, ok := lit.value.(string); ok {
						g.Labels = append(g.Labels, s)
						return
					}
				}
			}
		}
		for _, a := range x.args {
			collectGating(a, g)
		}
	}
}

func eventComparison(a, b Expr) (string, bool) {
	p, ok := a.(pathExpr)
	if !ok || p.path != "github.event_name" {
		return "", false
	}
	lit, ok := b.(litExpr)
	if !ok {
		return "", false
	}
	s, ok := lit.value.(string)
	return s, ok
}
