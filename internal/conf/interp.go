package conf

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// refPattern matches a ${section.field} interpolation reference.
var refPattern = regexp.MustCompile(`\$\{([A-Za-z0-9_][A-Za-z0-9_.]*)\}`)

// Ref is one interpolation reference found in a document.
type Ref struct {
	// Target is the dotted path inside the braces.
	Target string
	// Line and Column locate the scalar holding the reference.
	Line   int
	Column int
}

// Refs returns every interpolation reference in the document, in
// document order.
func (d *Document) Refs() []Ref {
	var refs []Ref
	walkScalars(d.root, func(n *yaml.Node) {
		for _, m := range refPattern.FindAllStringSubmatch(n.Value, -1) {
			refs = append(refs, Ref{Target: m[1], Line: n.Line, Column: n.Column})
		}
	})
	return refs
}

// walkScalars visits every scalar node in the tree.
func walkScalars(n *yaml.Node, visit func(*yaml.Node)) {
	if n == nil {
		return
	}
	if n.Kind == yaml.ScalarNode {
		visit(n)
		return
	}
	for _, c := range n.Content {
		walkScalars(c, visit)
	}
}

// Resolve returns a copy of the document with every interpolation
// reference replaced by its target value. A scalar that is exactly one
// reference takes the target's value and type; references embedded in a
// longer string are substituted textually and require scalar targets.
// Missing targets and reference cycles are errors.
func (d *Document) Resolve() (*Document, error) {
	out := d.Copy()
	r := &resolver{doc: out, resolving: map[string]bool{}}
	if err := r.resolveTree(out.root); err != nil {
		return nil, err
	}
	return out, nil
}

type resolver struct {
	doc *Document
	// resolving holds the targets on the current resolution stack,
	// for cycle detection.
	resolving map[string]bool
	stack     []string
}

func (r *resolver) resolveTree(n *yaml.Node) error {
	if n == nil {
		return nil
	}
	if n.Kind == yaml.ScalarNode {
		return r.resolveScalar(n)
	}
	for _, c := range n.Content {
		if err := r.resolveTree(c); err != nil {
			return err
		}
	}
	return nil
}

// resolveScalar rewrites one scalar node in place.
func (r *resolver) resolveScalar(n *yaml.Node) error {
	if !strings.Contains(n.Value, "${") {
		return nil
	}

	// Whole-value reference: adopt the target node wholesale so
	// non-string types (and whole sections) carry over.
	if m := refPattern.FindStringSubmatch(n.Value); m != nil && m[0] == n.Value {
		target, err := r.lookupResolved(m[1], n)
		if err != nil {
			return err
		}
		line, col := n.Line, n.Column
		*n = *copyNode(target)
		n.Line, n.Column = line, col
		return nil
	}

	// Embedded references: textual substitution, scalar targets only.
	var firstErr error
	n.Value = refPattern.ReplaceAllStringFunc(n.Value, func(match string) string {
		if firstErr != nil {
			return match
		}
		path := match[2 : len(match)-1]
		target, err := r.lookupResolved(path, n)
		if err != nil {
			firstErr = err
			return match
		}
		if target.Kind != yaml.ScalarNode {
			firstErr = fmt.Errorf(
				"line %d: cannot splice %s reference ${%s} into a string",
				n.Line, kindName(target.Kind), path)
			return match
		}
		return target.Value
	})
	if firstErr != nil {
		return firstErr
	}
	n.Tag = "!!str"
	return nil
}

// lookupResolved finds the target of a reference and resolves the
// target's own references first.
func (r *resolver) lookupResolved(path string, at *yaml.Node) (*yaml.Node, error) {
	if r.resolving[path] {
		cycle := append(append([]string{}, r.stack...), path)
		return nil, fmt.Errorf("interpolation cycle: %s", strings.Join(cycle, " -> "))
	}

	target := r.doc.Lookup(path)
	if target == nil {
		return nil, fmt.Errorf(
			"line %d: interpolation ${%s} does not resolve to any key",
			at.Line, path)
	}

	r.resolving[path] = true
	r.stack = append(r.stack, path)
	err := r.resolveTree(target)
	r.stack = r.stack[:len(r.stack)-1]
	delete(r.resolving, path)
	if err != nil {
		return nil, err
	}
	return target, nil
}
