package conf

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Override is one command-line assignment of the form
// "section.field=value". Values are typed by YAML scalar rules, so
// "optim.lr=3e-4" yields a float and "loss.max_q_backup=true" a bool.
type Override struct {
	Path  string
	Value *yaml.Node
}

// ParseOverride parses a single "path=value" assignment.
func ParseOverride(arg string) (Override, error) {
	path, raw, ok := strings.Cut(arg, "=")
	if !ok {
		return Override{}, fmt.Errorf("override %q must have the form key=value", arg)
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Override{}, fmt.Errorf("override %q has an empty key", arg)
	}
	for _, seg := range strings.Split(path, ".") {
		if seg == "" {
			return Override{}, fmt.Errorf("override key %q has an empty path segment", path)
		}
	}

	value, err := scalarNode(raw)
	if err != nil {
		return Override{}, fmt.Errorf("override %q: %w", arg, err)
	}
	return Override{Path: path, Value: value}, nil
}

// ParseOverrides parses a list of assignments, failing on the first
// malformed one.
func ParseOverrides(args []string) ([]Override, error) {
	overrides := make([]Override, 0, len(args))
	for _, arg := range args {
		o, err := ParseOverride(arg)
		if err != nil {
			return nil, err
		}
		overrides = append(overrides, o)
	}
	return overrides, nil
}

// Apply overlays the overrides onto the document in order. Later
// assignments to the same path win. Overlay happens before
// interpolation resolution, so an override may introduce or redirect
// references.
func (d *Document) Apply(overrides []Override) error {
	for _, o := range overrides {
		if err := d.Set(o.Path, copyNode(o.Value)); err != nil {
			return fmt.Errorf("applying override %s: %w", o.Path, err)
		}
	}
	return nil
}

// scalarNode parses raw as a single YAML scalar, preserving its
// resolved type.
func scalarNode(raw string) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("invalid value: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		// Empty value: treat as empty string.
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: ""}, nil
	}
	n := doc.Content[0]
	if n.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("value must be a scalar, got %s", kindName(n.Kind))
	}
	return n, nil
}
