// Package conf implements the experiment-configuration semantics: dotted
// key paths, ${section.field} interpolation, and command-line overrides.
// A document is loaded once by the training entry point and treated as
// immutable for the run, so resolution always works on a copy.
package conf

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is a parsed experiment configuration.
type Document struct {
	root *yaml.Node
}

// Parse parses YAML source into a Document. The document must be a
// mapping (or empty).
func Parse(source []byte) (*Document, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(source, &doc); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return &Document{root: emptyMapping()}, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("config must be a mapping, got %s at line %d",
			kindName(root.Kind), root.Line)
	}
	return &Document{root: root}, nil
}

// FromNode wraps an already-parsed mapping node. The node is not copied.
func FromNode(root *yaml.Node) (*Document, error) {
	if root == nil {
		return &Document{root: emptyMapping()}, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("config must be a mapping, got %s at line %d",
			kindName(root.Kind), root.Line)
	}
	return &Document{root: root}, nil
}

// Root returns the underlying mapping node.
func (d *Document) Root() *yaml.Node { return d.root }

// Lookup returns the node at the given dotted path, or nil if any
// segment is missing.
func (d *Document) Lookup(path string) *yaml.Node {
	node := d.root
	for _, seg := range strings.Split(path, ".") {
		if node == nil || node.Kind != yaml.MappingNode {
			return nil
		}
		node = mappingValue(node, seg)
	}
	return node
}

// Has reports whether the dotted path exists in the document.
func (d *Document) Has(path string) bool { return d.Lookup(path) != nil }

// Set writes a value node at the given dotted path, creating missing
// intermediate mappings. It fails if an intermediate segment exists but
// is not a mapping.
func (d *Document) Set(path string, value *yaml.Node) error {
	segs := strings.Split(path, ".")
	node := d.root
	for i, seg := range segs[:len(segs)-1] {
		next := mappingValue(node, seg)
		if next == nil {
			next = emptyMapping()
			appendPair(node, seg, next)
		}
		if next.Kind != yaml.MappingNode {
			return fmt.Errorf("%s is not a section", strings.Join(segs[:i+1], "."))
		}
		node = next
	}

	leaf := segs[len(segs)-1]
	if existing := mappingValue(node, leaf); existing != nil {
		*existing = *value
		return nil
	}
	appendPair(node, leaf, value)
	return nil
}

// Copy returns a deep copy of the document.
func (d *Document) Copy() *Document {
	return &Document{root: copyNode(d.root)}
}

// Marshal renders the document as YAML with two-space indentation.
func (d *Document) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d.root); err != nil {
		return nil, fmt.Errorf("marshalling config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func emptyMapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func mappingValue(n *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

func appendPair(n *yaml.Node, key string, value *yaml.Node) {
	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
	n.Content = append(n.Content, keyNode, value)
}

func copyNode(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	out := *n
	out.Alias = copyNode(n.Alias)
	if n.Content != nil {
		out.Content = make([]*yaml.Node, len(n.Content))
		for i, c := range n.Content {
			out.Content[i] = copyNode(c)
		}
	}
	return &out
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}
