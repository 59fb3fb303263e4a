package workflow

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Matrix is a job's strategy matrix: named dimensions whose values are
// cross-produced into job instances, with optional include/exclude
// entries.
type Matrix struct {
	// Dimensions in declaration order.
	Dimensions []Dimension
	Include    []map[string]string
	Exclude    []map[string]string
	Line       int
}

// Dimension is one matrix axis, e.g. python-version or cuda-version.
type Dimension struct {
	Name   string
	Values []string
}

// Instance is one expanded matrix entry.
type Instance map[string]string

// Key renders the instance as a stable "k=v, k=v" string in dimension
// order (extra include-only keys sorted last).
func (in Instance) Key(dims []Dimension) string {
	var parts []string
	seen := map[string]bool{}
	for _, d := range dims {
		if v, ok := in[d.Name]; ok {
			parts = append(parts, d.Name+"="+v)
			seen[d.Name] = true
		}
	}
	var extra []string
	for k := range in {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		parts = append(parts, k+"="+in[k])
	}
	return strings.Join(parts, ", ")
}

func decodeStrategy(n *yaml.Node) (*Strategy, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: strategy must be a mapping", n.Line)
	}

	s := &Strategy{Line: n.Line}
	if ff := mappingChild(n, "fail-fast"); ff != nil {
		v := ff.Value == "true"
		s.FailFast = &v
	}
	if m := mappingChild(n, "matrix"); m != nil {
		matrix, err := decodeMatrix(m)
		if err != nil {
			return nil, err
		}
		s.Matrix = matrix
	}
	return s, nil
}

func decodeMatrix(n *yaml.Node) (*Matrix, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: matrix must be a mapping", n.Line)
	}

	m := &Matrix{Line: n.Line}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]
		switch key.Value {
		case "include", "exclude":
			entries, err := decodeMatrixEntries(value)
			if err != nil {
				return nil, fmt.Errorf("matrix %s: %w", key.Value, err)
			}
			if key.Value == "include" {
				m.Include = entries
			} else {
				m.Exclude = entries
			}
		default:
			var values []string
			for _, v := range sequenceValues(value) {
				values = append(values, v.Value)
			}
			m.Dimensions = append(m.Dimensions, Dimension{
				Name:   key.Value,
				Values: values,
			})
		}
	}
	return m, nil
}

func decodeMatrixEntries(n *yaml.Node) ([]map[string]string, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: must be a sequence of mappings", n.Line)
	}
	var entries []map[string]string
	for _, item := range n.Content {
		if item.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("line %d: entry must be a mapping", item.Line)
		}
		entries = append(entries, decodeStringMap(item))
	}
	return entries, nil
}

// Expand cross-products the dimensions, drops instances matched by an
// exclude entry, then applies include entries. An include entry is
// merged into every instance it can extend without changing an
// original dimension value; an entry that conflicts with all of them
// becomes a new instance.
func (m *Matrix) Expand() []Instance {
	instances := []Instance{{}}
	for _, d := range m.Dimensions {
		var next []Instance
		for _, in := range instances {
			for _, v := range d.Values {
				grown := Instance{}
				for k, val := range in {
					grown[k] = val
				}
				grown[d.Name] = v
				next = append(next, grown)
			}
		}
		instances = next
	}
	if len(m.Dimensions) == 0 {
		instances = nil
	}

	var kept []Instance
	for _, in := range instances {
		excluded := false
		for _, ex := range m.Exclude {
			if subsetOf(ex, in) {
				excluded = true
				break
			}
		}
		if !excluded {
			kept = append(kept, in)
		}
	}

	dimKeys := map[string]bool{}
	for _, d := range m.Dimensions {
		dimKeys[d.Name] = true
	}

	// Include entries extend the original combinations only, never
	// instances created by earlier include entries.
	original := len(kept)
	for _, inc := range m.Include {
		matched := false
		for _, in := range kept[:original] {
			if overwritesOriginal(inc, in, dimKeys) {
				continue
			}
			for k, v := range inc {
				in[k] = v
			}
			matched = true
		}
		if !matched {
			extra := Instance{}
			for k, v := range inc {
				extra[k] = v
			}
			kept = append(kept, extra)
		}
	}

	return kept
}

// subsetOf reports whether every key of sub is present in in with the
// same value.
func subsetOf(sub map[string]string, in Instance) bool {
	for k, v := range sub {
		if in[k] != v {
			return false
		}
	}
	return true
}

// overwritesOriginal reports whether applying inc to in would change a
// value produced by the matrix dimensions. Keys added by earlier
// include entries may be overwritten; original dimension values may
// not.
func overwritesOriginal(inc map[string]string, in Instance, dims map[string]bool) bool {
	for k, v := range inc {
		if !dims[k] {
			continue
		}
		if got, ok := in[k]; ok && got != v {
			return true
		}
	}
	return false
}
