package lint

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Kind classifies what a YAML file describes.
type Kind string

// File kinds.
const (
	// KindExperiment is a training-run configuration: named sections
	// mapping hyperparameter keys to scalar values.
	KindExperiment Kind = "experiment"
	// KindWorkflow is a CI workflow definition with triggers and jobs.
	KindWorkflow Kind = "workflow"
	// KindUnknown is any other YAML document.
	KindUnknown Kind = "unknown"
)

// File holds a parsed YAML document and its source.
type File struct {
	Path   string
	Source []byte
	Lines  [][]byte
	Kind   Kind

	// Doc is the document node; Root is its single mapping child,
	// or nil for empty documents.
	Doc  *yaml.Node
	Root *yaml.Node
}

// NewFile parses source as YAML and returns a File with its kind detected.
func NewFile(path string, source []byte) (*File, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(source, &doc); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	f := &File{
		Path:   path,
		Source: source,
		Lines:  bytes.Split(source, []byte("\n")),
		Doc:    &doc,
	}
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		f.Root = doc.Content[0]
	}
	f.Kind = detectKind(f.Root)
	return f, nil
}

// experimentSections are the top-level section names that identify a
// training-run configuration.
var experimentSections = map[string]bool{
	"env":           true,
	"logger":        true,
	"replay_buffer": true,
	"optim":         true,
	"model":         true,
	"network":       true,
	"loss":          true,
	"collector":     true,
}

// detectKind classifies the document by its top-level mapping keys.
// A workflow must carry both a trigger block and jobs; an experiment
// config is recognized by any of its canonical section names.
func detectKind(root *yaml.Node) Kind {
	if root == nil || root.Kind != yaml.MappingNode {
		return KindUnknown
	}

	var hasOn, hasJobs, hasSection bool
	for i := 0; i+1 < len(root.Content); i += 2 {
		// Compare the literal key text: YAML resolves a plain "on"
		// key to !!bool, so the tag cannot be trusted here.
		switch root.Content[i].Value {
		case "on":
			hasOn = true
		case "jobs":
			hasJobs = true
		}
		if experimentSections[root.Content[i].Value] {
			hasSection = true
		}
	}

	if hasOn && hasJobs {
		return KindWorkflow
	}
	if hasSection {
		return KindExperiment
	}
	return KindUnknown
}

// MappingKeys returns the key nodes of a mapping node in order.
func MappingKeys(n *yaml.Node) []*yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	keys := make([]*yaml.Node, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		keys = append(keys, n.Content[i])
	}
	return keys
}

// MappingValue returns the value node for the given key of a mapping
// node, or nil if the key is absent.
func MappingValue(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}
