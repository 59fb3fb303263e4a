// Package workflow models CI workflow definitions: triggers, jobs,
// strategy matrices, gating conditions, and the concurrency-group
// cancellation policy.
package workflow

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Workflow is a decoded CI workflow definition.
type Workflow struct {
	Name        string
	On          Triggers
	Concurrency *Concurrency
	Env         map[string]string
	Jobs        []*Job
}

// Triggers describes the events that start a workflow.
type Triggers struct {
	PullRequest      bool
	Push             *PushTrigger
	WorkflowDispatch bool
	Schedule         bool
}

// PushTrigger carries the branch patterns of a push trigger.
type PushTrigger struct {
	Branches []string
}

// Concurrency is the workflow-level concurrency policy.
type Concurrency struct {
	Group            string
	CancelInProgress bool
	Line             int
}

// Job is one named job of a workflow.
type Job struct {
	ID             string
	If             string
	RunsOn         string
	Image          string
	TimeoutMinutes int
	Strategy       *Strategy
	Env            map[string]string
	Steps          []Step
	Line           int
}

// Step is one step of a job; either a `uses:` action reference or a
// `run:` shell body.
type Step struct {
	Name string
	If   string
	Uses string
	Run  string
	// Line is the step's own line; RunLine is the first line of the
	// run body, for positioning findings inside scripts.
	Line    int
	RunLine int
}

// Strategy holds a job's matrix strategy.
type Strategy struct {
	Matrix   *Matrix
	FailFast *bool
	Line     int
}

// Decode builds a Workflow from a parsed YAML mapping node. Line
// numbers are preserved for diagnostics.
func Decode(root *yaml.Node) (*Workflow, error) {
	if root == nil || root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("workflow must be a mapping")
	}

	w := &Workflow{}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		// Keys are matched on their literal text: a plain "on" key
		// resolves to !!bool, so the node tag is unusable here.
		switch key.Value {
		case "name":
			w.Name = value.Value
		case "on":
			t, err := decodeTriggers(value)
			if err != nil {
				return nil, err
			}
			w.On = t
		case "concurrency":
			c, err := decodeConcurrency(value)
			if err != nil {
				return nil, err
			}
			w.Concurrency = c
		case "env":
			w.Env = decodeStringMap(value)
		case "jobs":
			jobs, err := decodeJobs(value)
			if err != nil {
				return nil, err
			}
			w.Jobs = jobs
		}
	}
	return w, nil
}

// Job returns the job with the given ID, or nil.
func (w *Workflow) Job(id string) *Job {
	for _, j := range w.Jobs {
		if j.ID == id {
			return j
		}
	}
	return nil
}

func decodeTriggers(n *yaml.Node) (Triggers, error) {
	var t Triggers

	set := func(name string, value *yaml.Node) error {
		switch name {
		case "pull_request":
			t.PullRequest = true
		case "workflow_dispatch":
			t.WorkflowDispatch = true
		case "schedule":
			t.Schedule = true
		case "push":
			pt := &PushTrigger{}
			if value != nil {
				branches := mappingChild(value, "branches")
				for _, b := range sequenceValues(branches) {
					pt.Branches = append(pt.Branches, b.Value)
				}
			}
			t.Push = pt
		}
		return nil
	}

	switch n.Kind {
	case yaml.ScalarNode:
		return t, set(n.Value, nil)
	case yaml.SequenceNode:
		for _, item := range n.Content {
			if err := set(item.Value, nil); err != nil {
				return t, err
			}
		}
		return t, nil
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			if err := set(n.Content[i].Value, n.Content[i+1]); err != nil {
				return t, err
			}
		}
		return t, nil
	default:
		return t, fmt.Errorf("line %d: invalid trigger block", n.Line)
	}
}

func decodeConcurrency(n *yaml.Node) (*Concurrency, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: concurrency must be a mapping", n.Line)
	}
	c := &Concurrency{Line: n.Line}
	if g := mappingChild(n, "group"); g != nil {
		c.Group = g.Value
	}
	if ci := mappingChild(n, "cancel-in-progress"); ci != nil {
		c.CancelInProgress = ci.Value == "true"
	}
	return c, nil
}

func decodeJobs(n *yaml.Node) ([]*Job, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: jobs must be a mapping", n.Line)
	}

	var jobs []*Job
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]
		job, err := decodeJob(key.Value, value)
		if err != nil {
			return nil, err
		}
		job.Line = key.Line
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func decodeJob(id string, n *yaml.Node) (*Job, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: job %s must be a mapping", n.Line, id)
	}

	job := &Job{ID: id}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]
		switch key.Value {
		case "if":
			job.If = value.Value
		case "runs-on":
			if value.Kind == yaml.SequenceNode && len(value.Content) > 0 {
				job.RunsOn = value.Content[0].Value
			} else {
				job.RunsOn = value.Value
			}
		case "container":
			if value.Kind == yaml.MappingNode {
				if img := mappingChild(value, "image"); img != nil {
					job.Image = img.Value
				}
			} else {
				job.Image = value.Value
			}
		case "timeout-minutes":
			var minutes int
			if err := value.Decode(&minutes); err != nil {
				return nil, fmt.Errorf("line %d: job %s timeout-minutes: %w",
					value.Line, id, err)
			}
			job.TimeoutMinutes = minutes
		case "strategy":
			s, err := decodeStrategy(value)
			if err != nil {
				return nil, fmt.Errorf("job %s: %w", id, err)
			}
			job.Strategy = s
		case "env":
			job.Env = decodeStringMap(value)
		case "steps":
			steps, err := decodeSteps(value)
			if err != nil {
				return nil, fmt.Errorf("job %s: %w", id, err)
			}
			job.Steps = steps
		}
	}
	return job, nil
}

func decodeSteps(n *yaml.Node) ([]Step, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: steps must be a sequence", n.Line)
	}

	var steps []Step
	for _, item := range n.Content {
		if item.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("line %d: step must be a mapping", item.Line)
		}
		step := Step{Line: item.Line}
		for i := 0; i+1 < len(item.Content); i += 2 {
			key, value := item.Content[i], item.Content[i+1]
			switch key.Value {
			case "name":
				step.Name = value.Value
			case "if":
				step.If = value.Value
			case "uses":
				step.Uses = value.Value
			case "run":
				step.Run = value.Value
				step.RunLine = value.Line
			}
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func decodeStringMap(n *yaml.Node) map[string]string {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	out := make(map[string]string, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		out[n.Content[i].Value] = n.Content[i+1].Value
	}
	return out
}

func mappingChild(n *yaml.Node, key string) *yaml.Node {
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

func sequenceValues(n *yaml.Node) []*yaml.Node {
	if n == nil {
		return nil
	}
	if n.Kind == yaml.SequenceNode {
		return n.Content
	}
	if n.Kind == yaml.ScalarNode {
		return []*yaml.Node{n}
	}
	return nil
}
