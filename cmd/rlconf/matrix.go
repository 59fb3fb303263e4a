package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/shivank21/rlconf/internal/lint"
	"github.com/shivank21/rlconf/internal/workflow"
)

// runMatrix implements the "matrix" subcommand: expand each job's
// strategy matrix and show the concurrency groups the workflow
// produces for the common run contexts.
func runMatrix(args []string) int {
	fs := flag.NewFlagSet("matrix", flag.ContinueOnError)
	var jobID string

	fs.StringVarP(&jobID, "job", "j", "", "Only expand the named job")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: rlconf matrix [flags] [file]\n\n"+
			"Expand the strategy matrix of each job in a workflow file and\n"+
			"print the resulting job instances. Reads from stdin when no\n"+
			"file is given.\n\n"+
			"Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if fs.NArg() > 1 {
		fmt.Fprintf(os.Stderr, "rlconf: matrix takes at most one file\n")
		return 2
	}

	source, name, err := readInput(fs.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "rlconf: %v\n", err)
		return 2
	}

	f, err := lint.NewFile(name, source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rlconf: parsing %s: %v\n", name, err)
		return 2
	}
	if f.Kind != lint.KindWorkflow {
		fmt.Fprintf(os.Stderr, "rlconf: %s is not a workflow file\n", name)
		return 2
	}

	w, err := workflow.Decode(f.Root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rlconf: %s: %v\n", name, err)
		return 2
	}

	if jobID != "" && w.Job(jobID) == nil {
		fmt.Fprintf(os.Stderr, "rlconf: no job %q in %s\n", jobID, name)
		return 2
	}

	for _, job := range w.Jobs {
		if jobID != "" && job.ID != jobID {
			continue
		}
		printJobMatrix(job)
	}

	printConcurrency(w)
	return 0
}

func printJobMatrix(job *workflow.Job) {
	if job.Strategy == nil || job.Strategy.Matrix == nil {
		fmt.Printf("job %s: no matrix\n", job.ID)
		return
	}

	m := job.Strategy.Matrix
	instances := m.Expand()
	fmt.Printf("job %s (%d instances)\n", job.ID, len(instances))
	for _, in := range instances {
		fmt.Printf("  %s\n", in.Key(m.Dimensions))
	}
}

// printConcurrency renders the concurrency group for a PR run and for
// two pushes to main, the contexts the cancellation policy turns on.
func printConcurrency(w *workflow.Workflow) {
	if w.Concurrency == nil {
		return
	}

	prGroup, err := w.GroupFor(&workflow.Context{
		Workflow:  w.Name,
		EventName: "pull_request",
		Ref:       "refs/pull/1234/merge",
		RefName:   "1234/merge",
		RunID:     "1",
		RunNumber: "1",
		SHA:       "aaaaaaa",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "rlconf: rendering concurrency group: %v\n", err)
		return
	}

	mainGroup, err := w.GroupFor(&workflow.Context{
		Workflow:  w.Name,
		EventName: "push",
		Ref:       "refs/heads/main",
		RefName:   "main",
		RunID:     "2",
		RunNumber: "2",
		SHA:       "bbbbbbb",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "rlconf: rendering concurrency group: %v\n", err)
		return
	}

	fmt.Printf("concurrency (cancel-in-progress: %v)\n", w.Concurrency.CancelInProgress)
	fmt.Printf("  pull_request: %s\n", prGroup)
	fmt.Printf("  push to main: %s\n", mainGroup)
}
