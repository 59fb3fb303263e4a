package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gobwas/glob"
	"github.com/shivank21/rlconf/internal/config"
	"github.com/shivank21/rlconf/internal/lint"
	"github.com/shivank21/rlconf/internal/log"
	"github.com/shivank21/rlconf/internal/rule"
)

// Runner drives the checking pipeline: for each file it reads the
// content, builds a File (parsing the YAML once and classifying it as
// an experiment config or a workflow), determines the effective rule
// configuration, runs enabled rules, and collects diagnostics.
type Runner struct {
	Config *config.Config
	Rules  []rule.Rule
	Log    *log.Logger
}

// Result holds the output of a check run.
type Result struct {
	Diagnostics []lint.Diagnostic
	Errors      []error
}

// Run checks the files at the given paths and returns a Result
// containing all diagnostics (sorted by file, line, column) and any
// errors encountered.
func (r *Runner) Run(paths []string) *Result {
	res := &Result{}

	for _, path := range paths {
		if r.isIgnored(path) {
			r.Log.Printf("skipping ignored file %s", path)
			continue
		}

		source, err := os.ReadFile(path)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("reading %q: %w", path, err))
			continue
		}

		r.checkSource(res, path, source)
	}

	sortDiagnostics(res.Diagnostics)
	return res
}

// RunSource checks a single in-memory document, as when reading from
// stdin. The path is used only for reporting.
func (r *Runner) RunSource(path string, source []byte) *Result {
	res := &Result{}
	r.checkSource(res, path, source)
	sortDiagnostics(res.Diagnostics)
	return res
}

func (r *Runner) checkSource(res *Result, path string, source []byte) {
	f, err := lint.NewFile(path, source)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Errorf("parsing %q: %w", path, err))
		return
	}

	r.Log.Printf("checking %s (kind=%s)", path, f.Kind)

	effective := config.Effective(r.Config, path)
	diags, errs := CheckRules(f, r.Rules, effective)
	res.Diagnostics = append(res.Diagnostics, diags...)
	res.Errors = append(res.Errors, errs...)
}

// isIgnored returns true if the file path matches any of the configured
// ignore patterns.
func (r *Runner) isIgnored(path string) bool {
	cleanPath := filepath.Clean(path)

	for _, pattern := range r.Config.Ignore {
		g, err := glob.Compile(pattern)
		if err != nil {
			continue
		}
		if g.Match(path) || g.Match(cleanPath) || g.Match(filepath.Base(path)) {
			return true
		}
	}
	return false
}

func sortDiagnostics(diags []lint.Diagnostic) {
	sort.Slice(diags, func(i, j int) bool {
		di, dj := diags[i], diags[j]
		if di.File != dj.File {
			return di.File < dj.File
		}
		if di.Line != dj.Line {
			return di.Line < dj.Line
		}
		return di.Column < dj.Column
	})
}
