// Package discovery finds experiment configs and workflow files by
// expanding glob patterns from the tool config.
package discovery

import (
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/shivank21/rlconf/internal/lint"
)

// Options controls how file discovery behaves.
type Options struct {
	// Patterns is the list of glob patterns to match files against,
	// relative to BaseDir. An empty list means nothing is discovered.
	Patterns []string

	// BaseDir is the directory to walk from. Defaults to "." if empty.
	BaseDir string

	// UseGitignore enables filtering by .gitignore rules.
	UseGitignore bool
}

// Discover walks BaseDir and returns files matching any of the
// configured glob patterns. Results are deduplicated and sorted.
func Discover(opts Options) ([]string, error) {
	patterns := validPatterns(opts.Patterns)
	if len(patterns) == 0 {
		return nil, nil
	}

	baseDir := opts.BaseDir
	if baseDir == "" {
		baseDir = "."
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, err
	}

	var git *lint.GitignoreMatcher
	if opts.UseGitignore {
		git = lint.NewGitignoreMatcher(baseDir)
	}

	seen := make(map[string]bool)
	var files []string

	err = filepath.WalkDir(absBase, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, relErr := filepath.Rel(absBase, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if git != nil && git.IsIgnored(path, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		if matchesAny(patterns, rel) && !seen[path] {
			seen[path] = true
			files = append(files, filepath.Join(baseDir, filepath.FromSlash(rel)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

func validPatterns(patterns []string) []string {
	valid := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if doublestar.ValidatePattern(p) {
			valid = append(valid, p)
		}
	}
	return valid
}

func matchesAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
	}
	return false
}
