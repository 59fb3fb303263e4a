package lint

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// GitignoreMatcher checks whether a given path is ignored according to
// .gitignore rules. It collects .gitignore files from the walk root and
// its subdirectories; later rules override earlier ones, and negation
// patterns re-include paths.
type GitignoreMatcher struct {
	rules []ignoreRule
}

// ignoreRule is a single pattern from a .gitignore file.
type ignoreRule struct {
	// base is the directory containing the .gitignore that defined it.
	base string
	// pattern has leading "/" and trailing "/" already stripped.
	pattern string
	negate  bool
	dirOnly bool
	// anchored means the pattern contains a slash and is matched
	// against the full path relative to base, not the basename.
	anchored bool
}

// NewGitignoreMatcher creates a matcher from all .gitignore files found
// under root.
func NewGitignoreMatcher(root string) *GitignoreMatcher {
	m := &GitignoreMatcher{}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return m
	}

	_ = filepath.Walk(absRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() && info.Name() == ".gitignore" {
			m.rules = append(m.rules, parseGitignoreFile(path)...)
		}
		return nil
	})

	return m
}

// parseGitignoreFile reads a .gitignore file and returns its rules.
// Unreadable files yield no rules.
func parseGitignoreFile(path string) []ignoreRule {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer func() { _ = f.Close() }()

	base := filepath.Dir(path)
	var rules []ignoreRule

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		r := ignoreRule{base: base}
		if strings.HasPrefix(line, "!") {
			r.negate = true
			line = line[1:]
		}
		if strings.HasSuffix(line, "/") {
			r.dirOnly = true
			line = strings.TrimSuffix(line, "/")
		}
		if strings.HasPrefix(line, "/") {
			line = line[1:]
			r.anchored = true
		} else {
			r.anchored = strings.Contains(line, "/")
		}

		r.pattern = line
		rules = append(rules, r)
	}

	return rules
}

// IsIgnored returns true if the given absolute path should be ignored.
func (m *GitignoreMatcher) IsIgnored(absPath string, isDir bool) bool {
	ignored := false
	for _, r := range m.rules {
		if r.dirOnly && !isDir {
			continue
		}
		if r.matches(absPath) {
			ignored = !r.negate
		}
	}
	return ignored
}

// matches checks whether the rule matches the given absolute path.
func (r ignoreRule) matches(absPath string) bool {
	rel, err := filepath.Rel(r.base, absPath)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(rel, "..") {
		return false
	}

	if r.anchored {
		return matchIgnorePattern(r.pattern, rel)
	}

	// Per git semantics, a pattern without a slash matches the basename
	// of a file at any depth.
	if matchIgnorePattern(r.pattern, filepath.Base(absPath)) {
		return true
	}
	return matchIgnorePattern(r.pattern, rel)
}

// matchIgnorePattern matches a gitignore pattern against a path string.
// It supports *, ?, [...], and ** (zero or more directories).
func matchIgnorePattern(pattern, path string) bool {
	if !strings.Contains(pattern, "**") {
		matched, _ := filepath.Match(pattern, path)
		return matched
	}

	parts := strings.SplitN(pattern, "**", 2)
	prefix := strings.TrimSuffix(parts[0], "/")
	suffix := strings.TrimPrefix(parts[1], "/")

	switch {
	case prefix == "" && suffix == "":
		return true
	case prefix == "":
		// Leading **: match the suffix against every subpath.
		segs := strings.Split(path, "/")
		for i := range segs {
			if matchIgnorePattern(suffix, strings.Join(segs[i:], "/")) {
				return true
			}
		}
		return false
	case suffix == "":
		// Trailing **: match any path under prefix.
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	default:
		// Middle **, e.g. "a/**/b".
		segs := strings.Split(path, "/")
		for i := range segs {
			head := strings.Join(segs[:i], "/")
			tail := strings.Join(segs[i:], "/")
			if (i == 0 || matchIgnorePattern(prefix, head)) &&
				matchIgnorePattern(suffix, tail) {
				return true
			}
		}
		return false
	}
}
