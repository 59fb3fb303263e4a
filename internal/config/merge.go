package config

import (
	"github.com/gobwas/glob"
)

// Merge merges a loaded config on top of defaults. The loaded config's
// rules override the defaults; any rule not mentioned keeps its default
// value. Ignore and Overrides come from the loaded config; Files falls
// back to the defaults when the loaded config sets none.
func Merge(defaults, loaded *Config) *Config {
	rules := make(map[string]RuleCfg, len(defaults.Rules))
	for k, v := range defaults.Rules {
		rules[k] = v
	}

	if loaded == nil {
		return &Config{Rules: rules}
	}

	for k, v := range loaded.Rules {
		rules[k] = v
	}

	files := loaded.Files
	if len(files) == 0 {
		files = defaults.Files
	}

	return &Config{
		Rules:     rules,
		Ignore:    loaded.Ignore,
		Overrides: loaded.Overrides,
		Files:     files,
	}
}

// Effective returns the effective rule configuration for a given file
// path: the top-level rules with each matching override applied in
// order. Later overrides take precedence.
func Effective(cfg *Config, filePath string) map[string]RuleCfg {
	result := make(map[string]RuleCfg, len(cfg.Rules))
	for k, v := range cfg.Rules {
		result[k] = v
	}

	for _, o := range cfg.Overrides {
		if matchesAny(o.Files, filePath) {
			for k, v := range o.Rules {
				result[k] = v
			}
		}
	}

	return result
}

// matchesAny returns true if filePath matches any of the glob patterns.
func matchesAny(patterns []string, filePath string) bool {
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			// Skip invalid patterns silently.
			continue
		}
		if g.Match(filePath) {
			return true
		}
	}
	return false
}
