package labelgating

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shivank21/rlconf/internal/lint"
	"github.com/shivank21/rlconf/internal/rule"
	"github.com/shivank21/rlconf/internal/workflow"
)

func init() {
	rule.Register(&Rule{Categories: defaultCategories()})
}

// defaultCategories maps a gating label to the integration-directory
// substrings that belong to it.
func defaultCategories() map[string][]string {
	return map[string][]string{
		"Data": {
			"d4rl",
			"minari",
			"openx",
			"roboset",
			"atari",
		},
		"Environments": {
			"gym",
			"dm_control",
			"jumanji",
			"brax",
			"habitat",
			"robohive",
			"pettingzoo",
			"smacv2",
			"vmas",
			"envpool",
		},
	}
}

// Rule checks that label gating is consistent within an integration
// category: when sibling jobs of a category are gated on the
// category's PR label, an ungated sibling runs on every trigger by
// accident; a job gated on another category's label is miswired.
type Rule struct {
	Categories map[string][]string
}

// ID implements rule.Rule.
func (r *Rule) ID() string { return "RLC006" }

// Name implements rule.Rule.
func (r *Rule) Name() string { return "label-gating" }

// Category implements rule.Rule.
func (r *Rule) Category() string { return "workflow" }

// Check implements rule.Rule.
func (r *Rule) Check(f *lint.File) []lint.Diagnostic {
	if f.Kind != lint.KindWorkflow {
		return nil
	}

	w, err := workflow.Decode(f.Root)
	if err != nil {
		return nil
	}

	type jobInfo struct {
		job    *workflow.Job
		gating workflow.Gating
	}

	// Bucket jobs by the category their integration directory falls in.
	buckets := map[string][]jobInfo{}
	var diags []lint.Diagnostic

	for _, job := range w.Jobs {
		calls := job.ScriptCalls()
		if len(calls) == 0 {
			continue
		}
		category := r.categoryOf(calls[0].Integration)
		if category == "" {
			continue
		}

		gating, err := workflow.ParseGating(job.If)
		if err != nil {
			diags = append(diags, r.diag(f.Path, job.Line, lint.Error, fmt.Sprintf(
				"job %s has an unparsable if condition: %v", job.ID, err)))
			continue
		}

		for _, label := range gating.Labels {
			if _, known := r.Categories[label]; known && label != category {
				diags = append(diags, r.diag(f.Path, job.Line, lint.Error, fmt.Sprintf(
					"job %s is gated on label %q but its integration %q belongs to %q",
					job.ID, label, calls[0].Integration, category)))
			}
		}

		buckets[category] = append(buckets[category], jobInfo{job: job, gating: gating})
	}

	for _, category := range sortedKeys(buckets) {
		jobs := buckets[category]
		anyGated := false
		for _, ji := range jobs {
			if ji.gating.HasLabel(category) {
				anyGated = true
				break
			}
		}
		if !anyGated {
			continue
		}
		for _, ji := range jobs {
			if ji.gating.HasLabel(category) {
				continue
			}
			diags = append(diags, r.diag(f.Path, ji.job.Line, lint.Warning, fmt.Sprintf(
				"job %s runs ungated while sibling %s jobs require the %q label",
				ji.job.ID, strings.ToLower(category), category)))
		}
	}

	return diags
}

// categoryOf returns the label of the category whose substrings match
// the integration directory, or "".
func (r *Rule) categoryOf(integration string) string {
	for _, label := range sortedKeys(r.Categories) {
		for _, sub := range r.Categories[label] {
			if strings.Contains(integration, sub) {
				return label
			}
		}
	}
	return ""
}

func (r *Rule) diag(path string, line int, sev lint.Severity, message string) lint.Diagnostic {
	return lint.Diagnostic{
		File:     path,
		Line:     line,
		Column:   1,
		RuleID:   r.ID(),
		RuleName: r.Name(),
		Severity: sev,
		Message:  message,
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ApplySettings implements rule.Configurable.
func (r *Rule) ApplySettings(settings map[string]any) error {
	for key, raw := range settings {
		switch key {
		case "categories":
			categories, err := parseCategories(raw)
			if err != nil {
				return fmt.Errorf("label-gating: %w", err)
			}
			r.Categories = categories
		default:
			return fmt.Errorf("label-gating: unknown setting %q", key)
		}
	}
	return nil
}

func parseCategories(raw any) (map[string][]string, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("categories must map label to integration substrings, got %T", raw)
	}
	out := make(map[string][]string, len(m))
	for label, rawSubs := range m {
		subs, ok := rawSubs.([]any)
		if !ok {
			return nil, fmt.Errorf("categories.%s must be a list, got %T", label, rawSubs)
		}
		for _, s := range subs {
			str, ok := s.(string)
			if !ok {
				return nil, fmt.Errorf("categories.%s entries must be strings, got %T", label, s)
			}
			out[label] = append(out[label], str)
		}
	}
	return out, nil
}

// DefaultSettings implements rule.Configurable.
func (r *Rule) DefaultSettings() map[string]any {
	categories := map[string]any{}
	for label, subs := range defaultCategories() {
		list := make([]any, 0, len(subs))
		for _, s := range subs {
			list = append(list, s)
		}
		categories[label] = list
	}
	return map[string]any{"categories": categories}
}

var _ rule.Configurable = (*Rule)(nil)
