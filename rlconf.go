// Package rlconf checks reinforcement-learning experiment configs and
// the CI workflows that exercise them. The exported surface is the
// rule documentation; the checking pipeline lives under internal/ and
// is driven by the rlconf command.
package rlconf

import "github.com/shivank21/rlconf/internal/rules"

// RuleInfo describes one check rule: its ID, configuration name, and
// one-line description, plus the full Markdown documentation.
type RuleInfo = rules.RuleInfo

// ListRules returns documentation for every rule, sorted by ID.
func ListRules() ([]RuleInfo, error) {
	return rules.ListRules()
}

// LookupRule returns the full documentation for a rule, looked up by
// ID (e.g. "RLC001") or by name (e.g. "unresolved-interpolation").
func LookupRule(query string) (string, error) {
	return rules.LookupRule(query)
}
