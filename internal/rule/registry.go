package rule

var registry []Rule

// Register adds a rule to the global registry. It panics when the
// rule's ID is already taken, since registration happens in init and a
// collision is a programming error.
func Register(r Rule) {
	if ByID(r.ID()) != nil {
		panic("rule: duplicate ID " + r.ID())
	}
	registry = append(registry, r)
}

// All returns a copy of all registered rules.
func All() []Rule {
	result := make([]Rule, len(registry))
	copy(result, registry)
	return result
}

// ByID returns the registered rule with the given ID, or nil.
func ByID(id string) Rule {
	for _, r := range registry {
		if r.ID() == id {
			return r
		}
	}
	return nil
}

// Reset clears the registry. Used for testing.
func Reset() {
	registry = nil
}
