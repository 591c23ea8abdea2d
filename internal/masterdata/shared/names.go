package shared

import "strings"

// NameSet is a case-insensitive set of names used for bulk dedup.
type NameSet map[string]struct{}

// NewNameSet seeds the set with existing names.
func NewNameSet(names []string) NameSet {
	set := make(NameSet, len(names))
	for _, n := range names {
		set.Add(n)
	}
	return set
}

// Key normalises a name for comparison.
func Key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Has reports whether name is present.
func (s NameSet) Has(name string) bool {
	_, ok := s[Key(name)]
	return ok
}

// Add inserts name.
func (s NameSet) Add(name string) {
	s[Key(name)] = struct{}{}
}

// BulkResult is returned by bulk creates.
type BulkResult struct {
	Count   int `json:"count"`
	Skipped int `json:"skipped"`
}
