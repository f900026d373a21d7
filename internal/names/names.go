// Package names folds Pascal identifiers into comparison keys.
//
// Pascal identifiers, conditional defines, unit names and type images are
// case-insensitive. Every map in the front end that is indexed by a name uses
// Key so that "TObject", "tobject" and "TOBJECT" land in the same slot.
package names

import (
	"strings"

	"golang.org/x/text/cases"
)

// Key returns the case-folded form of s.
func Key(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			// cases.Caser is stateful, so a fresh one per call.
			return cases.Fold().String(s)
		}
	}
	return strings.ToLower(s)
}

// Equal reports whether a and b name the same identifier.
func Equal(a, b string) bool {
	if len(a) == len(b) && strings.EqualFold(a, b) {
		return true
	}
	return Key(a) == Key(b)
}

// Set is a case-insensitive set of names that remembers the first spelling.
type Set struct {
	items map[string]string
}

// NewSet builds a set from the given names.
func NewSet(items ...string) *Set {
	s := &Set{items: make(map[string]string, len(items))}
	for _, it := range items {
		s.Add(it)
	}
	return s
}

// Add inserts name; an existing spelling is kept.
func (s *Set) Add(name string) {
	k := Key(name)
	if _, ok := s.items[k]; !ok {
		s.items[k] = name
	}
}

// Remove deletes name regardless of its spelling.
func (s *Set) Remove(name string) {
	delete(s.items, Key(name))
}

// Has reports membership.
func (s *Set) Has(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.items[Key(name)]
	return ok
}

// Len returns the number of names.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Clone returns an independent copy.
func (s *Set) Clone() *Set {
	out := &Set{items: make(map[string]string, s.Len())}
	if s != nil {
		for k, v := range s.items {
			out.items[k] = v
		}
	}
	return out
}

// Names returns the stored spellings in unspecified order.
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.items))
	for _, v := range s.items {
		out = append(out, v)
	}
	return out
}
