// Package override holds the manually-failed-connection set consulted by
// the feasibility graph builder. Pairs are unordered: (a, b) and (b, a)
// are the same exclusion, so every pair is normalized to a canonical
// order before storage or lookup.
package override

import (
	"fmt"
	"sort"
)

// Pair is a failed-connection pair in canonical (lexicographic) order.
type Pair struct {
	A string `json:"a"`
	B string `json:"b"`
}

// NewPair normalizes two endpoint identities into a canonical Pair.
func NewPair(a, b string) Pair {
	if b < a {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

// String renders the pair for logs and listings.
func (p Pair) String() string {
	return fmt.Sprintf("%s <-> %s", p.A, p.B)
}

// Set is the in-memory failed-connection set.
type Set struct {
	pairs map[Pair]struct{}
}

// NewSet returns a Set seeded with the given pairs.
func NewSet(pairs ...Pair) *Set {
	s := &Set{pairs: make(map[Pair]struct{}, len(pairs))}
	for _, p := range pairs {
		s.pairs[NewPair(p.A, p.B)] = struct{}{}
	}
	return s
}

// Add marks the connection between a and b as failed. Adding an existing
// pair is a no-op.
func (s *Set) Add(a, b string) {
	s.pairs[NewPair(a, b)] = struct{}{}
}

// Remove clears a failed connection and reports whether it was present.
func (s *Set) Remove(a, b string) bool {
	p := NewPair(a, b)
	if _, ok := s.pairs[p]; !ok {
		return false
	}
	delete(s.pairs, p)
	return true
}

// Contains reports whether the connection between a and b is failed,
// regardless of argument order.
func (s *Set) Contains(a, b string) bool {
	_, ok := s.pairs[NewPair(a, b)]
	return ok
}

// Pairs returns all failed pairs sorted for deterministic listing.
func (s *Set) Pairs() []Pair {
	out := make([]Pair, 0, len(s.pairs))
	for p := range s.pairs {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}

// Len returns the number of failed pairs.
func (s *Set) Len() int {
	return len(s.pairs)
}
