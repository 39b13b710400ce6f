package fact

import "sort"

// Set is a set of facts that remembers discovery order. Iteration through
// Facts is deterministic: facts come back in the order they were first
// added (a removed and re-added fact counts as newly discovered).
// The zero value is an empty set ready to use.
type Set struct {
	seq   uint64
	items map[Fact]uint64
}

// NewSet returns a set holding the given facts, in order.
func NewSet(facts ...Fact) *Set {
	s := &Set{items: make(map[Fact]uint64, len(facts))}
	for _, f := range facts {
		s.Add(f)
	}
	return s
}

// Add inserts f. It returns false if f was already present.
func (s *Set) Add(f Fact) bool {
	if s.items == nil {
		s.items = map[Fact]uint64{}
	}
	if _, ok := s.items[f]; ok {
		return false
	}
	s.seq++
	s.items[f] = s.seq
	return true
}

// Remove deletes f. Removing an absent fact is not an error; the return
// value reports whether anything was removed.
func (s *Set) Remove(f Fact) bool {
	if _, ok := s.items[f]; !ok {
		return false
	}
	delete(s.items, f)
	return true
}

// Has reports membership.
func (s *Set) Has(f Fact) bool {
	if s == nil {
		return false
	}
	_, ok := s.items[f]
	return ok
}

// Len returns the number of facts.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Facts returns the facts in discovery order.
func (s *Set) Facts() []Fact {
	if s == nil {
		return nil
	}
	out := make([]Fact, 0, len(s.items))
	for f := range s.items {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		return s.items[out[i]] < s.items[out[j]]
	})
	return out
}

// Strings returns the canonical string forms in discovery order.
func (s *Set) Strings() []string {
	facts := s.Facts()
	out := make([]string, len(facts))
	for i, f := range facts {
		out[i] = f.String()
	}
	return out
}

// Clone returns a deep copy that preserves discovery order.
func (s *Set) Clone() *Set {
	c := &Set{items: make(map[Fact]uint64, s.Len())}
	if s == nil {
		return c
	}
	c.seq = s.seq
	for f, n := range s.items {
		c.items[f] = n
	}
	return c
}

// Union adds every fact of o to s, in o's order.
func (s *Set) Union(o *Set) {
	for _, f := range o.Facts() {
		s.Add(f)
	}
}

// Intersect returns the facts of s also present in o, in s's order.
func (s *Set) Intersect(o *Set) *Set {
	out := NewSet()
	for _, f := range s.Facts() {
		if o.Has(f) {
			out.Add(f)
		}
	}
	return out
}

// Difference returns the facts of s not present in o, in s's order.
func (s *Set) Difference(o *Set) *Set {
	out := NewSet()
	for _, f := range s.Facts() {
		if !o.Has(f) {
			out.Add(f)
		}
	}
	return out
}

// Equal reports whether both sets hold the same facts, ignoring order.
func (s *Set) Equal(o *Set) bool {
	if s.Len() != o.Len() {
		return false
	}
	for _, f := range s.Facts() {
		if !o.Has(f) {
			return false
		}
	}
	return true
}

// Select returns the facts with the given predicate, in discovery order.
func (s *Set) Select(predicate string) []Fact {
	var out []Fact
	for _, f := range s.Facts() {
		if f.Predicate == predicate {
			out = append(out, f)
		}
	}
	return out
}
