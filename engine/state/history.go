package state

import "github.com/clp-research/clembench-sub000/engine/fact"

// History is the list of world snapshots, one per successful action,
// preceded by the initial state.
type History struct {
	snaps []*fact.Set
}

// Append stores a deep copy of facts.
func (h *History) Append(facts *fact.Set) {
	h.snaps = append(h.snaps, facts.Clone())
}

// Len returns the number of snapshots.
func (h *History) Len() int { return len(h.snaps) }

// At returns snapshot i. The returned set must not be modified.
func (h *History) At(i int) *fact.Set { return h.snaps[i] }

// Last returns the most recent snapshot, or nil.
func (h *History) Last() *fact.Set {
	if len(h.snaps) == 0 {
		return nil
	}
	return h.snaps[len(h.snaps)-1]
}

// Truncate drops every snapshot after the first n.
func (h *History) Truncate(n int) {
	if n < len(h.snaps) {
		h.snaps = h.snaps[:n]
	}
}
