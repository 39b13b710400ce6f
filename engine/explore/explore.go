// Package explore tracks the facts the player has perceived so far.
package explore

import (
	"github.com/clp-research/clembench-sub000/engine/fact"
	"github.com/clp-research/clembench-sub000/engine/state"
	"github.com/clp-research/clembench-sub000/types"
)

// Tracker holds the cumulative set of known facts and one snapshot of it
// per update.
type Tracker struct {
	defs    *state.Defs
	static  map[string]bool
	known   *fact.Set
	history []*fact.Set
}

// New creates an empty tracker. Type, room, adjective and trait facts never
// change during play and are not tracked.
func New(defs *state.Defs) *Tracker {
	static := map[string]bool{"type": true, "room": true, "adj": true}
	for _, e := range defs.Entities {
		for _, tr := range e.Traits {
			static[tr] = true
		}
	}
	return &Tracker{defs: defs, static: static, known: fact.NewSet()}
}

// Known returns the cumulative known set. Callers must not modify it.
func (t *Tracker) Known() *fact.Set { return t.known }

// Len returns the number of updates recorded.
func (t *Tracker) Len() int { return len(t.history) }

// Perceived computes what the player can perceive right now: their own
// location, the mutable facts of visible entities in their room, the
// contents of their inventory, and the room's exits.
func (t *Tracker) Perceived(w *state.World) *fact.Set {
	out := fact.NewSet()
	player := w.Player()
	room := w.Location(player)
	if room == "" {
		return out
	}
	out.Add(fact.New("at", player, room))

	visible := map[string]bool{}
	for _, inst := range w.Entities() {
		if inst == player || w.Location(inst) != room || t.hidden(w, inst) {
			continue
		}
		if prep, holder := w.Container(inst); prep == "in" && w.Has(fact.New("closed", holder)) {
			continue
		}
		visible[inst] = true
	}

	for _, f := range w.Facts().Facts() {
		switch {
		case f.Predicate == "in" && f.Arg2 == state.Inventory:
			out.Add(f)
		case f.Predicate == "exit" && f.Arg1 == room:
			out.Add(f)
		case visible[f.Arg1] && !t.static[f.Predicate]:
			out.Add(f)
		}
	}
	return out
}

func (t *Tracker) hidden(w *state.World, inst string) bool {
	typ, _ := w.TypeOf(inst)
	return t.defs.Entities[typ].Hidden
}

// Update merges what is perceived now into the known set, then drops every
// fact the last action removed, and records a snapshot.
func (t *Tracker) Update(w *state.World, removed *fact.Set) types.ExplorationInfo {
	prior := t.known.Clone()
	perceived := t.Perceived(w)
	t.known.Union(perceived)
	for _, f := range removed.Facts() {
		t.known.Remove(f)
	}
	t.history = append(t.history, t.known.Clone())

	return types.ExplorationInfo{
		KnownFacts:    t.known.Len(),
		EpistemicGain: t.known.Difference(prior).Facts(),
		Perceived:     perceived.Facts(),
	}
}

// Checkpoint is a saved tracker state.
type Checkpoint struct {
	known   *fact.Set
	history int
}

// Checkpoint captures the tracker state for a later Restore.
func (t *Tracker) Checkpoint() Checkpoint {
	return Checkpoint{known: t.known.Clone(), history: len(t.history)}
}

// Restore rolls the tracker back to a checkpoint.
func (t *Tracker) Restore(cp Checkpoint) {
	t.known = cp.known.Clone()
	if cp.history < len(t.history) {
		t.history = t.history[:cp.history]
	}
}
