package state

import (
	"github.com/clp-research/clembench-sub000/engine/fact"
	"github.com/clp-research/clembench-sub000/types"
)

// Inventory is the singleton instance holding the player's items.
const Inventory = "inventory"

// Delta is the accumulated outcome of one action's effects.
type Delta struct {
	Added   *fact.Set
	Removed *fact.Set
}

// NewDelta returns an empty delta.
func NewDelta() Delta {
	return Delta{Added: fact.NewSet(), Removed: fact.NewSet()}
}

// Empty reports whether the delta changes nothing.
func (d Delta) Empty() bool {
	return d.Added.Len() == 0 && d.Removed.Len() == 0
}

// Effects converts the delta to its reporting form.
func (d Delta) Effects() *types.WorldStateEffects {
	return &types.WorldStateEffects{Added: d.Added.Facts(), Removed: d.Removed.Facts()}
}

// World is the set of currently true facts plus the instance -> type and
// room -> room type indices derived from type(x,t) and room(x,t) facts.
// The Action Resolver is its only writer.
type World struct {
	facts     *fact.Set
	instances map[string]string
	rooms     map[string]string
}

// NewWorld takes ownership of facts and indexes them.
func NewWorld(facts *fact.Set) *World {
	if facts == nil {
		facts = fact.NewSet()
	}
	w := &World{facts: facts}
	w.reindex()
	return w
}

func (w *World) reindex() {
	w.instances = map[string]string{}
	w.rooms = map[string]string{}
	for _, f := range w.facts.Facts() {
		switch f.Predicate {
		case "type":
			w.instances[f.Arg1] = f.Arg2
		case "room":
			w.rooms[f.Arg1] = f.Arg2
		}
	}
}

// Facts returns the live fact set. Callers must not modify it.
func (w *World) Facts() *fact.Set { return w.facts }

// Has reports whether f is currently true.
func (w *World) Has(f fact.Fact) bool { return w.facts.Has(f) }

// Len returns the number of true facts.
func (w *World) Len() int { return w.facts.Len() }

// Snapshot returns a deep copy of the fact set.
func (w *World) Snapshot() *fact.Set { return w.facts.Clone() }

// Clone returns an independent copy of the world.
func (w *World) Clone() *World { return NewWorld(w.facts.Clone()) }

// Restore replaces the world's facts with a snapshot.
func (w *World) Restore(snap *fact.Set) {
	w.facts = snap.Clone()
	w.reindex()
}

// Apply performs the single mutation for one action: removes, then adds.
func (w *World) Apply(d Delta) {
	for _, f := range d.Removed.Facts() {
		w.facts.Remove(f)
	}
	for _, f := range d.Added.Facts() {
		w.facts.Add(f)
	}
	w.reindex()
}

// Add inserts facts during seeding and augmentation.
func (w *World) Add(facts ...fact.Fact) {
	for _, f := range facts {
		w.facts.Add(f)
	}
	w.reindex()
}

// Classify tags a value as an instance, a type word or the absent
// sentinel. Indexed identifiers are instances; anything else falls back
// to the identifier shape rule.
func (w *World) Classify(v string) fact.Symbol {
	switch {
	case v == fact.Absent:
		return fact.AbsentSymbol()
	case w.instances[v] != "", w.rooms[v] != "":
		return fact.InstanceSymbol(v)
	case fact.LooksLikeInstance(v):
		return fact.InstanceSymbol(v)
	}
	return fact.TypeSymbol(v)
}

// TypeOf returns the concrete type of an entity or room instance.
func (w *World) TypeOf(inst string) (string, bool) {
	if t, ok := w.instances[inst]; ok {
		return t, true
	}
	if t, ok := w.rooms[inst]; ok {
		return t, true
	}
	if inst == Inventory {
		return Inventory, true
	}
	return "", false
}

// IsRoom reports whether inst is an indexed room instance.
func (w *World) IsRoom(inst string) bool {
	_, ok := w.rooms[inst]
	return ok
}

// Entities returns every type-tagged instance in discovery order.
func (w *World) Entities() []string {
	var out []string
	for _, f := range w.facts.Select("type") {
		out = append(out, f.Arg1)
	}
	return out
}

// InstancesOf returns the entity instances of exactly type t, in discovery order.
func (w *World) InstancesOf(t string) []string {
	var out []string
	for _, f := range w.facts.Select("type") {
		if f.Arg2 == t {
			out = append(out, f.Arg1)
		}
	}
	return out
}

// Rooms returns every room instance in discovery order.
func (w *World) Rooms() []string {
	var out []string
	for _, f := range w.facts.Select("room") {
		out = append(out, f.Arg1)
	}
	return out
}

// RoomsOf returns the room instances of room type t, in discovery order.
func (w *World) RoomsOf(t string) []string {
	var out []string
	for _, f := range w.facts.Select("room") {
		if f.Arg2 == t {
			out = append(out, f.Arg1)
		}
	}
	return out
}

// Player returns the player instance, or "" if none is declared.
func (w *World) Player() string {
	if ps := w.InstancesOf("player"); len(ps) > 0 {
		return ps[0]
	}
	return ""
}

// Location returns the room an instance is at, or "".
func (w *World) Location(inst string) string {
	for _, f := range w.facts.Select("at") {
		if f.Arg1 == inst {
			return f.Arg2
		}
	}
	return ""
}

// PlayerRoom returns the room the player is at.
func (w *World) PlayerRoom() string {
	return w.Location(w.Player())
}

// Container returns the in/on relation holding inst, e.g. ("in", "cupboard1").
func (w *World) Container(inst string) (prep, holder string) {
	for _, f := range w.facts.Facts() {
		if (f.Predicate == "in" || f.Predicate == "on") && f.Arg1 == inst {
			return f.Predicate, f.Arg2
		}
	}
	return "", ""
}

// Exits returns the rooms reachable from room via exit facts.
func (w *World) Exits(room string) []string {
	var out []string
	for _, f := range w.facts.Select("exit") {
		if f.Arg1 == room {
			out = append(out, f.Arg2)
		}
	}
	return out
}

// FunctionValue looks up the value of a numeric function fact
// name(args..., value). It returns the fact so callers can replace it.
func (w *World) FunctionValue(name string, args []string) (float64, fact.Fact, bool) {
	for _, f := range w.facts.Select(name) {
		if f.Arity() != len(args)+1 {
			continue
		}
		match := true
		for i, a := range args {
			if f.Arg(i) != a {
				match = false
				break
			}
		}
		if !match {
			continue
		}
		if v, ok := fact.ParseNumber(f.Arg(len(args))); ok {
			return v, f, true
		}
	}
	return 0, fact.Fact{}, false
}
