package state

import (
	"sort"

	"github.com/clp-research/clembench-sub000/engine/pddl"
	"github.com/clp-research/clembench-sub000/types"
)

// Hierarchy maps each type to its transitive supertypes.
type Hierarchy struct {
	supers map[string][]string
}

// NewHierarchy derives the supertype map from entity traits, room types and
// the domain (:types ...) block. Every entity type is an entity, every room
// type is a room, and everything is an object.
func NewHierarchy(dom *pddl.Domain, entities map[string]types.EntityTypeDef, rooms map[string]types.RoomTypeDef) *Hierarchy {
	parents := map[string][]string{}
	add := func(child string, ps ...string) {
		for _, p := range ps {
			if p != child {
				parents[child] = append(parents[child], p)
			}
		}
	}
	if dom != nil {
		for _, t := range dom.TypeOrder {
			add(t, dom.Types[t]...)
		}
	}
	for _, id := range sortedKeys(entities) {
		add(id, entities[id].Traits...)
		add(id, "entity")
	}
	for _, id := range sortedKeys(rooms) {
		add(id, "room")
	}

	h := &Hierarchy{supers: map[string][]string{}}
	for child := range parents {
		h.supers[child] = closure(child, parents)
	}
	return h
}

func closure(t string, parents map[string][]string) []string {
	seen := map[string]bool{t: true}
	var out []string
	queue := append([]string(nil), parents[t]...)
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
		queue = append(queue, parents[p]...)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Supertypes returns the transitive supertypes of t, nearest first.
func (h *Hierarchy) Supertypes(t string) []string {
	return h.supers[t]
}

// IsA reports whether t equals declared or declared is one of its supertypes.
func (h *Hierarchy) IsA(t, declared string) bool {
	if t == declared || declared == "object" {
		return true
	}
	for _, s := range h.supers[t] {
		if s == declared {
			return true
		}
	}
	return false
}

// IsAny reports whether t is any of the declared types.
func (h *Hierarchy) IsAny(t string, declared []string) bool {
	for _, d := range declared {
		if h.IsA(t, d) {
			return true
		}
	}
	return false
}
