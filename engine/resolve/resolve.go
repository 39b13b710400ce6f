// Package resolve maps surface strings from parsed commands to type ids,
// grounds type words to instances, and renders instances back to text.
package resolve

import (
	"fmt"
	"log"
	"maps"
	"slices"
	"strings"

	"github.com/clp-research/clembench-sub000/engine/fact"
	"github.com/clp-research/clembench-sub000/engine/state"
)

// UndefinedError indicates a surface string no entity or room type uses.
type UndefinedError struct {
	Surface string
}

func (e *UndefinedError) Error() string {
	return fmt.Sprintf("undefined surface string %q", e.Surface)
}

// Resolver translates between surface strings and type ids. Entity and room
// surfaces share one namespace.
type Resolver struct {
	defs    *state.Defs
	types   map[string]string // surface -> type id
	surface map[string]string // type id -> surface
	logger  *log.Logger
}

// New builds a resolver from the definitions. Warnings about fallback
// descriptions go to logger.
func New(defs *state.Defs, logger *log.Logger) *Resolver {
	r := &Resolver{
		defs:    defs,
		types:   map[string]string{},
		surface: map[string]string{},
		logger:  logger,
	}
	for _, id := range slices.Sorted(maps.Keys(defs.Entities)) {
		r.register(id, defs.Entities[id].Repr)
	}
	for _, id := range slices.Sorted(maps.Keys(defs.Rooms)) {
		r.register(id, defs.Rooms[id].Repr)
	}
	return r
}

func (r *Resolver) register(id, repr string) {
	if repr == "" {
		repr = strings.ReplaceAll(id, "_", " ")
	}
	repr = strings.ToLower(repr)
	r.types[repr] = id
	r.surface[id] = repr
}

// Resolve maps a surface string to its type id.
func (r *Resolver) Resolve(surface string) (string, error) {
	if id, ok := r.types[strings.ToLower(strings.TrimSpace(surface))]; ok {
		return id, nil
	}
	return "", &UndefinedError{Surface: surface}
}

// IsRoom reports whether a type id names a room type.
func (r *Resolver) IsRoom(typeID string) bool {
	_, ok := r.defs.Rooms[typeID]
	return ok
}

// Surface returns the surface string of a type id.
func (r *Resolver) Surface(typeID string) string {
	if s, ok := r.surface[typeID]; ok {
		return s
	}
	return typeID
}

// Describe renders an instance as text: its adjectives in fact discovery
// order followed by its type's surface string. Type words and unknown
// values are rendered through their surface string.
func (r *Resolver) Describe(w *state.World, value string) string {
	if value == state.Inventory {
		return state.Inventory
	}
	typ, ok := w.TypeOf(value)
	if !ok {
		if _, known := r.surface[value]; known {
			return r.Surface(value)
		}
		typ = fallbackType(value)
		if typ == value {
			return value
		}
		r.warnf("no type indexed for %q, describing it as %q", value, typ)
		return r.Surface(typ)
	}
	if w.IsRoom(value) {
		return r.Surface(typ)
	}
	var parts []string
	for _, f := range w.Facts().Select("adj") {
		if f.Arg1 == value {
			parts = append(parts, f.Arg2)
		}
	}
	parts = append(parts, r.Surface(typ))
	return strings.Join(parts, " ")
}

// fallbackType recovers a type word from an instance id by stripping a
// floor suffix or trailing digits.
func fallbackType(id string) string {
	if strings.HasSuffix(id, state.FloorType) && len(id) > len(state.FloorType) {
		return state.FloorType
	}
	return strings.TrimRight(id, "0123456789")
}

func (r *Resolver) warnf(format string, args ...any) {
	if r.logger != nil {
		r.logger.Printf(format, args...)
	}
}

// Ground picks the instance of type typeID a command most plausibly means.
// Candidates must carry every adjective in adjs; among them, instances the
// player can reach win, then discovery order decides. For room types, the
// player's current room wins, then rooms connected to it by an exit.
// It returns false when no instance matches.
func (r *Resolver) Ground(w *state.World, typeID string, adjs []string) (string, bool) {
	var candidates []string
	if r.IsRoom(typeID) {
		candidates = w.RoomsOf(typeID)
	} else {
		candidates = w.InstancesOf(typeID)
	}
	candidates = withAdjectives(w, candidates, adjs)
	if len(candidates) == 0 {
		return "", false
	}

	room := w.PlayerRoom()
	if r.IsRoom(typeID) {
		exits := map[string]bool{}
		for _, e := range w.Exits(room) {
			exits[e] = true
		}
		for _, c := range candidates {
			if c == room {
				return c, true
			}
		}
		for _, c := range candidates {
			if exits[c] {
				return c, true
			}
		}
		return candidates[0], true
	}

	for _, c := range candidates {
		if w.Has(fact.New("at", c, room)) || w.Has(fact.New("in", c, state.Inventory)) {
			return c, true
		}
	}
	return candidates[0], true
}

func withAdjectives(w *state.World, candidates, adjs []string) []string {
	if len(adjs) == 0 {
		return candidates
	}
	var out []string
	for _, c := range candidates {
		all := true
		for _, a := range adjs {
			if !w.Has(fact.New("adj", c, a)) {
				all = false
				break
			}
		}
		if all {
			out = append(out, c)
		}
	}
	return out
}
