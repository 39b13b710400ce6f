package state

import (
	"github.com/clp-research/clembench-sub000/engine/fact"
)

// FloorType is the entity type injected as a floor into every room.
const FloorType = "floor"

// FloorOf returns the floor instance id of a room instance.
func FloorOf(room string) string {
	return room + FloorType
}

// Augment completes an adventure's initial facts before play:
//   - trait facts for every type-tagged entity,
//   - a floor instance in every room when a floor type is defined,
//   - needs_support entities with no in/on relation are put on their room's floor,
//   - every declared numeric function starts at 0 for each matching instance.
func Augment(w *World, defs *Defs) {
	var added []fact.Fact

	if floor, ok := defs.Entities[FloorType]; ok {
		for _, room := range w.Rooms() {
			id := FloorOf(room)
			added = append(added, fact.New("type", id, FloorType), fact.New("at", id, room))
			for _, t := range floor.Traits {
				added = append(added, fact.New(t, id))
			}
		}
	}
	w.Add(added...)
	added = nil

	for _, inst := range w.Entities() {
		t, _ := w.TypeOf(inst)
		def, ok := defs.Entities[t]
		if !ok {
			continue
		}
		for _, trait := range def.Traits {
			added = append(added, fact.New(trait, inst))
		}
		if defs.HasTrait(t, "needs_support") {
			room := w.Location(inst)
			if _, holder := w.Container(inst); holder == "" && room != "" && w.IsIndexed(FloorOf(room)) {
				added = append(added, fact.New("on", inst, FloorOf(room)))
			}
		}
	}
	w.Add(added...)
	added = nil

	for _, fn := range defs.Domain.Functions {
		if len(fn.Parameters) != 1 {
			continue
		}
		param := fn.Parameters[0]
		for _, inst := range append(w.Entities(), w.Rooms()...) {
			t, _ := w.TypeOf(inst)
			if !defs.Hierarchy.IsAny(t, param.Types) {
				continue
			}
			if _, _, ok := w.FunctionValue(fn.Name, []string{inst}); ok {
				continue
			}
			added = append(added, fact.New(fn.Name, inst, fact.Number(0)))
		}
	}
	w.Add(added...)
}

// IsIndexed reports whether inst is a known entity or room instance.
func (w *World) IsIndexed(inst string) bool {
	return w.instances[inst] != "" || w.rooms[inst] != ""
}
