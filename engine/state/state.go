// Package state holds the compiled, immutable game definitions and the
// mutable world: a fact set plus the instance and room indices derived
// from its type and room facts.
package state

import (
	"fmt"
	"sort"

	"github.com/clp-research/clembench-sub000/engine/pddl"
	"github.com/clp-research/clembench-sub000/types"
)

// Action is an action definition together with its compiled schema.
type Action struct {
	types.ActionTypeDef
	Schema *pddl.Action
}

// Defs holds the immutable game definitions. Built once by NewDefs.
type Defs struct {
	Game        types.GameDef
	Grammar     types.GrammarHead
	Entities    map[string]types.EntityTypeDef
	Rooms       map[string]types.RoomTypeDef
	Actions     map[string]Action
	ActionOrder []string // action names, sorted
	Domain      *pddl.Domain
	Hierarchy   *Hierarchy
}

// NewDefs compiles every action and the domain document of a catalog.
func NewDefs(cat *types.Catalog) (*Defs, error) {
	defs := &Defs{
		Game:     cat.Game,
		Grammar:  cat.Grammar,
		Entities: map[string]types.EntityTypeDef{},
		Rooms:    map[string]types.RoomTypeDef{},
		Actions:  map[string]Action{},
		Domain:   &pddl.Domain{Types: map[string][]string{}},
	}
	for id, e := range cat.Entities {
		if e.ID == "" {
			e.ID = id
		}
		defs.Entities[id] = e
	}
	for id, r := range cat.Rooms {
		if r.ID == "" {
			r.ID = id
		}
		defs.Rooms[id] = r
	}

	if cat.Domain != "" {
		dom, err := pddl.CompileDomain(cat.Domain)
		if err != nil {
			return nil, fmt.Errorf("compiling domain: %w", err)
		}
		defs.Domain = dom
	}

	for name, a := range cat.Actions {
		if a.Name == "" {
			a.Name = name
		}
		schema, err := pddl.CompileAction(a.PDDL)
		if err != nil {
			return nil, fmt.Errorf("compiling action %s: %w", name, err)
		}
		if a.Grammar.Action == "" {
			a.Grammar.Action = name
		}
		defs.Actions[name] = Action{ActionTypeDef: a, Schema: schema}
		defs.ActionOrder = append(defs.ActionOrder, name)
	}
	sort.Strings(defs.ActionOrder)

	defs.Hierarchy = NewHierarchy(defs.Domain, defs.Entities, defs.Rooms)
	return defs, nil
}

// Fragments returns every action's grammar fragment in action order.
func (d *Defs) Fragments() []types.GrammarFragment {
	out := make([]types.GrammarFragment, 0, len(d.ActionOrder))
	for _, name := range d.ActionOrder {
		out = append(out, d.Actions[name].Grammar)
	}
	return out
}

// Adjectives returns the sorted union of every entity type's adjectives.
func (d *Defs) Adjectives() []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range d.Entities {
		for _, a := range e.Adjectives {
			if !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
		}
	}
	sort.Strings(out)
	return out
}

// HasTrait reports whether an entity type declares a trait.
func (d *Defs) HasTrait(entityType, trait string) bool {
	for _, t := range d.Entities[entityType].Traits {
		if t == trait {
			return true
		}
	}
	return false
}
