// Package effects evaluates compiled effect trees into one world-state delta.
package effects

import (
	"strings"

	"github.com/clp-research/clembench-sub000/engine/fact"
	"github.com/clp-research/clembench-sub000/engine/pddl"
	"github.com/clp-research/clembench-sub000/engine/rules"
	"github.com/clp-research/clembench-sub000/engine/state"
)

// Apply evaluates effs against the pre-effect world under the bindings and
// returns the accumulated delta. The world is not modified; the caller
// applies the delta as the action's single mutation. Conditions inside when
// see the pre-effect world. Added holds only facts that were not already
// true; Removed holds only facts that were true and are not re-added.
func Apply(effs []*pddl.Effect, w *state.World, h *state.Hierarchy, b rules.Bindings) state.Delta {
	acc := &accumulator{
		world:   w,
		hier:    h,
		adds:    fact.NewSet(),
		removes: fact.NewSet(),
		pending: map[string]fact.Fact{},
	}
	for _, e := range effs {
		acc.apply(e, b)
	}

	d := state.NewDelta()
	for _, f := range acc.removes.Facts() {
		if w.Has(f) && !acc.adds.Has(f) {
			d.Removed.Add(f)
		}
	}
	for _, f := range acc.adds.Facts() {
		if !w.Has(f) {
			d.Added.Add(f)
		}
	}
	return d
}

type accumulator struct {
	world   *state.World
	hier    *state.Hierarchy
	adds    *fact.Set
	removes *fact.Set
	// pending holds the latest value fact per function application, so
	// repeated changes within one action compound.
	pending map[string]fact.Fact
}

func (a *accumulator) apply(e *pddl.Effect, b rules.Bindings) {
	switch e.Kind {
	case pddl.EffAdd:
		f := b.GroundFact(e.Predicate, e.Args)
		if f.HasAbsent() {
			return
		}
		a.adds.Add(f)

	case pddl.EffRemove:
		a.removes.Add(b.GroundFact(e.Predicate, e.Args))

	case pddl.EffFunction:
		a.changeFunction(e, b)

	case pddl.EffWhen:
		if !rules.Holds(e.Cond, a.world, b) {
			return
		}
		for _, ch := range e.Body {
			a.apply(ch, b)
		}

	case pddl.EffForAll:
		for _, inst := range a.domain(e.Types) {
			inner := b.With(e.Var, fact.InstanceSymbol(inst))
			for _, ch := range e.Body {
				a.apply(ch, inner)
			}
		}

	case pddl.EffAnd:
		for _, ch := range e.Body {
			a.apply(ch, b)
		}
	}
}

// domain lists the instances a forall ranges over: every type-tagged
// entity, or those whose type matches one of types.
func (a *accumulator) domain(types []string) []string {
	all := a.world.Entities()
	if len(types) == 0 {
		return all
	}
	var out []string
	for _, inst := range all {
		t, _ := a.world.TypeOf(inst)
		if a.hier.IsAny(t, types) {
			out = append(out, inst)
		}
	}
	return out
}

func (a *accumulator) changeFunction(e *pddl.Effect, b rules.Bindings) {
	args := b.Ground(e.Target.Args)
	for _, arg := range args {
		if arg == fact.Absent {
			return
		}
	}
	key := e.Target.Function + "(" + strings.Join(args, ",") + ")"

	var current float64
	old, fromPending := a.pending[key]
	if fromPending {
		current, _ = fact.ParseNumber(old.Arg(len(args)))
	} else if v, f, ok := a.world.FunctionValue(e.Target.Function, args); ok {
		current, old = v, f
	}

	operand, ok := rules.Operand(e.Value, a.world, b)
	if !ok {
		return
	}
	v, ok := fact.ParseNumber(operand)
	if !ok {
		return
	}

	switch e.Op {
	case pddl.OpAssign:
		current = v
	case pddl.OpIncrease:
		current += v
	case pddl.OpDecrease:
		current -= v
	}

	if fromPending {
		a.adds.Remove(old)
	} else if old.Predicate != "" {
		a.removes.Add(old)
	}
	next := fact.New(e.Target.Function, append(args, fact.Number(current))...)
	a.adds.Add(next)
	a.pending[key] = next
}
