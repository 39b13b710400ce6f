package rules

import (
	"github.com/clp-research/clembench-sub000/engine/fact"
	"github.com/clp-research/clembench-sub000/engine/pddl"
	"github.com/clp-research/clembench-sub000/engine/state"
)

// Evaluate evaluates c against the world and returns the annotated trace.
func Evaluate(c *pddl.Condition, w *state.World, b Bindings) *Trace {
	idx := 0
	return evaluate(c, w, b, &idx)
}

func evaluate(c *pddl.Condition, w *state.World, b Bindings, idx *int) *Trace {
	t := &Trace{Kind: c.Kind, PreconIdx: -1}
	switch c.Kind {
	case pddl.CondPredicate:
		t.Fact = b.GroundFact(c.Predicate, c.Args)
		t.Fulfilled = w.Has(t.Fact)
		t.PreconIdx = *idx
		*idx++

	case pddl.CondNumComp:
		t.Comparator = c.Comparator
		var ok bool
		t.Fulfilled, t.Left, t.Right, ok = compare(c, w, b)
		if !ok {
			t.Fulfilled = false
		}
		t.PreconIdx = *idx
		*idx++

	case pddl.CondNot:
		ch := evaluate(c.Children[0], w, b, idx)
		t.Children = []*Trace{ch}
		t.Fulfilled = !ch.Fulfilled

	case pddl.CondAnd:
		t.Fulfilled = true
		for _, cc := range c.Children {
			ch := evaluate(cc, w, b, idx)
			t.Children = append(t.Children, ch)
			t.Fulfilled = t.Fulfilled && ch.Fulfilled
		}

	case pddl.CondOr:
		for _, cc := range c.Children {
			ch := evaluate(cc, w, b, idx)
			t.Children = append(t.Children, ch)
			t.Fulfilled = t.Fulfilled || ch.Fulfilled
		}
	}
	return t
}

// Holds evaluates c without building a trace.
func Holds(c *pddl.Condition, w *state.World, b Bindings) bool {
	switch c.Kind {
	case pddl.CondPredicate:
		return w.Has(b.GroundFact(c.Predicate, c.Args))
	case pddl.CondNumComp:
		ok, _, _, resolved := compare(c, w, b)
		return ok && resolved
	case pddl.CondNot:
		return !Holds(c.Children[0], w, b)
	case pddl.CondAnd:
		for _, ch := range c.Children {
			if !Holds(ch, w, b) {
				return false
			}
		}
		return true
	case pddl.CondOr:
		for _, ch := range c.Children {
			if Holds(ch, w, b) {
				return true
			}
		}
		return false
	}
	return false
}

// compare resolves both operands of a numeric leaf and applies its
// comparator. resolved is false when an operand has no value. Equality
// falls back to string comparison for non-numeric operands.
func compare(c *pddl.Condition, w *state.World, b Bindings) (result bool, left, right string, resolved bool) {
	left, lok := Operand(c.Left, w, b)
	right, rok := Operand(c.Right, w, b)
	if !lok || !rok {
		return false, left, right, false
	}
	lv, lnum := fact.ParseNumber(left)
	rv, rnum := fact.ParseNumber(right)
	if !lnum || !rnum {
		if c.Comparator == pddl.OpEqual {
			return left == right, left, right, true
		}
		return false, left, right, false
	}
	switch c.Comparator {
	case pddl.OpEqual:
		result = lv == rv
	case pddl.OpLess:
		result = lv < rv
	case pddl.OpLeq:
		result = lv <= rv
	case pddl.OpGreater:
		result = lv > rv
	case pddl.OpGreq:
		result = lv >= rv
	}
	return result, left, right, true
}

// Operand resolves a numeric expression to its literal form: a number, the
// value of a function fact, or a bound term.
func Operand(e *pddl.NumExpr, w *state.World, b Bindings) (string, bool) {
	switch {
	case e == nil:
		return "", false
	case e.Number != nil:
		return fact.Number(*e.Number), true
	case e.Function != "":
		v, _, ok := w.FunctionValue(e.Function, b.Ground(e.Args))
		if !ok {
			return "", false
		}
		return fact.Number(v), true
	case e.Term != nil:
		return b.Ground([]pddl.Term{*e.Term})[0], true
	}
	return "", false
}
