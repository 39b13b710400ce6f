// Package rules evaluates precondition trees against the world, producing
// an annotated trace, and selects which failed clause to report.
package rules

import (
	"github.com/clp-research/clembench-sub000/engine/fact"
	"github.com/clp-research/clembench-sub000/engine/pddl"
)

// Bindings maps PDDL variable names (without '?') to resolved symbols.
type Bindings map[string]fact.Symbol

// Value returns the bound value of a variable, or the Absent sentinel.
func (b Bindings) Value(name string) string {
	if s, ok := b[name]; ok {
		return s.Value
	}
	return fact.Absent
}

// With returns a copy of b with name bound to s.
func (b Bindings) With(name string, s fact.Symbol) Bindings {
	out := make(Bindings, len(b)+1)
	for k, v := range b {
		out[k] = v
	}
	out[name] = s
	return out
}

// Ground substitutes bound values into terms.
func (b Bindings) Ground(terms []pddl.Term) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		if t.IsVar() {
			out[i] = b.Value(t.Var)
		} else {
			out[i] = t.Literal
		}
	}
	return out
}

// GroundFact builds the ground fact for a predicate over terms.
func (b Bindings) GroundFact(predicate string, terms []pddl.Term) fact.Fact {
	return fact.New(predicate, b.Ground(terms)...)
}

// Trace is the evaluated copy of a condition tree. Leaves carry their ground
// fact (or resolved numeric operands) and a PreconIdx numbering them in
// depth-first, left-to-right order; inner nodes have PreconIdx -1.
type Trace struct {
	Kind       pddl.CondKind
	Fact       fact.Fact // predicate leaves
	Comparator string    // numeric leaves
	Left       string
	Right      string
	Fulfilled  bool
	PreconIdx  int
	Children   []*Trace
}

// IsLeaf reports whether the node is a predicate or numeric leaf.
func (t *Trace) IsLeaf() bool {
	return t.Kind == pddl.CondPredicate || t.Kind == pddl.CondNumComp
}

// FirstFailure returns the leaf responsible for t evaluating false, or nil
// if t holds. Leaves are searched in PreconIdx order; an or node reports
// its first failing child only when every child failed, and not flips
// which outcome counts as failing.
func FirstFailure(t *Trace) *Trace {
	if t == nil {
		return nil
	}
	return failing(t, true)
}

func failing(t *Trace, want bool) *Trace {
	if t.Fulfilled == want {
		return nil
	}
	switch t.Kind {
	case pddl.CondNot:
		return failing(t.Children[0], !want)
	case pddl.CondAnd, pddl.CondOr:
		for _, ch := range t.Children {
			if f := failing(ch, want); f != nil {
				return f
			}
		}
		return nil
	}
	return t
}
