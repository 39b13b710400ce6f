// Package pddl compiles the PDDL-like action and domain documents into
// condition and effect trees. Trees are built once and never mutated.
package pddl

// Term is one argument position: a variable reference or a literal.
type Term struct {
	Var     string // variable name without '?', empty for literals
	Literal string
}

// IsVar reports whether the term is a variable reference.
func (t Term) IsVar() bool { return t.Var != "" }

func (t Term) String() string {
	if t.IsVar() {
		return "?" + t.Var
	}
	return t.Literal
}

// CondKind tags a condition node.
type CondKind int

const (
	CondPredicate CondKind = iota
	CondNumComp
	CondNot
	CondAnd
	CondOr
)

func (k CondKind) String() string {
	switch k {
	case CondPredicate:
		return "predicate"
	case CondNumComp:
		return "num_comp"
	case CondNot:
		return "not"
	case CondAnd:
		return "and"
	case CondOr:
		return "or"
	}
	return "unknown"
}

// Comparison operators allowed in numeric conditions.
const (
	OpEqual   = "="
	OpLess    = "<"
	OpLeq     = "<="
	OpGreater = ">"
	OpGreq    = ">="
)

// Condition is a precondition or when-condition node.
type Condition struct {
	Kind CondKind

	// CondPredicate
	Predicate string
	Args      []Term

	// CondNumComp
	Comparator string
	Left       *NumExpr
	Right      *NumExpr

	// CondNot (one child), CondAnd, CondOr
	Children []*Condition
}

// NumExpr is one side of a numeric comparison or a function-change value:
// a number, a function application, or a plain term.
type NumExpr struct {
	Number   *float64
	Function string // function name, with Args
	Args     []Term
	Term     *Term
}

// EffectKind tags an effect node.
type EffectKind int

const (
	EffAdd EffectKind = iota
	EffRemove
	EffFunction
	EffWhen
	EffForAll
	EffAnd
)

func (k EffectKind) String() string {
	switch k {
	case EffAdd:
		return "add"
	case EffRemove:
		return "remove"
	case EffFunction:
		return "function"
	case EffWhen:
		return "when"
	case EffForAll:
		return "forall"
	case EffAnd:
		return "and"
	}
	return "unknown"
}

// Function-change operators.
const (
	OpAssign   = "assign"
	OpIncrease = "increase"
	OpDecrease = "decrease"
)

// Effect is one effect node.
type Effect struct {
	Kind EffectKind

	// EffAdd, EffRemove
	Predicate string
	Args      []Term

	// EffFunction
	Op     string
	Target *NumExpr // always a function application
	Value  *NumExpr

	// EffWhen
	Cond *Condition

	// EffForAll
	Var   string
	Types []string // empty means every type-tagged entity

	// EffWhen, EffForAll, EffAnd
	Body []*Effect
}

// Parameter is one declared action parameter.
type Parameter struct {
	Name  string   // without '?'
	Types []string // more than one for (either ...)
}

// Action is a compiled action definition.
type Action struct {
	Name         string
	Parameters   []Parameter
	Precondition *Condition // always an and node
	Effects      []*Effect  // top-level effects, implicit and
}

// Param returns the parameter with the given name.
func (a *Action) Param(name string) (Parameter, bool) {
	for _, p := range a.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// Function is a declared numeric function.
type Function struct {
	Name       string
	Parameters []Parameter
}

// Domain is the compiled domain document.
type Domain struct {
	Name      string
	Types     map[string][]string // type -> direct parents
	TypeOrder []string            // declaration order of Types keys
	Functions []Function
}

// Leaves returns the predicate and numeric leaves of c in depth-first,
// left-to-right order. Failure templates are indexed by this order.
func (c *Condition) Leaves() []*Condition {
	if c == nil {
		return nil
	}
	switch c.Kind {
	case CondPredicate, CondNumComp:
		return []*Condition{c}
	}
	var out []*Condition
	for _, ch := range c.Children {
		out = append(out, ch.Leaves()...)
	}
	return out
}
