// Package fact defines ground predicate tuples, the symbols they are built
// from, and insertion-ordered fact sets.
package fact

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxArity is the largest number of arguments a fact can carry.
const MaxArity = 3

// Absent is the value bound to an optional argument the command did not
// supply. Facts containing it are never added to the world.
const Absent = "<absent>"

// Fact is one ground predicate tuple: predicate(arg1[,arg2[,arg3]]).
// Unused trailing arguments are empty. Facts are comparable and can be used
// as map keys.
type Fact struct {
	Predicate string
	Arg1      string
	Arg2      string
	Arg3      string
}

// New builds a fact from a predicate and up to MaxArity arguments.
// It panics on more arguments; callers building facts from untrusted input
// should use Parse.
func New(predicate string, args ...string) Fact {
	if len(args) > MaxArity {
		panic(fmt.Sprintf("fact %s: %d arguments, at most %d allowed", predicate, len(args), MaxArity))
	}
	f := Fact{Predicate: predicate}
	for i, a := range args {
		f = f.with(i, a)
	}
	return f
}

func (f Fact) with(i int, v string) Fact {
	switch i {
	case 0:
		f.Arg1 = v
	case 1:
		f.Arg2 = v
	case 2:
		f.Arg3 = v
	}
	return f
}

// Arg returns the i-th argument (0-based), or "" when out of range.
func (f Fact) Arg(i int) string {
	switch i {
	case 0:
		return f.Arg1
	case 1:
		return f.Arg2
	case 2:
		return f.Arg3
	}
	return ""
}

// Arity returns the number of arguments.
func (f Fact) Arity() int {
	switch {
	case f.Arg3 != "":
		return 3
	case f.Arg2 != "":
		return 2
	case f.Arg1 != "":
		return 1
	}
	return 0
}

// Args returns the arguments as a slice.
func (f Fact) Args() []string {
	n := f.Arity()
	args := make([]string, n)
	for i := 0; i < n; i++ {
		args[i] = f.Arg(i)
	}
	return args
}

// Mentions reports whether any argument equals v.
func (f Fact) Mentions(v string) bool {
	return f.Arg1 == v || f.Arg2 == v || f.Arg3 == v
}

// HasAbsent reports whether any argument is the Absent sentinel.
func (f Fact) HasAbsent() bool {
	return f.Mentions(Absent)
}

// String renders the canonical form predicate(arg1,arg2).
func (f Fact) String() string {
	return f.Predicate + "(" + strings.Join(f.Args(), ",") + ")"
}

// Number renders a numeric literal in the canonical form used inside facts.
func Number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParseNumber parses a numeric literal argument.
func ParseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Kind tags what a symbol refers to.
type Kind int

const (
	// TypeWord is a bare type name that could not be grounded to an instance.
	TypeWord Kind = iota
	// Instance is a spawned entity or room identifier.
	Instance
	// AbsentArg marks an optional argument the command did not supply.
	AbsentArg
)

func (k Kind) String() string {
	switch k {
	case Instance:
		return "instance"
	case AbsentArg:
		return "absent"
	default:
		return "type"
	}
}

// Symbol is a classified argument value.
type Symbol struct {
	Kind  Kind
	Value string
}

// InstanceSymbol tags id as an instance.
func InstanceSymbol(id string) Symbol {
	return Symbol{Kind: Instance, Value: id}
}

// TypeSymbol tags name as a type word.
func TypeSymbol(name string) Symbol {
	return Symbol{Kind: TypeWord, Value: name}
}

// AbsentSymbol is the symbol bound to an unsupplied optional argument.
func AbsentSymbol() Symbol {
	return Symbol{Kind: AbsentArg, Value: Absent}
}

// LooksLikeInstance applies the string-shape rule for instance identifiers:
// a trailing digit, or the inventory singleton.
func LooksLikeInstance(v string) bool {
	if v == "inventory" {
		return true
	}
	if v == "" {
		return false
	}
	last := v[len(v)-1]
	return last >= '0' && last <= '9'
}
