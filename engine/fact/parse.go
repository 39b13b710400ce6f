package fact

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

type tuple struct {
	Predicate string   `@Ident "("`
	Args      []string `@Ident ( "," @Ident )* ")"`
}

var tupleLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Ident", Pattern: `[\w.\-]+`},
	{Name: "Punct", Pattern: `[(),]`},
})

var tupleParser = participle.MustBuild[tuple](
	participle.Lexer(tupleLexer),
	participle.Elide("Whitespace"),
)

// Parse reads a fact string of the form predicate(arg1[,arg2[,arg3]]).
// Whitespace around tokens is tolerated; String always renders without it.
func Parse(s string) (Fact, error) {
	t, err := tupleParser.ParseString("", s)
	if err != nil {
		return Fact{}, fmt.Errorf("parse fact %q: %w", s, err)
	}
	if len(t.Args) > MaxArity {
		return Fact{}, fmt.Errorf("parse fact %q: %d arguments, at most %d allowed", s, len(t.Args), MaxArity)
	}
	return New(t.Predicate, t.Args...), nil
}

// MustParse is Parse for literals known to be well formed.
func MustParse(s string) Fact {
	f, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return f
}

// ParseAll parses every string into one set, keeping input order.
func ParseAll(strs []string) (*Set, error) {
	set := NewSet()
	for _, s := range strs {
		f, err := Parse(s)
		if err != nil {
			return nil, err
		}
		set.Add(f)
	}
	return set, nil
}
