// Package parser builds the command grammar at startup from every action's
// verb phrases and argument form, the adjective vocabulary and the fixed
// grammar head, and turns command strings into Invocations.
package parser

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/clp-research/clembench-sub000/types"
)

// DefaultHead is used when the grammar document declares no head.
var DefaultHead = types.GrammarHead{
	Prepositions: []string{"on", "at", "to", "with", "in", "into", "from", "about"},
	Articles:     []string{"the", "a", "an"},
}

// ParseError reports a command the grammar cannot handle.
type ParseError struct {
	FailType string // types.FailParse or types.FailMalformed
	Input    string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot parse %q: %v", e.Input, e.Err)
	}
	return fmt.Sprintf("cannot parse %q", e.Input)
}

func (e *ParseError) Unwrap() error { return e.Err }

// command is the grammar every input must match.
type command struct {
	Verb string  `@Verb`
	Arg1 *phrase `@@?`
	Prep string  `( @Prep`
	Arg2 *phrase `  @@ )?`
}

type phrase struct {
	Words []string `@( Adj | Word | Verb )+`
}

// Parser is the compiled command grammar.
type Parser struct {
	parser     *participle.Parser[command]
	def        lexer.Definition
	verbs      map[string]string        // normalized phrase -> action
	forms      map[string]types.ArgForm // action -> argument form
	adjectives map[string]bool
}

// Build assembles the grammar. Duplicate verb phrases and unknown argument
// forms are errors.
func Build(head types.GrammarHead, fragments []types.GrammarFragment, adjectives []string) (*Parser, error) {
	if len(head.Prepositions) == 0 && len(head.Articles) == 0 {
		head = DefaultHead
	}
	p := &Parser{
		verbs:      map[string]string{},
		forms:      map[string]types.ArgForm{},
		adjectives: map[string]bool{},
	}

	var phrases []string
	for _, frag := range fragments {
		switch frag.Args {
		case types.ArgsNone, types.ArgsThing, types.ArgsOptional, types.ArgsOptionalPrep, types.ArgsPrep:
		default:
			return nil, fmt.Errorf("action %s: unknown argument form %q", frag.Action, frag.Args)
		}
		p.forms[frag.Action] = frag.Args
		for _, v := range frag.Verbs {
			key := Normalize(v)
			if key == "" {
				return nil, fmt.Errorf("action %s: empty verb phrase", frag.Action)
			}
			if other, dup := p.verbs[key]; dup {
				return nil, fmt.Errorf("verb phrase %q declared by both %s and %s", key, other, frag.Action)
			}
			p.verbs[key] = frag.Action
			phrases = append(phrases, key)
		}
	}
	for _, a := range adjectives {
		p.adjectives[strings.ToLower(a)] = true
	}

	def, err := lexer.NewSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `\s+`},
		{Name: "Verb", Pattern: alternation(phrases)},
		{Name: "Prep", Pattern: alternation(head.Prepositions)},
		{Name: "Article", Pattern: alternation(head.Articles)},
		{Name: "Adj", Pattern: alternation(adjectives)},
		{Name: "Word", Pattern: `[^\s]+`},
	})
	if err != nil {
		return nil, fmt.Errorf("building command lexer: %w", err)
	}
	p.def = def
	p.parser, err = participle.Build[command](
		participle.Lexer(def),
		participle.Elide("Whitespace", "Article"),
		participle.UseLookahead(2),
	)
	if err != nil {
		return nil, fmt.Errorf("building command grammar: %w", err)
	}
	return p, nil
}

// alternation matches any of the phrases as whole words, longest first so
// "pick up" wins over "pick". An empty vocabulary matches nothing.
func alternation(phrases []string) string {
	if len(phrases) == 0 {
		return `[^\s\S]`
	}
	sorted := make([]string, 0, len(phrases))
	for _, ph := range phrases {
		if ph = Normalize(ph); ph != "" {
			sorted = append(sorted, ph)
		}
	}
	if len(sorted) == 0 {
		return `[^\s\S]`
	}
	sort.Slice(sorted, func(i, j int) bool {
		if len(sorted[i]) != len(sorted[j]) {
			return len(sorted[i]) > len(sorted[j])
		}
		return sorted[i] < sorted[j]
	})
	parts := make([]string, len(sorted))
	for i, ph := range sorted {
		words := strings.Fields(ph)
		for j, w := range words {
			words[j] = regexp.QuoteMeta(w)
		}
		parts[i] = strings.Join(words, `\s+`)
	}
	return `(?:` + strings.Join(parts, "|") + `)\b`
}

var trailingPunct = regexp.MustCompile(`[\s.!?,;:]+$`)

// Normalize trims, strips trailing punctuation, lower-cases and collapses
// inner whitespace.
func Normalize(text string) string {
	text = trailingPunct.ReplaceAllString(strings.TrimSpace(text), "")
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// Parse converts a command string into an Invocation. A first word that is
// not a verb phrase yields an Unknown invocation; other mismatches return a
// *ParseError.
func (p *Parser) Parse(text string) (types.Invocation, error) {
	input := Normalize(text)
	if input == "" {
		return types.Invocation{}, &ParseError{FailType: types.FailParse, Input: text, Err: errors.New("empty command")}
	}

	if first, isVerb := p.firstToken(input); !isVerb {
		return types.Invocation{Unknown: true, FirstWord: first}, nil
	}

	cmd, err := p.parser.ParseString("", input)
	if err != nil {
		return types.Invocation{}, &ParseError{FailType: types.FailParse, Input: text, Err: err}
	}

	phrase := strings.Join(strings.Fields(cmd.Verb), " ")
	action := p.verbs[phrase]
	inv := types.Invocation{Verb: action, Phrase: phrase, Prep: cmd.Prep}
	if cmd.Arg1 != nil {
		inv.Arg1Adjs, inv.Arg1 = p.split(cmd.Arg1.Words)
	}
	if cmd.Arg2 != nil {
		inv.Arg2Adjs, inv.Arg2 = p.split(cmd.Arg2.Words)
	}

	if !formMatches(p.forms[action], cmd) {
		return inv, &ParseError{
			FailType: types.FailMalformed,
			Input:    text,
			Err:      fmt.Errorf("%q expects %s", phrase, describeForm(p.forms[action])),
		}
	}
	return inv, nil
}

// firstToken lexes input and reports its first significant token and
// whether it is a verb phrase.
func (p *Parser) firstToken(input string) (string, bool) {
	lex, err := p.def.Lex("", strings.NewReader(input))
	if err != nil {
		return strings.Fields(input)[0], false
	}
	tokens, err := lexer.ConsumeAll(lex)
	if err != nil {
		return strings.Fields(input)[0], false
	}
	syms := p.def.Symbols()
	for _, tok := range tokens {
		if tok.Type == syms["Whitespace"] || tok.Type == syms["Article"] {
			continue
		}
		if tok.EOF() {
			break
		}
		return tok.Value, tok.Type == syms["Verb"]
	}
	return strings.Fields(input)[0], false
}

// split separates leading adjectives from the noun. If every word is an
// adjective, the last one is the noun.
func (p *Parser) split(words []string) (adjs []string, noun string) {
	i := 0
	for i < len(words) && p.adjectives[words[i]] {
		i++
	}
	if i == len(words) {
		i--
	}
	if i > 0 {
		adjs = append(adjs, words[:i]...)
	}
	return adjs, strings.Join(words[i:], " ")
}

func formMatches(form types.ArgForm, cmd *command) bool {
	hasArg1 := cmd.Arg1 != nil
	hasPrep := cmd.Prep != ""
	switch form {
	case types.ArgsNone:
		return !hasArg1 && !hasPrep
	case types.ArgsThing:
		return hasArg1 && !hasPrep
	case types.ArgsOptional:
		return !hasPrep
	case types.ArgsOptionalPrep:
		return hasArg1
	case types.ArgsPrep:
		return hasArg1 && hasPrep
	}
	return false
}

func describeForm(form types.ArgForm) string {
	switch form {
	case types.ArgsNone:
		return "no arguments"
	case types.ArgsThing:
		return "one thing"
	case types.ArgsOptional:
		return "at most one thing"
	case types.ArgsOptionalPrep:
		return "a thing and optionally a preposition with a second thing"
	case types.ArgsPrep:
		return "a thing, a preposition and a second thing"
	}
	return string(form)
}
