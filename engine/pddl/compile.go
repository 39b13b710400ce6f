package pddl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// SyntaxError reports a malformed definition document.
type SyntaxError struct {
	Pos lexer.Position
	Msg string
}

func (e *SyntaxError) Error() string {
	if e.Pos.Line == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

// node is one s-expression: a parenthesized list or an atom.
type node struct {
	Pos   lexer.Position
	Open  bool    `(  @"("`
	Items []*node `   @@* ")"`
	Atom  *string ` | @(Variable | Keyword | Number | Comparator | Symbol) )`
}

type document struct {
	Nodes []*node `@@*`
}

var sexprLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `;[^\n]*`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Paren", Pattern: `[()]`},
	{Name: "Variable", Pattern: `\?[A-Za-z_][\w\-]*`},
	{Name: "Keyword", Pattern: `:[A-Za-z_][\w\-]*`},
	{Name: "Number", Pattern: `-?\d+(\.\d+)?`},
	{Name: "Comparator", Pattern: `<=|>=|=|<|>`},
	{Name: "Symbol", Pattern: `[A-Za-z_][\w\-]*|-`},
})

var sexprParser = participle.MustBuild[document](
	participle.Lexer(sexprLexer),
	participle.Elide("Comment", "Whitespace"),
)

func (n *node) isAtom() bool { return !n.Open }

func (n *node) atom() string {
	if n.Atom == nil {
		return ""
	}
	return strings.ToLower(*n.Atom)
}

// head returns the lowercased first atom of a list, or "".
func (n *node) head() string {
	if n.isAtom() || len(n.Items) == 0 || !n.Items[0].isAtom() {
		return ""
	}
	return n.Items[0].atom()
}

func errorf(n *node, format string, args ...any) error {
	return &SyntaxError{Pos: n.Pos, Msg: fmt.Sprintf(format, args...)}
}

func parseOne(text string) (*node, error) {
	doc, err := sexprParser.ParseString("", text)
	if err != nil {
		return nil, &SyntaxError{Msg: err.Error()}
	}
	if len(doc.Nodes) != 1 || doc.Nodes[0].isAtom() {
		return nil, &SyntaxError{Msg: fmt.Sprintf("expected one list, found %d top-level forms", len(doc.Nodes))}
	}
	return doc.Nodes[0], nil
}

// sections splits the items after a list head into keyword -> value pairs.
func sections(n *node, start int) (map[string]*node, error) {
	out := map[string]*node{}
	for i := start; i < len(n.Items); i++ {
		key := n.Items[i]
		if key.isAtom() && strings.HasPrefix(key.atom(), ":") {
			if i+1 >= len(n.Items) {
				return nil, errorf(key, "%s has no value", key.atom())
			}
			out[key.atom()] = n.Items[i+1]
			i++
			continue
		}
		if kw := key.head(); strings.HasPrefix(kw, ":") {
			out[kw] = key
			continue
		}
		return nil, errorf(key, "unexpected form")
	}
	return out, nil
}

// CompileAction compiles one (:action name :parameters ... :precondition ...
// :effect ...) document.
func CompileAction(text string) (*Action, error) {
	root, err := parseOne(text)
	if err != nil {
		return nil, err
	}
	if root.head() != ":action" || len(root.Items) < 2 || !root.Items[1].isAtom() {
		return nil, errorf(root, "expected (:action name ...)")
	}
	act := &Action{Name: root.Items[1].atom()}
	secs, err := sections(root, 2)
	if err != nil {
		return nil, err
	}

	if p, ok := secs[":parameters"]; ok {
		if p.isAtom() {
			return nil, errorf(p, ":parameters must be a list")
		}
		act.Parameters, err = compileParams(p.Items)
		if err != nil {
			return nil, err
		}
	}

	act.Precondition = &Condition{Kind: CondAnd}
	if p, ok := secs[":precondition"]; ok && !(p.Open && len(p.Items) == 0) {
		cond, err := compileCondition(p)
		if err != nil {
			return nil, err
		}
		if cond.Kind == CondAnd {
			act.Precondition = cond
		} else {
			act.Precondition.Children = []*Condition{cond}
		}
	}

	if e, ok := secs[":effect"]; ok {
		eff, err := compileEffect(e, false)
		if err != nil {
			return nil, err
		}
		if eff.Kind == EffAnd {
			act.Effects = eff.Body
		} else {
			act.Effects = []*Effect{eff}
		}
	}

	if err := checkVars(act); err != nil {
		return nil, err
	}
	return act, nil
}

// compileParams reads "?a ?b - type ?c - (either x y) ?d" sequences.
// Untyped parameters are of type object.
func compileParams(items []*node) ([]Parameter, error) {
	var out []Parameter
	pending := 0
	for i := 0; i < len(items); i++ {
		it := items[i]
		if it.isAtom() && strings.HasPrefix(it.atom(), "?") {
			out = append(out, Parameter{Name: strings.TrimPrefix(it.atom(), "?")})
			pending++
			continue
		}
		if it.isAtom() && it.atom() == "-" {
			if pending == 0 || i+1 >= len(items) {
				return nil, errorf(it, "dangling type marker")
			}
			typs, err := typeList(items[i+1])
			if err != nil {
				return nil, err
			}
			for j := len(out) - pending; j < len(out); j++ {
				out[j].Types = typs
			}
			pending = 0
			i++
			continue
		}
		return nil, errorf(it, "expected parameter variable")
	}
	for j := len(out) - pending; j < len(out); j++ {
		out[j].Types = []string{"object"}
	}
	return out, nil
}

func typeList(n *node) ([]string, error) {
	if n.isAtom() {
		return []string{n.atom()}, nil
	}
	if n.head() != "either" || len(n.Items) < 2 {
		return nil, errorf(n, "expected type name or (either ...)")
	}
	var out []string
	for _, it := range n.Items[1:] {
		if !it.isAtom() {
			return nil, errorf(it, "expected type name")
		}
		out = append(out, it.atom())
	}
	return out, nil
}

func compileTerm(n *node) (Term, error) {
	if !n.isAtom() {
		return Term{}, errorf(n, "expected variable or constant")
	}
	a := n.atom()
	if strings.HasPrefix(a, "?") {
		return Term{Var: a[1:]}, nil
	}
	return Term{Literal: a}, nil
}

func compileTerms(items []*node) ([]Term, error) {
	out := make([]Term, 0, len(items))
	for _, it := range items {
		t, err := compileTerm(it)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func compileCondition(n *node) (*Condition, error) {
	if n.isAtom() || len(n.Items) == 0 {
		return nil, errorf(n, "expected condition list")
	}
	switch h := n.head(); h {
	case "and", "or":
		c := &Condition{Kind: CondAnd}
		if h == "or" {
			c.Kind = CondOr
		}
		for _, it := range n.Items[1:] {
			ch, err := compileCondition(it)
			if err != nil {
				return nil, err
			}
			c.Children = append(c.Children, ch)
		}
		return c, nil
	case "not":
		if len(n.Items) != 2 {
			return nil, errorf(n, "not takes exactly one condition")
		}
		ch, err := compileCondition(n.Items[1])
		if err != nil {
			return nil, err
		}
		return &Condition{Kind: CondNot, Children: []*Condition{ch}}, nil
	case OpEqual, OpLess, OpLeq, OpGreater, OpGreq:
		if len(n.Items) != 3 {
			return nil, errorf(n, "%s takes exactly two operands", h)
		}
		left, err := compileNumExpr(n.Items[1])
		if err != nil {
			return nil, err
		}
		right, err := compileNumExpr(n.Items[2])
		if err != nil {
			return nil, err
		}
		return &Condition{Kind: CondNumComp, Comparator: h, Left: left, Right: right}, nil
	case "":
		return nil, errorf(n, "condition has no predicate")
	default:
		if strings.HasPrefix(h, "?") || strings.HasPrefix(h, ":") {
			return nil, errorf(n, "invalid predicate %q", h)
		}
		args, err := compileTerms(n.Items[1:])
		if err != nil {
			return nil, err
		}
		if len(args) == 0 || len(args) > 3 {
			return nil, errorf(n, "predicate %s has %d arguments, want 1 to 3", h, len(args))
		}
		return &Condition{Kind: CondPredicate, Predicate: h, Args: args}, nil
	}
}

func compileNumExpr(n *node) (*NumExpr, error) {
	if n.isAtom() {
		if v, err := strconv.ParseFloat(n.atom(), 64); err == nil {
			return &NumExpr{Number: &v}, nil
		}
		t, err := compileTerm(n)
		if err != nil {
			return nil, err
		}
		return &NumExpr{Term: &t}, nil
	}
	h := n.head()
	if h == "" {
		return nil, errorf(n, "expected function application")
	}
	args, err := compileTerms(n.Items[1:])
	if err != nil {
		return nil, err
	}
	if len(args) > 2 {
		return nil, errorf(n, "function %s has %d arguments, at most 2 allowed", h, len(args))
	}
	return &NumExpr{Function: h, Args: args}, nil
}

// compileEffect compiles one effect node. inForAll is set while compiling a
// forall body: nested quantifiers are rejected there.
func compileEffect(n *node, inForAll bool) (*Effect, error) {
	if n.isAtom() || len(n.Items) == 0 {
		return nil, errorf(n, "expected effect list")
	}
	switch h := n.head(); h {
	case "and":
		e := &Effect{Kind: EffAnd}
		for _, it := range n.Items[1:] {
			ch, err := compileEffect(it, inForAll)
			if err != nil {
				return nil, err
			}
			e.Body = append(e.Body, ch)
		}
		return e, nil
	case "not":
		if len(n.Items) != 2 {
			return nil, errorf(n, "not takes exactly one predicate")
		}
		add, err := compileEffect(n.Items[1], inForAll)
		if err != nil {
			return nil, err
		}
		if add.Kind != EffAdd {
			return nil, errorf(n, "only predicates can be negated in effects")
		}
		add.Kind = EffRemove
		return add, nil
	case "when":
		if len(n.Items) != 3 {
			return nil, errorf(n, "when takes a condition and an effect")
		}
		cond, err := compileCondition(n.Items[1])
		if err != nil {
			return nil, err
		}
		body, err := compileEffect(n.Items[2], inForAll)
		if err != nil {
			return nil, err
		}
		e := &Effect{Kind: EffWhen, Cond: cond}
		if body.Kind == EffAnd {
			e.Body = body.Body
		} else {
			e.Body = []*Effect{body}
		}
		return e, nil
	case "forall":
		if inForAll {
			return nil, errorf(n, "nested forall is not supported")
		}
		if len(n.Items) != 3 || n.Items[1].isAtom() {
			return nil, errorf(n, "forall takes a variable list and an effect")
		}
		params, err := compileParams(n.Items[1].Items)
		if err != nil {
			return nil, err
		}
		if len(params) != 1 {
			return nil, errorf(n, "forall binds exactly one variable, found %d", len(params))
		}
		body, err := compileEffect(n.Items[2], true)
		if err != nil {
			return nil, err
		}
		e := &Effect{Kind: EffForAll, Var: params[0].Name}
		if !(len(params[0].Types) == 1 && params[0].Types[0] == "object") {
			e.Types = params[0].Types
		}
		if body.Kind == EffAnd {
			e.Body = body.Body
		} else {
			e.Body = []*Effect{body}
		}
		return e, nil
	case OpAssign, OpIncrease, OpDecrease:
		if len(n.Items) != 3 || n.Items[1].isAtom() {
			return nil, errorf(n, "%s takes a function and a value", h)
		}
		target, err := compileNumExpr(n.Items[1])
		if err != nil {
			return nil, err
		}
		value, err := compileNumExpr(n.Items[2])
		if err != nil {
			return nil, err
		}
		return &Effect{Kind: EffFunction, Op: h, Target: target, Value: value}, nil
	case "":
		return nil, errorf(n, "effect has no predicate")
	default:
		args, err := compileTerms(n.Items[1:])
		if err != nil {
			return nil, err
		}
		if len(args) == 0 || len(args) > 3 {
			return nil, errorf(n, "predicate %s has %d arguments, want 1 to 3", h, len(args))
		}
		return &Effect{Kind: EffAdd, Predicate: h, Args: args}, nil
	}
}

// checkVars rejects references to undeclared variables.
func checkVars(act *Action) error {
	declared := map[string]bool{}
	for _, p := range act.Parameters {
		declared[p.Name] = true
	}
	check := func(terms []Term) error {
		for _, t := range terms {
			if t.IsVar() && !declared[t.Var] {
				return &SyntaxError{Msg: fmt.Sprintf("action %s: undeclared variable ?%s", act.Name, t.Var)}
			}
		}
		return nil
	}
	var walkNum func(e *NumExpr) error
	walkNum = func(e *NumExpr) error {
		if e == nil {
			return nil
		}
		if e.Term != nil {
			return check([]Term{*e.Term})
		}
		return check(e.Args)
	}
	var walkCond func(c *Condition) error
	walkCond = func(c *Condition) error {
		if err := check(c.Args); err != nil {
			return err
		}
		if err := walkNum(c.Left); err != nil {
			return err
		}
		if err := walkNum(c.Right); err != nil {
			return err
		}
		for _, ch := range c.Children {
			if err := walkCond(ch); err != nil {
				return err
			}
		}
		return nil
	}
	var walkEff func(e *Effect) error
	walkEff = func(e *Effect) error {
		if e.Kind == EffForAll {
			declared[e.Var] = true
			defer delete(declared, e.Var)
		}
		if err := check(e.Args); err != nil {
			return err
		}
		if err := walkNum(e.Target); err != nil {
			return err
		}
		if err := walkNum(e.Value); err != nil {
			return err
		}
		if e.Cond != nil {
			if err := walkCond(e.Cond); err != nil {
				return err
			}
		}
		for _, b := range e.Body {
			if err := walkEff(b); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walkCond(act.Precondition); err != nil {
		return err
	}
	for _, e := range act.Effects {
		if err := walkEff(e); err != nil {
			return err
		}
	}
	return nil
}

// CompileDomain compiles a (define (domain name) (:types ...) (:functions ...))
// document. Types declared without a parent get object as their parent.
func CompileDomain(text string) (*Domain, error) {
	root, err := parseOne(text)
	if err != nil {
		return nil, err
	}
	if root.head() != "define" || len(root.Items) < 2 || root.Items[1].head() != "domain" || len(root.Items[1].Items) != 2 {
		return nil, errorf(root, "expected (define (domain name) ...)")
	}
	dom := &Domain{Name: root.Items[1].Items[1].atom(), Types: map[string][]string{}}
	secs, err := sections(root, 2)
	if err != nil {
		return nil, err
	}

	if t, ok := secs[":types"]; ok {
		if err := compileTypes(dom, t.Items[1:]); err != nil {
			return nil, err
		}
	}

	if f, ok := secs[":functions"]; ok {
		items := f.Items[1:]
		for i := 0; i < len(items); i++ {
			it := items[i]
			if it.isAtom() {
				// "- number" result type annotations
				if it.atom() == "-" {
					i++
					continue
				}
				return nil, errorf(it, "expected function declaration")
			}
			name := it.head()
			if name == "" {
				return nil, errorf(it, "function declaration has no name")
			}
			params, err := compileParams(it.Items[1:])
			if err != nil {
				return nil, err
			}
			if len(params) > 2 {
				return nil, errorf(it, "function %s has %d parameters, at most 2 allowed", name, len(params))
			}
			dom.Functions = append(dom.Functions, Function{Name: name, Parameters: params})
		}
	}
	return dom, nil
}

func compileTypes(dom *Domain, items []*node) error {
	var pending []string
	declare := func(name string, parents []string) {
		if _, seen := dom.Types[name]; !seen {
			dom.TypeOrder = append(dom.TypeOrder, name)
		}
		dom.Types[name] = append(dom.Types[name], parents...)
	}
	for i := 0; i < len(items); i++ {
		it := items[i]
		if it.isAtom() && it.atom() == "-" {
			if len(pending) == 0 || i+1 >= len(items) {
				return errorf(it, "dangling type marker")
			}
			parents, err := typeList(items[i+1])
			if err != nil {
				return err
			}
			for _, name := range pending {
				declare(name, parents)
			}
			pending = nil
			i++
			continue
		}
		if !it.isAtom() {
			return errorf(it, "expected type name")
		}
		pending = append(pending, it.atom())
	}
	for _, name := range pending {
		declare(name, []string{"object"})
	}
	return nil
}
