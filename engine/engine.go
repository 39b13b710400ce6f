// Package engine provides ProcessAction, the orchestrator that wires
// together parsing, parameter binding, precondition evaluation, effects,
// exploration tracking and feedback into a single turn.
package engine

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/clp-research/clembench-sub000/engine/effects"
	"github.com/clp-research/clembench-sub000/engine/explore"
	"github.com/clp-research/clembench-sub000/engine/fact"
	"github.com/clp-research/clembench-sub000/engine/feedback"
	"github.com/clp-research/clembench-sub000/engine/parser"
	"github.com/clp-research/clembench-sub000/engine/resolve"
	"github.com/clp-research/clembench-sub000/engine/rules"
	"github.com/clp-research/clembench-sub000/engine/state"
	"github.com/clp-research/clembench-sub000/types"
)

// Engine holds the game definitions and the interpreter state of one
// adventure. It is not safe for concurrent use.
type Engine struct {
	Defs      *state.Defs
	Adventure *types.Adventure
	World     *state.World
	History   *state.History
	Explore   *explore.Tracker

	Turn       int
	CommandLog []string

	goals     *fact.Set
	parser    *parser.Parser
	resolver  *resolve.Resolver
	describer *feedback.Describer
	logger    *log.Logger

	lastTrace *rules.Trace
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger fallback warnings are written to.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an engine for one adventure: the initial facts are parsed and
// augmented, the command grammar is built, and the first exploration and
// history entries are recorded.
func New(defs *state.Defs, adv *types.Adventure, opts ...Option) (*Engine, error) {
	e := &Engine{
		Defs:      defs,
		Adventure: adv,
		History:   &state.History{},
		logger:    log.New(os.Stderr, "warning: ", 0),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.New(io.Discard, "", 0)
	}

	initial, err := fact.ParseAll(adv.InitialState)
	if err != nil {
		return nil, fmt.Errorf("adventure %s: initial state: %w", adv.Name, err)
	}
	e.goals, err = fact.ParseAll(adv.GoalState)
	if err != nil {
		return nil, fmt.Errorf("adventure %s: goal state: %w", adv.Name, err)
	}

	e.parser, err = parser.Build(defs.Grammar, defs.Fragments(), defs.Adjectives())
	if err != nil {
		return nil, fmt.Errorf("building grammar: %w", err)
	}

	e.World = state.NewWorld(initial)
	state.Augment(e.World, defs)
	if e.World.Player() == "" {
		e.logger.Printf("adventure %s declares no player instance", adv.Name)
	}

	e.resolver = resolve.New(defs, e.logger)
	e.describer = feedback.NewDescriber(defs, e.resolver)
	e.Explore = explore.New(defs)
	e.Explore.Update(e.World, fact.NewSet())
	e.History.Append(e.World.Snapshot())
	return e, nil
}

// Goals returns the adventure's goal facts.
func (e *Engine) Goals() *fact.Set { return e.goals }

// AchievedGoals returns the goal facts that currently hold.
func (e *Engine) AchievedGoals() *fact.Set {
	return e.goals.Intersect(e.World.Facts())
}

// Done reports whether every goal holds.
func (e *Engine) Done() bool {
	return e.goals.Len() > 0 && e.AchievedGoals().Len() == e.goals.Len()
}

// LastTrace returns the precondition trace of the most recent command that
// reached precondition evaluation, or nil.
func (e *Engine) LastTrace() *rules.Trace { return e.lastTrace }

// Describer returns the prose renderer for rooms and inventory.
func (e *Engine) Describer() *feedback.Describer { return e.describer }

// Describe renders an instance as text.
func (e *Engine) Describe(inst string) string { return e.resolver.Describe(e.World, inst) }

// ProcessAction handles one player command. Failures never change the world.
func (e *Engine) ProcessAction(input string) types.Result {
	// 1. Log the command.
	e.CommandLog = append(e.CommandLog, input)
	e.Turn++
	e.lastTrace = nil

	// 2. Parse input.
	inv, err := e.parser.Parse(input)
	if err != nil {
		var pe *parser.ParseError
		if errors.As(err, &pe) {
			return e.fail(&failure{
				phase:    types.PhaseParsing,
				failType: pe.FailType,
				arg:      input,
				message:  parseMessage(pe.FailType, inv),
			}, "")
		}
		return e.fail(&failure{phase: types.PhaseParsing, failType: types.FailParse, arg: input, message: err.Error()}, "")
	}
	if inv.Unknown {
		return e.fail(&failure{
			phase:    types.PhaseParsing,
			failType: types.FailUndefinedVerb,
			arg:      inv.FirstWord,
			message:  fmt.Sprintf("I don't know how to %s.", inv.FirstWord),
		}, "")
	}
	act := e.Defs.Actions[inv.Verb]

	// 3. Resolve argument surfaces.
	arg1, arg2, fail := e.resolveArgs(inv)
	if fail != nil {
		return e.fail(fail, act.Name)
	}

	// 4. Bind parameters and check their types.
	b, fail := e.bind(act, arg1, arg2)
	if fail != nil {
		return e.fail(fail, act.Name)
	}
	if fail := e.typeCheck(act, b, inv.Prep); fail != nil {
		return e.fail(fail, act.Name)
	}
	subject := e.subject(act, b)

	// 5. Evaluate preconditions.
	trace := rules.Evaluate(act.Schema.Precondition, e.World, b)
	e.lastTrace = trace
	if !trace.Fulfilled {
		return e.fail(e.preconditionFailure(act, trace, b, subject, inv.Prep), act.Name)
	}

	// 6. Apply effects as one mutation.
	delta := effects.Apply(act.Schema.Effects, e.World, e.Defs.Hierarchy, b)
	e.World.Apply(delta)

	// 7. Update exploration.
	exploration := e.Explore.Update(e.World, delta.Removed)

	// 8. Render feedback against the post-effect world.
	msg := e.render(act.Success, e.describeBindings(b), feedback.Context{Delta: delta, Subject: subject, Prep: inv.Prep})

	// 9. Record history.
	e.History.Append(e.World.Snapshot())

	return types.Result{
		Goals:    e.AchievedGoals(),
		Feedback: msg,
		Success:  true,
		Info: types.Info{
			ActionType:  act.Name,
			Epistemic:   act.Epistemic,
			Pragmatic:   act.Pragmatic,
			Exploration: &exploration,
			Effects:     delta.Effects(),
		},
	}
}

// ExecutePlanSequence runs commands in order and stops at the first one that
// fails. If any command before the failure changed the world, the world,
// exploration state, history and command log are rolled back to where they
// were before the sequence. The results of every command run are returned.
func (e *Engine) ExecutePlanSequence(commands []string) []types.Result {
	snap := e.World.Snapshot()
	cp := e.Explore.Checkpoint()
	histLen := e.History.Len()
	logLen := len(e.CommandLog)
	turn := e.Turn

	var results []types.Result
	changed := false
	for _, cmd := range commands {
		r := e.ProcessAction(cmd)
		results = append(results, r)
		if !r.Success {
			if changed {
				e.World.Restore(snap)
				e.Explore.Restore(cp)
				e.History.Truncate(histLen)
				e.CommandLog = e.CommandLog[:logLen]
				e.Turn = turn
			}
			break
		}
		if r.Info.Effects != nil && (len(r.Info.Effects.Added) > 0 || len(r.Info.Effects.Removed) > 0) {
			changed = true
		}
	}
	return results
}

// subject returns the instance the command's first argument was bound to.
func (e *Engine) subject(act state.Action, b rules.Bindings) string {
	for _, param := range act.Schema.Parameters {
		for _, src := range act.Mapping[param.Name] {
			if src == types.SourceArg1 {
				if sym := b[param.Name]; sym.Kind != fact.AbsentArg {
					return sym.Value
				}
			}
		}
	}
	return ""
}

// render fills a template against the current world. {prep} prefers the
// relation the delta created and falls back to the typed preposition.
func (e *Engine) render(tmpl string, vals map[string]string, ctx feedback.Context) string {
	ctx.World = e.World
	return feedback.Render(tmpl, vals, e.describer.Func(ctx))
}

func (e *Engine) fail(f *failure, action string) types.Result {
	return types.Result{
		Goals:    e.AchievedGoals(),
		Feedback: f.message,
		Info: types.Info{
			Phase:      f.phase,
			FailType:   f.failType,
			Arg:        f.arg,
			ActionType: action,
		},
	}
}

func parseMessage(failType string, inv types.Invocation) string {
	if failType == types.FailMalformed && inv.Phrase != "" {
		return fmt.Sprintf("I don't understand how you want to %s.", inv.Phrase)
	}
	return "I don't understand what you want to do."
}
