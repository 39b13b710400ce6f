package engine

import (
	"errors"
	"fmt"

	"github.com/clp-research/clembench-sub000/engine/fact"
	"github.com/clp-research/clembench-sub000/engine/feedback"
	"github.com/clp-research/clembench-sub000/engine/pddl"
	"github.com/clp-research/clembench-sub000/engine/resolve"
	"github.com/clp-research/clembench-sub000/engine/rules"
	"github.com/clp-research/clembench-sub000/engine/state"
	"github.com/clp-research/clembench-sub000/types"
)

// failure is a command that could not be carried out. It becomes the
// Info and feedback of a Result.
type failure struct {
	phase    types.Phase
	failType string
	arg      string
	message  string
}

// argument is one command argument after surface resolution.
type argument struct {
	surface string
	typeID  string
	adjs    []string
}

// resolveArgs maps the invocation's argument surfaces to type ids.
func (e *Engine) resolveArgs(inv types.Invocation) (arg1, arg2 *argument, fail *failure) {
	resolveOne := func(surface string, adjs []string) (*argument, *failure) {
		if surface == "" {
			return nil, nil
		}
		typeID, err := e.resolver.Resolve(surface)
		if err != nil {
			var ue *resolve.UndefinedError
			if errors.As(err, &ue) {
				return nil, &failure{
					phase:    types.PhaseParsing,
					failType: types.FailUndefinedRepr,
					arg:      surface,
					message:  fmt.Sprintf("I don't know what a %s is.", surface),
				}
			}
			return nil, &failure{phase: types.PhaseParsing, failType: types.FailParse, arg: surface, message: err.Error()}
		}
		return &argument{surface: surface, typeID: typeID, adjs: adjs}, nil
	}

	arg1, fail = resolveOne(inv.Arg1, inv.Arg1Adjs)
	if fail != nil {
		return nil, nil, fail
	}
	arg2, fail = resolveOne(inv.Arg2, inv.Arg2Adjs)
	if fail != nil {
		return nil, nil, fail
	}
	return arg1, arg2, nil
}

// bind resolves every declared parameter, in declaration order, from its
// mapped sources. The first source that yields a value wins; a parameter no
// source can fill is bound to the Absent sentinel.
func (e *Engine) bind(act state.Action, arg1, arg2 *argument) (rules.Bindings, *failure) {
	b := rules.Bindings{}
	var arg1Inst string

	for _, param := range act.Schema.Parameters {
		sym := fact.AbsentSymbol()
		for _, src := range act.Mapping[param.Name] {
			var (
				value string
				fail  *failure
			)
			switch src {
			case types.SourceArg1:
				value, fail = e.ground(arg1, param)
				if value != "" && arg1Inst == "" {
					arg1Inst = value
				}
			case types.SourceArg2:
				value, fail = e.ground(arg2, param)
			case types.SourceRoom:
				value = e.World.PlayerRoom()
			case types.SourcePlayer:
				value = e.World.Player()
			case types.SourceInventory:
				value = state.Inventory
			case types.SourceArg1Receptacle:
				if arg2 != nil {
					continue
				}
				if arg1Inst == "" && arg1 != nil {
					arg1Inst, _ = e.resolver.Ground(e.World, arg1.typeID, arg1.adjs)
				}
				if arg1Inst != "" {
					_, value = e.World.Container(arg1Inst)
				}
			default:
				e.logger.Printf("action %s: unknown argument source %q for ?%s", act.Name, src, param.Name)
			}
			if fail != nil {
				return nil, fail
			}
			if value != "" {
				sym = e.World.Classify(value)
				break
			}
		}
		b[param.Name] = sym
	}
	return b, nil
}

// ground turns a command argument into an instance id, or leaves it as a
// type word when no instance of that type exists. Rooms are only accepted
// where the parameter's declared types admit them.
func (e *Engine) ground(arg *argument, param pddl.Parameter) (string, *failure) {
	if arg == nil {
		return "", nil
	}
	inst, ok := e.resolver.Ground(e.World, arg.typeID, arg.adjs)
	if !e.resolver.IsRoom(arg.typeID) {
		if !ok {
			return arg.typeID, nil
		}
		return inst, nil
	}

	if e.Defs.Hierarchy.IsAny(arg.typeID, param.Types) {
		if !ok {
			return arg.typeID, nil
		}
		return inst, nil
	}
	if ok && inst == e.World.PlayerRoom() {
		return "", &failure{
			phase:    types.PhaseParsing,
			failType: types.FailManipulatingRoom,
			arg:      arg.surface,
			message:  fmt.Sprintf("You are in the %s. It is a room, not something you can handle.", arg.surface),
		}
	}
	return "", &failure{
		phase:    types.PhaseParsing,
		failType: types.FailOtherRoom,
		arg:      arg.surface,
		message:  fmt.Sprintf("You are not in the %s.", arg.surface),
	}
}

// typeCheck verifies every bound parameter against its declared types. The
// first mismatch in declaration order is reported through that parameter's
// failure template.
func (e *Engine) typeCheck(act state.Action, b rules.Bindings, prep string) *failure {
	for i, param := range act.Schema.Parameters {
		sym := b[param.Name]
		if sym.Kind == fact.AbsentArg {
			continue
		}
		resolved := sym.Value
		if sym.Kind == fact.Instance {
			t, ok := e.World.TypeOf(sym.Value)
			if !ok {
				e.logger.Printf("instance %q has no type, checking it by name", sym.Value)
			} else {
				resolved = t
			}
		}
		if e.Defs.Hierarchy.IsAny(resolved, param.Types) {
			continue
		}

		tmpl := types.FailureTemplate{
			FailType: "domain_type_discrepancy",
			Template: "You can't do that with the {" + param.Name + "}.",
		}
		if i < len(act.ParamFailures) {
			tmpl = act.ParamFailures[i]
		} else {
			e.logger.Printf("action %s: no failure template for parameter ?%s", act.Name, param.Name)
		}
		vals := map[string]string{param.Name: e.resolver.Describe(e.World, sym.Value)}
		return &failure{
			phase:    types.PhaseResolution,
			failType: tmpl.FailType,
			arg:      sym.Value,
			message:  e.render(tmpl.Template, vals, feedback.Context{Delta: state.NewDelta(), Prep: prep}),
		}
	}
	return nil
}

// preconditionFailure renders the template of the clause responsible for a
// failed precondition trace. Template order follows clause authoring order.
func (e *Engine) preconditionFailure(act state.Action, trace *rules.Trace, b rules.Bindings, subject, prep string) *failure {
	leaf := rules.FirstFailure(trace)
	tmpl := types.FailureTemplate{FailType: "world_state_discrepancy", Template: "You can't do that right now."}
	arg := ""
	if leaf != nil {
		arg = leaf.Fact.String()
		if leaf.Kind == pddl.CondNumComp {
			arg = fmt.Sprintf("%s %s %s", leaf.Left, leaf.Comparator, leaf.Right)
		}
		if leaf.PreconIdx < len(act.PreconFailures) {
			tmpl = act.PreconFailures[leaf.PreconIdx]
		} else {
			e.logger.Printf("action %s: no failure template for precondition %d", act.Name, leaf.PreconIdx)
		}
	}
	return &failure{
		phase:    types.PhaseResolution,
		failType: tmpl.FailType,
		arg:      arg,
		message:  e.render(tmpl.Template, e.describeBindings(b), feedback.Context{Delta: state.NewDelta(), Subject: subject, Prep: prep}),
	}
}

// describeBindings renders every bound value as text.
func (e *Engine) describeBindings(b rules.Bindings) map[string]string {
	vals := make(map[string]string, len(b))
	for name, sym := range b {
		if sym.Kind == fact.AbsentArg {
			vals[name] = ""
			continue
		}
		vals[name] = e.resolver.Describe(e.World, sym.Value)
	}
	return vals
}
