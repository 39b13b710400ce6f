package loader

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/clp-research/clembench-sub000/engine/parser"
	"github.com/clp-research/clembench-sub000/engine/pddl"
	"github.com/clp-research/clembench-sub000/types"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

var validArgForms = map[types.ArgForm]bool{
	types.ArgsNone:         true,
	types.ArgsThing:        true,
	types.ArgsOptional:     true,
	types.ArgsOptionalPrep: true,
	types.ArgsPrep:         true,
}

var validSources = map[types.ArgSource]bool{
	types.SourceArg1:           true,
	types.SourceArg2:           true,
	types.SourceRoom:           true,
	types.SourcePlayer:         true,
	types.SourceInventory:      true,
	types.SourceArg1Receptacle: true,
}

// validate checks a compiled catalog for consistency. Problems that would
// break the interpreter are errors; template shortfalls only degrade
// feedback and are reported as warnings.
func validate(cat *types.Catalog) error {
	ve := checkCatalog(cat)

	for _, w := range ve.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func checkCatalog(cat *types.Catalog) *ValidationError {
	ve := &ValidationError{}

	if cat.Game.Title == "" {
		ve.Errors = append(ve.Errors, "Game.Title is required")
	}

	known := map[string]bool{"object": true, "entity": true, "room": true}
	if cat.Domain != "" {
		dom, err := pddl.CompileDomain(cat.Domain)
		if err != nil {
			ve.Errors = append(ve.Errors, fmt.Sprintf("domain: %v", err))
		} else {
			for t, parents := range dom.Types {
				known[t] = true
				for _, p := range parents {
					known[p] = true
				}
			}
		}
	}

	for _, id := range sortedKeys(cat.Entities) {
		e := cat.Entities[id]
		known[id] = true
		for _, tr := range e.Traits {
			known[tr] = true
			if !isWord(tr) {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"entity %q trait %q must be a single lowercase word", id, tr))
			}
		}
		for _, adj := range e.Adjectives {
			if !isWord(adj) {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"entity %q adjective %q must be a single lowercase word", id, adj))
			}
		}
	}

	for _, id := range sortedKeys(cat.Rooms) {
		known[id] = true
		if _, clash := cat.Entities[id]; clash {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"%q is defined both as an entity type and a room type", id))
		}
		for _, exit := range cat.Rooms[id].Exits {
			if _, ok := cat.Rooms[exit]; !ok {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"room %q exit points to undefined room type %q", id, exit))
			}
		}
	}

	checkSurfaces(cat, ve)

	phrases := map[string]string{}
	for _, name := range sortedKeys(cat.Actions) {
		checkAction(name, cat.Actions[name], known, phrases, ve)
	}
	return ve
}

func checkAction(name string, a types.ActionTypeDef, known map[string]bool, phrases map[string]string, ve *ValidationError) {
	if !validArgForms[a.Grammar.Args] {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"action %q has unknown argument form %q", name, a.Grammar.Args))
	}
	if len(a.Grammar.Verbs) == 0 {
		ve.Errors = append(ve.Errors, fmt.Sprintf("action %q has no verbs", name))
	}
	for _, v := range a.Grammar.Verbs {
		phrase := parser.Normalize(v)
		if phrase == "" {
			ve.Errors = append(ve.Errors, fmt.Sprintf("action %q has an empty verb", name))
			continue
		}
		if other, dup := phrases[phrase]; dup {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"verb %q is used by both %q and %q", phrase, other, name))
			continue
		}
		phrases[phrase] = name
	}

	if a.Success == "" {
		ve.Warnings = append(ve.Warnings, fmt.Sprintf("action %q has no success template", name))
	}

	schema, err := pddl.CompileAction(a.PDDL)
	if err != nil {
		ve.Errors = append(ve.Errors, fmt.Sprintf("action %q: %v", name, err))
		return
	}

	for _, p := range schema.Parameters {
		sources, ok := a.Mapping[p.Name]
		if !ok || len(sources) == 0 {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"action %q parameter ?%s has no mapping", name, p.Name))
		}
		for _, s := range sources {
			if !validSources[s] {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"action %q parameter ?%s maps from unknown source %q", name, p.Name, s))
			}
		}
		for _, t := range p.Types {
			if !known[t] {
				ve.Warnings = append(ve.Warnings, fmt.Sprintf(
					"action %q parameter ?%s has undeclared type %q", name, p.Name, t))
			}
		}
	}
	for _, key := range sortedKeys(a.Mapping) {
		if _, ok := schema.Param(key); !ok {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf(
				"action %q maps ?%s, which is not a parameter", name, key))
		}
	}

	if n, want := len(a.ParamFailures), len(schema.Parameters); n < want {
		ve.Warnings = append(ve.Warnings, fmt.Sprintf(
			"action %q has %d parameter failure template(s) for %d parameter(s)", name, n, want))
	}
	if n, want := len(a.PreconFailures), len(schema.Precondition.Leaves()); n < want {
		ve.Warnings = append(ve.Warnings, fmt.Sprintf(
			"action %q has %d precondition failure template(s) for %d clause(s)", name, n, want))
	}
}

// isWord reports whether s is a single lowercase token.
// checkSurfaces rejects entity and room types sharing a surface string:
// commands could not tell them apart.
func checkSurfaces(cat *types.Catalog, ve *ValidationError) {
	owner := map[string]string{}
	claim := func(id, repr string) {
		if repr == "" {
			repr = strings.ReplaceAll(id, "_", " ")
		}
		s := strings.ToLower(repr)
		if other, dup := owner[s]; dup && other != id {
			ve.Errors = append(ve.Errors, fmt.Sprintf("surface %q is used by both %q and %q", s, other, id))
			return
		}
		owner[s] = id
	}
	for _, id := range sortedKeys(cat.Entities) {
		claim(id, cat.Entities[id].Repr)
	}
	for _, id := range sortedKeys(cat.Rooms) {
		claim(id, cat.Rooms[id].Repr)
	}
}

func isWord(s string) bool {
	return s != "" && s == strings.ToLower(s) && !strings.ContainsAny(s, " \t\n")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
