// Package loader reads a game's Lua definition documents and YAML
// adventure instances into the interpreter's types. The Lua VM is
// discarded after loading.
package loader

import (
	"fmt"
	"sort"
	"strings"

	"github.com/clp-research/clembench-sub000/types"
	lua "github.com/yuin/gopher-lua"
)

// rawDef holds a curried definition table before compilation.
type rawDef struct {
	id    string
	table *lua.LTable
}

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	v := tbl.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getBool returns a bool field from a Lua table, or the default if missing.
func getBool(tbl *lua.LTable, key string, def bool) bool {
	v := tbl.RawGetString(key)
	if b, ok := v.(lua.LBool); ok {
		return bool(b)
	}
	return def
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	v := tbl.RawGetString(key)
	if t, ok := v.(*lua.LTable); ok {
		return t
	}
	return nil
}

// getStrings returns a list field as strings. A bare string counts as a
// one-element list.
func getStrings(tbl *lua.LTable, key string) ([]string, error) {
	return toStrings(tbl.RawGetString(key), key)
}

func toStrings(v lua.LValue, what string) ([]string, error) {
	switch val := v.(type) {
	case *lua.LNilType:
		return nil, nil
	case lua.LString:
		return []string{string(val)}, nil
	case *lua.LTable:
		var out []string
		for i := 1; i <= val.MaxN(); i++ {
			s, ok := val.RawGetInt(i).(lua.LString)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", what, i)
			}
			out = append(out, string(s))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s must be a string or a list of strings", what)
	}
}

// compile converts all collected Lua data into a Catalog.
func compile(coll *collector) (*types.Catalog, error) {
	cat := &types.Catalog{
		Entities: map[string]types.EntityTypeDef{},
		Rooms:    map[string]types.RoomTypeDef{},
		Actions:  map[string]types.ActionTypeDef{},
	}

	if coll.game == nil {
		return nil, fmt.Errorf("no Game{} definition found")
	}
	cat.Game = types.GameDef{
		Title:   getString(coll.game, "title"),
		Author:  getString(coll.game, "author"),
		Version: getString(coll.game, "version"),
		Intro:   getString(coll.game, "intro"),
	}

	if coll.grammar != nil {
		head, err := compileGrammar(coll.grammar)
		if err != nil {
			return nil, fmt.Errorf("compiling grammar: %w", err)
		}
		cat.Grammar = head
	}

	switch len(coll.domain) {
	case 0:
	case 1:
		cat.Domain = coll.domain[0]
	default:
		return nil, fmt.Errorf("Domain defined %d times, expected once", len(coll.domain))
	}

	for _, raw := range coll.entities {
		if _, dup := cat.Entities[raw.id]; dup {
			return nil, fmt.Errorf("duplicate entity type %q", raw.id)
		}
		e, err := compileEntity(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling entity %s: %w", raw.id, err)
		}
		cat.Entities[raw.id] = e
	}

	for _, raw := range coll.rooms {
		if _, dup := cat.Rooms[raw.id]; dup {
			return nil, fmt.Errorf("duplicate room type %q", raw.id)
		}
		r, err := compileRoom(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling room %s: %w", raw.id, err)
		}
		cat.Rooms[raw.id] = r
	}

	for _, raw := range coll.actions {
		if _, dup := cat.Actions[raw.id]; dup {
			return nil, fmt.Errorf("duplicate action %q", raw.id)
		}
		a, err := compileAction(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling action %s: %w", raw.id, err)
		}
		cat.Actions[raw.id] = a
	}

	return cat, nil
}

func compileGrammar(tbl *lua.LTable) (types.GrammarHead, error) {
	preps, err := getStrings(tbl, "prepositions")
	if err != nil {
		return types.GrammarHead{}, err
	}
	arts, err := getStrings(tbl, "articles")
	if err != nil {
		return types.GrammarHead{}, err
	}
	return types.GrammarHead{Prepositions: preps, Articles: arts}, nil
}

func compileEntity(raw rawDef) (types.EntityTypeDef, error) {
	e := types.EntityTypeDef{
		ID:          raw.id,
		Repr:        getString(raw.table, "repr"),
		Hidden:      getBool(raw.table, "hidden", false),
		Description: getString(raw.table, "description"),
	}
	if e.Repr == "" {
		e.Repr = strings.ReplaceAll(raw.id, "_", " ")
	}
	var err error
	if e.Traits, err = getStrings(raw.table, "traits"); err != nil {
		return e, err
	}
	if e.Adjectives, err = getStrings(raw.table, "adjectives"); err != nil {
		return e, err
	}
	return e, nil
}

func compileRoom(raw rawDef) (types.RoomTypeDef, error) {
	r := types.RoomTypeDef{
		ID:          raw.id,
		Repr:        getString(raw.table, "repr"),
		Description: getString(raw.table, "description"),
	}
	if r.Repr == "" {
		r.Repr = strings.ReplaceAll(raw.id, "_", " ")
	}
	var err error
	if r.Exits, err = getStrings(raw.table, "exits"); err != nil {
		return r, err
	}
	return r, nil
}

func compileAction(raw rawDef) (types.ActionTypeDef, error) {
	tbl := raw.table
	a := types.ActionTypeDef{
		Name:      raw.id,
		PDDL:      getString(tbl, "pddl"),
		Success:   getString(tbl, "success"),
		Epistemic: getBool(tbl, "epistemic", false),
		Pragmatic: getBool(tbl, "pragmatic", false),
		Mapping:   map[string][]types.ArgSource{},
	}

	verbs, err := getStrings(tbl, "verbs")
	if err != nil {
		return a, err
	}
	a.Grammar = types.GrammarFragment{
		Action: raw.id,
		Verbs:  verbs,
		Args:   types.ArgForm(getString(tbl, "args")),
	}

	if m := getTable(tbl, "mapping"); m != nil {
		var mapErr error
		m.ForEach(func(k, v lua.LValue) {
			if mapErr != nil {
				return
			}
			key, ok := k.(lua.LString)
			if !ok {
				mapErr = fmt.Errorf("mapping keys must be parameter names")
				return
			}
			name := strings.TrimPrefix(string(key), "?")
			sources, err := toStrings(v, "mapping."+name)
			if err != nil {
				mapErr = err
				return
			}
			for _, s := range sources {
				a.Mapping[name] = append(a.Mapping[name], types.ArgSource(s))
			}
		})
		if mapErr != nil {
			return a, mapErr
		}
	}

	if a.ParamFailures, err = compileTemplates(getTable(tbl, "param_failures"), "param_failures"); err != nil {
		return a, err
	}
	if a.PreconFailures, err = compileTemplates(getTable(tbl, "precon_failures"), "precon_failures"); err != nil {
		return a, err
	}
	return a, nil
}

// compileTemplates reads a list of failure templates. Each entry is either
// { "fail_type", "template" } or { type = "...", template = "..." }.
func compileTemplates(tbl *lua.LTable, what string) ([]types.FailureTemplate, error) {
	if tbl == nil {
		return nil, nil
	}
	var out []types.FailureTemplate
	for i := 1; i <= tbl.MaxN(); i++ {
		entry, ok := tbl.RawGetInt(i).(*lua.LTable)
		if !ok {
			return nil, fmt.Errorf("%s[%d] must be a table", what, i)
		}
		ft := types.FailureTemplate{
			FailType: getString(entry, "type"),
			Template: getString(entry, "template"),
		}
		if ft.FailType == "" {
			if s, ok := entry.RawGetInt(1).(lua.LString); ok {
				ft.FailType = string(s)
			}
		}
		if ft.Template == "" {
			if s, ok := entry.RawGetInt(2).(lua.LString); ok {
				ft.Template = string(s)
			}
		}
		if ft.FailType == "" || ft.Template == "" {
			return nil, fmt.Errorf("%s[%d] needs a fail type and a template", what, i)
		}
		out = append(out, ft)
	}
	return out, nil
}

// sortedLuaFiles returns .lua files in a directory, with game.lua first
// and the rest sorted alphabetically.
func sortedLuaFiles(files []string) []string {
	var gameFile string
	var others []string
	for _, f := range files {
		if f == "game.lua" {
			gameFile = f
		} else {
			others = append(others, f)
		}
	}
	sort.Strings(others)
	if gameFile != "" {
		return append([]string{gameFile}, others...)
	}
	return others
}
