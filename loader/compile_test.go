package loader

import (
	"reflect"
	"strings"
	"testing"

	"github.com/clp-research/clembench-sub000/types"
	lua "github.com/yuin/gopher-lua"
)

// newTestVM creates a sandboxed Lua VM with the API registered and a fresh collector.
func newTestVM() (*lua.LState, *collector) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibs(L)
	sandbox(L)
	coll := &collector{}
	registerAPI(L, coll)
	return L, coll
}

// compileString runs src in a fresh VM and compiles what it defined.
func compileString(t *testing.T, src string) (*types.Catalog, error) {
	t.Helper()
	L, coll := newTestVM()
	defer L.Close()
	if err := L.DoString(src); err != nil {
		t.Fatal(err)
	}
	return compile(coll)
}

func TestCompile_GameAndGrammar(t *testing.T) {
	cat, err := compileString(t, `
		Game { title = "Test Game", author = "Author", version = "1.0", intro = "Welcome!" }
		Grammar { prepositions = { "on", "in" }, articles = "the" }
	`)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	want := types.GameDef{Title: "Test Game", Author: "Author", Version: "1.0", Intro: "Welcome!"}
	if cat.Game != want {
		t.Errorf("expected %+v, got %+v", want, cat.Game)
	}
	if !reflect.DeepEqual(cat.Grammar.Prepositions, []string{"on", "in"}) {
		t.Errorf("expected prepositions [on in], got %v", cat.Grammar.Prepositions)
	}
	if !reflect.DeepEqual(cat.Grammar.Articles, []string{"the"}) {
		t.Errorf("expected a bare string to become a one-element list, got %v", cat.Grammar.Articles)
	}
}

func TestCompile_EntityAndRoom(t *testing.T) {
	cat, err := compileString(t, `
		Game { title = "T" }
		Entity "apple" {
			traits = { "takeable", "needs_support" },
			adjectives = { "red", "green" },
			description = "A crisp apple.",
		}
		Entity "player" { hidden = true }
		Entity "coffee_table" { traits = "support" }
		Room "living_room" { exits = { "kitchen" } }
		Room "kitchen" { repr = "kitchen", exits = "living_room" }
	`)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	apple := cat.Entities["apple"]
	if apple.ID != "apple" || apple.Repr != "apple" || apple.Hidden {
		t.Errorf("unexpected apple %+v", apple)
	}
	if !reflect.DeepEqual(apple.Traits, []string{"takeable", "needs_support"}) {
		t.Errorf("unexpected traits %v", apple.Traits)
	}
	if !reflect.DeepEqual(apple.Adjectives, []string{"red", "green"}) {
		t.Errorf("unexpected adjectives %v", apple.Adjectives)
	}
	if apple.Description != "A crisp apple." {
		t.Errorf("unexpected description %q", apple.Description)
	}
	if !cat.Entities["player"].Hidden {
		t.Error("expected player to be hidden")
	}
	if got := cat.Entities["coffee_table"].Repr; got != "coffee table" {
		t.Errorf("expected default repr %q, got %q", "coffee table", got)
	}

	living := cat.Rooms["living_room"]
	if living.Repr != "living room" || !reflect.DeepEqual(living.Exits, []string{"kitchen"}) {
		t.Errorf("unexpected room %+v", living)
	}
	if !reflect.DeepEqual(cat.Rooms["kitchen"].Exits, []string{"living_room"}) {
		t.Errorf("unexpected kitchen exits %v", cat.Rooms["kitchen"].Exits)
	}
}

func TestCompile_Action(t *testing.T) {
	cat, err := compileString(t, `
		Game { title = "T" }
		Action "take" {
			verbs = { "take", "pick up" },
			args = "thing (prep thing)?",
			pddl = "(:action TAKE :parameters (?e - takeable ?c - container) :precondition (and (at ?e ?c)) :effect (and (in ?e inventory)))",
			mapping = { e = "arg1", ["?c"] = { "arg2", "arg1_receptacle" } },
			param_failures = {
				{ "domain_trait_type_mismatch", "The {e} is not something you can take." },
				{ type = "domain_trait_type_mismatch", template = "Not from the {c}." },
			},
			precon_failures = {
				{ "entity_not_accessible", "You can't see a {e} here." },
			},
			success = "Taken.",
			pragmatic = true,
		}
	`)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	take := cat.Actions["take"]
	if take.Name != "take" || take.Grammar.Action != "take" {
		t.Errorf("expected action name take, got %q / %q", take.Name, take.Grammar.Action)
	}
	if !reflect.DeepEqual(take.Grammar.Verbs, []string{"take", "pick up"}) {
		t.Errorf("unexpected verbs %v", take.Grammar.Verbs)
	}
	if take.Grammar.Args != types.ArgsOptionalPrep {
		t.Errorf("expected %q, got %q", types.ArgsOptionalPrep, take.Grammar.Args)
	}
	wantMapping := map[string][]types.ArgSource{
		"e": {types.SourceArg1},
		"c": {types.SourceArg2, types.SourceArg1Receptacle},
	}
	if !reflect.DeepEqual(take.Mapping, wantMapping) {
		t.Errorf("expected mapping %v, got %v", wantMapping, take.Mapping)
	}
	if len(take.ParamFailures) != 2 || take.ParamFailures[1].Template != "Not from the {c}." {
		t.Errorf("unexpected param failures %+v", take.ParamFailures)
	}
	if len(take.PreconFailures) != 1 || take.PreconFailures[0].FailType != "entity_not_accessible" {
		t.Errorf("unexpected precondition failures %+v", take.PreconFailures)
	}
	if !take.Pragmatic || take.Epistemic {
		t.Errorf("unexpected flags pragmatic=%v epistemic=%v", take.Pragmatic, take.Epistemic)
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"no game", `Room "hall" {}`, "no Game{} definition"},
		{"duplicate entity", `Game { title = "T" } Entity "a" {} Entity "a" {}`, "duplicate entity type"},
		{"duplicate room", `Game { title = "T" } Room "a" {} Room "a" {}`, "duplicate room type"},
		{"duplicate action", `Game { title = "T" } Action "a" {} Action "a" {}`, "duplicate action"},
		{"two domains", `Game { title = "T" } Domain "(define (domain a))" Domain "(define (domain b))"`, "Domain defined 2 times"},
		{"bad traits", `Game { title = "T" } Entity "a" { traits = 3 }`, "traits must be"},
		{"bad list item", `Game { title = "T" } Entity "a" { adjectives = { "red", 4 } }`, "adjectives[2]"},
		{"bad template", `Game { title = "T" } Action "a" { param_failures = { { "only_type" } } }`, "param_failures[1]"},
		{"template not a table", `Game { title = "T" } Action "a" { precon_failures = { "x" } }`, "precon_failures[1] must be a table"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileString(t, tt.src)
			if err == nil {
				t.Fatal("expected compile error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %q", tt.want, err.Error())
			}
		})
	}
}

func TestSortedLuaFiles(t *testing.T) {
	files := sortedLuaFiles([]string{"rooms.lua", "game.lua", "actions.lua", "entities.lua"})
	want := []string{"game.lua", "actions.lua", "entities.lua", "rooms.lua"}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("expected %v, got %v", want, files)
	}
}
