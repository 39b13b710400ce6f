package engine

import (
	"bytes"
	"log"
	"reflect"
	"strings"
	"testing"

	"github.com/clp-research/clembench-sub000/engine/fact"
	"github.com/clp-research/clembench-sub000/engine/state"
	"github.com/clp-research/clembench-sub000/types"
)

// testCatalog builds a small kitchen game: take, open, put and go.
func testCatalog() *types.Catalog {
	return &types.Catalog{
		Game: types.GameDef{Title: "Test Kitchen"},
		Grammar: types.GrammarHead{
			Prepositions: []string{"on", "in", "into", "from"},
			Articles:     []string{"the", "a", "an"},
		},
		Domain: `(define (domain kitchen)
			(:types container support - receptacle
			        receptacle - entity))`,
		Entities: map[string]types.EntityTypeDef{
			"player":   {Repr: "player", Hidden: true},
			"floor":    {Repr: "floor", Hidden: true, Traits: []string{"support"}},
			"apple":    {Repr: "apple", Traits: []string{"takeable", "needs_support"}, Adjectives: []string{"red", "green"}},
			"plate":    {Repr: "plate", Traits: []string{"takeable"}},
			"cup":      {Repr: "cup", Traits: []string{"takeable"}},
			"book":     {Repr: "book", Traits: []string{"takeable"}},
			"cupboard": {Repr: "cupboard", Traits: []string{"container", "openable"}},
			"door":     {Repr: "door", Traits: []string{"openable"}},
			"table":    {Repr: "table", Traits: []string{"support"}},
		},
		Rooms: map[string]types.RoomTypeDef{
			"kitchen": {Repr: "kitchen", Exits: []string{"hallway"}},
			"hallway": {Repr: "hallway", Exits: []string{"kitchen"}},
		},
		Actions: map[string]types.ActionTypeDef{
			"take": {
				Grammar: types.GrammarFragment{Verbs: []string{"take", "get", "pick up"}, Args: types.ArgsOptionalPrep},
				PDDL: `(:action TAKE
					:parameters (?e - takeable ?c - (either container support) ?r - room ?p - player)
					:precondition (and
						(at ?p ?r)
						(at ?e ?r)
						(or (in ?e ?c) (on ?e ?c))
						(not (closed ?c))
						(not (in ?e inventory)))
					:effect (and
						(in ?e inventory)
						(not (at ?e ?r))
						(not (in ?e ?c))
						(not (on ?e ?c))))`,
				Mapping: map[string][]types.ArgSource{
					"e": {types.SourceArg1},
					"c": {types.SourceArg2, types.SourceArg1Receptacle},
					"r": {types.SourceRoom},
					"p": {types.SourcePlayer},
				},
				ParamFailures: []types.FailureTemplate{
					{FailType: "domain_trait_type_mismatch", Template: "The {e} is not something you can take."},
					{FailType: "domain_trait_type_mismatch", Template: "You can't take things from the {c}."},
					{FailType: "domain_type_discrepancy", Template: "That is not a room."},
					{FailType: "domain_type_discrepancy", Template: "Only you can do that."},
				},
				PreconFailures: []types.FailureTemplate{
					{FailType: "world_state_discrepancy", Template: "You are not in the {r}."},
					{FailType: "entity_not_accessible", Template: "You can't see a {e} here."},
					{FailType: "entity_not_accessible", Template: "The {e} is not in or on the {c}."},
					{FailType: "entity_not_accessible", Template: "The {e} is not in or on the {c}."},
					{FailType: "entity_not_accessible", Template: "The {e} is in the closed {c}."},
					{FailType: "entity_state_mismatch", Template: "You already have the {e}."},
				},
				Success:   "The {e} is now in your inventory.",
				Pragmatic: true,
			},
			"open": {
				Grammar: types.GrammarFragment{Verbs: []string{"open"}, Args: types.ArgsThing},
				PDDL: `(:action OPEN
					:parameters (?e - openable ?r - room ?p - player)
					:precondition (and (at ?p ?r) (at ?e ?r) (closed ?e))
					:effect (and
						(open ?e)
						(not (closed ?e))
						(forall (?x) (when (in ?x ?e) (accessible ?x)))))`,
				Mapping: map[string][]types.ArgSource{
					"e": {types.SourceArg1},
					"r": {types.SourceRoom},
					"p": {types.SourcePlayer},
				},
				ParamFailures: []types.FailureTemplate{
					{FailType: "domain_trait_type_mismatch", Template: "The {e} can't be opened."},
				},
				PreconFailures: []types.FailureTemplate{
					{FailType: "world_state_discrepancy", Template: "You are not in the {r}."},
					{FailType: "entity_not_accessible", Template: "You can't see a {e} here."},
					{FailType: "entity_state_mismatch", Template: "The {e} is already open."},
				},
				Success:   "You open the {e}. {container_content}",
				Epistemic: true,
			},
			"put": {
				Grammar: types.GrammarFragment{Verbs: []string{"put", "place"}, Args: types.ArgsPrep},
				PDDL: `(:action PUT
					:parameters (?e - takeable ?s - receptacle ?r - room ?p - player)
					:precondition (and
						(at ?p ?r)
						(in ?e inventory)
						(at ?s ?r)
						(not (closed ?s)))
					:effect (and
						(not (in ?e inventory))
						(at ?e ?r)
						(when (support ?s) (on ?e ?s))
						(when (container ?s) (in ?e ?s))))`,
				Mapping: map[string][]types.ArgSource{
					"e": {types.SourceArg1},
					"s": {types.SourceArg2},
					"r": {types.SourceRoom},
					"p": {types.SourcePlayer},
				},
				ParamFailures: []types.FailureTemplate{
					{FailType: "domain_trait_type_mismatch", Template: "The {e} is not something you can carry."},
					{FailType: "domain_type_discrepancy", Template: "You can't put things {prep} the {s}."},
				},
				PreconFailures: []types.FailureTemplate{
					{FailType: "world_state_discrepancy", Template: "You are not in the {r}."},
					{FailType: "entity_not_accessible", Template: "You don't have the {e}."},
					{FailType: "entity_not_accessible", Template: "You can't see a {s} here."},
					{FailType: "entity_state_mismatch", Template: "The {s} is closed."},
				},
				Success:   "You put the {e} {prep} the {s}.",
				Pragmatic: true,
			},
			"go": {
				Grammar: types.GrammarFragment{Verbs: []string{"go", "enter"}, Args: types.ArgsThing},
				PDDL: `(:action GO
					:parameters (?from ?to - room ?p - player)
					:precondition (and (at ?p ?from) (exit ?from ?to))
					:effect (and (at ?p ?to) (not (at ?p ?from))))`,
				Mapping: map[string][]types.ArgSource{
					"from": {types.SourceRoom},
					"to":   {types.SourceArg1},
					"p":    {types.SourcePlayer},
				},
				PreconFailures: []types.FailureTemplate{
					{FailType: "world_state_discrepancy", Template: "You are lost."},
					{FailType: "world_state_discrepancy", Template: "There is no passage to the {to} here."},
				},
				Success:   "{room_desc}",
				Epistemic: true,
			},
		},
	}
}

var kitchenFacts = []string{
	"type(player1,player)", "room(kitchen1,kitchen)", "room(hallway1,hallway)",
	"at(player1,kitchen1)", "exit(kitchen1,hallway1)", "exit(hallway1,kitchen1)",
	"type(apple1,apple)", "at(apple1,kitchen1)", "adj(apple1,red)", "takeable(apple1)",
	"type(cupboard1,cupboard)", "at(cupboard1,kitchen1)", "closed(cupboard1)",
	"type(plate1,plate)", "at(plate1,kitchen1)", "in(plate1,cupboard1)",
	"type(cup1,cup)", "at(cup1,kitchen1)", "in(cup1,cupboard1)",
	"type(door1,door)", "at(door1,kitchen1)", "open(door1)",
	"type(table1,table)", "at(table1,kitchen1)",
	"type(book1,book)", "in(book1,inventory)",
}

func newTestEngine(t *testing.T, cat *types.Catalog, opts ...Option) *Engine {
	t.Helper()
	defs, err := state.NewDefs(cat)
	if err != nil {
		t.Fatalf("NewDefs failed: %v", err)
	}
	e, err := New(defs, &types.Adventure{
		Name:         "test",
		InitialState: kitchenFacts,
		GoalState:    []string{"on(book1,table1)"},
	}, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return e
}

func has(e *Engine, s string) bool {
	return e.World.Has(fact.MustParse(s))
}

func TestNew_AugmentsWorld(t *testing.T) {
	e := newTestEngine(t, testCatalog())
	for _, s := range []string{"type(kitchen1floor,floor)", "on(apple1,kitchen1floor)", "support(table1)", "openable(cupboard1)"} {
		if !has(e, s) {
			t.Errorf("expected %s after augmentation", s)
		}
	}
	if e.History.Len() != 1 {
		t.Errorf("expected initial history entry, got %d", e.History.Len())
	}
	if e.Explore.Known().Len() == 0 {
		t.Error("expected initial exploration state")
	}
}

func TestScenarioA_TakeApple(t *testing.T) {
	e := newTestEngine(t, testCatalog())
	r := e.ProcessAction("take apple")
	if !r.Success {
		t.Fatalf("expected success, got %+v", r.Info)
	}
	if !has(e, "in(apple1,inventory)") {
		t.Error("expected apple in inventory")
	}
	if has(e, "at(apple1,kitchen1)") {
		t.Error("expected apple to leave the kitchen")
	}
	if r.Feedback != "The red apple is now in your inventory." {
		t.Errorf("unexpected feedback %q", r.Feedback)
	}
	if r.Info.ActionType != "take" || !r.Info.Pragmatic {
		t.Errorf("unexpected info %+v", r.Info)
	}
	if r.Info.Effects == nil || !containsFact(r.Info.Effects.Added, "in(apple1,inventory)") ||
		!containsFact(r.Info.Effects.Removed, "at(apple1,kitchen1)") {
		t.Errorf("unexpected effects %+v", r.Info.Effects)
	}
	if r.Info.Exploration == nil || !containsFact(r.Info.Exploration.EpistemicGain, "in(apple1,inventory)") {
		t.Errorf("expected exploration gain to include the taken apple, got %+v", r.Info.Exploration)
	}
	if e.History.Len() != 2 {
		t.Errorf("expected 2 history entries, got %d", e.History.Len())
	}
}

func TestScenarioB_ClosedContainer(t *testing.T) {
	e := newTestEngine(t, testCatalog())
	before := e.World.Snapshot()
	r := e.ProcessAction("take plate from cupboard")
	if r.Success {
		t.Fatal("expected failure")
	}
	if r.Info.Phase != types.PhaseResolution || r.Info.FailType != "entity_not_accessible" {
		t.Errorf("expected resolution/entity_not_accessible, got %s/%s", r.Info.Phase, r.Info.FailType)
	}
	if r.Info.Arg != "closed(cupboard1)" {
		t.Errorf("expected failing clause closed(cupboard1), got %q", r.Info.Arg)
	}
	if r.Feedback != "The plate is in the closed cupboard." {
		t.Errorf("unexpected feedback %q", r.Feedback)
	}
	if !e.World.Facts().Equal(before) {
		t.Error("expected world unchanged after failure")
	}
	if e.History.Len() != 1 {
		t.Errorf("expected no history entry for a failure, got %d", e.History.Len())
	}
}

func TestScenarioC_OpenAlreadyOpenDoor(t *testing.T) {
	e := newTestEngine(t, testCatalog())
	r := e.ProcessAction("open door")
	if r.Success {
		t.Fatal("expected failure")
	}
	if r.Info.FailType != "entity_state_mismatch" || r.Info.Arg != "closed(door1)" {
		t.Errorf("expected entity_state_mismatch on closed(door1), got %s on %q", r.Info.FailType, r.Info.Arg)
	}
	if r.Feedback != "The door is already open." {
		t.Errorf("unexpected feedback %q", r.Feedback)
	}
	trace := e.LastTrace()
	if trace == nil || trace.Fulfilled {
		t.Fatal("expected failed trace to be kept")
	}
}

func TestScenarioD_ForAllMakesContentsAccessible(t *testing.T) {
	e := newTestEngine(t, testCatalog())
	before := e.World.Snapshot()
	r := e.ProcessAction("open cupboard")
	if !r.Success {
		t.Fatalf("expected success, got %+v: %s", r.Info, r.Feedback)
	}

	wantAdded := fact.NewSet(
		fact.MustParse("open(cupboard1)"),
		fact.MustParse("accessible(plate1)"),
		fact.MustParse("accessible(cup1)"),
	)
	wantRemoved := fact.NewSet(fact.MustParse("closed(cupboard1)"))
	if got := fact.NewSet(r.Info.Effects.Added...); !got.Equal(wantAdded) {
		t.Errorf("expected added %v, got %v", wantAdded.Strings(), got.Strings())
	}
	if got := fact.NewSet(r.Info.Effects.Removed...); !got.Equal(wantRemoved) {
		t.Errorf("expected removed %v, got %v", wantRemoved.Strings(), got.Strings())
	}

	changed := e.World.Facts().Difference(before)
	if !changed.Equal(wantAdded) {
		t.Errorf("expected nothing else to change, got %v", changed.Strings())
	}
	if !strings.HasPrefix(r.Feedback, "You open the cupboard. There are a plate and a cup in the cupboard.") {
		t.Errorf("unexpected feedback %q", r.Feedback)
	}

	// The plate is now reachable.
	if r := e.ProcessAction("take plate from cupboard"); !r.Success {
		t.Errorf("expected take from open cupboard to succeed, got %s: %s", r.Info.FailType, r.Feedback)
	}
}

func TestScenarioE_GoalAchieved(t *testing.T) {
	e := newTestEngine(t, testCatalog())
	if e.AchievedGoals().Len() != 0 {
		t.Fatal("expected no goals achieved initially")
	}
	r := e.ProcessAction("put book on table")
	if !r.Success {
		t.Fatalf("expected success, got %s: %s", r.Info.FailType, r.Feedback)
	}
	if r.Feedback != "You put the book on the table." {
		t.Errorf("unexpected feedback %q", r.Feedback)
	}
	want := fact.NewSet(fact.MustParse("on(book1,table1)"))
	if !r.Goals.Equal(want) {
		t.Errorf("expected goals %v, got %v", want.Strings(), r.Goals.Strings())
	}
	if !e.Done() {
		t.Error("expected adventure to be done")
	}

	// Goals are recomputed, not accumulated.
	r = e.ProcessAction("take book")
	if !r.Success {
		t.Fatalf("expected take book to succeed, got %s: %s", r.Info.FailType, r.Feedback)
	}
	if r.Goals.Len() != 0 {
		t.Errorf("expected goals to be lost again, got %v", r.Goals.Strings())
	}
}

func TestProcessAction_ParsingFailures(t *testing.T) {
	tests := []struct {
		input    string
		failType string
		arg      string
	}{
		{"", types.FailParse, ""},
		{"dance", types.FailUndefinedVerb, "dance"},
		{"take", types.FailMalformed, "take"},
		{"put book", types.FailMalformed, "put book"},
		{"take unicorn", types.FailUndefinedRepr, "unicorn"},
		{"take kitchen", types.FailManipulatingRoom, "kitchen"},
		{"take hallway", types.FailOtherRoom, "hallway"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			e := newTestEngine(t, testCatalog())
			before := e.World.Snapshot()
			r := e.ProcessAction(tt.input)
			if r.Success {
				t.Fatal("expected failure")
			}
			if r.Info.Phase != types.PhaseParsing {
				t.Errorf("expected parsing phase, got %q", r.Info.Phase)
			}
			if r.Info.FailType != tt.failType {
				t.Errorf("expected %s, got %s", tt.failType, r.Info.FailType)
			}
			if r.Info.Arg != tt.arg {
				t.Errorf("expected arg %q, got %q", tt.arg, r.Info.Arg)
			}
			if r.Feedback == "" {
				t.Error("expected a message")
			}
			if !e.World.Facts().Equal(before) {
				t.Error("expected world unchanged")
			}
		})
	}
}

func TestProcessAction_TypeMismatch(t *testing.T) {
	e := newTestEngine(t, testCatalog())
	r := e.ProcessAction("take table")
	if r.Success {
		t.Fatal("expected failure")
	}
	if r.Info.Phase != types.PhaseResolution || r.Info.FailType != "domain_trait_type_mismatch" {
		t.Errorf("expected resolution/domain_trait_type_mismatch, got %s/%s", r.Info.Phase, r.Info.FailType)
	}
	if r.Feedback != "The table is not something you can take." {
		t.Errorf("unexpected feedback %q", r.Feedback)
	}
	if e.LastTrace() != nil {
		t.Error("expected preconditions not to be evaluated after a type mismatch")
	}
}

func TestProcessAction_FirstTypeMismatchWins(t *testing.T) {
	e := newTestEngine(t, testCatalog())
	before := e.World.Snapshot()
	r := e.ProcessAction("put table on apple")
	if r.Success {
		t.Fatal("expected failure")
	}
	if r.Info.FailType != "domain_trait_type_mismatch" || r.Info.Arg != "table1" {
		t.Errorf("expected domain_trait_type_mismatch on table1, got %s on %q", r.Info.FailType, r.Info.Arg)
	}
	if r.Feedback != "The table is not something you can carry." {
		t.Errorf("unexpected feedback %q", r.Feedback)
	}
	if e.LastTrace() != nil {
		t.Error("expected preconditions not to be evaluated after a type mismatch")
	}
	if !e.World.Facts().Equal(before) {
		t.Error("expected world unchanged")
	}
}

func TestProcessAction_FailureUsesTypedPreposition(t *testing.T) {
	e := newTestEngine(t, testCatalog())
	r := e.ProcessAction("put book on apple")
	if r.Success {
		t.Fatal("expected failure")
	}
	if r.Info.FailType != "domain_type_discrepancy" || r.Info.Arg != "apple1" {
		t.Errorf("expected domain_type_discrepancy on apple1, got %s on %q", r.Info.FailType, r.Info.Arg)
	}
	if r.Feedback != "You can't put things on the red apple." {
		t.Errorf("unexpected feedback %q", r.Feedback)
	}
}

func TestProcessAction_TakeFromWrongHolder(t *testing.T) {
	e := newTestEngine(t, testCatalog())
	before := e.World.Snapshot()
	r := e.ProcessAction("take apple from table")
	if r.Success {
		t.Fatal("expected failure")
	}
	if r.Info.FailType != "entity_not_accessible" || r.Info.Arg != "in(apple1,table1)" {
		t.Errorf("expected entity_not_accessible on in(apple1,table1), got %s on %q", r.Info.FailType, r.Info.Arg)
	}
	if r.Feedback != "The red apple is not in or on the table." {
		t.Errorf("unexpected feedback %q", r.Feedback)
	}
	if !e.World.Facts().Equal(before) {
		t.Error("expected world unchanged")
	}

	// Taken from its real holder, it leaves no holder fact behind.
	if r := e.ProcessAction("take apple"); !r.Success {
		t.Fatalf("expected success, got %s: %s", r.Info.FailType, r.Feedback)
	}
	if has(e, "on(apple1,kitchen1floor)") || !has(e, "in(apple1,inventory)") {
		t.Error("expected the apple to move from the floor to the inventory")
	}
}

func TestProcessAction_GoToRoom(t *testing.T) {
	e := newTestEngine(t, testCatalog())
	r := e.ProcessAction("go hallway")
	if !r.Success {
		t.Fatalf("expected success, got %s: %s", r.Info.FailType, r.Feedback)
	}
	if !strings.HasPrefix(r.Feedback, "You are in a hallway.") {
		t.Errorf("unexpected feedback %q", r.Feedback)
	}
	if !has(e, "at(player1,hallway1)") || has(e, "at(player1,kitchen1)") {
		t.Error("expected player in the hallway")
	}
	if !containsFact(r.Info.Exploration.EpistemicGain, "at(player1,hallway1)") {
		t.Errorf("expected new location to be known, got %v", r.Info.Exploration.EpistemicGain)
	}
	if e.Explore.Known().Has(fact.MustParse("at(player1,kitchen1)")) {
		t.Error("expected old location to be retracted")
	}

	// The apple is out of reach from the hallway.
	r = e.ProcessAction("take apple")
	if r.Success || r.Info.FailType != "entity_not_accessible" {
		t.Errorf("expected entity_not_accessible, got %s", r.Info.FailType)
	}
}

func TestProcessAction_AdjectiveGrounding(t *testing.T) {
	e := newTestEngine(t, testCatalog())
	if r := e.ProcessAction("take green apple"); r.Success {
		t.Error("expected no green apple to be found")
	}
	if r := e.ProcessAction("take red apple"); !r.Success {
		t.Errorf("expected red apple to be taken, got %s: %s", r.Info.FailType, r.Feedback)
	}
}

func TestProcessAction_Determinism(t *testing.T) {
	commands := []string{"take apple", "open cupboard", "take cup", "put cup on table", "go hallway", "open door"}
	a := newTestEngine(t, testCatalog())
	b := newTestEngine(t, testCatalog())
	for _, cmd := range commands {
		ra, rb := a.ProcessAction(cmd), b.ProcessAction(cmd)
		if ra.Feedback != rb.Feedback {
			t.Errorf("%s: feedback differs: %q vs %q", cmd, ra.Feedback, rb.Feedback)
		}
		if !reflect.DeepEqual(ra.Info, rb.Info) {
			t.Errorf("%s: info differs: %+v vs %+v", cmd, ra.Info, rb.Info)
		}
	}
	if !a.World.Facts().Equal(b.World.Facts()) {
		t.Error("expected identical worlds")
	}
}

func TestExecutePlanSequence_Success(t *testing.T) {
	e := newTestEngine(t, testCatalog())
	results := e.ExecutePlanSequence([]string{"open cupboard", "take plate", "put book on table"})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if !r.Success {
			t.Errorf("command %d failed: %s", i, r.Feedback)
		}
	}
	if !e.Done() {
		t.Error("expected goals achieved")
	}
	if len(e.CommandLog) != 3 {
		t.Errorf("expected 3 logged commands, got %d", len(e.CommandLog))
	}
}

func TestExecutePlanSequence_RollsBack(t *testing.T) {
	e := newTestEngine(t, testCatalog())
	before := e.World.Snapshot()
	known := e.Explore.Known().Clone()

	results := e.ExecutePlanSequence([]string{"take apple", "go hallway", "open door", "put book on table"})
	if len(results) != 3 {
		t.Fatalf("expected to halt after 3 commands, got %d", len(results))
	}
	if results[2].Success {
		t.Fatal("expected third command to fail")
	}
	if !e.World.Facts().Equal(before) {
		t.Error("expected world rolled back")
	}
	if !e.Explore.Known().Equal(known) {
		t.Error("expected exploration state rolled back")
	}
	if e.History.Len() != 1 || len(e.CommandLog) != 0 || e.Turn != 0 {
		t.Errorf("expected history, log and turn rolled back, got %d, %d, %d", e.History.Len(), len(e.CommandLog), e.Turn)
	}
}

func TestExecutePlanSequence_FailureWithoutChange(t *testing.T) {
	e := newTestEngine(t, testCatalog())
	results := e.ExecutePlanSequence([]string{"open door", "take apple"})
	if len(results) != 1 || results[0].Success {
		t.Fatalf("expected a single failed result, got %d", len(results))
	}
	if len(e.CommandLog) != 1 {
		t.Errorf("expected the failed command to stay logged, got %v", e.CommandLog)
	}
}

func TestProcessAction_MissingTemplateWarns(t *testing.T) {
	cat := testCatalog()
	open := cat.Actions["open"]
	open.PreconFailures = nil
	cat.Actions["open"] = open

	var buf bytes.Buffer
	e := newTestEngine(t, cat, WithLogger(log.New(&buf, "", 0)))
	r := e.ProcessAction("open door")
	if r.Success {
		t.Fatal("expected failure")
	}
	if r.Info.FailType != "world_state_discrepancy" {
		t.Errorf("expected fallback fail type, got %s", r.Info.FailType)
	}
	if !strings.Contains(buf.String(), "no failure template for precondition 2") {
		t.Errorf("expected a warning, got %q", buf.String())
	}
}

func containsFact(facts []fact.Fact, s string) bool {
	want := fact.MustParse(s)
	for _, f := range facts {
		if f == want {
			return true
		}
	}
	return false
}
