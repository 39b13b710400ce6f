package feedback

import (
	"testing"

	"github.com/clp-research/clembench-sub000/engine/fact"
	"github.com/clp-research/clembench-sub000/engine/resolve"
	"github.com/clp-research/clembench-sub000/engine/state"
	"github.com/clp-research/clembench-sub000/types"
)

func TestRender(t *testing.T) {
	calls := 0
	frag := func(name string) (string, bool) {
		if name == "room_desc" {
			calls++
			return "You are in a kitchen.", true
		}
		return "", false
	}
	got := Render("{e} is now in your inventory. {room_desc} {room_desc} {unknown}",
		map[string]string{"e": "red apple"}, frag)
	want := "Red apple is now in your inventory. You are in a kitchen. You are in a kitchen. {unknown}"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if calls != 1 {
		t.Errorf("expected fragment computed once, got %d calls", calls)
	}
}

func TestRender_NoFragments(t *testing.T) {
	if got := Render("the {e} is closed.", map[string]string{"e": "cupboard"}, nil); got != "The cupboard is closed." {
		t.Errorf("unexpected %q", got)
	}
}

func TestList(t *testing.T) {
	tests := []struct {
		items []string
		want  string
	}{
		{nil, ""},
		{[]string{"a plate"}, "a plate"},
		{[]string{"a plate", "an apple"}, "a plate and an apple"},
		{[]string{"a plate", "an apple", "a cup"}, "a plate, an apple and a cup"},
	}
	for _, tt := range tests {
		if got := List(tt.items); got != tt.want {
			t.Errorf("List(%v) = %q, want %q", tt.items, got, tt.want)
		}
	}
}

func TestArticle(t *testing.T) {
	if WithArticle("apple") != "an apple" || WithArticle("plate") != "a plate" {
		t.Error("unexpected article choice")
	}
}

func testDescriber(t *testing.T, facts ...string) (*Describer, *state.World) {
	t.Helper()
	defs, err := state.NewDefs(&types.Catalog{
		Entities: map[string]types.EntityTypeDef{
			"player":   {Repr: "player", Hidden: true},
			"floor":    {Repr: "floor", Hidden: true, Traits: []string{"support"}},
			"cupboard": {Repr: "cupboard", Traits: []string{"container", "openable"}},
			"table":    {Repr: "table", Traits: []string{"support"}},
			"plate":    {Repr: "plate", Traits: []string{"takeable"}},
			"apple":    {Repr: "apple", Traits: []string{"takeable"}, Description: "A crisp apple."},
			"book":     {Repr: "book", Traits: []string{"takeable"}},
		},
		Rooms: map[string]types.RoomTypeDef{
			"kitchen":     {Repr: "kitchen"},
			"bedroom":     {Repr: "bedroom"},
			"living_room": {Repr: "living room"},
		},
	})
	if err != nil {
		t.Fatalf("NewDefs failed: %v", err)
	}
	set, err := fact.ParseAll(facts)
	if err != nil {
		t.Fatalf("ParseAll failed: %v", err)
	}
	return NewDescriber(defs, resolve.New(defs, nil)), state.NewWorld(set)
}

func TestDescriber_Room(t *testing.T) {
	d, w := testDescriber(t,
		"type(player1,player)", "room(kitchen1,kitchen)", "room(bedroom1,bedroom)", "room(living_room1,living_room)",
		"at(player1,kitchen1)",
		"type(kitchen1floor,floor)", "at(kitchen1floor,kitchen1)",
		"type(cupboard1,cupboard)", "at(cupboard1,kitchen1)", "closed(cupboard1)",
		"type(plate1,plate)", "at(plate1,kitchen1)", "in(plate1,cupboard1)",
		"type(table1,table)", "at(table1,kitchen1)",
		"type(book1,book)", "at(book1,kitchen1)", "on(book1,table1)",
		"type(apple1,apple)", "at(apple1,kitchen1)", "on(apple1,kitchen1floor)",
		"exit(kitchen1,bedroom1)", "exit(kitchen1,living_room1)",
	)
	want := "You are in a kitchen. There are a cupboard, a table and an apple. The cupboard is closed. " +
		"There is a book on the table. There are passages to a bedroom and a living room."
	if got := d.Room(w); got != want {
		t.Errorf("expected\n  %q\ngot\n  %q", want, got)
	}
}

func TestDescriber_RoomShowsOpenContainerContents(t *testing.T) {
	d, w := testDescriber(t,
		"type(player1,player)", "room(kitchen1,kitchen)", "at(player1,kitchen1)",
		"type(cupboard1,cupboard)", "at(cupboard1,kitchen1)", "open(cupboard1)",
		"type(plate1,plate)", "at(plate1,kitchen1)", "in(plate1,cupboard1)",
		"room(bedroom1,bedroom)", "exit(kitchen1,bedroom1)",
	)
	want := "You are in a kitchen. There is a cupboard. The cupboard is open. " +
		"There is a plate in the cupboard. There is a passage to a bedroom."
	if got := d.Room(w); got != want {
		t.Errorf("expected\n  %q\ngot\n  %q", want, got)
	}
}

func TestDescriber_Inventory(t *testing.T) {
	d, w := testDescriber(t, "type(apple1,apple)", "in(apple1,inventory)", "type(book1,book)", "in(book1,inventory)")
	if got := d.Inventory(w); got != "In your inventory you have an apple and a book." {
		t.Errorf("unexpected %q", got)
	}
	d, w = testDescriber(t)
	if got := d.Inventory(w); got != "Your inventory is empty." {
		t.Errorf("unexpected %q", got)
	}
}

func TestDescriber_Fragments(t *testing.T) {
	d, w := testDescriber(t,
		"type(cupboard1,cupboard)", "type(plate1,plate)", "in(plate1,cupboard1)", "type(apple1,apple)",
	)
	ctx := Context{World: w, Delta: state.NewDelta(), Subject: "cupboard1"}
	if got, _ := d.Fragment(ctx, ContainerContent); got != "There is a plate in the cupboard." {
		t.Errorf("unexpected container content %q", got)
	}
	ctx.Subject = "apple1"
	if got, _ := d.Fragment(ctx, EntityDesc); got != "A crisp apple." {
		t.Errorf("unexpected entity description %q", got)
	}
	if got, _ := d.Fragment(ctx, ContainerContent); got != "The apple is empty." {
		t.Errorf("unexpected empty container text %q", got)
	}
	if _, ok := d.Fragment(ctx, "nonsense"); ok {
		t.Error("expected unknown fragment to be rejected")
	}
}

func TestPrepOf(t *testing.T) {
	delta := state.NewDelta()
	delta.Added.Add(fact.MustParse("at(book1,kitchen1)"))
	delta.Added.Add(fact.MustParse("on(book1,table1)"))
	if got := PrepOf(delta, "book1"); got != "on" {
		t.Errorf("expected on, got %q", got)
	}
	if got := PrepOf(delta, "apple1"); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}

func TestDescriber_PrepFragment(t *testing.T) {
	d, w := testDescriber(t, "type(book1,book)")
	delta := state.NewDelta()
	delta.Added.Add(fact.MustParse("in(book1,cupboard1)"))

	tests := []struct {
		name  string
		delta state.Delta
		typed string
		want  string
	}{
		{"placed by delta", delta, "into", "in"},
		{"typed preposition", state.NewDelta(), "onto", "onto"},
		{"nothing", state.NewDelta(), "", ""},
	}
	for _, tt := range tests {
		ctx := Context{World: w, Delta: tt.delta, Subject: "book1", Prep: tt.typed}
		if got, _ := d.Fragment(ctx, Prep); got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.name, tt.want, got)
		}
	}
}
