package feedback

import (
	"fmt"
	"strings"

	"github.com/clp-research/clembench-sub000/engine/fact"
	"github.com/clp-research/clembench-sub000/engine/resolve"
	"github.com/clp-research/clembench-sub000/engine/state"
)

// Context is what fragments are computed from: the post-effect world, the
// delta that produced it, the instance the command's first argument
// resolved to, and the preposition the player typed.
type Context struct {
	World   *state.World
	Delta   state.Delta
	Subject string
	Prep    string
}

// Describer renders rooms, inventory and containers as prose.
type Describer struct {
	defs *state.Defs
	res  *resolve.Resolver
}

// NewDescriber creates a describer.
func NewDescriber(defs *state.Defs, res *resolve.Resolver) *Describer {
	return &Describer{defs: defs, res: res}
}

// Fragment computes one named fragment. It returns false for unknown names.
func (d *Describer) Fragment(ctx Context, name string) (string, bool) {
	switch name {
	case RoomDesc:
		return d.Room(ctx.World), true
	case InventoryDesc:
		return d.Inventory(ctx.World), true
	case ContainerContent:
		return d.Contents(ctx.World, ctx.Subject), true
	case Prep:
		if p := PrepOf(ctx.Delta, ctx.Subject); p != "" {
			return p, true
		}
		return ctx.Prep, true
	case EntityDesc:
		return d.Entity(ctx.World, ctx.Subject), true
	}
	return "", false
}

// Func adapts Fragment for Render.
func (d *Describer) Func(ctx Context) func(string) (string, bool) {
	return func(name string) (string, bool) { return d.Fragment(ctx, name) }
}

func (d *Describer) hidden(w *state.World, inst string) bool {
	t, _ := w.TypeOf(inst)
	return d.defs.Entities[t].Hidden
}

func (d *Describer) openable(w *state.World, inst string) bool {
	return w.Has(fact.New("openable", inst)) || w.Has(fact.New("open", inst)) || w.Has(fact.New("closed", inst))
}

// describeHeld lists the visible entities in or on holder as one sentence.
func (d *Describer) describeHeld(w *state.World, holder string) string {
	var items []string
	prep := "in"
	for _, f := range w.Facts().Facts() {
		if (f.Predicate == "in" || f.Predicate == "on") && f.Arg2 == holder && !d.hidden(w, f.Arg1) {
			items = append(items, WithArticle(d.res.Describe(w, f.Arg1)))
			prep = f.Predicate
		}
	}
	if len(items) == 0 {
		return ""
	}
	verb := "is"
	if len(items) > 1 {
		verb = "are"
	}
	return fmt.Sprintf("There %s %s %s the %s.", verb, List(items), prep, d.res.Describe(w, holder))
}

// Room describes the player's current room: its visible top-level
// entities, their open/closed state, what lies in or on them, and exits.
func (d *Describer) Room(w *state.World) string {
	room := w.PlayerRoom()
	if room == "" {
		return ""
	}
	var sentences []string
	sentences = append(sentences, fmt.Sprintf("You are in %s.", WithArticle(d.res.Describe(w, room))))

	var top []string
	for _, inst := range w.Entities() {
		if w.Location(inst) != room || d.hidden(w, inst) {
			continue
		}
		if _, holder := w.Container(inst); holder != "" && !d.hidden(w, holder) {
			continue
		}
		top = append(top, inst)
	}

	if len(top) > 0 {
		names := make([]string, len(top))
		for i, inst := range top {
			names[i] = WithArticle(d.res.Describe(w, inst))
		}
		verb := "is"
		if len(top) > 1 {
			verb = "are"
		}
		sentences = append(sentences, fmt.Sprintf("There %s %s.", verb, List(names)))
	}

	for _, inst := range top {
		if !d.openable(w, inst) {
			continue
		}
		st := "open"
		if w.Has(fact.New("closed", inst)) {
			st = "closed"
		}
		sentences = append(sentences, fmt.Sprintf("The %s is %s.", d.res.Describe(w, inst), st))
	}

	for _, inst := range top {
		if w.Has(fact.New("closed", inst)) {
			continue
		}
		if s := d.describeHeld(w, inst); s != "" {
			sentences = append(sentences, s)
		}
	}

	var exits []string
	for _, e := range w.Exits(room) {
		exits = append(exits, WithArticle(d.res.Describe(w, e)))
	}
	switch len(exits) {
	case 0:
	case 1:
		sentences = append(sentences, fmt.Sprintf("There is a passage to %s.", exits[0]))
	default:
		sentences = append(sentences, fmt.Sprintf("There are passages to %s.", List(exits)))
	}
	return strings.Join(sentences, " ")
}

// Inventory describes what the player carries.
func (d *Describer) Inventory(w *state.World) string {
	var items []string
	for _, f := range w.Facts().Select("in") {
		if f.Arg2 == state.Inventory {
			items = append(items, WithArticle(d.res.Describe(w, f.Arg1)))
		}
	}
	if len(items) == 0 {
		return "Your inventory is empty."
	}
	return fmt.Sprintf("In your inventory you have %s.", List(items))
}

// Contents describes what lies in or on holder.
func (d *Describer) Contents(w *state.World, holder string) string {
	if holder == "" || holder == fact.Absent {
		return ""
	}
	if s := d.describeHeld(w, holder); s != "" {
		return s
	}
	return fmt.Sprintf("The %s is empty.", d.res.Describe(w, holder))
}

// Entity returns the free-text description of an instance's type.
func (d *Describer) Entity(w *state.World, inst string) string {
	t, _ := w.TypeOf(inst)
	if desc := d.defs.Entities[t].Description; desc != "" {
		return desc
	}
	if desc := d.defs.Rooms[t].Description; desc != "" {
		return desc
	}
	return fmt.Sprintf("You see nothing special about the %s.", d.res.Describe(w, inst))
}

// PrepOf returns the relation (in or on) an action's delta placed inst in.
func PrepOf(delta state.Delta, inst string) string {
	if delta.Added == nil {
		return ""
	}
	for _, f := range delta.Added.Facts() {
		if (f.Predicate == "in" || f.Predicate == "on") && f.Arg1 == inst {
			return f.Predicate
		}
	}
	return ""
}
