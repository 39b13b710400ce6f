// Package types defines the shared data structures for the adventure
// interpreter. This package contains only type definitions and constants.
package types

import "github.com/clp-research/clembench-sub000/engine/fact"

// Phase names the stage of command handling a failure came from.
type Phase string

const (
	PhaseParsing    Phase = "parsing"
	PhaseResolution Phase = "resolution"
)

// Fail types raised by the interpreter itself. Resolution-phase fail types
// come from the failure templates attached to each action.
const (
	FailParse            = "parse_failure"
	FailUndefinedVerb    = "undefined_action_verb"
	FailMalformed        = "malformed_command"
	FailUndefinedRepr    = "undefined_repr_str"
	FailManipulatingRoom = "manipulating_room"
	FailOtherRoom        = "other_room_argument"
)

// ArgForm is the argument shape a verb accepts.
type ArgForm string

const (
	ArgsNone         ArgForm = ""
	ArgsThing        ArgForm = "thing"
	ArgsOptional     ArgForm = "thing?"
	ArgsOptionalPrep ArgForm = "thing (prep thing)?"
	ArgsPrep         ArgForm = "thing prep thing"
)

// ArgSource names where a PDDL parameter takes its value from.
type ArgSource string

const (
	SourceArg1           ArgSource = "arg1"
	SourceArg2           ArgSource = "arg2"
	SourceRoom           ArgSource = "current_player_room"
	SourcePlayer         ArgSource = "player"
	SourceInventory      ArgSource = "inventory"
	SourceArg1Receptacle ArgSource = "arg1_receptacle"
)

// Invocation is the parsed representation of a player command.
type Invocation struct {
	Unknown   bool   // first word is not a verb phrase
	FirstWord string // set when Unknown

	Verb     string // action type name
	Phrase   string // verb phrase as matched
	Arg1     string // surface string, adjectives removed
	Arg2     string
	Prep     string
	Arg1Adjs []string
	Arg2Adjs []string
}

// GrammarHead holds the fixed vocabulary shared by every verb.
type GrammarHead struct {
	Prepositions []string
	Articles     []string
}

// GrammarFragment is one action's contribution to the command grammar.
type GrammarFragment struct {
	Action string
	Verbs  []string // verb phrases, e.g. "take", "pick up"
	Args   ArgForm
}

// EntityTypeDef is the static definition of an entity type.
type EntityTypeDef struct {
	ID          string
	Repr        string   // surface string
	Traits      []string // container, support, openable, takeable, needs_support...
	Adjectives  []string // adjectives instances may carry
	Hidden      bool
	Description string
}

// RoomTypeDef is the static definition of a room type.
type RoomTypeDef struct {
	ID          string
	Repr        string
	Exits       []string // room types reachable from this one
	Description string
}

// FailureTemplate is a feedback template tagged with its fail type.
type FailureTemplate struct {
	FailType string
	Template string
}

// ActionTypeDef is the static definition of one action.
type ActionTypeDef struct {
	Name    string
	Grammar GrammarFragment
	PDDL    string // (:action ...) text
	// Mapping lists, per PDDL variable (without '?'), the sources to try in order.
	Mapping        map[string][]ArgSource
	ParamFailures  []FailureTemplate // one per parameter, declaration order
	PreconFailures []FailureTemplate // one per precondition leaf, authoring order
	Success        string
	Epistemic      bool
	Pragmatic      bool
}

// GameDef holds game metadata.
type GameDef struct {
	Title   string
	Author  string
	Version string
	Intro   string
}

// Catalog is the complete set of definition documents for one game.
type Catalog struct {
	Game     GameDef
	Grammar  GrammarHead
	Domain   string // (define (domain ...) ...) text
	Entities map[string]EntityTypeDef
	Rooms    map[string]RoomTypeDef
	Actions  map[string]ActionTypeDef
}

// Adventure is one playable instance: initial facts, goals and a known solution.
type Adventure struct {
	Name            string
	InitialState    []string
	GoalState       []string
	OptimalSolution []string
}

// WorldStateEffects lists the facts one action added and removed.
type WorldStateEffects struct {
	Added   []fact.Fact
	Removed []fact.Fact
}

// ExplorationInfo summarizes what the player has perceived so far.
type ExplorationInfo struct {
	KnownFacts    int         // size of the cumulative known set
	EpistemicGain []fact.Fact // facts newly known this turn
	Perceived     []fact.Fact // facts perceivable right now
}

// Info describes how a command was handled.
type Info struct {
	Phase       Phase  // empty on success
	FailType    string // empty on success
	Arg         string // offending argument, if any
	ActionType  string
	Epistemic   bool
	Pragmatic   bool
	Exploration *ExplorationInfo
	Effects     *WorldStateEffects
}

// Result is the output of a single command.
type Result struct {
	Goals    *fact.Set // achieved goals, freshly computed
	Feedback string
	Info     Info
	Success  bool
}
