package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/clp-research/clembench-sub000/engine"
	"github.com/clp-research/clembench-sub000/engine/save"
	"github.com/clp-research/clembench-sub000/types"
)

const defaultSlot = "quicksave"

// Session runs game commands and meta-commands against one engine. It is
// shared by the line interface and the TUI. A nil Store disables /save and
// /load.
type Session struct {
	Engine *engine.Engine
	Store  *save.Store
	Trace  bool

	opts    []engine.Option // reused when /load rebuilds the engine
	lastCmd string
}

// NewSession creates a session. opts are passed to engine.New whenever a
// saved game is restored.
func NewSession(eng *engine.Engine, store *save.Store, opts ...engine.Option) *Session {
	return &Session{Engine: eng, Store: store, opts: opts}
}

// Intro returns the title line, the game's intro and the starting room.
func (s *Session) Intro() []string {
	g := s.Engine.Defs.Game
	title := g.Title
	if g.Version != "" {
		title += " v" + g.Version
	}
	if g.Author != "" {
		title += " by " + g.Author
	}
	lines := []string{title, ""}
	if g.Intro != "" {
		lines = append(lines, g.Intro, "")
	}
	return append(lines, s.Engine.Describer().Room(s.Engine.World))
}

// Recall expands "again" and "g" to the last game command and remembers
// anything else. It reports false when there is nothing to repeat.
func (s *Session) Recall(input string) (string, bool) {
	switch strings.ToLower(input) {
	case "again", "g":
		if s.lastCmd == "" {
			return "", false
		}
		return s.lastCmd, true
	}
	s.lastCmd = input
	return input, true
}

// Command runs one game command and returns its output lines: the
// feedback, trace lines when tracing, and a notice once every goal holds.
func (s *Session) Command(input string) []string {
	wasDone := s.Engine.Done()
	result := s.Engine.ProcessAction(input)
	lines := []string{result.Feedback}
	if s.Trace {
		lines = append(lines, FormatTrace(result)...)
	}
	if !wasDone && s.Engine.Done() {
		lines = append(lines, "[All goals achieved.]")
	}
	return lines
}

// FormatTrace renders how a command was handled and the facts it changed.
func FormatTrace(result types.Result) []string {
	info := result.Info
	var lines []string
	if !result.Success {
		line := fmt.Sprintf("[trace] %s failure: %s", info.Phase, info.FailType)
		if info.Arg != "" {
			line += " (" + info.Arg + ")"
		}
		return append(lines, line)
	}
	lines = append(lines, fmt.Sprintf("[trace] action: %s", info.ActionType))
	if info.Effects != nil {
		for _, f := range info.Effects.Added {
			lines = append(lines, "[trace]   + "+f.String())
		}
		for _, f := range info.Effects.Removed {
			lines = append(lines, "[trace]   - "+f.String())
		}
	}
	if x := info.Exploration; x != nil {
		lines = append(lines, fmt.Sprintf("[trace] known facts: %d (+%d)", x.KnownFacts, len(x.EpistemicGain)))
	}
	return lines
}

// Meta dispatches a meta-command. It returns the output lines and whether
// the game should exit.
func (s *Session) Meta(ctx context.Context, input string) ([]string, bool) {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		return []string{"Goodbye."}, true

	case "/save":
		return s.cmdSave(ctx, arg), false

	case "/load":
		return s.cmdLoad(ctx, arg), false

	case "/saves":
		return s.cmdSaves(ctx), false

	case "/help":
		return s.cmdHelp(), false

	case "/state":
		return s.cmdState(), false

	case "/goals":
		return s.cmdGoals(), false

	case "/trace":
		s.Trace = !s.Trace
		if s.Trace {
			return []string{"Trace output enabled."}, false
		}
		return []string{"Trace output disabled."}, false

	default:
		return []string{fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd)}, false
	}
}

func (s *Session) cmdSave(ctx context.Context, name string) []string {
	if s.Store == nil {
		return []string{"Saving is not available."}
	}
	if name == "" {
		name = defaultSlot
	}
	if err := s.Store.Put(ctx, name, save.Snapshot(s.Engine)); err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}
	return []string{fmt.Sprintf("Game saved to %s.", name)}
}

func (s *Session) cmdLoad(ctx context.Context, name string) []string {
	if s.Store == nil {
		return []string{"Loading is not available."}
	}
	if name == "" {
		name = defaultSlot
	}
	sd, err := s.Store.Get(ctx, name)
	if errors.Is(err, save.ErrNotFound) {
		return []string{fmt.Sprintf("No save named %s.", name)}
	}
	if err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}
	eng, err := save.Restore(s.Engine.Defs, s.Engine.Adventure, sd, s.opts...)
	if err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}
	s.Engine = eng
	return []string{
		fmt.Sprintf("Game loaded from %s (turn %d).", name, sd.Turn),
		eng.Describer().Room(eng.World),
	}
}

func (s *Session) cmdSaves(ctx context.Context) []string {
	if s.Store == nil {
		return []string{"Saving is not available."}
	}
	slots, err := s.Store.List(ctx)
	if err != nil {
		return []string{fmt.Sprintf("Listing saves failed: %v", err)}
	}
	if len(slots) == 0 {
		return []string{"No saved games."}
	}
	lines := make([]string, 0, len(slots))
	for _, slot := range slots {
		lines = append(lines, fmt.Sprintf("%s: %s, turn %d, %s",
			slot.Name, slot.Adventure, slot.Turn, slot.SavedAt.Local().Format("2006-01-02 15:04")))
	}
	return lines
}

func (s *Session) cmdHelp() []string {
	lines := []string{
		"System:",
		"  /save [name]  Save game (default: quicksave)",
		"  /load [name]  Load game (default: quicksave)",
		"  /saves        List saved games",
		"  /goals        Show adventure goals",
		"  /state        Debug: dump current state",
		"  /trace        Toggle debug trace output",
		"  /help         Show this help",
		"  /quit         Exit game",
		"",
		"Game commands:",
	}
	defs := s.Engine.Defs
	for _, name := range defs.ActionOrder {
		g := defs.Actions[name].Grammar
		usage := strings.Join(g.Verbs, "/")
		switch g.Args {
		case types.ArgsThing:
			usage += " <thing>"
		case types.ArgsOptional:
			usage += " [thing]"
		case types.ArgsOptionalPrep:
			usage += " <thing> [prep <thing>]"
		case types.ArgsPrep:
			usage += " <thing> prep <thing>"
		}
		lines = append(lines, "  "+usage)
	}
	return append(lines, "  again (g)  Repeat your last command")
}

func (s *Session) cmdState() []string {
	e := s.Engine
	room := e.World.PlayerRoom()
	return []string{
		fmt.Sprintf("Adventure: %s", e.Adventure.Name),
		fmt.Sprintf("Turn: %d", e.Turn),
		fmt.Sprintf("Location: %s (%s)", e.Describe(room), room),
		e.Describer().Inventory(e.World),
		fmt.Sprintf("Facts: %d, known: %d", e.World.Len(), e.Explore.Known().Len()),
	}
}

func (s *Session) cmdGoals() []string {
	e := s.Engine
	goals := e.Goals()
	if goals.Len() == 0 {
		return []string{"This adventure has no goals."}
	}
	achieved := e.AchievedGoals()
	lines := []string{fmt.Sprintf("Goals achieved: %d/%d", achieved.Len(), goals.Len())}
	for _, g := range goals.Facts() {
		mark := " "
		if achieved.Has(g) {
			mark = "x"
		}
		lines = append(lines, fmt.Sprintf("  [%s] %s", mark, g))
	}
	return lines
}
