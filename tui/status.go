package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/clp-research/clembench-sub000/engine/state"
)

var titleCase = cases.Title(language.English)

// displayName title-cases a surface string: "living room" -> "Living Room".
func displayName(surface string) string {
	return titleCase.String(surface)
}

// renderStatusBar produces a full-width inverted status line showing the
// current room, its exits, the inventory, goal progress and turn count.
func (m Model) renderStatusBar() string {
	e := m.session.Engine
	room := e.World.PlayerRoom()

	exits := e.World.Exits(room)
	names := make([]string, 0, len(exits))
	for _, x := range exits {
		names = append(names, displayName(e.Describe(x)))
	}

	left := fmt.Sprintf(" %s | Exits: %s", displayName(e.Describe(room)), strings.Join(names, ", "))

	turn := fmt.Sprintf("T:%d ", e.Turn)
	if goals := e.Goals().Len(); goals > 0 {
		turn = fmt.Sprintf("Goals: %d/%d | %s", e.AchievedGoals().Len(), goals, turn)
	}
	right := turn

	// Show inventory items if they fit, otherwise just count.
	var inv []string
	for _, f := range e.World.Facts().Select("in") {
		if f.Arg2 == state.Inventory {
			inv = append(inv, e.Describe(f.Arg1))
		}
	}
	if len(inv) > 0 {
		candidate := fmt.Sprintf("Inv: %s | %s", strings.Join(inv, ", "), turn)
		if lipgloss.Width(left)+lipgloss.Width(candidate)+2 < m.width {
			right = candidate
		} else {
			right = fmt.Sprintf("Inv: %d | %s", len(inv), turn)
		}
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}
