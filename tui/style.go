package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleRoomDesc = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleLocation = lipgloss.NewStyle().
			Bold(true)

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	styleGoal = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true)

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleTrace = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindRoomDesc lineKind = iota
	kindLocation
	kindSystem
	kindError
	kindGoal
	kindTrace
	kindInput // echoed player input
	kindMeta  // meta-command output
)

// failurePrefixes open the feedback of most failed commands.
var failurePrefixes = []string{
	"I don't know",
	"I don't understand",
	"You can't",
	"You don't",
	"There is no",
	"You are not",
}

// classifyLine determines what kind of output line this is.
func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "[trace]"):
		return kindTrace
	case line == goalNotice:
		return kindGoal
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return kindSystem
	case strings.HasPrefix(line, "You are in "):
		return kindLocation
	}
	for _, p := range failurePrefixes {
		if strings.HasPrefix(line, p) {
			return kindError
		}
	}
	return kindRoomDesc
}

const goalNotice = "[All goals achieved.]"

// styledLocation renders "You are in a kitchen. ..." with the first
// sentence bold.
func styledLocation(line string) string {
	end := strings.Index(line, ". ")
	if end < 0 {
		return styleLocation.Render(line)
	}
	return styleLocation.Render(line[:end+1]) + styleRoomDesc.Render(line[end+1:])
}

// styledSystemMsg renders a system message in gray with brackets.
func styledSystemMsg(text string) string {
	return styleSystem.Render("[" + text + "]")
}

// renderLineKind applies the style for a given lineKind.
func renderLineKind(line string, kind lineKind) string {
	switch kind {
	case kindInput:
		return stylePlayerInput.Render(line)
	case kindMeta:
		return styledSystemMsg(line)
	case kindLocation:
		return styledLocation(line)
	case kindGoal:
		return styleGoal.Render(line)
	case kindSystem:
		return styleSystem.Render(line)
	case kindError:
		return styleError.Render(line)
	case kindTrace:
		return styleTrace.Render(line)
	default:
		return styleRoomDesc.Render(line)
	}
}
