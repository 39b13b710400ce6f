package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/clp-research/clembench-sub000/cli"
)

// chromeHeight is the number of rows below the viewport: status bar and
// input line.
const chromeHeight = 2

// entry is one unstyled narrative line. Lines are kept raw so they can be
// re-wrapped when the terminal is resized.
type entry struct {
	text string
	kind lineKind
}

// Model is the Bubble Tea model for the adventure TUI.
type Model struct {
	session *cli.Session

	viewport viewport.Model
	input    textinput.Model
	history  *History
	entries  []entry

	width    int
	height   int
	ready    bool
	quitting bool
}

// turnMsg is one block of narrative output.
type turnMsg struct {
	input string // echoed player input, empty for the intro
	lines []string
	meta  bool // lines come from a meta-command
}

// New creates a TUI model wired to the given session.
func New(s *cli.Session) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.PromptStyle = styleInputPrompt
	ti.CharLimit = 256
	ti.Focus()

	return Model{session: s, input: ti, history: NewHistory(100)}
}

// Run starts the Bubble Tea program. It returns when the player quits or
// ctx is canceled.
func Run(ctx context.Context, s *cli.Session) error {
	p := tea.NewProgram(New(s), tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// Init blinks the cursor and prints the intro.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.initialOutput())
}

func (m Model) initialOutput() tea.Cmd {
	return func() tea.Msg {
		return turnMsg{lines: m.session.Intro()}
	}
}

// Update handles key presses, resizes and narrative output.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case tea.KeyMsg:
		if next, cmd, handled := m.handleKey(msg); handled {
			return next, cmd
		}
	case turnMsg:
		m = m.appendTurn(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	vpHeight := max(height-chromeHeight, 1)
	if m.ready {
		m.viewport.Width = width
		m.viewport.Height = vpHeight
	} else {
		m.viewport = viewport.New(width, vpHeight)
		m.viewport.KeyMap = viewportKeys
		m.ready = true
	}
	m.refresh()
}

// handleKey reacts to keys the model owns. Everything else goes to the
// text input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit, true
	case "enter":
		next, cmd := m.submit()
		return next, cmd, true
	case "up":
		if prev, ok := m.history.Prev(); ok {
			m.input.SetValue(prev)
			m.input.CursorEnd()
		}
		return m, nil, true
	case "down":
		next, ok := m.history.Next()
		if !ok {
			m.history.ResetCursor()
		}
		m.input.SetValue(next)
		m.input.CursorEnd()
		return m, nil, true
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd, true
	}
	return m, nil, false
}

// submit runs the line in the input box.
func (m Model) submit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")
	if input == "" {
		return m, nil
	}
	m.history.Push(input)

	if strings.HasPrefix(input, "/") {
		lines, quit := m.session.Meta(context.Background(), input)
		m = m.appendTurn(turnMsg{input: input, lines: lines, meta: true})
		if quit {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	cmd, ok := m.session.Recall(input)
	if !ok {
		return m.appendTurn(turnMsg{input: input, lines: []string{"Nothing to repeat."}, meta: true}), nil
	}
	return m.appendTurn(turnMsg{input: input, lines: m.session.Command(cmd)}), nil
}

// appendTurn adds one block of output followed by a blank separator.
func (m Model) appendTurn(msg turnMsg) Model {
	if msg.input != "" {
		m.entries = append(m.entries, entry{text: "> " + msg.input, kind: kindInput})
	}
	for _, line := range msg.lines {
		kind := kindMeta
		if !msg.meta {
			kind = classifyLine(line)
		}
		m.entries = append(m.entries, entry{text: line, kind: kind})
	}
	m.entries = append(m.entries, entry{})
	m.refresh()
	return m
}

// refresh re-wraps and re-styles every entry at the current width.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	width := max(m.width, 10)
	styled := make([]string, len(m.entries))
	for i, e := range m.entries {
		if e.text != "" {
			styled[i] = renderLineKind(wordWrap(e.text, width), e.kind)
		}
	}
	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// wordWrap breaks each paragraph of text at word boundaries so that no
// line exceeds width, unless a single word is longer.
func wordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	paras := strings.Split(text, "\n")
	for i, p := range paras {
		if len(p) <= width {
			continue
		}
		var b strings.Builder
		col := 0
		for _, w := range strings.Fields(p) {
			switch {
			case col == 0:
			case col+1+len(w) > width:
				b.WriteByte('\n')
				col = 0
			default:
				b.WriteByte(' ')
				col++
			}
			b.WriteString(w)
			col += len(w)
		}
		paras[i] = b.String()
	}
	return strings.Join(paras, "\n")
}

// View stacks the narrative, the status bar and the input line.
func (m Model) View() string {
	switch {
	case m.quitting:
		return ""
	case !m.ready:
		return "Loading..."
	}
	return strings.Join([]string{m.viewport.View(), m.renderStatusBar(), m.input.View()}, "\n")
}

// viewportKeys leaves Up and Down to input history.
var viewportKeys = viewport.KeyMap{
	PageDown:     key.NewBinding(key.WithKeys("pgdown")),
	PageUp:       key.NewBinding(key.WithKeys("pgup")),
	HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
	HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
	Up:           key.NewBinding(key.WithDisabled()),
	Down:         key.NewBinding(key.WithDisabled()),
}
