// Package tui provides a Bubble Tea terminal UI for the adventure interpreter.
package tui

// History keeps the most recent commands for Up/Down recall.
type History struct {
	entries []string
	max     int
	pos     int // len(entries) when not navigating
}

// NewHistory creates a history holding at most max commands.
func NewHistory(max int) *History {
	return &History{entries: make([]string, 0, max), max: max}
}

// Push records a command and ends navigation. Repeating the newest
// entry is not recorded twice.
func (h *History) Push(cmd string) {
	if n := len(h.entries); n == 0 || h.entries[n-1] != cmd {
		h.entries = append(h.entries, cmd)
		if len(h.entries) > h.max {
			h.entries = h.entries[len(h.entries)-h.max:]
		}
	}
	h.pos = len(h.entries)
}

// Prev steps to the next older command, stopping at the oldest.
func (h *History) Prev() (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	if h.pos > 0 {
		h.pos--
	}
	return h.entries[h.pos], true
}

// Next steps to the next newer command. Stepping past the newest returns
// false and leaves navigation.
func (h *History) Next() (string, bool) {
	if h.pos >= len(h.entries) {
		return "", false
	}
	h.pos++
	if h.pos == len(h.entries) {
		return "", false
	}
	return h.entries[h.pos], true
}

// ResetCursor leaves navigation; the next Prev returns the newest entry.
func (h *History) ResetCursor() {
	h.pos = len(h.entries)
}
