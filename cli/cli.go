// Package cli provides the plain line interface and the session logic
// (meta-commands, trace output, save slots) shared with the TUI.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// CLI handles line-based interaction with the player.
type CLI struct {
	Session   *Session
	In        io.Reader
	Out       io.Writer
	EchoInput bool // echo each input line after the prompt (for script playback)
}

// New creates a CLI on stdin and stdout.
func New(s *Session) *CLI {
	return &CLI{
		Session: s,
		In:      os.Stdin,
		Out:     os.Stdout,
	}
}

// Run starts the game loop. It shows the intro and starting room, then
// loops: prompt, input, dispatch, output. It returns when input ends or
// the player quits.
func (c *CLI) Run(ctx context.Context) {
	for _, line := range c.Session.Intro() {
		c.printLine(line)
	}

	scanner := bufio.NewScanner(c.In)
	for {
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		if strings.HasPrefix(input, "/") {
			lines, quit := c.Session.Meta(ctx, input)
			for _, line := range lines {
				c.printSystem(line)
			}
			if quit {
				return
			}
			continue
		}

		input, ok := c.Session.Recall(input)
		if !ok {
			c.printLine("Nothing to repeat.")
			continue
		}
		for _, line := range c.Session.Command(input) {
			c.printLine(line)
		}
	}
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
