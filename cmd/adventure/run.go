package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/clp-research/clembench-sub000/cli"
	"github.com/clp-research/clembench-sub000/config"
	"github.com/clp-research/clembench-sub000/engine"
	"github.com/clp-research/clembench-sub000/engine/save"
	"github.com/clp-research/clembench-sub000/engine/state"
	"github.com/clp-research/clembench-sub000/loader"
	"github.com/clp-research/clembench-sub000/tui"
)

// errCheckFailed is returned when an optimal solution misses a goal.
var errCheckFailed = errors.New("optimal solution check failed")

// Run loads the game and plays or checks it as cfg asks.
func Run(ctx context.Context, cfg config.Config, in io.Reader, out io.Writer) error {
	defs, err := loader.Load(cfg.GameDir)
	if err != nil {
		return fmt.Errorf("loading game: %w", err)
	}

	paths, err := adventurePaths(cfg)
	if err != nil {
		return err
	}

	if cfg.Check {
		return check(defs, paths, out)
	}

	adv, err := loader.LoadAdventure(paths[0])
	if err != nil {
		return err
	}
	eng, err := engine.New(defs, adv)
	if err != nil {
		return fmt.Errorf("starting adventure: %w", err)
	}

	var store *save.Store
	if cfg.SaveDB != "" {
		store, err = save.Open(cfg.SaveDB)
		if err != nil {
			return fmt.Errorf("opening save store: %w", err)
		}
		defer store.Close()
	}

	session := cli.NewSession(eng, store)
	session.Trace = cfg.Trace

	// Script mode: read commands from a file and echo them.
	if cfg.Script != "" {
		f, err := os.Open(cfg.Script)
		if err != nil {
			return fmt.Errorf("opening script: %w", err)
		}
		defer f.Close()
		c := cli.New(session)
		c.In = f
		c.Out = out
		c.EchoInput = true
		c.Run(ctx)
		return nil
	}

	// Use the plain CLI if asked or when output is not a terminal.
	if cfg.Plain || !isTerminal(out) {
		c := cli.New(session)
		c.In = in
		c.Out = out
		c.Run(ctx)
		return nil
	}

	return tui.Run(ctx, session)
}

// adventurePaths returns the instance to play, or with -check and no
// instance given, every instance of the game.
func adventurePaths(cfg config.Config) ([]string, error) {
	if cfg.Instance != "" {
		return []string{cfg.Instance}, nil
	}
	paths, err := loader.AdventurePaths(filepath.Join(cfg.GameDir, "adventures"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no adventures found in %s", filepath.Join(cfg.GameDir, "adventures"))
	}
	if !cfg.Check {
		paths = paths[:1]
	}
	return paths, nil
}

// check runs each adventure's optimal solution as one plan and reports
// whether it reaches every goal.
func check(defs *state.Defs, paths []string, out io.Writer) error {
	failed := 0
	for _, path := range paths {
		adv, err := loader.LoadAdventure(path)
		if err != nil {
			return err
		}
		eng, err := engine.New(defs, adv)
		if err != nil {
			return fmt.Errorf("starting adventure %s: %w", adv.Name, err)
		}

		fmt.Fprintf(out, "== %s\n", adv.Name)
		results := eng.ExecutePlanSequence(adv.OptimalSolution)
		for i, r := range results {
			fmt.Fprintf(out, "> %s\n%s\n", adv.OptimalSolution[i], r.Feedback)
		}
		if n := len(results); n > 0 && !results[n-1].Success {
			info := results[n-1].Info
			fmt.Fprintf(out, "FAIL %s: %q failed with %s\n", adv.Name, adv.OptimalSolution[n-1], info.FailType)
			failed++
			continue
		}
		if !eng.Done() {
			fmt.Fprintf(out, "FAIL %s: goals achieved %d/%d\n", adv.Name, eng.AchievedGoals().Len(), eng.Goals().Len())
			failed++
			continue
		}
		fmt.Fprintf(out, "ok   %s: %d commands, goals achieved %d/%d\n",
			adv.Name, len(results), eng.AchievedGoals().Len(), eng.Goals().Len())
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d adventure(s)", errCheckFailed, failed, len(paths))
	}
	return nil
}

// isTerminal reports whether w is a terminal (not piped or redirected).
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
