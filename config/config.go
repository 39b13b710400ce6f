// Package config loads interpreter settings from the environment and then
// lets command-line flags override them.
package config

import (
	"errors"
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds adventure command configuration.
type Config struct {
	GameDir  string `env:"ADVENTURE_GAME_DIR"`
	Instance string `env:"ADVENTURE_INSTANCE"`
	SaveDB   string `env:"ADVENTURE_SAVE_DB" envDefault:"adventure-saves.db"`
	Plain    bool   `env:"ADVENTURE_PLAIN"`
	Trace    bool   `env:"ADVENTURE_TRACE"`

	Script  string
	Check   bool
	Version bool
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ParseConfig parses environment and flags into a Config. The game
// directory may also be given as the first positional argument.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.GameDir, "game", cfg.GameDir, "Directory holding the game's Lua definition documents")
	fs.StringVar(&cfg.Instance, "instance", cfg.Instance, "Adventure instance YAML file (default: the first in <game>/adventures)")
	fs.StringVar(&cfg.SaveDB, "save-db", cfg.SaveDB, "SQLite database for save slots")
	fs.BoolVar(&cfg.Plain, "plain", cfg.Plain, "Use the plain line interface instead of the TUI")
	fs.BoolVar(&cfg.Trace, "trace", cfg.Trace, "Print the world-state delta after every command")
	fs.StringVar(&cfg.Script, "script", cfg.Script, "Run commands from a file and exit")
	fs.BoolVar(&cfg.Check, "check", cfg.Check, "Run the adventure's optimal solution and report whether every goal is reached")
	fs.BoolVar(&cfg.Version, "version", cfg.Version, "Print the version and exit")

	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.GameDir == "" && fs.NArg() > 0 {
		cfg.GameDir = fs.Arg(0)
	}
	return cfg, nil
}

// Validate reports missing required settings.
func (c Config) Validate() error {
	if c.Version {
		return nil
	}
	if c.GameDir == "" {
		return errors.New("game directory is required (-game or ADVENTURE_GAME_DIR)")
	}
	return nil
}
