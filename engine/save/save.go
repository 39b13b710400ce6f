// Package save implements JSON serialization of play sessions and their
// restoration by replaying the command log through a fresh engine.
package save

import (
	"encoding/json"
	"fmt"

	"github.com/clp-research/clembench-sub000/engine"
	"github.com/clp-research/clembench-sub000/engine/fact"
	"github.com/clp-research/clembench-sub000/engine/state"
	"github.com/clp-research/clembench-sub000/types"
)

// SaveData is the JSON-serializable save format. Facts is the world at save
// time and is used to verify the replay.
type SaveData struct {
	Version    string   `json:"version"`
	Game       string   `json:"game"`
	Adventure  string   `json:"adventure"`
	Turn       int      `json:"turn"`
	CommandLog []string `json:"command_log"`
	Facts      []string `json:"facts"`
}

// Snapshot captures the session state of an engine.
func Snapshot(e *engine.Engine) *SaveData {
	return &SaveData{
		Version:    e.Defs.Game.Version,
		Game:       e.Defs.Game.Title,
		Adventure:  e.Adventure.Name,
		Turn:       e.Turn,
		CommandLog: append([]string{}, e.CommandLog...),
		Facts:      e.World.Facts().Strings(),
	}
}

// Save serializes an engine's session to JSON bytes.
func Save(e *engine.Engine) ([]byte, error) {
	return json.MarshalIndent(Snapshot(e), "", "  ")
}

// Load deserializes JSON bytes into SaveData.
func Load(data []byte) (*SaveData, error) {
	var sd SaveData
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, err
	}
	// Ensure slices are never nil after load.
	if sd.CommandLog == nil {
		sd.CommandLog = []string{}
	}
	if sd.Facts == nil {
		sd.Facts = []string{}
	}
	return &sd, nil
}

// Restore builds a fresh engine for the adventure and replays the saved
// command log through it. Replay is deterministic, so the restored world
// must match the saved facts.
func Restore(defs *state.Defs, adv *types.Adventure, sd *SaveData, opts ...engine.Option) (*engine.Engine, error) {
	if sd.Adventure != "" && sd.Adventure != adv.Name {
		return nil, fmt.Errorf("save is for adventure %q, not %q", sd.Adventure, adv.Name)
	}
	e, err := engine.New(defs, adv, opts...)
	if err != nil {
		return nil, err
	}
	for _, cmd := range sd.CommandLog {
		e.ProcessAction(cmd)
	}

	if len(sd.Facts) > 0 {
		want, err := fact.ParseAll(sd.Facts)
		if err != nil {
			return nil, fmt.Errorf("saved facts: %w", err)
		}
		if !want.Equal(e.World.Facts()) {
			return nil, fmt.Errorf("replaying %d commands did not reproduce the saved world", len(sd.CommandLog))
		}
	}
	e.Turn = sd.Turn
	return e, nil
}
