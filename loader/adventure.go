package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/clp-research/clembench-sub000/engine/fact"
	"github.com/clp-research/clembench-sub000/types"
	"gopkg.in/yaml.v3"
)

// adventureDoc is the YAML form of an adventure instance.
type adventureDoc struct {
	Name            string   `yaml:"name"`
	InitialState    []string `yaml:"initial_state"`
	GoalState       []string `yaml:"goal_state"`
	OptimalSolution []string `yaml:"optimal_solution"`
}

// LoadAdventure reads one adventure instance document. Every fact string
// must parse; an unnamed adventure takes its file name.
func LoadAdventure(path string) (*types.Adventure, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading adventure %s: %w", path, err)
	}
	adv, err := ParseAdventure(data)
	if err != nil {
		return nil, fmt.Errorf("adventure %s: %w", path, err)
	}
	if adv.Name == "" {
		adv.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return adv, nil
}

// ParseAdventure decodes an adventure document.
func ParseAdventure(data []byte) (*types.Adventure, error) {
	var doc adventureDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding yaml: %w", err)
	}
	if len(doc.InitialState) == 0 {
		return nil, fmt.Errorf("initial_state is empty")
	}
	if _, err := fact.ParseAll(doc.InitialState); err != nil {
		return nil, fmt.Errorf("initial_state: %w", err)
	}
	if _, err := fact.ParseAll(doc.GoalState); err != nil {
		return nil, fmt.Errorf("goal_state: %w", err)
	}
	return &types.Adventure{
		Name:            doc.Name,
		InitialState:    doc.InitialState,
		GoalState:       doc.GoalState,
		OptimalSolution: doc.OptimalSolution,
	}, nil
}

// AdventurePaths lists the .yaml and .yml documents in dir, sorted by name.
func AdventurePaths(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading adventure directory %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
