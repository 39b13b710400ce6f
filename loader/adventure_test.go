package loader

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestLoadAdventure_Home(t *testing.T) {
	adv, err := LoadAdventure(filepath.Join("..", "games", "home", "adventures", "home1.yaml"))
	if err != nil {
		t.Fatalf("LoadAdventure failed: %v", err)
	}
	if adv.Name != "home1" {
		t.Errorf("expected name home1, got %q", adv.Name)
	}
	if !reflect.DeepEqual(adv.GoalState, []string{"on(book1,table1)"}) {
		t.Errorf("unexpected goals %v", adv.GoalState)
	}
	if len(adv.OptimalSolution) != 4 || adv.OptimalSolution[3] != "put book on table" {
		t.Errorf("unexpected solution %v", adv.OptimalSolution)
	}
}

func TestLoadAdventure_NameFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attic.yaml")
	doc := "initial_state:\n  - type(player1,player)\n  - room(attic1,attic)\n  - at(player1,attic1)\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	adv, err := LoadAdventure(path)
	if err != nil {
		t.Fatalf("LoadAdventure failed: %v", err)
	}
	if adv.Name != "attic" {
		t.Errorf("expected name from file, got %q", adv.Name)
	}
	if len(adv.GoalState) != 0 || len(adv.OptimalSolution) != 0 {
		t.Errorf("expected no goals or solution, got %+v", adv)
	}
}

func TestParseAdventure_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"bad yaml", "initial_state: [", "decoding yaml"},
		{"empty initial state", "name: x\ngoal_state: [\"at(a,b)\"]\n", "initial_state is empty"},
		{"bad initial fact", "initial_state: [\"at(player1\"]\n", "initial_state: parse fact \"at(player1\""},
		{"bad goal fact", "initial_state: [\"at(a,b)\"]\ngoal_state: [\"on()\"]\n", "goal_state: parse fact \"on()\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAdventure([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %q", tt.want, err.Error())
			}
		})
	}
}

func TestAdventurePaths(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.yml", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.yaml"), 0o755); err != nil {
		t.Fatal(err)
	}
	paths, err := AdventurePaths(dir)
	if err != nil {
		t.Fatalf("AdventurePaths failed: %v", err)
	}
	want := []string{filepath.Join(dir, "a.yml"), filepath.Join(dir, "b.yaml")}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("expected %v, got %v", want, paths)
	}
	if _, err := AdventurePaths(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for a missing directory")
	}
}
