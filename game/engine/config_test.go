package engine

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateMap(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(m *MapFile)
		wantErr string
	}{
		{"valid", func(m *MapFile) {}, ""},
		{"too wide", func(m *MapFile) { m.Width = MaxMapSize + 1 }, "size must be between"},
		{"zero sector size", func(m *MapFile) { m.SectorSize = 0 }, "sectorSize"},
		{"too many teams", func(m *MapFile) { m.TeamCount = MaxTeams + 1 }, "teamCount"},
		{"missing row", func(m *MapFile) { m.Tiles = m.Tiles[1:] }, "rows to match height"},
		{"short row", func(m *MapFile) { m.Tiles[2] = m.Tiles[2][1:] }, "row 2 must have"},
		{"unknown tile", func(m *MapFile) { m.Tiles[0][0] = "W" }, "invalid tile"},
		{"duplicate id", func(m *MapFile) { m.Entities[1].ID = 0 }, "duplicate entity id"},
		{"negative id", func(m *MapFile) { m.Entities[0].ID = -3 }, "negative entity id"},
		{"unknown type", func(m *MapFile) { m.Entities[0].Type = "dragon" }, "invalid type"},
		{"out of bounds", func(m *MapFile) { m.Entities[0].Location = Location{X: 5, Y: 0} }, "out of bounds"},
		{"shared cell", func(m *MapFile) { m.Entities[1].Location = m.Entities[0].Location }, "share location"},
		{"dead entity", func(m *MapFile) { m.Entities[0].HP = 0 }, "positive hp"},
		{"preset cooldown", func(m *MapFile) { m.Entities[0].CooldownEnd = intPtr(3) }, "cooldown or holding"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testMap(5, 5, 5, thrower(0, 1, 0, 0), statue(1, 2, 4, 4))
			tt.mutate(m)

			err := ValidateMap(m)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected valid map, got %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidMap) {
				t.Fatalf("Expected ErrInvalidMap, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestValidateTeams(t *testing.T) {
	if err := ValidateTeams(TeamsFor("a", "b", "c")); err != nil {
		t.Errorf("Expected valid teams, got %v", err)
	}
	bad := [][]TeamData{
		nil,
		{NeutralTeam},
		{NeutralTeam, {ID: 2, Name: "skip"}},
		{{ID: 1, Name: "a"}, NeutralTeam},
	}
	for _, teams := range bad {
		if err := ValidateTeams(teams); !errors.Is(err, ErrInvalidTeams) {
			t.Errorf("Expected ErrInvalidTeams for %+v, got %v", teams, err)
		}
	}
}

func TestParseMapFile(t *testing.T) {
	data := `{
		"width": 3,
		"height": 2,
		"sectorSize": 3,
		"tiles": [["G","G","D"],["D","G","G"]],
		"entities": [{"id": 4, "type": "thrower", "location": {"x": 2, "y": 1}, "teamID": 1, "hp": 10}]
	}`

	m, err := ParseMapFile([]byte(data))
	if err != nil {
		t.Fatalf("ParseMapFile failed: %v", err)
	}
	if m.TileAt(Location{X: 0, Y: 0}) != Dirt {
		t.Errorf("Expected dirt at world (0,0), got %s", m.TileAt(Location{X: 0, Y: 0}))
	}
	if m.TileAt(Location{X: 2, Y: 1}) != Dirt {
		t.Errorf("Expected dirt at world (2,1), got %s", m.TileAt(Location{X: 2, Y: 1}))
	}
	if m.RequiredTeams() != DefaultTeams {
		t.Errorf("Expected %d teams by default, got %d", DefaultTeams, m.RequiredTeams())
	}

	if _, err := ParseMapFile([]byte(`{"width":`)); !errors.Is(err, ErrInvalidMap) {
		t.Errorf("Expected ErrInvalidMap for malformed JSON, got %v", err)
	}
}

func TestLoadMapFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tiny.json")
	content := `{"width":1,"height":1,"sectorSize":1,"tiles":[["G"]],"entities":[]}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write map: %v", err)
	}

	m, err := LoadMapFile(path)
	if err != nil {
		t.Fatalf("LoadMapFile failed: %v", err)
	}
	if m.Name != "tiny" {
		t.Errorf("Expected name derived from file, got %q", m.Name)
	}

	t.Setenv("MAP_DIR", dir)
	if _, err := LoadMapFile("tiny.json"); err != nil {
		t.Errorf("Expected MAP_DIR lookup to succeed, got %v", err)
	}

	if _, err := LoadMapFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}
