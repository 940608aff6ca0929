package engine

import "testing"

func TestCheckChangedIsEdgeTriggered(t *testing.T) {
	tr, err := NewTracker(10, 10, 5)
	if err != nil {
		t.Fatalf("NewTracker failed: %v", err)
	}
	s := NewStore()
	e := s.Spawn(Statue, Location{X: 6, Y: 2}, 1, 10)
	tr.AddStatue(e)

	sector := tr.SectorAt(e.Location())
	if sector.TopLeft() != (Location{X: 5, Y: 0}) {
		t.Fatalf("Expected sector (5,0), got %v", sector.TopLeft())
	}
	if !sector.CheckChanged() {
		t.Error("Expected first check to report the change")
	}
	if sector.CheckChanged() {
		t.Error("Expected second check to report no change")
	}
}

func TestControllerRule(t *testing.T) {
	tests := []struct {
		name    string
		statues []EntityData
		want    TeamID
	}{
		{"empty", nil, NeutralTeamID},
		{"single team", []EntityData{statue(0, 1, 0, 0), statue(1, 1, 1, 1)}, 1},
		{"two teams", []EntityData{statue(0, 1, 0, 0), statue(1, 2, 1, 1)}, NeutralTeamID},
		{"three teams", []EntityData{statue(0, 1, 0, 0), statue(1, 2, 1, 1), statue(2, 3, 2, 2)}, NeutralTeamID},
		{"other sector ignored", []EntityData{statue(0, 2, 0, 0), statue(1, 1, 4, 4)}, 2},
		{"neutral only", []EntityData{statue(0, NeutralTeamID, 0, 0)}, NeutralTeamID},
		{"neutral and team", []EntityData{statue(0, NeutralTeamID, 0, 0), statue(1, 1, 1, 1)}, NeutralTeamID},
		{"team and neutral", []EntityData{statue(0, 1, 0, 0), statue(1, NeutralTeamID, 1, 1)}, NeutralTeamID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, _ := NewTracker(8, 8, 4)
			s := NewStore()
			for _, d := range tt.statues {
				tr.AddStatue(s.Insert(d))
			}
			if got := tr.SectorAt(Location{X: 0, Y: 0}).Controller(); got != tt.want {
				t.Errorf("Expected controller %d, got %d", tt.want, got)
			}
		})
	}
}

func TestRemoveStatueRestoresControl(t *testing.T) {
	tr, _ := NewTracker(8, 8, 4)
	s := NewStore()
	mine := s.Insert(statue(0, 1, 0, 0))
	theirs := s.Insert(statue(1, 2, 1, 0))
	tr.AddStatue(mine)
	tr.AddStatue(theirs)
	tr.DrainChanged()

	tr.RemoveStatue(theirs)
	changed := tr.DrainChanged()
	if len(changed) != 1 || changed[0].ControllingTeamID != 1 {
		t.Errorf("Expected sector to return to team 1, got %+v", changed)
	}
	if again := tr.DrainChanged(); len(again) != 0 {
		t.Errorf("Expected drained log to be empty, got %+v", again)
	}

	expectViolation(t, "remove twice", func() { tr.RemoveStatue(theirs) })
	expectViolation(t, "add twice", func() { tr.AddStatue(mine) })
}

func TestOldestStatue(t *testing.T) {
	tr, _ := NewTracker(8, 8, 8)
	s := NewStore()
	for _, d := range []EntityData{statue(9, 1, 0, 0), statue(3, 1, 1, 1), statue(5, 1, 2, 2)} {
		tr.AddStatue(s.Insert(d))
	}
	sector := tr.SectorAt(Location{})

	if id, ok := sector.OldestStatue(1); !ok || id != 3 {
		t.Errorf("Expected oldest statue 3, got %d (%v)", id, ok)
	}
	if _, ok := sector.OldestStatue(2); ok {
		t.Error("Expected no statue for team 2")
	}
}

func TestDrainChangedOrder(t *testing.T) {
	tr, _ := NewTracker(9, 9, 3)
	s := NewStore()
	tr.AddStatue(s.Insert(statue(0, 1, 7, 7)))
	tr.AddStatue(s.Insert(statue(1, 2, 0, 0)))
	tr.AddStatue(s.Insert(statue(2, 1, 4, 1)))

	changed := tr.DrainChanged()
	want := []Location{{X: 0, Y: 0}, {X: 3, Y: 0}, {X: 6, Y: 6}}
	if len(changed) != len(want) {
		t.Fatalf("Expected %d changed sectors, got %+v", len(want), changed)
	}
	for i, loc := range want {
		if changed[i].TopLeft != loc {
			t.Errorf("Expected changed[%d] at %v, got %v", i, loc, changed[i].TopLeft)
		}
	}
}

func TestTruncatedSectors(t *testing.T) {
	tr, err := NewTracker(7, 5, 3)
	if err != nil {
		t.Fatalf("NewTracker failed: %v", err)
	}
	if n := len(tr.Sectors()); n != 6 {
		t.Errorf("Expected 3x2 sectors, got %d", n)
	}
	if tl := tr.SectorAt(Location{X: 6, Y: 4}).TopLeft(); tl != (Location{X: 6, Y: 3}) {
		t.Errorf("Expected edge sector (6,3), got %v", tl)
	}
	if _, err := NewTracker(5, 5, 0); err == nil {
		t.Error("Expected error for zero sector size")
	}
}
