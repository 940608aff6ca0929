package engine

import (
	"strings"
	"testing"
)

func TestMove(t *testing.T) {
	tests := []struct {
		name   string
		action Action
		reason Reason
		ok     bool
	}{
		{"diagonal neighbour", moveTo(0, 3, 3), 0, true},
		{"orthogonal neighbour", moveTo(0, 2, 1), 0, true},
		{"two cells away", moveTo(0, 4, 2), ReasonTooFar, false},
		{"occupied", moveTo(0, 1, 2), ReasonOccupied, false},
		{"own cell", moveTo(0, 2, 2), ReasonOccupied, false},
		{"off the map", Action{Kind: ActionMove, ID: 2, Loc: &Location{X: -1, Y: 0}}, ReasonOutOfBounds, false},
		{"missing loc", Action{Kind: ActionMove, ID: 0}, ReasonMalformed, false},
		{"unknown kind", Action{Kind: "dance", ID: 0}, ReasonUnknownAction, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := startGame(t, testMap(6, 6, 3, thrower(0, 1, 2, 2), hedge(1, 1, 2), thrower(2, 1, 0, 0)))
			diff := play(t, g, tt.action)

			if tt.ok {
				if len(diff.Successful) != 1 {
					t.Fatalf("Expected success, got failures %v", diff.Reasons)
				}
				e := mustEntity(t, g, tt.action.ID)
				if e.Location() != *tt.action.Loc {
					t.Errorf("Expected entity at %v, got %v", *tt.action.Loc, e.Location())
				}
				if end, _ := e.CooldownEnd(); end != 1+MoveCooldown {
					t.Errorf("Expected cooldown end %d, got %d", 1+MoveCooldown, end)
				}
				if _, ok := g.OccupantAt(Location{X: 2, Y: 2}); ok && tt.action.ID == 0 {
					t.Error("Expected the old cell to be vacated")
				}
				return
			}

			if len(diff.Failed) != 1 || len(diff.Reasons) != 1 {
				t.Fatalf("Expected one failure, got %+v", diff)
			}
			if !strings.HasPrefix(diff.Reasons[0], tt.reason.String()) {
				t.Errorf("Expected reason %q, got %q", tt.reason, diff.Reasons[0])
			}
			if len(diff.Changed) != 0 {
				t.Errorf("Expected no changed entities, got %+v", diff.Changed)
			}
		})
	}
}

func TestCommonPreconditions(t *testing.T) {
	m := testMap(6, 6, 3,
		thrower(0, 1, 0, 0),
		thrower(1, 2, 5, 5),
		statue(2, 1, 3, 3),
		hedge(3, 0, 5),
	)

	tests := []struct {
		name   string
		action Action
		reason Reason
	}{
		{"no such entity", moveTo(42, 1, 1), ReasonNoSuchEntity},
		{"enemy unit", moveTo(1, 4, 4), ReasonWrongTeam},
		{"statue", moveTo(2, 3, 4), ReasonCannotAct},
		{"neutral hedge", moveTo(3, 0, 4), ReasonWrongTeam},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := startGame(t, m)
			diff := play(t, g, tt.action)
			if len(diff.Failed) != 1 || !strings.HasPrefix(diff.Reasons[0], tt.reason.String()) {
				t.Errorf("Expected failure %q, got %+v", tt.reason, diff.Reasons)
			}
		})
	}
}

func TestFailedActionDoesNotBlockBatch(t *testing.T) {
	g := startGame(t, testMap(6, 6, 3, thrower(0, 1, 0, 0), thrower(1, 1, 5, 5)))

	diff := play(t, g, moveTo(0, 3, 3), moveTo(1, 4, 4), moveTo(1, 3, 3))
	if len(diff.Successful) != 1 || diff.Successful[0].ID != 1 {
		t.Errorf("Expected only entity 1's first move to succeed, got %+v", diff.Successful)
	}
	if len(diff.Failed) != 2 || len(diff.Reasons) != 2 {
		t.Fatalf("Expected two failures with reasons, got %+v / %v", diff.Failed, diff.Reasons)
	}
	if !strings.HasPrefix(diff.Reasons[1], ReasonOnCooldown.String()) {
		t.Errorf("Expected second move of entity 1 to fail on cooldown, got %q", diff.Reasons[1])
	}
}

func TestCooldownBoundary(t *testing.T) {
	g := startGame(t, testMap(6, 6, 3, thrower(0, 1, 0, 0)), "solo")

	play(t, g, moveTo(0, 1, 0)) // turn 1, cooldown ends on turn 3

	diff := play(t, g, moveTo(0, 2, 0)) // turn 2 == cooldownEnd-1
	if len(diff.Failed) != 1 || !strings.HasPrefix(diff.Reasons[0], ReasonOnCooldown.String()) {
		t.Fatalf("Expected on cooldown rejection, got %+v", diff.Reasons)
	}

	diff = play(t, g, moveTo(0, 2, 0)) // turn 3 == cooldownEnd
	if len(diff.Successful) != 1 {
		t.Errorf("Expected move on the cooldown end turn to succeed, got %v", diff.Reasons)
	}
}

func TestPickupAndDrag(t *testing.T) {
	g := startGame(t, testMap(6, 6, 3, thrower(0, 1, 2, 2), thrower(1, 2, 3, 3)), "solo", "other")

	diff := play(t, g, pickUp(0, 1))
	if len(diff.Successful) != 1 {
		t.Fatalf("Expected pickup to succeed, got %v", diff.Reasons)
	}

	holder, held := mustEntity(t, g, 0), mustEntity(t, g, 1)
	if id, ok := holder.Holding(); !ok || id != 1 {
		t.Errorf("Expected holder to hold 1, got %d (%v)", id, ok)
	}
	if end, _ := holder.HoldingEnd(); end != 1+HoldDuration {
		t.Errorf("Expected holding end %d, got %d", 1+HoldDuration, end)
	}
	if id, ok := held.HeldBy(); !ok || id != 0 {
		t.Errorf("Expected 1 held by 0, got %d (%v)", id, ok)
	}
	if held.Location() != holder.Location() {
		t.Errorf("Expected held location %v to mirror holder %v", held.Location(), holder.Location())
	}
	if _, ok := g.OccupantAt(Location{X: 3, Y: 3}); ok {
		t.Error("Expected the held unit's old cell to be vacated")
	}

	// Held units can't act
	diff = play(t, g, moveTo(1, 3, 3))
	if len(diff.Failed) != 1 || !strings.HasPrefix(diff.Reasons[0], ReasonHeld.String()) {
		t.Errorf("Expected held rejection, got %v", diff.Reasons)
	}

	diff = play(t, g, moveTo(0, 1, 1))
	if len(diff.Successful) != 1 {
		t.Fatalf("Expected move to succeed, got %v", diff.Reasons)
	}
	if held.Location() != (Location{X: 1, Y: 1}) {
		t.Errorf("Expected held unit dragged to (1,1), got %v", held.Location())
	}
	if len(diff.Changed) != 2 {
		t.Errorf("Expected holder and held in changed, got %+v", diff.Changed)
	}
}

func TestPickupRejections(t *testing.T) {
	m := testMap(6, 6, 3,
		thrower(0, 1, 2, 2),
		thrower(1, 1, 3, 3),
		statue(2, 1, 1, 1),
		thrower(3, 1, 5, 5),
		thrower(4, 1, 2, 3),
	)

	tests := []struct {
		name    string
		actions []Action
		reason  Reason
	}{
		{"self", []Action{pickUp(0, 0)}, ReasonInvalidTarget},
		{"statue", []Action{pickUp(0, 2)}, ReasonInvalidTarget},
		{"too far", []Action{pickUp(0, 3)}, ReasonTooFar},
		{"missing target", []Action{pickUp(0, 77)}, ReasonNoSuchEntity},
		{"target holding", []Action{pickUp(1, 4), pickUp(0, 1)}, ReasonInvalidTarget},
		{"target held", []Action{pickUp(1, 4), pickUp(0, 4)}, ReasonInvalidTarget},
		{"malformed", []Action{{Kind: ActionPickup, ID: 0}}, ReasonMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := startGame(t, m, "solo")
			diff := play(t, g, tt.actions...)
			last := diff.Reasons[len(diff.Reasons)-1]
			if !strings.HasPrefix(last, tt.reason.String()) {
				t.Errorf("Expected reason %q, got %q", tt.reason, last)
			}
		})
	}

	t.Run("already holding", func(t *testing.T) {
		g := startGame(t, m, "solo")
		play(t, g, pickUp(0, 4))
		play(t, g)
		diff := play(t, g, pickUp(0, 1))
		if len(diff.Failed) != 1 || !strings.HasPrefix(diff.Reasons[0], ReasonAlreadyHolding.String()) {
			t.Errorf("Expected already holding, got %v", diff.Reasons)
		}
	})
}

// holdingGame returns a solo game on turn 1 where entity 0 at (0,0) holds
// entity 1, with the holder off cooldown from turn 2.
func holdingGame(t *testing.T, m *MapFile) *Game {
	t.Helper()
	g := startGame(t, m, "solo")
	diff := play(t, g, pickUp(0, 1))
	if len(diff.Successful) != 1 {
		t.Fatalf("Expected pickup to succeed, got %v", diff.Reasons)
	}
	return g
}

func TestThrowLandsBeforeTravelCap(t *testing.T) {
	g := holdingGame(t, testMap(10, 10, 5, thrower(0, 1, 0, 0), thrower(1, 1, 0, 1)))

	diff := play(t, g, throwDir(0, 1, 0))
	if len(diff.Successful) != 1 {
		t.Fatalf("Expected throw to succeed, got %v", diff.Reasons)
	}

	thrower, held := mustEntity(t, g, 0), mustEntity(t, g, 1)
	if held.Location() != (Location{X: 8, Y: 0}) {
		t.Errorf("Expected thrown unit at (8,0), got %v", held.Location())
	}
	if thrower.IsHolding() {
		t.Error("Expected thrower to no longer be holding")
	}
	if held.IsHeld() {
		t.Error("Expected thrown unit to no longer be held")
	}
	if id, ok := g.OccupantAt(Location{X: 8, Y: 0}); !ok || id != 1 {
		t.Errorf("Expected thrown unit to occupy (8,0), got %d (%v)", id, ok)
	}
	if held.HP() != 10 {
		t.Errorf("Expected unobstructed landing on ground to deal no damage, got hp %d", held.HP())
	}
	if end, _ := thrower.CooldownEnd(); end != 2+ThrowCooldown {
		t.Errorf("Expected cooldown end %d, got %d", 2+ThrowCooldown, end)
	}
}

func TestThrowStopsAtEdge(t *testing.T) {
	g := holdingGame(t, testMap(5, 5, 5, thrower(0, 1, 0, 0), thrower(1, 1, 0, 1)))

	play(t, g, throwDir(0, 1, 1))
	if loc := mustEntity(t, g, 1).Location(); loc != (Location{X: 4, Y: 4}) {
		t.Errorf("Expected thrown unit at the map corner (4,4), got %v", loc)
	}
}

func TestThrowHitsOccupant(t *testing.T) {
	tests := []struct {
		name   string
		target EntityData
		damage int
	}{
		{"thrower", thrower(2, 1, 4, 0), ThrowerHitDamage},
		{"statue", statue(2, 1, 4, 0), StatueHitDamage},
		{"hedge", hedge(2, 4, 0), HedgeHitDamage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := holdingGame(t, testMap(10, 10, 5, thrower(0, 1, 0, 0), thrower(1, 1, 0, 1), tt.target))

			play(t, g, throwDir(0, 1, 0))

			held := mustEntity(t, g, 1)
			if held.Location() != (Location{X: 3, Y: 0}) {
				t.Errorf("Expected landing one cell before impact at (3,0), got %v", held.Location())
			}
			if held.HP() != 10-RecoilDamage {
				t.Errorf("Expected recoil hp %d, got %d", 10-RecoilDamage, held.HP())
			}
			if hp := mustEntity(t, g, 2).HP(); hp != 10-tt.damage {
				t.Errorf("Expected target hp %d, got %d", 10-tt.damage, hp)
			}
		})
	}
}

func TestThrowKillsTarget(t *testing.T) {
	victim := thrower(2, 1, 2, 0)
	victim.HP = ThrowerHitDamage
	g := holdingGame(t, testMap(10, 10, 5, thrower(0, 1, 0, 0), thrower(1, 1, 0, 1), victim))

	diff := play(t, g, throwDir(0, 1, 0))
	if len(diff.Dead) != 1 || diff.Dead[0] != 2 {
		t.Fatalf("Expected entity 2 dead, got %v", diff.Dead)
	}
	if _, ok := g.OccupantAt(Location{X: 2, Y: 0}); ok {
		t.Error("Expected dead entity's cell to be vacated")
	}
	for _, e := range diff.Changed {
		if e.ID == 2 {
			t.Error("Expected dead entity to be absent from changed")
		}
	}
}

func TestThrowNoRoom(t *testing.T) {
	g := holdingGame(t, testMap(10, 10, 5, thrower(0, 1, 0, 0), thrower(1, 1, 0, 1), hedge(2, 1, 1)))

	tests := []struct {
		name   string
		dx, dy int
		reason Reason
	}{
		{"off the map", -1, 0, ReasonNoRoom},
		{"blocked", 1, 1, ReasonNoRoom},
		{"zero direction", 0, 0, ReasonBadDirection},
		{"long direction", 2, 0, ReasonBadDirection},
	}
	for _, tt := range tests {
		diff := play(t, g, throwDir(0, tt.dx, tt.dy))
		if len(diff.Failed) != 1 || !strings.HasPrefix(diff.Reasons[0], tt.reason.String()) {
			t.Errorf("%s: expected %q, got %v", tt.name, tt.reason, diff.Reasons)
		}
	}
	if !mustEntity(t, g, 0).IsHolding() {
		t.Error("Expected rejected throws to keep the holding link")
	}
}

func TestThrowWithoutHolding(t *testing.T) {
	g := startGame(t, testMap(5, 5, 5, thrower(0, 1, 0, 0)), "solo")
	diff := play(t, g, throwDir(0, 1, 0))
	if len(diff.Failed) != 1 || !strings.HasPrefix(diff.Reasons[0], ReasonNotHolding.String()) {
		t.Errorf("Expected not holding, got %v", diff.Reasons)
	}
}

func TestThrowOntoDirt(t *testing.T) {
	m := testMap(10, 10, 5, thrower(0, 1, 0, 0), thrower(1, 1, 0, 1))
	m.SetTile(Location{X: 8, Y: 0}, Dirt)
	g := holdingGame(t, m)

	play(t, g, throwDir(0, 1, 0))
	if hp := mustEntity(t, g, 1).HP(); hp != 10-DirtDamage {
		t.Errorf("Expected dirt landing hp %d, got %d", 10-DirtDamage, hp)
	}
}

func TestDisintegrateDropsHeldUnit(t *testing.T) {
	g := holdingGame(t, testMap(5, 5, 5, thrower(0, 1, 2, 2), thrower(1, 1, 2, 3)))

	diff := play(t, g, disintegrate(0))
	if len(diff.Successful) != 1 {
		t.Fatalf("Expected disintegrate to succeed, got %v", diff.Reasons)
	}
	if len(diff.Dead) != 1 || diff.Dead[0] != 0 {
		t.Errorf("Expected entity 0 dead, got %v", diff.Dead)
	}

	dropped := mustEntity(t, g, 1)
	if dropped.IsHeld() {
		t.Error("Expected dropped unit to be released")
	}
	if dropped.Location() != (Location{X: 2, Y: 2}) {
		t.Errorf("Expected dropped unit at (2,2), got %v", dropped.Location())
	}
	if id, ok := g.OccupantAt(Location{X: 2, Y: 2}); !ok || id != 1 {
		t.Errorf("Expected dropped unit to occupy (2,2), got %d (%v)", id, ok)
	}
}

func TestFatigue(t *testing.T) {
	g := holdingGame(t, testMap(5, 5, 5, thrower(0, 1, 0, 0), thrower(1, 1, 0, 1)))

	// Holding end is turn 11, so fatigue starts on turn 12
	for turn := 2; turn <= 11; turn++ {
		play(t, g)
	}
	holder := mustEntity(t, g, 0)
	if holder.HP() != 10 {
		t.Fatalf("Expected no fatigue through the deadline, got hp %d", holder.HP())
	}

	diff := play(t, g)
	if holder.HP() != 10-FatigueDamage {
		t.Errorf("Expected fatigue on turn 12, got hp %d", holder.HP())
	}
	if len(diff.Changed) != 1 || diff.Changed[0].ID != 0 {
		t.Errorf("Expected holder in changed, got %+v", diff.Changed)
	}

	play(t, g)
	if holder.HP() != 10-2*FatigueDamage {
		t.Errorf("Expected fatigue to repeat on turn 13, got hp %d", holder.HP())
	}

	play(t, g, throwDir(0, 1, 0))
	hp := holder.HP()
	play(t, g)
	if holder.HP() != hp {
		t.Errorf("Expected fatigue to stop after release, got hp %d then %d", hp, holder.HP())
	}
}

func TestBuildClaimsNeutralSector(t *testing.T) {
	g := startGame(t, testMap(10, 10, 5, thrower(0, 1, 4, 4)))

	if c := g.SectorAt(Location{X: 5, Y: 5}).Controller(); c != NeutralTeamID {
		t.Fatalf("Expected sector (5,5) to start neutral, got %d", c)
	}

	diff := play(t, g, buildAt(0, 5, 5))
	if len(diff.Successful) != 1 {
		t.Fatalf("Expected build to succeed, got %v", diff.Reasons)
	}

	want := SectorData{TopLeft: Location{X: 5, Y: 5}, ControllingTeamID: 1}
	if len(diff.ChangedSectors) != 1 || diff.ChangedSectors[0] != want {
		t.Errorf("Expected changed sectors [%+v], got %+v", want, diff.ChangedSectors)
	}

	built, ok := g.OccupantAt(Location{X: 5, Y: 5})
	if !ok {
		t.Fatal("Expected a statue at (5,5)")
	}
	s := mustEntity(t, g, built)
	if s.Type() != Statue || s.Team() != 1 || s.HP() != BuiltStatueHP {
		t.Errorf("Expected a team 1 statue with hp %d, got %+v", BuiltStatueHP, s.Snapshot())
	}
	if built != 1 {
		t.Errorf("Expected the statue to get id 1, got %d", built)
	}
}

func TestContestedSectorTurnsNeutral(t *testing.T) {
	g := startGame(t, testMap(10, 10, 5, statue(0, 2, 1, 1), thrower(1, 1, 3, 3)))

	diff := play(t, g, buildAt(1, 2, 2))
	want := SectorData{TopLeft: Location{X: 0, Y: 0}, ControllingTeamID: NeutralTeamID}
	if len(diff.ChangedSectors) != 1 || diff.ChangedSectors[0] != want {
		t.Errorf("Expected contested sector to turn neutral, got %+v", diff.ChangedSectors)
	}
}

func TestPeriodicSpawn(t *testing.T) {
	g := startGame(t, testMap(10, 10, 5, statue(3, 1, 5, 5), statue(1, 1, 6, 6)), "solo")

	var diff *NextTurn
	for turn := 1; turn <= SpawnPeriod; turn++ {
		diff = play(t, g)
		if turn < SpawnPeriod && len(diff.Changed) != 0 {
			t.Fatalf("Expected no spawn on turn %d", turn)
		}
	}

	if len(diff.Changed) != 1 {
		t.Fatalf("Expected one spawned thrower, got %+v", diff.Changed)
	}
	spawned := diff.Changed[0]
	// Anchored on statue 1, the oldest in the sector
	if spawned.ID != 4 || spawned.Type != Thrower || spawned.TeamID != 1 || spawned.HP != SpawnedThrowerHP {
		t.Errorf("Unexpected spawn %+v", spawned)
	}
	if spawned.Location != (Location{X: 7, Y: 6}) {
		t.Errorf("Expected spawn right of the oldest statue at (7,6), got %v", spawned.Location)
	}

	for turn := SpawnPeriod + 1; turn <= 2*SpawnPeriod; turn++ {
		diff = play(t, g)
	}
	if len(diff.Changed) != 1 || diff.Changed[0].Location != (Location{X: 7, Y: 5}) {
		t.Errorf("Expected second spawn below-right at (7,5), got %+v", diff.Changed)
	}
}

func TestSpawnSkipsFullNeighbourhood(t *testing.T) {
	entities := []EntityData{statue(0, 1, 0, 0)}
	id := EntityID(1)
	for _, loc := range []Location{{X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}} {
		entities = append(entities, hedge(id, loc.X, loc.Y))
		id++
	}
	g := startGame(t, testMap(5, 5, 5, entities...), "solo")

	for turn := 1; turn <= SpawnPeriod; turn++ {
		if diff := play(t, g); len(diff.Changed) != 0 {
			t.Fatalf("Expected no spawn when every neighbour is blocked, got %+v", diff.Changed)
		}
	}
}
