package engine

import (
	"fmt"
	"slices"
)

// ValidateInvariants re-checks every entity, occupancy and sector invariant.
// It is expensive and only runs in debug mode or tests. The returned error is
// an *InvariantViolation.
func (g *Game) ValidateInvariants() error {
	fail := func(format string, args ...any) error {
		return &InvariantViolation{Message: fmt.Sprintf(format, args...)}
	}

	free := 0
	statues := 0
	for _, id := range g.store.IDs() {
		e := g.store.MustGet(id)
		if e.HP() <= 0 {
			return fail("entity %d is alive with hp %d", id, e.HP())
		}
		if !g.occupancy.InBounds(e.Location()) {
			return fail("entity %d is out of bounds at %v", id, e.Location())
		}
		if e.IsHeld() && e.IsHolding() {
			return fail("entity %d is both held and holding", id)
		}
		if (e.IsHeld() || e.IsHolding()) && e.Type() != Thrower {
			return fail("%s %d takes part in holding", e.Type(), id)
		}
		if _, has := e.CooldownEnd(); has && e.Type() == Statue {
			return fail("statue %d has a cooldown", id)
		}

		if holderID, held := e.HeldBy(); held {
			holder, ok := g.store.Get(holderID)
			if !ok {
				return fail("entity %d held by nonexistent entity %d", id, holderID)
			}
			if h, _ := holder.Holding(); h != id || !holder.IsHolding() {
				return fail("entity %d held by %d which isn't holding it", id, holderID)
			}
			if holder.Location() != e.Location() {
				return fail("held entity %d at %v but holder %d at %v", id, e.Location(), holderID, holder.Location())
			}
		} else {
			free++
			occupant, ok, _ := g.occupancy.Get(e.Location())
			if !ok || occupant != id {
				return fail("entity %d at %v is not in occupancy", id, e.Location())
			}
		}

		if heldID, holding := e.Holding(); holding {
			if _, has := e.HoldingEnd(); !has {
				return fail("entity %d is holding without a deadline", id)
			}
			held, ok := g.store.Get(heldID)
			if !ok {
				return fail("entity %d holding nonexistent entity %d", id, heldID)
			}
			if h, _ := held.HeldBy(); h != id || !held.IsHeld() {
				return fail("entity %d holding %d which isn't held by it", id, heldID)
			}
		}

		if e.Type() == Statue {
			statues++
			sector := g.sectors.SectorAt(e.Location())
			if !slices.Contains(sector.rosters[e.Team()], id) {
				return fail("statue %d missing from sector %v", id, sector.TopLeft())
			}
		}
	}

	if g.occupancy.Len() != free {
		return fail("occupancy holds %d entities, expected %d", g.occupancy.Len(), free)
	}
	for loc, id := range g.occupancy.All() {
		e, ok := g.store.Get(id)
		if !ok {
			return fail("occupancy references nonexistent entity %d at %v", id, loc)
		}
		if e.Location() != loc {
			return fail("occupancy has entity %d at %v but it is at %v", id, loc, e.Location())
		}
	}

	rostered := 0
	for _, sector := range g.sectors.Sectors() {
		for team, roster := range sector.rosters {
			for _, id := range roster {
				rostered++
				e, ok := g.store.Get(id)
				if !ok || e.Type() != Statue || e.Team() != team {
					return fail("sector %v lists %d which is not a live team %d statue", sector.TopLeft(), id, team)
				}
				if SectorTopLeft(e.Location(), g.sectors.Size()) != sector.TopLeft() {
					return fail("sector %v lists statue %d located at %v", sector.TopLeft(), id, e.Location())
				}
			}
		}
		if want := sector.computeController(); want != sector.Controller() {
			return fail("sector %v controlled by %d, expected %d", sector.TopLeft(), sector.Controller(), want)
		}
	}
	if rostered != statues {
		return fail("sectors list %d statues, expected %d", rostered, statues)
	}

	return nil
}
