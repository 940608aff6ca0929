package engine

import (
	"github.com/battlecode/battlecode-hackathon-sub000/game/grid"
)

// resolve applies a single action for team. A nil result means success.
func (g *Game) resolve(team TeamID, a Action) *Rejection {
	switch a.Kind {
	case ActionMove, ActionBuild, ActionPickup, ActionThrow, ActionDisintegrate:
	default:
		return reject(ReasonUnknownAction, "%q", a.Kind)
	}

	actor, rej := g.checkActor(team, a.ID)
	if rej != nil {
		return rej
	}

	switch a.Kind {
	case ActionMove:
		rej = g.move(actor, a)
	case ActionBuild:
		rej = g.build(actor, a)
	case ActionPickup:
		rej = g.pickup(actor, a)
	case ActionThrow:
		rej = g.throw(actor, a)
	case ActionDisintegrate:
		g.dealDamage(actor, actor.HP())
	}
	if rej != nil {
		return rej
	}

	if _, alive := g.store.Get(actor.ID()); alive {
		actor.SetCooldownEnd(g.turn + a.Kind.Cooldown())
	}
	return nil
}

// checkActor enforces the preconditions shared by every action.
func (g *Game) checkActor(team TeamID, id EntityID) (*Entity, *Rejection) {
	actor, ok := g.store.Get(id)
	if !ok {
		return nil, reject(ReasonNoSuchEntity, "entity %d", id)
	}
	if actor.Team() != team {
		return nil, reject(ReasonWrongTeam, "entity %d belongs to team %d", id, actor.Team())
	}
	if actor.OnCooldown(g.turn) {
		end, _ := actor.CooldownEnd()
		return nil, reject(ReasonOnCooldown, "entity %d until turn %d", id, end)
	}
	if actor.IsHeld() {
		return nil, reject(ReasonHeld, "entity %d", id)
	}
	if actor.Type() != Thrower {
		return nil, reject(ReasonCannotAct, "entity %d is a %s", id, actor.Type())
	}
	return actor, nil
}

// checkAdjacentFree validates a move or build target.
func (g *Game) checkAdjacentFree(actor *Entity, target *Location) *Rejection {
	if target == nil {
		return reject(ReasonMalformed, "missing loc")
	}
	if !g.occupancy.InBounds(*target) {
		return reject(ReasonOutOfBounds, "(%d, %d)", target.X, target.Y)
	}
	if grid.DistanceSquared(actor.Location(), *target) > MaxAdjacentDistance {
		return reject(ReasonTooFar, "(%d, %d) is not adjacent to (%d, %d)", target.X, target.Y, actor.Location().X, actor.Location().Y)
	}
	if has, _ := g.occupancy.Has(*target); has {
		return reject(ReasonOccupied, "(%d, %d)", target.X, target.Y)
	}
	return nil
}

func (g *Game) move(actor *Entity, a Action) *Rejection {
	if rej := g.checkAdjacentFree(actor, a.Loc); rej != nil {
		return rej
	}
	g.relocate(actor, *a.Loc)
	return nil
}

// relocate moves a non-held entity and drags whatever it is holding.
func (g *Game) relocate(e *Entity, to Location) {
	g.occupancy.Delete(e.Location())
	g.occupancy.Set(to, e.ID())
	e.Relocate(to)
	if heldID, holding := e.Holding(); holding {
		g.store.MustGet(heldID).Relocate(to)
	}
}

func (g *Game) throw(actor *Entity, a Action) *Rejection {
	if a.DX == nil || a.DY == nil {
		return reject(ReasonMalformed, "missing dx or dy")
	}
	dx, dy := *a.DX, *a.DY
	if dx < -1 || dx > 1 || dy < -1 || dy > 1 || (dx == 0 && dy == 0) {
		return reject(ReasonBadDirection, "(%d, %d)", dx, dy)
	}
	heldID, holding := actor.Holding()
	if !holding {
		return reject(ReasonNotHolding, "entity %d", actor.ID())
	}
	held := g.store.MustGet(heldID)

	landing, target, hit := g.throwPath(actor.Location(), dx, dy)
	if landing == actor.Location() {
		return reject(ReasonNoRoom, "(%d, %d) is blocked", dx, dy)
	}

	actor.Release()
	held.ClearHeldBy()
	held.Relocate(landing)
	g.occupancy.Set(landing, held.ID())

	if hit {
		victim := g.store.MustGet(target)
		g.dealDamage(victim, hitDamage(victim.Type()))
		g.dealDamage(held, RecoilDamage)
	}
	if _, alive := g.store.Get(held.ID()); alive && g.world.TileAt(landing) == Dirt {
		g.dealDamage(held, DirtDamage)
	}
	return nil
}

// throwPath walks from one cell beyond from in direction (dx, dy) for at most
// ThrowRange+1 cells. The walk stops at the first out-of-bounds or occupied
// cell; landing is the last free cell visited, or from when none was. When
// the walk stopped on an occupant, its id is returned with hit set.
func (g *Game) throwPath(from Location, dx, dy int) (landing Location, target EntityID, hit bool) {
	landing = from
	for step := 1; step <= ThrowRange+1; step++ {
		next := from.Add(dx*step, dy*step)
		if !g.occupancy.InBounds(next) {
			return landing, 0, false
		}
		if id, ok, _ := g.occupancy.Get(next); ok {
			return landing, id, true
		}
		landing = next
	}
	return landing, 0, false
}

func hitDamage(t EntityType) int {
	switch t {
	case Statue:
		return StatueHitDamage
	case Hedge:
		return HedgeHitDamage
	}
	return ThrowerHitDamage
}
