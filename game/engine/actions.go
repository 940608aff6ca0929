package engine

import (
	"github.com/battlecode/battlecode-hackathon-sub000/game/grid"
)

func (g *Game) build(actor *Entity, a Action) *Rejection {
	if rej := g.checkAdjacentFree(actor, a.Loc); rej != nil {
		return rej
	}
	g.place(g.store.Spawn(Statue, *a.Loc, actor.Team(), BuiltStatueHP))
	return nil
}

func (g *Game) pickup(actor *Entity, a Action) *Rejection {
	if a.PickupID == nil {
		return reject(ReasonMalformed, "missing pickupid")
	}
	if actor.IsHolding() {
		return reject(ReasonAlreadyHolding, "entity %d", actor.ID())
	}
	target, ok := g.store.Get(*a.PickupID)
	if !ok {
		return reject(ReasonNoSuchEntity, "entity %d", *a.PickupID)
	}
	if target.ID() == actor.ID() {
		return reject(ReasonInvalidTarget, "entity %d can't pick itself up", actor.ID())
	}
	if target.Type() != Thrower {
		return reject(ReasonInvalidTarget, "entity %d is a %s", target.ID(), target.Type())
	}
	if grid.DistanceSquared(actor.Location(), target.Location()) > MaxAdjacentDistance {
		return reject(ReasonTooFar, "entity %d is not adjacent", target.ID())
	}
	if target.IsHeld() || target.IsHolding() {
		return reject(ReasonInvalidTarget, "entity %d is already holding or held", target.ID())
	}

	g.occupancy.Delete(target.Location())
	target.SetHeldBy(actor.ID())
	target.Relocate(actor.Location())
	actor.Hold(target.ID(), g.turn+HoldDuration)
	return nil
}

// dealDamage reduces hp and removes the entity when it reaches zero.
func (g *Game) dealDamage(e *Entity, amount int) {
	e.SetHP(e.HP() - amount)
	if e.HP() > 0 {
		return
	}

	loc := e.Location()
	if holderID, held := e.HeldBy(); held {
		g.store.MustGet(holderID).Release()
	} else {
		g.occupancy.Delete(loc)
	}
	if heldID, holding := e.Holding(); holding {
		dropped := g.store.MustGet(heldID)
		dropped.ClearHeldBy()
		dropped.Relocate(loc)
		g.occupancy.Set(loc, dropped.ID())
	}
	if e.Type() == Statue {
		g.sectors.RemoveStatue(e)
	}
	g.store.Delete(e.ID())
	g.dead = append(g.dead, e.ID())
}
