package engine

// Entity is a live unit owned by a Store. Fields are only changed through the
// mutator methods, each of which records the entity in the store's per-turn
// change log so diffs never need deep comparison.
type Entity struct {
	id   EntityID
	kind EntityType
	loc  Location
	hp   int
	team TeamID

	cooldownEnd    int
	hasCooldown    bool
	heldBy         EntityID
	isHeld         bool
	holding        EntityID
	isHolding      bool
	holdingEnd     int
	hasHoldingTime bool

	store *Store
}

func (e *Entity) ID() EntityID       { return e.id }
func (e *Entity) Type() EntityType   { return e.kind }
func (e *Entity) Location() Location { return e.loc }
func (e *Entity) HP() int            { return e.hp }
func (e *Entity) Team() TeamID       { return e.team }

// CooldownEnd returns the turn before which the entity may not act.
func (e *Entity) CooldownEnd() (int, bool) { return e.cooldownEnd, e.hasCooldown }

// HeldBy returns the id of the entity carrying e.
func (e *Entity) HeldBy() (EntityID, bool) { return e.heldBy, e.isHeld }

// Holding returns the id of the entity e is carrying.
func (e *Entity) Holding() (EntityID, bool) { return e.holding, e.isHolding }

// HoldingEnd returns the turn after which holding causes fatigue damage.
func (e *Entity) HoldingEnd() (int, bool) { return e.holdingEnd, e.hasHoldingTime }

func (e *Entity) IsHeld() bool    { return e.isHeld }
func (e *Entity) IsHolding() bool { return e.isHolding }

// OnCooldown reports whether the entity may not act on the given turn.
func (e *Entity) OnCooldown(turn int) bool {
	return e.hasCooldown && e.cooldownEnd > turn
}

// Relocate moves the entity. Occupancy bookkeeping is the caller's job.
func (e *Entity) Relocate(loc Location) {
	e.loc = loc
	e.touch()
}

// SetHP overwrites the entity's hit points.
func (e *Entity) SetHP(hp int) {
	e.hp = hp
	e.touch()
}

// SetCooldownEnd records the first turn the entity may act again.
func (e *Entity) SetCooldownEnd(turn int) {
	e.cooldownEnd = turn
	e.hasCooldown = true
	e.touch()
}

// Hold links e as the carrier of target until deadline.
func (e *Entity) Hold(target EntityID, deadline int) {
	e.holding = target
	e.isHolding = true
	e.holdingEnd = deadline
	e.hasHoldingTime = true
	e.touch()
}

// Release clears e's holding link and deadline.
func (e *Entity) Release() {
	e.holding = 0
	e.isHolding = false
	e.holdingEnd = 0
	e.hasHoldingTime = false
	e.touch()
}

// SetHeldBy marks e as carried by holder.
func (e *Entity) SetHeldBy(holder EntityID) {
	e.heldBy = holder
	e.isHeld = true
	e.touch()
}

// ClearHeldBy marks e as no longer carried.
func (e *Entity) ClearHeldBy() {
	e.heldBy = 0
	e.isHeld = false
	e.touch()
}

func (e *Entity) touch() {
	if e.store != nil {
		e.store.markDirty(e.id)
	}
}

// Snapshot returns the wire representation of the entity.
func (e *Entity) Snapshot() EntityData {
	data := EntityData{
		ID:       e.id,
		Type:     e.kind,
		Location: e.loc,
		HP:       e.hp,
		TeamID:   e.team,
	}
	if e.hasCooldown {
		data.CooldownEnd = intPtr(e.cooldownEnd)
	}
	if e.isHeld {
		data.HeldBy = idPtr(e.heldBy)
	}
	if e.isHolding {
		data.Holding = idPtr(e.holding)
	}
	if e.hasHoldingTime {
		data.HoldingEnd = intPtr(e.holdingEnd)
	}
	return data
}

// entityFromData builds a detached entity from a snapshot.
func entityFromData(d EntityData) *Entity {
	e := &Entity{
		id:   d.ID,
		kind: d.Type,
		loc:  d.Location,
		hp:   d.HP,
		team: d.TeamID,
	}
	if d.CooldownEnd != nil {
		e.cooldownEnd, e.hasCooldown = *d.CooldownEnd, true
	}
	if d.HeldBy != nil {
		e.heldBy, e.isHeld = *d.HeldBy, true
	}
	if d.Holding != nil {
		e.holding, e.isHolding = *d.Holding, true
	}
	if d.HoldingEnd != nil {
		e.holdingEnd, e.hasHoldingTime = *d.HoldingEnd, true
	}
	return e
}
