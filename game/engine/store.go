package engine

import (
	"slices"
)

// Store owns every live entity of a game and tracks which of them changed
// since the last diff.
type Store struct {
	entities  map[EntityID]*Entity
	order     []EntityID // ascending
	highestID EntityID
	dirty     map[EntityID]struct{}
	spawned   []EntityID
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		entities:  make(map[EntityID]*Entity),
		dirty:     make(map[EntityID]struct{}),
		highestID: -1,
	}
}

// Get returns the live entity with the given id.
func (s *Store) Get(id EntityID) (*Entity, bool) {
	e, ok := s.entities[id]
	return e, ok
}

// MustGet returns the entity or raises an invariant violation.
func (s *Store) MustGet(id EntityID) *Entity {
	e, ok := s.entities[id]
	if !ok {
		violation("reference to nonexistent entity %d", id)
	}
	return e
}

// Len returns the number of live entities.
func (s *Store) Len() int { return len(s.entities) }

// HighestID returns the highest id ever issued, or -1 for an empty store.
func (s *Store) HighestID() EntityID { return s.highestID }

// IDs returns the live entity ids in ascending order. The slice is a copy.
func (s *Store) IDs() []EntityID {
	return slices.Clone(s.order)
}

// Insert adds an entity with a caller-chosen id (initial roster). It is
// reported in the next diff.
func (s *Store) Insert(data EntityData) *Entity {
	if _, exists := s.entities[data.ID]; exists {
		violation("duplicate entity id %d", data.ID)
	}
	e := entityFromData(data)
	s.add(e)
	return e
}

// Spawn creates a new entity with the next free id.
func (s *Store) Spawn(kind EntityType, loc Location, team TeamID, hp int) *Entity {
	e := &Entity{
		id:   s.highestID + 1,
		kind: kind,
		loc:  loc,
		hp:   hp,
		team: team,
	}
	s.add(e)
	return e
}

func (s *Store) add(e *Entity) {
	e.store = s
	s.entities[e.id] = e
	i, _ := slices.BinarySearch(s.order, e.id)
	s.order = slices.Insert(s.order, i, e.id)
	if e.id > s.highestID {
		s.highestID = e.id
	}
	s.spawned = append(s.spawned, e.id)
}

// Delete removes a live entity. Its id is never reissued.
func (s *Store) Delete(id EntityID) {
	e, ok := s.entities[id]
	if !ok {
		violation("can't delete nonexistent entity: %d", id)
	}
	e.store = nil
	delete(s.entities, id)
	delete(s.dirty, id)
	if i, found := slices.BinarySearch(s.order, id); found {
		s.order = slices.Delete(s.order, i, i+1)
	}
}

func (s *Store) markDirty(id EntityID) {
	s.dirty[id] = struct{}{}
}

// ChangedSince returns snapshots of every live entity mutated or spawned since
// the previous call, ordered by id, and clears the change log. It must be
// called exactly once per turn.
func (s *Store) ChangedSince() []EntityData {
	ids := make([]EntityID, 0, len(s.dirty)+len(s.spawned))
	for id := range s.dirty {
		ids = append(ids, id)
	}
	ids = append(ids, s.spawned...)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	changed := make([]EntityData, 0, len(ids))
	for _, id := range ids {
		if e, ok := s.entities[id]; ok {
			changed = append(changed, e.Snapshot())
		}
	}

	clear(s.dirty)
	s.spawned = s.spawned[:0]
	return changed
}

// Snapshot returns every live entity ordered by id.
func (s *Store) Snapshot() []EntityData {
	out := make([]EntityData, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entities[id].Snapshot())
	}
	return out
}
