package ecs

import "fmt"

// Record is one row of the entity table.
type Record struct {
	ID   EntityID
	Mask Mask
}

// Table is the dense entity table. Destroyed ids go on a stack and are
// handed out again before the table grows.
type Table struct {
	records []Record
	freeIDs []EntityID
	live    int
}

// NewTable creates a table with room for capacity entities before it
// reallocates.
func NewTable(capacity int) *Table {
	return &Table{
		records: make([]Record, 0, capacity),
		freeIDs: make([]EntityID, 0, capacity/4),
	}
}

// Create returns a fresh entity with an empty mask.
func (t *Table) Create() EntityID {
	var id EntityID
	if n := len(t.freeIDs); n > 0 {
		id = t.freeIDs[n-1]
		t.freeIDs = t.freeIDs[:n-1]
		t.records[id] = Record{ID: id}
	} else {
		id = EntityID(len(t.records))
		t.records = append(t.records, Record{ID: id})
	}
	t.live++
	return id
}

// Release clears id's record and pushes it on the free stack. Components
// must already have been released by the caller.
func (t *Table) Release(id EntityID) error {
	if !t.Valid(id) {
		return fmt.Errorf("%w: %d", ErrInvalidEntity, id)
	}
	t.records[id] = Record{ID: NullEntity}
	t.freeIDs = append(t.freeIDs, id)
	t.live--
	return nil
}

// Valid reports whether id names a live entity.
func (t *Table) Valid(id EntityID) bool {
	return id != NullEntity && int(id) < len(t.records) && t.records[id].ID == id
}

// Mask returns id's component mask, or an empty mask for an invalid id.
func (t *Table) Mask(id EntityID) Mask {
	if !t.Valid(id) {
		return 0
	}
	return t.records[id].Mask
}

// Attach records that id now holds a component of kind k.
func (t *Table) Attach(id EntityID, k Kind) {
	if t.Valid(id) {
		t.records[id].Mask = t.records[id].Mask.With(k)
	}
}

// Detach records that id no longer holds a component of kind k.
func (t *Table) Detach(id EntityID, k Kind) {
	if t.Valid(id) {
		t.records[id].Mask = t.records[id].Mask.Without(k)
	}
}

// Each calls fn for every live entity in id order.
func (t *Table) Each(fn func(id EntityID, mask Mask)) {
	for _, r := range t.records {
		if r.ID != NullEntity {
			fn(r.ID, r.Mask)
		}
	}
}

// Query returns the live entities whose mask contains want.
func (t *Table) Query(want Mask) []EntityID {
	var out []EntityID
	for _, r := range t.records {
		if r.ID != NullEntity && r.Mask.Contains(want) {
			out = append(out, r.ID)
		}
	}
	return out
}

// Len returns the number of live entities.
func (t *Table) Len() int { return t.live }

// FreeIDs returns the number of ids waiting to be reused.
func (t *Table) FreeIDs() int { return len(t.freeIDs) }

// Clear drops every entity and forgets recycled ids.
func (t *Table) Clear() {
	t.records = t.records[:0]
	t.freeIDs = t.freeIDs[:0]
	t.live = 0
}
