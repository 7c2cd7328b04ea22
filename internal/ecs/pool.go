package ecs

import (
	"fmt"
	"slices"
)

// Releaser is implemented by components that hold something that must be
// let go of before their slot is zeroed.
type Releaser interface {
	Release()
}

// Pool is a fixed-capacity slot allocator for components of type T, keyed
// by owning entity. Slots never move: an index stays valid until its owner
// releases it, and growing the pool copies every slot to the same index.
//
// Freed indices below the highest occupied index are kept in an ascending
// free list and reused smallest first. When the highest slot is released
// the new highest is found by scanning backwards, and any free indices above
// it are dropped so the free list only ever holds holes.
//
// Pointers returned by Occupy and Get are invalidated by Grow.
type Pool[T any] struct {
	slots    []T
	owners   []EntityID
	index    map[EntityID]int
	free     []int
	occupied int
	highest  int
}

// NewPool creates a pool with room for capacity components.
func NewPool[T any](capacity int) *Pool[T] {
	p := &Pool[T]{
		slots:   make([]T, capacity),
		owners:  make([]EntityID, capacity),
		index:   make(map[EntityID]int, capacity),
		highest: -1,
	}
	for i := range p.owners {
		p.owners[i] = NullEntity
	}
	return p
}

// Occupy takes a slot for owner and returns a pointer to its zeroed component.
func (p *Pool[T]) Occupy(owner EntityID) (*T, error) {
	if owner == NullEntity {
		return nil, ErrInvalidEntity
	}
	if _, ok := p.index[owner]; ok {
		return nil, fmt.Errorf("%w: entity %d", ErrDuplicateOwner, owner)
	}
	if p.occupied >= len(p.slots) {
		return nil, fmt.Errorf("%w: %d slots", ErrPoolFull, len(p.slots))
	}

	var i int
	if len(p.free) > 0 {
		i = p.free[0]
		p.free = p.free[1:]
	} else {
		i = p.occupied
	}

	var zero T
	p.slots[i] = zero
	p.owners[i] = owner
	p.index[owner] = i
	p.occupied++
	if i > p.highest {
		p.highest = i
	}
	return &p.slots[i], nil
}

// Release frees owner's slot.
func (p *Pool[T]) Release(owner EntityID) error {
	i, ok := p.index[owner]
	if !ok {
		return fmt.Errorf("%w: entity %d", ErrUnknownOwner, owner)
	}
	p.vacate(i)
	delete(p.index, owner)
	p.occupied--

	if i != p.highest {
		pos, _ := slices.BinarySearch(p.free, i)
		p.free = slices.Insert(p.free, pos, i)
		return nil
	}

	h := i - 1
	for h >= 0 && p.owners[h] == NullEntity {
		h--
	}
	p.highest = h
	cut, _ := slices.BinarySearch(p.free, h+1)
	p.free = p.free[:cut]
	return nil
}

// Clear releases every occupied slot and resets the pool to empty.
func (p *Pool[T]) Clear() {
	for i := 0; i <= p.highest; i++ {
		if p.owners[i] != NullEntity {
			p.vacate(i)
		}
	}
	clear(p.slots)
	clear(p.index)
	p.free = p.free[:0]
	p.occupied = 0
	p.highest = -1
}

// Grow reallocates the pool to hold capacity components. Every occupied
// slot keeps its index.
func (p *Pool[T]) Grow(capacity int) error {
	if capacity < len(p.slots) {
		return fmt.Errorf("%w: %d < %d", ErrShrink, capacity, len(p.slots))
	}
	if capacity == len(p.slots) {
		return nil
	}
	slots := make([]T, capacity)
	copy(slots, p.slots)
	owners := make([]EntityID, capacity)
	copy(owners, p.owners)
	for i := len(p.owners); i < capacity; i++ {
		owners[i] = NullEntity
	}
	p.slots = slots
	p.owners = owners
	return nil
}

// Get returns owner's component.
func (p *Pool[T]) Get(owner EntityID) (*T, bool) {
	i, ok := p.index[owner]
	if !ok {
		return nil, false
	}
	return &p.slots[i], true
}

// Has reports whether owner holds a slot.
func (p *Pool[T]) Has(owner EntityID) bool {
	_, ok := p.index[owner]
	return ok
}

// IndexOf returns the slot index held by owner.
func (p *Pool[T]) IndexOf(owner EntityID) (int, bool) {
	i, ok := p.index[owner]
	return i, ok
}

// At returns the component stored at slot i. Built with the lumendebug tag,
// it returns nil for an index above Highest or in the free list; otherwise
// only the slice bounds are checked.
func (p *Pool[T]) At(i int) *T {
	if debugChecks && !p.occupiedAt(i) {
		return nil
	}
	return &p.slots[i]
}

// Owner returns the entity holding slot i, or NullEntity.
func (p *Pool[T]) Owner(i int) EntityID {
	if i < 0 || i >= len(p.owners) {
		return NullEntity
	}
	return p.owners[i]
}

// Each calls fn for every occupied slot in ascending index order.
func (p *Pool[T]) Each(fn func(owner EntityID, c *T)) {
	for i := 0; i <= p.highest; i++ {
		if p.owners[i] == NullEntity {
			continue
		}
		fn(p.owners[i], &p.slots[i])
	}
}

// Len returns the number of occupied slots.
func (p *Pool[T]) Len() int { return p.occupied }

// Cap returns the number of slots.
func (p *Pool[T]) Cap() int { return len(p.slots) }

// Highest returns the highest occupied index, or -1 when the pool is empty.
func (p *Pool[T]) Highest() int { return p.highest }

// FreeIndices returns a copy of the reusable indices below Highest.
func (p *Pool[T]) FreeIndices() []int { return slices.Clone(p.free) }

func (p *Pool[T]) occupiedAt(i int) bool {
	if i < 0 || i > p.highest {
		return false
	}
	_, isFree := slices.BinarySearch(p.free, i)
	return !isFree
}

func (p *Pool[T]) vacate(i int) {
	if r, ok := any(&p.slots[i]).(Releaser); ok {
		r.Release()
	}
	var zero T
	p.slots[i] = zero
	p.owners[i] = NullEntity
}
