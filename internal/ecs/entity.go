package ecs

// EntityID identifies an entity in a scene's entity table. Ids are dense,
// start at zero and are recycled once their entity is destroyed.
type EntityID uint32

// NullEntity is never a valid id.
const NullEntity EntityID = ^EntityID(0)

// Valid reports whether id could name an entity.
func (id EntityID) Valid() bool { return id != NullEntity }
