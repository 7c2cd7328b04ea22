package component

import "lumen/internal/ecs"

// MaxChildren is the number of children one entity can hold.
const MaxChildren = 10

// Parent points at the entity's parent. It does not own it.
type Parent struct {
	Entity ecs.EntityID
}

func (Parent) Kind() ecs.Kind { return KindParent }

// Children holds an entity's children densely: IDs[:Count] are valid and
// every slot after them is ecs.NullEntity.
type Children struct {
	IDs   [MaxChildren]ecs.EntityID
	Count int
}

func (Children) Kind() ecs.Kind { return KindChildren }

// Reset empties the list.
func (c *Children) Reset() {
	for i := range c.IDs {
		c.IDs[i] = ecs.NullEntity
	}
	c.Count = 0
}

// Append adds id and reports whether there was room.
func (c *Children) Append(id ecs.EntityID) bool {
	if c.Count >= MaxChildren {
		return false
	}
	c.IDs[c.Count] = id
	c.Count++
	return true
}

// Remove drops id and shifts the later children down one slot. It reports
// whether id was present.
func (c *Children) Remove(id ecs.EntityID) bool {
	for i := 0; i < c.Count; i++ {
		if c.IDs[i] != id {
			continue
		}
		copy(c.IDs[i:c.Count], c.IDs[i+1:c.Count])
		c.Count--
		c.IDs[c.Count] = ecs.NullEntity
		return true
	}
	return false
}

// Slice returns the live children.
func (c *Children) Slice() []ecs.EntityID { return c.IDs[:c.Count] }
