package scene

import (
	"fmt"

	"go.uber.org/zap"

	"lumen/internal/component"
	"lumen/internal/ecs"
	"lumen/internal/mathx"
)

// DestroyEntity detaches id from its parent, destroys its children
// depth first, releases its components and recycles its id.
func (s *Scene) DestroyEntity(id ecs.EntityID) error {
	if !s.entities.Valid(id) {
		return fmt.Errorf("destroy entity: %w: %d", ecs.ErrInvalidEntity, id)
	}
	if p, ok := Get[component.Parent](s, id); ok {
		if err := s.RemoveChild(p.Entity, id); err != nil {
			return fmt.Errorf("destroy entity %d: %w", id, err)
		}
	}
	if c, ok := Get[component.Children](s, id); ok {
		// Each child removes itself from c on the way down.
		kids := append([]ecs.EntityID(nil), c.Slice()...)
		for _, kid := range kids {
			if err := s.DestroyEntity(kid); err != nil {
				return err
			}
		}
	}
	if err := s.stores.ReleaseAll(id, s.entities.Mask(id)); err != nil {
		s.log.Error("release components", zap.Uint32("entity", uint32(id)), zap.Error(err))
	}
	if id == s.camera {
		s.camera = ecs.NullEntity
	}
	return s.entities.Release(id)
}

// AddChild makes child a child of parent. A child that already has a
// parent is moved. If the child has a Transform, its current Global
// becomes its Local so it keeps its placement relative to the new parent.
func (s *Scene) AddChild(parent, child ecs.EntityID) error {
	if !s.entities.Valid(parent) || !s.entities.Valid(child) || parent == child {
		return fmt.Errorf("add child %d to %d: %w", child, parent, ecs.ErrInvalidEntity)
	}
	if p, ok := Get[component.Parent](s, child); ok && p.Entity == parent {
		return nil
	}
	if s.isAncestor(child, parent) {
		return fmt.Errorf("add child %d to %d: %w", child, parent, ErrCycle)
	}
	kids, ok := Get[component.Children](s, parent)
	if ok && kids.Count >= component.MaxChildren {
		s.log.Warn("children full", zap.Uint32("entity", uint32(parent)))
		return fmt.Errorf("add child %d to %d: %w", child, parent, ErrChildrenFull)
	}
	if !ok {
		var err error
		if kids, err = Add(s, parent, component.Children{}); err != nil {
			return err
		}
		kids.Reset()
	}

	if p, ok := Get[component.Parent](s, child); ok {
		s.detach(p.Entity, child)
		p.Entity = parent
	} else if _, err := Add(s, child, component.Parent{Entity: parent}); err != nil {
		if kids.Count == 0 {
			Remove[component.Children](s, parent)
		}
		return err
	}
	kids.Append(child)

	if t, ok := Get[component.Transform](s, child); ok {
		t.Local = t.Global
		t.Global = mathx.Identity()
	}
	return nil
}

// RemoveChild detaches child from parent and releases the child's Parent
// component. The parent's Children component goes away with its last
// child.
func (s *Scene) RemoveChild(parent, child ecs.EntityID) error {
	p, ok := Get[component.Parent](s, child)
	if !ok || p.Entity != parent {
		return fmt.Errorf("remove child %d from %d: %w", child, parent, ErrNotChild)
	}
	kids, ok := Get[component.Children](s, parent)
	if !ok {
		return fmt.Errorf("remove child %d from %d: %w", child, parent, ErrNotChild)
	}
	if err := Remove[component.Parent](s, child); err != nil {
		return err
	}
	kids.Remove(child)
	if kids.Count == 0 {
		return Remove[component.Children](s, parent)
	}
	return nil
}

// isAncestor reports whether a is on id's parent chain.
func (s *Scene) isAncestor(a, id ecs.EntityID) bool {
	for p, ok := Get[component.Parent](s, id); ok; p, ok = Get[component.Parent](s, p.Entity) {
		if p.Entity == a {
			return true
		}
	}
	return false
}

// detach drops child from parent's list without touching the child.
func (s *Scene) detach(parent, child ecs.EntityID) {
	kids, ok := Get[component.Children](s, parent)
	if !ok {
		return
	}
	kids.Remove(child)
	if kids.Count == 0 {
		Remove[component.Children](s, parent)
	}
}

// Children returns parent's children, or nil.
func (s *Scene) Children(parent ecs.EntityID) []ecs.EntityID {
	if c, ok := Get[component.Children](s, parent); ok {
		return c.Slice()
	}
	return nil
}
