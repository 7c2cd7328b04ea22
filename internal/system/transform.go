package system

import (
	"lumen/internal/component"
	"lumen/internal/ecs"
	"lumen/internal/mathx"
	"lumen/internal/scene"
)

// Transforms propagates global matrices down the hierarchy, parents
// before children. Roots are entities with a Transform and Children but
// no Parent; their Global is left as it is. A child without a Transform
// is skipped along with everything below it.
type Transforms struct{}

func (Transforms) Name() string { return "transform" }

func (Transforms) Update(s *scene.Scene, dt float32) error {
	for _, root := range s.Query(component.KindTransform, component.KindChildren) {
		if s.Mask(root).Has(component.KindParent) {
			continue
		}
		t, _ := scene.Get[component.Transform](s, root)
		propagate(s, root, t.Global)
	}
	return nil
}

func propagate(s *scene.Scene, id ecs.EntityID, global mathx.Mat4) {
	for _, kid := range s.Children(id) {
		t, ok := scene.Get[component.Transform](s, kid)
		if !ok {
			continue
		}
		t.Global = global.Mul(t.Local)
		propagate(s, kid, t.Global)
	}
}
