// Package system holds the per-frame systems that run over a scene, in
// the order animation, pose, transform, light.
package system

import (
	"lumen/internal/component"
	"lumen/internal/ecs"
	"lumen/internal/scene"
)

// Animation advances every skeletal animation clock by dt. A looping
// animation wraps to zero once it reaches its length; a play-once
// animation stops advancing and keeps its final time.
type Animation struct{}

func (Animation) Name() string { return "animation" }

func (Animation) Update(s *scene.Scene, dt float32) error {
	scene.Pool[component.SkeletalAnimation](s).Each(func(_ ecs.EntityID, a *component.SkeletalAnimation) {
		if a.Time < a.Length {
			a.Time += dt
		}
		if a.Time >= a.Length && a.Mode == component.Loop {
			a.Time = 0
		}
	})
	return nil
}
