package system

import (
	"go.uber.org/zap"

	"lumen/internal/component"
	"lumen/internal/ecs"
	"lumen/internal/scene"
)

// Pose samples each skeletal animation at its current time and writes the
// result into the Local transform of the bound joint entities. Stopped
// animations keep their last pose.
type Pose struct{}

func (Pose) Name() string { return "pose" }

func (Pose) Update(s *scene.Scene, dt float32) error {
	assets := s.Assets()
	scene.Pool[component.SkeletalAnimation](s).Each(func(id ecs.EntityID, a *component.SkeletalAnimation) {
		if a.Stopped {
			return
		}
		anim, err := assets.Animation(a.Animation)
		if err != nil {
			s.Log().Debug("pose: animation missing", zap.Uint32("entity", uint32(id)), zap.Error(err))
			return
		}
		for i := range anim.Channels {
			c := &anim.Channels[i]
			if c.Bone < 0 || c.Bone >= len(a.Joints) {
				continue
			}
			if t, ok := scene.Get[component.Transform](s, a.Joints[c.Bone]); ok {
				t.Local = c.Sample(a.Time)
			}
		}
	})
	return nil
}
