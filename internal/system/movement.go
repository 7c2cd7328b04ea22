package system

import (
	"math"

	"lumen/internal/component"
	"lumen/internal/ecs"
	"lumen/internal/input"
	"lumen/internal/mathx"
	"lumen/internal/scene"
)

// FlyCamera moves the active camera from key presses. Register hooks it
// into the scene's input handlers; presses are queued and applied in
// Update so the camera only moves on the frame goroutine.
type FlyCamera struct {
	Speed    float32 // units per press
	TurnRate float32 // radians per press

	yaw     float32
	pending []input.Action
}

func NewFlyCamera(speed, turn float32) *FlyCamera {
	return &FlyCamera{Speed: speed, TurnRate: turn}
}

func (*FlyCamera) Name() string { return "fly_camera" }

// Register queues camera actions from s's key events. Playback toggles
// flip Stopped on every skeletal animation.
func (f *FlyCamera) Register(s *scene.Scene) {
	s.Input().OnKey(s, func(k input.Key) {
		switch a := input.KeyToAction(k); a {
		case input.ActionNone, input.ActionQuit, input.ActionNextScene:
		default:
			f.pending = append(f.pending, a)
		}
	})
}

func (f *FlyCamera) Update(s *scene.Scene, dt float32) error {
	id := s.ActiveCamera()
	for _, a := range f.pending {
		if a == input.ActionToggleAnimation {
			scene.Pool[component.SkeletalAnimation](s).Each(func(_ ecs.EntityID, sa *component.SkeletalAnimation) {
				sa.Stopped = !sa.Stopped
			})
			continue
		}
		Move(s, id, a, f.Speed, f.TurnRate, &f.yaw)
	}
	f.pending = f.pending[:0]
	return nil
}

// Move applies one action to id's Transform. The entity keeps its
// position and is rotated to *yaw about world up.
func Move(s *scene.Scene, id ecs.EntityID, a input.Action, step, turn float32, yaw *float32) bool {
	t, ok := scene.Get[component.Transform](s, id)
	if !ok {
		return false
	}
	pos := t.Local.TranslationPart()
	fwd := mathx.V3(float32(math.Sin(float64(*yaw))), 0, float32(math.Cos(float64(*yaw))))
	right := mathx.Up.Cross(fwd)

	switch a {
	case input.ActionForward:
		pos = pos.Add(fwd.Scale(step))
	case input.ActionBack:
		pos = pos.Sub(fwd.Scale(step))
	case input.ActionLeft:
		pos = pos.Sub(right.Scale(step))
	case input.ActionRight:
		pos = pos.Add(right.Scale(step))
	case input.ActionUp:
		pos = pos.Add(mathx.Up.Scale(step))
	case input.ActionDown:
		pos = pos.Sub(mathx.Up.Scale(step))
	case input.ActionTurnLeft:
		*yaw -= turn
	case input.ActionTurnRight:
		*yaw += turn
	default:
		return false
	}
	t.Local = mathx.Compose(pos, mathx.QuatAxisAngle(mathx.Up, *yaw), mathx.V3(1, 1, 1))
	if !s.Mask(id).Has(component.KindParent) {
		t.Global = t.Local
	}
	return true
}
