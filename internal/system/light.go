package system

import (
	"errors"
	"math"

	"lumen/internal/component"
	"lumen/internal/ecs"
	"lumen/internal/mathx"
	"lumen/internal/scene"
)

var ErrNoActiveCamera = errors.New("system: no active camera")

// Lights fits every directional light's shadow projection around the
// active camera's view frustum.
type Lights struct{}

func (Lights) Name() string { return "light" }

func (Lights) Update(s *scene.Scene, dt float32) error {
	id := s.ActiveCamera()
	cam, ok := scene.Get[component.Camera](s, id)
	camT, hasT := scene.Get[component.Transform](s, id)
	if !ok || !hasT {
		s.Log().Error("light: no active camera")
		return ErrNoActiveCamera
	}
	scene.Pool[component.Light](s).Each(func(_ ecs.EntityID, l *component.Light) {
		if l.Type == component.Directional {
			FitDirectional(l, *cam, camT.Global)
		}
	})
	return nil
}

// FrustumCorners returns the camera-space corners of cam's frustum cut at
// depths near and far, near plane first.
func FrustumCorners(cam component.Camera, near, far float32) [8]mathx.Vec3 {
	var out [8]mathx.Vec3
	for i, d := range [2]float32{near, far} {
		hh := float32(math.Tan(float64(cam.FOV/2))) * d
		hw := hh * cam.Aspect
		out[i*4+0] = mathx.V3(-hw, hh, d)
		out[i*4+1] = mathx.V3(hw, hh, d)
		out[i*4+2] = mathx.V3(hw, -hh, d)
		out[i*4+3] = mathx.V3(-hw, -hh, d)
	}
	return out
}

// FitDirectional sets l's bounds, view and projection from the camera
// frustum between cam.ZNear and l.MaxShadowDistance.
func FitDirectional(l *component.Light, cam component.Camera, camGlobal mathx.Mat4) {
	inf := float32(math.Inf(1))
	b := component.LightBounds{
		MinX: inf, MaxX: -inf,
		MinY: inf, MaxY: -inf,
		// z is compared the other way round: MinZ collects the largest
		// value and MaxZ the smallest.
		MinZ: -inf, MaxZ: inf,
	}
	var sum mathx.Vec3
	for _, c := range FrustumCorners(cam, cam.ZNear, l.MaxShadowDistance) {
		p := camGlobal.TransformPoint(c)
		b.MinX = min(b.MinX, p[0])
		b.MaxX = max(b.MaxX, p[0])
		b.MinY = min(b.MinY, p[1])
		b.MaxY = max(b.MaxY, p[1])
		if p[2] > b.MinZ {
			b.MinZ = p[2]
		}
		if p[2] < b.MaxZ {
			b.MaxZ = p[2]
		}
		sum = sum.Add(p)
	}
	b.Width = b.MaxX - b.MinX
	b.Height = b.MaxY - b.MinY
	b.Depth = b.MinZ - b.MaxZ
	b.Centroid = sum.Scale(1.0 / 8)
	l.Bounds = b

	hw, hh, hd := b.Width/2, b.Height/2, b.Depth/2
	l.Projection = mathx.Ortho(-hw, hw, -hh, hh, -hd, hd)
	l.View = mathx.LookTo(b.Centroid, l.Direction, mathx.Up)
}
