package component

import (
	"lumen/internal/ecs"
	"lumen/internal/mathx"
)

// Camera is a perspective camera looking down its entity's +Z axis.
// FOV is the full vertical field of view in radians.
type Camera struct {
	FOV    float32
	Aspect float32
	ZNear  float32
	ZFar   float32
}

func (Camera) Kind() ecs.Kind { return KindCamera }

func (c Camera) Projection() mathx.Mat4 {
	return mathx.Perspective(c.FOV, c.Aspect, c.ZNear, c.ZFar)
}
