package component

import (
	"lumen/internal/ecs"
	"lumen/internal/mathx"
)

type LightType uint8

const (
	Directional LightType = iota
)

// LightBounds is the world-space box fitted around the camera frustum.
// MinZ holds the largest z and MaxZ the smallest, and Depth is MinZ-MaxZ.
type LightBounds struct {
	MinX, MaxX float32
	MinY, MaxY float32
	MinZ, MaxZ float32
	Width      float32
	Height     float32
	Depth      float32
	Centroid   mathx.Vec3
}

type Light struct {
	Type              LightType
	Direction         mathx.Vec3
	Color             mathx.Vec3
	MaxShadowDistance float32

	// Written by the light system.
	View       mathx.Mat4
	Projection mathx.Mat4
	Bounds     LightBounds
}

func (Light) Kind() ecs.Kind { return KindLight }
