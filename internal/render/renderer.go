package render

import (
	"lumen/internal/ecs"
	"lumen/internal/gpu"
	"lumen/internal/mathx"
	"lumen/internal/scene"
)

// Renderer batches one family of renderables.
type Renderer interface {
	Name() string
	// Queries lists the component sets that make an entity drawable by
	// this renderer.
	Queries() [][]ecs.Kind
	// Begin selects the frame in flight that Submit writes to.
	Begin(frame int)
	Submit(s *scene.Scene, id ecs.EntityID) error
	Record(cmd *gpu.CommandBuffer) error
	FreeBatches() error
	Occupied() int
}

var white = mathx.V4(1, 1, 1, 1)

// orWhite replaces a zero colour with opaque white.
func orWhite(c mathx.Vec4) mathx.Vec4 {
	if c == (mathx.Vec4{}) {
		return white
	}
	return c
}

// sameSets builds a binding list per frame that is identical across frames.
func sameSets(frames int, bindings ...gpu.Binding) [][]gpu.Binding {
	out := make([][]gpu.Binding, frames)
	for i := range out {
		out[i] = bindings
	}
	return out
}
