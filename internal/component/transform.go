package component

import (
	"lumen/internal/ecs"
	"lumen/internal/mathx"
)

// Transform places an entity in the world. Local is relative to the parent
// entity; Global is written by transform propagation. Roots keep whatever
// Global they were given.
type Transform struct {
	Local  mathx.Mat4
	Global mathx.Mat4
}

func (Transform) Kind() ecs.Kind { return KindTransform }

// NewTransform returns a transform whose Local and Global are both m.
func NewTransform(m mathx.Mat4) Transform {
	return Transform{Local: m, Global: m}
}

// GUITransform places a rectangle on screen, in target units with the
// origin at the top left. Higher layers draw over lower ones.
type GUITransform struct {
	Position mathx.Vec2
	Size     mathx.Vec2
	Layer    int
}

func (GUITransform) Kind() ecs.Kind { return KindGUITransform }
