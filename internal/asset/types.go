package asset

import (
	"lumen/internal/gpu"
	"lumen/internal/mathx"
	"lumen/internal/shader"
)

type Texture struct {
	ID     ID
	Name   string
	Width  int
	Height int
	GPU    *gpu.Texture
}

type Mesh struct {
	ID       ID
	Name     string
	Vertices []shader.Vertex
	Indices  []uint32
	Skinned  bool
	Vertex   *gpu.Buffer
	Index    *gpu.Buffer
	Min, Max mathx.Vec3
}

// IndexCount returns the number of indices to draw.
func (m *Mesh) IndexCount() int { return len(m.Indices) }

type Material struct {
	ID      ID
	Name    string
	Color   mathx.Vec4
	Albedo  ID // texture
	Uniform *gpu.Buffer
}

// Glyph locates one rune in a font atlas.
type Glyph struct {
	UV mathx.Vec4 // u0, v0, u1, v1
}

// Font is a monospace glyph atlas. CellWidth and CellHeight are the size
// of one narrow glyph in GUI units.
type Font struct {
	ID         ID
	Name       string
	Atlas      ID // texture
	CellWidth  float32
	CellHeight float32
	Glyphs     map[rune]Glyph
	Fallback   rune
}

// Glyph returns the atlas entry for r, or the fallback glyph.
func (f *Font) Glyph(r rune) Glyph {
	if g, ok := f.Glyphs[r]; ok {
		return g
	}
	return f.Glyphs[f.Fallback]
}

type Bone struct {
	Name   string
	Parent int // -1 for a root
	// Bind is the bone's local transform in the bind pose.
	Bind        mathx.Mat4
	InverseBind mathx.Mat4
}

type Skeleton struct {
	ID    ID
	Name  string
	Bones []Bone
}

// Children returns the indices of bone i's direct children in order.
func (s *Skeleton) Children(i int) []int {
	var out []int
	for j, b := range s.Bones {
		if b.Parent == i {
			out = append(out, j)
		}
	}
	return out
}
