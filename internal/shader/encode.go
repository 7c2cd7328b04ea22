package shader

import (
	"encoding/binary"
	"math"

	"lumen/internal/mathx"
)

// Vertex is one mesh vertex. Joints and Weights are ignored by the
// non-skinned pipelines.
type Vertex struct {
	Position mathx.Vec3
	Normal   mathx.Vec3
	UV       mathx.Vec2
	Joints   [4]uint8
	Weights  mathx.Vec4
}

// Globals is the per-frame uniform block.
type Globals struct {
	View            mathx.Mat4
	Projection      mathx.Mat4
	LightView       mathx.Mat4
	LightProjection mathx.Mat4
	LightDir        mathx.Vec4
	LightColor      mathx.Vec4 // w holds the ambient term
	Viewport        mathx.Vec4 // width, height in target units
}

type Material struct {
	Color mathx.Vec4
}

type StaticInstance struct {
	Model mathx.Mat4
	Color mathx.Vec4
}

// SkinnedInstance points at its palette by the index of its first joint
// in the batch's joint buffer.
type SkinnedInstance struct {
	Model       mathx.Mat4
	Color       mathx.Vec4
	JointOffset uint32
}

// GUIInstance is a screen rectangle. When Rune is non-zero the executor
// draws that glyph instead of sampling the texture.
type GUIInstance struct {
	Rect  mathx.Vec4 // x, y, w, h
	UV    mathx.Vec4 // u0, v0, u1, v1
	Color mathx.Vec4
	Rune  uint32
	Depth float32
}

type writer struct{ b []byte }

func (w *writer) f32(v ...float32) {
	for _, f := range v {
		w.b = binary.LittleEndian.AppendUint32(w.b, math.Float32bits(f))
	}
}

func (w *writer) u32(v uint32) { w.b = binary.LittleEndian.AppendUint32(w.b, v) }
func (w *writer) pad(n int)    { w.b = append(w.b, make([]byte, n)...) }

type reader struct {
	b   []byte
	off int
}

func (r *reader) f32() float32 {
	v := math.Float32frombits(binary.LittleEndian.Uint32(r.b[r.off:]))
	r.off += 4
	return v
}

func (r *reader) u32() uint32 {
	v := binary.LittleEndian.Uint32(r.b[r.off:])
	r.off += 4
	return v
}

func (r *reader) mat4() mathx.Mat4 {
	var m mathx.Mat4
	for i := range m {
		m[i] = r.f32()
	}
	return m
}

func (r *reader) vec4() mathx.Vec4 { return mathx.Vec4{r.f32(), r.f32(), r.f32(), r.f32()} }
func (r *reader) vec3() mathx.Vec3 { return mathx.Vec3{r.f32(), r.f32(), r.f32()} }

func (w *writer) mat4(m mathx.Mat4) { w.f32(m[:]...) }
func (w *writer) vec4(v mathx.Vec4) { w.f32(v[:]...) }

// AppendVertices encodes vs after dst.
func AppendVertices(dst []byte, vs []Vertex) []byte {
	w := writer{dst}
	for _, v := range vs {
		w.f32(v.Position[:]...)
		w.f32(v.Normal[:]...)
		w.f32(v.UV[:]...)
		w.b = append(w.b, v.Joints[:]...)
		w.vec4(v.Weights)
	}
	return w.b
}

// DecodeVertex reads vertex i from an encoded vertex buffer.
func DecodeVertex(b []byte, i int) Vertex {
	r := reader{b: b, off: i * VertexSize}
	var v Vertex
	v.Position = r.vec3()
	v.Normal = r.vec3()
	v.UV = mathx.Vec2{r.f32(), r.f32()}
	copy(v.Joints[:], r.b[r.off:r.off+4])
	r.off += 4
	v.Weights = r.vec4()
	return v
}

// AppendIndices encodes 32-bit indices after dst.
func AppendIndices(dst []byte, idx []uint32) []byte {
	for _, i := range idx {
		dst = binary.LittleEndian.AppendUint32(dst, i)
	}
	return dst
}

// DecodeIndex reads index i from an encoded index buffer.
func DecodeIndex(b []byte, i int) uint32 {
	return binary.LittleEndian.Uint32(b[i*4:])
}

func (g Globals) Encode() []byte {
	w := writer{make([]byte, 0, GlobalsSize)}
	w.mat4(g.View)
	w.mat4(g.Projection)
	w.mat4(g.LightView)
	w.mat4(g.LightProjection)
	w.vec4(g.LightDir)
	w.vec4(g.LightColor)
	w.vec4(g.Viewport)
	return w.b
}

func DecodeGlobals(b []byte) Globals {
	r := reader{b: b}
	return Globals{
		View:            r.mat4(),
		Projection:      r.mat4(),
		LightView:       r.mat4(),
		LightProjection: r.mat4(),
		LightDir:        r.vec4(),
		LightColor:      r.vec4(),
		Viewport:        r.vec4(),
	}
}

func (m Material) Encode() []byte {
	w := writer{make([]byte, 0, MaterialSize)}
	w.vec4(m.Color)
	return w.b
}

func DecodeMaterial(b []byte) Material {
	r := reader{b: b}
	return Material{Color: r.vec4()}
}

func (s StaticInstance) Encode() []byte {
	w := writer{make([]byte, 0, StaticInstanceSize)}
	w.mat4(s.Model)
	w.vec4(s.Color)
	return w.b
}

func DecodeStaticInstance(b []byte, i int) StaticInstance {
	r := reader{b: b, off: i * StaticInstanceSize}
	return StaticInstance{Model: r.mat4(), Color: r.vec4()}
}

func (s SkinnedInstance) Encode() []byte {
	w := writer{make([]byte, 0, SkinnedInstanceSize)}
	w.mat4(s.Model)
	w.vec4(s.Color)
	w.u32(s.JointOffset)
	w.pad(SkinnedInstanceSize - len(w.b))
	return w.b
}

func DecodeSkinnedInstance(b []byte, i int) SkinnedInstance {
	r := reader{b: b, off: i * SkinnedInstanceSize}
	return SkinnedInstance{Model: r.mat4(), Color: r.vec4(), JointOffset: r.u32()}
}

func (g GUIInstance) Encode() []byte {
	w := writer{make([]byte, 0, GUIInstanceSize)}
	w.vec4(g.Rect)
	w.vec4(g.UV)
	w.vec4(g.Color)
	w.u32(g.Rune)
	w.f32(g.Depth)
	return w.b
}

func DecodeGUIInstance(b []byte, i int) GUIInstance {
	r := reader{b: b, off: i * GUIInstanceSize}
	return GUIInstance{Rect: r.vec4(), UV: r.vec4(), Color: r.vec4(), Rune: r.u32(), Depth: r.f32()}
}

// AppendJoints encodes a joint palette after dst.
func AppendJoints(dst []byte, palette []mathx.Mat4) []byte {
	w := writer{dst}
	for _, m := range palette {
		w.mat4(m)
	}
	return w.b
}

// DecodeJoint reads palette entry i.
func DecodeJoint(b []byte, i int) mathx.Mat4 {
	r := reader{b: b, off: i * JointSize}
	return r.mat4()
}
