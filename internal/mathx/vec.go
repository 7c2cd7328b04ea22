// Package mathx holds the small amount of linear algebra the engine needs.
// Storage types mirror golang.org/x/image/math/f32 so values can be handed
// to code that speaks those types without copying.
package mathx

import (
	"math"

	"golang.org/x/image/math/f32"
)

// Epsilon is the tolerance used by the approximate comparisons in this package.
const Epsilon = 1e-5

type Vec2 f32.Vec2

type Vec3 f32.Vec3

type Vec4 f32.Vec4

// Common directions.
var (
	Zero3 = Vec3{0, 0, 0}
	Up    = Vec3{0, 1, 0}
	Fwd   = Vec3{0, 0, 1}
)

func V2(x, y float32) Vec2       { return Vec2{x, y} }
func V3(x, y, z float32) Vec3    { return Vec3{x, y, z} }
func V4(x, y, z, w float32) Vec4 { return Vec4{x, y, z, w} }

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{v[0] + o[0], v[1] + o[1]} }
func (v Vec2) Scale(s float32) Vec2 { return Vec2{v[0] * s, v[1] * s} }
func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]} }
func (v Vec3) Scale(s float32) Vec3 { return Vec3{v[0] * s, v[1] * s, v[2] * s} }
func (v Vec3) Dot(o Vec3) float32   { return v[0]*o[0] + v[1]*o[1] + v[2]*o[2] }
func (v Vec3) Len() float32         { return float32(math.Sqrt(float64(v.Dot(v)))) }
func (v Vec3) Vec4(w float32) Vec4  { return Vec4{v[0], v[1], v[2], w} }
func (v Vec4) Vec3() Vec3           { return Vec3{v[0], v[1], v[2]} }
func (v Vec4) Scale(s float32) Vec4 { return Vec4{v[0] * s, v[1] * s, v[2] * s, v[3] * s} }
func (v Vec4) Dot(o Vec4) float32   { return v[0]*o[0] + v[1]*o[1] + v[2]*o[2] + v[3]*o[3] }

// Cross returns v × o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v[1]*o[2] - v[2]*o[1],
		v[2]*o[0] - v[0]*o[2],
		v[0]*o[1] - v[1]*o[0],
	}
}

// Normalize returns v scaled to unit length. The zero vector is returned unchanged.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// Lerp interpolates linearly between v and o.
func (v Vec3) Lerp(o Vec3, t float32) Vec3 {
	return Vec3{
		v[0] + (o[0]-v[0])*t,
		v[1] + (o[1]-v[1])*t,
		v[2] + (o[2]-v[2])*t,
	}
}

// ApproxEqual reports whether every component of v and o is within Epsilon.
func (v Vec3) ApproxEqual(o Vec3) bool {
	for i := range v {
		if abs32(v[i]-o[i]) > Epsilon {
			return false
		}
	}
	return true
}

// Min3 and Max3 return component-wise extrema.
func Min3(a, b Vec3) Vec3 {
	return Vec3{min(a[0], b[0]), min(a[1], b[1]), min(a[2], b[2])}
}

func Max3(a, b Vec3) Vec3 {
	return Vec3{max(a[0], b[0]), max(a[1], b[1]), max(a[2], b[2])}
}

// Radians converts degrees to radians.
func Radians(deg float32) float32 { return deg * math.Pi / 180 }

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}

func tan32(f float32) float32  { return float32(math.Tan(float64(f))) }
func sqrt32(f float32) float32 { return float32(math.Sqrt(float64(f))) }
