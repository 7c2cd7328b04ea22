package termgpu

import (
	"math"

	"lumen/internal/mathx"
)

// vertex is a post-transform vertex in cell space with the attributes the
// shading pass interpolates.
type vertex struct {
	x, y, z float32
	normal  mathx.Vec3
	uv      mathx.Vec2
	world   mathx.Vec3
}

// target is a depth buffer of w×h cells.
type target struct {
	w, h  int
	depth []float32
}

func (t *target) resize(w, h int) {
	t.w, t.h = w, h
	if cap(t.depth) < w*h {
		t.depth = make([]float32, w*h)
	}
	t.depth = t.depth[:w*h]
	inf := float32(math.Inf(1))
	for i := range t.depth {
		t.depth[i] = inf
	}
}

// test records z at (x, y) if it is nearer than what is there.
func (t *target) test(x, y int, z float32) bool {
	i := y*t.w + x
	if z >= t.depth[i] {
		return false
	}
	t.depth[i] = z
	return true
}

func (t *target) written(x, y int) bool {
	return !math.IsInf(float64(t.depth[y*t.w+x]), 1)
}

// project takes a point through clip matrix m into cell space. ok is false
// for points behind the eye.
func project(m mathx.Mat4, p mathx.Vec3, w, h int) (x, y, z float32, ok bool) {
	c := m.MulVec4(p.Vec4(1))
	if c[3] <= 1e-5 {
		return 0, 0, 0, false
	}
	inv := 1 / c[3]
	x = (c[0]*inv + 1) * 0.5 * float32(w)
	y = (1 - c[1]*inv) * 0.5 * float32(h)
	return x, y, c[2] * inv, true
}

func edge(ax, ay, bx, by, px, py float32) float32 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// rasterize calls frag for every cell centre covered by the triangle,
// with the barycentric weights of a, b and c. Both windings are drawn.
func rasterize(t *target, a, b, c *vertex, frag func(x, y int, z, l0, l1, l2 float32)) {
	area := edge(a.x, a.y, b.x, b.y, c.x, c.y)
	if area == 0 {
		return
	}
	minX := max(0, int(math.Floor(float64(min(a.x, b.x, c.x)))))
	maxX := min(t.w-1, int(math.Ceil(float64(max(a.x, b.x, c.x)))))
	minY := max(0, int(math.Floor(float64(min(a.y, b.y, c.y)))))
	maxY := min(t.h-1, int(math.Ceil(float64(max(a.y, b.y, c.y)))))
	inv := 1 / area
	for y := minY; y <= maxY; y++ {
		py := float32(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float32(x) + 0.5
			l0 := edge(b.x, b.y, c.x, c.y, px, py) * inv
			l1 := edge(c.x, c.y, a.x, a.y, px, py) * inv
			l2 := edge(a.x, a.y, b.x, b.y, px, py) * inv
			if l0 < 0 || l1 < 0 || l2 < 0 {
				continue
			}
			z := l0*a.z + l1*b.z + l2*c.z
			if z < 0 || z > 1 {
				continue
			}
			frag(x, y, z, l0, l1, l2)
		}
	}
}

func lerp3(a, b, c mathx.Vec3, l0, l1, l2 float32) mathx.Vec3 {
	return a.Scale(l0).Add(b.Scale(l1)).Add(c.Scale(l2))
}

func lerp2(a, b, c mathx.Vec2, l0, l1, l2 float32) mathx.Vec2 {
	return a.Scale(l0).Add(b.Scale(l1)).Add(c.Scale(l2))
}
