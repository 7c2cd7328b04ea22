package asset

import (
	"strconv"

	"lumen/internal/mathx"
	"lumen/internal/shader"
)

// Cube returns a cube of edge size centred on the origin, four vertices
// per face so each face keeps its own normal.
func Cube(size float32) ([]shader.Vertex, []uint32) {
	h := size / 2
	faces := []struct {
		n, u, v mathx.Vec3
	}{
		{mathx.V3(0, 0, -1), mathx.V3(1, 0, 0), mathx.V3(0, 1, 0)},
		{mathx.V3(0, 0, 1), mathx.V3(-1, 0, 0), mathx.V3(0, 1, 0)},
		{mathx.V3(-1, 0, 0), mathx.V3(0, 0, -1), mathx.V3(0, 1, 0)},
		{mathx.V3(1, 0, 0), mathx.V3(0, 0, 1), mathx.V3(0, 1, 0)},
		{mathx.V3(0, 1, 0), mathx.V3(1, 0, 0), mathx.V3(0, 0, 1)},
		{mathx.V3(0, -1, 0), mathx.V3(1, 0, 0), mathx.V3(0, 0, -1)},
	}
	var vs []shader.Vertex
	var idx []uint32
	for _, f := range faces {
		base := uint32(len(vs))
		c := f.n.Scale(h)
		for _, uv := range [4]mathx.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}} {
			p := c.Add(f.u.Scale((uv[0]*2 - 1) * h)).Add(f.v.Scale((uv[1]*2 - 1) * h))
			vs = append(vs, shader.Vertex{Position: p, Normal: f.n, UV: uv})
		}
		idx = append(idx, base, base+1, base+2, base, base+2, base+3)
	}
	return vs, idx
}

// Grid returns a size×size plane in XZ split into n×n quads, with the
// height of each vertex given by height (nil for flat).
func Grid(size float32, n int, height func(x, z float32) float32) ([]shader.Vertex, []uint32) {
	n = max(n, 1)
	step := size / float32(n)
	origin := -size / 2
	at := func(x, z float32) mathx.Vec3 {
		y := float32(0)
		if height != nil {
			y = height(x, z)
		}
		return mathx.V3(x, y, z)
	}

	vs := make([]shader.Vertex, 0, (n+1)*(n+1))
	for j := 0; j <= n; j++ {
		for i := 0; i <= n; i++ {
			x := origin + float32(i)*step
			z := origin + float32(j)*step
			// Central differences for the normal.
			dx := at(x+step/2, z).Sub(at(x-step/2, z))
			dz := at(x, z+step/2).Sub(at(x, z-step/2))
			vs = append(vs, shader.Vertex{
				Position: at(x, z),
				Normal:   dz.Cross(dx).Normalize(),
				UV:       mathx.V2(float32(i)/float32(n), float32(j)/float32(n)),
			})
		}
	}
	idx := make([]uint32, 0, n*n*6)
	row := uint32(n + 1)
	for j := uint32(0); j < uint32(n); j++ {
		for i := uint32(0); i < uint32(n); i++ {
			a := j*row + i
			idx = append(idx, a, a+row, a+1, a+1, a+row, a+row+1)
		}
	}
	return vs, idx
}

// Quad returns a unit quad in the XY plane facing -Z.
func Quad() ([]shader.Vertex, []uint32) {
	n := mathx.V3(0, 0, -1)
	vs := []shader.Vertex{
		{Position: mathx.V3(-0.5, -0.5, 0), Normal: n, UV: mathx.V2(0, 1)},
		{Position: mathx.V3(0.5, -0.5, 0), Normal: n, UV: mathx.V2(1, 1)},
		{Position: mathx.V3(0.5, 0.5, 0), Normal: n, UV: mathx.V2(1, 0)},
		{Position: mathx.V3(-0.5, 0.5, 0), Normal: n, UV: mathx.V2(0, 0)},
	}
	return vs, []uint32{0, 2, 1, 0, 3, 2}
}

// Column returns a square column of the given height standing on the
// origin, split into segments stacked along +Y, together with a chain
// skeleton of one bone per segment. Each ring of vertices is weighted to
// the bones of the segments it joins.
func Column(width, height float32, segments int) ([]shader.Vertex, []uint32, []Bone) {
	segments = max(segments, 1)
	seg := height / float32(segments)
	h := width / 2
	corners := [4]mathx.Vec3{{-h, 0, -h}, {h, 0, -h}, {h, 0, h}, {-h, 0, h}}

	var vs []shader.Vertex
	for ring := 0; ring <= segments; ring++ {
		y := float32(ring) * seg
		lower := min(ring, segments-1)
		upper := max(ring-1, 0)
		for _, c := range corners {
			v := shader.Vertex{
				Position: mathx.V3(c[0], y, c[2]),
				Normal:   mathx.V3(c[0], 0, c[2]).Normalize(),
				UV:       mathx.V2(0, y/height),
			}
			if lower == upper {
				v.Joints = [4]uint8{uint8(lower)}
				v.Weights = mathx.V4(1, 0, 0, 0)
			} else {
				v.Joints = [4]uint8{uint8(upper), uint8(lower)}
				v.Weights = mathx.V4(0.5, 0.5, 0, 0)
			}
			vs = append(vs, v)
		}
	}
	var idx []uint32
	for ring := uint32(0); ring < uint32(segments); ring++ {
		for side := uint32(0); side < 4; side++ {
			a := ring*4 + side
			b := ring*4 + (side+1)%4
			idx = append(idx, a, b, b+4, a, b+4, a+4)
		}
	}
	top := uint32(segments) * 4
	idx = append(idx, top, top+2, top+1, top, top+3, top+2)

	bones := make([]Bone, segments)
	for i := range bones {
		bones[i] = Bone{Name: boneName(i), Parent: i - 1, Bind: mathx.Translation(mathx.V3(0, seg, 0))}
	}
	bones[0].Bind = mathx.Identity()
	return vs, idx, bones
}

func boneName(i int) string {
	return "bone" + strconv.Itoa(i)
}

// Sway returns an animation bending every bone of a chain by angle radians
// about Z and back over length seconds.
func Sway(bones []Bone, angle, length float32) []Channel {
	channels := make([]Channel, len(bones))
	for i, b := range bones {
		t := b.Bind.TranslationPart()
		one := mathx.V3(1, 1, 1)
		rot := func(a float32) mathx.Quat { return mathx.QuatAxisAngle(mathx.V3(0, 0, 1), a) }
		channels[i] = Channel{Bone: i, Keys: []Keyframe{
			{Time: 0, Translation: t, Rotation: rot(-angle), Scale: one},
			{Time: length / 2, Translation: t, Rotation: rot(angle), Scale: one},
			{Time: length, Translation: t, Rotation: rot(-angle), Scale: one},
		}}
	}
	return channels
}
