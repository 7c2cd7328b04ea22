// Package termgpu executes recorded command buffers by rasterizing them
// onto a tcell screen. Brightness is drawn with a glyph ramp and colour
// with the terminal's true colour support.
package termgpu

import (
	"fmt"
	"slices"
	"sync"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"lumen/internal/gpu"
	"lumen/internal/mathx"
	"lumen/internal/shader"
)

const (
	defaultShadowSize = 96
	shadowBias        = 0.01
)

// Executor implements gpu.Executor on a tcell screen.
type Executor struct {
	screen     tcell.Screen
	log        *zap.Logger
	ramp       Ramp
	shadowSize int

	mu     sync.Mutex
	status Status
	stats  frameStats

	// Scratch, used only on the device worker.
	vp      Viewport
	main    target
	shadow  target
	color   []mathx.Vec3
	glyphs  []rune
	bytes   map[*gpu.Buffer][]byte
	globals shader.Globals
	lightVP mathx.Mat4
}

type frameStats struct {
	draws     int
	triangles int
}

type Option func(*Executor)

// WithRamp selects the brightness ramp.
func WithRamp(r Ramp) Option { return func(e *Executor) { e.ramp = r } }

// WithShadowSize sets the side of the square shadow map; 0 disables
// shadows.
func WithShadowSize(n int) Option { return func(e *Executor) { e.shadowSize = n } }

func New(screen tcell.Screen, log *zap.Logger, opts ...Option) *Executor {
	e := &Executor{
		screen:     screen,
		log:        log,
		ramp:       Ramps[0],
		shadowSize: defaultShadowSize,
		bytes:      make(map[*gpu.Buffer][]byte),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// SetStatus replaces the status bar text.
func (e *Executor) SetStatus(st Status) {
	e.mu.Lock()
	e.status = st
	e.mu.Unlock()
}

// Viewport returns the current drawable area of the screen.
func (e *Executor) Viewport() Viewport {
	w, h := e.screen.Size()
	return NewViewport(w, h, HUDRows)
}

// draw is one DrawIndexed with the state bound when it was recorded.
type draw struct {
	pipeline  gpu.Pipeline
	sets      [3]*gpu.DescriptorSet
	vertex    *gpu.Buffer
	index     *gpu.Buffer
	instance  *gpu.Buffer
	indices   int
	instances int
}

func collect(cmds []gpu.Command) ([]draw, error) {
	var (
		cur   draw
		draws []draw
	)
	for _, c := range cmds {
		switch c.Op {
		case gpu.OpBindPipeline:
			cur.pipeline = c.Pipeline
		case gpu.OpBindSet:
			if c.SetIndex < 0 || c.SetIndex >= len(cur.sets) {
				return nil, fmt.Errorf("termgpu: set index %d", c.SetIndex)
			}
			cur.sets[c.SetIndex] = c.Set
		case gpu.OpBindVertexBuffer:
			cur.vertex = c.Buffer
		case gpu.OpBindIndexBuffer:
			cur.index = c.Buffer
		case gpu.OpBindInstanceBuffer:
			cur.instance = c.Buffer
		case gpu.OpDrawIndexed:
			d := cur
			d.indices, d.instances = c.IndexCount, c.InstanceCount
			draws = append(draws, d)
		}
	}
	return draws, nil
}

// Execute rasterizes one frame and shows it.
func (e *Executor) Execute(frame int, cmds []gpu.Command) error {
	draws, err := collect(cmds)
	if err != nil {
		return err
	}
	e.begin()
	defer clear(e.bytes)

	var stats frameStats
	if len(draws) > 0 && draws[0].sets[shader.SetFrame] != nil {
		e.globals = shader.DecodeGlobals(e.read(draws[0].sets[shader.SetFrame].Buffer(0)))
	}
	e.lightVP = e.globals.LightProjection.Mul(e.globals.LightView)
	camVP := e.globals.Projection.Mul(e.globals.View)

	// Terrain receives shadows but does not cast them.
	if e.shadowSize > 0 {
		e.shadow.resize(e.shadowSize, e.shadowSize)
		for i := range draws {
			if d := &draws[i]; d.pipeline == shader.Static || d.pipeline == shader.Skinned {
				e.drawMesh(d, &e.shadow, e.lightVP, nil)
			}
		}
	}

	var gui []shader.GUIInstance
	var guiTex []*gpu.Texture
	for i := range draws {
		d := &draws[i]
		stats.draws++
		switch d.pipeline {
		case shader.Static, shader.Terrain, shader.Skinned:
			stats.triangles += d.instances * d.indices / 3
			e.drawMesh(d, &e.main, camVP, e.shadeFragment)
		case shader.GUI:
			tex := d.sets[shader.SetMaterial].Texture(0)
			b := e.read(d.instance)
			for j := 0; j < d.instances; j++ {
				gui = append(gui, shader.DecodeGUIInstance(b, j))
				guiTex = append(guiTex, tex)
			}
		default:
			e.log.Warn("unknown pipeline", zap.String("pipeline", string(d.pipeline)))
		}
	}
	e.drawGUI(gui, guiTex)

	e.mu.Lock()
	e.stats = stats
	st := e.status
	e.mu.Unlock()

	e.present()
	e.drawHUD(st, frame, stats)
	e.screen.Show()
	return nil
}

func (e *Executor) begin() {
	e.vp = e.Viewport()
	n := e.vp.Width * e.vp.Height
	e.main.resize(e.vp.Width, e.vp.Height)
	if cap(e.color) < n {
		e.color = make([]mathx.Vec3, n)
		e.glyphs = make([]rune, n)
	}
	e.color = e.color[:n]
	e.glyphs = e.glyphs[:n]
	clear(e.color)
	clear(e.glyphs)
}

// read returns a copy of b's device contents, cached for the frame.
func (e *Executor) read(b *gpu.Buffer) []byte {
	if b == nil {
		return nil
	}
	if data, ok := e.bytes[b]; ok {
		return data
	}
	var data []byte
	b.ReadDevice(func(d []byte) { data = slices.Clone(d) })
	e.bytes[b] = data
	return data
}

// fragment shades one covered cell of a mesh.
type fragment struct {
	x, y     int
	normal   mathx.Vec3
	uv       mathx.Vec2
	world    mathx.Vec3
	color    mathx.Vec4
	albedo   *gpu.Texture
	material mathx.Vec4
}

// drawMesh rasterizes every instance of d into t through clip matrix vp.
// With a nil shade only depth is written.
func (e *Executor) drawMesh(d *draw, t *target, vp mathx.Mat4, shade func(f *fragment)) {
	if d.vertex == nil || d.index == nil || d.instance == nil {
		return
	}
	vb, ib, inst := e.read(d.vertex), e.read(d.index), e.read(d.instance)
	var palette []byte
	if d.pipeline == shader.Skinned && d.sets[shader.SetSkin] != nil {
		palette = e.read(d.sets[shader.SetSkin].Buffer(0))
	}
	var (
		material = mathx.V4(1, 1, 1, 1)
		albedo   *gpu.Texture
	)
	if set := d.sets[shader.SetMaterial]; set != nil {
		material = shader.DecodeMaterial(e.read(set.Buffer(0))).Color
		albedo = set.Texture(1)
	}

	nverts := len(vb) / shader.VertexSize
	var tri [3]vertex
	for i := 0; i < d.instances; i++ {
		var model mathx.Mat4
		var tint mathx.Vec4
		var jointOffset int
		if d.pipeline == shader.Skinned {
			si := shader.DecodeSkinnedInstance(inst, i)
			model, tint, jointOffset = si.Model, si.Color, int(si.JointOffset)
		} else {
			si := shader.DecodeStaticInstance(inst, i)
			model, tint = si.Model, si.Color
		}
		mvp := vp.Mul(model)

		for k := 0; k+2 < d.indices; k += 3 {
			visible := true
			for v := 0; v < 3; v++ {
				idx := int(shader.DecodeIndex(ib, k+v))
				if idx >= nverts {
					visible = false
					break
				}
				src := shader.DecodeVertex(vb, idx)
				pos, nrm := src.Position, src.Normal
				if palette != nil {
					pos, nrm = skin(palette, jointOffset, src)
				}
				x, y, z, ok := project(mvp, pos, t.w, t.h)
				if !ok {
					visible = false
					break
				}
				tri[v] = vertex{
					x: x, y: y, z: z,
					normal: model.MulVec4(nrm.Vec4(0)).Vec3().Normalize(),
					uv:     src.UV,
					world:  model.TransformPoint(pos),
				}
			}
			if !visible {
				continue
			}
			a, b, c := &tri[0], &tri[1], &tri[2]
			rasterize(t, a, b, c, func(x, y int, z, l0, l1, l2 float32) {
				if !t.test(x, y, z) || shade == nil {
					return
				}
				shade(&fragment{
					x: x, y: y,
					normal:   lerp3(a.normal, b.normal, c.normal, l0, l1, l2).Normalize(),
					uv:       lerp2(a.uv, b.uv, c.uv, l0, l1, l2),
					world:    lerp3(a.world, b.world, c.world, l0, l1, l2),
					color:    tint,
					albedo:   albedo,
					material: material,
				})
			})
		}
	}
}

// skin blends the vertex by its joint weights.
func skin(palette []byte, offset int, v shader.Vertex) (mathx.Vec3, mathx.Vec3) {
	var pos, nrm mathx.Vec3
	total := float32(0)
	for j := 0; j < 4; j++ {
		w := v.Weights[j]
		if w == 0 {
			continue
		}
		m := shader.DecodeJoint(palette, offset+int(v.Joints[j]))
		pos = pos.Add(m.TransformPoint(v.Position).Scale(w))
		nrm = nrm.Add(m.MulVec4(v.Normal.Vec4(0)).Vec3().Scale(w))
		total += w
	}
	if total == 0 {
		return v.Position, v.Normal
	}
	return pos, nrm
}

// shadeFragment lights one fragment and writes its colour.
func (e *Executor) shadeFragment(f *fragment) {
	g := &e.globals
	base := mathx.V3(f.material[0]*f.color[0], f.material[1]*f.color[1], f.material[2]*f.color[2])
	if f.albedo != nil {
		px := f.albedo.Sample(f.uv[0], f.uv[1])
		base = mathx.V3(base[0]*float32(px[0])/255, base[1]*float32(px[1])/255, base[2]*float32(px[2])/255)
	}
	ambient := g.LightColor[3]
	diffuse := max(0, f.normal.Dot(g.LightDir.Vec3().Scale(-1)))
	if diffuse > 0 && e.inShadow(f.world) {
		diffuse = 0
	}
	light := g.LightColor.Vec3()
	e.color[f.y*e.vp.Width+f.x] = mathx.V3(
		base[0]*(ambient+diffuse*light[0]),
		base[1]*(ambient+diffuse*light[1]),
		base[2]*(ambient+diffuse*light[2]),
	)
}

func (e *Executor) inShadow(world mathx.Vec3) bool {
	if e.shadowSize == 0 {
		return false
	}
	x, y, z, ok := project(e.lightVP, world, e.shadow.w, e.shadow.h)
	if !ok {
		return false
	}
	ix, iy := int(x), int(y)
	if ix < 0 || iy < 0 || ix >= e.shadow.w || iy >= e.shadow.h {
		return false
	}
	return e.shadow.written(ix, iy) && z > e.shadow.depth[iy*e.shadow.w+ix]+shadowBias
}

// drawGUI paints GUI instances over the 3D image, lowest layer first.
// Glyph instances set the cell's rune; image instances fill their
// rectangle with the sampled texture.
func (e *Executor) drawGUI(insts []shader.GUIInstance, tex []*gpu.Texture) {
	order := make([]int, len(insts))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		switch {
		case insts[a].Depth < insts[b].Depth:
			return -1
		case insts[a].Depth > insts[b].Depth:
			return 1
		}
		return 0
	})
	w, h := e.vp.Width, e.vp.Height
	for _, i := range order {
		g := insts[i]
		x0, y0 := int(g.Rect[0]), int(g.Rect[1])
		if g.Rune != 0 {
			if x0 >= 0 && y0 >= 0 && x0 < w && y0 < h {
				e.color[y0*w+x0] = g.Color.Vec3()
				e.glyphs[y0*w+x0] = rune(g.Rune)
			}
			continue
		}
		cw, ch := max(int(g.Rect[2]), 1), max(int(g.Rect[3]), 1)
		for y := max(y0, 0); y < min(y0+ch, h); y++ {
			for x := max(x0, 0); x < min(x0+cw, w); x++ {
				c := g.Color.Vec3()
				if t := tex[i]; t != nil {
					u := g.UV[0] + (g.UV[2]-g.UV[0])*(float32(x-x0)+0.5)/float32(cw)
					v := g.UV[1] + (g.UV[3]-g.UV[1])*(float32(y-y0)+0.5)/float32(ch)
					px := t.Sample(u, v)
					c = mathx.V3(c[0]*float32(px[0])/255, c[1]*float32(px[1])/255, c[2]*float32(px[2])/255)
				}
				e.color[y*w+x] = c
				e.glyphs[y*w+x] = '█'
			}
		}
	}
}

// present copies the colour and glyph buffers to the screen.
func (e *Executor) present() {
	bg := tcell.StyleDefault.Background(tcell.ColorBlack)
	w := e.vp.Width
	for y := 0; y < e.vp.Height; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			c := e.color[i]
			switch {
			case e.glyphs[i] != 0:
				putGlyph(e.screen, x, y, e.glyphs[i], bg.Foreground(Color(c)))
			case e.main.written(x, y):
				l := Luminance(c)
				putGlyph(e.screen, x, y, e.ramp.Glyph(l), bg.Foreground(Color(c)))
			default:
				e.screen.SetContent(x, y, ' ', nil, bg)
			}
		}
	}
}

// Stats returns the draw and triangle counts of the last frame.
func (e *Executor) Stats() (draws, triangles int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats.draws, e.stats.triangles
}
