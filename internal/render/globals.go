package render

import (
	"errors"
	"fmt"

	"lumen/internal/component"
	"lumen/internal/ecs"
	"lumen/internal/gpu"
	"lumen/internal/mathx"
	"lumen/internal/scene"
	"lumen/internal/shader"
)

// Globals owns the per-frame uniform block bound at set 0 by every
// pipeline. Its descriptor sets are allocated once and live until Close.
type Globals struct {
	device  *gpu.Device
	ambient float32
	buffers []*gpu.Buffer
	sets    []*gpu.DescriptorSet
	last    shader.Globals
}

func NewGlobals(device *gpu.Device, ambient float32) (*Globals, error) {
	g := &Globals{device: device, ambient: ambient}
	frames := device.FramesInFlight()
	perFrame := make([][]gpu.Binding, frames)
	for f := 0; f < frames; f++ {
		buf, err := device.CreateBuffer(gpu.BufferDesc{
			Label:       fmt.Sprintf("globals.%d", f),
			ElementSize: shader.GlobalsSize,
			Length:      1,
			Usage:       uniformUsage,
			Frequency:   gpu.Stream,
		}, nil)
		if err != nil {
			g.Close()
			return nil, err
		}
		g.buffers = append(g.buffers, buf)
		perFrame[f] = []gpu.Binding{{Slot: 0, Buffer: buf}}
	}
	sets, err := device.AllocateDescriptorSets(shader.FrameLayout, perFrame)
	if err != nil {
		g.Close()
		return nil, err
	}
	g.sets = sets
	return g, nil
}

// Set returns frame's set 0.
func (g *Globals) Set(frame int) *gpu.DescriptorSet { return g.sets[frame] }

// Last returns the block most recently written.
func (g *Globals) Last() shader.Globals { return g.last }

// Update writes frame's block from s's active camera and first
// directional light. viewport is the target size in GUI units.
func (g *Globals) Update(frame int, s *scene.Scene, viewport mathx.Vec2) error {
	block := shader.Globals{
		View:            mathx.Identity(),
		Projection:      mathx.Identity(),
		LightView:       mathx.Identity(),
		LightProjection: mathx.Identity(),
		LightColor:      mathx.V4(0, 0, 0, g.ambient),
		Viewport:        mathx.V4(viewport[0], viewport[1], 0, 0),
	}
	if s != nil {
		id := s.ActiveCamera()
		cam, okC := scene.Get[component.Camera](s, id)
		t, okT := scene.Get[component.Transform](s, id)
		if okC && okT {
			block.View = t.Global.Inverse()
			block.Projection = cam.Projection()
		}
		found := false
		scene.Pool[component.Light](s).Each(func(_ ecs.EntityID, l *component.Light) {
			if found || l.Type != component.Directional {
				return
			}
			found = true
			block.LightView = l.View
			block.LightProjection = l.Projection
			block.LightDir = l.Direction.Normalize().Vec4(0)
			block.LightColor = l.Color.Vec4(g.ambient)
		})
	}
	g.last = block
	return g.buffers[frame].UpdateDeviceAndHost(block.Encode(), 0)
}

// Close frees the sets and buffers.
func (g *Globals) Close() error {
	var errs []error
	if g.sets != nil {
		errs = append(errs, g.device.FreeDescriptorSets(g.sets))
		g.sets = nil
	}
	for _, b := range g.buffers {
		errs = append(errs, g.device.DestroyBuffer(b))
	}
	g.buffers = nil
	return errors.Join(errs...)
}
