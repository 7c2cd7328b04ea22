package render

import (
	"fmt"

	"github.com/mattn/go-runewidth"
	"go.uber.org/zap"

	"lumen/internal/asset"
	"lumen/internal/component"
	"lumen/internal/ecs"
	"lumen/internal/gpu"
	"lumen/internal/mathx"
	"lumen/internal/scene"
	"lumen/internal/shader"
)

// quadIndices is the index count of the unit quad each GUI instance
// expands to.
const quadIndices = 6

// GUIRenderer draws GUIRenderable images and TextRenderable strings.
// Batches are keyed by texture; text uses its font's atlas, one instance
// per glyph.
type GUIRenderer struct {
	device  *gpu.Device
	assets  *asset.Manager
	log     *zap.Logger
	globals *Globals
	batches *batchSet
}

func NewGUIRenderer(svc scene.Services, globals *Globals) *GUIRenderer {
	cfg := svc.Config.Render
	return &GUIRenderer{
		device:  svc.Device,
		assets:  svc.Assets,
		log:     svc.Log,
		globals: globals,
		batches: newBatchSet("gui", svc.Device, svc.Log, cfg.GUI, shader.GUIInstanceSize, cfg.IdleFrames),
	}
}

func (r *GUIRenderer) Name() string { return "gui" }

func (r *GUIRenderer) Queries() [][]ecs.Kind {
	return [][]ecs.Kind{
		{component.KindGUITransform, component.KindGUI},
		{component.KindGUITransform, component.KindText},
	}
}

func (r *GUIRenderer) Begin(frame int) { r.batches.setFrame(frame) }

func (r *GUIRenderer) Occupied() int { return r.batches.occupied() }

func (r *GUIRenderer) Submit(s *scene.Scene, id ecs.EntityID) error {
	gt, ok := scene.Get[component.GUITransform](s, id)
	if !ok {
		return fmt.Errorf("gui submit %d: %w: gui transform", id, ErrMissingComponent)
	}
	if img, ok := scene.Get[component.GUIRenderable](s, id); ok {
		uv := img.UV
		if uv == (mathx.Vec4{}) {
			uv = mathx.V4(0, 0, 1, 1)
		}
		err := r.push(img.Texture, shader.GUIInstance{
			Rect:  mathx.V4(gt.Position[0], gt.Position[1], gt.Size[0], gt.Size[1]),
			UV:    uv,
			Color: orWhite(img.Color),
			Depth: float32(gt.Layer),
		})
		if err != nil {
			r.log.Debug("gui submit", zap.Uint32("entity", uint32(id)), zap.Error(err))
			return fmt.Errorf("gui submit %d: %w", id, err)
		}
	}
	if txt, ok := scene.Get[component.TextRenderable](s, id); ok {
		if err := r.submitText(gt, txt); err != nil {
			r.log.Debug("text submit", zap.Uint32("entity", uint32(id)), zap.Error(err))
			return fmt.Errorf("text submit %d: %w", id, err)
		}
	}
	return nil
}

// submitText lays out txt from the transform's position. A glyph
// advances by its display width in font cells; '\n' starts a new line.
func (r *GUIRenderer) submitText(gt *component.GUITransform, txt *component.TextRenderable) error {
	font, err := r.assets.Font(txt.Font)
	if err != nil {
		return err
	}
	scale := txt.Scale
	if scale == 0 {
		scale = 1
	}
	cw, ch := font.CellWidth*scale, font.CellHeight*scale
	x, y := gt.Position[0], gt.Position[1]
	for _, c := range txt.Text {
		if c == '\n' {
			x = gt.Position[0]
			y += ch
			continue
		}
		w := runewidth.RuneWidth(c)
		if w == 0 {
			continue
		}
		adv := float32(w) * cw
		if c != ' ' {
			err := r.push(font.Atlas, shader.GUIInstance{
				Rect:  mathx.V4(x, y, adv, ch),
				UV:    font.Glyph(c).UV,
				Color: orWhite(txt.Color),
				Rune:  uint32(c),
				Depth: float32(gt.Layer),
			})
			if err != nil {
				return err
			}
		}
		x += adv
	}
	return nil
}

func (r *GUIRenderer) push(tex asset.ID, inst shader.GUIInstance) error {
	key := batchKey{pipeline: shader.GUI, a: uint32(tex)}
	b, err := r.batches.acquire(identity(shader.GUI, tex), key, func(b *batch) error {
		t, err := r.assets.Texture(tex)
		if err != nil {
			return err
		}
		sets, err := r.device.AllocateDescriptorSets(shader.ImageLayout,
			sameSets(r.device.FramesInFlight(), gpu.Binding{Slot: 0, Texture: t.GPU}))
		if err != nil {
			return err
		}
		b.sets = sets
		return nil
	})
	if err != nil {
		return err
	}
	_, err = r.batches.push(b, inst.Encode())
	return err
}

func (r *GUIRenderer) Record(cmd *gpu.CommandBuffer) error {
	frame := cmd.Frame()
	return r.batches.record(frame, func(b *batch) bool {
		return !r.assets.Exists(asset.ID(b.key.a), asset.KindTexture)
	}, func(b *batch) error {
		cmd.BindPipeline(shader.GUI)
		cmd.BindDescriptorSet(shader.SetFrame, r.globals.Set(frame))
		cmd.BindDescriptorSet(shader.SetMaterial, b.sets[frame])
		cmd.BindInstanceBuffer(b.instances[frame])
		cmd.DrawIndexed(quadIndices, b.count)
		return nil
	})
}

func (r *GUIRenderer) FreeBatches() error { return r.batches.freeAll() }
