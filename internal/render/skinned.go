package render

import (
	"fmt"

	"go.uber.org/zap"

	"lumen/internal/asset"
	"lumen/internal/component"
	"lumen/internal/ecs"
	"lumen/internal/gpu"
	"lumen/internal/mathx"
	"lumen/internal/scene"
	"lumen/internal/shader"
)

// SkinnedMeshRenderer draws SkinnedMeshRenderable entities. Besides its
// instance buffers every batch owns a joint palette buffer per frame,
// with MaxJoints matrices reserved per instance.
type SkinnedMeshRenderer struct {
	device    *gpu.Device
	assets    *asset.Manager
	log       *zap.Logger
	globals   *Globals
	batches   *batchSet
	maxJoints int

	palette []mathx.Mat4
	scratch []byte
}

func NewSkinnedMeshRenderer(svc scene.Services, globals *Globals) *SkinnedMeshRenderer {
	cfg := svc.Config.Render
	return &SkinnedMeshRenderer{
		device:    svc.Device,
		assets:    svc.Assets,
		log:       svc.Log,
		globals:   globals,
		batches:   newBatchSet("skinned", svc.Device, svc.Log, cfg.Skinned, shader.SkinnedInstanceSize, cfg.IdleFrames),
		maxJoints: cfg.MaxJoints,
	}
}

func (r *SkinnedMeshRenderer) Name() string { return "skinned" }

func (r *SkinnedMeshRenderer) Queries() [][]ecs.Kind {
	return [][]ecs.Kind{{component.KindTransform, component.KindSkinnedMesh}}
}

func (r *SkinnedMeshRenderer) Begin(frame int) { r.batches.setFrame(frame) }

func (r *SkinnedMeshRenderer) Occupied() int { return r.batches.occupied() }

func (r *SkinnedMeshRenderer) Submit(s *scene.Scene, id ecs.EntityID) error {
	t, okT := scene.Get[component.Transform](s, id)
	sm, okS := scene.Get[component.SkinnedMeshRenderable](s, id)
	if !okT || !okS {
		return fmt.Errorf("skinned submit %d: %w", id, ErrMissingComponent)
	}
	if len(sm.Joints) > r.maxJoints {
		return fmt.Errorf("skinned submit %d: %d joints, limit %d", id, len(sm.Joints), r.maxJoints)
	}
	if err := r.buildPalette(s, t.Global, sm.Joints); err != nil {
		return fmt.Errorf("skinned submit %d: %w", id, err)
	}

	key := batchKey{pipeline: shader.Skinned, a: uint32(sm.Mesh), b: uint32(sm.Material)}
	b, err := r.batches.acquire(identity(shader.Skinned, sm.Mesh, sm.Material), key, func(b *batch) error {
		return r.bind(b, sm.Mesh, sm.Material)
	})
	if err != nil {
		r.log.Debug("skinned submit", zap.Uint32("entity", uint32(id)), zap.Uint32("mesh", uint32(sm.Mesh)), zap.Error(err))
		return fmt.Errorf("skinned submit %d: %w", id, err)
	}

	frame := r.batches.frame
	offset := b.count * r.maxJoints
	r.scratch = shader.AppendJoints(r.scratch[:0], r.palette)
	if err := b.extra[frame].UpdateHost(r.scratch, offset*shader.JointSize); err != nil {
		return err
	}
	_, err = r.batches.push(b, shader.SkinnedInstance{
		Model:       t.Global,
		Color:       orWhite(sm.Tint),
		JointOffset: uint32(offset),
	}.Encode())
	return err
}

// buildPalette fills r.palette with each joint's skinning matrix in the
// mesh's model space: inverse(model) * joint global * inverse bind.
func (r *SkinnedMeshRenderer) buildPalette(s *scene.Scene, model mathx.Mat4, joints []ecs.EntityID) error {
	inv := model.Inverse()
	r.palette = r.palette[:0]
	for bone, jid := range joints {
		j, okJ := scene.Get[component.Joint](s, jid)
		jt, okT := scene.Get[component.Transform](s, jid)
		if !okJ || !okT {
			return fmt.Errorf("joint %d (entity %d): %w", bone, jid, ErrMissingComponent)
		}
		r.palette = append(r.palette, inv.Mul(jt.Global).Mul(j.InverseBind))
	}
	return nil
}

func (r *SkinnedMeshRenderer) bind(b *batch, mesh, material asset.ID) error {
	if _, err := r.assets.Mesh(mesh); err != nil {
		return err
	}
	if err := r.ensurePalettes(b); err != nil {
		return err
	}
	sets, err := materialSets(r.device, r.assets, material)
	if err != nil {
		return err
	}
	b.sets = sets
	perFrame := make([][]gpu.Binding, len(b.extra))
	for f, buf := range b.extra {
		perFrame[f] = []gpu.Binding{{Slot: 0, Buffer: buf}}
	}
	skin, err := r.device.AllocateDescriptorSets(shader.SkinLayout, perFrame)
	if err != nil {
		return err
	}
	b.extraSets = skin
	return nil
}

func (r *SkinnedMeshRenderer) ensurePalettes(b *batch) error {
	if b.extra != nil {
		return nil
	}
	bufs, err := perFrameBuffers(r.device, func(f int) gpu.BufferDesc {
		return gpu.BufferDesc{
			Label:       fmt.Sprintf("skinned.joints.%d", f),
			ElementSize: shader.JointSize,
			Length:      r.batches.length * r.maxJoints,
			Usage:       storageUsage,
			Frequency:   gpu.Stream,
		}
	})
	if err != nil {
		return fmt.Errorf("skinned joints: %w", err)
	}
	b.extra = bufs
	return nil
}

func (r *SkinnedMeshRenderer) Record(cmd *gpu.CommandBuffer) error {
	frame := cmd.Frame()
	return r.batches.record(frame, func(b *batch) bool {
		return !meshKeyResolves(r.assets, b.key)
	}, func(b *batch) error {
		if err := b.extra[frame].Flush(0, b.count*r.maxJoints*shader.JointSize); err != nil {
			return err
		}
		mesh, _ := r.assets.Mesh(asset.ID(b.key.a))
		cmd.BindPipeline(shader.Skinned)
		cmd.BindDescriptorSet(shader.SetFrame, r.globals.Set(frame))
		cmd.BindDescriptorSet(shader.SetMaterial, b.sets[frame])
		cmd.BindDescriptorSet(shader.SetSkin, b.extraSets[frame])
		cmd.BindVertexBuffer(mesh.Vertex)
		cmd.BindIndexBuffer(mesh.Index)
		cmd.BindInstanceBuffer(b.instances[frame])
		cmd.DrawIndexed(mesh.IndexCount(), b.count)
		return nil
	})
}

func (r *SkinnedMeshRenderer) FreeBatches() error { return r.batches.freeAll() }
