package render

import (
	"errors"
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

// StaticMeshRenderer draws StaticMeshRenderable entities with the static
// pipeline and TerrainMeshRenderable entities with the terrain pipeline.
type StaticMeshRenderer struct {
	device  *gpu.Device
	assets  *asset.Manager
	log     *zap.Logger
	globals *Globals
	batches *batchSet
}

func NewStaticMeshRenderer(svc scene.Services, globals *Globals) *StaticMeshRenderer {
	cfg := svc.Config.Render
	return &StaticMeshRenderer{
		device:  svc.Device,
		assets:  svc.Assets,
		log:     svc.Log,
		globals: globals,
		batches: newBatchSet("static", svc.Device, svc.Log, cfg.Static, shader.StaticInstanceSize, cfg.IdleFrames),
	}
}

func (r *StaticMeshRenderer) Name() string { return "static" }

func (r *StaticMeshRenderer) Queries() [][]ecs.Kind {
	return [][]ecs.Kind{
		{component.KindTransform, component.KindStaticMesh},
		{component.KindTransform, component.KindTerrainMesh},
	}
}

func (r *StaticMeshRenderer) Begin(frame int) { r.batches.setFrame(frame) }

func (r *StaticMeshRenderer) Occupied() int { return r.batches.occupied() }

// Submit draws every mesh renderable id holds: its static mesh, its
// terrain mesh, or both.
func (r *StaticMeshRenderer) Submit(s *scene.Scene, id ecs.EntityID) error {
	t, ok := scene.Get[component.Transform](s, id)
	if !ok {
		return fmt.Errorf("static submit %d: %w: transform", id, ErrMissingComponent)
	}
	sm, hasStatic := scene.Get[component.StaticMeshRenderable](s, id)
	tm, hasTerrain := scene.Get[component.TerrainMeshRenderable](s, id)
	if !hasStatic && !hasTerrain {
		return fmt.Errorf("static submit %d: %w: mesh renderable", id, ErrMissingComponent)
	}
	var errs []error
	if hasStatic {
		errs = append(errs, r.submitMesh(id, shader.Static, sm.Mesh, sm.Material, t.Global, orWhite(sm.Tint)))
	}
	if hasTerrain {
		errs = append(errs, r.submitMesh(id, shader.Terrain, tm.Mesh, tm.Material, t.Global, white))
	}
	return errors.Join(errs...)
}

func (r *StaticMeshRenderer) submitMesh(id ecs.EntityID, pipeline gpu.Pipeline, mesh, material asset.ID, model mathx.Mat4, tint mathx.Vec4) error {
	key := batchKey{pipeline: pipeline, a: uint32(mesh), b: uint32(material)}
	b, err := r.batches.acquire(identity(pipeline, mesh, material), key, func(b *batch) error {
		return r.bindMaterial(b, mesh, material)
	})
	if err != nil {
		r.log.Debug("static submit", zap.Uint32("entity", uint32(id)), zap.Uint32("mesh", uint32(mesh)), zap.Error(err))
		return fmt.Errorf("static submit %d: %w", id, err)
	}
	_, err = r.batches.push(b, shader.StaticInstance{Model: model, Color: tint}.Encode())
	return err
}

// bindMaterial creates the material sets for a fresh lease. Both assets
// must resolve.
func (r *StaticMeshRenderer) bindMaterial(b *batch, mesh, material asset.ID) error {
	if _, err := r.assets.Mesh(mesh); err != nil {
		return err
	}
	sets, err := materialSets(r.device, r.assets, material)
	if err != nil {
		return err
	}
	b.sets = sets
	return nil
}

func (r *StaticMeshRenderer) Record(cmd *gpu.CommandBuffer) error {
	frame := cmd.Frame()
	return r.batches.record(frame, func(b *batch) bool {
		return !meshKeyResolves(r.assets, b.key)
	}, func(b *batch) error {
		mesh, _ := r.assets.Mesh(asset.ID(b.key.a))
		cmd.BindPipeline(b.key.pipeline)
		cmd.BindDescriptorSet(shader.SetFrame, r.globals.Set(frame))
		cmd.BindDescriptorSet(shader.SetMaterial, b.sets[frame])
		cmd.BindVertexBuffer(mesh.Vertex)
		cmd.BindIndexBuffer(mesh.Index)
		cmd.BindInstanceBuffer(b.instances[frame])
		cmd.DrawIndexed(mesh.IndexCount(), b.count)
		return nil
	})
}

func (r *StaticMeshRenderer) FreeBatches() error { return r.batches.freeAll() }

// materialSets allocates one material set per frame for material.
func materialSets(device *gpu.Device, assets *asset.Manager, material asset.ID) ([]*gpu.DescriptorSet, error) {
	mat, err := assets.Material(material)
	if err != nil {
		return nil, err
	}
	tex, err := assets.Texture(mat.Albedo)
	if err != nil {
		return nil, err
	}
	return device.AllocateDescriptorSets(shader.MaterialLayout, sameSets(device.FramesInFlight(),
		gpu.Binding{Slot: 0, Buffer: mat.Uniform},
		gpu.Binding{Slot: 1, Texture: tex.GPU},
	))
}

// meshKeyResolves reports whether the mesh, material and albedo behind
// key still exist.
func meshKeyResolves(assets *asset.Manager, key batchKey) bool {
	if !assets.Exists(asset.ID(key.a), asset.KindMesh) {
		return false
	}
	mat, err := assets.Material(asset.ID(key.b))
	if err != nil {
		return false
	}
	return assets.Exists(mat.Albedo, asset.KindTexture)
}
