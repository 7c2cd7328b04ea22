package render

import (
	"errors"
	"fmt"

	"lumen/internal/ecs"
	"lumen/internal/gpu"
	"lumen/internal/mathx"
	"lumen/internal/scene"
)

// Set is the engine's renderers plus the globals they share. It records
// in the order static, skinned, gui so the GUI lands on top.
type Set struct {
	Globals *Globals
	Static  *StaticMeshRenderer
	Skinned *SkinnedMeshRenderer
	GUI     *GUIRenderer
}

func NewSet(svc scene.Services) (*Set, error) {
	g, err := NewGlobals(svc.Device, svc.Config.Render.Ambient)
	if err != nil {
		return nil, fmt.Errorf("render globals: %w", err)
	}
	return &Set{
		Globals: g,
		Static:  NewStaticMeshRenderer(svc, g),
		Skinned: NewSkinnedMeshRenderer(svc, g),
		GUI:     NewGUIRenderer(svc, g),
	}, nil
}

func (rs *Set) All() []Renderer {
	return []Renderer{rs.Static, rs.Skinned, rs.GUI}
}

func (rs *Set) Begin(frame int) {
	for _, r := range rs.All() {
		r.Begin(frame)
	}
}

// Record writes the frame globals for s and records every renderer into
// cmd.
func (rs *Set) Record(cmd *gpu.CommandBuffer, s *scene.Scene, viewport mathx.Vec2) error {
	errs := []error{rs.Globals.Update(cmd.Frame(), s, viewport)}
	for _, r := range rs.All() {
		if err := r.Record(cmd); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// FreeBatches evicts every batch of every renderer.
func (rs *Set) FreeBatches() error {
	var errs []error
	for _, r := range rs.All() {
		errs = append(errs, r.FreeBatches())
	}
	return errors.Join(errs...)
}

// Close frees the batches and the globals.
func (rs *Set) Close() error {
	return errors.Join(rs.FreeBatches(), rs.Globals.Close())
}

// System returns the scene system that submits every drawable entity.
func (rs *Set) System() scene.System { return Submission{Renderers: rs.All()} }

// Submission hands every entity matching a renderer's queries to that
// renderer once, however many of its queries the entity matches. It runs
// last in the frame, after transforms settle.
type Submission struct {
	Renderers []Renderer
}

func (Submission) Name() string { return "submission" }

func (sub Submission) Update(s *scene.Scene, dt float32) error {
	var errs []error
	seen := make(map[ecs.EntityID]bool)
	for _, r := range sub.Renderers {
		clear(seen)
		for _, q := range r.Queries() {
			for _, id := range s.Query(q...) {
				if seen[id] {
					continue
				}
				seen[id] = true
				if err := r.Submit(s, id); err != nil {
					errs = append(errs, err)
				}
			}
		}
	}
	return errors.Join(errs...)
}
