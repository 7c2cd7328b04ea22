package factory

import (
	"fmt"

	"lumen/internal/asset"
	"lumen/internal/component"
	"lumen/internal/ecs"
	"lumen/internal/mathx"
	"lumen/internal/scene"
)

// builder adds components to one new entity and remembers the first
// failure. done destroys the entity if anything failed.
type builder struct {
	s   *scene.Scene
	id  ecs.EntityID
	err error
}

func build(s *scene.Scene) *builder {
	return &builder{s: s, id: s.CreateEntity()}
}

func with[T component.Component](b *builder, c T) *builder {
	if b.err == nil {
		_, b.err = scene.Add(b.s, b.id, c)
	}
	return b
}

func (b *builder) done(what string) (ecs.EntityID, error) {
	if b.err != nil {
		b.s.DestroyEntity(b.id)
		return ecs.NullEntity, fmt.Errorf("%s: %w", what, b.err)
	}
	return b.id, nil
}

// NewCamera creates a camera at local. An active camera becomes the
// scene's camera.
func NewCamera(s *scene.Scene, cam component.Camera, local mathx.Mat4, active bool) (ecs.EntityID, error) {
	b := build(s)
	with(b, component.NewTransform(local))
	with(b, cam)
	id, err := b.done("new camera")
	if err != nil || !active {
		return id, err
	}
	return id, s.SetActiveCamera(id)
}

// NewDirectionalLight creates a light shining along dir.
func NewDirectionalLight(s *scene.Scene, dir, color mathx.Vec3, maxShadow float32) (ecs.EntityID, error) {
	return with(build(s), component.Light{
		Type:              component.Directional,
		Direction:         dir.Normalize(),
		Color:             color,
		MaxShadowDistance: maxShadow,
	}).done("new light")
}

// NewStaticMesh creates a mesh instance at local.
func NewStaticMesh(s *scene.Scene, mesh, material asset.ID, local mathx.Mat4, tint mathx.Vec4) (ecs.EntityID, error) {
	b := build(s)
	with(b, component.NewTransform(local))
	with(b, component.StaticMeshRenderable{Mesh: mesh, Material: material, Tint: tint})
	return b.done("new static mesh")
}

// NewTerrain creates a terrain mesh at local.
func NewTerrain(s *scene.Scene, mesh, material asset.ID, local mathx.Mat4) (ecs.EntityID, error) {
	b := build(s)
	with(b, component.NewTransform(local))
	with(b, component.TerrainMeshRenderable{Mesh: mesh, Material: material})
	return b.done("new terrain")
}

// SkinnedDesc describes a skinned mesh and the animation it plays.
type SkinnedDesc struct {
	Mesh      asset.ID
	Material  asset.ID
	Skeleton  asset.ID
	Animation asset.ID // asset.None for a static pose
	Mode      component.PlayMode
	Tint      mathx.Vec4
}

// NewSkinnedMesh creates the mesh entity and one joint entity per bone.
// Joints are attached under the mesh entity following the skeleton's
// hierarchy, each starting at its bind transform.
func NewSkinnedMesh(s *scene.Scene, desc SkinnedDesc, local mathx.Mat4) (ecs.EntityID, error) {
	skel, err := s.Assets().Skeleton(desc.Skeleton)
	if err != nil {
		return ecs.NullEntity, fmt.Errorf("new skinned mesh: %w", err)
	}
	root, err := with(build(s), component.NewTransform(local)).done("new skinned mesh")
	if err != nil {
		return root, err
	}

	joints := make([]ecs.EntityID, len(skel.Bones))
	for i, bone := range skel.Bones {
		if bone.Parent < 0 {
			if err := newJoint(s, skel, i, root, joints); err != nil {
				s.DestroyEntity(root)
				return ecs.NullEntity, fmt.Errorf("new skinned mesh: %w", err)
			}
		}
	}

	b := &builder{s: s, id: root}
	with(b, component.SkinnedMeshRenderable{Mesh: desc.Mesh, Material: desc.Material, Tint: desc.Tint, Joints: joints})
	if desc.Animation != asset.None {
		anim, err := s.Assets().Animation(desc.Animation)
		if err != nil {
			b.err = err
		} else {
			with(b, component.SkeletalAnimation{
				Animation: desc.Animation,
				Length:    anim.Length,
				Mode:      desc.Mode,
				Joints:    joints,
			})
		}
	}
	return b.done("new skinned mesh")
}

// newJoint creates bone i under parent, then its children depth first.
func newJoint(s *scene.Scene, skel *asset.Skeleton, i int, parent ecs.EntityID, joints []ecs.EntityID) error {
	bone := skel.Bones[i]
	b := build(s)
	with(b, component.NewTransform(bone.Bind))
	with(b, component.Joint{Index: i, InverseBind: bone.InverseBind})
	id, err := b.done(fmt.Sprintf("joint %s", bone.Name))
	if err != nil {
		return err
	}
	if err := s.AddChild(parent, id); err != nil {
		s.DestroyEntity(id)
		return fmt.Errorf("joint %s: %w", bone.Name, err)
	}
	joints[i] = id
	for _, c := range skel.Children(i) {
		if err := newJoint(s, skel, c, id, joints); err != nil {
			return err
		}
	}
	return nil
}

// NewImage creates a GUI rectangle showing texture.
func NewImage(s *scene.Scene, texture asset.ID, pos, size mathx.Vec2, layer int, color mathx.Vec4) (ecs.EntityID, error) {
	b := build(s)
	with(b, component.GUITransform{Position: pos, Size: size, Layer: layer})
	with(b, component.GUIRenderable{Texture: texture, Color: color})
	return b.done("new image")
}

// NewText creates a line of GUI text. A zero font means the default font.
func NewText(s *scene.Scene, font asset.ID, text string, pos mathx.Vec2, layer int, color mathx.Vec4, scale float32) (ecs.EntityID, error) {
	if font == asset.None {
		font = s.Assets().DefaultFont()
	}
	b := build(s)
	with(b, component.GUITransform{Position: pos, Layer: layer})
	with(b, component.TextRenderable{Font: font, Text: text, Color: color, Scale: scale})
	return b.done("new text")
}
