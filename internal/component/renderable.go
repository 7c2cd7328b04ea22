package component

import (
	"lumen/internal/asset"
	"lumen/internal/ecs"
	"lumen/internal/mathx"
)

type StaticMeshRenderable struct {
	Mesh     asset.ID
	Material asset.ID
	Tint     mathx.Vec4
}

func (StaticMeshRenderable) Kind() ecs.Kind { return KindStaticMesh }

// TerrainMeshRenderable is drawn by the static mesh renderer with the
// terrain pipeline.
type TerrainMeshRenderable struct {
	Mesh     asset.ID
	Material asset.ID
}

func (TerrainMeshRenderable) Kind() ecs.Kind { return KindTerrainMesh }

// SkinnedMeshRenderable is deformed by the joint entities in Joints,
// indexed by bone.
type SkinnedMeshRenderable struct {
	Mesh     asset.ID
	Material asset.ID
	Tint     mathx.Vec4
	Joints   []ecs.EntityID
}

func (SkinnedMeshRenderable) Kind() ecs.Kind { return KindSkinnedMesh }

// GUIRenderable draws a textured rectangle at the entity's GUITransform.
type GUIRenderable struct {
	Texture asset.ID
	Color   mathx.Vec4
	UV      mathx.Vec4 // u0, v0, u1, v1; zero means the whole texture
}

func (GUIRenderable) Kind() ecs.Kind { return KindGUI }

// TextRenderable draws a line of text at the entity's GUITransform.
type TextRenderable struct {
	Font  asset.ID
	Text  string
	Color mathx.Vec4
	Scale float32
}

func (TextRenderable) Kind() ecs.Kind { return KindText }
