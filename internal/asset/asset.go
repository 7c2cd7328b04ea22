// Package asset owns textures, meshes, materials, fonts, skeletons and
// animations. The rest of the engine holds only their IDs and resolves
// them through a Manager each time, so a destroyed asset is noticed
// instead of dereferenced.
package asset

import (
	"errors"
	"fmt"
)

// ID names an asset. IDs are assigned in creation order and never reused
// within a Manager.
type ID uint32

// None is the zero ID; no asset has it.
const None ID = 0

type Kind uint8

const (
	KindTexture Kind = iota
	KindMesh
	KindMaterial
	KindFont
	KindSkeleton
	KindAnimation
)

func (k Kind) String() string {
	switch k {
	case KindTexture:
		return "texture"
	case KindMesh:
		return "mesh"
	case KindMaterial:
		return "material"
	case KindFont:
		return "font"
	case KindSkeleton:
		return "skeleton"
	case KindAnimation:
		return "animation"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

var (
	ErrNotFound     = errors.New("asset: not found")
	ErrKindMismatch = errors.New("asset: kind mismatch")
)
