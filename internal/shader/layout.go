// Package shader fixes the memory layout shared by the renderers, which
// write buffers, and the executors, which read them. All values are
// little-endian float32 unless noted.
package shader

import (
	"github.com/gogpu/gputypes"

	"lumen/internal/gpu"
)

// Pipelines understood by every executor.
const (
	Static  gpu.Pipeline = "static"
	Terrain gpu.Pipeline = "terrain"
	Skinned gpu.Pipeline = "skinned"
	GUI     gpu.Pipeline = "gui"
)

// Descriptor set indices.
const (
	SetFrame    = 0
	SetMaterial = 1
	SetSkin     = 2
)

// Byte sizes of the encoded records.
const (
	VertexSize          = 52
	GlobalsSize         = 304
	MaterialSize        = 16
	StaticInstanceSize  = 80
	SkinnedInstanceSize = 96
	GUIInstanceSize     = 56
	JointSize           = 64
)

// FrameLayout is set 0: the per-frame globals uniform.
var FrameLayout = &gpu.DescriptorLayout{
	Name: "frame",
	Entries: []gputypes.BindGroupLayoutEntry{{
		Binding:    0,
		Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
	}},
}

// MaterialLayout is set 1 for meshes: material constants and albedo.
var MaterialLayout = &gpu.DescriptorLayout{
	Name: "material",
	Entries: []gputypes.BindGroupLayoutEntry{
		{
			Binding:    0,
			Visibility: gputypes.ShaderStageFragment,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		},
		{
			Binding:    1,
			Visibility: gputypes.ShaderStageFragment,
			Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			},
		},
	},
}

// ImageLayout is set 1 for GUI batches: the image or glyph atlas.
var ImageLayout = &gpu.DescriptorLayout{
	Name: "image",
	Entries: []gputypes.BindGroupLayoutEntry{{
		Binding:    0,
		Visibility: gputypes.ShaderStageFragment,
		Texture: &gputypes.TextureBindingLayout{
			SampleType:    gputypes.TextureSampleTypeFloat,
			ViewDimension: gputypes.TextureViewDimension2D,
		},
	}},
}

// SkinLayout is set 2 for skinned batches: the joint palette storage buffer.
var SkinLayout = &gpu.DescriptorLayout{
	Name: "skin",
	Entries: []gputypes.BindGroupLayoutEntry{{
		Binding:    0,
		Visibility: gputypes.ShaderStageVertex,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
	}},
}
