package gpu

import "github.com/gogpu/gputypes"

// TextureDesc describes a 2D texture.
type TextureDesc struct {
	Label  string
	Width  int
	Height int
	Format gputypes.TextureFormat
}

// Texture is an RGBA8 2D image owned by the device.
type Texture struct {
	id        uint32
	desc      TextureDesc
	pixels    []byte
	destroyed bool
}

func (t *Texture) ID() uint32        { return t.id }
func (t *Texture) Desc() TextureDesc { return t.desc }
func (t *Texture) Width() int        { return t.desc.Width }
func (t *Texture) Height() int       { return t.desc.Height }

// Texel returns the RGBA value at (x, y), clamped to the texture edges.
func (t *Texture) Texel(x, y int) [4]uint8 {
	x = min(max(x, 0), t.desc.Width-1)
	y = min(max(y, 0), t.desc.Height-1)
	i := (y*t.desc.Width + x) * 4
	return [4]uint8{t.pixels[i], t.pixels[i+1], t.pixels[i+2], t.pixels[i+3]}
}

// Sample returns the texel nearest to normalized coordinates (u, v).
func (t *Texture) Sample(u, v float32) [4]uint8 {
	return t.Texel(int(u*float32(t.desc.Width)), int(v*float32(t.desc.Height)))
}
