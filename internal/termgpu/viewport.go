package termgpu

import "lumen/internal/mathx"

// CellAspect is the width of a terminal cell over its height.
const CellAspect = 0.5

// Viewport maps between normalized device coordinates and terminal cells.
// Rows at the bottom can be reserved for the HUD.
type Viewport struct {
	Width    int // in terminal columns
	Height   int // in terminal rows, HUD excluded
	Reserved int
}

// NewViewport creates a viewport for a screen of w×h cells with hud rows
// kept free at the bottom.
func NewViewport(w, h, hud int) Viewport {
	return Viewport{Width: w, Height: max(h-hud, 0), Reserved: hud}
}

// Aspect returns the camera aspect ratio that makes a square look square
// on this viewport.
func (v Viewport) Aspect() float32 {
	if v.Height == 0 {
		return 1
	}
	return float32(v.Width) * CellAspect / float32(v.Height)
}

// Size returns the viewport size in GUI units, one per cell.
func (v Viewport) Size() mathx.Vec2 { return mathx.V2(float32(v.Width), float32(v.Height)) }

// NDCToScreen converts x, y in [-1, 1] (y up) to fractional cell
// coordinates. visible is false when the point lies outside the viewport.
func (v Viewport) NDCToScreen(x, y float32) (sx, sy float32, visible bool) {
	sx = (x + 1) * 0.5 * float32(v.Width)
	sy = (1 - y) * 0.5 * float32(v.Height)
	visible = sx >= 0 && sx < float32(v.Width) && sy >= 0 && sy < float32(v.Height)
	return
}

// ScreenToNDC converts the centre of cell (sx, sy) to device coordinates.
func (v Viewport) ScreenToNDC(sx, sy int) (float32, float32) {
	x := (float32(sx)+0.5)/float32(v.Width)*2 - 1
	y := 1 - (float32(sy)+0.5)/float32(v.Height)*2
	return x, y
}
