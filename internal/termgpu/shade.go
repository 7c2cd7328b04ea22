package termgpu

import (
	"github.com/gdamore/tcell/v2"

	"lumen/internal/mathx"
)

// Ramp is the set of glyphs used to draw shaded surfaces, darkest first.
// Terminal colour carries the hue; the glyph carries the brightness so
// the picture still reads on a monochrome terminal.
type Ramp struct {
	Name   string
	Glyphs []rune
}

// Ramps lists the built-in ramps. Index 0 is the default.
var Ramps = []Ramp{
	{Name: "ascii", Glyphs: []rune(" .:-=+*#%@")},
	{Name: "blocks", Glyphs: []rune(" ░▒▓█")},
	{Name: "dots", Glyphs: []rune(" ·•●")},
}

// RampByName returns the named ramp, or the default.
func RampByName(name string) Ramp {
	for _, r := range Ramps {
		if r.Name == name {
			return r
		}
	}
	return Ramps[0]
}

// Glyph picks the glyph for brightness l in [0, 1]. Lit surfaces never
// use the blank glyph.
func (r Ramp) Glyph(l float32) rune {
	n := len(r.Glyphs) - 1
	i := int(l*float32(n) + 0.5)
	i = max(1, min(i, n))
	return r.Glyphs[i]
}

// Luminance returns the perceived brightness of an RGB colour.
func Luminance(c mathx.Vec3) float32 {
	return 0.2126*c[0] + 0.7152*c[1] + 0.0722*c[2]
}

// Color converts a linear [0, 1] colour to a terminal colour.
func Color(c mathx.Vec3) tcell.Color {
	return tcell.NewRGBColor(channel(c[0]), channel(c[1]), channel(c[2]))
}

func channel(f float32) int32 {
	return int32(max(0, min(f, 1))*255 + 0.5)
}
