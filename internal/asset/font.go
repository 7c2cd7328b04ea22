package asset

import (
	"fmt"

	"github.com/mattn/go-runewidth"

	"lumen/internal/mathx"
)

// FontDesc describes a monospace font built from a character set.
type FontDesc struct {
	Name       string
	Charset    string
	CellWidth  float32
	CellHeight float32
	Fallback   rune
}

// DefaultFontDesc covers printable ASCII and a few block glyphs, with one
// terminal cell per narrow glyph.
func DefaultFontDesc() FontDesc {
	cs := make([]rune, 0, 100)
	for r := rune(' '); r <= '~'; r++ {
		cs = append(cs, r)
	}
	cs = append(cs, '░', '▒', '▓', '█', '·')
	return FontDesc{Name: "default", Charset: string(cs), CellWidth: 1, CellHeight: 1, Fallback: '?'}
}

const glyphPixels = 4

// CreateFont builds the font's atlas texture and glyph table. Each glyph
// gets a square of glyphPixels per cell column, wide runes taking two.
func (m *Manager) CreateFont(desc FontDesc) (ID, error) {
	runes := []rune(desc.Charset)
	if len(runes) == 0 {
		return None, fmt.Errorf("create font %q: empty charset", desc.Name)
	}
	cols := 0
	for _, r := range runes {
		cols += max(runewidth.RuneWidth(r), 1)
	}
	width := cols * glyphPixels
	pixels := make([]byte, width*glyphPixels*4)
	for i := range pixels {
		pixels[i] = 255
	}
	atlas, err := m.CreateTexture(desc.Name+".atlas", width, glyphPixels, pixels)
	if err != nil {
		return None, fmt.Errorf("create font %q: %w", desc.Name, err)
	}

	f := &Font{
		Name:       desc.Name,
		Atlas:      atlas,
		CellWidth:  desc.CellWidth,
		CellHeight: desc.CellHeight,
		Glyphs:     make(map[rune]Glyph, len(runes)),
		Fallback:   desc.Fallback,
	}
	col := 0
	for _, r := range runes {
		w := max(runewidth.RuneWidth(r), 1)
		u0 := float32(col) / float32(cols)
		u1 := float32(col+w) / float32(cols)
		f.Glyphs[r] = Glyph{UV: mathx.V4(u0, 0, u1, 1)}
		col += w
	}
	if _, ok := f.Glyphs[f.Fallback]; !ok {
		f.Fallback = runes[0]
	}
	f.ID = m.add(KindFont, f)
	return f.ID, nil
}
