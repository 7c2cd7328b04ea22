package termgpu

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// putGlyph draws a single glyph at screen position (x, y). Wide glyphs
// blank the cell to their right.
func putGlyph(s tcell.Screen, x, y int, r rune, style tcell.Style) {
	s.SetContent(x, y, r, nil, style)
	if runewidth.RuneWidth(r) == 2 {
		s.SetContent(x+1, y, ' ', nil, style)
	}
}

// drawText writes text from (x, y), one cell per column of display width.
func drawText(s tcell.Screen, x, y int, text string, style tcell.Style) {
	col := x
	for _, ch := range text {
		putGlyph(s, col, y, ch, style)
		col += max(runewidth.RuneWidth(ch), 1)
	}
}

func drawHLine(s tcell.Screen, y int, color tcell.Color) {
	w, _ := s.Size()
	style := tcell.StyleDefault.Foreground(color)
	for x := 0; x < w; x++ {
		s.SetContent(x, y, '─', nil, style)
	}
}
