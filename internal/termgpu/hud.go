package termgpu

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
)

// HUDRows is the number of rows the status bar takes at the bottom of
// the screen.
const HUDRows = 2

// Status is the text shown in the status bar.
type Status struct {
	Scene   string
	FPS     float32
	Message string
}

// drawHUD renders the separator and status line under the viewport.
func (e *Executor) drawHUD(st Status, frame int, stats frameStats) {
	_, h := e.screen.Size()
	y := h - HUDRows
	if y < 0 {
		return
	}
	drawHLine(e.screen, y, tcell.ColorGray)

	line := fmt.Sprintf("%s  %.0f fps  frame %d  draws %d  tris %d",
		st.Scene, st.FPS, frame, stats.draws, stats.triangles)
	if st.Message != "" {
		line += "  " + st.Message
	}
	drawText(e.screen, 0, y+1, line, tcell.StyleDefault.Foreground(tcell.ColorWhite))
}
