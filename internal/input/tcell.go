package input

import "github.com/gdamore/tcell/v2"

// Translator turns tcell events into input events. It remembers which
// mouse buttons are down so releases can be reported.
type Translator struct {
	buttons tcell.ButtonMask
}

var mouseButtons = [...]tcell.ButtonMask{tcell.Button1, tcell.Button2, tcell.Button3}

// Translate returns the events ev stands for, or nil.
func (t *Translator) Translate(ev tcell.Event) []Event {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		out := []Event{Key{Key: ev.Key(), Rune: ev.Rune(), Mod: ev.Modifiers()}}
		if ev.Key() == tcell.KeyRune {
			out = append(out, Char{Rune: ev.Rune()})
		}
		return out
	case *tcell.EventMouse:
		x, y := ev.Position()
		out := []Event{Cursor{X: x, Y: y}}
		now := ev.Buttons()
		for i, b := range mouseButtons {
			was := t.buttons&b != 0
			is := now&b != 0
			if was != is {
				out = append(out, MouseButton{Button: i, Pressed: is, X: x, Y: y})
			}
		}
		t.buttons = now
		return out
	case *tcell.EventResize:
		w, h := ev.Size()
		return []Event{Resize{Width: w, Height: h}}
	}
	return nil
}

// Action is a viewer command bound to a key.
type Action uint8

const (
	ActionNone Action = iota
	ActionForward
	ActionBack
	ActionLeft
	ActionRight
	ActionUp
	ActionDown
	ActionTurnLeft
	ActionTurnRight
	ActionToggleAnimation
	ActionNextScene
	ActionQuit
)

// KeyToAction maps a key event to a viewer action.
func KeyToAction(k Key) Action {
	// Named keys.
	switch k.Key {
	case tcell.KeyUp:
		return ActionForward
	case tcell.KeyDown:
		return ActionBack
	case tcell.KeyRight:
		return ActionTurnRight
	case tcell.KeyLeft:
		return ActionTurnLeft
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return ActionQuit
	case tcell.KeyTab:
		return ActionNextScene
	case tcell.KeyRune:
	default:
		return ActionNone
	}

	// Rune keys.
	switch k.Rune {
	case 'w', 'W':
		return ActionForward
	case 's', 'S':
		return ActionBack
	case 'a', 'A':
		return ActionLeft
	case 'd', 'D':
		return ActionRight
	case 'e', 'E':
		return ActionUp
	case 'c', 'C':
		return ActionDown
	case 'q', 'Q':
		return ActionQuit
	case 'p', 'P', ' ':
		return ActionToggleAnimation
	case 'n', 'N':
		return ActionNextScene
	}
	return ActionNone
}
