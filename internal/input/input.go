// Package input fans window events out to handlers registered by owner, so
// everything a scene registered can be dropped in one call when the scene
// goes away.
package input

import "github.com/gdamore/tcell/v2"

type Event interface{ isEvent() }

type Cursor struct{ X, Y int }

type MouseButton struct {
	Button  int // 0 primary, 1 secondary, 2 middle
	Pressed bool
	X, Y    int
}

type Key struct {
	Key  tcell.Key
	Rune rune
	Mod  tcell.ModMask
}

type Char struct{ Rune rune }

type Resize struct{ Width, Height int }

func (Cursor) isEvent()      {}
func (MouseButton) isEvent() {}
func (Key) isEvent()         {}
func (Char) isEvent()        {}
func (Resize) isEvent()      {}

// Owner identifies who registered a handler. Any comparable value works;
// scenes use themselves.
type Owner any

type handler[T any] struct {
	owner Owner
	fn    func(T)
}

type handlers[T any] []handler[T]

func (hs handlers[T]) call(ev T) {
	for _, h := range hs {
		h.fn(ev)
	}
}

func (hs handlers[T]) without(owner Owner) handlers[T] {
	out := hs[:0]
	for _, h := range hs {
		if h.owner != owner {
			out = append(out, h)
		}
	}
	clear(hs[len(out):])
	return out
}

// Manager dispatches events to handlers in registration order. It is used
// from the frame goroutine only.
type Manager struct {
	cursor  handlers[Cursor]
	buttons handlers[MouseButton]
	keys    handlers[Key]
	chars   handlers[Char]
	resizes handlers[Resize]
}

func NewManager() *Manager { return &Manager{} }

func (m *Manager) OnCursor(owner Owner, fn func(Cursor)) {
	m.cursor = append(m.cursor, handler[Cursor]{owner, fn})
}

func (m *Manager) OnMouseButton(owner Owner, fn func(MouseButton)) {
	m.buttons = append(m.buttons, handler[MouseButton]{owner, fn})
}

func (m *Manager) OnKey(owner Owner, fn func(Key)) {
	m.keys = append(m.keys, handler[Key]{owner, fn})
}

func (m *Manager) OnChar(owner Owner, fn func(Char)) {
	m.chars = append(m.chars, handler[Char]{owner, fn})
}

func (m *Manager) OnResize(owner Owner, fn func(Resize)) {
	m.resizes = append(m.resizes, handler[Resize]{owner, fn})
}

// Dispatch calls every handler registered for ev's type.
func (m *Manager) Dispatch(ev Event) {
	switch e := ev.(type) {
	case Cursor:
		m.cursor.call(e)
	case MouseButton:
		m.buttons.call(e)
	case Key:
		m.keys.call(e)
	case Char:
		m.chars.call(e)
	case Resize:
		m.resizes.call(e)
	}
}

// Unregister drops every handler registered by owner.
func (m *Manager) Unregister(owner Owner) {
	m.cursor = m.cursor.without(owner)
	m.buttons = m.buttons.without(owner)
	m.keys = m.keys.without(owner)
	m.chars = m.chars.without(owner)
	m.resizes = m.resizes.without(owner)
}

// Len returns the total number of registered handlers.
func (m *Manager) Len() int {
	return len(m.cursor) + len(m.buttons) + len(m.keys) + len(m.chars) + len(m.resizes)
}
