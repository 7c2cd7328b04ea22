package input

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

type owner struct{ name string }

func TestDispatchAndUnregister(t *testing.T) {
	m := NewManager()
	sceneA := &owner{"a"}
	sceneB := &owner{"b"}
	var got []string

	m.OnKey(sceneA, func(Key) { got = append(got, "a-key") })
	m.OnKey(sceneB, func(Key) { got = append(got, "b-key") })
	m.OnChar(sceneA, func(c Char) { got = append(got, "a-"+string(c.Rune)) })
	m.OnResize(sceneA, func(Resize) { got = append(got, "a-resize") })

	m.Dispatch(Key{Key: tcell.KeyEnter})
	m.Dispatch(Char{Rune: 'x'})
	if len(got) != 3 || got[0] != "a-key" || got[1] != "b-key" || got[2] != "a-x" {
		t.Fatalf("unexpected dispatch order %v", got)
	}

	m.Unregister(sceneA)
	if m.Len() != 1 {
		t.Fatalf("expected 1 handler left, got %d", m.Len())
	}
	got = nil
	m.Dispatch(Key{Key: tcell.KeyEnter})
	m.Dispatch(Resize{Width: 80, Height: 24})
	if len(got) != 1 || got[0] != "b-key" {
		t.Fatalf("expected only b's handler, got %v", got)
	}
}

func TestTranslateKeys(t *testing.T) {
	var tr Translator
	evs := tr.Translate(tcell.NewEventKey(tcell.KeyRune, 'w', tcell.ModNone))
	if len(evs) != 2 {
		t.Fatalf("expected key and char events, got %v", evs)
	}
	if c, ok := evs[1].(Char); !ok || c.Rune != 'w' {
		t.Fatalf("expected Char w, got %v", evs[1])
	}
	evs = tr.Translate(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone))
	if len(evs) != 1 {
		t.Fatalf("expected a lone key event, got %v", evs)
	}
}

func TestTranslateMouseReportsPressAndRelease(t *testing.T) {
	var tr Translator
	evs := tr.Translate(tcell.NewEventMouse(3, 4, tcell.Button1, tcell.ModNone))
	if len(evs) != 2 {
		t.Fatalf("expected cursor and press, got %v", evs)
	}
	if b := evs[1].(MouseButton); !b.Pressed || b.Button != 0 || b.X != 3 {
		t.Fatalf("unexpected press %+v", b)
	}
	evs = tr.Translate(tcell.NewEventMouse(5, 4, tcell.ButtonNone, tcell.ModNone))
	if len(evs) != 2 || evs[1].(MouseButton).Pressed {
		t.Fatalf("expected a release, got %v", evs)
	}
	evs = tr.Translate(tcell.NewEventMouse(6, 4, tcell.ButtonNone, tcell.ModNone))
	if len(evs) != 1 {
		t.Fatalf("expected cursor only, got %v", evs)
	}
}

func TestKeyToAction(t *testing.T) {
	cases := []struct {
		name string
		key  Key
		want Action
	}{
		{"arrow up", Key{Key: tcell.KeyUp}, ActionForward},
		{"escape", Key{Key: tcell.KeyEscape}, ActionQuit},
		{"w", Key{Key: tcell.KeyRune, Rune: 'w'}, ActionForward},
		{"D", Key{Key: tcell.KeyRune, Rune: 'D'}, ActionRight},
		{"space", Key{Key: tcell.KeyRune, Rune: ' '}, ActionToggleAnimation},
		{"unbound rune", Key{Key: tcell.KeyRune, Rune: 'z'}, ActionNone},
		{"unbound key", Key{Key: tcell.KeyF5}, ActionNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := KeyToAction(tc.key); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}
