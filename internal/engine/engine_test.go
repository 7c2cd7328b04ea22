package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap/zaptest"

	"lumen/assets"
	"lumen/internal/component"
	"lumen/internal/config"
	"lumen/internal/input"
	"lumen/internal/scene"
	"lumen/internal/script"
	"lumen/internal/termgpu"
)

var scenes = fstest.MapFS{
	"scenes/a.yaml": {Data: []byte(`
name: alpha
script: a.lua
assets:
  meshes:
    - {name: box, cube: 1}
  materials:
    - {name: grey, color: [0.5, 0.5, 0.5, 1]}
entities:
  - camera: {active: true}
    transform: {position: [0, 0, -4]}
  - light: {direction: [0, -1, 1]}
  - mesh: {mesh: box, material: grey}
  - text: {text: hello, position: [1, 1]}
`)},
	"scenes/a.lua": {Data: []byte(`frames = 0
function update(dt) frames = frames + 1 end`)},
	"scenes/b.lua": {Data: []byte(`function populate() lumen.text("beta", 2, 3) end`)},
}

func newEngine(t *testing.T) (*Engine, tcell.SimulationScreen) {
	t.Helper()
	ss := tcell.NewSimulationScreen("UTF-8")
	if err := ss.Init(); err != nil {
		t.Fatal(err)
	}
	ss.SetSize(40, 20)
	t.Cleanup(ss.Fini)
	e, err := New(config.Default(), ss, zaptest.NewLogger(t), termgpu.WithShadowSize(0))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := e.Close(); err != nil {
			t.Error(err)
		}
	})
	return e, ss
}

func load(t *testing.T, names ...string) []Source {
	t.Helper()
	var out []Source
	for _, n := range names {
		src, err := LoadSource(scenes, n)
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, src)
	}
	return out
}

func frames(t *testing.T, e *Engine, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		if err := e.Frame(ctx, 1.0/30); err != nil {
			t.Fatal(err)
		}
	}
	if err := e.svc.Device.WaitIdle(ctx); err != nil {
		t.Fatal(err)
	}
}

func row(s tcell.Screen, y int) string {
	w, _ := s.Size()
	var b strings.Builder
	for x := 0; x < w; x++ {
		r, _, _, _ := s.GetContent(x, y)
		b.WriteRune(r)
	}
	return b.String()
}

func TestLoadSource(t *testing.T) {
	cases := []struct {
		file      string
		name      string
		hasFile   bool
		hasScript bool
	}{
		{"scenes/a.yaml", "alpha", true, true},
		{"scenes/b.lua", "b", false, true},
	}
	for _, tc := range cases {
		t.Run(tc.file, func(t *testing.T) {
			src := load(t, tc.file)[0]
			if src.Name != tc.name || (src.File != nil) != tc.hasFile || src.hasScript() != tc.hasScript {
				t.Fatalf("unexpected source %+v", src)
			}
		})
	}
	if _, err := LoadSource(scenes, "scenes/missing.yaml"); err == nil {
		t.Fatal("expected an error for a missing scene")
	}
}

func TestFrameBuildsAndDrawsScene(t *testing.T) {
	e, ss := newEngine(t)
	e.Load(load(t, "scenes/a.yaml")...)
	frames(t, e, 3)

	s := e.Scenes().Current()
	if s == nil || s.Name() != "alpha" {
		t.Fatalf("expected scene alpha, got %v", s)
	}
	names := make([]string, 0, len(s.Systems()))
	for _, sys := range s.Systems() {
		names = append(names, sys.Name())
	}
	want := "script fly_camera animation pose transform light submission"
	if got := strings.Join(names, " "); got != want {
		t.Fatalf("expected systems %q, got %q", want, got)
	}
	cams := s.Query(component.KindCamera)
	cam, _ := scene.Get[component.Camera](s, cams[0])
	if cam.Aspect != e.exec.Viewport().Aspect() {
		t.Fatalf("expected camera aspect %v, got %v", e.exec.Viewport().Aspect(), cam.Aspect)
	}
	if got := row(ss, 1); !strings.Contains(got, "hello") {
		t.Fatalf("expected the text on row 1, got %q", got)
	}
	if hud := row(ss, 19); !strings.Contains(hud, "alpha") {
		t.Fatalf("expected the scene name in the status bar, got %q", hud)
	}
}

func TestNextSceneKey(t *testing.T) {
	e, ss := newEngine(t)
	e.Load(load(t, "scenes/a.yaml", "scenes/b.lua")...)
	frames(t, e, 1)

	e.svc.Input.Dispatch(input.Key{Key: tcell.KeyTab})
	if !e.Scenes().Pending() {
		t.Fatal("expected a queued scene switch")
	}
	frames(t, e, 2)
	if got := e.Scenes().Current().Name(); got != "b" {
		t.Fatalf("expected scene b, got %q", got)
	}
	if got := row(ss, 3); !strings.Contains(got, "beta") {
		t.Fatalf("expected the new scene's text, got %q", got)
	}
	if got := row(ss, 1); strings.Contains(got, "hello") {
		t.Fatal("old scene's text still on screen")
	}

	e.svc.Input.Dispatch(input.Key{Key: tcell.KeyTab})
	frames(t, e, 1)
	if got := e.Scenes().Current().Name(); got != "alpha" {
		t.Fatalf("expected the playlist to wrap to alpha, got %q", got)
	}
}

func TestQuitKeyStopsRun(t *testing.T) {
	e, _ := newEngine(t)
	e.Load(load(t, "scenes/b.lua")...)
	e.svc.Input.Dispatch(input.Key{Key: tcell.KeyRune, Rune: 'q'})
	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("expected a clean stop, got %v", err)
	}
}

func TestRunWithoutScenes(t *testing.T) {
	e, _ := newEngine(t)
	if err := e.Run(context.Background()); !errors.Is(err, ErrNoScenes) {
		t.Fatalf("expected ErrNoScenes, got %v", err)
	}
}

func TestBadSceneIsReported(t *testing.T) {
	e, _ := newEngine(t)
	e.Load(Source{Name: "broken", Script: script.Source{Code: "function populate() error('boom') end"}})
	frames(t, e, 1)
	if !strings.Contains(e.message, "boom") {
		t.Fatalf("expected the populate error in the status message, got %q", e.message)
	}
}

func TestDemos(t *testing.T) {
	demos, err := Demos(7)
	if err != nil {
		t.Fatal(err)
	}
	if len(demos) != len(assets.Playlist)+1 {
		t.Fatalf("expected the embedded scenes plus the labyrinth, got %d", len(demos))
	}
	for _, src := range demos {
		t.Run(src.Name, func(t *testing.T) {
			e, _ := newEngine(t)
			e.Load(src)
			frames(t, e, 4)
			if e.message != "" {
				t.Fatalf("expected a clean run, got %q", e.message)
			}
			if s := e.Scenes().Current(); s == nil || s.EntityCount() == 0 {
				t.Fatal("expected a populated scene")
			}
		})
	}
}
