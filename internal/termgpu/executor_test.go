package termgpu

import (
	"context"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap/zaptest"

	"lumen/internal/asset"
	"lumen/internal/component"
	"lumen/internal/config"
	"lumen/internal/gpu"
	"lumen/internal/input"
	"lumen/internal/mathx"
	"lumen/internal/render"
	"lumen/internal/scene"
)

func newSimScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	ss := tcell.NewSimulationScreen("UTF-8")
	if err := ss.Init(); err != nil {
		t.Fatalf("SimulationScreen.Init: %v", err)
	}
	ss.SetSize(40, 20)
	t.Cleanup(ss.Fini)
	return ss
}

// renderOnce populates a scene with populate and draws one frame of it.
func renderOnce(t *testing.T, exec *Executor, populate func(s *scene.Scene, svc scene.Services)) {
	t.Helper()
	log := zaptest.NewLogger(t)
	d := gpu.NewDevice(1, exec, log)
	t.Cleanup(func() { d.Close() })
	assets, err := asset.NewManager(d, log)
	if err != nil {
		t.Fatal(err)
	}
	svc := scene.Services{Device: d, Assets: assets, Input: input.NewManager(), Log: log, Config: config.Default()}
	s := scene.New("sim", svc, nil)
	populate(s, svc)
	rs, err := render.NewSet(svc)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	cmd, err := d.BeginFrame(ctx)
	if err != nil {
		t.Fatal(err)
	}
	rs.Begin(cmd.Frame())
	if err := rs.System().Update(s, 0); err != nil {
		t.Fatal(err)
	}
	if err := rs.Record(cmd, s, exec.Viewport().Size()); err != nil {
		t.Fatal(err)
	}
	d.Submit(cmd)
	if err := d.WaitIdle(ctx); err != nil {
		t.Fatal(err)
	}
}

func cell(s tcell.Screen, x, y int) rune {
	r, _, _, _ := s.GetContent(x, y)
	return r
}

func row(s tcell.Screen, y int) string {
	w, _ := s.Size()
	var b strings.Builder
	for x := 0; x < w; x++ {
		b.WriteRune(cell(s, x, y))
	}
	return b.String()
}

func TestTextLandsOnScreen(t *testing.T) {
	ss := newSimScreen(t)
	exec := New(ss, zaptest.NewLogger(t))
	renderOnce(t, exec, func(s *scene.Scene, svc scene.Services) {
		id := s.CreateEntity()
		scene.Add(s, id, component.GUITransform{Position: mathx.V2(3, 2)})
		scene.Add(s, id, component.TextRenderable{Font: svc.Assets.DefaultFont(), Text: "Hi"})
	})
	if got := cell(ss, 3, 2); got != 'H' {
		t.Fatalf("expected 'H' at (3,2), got %q", got)
	}
	if got := cell(ss, 4, 2); got != 'i' {
		t.Fatalf("expected 'i' at (4,2), got %q", got)
	}
	if draws, _ := exec.Stats(); draws != 1 {
		t.Fatalf("expected 1 draw, got %d", draws)
	}
}

func TestCubeCoversCentre(t *testing.T) {
	ss := newSimScreen(t)
	exec := New(ss, zaptest.NewLogger(t))
	exec.SetStatus(Status{Scene: "cube"})
	renderOnce(t, exec, func(s *scene.Scene, svc scene.Services) {
		cam := s.CreateEntity()
		scene.Add(s, cam, component.NewTransform(mathx.Translation(mathx.V3(0, 0, -4))))
		scene.Add(s, cam, component.Camera{FOV: mathx.Radians(60), Aspect: exec.Viewport().Aspect(), ZNear: 0.1, ZFar: 50})
		if err := s.SetActiveCamera(cam); err != nil {
			t.Fatal(err)
		}
		v, i := asset.Cube(2)
		mesh, _ := svc.Assets.CreateMesh("cube", v, i, false)
		mat, _ := svc.Assets.CreateMaterial("white", mathx.V4(1, 1, 1, 1), asset.None)
		id := s.CreateEntity()
		scene.Add(s, id, component.NewTransform(mathx.Identity()))
		scene.Add(s, id, component.StaticMeshRenderable{Mesh: mesh, Material: mat})
	})

	vp := exec.Viewport()
	if got := cell(ss, vp.Width/2, vp.Height/2); got == ' ' || got == 0 {
		t.Fatal("expected the cube to cover the centre cell")
	}
	if got := cell(ss, 0, 0); got != ' ' {
		t.Fatalf("expected an empty corner, got %q", got)
	}
	_, tris := exec.Stats()
	if tris != 12 {
		t.Fatalf("expected 12 triangles, got %d", tris)
	}
	if hud := row(ss, 19); !strings.Contains(hud, "cube") || !strings.Contains(hud, "draws 1") {
		t.Fatalf("expected the status line, got %q", hud)
	}
}

func TestRampGlyph(t *testing.T) {
	r := RampByName("blocks")
	cases := []struct {
		l    float32
		want rune
	}{
		{0, '░'},
		{0.5, '▒'},
		{1, '█'},
		{3, '█'},
	}
	for _, tc := range cases {
		if got := r.Glyph(tc.l); got != tc.want {
			t.Fatalf("Glyph(%v): expected %q, got %q", tc.l, tc.want, got)
		}
	}
	if RampByName("nope").Name != "ascii" {
		t.Fatal("expected the default ramp for an unknown name")
	}
}

func TestViewportMapping(t *testing.T) {
	vp := NewViewport(80, 26, HUDRows)
	if vp.Height != 24 {
		t.Fatalf("expected 24 rows above the HUD, got %d", vp.Height)
	}
	cases := []struct {
		x, y    float32
		sx, sy  float32
		visible bool
	}{
		{-1, 1, 0, 0, true},
		{0, 0, 40, 12, true},
		{1, -1, 80, 24, false},
	}
	for _, tc := range cases {
		sx, sy, vis := vp.NDCToScreen(tc.x, tc.y)
		if sx != tc.sx || sy != tc.sy || vis != tc.visible {
			t.Fatalf("NDCToScreen(%v,%v): expected (%v,%v,%v), got (%v,%v,%v)", tc.x, tc.y, tc.sx, tc.sy, tc.visible, sx, sy, vis)
		}
	}
	if a := vp.Aspect(); a != 80*CellAspect/24 {
		t.Fatalf("unexpected aspect %v", a)
	}
}
