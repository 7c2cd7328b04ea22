package system

import (
	"errors"
	"math"
	"testing"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap/zaptest"

	"lumen/internal/asset"
	"lumen/internal/component"
	"lumen/internal/config"
	"lumen/internal/ecs"
	"lumen/internal/gpu"
	"lumen/internal/input"
	"lumen/internal/mathx"
	"lumen/internal/scene"
)

func newScene(t *testing.T) *scene.Scene {
	t.Helper()
	log := zaptest.NewLogger(t)
	d := gpu.NewDevice(2, nil, log)
	t.Cleanup(func() { d.Close() })
	assets, err := asset.NewManager(d, log)
	if err != nil {
		t.Fatal(err)
	}
	svc := scene.Services{Device: d, Assets: assets, Input: input.NewManager(), Log: log, Config: config.Default()}
	return scene.New("test", svc, nil)
}

func addAnimation(t *testing.T, s *scene.Scene, a component.SkeletalAnimation) *component.SkeletalAnimation {
	t.Helper()
	got, err := scene.Add(s, s.CreateEntity(), a)
	if err != nil {
		t.Fatal(err)
	}
	return got
}

func TestAnimationClock(t *testing.T) {
	cases := []struct {
		name  string
		mode  component.PlayMode
		steps int
		want  float32
	}{
		{"loop wraps at length", component.Loop, 10, 0},
		{"loop mid way", component.Loop, 4, 0.4},
		{"play once freezes", component.PlayOnce, 12, 1.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newScene(t)
			a := addAnimation(t, s, component.SkeletalAnimation{Length: 1, Mode: tc.mode})
			for i := 0; i < tc.steps; i++ {
				if err := (Animation{}).Update(s, 0.1); err != nil {
					t.Fatal(err)
				}
			}
			if math.Abs(float64(a.Time-tc.want)) > 1e-4 {
				t.Fatalf("expected time %v, got %v", tc.want, a.Time)
			}
		})
	}
}

func TestAnimationLeavesStoppedAlone(t *testing.T) {
	s := newScene(t)
	a := addAnimation(t, s, component.SkeletalAnimation{Length: 0.5, Mode: component.PlayOnce})
	for i := 0; i < 20; i++ {
		(Animation{}).Update(s, 0.1)
	}
	if a.Stopped {
		t.Fatal("the clock must not set Stopped when a play-once animation ends")
	}
	a.Stopped = true
	before := a.Time
	(Animation{}).Update(s, 0.1)
	if a.Time != before {
		t.Fatalf("expected a finished animation to hold %v, got %v", before, a.Time)
	}
}

func TestPoseWritesJointLocals(t *testing.T) {
	s := newScene(t)
	animID, err := s.Assets().CreateAnimation("slide", 1, []asset.Channel{{
		Bone: 0,
		Keys: []asset.Keyframe{
			{Time: 0, Rotation: mathx.QuatIdentity(), Scale: mathx.V3(1, 1, 1)},
			{Time: 1, Translation: mathx.V3(10, 0, 0), Rotation: mathx.QuatIdentity(), Scale: mathx.V3(1, 1, 1)},
		},
	}, {
		Bone: 5,
	}})
	if err != nil {
		t.Fatal(err)
	}
	joint := s.CreateEntity()
	jt, _ := scene.Add(s, joint, component.NewTransform(mathx.Identity()))
	a := addAnimation(t, s, component.SkeletalAnimation{
		Animation: animID, Length: 1, Time: 0.5, Joints: []ecs.EntityID{joint},
	})

	if err := (Pose{}).Update(s, 0); err != nil {
		t.Fatal(err)
	}
	if got := jt.Local.TranslationPart(); !got.ApproxEqual(mathx.V3(5, 0, 0)) {
		t.Fatalf("expected joint at (5,0,0), got %v", got)
	}

	a.Stopped = true
	a.Time = 0.9
	(Pose{}).Update(s, 0)
	if got := jt.Local.TranslationPart(); !got.ApproxEqual(mathx.V3(5, 0, 0)) {
		t.Fatalf("a stopped animation must hold its pose, got %v", got)
	}
}

func TestTransformPropagation(t *testing.T) {
	s := newScene(t)
	root := s.CreateEntity()
	rt, _ := scene.Add(s, root, component.NewTransform(mathx.Translation(mathx.V3(1, 0, 0))))
	mid := s.CreateEntity()
	scene.Add(s, mid, component.NewTransform(mathx.Identity()))
	leaf := s.CreateEntity()
	scene.Add(s, leaf, component.NewTransform(mathx.Identity()))
	if err := s.AddChild(root, mid); err != nil {
		t.Fatal(err)
	}
	if err := s.AddChild(mid, leaf); err != nil {
		t.Fatal(err)
	}
	mt, _ := scene.Get[component.Transform](s, mid)
	lt, _ := scene.Get[component.Transform](s, leaf)
	mt.Local = mathx.Translation(mathx.V3(0, 2, 0))
	lt.Local = mathx.Translation(mathx.V3(0, 0, 3))

	for i := 0; i < 2; i++ {
		if err := (Transforms{}).Update(s, 0); err != nil {
			t.Fatal(err)
		}
		if got := lt.Global.TranslationPart(); !got.ApproxEqual(mathx.V3(1, 2, 3)) {
			t.Fatalf("pass %d: expected leaf at (1,2,3), got %v", i, got)
		}
		if got := mt.Global; !got.ApproxEqual(rt.Global.Mul(mt.Local)) {
			t.Fatalf("pass %d: expected mid global P*L, got %v", i, got)
		}
	}
	if got := rt.Global.TranslationPart(); !got.ApproxEqual(mathx.V3(1, 0, 0)) {
		t.Fatalf("root global must be left alone, got %v", got)
	}

	midFirst, leafFirst := mt.Global, lt.Global
	if err := (Transforms{}).Update(s, 0); err != nil {
		t.Fatal(err)
	}
	if mt.Global != midFirst || lt.Global != leafFirst {
		t.Fatalf("expected bit-identical globals on a repeat pass, got %v and %v", mt.Global, lt.Global)
	}
}

func TestTransformSkipsSubtreeWithoutTransform(t *testing.T) {
	s := newScene(t)
	root := s.CreateEntity()
	scene.Add(s, root, component.NewTransform(mathx.Translation(mathx.V3(1, 0, 0))))
	bare := s.CreateEntity()
	leaf := s.CreateEntity()
	lt, _ := scene.Add(s, leaf, component.NewTransform(mathx.Identity()))
	s.AddChild(root, bare)
	s.AddChild(bare, leaf)

	(Transforms{}).Update(s, 0)
	if !lt.Global.ApproxEqual(mathx.Identity()) {
		t.Fatalf("expected the leaf under a bare entity to be skipped, got %v", lt.Global)
	}
}

func TestTransformSkipsLoneJoint(t *testing.T) {
	s := newScene(t)
	id := s.CreateEntity()
	tr, _ := scene.Add(s, id, component.NewTransform(mathx.Identity()))
	scene.Add(s, id, component.Joint{})
	tr.Local = mathx.Translation(mathx.V3(4, 0, 0))

	(Transforms{}).Update(s, 0)
	if !tr.Global.ApproxEqual(mathx.Identity()) {
		t.Fatalf("a root without children is not visited, got %v", tr.Global)
	}
}

func addCamera(t *testing.T, s *scene.Scene, cam component.Camera, global mathx.Mat4) ecs.EntityID {
	t.Helper()
	id := s.CreateEntity()
	scene.Add(s, id, component.NewTransform(global))
	if _, err := scene.Add(s, id, cam); err != nil {
		t.Fatal(err)
	}
	if err := s.SetActiveCamera(id); err != nil {
		t.Fatal(err)
	}
	return id
}

func TestLightFitsCameraFrustum(t *testing.T) {
	s := newScene(t)
	cam := component.Camera{FOV: mathx.Radians(90), Aspect: 1, ZNear: 0.1, ZFar: 100}
	addCamera(t, s, cam, mathx.Identity())
	l, _ := scene.Add(s, s.CreateEntity(), component.Light{
		Type: component.Directional, Direction: mathx.V3(0, -1, 1).Normalize(), MaxShadowDistance: 50,
	})

	if err := (Lights{}).Update(s, 0); err != nil {
		t.Fatal(err)
	}
	b := l.Bounds
	nearHalf := cam.ZNear * float32(math.Tan(float64(cam.FOV/2)))
	if b.Width <= nearHalf || b.Height <= nearHalf {
		t.Fatalf("expected bounds wider than the near half extent %v, got %vx%v", nearHalf, b.Width, b.Height)
	}
	if math.Abs(float64(b.Width-100)) > 1e-3 || math.Abs(float64(b.Height-100)) > 1e-3 {
		t.Fatalf("expected 100x100 at the far plane, got %vx%v", b.Width, b.Height)
	}
	if b.MinZ != 50 || math.Abs(float64(b.MaxZ-0.1)) > 1e-6 {
		t.Fatalf("expected MinZ 50 and MaxZ 0.1, got %v and %v", b.MinZ, b.MaxZ)
	}
	if math.Abs(float64(b.Depth-49.9)) > 1e-4 {
		t.Fatalf("expected depth 49.9, got %v", b.Depth)
	}
	if !b.Centroid.ApproxEqual(mathx.V3(0, 0, 25.05)) {
		t.Fatalf("expected centroid (0,0,25.05), got %v", b.Centroid)
	}
	if l.Projection.ApproxEqual(mathx.Mat4{}) || l.View.ApproxEqual(mathx.Mat4{}) {
		t.Fatal("expected view and projection written")
	}
	// The centroid sits at the origin of light space.
	if got := l.View.TransformPoint(b.Centroid); !got.ApproxEqual(mathx.Zero3) {
		t.Fatalf("expected centroid at the light origin, got %v", got)
	}
}

func TestLightFollowsCamera(t *testing.T) {
	s := newScene(t)
	cam := component.Camera{FOV: mathx.Radians(60), Aspect: 2, ZNear: 1, ZFar: 100}
	addCamera(t, s, cam, mathx.Translation(mathx.V3(10, 5, 0)))
	l, _ := scene.Add(s, s.CreateEntity(), component.Light{Direction: mathx.V3(0, -1, 0), MaxShadowDistance: 20})

	(Lights{}).Update(s, 0)
	if math.Abs(float64(l.Bounds.Width-2*l.Bounds.Height)) > 1e-3 {
		t.Fatalf("expected width twice the height, got %vx%v", l.Bounds.Width, l.Bounds.Height)
	}
	if c := l.Bounds.Centroid; math.Abs(float64(c[0]-10)) > 1e-4 || math.Abs(float64(c[1]-5)) > 1e-4 {
		t.Fatalf("expected centroid over the camera, got %v", c)
	}
}

func TestLightWithoutCamera(t *testing.T) {
	s := newScene(t)
	l, _ := scene.Add(s, s.CreateEntity(), component.Light{MaxShadowDistance: 10})
	if err := (Lights{}).Update(s, 0); !errors.Is(err, ErrNoActiveCamera) {
		t.Fatalf("expected ErrNoActiveCamera, got %v", err)
	}
	if l.Bounds != (component.LightBounds{}) {
		t.Fatalf("expected bounds untouched, got %+v", l.Bounds)
	}
}

func TestFlyCameraMoves(t *testing.T) {
	s := newScene(t)
	id := addCamera(t, s, component.Camera{FOV: 1, Aspect: 1, ZNear: 0.1, ZFar: 10}, mathx.Identity())
	f := NewFlyCamera(1, mathx.Radians(90))
	f.Register(s)

	press := func(r rune) {
		s.Input().Dispatch(input.Key{Key: tcell.KeyRune, Rune: r})
	}
	press('w')
	press('w')
	press('e')
	if err := f.Update(s, 0); err != nil {
		t.Fatal(err)
	}
	tr, _ := scene.Get[component.Transform](s, id)
	if got := tr.Global.TranslationPart(); !got.ApproxEqual(mathx.V3(0, 1, 2)) {
		t.Fatalf("expected camera at (0,1,2), got %v", got)
	}

	s.Input().Dispatch(input.Key{Key: tcell.KeyRight})
	press('w')
	f.Update(s, 0)
	if got := tr.Global.TranslationPart(); !got.ApproxEqual(mathx.V3(1, 1, 2)) {
		t.Fatalf("expected camera to move along +X after turning right, got %v", got)
	}
	if got := tr.Global.TransformPoint(mathx.Fwd).Sub(tr.Global.TranslationPart()); !got.ApproxEqual(mathx.V3(1, 0, 0)) {
		t.Fatalf("expected forward to face +X, got %v", got)
	}
}

func TestFlyCameraTogglesAnimations(t *testing.T) {
	s := newScene(t)
	a := addAnimation(t, s, component.SkeletalAnimation{Length: 1})
	f := NewFlyCamera(1, 1)
	f.Register(s)
	s.Input().Dispatch(input.Key{Key: tcell.KeyRune, Rune: 'p'})
	f.Update(s, 0)
	if !a.Stopped {
		t.Fatal("expected the animation stopped")
	}
}
