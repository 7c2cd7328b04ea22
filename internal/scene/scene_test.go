package scene

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"lumen/internal/asset"
	"lumen/internal/component"
	"lumen/internal/config"
	"lumen/internal/ecs"
	"lumen/internal/gpu"
	"lumen/internal/input"
	"lumen/internal/mathx"
)

func newServices(t *testing.T) Services {
	t.Helper()
	log := zaptest.NewLogger(t)
	d := gpu.NewDevice(2, nil, log)
	t.Cleanup(func() { d.Close() })
	assets, err := asset.NewManager(d, log)
	if err != nil {
		t.Fatal(err)
	}
	return Services{Device: d, Assets: assets, Input: input.NewManager(), Log: log, Config: config.Default()}
}

func newScene(t *testing.T) *Scene {
	return New("test", newServices(t), nil)
}

func TestAddGetRemove(t *testing.T) {
	s := newScene(t)
	id := s.CreateEntity()
	tr, err := Add(s, id, component.NewTransform(mathx.Translation(mathx.V3(1, 2, 3))))
	if err != nil {
		t.Fatal(err)
	}
	if !s.Mask(id).Has(component.KindTransform) {
		t.Fatal("expected the transform bit set")
	}
	got, ok := Get[component.Transform](s, id)
	if !ok || got != tr || got.Local.TranslationPart() != mathx.V3(1, 2, 3) {
		t.Fatalf("unexpected transform %+v", got)
	}
	if err := Remove[component.Transform](s, id); err != nil {
		t.Fatal(err)
	}
	if s.Mask(id).Has(component.KindTransform) {
		t.Fatal("expected the transform bit cleared")
	}
	if err := Remove[component.Transform](s, id); !errors.Is(err, ecs.ErrUnknownOwner) {
		t.Fatalf("expected ErrUnknownOwner, got %v", err)
	}
	if _, err := Add(s, 99, component.Camera{}); !errors.Is(err, ecs.ErrInvalidEntity) {
		t.Fatalf("expected ErrInvalidEntity, got %v", err)
	}
}

func TestAddPastCapacity(t *testing.T) {
	svc := newServices(t)
	svc.Config.Engine.Capacities["camera"] = 2
	s := New("small", svc, nil)
	for i := 0; i < 2; i++ {
		if _, err := Add(s, s.CreateEntity(), component.Camera{}); err != nil {
			t.Fatal(err)
		}
	}
	id := s.CreateEntity()
	if _, err := Add(s, id, component.Camera{}); !errors.Is(err, ecs.ErrPoolFull) {
		t.Fatalf("expected ErrPoolFull, got %v", err)
	}
	if s.Mask(id).Has(component.KindCamera) {
		t.Fatal("a failed add must not set the mask bit")
	}
}

func TestDestroyTreeRecyclesIDs(t *testing.T) {
	s := newScene(t)
	root := s.CreateEntity()
	Add(s, root, component.NewTransform(mathx.Identity()))
	n := 1
	for i := 0; i < 4; i++ {
		kid := s.CreateEntity()
		n++
		Add(s, kid, component.NewTransform(mathx.Identity()))
		if err := s.AddChild(root, kid); err != nil {
			t.Fatal(err)
		}
		for j := 0; j < 2; j++ {
			grandkid := s.CreateEntity()
			n++
			Add(s, grandkid, component.Camera{})
			if err := s.AddChild(kid, grandkid); err != nil {
				t.Fatal(err)
			}
		}
	}

	if err := s.DestroyEntity(root); err != nil {
		t.Fatal(err)
	}
	if s.EntityCount() != 0 {
		t.Fatalf("expected every entity gone, %d left", s.EntityCount())
	}
	if s.FreeIDs() != n {
		t.Fatalf("expected %d free ids, got %d", n, s.FreeIDs())
	}
	for k := component.KindTransform; int(k) < component.NumKinds; k++ {
		if l := s.Store(k).Len(); l != 0 {
			t.Fatalf("store %s still holds %d components", component.Name(k), l)
		}
	}

	seen := make(map[ecs.EntityID]bool)
	for i := 0; i < n; i++ {
		id := s.CreateEntity()
		if int(id) >= n || seen[id] {
			t.Fatalf("expected a recycled id below %d, got %d", n, id)
		}
		seen[id] = true
	}
}

func TestDestroyChildDetachesFromParent(t *testing.T) {
	s := newScene(t)
	parent := s.CreateEntity()
	a, b, c := s.CreateEntity(), s.CreateEntity(), s.CreateEntity()
	for _, kid := range []ecs.EntityID{a, b, c} {
		s.AddChild(parent, kid)
	}
	if err := s.DestroyEntity(b); err != nil {
		t.Fatal(err)
	}
	kids := s.Children(parent)
	if len(kids) != 2 || kids[0] != a || kids[1] != c {
		t.Fatalf("expected [%d %d], got %v", a, c, kids)
	}
	ch, _ := Get[component.Children](s, parent)
	for i := ch.Count; i < component.MaxChildren; i++ {
		if ch.IDs[i] != ecs.NullEntity {
			t.Fatalf("slot %d not null after removal", i)
		}
	}
}

func TestRemoveChild(t *testing.T) {
	s := newScene(t)
	parent := s.CreateEntity()
	kid := s.CreateEntity()
	stranger := s.CreateEntity()
	s.AddChild(parent, kid)

	if err := s.RemoveChild(parent, stranger); !errors.Is(err, ErrNotChild) {
		t.Fatalf("expected ErrNotChild, got %v", err)
	}
	if err := s.RemoveChild(parent, kid); err != nil {
		t.Fatal(err)
	}
	if s.Mask(kid).Has(component.KindParent) {
		t.Fatal("expected the child's Parent released")
	}
	if s.Mask(parent).Has(component.KindChildren) {
		t.Fatal("expected Children released with the last child")
	}
}

func TestAddChildLimits(t *testing.T) {
	s := newScene(t)
	parent := s.CreateEntity()
	for i := 0; i < component.MaxChildren; i++ {
		if err := s.AddChild(parent, s.CreateEntity()); err != nil {
			t.Fatal(err)
		}
	}
	extra := s.CreateEntity()
	if err := s.AddChild(parent, extra); !errors.Is(err, ErrChildrenFull) {
		t.Fatalf("expected ErrChildrenFull, got %v", err)
	}
	if s.Mask(extra).Has(component.KindParent) {
		t.Fatal("a refused child must not get a Parent")
	}
	if err := s.AddChild(parent, parent); !errors.Is(err, ecs.ErrInvalidEntity) {
		t.Fatalf("expected ErrInvalidEntity for a self parent, got %v", err)
	}
}

func TestAddChildRebasesTransform(t *testing.T) {
	s := newScene(t)
	parent := s.CreateEntity()
	kid := s.CreateEntity()
	world := mathx.Translation(mathx.V3(5, 0, 0))
	Add(s, kid, component.NewTransform(world))

	s.AddChild(parent, kid)
	tr, _ := Get[component.Transform](s, kid)
	if tr.Local != world || tr.Global != mathx.Identity() {
		t.Fatalf("expected Local=old Global and Global=identity, got %+v", tr)
	}
}

func TestReparent(t *testing.T) {
	s := newScene(t)
	a, b, kid := s.CreateEntity(), s.CreateEntity(), s.CreateEntity()
	s.AddChild(a, kid)
	if err := s.AddChild(b, kid); err != nil {
		t.Fatal(err)
	}
	if s.Mask(a).Has(component.KindChildren) {
		t.Fatal("expected the old parent to lose its only child")
	}
	if kids := s.Children(b); len(kids) != 1 || kids[0] != kid {
		t.Fatalf("expected kid under b, got %v", kids)
	}
	p, _ := Get[component.Parent](s, kid)
	if p.Entity != b {
		t.Fatalf("expected parent %d, got %d", b, p.Entity)
	}
}

func TestAddChildRefusesCycles(t *testing.T) {
	s := newScene(t)
	a, b, c := s.CreateEntity(), s.CreateEntity(), s.CreateEntity()
	if err := s.AddChild(a, b); err != nil {
		t.Fatal(err)
	}
	if err := s.AddChild(b, c); err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		name          string
		parent, child ecs.EntityID
	}{
		{"direct", b, a},
		{"grandparent", c, a},
		{"middle", c, b},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := s.AddChild(tc.parent, tc.child); !errors.Is(err, ErrCycle) {
				t.Fatalf("expected ErrCycle, got %v", err)
			}
		})
	}
	if s.Mask(a).Has(component.KindParent) {
		t.Fatal("the root must stay a root")
	}
	if kids := s.Children(b); len(kids) != 1 || kids[0] != c {
		t.Fatalf("expected b to keep only c, got %v", kids)
	}
	if s.Mask(c).Has(component.KindChildren) {
		t.Fatal("a refused parent must not get Children")
	}
}

type countingSystem struct {
	name  string
	calls *[]string
	err   error
}

func (c countingSystem) Name() string { return c.name }

func (c countingSystem) Update(s *Scene, dt float32) error {
	*c.calls = append(*c.calls, c.name)
	return c.err
}

func TestUpdateRunsSystemsInOrder(t *testing.T) {
	s := newScene(t)
	var calls []string
	boom := errors.New("boom")
	s.AddSystem(
		countingSystem{name: "animation", calls: &calls},
		countingSystem{name: "light", calls: &calls, err: boom},
		countingSystem{name: "transform", calls: &calls},
	)
	err := s.Update(1.0 / 30)
	if !errors.Is(err, boom) {
		t.Fatalf("expected the light error, got %v", err)
	}
	if len(calls) != 3 || calls[2] != "transform" {
		t.Fatalf("expected every system to run in order, got %v", calls)
	}
}

type batchCounter struct{ freed int }

func (b *batchCounter) FreeBatches() error {
	b.freed++
	return nil
}

func TestManagerSwitch(t *testing.T) {
	svc := newServices(t)
	batches := &batchCounter{}
	m := NewManager(svc, batches)
	baseline := svc.Assets.Len()

	var firstTex asset.ID
	first := New("first", svc, func(s *Scene) error {
		s.Input().OnKey(s, func(input.Key) {})
		var err error
		firstTex, err = s.Assets().SolidTexture("red", [4]uint8{255, 0, 0, 255})
		if err != nil {
			return err
		}
		cam := s.CreateEntity()
		Add(s, cam, component.Camera{FOV: 1, Aspect: 1, ZNear: 0.1, ZFar: 10})
		return s.SetActiveCamera(cam)
	})
	m.AssignNextScene(first)
	if switched, err := m.Advance(context.Background()); err != nil || !switched {
		t.Fatalf("expected the first switch, got %v %v", switched, err)
	}
	if m.Current() != first || first.EntityCount() != 1 || svc.Input.Len() != 1 {
		t.Fatal("first scene was not populated")
	}
	if switched, _ := m.Advance(context.Background()); switched {
		t.Fatal("expected no switch without a queued scene")
	}

	second := New("second", svc, nil)
	m.AssignNextScene(second)
	if _, err := m.Advance(context.Background()); err != nil {
		t.Fatal(err)
	}
	if m.Current() != second || m.Switches() != 2 {
		t.Fatal("expected the second scene current")
	}
	if batches.freed != 1 {
		t.Fatalf("expected batches freed once, got %d", batches.freed)
	}
	if svc.Input.Len() != 0 {
		t.Fatalf("expected the first scene's handlers dropped, %d left", svc.Input.Len())
	}
	if svc.Assets.Exists(firstTex, asset.KindTexture) || svc.Assets.Len() != baseline {
		t.Fatal("expected the first scene's assets destroyed")
	}
	if first.EntityCount() != 0 || first.ActiveCamera() != ecs.NullEntity {
		t.Fatal("expected the first scene emptied")
	}
}

func TestSetActiveCameraNeedsCamera(t *testing.T) {
	s := newScene(t)
	id := s.CreateEntity()
	if err := s.SetActiveCamera(id); err == nil {
		t.Fatal("expected an error for an entity without a camera")
	}
	Add(s, id, component.Camera{})
	if err := s.SetActiveCamera(id); err != nil {
		t.Fatal(err)
	}
	s.DestroyEntity(id)
	if s.ActiveCamera() != ecs.NullEntity {
		t.Fatal("expected the camera cleared when its entity dies")
	}
}
