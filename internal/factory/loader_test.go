package factory

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"lumen/internal/asset"
	"lumen/internal/component"
	"lumen/internal/ecs"
	"lumen/internal/scene"
)

const sceneYAML = `
name: yard
assets:
  textures:
    - {name: tiles, color: [200, 200, 200, 255], alt: [40, 40, 40, 255], checker: 8}
    - {name: white, color: [255, 255, 255, 255]}
  meshes:
    - {name: box, cube: 1}
    - {name: ground, grid: {size: 20, cells: 8, amplitude: 0.5}}
    - {name: pillar, column: {width: 0.5, height: 3, segments: 3}}
  materials:
    - {name: stone, color: [1, 1, 1, 1], albedo: tiles}
  animations:
    - {name: sway, skeleton: pillar, angle: 15, length: 2}
entities:
  - name: eye
    transform: {position: [0, 2, -8]}
    camera: {fov: 60, active: true}
  - name: sun
    light: {direction: [0.3, -1, 0.2]}
  - name: floor
    terrain: {mesh: ground, material: stone}
  - name: crate
    transform: {position: [1, 0, 0], rotation: [0, 45, 0]}
    mesh: {mesh: box, material: stone}
    children:
      - name: lid
        transform: {position: [0, 1, 0]}
        mesh: {mesh: box, material: stone, tint: [1, 0, 0, 1]}
  - name: tree
    skinned: {mesh: pillar, material: stone, animation: sway}
  - name: badge
    image: {texture: white, position: [0, 0], size: [4, 2], layer: 1}
  - name: title
    text: {text: yard, position: [1, 1], layer: 2}
`

func TestSceneFilePopulates(t *testing.T) {
	f, err := ParseScene([]byte(sceneYAML))
	if err != nil {
		t.Fatal(err)
	}
	if f.Name != "yard" {
		t.Fatalf("expected name yard, got %q", f.Name)
	}
	s := newScene(t)
	if err := f.Populate()(s); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		kind ecs.Kind
		want int
	}{
		{component.KindCamera, 1},
		{component.KindLight, 1},
		{component.KindTerrainMesh, 1},
		{component.KindStaticMesh, 2},
		{component.KindSkinnedMesh, 1},
		{component.KindJoint, 3},
		{component.KindGUI, 1},
		{component.KindText, 1},
	}
	for _, tc := range cases {
		t.Run(component.Name(tc.kind), func(t *testing.T) {
			if got := len(s.Query(tc.kind)); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
	if s.ActiveCamera() != s.Query(component.KindCamera)[0] {
		t.Fatal("expected the scene camera to be active")
	}
}

func TestSceneFileChildren(t *testing.T) {
	f, err := ParseScene([]byte(sceneYAML))
	if err != nil {
		t.Fatal(err)
	}
	s := newScene(t)
	if err := f.Populate()(s); err != nil {
		t.Fatal(err)
	}
	for _, id := range s.Query(component.KindStaticMesh) {
		sm, _ := scene.Get[component.StaticMeshRenderable](s, id)
		if sm.Tint[0] != 1 || sm.Tint[1] != 0 {
			continue
		}
		p, ok := scene.Get[component.Parent](s, id)
		if !ok {
			t.Fatal("expected the lid to have a parent")
		}
		if len(s.Children(p.Entity)) != 1 {
			t.Fatalf("expected one child under the crate, got %v", s.Children(p.Entity))
		}
		return
	}
	t.Fatal("tinted lid not found")
}

func TestSceneFileUnknownNames(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"material", "entities:\n  - mesh: {mesh: box, material: nope}\nassets:\n  meshes:\n    - {name: box, cube: 1}\n"},
		{"mesh", "entities:\n  - terrain: {mesh: nope, material: m}\nassets:\n  materials:\n    - {name: m, color: [1,1,1,1]}\n"},
		{"texture", "entities:\n  - image: {texture: nope}\n"},
		{"albedo", "assets:\n  materials:\n    - {name: m, albedo: nope}\n"},
		{"skeleton", "assets:\n  animations:\n    - {name: a, skeleton: nope, length: 1}\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := ParseScene([]byte(tc.yaml))
			if err != nil {
				t.Fatal(err)
			}
			err = f.Populate()(newScene(t))
			if !errors.Is(err, asset.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestSceneFileBadInput(t *testing.T) {
	if _, err := ParseScene([]byte("entities: [")); err == nil {
		t.Fatal("expected a parse error")
	}
	f, _ := ParseScene([]byte("assets:\n  meshes:\n    - {name: empty}\n"))
	if err := f.Populate()(newScene(t)); err == nil {
		t.Fatal("expected an error for a mesh without a primitive")
	}
	if _, err := LoadSceneFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestLoadSceneFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	if err := os.WriteFile(path, []byte(sceneYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := LoadSceneFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Entities) != 7 || len(f.Entities[3].Children) != 1 {
		t.Fatalf("unexpected entities %+v", f.Entities)
	}
}
