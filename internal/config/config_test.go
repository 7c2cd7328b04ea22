package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lumen.toml")
	data := `
[engine]
frames_in_flight = 3

[engine.capacities]
transform = 4096

[render.static]
batches = 12

[logging]
level = "debug"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Engine.FramesInFlight != 3 {
		t.Fatalf("expected 3 frames in flight, got %d", cfg.Engine.FramesInFlight)
	}
	if cfg.Render.Static.Batches != 12 {
		t.Fatalf("expected 12 static batches, got %d", cfg.Render.Static.Batches)
	}
	if cfg.Render.Static.Instances != 10000 {
		t.Fatalf("expected default 10000 instances kept, got %d", cfg.Render.Static.Instances)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected debug level, got %q", cfg.Logging.Level)
	}
	if got := cfg.Engine.Capacity("transform"); got != 4096 {
		t.Fatalf("expected transform capacity 4096, got %d", got)
	}
	if got := cfg.Engine.Capacity("joint"); got != cfg.Engine.DefaultCapacity {
		t.Fatalf("expected default capacity for joint, got %d", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Render.Skinned.Batches != 32 || cfg.Render.MaxJoints != 64 {
		t.Fatalf("expected skinned defaults, got %+v", cfg.Render.Skinned)
	}
}

func TestLoadRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	os.WriteFile(path, []byte("[engine\nframes_in_flight = "), 0o644)
	if _, err := Load(path); err == nil {
		t.Fatal("expected a parse error")
	}
}
