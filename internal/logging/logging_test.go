package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lumen/internal/config"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lumen.log")
	log, err := New(config.LoggingConfig{Level: "debug", Format: "json", Output: path})
	if err != nil {
		t.Fatal(err)
	}
	log.Debug("frame recorded")
	log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "frame recorded") {
		t.Fatalf("expected log line in file, got %q", data)
	}
}

func TestNewUnknownLevelFallsBackToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lumen.log")
	log, err := New(config.LoggingConfig{Level: "loud", Output: path})
	if err != nil {
		t.Fatal(err)
	}
	if log.Core().Enabled(-1) {
		t.Fatal("expected debug disabled at the fallback level")
	}
	if !log.Core().Enabled(0) {
		t.Fatal("expected info enabled at the fallback level")
	}
}
