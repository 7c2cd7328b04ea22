package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Engine  EngineConfig  `toml:"engine"`
	Render  RenderConfig  `toml:"render"`
	Light   LightConfig   `toml:"light"`
	Logging LoggingConfig `toml:"logging"`
	Viewer  ViewerConfig  `toml:"viewer"`
	Server  ServerConfig  `toml:"server"`
}

type EngineConfig struct {
	FramesInFlight int `toml:"frames_in_flight"`
	TargetFPS      int `toml:"target_fps"`
	Entities       int `toml:"entities"` // initial entity table capacity
	// Pool capacities per component kind, keyed by kind name
	// ("transform", "camera", ...). Kinds not listed use DefaultCapacity.
	Capacities      map[string]int `toml:"capacities"`
	DefaultCapacity int            `toml:"default_capacity"`
}

type BatchConfig struct {
	Batches   int `toml:"batches"`
	Instances int `toml:"instances"` // per batch
}

type RenderConfig struct {
	Static    BatchConfig `toml:"static"`
	Skinned   BatchConfig `toml:"skinned"`
	GUI       BatchConfig `toml:"gui"`
	MaxJoints int         `toml:"max_joints"`
	// IdleFrames is how many consecutive recorded frames a batch may go
	// without instances before it is evicted.
	IdleFrames int     `toml:"idle_frames"`
	Ambient    float32 `toml:"ambient"`
}

type LightConfig struct {
	MaxShadowDistance float32 `toml:"max_shadow_distance"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
	Output string `toml:"output"` // file path; empty means stderr
}

type ViewerConfig struct {
	Scene   string `toml:"scene"`  // YAML scene file; empty uses the embedded demo
	Script  string `toml:"script"` // Lua script run after the scene is built
	Profile string `toml:"profile"`
}

type ServerConfig struct {
	Port        int           `toml:"port"`
	HostKey     string        `toml:"host_key"`
	IdleTimeout time.Duration `toml:"idle_timeout"`
	MaxSessions int           `toml:"max_sessions"`
}

// Load reads the TOML file at path over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Capacity returns the pool capacity configured for the named kind.
func (e EngineConfig) Capacity(kind string) int {
	if n, ok := e.Capacities[kind]; ok && n > 0 {
		return n
	}
	return e.DefaultCapacity
}

func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			FramesInFlight:  2,
			TargetFPS:       30,
			Entities:        1024,
			DefaultCapacity: 1024,
			Capacities: map[string]int{
				"camera": 8,
				"light":  8,
			},
		},
		Render: RenderConfig{
			Static:     BatchConfig{Batches: 100, Instances: 10000},
			Skinned:    BatchConfig{Batches: 32, Instances: 64},
			GUI:        BatchConfig{Batches: 100, Instances: 2000},
			MaxJoints:  64,
			IdleFrames: 60,
			Ambient:    0.25,
		},
		Light: LightConfig{
			MaxShadowDistance: 50,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Server: ServerConfig{
			Port:        2222,
			HostKey:     ".ssh/lumen_host_key",
			IdleTimeout: 30 * time.Minute,
			MaxSessions: 8,
		},
	}
}
