// lumen renders 3D scenes in the terminal.
//
//	lumen [-config lumen.toml] [-scene path.yaml|path.lua] [-script extra.lua]
//	      [-ramp ascii|blocks|dots] [-profile cpu|mem]
//
// With no scene the built-in demos play; tab cycles through them.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/pkg/profile"
	"go.uber.org/zap"

	"lumen/internal/config"
	"lumen/internal/engine"
	"lumen/internal/logging"
	"lumen/internal/script"
	"lumen/internal/termgpu"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := flag.String("config", "lumen.toml", "TOML config file (optional)")
	scenePath := flag.String("scene", "", "YAML or Lua scene to show instead of the demos")
	scriptPath := flag.String("script", "", "Lua script run after the scene is built")
	ramp := flag.String("ramp", "ascii", "brightness ramp: ascii, blocks or dots")
	prof := flag.String("profile", "", "write a cpu or mem profile to the working directory")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*cfgPath)
	if err != nil {
		return err
	}
	if *scenePath != "" {
		cfg.Viewer.Scene = *scenePath
	}
	if *scriptPath != "" {
		cfg.Viewer.Script = *scriptPath
	}
	if *prof != "" {
		cfg.Viewer.Profile = *prof
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "lumen.log"
	}

	switch cfg.Viewer.Profile {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		return fmt.Errorf("unknown profile mode %q", cfg.Viewer.Profile)
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer log.Sync()

	sources, err := playlist(cfg.Viewer)
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()
	screen.EnableMouse()

	eng, err := engine.New(cfg, screen, log, termgpu.WithRamp(termgpu.RampByName(*ramp)))
	if err != nil {
		return err
	}
	eng.Load(sources...)
	log.Info("viewer started", zap.Int("scenes", len(sources)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runErr := eng.Run(ctx)
	if err := eng.Close(); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
	return runErr
}

// playlist returns the configured scene, or the built-in demos.
func playlist(v config.ViewerConfig) ([]engine.Source, error) {
	if v.Scene == "" {
		return engine.Demos(time.Now().UnixNano())
	}
	dir, file := filepath.Split(v.Scene)
	if dir == "" {
		dir = "."
	}
	src, err := engine.LoadSource(os.DirFS(dir), file)
	if err != nil {
		return nil, err
	}
	if v.Script != "" {
		src.Script = script.Source{Path: v.Script}
	}
	return []engine.Source{src}, nil
}
