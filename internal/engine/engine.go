// Package engine runs the viewer: it owns the device, the renderers and
// the scene manager, and steps one frame per tick.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"lumen/internal/asset"
	"lumen/internal/component"
	"lumen/internal/config"
	"lumen/internal/ecs"
	"lumen/internal/gpu"
	"lumen/internal/input"
	"lumen/internal/render"
	"lumen/internal/scene"
	"lumen/internal/system"
	"lumen/internal/termgpu"
)

const (
	flySpeed = 0.5
	flyTurn  = 0.08
)

// ErrNoScenes is returned by Run when nothing was loaded.
var ErrNoScenes = errors.New("engine: no scenes to show")

// Engine drives one terminal. It is not safe for concurrent use; Run owns
// it until it returns.
type Engine struct {
	cfg    *config.Config
	log    *zap.Logger
	screen tcell.Screen
	exec   *termgpu.Executor

	svc       scene.Services
	renderers *render.Set
	scenes    *scene.Manager
	translate input.Translator

	playlist []Source
	current  int
	quit     bool
	fps      float32
	message  string
}

// New builds the device, asset manager and renderers for screen. The
// screen must already be initialised.
func New(cfg *config.Config, screen tcell.Screen, log *zap.Logger, opts ...termgpu.Option) (*Engine, error) {
	exec := termgpu.New(screen, log.Named("termgpu"), opts...)
	device := gpu.NewDevice(cfg.Engine.FramesInFlight, exec, log.Named("gpu"))
	assets, err := asset.NewManager(device, log.Named("asset"))
	if err != nil {
		device.Close()
		return nil, fmt.Errorf("create asset manager: %w", err)
	}
	svc := scene.Services{
		Device: device,
		Assets: assets,
		Input:  input.NewManager(),
		Log:    log,
		Config: cfg,
	}
	rs, err := render.NewSet(svc)
	if err != nil {
		device.Close()
		return nil, err
	}
	e := &Engine{
		cfg:       cfg,
		log:       log,
		screen:    screen,
		exec:      exec,
		svc:       svc,
		renderers: rs,
		scenes:    scene.NewManager(svc, rs),
	}
	svc.Input.OnKey(e, e.onKey)
	svc.Input.OnResize(e, func(input.Resize) { screen.Sync() })
	return e, nil
}

// Load sets the playlist and queues its first scene.
func (e *Engine) Load(sources ...Source) {
	e.playlist = sources
	e.current = 0
	if len(sources) > 0 {
		e.scenes.AssignNextScene(e.newScene(sources[0]))
	}
}

// Scenes returns the scene manager.
func (e *Engine) Scenes() *scene.Manager { return e.scenes }

// Services returns the services shared by every scene.
func (e *Engine) Services() scene.Services { return e.svc }

// newScene wraps src's populate step with the engine's systems. Any
// system the source adds (a script's update) runs first.
func (e *Engine) newScene(src Source) *scene.Scene {
	populate := src.populate(e.log)
	return scene.New(src.Name, e.svc, func(s *scene.Scene) error {
		if err := populate(s); err != nil {
			return err
		}
		fly := system.NewFlyCamera(flySpeed, flyTurn)
		fly.Register(s)
		s.AddSystem(
			fly,
			system.Animation{},
			system.Pose{},
			system.Transforms{},
			system.Lights{},
			e.renderers.System(),
		)
		return nil
	})
}

// NextScene queues the playlist entry after the current one.
func (e *Engine) NextScene() {
	if len(e.playlist) == 0 {
		return
	}
	e.current = (e.current + 1) % len(e.playlist)
	e.scenes.AssignNextScene(e.newScene(e.playlist[e.current]))
}

func (e *Engine) onKey(k input.Key) {
	switch input.KeyToAction(k) {
	case input.ActionQuit:
		e.quit = true
	case input.ActionNextScene:
		e.NextScene()
	}
}

// Run steps frames at the configured rate and feeds screen events to the
// input manager until the user quits, the screen closes or ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	if len(e.playlist) == 0 {
		return ErrNoScenes
	}
	events := make(chan tcell.Event, 32)
	go func() {
		for {
			ev := e.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	fps := max(e.cfg.Engine.TargetFPS, 1)
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	last := time.Now()

	for !e.quit {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			for _, in := range e.translate.Translate(ev) {
				e.svc.Input.Dispatch(in)
			}
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			if err := e.Frame(ctx, float32(dt.Seconds())); err != nil {
				return err
			}
		}
	}
	return nil
}

// Frame performs a pending scene switch, runs the scene's systems, records
// every renderer and submits the frame. Scene errors are logged and shown
// in the status bar; only device failures are returned.
func (e *Engine) Frame(ctx context.Context, dt float32) error {
	if switched, err := e.scenes.Advance(ctx); err != nil {
		e.report("scene switch failed", err)
		if !switched {
			return err
		}
	}

	cmd, err := e.svc.Device.BeginFrame(ctx)
	if err != nil {
		return fmt.Errorf("begin frame: %w", err)
	}
	e.renderers.Begin(cmd.Frame())

	vp := e.exec.Viewport()
	s := e.scenes.Current()
	if s != nil {
		fitCameras(s, vp.Aspect())
		if err := e.scenes.Update(dt); err != nil {
			e.report("update failed", err)
		}
	}
	if err := e.renderers.Record(cmd, s, vp.Size()); err != nil {
		e.report("record failed", err)
	}
	if err := e.svc.Device.Submit(cmd); err != nil {
		return fmt.Errorf("submit frame: %w", err)
	}

	if dt > 0 {
		e.fps = e.fps*0.9 + 0.1/dt
	}
	name := ""
	if s != nil {
		name = s.Name()
	}
	e.exec.SetStatus(termgpu.Status{Scene: name, FPS: e.fps, Message: e.message})
	return nil
}

// report logs err once per distinct message and keeps it for the status
// bar.
func (e *Engine) report(what string, err error) {
	msg := err.Error()
	if msg == e.message {
		return
	}
	e.message = msg
	e.log.Warn(what, zap.Error(err))
}

// fitCameras gives every camera the viewport's aspect ratio.
func fitCameras(s *scene.Scene, aspect float32) {
	scene.Pool[component.Camera](s).Each(func(_ ecs.EntityID, c *component.Camera) {
		c.Aspect = aspect
	})
}

// Close tears down the current scene, the renderers and the device.
func (e *Engine) Close() error {
	ctx := context.Background()
	errs := []error{e.scenes.Shutdown(ctx)}
	e.svc.Input.Unregister(e)
	errs = append(errs, e.renderers.Close(), e.svc.Device.Close())
	return errors.Join(errs...)
}
