// Package script runs Lua scene scripts. A script builds its scene
// through the lumen module table and may define update(dt), which then
// runs every frame as a scene system.
package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"lumen/internal/scene"
)

// Engine wraps one gopher-lua VM bound to one scene. Single-goroutine
// access only (frame loop).
type Engine struct {
	vm     *lua.LState
	log    *zap.Logger
	s      *scene.Scene
	closed bool
}

// NewEngine creates a VM with the lumen module bound to s.
func NewEngine(s *scene.Scene, log *zap.Logger) *Engine {
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	e := &Engine{vm: vm, log: log.With(zap.String("scene", s.Name())), s: s}
	vm.SetGlobal("lumen", e.module())
	return e
}

// DoString runs src.
func (e *Engine) DoString(src string) error {
	if err := e.vm.DoString(src); err != nil {
		return fmt.Errorf("run script: %w", err)
	}
	return nil
}

// DoFile runs the script at path.
func (e *Engine) DoFile(path string) error {
	if err := e.vm.DoFile(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	e.log.Debug("loaded lua script", zap.String("file", path))
	return nil
}

// Call calls the global function name with args if it exists. It reports
// whether the function was found.
func (e *Engine) Call(name string, args ...lua.LValue) (bool, error) {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		return false, nil
	}
	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, args...); err != nil {
		return true, fmt.Errorf("lua %s: %w", name, err)
	}
	return true, nil
}

// HasFunction reports whether the script defines the global function name.
func (e *Engine) HasFunction(name string) bool {
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

// Close shuts the VM down. It is safe to call more than once.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.vm.Close()
	e.closed = true
}

func (e *Engine) Name() string { return "script" }

// Update calls the script's update(dt).
func (e *Engine) Update(s *scene.Scene, dt float32) error {
	_, err := e.Call("update", lua.LNumber(dt))
	return err
}

// Source is a script given either inline or as a file path.
type Source struct {
	Path string
	Code string
}

// Populate returns a populate step that runs src against the scene, then
// calls its populate() function if it has one. A script with update(dt)
// is added as a system. The VM closes with the scene.
func Populate(src Source, log *zap.Logger) scene.PopulateFunc {
	return func(s *scene.Scene) error {
		e := NewEngine(s, log)
		s.OnDestroy(e.Close)
		var err error
		if src.Path != "" {
			err = e.DoFile(src.Path)
		} else {
			err = e.DoString(src.Code)
		}
		if err != nil {
			return err
		}
		if _, err := e.Call("populate"); err != nil {
			return err
		}
		if e.HasFunction("update") {
			s.AddSystem(e)
		}
		return nil
	}
}
