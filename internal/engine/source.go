package engine

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"go.uber.org/zap"

	"lumen/internal/factory"
	"lumen/internal/scene"
	"lumen/internal/script"
)

// Source is one entry of the viewer's scene playlist: a procedural
// builder, a scene file, a Lua script, or any mix. They run in that order.
type Source struct {
	Name   string
	Build  scene.PopulateFunc
	File   *factory.SceneFile
	Script script.Source
}

// LoadSource reads the scene at name from fsys. A .lua file is a
// script-only scene. A YAML file whose script field is set pulls that
// script in from the same directory.
func LoadSource(fsys fs.FS, name string) (Source, error) {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Source{}, fmt.Errorf("load scene %s: %w", name, err)
	}
	base := strings.TrimSuffix(path.Base(name), path.Ext(name))
	if path.Ext(name) == ".lua" {
		return Source{Name: base, Script: script.Source{Code: string(raw)}}, nil
	}

	f, err := factory.ParseScene(raw)
	if err != nil {
		return Source{}, fmt.Errorf("load scene %s: %w", name, err)
	}
	src := Source{Name: f.Name, File: f}
	if src.Name == "" {
		src.Name = base
	}
	if f.Script != "" {
		code, err := fs.ReadFile(fsys, path.Join(path.Dir(name), f.Script))
		if err != nil {
			return Source{}, fmt.Errorf("load scene %s: %w", name, err)
		}
		src.Script = script.Source{Code: string(code)}
	}
	return src, nil
}

func (src Source) hasScript() bool { return src.Script.Path != "" || src.Script.Code != "" }

// populate chains the file and script steps.
func (src Source) populate(log *zap.Logger) scene.PopulateFunc {
	var steps []scene.PopulateFunc
	if src.Build != nil {
		steps = append(steps, src.Build)
	}
	if src.File != nil {
		steps = append(steps, src.File.Populate())
	}
	if src.hasScript() {
		steps = append(steps, script.Populate(src.Script, log))
	}
	return func(s *scene.Scene) error {
		for _, step := range steps {
			if err := step(s); err != nil {
				return err
			}
		}
		return nil
	}
}
