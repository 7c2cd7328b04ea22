package engine

import (
	"lumen/assets"
	"lumen/internal/generate"
)

// Demos returns the built-in playlist: the embedded scenes followed by a
// labyrinth generated from seed.
func Demos(seed int64) ([]Source, error) {
	var out []Source
	for _, name := range assets.Playlist {
		src, err := LoadSource(assets.FS(), name)
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	out = append(out, Source{Name: "labyrinth", Build: generate.Populate(generate.DefaultConfig(seed))})
	return out, nil
}
