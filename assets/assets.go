// Package assets embeds the demo scenes the viewer ships with.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed scenes
var files embed.FS

// Playlist is the order the built-in scenes are shown in.
var Playlist = []string{"scenes/courtyard.yaml", "scenes/orbit.lua"}

// FS returns the embedded scene files.
func FS() fs.FS { return files }
