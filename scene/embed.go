package scene

import (
	"embed"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

//go:embed scenes/*.yaml scripts/*.tengo
var FS embed.FS

// Embedded lists the compiled-in scene names without extension.
func Embedded() []string {
	entries, err := fs.ReadDir(FS, "scenes")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !isSceneFile(e.Name()) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
	}
	sort.Strings(names)
	return names
}

// cleanScenePath maps "corridor", "corridor.yaml" and "scenes/corridor.yaml"
// onto the embedded path.
func cleanScenePath(name string) string {
	if name == "" {
		return ""
	}
	s := filepath.ToSlash(name)
	if after, ok := strings.CutPrefix(s, "scene/"); ok {
		s = after
	}
	if after, ok := strings.CutPrefix(s, "scenes/"); ok {
		s = after
	}
	if !isSceneFile(s) {
		s += ".yaml"
	}
	return "scenes/" + s
}
