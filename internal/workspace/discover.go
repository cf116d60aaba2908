package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrNoWorkspace is returned when no workspace marker is found.
var ErrNoWorkspace = errors.New("workspace not found")

// FindRoot walks up from dir looking for a workspace root. A directory
// containing troupe.yml wins; failing that, the first directory containing
// .git is taken so `troupe init` can run inside a fresh repository.
func FindRoot(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for d := abs; ; {
		if pathExists(filepath.Join(d, WorkflowFile)) {
			return d, nil
		}
		if pathExists(filepath.Join(d, ".git")) {
			return d, nil
		}
		parent := filepath.Dir(d)
		if parent == d {
			return "", fmt.Errorf("%w: no %s or .git above %s", ErrNoWorkspace, WorkflowFile, abs)
		}
		d = parent
	}
}

// DiscoverLayers reports the role layers present on disk under root,
// identified by a main template following the naming convention. Layers
// are returned sorted.
func DiscoverLayers(root string) ([]string, error) {
	pattern := filepath.Join(root, RolesDir, "**", "*"+promptSuffix+promptExt)
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, err
	}

	var layers []string
	for _, match := range matches {
		layer := filepath.Base(filepath.Dir(match))
		if filepath.Base(match) == layer+promptSuffix+promptExt {
			layers = append(layers, layer)
		}
	}
	sort.Strings(layers)
	return layers, nil
}

func pathExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
