package assets

import (
	"io/fs"
	"path"
	"strings"
	"sync"
)

// Mem is an in-memory Store used by tests. It mirrors the real filesystem's
// failure modes: reads of missing files return fs.ErrNotExist, and writes
// require the parent directory to exist.
type Mem struct {
	mu    sync.Mutex
	files map[string]string
	dirs  map[string]bool
}

// NewMem creates an empty in-memory Store with its root directory present.
func NewMem() *Mem {
	return &Mem{
		files: make(map[string]string),
		dirs:  map[string]bool{".": true},
	}
}

func normalize(p string) string {
	return path.Clean(strings.ReplaceAll(p, `\`, "/"))
}

// Read returns the text content of the file at path.
func (m *Mem) Read(p string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	content, ok := m.files[normalize(p)]
	if !ok {
		return "", &fs.PathError{Op: "open", Path: p, Err: fs.ErrNotExist}
	}
	return content, nil
}

// Exists reports whether a file or directory is present at path.
func (m *Mem) Exists(p string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := normalize(p)
	if _, ok := m.files[key]; ok {
		return true
	}
	return m.dirs[key]
}

// EnsureDir creates the directory at path along with any missing ancestors.
func (m *Mem) EnsureDir(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key := normalize(p); key != "." && key != "/"; key = path.Dir(key) {
		m.dirs[key] = true
	}
	return nil
}

// Copy duplicates the file at from to the path at to. The destination's
// parent directory must exist, matching os.OpenFile on a real filesystem.
func (m *Mem) Copy(from, to string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	content, ok := m.files[normalize(from)]
	if !ok {
		return 0, &fs.PathError{Op: "open", Path: from, Err: fs.ErrNotExist}
	}
	if err := m.requireParent(to); err != nil {
		return 0, err
	}
	m.files[normalize(to)] = content
	return int64(len(content)), nil
}

// WriteFile writes content to path, replacing any existing file.
func (m *Mem) WriteFile(p string, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireParent(p); err != nil {
		return err
	}
	m.files[normalize(p)] = content
	return nil
}

// requireParent enforces that the parent directory of p exists. Callers
// must hold m.mu.
func (m *Mem) requireParent(p string) error {
	parent := path.Dir(normalize(p))
	if parent == "." || m.dirs[parent] {
		return nil
	}
	return &fs.PathError{Op: "open", Path: p, Err: fs.ErrNotExist}
}
