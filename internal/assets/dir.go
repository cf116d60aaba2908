package assets

import (
	"io"
	"os"
	"path/filepath"

	"github.com/gerunddev/troupe/internal/log"
)

// Dir is the production Store, backed by a directory on the real
// filesystem.
type Dir struct {
	root string
}

// NewDir creates a Store rooted at the given directory.
func NewDir(root string) *Dir {
	return &Dir{root: root}
}

// Root returns the directory all paths resolve against.
func (d *Dir) Root() string {
	return d.root
}

func (d *Dir) abs(path string) string {
	return filepath.Join(d.root, filepath.FromSlash(path))
}

// Read returns the text content of the file at path.
func (d *Dir) Read(path string) (string, error) {
	data, err := os.ReadFile(d.abs(path))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Exists reports whether a file or directory is present at path.
func (d *Dir) Exists(path string) bool {
	_, err := os.Stat(d.abs(path))
	return err == nil
}

// EnsureDir creates the directory at path along with any missing ancestors.
func (d *Dir) EnsureDir(path string) error {
	return os.MkdirAll(d.abs(path), dirPermissions)
}

// Copy duplicates the file at from to the path at to.
func (d *Dir) Copy(from, to string) (int64, error) {
	src, err := os.Open(d.abs(from))
	if err != nil {
		return 0, err
	}
	defer func() {
		log.CloseError(from, src.Close())
	}()

	dst, err := os.OpenFile(d.abs(to), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePermissions)
	if err != nil {
		return 0, err
	}

	written, err := io.Copy(dst, src)
	if err != nil {
		log.CloseError(to, dst.Close())
		return written, err
	}
	return written, dst.Close()
}

// WriteFile writes content to path, replacing any existing file.
func (d *Dir) WriteFile(path string, content string) error {
	return os.WriteFile(d.abs(path), []byte(content), filePermissions)
}
