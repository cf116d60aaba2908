// Package assets provides workspace-relative file access for the prompt
// engine and the scaffolding layer.
//
// Paths are slash-separated and relative to the workspace root; each
// implementation owns its root. The prompt engine consumes the four-method
// Loader capability only, so tests can swap in the in-memory Store and
// assert on side effects such as schema seeding without touching real disk.
package assets

// Loader is the capability the prompt engine resolves includes through.
// Side effects of Copy and EnsureDir are immediately visible to subsequent
// Exists and Read calls on the same instance.
type Loader interface {
	// Read returns the text content of the file at path.
	Read(path string) (string, error)

	// Exists reports whether a file or directory is present at path.
	Exists(path string) bool

	// EnsureDir creates the directory at path along with any missing
	// ancestors.
	EnsureDir(path string) error

	// Copy duplicates the file at from to the path at to, returning the
	// number of bytes written. The destination's parent directory must
	// already exist.
	Copy(from, to string) (int64, error)
}

// Store extends Loader with the write operation the scaffolding layer
// needs. The prompt engine never writes through this interface; only setup
// components do.
type Store interface {
	Loader

	// WriteFile writes content to path, replacing any existing file. The
	// parent directory must already exist.
	WriteFile(path string, content string) error
}

// File permissions for workspace writes.
const (
	filePermissions = 0644
	dirPermissions  = 0755
)
