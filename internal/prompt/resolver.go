package prompt

import (
	"fmt"
	"path"
	"sync"

	"github.com/gerunddev/troupe/internal/assets"
	"github.com/gerunddev/troupe/internal/pathsafe"
)

// resolver mediates every include requested during one assembly call. It
// owns the call's diagnostics and its first fatal error; all of this state
// is created fresh per call and discarded when the call ends.
type resolver struct {
	loader    assets.Loader
	schemaDir string

	mu       sync.Mutex
	fail     error
	included []string
	skipped  []string
}

func newResolver(schemaDir string, loader assets.Loader) *resolver {
	return &resolver{loader: loader, schemaDir: schemaDir}
}

// latch records err as the call's fatal failure. The first error wins;
// later ones are dropped. Callers must hold r.mu.
func (r *resolver) latch(err error) {
	if r.fail == nil {
		r.fail = err
	}
}

// resolve loads one include. It never returns an error: template functions
// cannot abort rendering, so failures either latch (fatal, resolved after
// the render finishes) or degrade to an empty string plus a skipped entry.
// Once a failure is latched every later call is a no-op returning "".
func (r *resolver) resolve(p string, required bool) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.fail != nil {
		return ""
	}

	// Unsafe paths are fatal regardless of optionality: optional is a
	// statement about absence, not about escaping the workspace.
	if err := pathsafe.Validate(p); err != nil {
		r.latch(fmt.Errorf("%w: %v", ErrPathTraversal, err))
		return ""
	}

	var seedErr error
	if !r.loader.Exists(p) {
		seedErr = r.seed(p, required)
		if r.fail != nil {
			return ""
		}
	}

	if r.loader.Exists(p) {
		content, err := r.loader.Read(p)
		if err != nil {
			if required {
				r.latch(fmt.Errorf("%w: %s: %v", ErrIncludeRead, p, err))
			} else {
				r.skipped = append(r.skipped, fmt.Sprintf("%s (read error: %v)", p, err))
			}
			return ""
		}
		r.included = append(r.included, p)
		return content
	}

	switch {
	case required:
		r.latch(fmt.Errorf("%w: %s", ErrIncludeNotFound, p))
	case seedErr != nil:
		r.skipped = append(r.skipped, fmt.Sprintf("%s (seed failed: %v)", p, seedErr))
	default:
		r.skipped = append(r.skipped, fmt.Sprintf("%s (not found)", p))
	}
	return ""
}

// seed copies the layer's schema default over a missing include, when one
// exists. A seeding failure latches ErrSchemaSeed for required includes;
// for optional ones nothing is latched and the error is returned so the
// eventual skip entry can carry the reason. Callers must hold r.mu.
func (r *resolver) seed(p string, required bool) error {
	schemaPath := path.Join(r.schemaDir, path.Base(p))
	if !r.loader.Exists(schemaPath) {
		return nil
	}

	if err := r.loader.EnsureDir(path.Dir(p)); err != nil {
		if required {
			r.latch(fmt.Errorf("%w: %s: %v", ErrSchemaSeed, p, err))
		}
		return err
	}
	if _, err := r.loader.Copy(schemaPath, p); err != nil {
		if required {
			r.latch(fmt.Errorf("%w: %s: %v", ErrSchemaSeed, p, err))
		}
		return err
	}
	return nil
}

// failure returns the latched error, if any.
func (r *resolver) failure() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fail
}

// diagnostics returns copies of the included and skipped lists, in the
// order the template evaluator requested the corresponding includes.
func (r *resolver) diagnostics() (included, skipped []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.included...), append([]string(nil), r.skipped...)
}
