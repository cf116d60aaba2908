// Package setup orders and applies workspace setup components.
//
// A component is one idempotent unit of scaffolding (a directory, a seeded
// file) with explicit dependencies on other components. Resolve produces a
// deterministic dependency order; Run applies it against a store.
package setup

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gerunddev/troupe/internal/assets"
)

// Component is one unit of workspace setup.
type Component struct {
	// Name identifies the component; Needs entries refer to these names.
	Name string

	// Needs lists components that must be applied first.
	Needs []string

	// Apply performs the change. It must be idempotent: applying an
	// already-satisfied component is a no-op, not an error.
	Apply func(store assets.Store) error
}

var (
	// ErrUnknownDependency means a component needs a name no component has.
	ErrUnknownDependency = errors.New("unknown setup dependency")

	// ErrDependencyCycle means the components cannot be ordered.
	ErrDependencyCycle = errors.New("setup dependency cycle")

	// ErrDuplicateComponent means two components share a name.
	ErrDuplicateComponent = errors.New("duplicate setup component")
)

// Resolve orders components so that every component follows all of its
// dependencies. Ties break by declaration order, so the result is
// deterministic for a given input slice.
func Resolve(components []Component) ([]Component, error) {
	index := make(map[string]int, len(components))
	for i, c := range components {
		if _, dup := index[c.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateComponent, c.Name)
		}
		index[c.Name] = i
	}

	indegree := make([]int, len(components))
	dependents := make([][]int, len(components))
	for i, c := range components {
		for _, need := range c.Needs {
			j, ok := index[need]
			if !ok {
				return nil, fmt.Errorf("%w: %s needs %s", ErrUnknownDependency, c.Name, need)
			}
			indegree[i]++
			dependents[j] = append(dependents[j], i)
		}
	}

	ordered := make([]Component, 0, len(components))
	applied := make([]bool, len(components))
	for len(ordered) < len(components) {
		progressed := false
		for i, c := range components {
			if applied[i] || indegree[i] != 0 {
				continue
			}
			applied[i] = true
			ordered = append(ordered, c)
			for _, d := range dependents[i] {
				indegree[d]--
			}
			progressed = true
		}
		if !progressed {
			var stuck []string
			for i, c := range components {
				if !applied[i] {
					stuck = append(stuck, c.Name)
				}
			}
			return nil, fmt.Errorf("%w: %s", ErrDependencyCycle, strings.Join(stuck, ", "))
		}
	}
	return ordered, nil
}

// Run resolves the components and applies them in dependency order,
// stopping at the first failure.
func Run(store assets.Store, components []Component) error {
	ordered, err := Resolve(components)
	if err != nil {
		return err
	}
	for _, c := range ordered {
		if err := c.Apply(store); err != nil {
			return fmt.Errorf("apply %s: %w", c.Name, err)
		}
	}
	return nil
}
