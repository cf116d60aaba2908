// Package workflow loads and validates troupe.yml, the file at the
// workspace root that declares which role layers run and how they
// depend on each other.
package workflow

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gerunddev/troupe/internal/assets"
	"github.com/gerunddev/troupe/internal/roles"
	"github.com/gerunddev/troupe/internal/workspace"
)

// CurrentVersion is the only workflow file version this build reads.
const CurrentVersion = 1

var (
	// ErrNotFound indicates the workspace has no workflow file yet.
	ErrNotFound = errors.New("workflow file not found")

	// ErrDependencyCycle indicates the role graph cannot be ordered.
	ErrDependencyCycle = errors.New("role dependency cycle")
)

// Workflow is the parsed troupe.yml.
type Workflow struct {
	Version    int               `yaml:"version"`
	Workstream string            `yaml:"workstream,omitempty"`
	Vars       map[string]string `yaml:"vars,omitempty"`
	Roles      []RoleSpec        `yaml:"roles"`
}

// RoleSpec declares one role layer in the workflow. A role is enabled
// unless explicitly disabled; its needs name other declared roles.
type RoleSpec struct {
	Name     string            `yaml:"name"`
	Disabled bool              `yaml:"disabled,omitempty"`
	Needs    []string          `yaml:"needs,omitempty"`
	Vars     map[string]string `yaml:"vars,omitempty"`
}

// Load reads and parses the workflow file from the workspace.
func Load(loader assets.Loader) (*Workflow, error) {
	if !loader.Exists(workspace.WorkflowFile) {
		return nil, fmt.Errorf("%s: %w", workspace.WorkflowFile, ErrNotFound)
	}
	data, err := loader.Read(workspace.WorkflowFile)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", workspace.WorkflowFile, err)
	}
	return Parse([]byte(data))
}

// Parse unmarshals and validates workflow YAML.
func Parse(data []byte) (*Workflow, error) {
	var w Workflow
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("parsing workflow: %w", err)
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &w, nil
}

// Validate checks the workflow shape and role graph. All problems are
// reported together rather than one at a time.
func (w *Workflow) Validate() error {
	var errs []error
	if w.Version != CurrentVersion {
		errs = append(errs, fmt.Errorf("unsupported workflow version %d, want %d", w.Version, CurrentVersion))
	}
	if len(w.Roles) == 0 {
		errs = append(errs, errors.New("no roles declared"))
	}

	seen := make(map[string]bool, len(w.Roles))
	for _, r := range w.Roles {
		if r.Name == "" {
			errs = append(errs, errors.New("role with empty name"))
			continue
		}
		if seen[r.Name] {
			errs = append(errs, fmt.Errorf("duplicate role %s", r.Name))
		}
		seen[r.Name] = true
	}
	for _, r := range w.Roles {
		for _, need := range r.Needs {
			if need == r.Name {
				errs = append(errs, fmt.Errorf("role %s depends on itself", r.Name))
			} else if !seen[need] {
				errs = append(errs, fmt.Errorf("role %s needs unknown role %s", r.Name, need))
			}
		}
	}

	if len(errs) == 0 {
		if _, err := w.Stages(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Role returns the spec for the named role.
func (w *Workflow) Role(name string) (RoleSpec, bool) {
	for _, r := range w.Roles {
		if r.Name == name {
			return r, true
		}
	}
	return RoleSpec{}, false
}

// Enabled returns the roles that will actually run, in declaration
// order.
func (w *Workflow) Enabled() []RoleSpec {
	var active []RoleSpec
	for _, r := range w.Roles {
		if !r.Disabled {
			active = append(active, r)
		}
	}
	return active
}

// RoleVars returns the template variables for one role: workflow-level
// vars overlaid with the role's own.
func (w *Workflow) RoleVars(name string) map[string]string {
	vars := make(map[string]string, len(w.Vars))
	for k, v := range w.Vars {
		vars[k] = v
	}
	if r, ok := w.Role(name); ok {
		for k, v := range r.Vars {
			vars[k] = v
		}
	}
	return vars
}

// Stages groups the enabled roles into execution stages. Every role in
// a stage has all of its needs satisfied by earlier stages, so roles
// within one stage can run concurrently. Needs that point at disabled
// roles are treated as met so that turning a layer off never wedges the
// layers behind it.
func (w *Workflow) Stages() ([][]string, error) {
	active := w.Enabled()
	names := make(map[string]bool, len(active))
	for _, r := range active {
		names[r.Name] = true
	}

	order := make([]string, 0, len(active))
	pending := make(map[string][]string, len(active))
	for _, r := range active {
		order = append(order, r.Name)
		var needs []string
		for _, need := range r.Needs {
			if names[need] {
				needs = append(needs, need)
			}
		}
		pending[r.Name] = needs
	}

	var stages [][]string
	done := make(map[string]bool, len(active))
	for len(done) < len(active) {
		var stage []string
		for _, name := range order {
			if done[name] {
				continue
			}
			ready := true
			for _, need := range pending[name] {
				if !done[need] {
					ready = false
					break
				}
			}
			if ready {
				stage = append(stage, name)
			}
		}
		if len(stage) == 0 {
			var stuck []string
			for _, name := range order {
				if !done[name] {
					stuck = append(stuck, name)
				}
			}
			return nil, fmt.Errorf("%w: %s", ErrDependencyCycle, strings.Join(stuck, ", "))
		}
		for _, name := range stage {
			done[name] = true
		}
		stages = append(stages, stage)
	}
	return stages, nil
}

// Default builds the workflow matching the bundled role registry.
func Default(all []roles.Role) *Workflow {
	w := &Workflow{Version: CurrentVersion}
	for _, r := range all {
		w.Roles = append(w.Roles, RoleSpec{Name: r.Name, Needs: r.Needs})
	}
	return w
}

// DefaultYAML renders the default workflow as the troupe.yml content
// seeded by scaffolding.
func DefaultYAML(all []roles.Role) (string, error) {
	data, err := yaml.Marshal(Default(all))
	if err != nil {
		return "", fmt.Errorf("rendering default workflow: %w", err)
	}
	header := "# Troupe workflow. Roles run in dependency order; roles whose needs\n" +
		"# are all met run in the same stage.\n"
	return header + string(data), nil
}
