// Package roles defines the built-in automation role layers and the
// default workspace content seeded for each of them.
package roles

// Role describes one automation role layer: its identity, its scheduling
// dependencies, and the default content scaffolded into the workspace.
type Role struct {
	// Name is the layer identifier and the directory basename under roles/.
	Name string

	// Title is the human-readable name shown in listings.
	Title string

	// Summary is a one-line description of the role's job.
	Summary string

	// Needs lists roles that must run in an earlier stage.
	Needs []string

	// Template is the default main prompt template, seeded at
	// roles/<name>/<name>_prompt.md. It uses the prompt engine's template
	// syntax: {{.role}}, {{.workstream}}, {{.task}}, {{.branch}} variables
	// plus include_required, include_optional, file_exists, and section.
	Template string

	// Schemas maps file basenames to default content, seeded under
	// roles/<name>/schemas/. They double as auto-seed sources for
	// includes resolved while this layer assembles.
	Schemas map[string]string
}

// All returns the built-in roles in pipeline order.
func All() []Role {
	return []Role{
		plannersRole(),
		developersRole(),
		reviewersRole(),
		documentersRole(),
	}
}

// Get returns the built-in role with the given name.
func Get(name string) (Role, bool) {
	for _, r := range All() {
		if r.Name == name {
			return r, true
		}
	}
	return Role{}, false
}

// Names returns the built-in role names in pipeline order.
func Names() []string {
	all := All()
	names := make([]string, len(all))
	for i, r := range all {
		names[i] = r.Name
	}
	return names
}
