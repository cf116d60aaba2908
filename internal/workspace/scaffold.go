package workspace

import (
	"sort"

	"github.com/gerunddev/troupe/internal/assets"
	"github.com/gerunddev/troupe/internal/roles"
	"github.com/gerunddev/troupe/internal/setup"
)

// ScaffoldResult reports what one Scaffold call changed.
type ScaffoldResult struct {
	// Created lists paths this call created, in apply order.
	Created []string

	// Skipped lists paths left untouched because they already existed.
	Skipped []string
}

// Scaffold builds the conventions-based tree for the given roles and seeds
// default content. Existing files are never overwritten: re-running
// Scaffold on a populated workspace only fills gaps. The tree is applied
// as setup components in dependency order, so directories always precede
// the files inside them.
func Scaffold(store assets.Store, all []roles.Role, workflowYAML string) (*ScaffoldResult, error) {
	result := &ScaffoldResult{}

	components := []setup.Component{
		dirComponent(result, "dirs:state", StateDir),
		dirComponent(result, "dirs:roles", RolesDir),
		dirComponent(result, "dirs:workstreams", WorkstreamsDir),
		dirComponent(result, "dirs:docs", DocsDir),
		fileComponent(result, "workflow-file", WorkflowFile, workflowYAML),
	}

	for _, role := range all {
		roleComp := "role:" + role.Name
		schemaComp := "schemas:" + role.Name
		components = append(components,
			dirComponent(result, roleComp, LayerDir(role.Name), "dirs:roles"),
			dirComponent(result, schemaComp, SchemaDir(role.Name), roleComp),
			fileComponent(result, "template:"+role.Name, TemplatePath(role.Name), role.Template, roleComp),
		)

		// Map iteration order is random; sort for deterministic output.
		basenames := make([]string, 0, len(role.Schemas))
		for basename := range role.Schemas {
			basenames = append(basenames, basename)
		}
		sort.Strings(basenames)
		for _, basename := range basenames {
			components = append(components, fileComponent(result,
				"seed:"+role.Name+":"+basename,
				SchemaDir(role.Name)+"/"+basename,
				role.Schemas[basename],
				schemaComp))
		}
	}

	if err := setup.Run(store, components); err != nil {
		return nil, err
	}
	return result, nil
}

func dirComponent(result *ScaffoldResult, name, path string, needs ...string) setup.Component {
	return setup.Component{Name: name, Needs: needs, Apply: func(store assets.Store) error {
		if store.Exists(path) {
			result.Skipped = append(result.Skipped, path)
			return nil
		}
		if err := store.EnsureDir(path); err != nil {
			return err
		}
		result.Created = append(result.Created, path)
		return nil
	}}
}

func fileComponent(result *ScaffoldResult, name, path, content string, needs ...string) setup.Component {
	return setup.Component{Name: name, Needs: needs, Apply: func(store assets.Store) error {
		if store.Exists(path) {
			result.Skipped = append(result.Skipped, path)
			return nil
		}
		if err := store.WriteFile(path, content); err != nil {
			return err
		}
		result.Created = append(result.Created, path)
		return nil
	}}
}
