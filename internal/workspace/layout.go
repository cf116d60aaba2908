// Package workspace defines the on-disk conventions of a troupe workspace
// and provides root discovery, scaffolding, and layer discovery over them.
//
// A workspace is a git repository that carries a troupe.yml workflow file
// plus a conventions-based tree:
//
//	roles/<layer>/<layer>_prompt.md    main template for one role layer
//	roles/<layer>/schemas/             seed defaults for missing includes
//	workstreams/<name>/                per-workstream working notes
//	docs/                              shared documents templates pull in
//	.troupe/                           local state (run history database)
package workspace

import "path"

// Workspace tree names. Templates reference these paths literally, so they
// are part of the workspace contract, not configuration.
const (
	RolesDir       = "roles"
	SchemasDirName = "schemas"
	WorkstreamsDir = "workstreams"
	DocsDir        = "docs"
	StateDir       = ".troupe"
	WorkflowFile   = "troupe.yml"
	DBFile         = "runs.db"
)

const (
	promptSuffix = "_prompt"
	promptExt    = ".md"
)

// LayerDir returns the base directory of a role layer.
func LayerDir(layer string) string {
	return path.Join(RolesDir, layer)
}

// TemplatePath returns the main prompt template path of a role layer,
// following the <layer>/<layer>_prompt.md convention.
func TemplatePath(layer string) string {
	return path.Join(RolesDir, layer, layer+promptSuffix+promptExt)
}

// SchemaDir returns a layer's schema directory, the source location for
// auto-seeded includes.
func SchemaDir(layer string) string {
	return path.Join(RolesDir, layer, SchemasDirName)
}

// WorkstreamDir returns the directory holding one workstream's notes.
func WorkstreamDir(name string) string {
	return path.Join(WorkstreamsDir, name)
}

// DBPath returns the workspace-relative path of the run history database.
func DBPath() string {
	return path.Join(StateDir, DBFile)
}
