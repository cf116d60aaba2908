package prompt

import "errors"

// Assembly failures. Every one of them aborts the whole assemble call:
// there is no partial content and nothing is retried.
var (
	// ErrTemplateNotFound means the layer's main template is missing.
	ErrTemplateNotFound = errors.New("assembly template not found")

	// ErrTemplateRead means the main template exists but could not be read.
	ErrTemplateRead = errors.New("assembly template read failed")

	// ErrIncludeNotFound means a required include is absent and no schema
	// default was available to seed it.
	ErrIncludeNotFound = errors.New("required include not found")

	// ErrIncludeRead means a required include exists but could not be read.
	ErrIncludeRead = errors.New("required include read failed")

	// ErrRender means the template failed to parse or execute, for example
	// by referencing a context variable that was not supplied.
	ErrRender = errors.New("template render failed")

	// ErrPathTraversal means an include path tried to escape the workspace
	// root. Fatal even inside include_optional.
	ErrPathTraversal = errors.New("path traversal detected")

	// ErrSchemaSeed means copying a schema default over a missing required
	// include failed.
	ErrSchemaSeed = errors.New("schema seed failed")
)
