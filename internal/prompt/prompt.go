// Package prompt assembles per-role instruction payloads from layered
// template files.
//
// A role layer keeps its main template at roles/<layer>/<layer>_prompt.md.
// Assemble renders that template exactly once with strict variables and
// four template functions: include_required, include_optional, file_exists,
// and section. Include paths are workspace-relative and sandboxed; missing
// includes can be seeded from the layer's schemas/ directory; every
// inclusion or skip is recorded in the result's diagnostics.
package prompt

import (
	"fmt"

	"github.com/gerunddev/troupe/internal/assets"
	"github.com/gerunddev/troupe/internal/workspace"
)

// AssembledPrompt is the product of one successful assembly call.
type AssembledPrompt struct {
	// Content is the rendered payload.
	Content string

	// IncludedFiles lists the paths inlined into Content, in the order
	// the template evaluator requested them.
	IncludedFiles []string

	// SkippedFiles lists optional includes that produced no content, each
	// annotated with the reason.
	SkippedFiles []string
}

// Assemble renders the main template of the given role layer against the
// supplied context variables. The call is all-or-nothing: any failure
// aborts it and no partial content is returned. The only side effect that
// outlives a call is auto-seeded files, which stay on disk even when a
// later include in the same render fails.
//
// Concurrent Assemble calls are safe; each call owns its resolver state.
func Assemble(layer string, context map[string]string, loader assets.Loader) (*AssembledPrompt, error) {
	templatePath := workspace.TemplatePath(layer)
	if !loader.Exists(templatePath) {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, templatePath)
	}

	text, err := loader.Read(templatePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTemplateRead, templatePath, err)
	}

	res := newResolver(workspace.SchemaDir(layer), loader)

	// The render always runs to completion; the latch is checked after,
	// and a render-level error outranks it.
	content, err := render(templatePath, text, context, res, loader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	if err := res.failure(); err != nil {
		return nil, err
	}

	included, skipped := res.diagnostics()
	return &AssembledPrompt{
		Content:       content,
		IncludedFiles: included,
		SkippedFiles:  skipped,
	}, nil
}
