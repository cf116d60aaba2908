package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/gerunddev/troupe/internal/assets"
	"github.com/gerunddev/troupe/internal/pathsafe"
)

// render parses and executes the main template exactly once. Variable
// lookups are strict: referencing a context variable that was not supplied
// is a render error, never a silent blank. Parse and execution errors are
// both render-level errors, distinct from anything the resolver latches.
func render(name, text string, context map[string]string, res *resolver, loader assets.Loader) (string, error) {
	tmpl, err := template.New(name).
		Option("missingkey=error").
		Funcs(template.FuncMap{
			"include_required": func(p string) string {
				return res.resolve(p, true)
			},
			"include_optional": func(p string) string {
				return res.resolve(p, false)
			},
			// file_exists is advisory: an unsafe path reads as absent
			// instead of aborting the render.
			"file_exists": func(p string) bool {
				if !pathsafe.IsSafe(p) {
					return false
				}
				return loader.Exists(p)
			},
			"section": Section,
		}).
		Parse(text)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, context); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Section formats an optional chapter of a prompt. Content that trims to
// nothing collapses to the empty string, so chapters backed by absent
// optional includes vanish without conditional logic in the template.
// Anything else is framed with a separator line and a markdown heading,
// with trailing whitespace trimmed.
func Section(title, content string) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	return fmt.Sprintf("\n---\n\n# %s\n\n%s\n", title, strings.TrimRight(content, " \t\r\n"))
}
