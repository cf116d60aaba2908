package roles

// defaultDocumentersTemplate is the seeded main template for the
// documenters layer.
const defaultDocumentersTemplate = `You are the {{.role}} layer for the {{.workstream}} workstream.

Capture what this workstream changed so the next one starts warm. Work from
the plan and the workstream notes; do not re-derive decisions from diffs.

## Requirement
{{.task}}

## Contracts
{{include_required "roles/documenters/contracts.yml"}}

{{section "Plan" (include_optional (printf "workstreams/%s/plan.md" .workstream))}}
{{section "Workstream Notes" (include_optional (printf "workstreams/%s/notes.md" .workstream))}}
{{section "Doc Map" (include_optional "roles/documenters/doc_map.md")}}

## Your Tasks

1. Update docs/ with conventions or architecture decisions this workstream
   established
2. Document user-facing changes where the doc map says they belong
3. Prune notes that are now covered by real documentation

## Output

Summarize every file you touched and why.
`

const defaultDocumentersContracts = `layer: documenters
deliverable: documentation updates
handoff: none
inputs:
  - workstreams/<workstream>/plan.md
  - workstreams/<workstream>/notes.md
`

const defaultDocumentersDocMap = `# Doc Map

- docs/conventions.md: coding conventions, testing approaches
- docs/architecture.md: component boundaries, data flow
- README.md: user-facing features and usage
`

func documentersRole() Role {
	return Role{
		Name:     "documenters",
		Title:    "Documenter",
		Summary:  "Folds workstream learnings back into the documentation.",
		Needs:    []string{"developers"},
		Template: defaultDocumentersTemplate,
		Schemas: map[string]string{
			"contracts.yml": defaultDocumentersContracts,
			"doc_map.md":    defaultDocumentersDocMap,
		},
	}
}
