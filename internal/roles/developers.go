package roles

// defaultDevelopersTemplate is the seeded main template for the developers
// layer.
const defaultDevelopersTemplate = `You are the {{.role}} layer for the {{.workstream}} workstream.

Implement the next open work item from the plan. One item per session; no
scope creep.

## Requirement
{{.task}}

## Contracts
{{include_required "roles/developers/contracts.yml"}}

{{section "Plan" (include_optional (printf "workstreams/%s/plan.md" .workstream))}}
{{section "Checklist" (include_optional "roles/developers/checklist.md")}}
{{section "Conventions" (include_optional "docs/conventions.md")}}
{{section "Workstream Notes" (include_optional (printf "workstreams/%s/notes.md" .workstream))}}

## Guidelines

1. Follow existing patterns in the codebase
2. Commit to {{.branch}} with clear, scoped messages
3. Update workstreams/{{.workstream}}/notes.md with decisions the next
   session will need
4. Mark the work item done in workstreams/{{.workstream}}/plan.md before
   finishing
`

const defaultDevelopersContracts = `layer: developers
deliverable: committed changes
handoff: reviewers
inputs:
  - workstreams/<workstream>/plan.md
`

const defaultDevelopersChecklist = `# Developer Checklist

- [ ] Work item acceptance criteria met
- [ ] Tests updated alongside the change
- [ ] Notes file updated for the next session
- [ ] Plan updated with completion status
`

func developersRole() Role {
	return Role{
		Name:     "developers",
		Title:    "Developer",
		Summary:  "Implements one planned work item per session.",
		Needs:    []string{"planners"},
		Template: defaultDevelopersTemplate,
		Schemas: map[string]string{
			"contracts.yml": defaultDevelopersContracts,
			"checklist.md":  defaultDevelopersChecklist,
		},
	}
}
