package roles

// defaultPlannersTemplate is the seeded main template for the planners
// layer. It uses the prompt engine's template syntax.
const defaultPlannersTemplate = `You are the {{.role}} layer for the {{.workstream}} workstream.

Break the requirement below into discrete, reviewable work items for the
developers layer. Order items by dependency and keep each one completable in
a single session.

## Requirement
{{.task}}

## Contracts
{{include_required "roles/planners/contracts.yml"}}

{{section "Plan Skeleton" (include_optional "roles/planners/plan.md")}}
{{section "Conventions" (include_optional "docs/conventions.md")}}
{{section "Architecture" (include_optional "docs/architecture.md")}}
{{section "Workstream Notes" (include_optional (printf "workstreams/%s/notes.md" .workstream))}}

## Output

Write the plan to workstreams/{{.workstream}}/plan.md on branch {{.branch}}:

1. Numbered work items, each with acceptance criteria
2. Dependencies between items called out explicitly
3. Open questions listed at the end, never buried inside items
`

const defaultPlannersContracts = `layer: planners
deliverable: plan.md
handoff: developers
inputs:
  - docs/conventions.md
  - docs/architecture.md
`

const defaultPlannersPlanSkeleton = `# Plan

## Work Items

1. ...

## Dependencies

## Open Questions
`

func plannersRole() Role {
	return Role{
		Name:     "planners",
		Title:    "Planner",
		Summary:  "Breaks a requirement into ordered, reviewable work items.",
		Needs:    nil,
		Template: defaultPlannersTemplate,
		Schemas: map[string]string{
			"contracts.yml": defaultPlannersContracts,
			"plan.md":       defaultPlannersPlanSkeleton,
		},
	}
}
