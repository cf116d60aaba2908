package roles

// defaultReviewersTemplate is the seeded main template for the reviewers
// layer.
const defaultReviewersTemplate = `You are the {{.role}} layer for the {{.workstream}} workstream.

Review the latest changes on branch {{.branch}} against the plan and the
rubric. Be specific: every finding names a file and a reason.

## Requirement
{{.task}}

## Contracts
{{include_required "roles/reviewers/contracts.yml"}}

{{section "Rubric" (include_optional "roles/reviewers/rubric.md")}}
{{section "Plan" (include_optional (printf "workstreams/%s/plan.md" .workstream))}}
{{if file_exists "CONTRIBUTING.md"}}
Check CONTRIBUTING.md before flagging style issues; the repository's own
rules win over the rubric.
{{end}}

## Output

Write findings to workstreams/{{.workstream}}/review.md:

1. Blocking issues first, each with file and line context
2. Non-blocking suggestions second
3. An explicit verdict line: APPROVED or CHANGES REQUESTED
`

const defaultReviewersContracts = `layer: reviewers
deliverable: review.md
handoff: developers
inputs:
  - workstreams/<workstream>/plan.md
`

const defaultReviewersRubric = `# Review Rubric

- Correctness: does the change do what the work item asked?
- Tests: are the new paths covered, do existing tests still hold?
- Scope: anything unrelated smuggled in?
- Clarity: would a newcomer understand this diff?
`

func reviewersRole() Role {
	return Role{
		Name:     "reviewers",
		Title:    "Reviewer",
		Summary:  "Reviews committed changes against the plan and rubric.",
		Needs:    []string{"developers"},
		Template: defaultReviewersTemplate,
		Schemas: map[string]string{
			"contracts.yml": defaultReviewersContracts,
			"rubric.md":     defaultReviewersRubric,
		},
	}
}
