// Package db provides run history storage for Troupe.
package db

import "time"

// RunStatus represents the status of a run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// RoleRunStatus represents the status of one role within a run.
type RoleRunStatus string

const (
	RoleRunPending   RoleRunStatus = "pending"
	RoleRunAssembled RoleRunStatus = "assembled"
	RoleRunSubmitted RoleRunStatus = "submitted"
	RoleRunFailed    RoleRunStatus = "failed"
)

// Run represents one workflow invocation for a workstream.
type Run struct {
	ID         string
	Workstream string
	Task       string
	Branch     string
	BaseBranch string
	Status     RunStatus
	PRURL      string
	Error      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	FinishedAt *time.Time // nullable
}

// RoleRun represents one role's prompt assembly and submission within a run.
type RoleRun struct {
	ID            string
	RunID         string
	Role          string
	Stage         int
	Status        RoleRunStatus
	SessionID     string
	SessionURL    string
	PromptBytes   int
	IncludedFiles []string
	SkippedFiles  []string
	Error         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
