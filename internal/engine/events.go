// Package engine orchestrates troupe runs: branch preflight, per-stage
// prompt assembly, session submission, and run history recording.
package engine

import "fmt"

// EventType represents the type of an engine event.
type EventType string

const (
	// EventRunStarted is emitted once when the run begins.
	EventRunStarted EventType = "run_started"
	// EventStageStarted is emitted when a stage of roles begins.
	EventStageStarted EventType = "stage_started"
	// EventRoleStarted is emitted when a role begins assembling.
	EventRoleStarted EventType = "role_started"
	// EventPromptAssembled is emitted with the full assembled payload.
	EventPromptAssembled EventType = "prompt_assembled"
	// EventSessionCreated is emitted when the session service accepts a role.
	EventSessionCreated EventType = "session_created"
	// EventRoleCompleted is emitted when a role finishes its stage work.
	EventRoleCompleted EventType = "role_completed"
	// EventRoleFailed is emitted when a role fails to assemble or submit.
	EventRoleFailed EventType = "role_failed"
	// EventPROpened is emitted when a pull request has been opened.
	EventPROpened EventType = "pr_opened"
	// EventRunCompleted is emitted once when every stage has finished.
	EventRunCompleted EventType = "run_completed"
	// EventRunFailed is emitted when the run aborts.
	EventRunFailed EventType = "run_failed"
	// EventError is emitted for errors that do not abort the run.
	EventError EventType = "error"
)

// Event represents an event emitted during a run.
type Event struct {
	Type       EventType
	Stage      int // stage index, meaningful for stage and role events
	Stages     int // total number of stages in the run
	Role       string
	RunID      string
	Message    string
	Prompt     string // for EventPromptAssembled events (full payload)
	SessionID  string // for EventSessionCreated events
	SessionURL string
	Err        error
}

// NewEvent creates a new engine event with the given type and message.
func NewEvent(t EventType, stage, stages int, msg string) Event {
	return Event{
		Type:    t,
		Stage:   stage,
		Stages:  stages,
		Message: msg,
	}
}

// NewRunEvent creates a run-level event carrying the run ID.
func NewRunEvent(t EventType, runID, msg string) Event {
	return Event{
		Type:    t,
		RunID:   runID,
		Message: msg,
	}
}

// NewRoleEvent creates a role-level event.
func NewRoleEvent(t EventType, stage, stages int, role, msg string) Event {
	return Event{
		Type:    t,
		Stage:   stage,
		Stages:  stages,
		Role:    role,
		Message: msg,
	}
}

// NewPromptEvent creates a prompt assembled event with the full payload.
func NewPromptEvent(stage, stages int, role, payload string, included, skipped int) Event {
	return Event{
		Type:    EventPromptAssembled,
		Stage:   stage,
		Stages:  stages,
		Role:    role,
		Prompt:  payload,
		Message: fmt.Sprintf("Assembled %s (%d bytes, %d included, %d skipped)", role, len(payload), included, skipped),
	}
}

// NewSessionEvent creates a session created event.
func NewSessionEvent(stage, stages int, role, sessionID, sessionURL string) Event {
	return Event{
		Type:       EventSessionCreated,
		Stage:      stage,
		Stages:     stages,
		Role:       role,
		SessionID:  sessionID,
		SessionURL: sessionURL,
		Message:    fmt.Sprintf("Session %s created for %s", sessionID, role),
	}
}

// NewRoleErrorEvent creates a role failed event.
func NewRoleErrorEvent(stage, stages int, role string, err error) Event {
	return Event{
		Type:    EventRoleFailed,
		Stage:   stage,
		Stages:  stages,
		Role:    role,
		Err:     err,
		Message: err.Error(),
	}
}

// NewRunFailedEvent creates a run failed event.
func NewRunFailedEvent(runID string, err error) Event {
	return Event{
		Type:    EventRunFailed,
		RunID:   runID,
		Err:     err,
		Message: err.Error(),
	}
}

// NewErrorEvent creates a non-fatal error event.
func NewErrorEvent(err error) Event {
	return Event{
		Type:    EventError,
		Err:     err,
		Message: err.Error(),
	}
}
