// Package engine orchestrates troupe runs: branch preflight, per-stage
// prompt assembly, session submission, and run history recording.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gerunddev/troupe/internal/assets"
	"github.com/gerunddev/troupe/internal/config"
	"github.com/gerunddev/troupe/internal/db"
	"github.com/gerunddev/troupe/internal/git"
	"github.com/gerunddev/troupe/internal/github"
	"github.com/gerunddev/troupe/internal/log"
	"github.com/gerunddev/troupe/internal/prompt"
	"github.com/gerunddev/troupe/internal/submit"
	"github.com/gerunddev/troupe/internal/workflow"
)

// defaultEventBufferSize is the buffer size for the engine event channel.
const defaultEventBufferSize = 256

// Config holds the parameters of one run.
type Config struct {
	Workstream string
	Task       string
	Branch     string // overrides BranchPrefix + Workstream when set
	BaseBranch string // overrides the repository default branch when set
	Issue      int    // GitHub issue to link from the pull request
	Extra      string // appended verbatim after every assembled payload
	Vars       map[string]string
	DryRun     bool
	OpenPR     bool

	EventBufferSize int // size of event channel buffer (default: 256)
}

// Deps holds dependencies for the engine.
type Deps struct {
	Config    *config.Config
	Workflow  *workflow.Workflow
	Loader    assets.Loader
	DB        *db.DB
	Git       *git.Client
	GitHub    *github.Client
	Submitter *submit.Client
}

// Engine drives one run of the workflow: every enabled role is assembled
// and submitted, stage by stage, with each role's outcome recorded.
type Engine struct {
	cfg    Config
	deps   Deps
	stages [][]string
	branch string

	events   chan Event
	eventsMu sync.Mutex

	mu    sync.RWMutex
	runID string
}

// New creates an engine for one run. The workflow's stages are computed
// up front so an unschedulable workflow fails here, not mid-run.
func New(cfg Config, deps Deps) (*Engine, error) {
	if cfg.Workstream == "" {
		return nil, errors.New("workstream is required")
	}
	if deps.Config == nil {
		return nil, errors.New("config is required")
	}
	if deps.Workflow == nil {
		return nil, errors.New("workflow is required")
	}
	if deps.Loader == nil {
		return nil, errors.New("asset loader is required")
	}
	if !cfg.DryRun {
		if deps.DB == nil {
			return nil, errors.New("database is required")
		}
		if deps.Git == nil {
			return nil, errors.New("git client is required")
		}
		if deps.Submitter == nil {
			return nil, errors.New("submission client is required")
		}
		if cfg.OpenPR && deps.GitHub == nil {
			return nil, errors.New("github client is required to open a pull request")
		}
	}

	stages, err := deps.Workflow.Stages()
	if err != nil {
		return nil, err
	}

	branch := cfg.Branch
	if branch == "" {
		branch = deps.Config.BranchPrefix + cfg.Workstream
	}

	bufferSize := cfg.EventBufferSize
	if bufferSize <= 0 {
		bufferSize = defaultEventBufferSize
	}

	return &Engine{
		cfg:    cfg,
		deps:   deps,
		stages: stages,
		branch: branch,
		events: make(chan Event, bufferSize),
	}, nil
}

// Events returns the channel for receiving engine events.
// The channel is closed when Run returns.
func (e *Engine) Events() <-chan Event {
	return e.events
}

// Pipeline returns the computed stages: role names grouped so that every
// role's needs are satisfied by an earlier group.
func (e *Engine) Pipeline() [][]string {
	return e.stages
}

// Branch returns the branch the run operates on.
func (e *Engine) Branch() string {
	return e.branch
}

// RunID returns the identifier of the current run, or "" before Run starts.
// This method is safe to call concurrently.
func (e *Engine) RunID() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.runID
}

// Run executes the workflow until every stage completes, a role fails, or
// the context is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.events)

	runID := uuid.New().String()
	e.mu.Lock()
	e.runID = runID
	e.mu.Unlock()

	baseBranch := e.cfg.BaseBranch

	if !e.cfg.DryRun {
		if !e.deps.Git.IsRepo(ctx) {
			err := fmt.Errorf("workspace preflight: %w", git.ErrNotRepo)
			e.emit(NewRunFailedEvent(runID, err))
			return err
		}

		if baseBranch == "" {
			resolved, err := e.deps.Git.DefaultBranch(ctx)
			if err != nil {
				log.Warn("could not determine base branch", "error", err)
			} else {
				baseBranch = resolved
			}
		}

		if err := e.deps.Git.EnsureBranch(ctx, e.branch); err != nil {
			err = fmt.Errorf("switching to branch %s: %w", e.branch, err)
			e.emit(NewRunFailedEvent(runID, err))
			return err
		}

		run := &db.Run{
			ID:         runID,
			Workstream: e.cfg.Workstream,
			Task:       e.cfg.Task,
			Branch:     e.branch,
			BaseBranch: baseBranch,
		}
		if err := e.deps.DB.CreateRun(run); err != nil {
			err = fmt.Errorf("recording run: %w", err)
			e.emit(NewRunFailedEvent(runID, err))
			return err
		}
	}

	e.emit(NewRunEvent(EventRunStarted, runID,
		fmt.Sprintf("Run %s started for %s on %s", runID, e.cfg.Workstream, e.branch)))

	total := len(e.stages)
	for i, stage := range e.stages {
		e.emit(NewEvent(EventStageStarted, i, total,
			fmt.Sprintf("Stage %d/%d: %s", i+1, total, strings.Join(stage, ", "))))

		g, gctx := errgroup.WithContext(ctx)
		for _, name := range stage {
			name := name
			g.Go(func() error {
				return e.runRole(gctx, runID, i, total, name)
			})
		}
		if err := g.Wait(); err != nil {
			e.failRun(runID, err)
			return err
		}
	}

	prURL := ""
	if e.cfg.OpenPR && !e.cfg.DryRun {
		prURL = e.openPullRequest(ctx, baseBranch, runID)
	}

	if !e.cfg.DryRun {
		if err := e.deps.DB.FinishRun(runID, db.RunCompleted, prURL, ""); err != nil {
			log.Warn("failed to finish run record", "run", runID, "error", err)
		}
	}

	e.emit(NewRunEvent(EventRunCompleted, runID,
		fmt.Sprintf("Run %s completed (%d stages)", runID, total)))
	return nil
}

// runRole assembles one role and submits it to the session service.
func (e *Engine) runRole(ctx context.Context, runID string, stage, total int, name string) error {
	e.emit(NewRoleEvent(EventRoleStarted, stage, total, name, fmt.Sprintf("Assembling %s", name)))

	roleRunID := uuid.New().String()
	if !e.cfg.DryRun {
		roleRun := &db.RoleRun{
			ID:    roleRunID,
			RunID: runID,
			Role:  name,
			Stage: stage,
		}
		if err := e.deps.DB.CreateRoleRun(roleRun); err != nil {
			return fmt.Errorf("recording role run for %s: %w", name, err)
		}
	}

	assembled, err := prompt.Assemble(name, e.roleContext(name), e.deps.Loader)
	if err != nil {
		e.markRoleFailed(roleRunID, err)
		e.emit(NewRoleErrorEvent(stage, total, name, err))
		return fmt.Errorf("assembling %s: %w", name, err)
	}

	// Issue or requirement text rides along after the rendered content.
	payload := assembled.Content + e.cfg.Extra

	e.emit(NewPromptEvent(stage, total, name, payload,
		len(assembled.IncludedFiles), len(assembled.SkippedFiles)))

	if e.cfg.DryRun {
		e.emit(NewRoleEvent(EventRoleCompleted, stage, total, name,
			fmt.Sprintf("%s assembled (%d bytes, dry run)", name, len(payload))))
		return nil
	}

	if err := e.deps.DB.MarkRoleRunAssembled(roleRunID, len(payload),
		assembled.IncludedFiles, assembled.SkippedFiles); err != nil {
		log.Warn("failed to record assembly", "role", name, "error", err)
	}

	resp, err := e.deps.Submitter.CreateSession(ctx, &submit.SessionRequest{
		ID:         roleRunID,
		Role:       name,
		Workstream: e.cfg.Workstream,
		Branch:     e.branch,
		Prompt:     payload,
		Metadata: map[string]string{
			"run_id": runID,
			"stage":  strconv.Itoa(stage),
		},
	})
	if err != nil {
		e.markRoleFailed(roleRunID, err)
		e.emit(NewRoleErrorEvent(stage, total, name, err))
		return fmt.Errorf("submitting %s: %w", name, err)
	}

	if err := e.deps.DB.MarkRoleRunSubmitted(roleRunID, resp.SessionID, resp.URL); err != nil {
		log.Warn("failed to record session", "role", name, "error", err)
	}

	e.emit(NewSessionEvent(stage, total, name, resp.SessionID, resp.URL))
	e.emit(NewRoleEvent(EventRoleCompleted, stage, total, name,
		fmt.Sprintf("%s submitted as session %s", name, resp.SessionID)))
	return nil
}

// roleContext builds the template variables for one role. Workflow vars
// come first, run vars overlay them, and the reserved keys always win.
func (e *Engine) roleContext(name string) map[string]string {
	vars := e.deps.Workflow.RoleVars(name)
	for k, v := range e.cfg.Vars {
		vars[k] = v
	}
	vars["role"] = name
	vars["workstream"] = e.cfg.Workstream
	vars["task"] = e.cfg.Task
	vars["branch"] = e.branch
	return vars
}

// markRoleFailed records a role failure, if the run keeps history.
func (e *Engine) markRoleFailed(roleRunID string, cause error) {
	if e.cfg.DryRun {
		return
	}
	if err := e.deps.DB.MarkRoleRunFailed(roleRunID, cause.Error()); err != nil {
		log.Warn("failed to record role failure", "error", err)
	}
}

// failRun records and emits an aborted run.
func (e *Engine) failRun(runID string, cause error) {
	if !e.cfg.DryRun {
		if err := e.deps.DB.FinishRun(runID, db.RunFailed, "", cause.Error()); err != nil {
			log.Warn("failed to record run failure", "run", runID, "error", err)
		}
	}
	e.emit(NewRunFailedEvent(runID, cause))
}

// openPullRequest pushes the run branch and opens a pull request against
// the base branch. Failures here never abort a run that already submitted
// every role; they surface as error events.
func (e *Engine) openPullRequest(ctx context.Context, baseBranch, runID string) string {
	if err := e.deps.Git.Push(ctx, e.branch); err != nil {
		log.Warn("failed to push branch before opening pull request",
			"branch", e.branch, "error", err)
	}

	title := e.cfg.Task
	if title == "" {
		title = "Troupe run: " + e.cfg.Workstream
	}

	url, err := e.deps.GitHub.PRCreate(ctx, title, e.pullRequestBody(runID), baseBranch, e.branch)
	if err != nil {
		log.Warn("failed to open pull request", "error", err)
		e.emit(NewErrorEvent(fmt.Errorf("opening pull request: %w", err)))
		return ""
	}

	e.emit(NewRunEvent(EventPROpened, runID, "Opened pull request "+url))
	return url
}

// pullRequestBody summarizes the run's sessions for the pull request.
func (e *Engine) pullRequestBody(runID string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Automated run for workstream %s.\n", e.cfg.Workstream)

	roleRuns, err := e.deps.DB.GetRoleRuns(runID)
	if err != nil {
		log.Warn("failed to load role runs for pull request body", "error", err)
	} else if len(roleRuns) > 0 {
		b.WriteString("\n")
		for _, rr := range roleRuns {
			if rr.SessionURL != "" {
				fmt.Fprintf(&b, "- %s: %s\n", rr.Role, rr.SessionURL)
			} else {
				fmt.Fprintf(&b, "- %s: session %s\n", rr.Role, rr.SessionID)
			}
		}
	}

	if e.cfg.Issue > 0 {
		fmt.Fprintf(&b, "\nCloses #%d\n", e.cfg.Issue)
	}
	return b.String()
}

// emit sends an event to the events channel if it's not full.
func (e *Engine) emit(event Event) {
	e.eventsMu.Lock()
	defer e.eventsMu.Unlock()

	select {
	case e.events <- event:
	default:
		// Channel full, log and drop
		log.Warn("event channel full, dropping event", "type", event.Type)
	}
}
