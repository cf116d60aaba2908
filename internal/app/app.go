// Package app wires a troupe run together: it loads configuration, finds
// the workspace, builds the engine's dependencies, and drives the run
// either through the TUI or headless.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gerunddev/troupe/internal/assets"
	"github.com/gerunddev/troupe/internal/config"
	"github.com/gerunddev/troupe/internal/db"
	"github.com/gerunddev/troupe/internal/engine"
	"github.com/gerunddev/troupe/internal/git"
	"github.com/gerunddev/troupe/internal/github"
	"github.com/gerunddev/troupe/internal/log"
	"github.com/gerunddev/troupe/internal/submit"
	"github.com/gerunddev/troupe/internal/tui"
	"github.com/gerunddev/troupe/internal/workflow"
	"github.com/gerunddev/troupe/internal/workspace"
)

// Options holds the parameters of one run, as collected by the CLI.
type Options struct {
	// WorkDir is the directory to resolve the workspace from.
	// If empty, uses the current working directory.
	WorkDir string

	Workstream string
	Task       string
	Extra      string // requirement text appended after every payload
	Issue      int    // GitHub issue whose body joins the payload
	Branch     string
	BaseBranch string
	Vars       map[string]string
	DryRun     bool
	OpenPR     bool
}

// App orchestrates one run.
type App struct {
	cfg  *config.Config
	opts Options
	root string

	loader    assets.Loader
	db        *db.DB
	git       *git.Client
	github    *github.Client
	submitter *submit.Client

	// For testing: allow injecting mock dependencies
	loaderOverride assets.Loader
	dbOverride     *db.DB
	gitOverride    *git.Client
	githubOverride *github.Client
	submitOverride *submit.Client
}

// New creates a new App rooted at the workspace containing opts.WorkDir.
func New(opts Options) (*App, error) {
	appConfig, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log.SetLevelString(appConfig.LogLevel)

	workDir := opts.WorkDir
	if workDir == "" {
		workDir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
	}

	root, err := workspaceRoot(workDir)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:  appConfig,
		opts: opts,
		root: root,
	}, nil
}

// workspaceRoot resolves the workspace containing dir.
func workspaceRoot(dir string) (string, error) {
	root, err := workspace.FindRoot(dir)
	if errors.Is(err, workspace.ErrNoWorkspace) {
		return "", fmt.Errorf("no troupe workspace found from %s (run `troupe init` inside a git repository)", dir)
	}
	if err != nil {
		return "", fmt.Errorf("failed to locate workspace: %w", err)
	}
	return root, nil
}

// Root returns the workspace root the app resolved.
func (a *App) Root() string {
	return a.root
}

// Run drives a run with the TUI attached to the engine's event stream.
func (a *App) Run(ctx context.Context) error {
	eng, cleanup, err := a.prepare(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	model := tui.NewModel(tui.Info{
		Workstream: a.opts.Workstream,
		Branch:     eng.Branch(),
	}, eng.Pipeline(), eng.Events())

	p := tea.NewProgram(model, tea.WithAltScreen())

	runDone := make(chan error, 1)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		runDone <- eng.Run(runCtx)
	}()

	// Run the TUI (blocks until quit)
	_, tuiErr := p.Run()

	// Cancel the run when the TUI exits, then wait for it
	cancelRun()
	wg.Wait()
	runErr := <-runDone

	if tuiErr != nil {
		return tuiErr
	}

	// Context.Canceled is expected when the user quits
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

// RunHeadless drives a run without the TUI, logging every event.
func (a *App) RunHeadless(ctx context.Context) error {
	eng, cleanup, err := a.prepare(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for event := range eng.Events() {
			logEvent(event)
		}
	}()

	runErr := eng.Run(ctx)
	<-done
	return runErr
}

// prepare builds the engine and its dependencies. The returned cleanup
// releases whatever prepare opened, whether or not the run happens.
func (a *App) prepare(ctx context.Context) (*engine.Engine, func(), error) {
	cleanup := func() {
		if a.db != nil {
			if err := a.db.Close(); err != nil {
				log.Warn("failed to close database", "error", err)
			}
		}
	}

	if err := a.initDependencies(); err != nil {
		cleanup()
		return nil, nil, err
	}

	wf, err := workflow.Load(a.loader)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	extra, err := a.buildExtra(ctx)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	eng, err := engine.New(engine.Config{
		Workstream: a.opts.Workstream,
		Task:       a.opts.Task,
		Branch:     a.opts.Branch,
		BaseBranch: a.opts.BaseBranch,
		Issue:      a.opts.Issue,
		Extra:      extra,
		Vars:       a.opts.Vars,
		DryRun:     a.opts.DryRun,
		OpenPR:     a.opts.OpenPR,
	}, engine.Deps{
		Config:    a.cfg,
		Workflow:  wf,
		Loader:    a.loader,
		DB:        a.db,
		Git:       a.git,
		GitHub:    a.github,
		Submitter: a.submitter,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return eng, cleanup, nil
}

// initDependencies builds the engine's collaborators, honoring any test
// overrides. Dry runs only need the loader.
func (a *App) initDependencies() error {
	if a.loaderOverride != nil {
		a.loader = a.loaderOverride
	} else {
		a.loader = assets.NewDir(a.root)
	}

	if a.gitOverride != nil {
		a.git = a.gitOverride
	} else if !a.opts.DryRun {
		a.git = git.NewClient(a.root)
	}

	if a.githubOverride != nil {
		a.github = a.githubOverride
	} else if !a.opts.DryRun && (a.opts.OpenPR || a.opts.Issue > 0) {
		a.github = github.NewClient(a.root)
	}

	if a.submitOverride != nil {
		a.submitter = a.submitOverride
	} else if !a.opts.DryRun {
		client, err := submit.NewClient(submit.Config{
			BaseURL: a.cfg.Submit.ServiceURL,
			Token:   a.cfg.Submit.Token,
			Timeout: a.cfg.SubmitTimeout(),
		})
		if err != nil {
			return fmt.Errorf("configuring submission client: %w", err)
		}
		a.submitter = client
	}

	if a.dbOverride != nil {
		a.db = a.dbOverride
	} else if !a.opts.DryRun {
		database, err := db.Open(a.root)
		if err != nil {
			return fmt.Errorf("failed to open run database: %w", err)
		}
		a.db = database
	}

	return nil
}

// buildExtra assembles the text appended after every role's payload: the
// caller's requirement text first, then the linked issue's body.
func (a *App) buildExtra(ctx context.Context) (string, error) {
	extra := a.opts.Extra

	if a.opts.Issue > 0 && a.github != nil {
		issue, err := a.github.IssueView(ctx, a.opts.Issue)
		if err != nil {
			return "", fmt.Errorf("loading issue #%d: %w", a.opts.Issue, err)
		}
		extra += fmt.Sprintf("\n\n---\n\n# Issue #%d: %s\n\n%s\n", issue.Number, issue.Title, issue.Body)
	} else if a.opts.Issue > 0 {
		log.Warn("skipping issue body, no github client available", "issue", a.opts.Issue)
	}

	return extra, nil
}

// logEvent writes one engine event to the log for headless runs.
func logEvent(event engine.Event) {
	switch event.Type {
	case engine.EventRoleFailed, engine.EventRunFailed, engine.EventError:
		log.Error(event.Message, "type", string(event.Type), "role", event.Role)
	case engine.EventPromptAssembled:
		log.Debug(event.Message, "role", event.Role)
	default:
		log.Info(event.Message, "type", string(event.Type))
	}
}

// SetLoader allows injecting an asset loader for testing.
func (a *App) SetLoader(loader assets.Loader) {
	a.loaderOverride = loader
}

// SetDB allows injecting a run database for testing.
func (a *App) SetDB(database *db.DB) {
	a.dbOverride = database
}

// SetGitClient allows injecting a mock git client for testing.
func (a *App) SetGitClient(client *git.Client) {
	a.gitOverride = client
}

// SetGitHubClient allows injecting a mock gh client for testing.
func (a *App) SetGitHubClient(client *github.Client) {
	a.githubOverride = client
}

// SetSubmitClient allows injecting a mock submission client for testing.
func (a *App) SetSubmitClient(client *submit.Client) {
	a.submitOverride = client
}
