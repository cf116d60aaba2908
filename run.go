package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gerunddev/troupe/internal/app"
)

// runOptions holds the flags of one run invocation.
type runOptions struct {
	workstream string
	task       string
	taskFile   string
	issue      int
	vars       []string
	branch     string
	base       string
	openPR     bool
	dryRun     bool
	headless   bool
}

func runCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the whole workflow for a workstream",
		Long: `Assemble and submit every enabled role in dependency order. Each stage's
roles are assembled concurrently; every role becomes one agent session on
the configured service, and the run is recorded in the workspace's run
history.

Examples:
  troupe run -w auth -t "Add login"
  troupe run -w auth --task-file requirements.md --pr
  troupe run -w auth --issue 42 --headless
  troupe run -w auth --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.workstream == "" {
				return errors.New("--workstream is required")
			}
			if opts.issue < 0 {
				return errors.New("--issue cannot be negative")
			}
			return runRun(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.workstream, "workstream", "w", "", "Workstream to run (required)")
	cmd.Flags().StringVarP(&opts.task, "task", "t", "", "Task description exposed to every role")
	cmd.Flags().StringVar(&opts.taskFile, "task-file", "", "File whose content is appended to every payload")
	cmd.Flags().IntVar(&opts.issue, "issue", 0, "GitHub issue whose body is appended to every payload")
	cmd.Flags().StringArrayVar(&opts.vars, "var", nil, "Extra template variable as key=value (repeatable)")
	cmd.Flags().StringVar(&opts.branch, "branch", "", "Branch to run on (default: branch prefix + workstream)")
	cmd.Flags().StringVar(&opts.base, "base", "", "Base branch for the pull request (default: repository default)")
	cmd.Flags().BoolVar(&opts.openPR, "pr", false, "Open a pull request when every role has been submitted")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Assemble everything but skip git, history, and submission")
	cmd.Flags().BoolVar(&opts.headless, "headless", false, "Log events instead of showing the TUI")

	return cmd
}

func runRun(cmd *cobra.Command, opts *runOptions) error {
	ctx := cmd.Context()

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	// Dry runs never touch git, so a missing repository is fine there.
	if !opts.dryRun {
		if err := validateGitRepository(ctx, wd); err != nil {
			return err
		}
	}

	vars, err := parseVars(opts.vars)
	if err != nil {
		return err
	}

	extra := ""
	if opts.taskFile != "" {
		content, err := os.ReadFile(opts.taskFile)
		if err != nil {
			return fmt.Errorf("task file not found: %s", opts.taskFile)
		}
		extra = "\n\n" + string(content)
	}

	application, err := appFactory(app.Options{
		WorkDir:    wd,
		Workstream: opts.workstream,
		Task:       opts.task,
		Extra:      extra,
		Issue:      opts.issue,
		Branch:     opts.branch,
		BaseBranch: opts.base,
		Vars:       vars,
		DryRun:     opts.dryRun,
		OpenPR:     opts.openPR,
	})
	if err != nil {
		return err
	}

	if opts.headless || opts.dryRun {
		return application.RunHeadless(ctx)
	}
	return application.Run(ctx)
}
