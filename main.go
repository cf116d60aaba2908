// Package main is the entry point for the troupe CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gerunddev/troupe/internal/app"
	"github.com/gerunddev/troupe/internal/git"
)

// gitValidator is the function used to validate the git repository.
// It can be replaced in tests to mock git validation.
var gitValidator = defaultGitValidator

// appFactory is the function used to create a new app.App.
// It can be replaced in tests to mock app creation.
var appFactory = defaultAppFactory

// defaultGitValidator is the production git validation implementation.
func defaultGitValidator(ctx context.Context, workDir string) error {
	gitClient := git.NewClient(workDir)
	_, err := gitClient.Status(ctx)
	return err
}

// defaultAppFactory is the production app factory implementation.
func defaultAppFactory(opts app.Options) (App, error) {
	return app.New(opts)
}

// App interface defines the methods needed from app.App for testing.
type App interface {
	Run(ctx context.Context) error
	RunHeadless(ctx context.Context) error
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	rootCmd := &cobra.Command{
		Use:   "troupe",
		Short: "Multi-role AI agent workflows on top of a git repository",
		Long: `Troupe scaffolds and operates a multi-role AI agent workflow inside a
git repository. Each role layer keeps a prompt template under roles/;
troupe assembles those templates into instruction payloads, schedules the
roles in dependency order, submits each payload as an agent session, and
drives branches and pull requests to close the loop.

Examples:
  troupe init                        # Scaffold the workspace conventions
  troupe assemble planners -w auth   # Assemble one role's prompt
  troupe run -w auth -t "Add login"  # Run the whole pipeline
  troupe runs                        # Show run history`,
	}

	rootCmd.AddCommand(
		initCmd(),
		assembleCmd(),
		runCmd(),
		rolesCmd(),
		runsCmd(),
		doctorCmd(),
	)

	return rootCmd.Execute()
}

// validateGitRepository checks that workDir is inside a git repository.
func validateGitRepository(ctx context.Context, workDir string) error {
	err := gitValidator(ctx, workDir)
	if errors.Is(err, git.ErrNotRepo) {
		return fmt.Errorf("not a git repository (run from within a git repo)")
	}
	if errors.Is(err, git.ErrCommandNotFound) {
		return fmt.Errorf("git command not found (install git first)")
	}
	if err != nil {
		return fmt.Errorf("failed to verify git repository: %w", err)
	}
	return nil
}

// parseVars turns repeated --var key=value flags into a map.
func parseVars(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	vars := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := cutVar(pair)
		if !ok {
			return nil, fmt.Errorf("invalid --var %q, expected key=value", pair)
		}
		vars[key] = value
	}
	return vars, nil
}

// cutVar splits one key=value pair, rejecting empty keys.
func cutVar(pair string) (key, value string, ok bool) {
	for i := 0; i < len(pair); i++ {
		if pair[i] == '=' {
			if i == 0 {
				return "", "", false
			}
			return pair[:i], pair[i+1:], true
		}
	}
	return "", "", false
}
