package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gerunddev/troupe/internal/assets"
	"github.com/gerunddev/troupe/internal/roles"
	"github.com/gerunddev/troupe/internal/workflow"
	"github.com/gerunddev/troupe/internal/workspace"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Scaffold a troupe workspace in the current directory",
		Long: `Create the conventions-based directory tree for the built-in roles:
a prompt template and schemas/ defaults per role layer, workstreams/ and
docs/ directories, and a troupe.yml workflow file. Existing files are
never overwritten; re-running init only fills gaps.

Example:
  troupe init`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}

			if err := validateGitRepository(cmd.Context(), wd); err != nil {
				return err
			}

			return runInit(cmd, wd)
		},
	}
}

func runInit(cmd *cobra.Command, dir string) error {
	yamlStr, err := workflow.DefaultYAML(roles.All())
	if err != nil {
		return err
	}

	result, err := workspace.Scaffold(assets.NewDir(dir), roles.All(), yamlStr)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, path := range result.Created {
		fmt.Fprintf(out, "  created  %s\n", path)
	}
	for _, path := range result.Skipped {
		fmt.Fprintf(out, "  skipped  %s (exists)\n", path)
	}
	fmt.Fprintf(out, "\nWorkspace ready: %d created, %d already in place.\n",
		len(result.Created), len(result.Skipped))
	return nil
}
