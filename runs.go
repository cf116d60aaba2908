package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gerunddev/troupe/internal/db"
	"github.com/gerunddev/troupe/internal/log"
	"github.com/gerunddev/troupe/internal/workspace"
)

func runsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show the workspace's run history",
		Long: `List recent runs recorded in this workspace.

Examples:
  troupe runs
  troupe runs --limit 5
  troupe runs show 4f8a1c2e`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRunsList(cmd, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	cmd.AddCommand(runsShowCmd())

	return cmd
}

func runsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run with its per-role sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRunsShow(cmd, args[0])
		},
	}
}

// openRunDB opens the run database of the enclosing workspace.
func openRunDB() (*db.DB, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	root, err := workspace.FindRoot(wd)
	if err != nil {
		return nil, err
	}
	return db.Open(root)
}

func runRunsList(cmd *cobra.Command, limit int) error {
	database, err := openRunDB()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := database.Close(); closeErr != nil {
			log.Warn("failed to close database", "error", closeErr)
		}
	}()

	runs, err := database.ListRuns(limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet.")
		return nil
	}

	for _, run := range runs {
		icon := runStatusIcon(run.Status)
		line := fmt.Sprintf("  %s %s  %s  %s  %s",
			icon, shortRunID(run.ID), run.Workstream, run.Branch,
			run.CreatedAt.Local().Format("2006-01-02 15:04"))
		if run.PRURL != "" {
			line += "  " + run.PRURL
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func runRunsShow(cmd *cobra.Command, id string) error {
	database, err := openRunDB()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := database.Close(); closeErr != nil {
			log.Warn("failed to close database", "error", closeErr)
		}
	}()

	run, err := resolveRun(database, id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s (%s)\n", run.ID, run.Status)
	fmt.Fprintf(out, "  workstream: %s\n", run.Workstream)
	fmt.Fprintf(out, "  branch:     %s\n", run.Branch)
	if run.Task != "" {
		fmt.Fprintf(out, "  task:       %s\n", run.Task)
	}
	if run.PRURL != "" {
		fmt.Fprintf(out, "  pr:         %s\n", run.PRURL)
	}
	if run.Error != "" {
		fmt.Fprintf(out, "  error:      %s\n", run.Error)
	}

	roleRuns, err := database.GetRoleRuns(run.ID)
	if err != nil {
		return err
	}
	if len(roleRuns) == 0 {
		return nil
	}

	fmt.Fprintln(out, "\nRoles:")
	for _, rr := range roleRuns {
		icon := roleRunStatusIcon(rr.Status)
		line := fmt.Sprintf("  %s stage %d  %s", icon, rr.Stage+1, rr.Role)
		switch {
		case rr.SessionURL != "":
			line += "  " + rr.SessionURL
		case rr.SessionID != "":
			line += "  session " + rr.SessionID
		}
		if rr.Error != "" {
			line += "  (" + rr.Error + ")"
		}
		fmt.Fprintln(out, line)
		if len(rr.SkippedFiles) > 0 {
			fmt.Fprintf(out, "      skipped: %s\n", strings.Join(rr.SkippedFiles, "; "))
		}
	}
	return nil
}

// resolveRun looks a run up by full or abbreviated id.
func resolveRun(database *db.DB, id string) (*db.Run, error) {
	run, err := database.GetRun(id)
	if err == nil {
		return run, nil
	}

	runs, listErr := database.ListRuns(0)
	if listErr != nil {
		return nil, err
	}
	for _, candidate := range runs {
		if strings.HasPrefix(candidate.ID, id) {
			return candidate, nil
		}
	}
	return nil, fmt.Errorf("run not found: %s", id)
}

func runStatusIcon(status db.RunStatus) string {
	switch status {
	case db.RunCompleted:
		return "[x]"
	case db.RunFailed:
		return "[!]"
	default:
		return "[~]"
	}
}

func roleRunStatusIcon(status db.RoleRunStatus) string {
	switch status {
	case db.RoleRunSubmitted:
		return "[x]"
	case db.RoleRunFailed:
		return "[!]"
	case db.RoleRunAssembled:
		return "[~]"
	default:
		return "[ ]"
	}
}

func shortRunID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
