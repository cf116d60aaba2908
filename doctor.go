package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gerunddev/troupe/internal/assets"
	"github.com/gerunddev/troupe/internal/config"
	"github.com/gerunddev/troupe/internal/git"
	"github.com/gerunddev/troupe/internal/github"
	"github.com/gerunddev/troupe/internal/submit"
	"github.com/gerunddev/troupe/internal/workflow"
	"github.com/gerunddev/troupe/internal/workspace"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the environment a run would use",
		Long: `Check everything a run depends on: the workspace and its workflow file,
the git repository, the gh CLI, and the session service. Each check is
reported independently; doctor never fails the command itself.

Example:
  troupe doctor`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd)
		},
	}
}

func runDoctor(cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	root, err := workspace.FindRoot(wd)
	if err != nil {
		report(out, false, "workspace: none found (run `troupe init` inside a git repository)")
		return nil
	}
	report(out, true, "workspace: "+root)

	checkWorkflow(out, root)
	checkGit(ctx, out, root)
	checkGitHub(ctx, out, root)
	checkService(ctx, out)

	return nil
}

func checkWorkflow(out io.Writer, root string) {
	wf, err := workflow.Load(assets.NewDir(root))
	if err != nil {
		report(out, false, "workflow: "+err.Error())
	} else {
		stages, _ := wf.Stages()
		report(out, true, fmt.Sprintf("workflow: %d roles in %d stages", len(wf.Enabled()), len(stages)))
	}

	layers, err := workspace.DiscoverLayers(root)
	if err != nil || len(layers) == 0 {
		report(out, false, "layers: none scaffolded")
		return
	}
	report(out, true, "layers: "+strings.Join(layers, ", "))
}

func checkGit(ctx context.Context, out io.Writer, root string) {
	gitClient := git.NewClient(root)
	if !gitClient.IsRepo(ctx) {
		report(out, false, "git: not a repository")
		return
	}

	branch, err := gitClient.CurrentBranch(ctx)
	if err != nil {
		report(out, true, "git: repository")
		return
	}
	report(out, true, "git: repository on "+branch)
}

func checkGitHub(ctx context.Context, out io.Writer, root string) {
	ghClient := github.NewClient(root)
	if !ghClient.IsAvailable(ctx) {
		report(out, false, "gh: unavailable or not authenticated (pull requests and issues disabled)")
		return
	}

	if repo, err := ghClient.RepoInfo(ctx); err == nil {
		report(out, true, "gh: authenticated, repository "+repo.NameWithOwner)
	} else {
		report(out, true, "gh: authenticated")
	}
}

func checkService(ctx context.Context, out io.Writer) {
	cfg, err := config.Load()
	if err != nil {
		report(out, false, "config: "+err.Error())
		return
	}

	client, err := submit.NewClient(submit.Config{
		BaseURL: cfg.Submit.ServiceURL,
		Token:   cfg.Submit.Token,
		Timeout: cfg.SubmitTimeout(),
	})
	if err != nil {
		report(out, false, "service: not configured (set submit.service_url in the config)")
		return
	}

	if err := client.Ping(ctx); err != nil {
		report(out, false, "service: unreachable: "+err.Error())
		return
	}
	report(out, true, "service: reachable at "+cfg.Submit.ServiceURL)
}

func report(out io.Writer, ok bool, message string) {
	icon := "[x]"
	if !ok {
		icon = "[!]"
	}
	fmt.Fprintf(out, "  %s %s\n", icon, message)
}
