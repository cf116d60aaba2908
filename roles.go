package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/gerunddev/troupe/internal/roles"
	"github.com/gerunddev/troupe/internal/workspace"
)

var (
	roleTitleStyle   = lipgloss.NewStyle().Bold(true)
	roleNeedsStyle   = lipgloss.NewStyle().Faint(true)
	rolePresentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	roleAbsentStyle  = lipgloss.NewStyle().Faint(true)
)

func rolesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roles",
		Short: "List the built-in roles and their workspace state",
		Long: `List every built-in role layer with its dependencies, and mark which
layers are scaffolded in the current workspace.

Example:
  troupe roles`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoles(cmd)
		},
	}
}

func runRoles(cmd *cobra.Command) error {
	// The command still works outside a workspace; there are just no
	// presence markers to show.
	present := make(map[string]bool)
	if wd, err := os.Getwd(); err == nil {
		if root, err := workspace.FindRoot(wd); err == nil {
			if layers, err := workspace.DiscoverLayers(root); err == nil {
				for _, layer := range layers {
					present[layer] = true
				}
			}
		}
	}

	out := cmd.OutOrStdout()
	for _, r := range roles.All() {
		marker := roleAbsentStyle.Render("○")
		if present[r.Name] {
			marker = rolePresentStyle.Render("●")
		}

		line := fmt.Sprintf("  %s %s — %s", marker, roleTitleStyle.Render(r.Name), r.Summary)
		if len(r.Needs) > 0 {
			line += roleNeedsStyle.Render(fmt.Sprintf("  (needs %s)", strings.Join(r.Needs, ", ")))
		}
		fmt.Fprintln(out, line)
	}

	if len(present) == 0 {
		fmt.Fprintln(out, "\nNo scaffolded layers found here; run `troupe init` inside a git repository.")
	}
	return nil
}
