package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/gerunddev/troupe/internal/assets"
	"github.com/gerunddev/troupe/internal/config"
	"github.com/gerunddev/troupe/internal/log"
	"github.com/gerunddev/troupe/internal/prompt"
	"github.com/gerunddev/troupe/internal/workspace"
)

// assembleOptions holds the flags of one assemble invocation.
type assembleOptions struct {
	workstream string
	task       string
	vars       []string
	output     string
	asJSON     bool
	watch      bool
}

func assembleCmd() *cobra.Command {
	opts := &assembleOptions{}

	cmd := &cobra.Command{
		Use:   "assemble <role>",
		Short: "Assemble one role's prompt and print it",
		Long: `Render a role layer's main template against the given variables and
print the assembled payload. Optional includes that are absent are
reported on stderr; required includes that are absent fail the call.

Examples:
  troupe assemble planners -w auth
  troupe assemble developers -w auth -t "Add login" --var api=v2
  troupe assemble planners -w auth --json
  troupe assemble planners -w auth --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.workstream == "" {
				return errors.New("--workstream is required")
			}
			return runAssemble(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.workstream, "workstream", "w", "", "Workstream the prompt is assembled for")
	cmd.Flags().StringVarP(&opts.task, "task", "t", "", "Task description exposed to the template")
	cmd.Flags().StringArrayVar(&opts.vars, "var", nil, "Extra template variable as key=value (repeatable)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the payload to a file instead of stdout")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the assembled prompt with its diagnostics as JSON")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Re-assemble whenever workspace files change")

	return cmd
}

func runAssemble(cmd *cobra.Command, role string, opts *assembleOptions) error {
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	root, err := workspace.FindRoot(wd)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	vars, err := parseVars(opts.vars)
	if err != nil {
		return err
	}

	renderCtx := make(map[string]string, len(vars)+4)
	for k, v := range vars {
		renderCtx[k] = v
	}
	renderCtx["role"] = role
	renderCtx["workstream"] = opts.workstream
	renderCtx["task"] = opts.task
	renderCtx["branch"] = cfg.BranchPrefix + opts.workstream

	loader := assets.NewDir(root)

	assembleOnce := func() error {
		assembled, err := prompt.Assemble(role, renderCtx, loader)
		if err != nil {
			return err
		}
		for _, skip := range assembled.SkippedFiles {
			log.Warn("skipped include", "entry", skip)
		}
		return writeAssembled(cmd.OutOrStdout(), assembled, opts)
	}

	if !opts.watch {
		return assembleOnce()
	}
	return watchAndAssemble(root, role, assembleOnce)
}

// writeAssembled renders one assembled prompt to the requested destination.
func writeAssembled(stdout io.Writer, assembled *prompt.AssembledPrompt, opts *assembleOptions) error {
	var text string
	if opts.asJSON {
		data, err := json.MarshalIndent(struct {
			Content       string   `json:"content"`
			IncludedFiles []string `json:"included_files"`
			SkippedFiles  []string `json:"skipped_files"`
		}{assembled.Content, assembled.IncludedFiles, assembled.SkippedFiles}, "", "  ")
		if err != nil {
			return err
		}
		text = string(data) + "\n"
	} else {
		text = assembled.Content
	}

	if opts.output != "" {
		return os.WriteFile(opts.output, []byte(text), 0644)
	}
	_, err := io.WriteString(stdout, text)
	return err
}

// watchAndAssemble re-runs assemble whenever files under the layer's
// directory, docs/, or workstreams/ change. Events are debounced so one
// save does not trigger a burst of renders.
func watchAndAssemble(root, role string, assembleOnce func() error) error {
	if err := assembleOnce(); err != nil {
		log.Error("assembly failed", "role", role, "error", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			log.Warn("failed to close watcher", "error", err)
		}
	}()

	watchDirs := []string{
		workspace.LayerDir(role),
		workspace.SchemaDir(role),
		workspace.DocsDir,
		workspace.WorkstreamsDir,
	}
	for _, dir := range watchDirs {
		full := filepath.Join(root, filepath.FromSlash(dir))
		if _, err := os.Stat(full); err != nil {
			continue
		}
		if err := watcher.Add(full); err != nil {
			log.Warn("cannot watch directory", "dir", dir, "error", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("watching for changes", "role", role)

	var timer *time.Timer
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(200 * time.Millisecond)
			} else {
				timer.Reset(200 * time.Millisecond)
			}
			pending = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "error", err)
		case <-pending:
			pending = nil
			if err := assembleOnce(); err != nil {
				log.Error("assembly failed", "role", role, "error", err)
			}
		}
	}
}
