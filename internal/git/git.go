// Package git provides a wrapper for the git CLI for version control operations.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Error types for git operations.
var (
	// ErrNotRepo is returned when the working directory is not inside a git repository.
	ErrNotRepo = errors.New("not a git repository")
	// ErrCommandNotFound is returned when the git binary is not found in PATH.
	ErrCommandNotFound = errors.New("git command not found")
)

// CommandRunner is the function type used to execute commands.
// It can be replaced in tests to mock command execution.
type CommandRunner func(ctx context.Context, dir string, name string, args ...string) (string, string, error)

// defaultCommandRunner executes a command using exec.CommandContext.
func defaultCommandRunner(ctx context.Context, dir string, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// Client wraps the git CLI for version control operations.
type Client struct {
	workDir       string
	commandRunner CommandRunner
}

// NewClient creates a new git CLI client bound to the specified working directory.
func NewClient(workDir string) *Client {
	return &Client{
		workDir:       workDir,
		commandRunner: defaultCommandRunner,
	}
}

// SetCommandRunner allows setting a custom command runner (for testing).
func (c *Client) SetCommandRunner(runner CommandRunner) {
	c.commandRunner = runner
}

// runCommand executes a git command and returns the output.
func (c *Client) runCommand(ctx context.Context, args ...string) (string, error) {
	stdout, stderr, err := c.commandRunner(ctx, c.workDir, "git", args...)
	if err != nil {
		return "", c.wrapError(args[0], stderr, err)
	}
	return stdout, nil
}

// wrapError converts exec errors into appropriate git error types.
func (c *Client) wrapError(subCommand string, stderr string, err error) error {
	// Check for command not found
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		if errors.Is(execErr.Err, exec.ErrNotFound) {
			return ErrCommandNotFound
		}
	}

	// Check for context cancellation
	if errors.Is(err, context.Canceled) {
		return context.Canceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return context.DeadlineExceeded
	}

	// Check for not a repository error in stderr
	if strings.Contains(strings.ToLower(stderr), "not a git repository") {
		return ErrNotRepo
	}

	// Generic error with context
	return fmt.Errorf("git %s failed: %s: %w", subCommand, strings.TrimSpace(stderr), err)
}

// sanitizeMessage removes or escapes characters that could cause issues in commit messages.
func sanitizeMessage(message string) string {
	// Replace null bytes (could terminate strings early)
	message = strings.ReplaceAll(message, "\x00", "")

	// Trim leading/trailing whitespace
	message = strings.TrimSpace(message)

	return message
}

// IsRepo reports whether the working directory is inside a git work tree.
func (c *Client) IsRepo(ctx context.Context) bool {
	output, err := c.runCommand(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(output) == "true"
}

// Root returns the absolute path of the repository's top-level directory.
func (c *Client) Root(ctx context.Context) (string, error) {
	output, err := c.runCommand(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// CurrentBranch returns the name of the checked-out branch.
// On a detached HEAD it returns the literal string "HEAD".
func (c *Client) CurrentBranch(ctx context.Context) (string, error) {
	output, err := c.runCommand(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// DefaultBranch returns the repository's default branch. It asks the
// origin remote first and falls back to well-known local branch names
// for repositories without a remote.
func (c *Client) DefaultBranch(ctx context.Context) (string, error) {
	output, err := c.runCommand(ctx, "symbolic-ref", "--short", "refs/remotes/origin/HEAD")
	if err == nil {
		return strings.TrimPrefix(strings.TrimSpace(output), "origin/"), nil
	}

	for _, name := range []string{"main", "master"} {
		if _, err := c.runCommand(ctx, "rev-parse", "--verify", "refs/heads/"+name); err == nil {
			return name, nil
		}
	}
	return "", errors.New("could not determine default branch")
}

// HeadSHA returns the commit hash of HEAD.
func (c *Client) HeadSHA(ctx context.Context) (string, error) {
	output, err := c.runCommand(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// Status returns the porcelain status of the working tree.
func (c *Client) Status(ctx context.Context) (string, error) {
	return c.runCommand(ctx, "status", "--porcelain")
}

// IsClean returns true when the working tree has no uncommitted changes.
func (c *Client) IsClean(ctx context.Context) (bool, error) {
	output, err := c.Status(ctx)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(output) == "", nil
}

// BranchExists reports whether a local branch with the given name exists.
func (c *Client) BranchExists(ctx context.Context, name string) bool {
	_, err := c.runCommand(ctx, "rev-parse", "--verify", "refs/heads/"+name)
	return err == nil
}

// CreateBranch creates the named branch and checks it out.
func (c *Client) CreateBranch(ctx context.Context, name string) error {
	if name == "" {
		return errors.New("branch name cannot be empty")
	}
	_, err := c.runCommand(ctx, "checkout", "-b", name)
	return err
}

// Checkout switches the working tree to the given ref.
func (c *Client) Checkout(ctx context.Context, ref string) error {
	if ref == "" {
		return errors.New("ref cannot be empty")
	}
	_, err := c.runCommand(ctx, "checkout", ref)
	return err
}

// EnsureBranch checks out the named branch, creating it if it does not
// exist yet.
func (c *Client) EnsureBranch(ctx context.Context, name string) error {
	if c.BranchExists(ctx, name) {
		return c.Checkout(ctx, name)
	}
	return c.CreateBranch(ctx, name)
}

// Add stages all changes in the working tree.
func (c *Client) Add(ctx context.Context) error {
	_, err := c.runCommand(ctx, "add", "-A")
	return err
}

// Commit commits staged changes with the given message.
// The message is sanitized to prevent issues with special characters.
func (c *Client) Commit(ctx context.Context, message string) error {
	sanitized := sanitizeMessage(message)
	if sanitized == "" {
		return errors.New("commit message cannot be empty")
	}
	_, err := c.runCommand(ctx, "commit", "-m", sanitized)
	return err
}

// Push pushes the named branch to origin, setting the upstream.
func (c *Client) Push(ctx context.Context, branch string) error {
	if branch == "" {
		return errors.New("branch name cannot be empty")
	}
	_, err := c.runCommand(ctx, "push", "--set-upstream", "origin", branch)
	return err
}
