// Package github provides a wrapper for the GitHub (gh) CLI for issue
// and pull request operations.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Error types for gh operations.
var (
	// ErrCommandNotFound is returned when the gh binary is not found in PATH.
	ErrCommandNotFound = errors.New("gh command not found")
	// ErrNotAuthenticated is returned when gh has no usable credentials.
	ErrNotAuthenticated = errors.New("gh is not authenticated")
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

// Client wraps the gh CLI bound to a repository working directory.
type Client struct {
	workDir       string
	commandRunner CommandRunner
}

// NewClient creates a new gh CLI client bound to the specified working directory.
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

// runCommand executes a gh command and returns the output.
func (c *Client) runCommand(ctx context.Context, args ...string) (string, error) {
	stdout, stderr, err := c.commandRunner(ctx, c.workDir, "gh", args...)
	if err != nil {
		return "", c.wrapError(args[0], stderr, err)
	}
	return stdout, nil
}

// wrapError converts exec errors into appropriate gh error types.
func (c *Client) wrapError(subCommand string, stderr string, err error) error {
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		if errors.Is(execErr.Err, exec.ErrNotFound) {
			return ErrCommandNotFound
		}
	}

	if errors.Is(err, context.Canceled) {
		return context.Canceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return context.DeadlineExceeded
	}

	stderrLower := strings.ToLower(stderr)
	if strings.Contains(stderrLower, "not logged in") ||
		strings.Contains(stderrLower, "authentication required") ||
		strings.Contains(stderrLower, "gh auth login") {
		return ErrNotAuthenticated
	}

	return fmt.Errorf("gh %s failed: %s: %w", subCommand, strings.TrimSpace(stderr), err)
}

// Repo holds repository metadata from gh.
type Repo struct {
	NameWithOwner    string `json:"nameWithOwner"`
	URL              string `json:"url"`
	DefaultBranchRef struct {
		Name string `json:"name"`
	} `json:"defaultBranchRef"`
}

// Issue holds issue details from gh.
type Issue struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	State  string `json:"state"`
	Body   string `json:"body"`
	URL    string `json:"url"`
}

// IsAvailable reports whether the gh CLI is installed and authenticated.
func (c *Client) IsAvailable(ctx context.Context) bool {
	_, err := c.runCommand(ctx, "auth", "status")
	return err == nil
}

// RepoInfo returns metadata for the repository in the working directory.
func (c *Client) RepoInfo(ctx context.Context) (*Repo, error) {
	output, err := c.runCommand(ctx, "repo", "view", "--json", "nameWithOwner,url,defaultBranchRef")
	if err != nil {
		return nil, err
	}

	var repo Repo
	if err := json.Unmarshal([]byte(output), &repo); err != nil {
		return nil, fmt.Errorf("failed to parse repo info: %w", err)
	}
	return &repo, nil
}

// IssueView fetches one issue by number.
func (c *Client) IssueView(ctx context.Context, number int) (*Issue, error) {
	output, err := c.runCommand(ctx, "issue", "view", strconv.Itoa(number),
		"--json", "number,title,state,body,url")
	if err != nil {
		return nil, err
	}

	var issue Issue
	if err := json.Unmarshal([]byte(output), &issue); err != nil {
		return nil, fmt.Errorf("failed to parse issue: %w", err)
	}
	return &issue, nil
}

// IssueCreate creates an issue and returns its number and URL.
func (c *Client) IssueCreate(ctx context.Context, title, body string, labels []string) (int, string, error) {
	if title == "" {
		return 0, "", errors.New("issue title cannot be empty")
	}

	args := []string{"issue", "create", "--title", title, "--body", body}
	for _, label := range labels {
		args = append(args, "--label", label)
	}

	output, err := c.runCommand(ctx, args...)
	if err != nil {
		return 0, "", err
	}

	// gh prints the new issue URL on success.
	url := strings.TrimSpace(output)
	return extractIssueNumber(url), url, nil
}

// PRCreate opens a pull request from head onto base and returns its URL.
// Empty base or head fall back to gh's own defaults.
func (c *Client) PRCreate(ctx context.Context, title, body, base, head string) (string, error) {
	if title == "" {
		return "", errors.New("pull request title cannot be empty")
	}

	args := []string{"pr", "create", "--title", title, "--body", body}
	if base != "" {
		args = append(args, "--base", base)
	}
	if head != "" {
		args = append(args, "--head", head)
	}

	output, err := c.runCommand(ctx, args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// extractIssueNumber extracts the issue number from a GitHub issue URL.
// URL format: https://github.com/owner/repo/issues/123
func extractIssueNumber(url string) int {
	parts := strings.Split(url, "/")
	if len(parts) == 0 {
		return 0
	}
	number, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1]))
	if err != nil {
		return 0
	}
	return number
}
