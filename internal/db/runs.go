// Package db provides run history storage for Troupe.
package db

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/gerunddev/troupe/internal/log"
)

// joinList flattens a diagnostics list into a single column value.
func joinList(items []string) string {
	return strings.Join(items, "\n")
}

// splitList restores a diagnostics list from its column value.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// =============================================================================
// Run Methods
// =============================================================================

// CreateRun inserts a new run into the database.
func (d *DB) CreateRun(run *Run) error {
	now := time.Now()
	run.CreatedAt = now
	run.UpdatedAt = now
	if run.Status == "" {
		run.Status = RunRunning
	}

	_, err := d.conn.Exec(`
		INSERT INTO runs (id, workstream, task, branch, base_branch, status, pr_url, error, created_at, updated_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Workstream, run.Task, run.Branch, run.BaseBranch,
		run.Status, run.PRURL, run.Error, run.CreatedAt, run.UpdatedAt, run.FinishedAt,
	)
	return err
}

// GetRun retrieves a run by ID.
func (d *DB) GetRun(id string) (*Run, error) {
	run := &Run{}
	err := d.conn.QueryRow(`
		SELECT id, workstream, task, branch, base_branch, status, pr_url, error, created_at, updated_at, finished_at
		FROM runs WHERE id = ?`, id,
	).Scan(
		&run.ID, &run.Workstream, &run.Task, &run.Branch, &run.BaseBranch,
		&run.Status, &run.PRURL, &run.Error, &run.CreatedAt, &run.UpdatedAt, &run.FinishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns runs ordered by created_at descending.
// A limit of 0 returns all runs.
func (d *DB) ListRuns(limit int) ([]*Run, error) {
	query := `
		SELECT id, workstream, task, branch, base_branch, status, pr_url, error, created_at, updated_at, finished_at
		FROM runs ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn("failed to close rows", "operation", "ListRuns", "error", closeErr)
		}
	}()

	var runs []*Run
	for rows.Next() {
		r := &Run{}
		if err := rows.Scan(
			&r.ID, &r.Workstream, &r.Task, &r.Branch, &r.BaseBranch,
			&r.Status, &r.PRURL, &r.Error, &r.CreatedAt, &r.UpdatedAt, &r.FinishedAt,
		); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LatestRun returns the most recent run for a workstream.
func (d *DB) LatestRun(workstream string) (*Run, error) {
	run := &Run{}
	err := d.conn.QueryRow(`
		SELECT id, workstream, task, branch, base_branch, status, pr_url, error, created_at, updated_at, finished_at
		FROM runs WHERE workstream = ? ORDER BY created_at DESC LIMIT 1`, workstream,
	).Scan(
		&run.ID, &run.Workstream, &run.Task, &run.Branch, &run.BaseBranch,
		&run.Status, &run.PRURL, &run.Error, &run.CreatedAt, &run.UpdatedAt, &run.FinishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// FinishRun marks a run as finished with the given status.
// The error message and PR URL may be empty.
func (d *DB) FinishRun(id string, status RunStatus, prURL, errMsg string) error {
	now := time.Now()
	result, err := d.conn.Exec(`
		UPDATE runs SET status = ?, pr_url = ?, error = ?, updated_at = ?, finished_at = ? WHERE id = ?`,
		status, prURL, errMsg, now, now, id,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// =============================================================================
// Role Run Methods
// =============================================================================

// CreateRoleRun inserts a new role run into the database.
func (d *DB) CreateRoleRun(rr *RoleRun) error {
	now := time.Now()
	rr.CreatedAt = now
	rr.UpdatedAt = now
	if rr.Status == "" {
		rr.Status = RoleRunPending
	}

	_, err := d.conn.Exec(`
		INSERT INTO role_runs (id, run_id, role, stage, status, session_id, session_url, prompt_bytes, included_files, skipped_files, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rr.ID, rr.RunID, rr.Role, rr.Stage, rr.Status, rr.SessionID, rr.SessionURL,
		rr.PromptBytes, joinList(rr.IncludedFiles), joinList(rr.SkippedFiles),
		rr.Error, rr.CreatedAt, rr.UpdatedAt,
	)
	return err
}

// GetRoleRuns returns all role runs for a run ordered by stage, then role.
func (d *DB) GetRoleRuns(runID string) ([]*RoleRun, error) {
	rows, err := d.conn.Query(`
		SELECT id, run_id, role, stage, status, session_id, session_url, prompt_bytes, included_files, skipped_files, error, created_at, updated_at
		FROM role_runs WHERE run_id = ? ORDER BY stage, role`, runID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn("failed to close rows", "operation", "GetRoleRuns", "error", closeErr)
		}
	}()

	var roleRuns []*RoleRun
	for rows.Next() {
		rr := &RoleRun{}
		var included, skipped string
		if err := rows.Scan(
			&rr.ID, &rr.RunID, &rr.Role, &rr.Stage, &rr.Status, &rr.SessionID, &rr.SessionURL,
			&rr.PromptBytes, &included, &skipped, &rr.Error, &rr.CreatedAt, &rr.UpdatedAt,
		); err != nil {
			return nil, err
		}
		rr.IncludedFiles = splitList(included)
		rr.SkippedFiles = splitList(skipped)
		roleRuns = append(roleRuns, rr)
	}
	return roleRuns, rows.Err()
}

// MarkRoleRunAssembled records a successful prompt assembly for a role run.
func (d *DB) MarkRoleRunAssembled(id string, promptBytes int, included, skipped []string) error {
	result, err := d.conn.Exec(`
		UPDATE role_runs SET status = ?, prompt_bytes = ?, included_files = ?, skipped_files = ?, updated_at = ? WHERE id = ?`,
		RoleRunAssembled, promptBytes, joinList(included), joinList(skipped), time.Now(), id,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkRoleRunSubmitted records the session created for a role run.
func (d *DB) MarkRoleRunSubmitted(id, sessionID, sessionURL string) error {
	result, err := d.conn.Exec(`
		UPDATE role_runs SET status = ?, session_id = ?, session_url = ?, updated_at = ? WHERE id = ?`,
		RoleRunSubmitted, sessionID, sessionURL, time.Now(), id,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkRoleRunFailed records a failure for a role run.
func (d *DB) MarkRoleRunFailed(id, errMsg string) error {
	result, err := d.conn.Exec(`
		UPDATE role_runs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		RoleRunFailed, errMsg, time.Now(), id,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
