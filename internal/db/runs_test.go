package db

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

// newTestDB creates a new in-memory database for testing.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})
	return db
}

// =============================================================================
// Database Connection Tests
// =============================================================================

func TestNew(t *testing.T) {
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() returned error: %v", err)
		}
	}()

	if db.conn == nil {
		t.Error("New() returned DB with nil connection")
	}
}

func TestNew_AutoMigrate(t *testing.T) {
	db := newTestDB(t)

	// Verify tables exist by inserting a run
	run := &Run{
		ID:         "run-1",
		Workstream: "checkout",
		Task:       "Add discount codes",
	}
	if err := db.CreateRun(run); err != nil {
		t.Errorf("CreateRun() after migration failed: %v", err)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)

	// New already migrated once; a second pass must be harmless
	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate() second run returned error: %v", err)
	}

	run := &Run{ID: "run-1", Workstream: "checkout", Task: "Task"}
	if err := db.CreateRun(run); err != nil {
		t.Errorf("CreateRun() after repeated migration failed: %v", err)
	}
}

func TestClose(t *testing.T) {
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}

	if err := db.Close(); err != nil {
		t.Errorf("Close() returned error: %v", err)
	}

	// Double close should not panic or error
	if err := db.Close(); err != nil {
		t.Errorf("Double Close() returned error: %v", err)
	}
}

// =============================================================================
// Run Tests
// =============================================================================

func TestCreateRun(t *testing.T) {
	db := newTestDB(t)

	run := &Run{
		ID:         "run-1",
		Workstream: "checkout",
		Task:       "Add discount codes",
		Branch:     "troupe/checkout",
		BaseBranch: "main",
	}

	if err := db.CreateRun(run); err != nil {
		t.Fatalf("CreateRun() returned error: %v", err)
	}

	// Verify timestamps were set
	if run.CreatedAt.IsZero() {
		t.Error("CreateRun() did not set CreatedAt")
	}
	if run.UpdatedAt.IsZero() {
		t.Error("CreateRun() did not set UpdatedAt")
	}

	// Verify default status
	if run.Status != RunRunning {
		t.Errorf("CreateRun() status = %v, want %v", run.Status, RunRunning)
	}
}

func TestGetRun(t *testing.T) {
	db := newTestDB(t)

	run := &Run{
		ID:         "run-1",
		Workstream: "checkout",
		Task:       "Add discount codes",
		Branch:     "troupe/checkout",
		BaseBranch: "main",
	}
	if err := db.CreateRun(run); err != nil {
		t.Fatalf("CreateRun() returned error: %v", err)
	}

	got, err := db.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun() returned error: %v", err)
	}

	if got.ID != run.ID {
		t.Errorf("GetRun().ID = %v, want %v", got.ID, run.ID)
	}
	if got.Workstream != run.Workstream {
		t.Errorf("GetRun().Workstream = %v, want %v", got.Workstream, run.Workstream)
	}
	if got.Task != run.Task {
		t.Errorf("GetRun().Task = %v, want %v", got.Task, run.Task)
	}
	if got.Branch != "troupe/checkout" {
		t.Errorf("GetRun().Branch = %v, want troupe/checkout", got.Branch)
	}
	if got.Status != RunRunning {
		t.Errorf("GetRun().Status = %v, want %v", got.Status, RunRunning)
	}
	if got.FinishedAt != nil {
		t.Errorf("GetRun().FinishedAt = %v, want nil", got.FinishedAt)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetRun("nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRun() error = %v, want ErrNotFound", err)
	}
}

func TestListRuns(t *testing.T) {
	db := newTestDB(t)

	// Create runs with different created_at times
	run1 := &Run{ID: "run-1", Workstream: "checkout", Task: "T1"}
	run2 := &Run{ID: "run-2", Workstream: "search", Task: "T2"}
	run3 := &Run{ID: "run-3", Workstream: "checkout", Task: "T3"}

	if err := db.CreateRun(run1); err != nil {
		t.Fatalf("CreateRun() returned error: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if err := db.CreateRun(run2); err != nil {
		t.Fatalf("CreateRun() returned error: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if err := db.CreateRun(run3); err != nil {
		t.Fatalf("CreateRun() returned error: %v", err)
	}

	runs, err := db.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns() returned error: %v", err)
	}

	if len(runs) != 3 {
		t.Errorf("ListRuns() returned %d runs, want 3", len(runs))
	}

	// Should be ordered by created_at DESC (newest first)
	if runs[0].ID != "run-3" {
		t.Errorf("ListRuns()[0].ID = %v, want run-3", runs[0].ID)
	}
}

func TestListRuns_Limit(t *testing.T) {
	db := newTestDB(t)

	if err := db.CreateRun(&Run{ID: "run-1", Workstream: "checkout", Task: "T1"}); err != nil {
		t.Fatalf("CreateRun() returned error: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if err := db.CreateRun(&Run{ID: "run-2", Workstream: "checkout", Task: "T2"}); err != nil {
		t.Fatalf("CreateRun() returned error: %v", err)
	}

	runs, err := db.ListRuns(1)
	if err != nil {
		t.Fatalf("ListRuns() returned error: %v", err)
	}

	if len(runs) != 1 {
		t.Fatalf("ListRuns(1) returned %d runs, want 1", len(runs))
	}
	if runs[0].ID != "run-2" {
		t.Errorf("ListRuns(1)[0].ID = %v, want run-2", runs[0].ID)
	}
}

func TestListRuns_Empty(t *testing.T) {
	db := newTestDB(t)

	runs, err := db.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns() returned error: %v", err)
	}

	if len(runs) != 0 {
		t.Errorf("ListRuns() returned %d runs, want 0", len(runs))
	}
}

func TestLatestRun(t *testing.T) {
	db := newTestDB(t)

	if err := db.CreateRun(&Run{ID: "run-1", Workstream: "checkout", Task: "T1"}); err != nil {
		t.Fatalf("CreateRun() returned error: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if err := db.CreateRun(&Run{ID: "run-2", Workstream: "search", Task: "T2"}); err != nil {
		t.Fatalf("CreateRun() returned error: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if err := db.CreateRun(&Run{ID: "run-3", Workstream: "checkout", Task: "T3"}); err != nil {
		t.Fatalf("CreateRun() returned error: %v", err)
	}

	got, err := db.LatestRun("checkout")
	if err != nil {
		t.Fatalf("LatestRun() returned error: %v", err)
	}

	if got.ID != "run-3" {
		t.Errorf("LatestRun() returned %v, want run-3", got.ID)
	}
}

func TestLatestRun_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.LatestRun("nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("LatestRun() error = %v, want ErrNotFound", err)
	}
}

func TestFinishRun(t *testing.T) {
	db := newTestDB(t)

	run := &Run{ID: "run-1", Workstream: "checkout", Task: "T"}
	if err := db.CreateRun(run); err != nil {
		t.Fatalf("CreateRun() returned error: %v", err)
	}

	if err := db.FinishRun("run-1", RunCompleted, "https://github.com/acme/shop/pull/7", ""); err != nil {
		t.Fatalf("FinishRun() returned error: %v", err)
	}

	got, err := db.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun() returned error: %v", err)
	}
	if got.Status != RunCompleted {
		t.Errorf("FinishRun() status = %v, want %v", got.Status, RunCompleted)
	}
	if got.PRURL != "https://github.com/acme/shop/pull/7" {
		t.Errorf("FinishRun() pr_url = %v, want the PR URL", got.PRURL)
	}
	if got.FinishedAt == nil {
		t.Error("FinishRun() did not set FinishedAt")
	}
}

func TestFinishRun_Failed(t *testing.T) {
	db := newTestDB(t)

	run := &Run{ID: "run-1", Workstream: "checkout", Task: "T"}
	if err := db.CreateRun(run); err != nil {
		t.Fatalf("CreateRun() returned error: %v", err)
	}

	if err := db.FinishRun("run-1", RunFailed, "", "session service unreachable"); err != nil {
		t.Fatalf("FinishRun() returned error: %v", err)
	}

	got, err := db.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun() returned error: %v", err)
	}
	if got.Status != RunFailed {
		t.Errorf("FinishRun() status = %v, want %v", got.Status, RunFailed)
	}
	if got.Error != "session service unreachable" {
		t.Errorf("FinishRun() error = %v, want the failure message", got.Error)
	}
}

func TestFinishRun_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.FinishRun("nonexistent", RunCompleted, "", "")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("FinishRun() error = %v, want ErrNotFound", err)
	}
}

// =============================================================================
// Role Run Tests
// =============================================================================

func TestCreateRoleRun(t *testing.T) {
	db := newTestDB(t)

	// Create run first (foreign key)
	if err := db.CreateRun(&Run{ID: "run-1", Workstream: "checkout", Task: "T"}); err != nil {
		t.Fatalf("CreateRun() returned error: %v", err)
	}

	rr := &RoleRun{
		ID:    "rr-1",
		RunID: "run-1",
		Role:  "planners",
		Stage: 0,
	}

	if err := db.CreateRoleRun(rr); err != nil {
		t.Fatalf("CreateRoleRun() returned error: %v", err)
	}

	if rr.Status != RoleRunPending {
		t.Errorf("CreateRoleRun() status = %v, want %v", rr.Status, RoleRunPending)
	}
	if rr.CreatedAt.IsZero() {
		t.Error("CreateRoleRun() did not set CreatedAt")
	}
}

func TestCreateRoleRun_ForeignKey(t *testing.T) {
	db := newTestDB(t)

	// Try to create role run without its run
	rr := &RoleRun{
		ID:    "rr-1",
		RunID: "nonexistent",
		Role:  "planners",
	}

	err := db.CreateRoleRun(rr)
	if err == nil {
		t.Error("CreateRoleRun() should fail with invalid run_id")
	}
}

func TestGetRoleRuns(t *testing.T) {
	db := newTestDB(t)

	if err := db.CreateRun(&Run{ID: "run-1", Workstream: "checkout", Task: "T"}); err != nil {
		t.Fatalf("CreateRun() returned error: %v", err)
	}

	// Create role runs out of order
	if err := db.CreateRoleRun(&RoleRun{ID: "rr-3", RunID: "run-1", Role: "reviewers", Stage: 2}); err != nil {
		t.Fatalf("CreateRoleRun() returned error: %v", err)
	}
	if err := db.CreateRoleRun(&RoleRun{ID: "rr-1", RunID: "run-1", Role: "planners", Stage: 0}); err != nil {
		t.Fatalf("CreateRoleRun() returned error: %v", err)
	}
	if err := db.CreateRoleRun(&RoleRun{ID: "rr-2", RunID: "run-1", Role: "developers", Stage: 1}); err != nil {
		t.Fatalf("CreateRoleRun() returned error: %v", err)
	}

	roleRuns, err := db.GetRoleRuns("run-1")
	if err != nil {
		t.Fatalf("GetRoleRuns() returned error: %v", err)
	}

	if len(roleRuns) != 3 {
		t.Fatalf("GetRoleRuns() returned %d role runs, want 3", len(roleRuns))
	}

	// Should be ordered by stage
	if roleRuns[0].Role != "planners" || roleRuns[1].Role != "developers" || roleRuns[2].Role != "reviewers" {
		t.Error("GetRoleRuns() role runs not ordered by stage")
	}
}

func TestGetRoleRuns_SameStageOrderedByRole(t *testing.T) {
	db := newTestDB(t)

	if err := db.CreateRun(&Run{ID: "run-1", Workstream: "checkout", Task: "T"}); err != nil {
		t.Fatalf("CreateRun() returned error: %v", err)
	}

	if err := db.CreateRoleRun(&RoleRun{ID: "rr-1", RunID: "run-1", Role: "reviewers", Stage: 1}); err != nil {
		t.Fatalf("CreateRoleRun() returned error: %v", err)
	}
	if err := db.CreateRoleRun(&RoleRun{ID: "rr-2", RunID: "run-1", Role: "documenters", Stage: 1}); err != nil {
		t.Fatalf("CreateRoleRun() returned error: %v", err)
	}

	roleRuns, err := db.GetRoleRuns("run-1")
	if err != nil {
		t.Fatalf("GetRoleRuns() returned error: %v", err)
	}

	if len(roleRuns) != 2 {
		t.Fatalf("GetRoleRuns() returned %d role runs, want 2", len(roleRuns))
	}
	if roleRuns[0].Role != "documenters" || roleRuns[1].Role != "reviewers" {
		t.Error("GetRoleRuns() role runs within a stage not ordered by role")
	}
}

func TestGetRoleRuns_Empty(t *testing.T) {
	db := newTestDB(t)

	if err := db.CreateRun(&Run{ID: "run-1", Workstream: "checkout", Task: "T"}); err != nil {
		t.Fatalf("CreateRun() returned error: %v", err)
	}

	roleRuns, err := db.GetRoleRuns("run-1")
	if err != nil {
		t.Fatalf("GetRoleRuns() returned error: %v", err)
	}

	if len(roleRuns) != 0 {
		t.Errorf("GetRoleRuns() returned %d role runs, want 0", len(roleRuns))
	}
}

func TestMarkRoleRunAssembled(t *testing.T) {
	db := newTestDB(t)

	if err := db.CreateRun(&Run{ID: "run-1", Workstream: "checkout", Task: "T"}); err != nil {
		t.Fatalf("CreateRun() returned error: %v", err)
	}
	if err := db.CreateRoleRun(&RoleRun{ID: "rr-1", RunID: "run-1", Role: "planners", Stage: 0}); err != nil {
		t.Fatalf("CreateRoleRun() returned error: %v", err)
	}

	included := []string{"roles/planners/planners_prompt.md", "roles/planners/contracts.yml"}
	skipped := []string{"workstreams/checkout/spec.md (not found)"}
	if err := db.MarkRoleRunAssembled("rr-1", 2048, included, skipped); err != nil {
		t.Fatalf("MarkRoleRunAssembled() returned error: %v", err)
	}

	roleRuns, err := db.GetRoleRuns("run-1")
	if err != nil {
		t.Fatalf("GetRoleRuns() returned error: %v", err)
	}
	if len(roleRuns) != 1 {
		t.Fatalf("GetRoleRuns() returned %d role runs, want 1", len(roleRuns))
	}

	got := roleRuns[0]
	if got.Status != RoleRunAssembled {
		t.Errorf("MarkRoleRunAssembled() status = %v, want %v", got.Status, RoleRunAssembled)
	}
	if got.PromptBytes != 2048 {
		t.Errorf("MarkRoleRunAssembled() prompt_bytes = %d, want 2048", got.PromptBytes)
	}
	if !reflect.DeepEqual(got.IncludedFiles, included) {
		t.Errorf("MarkRoleRunAssembled() included_files = %v, want %v", got.IncludedFiles, included)
	}
	if !reflect.DeepEqual(got.SkippedFiles, skipped) {
		t.Errorf("MarkRoleRunAssembled() skipped_files = %v, want %v", got.SkippedFiles, skipped)
	}
}

func TestMarkRoleRunAssembled_EmptyDiagnostics(t *testing.T) {
	db := newTestDB(t)

	if err := db.CreateRun(&Run{ID: "run-1", Workstream: "checkout", Task: "T"}); err != nil {
		t.Fatalf("CreateRun() returned error: %v", err)
	}
	if err := db.CreateRoleRun(&RoleRun{ID: "rr-1", RunID: "run-1", Role: "planners", Stage: 0}); err != nil {
		t.Fatalf("CreateRoleRun() returned error: %v", err)
	}

	if err := db.MarkRoleRunAssembled("rr-1", 10, nil, nil); err != nil {
		t.Fatalf("MarkRoleRunAssembled() returned error: %v", err)
	}

	roleRuns, err := db.GetRoleRuns("run-1")
	if err != nil {
		t.Fatalf("GetRoleRuns() returned error: %v", err)
	}
	if roleRuns[0].IncludedFiles != nil {
		t.Errorf("MarkRoleRunAssembled() included_files = %v, want nil", roleRuns[0].IncludedFiles)
	}
	if roleRuns[0].SkippedFiles != nil {
		t.Errorf("MarkRoleRunAssembled() skipped_files = %v, want nil", roleRuns[0].SkippedFiles)
	}
}

func TestMarkRoleRunAssembled_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.MarkRoleRunAssembled("nonexistent", 1, nil, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("MarkRoleRunAssembled() error = %v, want ErrNotFound", err)
	}
}

func TestMarkRoleRunSubmitted(t *testing.T) {
	db := newTestDB(t)

	if err := db.CreateRun(&Run{ID: "run-1", Workstream: "checkout", Task: "T"}); err != nil {
		t.Fatalf("CreateRun() returned error: %v", err)
	}
	if err := db.CreateRoleRun(&RoleRun{ID: "rr-1", RunID: "run-1", Role: "planners", Stage: 0}); err != nil {
		t.Fatalf("CreateRoleRun() returned error: %v", err)
	}

	if err := db.MarkRoleRunSubmitted("rr-1", "sess-42", "https://sessions.example.com/sess-42"); err != nil {
		t.Fatalf("MarkRoleRunSubmitted() returned error: %v", err)
	}

	roleRuns, err := db.GetRoleRuns("run-1")
	if err != nil {
		t.Fatalf("GetRoleRuns() returned error: %v", err)
	}

	got := roleRuns[0]
	if got.Status != RoleRunSubmitted {
		t.Errorf("MarkRoleRunSubmitted() status = %v, want %v", got.Status, RoleRunSubmitted)
	}
	if got.SessionID != "sess-42" {
		t.Errorf("MarkRoleRunSubmitted() session_id = %v, want sess-42", got.SessionID)
	}
	if got.SessionURL != "https://sessions.example.com/sess-42" {
		t.Errorf("MarkRoleRunSubmitted() session_url = %v, want the session URL", got.SessionURL)
	}
}

func TestMarkRoleRunSubmitted_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.MarkRoleRunSubmitted("nonexistent", "sess-1", "")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("MarkRoleRunSubmitted() error = %v, want ErrNotFound", err)
	}
}

func TestMarkRoleRunFailed(t *testing.T) {
	db := newTestDB(t)

	if err := db.CreateRun(&Run{ID: "run-1", Workstream: "checkout", Task: "T"}); err != nil {
		t.Fatalf("CreateRun() returned error: %v", err)
	}
	if err := db.CreateRoleRun(&RoleRun{ID: "rr-1", RunID: "run-1", Role: "planners", Stage: 0}); err != nil {
		t.Fatalf("CreateRoleRun() returned error: %v", err)
	}

	if err := db.MarkRoleRunFailed("rr-1", "required file missing"); err != nil {
		t.Fatalf("MarkRoleRunFailed() returned error: %v", err)
	}

	roleRuns, err := db.GetRoleRuns("run-1")
	if err != nil {
		t.Fatalf("GetRoleRuns() returned error: %v", err)
	}

	got := roleRuns[0]
	if got.Status != RoleRunFailed {
		t.Errorf("MarkRoleRunFailed() status = %v, want %v", got.Status, RoleRunFailed)
	}
	if got.Error != "required file missing" {
		t.Errorf("MarkRoleRunFailed() error = %v, want the failure message", got.Error)
	}
}

func TestMarkRoleRunFailed_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.MarkRoleRunFailed("nonexistent", "boom")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("MarkRoleRunFailed() error = %v, want ErrNotFound", err)
	}
}

// =============================================================================
// Status Type Tests
// =============================================================================

func TestRunStatusConstants(t *testing.T) {
	tests := []struct {
		status RunStatus
		want   string
	}{
		{RunRunning, "running"},
		{RunCompleted, "completed"},
		{RunFailed, "failed"},
	}

	for _, tt := range tests {
		if string(tt.status) != tt.want {
			t.Errorf("RunStatus %v = %q, want %q", tt.status, string(tt.status), tt.want)
		}
	}
}

func TestRoleRunStatusConstants(t *testing.T) {
	tests := []struct {
		status RoleRunStatus
		want   string
	}{
		{RoleRunPending, "pending"},
		{RoleRunAssembled, "assembled"},
		{RoleRunSubmitted, "submitted"},
		{RoleRunFailed, "failed"},
	}

	for _, tt := range tests {
		if string(tt.status) != tt.want {
			t.Errorf("RoleRunStatus %v = %q, want %q", tt.status, string(tt.status), tt.want)
		}
	}
}

// =============================================================================
// Diagnostics List Helper Tests
// =============================================================================

func TestSplitList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"Empty", "", nil},
		{"Single", "a.md", []string{"a.md"}},
		{"Multiple", "a.md\nb.md", []string{"a.md", "b.md"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitList(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitList(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestJoinList_RoundTrip(t *testing.T) {
	items := []string{"roles/devs/devs_prompt.md", "docs/arch.md (not found)"}
	got := splitList(joinList(items))
	if !reflect.DeepEqual(got, items) {
		t.Errorf("splitList(joinList()) = %v, want %v", got, items)
	}
}
