package workspace

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/gerunddev/troupe/internal/assets"
	"github.com/gerunddev/troupe/internal/roles"
)

// =============================================================================
// Layout
// =============================================================================

func TestLayout_Conventions(t *testing.T) {
	if got := LayerDir("planners"); got != "roles/planners" {
		t.Errorf("LayerDir mismatch, got %q", got)
	}
	if got := TemplatePath("planners"); got != "roles/planners/planners_prompt.md" {
		t.Errorf("TemplatePath mismatch, got %q", got)
	}
	if got := SchemaDir("planners"); got != "roles/planners/schemas" {
		t.Errorf("SchemaDir mismatch, got %q", got)
	}
	if got := WorkstreamDir("checkout"); got != "workstreams/checkout" {
		t.Errorf("WorkstreamDir mismatch, got %q", got)
	}
	if got := DBPath(); got != ".troupe/runs.db" {
		t.Errorf("DBPath mismatch, got %q", got)
	}
}

// =============================================================================
// Scaffold
// =============================================================================

func TestScaffold_CreatesTree(t *testing.T) {
	store := assets.NewMem()

	result, err := Scaffold(store, roles.All(), "version: 1\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Skipped) != 0 {
		t.Errorf("fresh scaffold should skip nothing, got %v", result.Skipped)
	}

	wantPaths := []string{
		StateDir,
		RolesDir,
		WorkstreamsDir,
		DocsDir,
		WorkflowFile,
		"roles/planners/planners_prompt.md",
		"roles/planners/schemas/contracts.yml",
		"roles/developers/developers_prompt.md",
		"roles/reviewers/schemas/rubric.md",
		"roles/documenters/schemas/doc_map.md",
	}
	for _, p := range wantPaths {
		if !store.Exists(p) {
			t.Errorf("scaffold should create %s", p)
		}
	}

	workflow, err := store.Read(WorkflowFile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if workflow != "version: 1\n" {
		t.Errorf("workflow file content mismatch, got %q", workflow)
	}
}

func TestScaffold_NeverOverwrites(t *testing.T) {
	store := assets.NewMem()
	if _, err := Scaffold(store, roles.All(), "version: 1\n"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	custom := "my customized planner template\n"
	if err := store.WriteFile(TemplatePath("planners"), custom); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := Scaffold(store, roles.All(), "version: 1\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Created) != 0 {
		t.Errorf("second scaffold should create nothing, got %v", result.Created)
	}

	content, err := store.Read(TemplatePath("planners"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content != custom {
		t.Error("scaffold should never overwrite existing files")
	}
}

func TestScaffold_DeterministicOrder(t *testing.T) {
	first, err := Scaffold(assets.NewMem(), roles.All(), "version: 1\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Scaffold(assets.NewMem(), roles.All(), "version: 1\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first.Created, second.Created) {
		t.Errorf("created order should be deterministic:\n%v\n%v", first.Created, second.Created)
	}
}

// =============================================================================
// Discovery
// =============================================================================

func TestFindRoot_PrefersWorkflowFile(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.Mkdir(filepath.Join(root, ".git"), 0755); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, WorkflowFile), []byte("version: 1\n"), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := FindRoot(nested)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != root {
		t.Errorf("expected root %s, got %s", root, got)
	}
}

func TestFindRoot_FallsBackToGit(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "src", "pkg")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.Mkdir(filepath.Join(root, ".git"), 0755); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := FindRoot(nested)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != root {
		t.Errorf("expected root %s, got %s", root, got)
	}
}

func TestDiscoverLayers(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"roles/planners/planners_prompt.md": "p",
		"roles/planners/extra.md":           "x",
		"roles/devs/devs_prompt.md":         "d",
		"roles/qa/wrong_prompt.md":          "w",
	}
	for p, content := range files {
		full := filepath.Join(root, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	layers, err := DiscoverLayers(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"devs", "planners"}
	if !reflect.DeepEqual(layers, want) {
		t.Errorf("expected layers %v, got %v", want, layers)
	}
}
