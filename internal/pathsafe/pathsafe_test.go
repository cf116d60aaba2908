package pathsafe

import (
	"errors"
	"strings"
	"testing"
)

// =============================================================================
// Safe Paths
// =============================================================================

func TestValidate_SafePaths(t *testing.T) {
	tests := []string{
		"roles/planners/contracts.yml",
		"docs/architecture.md",
		"a",
		"a/b/c",
		"./docs/notes.md",
		"roles//planners/plan.md",
		"..weird/but-legal.md",
		"trailing.dots..",
		"deep/./nested/./file.txt",
	}

	for _, path := range tests {
		if err := Validate(path); err != nil {
			t.Errorf("Validate(%q) should succeed, got %v", path, err)
		}
		if !IsSafe(path) {
			t.Errorf("IsSafe(%q) should be true", path)
		}
	}
}

// =============================================================================
// Unsafe Paths
// =============================================================================

func TestValidate_UnsafePaths(t *testing.T) {
	tests := []string{
		"",
		"   ",
		"/etc/passwd",
		"/roles/planners/plan.md",
		"..",
		"../secrets.yml",
		"../../etc/passwd",
		"roles/../../../etc/passwd",
		"roles/planners/..",
		"a/../b",
		`\windows\style`,
		`a\..\b`,
	}

	for _, path := range tests {
		err := Validate(path)
		if err == nil {
			t.Errorf("Validate(%q) should fail", path)
			continue
		}
		if !errors.Is(err, ErrUnsafePath) {
			t.Errorf("Validate(%q) error should wrap ErrUnsafePath, got %v", path, err)
		}
		if IsSafe(path) {
			t.Errorf("IsSafe(%q) should be false", path)
		}
	}
}

func TestValidate_ErrorMentionsPath(t *testing.T) {
	err := Validate("../../etc/passwd")
	if err == nil {
		t.Fatal("expected error for traversal path")
	}
	if got := err.Error(); !strings.Contains(got, "../../etc/passwd") {
		t.Errorf("error should mention the offending path, got %q", got)
	}
}
