// Package vcs wraps the source-control operations of the test-generation
// workflow: status, staging with artifact filtering, commits carrying
// coverage statistics, pushes, and pull requests via the gh CLI.
package vcs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotARepository is returned when the path is not inside a git
	// working tree.
	ErrNotARepository = errors.New("not a git repository")

	// ErrGHUnavailable is returned when the gh CLI is not installed or
	// not on PATH.
	ErrGHUnavailable = errors.New("GitHub CLI (gh) not installed")

	// ErrOnBaseBranch is returned when a pull request is requested while
	// the working tree is already on the base branch.
	ErrOnBaseBranch = errors.New("already on base branch")
)

// Status describes the state of a working tree.
type Status struct {
	IsClean         bool     `json:"is_clean"`
	CurrentBranch   string   `json:"current_branch"`
	StagedChanges   []string `json:"staged_changes"`
	UnstagedChanges []string `json:"unstaged_changes"`
	UntrackedFiles  []string `json:"untracked_files"`
	Conflicts       []string `json:"conflicts"`
	CommitsAhead    int      `json:"commits_ahead"`
}

// StageResult reports what a StageAll call actually staged.
type StageResult struct {
	StagedFiles []string `json:"staged_files"`
	Skipped     []string `json:"skipped"`
}

// CommitResult is the outcome of a commit operation.
type CommitResult struct {
	Hash    string `json:"hash"` // short hash
	Message string `json:"message"`
}

// PullRequestResult is the outcome of opening a pull request.
type PullRequestResult struct {
	URL    string `json:"url"`
	Number int    `json:"number"`
}

// CoverageStats carries the metrics embedded in commit messages and pull
// request bodies. The zero value renders nothing.
type CoverageStats struct {
	LineCoverage   float64 `json:"line_coverage"`
	BranchCoverage float64 `json:"branch_coverage"`
	TestsGenerated int     `json:"tests_generated"`
	CoverageGap    float64 `json:"coverage_gap"`
}

func (s CoverageStats) isZero() bool {
	return s == CoverageStats{}
}

// CommitMessage appends a coverage statistics block to a base message.
func CommitMessage(base string, stats CoverageStats) string {
	if stats.isZero() {
		return base
	}

	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\nCoverage Update:")
	fmt.Fprintf(&b, "\n- Line Coverage: %.2f%%", stats.LineCoverage)
	fmt.Fprintf(&b, "\n- Branch Coverage: %.2f%%", stats.BranchCoverage)
	if stats.TestsGenerated > 0 {
		fmt.Fprintf(&b, "\n- Tests Generated: %d", stats.TestsGenerated)
	}
	if stats.CoverageGap > 0 {
		fmt.Fprintf(&b, "\n- Coverage Gap: %.2f%%", stats.CoverageGap)
	}
	return b.String()
}

// PullRequestBody appends a coverage section to a pull request body.
func PullRequestBody(base string, stats CoverageStats) string {
	if stats.isZero() {
		return base
	}

	var b strings.Builder
	b.WriteString(base)
	if base != "" && !strings.HasSuffix(base, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("\n## Coverage Improvements\n")
	fmt.Fprintf(&b, "- Line Coverage: %.2f%%\n", stats.LineCoverage)
	fmt.Fprintf(&b, "- Branch Coverage: %.2f%%\n", stats.BranchCoverage)
	if stats.TestsGenerated > 0 {
		fmt.Fprintf(&b, "- Tests Generated: %d\n", stats.TestsGenerated)
	}
	return b.String()
}
