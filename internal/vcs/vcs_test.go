package vcs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func TestCommitMessage(t *testing.T) {
	stats := CoverageStats{
		LineCoverage:   78.50,
		BranchCoverage: 61.25,
		TestsGenerated: 4,
		CoverageGap:    21.50,
	}

	msg := CommitMessage("Add generated tests for Calculator", stats)

	want := "Add generated tests for Calculator\n\n" +
		"Coverage Update:\n" +
		"- Line Coverage: 78.50%\n" +
		"- Branch Coverage: 61.25%\n" +
		"- Tests Generated: 4\n" +
		"- Coverage Gap: 21.50%"
	if msg != want {
		t.Errorf("commit message mismatch:\ngot:\n%s\nwant:\n%s", msg, want)
	}
}

func TestCommitMessageZeroStats(t *testing.T) {
	msg := CommitMessage("Fix typo", CoverageStats{})
	if msg != "Fix typo" {
		t.Errorf("zero stats should leave message untouched, got %q", msg)
	}
}

func TestCommitMessageOmitsEmptyFields(t *testing.T) {
	msg := CommitMessage("Update", CoverageStats{LineCoverage: 50, BranchCoverage: 40})
	if strings.Contains(msg, "Tests Generated") {
		t.Error("should omit Tests Generated when zero")
	}
	if strings.Contains(msg, "Coverage Gap") {
		t.Error("should omit Coverage Gap when zero")
	}
	if !strings.Contains(msg, "- Line Coverage: 50.00%") {
		t.Errorf("missing line coverage in %q", msg)
	}
}

func TestPullRequestBody(t *testing.T) {
	body := PullRequestBody("Adds scaffolded tests.", CoverageStats{
		LineCoverage:   80,
		BranchCoverage: 70,
		TestsGenerated: 2,
	})

	if !strings.Contains(body, "Adds scaffolded tests.") {
		t.Error("base body should be preserved")
	}
	if !strings.Contains(body, "## Coverage Improvements") {
		t.Error("missing coverage section header")
	}
	if !strings.Contains(body, "- Line Coverage: 80.00%") {
		t.Error("missing line coverage")
	}
	if !strings.Contains(body, "- Tests Generated: 2") {
		t.Error("missing tests generated")
	}
}

func TestPullRequestBodyZeroStats(t *testing.T) {
	body := PullRequestBody("Just a body", CoverageStats{})
	if body != "Just a body" {
		t.Errorf("zero stats should leave body untouched, got %q", body)
	}
}

func TestOpenNotARepository(t *testing.T) {
	_, err := Open(t.TempDir(), "origin")
	if !errors.Is(err, ErrNotARepository) {
		t.Errorf("expected ErrNotARepository, got %v", err)
	}
}

func TestStatusCleanRepo(t *testing.T) {
	repoPath := initTestRepoWithCommit(t)

	g, err := Open(repoPath, "origin")
	if err != nil {
		t.Fatal(err)
	}
	st, err := g.Status()
	if err != nil {
		t.Fatal(err)
	}

	if !st.IsClean {
		t.Error("fresh committed repo should be clean")
	}
	if st.CurrentBranch != "master" && st.CurrentBranch != "main" {
		t.Errorf("unexpected branch %q", st.CurrentBranch)
	}
	if st.CommitsAhead != 0 {
		t.Errorf("no remote means 0 commits ahead, got %d", st.CommitsAhead)
	}
}

func TestStatusClassifiesChanges(t *testing.T) {
	repoPath := initTestRepoWithCommit(t)

	// Unstaged modification to a tracked file.
	if err := os.WriteFile(filepath.Join(repoPath, "test.txt"), []byte("changed\n"), 0644); err != nil {
		t.Fatal(err)
	}
	// Untracked file.
	if err := os.WriteFile(filepath.Join(repoPath, "new.java"), []byte("class New {}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	// Staged file.
	if err := os.WriteFile(filepath.Join(repoPath, "staged.txt"), []byte("staged\n"), 0644); err != nil {
		t.Fatal(err)
	}
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		t.Fatal(err)
	}
	w, _ := repo.Worktree()
	if _, err := w.Add("staged.txt"); err != nil {
		t.Fatal(err)
	}

	g, err := Open(repoPath, "origin")
	if err != nil {
		t.Fatal(err)
	}
	st, err := g.Status()
	if err != nil {
		t.Fatal(err)
	}

	if st.IsClean {
		t.Error("repo with changes should not be clean")
	}
	if !containsPath(st.UnstagedChanges, "test.txt") {
		t.Errorf("test.txt should be unstaged, got %v", st.UnstagedChanges)
	}
	if !containsPath(st.UntrackedFiles, "new.java") {
		t.Errorf("new.java should be untracked, got %v", st.UntrackedFiles)
	}
	if !containsPath(st.StagedChanges, "staged.txt") {
		t.Errorf("staged.txt should be staged, got %v", st.StagedChanges)
	}
}

func TestStageAllWithExcludeFilter(t *testing.T) {
	repoPath := initTestRepoWithCommit(t)

	files := []string{"CalculatorTest.java", "Calculator.class", "notes.txt"}
	for _, name := range files {
		if err := os.WriteFile(filepath.Join(repoPath, name), []byte("content\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	g, err := Open(repoPath, "origin")
	if err != nil {
		t.Fatal(err)
	}
	result, err := g.StageAll(func(path string) bool {
		return strings.HasSuffix(path, ".class")
	})
	if err != nil {
		t.Fatal(err)
	}

	if !containsPath(result.StagedFiles, "CalculatorTest.java") {
		t.Errorf("CalculatorTest.java should be staged, got %v", result.StagedFiles)
	}
	if !containsPath(result.StagedFiles, "notes.txt") {
		t.Errorf("notes.txt should be staged, got %v", result.StagedFiles)
	}
	if containsPath(result.StagedFiles, "Calculator.class") {
		t.Error("Calculator.class should have been excluded")
	}
	if !containsPath(result.Skipped, "Calculator.class") {
		t.Errorf("Calculator.class should be reported skipped, got %v", result.Skipped)
	}
}

func TestStageAllNilFilter(t *testing.T) {
	repoPath := initTestRepoWithCommit(t)
	if err := os.WriteFile(filepath.Join(repoPath, "a.txt"), []byte("a\n"), 0644); err != nil {
		t.Fatal(err)
	}

	g, err := Open(repoPath, "origin")
	if err != nil {
		t.Fatal(err)
	}
	result, err := g.StageAll(nil)
	if err != nil {
		t.Fatal(err)
	}
	if !containsPath(result.StagedFiles, "a.txt") {
		t.Errorf("a.txt should be staged, got %v", result.StagedFiles)
	}
	if len(result.Skipped) != 0 {
		t.Errorf("nothing should be skipped, got %v", result.Skipped)
	}
}

func TestCommitWithStats(t *testing.T) {
	repoPath := initTestRepoWithCommit(t)
	setTestIdentity(t, repoPath)

	if err := os.WriteFile(filepath.Join(repoPath, "FooTest.java"), []byte("class FooTest {}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	g, err := Open(repoPath, "origin")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.StageAll(nil); err != nil {
		t.Fatal(err)
	}

	result, err := g.Commit("Add FooTest scaffolds", CoverageStats{
		LineCoverage:   90,
		BranchCoverage: 85,
		TestsGenerated: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Hash) != 7 {
		t.Errorf("expected 7-char short hash, got %q", result.Hash)
	}
	if !strings.Contains(result.Message, "Coverage Update:") {
		t.Errorf("message should carry coverage block, got %q", result.Message)
	}
}

func TestShortLog(t *testing.T) {
	repoPath := initTestRepoWithCommit(t)
	setTestIdentity(t, repoPath)

	g, err := Open(repoPath, "origin")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(repoPath, "b.txt"), []byte("b\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := g.StageAll(nil); err != nil {
		t.Fatal(err)
	}
	if _, err := g.Commit("Second change\n\nwith body", CoverageStats{}); err != nil {
		t.Fatal(err)
	}

	subjects, err := g.ShortLog(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(subjects) != 2 {
		t.Fatalf("expected 2 subjects, got %v", subjects)
	}
	if subjects[0] != "Second change" {
		t.Errorf("newest first: got %q", subjects[0])
	}
	if subjects[1] != "Initial commit" {
		t.Errorf("got %q", subjects[1])
	}
}

// fakeRunner simulates the gh CLI for pull request tests.
type fakeRunner struct {
	output   string
	runErr   error
	pathErr  error
	lastDir  string
	lastArgs []string
}

func (f *fakeRunner) Run(_ context.Context, dir, _ string, args ...string) ([]byte, error) {
	f.lastDir = dir
	f.lastArgs = args
	return []byte(f.output), f.runErr
}

func (f *fakeRunner) LookPath(string) (string, error) {
	if f.pathErr != nil {
		return "", f.pathErr
	}
	return "/usr/bin/gh", nil
}

func TestCreatePullRequest(t *testing.T) {
	runner := &fakeRunner{
		output: "Creating pull request for feature/tests into main\n" +
			"https://github.com/acme/calc/pull/42\n",
	}
	gh := NewGHWithRunner(runner)

	result, err := gh.CreatePullRequest(context.Background(), "/work/calc",
		"feature/tests", "main", "Add generated tests", "Body text",
		CoverageStats{LineCoverage: 75, BranchCoverage: 60})
	if err != nil {
		t.Fatal(err)
	}

	if result.URL != "https://github.com/acme/calc/pull/42" {
		t.Errorf("unexpected URL %q", result.URL)
	}
	if result.Number != 42 {
		t.Errorf("expected PR number 42, got %d", result.Number)
	}
	if runner.lastDir != "/work/calc" {
		t.Errorf("gh should run in the repository directory, got %q", runner.lastDir)
	}

	args := strings.Join(runner.lastArgs, " ")
	if !strings.Contains(args, "pr create") {
		t.Errorf("expected pr create invocation, got %q", args)
	}
	if !strings.Contains(args, "--base main") {
		t.Errorf("expected --base main, got %q", args)
	}
	if !strings.Contains(args, "## Coverage Improvements") {
		t.Errorf("body should carry coverage section, got %q", args)
	}
}

func TestCreatePullRequestGHMissing(t *testing.T) {
	gh := NewGHWithRunner(&fakeRunner{pathErr: errors.New("not found")})

	_, err := gh.CreatePullRequest(context.Background(), ".",
		"feature/x", "main", "t", "b", CoverageStats{})
	if !errors.Is(err, ErrGHUnavailable) {
		t.Errorf("expected ErrGHUnavailable, got %v", err)
	}
}

func TestCreatePullRequestOnBaseBranch(t *testing.T) {
	gh := NewGHWithRunner(&fakeRunner{})

	_, err := gh.CreatePullRequest(context.Background(), ".",
		"main", "main", "t", "b", CoverageStats{})
	if !errors.Is(err, ErrOnBaseBranch) {
		t.Errorf("expected ErrOnBaseBranch, got %v", err)
	}
}

func TestCreatePullRequestNoURL(t *testing.T) {
	gh := NewGHWithRunner(&fakeRunner{output: "something went sideways\n"})

	_, err := gh.CreatePullRequest(context.Background(), ".",
		"feature/x", "main", "t", "b", CoverageStats{})
	if err == nil {
		t.Fatal("expected error when output has no URL")
	}
}

func TestPullRequestNumber(t *testing.T) {
	cases := []struct {
		url  string
		want int
	}{
		{"https://github.com/acme/calc/pull/7", 7},
		{"https://github.com/acme/calc/pull/123/", 123},
		{"https://github.com/acme/calc", 0},
		{"https://github.com/acme/calc/pull/abc", 0},
	}
	for _, tc := range cases {
		if got := pullRequestNumber(tc.url); got != tc.want {
			t.Errorf("pullRequestNumber(%q) = %d, want %d", tc.url, got, tc.want)
		}
	}
}

func initTestRepoWithCommit(t *testing.T) string {
	t.Helper()
	repoPath := t.TempDir()
	repo, err := git.PlainInit(repoPath, false)
	if err != nil {
		t.Fatalf("Failed to init repo: %v", err)
	}

	testFile := filepath.Join(repoPath, "test.txt")
	if err := os.WriteFile(testFile, []byte("initial content\n"), 0644); err != nil {
		t.Fatal(err)
	}

	w, _ := repo.Worktree()
	w.Add("test.txt")
	_, err = w.Commit("Initial commit", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return repoPath
}

// setTestIdentity writes a user into the repo config so commits made
// through Git.Commit resolve an author.
func setTestIdentity(t *testing.T, repoPath string) {
	t.Helper()
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := repo.Config()
	if err != nil {
		t.Fatal(err)
	}
	cfg.User.Name = "Test"
	cfg.User.Email = "test@example.com"
	if err := repo.SetConfig(cfg); err != nil {
		t.Fatal(err)
	}
}

func containsPath(paths []string, want string) bool {
	for _, p := range paths {
		if p == want {
			return true
		}
	}
	return false
}
