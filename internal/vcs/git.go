package vcs

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// aheadScanLimit bounds the commit walk when counting commits ahead of
// the remote tracking branch. Histories deeper than this report the cap.
const aheadScanLimit = 1000

// ExcludeFunc reports whether a path should be kept out of staging.
type ExcludeFunc func(path string) bool

// Git performs working-tree operations on a repository discovered from a
// starting path.
type Git struct {
	repo   *git.Repository
	remote string
}

// Open discovers a git repository at or above path.
func Open(path, remote string) (*Git, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotARepository, path)
	}
	if remote == "" {
		remote = "origin"
	}
	return &Git{repo: repo, remote: remote}, nil
}

// Status returns the state of the working tree, including how many
// commits the current branch is ahead of its remote counterpart.
func (g *Git) Status() (*Status, error) {
	wt, err := g.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("get worktree: %w", err)
	}
	st, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("read status: %w", err)
	}

	result := &Status{
		StagedChanges:   []string{},
		UnstagedChanges: []string{},
		UntrackedFiles:  []string{},
		Conflicts:       []string{},
	}

	paths := make([]string, 0, len(st))
	for path := range st {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		fs := st[path]
		switch {
		case fs.Staging == git.UpdatedButUnmerged || fs.Worktree == git.UpdatedButUnmerged:
			result.Conflicts = append(result.Conflicts, path)
		case fs.Staging == git.Untracked:
			result.UntrackedFiles = append(result.UntrackedFiles, path)
		default:
			if fs.Staging != git.Unmodified {
				result.StagedChanges = append(result.StagedChanges, path)
			}
			if fs.Worktree != git.Unmodified {
				result.UnstagedChanges = append(result.UnstagedChanges, path)
			}
		}
	}
	result.IsClean = st.IsClean()

	head, err := g.repo.Head()
	if err != nil {
		// Unborn branch: no commits yet.
		return result, nil
	}
	result.CurrentBranch = head.Name().Short()
	result.CommitsAhead = g.commitsAhead(head)
	return result, nil
}

// commitsAhead counts commits on HEAD not yet on the remote tracking
// branch. A missing remote ref means nothing has been pushed, which we
// report as zero rather than the full history length.
func (g *Git) commitsAhead(head *plumbing.Reference) int {
	remoteRef, err := g.repo.Reference(
		plumbing.NewRemoteReferenceName(g.remote, head.Name().Short()), true)
	if err != nil {
		return 0
	}

	iter, err := g.repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return 0
	}
	defer iter.Close()

	ahead := 0
	_ = iter.ForEach(func(c *object.Commit) error {
		if c.Hash == remoteRef.Hash() || ahead >= aheadScanLimit {
			return storer.ErrStop
		}
		ahead++
		return nil
	})
	return ahead
}

// CurrentBranch returns the short name of the checked-out branch.
func (g *Git) CurrentBranch() (string, error) {
	head, err := g.repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	return head.Name().Short(), nil
}

// StageAll stages every modified and untracked file except those the
// exclude filter rejects. A nil filter stages everything.
func (g *Git) StageAll(exclude ExcludeFunc) (*StageResult, error) {
	wt, err := g.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("get worktree: %w", err)
	}
	st, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("read status: %w", err)
	}

	result := &StageResult{StagedFiles: []string{}, Skipped: []string{}}

	paths := make([]string, 0, len(st))
	for path := range st {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		fs := st[path]
		if fs.Worktree == git.Unmodified && fs.Staging != git.Untracked {
			continue
		}
		if exclude != nil && exclude(path) {
			result.Skipped = append(result.Skipped, path)
			continue
		}
		if _, err := wt.Add(path); err != nil {
			return nil, fmt.Errorf("stage %s: %w", path, err)
		}
		result.StagedFiles = append(result.StagedFiles, path)
	}
	return result, nil
}

// Commit records the staged changes. When stats is non-zero the coverage
// block is appended to the message. Returns the short hash.
func (g *Git) Commit(message string, stats CoverageStats) (*CommitResult, error) {
	wt, err := g.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("get worktree: %w", err)
	}

	full := CommitMessage(message, stats)
	hash, err := wt.Commit(full, &git.CommitOptions{})
	if err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &CommitResult{
		Hash:    hash.String()[:7],
		Message: full,
	}, nil
}

// Push sends the current branch to the remote. Already-up-to-date is not
// an error.
func (g *Git) Push() error {
	err := g.repo.Push(&git.PushOptions{RemoteName: g.remote})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return fmt.Errorf("push to %s: %w", g.remote, err)
	}
	return nil
}

// ShortLog returns the subject lines of the most recent n commits,
// newest first. Used to seed pull request bodies.
func (g *Git) ShortLog(n int) ([]string, error) {
	head, err := g.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	iter, err := g.repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	var subjects []string
	_ = iter.ForEach(func(c *object.Commit) error {
		if len(subjects) >= n {
			return storer.ErrStop
		}
		subject, _, _ := strings.Cut(c.Message, "\n")
		subjects = append(subjects, subject)
		return nil
	})
	return subjects, nil
}
