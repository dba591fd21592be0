package vcs

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Runner executes an external command in dir and returns its combined
// output. It exists so tests can substitute a fake gh.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
	LookPath(name string) (string, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

func (execRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// GH opens pull requests through the GitHub CLI.
type GH struct {
	runner Runner
}

// NewGH returns a GH backed by the real gh binary.
func NewGH() *GH {
	return &GH{runner: execRunner{}}
}

// NewGHWithRunner returns a GH using a custom command runner.
func NewGHWithRunner(r Runner) *GH {
	return &GH{runner: r}
}

// CreatePullRequest opens a pull request from branch into base for the
// repository at dir. When stats is non-zero a coverage section is
// appended to the body.
func (g *GH) CreatePullRequest(ctx context.Context, dir, branch, base, title, body string, stats CoverageStats) (*PullRequestResult, error) {
	if _, err := g.runner.LookPath("gh"); err != nil {
		return nil, ErrGHUnavailable
	}
	if branch == base {
		return nil, fmt.Errorf("%w: %s", ErrOnBaseBranch, base)
	}

	out, err := g.runner.Run(ctx, dir, "gh", "pr", "create",
		"--base", base,
		"--head", branch,
		"--title", title,
		"--body", PullRequestBody(body, stats),
	)
	if err != nil {
		return nil, fmt.Errorf("gh pr create: %w: %s", err, strings.TrimSpace(string(out)))
	}

	url := pullRequestURL(string(out))
	if url == "" {
		return nil, fmt.Errorf("gh pr create: no pull request URL in output: %s", strings.TrimSpace(string(out)))
	}
	return &PullRequestResult{
		URL:    url,
		Number: pullRequestNumber(url),
	}, nil
}

// pullRequestURL finds the pull request URL in gh output. gh prints it
// on its own line.
func pullRequestURL(out string) string {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "https://") && strings.Contains(line, "/pull/") {
			return line
		}
	}
	return ""
}

func pullRequestNumber(url string) int {
	_, tail, ok := strings.Cut(url, "/pull/")
	if !ok {
		return 0
	}
	tail = strings.TrimRight(tail, "/")
	n, err := strconv.Atoi(tail)
	if err != nil {
		return 0
	}
	return n
}
