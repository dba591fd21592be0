package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/covgap/covgap/internal/output"
	"github.com/covgap/covgap/internal/service"
	"github.com/covgap/covgap/internal/vcs"
	"github.com/covgap/covgap/pkg/config"
)

// openRepo opens the repository at --path using the configured remote.
func openRepo(c *cli.Context, cfg *config.Config) (*vcs.Git, error) {
	return vcs.Open(c.String("path"), cfg.Git.Remote)
}

// repoPathFlag is shared by all git commands.
func repoPathFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "path",
		Value: ".",
		Usage: "Repository path",
	}
}

// statsFromFlags builds the coverage block for commits and pull requests.
// When --report is given, the report is analyzed and fills in whatever
// the explicit flags left at zero.
func statsFromFlags(c *cli.Context, cfg *config.Config) (vcs.CoverageStats, error) {
	stats := vcs.CoverageStats{
		LineCoverage:   c.Float64("line-coverage"),
		BranchCoverage: c.Float64("branch-coverage"),
		TestsGenerated: c.Int("tests"),
	}

	report := c.String("report")
	if report == "" {
		return stats, nil
	}

	svc := service.New(service.WithConfig(cfg))
	analysis, err := svc.Analyze(context.Background(), report)
	if err != nil {
		return stats, err
	}
	if stats.LineCoverage == 0 {
		stats.LineCoverage = analysis.Summary.LineCoverage
	}
	if stats.BranchCoverage == 0 {
		stats.BranchCoverage = analysis.Summary.BranchCoverage
	}
	stats.CoverageGap = analysis.Summary.CoverageGap
	return stats, nil
}

func gitStatusCmd() *cli.Command {
	return &cli.Command{
		Name:   "git-status",
		Usage:  "Show working tree status: staged, unstaged, untracked, conflicts",
		Flags:  []cli.Flag{repoPathFlag()},
		Action: runGitStatusCmd,
	}
}

func runGitStatusCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	g, err := openRepo(c, cfg)
	if err != nil {
		return err
	}
	st, err := g.Status()
	if err != nil {
		return err
	}

	formatter, err := newFormatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if formatter.Format() != output.FormatText {
		return formatter.Output(st)
	}

	w := formatter.Writer()
	fmt.Fprintf(w, "Branch: %s", st.CurrentBranch)
	if st.CommitsAhead > 0 {
		fmt.Fprintf(w, " (%d ahead of %s)", st.CommitsAhead, cfg.Git.Remote)
	}
	fmt.Fprintln(w)

	if st.IsClean {
		color.Green("Working tree clean")
		return nil
	}

	printFileList := func(label string, files []string, paint func(format string, a ...interface{})) {
		if len(files) == 0 {
			return
		}
		paint("%s (%d):", label, len(files))
		for _, f := range files {
			fmt.Fprintf(w, "  %s\n", f)
		}
	}

	printFileList("Conflicts", st.Conflicts, color.Red)
	printFileList("Staged", st.StagedChanges, color.Green)
	printFileList("Unstaged", st.UnstagedChanges, color.Yellow)
	printFileList("Untracked", st.UntrackedFiles, color.Cyan)
	return nil
}

func gitStageCmd() *cli.Command {
	return &cli.Command{
		Name:   "git-stage",
		Usage:  "Stage all changes, skipping build artifacts",
		Flags:  []cli.Flag{repoPathFlag()},
		Action: runGitStageCmd,
	}
}

func runGitStageCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	g, err := openRepo(c, cfg)
	if err != nil {
		return err
	}

	result, err := g.StageAll(cfg.ShouldExcludeFromStaging)
	if err != nil {
		return err
	}

	formatter, err := newFormatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if formatter.Format() != output.FormatText {
		return formatter.Output(result)
	}

	for _, f := range result.StagedFiles {
		fmt.Fprintf(formatter.Writer(), "  staged  %s\n", f)
	}
	for _, f := range result.Skipped {
		fmt.Fprintf(formatter.Writer(), "  skipped %s\n", f)
	}
	color.Green("Staged %d files (%d skipped)", len(result.StagedFiles), len(result.Skipped))
	return nil
}

func gitCommitCmd() *cli.Command {
	return &cli.Command{
		Name:  "git-commit",
		Usage: "Commit staged changes with an optional coverage block",
		Flags: []cli.Flag{
			repoPathFlag(),
			&cli.StringFlag{
				Name:     "message",
				Aliases:  []string{"m"},
				Usage:    "Commit message",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Coverage report; appends a coverage block to the message",
			},
			&cli.IntFlag{
				Name:  "tests",
				Usage: "Number of generated tests to record",
			},
			&cli.Float64Flag{
				Name:  "line-coverage",
				Usage: "Override line coverage percentage",
			},
			&cli.Float64Flag{
				Name:  "branch-coverage",
				Usage: "Override branch coverage percentage",
			},
		},
		Action: runGitCommitCmd,
	}
}

func runGitCommitCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	g, err := openRepo(c, cfg)
	if err != nil {
		return err
	}

	stats, err := statsFromFlags(c, cfg)
	if err != nil {
		return err
	}

	result, err := g.Commit(c.String("message"), stats)
	if err != nil {
		return err
	}
	color.Green("Committed %s", result.Hash)
	if cfg.Output.Verbose {
		fmt.Println(result.Message)
	}
	return nil
}

func gitPushCmd() *cli.Command {
	return &cli.Command{
		Name:   "git-push",
		Usage:  "Push the current branch to the configured remote",
		Flags:  []cli.Flag{repoPathFlag()},
		Action: runGitPushCmd,
	}
}

func runGitPushCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	g, err := openRepo(c, cfg)
	if err != nil {
		return err
	}

	branch, err := g.CurrentBranch()
	if err != nil {
		return err
	}
	if err := g.Push(); err != nil {
		return err
	}
	color.Green("Pushed %s to %s", branch, cfg.Git.Remote)
	return nil
}

func prCmd() *cli.Command {
	return &cli.Command{
		Name:  "pr",
		Usage: "Open a pull request for the current branch via the gh CLI",
		Flags: []cli.Flag{
			repoPathFlag(),
			&cli.StringFlag{
				Name:     "title",
				Aliases:  []string{"t"},
				Usage:    "Pull request title",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "body",
				Aliases: []string{"b"},
				Usage:   "Pull request body",
			},
			&cli.StringFlag{
				Name:  "base",
				Usage: "Base branch (defaults to the configured base branch)",
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Coverage report; appends a coverage section to the body",
			},
			&cli.IntFlag{
				Name:  "tests",
				Usage: "Number of generated tests to record",
			},
			&cli.Float64Flag{
				Name:  "line-coverage",
				Usage: "Override line coverage percentage",
			},
			&cli.Float64Flag{
				Name:  "branch-coverage",
				Usage: "Override branch coverage percentage",
			},
		},
		Action: runPRCmd,
	}
}

func runPRCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	g, err := openRepo(c, cfg)
	if err != nil {
		return err
	}

	branch, err := g.CurrentBranch()
	if err != nil {
		return err
	}
	base := c.String("base")
	if base == "" {
		base = cfg.Git.BaseBranch
	}

	stats, err := statsFromFlags(c, cfg)
	if err != nil {
		return err
	}

	result, err := vcs.NewGH().CreatePullRequest(context.Background(), c.String("path"), branch, base, c.String("title"), c.String("body"), stats)
	if err != nil {
		return err
	}
	color.Green("Opened pull request #%d", result.Number)
	fmt.Println(result.URL)
	return nil
}
