package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	toon "github.com/toon-format/toon-go"

	"github.com/covgap/covgap/internal/service"
	"github.com/covgap/covgap/internal/vcs"
	"github.com/covgap/covgap/pkg/config"
)

// Common input structures for tools

// ReportInput is the base input for coverage tools.
type ReportInput struct {
	Report string `json:"report,omitempty" jsonschema:"Path or glob for the JaCoCo XML report. Defaults to **/jacoco.xml."`
}

// ParseReportInput configures full report parsing.
type ParseReportInput struct {
	ReportInput
	MaxGaps int `json:"max_gaps,omitempty" jsonschema:"Limit the number of gaps returned. 0 returns all."`
}

// SummaryInput configures the coverage summary.
type SummaryInput struct {
	ReportInput
	TopK int `json:"top_k,omitempty" jsonschema:"Number of top gaps to include. Default 10."`
}

// GenerateTestsInput configures scaffold generation.
type GenerateTestsInput struct {
	ReportInput
	OutputDir string `json:"output_dir,omitempty" jsonschema:"Directory for generated test files. Default generated-tests."`
	MaxGaps   int    `json:"max_gaps,omitempty" jsonschema:"Number of top gaps to scaffold. Default 10."`
	DryRun    bool   `json:"dry_run,omitempty" jsonschema:"Return the rendered files without writing them."`
}

// RepoInput is the base input for git tools.
type RepoInput struct {
	Path string `json:"path,omitempty" jsonschema:"Repository path. Defaults to current directory."`
}

// CommitInput configures a commit.
type CommitInput struct {
	RepoInput
	Message        string  `json:"message" jsonschema:"Commit message subject and body."`
	Report         string  `json:"report,omitempty" jsonschema:"Optional report path; when set, coverage stats are appended to the message."`
	TestsGenerated int     `json:"tests_generated,omitempty" jsonschema:"Number of generated tests to record in the message."`
	LineCoverage   float64 `json:"line_coverage,omitempty" jsonschema:"Override line coverage percentage for the message."`
	BranchCoverage float64 `json:"branch_coverage,omitempty" jsonschema:"Override branch coverage percentage for the message."`
}

// PullRequestInput configures opening a pull request.
type PullRequestInput struct {
	RepoInput
	Title          string  `json:"title" jsonschema:"Pull request title."`
	Body           string  `json:"body,omitempty" jsonschema:"Pull request body. A coverage section is appended when stats are available."`
	Base           string  `json:"base,omitempty" jsonschema:"Base branch. Defaults to the configured base branch."`
	Report         string  `json:"report,omitempty" jsonschema:"Optional report path for coverage stats in the body."`
	TestsGenerated int     `json:"tests_generated,omitempty" jsonschema:"Number of generated tests to record in the body."`
	LineCoverage   float64 `json:"line_coverage,omitempty" jsonschema:"Override line coverage percentage."`
	BranchCoverage float64 `json:"branch_coverage,omitempty" jsonschema:"Override branch coverage percentage."`
}

// Helper functions

func reportLocator(input ReportInput) string {
	if input.Report == "" {
		return "**/jacoco.xml"
	}
	return input.Report
}

func repoPath(input RepoInput) string {
	if input.Path == "" {
		return "."
	}
	return input.Path
}

func toolResult(data any) (*mcp.CallToolResult, any, error) {
	text, err := toon.Marshal(data, toon.WithIndent(2))
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(text)},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

// coverageStats analyzes an optional report and merges explicit overrides
// into the stats block recorded in commit messages and PR bodies.
func coverageStats(ctx context.Context, report string, tests int, line, branch float64) (vcs.CoverageStats, error) {
	stats := vcs.CoverageStats{
		LineCoverage:   line,
		BranchCoverage: branch,
		TestsGenerated: tests,
	}
	if report == "" {
		return stats, nil
	}

	a, err := service.New().Analyze(ctx, report)
	if err != nil {
		return stats, err
	}
	if stats.LineCoverage == 0 {
		stats.LineCoverage = a.Summary.LineCoverage
	}
	if stats.BranchCoverage == 0 {
		stats.BranchCoverage = a.Summary.BranchCoverage
	}
	stats.CoverageGap = a.Summary.CoverageGap
	return stats, nil
}

// Tool handlers

func handleParseReport(ctx context.Context, req *mcp.CallToolRequest, input ParseReportInput) (*mcp.CallToolResult, any, error) {
	a, err := service.New().Analyze(ctx, reportLocator(input.ReportInput))
	if err != nil {
		return toolError(err.Error())
	}

	gaps := a.Gaps
	if input.MaxGaps > 0 && len(gaps) > input.MaxGaps {
		gaps = gaps[:input.MaxGaps]
	}
	return toolResult(map[string]any{
		"locator": a.Locator,
		"gaps":    gaps,
		"summary": a.Summary,
	})
}

func handleCoverageSummary(ctx context.Context, req *mcp.CallToolRequest, input SummaryInput) (*mcp.CallToolResult, any, error) {
	cfg := config.LoadOrDefault()
	if input.TopK > 0 {
		cfg.Analysis.TopK = input.TopK
	}

	svc := service.New(service.WithConfig(cfg))
	a, err := svc.Analyze(ctx, reportLocator(input.ReportInput))
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(a.Summary)
}

func handleGenerateTests(ctx context.Context, req *mcp.CallToolRequest, input GenerateTestsInput) (*mcp.CallToolResult, any, error) {
	result, err := service.New().Generate(ctx, reportLocator(input.ReportInput), service.GenerateOptions{
		OutputDir: input.OutputDir,
		MaxGaps:   input.MaxGaps,
		DryRun:    input.DryRun,
	})
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(result)
}

func handleGitStatus(ctx context.Context, req *mcp.CallToolRequest, input RepoInput) (*mcp.CallToolResult, any, error) {
	cfg := config.LoadOrDefault()
	g, err := vcs.Open(repoPath(input), cfg.Git.Remote)
	if err != nil {
		return toolError(err.Error())
	}
	st, err := g.Status()
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(st)
}

func handleGitStageAll(ctx context.Context, req *mcp.CallToolRequest, input RepoInput) (*mcp.CallToolResult, any, error) {
	cfg := config.LoadOrDefault()
	g, err := vcs.Open(repoPath(input), cfg.Git.Remote)
	if err != nil {
		return toolError(err.Error())
	}
	result, err := g.StageAll(cfg.ShouldExcludeFromStaging)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(result)
}

func handleGitCommit(ctx context.Context, req *mcp.CallToolRequest, input CommitInput) (*mcp.CallToolResult, any, error) {
	if input.Message == "" {
		return toolError("message is required")
	}

	cfg := config.LoadOrDefault()
	g, err := vcs.Open(repoPath(input.RepoInput), cfg.Git.Remote)
	if err != nil {
		return toolError(err.Error())
	}

	stats, err := coverageStats(ctx, input.Report, input.TestsGenerated, input.LineCoverage, input.BranchCoverage)
	if err != nil {
		return toolError(err.Error())
	}

	result, err := g.Commit(input.Message, stats)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(result)
}

func handleGitPush(ctx context.Context, req *mcp.CallToolRequest, input RepoInput) (*mcp.CallToolResult, any, error) {
	cfg := config.LoadOrDefault()
	g, err := vcs.Open(repoPath(input), cfg.Git.Remote)
	if err != nil {
		return toolError(err.Error())
	}
	if err := g.Push(); err != nil {
		return toolError(err.Error())
	}
	return toolResult(map[string]string{"status": "pushed", "remote": cfg.Git.Remote})
}

func handleOpenPullRequest(ctx context.Context, req *mcp.CallToolRequest, input PullRequestInput) (*mcp.CallToolResult, any, error) {
	if input.Title == "" {
		return toolError("title is required")
	}

	cfg := config.LoadOrDefault()
	base := input.Base
	if base == "" {
		base = cfg.Git.BaseBranch
	}

	g, err := vcs.Open(repoPath(input.RepoInput), cfg.Git.Remote)
	if err != nil {
		return toolError(err.Error())
	}
	branch, err := g.CurrentBranch()
	if err != nil {
		return toolError(err.Error())
	}

	stats, err := coverageStats(ctx, input.Report, input.TestsGenerated, input.LineCoverage, input.BranchCoverage)
	if err != nil {
		return toolError(err.Error())
	}

	result, err := vcs.NewGH().CreatePullRequest(ctx, repoPath(input.RepoInput), branch, base, input.Title, input.Body, stats)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(result)
}
