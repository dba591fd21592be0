// Package mcpserver exposes the coverage workflow as MCP tools so agents
// can analyze reports, scaffold tests, and drive the git workflow.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server and registers all covgap tools.
type Server struct {
	server *mcp.Server
}

// NewServer creates a new MCP server with all covgap tools registered.
func NewServer(version string) *Server {
	if version == "" {
		version = "dev"
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "covgap",
			Version: version,
		},
		nil,
	)

	s := &Server{server: server}
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// registerTools adds the coverage and git workflow tools to the server.
func (s *Server) registerTools() {
	// Coverage report parsing
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "parse_coverage_report",
		Description: describeParseReport(),
	}, handleParseReport)

	// Coverage summary
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "coverage_summary",
		Description: describeCoverageSummary(),
	}, handleCoverageSummary)

	// Test scaffold generation
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "generate_tests",
		Description: describeGenerateTests(),
	}, handleGenerateTests)

	// Git workflow
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "git_status",
		Description: describeGitStatus(),
	}, handleGitStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "git_stage_all",
		Description: describeGitStageAll(),
	}, handleGitStageAll)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "git_commit",
		Description: describeGitCommit(),
	}, handleGitCommit)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "git_push",
		Description: describeGitPush(),
	}, handleGitPush)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "open_pull_request",
		Description: describeOpenPullRequest(),
	}, handleOpenPullRequest)
}
