package main

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/covgap/covgap/internal/mcpserver"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes the coverage
workflow as tools an LLM can invoke: parsing JaCoCo reports, generating
test scaffolds, and driving the git commit/push/pull-request flow.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "covgap": {
        "command": "covgap",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - parse_coverage_report  Ranked coverage gaps from a JaCoCo report
  - coverage_summary       Overall coverage and top gaps
  - generate_tests         Disabled JUnit 5 scaffolds for the worst gaps
  - git_status             Working tree state
  - git_stage_all          Stage changes, skipping build artifacts
  - git_commit             Commit with a coverage statistics block
  - git_push               Push the current branch
  - open_pull_request      Open a PR via the gh CLI`,
		Action: runMCPCmd,
	}
}

func runMCPCmd(c *cli.Context) error {
	server := mcpserver.NewServer(version)
	return server.Run(context.Background())
}
