package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/covgap/covgap/internal/output"
	"github.com/covgap/covgap/internal/progress"
	"github.com/covgap/covgap/internal/service"
	"github.com/covgap/covgap/pkg/config"
	"github.com/covgap/covgap/pkg/jacoco"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

// defaultLocator is used when no report argument is given.
const defaultLocator = "**/jacoco.xml"

// getLocator returns the report locator from positional args.
func getLocator(c *cli.Context) string {
	if c.Args().Len() > 0 {
		return c.Args().First()
	}
	return defaultLocator
}

// getLocators returns all report locators from positional args.
func getLocators(c *cli.Context) []string {
	if c.Args().Len() > 0 {
		return c.Args().Slice()
	}
	return []string{defaultLocator}
}

// loadConfig resolves the effective configuration for a command.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var cfg *config.Config
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.LoadOrDefault()
	}

	if c.Bool("no-cache") {
		cfg.Cache.Enabled = false
	}
	if c.Bool("verbose") {
		cfg.Output.Verbose = true
	}
	return cfg, nil
}

func newService(c *cli.Context) (*service.Service, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	return service.New(service.WithConfig(cfg)), nil
}

func newFormatter(c *cli.Context) (*output.Formatter, error) {
	return output.NewFormatter(output.ParseFormat(c.String("format")), c.String("output"), true)
}

func main() {
	app := &cli.App{
		Name:    "covgap",
		Usage:   "JaCoCo coverage gap analysis and test scaffold generation",
		Version: version,
		Description: `Covgap parses JaCoCo XML coverage reports, ranks the methods that
lack test coverage, and generates disabled JUnit 5 test scaffolds for
the worst gaps. A git workflow commits and publishes the results.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"COVGAP_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "text",
				Usage:   "Output format: text, json, markdown",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Disable report result caching",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose output",
			},
		},
		Commands: []*cli.Command{
			gapsCmd(),
			summaryCmd(),
			generateCmd(),
			gitStatusCmd(),
			gitStageCmd(),
			gitCommitCmd(),
			gitPushCmd(),
			prCmd(),
			initCmd(),
			mcpCmd(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func gapsCmd() *cli.Command {
	return &cli.Command{
		Name:      "gaps",
		Usage:     "List coverage gaps ranked by severity",
		ArgsUsage: "[report...]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "top",
				Usage: "Show top N gaps (0 shows all)",
			},
		},
		Action: runGapsCmd,
	}
}

func runGapsCmd(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}

	locators := getLocators(c)
	var analyses []*service.Analysis
	if len(locators) == 1 {
		spinner := progress.NewSpinner("Analyzing coverage report...")
		analysis, err := svc.Analyze(context.Background(), locators[0])
		if err != nil {
			spinner.FinishError(err)
			return err
		}
		spinner.FinishSuccess()
		analyses = []*service.Analysis{analysis}
	} else {
		tracker := progress.NewTracker("Analyzing coverage reports...", len(locators))
		analyses, err = svc.AnalyzeAllWithProgress(context.Background(), locators, tracker.Tick)
		if err != nil {
			tracker.FinishError(err)
			return err
		}
		tracker.FinishSuccess()
	}

	formatter, err := newFormatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	gaps := service.MergedGaps(analyses)
	if top := c.Int("top"); top > 0 && len(gaps) > top {
		gaps = gaps[:top]
	}

	var payload any = analyses[0]
	if len(analyses) > 1 {
		payload = analyses
	}

	if len(gaps) == 0 {
		if formatter.Format() == output.FormatText {
			color.Green("No coverage gaps found: every method is fully covered")
		}
		return formatter.Output(payload)
	}

	var rows [][]string
	for _, g := range gaps {
		sevStr := strconv.FormatFloat(g.Severity, 'f', 0, 64)
		if g.Severity >= 10 {
			sevStr = color.RedString(sevStr)
		} else if g.Severity >= 5 {
			sevStr = color.YellowString(sevStr)
		}

		rows = append(rows, []string{
			g.QualifiedName(),
			sevStr,
			fmt.Sprintf("%d/%d", g.MissedLines, g.TotalLines),
			strconv.Itoa(g.MissedBranches),
			fmt.Sprintf("%.1f%%", g.LineCoverage),
			formatLineNumbers(g.UncoveredLines, 8),
		})
	}

	footer := []string{fmt.Sprintf("Reports: %d", len(analyses)), fmt.Sprintf("Gaps: %d", len(gaps))}
	if len(analyses) == 1 {
		s := analyses[0].Summary
		footer = []string{
			fmt.Sprintf("Gaps: %d", s.GapCount),
			fmt.Sprintf("Line Coverage: %.2f%%", s.LineCoverage),
			fmt.Sprintf("Branch Coverage: %.2f%%", s.BranchCoverage),
			fmt.Sprintf("P90 Severity: %.0f", s.P90Severity),
		}
	}

	table := output.NewTable(
		"Coverage Gaps",
		[]string{"Method", "Severity", "Missed Lines", "Missed Branches", "Line Cov", "Uncovered"},
		rows,
		footer,
		payload,
	)

	return formatter.Output(table)
}

func summaryCmd() *cli.Command {
	return &cli.Command{
		Name:      "summary",
		Usage:     "Show overall coverage and the top gaps",
		ArgsUsage: "[report]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "top",
				Usage: "Number of top gaps to show (0 uses config)",
			},
		},
		Action: runSummaryCmd,
	}
}

func runSummaryCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if top := c.Int("top"); top > 0 {
		cfg.Analysis.TopK = top
	}
	svc := service.New(service.WithConfig(cfg))

	spinner := progress.NewSpinner("Analyzing coverage report...")
	analysis, err := svc.Analyze(context.Background(), getLocator(c))
	if err != nil {
		spinner.FinishError(err)
		return err
	}
	spinner.FinishSuccess()

	formatter, err := newFormatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	s := analysis.Summary
	var rows [][]string
	for _, g := range s.TopGaps {
		rows = append(rows, []string{
			g.QualifiedName(),
			strconv.FormatFloat(g.Severity, 'f', 0, 64),
			fmt.Sprintf("%.1f%%", g.LineCoverage),
			fmt.Sprintf("%.1f%%", g.BranchCoverage),
		})
	}

	covStr := fmt.Sprintf("Line Coverage: %.2f%%", s.LineCoverage)
	if s.LineCoverage >= 80 {
		covStr = color.GreenString(covStr)
	} else if s.LineCoverage < 50 {
		covStr = color.RedString(covStr)
	}

	table := output.NewTable(
		"Coverage Summary",
		[]string{"Method", "Severity", "Line Cov", "Branch Cov"},
		rows,
		[]string{
			covStr,
			fmt.Sprintf("Branch Coverage: %.2f%%", s.BranchCoverage),
			fmt.Sprintf("Coverage Gap: %.2f%%", s.CoverageGap),
			fmt.Sprintf("Gaps: %d (P50 severity %.0f, P90 %.0f)", s.GapCount, s.P50Severity, s.P90Severity),
		},
		s,
	)

	return formatter.Output(table)
}

func generateCmd() *cli.Command {
	return &cli.Command{
		Name:      "generate",
		Aliases:   []string{"gen"},
		Usage:     "Generate JUnit test scaffolds for the worst coverage gaps",
		ArgsUsage: "[report]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "output-dir",
				Value: "generated-tests",
				Usage: "Directory for generated test files",
			},
			&cli.IntFlag{
				Name:  "max-gaps",
				Usage: "Number of top gaps to scaffold (0 uses config)",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Print generated files without writing them",
			},
		},
		Action: runGenerateCmd,
	}
}

func runGenerateCmd(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}

	dryRun := c.Bool("dry-run")
	spinner := progress.NewSpinner("Generating test scaffolds...")
	result, err := svc.Generate(context.Background(), getLocator(c), service.GenerateOptions{
		OutputDir: c.String("output-dir"),
		MaxGaps:   c.Int("max-gaps"),
		DryRun:    dryRun,
	})
	if err != nil {
		spinner.FinishError(err)
		return err
	}
	spinner.FinishSuccess()

	formatter, err := newFormatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if formatter.Format() != output.FormatText {
		return formatter.Output(result)
	}

	if dryRun {
		for _, f := range result.Files {
			color.Cyan("--- %s (%d tests)", f.Path, f.Tests)
			fmt.Fprintln(formatter.Writer(), f.Content)
		}
	} else {
		for _, f := range result.Files {
			fmt.Fprintf(formatter.Writer(), "  %s (%d tests)\n", f.Path, f.Tests)
		}
	}

	color.Green("Generated %d test scaffolds across %d files (covering %d gaps)",
		result.TestsGenerated, len(result.Files), result.GapsCovered)
	return nil
}

// formatLineNumbers renders uncovered line numbers compactly, eliding
// long lists.
func formatLineNumbers(lines []jacoco.LineInfo, max int) string {
	nums := make([]string, 0, len(lines))
	for i, l := range lines {
		if i == max {
			nums = append(nums, fmt.Sprintf("+%d more", len(lines)-max))
			break
		}
		nums = append(nums, strconv.Itoa(l.Number))
	}
	return strings.Join(nums, ",")
}
