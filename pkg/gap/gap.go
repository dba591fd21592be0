// Package gap extracts prioritized coverage gaps from a parsed report.
package gap

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/covgap/covgap/pkg/jacoco"
)

// DefaultTopK is the number of top gaps returned in a summary when the
// caller does not say otherwise.
const DefaultTopK = 10

// Gap is one method that is not fully exercised by existing tests.
type Gap struct {
	Package        string            `json:"package"`
	Class          string            `json:"class"` // fully qualified
	Method         string            `json:"method"`
	Desc           string            `json:"desc"`
	Severity       float64           `json:"severity"`
	MissedLines    int               `json:"missed_lines"`
	TotalLines     int               `json:"total_lines"`
	MissedBranches int               `json:"missed_branches"`
	LineCoverage   float64           `json:"line_coverage"`
	BranchCoverage float64           `json:"branch_coverage"`
	UncoveredLines []jacoco.LineInfo `json:"uncovered_lines"`
}

// QualifiedName returns the stable identity used for deterministic tie
// breaking: Class#method(desc).
func (g *Gap) QualifiedName() string {
	return fmt.Sprintf("%s#%s%s", g.Class, g.Method, g.Desc)
}

// Extract walks a report and returns one gap per not-fully-covered method,
// sorted by descending severity with ties broken by ascending qualified
// name. The same report always yields the same ordering.
//
// Severity is missed lines plus missed branches: a method missing many
// lines or branch outcomes sorts first. A fully covered report yields an
// empty slice, not an error.
func Extract(report *jacoco.Report) []Gap {
	var gaps []Gap
	for pi := range report.Packages {
		pkg := &report.Packages[pi]
		for ci := range pkg.Classes {
			cls := &pkg.Classes[ci]
			for mi := range cls.Methods {
				m := &cls.Methods[mi]
				if m.IsFullyCovered() {
					continue
				}
				c := m.Counters()
				gaps = append(gaps, Gap{
					Package:        pkg.Name,
					Class:          cls.Name,
					Method:         m.Name,
					Desc:           m.Desc,
					Severity:       float64(c.MissedLines + c.MissedBranches),
					MissedLines:    c.MissedLines,
					TotalLines:     c.MissedLines + c.CoveredLines,
					MissedBranches: c.MissedBranches,
					LineCoverage:   c.LineCoverage(),
					BranchCoverage: c.BranchCoverage(),
					UncoveredLines: m.UncoveredLines(),
				})
			}
		}
	}

	sort.Slice(gaps, func(i, j int) bool {
		if gaps[i].Severity != gaps[j].Severity {
			return gaps[i].Severity > gaps[j].Severity
		}
		return gaps[i].QualifiedName() < gaps[j].QualifiedName()
	})
	return gaps
}

// Summary aggregates a gap extraction run.
type Summary struct {
	LineCoverage   float64 `json:"line_coverage"`
	BranchCoverage float64 `json:"branch_coverage"`
	CoverageGap    float64 `json:"coverage_gap"` // 100 - line coverage
	GapCount       int     `json:"gap_count"`
	TopGaps        []Gap   `json:"top_gaps"`
	P50Severity    float64 `json:"p50_severity"`
	P90Severity    float64 `json:"p90_severity"`
}

// Summarize computes overall coverage and the top-K gaps by severity.
// The gaps slice must come from Extract (already ordered). topK <= 0
// selects DefaultTopK.
func Summarize(report *jacoco.Report, gaps []Gap, topK int) Summary {
	if topK <= 0 {
		topK = DefaultTopK
	}

	s := Summary{
		LineCoverage:   report.TotalLineCoverage(),
		BranchCoverage: report.TotalBranchCoverage(),
		GapCount:       len(gaps),
	}
	s.CoverageGap = 100 - s.LineCoverage

	top := gaps
	if len(top) > topK {
		top = top[:topK]
	}
	s.TopGaps = top

	if len(gaps) > 0 {
		severities := make([]float64, len(gaps))
		for i, g := range gaps {
			severities[i] = g.Severity
		}
		sort.Float64s(severities)
		s.P50Severity = stat.Quantile(0.5, stat.Empirical, severities, nil)
		s.P90Severity = stat.Quantile(0.9, stat.Empirical, severities, nil)
	}
	return s
}
