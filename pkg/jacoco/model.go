package jacoco

import "strings"

// LineStatus classifies a single source line's coverage.
type LineStatus string

const (
	LineCovered          LineStatus = "covered"
	LinePartiallyCovered LineStatus = "partial"
	LineNotCovered       LineStatus = "missed"
)

// Counters holds coverage tallies. Aggregates at method, class, package and
// report level are always recomputed from line data, never stored.
type Counters struct {
	CoveredLines        int `json:"covered_lines"`
	MissedLines         int `json:"missed_lines"`
	CoveredBranches     int `json:"covered_branches"`
	MissedBranches      int `json:"missed_branches"`
	CoveredInstructions int `json:"covered_instructions"`
	MissedInstructions  int `json:"missed_instructions"`
}

// Add returns the element-wise sum of two counter sets.
func (c Counters) Add(o Counters) Counters {
	return Counters{
		CoveredLines:        c.CoveredLines + o.CoveredLines,
		MissedLines:         c.MissedLines + o.MissedLines,
		CoveredBranches:     c.CoveredBranches + o.CoveredBranches,
		MissedBranches:      c.MissedBranches + o.MissedBranches,
		CoveredInstructions: c.CoveredInstructions + o.CoveredInstructions,
		MissedInstructions:  c.MissedInstructions + o.MissedInstructions,
	}
}

// LineCoverage returns covered/(covered+missed) lines as a percentage,
// or 0 when the counter set covers no lines at all.
func (c Counters) LineCoverage() float64 {
	total := c.CoveredLines + c.MissedLines
	if total == 0 {
		return 0
	}
	return float64(c.CoveredLines) / float64(total) * 100
}

// BranchCoverage returns covered/(covered+missed) branches as a percentage,
// or 0 when the counter set covers no branches.
func (c Counters) BranchCoverage() float64 {
	total := c.CoveredBranches + c.MissedBranches
	if total == 0 {
		return 0
	}
	return float64(c.CoveredBranches) / float64(total) * 100
}

// LineInfo is one executable source line with instruction and branch tallies.
type LineInfo struct {
	Number              int `json:"number"`
	CoveredInstructions int `json:"covered_instructions"`
	MissedInstructions  int `json:"missed_instructions"`
	CoveredBranches     int `json:"covered_branches"`
	MissedBranches      int `json:"missed_branches"`
}

// Status classifies the line from its four counts.
func (l LineInfo) Status() LineStatus {
	switch {
	case l.CoveredInstructions == 0:
		return LineNotCovered
	case l.MissedInstructions > 0 || l.MissedBranches > 0:
		return LinePartiallyCovered
	default:
		return LineCovered
	}
}

// HasBranch reports whether the line carries any branch points.
func (l LineInfo) HasBranch() bool {
	return l.CoveredBranches+l.MissedBranches > 0
}

// MethodInfo is one method with its attributed source lines, ordered by
// strictly increasing line number.
type MethodInfo struct {
	Name      string     `json:"name"`
	Desc      string     `json:"desc"`
	StartLine int        `json:"start_line"`
	Lines     []LineInfo `json:"lines"`
}

// Counters recomputes the method's aggregate from its lines.
func (m *MethodInfo) Counters() Counters {
	var c Counters
	for _, ln := range m.Lines {
		c.CoveredInstructions += ln.CoveredInstructions
		c.MissedInstructions += ln.MissedInstructions
		c.CoveredBranches += ln.CoveredBranches
		c.MissedBranches += ln.MissedBranches
		if ln.CoveredInstructions == 0 {
			c.MissedLines++
		} else {
			c.CoveredLines++
		}
	}
	return c
}

// IsFullyCovered reports whether the method has no missed lines and no
// missed branches.
func (m *MethodInfo) IsFullyCovered() bool {
	c := m.Counters()
	return c.MissedLines == 0 && c.MissedBranches == 0
}

// UncoveredLines returns the lines that are not fully covered, in source
// order.
func (m *MethodInfo) UncoveredLines() []LineInfo {
	var out []LineInfo
	for _, ln := range m.Lines {
		if ln.Status() != LineCovered {
			out = append(out, ln)
		}
	}
	return out
}

// ClassInfo is one class with its methods in declaration order.
type ClassInfo struct {
	Name       string       `json:"name"` // fully qualified, dotted
	SourceFile string       `json:"source_file"`
	Methods    []MethodInfo `json:"methods"`
}

// Counters recomputes the class aggregate as the sum of its methods.
func (ci *ClassInfo) Counters() Counters {
	var c Counters
	for i := range ci.Methods {
		c = c.Add(ci.Methods[i].Counters())
	}
	return c
}

// SimpleName returns the class name without its package qualifier.
func (ci *ClassInfo) SimpleName() string {
	if idx := strings.LastIndex(ci.Name, "."); idx >= 0 {
		return ci.Name[idx+1:]
	}
	return ci.Name
}

// PackageInfo is one package with its classes.
type PackageInfo struct {
	Name    string      `json:"name"` // dotted identifier
	Classes []ClassInfo `json:"classes"`
}

// Counters recomputes the package aggregate as the sum of its classes.
func (p *PackageInfo) Counters() Counters {
	var c Counters
	for i := range p.Classes {
		c = c.Add(p.Classes[i].Counters())
	}
	return c
}

// Report is the root of a parsed coverage report. It is built once by
// Parse and read-only thereafter.
type Report struct {
	Name     string        `json:"name"`
	Packages []PackageInfo `json:"packages"`
}

// Counters recomputes the report aggregate as the sum of its packages.
func (r *Report) Counters() Counters {
	var c Counters
	for i := range r.Packages {
		c = c.Add(r.Packages[i].Counters())
	}
	return c
}

// TotalLineCoverage returns the overall line coverage percentage. A report
// with zero total lines yields 0, not a division fault.
func (r *Report) TotalLineCoverage() float64 {
	return r.Counters().LineCoverage()
}

// TotalBranchCoverage returns the overall branch coverage percentage.
func (r *Report) TotalBranchCoverage() float64 {
	return r.Counters().BranchCoverage()
}
