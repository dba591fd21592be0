package jacoco

import (
	"errors"
	"strings"
	"testing"
)

const calculatorReport = `<?xml version="1.0" encoding="UTF-8"?>
<report name="demo">
  <package name="com/example">
    <class name="com/example/Calculator" sourcefilename="Calculator.java">
      <method name="divide" desc="(II)I" line="10">
        <counter type="LINE" missed="1" covered="1"/>
      </method>
      <counter type="LINE" missed="1" covered="1"/>
    </class>
    <sourcefile name="Calculator.java">
      <line nr="10" mi="0" ci="3" mb="0" cb="0"/>
      <line nr="11" mi="4" ci="0" mb="1" cb="0"/>
    </sourcefile>
    <counter type="LINE" missed="1" covered="1"/>
  </package>
  <counter type="LINE" missed="1" covered="1"/>
</report>`

func TestParse_MinimalReport(t *testing.T) {
	report, err := Parse([]byte(calculatorReport))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(report.Packages) != 1 {
		t.Fatalf("packages = %d, want 1", len(report.Packages))
	}
	pkg := report.Packages[0]
	if pkg.Name != "com.example" {
		t.Errorf("package name = %q, want %q", pkg.Name, "com.example")
	}

	if len(pkg.Classes) != 1 {
		t.Fatalf("classes = %d, want 1", len(pkg.Classes))
	}
	cls := pkg.Classes[0]
	if cls.Name != "com.example.Calculator" {
		t.Errorf("class name = %q, want %q", cls.Name, "com.example.Calculator")
	}
	if cls.SimpleName() != "Calculator" {
		t.Errorf("simple name = %q, want %q", cls.SimpleName(), "Calculator")
	}

	if len(cls.Methods) != 1 {
		t.Fatalf("methods = %d, want 1", len(cls.Methods))
	}
	m := cls.Methods[0]
	if m.Name != "divide" || m.Desc != "(II)I" {
		t.Errorf("method = %s%s, want divide(II)I", m.Name, m.Desc)
	}
	if len(m.Lines) != 2 {
		t.Fatalf("attributed lines = %d, want 2", len(m.Lines))
	}
	if m.Lines[0].Number != 10 || m.Lines[1].Number != 11 {
		t.Errorf("line numbers = %d,%d, want 10,11", m.Lines[0].Number, m.Lines[1].Number)
	}
	if m.IsFullyCovered() {
		t.Error("method with a missed line reported as fully covered")
	}

	c := m.Counters()
	if c.CoveredLines != 1 || c.MissedLines != 1 {
		t.Errorf("lines covered/missed = %d/%d, want 1/1", c.CoveredLines, c.MissedLines)
	}
	if c.MissedBranches != 1 {
		t.Errorf("missed branches = %d, want 1", c.MissedBranches)
	}

	if got := report.TotalLineCoverage(); got != 50 {
		t.Errorf("TotalLineCoverage() = %v, want 50", got)
	}
}

func TestParse_AggregatesSumChildren(t *testing.T) {
	report, err := Parse([]byte(calculatorReport))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	var fromMethods Counters
	for _, pkg := range report.Packages {
		for i := range pkg.Classes {
			for j := range pkg.Classes[i].Methods {
				fromMethods = fromMethods.Add(pkg.Classes[i].Methods[j].Counters())
			}
		}
	}
	if fromMethods != report.Counters() {
		t.Errorf("report counters %+v != recomputed sum %+v", report.Counters(), fromMethods)
	}
	for _, pkg := range report.Packages {
		var fromClasses Counters
		for i := range pkg.Classes {
			fromClasses = fromClasses.Add(pkg.Classes[i].Counters())
		}
		if fromClasses != pkg.Counters() {
			t.Errorf("package %s counters %+v != class sum %+v", pkg.Name, pkg.Counters(), fromClasses)
		}
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		check   func(t *testing.T, err error)
	}{
		{
			name:  "empty input",
			input: "",
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrEmptyInput) {
					t.Errorf("err = %v, want ErrEmptyInput", err)
				}
			},
		},
		{
			name:  "whitespace only",
			input: "   \n\t",
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrEmptyInput) {
					t.Errorf("err = %v, want ErrEmptyInput", err)
				}
			},
		},
		{
			name:  "truncated markup",
			input: `<report><package name="a"><class`,
			check: func(t *testing.T, err error) {
				var pe *ParseError
				if !errors.As(err, &pe) {
					t.Errorf("err = %v, want *ParseError", err)
				}
			},
		},
		{
			name:  "not xml at all",
			input: "line coverage: 50%",
			check: func(t *testing.T, err error) {
				var pe *ParseError
				if !errors.As(err, &pe) {
					t.Errorf("err = %v, want *ParseError", err)
				}
			},
		},
		{
			name:  "wrong root element",
			input: `<coverage version="1"><packages/></coverage>`,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrFormatMismatch) {
					t.Errorf("err = %v, want ErrFormatMismatch", err)
				}
			},
		},
		{
			name:  "class missing name",
			input: `<report name="r"><package name="p"><class sourcefilename="A.java"/></package></report>`,
			check: func(t *testing.T, err error) {
				var me *MalformedReportError
				if !errors.As(err, &me) {
					t.Fatalf("err = %v, want *MalformedReportError", err)
				}
				if me.Path != "report/package[0]/class[0]" {
					t.Errorf("path = %q", me.Path)
				}
			},
		},
		{
			name: "method missing name",
			input: `<report name="r"><package name="p">` +
				`<class name="p/A" sourcefilename="A.java"><method desc="()V" line="1"/></class>` +
				`</package></report>`,
			check: func(t *testing.T, err error) {
				var me *MalformedReportError
				if !errors.As(err, &me) {
					t.Fatalf("err = %v, want *MalformedReportError", err)
				}
				if !strings.Contains(me.Path, "method[0]") {
					t.Errorf("path = %q, want method[0] segment", me.Path)
				}
			},
		},
		{
			name: "duplicate line number",
			input: `<report name="r"><package name="p">` +
				`<sourcefile name="A.java"><line nr="4" ci="1"/><line nr="4" ci="0"/></sourcefile>` +
				`</package></report>`,
			check: func(t *testing.T, err error) {
				var me *MalformedReportError
				if !errors.As(err, &me) {
					t.Fatalf("err = %v, want *MalformedReportError", err)
				}
			},
		},
		{
			name: "non-positive line number",
			input: `<report name="r"><package name="p">` +
				`<sourcefile name="A.java"><line nr="0" ci="1"/></sourcefile>` +
				`</package></report>`,
			check: func(t *testing.T, err error) {
				var me *MalformedReportError
				if !errors.As(err, &me) {
					t.Fatalf("err = %v, want *MalformedReportError", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := Parse([]byte(tt.input))
			if err == nil {
				t.Fatalf("Parse() = %+v, want error", report)
			}
			tt.check(t, err)
		})
	}
}

func TestParse_TolerantShapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "package with zero classes",
			input: `<report name="r"><package name="p"/></report>`,
		},
		{
			name:  "class with zero methods",
			input: `<report name="r"><package name="p"><class name="p/A" sourcefilename="A.java"/></package></report>`,
		},
		{
			name:  "missing counter elements",
			input: `<report name="r"><package name="p"><class name="p/A" sourcefilename="A.java"><method name="f" desc="()V" line="3"/></class></package></report>`,
		},
		{
			name:  "report with no packages",
			input: `<report name="r"/>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := Parse([]byte(tt.input))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got := report.TotalLineCoverage(); got != 0 {
				t.Errorf("TotalLineCoverage() = %v, want 0 for report without line data", got)
			}
		})
	}
}

func TestParse_MultipleMethodAttribution(t *testing.T) {
	input := `<report name="r"><package name="p">` +
		`<class name="p/A" sourcefilename="A.java">` +
		`<method name="first" desc="()V" line="3"/>` +
		`<method name="second" desc="()V" line="8"/>` +
		`</class>` +
		`<sourcefile name="A.java">` +
		`<line nr="4" ci="1"/><line nr="8" ci="0" mi="2"/><line nr="9" ci="1"/>` +
		`</sourcefile>` +
		`</package></report>`

	report, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	methods := report.Packages[0].Classes[0].Methods
	if len(methods[0].Lines) != 1 || methods[0].Lines[0].Number != 4 {
		t.Errorf("first lines = %+v, want [4]", methods[0].Lines)
	}
	if len(methods[1].Lines) != 2 {
		t.Fatalf("second lines = %+v, want lines 8 and 9", methods[1].Lines)
	}
	if !methods[0].IsFullyCovered() {
		t.Error("first should be fully covered")
	}
	if methods[1].IsFullyCovered() {
		t.Error("second has a missed line, should not be fully covered")
	}
}

func TestLineInfo_Status(t *testing.T) {
	tests := []struct {
		name string
		line LineInfo
		want LineStatus
	}{
		{"no covered instructions", LineInfo{MissedInstructions: 3}, LineNotCovered},
		{"covered with missed instructions", LineInfo{CoveredInstructions: 2, MissedInstructions: 1}, LinePartiallyCovered},
		{"covered with missed branch", LineInfo{CoveredInstructions: 2, MissedBranches: 1}, LinePartiallyCovered},
		{"fully covered", LineInfo{CoveredInstructions: 5, CoveredBranches: 2}, LineCovered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.line.Status(); got != tt.want {
				t.Errorf("Status() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCounters_Coverage(t *testing.T) {
	tests := []struct {
		name       string
		counters   Counters
		wantLine   float64
		wantBranch float64
	}{
		{"empty", Counters{}, 0, 0},
		{"half lines", Counters{CoveredLines: 1, MissedLines: 1}, 50, 0},
		{"all branches", Counters{CoveredLines: 2, CoveredBranches: 4}, 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.counters.LineCoverage(); got != tt.wantLine {
				t.Errorf("LineCoverage() = %v, want %v", got, tt.wantLine)
			}
			if got := tt.counters.BranchCoverage(); got != tt.wantBranch {
				t.Errorf("BranchCoverage() = %v, want %v", got, tt.wantBranch)
			}
		})
	}
}
