package gap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/covgap/covgap/pkg/jacoco"
)

// TestExtractFromFixture runs the full parse-and-extract path over a
// realistic multi-package report.
func TestExtractFromFixture(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "tests", "fixtures", "jacoco-multimodule.xml"))
	if err != nil {
		t.Fatal(err)
	}

	report, err := jacoco.Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(report.Packages) != 2 {
		t.Fatalf("packages = %d, want 2", len(report.Packages))
	}

	gaps := Extract(report)
	if len(gaps) != 3 {
		t.Fatalf("gaps = %d, want 3", len(gaps))
	}

	// cancelOrder misses 5 lines and 2 branches; placeOrder 3 and 2;
	// Money.parse 1 and 1.
	wantOrder := []struct {
		method   string
		severity float64
	}{
		{"cancelOrder", 7},
		{"placeOrder", 5},
		{"parse", 2},
	}
	for i, want := range wantOrder {
		if gaps[i].Method != want.method {
			t.Errorf("gaps[%d].Method = %q, want %q", i, gaps[i].Method, want.method)
		}
		if gaps[i].Severity != want.severity {
			t.Errorf("gaps[%d].Severity = %v, want %v", i, gaps[i].Severity, want.severity)
		}
	}

	// Fully covered methods never surface as gaps.
	for _, g := range gaps {
		if g.Method == "total" || g.Method == "<init>" {
			t.Errorf("fully covered method %q reported as gap", g.Method)
		}
	}

	s := Summarize(report, gaps, 2)
	if len(s.TopGaps) != 2 {
		t.Errorf("top gaps = %d, want 2", len(s.TopGaps))
	}
	if s.GapCount != 3 {
		t.Errorf("gap count = %d, want 3", s.GapCount)
	}
	want := float64(13) / 22 * 100
	if diff := s.LineCoverage - want; diff > 0.01 || diff < -0.01 {
		t.Errorf("line coverage = %v, want %v", s.LineCoverage, want)
	}
}
