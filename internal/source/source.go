// Package source supplies report content to the pipeline and persists
// generated test files, keeping all file I/O outside the pure core.
package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/covgap/covgap/pkg/jacoco"
)

var (
	// ErrReportNotFound is returned when a locator resolves to nothing,
	// distinct from a report that exists but is empty.
	ErrReportNotFound = errors.New("coverage report not found")
)

// ReportSource resolves report locators to raw content.
type ReportSource struct {
	baseDir string
}

// Option configures a ReportSource.
type Option func(*ReportSource)

// WithBaseDir sets the directory glob locators resolve against.
func WithBaseDir(dir string) Option {
	return func(s *ReportSource) {
		s.baseDir = dir
	}
}

// NewReportSource creates a report source rooted at the current directory.
func NewReportSource(opts ...Option) *ReportSource {
	s := &ReportSource{baseDir: "."}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Read resolves a locator (an exact path, or a doublestar glob such as
// "**/jacoco.xml") and returns the report bytes. Glob matches are sorted
// and the first match wins, so resolution is deterministic. A locator that
// matches nothing yields ErrReportNotFound; a matched but zero-length file
// yields jacoco.ErrEmptyInput.
func (s *ReportSource) Read(locator string) ([]byte, error) {
	path, err := s.resolve(locator)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("report %s: %w", path, jacoco.ErrEmptyInput)
	}
	return data, nil
}

func (s *ReportSource) resolve(locator string) (string, error) {
	if info, err := os.Stat(locator); err == nil && !info.IsDir() {
		return locator, nil
	}

	if containsGlobChars(locator) {
		matches, err := doublestar.Glob(os.DirFS(s.baseDir), locator)
		if err != nil {
			return "", fmt.Errorf("%w: bad pattern %q: %v", ErrReportNotFound, locator, err)
		}
		if len(matches) == 0 {
			return "", fmt.Errorf("%w: %q matched nothing under %s", ErrReportNotFound, locator, s.baseDir)
		}
		sort.Strings(matches)
		return filepath.Join(s.baseDir, matches[0]), nil
	}

	return "", fmt.Errorf("%w: %s", ErrReportNotFound, locator)
}

func containsGlobChars(s string) bool {
	for _, c := range s {
		switch c {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}

// TestFileSink persists generated test files.
type TestFileSink struct{}

// NewTestFileSink creates a sink writing to the local filesystem.
func NewTestFileSink() *TestFileSink {
	return &TestFileSink{}
}

// Write persists content at path, creating parent directories as needed.
// Write failures (permission, disk) surface with the path attached.
func (s *TestFileSink) Write(path, content string) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", path, err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing test file %s: %w", path, err)
	}
	return nil
}
