// Package service orchestrates the coverage analysis pipeline: reading
// JaCoCo reports, extracting ranked gaps, planning scenarios, and
// writing test scaffolds.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/covgap/covgap/internal/cache"
	"github.com/covgap/covgap/internal/source"
	"github.com/covgap/covgap/pkg/config"
	"github.com/covgap/covgap/pkg/gap"
	"github.com/covgap/covgap/pkg/jacoco"
	"github.com/covgap/covgap/pkg/scenario"
	"github.com/covgap/covgap/pkg/synth"
	"github.com/sourcegraph/conc/pool"
)

const maxParseWorkers = 8

// Service orchestrates coverage gap analysis and test generation.
type Service struct {
	config *config.Config
	source *source.ReportSource
	sink   *source.TestFileSink
	cache  *cache.Cache
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithSource sets the report source (for testing).
func WithSource(src *source.ReportSource) Option {
	return func(s *Service) {
		s.source = src
	}
}

// WithCache sets the result cache.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// New creates an analysis service. Without options it loads the config
// from the working directory and opens the configured cache; a cache that
// cannot be opened degrades to disabled rather than failing.
func New(opts ...Option) *Service {
	s := &Service{
		config: config.LoadOrDefault(),
		source: source.NewReportSource(),
		sink:   source.NewTestFileSink(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		c, err := cache.New(s.config.Cache.Dir, s.config.Cache.TTL, s.config.Cache.Enabled)
		if err != nil {
			c, _ = cache.New("", 0, false)
		}
		s.cache = c
	}
	return s
}

// Analysis is the result of analyzing one coverage report.
type Analysis struct {
	Locator string      `json:"locator"`
	Gaps    []gap.Gap   `json:"gaps"`
	Summary gap.Summary `json:"summary"`
}

// Analyze reads, parses, and ranks a single coverage report. Parsed
// results are cached keyed by the report content hash, so re-analyzing an
// unchanged report skips the parse.
func (s *Service) Analyze(ctx context.Context, locator string) (*Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := s.source.Read(locator)
	if err != nil {
		return nil, err
	}

	hash := cache.HashBytes(data)
	if cached, ok := s.cache.Get(hash, hash); ok {
		var a Analysis
		if err := json.Unmarshal(cached, &a); err == nil {
			a.Locator = locator
			return &a, nil
		}
		// Corrupt entry: drop it and reparse.
		_ = s.cache.Invalidate(hash)
	}

	report, err := jacoco.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", locator, err)
	}

	gaps := gap.Extract(report)
	a := &Analysis{
		Locator: locator,
		Gaps:    gaps,
		Summary: gap.Summarize(report, gaps, s.config.Analysis.TopK),
	}

	if encoded, err := json.Marshal(a); err == nil {
		_ = s.cache.Set(hash, hash, encoded)
	}
	return a, nil
}

// ProgressFunc is called after each report finishes analyzing.
type ProgressFunc func()

// AnalyzeAll analyzes several reports concurrently. Results come back in
// locator order; the first failure aborts the batch.
func (s *Service) AnalyzeAll(ctx context.Context, locators []string) ([]*Analysis, error) {
	return s.AnalyzeAllWithProgress(ctx, locators, nil)
}

// AnalyzeAllWithProgress is AnalyzeAll with a per-report progress
// callback. A nil callback is allowed.
func (s *Service) AnalyzeAllWithProgress(ctx context.Context, locators []string, onProgress ProgressFunc) ([]*Analysis, error) {
	results := make([]*Analysis, len(locators))

	var mu sync.Mutex
	var firstErr error

	p := pool.New().WithMaxGoroutines(maxParseWorkers)
	for i, locator := range locators {
		p.Go(func() {
			a, err := s.Analyze(ctx, locator)
			mu.Lock()
			defer mu.Unlock()
			if onProgress != nil {
				onProgress()
			}
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			results[i] = a
		})
	}
	p.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// GenerateOptions configures test scaffold generation.
type GenerateOptions struct {
	OutputDir string // root for generated files, default "generated-tests"
	MaxGaps   int    // gaps considered, 0 uses config
	DryRun    bool   // plan and render without writing files
}

// GeneratedFile describes one written test scaffold file.
type GeneratedFile struct {
	Path    string `json:"path"`
	Class   string `json:"class"` // fully qualified target class
	Tests   int    `json:"tests"`
	Content string `json:"content,omitempty"` // populated on dry runs
}

// GenerateResult is the outcome of a Generate call.
type GenerateResult struct {
	Locator        string          `json:"locator"`
	Files          []GeneratedFile `json:"files"`
	TestsGenerated int             `json:"tests_generated"`
	GapsCovered    int             `json:"gaps_covered"`
	Summary        gap.Summary     `json:"summary"`
}

// Generate analyzes a report and writes JUnit scaffold files for the
// highest-severity gaps, one file per target class.
func (s *Service) Generate(ctx context.Context, locator string, opts GenerateOptions) (*GenerateResult, error) {
	a, err := s.Analyze(ctx, locator)
	if err != nil {
		return nil, err
	}

	maxGaps := opts.MaxGaps
	if maxGaps <= 0 {
		maxGaps = s.config.Analysis.MaxGaps
	}
	gaps := a.Gaps
	if len(gaps) > maxGaps {
		gaps = gaps[:maxGaps]
	}

	outDir := opts.OutputDir
	if outDir == "" {
		outDir = "generated-tests"
	}

	planner := scenario.New(scenario.WithBoundaryCap(s.config.Analysis.ScenarioCap))

	// Group scenarios by target class so each class gets one test file.
	// Class order follows first appearance in the ranked gap list.
	classScenarios := make(map[string][]scenario.Scenario)
	classOrder := []string{}
	for _, g := range gaps {
		key := qualifiedClass(g)
		if _, seen := classScenarios[key]; !seen {
			classOrder = append(classOrder, key)
		}
		classScenarios[key] = append(classScenarios[key], planner.Plan(g)...)
	}

	result := &GenerateResult{
		Locator:     locator,
		Files:       []GeneratedFile{},
		GapsCovered: len(gaps),
		Summary:     a.Summary,
	}

	for _, class := range classOrder {
		scenarios := classScenarios[class]
		skeletons := synth.MethodSkeletons(scenarios)
		pkg := scenarios[0].Package
		content := synth.File(class, pkg, skeletons)
		path := scaffoldPath(outDir, pkg, class)

		if !opts.DryRun {
			if err := s.sink.Write(path, content); err != nil {
				return nil, err
			}
		}

		file := GeneratedFile{
			Path:  path,
			Class: class,
			Tests: len(skeletons),
		}
		if opts.DryRun {
			file.Content = content
		}
		result.Files = append(result.Files, file)
		result.TestsGenerated += len(skeletons)
	}
	return result, nil
}

// qualifiedClass returns the fully qualified class name of a gap.
func qualifiedClass(g gap.Gap) string {
	if g.Package == "" {
		return g.Class
	}
	if strings.HasPrefix(g.Class, g.Package+".") {
		return g.Class
	}
	return g.Package + "." + g.Class
}

// scaffoldPath places the test file under the package's test directory,
// mirroring Maven's src/test/java layout rooted at outDir.
func scaffoldPath(outDir, pkg, class string) string {
	elems := []string{outDir}
	if pkg != "" {
		elems = append(elems, strings.Split(pkg, ".")...)
		elems = append(elems, "test")
	}
	elems = append(elems, synth.TestClassName(class)+".java")
	return filepath.Join(elems...)
}

// MergedGaps flattens the gaps of several analyses into one ranked list,
// preserving the severity ordering across reports.
func MergedGaps(analyses []*Analysis) []gap.Gap {
	var all []gap.Gap
	for _, a := range analyses {
		all = append(all, a.Gaps...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Severity != all[j].Severity {
			return all[i].Severity > all[j].Severity
		}
		return all[i].QualifiedName() < all[j].QualifiedName()
	})
	return all
}
