// Package scenario derives test scenarios for coverage gaps.
//
// Planning is a deterministic rule set, not a search: the same gap and
// configuration always produce the same scenario list in the same order
// (NORMAL, then NULL_OR_EMPTY, then BOUNDARY per branch line, then
// EXCEPTION).
package scenario

import (
	"fmt"

	"github.com/covgap/covgap/pkg/gap"
	"github.com/covgap/covgap/pkg/jacoco"
)

// Kind tags a scenario with its intended test shape.
type Kind string

const (
	KindNormal      Kind = "NORMAL"
	KindNullOrEmpty Kind = "NULL_OR_EMPTY"
	KindBoundary    Kind = "BOUNDARY"
	KindException   Kind = "EXCEPTION"
	KindCustom      Kind = "CUSTOM"
)

// DefaultBoundaryCap bounds BOUNDARY scenarios per gap so highly branchy
// methods do not explode the plan. Excess branch lines are truncated
// silently, never an error.
const DefaultBoundaryCap = 3

// Scenario is one intended test case shape derived for a gap.
type Scenario struct {
	Kind        Kind   `json:"kind"`
	Package     string `json:"package"`
	Class       string `json:"class"`
	Method      string `json:"method"`
	Desc        string `json:"desc"`
	Line        int    `json:"line,omitempty"` // branch line for BOUNDARY
	Description string `json:"description"`
}

// Planner derives scenarios under an explicit configuration. The zero
// value is not usable; construct with New so defaults apply.
type Planner struct {
	boundaryCap int
}

// Option configures a Planner.
type Option func(*Planner)

// WithBoundaryCap sets the maximum BOUNDARY scenarios per gap.
func WithBoundaryCap(n int) Option {
	return func(p *Planner) {
		if n > 0 {
			p.boundaryCap = n
		}
	}
}

// New creates a planner with defaults applied.
func New(opts ...Option) *Planner {
	p := &Planner{boundaryCap: DefaultBoundaryCap}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan derives 1..N scenarios for a single gap. Never returns an empty
// slice: every gap gets at least the NORMAL scenario.
func (p *Planner) Plan(g gap.Gap) []Scenario {
	base := Scenario{
		Package: g.Package,
		Class:   g.Class,
		Method:  g.Method,
		Desc:    g.Desc,
	}

	scenarios := []Scenario{normal(base)}

	params, _, ok := ParseDescriptor(g.Desc)
	if ok && hasReferenceParam(params) {
		s := base
		s.Kind = KindNullOrEmpty
		s.Description = fmt.Sprintf("%s with null or empty reference arguments", g.Method)
		scenarios = append(scenarios, s)
	}

	branchLines := 0
	for _, ln := range g.UncoveredLines {
		if !ln.HasBranch() {
			continue
		}
		if branchLines >= p.boundaryCap {
			break
		}
		s := base
		s.Kind = KindBoundary
		s.Line = ln.Number
		s.Description = fmt.Sprintf("%s boundary condition at line %d", g.Method, ln.Number)
		scenarios = append(scenarios, s)
		branchLines++
	}

	if hasErrorRegion(g.UncoveredLines) {
		s := base
		s.Kind = KindException
		s.Description = fmt.Sprintf("%s error path", g.Method)
		scenarios = append(scenarios, s)
	}

	return scenarios
}

func normal(base Scenario) Scenario {
	base.Kind = KindNormal
	base.Description = fmt.Sprintf("%s normal path", base.Method)
	return base
}

func hasReferenceParam(params []JavaType) bool {
	for _, p := range params {
		if p.Reference {
			return true
		}
	}
	return false
}

// hasErrorRegion detects an unexecuted error-handling region: a fully
// missed line immediately following a partially covered one, the shape an
// untaken branch into a throw/handler block leaves in line data. JaCoCo
// descriptors carry no throws clause, so this is the only exception signal
// available to the planner.
func hasErrorRegion(uncovered []jacoco.LineInfo) bool {
	for i := 1; i < len(uncovered); i++ {
		prev, cur := uncovered[i-1], uncovered[i]
		if cur.Number == prev.Number+1 &&
			prev.Status() == jacoco.LinePartiallyCovered &&
			cur.Status() == jacoco.LineNotCovered {
			return true
		}
	}
	return false
}
