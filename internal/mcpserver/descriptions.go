package mcpserver

// Tool descriptions with interpretation guidance for LLMs.
// Each description explains what the tool does, when to use it,
// and how to interpret results.

func describeParseReport() string {
	return `Parses a JaCoCo XML coverage report and returns every coverage gap ranked by severity.

USE WHEN:
- Inspecting which methods lack test coverage after a build
- Deciding where to focus new tests
- Feeding gap details into a test-writing workflow

INTERPRETING RESULTS:
- Severity = missed lines + missed branch outcomes; higher sorts first
- Ties are broken by the qualified method name, so ordering is stable
- each uncovered_lines entry carries the line number with its missed and
  covered instruction/branch counts; covered_instructions of 0 means the
  line never ran, anything else means it ran but a branch outcome did not
- A method with partial branch coverage appears even when all its lines ran

METRICS RETURNED:
- Per-gap: class, method, descriptor, severity, missed lines and branches,
  line and branch coverage percentages, uncovered line numbers
- Summary: overall line/branch coverage, coverage gap, P50/P90 severity`
}

func describeCoverageSummary() string {
	return `Summarizes a JaCoCo XML coverage report: overall coverage percentages and the highest-severity gaps.

USE WHEN:
- Getting a quick health check of a project's test coverage
- Reporting coverage in a pull request or status update
- Checking whether generated tests moved the needle

INTERPRETING RESULTS:
- coverage_gap is 100 minus line coverage (percentage points left to cover)
- top_gaps lists the methods whose tests would close the most of that gap
- P50/P90 severity describe how gap severity is distributed across methods

METRICS RETURNED:
- line_coverage, branch_coverage, coverage_gap, gap_count
- top_gaps: the K most severe gaps with full detail
- p50_severity, p90_severity`
}

func describeGenerateTests() string {
	return `Generates disabled JUnit 5 test scaffolds for the highest-severity coverage gaps, one file per target class.

USE WHEN:
- Bootstrapping tests for uncovered code
- Producing a concrete starting point a developer or agent fills in

INTERPRETING RESULTS:
- Every generated method is annotated @Disabled and fails until implemented
- Scenario kinds: NORMAL (happy path), NULL_OR_EMPTY (reference params),
  BOUNDARY (per uncovered branch line), EXCEPTION (suspected error path)
- Files land under output_dir mirroring the target package layout
- dry_run returns the rendered file contents without writing anything

METRICS RETURNED:
- files: path, target class, and test count per generated file
- tests_generated, gaps_covered, and the report summary`
}

func describeGitStatus() string {
	return `Reports the git working tree state: branch, staged/unstaged/untracked files, conflicts, and commits ahead of the remote.

USE WHEN:
- Checking for uncommitted work before generating or committing tests
- Verifying generated test files are present and unstaged
- Confirming a branch has unpushed commits before opening a pull request`
}

func describeGitStageAll() string {
	return `Stages all modified and untracked files, skipping build artifacts (class files, jars, target/, build/, and other configured patterns).

USE WHEN:
- Staging generated test files along with related changes
- Preparing a commit after a generation run

INTERPRETING RESULTS:
- staged_files lists what was added to the index
- skipped lists files held back by the exclusion patterns`
}

func describeGitCommit() string {
	return `Commits staged changes. When a coverage report is supplied, a coverage statistics block is appended to the commit message.

USE WHEN:
- Recording generated tests with their coverage context
- Committing as part of the analyze-generate-commit workflow

INTERPRETING RESULTS:
- hash is the short commit hash
- message echoes the final message including any coverage block`
}

func describeGitPush() string {
	return `Pushes the current branch to the configured remote. Already up to date is reported as success.

USE WHEN:
- Publishing committed test scaffolds before opening a pull request`
}

func describeOpenPullRequest() string {
	return `Opens a pull request from the current branch into the base branch using the GitHub CLI. When a coverage report is supplied, a coverage improvements section is appended to the body.

USE WHEN:
- Finishing the workflow: analyzed, generated, committed, pushed
- Requesting review of generated test scaffolds

REQUIREMENTS:
- The gh CLI must be installed and authenticated
- The current branch must differ from the base branch

INTERPRETING RESULTS:
- url and number identify the created pull request`
}
