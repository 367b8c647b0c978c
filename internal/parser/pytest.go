package parser

import (
	"regexp"
	"strings"
)

var (
	pytestCollected       = regexp.MustCompile(`collected\s+(\d+)\s+items?`)
	pytestCollectedBefore = regexp.MustCompile(`(\d+)\s+collected`)
	pytestPassed          = regexp.MustCompile(`(\d+)\s+passed`)
	pytestFailed          = regexp.MustCompile(`(\d+)\s+failed`)
	pytestErrors          = regexp.MustCompile(`(\d+)\s+errors?\b`)
	pytestCounts          = regexp.MustCompile(`\d+\s+(passed|failed|errors?)\b`)
	pytestDuration        = regexp.MustCompile(`\bin\s+\d+(\.\d+)?s\b`)
)

// isSummaryLine reports whether line is a final pytest summary: a count term
// inside a "===" banner or followed by the session duration.
func isSummaryLine(line string) bool {
	if !pytestCounts.MatchString(line) {
		return false
	}
	return strings.HasPrefix(strings.TrimSpace(line), "=") || pytestDuration.MatchString(line)
}

// PytestParser parses "collected N items" / "X passed, Y failed" output
type PytestParser struct{}

// NewPytestParser creates a new PytestParser
func NewPytestParser() *PytestParser {
	return &PytestParser{}
}

// Parse prefers the collected count for Ran and falls back to the passed
// count. Failures and errors come from the last summary line only.
func (p *PytestParser) Parse(output string) Counts {
	var counts Counts
	collected := -1
	passed := 0

	for _, line := range strings.Split(output, "\n") {
		if m := pytestCollected.FindStringSubmatch(line); len(m) == 2 {
			collected = atoi(m[1])
			continue
		}
		if m := pytestCollectedBefore.FindStringSubmatch(line); len(m) == 2 {
			collected = atoi(m[1])
		}

		if !isSummaryLine(line) {
			continue
		}
		passed, counts.Failures, counts.Errors = 0, 0, 0
		if m := pytestPassed.FindStringSubmatch(line); len(m) == 2 {
			passed = atoi(m[1])
		}
		if m := pytestFailed.FindStringSubmatch(line); len(m) == 2 {
			counts.Failures = atoi(m[1])
		}
		if m := pytestErrors.FindStringSubmatch(line); len(m) == 2 {
			counts.Errors = atoi(m[1])
		}
	}

	if collected >= 0 {
		counts.Ran = collected
	} else {
		counts.Ran = passed
	}
	return counts
}
