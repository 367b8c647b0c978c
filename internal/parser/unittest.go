package parser

import (
	"regexp"
	"strings"
)

var (
	unittestFailures = regexp.MustCompile(`failures=(\d+)`)
	unittestErrors   = regexp.MustCompile(`errors=(\d+)`)
)

// UnittestParser parses "Ran N tests" style output
type UnittestParser struct{}

// NewUnittestParser creates a new UnittestParser
func NewUnittestParser() *UnittestParser {
	return &UnittestParser{}
}

// Parse reads the ran count from the "Ran " line and failures/errors from
// any line containing FAILED. The last occurrence wins.
func (p *UnittestParser) Parse(output string) Counts {
	var counts Counts
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)

		if strings.HasPrefix(line, "Ran ") {
			if fields := strings.Fields(line); len(fields) >= 2 {
				counts.Ran = atoi(fields[1])
			}
			continue
		}

		if strings.Contains(line, "FAILED") {
			if m := unittestFailures.FindStringSubmatch(line); len(m) == 2 {
				counts.Failures = atoi(m[1])
			}
			if m := unittestErrors.FindStringSubmatch(line); len(m) == 2 {
				counts.Errors = atoi(m[1])
			}
		}
	}
	return counts
}
