// Package parser extracts test counts from the textual summaries printed by
// child test runners.
package parser

import (
	"fmt"
	"strconv"

	"github.com/acarl005/stripansi"
)

// Dialect identifies the summary format a runner prints.
type Dialect int

const (
	// DialectUnittest matches "Ran N tests in Ts" / "FAILED (failures=X, errors=Y)".
	DialectUnittest Dialect = iota
	// DialectPytest matches "collected N items" / "X passed, Y failed in Ts".
	DialectPytest
)

func (d Dialect) String() string {
	switch d {
	case DialectUnittest:
		return "unittest"
	case DialectPytest:
		return "pytest"
	default:
		return "unknown"
	}
}

// DialectFor returns the dialect of a runner name.
func DialectFor(runner string) (Dialect, error) {
	switch runner {
	case "unittest":
		return DialectUnittest, nil
	case "pytest":
		return DialectPytest, nil
	default:
		return 0, fmt.Errorf("unknown runner %q", runner)
	}
}

// Counts are the numbers extracted from a runner summary.
type Counts struct {
	Ran      int
	Failures int
	Errors   int
}

// Parser extracts counts from combined child output.
type Parser interface {
	Parse(output string) Counts
}

// For returns the parser of a dialect.
func For(d Dialect) Parser {
	if d == DialectPytest {
		return NewPytestParser()
	}
	return NewUnittestParser()
}

// Parse strips terminal escapes and parses output with the dialect's parser.
// Unrecognized output yields zero counts.
func Parse(d Dialect, output string) Counts {
	return For(d).Parse(stripansi.Strip(output))
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
