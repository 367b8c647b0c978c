package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"layertest/internal/discovery"
	"layertest/internal/domain"
)

// maxErrorLines bounds the error text printed per failed test.
const maxErrorLines = 15

// Formatter formats and displays output
type Formatter struct {
	out    io.Writer
	finder *discovery.CaseFinder
}

// NewFormatter creates a new Formatter writing to out.
func NewFormatter(out io.Writer, finder *discovery.CaseFinder) *Formatter {
	return &Formatter{
		out:    out,
		finder: finder,
	}
}

// LayerTests is the discovery result of one layer, used for listing.
type LayerTests struct {
	Layer string
	Tests []string
}

type layerStats struct {
	tests, passed, failed int
	seconds               float64
}

// PrintSummary renders counts per layer, the totals, and every failed test
// with its error text.
func (f *Formatter) PrintSummary(report domain.Report, path string) {
	stats := make(map[string]*layerStats)
	var order []string
	for _, rec := range report.Results {
		layer := recordLayer(rec)
		s, ok := stats[layer]
		if !ok {
			s = &layerStats{}
			stats[layer] = s
			order = append(order, layer)
		}
		s.tests++
		if rec.Success {
			s.passed++
		} else {
			s.failed++
		}
		s.seconds += parseSeconds(rec.Duration)
	}

	t := table.NewWriter()
	t.SetOutputMirror(f.out)
	t.SetTitle(fmt.Sprintf("Test Results (%s)", report.Summary.TotalDuration))
	t.AppendHeader(table.Row{"Layer", "Tests", "Passed", "Failed", "Duration"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Tests", Align: text.AlignRight},
		{Name: "Passed", Align: text.AlignRight},
		{Name: "Failed", Align: text.AlignRight},
		{Name: "Duration", Align: text.AlignRight},
	})
	for _, layer := range order {
		s := stats[layer]
		t.AppendRow(table.Row{layer, s.tests, s.passed, s.failed, fmt.Sprintf("%.2fs", s.seconds)})
	}
	t.AppendFooter(table.Row{
		"TOTAL",
		report.Summary.Total,
		report.Summary.Passed,
		report.Summary.Failed,
		report.Summary.TotalDuration,
	})
	t.SetStyle(table.StyleRounded)
	t.Render()

	fmt.Fprintf(f.out, "Success rate: %s\n", report.Summary.SuccessRate)
	if path != "" {
		fmt.Fprintf(f.out, "Report: %s\n", path)
	}
	fmt.Fprintln(f.out)

	failed := report.FailedRecords()
	if len(failed) == 0 {
		if report.Summary.Total == 0 {
			fmt.Fprintln(f.out, color.YellowString("No tests were run"))
			return
		}
		fmt.Fprintln(f.out, color.GreenString("✓ All tests passed!"))
		return
	}

	fmt.Fprintln(f.out, color.RedString("✗ %d test(s) failed:", len(failed)))
	for _, rec := range failed {
		fmt.Fprintln(f.out)
		fmt.Fprintf(f.out, "%s %s\n", color.RedString("✗"), color.YellowString(rec.Name))
		if rec.Error != nil {
			for _, line := range truncateLines(*rec.Error, maxErrorLines) {
				fmt.Fprintf(f.out, "    %s\n", line)
			}
		}
	}
}

// PrintTestList prints the discovered tests of every layer as a tree,
// optionally with the test cases found in each file. failed marks tests
// that failed in the last report.
func (f *Formatter) PrintTestList(projectRoot string, groups []LayerTests, showTestCases bool, failed map[string]bool) {
	total := 0
	for _, g := range groups {
		total += len(g.Tests)
	}
	fmt.Fprintln(f.out, color.GreenString("Found %d test file(s):", total))

	for _, g := range groups {
		fmt.Fprintln(f.out)
		fmt.Fprintln(f.out, color.CyanString("%s (%d)", g.Layer, len(g.Tests)))
		if len(g.Tests) == 0 {
			fmt.Fprintf(f.out, "└── %s\n", color.YellowString("(no tests)"))
			continue
		}

		for i, test := range g.Tests {
			isLastFile := i == len(g.Tests)-1

			marker := ""
			if failed[test] {
				marker = " " + color.RedString("[F]")
			}
			if isLastFile {
				fmt.Fprintf(f.out, "└── %s%s\n", test, marker)
			} else {
				fmt.Fprintf(f.out, "├── %s%s\n", test, marker)
			}

			if showTestCases {
				f.printTestCases(filepath.Join(projectRoot, filepath.FromSlash(test)), isLastFile)
			}
		}
	}
}

func (f *Formatter) printTestCases(path string, isLastFile bool) {
	indent := "│   "
	if isLastFile {
		indent = "    "
	}

	cases, err := f.finder.FindTestCases(path)
	if err != nil {
		fmt.Fprintf(f.out, "%s└── %s\n", indent, color.RedString("error reading test file: %v", err))
		return
	}
	if len(cases) == 0 {
		fmt.Fprintf(f.out, "%s└── %s\n", indent, color.RedString("(no test cases found)"))
		return
	}
	for j, tc := range cases {
		connector := "├── "
		if j == len(cases)-1 {
			connector = "└── "
		}
		fmt.Fprintf(f.out, "%s%s%s\n", indent, connector, color.YellowString(tc.Name))
	}
}

func recordLayer(rec domain.Record) string {
	if layer, ok := rec.Metadata[domain.MetaLayer].(string); ok && layer != "" {
		return layer
	}
	return "unknown"
}

func parseSeconds(s string) float64 {
	var v float64
	fmt.Sscanf(strings.TrimSuffix(s, "s"), "%g", &v)
	return v
}

func truncateLines(s string, max int) []string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) <= max {
		return lines
	}
	out := append([]string(nil), lines[:max]...)
	return append(out, fmt.Sprintf("... and %d more lines", len(lines)-max))
}

// sortedKeys returns the keys of m in order.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
