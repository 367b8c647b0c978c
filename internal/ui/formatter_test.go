package ui

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"layertest/internal/discovery"
	"layertest/internal/domain"
)

func init() {
	color.NoColor = true
}

func testReport() domain.Report {
	return domain.BuildReport([]domain.Result{
		domain.NewResult("tests/test_a.py", "unit", true, time.Second),
		domain.NewResult("tests/test_b.py", "unit", true, 500*time.Millisecond),
		domain.NewResult("tests/contracts/test_c_contract.py", "contract", false, 2*time.Second,
			domain.WithError("AssertionError: schema mismatch\n2 failed in 0.10s"),
			domain.WithMetadata(map[string]any{domain.MetaExitCode: 1})),
	}, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
}

func TestFormatter_PrintSummary(t *testing.T) {
	var buf bytes.Buffer
	NewFormatter(&buf, nil).PrintSummary(testReport(), "test-results/report_x.json")
	out := buf.String()

	assert.Contains(t, out, "unit")
	assert.Contains(t, out, "contract")
	assert.Contains(t, out, "TOTAL")
	assert.Contains(t, out, "3.50s")
	assert.Contains(t, out, "Success rate: 66.7%")
	assert.Contains(t, out, "Report: test-results/report_x.json")
	assert.Contains(t, out, "1 test(s) failed")
	assert.Contains(t, out, "tests/contracts/test_c_contract.py")
	assert.Contains(t, out, "AssertionError: schema mismatch")
}

func TestFormatter_PrintSummary_Boundaries(t *testing.T) {
	var buf bytes.Buffer
	NewFormatter(&buf, nil).PrintSummary(domain.BuildReport(nil, time.Now()), "")
	assert.Contains(t, buf.String(), "Success rate: 0%")
	assert.Contains(t, buf.String(), "No tests were run")
	assert.NotContains(t, buf.String(), "Report:")

	buf.Reset()
	passing := domain.BuildReport([]domain.Result{domain.NewResult("a", "unit", true, 0)}, time.Now())
	NewFormatter(&buf, nil).PrintSummary(passing, "")
	assert.Contains(t, buf.String(), "All tests passed")
}

func TestFormatter_PrintTestList(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "tests"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tests", "test_a.py"),
		[]byte("def test_one():\n    pass\n\ndef test_two():\n    pass\n"), 0644))

	groups := []LayerTests{
		{Layer: "unit", Tests: []string{"tests/test_a.py"}},
		{Layer: "contract"},
	}

	var buf bytes.Buffer
	NewFormatter(&buf, discovery.NewCaseFinder()).PrintTestList(dir, groups, true, map[string]bool{"tests/test_a.py": true})
	out := buf.String()

	assert.Contains(t, out, "Found 1 test file(s)")
	assert.Contains(t, out, "unit (1)")
	assert.Contains(t, out, "└── tests/test_a.py [F]")
	assert.Contains(t, out, "├── test_one")
	assert.Contains(t, out, "└── test_two")
	assert.Contains(t, out, "contract (0)")
	assert.Contains(t, out, "(no tests)")
}

func TestTruncateLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, truncateLines("a\nb\n", 5))

	long := strings.Repeat("x\n", 20)
	lines := truncateLines(long, 3)
	require.Len(t, lines, 4)
	assert.Equal(t, "... and 17 more lines", lines[3])
}

func TestFormatRecordDetails(t *testing.T) {
	failed := testReport().FailedRecords()
	require.Len(t, failed, 1)

	details := formatRecordDetails(failed[0])
	assert.Contains(t, details, "tests/contracts/test_c_contract.py")
	assert.Contains(t, details, "exit_code:")
	assert.Contains(t, details, "layer:")
	assert.Contains(t, details, "schema mismatch")

	stats := formatRecordStats(failed[0])
	assert.Contains(t, stats, "contract")
	assert.Contains(t, stats, "2.00s")
}

func TestErrorViewer_NoFailures(t *testing.T) {
	var buf bytes.Buffer
	report := domain.BuildReport([]domain.Result{domain.NewResult("a", "unit", true, 0)}, time.Now())
	require.NoError(t, NewErrorViewer(&buf).View(&report))
	assert.Contains(t, buf.String(), "No test failures found")
}
