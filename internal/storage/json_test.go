package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"layertest/internal/domain"
)

func sampleReport(now time.Time) domain.Report {
	results := []domain.Result{
		domain.NewResult("tests/test_a.py", "unit", true, 120*time.Millisecond,
			domain.WithMetadata(map[string]any{domain.MetaExitCode: 0})),
		domain.NewResult("tests/contracts/test_b_contract.py", "contract", false, 2*time.Second,
			domain.WithError("2 failed"),
			domain.WithMetadata(map[string]any{domain.MetaExitCode: 1, domain.MetaTimeout: false})),
	}
	return domain.BuildReport(results, now)
}

func TestJSONStorage_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "test-results")
	s := NewJSONStorage(dir)
	path, err := s.Save(sampleReport(time.Date(2026, 3, 4, 5, 6, 7, 89, time.UTC)))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "report_20260304T050607.000000089Z.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	summary := doc["summary"].(map[string]any)
	assert.EqualValues(t, 2, summary["total"])
	assert.EqualValues(t, 1, summary["passed"])
	assert.EqualValues(t, 1, summary["failed"])
	assert.Equal(t, "50.0%", summary["success_rate"])
	assert.Equal(t, "2.12s", summary["total_duration"])

	results := doc["results"].([]any)
	require.Len(t, results, 2)
	first := results[0].(map[string]any)
	assert.Nil(t, first["error"])
	assert.Equal(t, "0.12s", first["duration"])
	second := results[1].(map[string]any)
	assert.Equal(t, "2 failed", second["error"])
	assert.Equal(t, "contract", second["metadata"].(map[string]any)["layer"])
}

func TestJSONStorage_NameFollowsReportTimestamp(t *testing.T) {
	dir := t.TempDir()
	s := NewJSONStorage(dir)
	s.now = func() time.Time { return time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC) }

	built := time.Date(2026, 3, 4, 5, 6, 7, 500, time.FixedZone("CET", 3600))
	path, err := s.Save(sampleReport(built))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "report_20260304T040607.000000500Z.json"), path)

	loaded, err := Load(path)
	require.NoError(t, err)
	stamp, err := time.Parse(time.RFC3339Nano, loaded.Summary.Timestamp)
	require.NoError(t, err)
	assert.Equal(t, "report_"+stamp.UTC().Format(timeLayout)+".json", filepath.Base(path))
}

func TestJSONStorage_NameFallsBackToClock(t *testing.T) {
	dir := t.TempDir()
	s := NewJSONStorage(dir)
	s.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }

	report := sampleReport(time.Now())
	report.Summary.Timestamp = ""
	path, err := s.Save(report)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "report_20260304T050607.000000000Z.json"), path)
}

func TestJSONStorage_NeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	s := NewJSONStorage(dir)
	fixed := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	first, err := s.Save(sampleReport(fixed))
	require.NoError(t, err)
	second, err := s.Save(sampleReport(fixed))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, filepath.Join(dir, "report_20260304T050607.000000000Z-1.json"), second)

	paths, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{first, second}, paths)
}

func TestJSONStorage_ConsecutiveRunsGetDistinctNames(t *testing.T) {
	s := NewJSONStorage(t.TempDir())
	pattern := regexp.MustCompile(`^report_\d{8}T\d{6}\.\d{9}Z(-\d+)?\.json$`)

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		path, err := s.Save(sampleReport(time.Now()))
		require.NoError(t, err)
		assert.Regexp(t, pattern, filepath.Base(path))
		assert.False(t, seen[path], "report %s written twice", path)
		seen[path] = true
	}
}

func TestJSONStorage_LoadLatest(t *testing.T) {
	s := NewJSONStorage(t.TempDir())

	_, _, err := s.LoadLatest()
	assert.True(t, errors.Is(err, ErrNoReports))

	clock := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	s.now = func() time.Time { return clock }
	_, err = s.Save(domain.BuildReport(nil, clock))
	require.NoError(t, err)

	clock = clock.Add(time.Second)
	want := sampleReport(clock)
	latestPath, err := s.Save(want)
	require.NoError(t, err)

	got, path, err := s.LoadLatest()
	require.NoError(t, err)
	assert.Equal(t, latestPath, path)
	assert.Equal(t, want.Summary, got.Summary)
	assert.Equal(t, got.Summary.Total, len(got.Results))
	assert.Equal(t, got.Summary.Total, got.Summary.Passed+got.Summary.Failed)
	require.Len(t, got.FailedRecords(), 1)
	assert.Equal(t, "tests/contracts/test_b_contract.py", got.FailedRecords()[0].Name)
}

func TestJSONStorage_SaveFailsWhenDirIsAFile(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "test-results")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, err := NewJSONStorage(blocker).Save(sampleReport(time.Now()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create results dir")
}
