package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildReport_RoundTrip(t *testing.T) {
	results := []Result{
		NewResult("tests/test_a.py", "unit", true, 1500*time.Millisecond),
		NewResult("tests/test_b.py", "unit", false, 250*time.Millisecond, WithError("boom")),
		NewResult("tests/contracts/test_c_contract.py", "contract", true, 0),
	}

	report := BuildReport(results, time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC))

	data, err := json.Marshal(report)
	require.NoError(t, err)

	var decoded Report
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, len(decoded.Results), decoded.Summary.Total)
	assert.Equal(t, decoded.Summary.Total, decoded.Summary.Passed+decoded.Summary.Failed)
	assert.Equal(t, 2, decoded.Summary.Passed)
	assert.Equal(t, "66.7%", decoded.Summary.SuccessRate)
	assert.Equal(t, "1.75s", decoded.Summary.TotalDuration)
	assert.Equal(t, "2026-10-18T12:00:00Z", decoded.Summary.Timestamp)

	require.NotNil(t, decoded.Results[1].Error)
	assert.Equal(t, "boom", *decoded.Results[1].Error)
	assert.Nil(t, decoded.Results[0].Error)
	assert.Equal(t, "contract", decoded.Results[2].Metadata[MetaLayer])
}

func TestBuildReport_Empty(t *testing.T) {
	report := BuildReport(nil, time.Now())

	assert.Equal(t, 0, report.Summary.Total)
	assert.Equal(t, "0%", report.Summary.SuccessRate)
	assert.Equal(t, "0.00s", report.Summary.TotalDuration)
	assert.NotNil(t, report.Results)

	data, err := json.Marshal(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"results":[]`)
}

func TestReport_FailedRecords(t *testing.T) {
	report := BuildReport([]Result{
		NewResult("a", "unit", true, 0),
		NewResult("b", "unit", false, 0),
		NewResult("c", "unit", false, 0),
	}, time.Now())

	failed := report.FailedRecords()
	require.Len(t, failed, 2)
	assert.Equal(t, "b", failed[0].Name)
	assert.Equal(t, "c", failed[1].Name)
}
