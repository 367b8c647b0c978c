package domain

import (
	"fmt"
	"time"
)

// Summary is the aggregate part of a report.
type Summary struct {
	Total         int    `json:"total"`
	Passed        int    `json:"passed"`
	Failed        int    `json:"failed"`
	SuccessRate   string `json:"success_rate"`
	TotalDuration string `json:"total_duration"`
	Timestamp     string `json:"timestamp"`
}

// Record is the serialized form of a single Result.
type Record struct {
	Name      string         `json:"name"`
	Success   bool           `json:"success"`
	Duration  string         `json:"duration"`
	Timestamp string         `json:"timestamp"`
	Metadata  map[string]any `json:"metadata"`
	Error     *string        `json:"error"`
}

// Report is the persisted document of one run.
type Report struct {
	Summary Summary  `json:"summary"`
	Results []Record `json:"results"`
}

// FormatSeconds renders a duration the way reports display it.
func FormatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// SuccessRate returns passed/total as a percentage string, "0%" for no results.
func SuccessRate(passed, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", float64(passed)/float64(total)*100)
}

// NewRecord converts a Result for serialization.
func NewRecord(r Result) Record {
	rec := Record{
		Name:      r.Name(),
		Success:   r.Success(),
		Duration:  FormatSeconds(r.Duration()),
		Timestamp: r.Timestamp().Format(time.RFC3339Nano),
		Metadata:  r.MetadataCopy(),
	}
	if msg := r.Error(); msg != "" {
		rec.Error = &msg
	}
	return rec
}

// BuildReport aggregates results into a report stamped with now.
func BuildReport(results []Result, now time.Time) Report {
	report := Report{Results: make([]Record, 0, len(results))}

	var total time.Duration
	for _, r := range results {
		if r.Success() {
			report.Summary.Passed++
		} else {
			report.Summary.Failed++
		}
		total += r.Duration()
		report.Results = append(report.Results, NewRecord(r))
	}

	report.Summary.Total = len(results)
	report.Summary.SuccessRate = SuccessRate(report.Summary.Passed, report.Summary.Total)
	report.Summary.TotalDuration = FormatSeconds(total)
	report.Summary.Timestamp = now.Format(time.RFC3339Nano)
	return report
}

// FailedRecords returns the failed records in report order.
func (r Report) FailedRecords() []Record {
	var failed []Record
	for _, rec := range r.Results {
		if !rec.Success {
			failed = append(failed, rec)
		}
	}
	return failed
}
