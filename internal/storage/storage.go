// Package storage persists run reports.
package storage

import (
	"time"

	"layertest/internal/domain"
)

// Storage persists and loads run reports (e.g. for the failures viewer).
type Storage interface {
	// Save writes a new report document and returns its path. Existing
	// reports are never overwritten.
	Save(report domain.Report) (string, error)
	// LoadLatest reads the most recent report.
	LoadLatest() (*domain.Report, string, error)
}

// JSONStorage stores one JSON document per run under a results directory.
type JSONStorage struct {
	dir string
	now func() time.Time
}

// NewJSONStorage returns a Storage writing under dir, which is created on
// first save.
func NewJSONStorage(dir string) *JSONStorage {
	return &JSONStorage{dir: dir, now: time.Now}
}
