package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"layertest/internal/domain"
)

const (
	filePrefix = "report_"
	fileExt    = ".json"
	// timeLayout gives nanosecond resolution, so two runs in one process
	// get distinct names.
	timeLayout = "20060102T150405.000000000Z"

	maxSuffix = 1000
)

// ErrNoReports is returned by LoadLatest when nothing was saved yet.
var ErrNoReports = errors.New("no reports found")

// Save writes report to a new file named after the report's own timestamp
// and returns its path.
func (s *JSONStorage) Save(report domain.Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("create results dir: %w", err)
	}

	f, path, err := s.create(s.stamp(report))
	if err != nil {
		return "", err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close report: %w", err)
	}
	return path, nil
}

// stamp returns the time the report was built at, or the storage clock when
// the report carries no parseable timestamp.
func (s *JSONStorage) stamp(report domain.Report) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, report.Summary.Timestamp); err == nil {
		return t
	}
	return s.now()
}

// create opens a fresh report file named after t, adding a -N suffix if the
// name is taken.
func (s *JSONStorage) create(t time.Time) (*os.File, string, error) {
	base := filePrefix + t.UTC().Format(timeLayout)
	for i := 0; i < maxSuffix; i++ {
		name := base
		if i > 0 {
			name = fmt.Sprintf("%s-%d", base, i)
		}
		path := filepath.Join(s.dir, name+fileExt)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("create report: %w", err)
		}
	}
	return nil, "", fmt.Errorf("create report: too many reports named %s", base)
}

// LoadLatest reads the newest report in the results directory.
func (s *JSONStorage) LoadLatest() (*domain.Report, string, error) {
	paths, err := s.List()
	if err != nil {
		return nil, "", err
	}
	if len(paths) == 0 {
		return nil, "", ErrNoReports
	}
	path := paths[len(paths)-1]

	report, err := Load(path)
	if err != nil {
		return nil, "", err
	}
	return report, path, nil
}

// List returns the report files oldest first.
func (s *JSONStorage) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read results dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(name, fileExt))
	}
	sort.Strings(names)

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(s.dir, name+fileExt)
	}
	return paths, nil
}

// Load reads a single report file.
func Load(path string) (*domain.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var report domain.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parse report %s: %w", filepath.Base(path), err)
	}
	return &report, nil
}
