package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// helperFiles are python files that live next to tests but are never tests.
var helperFiles = map[string]bool{
	"__init__.py": true,
	"conftest.py": true,
}

// Spec describes what a layer wants discovered.
type Spec struct {
	Root            string   // Directory relative to the project root
	Patterns        []string // Glob patterns matched against file names
	ExcludeSegments []string // Path segments claimed by other layers
}

// Scanner scans for test files below a project root
type Scanner struct {
	skipDirs map[string]bool
}

// NewScanner creates a new Scanner with the given directories to skip
func NewScanner(skipDirs []string) *Scanner {
	skipMap := make(map[string]bool)
	for _, dir := range skipDirs {
		skipMap[dir] = true
	}
	return &Scanner{skipDirs: skipMap}
}

// Scan returns the files under projectRoot/spec.Root matching spec, relative
// to projectRoot with forward slashes, sorted and without duplicates.
// A missing root yields no tests.
func (s *Scanner) Scan(projectRoot string, spec Spec) ([]string, error) {
	if len(spec.Patterns) == 0 {
		return nil, fmt.Errorf("no discovery patterns configured for %s", spec.Root)
	}
	for _, pattern := range spec.Patterns {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
	}

	projectRoot = filepath.Clean(projectRoot)
	root := filepath.Join(projectRoot, filepath.FromSlash(spec.Root))
	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("test path is not accessible: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("test path is not a directory: %s", root)
	}

	excluded := make(map[string]bool, len(spec.ExcludeSegments))
	for _, seg := range spec.ExcludeSegments {
		excluded[seg] = true
	}

	seen := make(map[string]bool)
	testfiles := []string{}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			name := d.Name()
			// Skip hidden directories (starting with .)
			if strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if s.skipDirs[name] || excluded[name] {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || isHelper(d.Name()) || !matchesAny(d.Name(), spec.Patterns) {
			return nil
		}

		rel, err := filepath.Rel(projectRoot, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !seen[rel] {
			seen[rel] = true
			testfiles = append(testfiles, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	slices.Sort(testfiles)
	return testfiles, nil
}

func isHelper(name string) bool {
	return helperFiles[name] || strings.HasPrefix(name, "_")
}

func matchesAny(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}
