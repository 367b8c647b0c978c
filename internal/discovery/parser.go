package discovery

import (
	"fmt"
	"os"
	"regexp"
	"sort"

	"layertest/internal/domain"
)

var (
	testFuncPattern  = regexp.MustCompile(`(?m)^\s*(?:async\s+)?def\s+(test\w*)\s*\(`)
	testClassPattern = regexp.MustCompile(`(?m)^class\s+(Test\w*|\w+Test(?:Case)?)\s*[(:]`)
)

// CaseFinder parses python test files to extract test cases
type CaseFinder struct{}

// NewCaseFinder creates a new CaseFinder
func NewCaseFinder() *CaseFinder {
	return &CaseFinder{}
}

// FindTestCases returns the sorted test classes and test functions of a file.
func (p *CaseFinder) FindTestCases(filePath string) ([]domain.TestCase, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading file %s: %w", filePath, err)
	}

	names := make(map[string]bool)
	for _, pattern := range []*regexp.Regexp{testClassPattern, testFuncPattern} {
		for _, match := range pattern.FindAllStringSubmatch(string(content), -1) {
			if len(match) > 1 {
				names[match[1]] = true
			}
		}
	}

	cases := make([]domain.TestCase, 0, len(names))
	for name := range names {
		cases = append(cases, domain.TestCase{Name: name, FilePath: filePath})
	}
	// Sort for consistent output
	sort.Slice(cases, func(i, j int) bool { return cases[i].Name < cases[j].Name })
	return cases, nil
}
