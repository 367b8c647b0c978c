package discovery

import (
	"path"
	"strings"
)

// Filter filters test identifiers by name pattern
type Filter struct{}

// NewFilter creates a new Filter
func NewFilter() *Filter {
	return &Filter{}
}

// FilterByName filters test identifiers using wildcard matching against the
// file name, e.g. "test_user*.py" or "*payment*". A pattern without wildcards
// is a substring match on the whole identifier.
func (f *Filter) FilterByName(tests []string, pattern string) []string {
	if pattern == "" {
		return tests
	}

	var filtered []string
	for _, test := range tests {
		if f.matches(test, pattern) {
			filtered = append(filtered, test)
		}
	}
	return filtered
}

func (f *Filter) matches(test, pattern string) bool {
	if !strings.ContainsAny(pattern, "*?") {
		return strings.Contains(test, pattern)
	}

	name := path.Base(test)
	if ok, err := path.Match(pattern, name); err == nil && ok {
		return true
	}
	if ok, err := path.Match(pattern, test); err == nil && ok {
		return true
	}

	// "*payment*" style patterns: every literal part must appear, in order
	parts := strings.Split(pattern, "*")
	rest := name
	matchedAny := false
	for _, part := range parts {
		if part == "" {
			continue
		}
		if strings.Contains(part, "?") {
			return false
		}
		idx := strings.Index(rest, part)
		if idx < 0 {
			return false
		}
		rest = rest[idx+len(part):]
		matchedAny = true
	}
	return matchedAny
}

// Resume skips identifiers across successive discovery lists, in run order,
// until the resume point has been seen. An empty id skips nothing.
type Resume struct {
	id      string
	reached bool
}

// NewResume creates a Resume that starts running after id.
func NewResume(id string) *Resume {
	return &Resume{id: id, reached: id == ""}
}

// Skip returns the identifiers of tests that should run: all of them once the
// resume point has passed, the ones after id when tests contains it, and none
// otherwise.
func (r *Resume) Skip(tests []string) []string {
	if r.reached {
		return tests
	}
	for i, test := range tests {
		if test == r.id {
			r.reached = true
			return tests[i+1:]
		}
	}
	return []string{}
}

// Reached reports whether the resume point has been seen.
func (r *Resume) Reached() bool {
	return r.reached
}
