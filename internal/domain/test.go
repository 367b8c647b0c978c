package domain

// TestCase is a single test function or class found inside a test file.
type TestCase struct {
	Name     string
	FilePath string
}
