// Package exitcodes defines the process exit codes used by layertest.
package exitcodes

// Exit code constants
//
// * Success (0): every result of every layer succeeded
// * TestFailure (1): one or more results failed
// * RuntimeErr (2): fatal engine faults such as bad configuration or an
//   unwritable results directory
const (
	Success     = 0 // All tests pass
	TestFailure = 1 // Test failures
	RuntimeErr  = 2 // Runtime errors
)
