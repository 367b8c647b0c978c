package cli

import (
	"time"

	"layertest/internal/config"
	"layertest/internal/logging"
)

// Flags holds command-line flags
type Flags struct {
	ProjectPath  string
	ConfigFile   string
	Layers       []string
	Timeout      time.Duration
	NameFilter   string
	ResumeAfter  string
	Workers      int
	ResultsDir   string
	RealAPI      bool
	Cache        bool
	NoProgress   bool
	Verbose      bool
	TestCases    bool
	OpenFailures bool
}

// ToConfigFlags converts CLI flags to config flags
func (f *Flags) ToConfigFlags() config.Flags {
	return config.Flags{
		ProjectPath:  f.ProjectPath,
		ConfigFile:   f.ConfigFile,
		Layers:       append([]string(nil), f.Layers...),
		Timeout:      f.Timeout,
		NameFilter:   f.NameFilter,
		ResumeAfter:  f.ResumeAfter,
		Workers:      f.Workers,
		ResultsDir:   f.ResultsDir,
		RealAPI:      f.RealAPI,
		Cache:        f.Cache,
		NoProgress:   f.NoProgress,
		Verbose:      f.Verbose,
		TestCases:    f.TestCases,
		OpenFailures: f.OpenFailures,
	}
}

// LogLevel returns the diagnostic log level selected by the flags.
func (f *Flags) LogLevel() logging.LogLevel {
	if f.Verbose {
		return logging.LevelDebug
	}
	return logging.LevelWarn
}
