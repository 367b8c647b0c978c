package ui

import "layertest/internal/domain"

// Viewer displays a run report in an interactive TUI
type Viewer interface {
	View(report *domain.Report) error
}
