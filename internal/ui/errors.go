package ui

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"layertest/internal/domain"
)

// ErrorViewer displays the failed tests of a report in an interactive TUI
type ErrorViewer struct {
	out io.Writer
}

var _ Viewer = (*ErrorViewer)(nil)

// NewErrorViewer creates a new ErrorViewer. out receives the message printed
// when there is nothing to show.
func NewErrorViewer(out io.Writer) *ErrorViewer {
	return &ErrorViewer{out: out}
}

// View displays the report failures until the user quits.
func (ev *ErrorViewer) View(report *domain.Report) error {
	failures := report.FailedRecords()
	if len(failures) == 0 {
		fmt.Fprintln(ev.out, color.GreenString("✓ No test failures found!"))
		return nil
	}

	// Reviewed marks live for the session only.
	reviewed := make(map[int]bool)

	app := tview.NewApplication()

	list := tview.NewList().
		ShowSecondaryText(false).
		SetHighlightFullLine(true)

	for i, rec := range failures {
		list.AddItem(listItemText(i, rec, false), "", 0, nil)
	}

	list.SetMainTextColor(tview.Styles.PrimaryTextColor).
		SetSelectedTextColor(tcell.ColorWhite).
		SetSelectedBackgroundColor(tcell.ColorDarkCyan).
		SetSecondaryTextColor(tview.Styles.SecondaryTextColor)

	statsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false).
		SetWordWrap(false)

	detailsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true).
		SetWordWrap(true)

	detailsContainer := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(detailsView, 0, 1, false).
		AddItem(tview.NewBox(), 2, 0, false)

	rightSide := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(statsView, 3, 0, false).
		AddItem(detailsContainer, 0, 1, false)

	flex := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(list, 0, 1, true).
		AddItem(rightSide, 0, 2, false)

	headerView := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true)

	updateHeader := func() {
		pending := 0
		for i := range failures {
			if !reviewed[i] {
				pending++
			}
		}
		headerView.SetText(fmt.Sprintf(
			" %s | Failures (%d of %d tests, %d not reviewed) | ↑↓ navigate, [yellow]R[white] mark reviewed, → details, ← back, q quit ",
			report.Summary.Timestamp, len(failures), report.Summary.Total, pending))
	}
	updateHeader()

	updateDetails := func() {
		index := list.GetCurrentItem()
		if index >= 0 && index < len(failures) {
			statsView.SetText(formatRecordStats(failures[index]))
			detailsView.SetText(formatRecordDetails(failures[index])).ScrollToBeginning()
		}
	}

	list.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEnter, tcell.KeyRight:
			app.SetFocus(detailsView)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case 'q', 'Q':
				app.Stop()
				return nil
			case 'r', 'R':
				index := list.GetCurrentItem()
				if index >= 0 && index < len(failures) {
					reviewed[index] = !reviewed[index]
					list.SetItemText(index, listItemText(index, failures[index], reviewed[index]), "")
					updateHeader()
				}
				return nil
			}
		}
		return event
	})

	detailsView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyLeft, tcell.KeyEsc:
			app.SetFocus(list)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		}
		return event
	})

	list.SetChangedFunc(func(int, string, string, rune) {
		updateDetails()
	})
	updateDetails()

	mainLayout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(headerView, 1, 0, false).
		AddItem(tview.NewBox(), 1, 0, false).
		AddItem(flex, 0, 1, true)

	if err := app.SetRoot(mainLayout, true).SetFocus(list).Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func listItemText(index int, rec domain.Record, reviewed bool) string {
	name := tview.Escape(rec.Name)
	if reviewed {
		return fmt.Sprintf("[gray]✓ [yellow]%d.[gray] %s[white]", index+1, name)
	}
	return fmt.Sprintf("[yellow]%d.[white] %s", index+1, name)
}

// formatRecordStats formats the header line for a failed record.
func formatRecordStats(rec domain.Record) string {
	return fmt.Sprintf("[cyan]layer:[white] [yellow]%s[white]  [cyan]test:[white] [yellow]%s[white]  [cyan]duration:[white] %s\n",
		tview.Escape(recordLayer(rec)), tview.Escape(rec.Name), rec.Duration)
}

// formatRecordDetails formats a failed record using tview color tags.
func formatRecordDetails(rec domain.Record) string {
	var builder strings.Builder
	w := tabwriter.NewWriter(&builder, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "[red]✗ Test: %s[white]\n\n", tview.Escape(rec.Name))
	fmt.Fprintf(w, "[cyan]Finished: %s[white]\n\n", rec.Timestamp)

	if len(rec.Metadata) > 0 {
		fmt.Fprintf(w, "[yellow]Metadata:[white]\n")
		for _, k := range sortedKeys(rec.Metadata) {
			fmt.Fprintf(w, "  %s:\t%v\n", k, rec.Metadata[k])
		}
		fmt.Fprintf(w, "\n")
	}

	if rec.Error != nil && *rec.Error != "" {
		fmt.Fprintf(w, "[yellow]Error:[white]\n%s\n", tview.Escape(*rec.Error))
	}

	w.Flush()
	return builder.String()
}
