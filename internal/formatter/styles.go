package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/egecelikci/favorites/internal/models"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// FailureLine is one per-item failure rendered by [FormatRunSummary].
type FailureLine struct {
	ID    string
	Phase string
	Err   error
}

// FormatRunSummary renders a finished run for the terminal.
func FormatRunSummary(run *models.RunRecord, manifest string, failures []FailureLine) string {
	var b strings.Builder

	b.WriteString(styles.title.Render("favorites sync"))
	b.WriteString("\n")

	switch run.Status {
	case models.RunSucceeded:
		b.WriteString(styles.ok.Render("✓ up to date"))
	case models.RunPartial:
		b.WriteString(styles.warn.Render(fmt.Sprintf("! completed with %d failures", run.Failures)))
	case models.RunNoop:
		b.WriteString(styles.warn.Render("! favorites source unreachable, nothing changed"))
	default:
		b.WriteString(styles.err.Render("✗ " + string(run.Status)))
	}
	b.WriteString("\n\n")

	rows := []struct {
		label string
		value int
	}{
		{"favorites", run.Favorites},
		{"metadata fetched", run.MetadataFetched},
		{"covers fetched", run.CoversFetched},
		{"images processed", run.ImagesProcessed},
		{"albums", run.Albums},
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "  %-18s %d\n", row.label, row.value)
	}

	if manifest != "" && run.Status != models.RunNoop {
		fmt.Fprintf(&b, "  %-18s %s\n", "manifest", manifest)
	}

	if len(failures) > 0 {
		b.WriteString("\n")
		for _, f := range failures {
			b.WriteString(styles.err.Render("  ✗ "))
			fmt.Fprintf(&b, "%s [%s] %v\n", f.ID, f.Phase, f.Err)
		}
	}

	b.WriteString("\n")
	b.WriteString(styles.help.Render(fmt.Sprintf("run %s in %s", run.ID(), run.Duration().Round(time.Millisecond))))
	b.WriteString("\n")

	return b.String()
}

// FormatRuns renders the run history as a table, newest first.
func FormatRuns(runs []*models.RunRecord) string {
	if len(runs) == 0 {
		return styles.help.Render("no runs recorded") + "\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%5s  %-36s  %-20s  %-9s  %6s  %8s\n", "#", "ID", "STARTED", "STATUS", "ALBUMS", "FAILURES")
	for _, r := range runs {
		status := string(r.Status)
		padded := fmt.Sprintf("%-9s", status)
		switch r.Status {
		case models.RunSucceeded:
			padded = styles.ok.Render(padded)
		case models.RunPartial, models.RunNoop, models.RunRunning:
			padded = styles.warn.Render(padded)
		default:
			padded = styles.err.Render(padded)
		}
		fmt.Fprintf(&b, "%5d  %-36s  %-20s  %s  %6d  %8d\n",
			r.Sequence, r.ID(), r.StartedAt.Local().Format("2006-01-02 15:04:05"), padded, r.Albums, r.Failures)
	}
	return b.String()
}
