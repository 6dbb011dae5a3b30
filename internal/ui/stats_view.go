package ui

import (
	"fmt"
	"sort"
	"time"

	"github.com/rivo/tview"

	"github.com/whalealert/terminal/internal/metrics"
)

// StatsView displays per-provider extraction health.
type StatsView struct {
	textView *tview.TextView
}

// NewStatsView creates a new stats view.
func NewStatsView() *StatsView {
	textView := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)

	textView.SetTitle(" Extraction Stats ").SetBorder(true)

	return &StatsView{
		textView: textView,
	}
}

// Widget returns the tview primitive.
func (v *StatsView) Widget() tview.Primitive {
	return v.textView
}

// Update refreshes the stats display.
func (v *StatsView) Update(snapshot metrics.Snapshot) {
	v.textView.Clear()

	names := make([]string, 0, len(snapshot.Providers))
	for name := range snapshot.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(v.textView, "[yellow]Run[-]\nUptime: %s\nRecords: %d\nFailures: %d\n\n[yellow]Providers[-]\n",
		formatDuration(snapshot.Uptime), snapshot.RecordsTotal, snapshot.FailuresTotal)

	for _, name := range names {
		stats := snapshot.Providers[name]
		status := "[green]ok[-]"
		if stats.LastError != "" {
			status = "[red]error[-]"
		}
		fmt.Fprintf(v.textView, "%s: %s  %d records  %dms\n",
			name, status, stats.Records, stats.LastLatency.Milliseconds())
		if stats.LastError != "" {
			fmt.Fprintf(v.textView, "  [red]%s[-]\n", stats.LastError)
		}
	}
}

// formatDuration formats a duration in human-readable form.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
