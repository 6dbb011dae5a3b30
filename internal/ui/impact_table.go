package ui

import (
	"fmt"
	"sort"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/whalealert/terminal/internal/store"
)

// ImpactTableView displays the price impact measured at each fixed
// horizon after the consensus transfer.
type ImpactTableView struct {
	table *tview.Table
}

// NewImpactTableView creates a new impact table view.
func NewImpactTableView() *ImpactTableView {
	table := tview.NewTable().
		SetBorders(false).
		SetFixed(1, 0)

	table.SetTitle(" Price Impact ").SetBorder(true)

	headers := []string{"Horizon", "Timestamp", "Price", "Return", "Change"}
	for col, header := range headers {
		cell := tview.NewTableCell(header).
			SetTextColor(tview.Styles.SecondaryTextColor).
			SetAlign(tview.AlignLeft).
			SetSelectable(false)
		table.SetCell(0, col, cell)
	}

	return &ImpactTableView{
		table: table,
	}
}

// Widget returns the tview primitive.
func (v *ImpactTableView) Widget() tview.Primitive {
	return v.table
}

// Update refreshes the view with an analysis result.
func (v *ImpactTableView) Update(result *store.PriceImpactResult) {
	v.table.Clear()

	headers := []string{"Horizon", "Timestamp", "Price", "Return", "Change"}
	for col, header := range headers {
		cell := tview.NewTableCell(header).
			SetTextColor(tview.Styles.SecondaryTextColor).
			SetAlign(tview.AlignLeft).
			SetSelectable(false)
		v.table.SetCell(0, col, cell)
	}

	if result == nil || result.Error != "" {
		message := "No analysis yet..."
		if result != nil && result.Error != "" {
			message = result.Error
		}
		cell := tview.NewTableCell(message).
			SetAlign(tview.AlignCenter).
			SetExpansion(1).
			SetTextColor(tcell.ColorRed)
		v.table.SetCell(1, 0, cell)
		return
	}

	labels := make([]string, 0, len(result.EventPriceImpact))
	for label := range result.EventPriceImpact {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		return result.EventPriceImpact[labels[i]].HoursAfterEvent < result.EventPriceImpact[labels[j]].HoursAfterEvent
	})

	for i, label := range labels {
		row := i + 1
		horizon := result.EventPriceImpact[label]

		returnStr := fmt.Sprintf("%+.2f%%", horizon.ImpactReturnPercent)
		returnColor := tcell.ColorWhite
		if horizon.ImpactReturnPercent > 0 {
			returnColor = tcell.ColorGreen
		} else if horizon.ImpactReturnPercent < 0 {
			returnColor = tcell.ColorRed
		}

		cell := tview.NewTableCell(label).SetAlign(tview.AlignLeft)
		v.table.SetCell(row, 0, cell)

		cell = tview.NewTableCell(horizon.ImpactTimestamp).SetAlign(tview.AlignLeft)
		v.table.SetCell(row, 1, cell)

		cell = tview.NewTableCell(fmt.Sprintf("$%.6f", horizon.ImpactPrice)).
			SetAlign(tview.AlignRight)
		v.table.SetCell(row, 2, cell)

		cell = tview.NewTableCell(returnStr).
			SetAlign(tview.AlignRight).
			SetTextColor(returnColor)
		v.table.SetCell(row, 3, cell)

		cell = tview.NewTableCell(fmt.Sprintf("%+.8f", horizon.ImpactChangeAbsolute)).
			SetAlign(tview.AlignRight)
		v.table.SetCell(row, 4, cell)
	}

	v.table.SetTitle(fmt.Sprintf(" Price Impact (event $%.6f @ %s) ", result.EventPrice, result.EventTimestamp))
}
