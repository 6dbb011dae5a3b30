package ui

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/whalealert/terminal/internal/store"
)

// SummaryTableView displays the per-provider consensus summary of the
// most recent transfer each provider observed.
type SummaryTableView struct {
	table *tview.Table
}

// NewSummaryTableView creates a new summary table view.
func NewSummaryTableView() *SummaryTableView {
	table := tview.NewTable().
		SetBorders(false).
		SetFixed(1, 0)

	table.SetTitle(" Provider Summary ").SetBorder(true)

	headers := []string{"API", "Timestamp", "From", "To", "Value (token)", "Value (USD)", "Tx Hash"}
	for col, header := range headers {
		cell := tview.NewTableCell(header).
			SetTextColor(tview.Styles.SecondaryTextColor).
			SetAlign(tview.AlignLeft).
			SetSelectable(false).
			SetExpansion(1)
		table.SetCell(0, col, cell)
	}

	return &SummaryTableView{
		table: table,
	}
}

// Widget returns the tview primitive.
func (v *SummaryTableView) Widget() tview.Primitive {
	return v.table
}

// Update refreshes the view with the consensus rows.
func (v *SummaryTableView) Update(rows []store.SummaryRow) {
	v.table.Clear()

	headers := []string{"API", "Timestamp", "From", "To", "Value (token)", "Value (USD)", "Tx Hash"}
	for col, header := range headers {
		cell := tview.NewTableCell(header).
			SetTextColor(tview.Styles.SecondaryTextColor).
			SetAlign(tview.AlignLeft).
			SetSelectable(false)
		v.table.SetCell(0, col, cell)
	}

	for i, summaryRow := range rows {
		row := i + 1

		cells := []string{
			summaryRow.Provider,
			summaryRow.Timestamp,
			truncateAddress(summaryRow.From),
			truncateAddress(summaryRow.To),
			summaryRow.ValueToken,
			summaryRow.ValueUSD,
			truncateAddress(summaryRow.TxHash),
		}

		for col, text := range cells {
			cell := tview.NewTableCell(text).
				SetAlign(tview.AlignLeft).
				SetExpansion(1)
			v.table.SetCell(row, col, cell)
		}
	}

	v.table.SetTitle(fmt.Sprintf(" Provider Summary (%d sources) ", len(rows)))
}

// truncateAddress truncates an address or hash for display.
func truncateAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}
