package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"github.com/whalealert/terminal/internal/store"
)

// TransferDetailView displays the consensus transfer and the
// enrichment context looked up for its sender and receiver.
type TransferDetailView struct {
	textView *tview.TextView
}

// NewTransferDetailView creates a new transfer detail view.
func NewTransferDetailView() *TransferDetailView {
	textView := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)

	textView.SetTitle(" Transfer Detail ").SetBorder(true)

	return &TransferDetailView{
		textView: textView,
	}
}

// Widget returns the tview primitive.
func (v *TransferDetailView) Widget() tview.Primitive {
	return v.textView
}

// Update refreshes the view with the latest consensus transfer and
// its enrichment.
func (v *TransferDetailView) Update(row store.SummaryRow, enrichment store.Enrichment) {
	v.textView.Clear()

	fromLabels := strings.Join(enrichment.FromLabels, ", ")
	if fromLabels == "" {
		fromLabels = "none"
	}
	toLabels := strings.Join(enrichment.ToLabels, ", ")
	if toLabels == "" {
		toLabels = "none"
	}

	text := fmt.Sprintf(`[yellow]Latest Transfer[-] (via %s)
Time: %s
Hash: %s
Value: %s tokens (%s USD)
Method: %s

[yellow]From[-] %s
ENS: %s
Unstoppable: %s
Net Worth: %s
Labels: %s

[yellow]To[-] %s
ENS: %s
Unstoppable: %s
Net Worth: %s
Labels: %s
`,
		row.Provider,
		row.Timestamp,
		row.TxHash,
		row.ValueToken,
		row.ValueUSD,
		enrichment.MethodSignature,
		row.From,
		enrichment.FromENSDomain,
		enrichment.FromUnstoppableDomain,
		enrichment.FromNetWorth,
		fromLabels,
		row.To,
		enrichment.ToENSDomain,
		enrichment.ToUnstoppableDomain,
		enrichment.ToNetWorth,
		toLabels,
	)

	fmt.Fprint(v.textView, text)
}
