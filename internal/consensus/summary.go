// Package consensus reconciles per-provider canonical records into a
// single summary table and picks the transfer used downstream.
package consensus

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/whalealert/terminal/internal/store"
)

// ProviderResult tags one provider's canonical records with its name.
type ProviderResult struct {
	Provider string
	Records  []store.TransferRecord
}

// Build produces one summary row per provider from each provider's
// most recent record, priced in USD. Providers that returned nothing
// become "No Data" placeholder rows. Rows are sorted by timestamp
// descending with placeholders last; providers do not necessarily
// agree on which transfer is the latest, so no cross-provider
// ordering is assumed beyond the timestamps themselves.
func Build(results []ProviderResult, tokenPriceUSD float64) []store.SummaryRow {
	rows := make([]store.SummaryRow, 0, len(results))

	for _, result := range results {
		if len(result.Records) == 0 {
			rows = append(rows, store.SummaryRow{
				Provider:   result.Provider,
				Timestamp:  store.NoData,
				From:       store.NoData,
				To:         store.NoData,
				ValueToken: store.NoData,
				ValueUSD:   store.NoData,
				TxHash:     store.NoData,
			})
			continue
		}

		record := result.Records[0]
		rows = append(rows, store.SummaryRow{
			Provider:   result.Provider,
			Timestamp:  record.BlockTimestamp,
			From:       record.FromAddress,
			To:         record.ToAddress,
			ValueToken: record.TransferAmountFormatted,
			ValueUSD:   valueUSD(record.TransferAmountFormatted, tokenPriceUSD),
			TxHash:     record.TransactionHash,
		})
	}

	sort.SliceStable(rows, func(a, b int) bool {
		ra, rb := rows[a], rows[b]
		if (ra.Timestamp == store.NoData) != (rb.Timestamp == store.NoData) {
			return rb.Timestamp == store.NoData
		}
		return ra.Timestamp > rb.Timestamp
	})

	return rows
}

// Latest returns the authoritative row for enrichment, charting and
// impact analysis: whichever provider observed the most recent
// transfer. ok is false when every provider came back empty.
func Latest(rows []store.SummaryRow) (store.SummaryRow, bool) {
	if len(rows) == 0 || rows[0].Timestamp == store.NoData {
		return store.SummaryRow{}, false
	}
	return rows[0], true
}

// valueUSD prices a formatted token amount. The formatted value is
// the display string with thousands separators, so commas are
// stripped before parsing.
func valueUSD(formatted string, price float64) string {
	v, err := strconv.ParseFloat(strings.ReplaceAll(formatted, ",", ""), 64)
	if err != nil {
		return store.NoData
	}
	return fmt.Sprintf("%.2f", v*price)
}

// WriteCSV snapshots the summary table for later inspection, one row
// per provider in the sorted order.
func WriteCSV(path string, rows []store.SummaryRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create summary csv failed: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"API", "Timestamp", "From", "To", "Value (token)", "Value (USD)", "Transaction Hash"}); err != nil {
		return fmt.Errorf("write summary csv failed: %w", err)
	}
	for _, row := range rows {
		record := []string{row.Provider, row.Timestamp, row.From, row.To, row.ValueToken, row.ValueUSD, row.TxHash}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write summary csv failed: %w", err)
		}
	}
	w.Flush()

	return w.Error()
}
