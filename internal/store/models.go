// Package store provides the data models shared across the pipeline.
package store

// TransferRecord is the canonical shape every provider transformer
// produces for one token transfer, independent of the source API.
type TransferRecord struct {
	// TransactionHash is the provider's transaction identifier, used
	// as a dedup/display key
	TransactionHash string `json:"transactionHash"`

	// BlockTimestamp is the wall-clock time of the transfer in
	// "YYYY-MM-DD HH:MM:SS UTC", or a fallback placeholder
	BlockTimestamp string `json:"blockTimestamp"`

	// TokenAddress is the contract address of the transferred token
	TokenAddress string `json:"tokenAddress"`

	// FromAddress is the sender; for log-derived sources it is
	// recovered from a 32-byte padded topic
	FromAddress string `json:"fromAddress"`

	// ToAddress is the receiver, same recovery rule as FromAddress
	ToAddress string `json:"toAddress"`

	// TransferAmount is the raw integer amount in the token's smallest
	// unit, kept as a decimal string (can exceed 64-bit range)
	TransferAmount string `json:"transferAmount"`

	// TransferAmountFormatted is TransferAmount divided by
	// 10^decimals, with thousands separators and two fraction digits
	TransferAmountFormatted string `json:"transferAmountFormatted"`
}

// NoData is the placeholder recorded for a provider that returned
// nothing; placeholder rows sort after real rows in the summary.
const NoData = "No Data"

// SummaryRow is one provider's entry in the consensus summary table.
type SummaryRow struct {
	Provider   string
	Timestamp  string
	From       string
	To         string
	ValueToken string
	ValueUSD   string
	TxHash     string
}

// Candle is one time-bucketed OHLCV price sample.
type Candle struct {
	Timestamp string  `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	Trades    int     `json:"trades,omitempty"`
}

// HorizonImpact is the measured price impact at one fixed horizon
// after the event.
type HorizonImpact struct {
	HoursAfterEvent      int     `json:"hours_after_event"`
	ImpactTimestamp      string  `json:"impact_timestamp"`
	ImpactPrice          float64 `json:"impact_price"`
	ImpactReturnPercent  float64 `json:"impact_return_percent"`
	ImpactChangeAbsolute float64 `json:"impact_change_absolute"`
}

// AnalysisMetadata carries error context for a failed impact analysis.
type AnalysisMetadata struct {
	ErrorOccurred     bool   `json:"error_occurred"`
	AnalysisTimestamp string `json:"analysis_timestamp"`
}

// PriceImpactResult is the outcome of a price-impact analysis. On
// failure Error is non-empty, EventPriceImpact is nil and
// AnalysisMetadata is populated; callers must check Error before
// reading prices.
type PriceImpactResult struct {
	Error            string                   `json:"error,omitempty"`
	EventTimestamp   string                   `json:"event_timestamp"`
	EventPrice       float64                  `json:"event_price,omitempty"`
	EventPriceImpact map[string]HorizonImpact `json:"event_price_impact,omitempty"`
	TimeHorizons     map[string]HorizonImpact `json:"time_horizons,omitempty"`
	AnalysisMetadata *AnalysisMetadata        `json:"analysis_metadata,omitempty"`
}

// Enrichment is the identity/reputation context looked up for the
// two addresses of the consensus transfer.
type Enrichment struct {
	FromENSDomain         string
	FromUnstoppableDomain string
	FromNetWorth          string
	FromLabels            []string
	ToENSDomain           string
	ToUnstoppableDomain   string
	ToNetWorth            string
	ToLabels              []string
	MethodSignature       string
}
