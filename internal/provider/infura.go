package provider

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/whalealert/terminal/internal/codec"
	"github.com/whalealert/terminal/internal/store"
	"github.com/whalealert/terminal/internal/validate"
)

const (
	// InfuraBaseURL is the Ethereum mainnet Infura endpoint; the API
	// key is appended as the final path segment.
	InfuraBaseURL = "https://mainnet.infura.io/v3"

	// infuraLogWindow is the block span queried below the latest
	// block. The node API has no "most recent N transfers" primitive,
	// so the extractor scans exactly [latest-100, latest] and keeps
	// the tail of the result.
	infuraLogWindow = 100
)

// TransferLog is one eth_getLogs entry for a Transfer event.
// topics[0] is the event signature, topics[1]/topics[2] carry the
// 32-byte padded sender and receiver.
type TransferLog struct {
	TransactionHash string   `json:"transactionHash"`
	BlockTimestamp  string   `json:"blockTimestamp"`
	Address         string   `json:"address"`
	Data            string   `json:"data"`
	Topics          []string `json:"topics"`
}

// Infura extracts token transfers by scanning Transfer event logs
// over a recent block window.
type Infura struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewInfura creates an Infura provider. baseURL falls back to the
// mainnet endpoint when empty.
func NewInfura(client *http.Client, baseURL, apiKey string) *Infura {
	if baseURL == "" {
		baseURL = InfuraBaseURL
	}
	return &Infura{baseURL: baseURL, apiKey: apiKey, client: client}
}

// Name identifies the provider in logs and the summary table.
func (i *Infura) Name() string { return "Infura" }

// Fetch extracts and transforms the most recent transfers.
func (i *Infura) Fetch(ctx context.Context, tokenAddress string, maxTransactions int) ([]store.TransferRecord, error) {
	return i.Transform(i.Extract(ctx, tokenAddress, maxTransactions)), nil
}

// Extract returns the latest Transfer logs for a token. Two calls:
// eth_blockNumber for the chain head, then eth_getLogs over the
// trailing window. Logs arrive oldest first, so the most recent
// maxTransactions entries are the tail of the result. Validation,
// transport and API failures all degrade to an empty result after
// logging.
func (i *Infura) Extract(ctx context.Context, tokenAddress string, maxTransactions int) []TransferLog {
	if err := validate.Address(tokenAddress); err != nil {
		slog.Error("infura_invalid_address", "error", err)
		return nil
	}
	tokenAddress = validate.NormalizeAddress(tokenAddress)

	if err := validate.PositiveInt(maxTransactions, 1); err != nil {
		slog.Error("infura_invalid_max_transactions", "error", err)
		return nil
	}
	if err := validate.APIKey("Infura", i.apiKey); err != nil {
		slog.Error("infura_missing_api_key", "error", err)
		return nil
	}

	url := i.baseURL + "/" + i.apiKey

	result, err := rpcCall(ctx, i.client, url, "eth_blockNumber", []any{})
	if err != nil {
		slog.Error("infura_block_number_failed", "error", err)
		return nil
	}

	var latestHex string
	if err := json.Unmarshal(result, &latestHex); err != nil {
		slog.Error("infura_decode_failed", "error", err)
		return nil
	}
	latest, err := codec.ParseHexQuantity(latestHex)
	if err != nil {
		slog.Error("infura_invalid_block_number", "value", latestHex)
		return nil
	}

	params := []any{map[string]any{
		"fromBlock": codec.EncodeBlockNumber(latest - infuraLogWindow),
		"toBlock":   codec.EncodeBlockNumber(latest),
		"address":   tokenAddress,
		"topics":    []string{codec.TransferEventTopic},
	}}

	result, err = rpcCall(ctx, i.client, url, "eth_getLogs", params)
	if err != nil {
		slog.Error("infura_extract_failed", "token", tokenAddress, "error", err)
		return nil
	}

	var logs []TransferLog
	if err := json.Unmarshal(result, &logs); err != nil {
		slog.Error("infura_decode_failed", "error", err)
		return nil
	}

	if len(logs) > maxTransactions {
		logs = logs[len(logs)-maxTransactions:]
	}

	slog.Info("infura_extract_done", "token", tokenAddress, "logs", len(logs))
	return logs
}

// Transform maps raw Transfer logs into canonical records. A log
// missing any essential field is dropped whole; an unparsable
// timestamp degrades to an empty string while the record survives.
func (i *Infura) Transform(logs []TransferLog) []store.TransferRecord {
	var records []store.TransferRecord

	for _, entry := range logs {
		if entry.TransactionHash == "" || entry.BlockTimestamp == "" ||
			entry.Address == "" || entry.Data == "" || len(entry.Topics) == 0 {
			slog.Warn("infura_transform_skipping_record", "reason", "missing essential fields", "tx", entry.TransactionHash)
			continue
		}

		timestamp := ""
		if sec, err := codec.ParseHexQuantity(entry.BlockTimestamp); err == nil {
			timestamp = codec.FormatUnixUTC(int64(sec))
		}

		from := ""
		to := ""
		if len(entry.Topics) >= 3 {
			from = codec.AddressFromTopic(entry.Topics[1])
			to = codec.AddressFromTopic(entry.Topics[2])
		}

		amount, err := codec.AmountFromData(entry.Data)
		if err != nil {
			slog.Warn("infura_transform_skipping_record", "reason", "invalid amount data", "tx", entry.TransactionHash)
			continue
		}

		records = append(records, store.TransferRecord{
			TransactionHash:         entry.TransactionHash,
			BlockTimestamp:          timestamp,
			TokenAddress:            entry.Address,
			FromAddress:             from,
			ToAddress:               to,
			TransferAmount:          amount,
			TransferAmountFormatted: codec.FormatAmount(amount, codec.DecimalsFor(entry.Address)),
		})
	}

	return records
}
