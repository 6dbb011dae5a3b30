package provider

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/whalealert/terminal/internal/codec"
	"github.com/whalealert/terminal/internal/store"
	"github.com/whalealert/terminal/internal/validate"
)

const (
	// AlchemyBaseURL is the Ethereum mainnet Alchemy endpoint; the API
	// key is appended as the final path segment.
	AlchemyBaseURL = "https://eth-mainnet.g.alchemy.com/v2"

	// alchemyMaxCount is the per-request transfer cap of the Alchemy
	// Transfers API (0x3e8).
	alchemyMaxCount = 1000
)

// AssetTransfer is one entry of an alchemy_getAssetTransfers result.
// Value is already decimal-adjusted by Alchemy; it is null for some
// NFT transfers.
type AssetTransfer struct {
	Hash        string   `json:"hash"`
	From        string   `json:"from"`
	To          string   `json:"to"`
	Value       *float64 `json:"value"`
	BlockNum    string   `json:"blockNum"`
	RawContract struct {
		Address string `json:"address"`
	} `json:"rawContract"`
}

// Alchemy extracts token transfers through the Alchemy Transfers API.
type Alchemy struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewAlchemy creates an Alchemy provider. baseURL falls back to the
// mainnet endpoint when empty.
func NewAlchemy(client *http.Client, baseURL, apiKey string) *Alchemy {
	if baseURL == "" {
		baseURL = AlchemyBaseURL
	}
	return &Alchemy{baseURL: baseURL, apiKey: apiKey, client: client}
}

// Name identifies the provider in logs and the summary table.
func (a *Alchemy) Name() string { return "Alchemy" }

// Fetch extracts and transforms the most recent transfers.
func (a *Alchemy) Fetch(ctx context.Context, tokenAddress string, maxTransactions int) ([]store.TransferRecord, error) {
	return a.Transform(ctx, a.Extract(ctx, tokenAddress, maxTransactions)), nil
}

// Extract returns the latest raw asset transfers for a token, newest
// first. Validation, transport and API failures all degrade to an
// empty result after logging.
func (a *Alchemy) Extract(ctx context.Context, tokenAddress string, maxTransactions int) []AssetTransfer {
	if err := validate.Address(tokenAddress); err != nil {
		slog.Error("alchemy_invalid_address", "error", err)
		return nil
	}
	tokenAddress = validate.NormalizeAddress(tokenAddress)

	if err := validate.PositiveInt(maxTransactions, 1); err != nil {
		slog.Error("alchemy_invalid_max_transactions", "error", err)
		return nil
	}
	if err := validate.APIKey("Alchemy", a.apiKey); err != nil {
		slog.Error("alchemy_missing_api_key", "error", err)
		return nil
	}

	if maxTransactions > alchemyMaxCount {
		maxTransactions = alchemyMaxCount
	}

	params := []any{map[string]any{
		"fromBlock":         "0x0",
		"toBlock":           "latest",
		"contractAddresses": []string{tokenAddress},
		"category":          []string{"erc20", "erc721", "erc1155"},
		"withMetadata":      true,
		"excludeZeroValue":  true,
		"maxCount":          codec.EncodeBlockNumber(uint64(maxTransactions)),
		"order":             "desc",
	}}

	result, err := rpcCall(ctx, a.client, a.baseURL+"/"+a.apiKey, "alchemy_getAssetTransfers", params)
	if err != nil {
		slog.Error("alchemy_extract_failed", "token", tokenAddress, "error", err)
		return nil
	}

	var payload struct {
		Transfers []AssetTransfer `json:"transfers"`
	}
	if err := json.Unmarshal(result, &payload); err != nil {
		slog.Error("alchemy_decode_failed", "error", err)
		return nil
	}

	return payload.Transfers
}

// BlockTimestamp resolves a hex block number to the normalized UTC
// timestamp via eth_getBlockByNumber. Returns "" on any failure.
func (a *Alchemy) BlockTimestamp(ctx context.Context, blockNumber string) string {
	result, err := rpcCall(ctx, a.client, a.baseURL+"/"+a.apiKey, "eth_getBlockByNumber", []any{blockNumber, false})
	if err != nil {
		slog.Error("alchemy_block_timestamp_failed", "block", blockNumber, "error", err)
		return ""
	}

	var block struct {
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(result, &block); err != nil || block.Timestamp == "" {
		return ""
	}

	sec, err := codec.ParseHexQuantity(block.Timestamp)
	if err != nil {
		slog.Error("alchemy_invalid_block_timestamp", "block", blockNumber, "timestamp", block.Timestamp)
		return ""
	}
	return codec.FormatUnixUTC(int64(sec))
}

// Transform maps raw asset transfers into canonical records. Records
// without a transaction hash are dropped; a failed block-timestamp
// lookup degrades to a "Block <num>" placeholder. Alchemy amounts are
// already decimal-adjusted, so no decimals scaling applies here.
func (a *Alchemy) Transform(ctx context.Context, transfers []AssetTransfer) []store.TransferRecord {
	var records []store.TransferRecord

	for _, transfer := range transfers {
		if transfer.Hash == "" {
			slog.Warn("alchemy_transform_skipping_record", "reason", "missing transaction hash")
			continue
		}

		amount := "0"
		formatted := "0"
		if transfer.Value != nil && *transfer.Value != 0 {
			amount = strconv.FormatFloat(*transfer.Value, 'f', -1, 64)
			formatted = codec.FormatFloat(*transfer.Value)
		}

		timestamp := ""
		if transfer.BlockNum != "" {
			timestamp = a.BlockTimestamp(ctx, transfer.BlockNum)
			if timestamp == "" {
				timestamp = "Block " + transfer.BlockNum
			}
		}

		records = append(records, store.TransferRecord{
			TransactionHash:         transfer.Hash,
			BlockTimestamp:          timestamp,
			TokenAddress:            transfer.RawContract.Address,
			FromAddress:             transfer.From,
			ToAddress:               transfer.To,
			TransferAmount:          amount,
			TransferAmountFormatted: formatted,
		})
	}

	return records
}
