package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/whalealert/terminal/internal/codec"
	"github.com/whalealert/terminal/internal/store"
	"github.com/whalealert/terminal/internal/validate"
)

// MoralisBaseURL is the Moralis deep-index API endpoint.
const MoralisBaseURL = "https://deep-index.moralis.io/api/v2.2"

// Erc20Transfer is one entry of a Moralis ERC-20 transfers result.
// Decimals is supplied by Moralis and, when present, always wins over
// the registry default.
type Erc20Transfer struct {
	TransactionHash string `json:"transaction_hash"`
	FromAddress     string `json:"from_address"`
	ToAddress       string `json:"to_address"`
	Value           string `json:"value"`
	Address         string `json:"address"`
	Decimals        *int32 `json:"decimals"`
	BlockTimestamp  string `json:"block_timestamp"`
}

// Moralis extracts token transfers through the Moralis Token
// Transfers API. Unlike the other providers it surfaces transport
// failures as errors instead of degrading to an empty result.
type Moralis struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewMoralis creates a Moralis provider. baseURL falls back to the
// deep-index endpoint when empty.
func NewMoralis(client *http.Client, baseURL, apiKey string) *Moralis {
	if baseURL == "" {
		baseURL = MoralisBaseURL
	}
	return &Moralis{baseURL: baseURL, apiKey: apiKey, client: client}
}

// Name identifies the provider in logs and the summary table.
func (m *Moralis) Name() string { return "Moralis" }

// Fetch extracts and transforms the most recent transfers.
func (m *Moralis) Fetch(ctx context.Context, tokenAddress string, maxTransactions int) ([]store.TransferRecord, error) {
	transfers, err := m.Extract(ctx, tokenAddress, maxTransactions)
	if err != nil {
		return nil, err
	}
	return m.Transform(transfers), nil
}

// Extract returns the latest raw ERC-20 transfers, newest first.
// Validation failures degrade to an empty result after logging;
// transport and decode failures are returned as errors.
func (m *Moralis) Extract(ctx context.Context, tokenAddress string, maxTransactions int) ([]Erc20Transfer, error) {
	if err := validate.Address(tokenAddress); err != nil {
		slog.Error("moralis_invalid_address", "error", err)
		return nil, nil
	}
	tokenAddress = validate.NormalizeAddress(tokenAddress)

	if err := validate.PositiveInt(maxTransactions, 1); err != nil {
		slog.Error("moralis_invalid_max_transactions", "error", err)
		return nil, nil
	}
	if err := validate.APIKey("Moralis", m.apiKey); err != nil {
		slog.Error("moralis_missing_api_key", "error", err)
		return nil, nil
	}

	params := url.Values{}
	params.Set("chain", "eth")
	params.Set("order", "DESC")
	params.Set("limit", strconv.Itoa(maxTransactions))

	endpoint := fmt.Sprintf("%s/erc20/%s/transfers?%s", m.baseURL, tokenAddress, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Network error when calling Moralis API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Network error when calling Moralis API: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		Result []Erc20Transfer `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode failed: %w", err)
	}

	slog.Info("moralis_extract_done", "token", tokenAddress, "transfers", len(payload.Result))
	return payload.Result, nil
}

// Transform maps raw ERC-20 transfers into canonical records. A
// transfer missing its hash, addresses or token contract is dropped
// whole; unparsable amounts and timestamps degrade to their
// placeholder strings.
func (m *Moralis) Transform(transfers []Erc20Transfer) []store.TransferRecord {
	var records []store.TransferRecord

	for _, transfer := range transfers {
		if transfer.TransactionHash == "" || transfer.FromAddress == "" ||
			transfer.ToAddress == "" || transfer.Address == "" {
			slog.Warn("moralis_transform_skipping_record", "reason", "missing required fields", "tx", transfer.TransactionHash)
			continue
		}

		decimals := codec.DecimalsFor(transfer.Address)
		if transfer.Decimals != nil {
			decimals = *transfer.Decimals
		}

		amount := transfer.Value
		if amount == "" {
			amount = "0"
		}

		timestamp := ""
		if transfer.BlockTimestamp != "" {
			parsed, err := time.Parse(time.RFC3339, transfer.BlockTimestamp)
			if err != nil {
				timestamp = codec.InvalidTimestamp
			} else {
				timestamp = parsed.UTC().Format(codec.TimeLayout)
			}
		}

		records = append(records, store.TransferRecord{
			TransactionHash:         transfer.TransactionHash,
			BlockTimestamp:          timestamp,
			TokenAddress:            transfer.Address,
			FromAddress:             transfer.FromAddress,
			ToAddress:               transfer.ToAddress,
			TransferAmount:          amount,
			TransferAmountFormatted: codec.FormatAmount(amount, decimals),
		})
	}

	return records
}
