package provider

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/whalealert/terminal/internal/codec"
	"github.com/whalealert/terminal/internal/store"
	"github.com/whalealert/terminal/internal/validate"
)

// EtherscanBaseURL is the Etherscan API v2 endpoint.
const EtherscanBaseURL = "https://api.etherscan.io/v2/api"

// TokenTx is one entry of an Etherscan tokentx result. Etherscan
// returns every numeric field as a string.
type TokenTx struct {
	Hash            string `json:"hash"`
	TimeStamp       string `json:"timeStamp"`
	ContractAddress string `json:"contractAddress"`
	From            string `json:"from"`
	To              string `json:"to"`
	Value           string `json:"value"`
}

// Etherscan extracts token transfers through the Etherscan tokentx
// REST endpoint.
type Etherscan struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewEtherscan creates an Etherscan provider. baseURL falls back to
// the public v2 endpoint when empty.
func NewEtherscan(client *http.Client, baseURL, apiKey string) *Etherscan {
	if baseURL == "" {
		baseURL = EtherscanBaseURL
	}
	return &Etherscan{baseURL: baseURL, apiKey: apiKey, client: client}
}

// Name identifies the provider in logs and the summary table.
func (e *Etherscan) Name() string { return "Etherscan" }

// Fetch extracts and transforms the most recent transfers.
func (e *Etherscan) Fetch(ctx context.Context, tokenAddress string, maxTransactions int) ([]store.TransferRecord, error) {
	return e.Transform(e.Extract(ctx, tokenAddress, maxTransactions)), nil
}

// Extract returns the latest token transactions, newest first.
// Validation, transport and API failures all degrade to an empty
// result after logging.
func (e *Etherscan) Extract(ctx context.Context, tokenAddress string, maxTransactions int) []TokenTx {
	if err := validate.Address(tokenAddress); err != nil {
		slog.Error("etherscan_invalid_address", "error", err)
		return nil
	}
	tokenAddress = validate.NormalizeAddress(tokenAddress)

	if err := validate.PositiveInt(maxTransactions, 1); err != nil {
		slog.Error("etherscan_invalid_max_transactions", "error", err)
		return nil
	}
	if err := validate.APIKey("Etherscan", e.apiKey); err != nil {
		slog.Error("etherscan_missing_api_key", "error", err)
		return nil
	}

	params := url.Values{}
	params.Set("chainid", "1")
	params.Set("module", "account")
	params.Set("action", "tokentx")
	params.Set("contractaddress", tokenAddress)
	params.Set("page", "1")
	params.Set("offset", strconv.Itoa(maxTransactions))
	params.Set("sort", "desc")
	params.Set("apikey", e.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		slog.Error("etherscan_request_failed", "error", err)
		return nil
	}

	resp, err := e.client.Do(req)
	if err != nil {
		slog.Error("etherscan_extract_failed", "token", tokenAddress, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Error("etherscan_unexpected_status", "status", resp.StatusCode)
		return nil
	}

	var payload struct {
		Status  string          `json:"status"`
		Message string          `json:"message"`
		Result  json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		slog.Error("etherscan_decode_failed", "error", err)
		return nil
	}
	if payload.Status != "1" {
		slog.Error("etherscan_api_error", "message", payload.Message)
		return nil
	}

	var txs []TokenTx
	if err := json.Unmarshal(payload.Result, &txs); err != nil {
		slog.Error("etherscan_decode_failed", "error", err)
		return nil
	}

	return txs
}

// Transform maps raw token transactions into canonical records.
// Records without a transaction hash are dropped; unparsable
// timestamps and amounts degrade to their placeholder strings.
func (e *Etherscan) Transform(txs []TokenTx) []store.TransferRecord {
	var records []store.TransferRecord

	for _, tx := range txs {
		if tx.Hash == "" {
			slog.Warn("etherscan_transform_skipping_record", "reason", "missing transaction hash")
			continue
		}

		timestamp := ""
		if tx.TimeStamp != "" {
			sec, err := strconv.ParseInt(tx.TimeStamp, 10, 64)
			if err != nil {
				timestamp = codec.InvalidTimestamp
			} else {
				timestamp = codec.FormatUnixUTC(sec)
			}
		}

		amount := tx.Value
		if amount == "" {
			amount = "0"
		}

		records = append(records, store.TransferRecord{
			TransactionHash:         tx.Hash,
			BlockTimestamp:          timestamp,
			TokenAddress:            tx.ContractAddress,
			FromAddress:             tx.From,
			ToAddress:               tx.To,
			TransferAmount:          amount,
			TransferAmountFormatted: codec.FormatAmount(amount, codec.DecimalsFor(tx.ContractAddress)),
		})
	}

	return records
}
