// Package provider implements the per-provider transfer extractors
// and transformers. Each provider issues its own HTTP calls against a
// shared injected client and maps its native payload into the
// canonical store.TransferRecord shape.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/whalealert/terminal/internal/store"
)

// DefaultTimeout bounds every outbound provider call.
const DefaultTimeout = 30 * time.Second

// Source is one upstream transfer provider. Fetch combines extraction
// and transformation into canonical records.
//
// Error policy: Alchemy, Etherscan and Infura degrade to an empty
// result on transport or API failures (logged, nil error); Moralis
// surfaces transport failures as an error. Validation failures always
// produce an empty result on every provider.
type Source interface {
	Name() string
	Fetch(ctx context.Context, tokenAddress string, maxTransactions int) ([]store.TransferRecord, error)
}

// NewHTTPClient builds the pooled HTTP client shared by all provider,
// market and enrichment calls. It replaces ambient global state with
// an explicitly injected dependency.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// rpcRequest is a JSON-RPC 2.0 call envelope.
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int    `json:"id"`
}

// rpcError is a JSON-RPC 2.0 error object.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// rpcResponse is a JSON-RPC 2.0 reply with the result left raw for
// the caller to decode.
type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// rpcCall posts a JSON-RPC request and decodes the reply envelope.
// A provider-reported error object is returned as a Go error.
func rpcCall(ctx context.Context, client *http.Client, url, method string, params []any) (json.RawMessage, error) {
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var reply rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("decode failed: %w", err)
	}
	if reply.Error != nil {
		return nil, fmt.Errorf("provider error %d: %s", reply.Error.Code, reply.Error.Message)
	}

	return reply.Result, nil
}
