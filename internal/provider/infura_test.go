package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/whalealert/terminal/internal/codec"
)

func TestInfuraExtract(t *testing.T) {
	var logsParams map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		switch req.Method {
		case "eth_blockNumber":
			json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": 1, "result": "0x1000"})
		case "eth_getLogs":
			logsParams, _ = req.Params[0].(map[string]any)
			var logs []map[string]any
			// Node returns logs oldest first
			for i := 0; i < 4; i++ {
				logs = append(logs, map[string]any{
					"transactionHash": fmt.Sprintf("0xhash%d", i),
					"blockTimestamp":  "0x6553f380",
					"address":         testToken,
					"data":            "0x00000000000000000000000000000000000000000000000000000000000f4240",
					"topics": []string{
						codec.TransferEventTopic,
						"0x000000000000000000000000ab5801a7d398351b8be11c439e05c5b3259aec9b",
						"0x000000000000000000000000a0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
					},
				})
			}
			json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": 1, "result": logs})
		default:
			t.Errorf("unexpected method %q", req.Method)
		}
	}))
	defer server.Close()

	i := NewInfura(server.Client(), server.URL, "test-key")
	logs := i.Extract(context.Background(), testToken, 2)

	// Window spans exactly [latest-100, latest]
	if logsParams["fromBlock"] != "0xf9c" {
		t.Errorf("fromBlock = %v, want 0xf9c", logsParams["fromBlock"])
	}
	if logsParams["toBlock"] != "0x1000" {
		t.Errorf("toBlock = %v, want 0x1000", logsParams["toBlock"])
	}

	// Most recent entries are the tail of the node's response
	if len(logs) != 2 {
		t.Fatalf("got %d logs, want 2", len(logs))
	}
	if logs[0].TransactionHash != "0xhash2" || logs[1].TransactionHash != "0xhash3" {
		t.Errorf("tail take wrong: got %q, %q", logs[0].TransactionHash, logs[1].TransactionHash)
	}
}

func TestInfuraExtractNetworkFailureReturnsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	i := NewInfura(server.Client(), server.URL, "test-key")
	if got := i.Extract(context.Background(), testToken, 5); got != nil {
		t.Errorf("network failure: got %d logs, want none", len(got))
	}
}

func TestInfuraExtractRejectsInvalidInput(t *testing.T) {
	i := NewInfura(http.DefaultClient, "http://unused", "test-key")

	if got := i.Extract(context.Background(), "0x123", 5); got != nil {
		t.Errorf("invalid address: got %d logs, want none", len(got))
	}
	if got := i.Extract(context.Background(), testToken, 0); got != nil {
		t.Errorf("zero max: got %d logs, want none", len(got))
	}

	noKey := NewInfura(http.DefaultClient, "http://unused", "")
	if got := noKey.Extract(context.Background(), testToken, 5); got != nil {
		t.Errorf("missing key: got %d logs, want none", len(got))
	}
}

func TestInfuraTransform(t *testing.T) {
	i := NewInfura(http.DefaultClient, "http://unused", "test-key")

	records := i.Transform([]TransferLog{
		{
			TransactionHash: "0xaaa",
			BlockTimestamp:  "0x6553f380",
			Address:         codec.USDCAddress,
			Data:            "0x00000000000000000000000000000000000000000000000000000000000f4240",
			Topics: []string{
				codec.TransferEventTopic,
				"0x000000000000000000000000ab5801a7d398351b8be11c439e05c5b3259aec9b",
				"0x0000000000000000000000000000000000000000000000000000000000000000",
			},
		},
		{TransactionHash: "0xbbb"}, // dropped: missing fields
		{
			TransactionHash: "0xccc",
			BlockTimestamp:  "0x6553f380",
			Address:         testToken,
			Data:            "0xnothex", // dropped: invalid amount
			Topics:          []string{codec.TransferEventTopic},
		},
	})

	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	r := records[0]
	if r.FromAddress != "0xab5801a7d398351b8be11c439e05c5b3259aec9b" {
		t.Errorf("from = %q", r.FromAddress)
	}
	if r.ToAddress != "0x0" {
		t.Errorf("to = %q, want 0x0", r.ToAddress)
	}
	if r.TransferAmount != "1000000" {
		t.Errorf("amount = %q, want 1000000", r.TransferAmount)
	}
	if r.TransferAmountFormatted != "1.00" {
		t.Errorf("formatted = %q, want 1.00", r.TransferAmountFormatted)
	}
	if r.BlockTimestamp != "2023-11-14 22:24:00 UTC" {
		t.Errorf("timestamp = %q, want 2023-11-14 22:24:00 UTC", r.BlockTimestamp)
	}
}

func TestInfuraTransformFewTopics(t *testing.T) {
	i := NewInfura(http.DefaultClient, "http://unused", "test-key")

	records := i.Transform([]TransferLog{
		{
			TransactionHash: "0xaaa",
			BlockTimestamp:  "0x6553f380",
			Address:         testToken,
			Data:            "0x01",
			Topics:          []string{codec.TransferEventTopic},
		},
	})

	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].FromAddress != "" || records[0].ToAddress != "" {
		t.Errorf("addresses = %q/%q, want empty", records[0].FromAddress, records[0].ToAddress)
	}
}
