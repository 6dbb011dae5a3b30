package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/whalealert/terminal/internal/codec"
)

func int32Ptr(v int32) *int32 { return &v }

func TestMoralisExtract(t *testing.T) {
	var gotKey, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(map[string]any{
			"result": []map[string]any{
				{
					"transaction_hash": "0xaaa",
					"from_address":     "0x111",
					"to_address":       "0x222",
					"value":            "1000000",
					"address":          testToken,
					"decimals":         6,
					"block_timestamp":  "2023-11-14T22:13:20.000Z",
				},
			},
		})
	}))
	defer server.Close()

	m := NewMoralis(server.Client(), server.URL, "test-key")
	transfers, err := m.Extract(context.Background(), testToken, 5)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if gotKey != "test-key" {
		t.Errorf("X-API-Key = %q, want test-key", gotKey)
	}
	if !strings.Contains(gotQuery, "chain=eth") || !strings.Contains(gotQuery, "limit=5") {
		t.Errorf("query = %q, want chain=eth and limit=5", gotQuery)
	}
	if len(transfers) != 1 {
		t.Fatalf("got %d transfers, want 1", len(transfers))
	}
	if transfers[0].Decimals == nil || *transfers[0].Decimals != 6 {
		t.Errorf("decimals = %v, want 6", transfers[0].Decimals)
	}
}

func TestMoralisExtractNetworkFailureReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	m := NewMoralis(server.Client(), server.URL, "test-key")
	_, err := m.Extract(context.Background(), testToken, 5)
	if err == nil {
		t.Fatal("Extract() = nil error, want network error")
	}
	if !strings.Contains(err.Error(), "Network error") {
		t.Errorf("error = %q, want it to contain \"Network error\"", err.Error())
	}
}

func TestMoralisExtractBadStatusReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	m := NewMoralis(server.Client(), server.URL, "test-key")
	_, err := m.Extract(context.Background(), testToken, 5)
	if err == nil {
		t.Fatal("Extract() = nil error, want status error")
	}
	if !strings.Contains(err.Error(), "Network error") {
		t.Errorf("error = %q, want it to contain \"Network error\"", err.Error())
	}
}

func TestMoralisExtractRejectsInvalidInput(t *testing.T) {
	m := NewMoralis(http.DefaultClient, "http://unused", "test-key")

	transfers, err := m.Extract(context.Background(), "bad", 5)
	if err != nil || transfers != nil {
		t.Errorf("invalid address: got %d transfers, err %v; want none, nil", len(transfers), err)
	}

	transfers, err = m.Extract(context.Background(), testToken, 0)
	if err != nil || transfers != nil {
		t.Errorf("zero max: got %d transfers, err %v; want none, nil", len(transfers), err)
	}

	noKey := NewMoralis(http.DefaultClient, "http://unused", "")
	transfers, err = noKey.Extract(context.Background(), testToken, 5)
	if err != nil || transfers != nil {
		t.Errorf("missing key: got %d transfers, err %v; want none, nil", len(transfers), err)
	}
}

func TestMoralisTransform(t *testing.T) {
	m := NewMoralis(http.DefaultClient, "http://unused", "test-key")

	records := m.Transform([]Erc20Transfer{
		{
			TransactionHash: "0xaaa",
			FromAddress:     "0x111",
			ToAddress:       "0x222",
			Value:           "1000000",
			Address:         testToken,
			Decimals:        int32Ptr(6), // provider decimals win over the registry default
			BlockTimestamp:  "2023-11-14T22:13:20.000Z",
		},
		{TransactionHash: "0xbbb", FromAddress: "0x111"}, // dropped: missing fields
		{
			TransactionHash: "0xccc",
			FromAddress:     "0x111",
			ToAddress:       "0x222",
			Value:           "",
			Address:         testToken,
			BlockTimestamp:  "yesterday",
		},
	})

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	if records[0].TransferAmountFormatted != "1.00" {
		t.Errorf("formatted = %q, want 1.00", records[0].TransferAmountFormatted)
	}
	if records[0].BlockTimestamp != "2023-11-14 22:13:20 UTC" {
		t.Errorf("timestamp = %q, want 2023-11-14 22:13:20 UTC", records[0].BlockTimestamp)
	}

	if records[1].TransferAmount != "0" || records[1].TransferAmountFormatted != "0" {
		t.Errorf("empty value: amount = %q/%q, want 0/0", records[1].TransferAmount, records[1].TransferAmountFormatted)
	}
	if records[1].BlockTimestamp != codec.InvalidTimestamp {
		t.Errorf("timestamp = %q, want %q", records[1].BlockTimestamp, codec.InvalidTimestamp)
	}
}

func TestMoralisTransformRegistryDecimalsFallback(t *testing.T) {
	m := NewMoralis(http.DefaultClient, "http://unused", "test-key")

	records := m.Transform([]Erc20Transfer{
		{
			TransactionHash: "0xaaa",
			FromAddress:     "0x111",
			ToAddress:       "0x222",
			Value:           "1000000",
			Address:         codec.USDCAddress,
			Decimals:        nil,
		},
	})

	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].TransferAmountFormatted != "1.00" {
		t.Errorf("formatted = %q, want 1.00", records[0].TransferAmountFormatted)
	}
}
