// Package enrich looks up identity and reputation context for the
// addresses of a transfer: reverse ENS and Unstoppable domains, wallet
// net worth (Moralis), AML labels (Metasleuth) and the transaction's
// method signature (Etherscan + 4byte.directory).
package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/whalealert/terminal/internal/store"
	"github.com/whalealert/terminal/internal/validate"
)

const (
	// MoralisBaseURL is the Moralis deep-index API endpoint.
	MoralisBaseURL = "https://deep-index.moralis.io/api/v2.2"

	// MetasleuthBaseURL is the BlockSec AML label endpoint.
	MetasleuthBaseURL = "https://aml.blocksec.com/address-compliance/api"

	// EtherscanBaseURL is the Etherscan v2 multichain endpoint.
	EtherscanBaseURL = "https://api.etherscan.io/v2/api"

	// FourByteBaseURL is the public 4byte.directory signature database.
	FourByteBaseURL = "https://www.4byte.directory/api/v1"
)

// Placeholders reported when a lookup succeeds but finds nothing.
const (
	NoENSDomain         = "ENS domain not found"
	NoUnstoppableDomain = "Unstoppable domain not found"
	NoNetWorth          = "Net worth unavailable"
	NoSignature         = "Signature not found"
)

// Client performs enrichment lookups with an injected HTTP client.
// Lookups are best-effort: failures are logged and reported as
// placeholder values so one dead endpoint never blocks the pipeline.
type Client struct {
	moralisURL    string
	metasleuthURL string
	etherscanURL  string
	fourByteURL   string
	moralisKey    string
	metasleuthKey string
	etherscanKey  string
	client        *http.Client
}

// NewClient creates an enrichment client. Empty base URLs fall back
// to the public endpoints.
func NewClient(client *http.Client, moralisKey, metasleuthKey, etherscanKey string) *Client {
	return &Client{
		moralisURL:    MoralisBaseURL,
		metasleuthURL: MetasleuthBaseURL,
		etherscanURL:  EtherscanBaseURL,
		fourByteURL:   FourByteBaseURL,
		moralisKey:    moralisKey,
		metasleuthKey: metasleuthKey,
		etherscanKey:  etherscanKey,
		client:        client,
	}
}

// WithBaseURLs overrides the endpoint URLs, used by tests.
func (c *Client) WithBaseURLs(moralis, metasleuth, etherscan, fourByte string) *Client {
	if moralis != "" {
		c.moralisURL = moralis
	}
	if metasleuth != "" {
		c.metasleuthURL = metasleuth
	}
	if etherscan != "" {
		c.etherscanURL = etherscan
	}
	if fourByte != "" {
		c.fourByteURL = fourByte
	}
	return c
}

// Lookup gathers all enrichment context for a transfer's from/to
// addresses and transaction hash.
func (c *Client) Lookup(ctx context.Context, fromAddress, toAddress, txHash string) store.Enrichment {
	e := store.Enrichment{
		FromENSDomain:         c.ENSDomain(ctx, fromAddress),
		FromUnstoppableDomain: c.UnstoppableDomain(ctx, fromAddress),
		FromNetWorth:          c.NetWorth(ctx, fromAddress),
		FromLabels:            c.Labels(ctx, fromAddress),
		ToENSDomain:           c.ENSDomain(ctx, toAddress),
		ToUnstoppableDomain:   c.UnstoppableDomain(ctx, toAddress),
		ToNetWorth:            c.NetWorth(ctx, toAddress),
		ToLabels:              c.Labels(ctx, toAddress),
		MethodSignature:       c.MethodSignature(ctx, txHash),
	}
	return e
}

// ENSDomain reverse-resolves an address to its primary ENS name.
func (c *Client) ENSDomain(ctx context.Context, address string) string {
	if validate.Address(address) != nil || c.moralisKey == "" {
		return NoENSDomain
	}
	var payload struct {
		Address string `json:"address"`
		Name    string `json:"name"`
	}
	endpoint := fmt.Sprintf("%s/resolve/%s/reverse", c.moralisURL, validate.NormalizeAddress(address))
	if err := c.getJSON(ctx, endpoint, c.moralisHeaders(), &payload); err != nil {
		slog.Debug("ens_lookup_failed", "address", address, "error", err)
		return NoENSDomain
	}
	if payload.Name == "" {
		return NoENSDomain
	}
	return payload.Name
}

// UnstoppableDomain reverse-resolves an address to its Unstoppable
// domain on the ETH network.
func (c *Client) UnstoppableDomain(ctx context.Context, address string) string {
	if validate.Address(address) != nil || c.moralisKey == "" {
		return NoUnstoppableDomain
	}
	var payload struct {
		Name string `json:"name"`
	}
	endpoint := fmt.Sprintf("%s/resolve/%s/domain?currency=eth", c.moralisURL, validate.NormalizeAddress(address))
	if err := c.getJSON(ctx, endpoint, c.moralisHeaders(), &payload); err != nil {
		slog.Debug("unstoppable_lookup_failed", "address", address, "error", err)
		return NoUnstoppableDomain
	}
	if payload.Name == "" {
		return NoUnstoppableDomain
	}
	return payload.Name
}

// NetWorth returns the wallet's total USD net worth as a formatted
// string, excluding spam and unverified contracts.
func (c *Client) NetWorth(ctx context.Context, address string) string {
	if validate.Address(address) != nil || c.moralisKey == "" {
		return NoNetWorth
	}
	var payload struct {
		TotalNetWorthUSD string `json:"total_networth_usd"`
	}
	endpoint := fmt.Sprintf(
		"%s/wallets/%s/net-worth?exclude_spam=true&exclude_unverified_contracts=true",
		c.moralisURL, validate.NormalizeAddress(address))
	if err := c.getJSON(ctx, endpoint, c.moralisHeaders(), &payload); err != nil {
		slog.Debug("net_worth_lookup_failed", "address", address, "error", err)
		return NoNetWorth
	}
	if payload.TotalNetWorthUSD == "" {
		return NoNetWorth
	}
	worth, err := decimal.NewFromString(payload.TotalNetWorthUSD)
	if err != nil {
		return NoNetWorth
	}
	return "$" + worth.StringFixed(2)
}

// Labels returns the Metasleuth AML label names attached to the
// address, or nil when there are none or the key is not configured.
func (c *Client) Labels(ctx context.Context, address string) []string {
	if validate.Address(address) != nil || c.metasleuthKey == "" {
		return nil
	}

	body, err := json.Marshal(map[string]string{
		"chain_id": "1",
		"address":  validate.NormalizeAddress(address),
	})
	if err != nil {
		return nil
	}

	endpoint := c.metasleuthURL + "/v3/labels"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("API-KEY", c.metasleuthKey)

	resp, err := c.client.Do(req)
	if err != nil {
		slog.Debug("label_lookup_failed", "address", address, "error", err)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var payload struct {
		Data struct {
			MainEntity string `json:"main_entity"`
			Attributes []struct {
				Name string `json:"name"`
			} `json:"attributes"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil
	}

	var labels []string
	if payload.Data.MainEntity != "" {
		labels = append(labels, payload.Data.MainEntity)
	}
	for _, attr := range payload.Data.Attributes {
		if attr.Name != "" {
			labels = append(labels, attr.Name)
		}
	}
	return labels
}

// MethodSignature resolves the human-readable signature of the
// function a transaction called: the transaction input's 4-byte
// selector from Etherscan, looked up in 4byte.directory.
func (c *Client) MethodSignature(ctx context.Context, txHash string) string {
	if txHash == "" || c.etherscanKey == "" {
		return NoSignature
	}

	var tx struct {
		Result struct {
			Input string `json:"input"`
		} `json:"result"`
	}
	endpoint := fmt.Sprintf(
		"%s?chainid=1&module=proxy&action=eth_getTransactionByHash&txhash=%s&apikey=%s",
		c.etherscanURL, txHash, c.etherscanKey)
	if err := c.getJSON(ctx, endpoint, nil, &tx); err != nil {
		slog.Debug("tx_lookup_failed", "hash", txHash, "error", err)
		return NoSignature
	}

	input := tx.Result.Input
	if len(input) < 10 || !strings.HasPrefix(input, "0x") {
		return NoSignature
	}
	selector := input[:10]

	var sigs struct {
		Results []struct {
			TextSignature string `json:"text_signature"`
			ID            int    `json:"id"`
		} `json:"results"`
	}
	sigURL := fmt.Sprintf("%s/signatures/?hex_signature=%s", c.fourByteURL, selector)
	if err := c.getJSON(ctx, sigURL, nil, &sigs); err != nil {
		slog.Debug("signature_lookup_failed", "selector", selector, "error", err)
		return NoSignature
	}
	if len(sigs.Results) == 0 {
		return NoSignature
	}

	// 4byte returns newest first; the earliest registration is the
	// likeliest canonical signature.
	best := sigs.Results[0]
	for _, sig := range sigs.Results[1:] {
		if sig.ID < best.ID {
			best = sig
		}
	}
	return best.TextSignature
}

func (c *Client) moralisHeaders() http.Header {
	h := http.Header{}
	h.Set("Accept", "application/json")
	h.Set("X-API-Key", c.moralisKey)
	return h
}

func (c *Client) getJSON(ctx context.Context, endpoint string, headers http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request failed: %w", err)
	}
	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	return nil
}
