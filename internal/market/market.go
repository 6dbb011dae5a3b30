// Package market resolves token identity and fetches price data:
// symbol-to-address lookup through CoinGecko, spot price, best
// trading pair and OHLCV candles through Moralis.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/whalealert/terminal/internal/codec"
	"github.com/whalealert/terminal/internal/store"
	"github.com/whalealert/terminal/internal/validate"
)

const (
	// CoinGeckoBaseURL is the free CoinGecko REST endpoint.
	CoinGeckoBaseURL = "https://api.coingecko.com/api/v3"

	// MoralisBaseURL is the Moralis deep-index API endpoint.
	MoralisBaseURL = "https://deep-index.moralis.io/api/v2.2"
)

// candleWidths maps the supported Moralis timeframes to their candle
// width; the impact analyzer's containment search depends on it.
var candleWidths = map[string]time.Duration{
	"1min":  time.Minute,
	"5min":  5 * time.Minute,
	"15min": 15 * time.Minute,
	"30min": 30 * time.Minute,
	"1h":    time.Hour,
	"4h":    4 * time.Hour,
	"1d":    24 * time.Hour,
}

// flexFloat decodes a JSON number that Moralis emits either as a
// number or as a quoted string.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q: %w", s, err)
	}
	*f = flexFloat(v)
	return nil
}

// CandleWidth returns the candle duration for a Moralis timeframe,
// defaulting to one hour for unknown values.
func CandleWidth(timeframe string) time.Duration {
	if w, ok := candleWidths[timeframe]; ok {
		return w
	}
	return time.Hour
}

// Client fetches market data with an injected pooled HTTP client.
type Client struct {
	coingeckoURL string
	moralisURL   string
	moralisKey   string
	client       *http.Client
}

// NewClient creates a market data client. Empty base URLs fall back
// to the public endpoints.
func NewClient(client *http.Client, coingeckoURL, moralisURL, moralisKey string) *Client {
	if coingeckoURL == "" {
		coingeckoURL = CoinGeckoBaseURL
	}
	if moralisURL == "" {
		moralisURL = MoralisBaseURL
	}
	return &Client{
		coingeckoURL: coingeckoURL,
		moralisURL:   moralisURL,
		moralisKey:   moralisKey,
		client:       client,
	}
}

// TokenAddress resolves a token symbol to its Ethereum contract
// address via CoinGecko: symbol search first (top match wins, highest
// market cap), then the coin detail's platform map.
func (c *Client) TokenAddress(ctx context.Context, symbol string) (string, error) {
	if symbol == "" {
		return "", fmt.Errorf("token symbol cannot be empty")
	}

	var search struct {
		Coins []struct {
			ID string `json:"id"`
		} `json:"coins"`
	}
	searchURL := fmt.Sprintf("%s/search?query=%s", c.coingeckoURL, url.QueryEscape(strings.ToLower(symbol)))
	if err := c.getJSON(ctx, searchURL, nil, &search); err != nil {
		return "", fmt.Errorf("coingecko search failed: %w", err)
	}
	if len(search.Coins) == 0 {
		return "", fmt.Errorf("no CoinGecko match for symbol %q", symbol)
	}

	var details struct {
		Platforms map[string]string `json:"platforms"`
	}
	detailsURL := fmt.Sprintf("%s/coins/%s", c.coingeckoURL, url.PathEscape(search.Coins[0].ID))
	if err := c.getJSON(ctx, detailsURL, nil, &details); err != nil {
		return "", fmt.Errorf("coingecko coin lookup failed: %w", err)
	}

	address := details.Platforms["ethereum"]
	if address == "" {
		return "", fmt.Errorf("no ethereum contract for symbol %q", symbol)
	}

	slog.Info("token_address_resolved", "symbol", symbol, "address", address)
	return address, nil
}

// TokenPrice returns the USD spot price and 24-hour percent change
// for a token contract via Moralis.
func (c *Client) TokenPrice(ctx context.Context, tokenAddress string) (price float64, change24h float64, err error) {
	if err := validate.Address(tokenAddress); err != nil {
		return 0, 0, err
	}
	tokenAddress = validate.NormalizeAddress(tokenAddress)
	if err := validate.APIKey("Moralis", c.moralisKey); err != nil {
		return 0, 0, err
	}

	var payload struct {
		USDPrice           float64   `json:"usdPrice"`
		PercentChange24hrs flexFloat `json:"24hrPercentChange"`
	}
	endpoint := fmt.Sprintf("%s/erc20/%s/price?chain=eth&min_pair_side_liquidity_usd=100000", c.moralisURL, tokenAddress)
	if err := c.getJSON(ctx, endpoint, c.moralisHeaders(), &payload); err != nil {
		return 0, 0, fmt.Errorf("price lookup failed: %w", err)
	}
	if payload.USDPrice == 0 {
		return 0, 0, fmt.Errorf("no price found for %s", tokenAddress)
	}

	return payload.USDPrice, float64(payload.PercentChange24hrs), nil
}

// BestPair returns the token's trading pair with the highest USD
// liquidity, the pair priced by the OHLCV endpoint.
func (c *Client) BestPair(ctx context.Context, tokenAddress string) (string, error) {
	if err := validate.Address(tokenAddress); err != nil {
		return "", err
	}
	tokenAddress = validate.NormalizeAddress(tokenAddress)
	if err := validate.APIKey("Moralis", c.moralisKey); err != nil {
		return "", err
	}

	var payload struct {
		Pairs []struct {
			PairAddress  string    `json:"pair_address"`
			LiquidityUSD flexFloat `json:"liquidity_usd"`
		} `json:"pairs"`
	}
	endpoint := fmt.Sprintf("%s/erc20/%s/pairs?chain=eth&limit=1", c.moralisURL, tokenAddress)
	if err := c.getJSON(ctx, endpoint, c.moralisHeaders(), &payload); err != nil {
		return "", fmt.Errorf("pairs lookup failed: %w", err)
	}
	if len(payload.Pairs) == 0 {
		return "", fmt.Errorf("no trading pairs found for %s", tokenAddress)
	}

	best := ""
	maxLiquidity := 0.0
	for _, pair := range payload.Pairs {
		if liquidity := float64(pair.LiquidityUSD); liquidity > maxLiquidity {
			maxLiquidity = liquidity
			best = pair.PairAddress
		}
	}
	if best == "" {
		return "", fmt.Errorf("no pair with liquidity found for %s", tokenAddress)
	}

	return best, nil
}

// FetchOHLCV fetches USD candles for a token symbol around an event:
// the window spans hoursBefore the event to hoursAfter it. The raw
// candle array is also snapshotted as JSON under dataDir when dataDir
// is non-empty.
func (c *Client) FetchOHLCV(ctx context.Context, symbol, timeframe, eventTimestamp string, hoursBefore, hoursAfter, limit int, dataDir string) ([]store.Candle, error) {
	if symbol == "" {
		return nil, fmt.Errorf("token symbol cannot be empty")
	}
	if eventTimestamp == "" {
		return nil, fmt.Errorf("event timestamp is required")
	}
	if err := validate.APIKey("Moralis", c.moralisKey); err != nil {
		return nil, err
	}

	eventTime, err := time.Parse(codec.TimeLayout, eventTimestamp)
	if err != nil {
		return nil, fmt.Errorf("invalid event timestamp %q: %w", eventTimestamp, err)
	}

	tokenAddress, err := c.TokenAddress(ctx, symbol)
	if err != nil {
		return nil, err
	}
	pairAddress, err := c.BestPair(ctx, tokenAddress)
	if err != nil {
		return nil, err
	}

	const isoLayout = "2006-01-02T15:04:05.000"
	params := url.Values{}
	params.Set("chain", "eth")
	params.Set("timeframe", timeframe)
	params.Set("currency", "usd")
	params.Set("fromDate", eventTime.Add(-time.Duration(hoursBefore)*time.Hour).Format(isoLayout))
	params.Set("toDate", eventTime.Add(time.Duration(hoursAfter)*time.Hour).Format(isoLayout))
	if limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", limit))
	}

	var payload struct {
		Result []store.Candle `json:"result"`
	}
	endpoint := fmt.Sprintf("%s/pairs/%s/ohlcv?%s", c.moralisURL, pairAddress, params.Encode())
	if err := c.getJSON(ctx, endpoint, c.moralisHeaders(), &payload); err != nil {
		return nil, fmt.Errorf("ohlcv fetch failed: %w", err)
	}

	if dataDir != "" {
		if err := snapshotCandles(dataDir, symbol, timeframe, payload.Result); err != nil {
			slog.Warn("ohlcv_snapshot_failed", "error", err)
		}
	}

	slog.Info("ohlcv_fetched", "symbol", symbol, "timeframe", timeframe, "candles", len(payload.Result))
	return payload.Result, nil
}

func (c *Client) moralisHeaders() http.Header {
	h := http.Header{}
	h.Set("Accept", "application/json")
	h.Set("X-API-Key", c.moralisKey)
	return h
}

// getJSON performs a GET and decodes the JSON body into out.
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

func snapshotCandles(dataDir, symbol, timeframe string, candles []store.Candle) error {
	dir := filepath.Join(dataDir, "prices", "ohlc")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(candles)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, fmt.Sprintf("ohlcv_data_%s_%s.json", symbol, timeframe))
	return os.WriteFile(path, data, 0o644)
}
