// Package main is the entry point for the whale alert terminal.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/whalealert/terminal/internal/codec"
	"github.com/whalealert/terminal/internal/config"
	"github.com/whalealert/terminal/internal/consensus"
	"github.com/whalealert/terminal/internal/enrich"
	"github.com/whalealert/terminal/internal/impact"
	"github.com/whalealert/terminal/internal/market"
	"github.com/whalealert/terminal/internal/metrics"
	"github.com/whalealert/terminal/internal/provider"
	"github.com/whalealert/terminal/internal/store"
	"github.com/whalealert/terminal/internal/ui"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize structured logger
	logger := setupLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	slog.Info("whale alert terminal starting",
		"version", "1.0.0",
	)

	slog.Info("config_loaded",
		"token_symbol", cfg.TokenSymbol,
		"token_address", cfg.TokenAddress,
		"max_transactions", cfg.MaxTransactions,
		"timeframe", cfg.Timeframe,
		"enable_tui", cfg.EnableTUI,
		"alchemy_key", cfg.MaskedAlchemyKey(),
		"etherscan_key", cfg.MaskedEtherscanKey(),
		"infura_key", cfg.MaskedInfuraKey(),
		"moralis_key", cfg.MaskedMoralisKey(),
		"data_dir", cfg.DataDir,
	)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Shared pooled HTTP client for all providers
	client := provider.NewHTTPClient(cfg.HTTPTimeout)

	tracker := metrics.NewTracker()
	marketClient := market.NewClient(client, "", "", cfg.MoralisAPIKey)
	enrichClient := enrich.NewClient(client, cfg.MoralisAPIKey, cfg.MetasleuthAPIKey, cfg.EtherscanAPIKey)

	sources := []provider.Source{
		provider.NewAlchemy(client, "", cfg.AlchemyAPIKey),
		provider.NewEtherscan(client, "", cfg.EtherscanAPIKey),
		provider.NewInfura(client, "", cfg.InfuraAPIKey),
		provider.NewMoralis(client, "", cfg.MoralisAPIKey),
	}

	pipeline := &Pipeline{
		cfg:     cfg,
		sources: sources,
		market:  marketClient,
		enrich:  enrichClient,
		tracker: tracker,
	}

	if cfg.EnableTUI {
		resultsChan := make(chan ui.Results, 1)
		app := ui.NewApp(resultsChan, tracker, cfg.UIRefreshRate, func() {
			runCtx, runCancel := context.WithTimeout(ctx, 5*time.Minute)
			defer runCancel()
			if results, err := pipeline.Run(runCtx); err == nil {
				resultsChan <- results
			} else {
				slog.Error("pipeline_failed", "error", err)
			}
		})

		// First run before handing the terminal to the TUI
		go func() {
			runCtx, runCancel := context.WithTimeout(ctx, 5*time.Minute)
			defer runCancel()
			if results, err := pipeline.Run(runCtx); err == nil {
				resultsChan <- results
			} else {
				slog.Error("pipeline_failed", "error", err)
			}
		}()

		go func() {
			select {
			case sig := <-sigChan:
				slog.Info("shutdown_signal_received", "signal", sig.String())
				app.Stop()
			case <-ctx.Done():
				app.Stop()
			}
		}()

		if err := app.Run(); err != nil {
			slog.Error("tui_error", "error", err)
			os.Exit(1)
		}
	} else {
		// Headless mode: one run, results logged and written to disk
		results, err := pipeline.Run(ctx)
		if err != nil {
			slog.Error("pipeline_failed", "error", err)
			os.Exit(1)
		}
		for _, row := range results.Rows {
			slog.Info("summary_row",
				"provider", row.Provider,
				"timestamp", row.Timestamp,
				"from", row.From,
				"to", row.To,
				"value_token", row.ValueToken,
				"value_usd", row.ValueUSD,
				"tx_hash", row.TxHash,
			)
		}
		if results.Impact != nil && results.Impact.Error == "" {
			for label, horizon := range results.Impact.EventPriceImpact {
				slog.Info("price_impact",
					"horizon", label,
					"price", horizon.ImpactPrice,
					"return_pct", horizon.ImpactReturnPercent,
				)
			}
		}
	}

	slog.Info("shutdown_complete")
}

// Pipeline runs the full extraction-to-analysis flow once.
type Pipeline struct {
	cfg     *config.Config
	sources []provider.Source
	market  *market.Client
	enrich  *enrich.Client
	tracker *metrics.Tracker
}

// Run executes one complete pass: extract from every provider, build
// the consensus summary, enrich the latest transfer, fetch candles and
// analyze the price impact.
func (p *Pipeline) Run(ctx context.Context) (ui.Results, error) {
	tokenAddress := p.cfg.TokenAddress
	if tokenAddress == "" {
		resolved, err := p.market.TokenAddress(ctx, p.cfg.TokenSymbol)
		if err != nil {
			return ui.Results{}, err
		}
		tokenAddress = resolved
	}

	// Extract from each provider sequentially; a failing provider
	// contributes a placeholder row, never aborts the run.
	var results []consensus.ProviderResult
	for _, src := range p.sources {
		start := time.Now()
		records, err := src.Fetch(ctx, tokenAddress, p.cfg.MaxTransactions)
		p.tracker.RecordCall(src.Name(), len(records), time.Since(start), err)
		if err != nil {
			slog.Error("provider_failed", "provider", src.Name(), "error", err)
		} else {
			slog.Info("provider_done", "provider", src.Name(), "records", len(records))
		}
		results = append(results, consensus.ProviderResult{
			Provider: src.Name(),
			Records:  records,
		})
	}

	// Spot price scales token values to USD in the summary.
	price, change24h, err := p.market.TokenPrice(ctx, tokenAddress)
	if err != nil {
		slog.Warn("price_lookup_failed", "error", err)
	} else {
		slog.Info("token_price", "usd", price, "change_24h_pct", change24h)
	}

	rows := consensus.Build(results, price)

	if err := os.MkdirAll(p.cfg.DataDir, 0o755); err != nil {
		return ui.Results{}, err
	}
	csvPath := filepath.Join(p.cfg.DataDir, "transfer_summary.csv")
	if err := consensus.WriteCSV(csvPath, rows); err != nil {
		slog.Warn("csv_write_failed", "error", err)
	}

	out := ui.Results{
		Symbol:     p.cfg.TokenSymbol,
		Timeframe:  p.cfg.Timeframe,
		Rows:       rows,
		EventIndex: -1,
	}

	latest, ok := consensus.Latest(rows)
	if !ok {
		slog.Warn("no_transfer_found", "token", tokenAddress)
		return out, nil
	}
	out.Latest = latest
	out.Enrichment = p.enrich.Lookup(ctx, latest.From, latest.To, latest.TxHash)

	candles, err := p.market.FetchOHLCV(ctx, p.cfg.TokenSymbol, p.cfg.Timeframe, latest.Timestamp,
		p.cfg.HoursBefore, p.cfg.HoursAfter, p.cfg.CandleLimit, p.cfg.DataDir)
	if err != nil {
		slog.Warn("ohlcv_fetch_failed", "error", err)
		return out, nil
	}
	out.Candles = candles
	out.EventIndex = eventCandleIndex(candles, latest.Timestamp, market.CandleWidth(p.cfg.Timeframe))

	impactPath := filepath.Join(p.cfg.DataDir, "event_impact_analysis.json")
	out.Impact = impact.Analyze(candles, latest.Timestamp, market.CandleWidth(p.cfg.Timeframe), impactPath)
	if out.Impact.Error != "" {
		slog.Warn("impact_analysis_failed", "error", out.Impact.Error)
	}

	return out, nil
}

// eventCandleIndex finds the candle containing the event timestamp,
// -1 when none does.
func eventCandleIndex(candles []store.Candle, eventTimestamp string, width time.Duration) int {
	eventTime, err := time.Parse(codec.TimeLayout, eventTimestamp)
	if err != nil {
		return -1
	}
	for i, c := range candles {
		start, err := time.Parse(time.RFC3339, c.Timestamp)
		if err != nil {
			continue
		}
		if !eventTime.Before(start) && eventTime.Before(start.Add(width)) {
			return i
		}
	}
	return -1
}

// setupLogger creates a structured logger with the specified level.
// Format: 2025-01-04 14:32:01 [INFO]  message key=value
func setupLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN", "WARNING":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Format("2006-01-02 15:04:05"))
				}
			}
			return a
		},
	}

	handler := slog.NewTextHandler(os.Stdout, opts)
	return slog.New(handler)
}
