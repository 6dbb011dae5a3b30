// Package impact measures how a token's price moves at fixed horizons
// after a whale transfer event.
package impact

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/whalealert/terminal/internal/codec"
	"github.com/whalealert/terminal/internal/store"
)

// Horizons are the fixed forward offsets at which impact is measured,
// in evaluation order.
var Horizons = []struct {
	Label string
	Hours int
}{
	{"1h", 1},
	{"2h", 2},
	{"4h", 4},
	{"8h", 8},
	{"12h", 12},
}

// timeLayouts are the timestamp formats accepted for candles and the
// event, tried in order.
var timeLayouts = []string{
	codec.TimeLayout,
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02 15:04:05",
}

// Analyze computes the price impact of an event over an OHLCV series.
//
// The event candle is the first whose [start, start+candleWidth)
// interval contains the event timestamp; candleWidth must match the
// timeframe the series was fetched at. When no candle contains the
// event, the globally nearest candle by absolute time difference is
// used instead. Each horizon's impact price is the close of the
// candle nearest to event+horizon.
//
// The result is persisted as JSON to outputPath when non-empty. Any
// failure is reported through an error-shaped result rather than an
// error return; callers must check the Error field.
func Analyze(candles []store.Candle, eventTimestamp string, candleWidth time.Duration, outputPath string) *store.PriceImpactResult {
	result, err := analyze(candles, eventTimestamp, candleWidth)
	if err != nil {
		return &store.PriceImpactResult{
			Error:          fmt.Sprintf("Error calculating price impact: %v", err),
			EventTimestamp: eventTimestamp,
			TimeHorizons:   map[string]store.HorizonImpact{},
			AnalysisMetadata: &store.AnalysisMetadata{
				ErrorOccurred:     true,
				AnalysisTimestamp: time.Now().UTC().Format(time.RFC3339),
			},
		}
	}

	if outputPath != "" {
		if err := writeJSON(outputPath, result); err != nil {
			return &store.PriceImpactResult{
				Error:          fmt.Sprintf("Error calculating price impact: %v", err),
				EventTimestamp: eventTimestamp,
				TimeHorizons:   map[string]store.HorizonImpact{},
				AnalysisMetadata: &store.AnalysisMetadata{
					ErrorOccurred:     true,
					AnalysisTimestamp: time.Now().UTC().Format(time.RFC3339),
				},
			}
		}
	}

	return result
}

func analyze(candles []store.Candle, eventTimestamp string, candleWidth time.Duration) (*store.PriceImpactResult, error) {
	if len(candles) == 0 {
		return nil, fmt.Errorf("no candle data")
	}
	if candleWidth <= 0 {
		return nil, fmt.Errorf("invalid candle width %v", candleWidth)
	}

	eventTime, err := parseTimestamp(eventTimestamp)
	if err != nil {
		return nil, fmt.Errorf("invalid event timestamp %q: %w", eventTimestamp, err)
	}

	times := make([]time.Time, len(candles))
	for i, c := range candles {
		t, err := parseTimestamp(c.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("invalid candle timestamp %q: %w", c.Timestamp, err)
		}
		times[i] = t
	}

	// Event candle: exact containment first, nearest fallback second.
	eventIdx := -1
	for i, start := range times {
		if !eventTime.Before(start) && eventTime.Before(start.Add(candleWidth)) {
			eventIdx = i
			break
		}
	}
	if eventIdx < 0 {
		eventIdx = nearest(times, eventTime)
	}
	eventPrice := candles[eventIdx].Close
	if eventPrice == 0 {
		return nil, fmt.Errorf("event candle has zero close price")
	}

	impacts := make(map[string]store.HorizonImpact, len(Horizons))
	for _, h := range Horizons {
		target := eventTime.Add(time.Duration(h.Hours) * time.Hour)
		idx := nearest(times, target)
		price := candles[idx].Close

		pct := (price - eventPrice) / eventPrice * 100
		impacts[h.Label] = store.HorizonImpact{
			HoursAfterEvent:      h.Hours,
			ImpactTimestamp:      times[idx].UTC().Format(codec.TimeLayout),
			ImpactPrice:          price,
			ImpactReturnPercent:  round2(pct),
			ImpactChangeAbsolute: price - eventPrice,
		}
	}

	return &store.PriceImpactResult{
		EventTimestamp:   eventTimestamp,
		EventPrice:       eventPrice,
		EventPriceImpact: impacts,
	}, nil
}

// nearest returns the index of the timestamp with the smallest
// absolute difference to target, first match winning ties.
func nearest(times []time.Time, target time.Time) int {
	best := 0
	bestDiff := absDuration(times[0].Sub(target))
	for i := 1; i < len(times); i++ {
		if d := absDuration(times[i].Sub(target)); d < bestDiff {
			best = i
			bestDiff = d
		}
	}
	return best
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// parseTimestamp accepts the layouts the providers and OHLCV sources
// emit, always interpreting the result as UTC.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format")
}

func writeJSON(path string, result *store.PriceImpactResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result failed: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write result failed: %w", err)
	}
	return nil
}
