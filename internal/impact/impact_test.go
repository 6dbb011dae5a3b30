package impact

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/whalealert/terminal/internal/store"
)

// hourlyCandles builds a series of 1h candles starting at start, one
// close price per candle.
func hourlyCandles(start time.Time, closes []float64) []store.Candle {
	candles := make([]store.Candle, len(closes))
	for i, c := range closes {
		candles[i] = store.Candle{
			Timestamp: start.Add(time.Duration(i) * time.Hour).Format(time.RFC3339),
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
		}
	}
	return candles
}

func TestAnalyzeHorizons(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	closes := make([]float64, 14)
	for i := range closes {
		closes[i] = 100 + float64(i) // 100 at the event, 101 after 1h, ...
	}
	candles := hourlyCandles(start, closes)

	// Event falls inside the first candle
	result := Analyze(candles, "2024-01-01 00:30:00 UTC", time.Hour, "")

	if result.Error != "" {
		t.Fatalf("unexpected error: %s", result.Error)
	}
	if result.EventPrice != 100 {
		t.Errorf("event price = %v, want 100", result.EventPrice)
	}
	if len(result.EventPriceImpact) != 5 {
		t.Fatalf("got %d horizons, want 5", len(result.EventPriceImpact))
	}

	oneHour := result.EventPriceImpact["1h"]
	if oneHour.ImpactPrice != 101 {
		t.Errorf("1h impact price = %v, want 101", oneHour.ImpactPrice)
	}
	if oneHour.ImpactReturnPercent != 1.0 {
		t.Errorf("1h return = %v, want 1.0", oneHour.ImpactReturnPercent)
	}
	if oneHour.ImpactChangeAbsolute != 1.0 {
		t.Errorf("1h change = %v, want 1.0", oneHour.ImpactChangeAbsolute)
	}

	twelveHours := result.EventPriceImpact["12h"]
	if twelveHours.ImpactPrice != 112 {
		t.Errorf("12h impact price = %v, want 112", twelveHours.ImpactPrice)
	}
	if twelveHours.ImpactReturnPercent != 12.0 {
		t.Errorf("12h return = %v, want 12.0", twelveHours.ImpactReturnPercent)
	}
	if twelveHours.HoursAfterEvent != 12 {
		t.Errorf("12h hours = %d, want 12", twelveHours.HoursAfterEvent)
	}
}

func TestAnalyzeTenPercentMove(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	closes := []float64{100, 110, 110, 110, 110, 110, 110, 110, 110, 110, 110, 110, 110}
	candles := hourlyCandles(start, closes)

	result := Analyze(candles, "2024-01-01 00:00:00 UTC", time.Hour, "")

	if result.Error != "" {
		t.Fatalf("unexpected error: %s", result.Error)
	}
	oneHour := result.EventPriceImpact["1h"]
	if oneHour.ImpactReturnPercent != 10.0 {
		t.Errorf("1h return = %v, want 10.0", oneHour.ImpactReturnPercent)
	}
	if oneHour.ImpactChangeAbsolute != 10.0 {
		t.Errorf("1h change = %v, want 10.0", oneHour.ImpactChangeAbsolute)
	}
}

func TestAnalyzeNearestFallback(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := hourlyCandles(start, []float64{100, 105, 110})

	// Event precedes the whole series; the nearest candle is the first
	result := Analyze(candles, "2023-12-31 20:00:00 UTC", time.Hour, "")

	if result.Error != "" {
		t.Fatalf("unexpected error: %s", result.Error)
	}
	if result.EventPrice != 100 {
		t.Errorf("event price = %v, want 100 (nearest candle)", result.EventPrice)
	}
}

func TestAnalyzeWiderCandles(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := []store.Candle{
		{Timestamp: start.Format(time.RFC3339), Close: 100},
		{Timestamp: start.Add(4 * time.Hour).Format(time.RFC3339), Close: 120},
	}

	// With 4h candles an event 3h in still lands in the first candle
	result := Analyze(candles, "2024-01-01 03:00:00 UTC", 4*time.Hour, "")

	if result.Error != "" {
		t.Fatalf("unexpected error: %s", result.Error)
	}
	if result.EventPrice != 100 {
		t.Errorf("event price = %v, want 100", result.EventPrice)
	}
}

func TestAnalyzeErrorShape(t *testing.T) {
	tests := []struct {
		name      string
		candles   []store.Candle
		timestamp string
	}{
		{"no candles", nil, "2024-01-01 00:00:00 UTC"},
		{"bad event timestamp", hourlyCandles(time.Now().UTC(), []float64{1}), "soon"},
		{"zero close price", hourlyCandles(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), []float64{0}), "2024-01-01 00:00:00 UTC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Analyze(tt.candles, tt.timestamp, time.Hour, "")

			if result.Error == "" {
				t.Fatal("expected error-shaped result")
			}
			if !strings.HasPrefix(result.Error, "Error calculating price impact:") {
				t.Errorf("error = %q, want the calculating prefix", result.Error)
			}
			if result.EventTimestamp != tt.timestamp {
				t.Errorf("event timestamp = %q, want %q", result.EventTimestamp, tt.timestamp)
			}
			if result.TimeHorizons == nil || len(result.TimeHorizons) != 0 {
				t.Errorf("time horizons = %v, want empty map", result.TimeHorizons)
			}
			if result.AnalysisMetadata == nil || !result.AnalysisMetadata.ErrorOccurred {
				t.Error("analysis metadata missing or error flag unset")
			}
		})
	}
}

func TestAnalyzeWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "impact.json")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	closes := make([]float64, 14)
	for i := range closes {
		closes[i] = 100
	}

	result := Analyze(hourlyCandles(start, closes), "2024-01-01 00:00:00 UTC", time.Hour, path)
	if result.Error != "" {
		t.Fatalf("unexpected error: %s", result.Error)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}

	var persisted store.PriceImpactResult
	if err := json.Unmarshal(data, &persisted); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if persisted.EventPrice != 100 {
		t.Errorf("persisted event price = %v, want 100", persisted.EventPrice)
	}
	if len(persisted.EventPriceImpact) != 5 {
		t.Errorf("persisted horizons = %d, want 5", len(persisted.EventPriceImpact))
	}
}
