package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"github.com/whalealert/terminal/internal/store"
)

// CandleChartView renders the OHLCV window around the transfer as an
// ASCII candlestick chart: green columns for up candles, red for down,
// with the event candle marked below the axis.
type CandleChartView struct {
	textView   *tview.TextView
	chartRows  int
	maxCandles int
}

// NewCandleChartView creates a new candle chart view.
func NewCandleChartView() *CandleChartView {
	textView := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)

	textView.SetTitle(" Price Chart ").SetBorder(true)

	return &CandleChartView{
		textView:   textView,
		chartRows:  12,
		maxCandles: 48,
	}
}

// Widget returns the tview primitive.
func (v *CandleChartView) Widget() tview.Primitive {
	return v.textView
}

// Update redraws the chart for the candle window. eventIndex marks
// the candle containing the transfer; pass -1 when unknown.
func (v *CandleChartView) Update(symbol, timeframe string, candles []store.Candle, eventIndex int) {
	v.textView.Clear()
	v.textView.SetTitle(fmt.Sprintf(" %s Price Chart (%s) ", strings.ToUpper(symbol), timeframe))

	if len(candles) == 0 {
		fmt.Fprint(v.textView, "No candle data yet...")
		return
	}

	// Window the candles around the event so the chart fits.
	if len(candles) > v.maxCandles {
		start := 0
		if eventIndex >= 0 {
			start = eventIndex - v.maxCandles/2
		}
		if start < 0 {
			start = 0
		}
		if start+v.maxCandles > len(candles) {
			start = len(candles) - v.maxCandles
		}
		candles = candles[start : start+v.maxCandles]
		if eventIndex >= 0 {
			eventIndex -= start
		}
	}

	low, high := candles[0].Low, candles[0].High
	for _, c := range candles {
		if c.Low < low {
			low = c.Low
		}
		if c.High > high {
			high = c.High
		}
	}
	if high == low {
		high = low + 1
	}

	// scale maps a price to a chart row, row 0 at the top.
	scale := func(price float64) int {
		row := int(float64(v.chartRows-1) * (high - price) / (high - low))
		if row < 0 {
			row = 0
		}
		if row > v.chartRows-1 {
			row = v.chartRows - 1
		}
		return row
	}

	var b strings.Builder
	for row := 0; row < v.chartRows; row++ {
		price := high - (high-low)*float64(row)/float64(v.chartRows-1)
		fmt.Fprintf(&b, "%10.6f |", price)

		for _, c := range candles {
			bodyTop := scale(maxFloat(c.Open, c.Close))
			bodyBottom := scale(minFloat(c.Open, c.Close))
			wickTop := scale(c.High)
			wickBottom := scale(c.Low)

			color := "green"
			if c.Close < c.Open {
				color = "red"
			}

			switch {
			case row >= bodyTop && row <= bodyBottom:
				fmt.Fprintf(&b, "[%s]█[-]", color)
			case row >= wickTop && row <= wickBottom:
				fmt.Fprintf(&b, "[%s]│[-]", color)
			default:
				b.WriteByte(' ')
			}
		}
		b.WriteByte('\n')
	}

	// Axis and event marker.
	b.WriteString(strings.Repeat(" ", 11))
	b.WriteByte('+')
	b.WriteString(strings.Repeat("-", len(candles)))
	b.WriteByte('\n')
	if eventIndex >= 0 && eventIndex < len(candles) {
		b.WriteString(strings.Repeat(" ", 12+eventIndex))
		b.WriteString("[yellow]^ event[-]\n")
	}

	fmt.Fprint(v.textView, b.String())
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
