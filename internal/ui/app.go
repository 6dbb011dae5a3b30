// Package ui provides terminal user interface components.
package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/whalealert/terminal/internal/metrics"
	"github.com/whalealert/terminal/internal/store"
)

// Results is one complete pipeline run, ready for display.
type Results struct {
	Symbol     string
	Timeframe  string
	Rows       []store.SummaryRow
	Latest     store.SummaryRow
	Enrichment store.Enrichment
	Candles    []store.Candle
	EventIndex int
	Impact     *store.PriceImpactResult
}

// App is the main TUI application.
type App struct {
	app    *tview.Application
	layout *tview.Flex

	// Views
	summaryTable   *SummaryTableView
	transferDetail *TransferDetailView
	impactTable    *ImpactTableView
	candleChart    *CandleChartView
	statsView      *StatsView

	// Data
	resultsChan <-chan Results
	tracker     *metrics.Tracker
	onRefresh   func()
	refreshRate time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates a new TUI application. onRefresh is invoked when the
// user presses 'r'; a fresh pipeline run should arrive on resultsChan.
func NewApp(resultsChan <-chan Results, tracker *metrics.Tracker, refreshRate time.Duration, onRefresh func()) *App {
	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		app:         tview.NewApplication(),
		resultsChan: resultsChan,
		tracker:     tracker,
		onRefresh:   onRefresh,
		refreshRate: refreshRate,
		ctx:         ctx,
		cancel:      cancel,
	}

	// Initialize views
	app.summaryTable = NewSummaryTableView()
	app.transferDetail = NewTransferDetailView()
	app.impactTable = NewImpactTableView()
	app.candleChart = NewCandleChartView()
	app.statsView = NewStatsView()

	app.setupLayout()
	app.setupKeyboard()

	return app
}

// setupLayout creates the 5-panel layout.
func (a *App) setupLayout() {
	// Top row: Provider Summary (full width)
	topRow := a.summaryTable.Widget()

	// Middle row: Transfer Detail (left) | Price Chart (right)
	middleRow := tview.NewFlex().
		AddItem(a.transferDetail.Widget(), 0, 1, false).
		AddItem(a.candleChart.Widget(), 0, 2, false)

	// Bottom row: Price Impact (left) | Extraction Stats (right)
	bottomRow := tview.NewFlex().
		AddItem(a.impactTable.Widget(), 0, 2, false).
		AddItem(a.statsView.Widget(), 0, 1, false)

	a.layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(topRow, 0, 2, false).
		AddItem(middleRow, 0, 3, false).
		AddItem(bottomRow, 0, 2, false)

	a.app.SetRoot(a.layout, true)
}

// setupKeyboard configures keyboard shortcuts.
func (a *App) setupKeyboard() {
	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC:
			a.Stop()
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case 'q', 'Q':
				a.Stop()
				return nil
			case 'r', 'R':
				if a.onRefresh != nil {
					go a.onRefresh()
				}
				return nil
			}
		}
		return event
	})
}

// Run starts the TUI application (blocking).
func (a *App) Run() error {
	go a.processResults()
	go a.updateLoop()

	if err := a.app.Run(); err != nil {
		return fmt.Errorf("app run failed: %w", err)
	}

	return nil
}

// Stop gracefully stops the application.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}

// processResults reads completed pipeline runs and updates views.
func (a *App) processResults() {
	for {
		select {
		case <-a.ctx.Done():
			return
		case results, ok := <-a.resultsChan:
			if !ok {
				return
			}

			a.app.QueueUpdateDraw(func() {
				a.summaryTable.Update(results.Rows)
				a.transferDetail.Update(results.Latest, results.Enrichment)
				a.candleChart.Update(results.Symbol, results.Timeframe, results.Candles, results.EventIndex)
				a.impactTable.Update(results.Impact)
			})
		}
	}
}

// updateLoop periodically refreshes the stats view.
func (a *App) updateLoop() {
	ticker := time.NewTicker(a.refreshRate)
	defer ticker.Stop()

	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			snapshot := a.tracker.Snapshot()

			a.app.QueueUpdateDraw(func() {
				a.statsView.Update(snapshot)
			})
		}
	}
}
