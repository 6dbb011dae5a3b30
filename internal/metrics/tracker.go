// Package metrics provides run-level metrics tracking for the
// extraction pipeline.
package metrics

import (
	"sync"
	"time"
)

// ProviderStats tracks the outcome of one provider's extraction calls.
type ProviderStats struct {
	Provider     string
	Calls        int
	Failures     int
	Records      int
	LastLatency  time.Duration
	TotalLatency time.Duration
	LastError    string
	LastCall     time.Time
}

// Snapshot is a point-in-time view of the run.
type Snapshot struct {
	Providers     map[string]*ProviderStats
	RecordsTotal  int64
	FailuresTotal int64
	Uptime        time.Duration
}

// Tracker provides thread-safe tracking of provider call outcomes.
type Tracker struct {
	mu            sync.RWMutex
	providers     map[string]*ProviderStats
	recordsTotal  int64
	failuresTotal int64
	startTime     time.Time
}

// NewTracker creates a new Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		providers: make(map[string]*ProviderStats),
		startTime: time.Now(),
	}
}

// RecordCall records one provider extraction attempt.
func (t *Tracker) RecordCall(provider string, records int, latency time.Duration, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats, exists := t.providers[provider]
	if !exists {
		stats = &ProviderStats{Provider: provider}
		t.providers[provider] = stats
	}

	stats.Calls++
	stats.Records += records
	stats.LastLatency = latency
	stats.TotalLatency += latency
	stats.LastCall = time.Now()
	if err != nil {
		stats.Failures++
		stats.LastError = err.Error()
		t.failuresTotal++
	} else {
		stats.LastError = ""
	}

	t.recordsTotal += int64(records)
}

// Snapshot returns a point-in-time copy of the tracked metrics.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	providersCopy := make(map[string]*ProviderStats, len(t.providers))
	for name, stats := range t.providers {
		statsCopy := *stats
		providersCopy[name] = &statsCopy
	}

	return Snapshot{
		Providers:     providersCopy,
		RecordsTotal:  t.recordsTotal,
		FailuresTotal: t.failuresTotal,
		Uptime:        time.Since(t.startTime),
	}
}

// AverageLatency returns a provider's mean call latency, zero when it
// has not been called.
func (t *Tracker) AverageLatency(provider string) time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stats, ok := t.providers[provider]
	if !ok || stats.Calls == 0 {
		return 0
	}
	return stats.TotalLatency / time.Duration(stats.Calls)
}
