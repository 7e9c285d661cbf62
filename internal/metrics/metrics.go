package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	CandidatesDiscovered int64
	ArticlesResolved     int64
	DuplicatesFiltered   int64
	FetchRetries         int64
	StoreFailures        int64
	ArticlesIndexed      int64
	BriefsGenerated      int64

	// Timings
	LastRunDuration    time.Duration
	TotalRunDuration   time.Duration
	RunCount           int64
	AverageRunDuration time.Duration

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

func (m *Metrics) AddCandidates(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CandidatesDiscovered += int64(n)
}

func (m *Metrics) AddResolved(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesResolved += int64(n)
}

func (m *Metrics) IncrementDuplicatesFiltered() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesFiltered++
}

func (m *Metrics) IncrementFetchRetries() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FetchRetries++
}

func (m *Metrics) IncrementStoreFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StoreFailures++
}

func (m *Metrics) IncrementArticlesIndexed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesIndexed++
}

func (m *Metrics) IncrementBriefsGenerated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BriefsGenerated++
}

func (m *Metrics) RecordRunDuration(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastRunDuration = duration
	m.TotalRunDuration += duration
	m.RunCount++

	if m.RunCount > 0 {
		m.AverageRunDuration = m.TotalRunDuration / time.Duration(m.RunCount)
	}
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"candidates_discovered":   m.CandidatesDiscovered,
		"articles_resolved":       m.ArticlesResolved,
		"duplicates_filtered":     m.DuplicatesFiltered,
		"fetch_retries":           m.FetchRetries,
		"store_failures":          m.StoreFailures,
		"articles_indexed":        m.ArticlesIndexed,
		"briefs_generated":        m.BriefsGenerated,
		"last_run_duration_ms":    m.LastRunDuration.Milliseconds(),
		"average_run_duration_ms": m.AverageRunDuration.Milliseconds(),
		"last_run_time":           m.LastRunTime.Format(time.RFC3339),
		"last_error_time":         m.LastErrorTime.Format(time.RFC3339),
		"last_error":              m.LastError,
		"is_healthy":              m.IsHealthy,
	}
}
