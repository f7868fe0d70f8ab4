// Package observability provides cycle timing statistics for throughput
// monitoring and run summaries.
package observability

import (
	"sort"
	"sync"
	"time"
)

// CycleStats tracks per-cycle durations and item counts across a run.
type CycleStats struct {
	mu        sync.RWMutex
	durations []time.Duration
	items     int64
	started   time.Time
}

// Summary holds the aggregate view of a run's cycle timings.
type Summary struct {
	Cycles  int
	Items   int64
	Elapsed time.Duration

	// Throughput is items processed per second over the whole run.
	Throughput float64

	// Cycle duration percentiles.
	P50 time.Duration
	P95 time.Duration
	P99 time.Duration
	Max time.Duration
}

// NewCycleStats creates a new cycle statistics tracker. The run clock starts
// immediately.
func NewCycleStats() *CycleStats {
	return &CycleStats{
		started: time.Now(),
	}
}

// RecordCycle records one completed cycle.
// This method is O(1) and thread-safe.
func (c *CycleStats) RecordCycle(duration time.Duration, items int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.durations = append(c.durations, duration)
	c.items += int64(items)
}

// Summarize returns the aggregate statistics over all recorded cycles.
// Percentiles are computed over a copy so recording can continue concurrently.
func (c *CycleStats) Summarize() Summary {
	c.mu.RLock()
	durations := make([]time.Duration, len(c.durations))
	copy(durations, c.durations)
	items := c.items
	elapsed := time.Since(c.started)
	c.mu.RUnlock()

	s := Summary{
		Cycles:  len(durations),
		Items:   items,
		Elapsed: elapsed,
	}
	if len(durations) == 0 {
		return s
	}

	if secs := elapsed.Seconds(); secs > 0 {
		s.Throughput = float64(items) / secs
	}

	sort.Slice(durations, func(i, j int) bool {
		return durations[i] < durations[j]
	})
	s.P50 = percentile(durations, 0.50)
	s.P95 = percentile(durations, 0.95)
	s.P99 = percentile(durations, 0.99)
	s.Max = durations[len(durations)-1]

	return s
}

// percentile returns the value at fraction p of the sorted slice.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}
