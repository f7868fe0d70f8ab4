// Package sampler records wall-clock and heap-usage snapshots at a
// configurable cycle cadence and accumulates them into a run report.
package sampler

import (
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SampleRecord is one snapshot of the run. Pause is non-zero only when an
// explicit collection was requested while this was the most recent record.
type SampleRecord struct {
	Cycle        int           `json:"cycle"`
	Timestamp    time.Time     `json:"timestamp"`
	HeapAlloc    uint64        `json:"heap_alloc"`
	HeapSys      uint64        `json:"heap_sys"`
	HeapObjects  uint64        `json:"heap_objects"`
	NumGC        uint32        `json:"num_gc"`
	ActiveItems  int           `json:"active_items"`
	RegistrySize int           `json:"registry_size"`
	Pause        time.Duration `json:"pause_ns"`
}

// FailureRecord is a batch-level failure logged into the report.
type FailureRecord struct {
	Cycle   int    `json:"cycle"`
	Message string `json:"message"`
}

// Report is the ordered sequence of samples and failures collected by one
// sampler. It is the harness's output.
type Report struct {
	RunID     string          `json:"run_id"`
	Scenario  string          `json:"scenario"`
	StartedAt time.Time       `json:"started_at"`
	Elapsed   time.Duration   `json:"elapsed_ns"`
	Cycles    int             `json:"cycles_completed"`
	Samples   []SampleRecord  `json:"samples"`
	Failures  []FailureRecord `json:"failures"`
}

// Sampler accumulates SampleRecords for one run. Restartable only by
// constructing a new Sampler.
type Sampler struct {
	mu        sync.Mutex
	interval  int
	runID     string
	scenario  string
	startedAt time.Time
	elapsed   time.Duration
	cycles    int
	samples   []SampleRecord
	failures  []FailureRecord
}

// New creates a sampler recording on cycles where cycle % interval == 0.
// An interval below 1 records every cycle.
func New(scenario string, interval int) *Sampler {
	if interval < 1 {
		interval = 1
	}
	return &Sampler{
		interval:  interval,
		runID:     uuid.New().String(),
		scenario:  scenario,
		startedAt: time.Now(),
	}
}

// RunID returns the sampler's run identifier.
func (s *Sampler) RunID() string {
	return s.runID
}

// MaybeSample records a snapshot when the cycle index matches the cadence.
// Returns true if a record was appended.
func (s *Sampler) MaybeSample(cycle, activeItems, registrySize int) bool {
	if cycle%s.interval != 0 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, s.snapshot(cycle, activeItems, registrySize))
	return true
}

// ForceCollectionSample requests a full collection from the runtime and
// attaches the measured wall time to the most recent SampleRecord, taking a
// fresh snapshot first if no record exists yet. The request is a hint: a
// zero or near-zero duration is a valid measurement.
func (s *Sampler) ForceCollectionSample() time.Duration {
	start := time.Now()
	runtime.GC()
	pause := time.Since(start)

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.samples) == 0 {
		s.samples = append(s.samples, s.snapshot(0, 0, 0))
	}
	s.samples[len(s.samples)-1].Pause = pause
	return pause
}

// RecordFailure logs a batch-level failure into the report.
func (s *Sampler) RecordFailure(cycle int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, FailureRecord{Cycle: cycle, Message: err.Error()})
}

// Finish stamps the report with total elapsed time and completed cycles.
func (s *Sampler) Finish(cyclesCompleted int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycles = cyclesCompleted
	s.elapsed = time.Since(s.startedAt)
}

// Report returns a copy of the sequence collected so far. Calling it twice
// without an intervening sample yields identical reports.
func (s *Sampler) Report() *Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := &Report{
		RunID:     s.runID,
		Scenario:  s.scenario,
		StartedAt: s.startedAt,
		Elapsed:   s.elapsed,
		Cycles:    s.cycles,
		Samples:   make([]SampleRecord, len(s.samples)),
		Failures:  make([]FailureRecord, len(s.failures)),
	}
	copy(report.Samples, s.samples)
	copy(report.Failures, s.failures)
	return report
}

// snapshot reads the runtime heap figures. Callers hold s.mu.
func (s *Sampler) snapshot(cycle, activeItems, registrySize int) SampleRecord {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	return SampleRecord{
		Cycle:        cycle,
		Timestamp:    time.Now(),
		HeapAlloc:    stats.HeapAlloc,
		HeapSys:      stats.HeapSys,
		HeapObjects:  stats.HeapObjects,
		NumGC:        stats.NumGC,
		ActiveItems:  activeItems,
		RegistrySize: registrySize,
	}
}
