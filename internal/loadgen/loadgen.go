// Package loadgen orchestrates repeated workload cycles: generate a batch,
// execute it, feed the long-lived registry on its cadences, and sample.
package loadgen

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/heapbench/heapbench/internal/errors"
	"github.com/heapbench/heapbench/internal/execmode"
	"github.com/heapbench/heapbench/internal/observability"
	"github.com/heapbench/heapbench/internal/registry"
	"github.com/heapbench/heapbench/internal/sampler"
	"github.com/heapbench/heapbench/internal/workload"
)

// Generator states.
const (
	stateIdle int32 = iota
	stateRunning
	stateFinished
)

// Config holds the per-run parameters of a load generator. Cadences are
// cycle-index modulo rules; a cadence of zero disables the action.
type Config struct {
	// Cycles is the number of main-loop iterations.
	Cycles int

	// BatchSize is the number of workload items generated per cycle.
	BatchSize int

	// InsertEvery inserts InsertCount registry entries on matching cycles.
	InsertEvery int

	// InsertCount is the number of entries inserted per insert event.
	InsertCount int

	// InsertPayloadBytes is the payload size of each inserted entry.
	InsertPayloadBytes int

	// EvictEvery runs a randomized eviction sweep on matching cycles.
	EvictEvery int

	// EvictFraction is the independent removal probability per entry.
	EvictFraction float64

	// SampleEvery is the snapshot cadence.
	SampleEvery int

	// ForceGCEvery requests and measures an explicit collection on
	// matching cycles. Zero disables forced collections.
	ForceGCEvery int

	// PreloadEntries fills the registry before the first cycle, emulating a
	// resident dataset. Zero skips the preload.
	PreloadEntries int

	// PreloadPayloadBytes is the payload size of each preloaded entry.
	PreloadPayloadBytes int
}

// Validate checks the configuration before a run begins. Violations are
// fatal InvalidConfiguration errors.
func (c Config) Validate() error {
	if c.Cycles <= 0 {
		return errors.NewInvalidConfiguration(
			fmt.Sprintf("loadgen: cycles must be positive, got %d", c.Cycles))
	}
	if c.BatchSize < 0 {
		return errors.NewInvalidConfiguration(
			fmt.Sprintf("loadgen: batch size must be non-negative, got %d", c.BatchSize))
	}
	if c.EvictFraction < 0 || c.EvictFraction > 1 {
		return errors.NewInvalidConfiguration(
			fmt.Sprintf("loadgen: evict fraction must be in [0,1], got %g", c.EvictFraction))
	}
	for name, v := range map[string]int{
		"insert_every":          c.InsertEvery,
		"insert_count":          c.InsertCount,
		"insert_payload_bytes":  c.InsertPayloadBytes,
		"evict_every":           c.EvictEvery,
		"sample_every":          c.SampleEvery,
		"force_gc_every":        c.ForceGCEvery,
		"preload_entries":       c.PreloadEntries,
		"preload_payload_bytes": c.PreloadPayloadBytes,
	} {
		if v < 0 {
			return errors.NewInvalidConfiguration(
				fmt.Sprintf("loadgen: %s must be non-negative, got %d", name, v))
		}
	}
	return nil
}

// Generator drives the cycle loop. One Generator performs exactly one run;
// its state moves Idle -> Running -> Finished.
type Generator struct {
	cfg      Config
	workload *workload.Generator
	mode     execmode.Mode
	registry *registry.Registry
	sampler  *sampler.Sampler
	stats    *observability.CycleStats

	state   atomic.Int32
	stopped atomic.Bool
}

// New creates a generator over explicitly constructed collaborators. The
// registry's lifecycle is scoped to the caller; nothing survives a run as
// process-wide state.
func New(cfg Config, wl *workload.Generator, mode execmode.Mode, reg *registry.Registry, smp *sampler.Sampler) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if wl == nil || mode == nil || reg == nil || smp == nil {
		return nil, errors.NewInvalidConfiguration("loadgen: all collaborators are required")
	}
	return &Generator{
		cfg:      cfg,
		workload: wl,
		mode:     mode,
		registry: reg,
		sampler:  smp,
		stats:    observability.NewCycleStats(),
	}, nil
}

// Stats returns the aggregate cycle timing statistics collected so far.
func (g *Generator) Stats() observability.Summary {
	return g.stats.Summarize()
}

// Stop requests a cooperative stop. The flag is checked at cycle boundaries
// only; an in-flight batch drains, bounding shutdown latency to one batch.
func (g *Generator) Stop() {
	g.stopped.Store(true)
}

// Running reports whether a run is in progress.
func (g *Generator) Running() bool {
	return g.state.Load() == stateRunning
}

// Finished reports whether the run has completed.
func (g *Generator) Finished() bool {
	return g.state.Load() == stateFinished
}

// Run executes the configured number of cycles and returns the collected
// report. Batch-level failures are logged into the report and never abort
// the run. Run on a generator that is not Idle is an error.
func (g *Generator) Run(ctx context.Context) (*sampler.Report, error) {
	if !g.state.CompareAndSwap(stateIdle, stateRunning) {
		return nil, errors.NewExecutionError(errors.CodeGeneratorBusy,
			"loadgen: generator already ran; construct a new one")
	}
	defer g.state.Store(stateFinished)

	if g.cfg.PreloadEntries > 0 {
		g.preload()
	}

	completed := 0
	for cycle := 0; cycle < g.cfg.Cycles; cycle++ {
		if g.stopped.Load() || ctx.Err() != nil {
			log.Printf("loadgen: stop requested, halting after %d cycles", completed)
			break
		}
		g.runCycle(ctx, cycle)
		completed++
	}

	g.sampler.Finish(completed)

	s := g.stats.Summarize()
	log.Printf("loadgen: %d cycles, %d items, %.0f items/s, cycle p50=%v p95=%v max=%v",
		s.Cycles, s.Items, s.Throughput, s.P50, s.P95, s.Max)

	return g.sampler.Report(), nil
}

// runCycle performs one iteration of the main loop.
func (g *Generator) runCycle(ctx context.Context, cycle int) {
	start := time.Now()
	defer func() {
		g.stats.RecordCycle(time.Since(start), g.cfg.BatchSize)
	}()

	batch, err := g.workload.Generate(g.cfg.BatchSize)
	if err != nil {
		// Unreachable for validated configs, but keep the run alive anyway.
		g.sampler.RecordFailure(cycle, err)
		log.Printf("loadgen: cycle %d generation failed: %v", cycle, err)
		return
	}

	if err := g.mode.Run(ctx, batch, g.workload.Apply); err != nil {
		g.sampler.RecordFailure(cycle, err)
		log.Printf("loadgen: cycle %d: %v", cycle, err)
	}

	if cadence(cycle, g.cfg.InsertEvery) {
		g.insertEntries(cycle)
	}
	if cadence(cycle, g.cfg.EvictEvery) {
		removed := g.registry.EvictRandom(g.cfg.EvictFraction)
		log.Printf("loadgen: cycle %d evicted %d registry entries", cycle, removed)
	}

	g.sampler.MaybeSample(cycle, len(batch), g.registry.Len())
	if cadence(cycle, g.cfg.ForceGCEvery) {
		pause := g.sampler.ForceCollectionSample()
		log.Printf("loadgen: cycle %d forced collection took %v", cycle, pause)
	}
}

// insertEntries derives long-lived entries from the cycle index. Keys are
// deterministic so retention bounds stay testable; payload bytes follow the
// cycle the way the original web-cache workload filled its entries.
func (g *Generator) insertEntries(cycle int) {
	for i := 0; i < g.cfg.InsertCount; i++ {
		payload := make([]byte, g.cfg.InsertPayloadBytes)
		for j := range payload {
			payload[j] = byte(cycle % 256)
		}
		g.registry.Put(fmt.Sprintf("entry_%d_%d", cycle, i), payload)
	}
}

// preload fills the registry with a resident dataset before the first cycle.
func (g *Generator) preload() {
	log.Printf("loadgen: preloading %d registry entries of %d bytes",
		g.cfg.PreloadEntries, g.cfg.PreloadPayloadBytes)
	for i := 0; i < g.cfg.PreloadEntries; i++ {
		payload := make([]byte, g.cfg.PreloadPayloadBytes)
		for j := range payload {
			payload[j] = byte(i % 256)
		}
		g.registry.Put(fmt.Sprintf("preload_%d", i), payload)
	}
}

// cadence reports whether a periodic action fires on this cycle.
func cadence(cycle, every int) bool {
	return every > 0 && cycle%every == 0
}
