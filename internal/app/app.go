// Package app provides the unified application lifecycle for the heapbench driver.
package app

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/heapbench/heapbench/internal/config"
	"github.com/heapbench/heapbench/internal/execmode"
	"github.com/heapbench/heapbench/internal/loadgen"
	"github.com/heapbench/heapbench/internal/registry"
	"github.com/heapbench/heapbench/internal/report"
	"github.com/heapbench/heapbench/internal/sampler"
	"github.com/heapbench/heapbench/internal/scenario"
	"github.com/heapbench/heapbench/internal/storage"
	"github.com/heapbench/heapbench/internal/workload"
)

// App wires the configured scenario into a load generator and delivers the
// collected report to the configured sinks.
type App struct {
	cfg      *config.Config
	scenario scenario.Scenario

	// Shared resources
	store      storage.ObjectStorage
	sqliteSink *report.SQLiteSink
	sink       report.Sink

	generator *loadgen.Generator

	// Lifecycle
	mu      sync.Mutex
	running bool
}

// New creates a new App with the given configuration.
func New(cfg *config.Config) (*App, error) {
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	sc, err := cfg.BuildScenario()
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:      cfg,
		scenario: sc,
	}, nil
}

// Scenario returns the resolved scenario, overrides applied.
func (a *App) Scenario() scenario.Scenario {
	return a.scenario
}

// Run executes the configured scenario once and delivers the report.
// It blocks until the run completes, is stopped, or ctx is cancelled.
func (a *App) Run(ctx context.Context) (*sampler.Report, error) {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return nil, fmt.Errorf("app is already running")
	}
	a.running = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
		a.cleanup()
	}()

	if err := a.initSinks(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize report sinks: %w", err)
	}

	gen, err := a.buildGenerator()
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.generator = gen
	a.mu.Unlock()

	log.Printf("Scenario %s: %s", a.scenario.Name, a.scenario.Description)
	log.Printf("Run parameters: cycles=%d, batch=%d, mode=%s, workers=%d",
		a.scenario.Run.Cycles, a.scenario.Run.BatchSize, a.scenario.Mode, a.scenario.EffectiveWorkers())

	rep, err := gen.Run(ctx)
	if err != nil {
		return nil, err
	}

	log.Printf("Run %s finished: cycles=%d, samples=%d, failures=%d, elapsed=%s",
		rep.RunID, rep.Cycles, len(rep.Samples), len(rep.Failures), rep.Elapsed)

	if err := a.sink.Write(ctx, rep); err != nil {
		return rep, fmt.Errorf("failed to deliver report: %w", err)
	}
	log.Printf("Report delivered: %s", report.ArtifactName(rep, a.cfg.Report.Compress))

	return rep, nil
}

// Stop requests a cooperative stop of the in-flight run. The run finishes
// the current cycle before winding down.
func (a *App) Stop() {
	a.mu.Lock()
	gen := a.generator
	a.mu.Unlock()

	if gen != nil {
		gen.Stop()
	}
}

// buildGenerator assembles the load generator from the resolved scenario.
func (a *App) buildGenerator() (*loadgen.Generator, error) {
	mode, err := execmode.FromName(a.scenario.Mode, a.scenario.EffectiveWorkers())
	if err != nil {
		return nil, err
	}

	wl := workload.NewGenerator(a.scenario.Shape)
	reg := registry.New()
	smp := sampler.New(a.scenario.Name, a.scenario.Run.SampleEvery)

	return loadgen.New(a.scenario.Run, wl, mode, reg, smp)
}

// initSinks builds the report delivery chain: always a file artifact, plus
// SQLite persistence and object-storage export when configured.
func (a *App) initSinks(ctx context.Context) error {
	sinks := []report.Sink{
		report.NewFileSink(a.cfg.Report.OutputDir, a.cfg.Report.Compress),
	}

	if a.cfg.Report.SQLitePath != "" {
		sqlSink, err := report.NewSQLiteSink(a.cfg.Report.SQLitePath)
		if err != nil {
			return fmt.Errorf("failed to open results database: %w", err)
		}
		a.sqliteSink = sqlSink
		sinks = append(sinks, sqlSink)
		log.Printf("Results database: %s", a.cfg.Report.SQLitePath)
	}

	switch a.cfg.Storage.Type {
	case "local":
		store, err := storage.NewLocalStorage(a.cfg.Storage.Path)
		if err != nil {
			return fmt.Errorf("failed to initialize local storage: %w", err)
		}
		a.store = store
	case "s3":
		s3Cfg := storage.DefaultS3Config()
		if a.cfg.Storage.S3.Region != "" {
			s3Cfg.Region = a.cfg.Storage.S3.Region
		}
		if a.cfg.Storage.S3.Endpoint != "" {
			s3Cfg.Endpoint = a.cfg.Storage.S3.Endpoint
		}
		store, err := storage.NewS3Storage(ctx, a.cfg.Storage.S3.Bucket, s3Cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize s3 storage: %w", err)
		}
		a.store = store
	}
	if a.store != nil {
		sinks = append(sinks, report.NewStorageSink(a.store, a.cfg.Storage.Prefix, a.cfg.Report.Compress))
		log.Printf("Storage export: type=%s, prefix=%s", a.cfg.Storage.Type, a.cfg.Storage.Prefix)
	}

	a.sink = report.NewMultiSink(sinks...)
	return nil
}

// cleanup releases shared resources.
func (a *App) cleanup() {
	if a.sqliteSink != nil {
		if err := a.sqliteSink.Close(); err != nil {
			log.Printf("Results database close error: %v", err)
		}
		a.sqliteSink = nil
	}
}
