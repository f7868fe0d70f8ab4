// Package main implements the heapbench binary, a driver that runs one
// named allocation scenario and exports the collected samples.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/heapbench/heapbench/internal/app"
	"github.com/heapbench/heapbench/internal/config"
	"github.com/heapbench/heapbench/internal/scenario"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	// Parse command line flags
	var (
		configFile   string
		scenarioName string
		dataDir      string
		cycles       int
		batchSize    int
		workers      int
		mode         string
		outDir       string
		compress     bool
		sqlitePath   string
		showVersion  bool
		showHelp     bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&scenarioName, "scenario", "", "Scenario preset to run: "+strings.Join(scenario.Names(), ", "))
	flag.StringVar(&dataDir, "data-dir", "", "Base directory for all output files")
	flag.IntVar(&cycles, "cycles", 0, "Override the preset cycle count")
	flag.IntVar(&batchSize, "batch", 0, "Override the preset batch size")
	flag.IntVar(&workers, "workers", 0, "Override the worker pool width")
	flag.StringVar(&mode, "mode", "", "Override the execution mode: sequential, pool, parallel")
	flag.StringVar(&outDir, "out", "", "Directory for report artifacts")
	flag.BoolVar(&compress, "compress", false, "Write snappy-compressed report artifacts")
	flag.StringVar(&sqlitePath, "sqlite", "", "Results database path (empty disables persistence)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showHelp, "help", false, "Show help message")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Heapbench - Synthetic Allocation Workload Harness\n\n")
		fmt.Fprintf(os.Stderr, "Usage: heapbench [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  heapbench --scenario small-object\n")
		fmt.Fprintf(os.Stderr, "  heapbench --scenario web-cache --cycles 200 --out ./reports\n")
		fmt.Fprintf(os.Stderr, "  heapbench --config /etc/heapbench/config.yaml\n")
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  HEAPBENCH_SCENARIO       Scenario preset to run\n")
		fmt.Fprintf(os.Stderr, "  HEAPBENCH_DATA_DIR       Base directory for output files\n")
		fmt.Fprintf(os.Stderr, "  HEAPBENCH_MODE           Execution mode override\n")
		fmt.Fprintf(os.Stderr, "  HEAPBENCH_STORAGE_TYPE   Storage export type (none, local, s3)\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("heapbench version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := loadConfig(configFile, scenarioName, dataDir, cycles, batchSize, workers, mode, outDir, compress, sqlitePath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create the application
	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Print startup banner
	printBanner(cfg, application)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// First signal requests a cooperative stop; a second one aborts the run.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		log.Printf("Received signal: %v, stopping after current cycle", sig)
		application.Stop()
		sig = <-sigCh
		log.Printf("Received signal: %v, aborting", sig)
		cancel()
	}()

	if _, err := application.Run(ctx); err != nil {
		log.Fatalf("Run failed: %v", err)
	}
}

// loadConfig loads configuration from file, environment, and command line flags.
func loadConfig(configFile, scenarioName, dataDir string, cycles, batchSize, workers int, mode, outDir string, compress bool, sqlitePath string) (*config.Config, error) {
	var cfg *config.Config
	var err error

	// Start with defaults or load from file
	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	// Apply environment variables
	config.LoadFromEnv(cfg)

	// Apply command line flags (highest priority)
	if scenarioName != "" {
		cfg.Scenario = scenarioName
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if cycles > 0 {
		cfg.Overrides.Cycles = cycles
	}
	if batchSize > 0 {
		cfg.Overrides.BatchSize = batchSize
	}
	if workers > 0 {
		cfg.Overrides.Workers = workers
	}
	if mode != "" {
		cfg.Overrides.Mode = mode
	}
	if outDir != "" {
		cfg.Report.OutputDir = outDir
	}
	if compress {
		cfg.Report.Compress = true
	}
	if sqlitePath != "" {
		cfg.Report.SQLitePath = sqlitePath
	}

	return cfg, nil
}

// printBanner prints the startup banner with configuration summary.
func printBanner(cfg *config.Config, application *app.App) {
	sc := application.Scenario()

	log.Printf("╔═══════════════════════════════════════════════════════════╗")
	log.Printf("║                      HEAPBENCH                            ║")
	log.Printf("║        Synthetic Allocation Workload Harness              ║")
	log.Printf("╚═══════════════════════════════════════════════════════════╝")
	log.Printf("")
	log.Printf("Configuration:")
	log.Printf("  Scenario: %s (%s)", sc.Name, sc.Description)
	log.Printf("  Mode:     %s (workers: %d)", sc.Mode, sc.EffectiveWorkers())
	log.Printf("  Cycles:   %d x %d items", sc.Run.Cycles, sc.Run.BatchSize)
	log.Printf("  Data Dir: %s", cfg.DataDir)
	if cfg.Report.SQLitePath != "" {
		log.Printf("  Results:  %s", cfg.Report.SQLitePath)
	}
	if cfg.Storage.Type != "none" {
		log.Printf("  Storage:  %s", cfg.Storage.Type)
	}
	log.Printf("")
}
