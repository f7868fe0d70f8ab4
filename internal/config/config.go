// Package config provides unified configuration for the heapbench driver.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/heapbench/heapbench/internal/errors"
	"github.com/heapbench/heapbench/internal/scenario"
)

// Config holds the unified configuration for a harness run.
type Config struct {
	// Scenario names the workload preset to run.
	Scenario string `json:"scenario" yaml:"scenario"`

	// DataDir is the base directory for all output files.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Overrides adjust the selected preset.
	Overrides OverrideConfig `json:"overrides" yaml:"overrides"`

	// Report configures where the collected report goes.
	Report ReportConfig `json:"report" yaml:"report"`

	// Storage configures optional object-storage export.
	Storage StorageConfig `json:"storage" yaml:"storage"`
}

// OverrideConfig adjusts individual preset parameters. Zero values leave the
// preset untouched.
type OverrideConfig struct {
	// Cycles overrides the preset cycle count.
	Cycles int `json:"cycles" yaml:"cycles"`

	// BatchSize overrides the preset batch size.
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// Workers overrides the worker pool width.
	Workers int `json:"workers" yaml:"workers"`

	// Mode overrides the execution mode: sequential, pool, parallel.
	Mode string `json:"mode" yaml:"mode"`
}

// ReportConfig holds report export configuration.
type ReportConfig struct {
	// OutputDir is the directory for JSON artifacts.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Compress writes snappy-compressed artifacts.
	Compress bool `json:"compress" yaml:"compress"`

	// SQLitePath is the results database path. Empty disables persistence.
	SQLitePath string `json:"sqlite_path" yaml:"sqlite_path"`
}

// StorageConfig holds object-storage export configuration.
type StorageConfig struct {
	// Type is the storage type: none, local, s3.
	Type string `json:"type" yaml:"type"`

	// Path is the local storage path (for local type).
	Path string `json:"path" yaml:"path"`

	// Prefix is the object path prefix for uploaded artifacts.
	Prefix string `json:"prefix" yaml:"prefix"`

	// S3 configuration (for s3 type).
	S3 S3Config `json:"s3" yaml:"s3"`
}

// S3Config holds S3 storage configuration.
type S3Config struct {
	// Bucket is the S3 bucket name.
	Bucket string `json:"bucket" yaml:"bucket"`

	// Region is the AWS region.
	Region string `json:"region" yaml:"region"`

	// Endpoint is the S3 endpoint (for S3-compatible storage).
	Endpoint string `json:"endpoint" yaml:"endpoint"`
}

// DefaultConfig returns the default configuration for local runs.
func DefaultConfig() *Config {
	return &Config{
		Scenario: "small-object",
		DataDir:  "./data/heapbench",
		Storage: StorageConfig{
			Type:   "none",
			Prefix: "reports/",
		},
	}
}

// Resolve sets path defaults based on DataDir.
func (c *Config) Resolve() {
	if c.DataDir == "" {
		c.DataDir = "./data/heapbench"
	}
	if c.Report.OutputDir == "" {
		c.Report.OutputDir = filepath.Join(c.DataDir, "reports")
	}
	if c.Storage.Type == "local" && c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(c.DataDir, "storage")
	}
	if c.Storage.Prefix == "" {
		c.Storage.Prefix = "reports/"
	}
}

// Validate validates the configuration. Violations are fatal
// InvalidConfiguration errors reported before a run begins.
func (c *Config) Validate() error {
	if _, err := scenario.Lookup(c.Scenario); err != nil {
		return err
	}

	if c.Overrides.Cycles < 0 {
		return errors.NewInvalidConfiguration(
			fmt.Sprintf("overrides.cycles must be non-negative, got %d", c.Overrides.Cycles))
	}
	if c.Overrides.BatchSize < 0 {
		return errors.NewInvalidConfiguration(
			fmt.Sprintf("overrides.batch_size must be non-negative, got %d", c.Overrides.BatchSize))
	}
	if c.Overrides.Workers < 0 {
		return errors.NewInvalidConfiguration(
			fmt.Sprintf("overrides.workers must be non-negative, got %d", c.Overrides.Workers))
	}
	switch c.Overrides.Mode {
	case "", "sequential", "pool", "parallel":
	default:
		return errors.NewInvalidConfiguration(
			fmt.Sprintf("overrides.mode must be sequential, pool, or parallel, got %q", c.Overrides.Mode))
	}

	switch c.Storage.Type {
	case "none", "local", "s3":
	default:
		return errors.NewInvalidConfiguration(
			fmt.Sprintf("storage.type must be none, local, or s3, got %q", c.Storage.Type))
	}
	if c.Storage.Type == "s3" && c.Storage.S3.Bucket == "" {
		return errors.NewInvalidConfiguration("storage.s3.bucket is required when storage type is s3")
	}

	return nil
}

// BuildScenario resolves the preset and applies the overrides.
func (c *Config) BuildScenario() (scenario.Scenario, error) {
	s, err := scenario.Lookup(c.Scenario)
	if err != nil {
		return scenario.Scenario{}, err
	}

	if c.Overrides.Cycles > 0 {
		s.Run.Cycles = c.Overrides.Cycles
	}
	if c.Overrides.BatchSize > 0 {
		s.Run.BatchSize = c.Overrides.BatchSize
	}
	if c.Overrides.Workers > 0 {
		s.Workers = c.Overrides.Workers
	}
	if c.Overrides.Mode != "" {
		s.Mode = c.Overrides.Mode
	}
	return s, nil
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the HEAPBENCH_ prefix.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("HEAPBENCH_SCENARIO"); v != "" {
		cfg.Scenario = v
	}
	if v := os.Getenv("HEAPBENCH_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	// Override configuration
	if v := os.Getenv("HEAPBENCH_CYCLES"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Overrides.Cycles)
	}
	if v := os.Getenv("HEAPBENCH_BATCH_SIZE"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Overrides.BatchSize)
	}
	if v := os.Getenv("HEAPBENCH_WORKERS"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Overrides.Workers)
	}
	if v := os.Getenv("HEAPBENCH_MODE"); v != "" {
		cfg.Overrides.Mode = v
	}

	// Report configuration
	if v := os.Getenv("HEAPBENCH_REPORT_DIR"); v != "" {
		cfg.Report.OutputDir = v
	}
	if v := os.Getenv("HEAPBENCH_REPORT_COMPRESS"); v != "" {
		cfg.Report.Compress = v == "true" || v == "1"
	}
	if v := os.Getenv("HEAPBENCH_SQLITE_PATH"); v != "" {
		cfg.Report.SQLitePath = v
	}

	// Storage configuration
	if v := os.Getenv("HEAPBENCH_STORAGE_TYPE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("HEAPBENCH_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("HEAPBENCH_S3_BUCKET"); v != "" {
		cfg.Storage.S3.Bucket = v
	}
	if v := os.Getenv("HEAPBENCH_S3_REGION"); v != "" {
		cfg.Storage.S3.Region = v
	}
	if v := os.Getenv("HEAPBENCH_S3_ENDPOINT"); v != "" {
		cfg.Storage.S3.Endpoint = v
	}
}

// EnsureDirectories creates all required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.DataDir,
		c.Report.OutputDir,
	}
	if c.Storage.Type == "local" {
		dirs = append(dirs, c.Storage.Path)
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
