package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/heapbench/heapbench/internal/errors"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.Scenario != "small-object" {
		t.Errorf("expected default scenario small-object, got %q", cfg.Scenario)
	}
}

func TestResolveDerivesPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/tmp/hb"
	cfg.Storage.Type = "local"
	cfg.Resolve()

	if cfg.Report.OutputDir != filepath.Join("/tmp/hb", "reports") {
		t.Errorf("unexpected report dir: %q", cfg.Report.OutputDir)
	}
	if cfg.Storage.Path != filepath.Join("/tmp/hb", "storage") {
		t.Errorf("unexpected storage path: %q", cfg.Storage.Path)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown scenario", func(c *Config) { c.Scenario = "no-such-scenario" }},
		{"negative cycles", func(c *Config) { c.Overrides.Cycles = -1 }},
		{"negative batch", func(c *Config) { c.Overrides.BatchSize = -5 }},
		{"negative workers", func(c *Config) { c.Overrides.Workers = -2 }},
		{"bad mode", func(c *Config) { c.Overrides.Mode = "threads" }},
		{"bad storage type", func(c *Config) { c.Storage.Type = "ftp" }},
		{"s3 without bucket", func(c *Config) { c.Storage.Type = "s3" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Resolve()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.IsInvalidConfiguration(err) {
				t.Errorf("expected invalid configuration error, got %v", err)
			}
		})
	}
}

func TestBuildScenarioAppliesOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scenario = "parallel-batch"
	cfg.Overrides.Cycles = 7
	cfg.Overrides.Workers = 3
	cfg.Overrides.Mode = "sequential"

	s, err := cfg.BuildScenario()
	if err != nil {
		t.Fatalf("BuildScenario failed: %v", err)
	}
	if s.Run.Cycles != 7 {
		t.Errorf("expected cycles override 7, got %d", s.Run.Cycles)
	}
	if s.Workers != 3 {
		t.Errorf("expected workers override 3, got %d", s.Workers)
	}
	if s.Mode != "sequential" {
		t.Errorf("expected mode override sequential, got %q", s.Mode)
	}
}

func TestBuildScenarioLeavesPresetWhenZero(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scenario = "small-object"

	s, err := cfg.BuildScenario()
	if err != nil {
		t.Fatalf("BuildScenario failed: %v", err)
	}
	if s.Run.Cycles != 50 {
		t.Errorf("expected preset cycles 50, got %d", s.Run.Cycles)
	}
	if s.Run.BatchSize != 5000 {
		t.Errorf("expected preset batch size 5000, got %d", s.Run.BatchSize)
	}
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `scenario: web-cache
data_dir: /tmp/hb-test
overrides:
  cycles: 25
  mode: pool
report:
  compress: true
storage:
  type: local
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.Scenario != "web-cache" {
		t.Errorf("expected scenario web-cache, got %q", cfg.Scenario)
	}
	if cfg.Overrides.Cycles != 25 {
		t.Errorf("expected cycles 25, got %d", cfg.Overrides.Cycles)
	}
	if cfg.Overrides.Mode != "pool" {
		t.Errorf("expected mode pool, got %q", cfg.Overrides.Mode)
	}
	if !cfg.Report.Compress {
		t.Error("expected compress to be true")
	}
	if cfg.Storage.Type != "local" {
		t.Errorf("expected storage type local, got %q", cfg.Storage.Type)
	}
}

func TestLoadFromJSONFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{"scenario": "game-loop", "overrides": {"workers": 6}}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.Scenario != "game-loop" {
		t.Errorf("expected scenario game-loop, got %q", cfg.Scenario)
	}
	if cfg.Overrides.Workers != 6 {
		t.Errorf("expected workers 6, got %d", cfg.Overrides.Workers)
	}
}

func TestLoadFromFileRejectsUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("scenario = 'x'"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestLoadFromEnvOverridesFields(t *testing.T) {
	t.Setenv("HEAPBENCH_SCENARIO", "large-heap")
	t.Setenv("HEAPBENCH_CYCLES", "12")
	t.Setenv("HEAPBENCH_MODE", "parallel")
	t.Setenv("HEAPBENCH_STORAGE_TYPE", "s3")
	t.Setenv("HEAPBENCH_S3_BUCKET", "bench-results")

	cfg := DefaultConfig()
	LoadFromEnv(cfg)

	if cfg.Scenario != "large-heap" {
		t.Errorf("expected scenario large-heap, got %q", cfg.Scenario)
	}
	if cfg.Overrides.Cycles != 12 {
		t.Errorf("expected cycles 12, got %d", cfg.Overrides.Cycles)
	}
	if cfg.Overrides.Mode != "parallel" {
		t.Errorf("expected mode parallel, got %q", cfg.Overrides.Mode)
	}
	if cfg.Storage.S3.Bucket != "bench-results" {
		t.Errorf("expected bucket bench-results, got %q", cfg.Storage.S3.Bucket)
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.DataDir = filepath.Join(dir, "hb")
	cfg.Storage.Type = "local"
	cfg.Resolve()

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, d := range []string{cfg.DataDir, cfg.Report.OutputDir, cfg.Storage.Path} {
		info, err := os.Stat(d)
		if err != nil {
			t.Fatalf("expected directory %s to exist: %v", d, err)
		}
		if !info.IsDir() {
			t.Errorf("expected %s to be a directory", d)
		}
	}
}
