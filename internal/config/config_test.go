package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"checkpoint/internal/config"
)

func TestLoadDefaultConfigWhenFileMissing(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	want := filepath.Join(tempHome, ".config", "checkpoint", "config.toml")
	if resolved != want {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, want)
	}
	if cfg.Crypt.KeyName != "crypt.key" {
		t.Fatalf("unexpected key name: %q", cfg.Crypt.KeyName)
	}
	if cfg.Crypt.Iterations != 1 {
		t.Fatalf("unexpected iterations: %d", cfg.Crypt.Iterations)
	}
	if cfg.IO.Mode != "a" {
		t.Fatalf("unexpected io mode: %q", cfg.IO.Mode)
	}
	if len(cfg.Scan.IgnoreDirs) != len(config.DefaultIgnoreDirs) {
		t.Fatalf("unexpected ignore dirs: %v", cfg.Scan.IgnoreDirs)
	}
	if cfg.ReadWorkers() != runtime.NumCPU() {
		t.Fatalf("expected auto workers to match CPU count, got %d", cfg.ReadWorkers())
	}
}

func TestLoadCustomConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "checkpoint.toml")

	cfg := config.Default()
	cfg.Scan.IgnoreDirs = []string{" dist ", "build", "dist", ""}
	cfg.Readers.Workers = 3
	cfg.Readers.ExtraTextExtensions = []string{".Go", "toml"}
	cfg.Crypt.Iterations = 2
	cfg.IO.Mode = "m"
	cfg.Logging.Format = "JSON"
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	loaded, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected %q to be loaded, got %q (exists=%v)", path, resolved, exists)
	}
	if got := strings.Join(loaded.Scan.IgnoreDirs, ","); got != "dist,build" {
		t.Fatalf("unexpected normalized ignore dirs: %q", got)
	}
	if loaded.ReadWorkers() != 3 {
		t.Fatalf("unexpected workers: %d", loaded.ReadWorkers())
	}
	if got := strings.Join(loaded.Readers.ExtraTextExtensions, ","); got != "go,toml" {
		t.Fatalf("unexpected extra extensions: %q", got)
	}
	if loaded.Crypt.Iterations != 2 || loaded.IO.Mode != "m" || loaded.Logging.Format != "json" {
		t.Fatalf("unexpected values: %+v", loaded)
	}
}

func TestLoadEnvLogLevelOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CHECKPOINT_LOG_LEVEL", "DEBUG")
	t.Chdir(t.TempDir())

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected env override, got %q", cfg.Logging.Level)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*config.Config){
		"io mode":    func(c *config.Config) { c.IO.Mode = "x" },
		"iterations": func(c *config.Config) { c.Crypt.Iterations = -1 },
		"key suffix": func(c *config.Config) { c.Crypt.KeyName = "crypt.txt" },
		"key path":   func(c *config.Config) { c.Crypt.KeyName = "nested/crypt.key" },
		"workers":    func(c *config.Config) { c.Readers.Workers = -2 },
		"log format": func(c *config.Config) { c.Logging.Format = "xml" },
		"log level":  func(c *config.Config) { c.Logging.Level = "verbose" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error for %s", name)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Crypt.KeyName != "crypt.key" || cfg.IO.Mode != "a" {
		t.Fatalf("unexpected sample values: %+v", cfg)
	}
}

func TestExpandPathTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	got, err := config.ExpandPath("~/projects/demo")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(home, "projects", "demo") {
		t.Fatalf("unexpected expansion: %q", got)
	}
}
