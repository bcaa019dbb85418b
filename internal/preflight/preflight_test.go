package preflight

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"checkpoint/internal/config"
	"checkpoint/internal/services"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckKeyReadable(t *testing.T) {
	dir := t.TempDir()
	if result := CheckKeyReadable("key", filepath.Join(dir, "crypt.key")); result.Passed {
		t.Fatal("expected failure for missing key")
	}
	if result := CheckKeyReadable("key", dir); result.Passed {
		t.Fatal("expected failure for directory key path")
	}
	key := filepath.Join(dir, "crypt.key")
	if err := os.WriteFile(key, []byte("k"), 0o600); err != nil {
		t.Fatal(err)
	}
	if result := CheckKeyReadable("key", key); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestRunAllSkipsUninitializedProject(t *testing.T) {
	root := t.TempDir()
	results := RunAll(context.Background(), Paths{
		Root:          root,
		CheckpointDir: filepath.Join(root, ".checkpoint"),
		KeyPath:       filepath.Join(root, ".checkpoint", "crypt.key"),
	}, nil)
	if len(results) != 1 || !results[0].Passed {
		t.Fatalf("expected only a passing root check, got %#v", results)
	}
	if err := Failure(results); err != nil {
		t.Fatalf("expected no failure, got %v", err)
	}
}

func TestRunAllReportsMissingKey(t *testing.T) {
	root := t.TempDir()
	cpDir := filepath.Join(root, ".checkpoint")
	if err := os.MkdirAll(cpDir, 0o755); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Logging.File = filepath.Join(root, "logs", "checkpoint.log")

	results := RunAll(context.Background(), Paths{
		Root:          root,
		CheckpointDir: cpDir,
		KeyPath:       filepath.Join(cpDir, "crypt.key"),
	}, &cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %#v", results)
	}

	err := Failure(results)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Encryption key") || !strings.Contains(err.Error(), "Log directory") {
		t.Fatalf("expected key and log failures in %q", err.Error())
	}
}
