package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"checkpoint/internal/checkpoint"
	"checkpoint/internal/preflight"
	"checkpoint/internal/services"
)

func TestCheckpointLifecycle(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "init")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	requireContains(t, out, "Initialized")

	out, _, err = runCLI(t, env, "create", "cp1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	requireContains(t, out, "Created checkpoint cp1 (2 files)")

	writeProjectFile(t, env.projectDir, "src/notes.txt", "second draft\n")

	out, _, err = runCLI(t, env, "restore", "--name", "cp1")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	requireContains(t, out, "Restored checkpoint cp1 (2 files)")
	if got := readProjectFile(t, env.projectDir, "src/notes.txt"); got != "first draft\n" {
		t.Fatalf("restored content = %q", got)
	}

	out, _, err = runCLI(t, env, "list", "--json")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var views []checkpointView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode list output %q: %v", out, err)
	}
	if len(views) != 1 || views[0].Name != "cp1" || !views[0].Current || views[0].Files != 2 {
		t.Fatalf("unexpected list output: %+v", views)
	}

	out, _, err = runCLI(t, env, "delete", "cp1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	requireContains(t, out, "Deleted checkpoint cp1")

	out, _, err = runCLI(t, env, "list")
	if err != nil {
		t.Fatalf("list after delete: %v", err)
	}
	requireContains(t, out, "No checkpoints")
}

func TestLegacyActionFlags(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, env, "-a", "init"); err != nil {
		t.Fatalf("legacy init: %v", err)
	}
	out, _, err := runCLI(t, env, "--action", "create", "-n", "cp1")
	if err != nil {
		t.Fatalf("legacy create: %v", err)
	}
	requireContains(t, out, "Created checkpoint cp1")

	if _, err := os.Stat(filepath.Join(env.projectDir, ".checkpoint", "cp1", "cp1.json")); err != nil {
		t.Fatalf("expected manifest: %v", err)
	}

	out, _, err = runCLI(t, env, "-a", "version")
	if err != nil {
		t.Fatalf("legacy version: %v", err)
	}
	requireContains(t, out, "checkpoint "+version)
}

func TestInvalidActionIsConfigurationError(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, env, "-a", "explode")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestNamedCommandsRequireName(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, env, "init"); err != nil {
		t.Fatalf("init: %v", err)
	}

	for _, action := range []string{"create", "restore", "delete"} {
		_, _, err := runCLI(t, env, action)
		if !errors.Is(err, services.ErrValidation) {
			t.Fatalf("%s without name: expected validation error, got %v", action, err)
		}
	}
	_, _, err := runCLI(t, env, "-a", "create")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("legacy create without name: expected validation error, got %v", err)
	}
}

func TestInitStoresExplicitIgnoreDirs(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, env, "init", "--ignore-dirs", "build,dist"); err != nil {
		t.Fatalf("init: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(env.projectDir, ".checkpoint", ".config"))
	if err != nil {
		t.Fatalf("read project config: %v", err)
	}
	var project checkpoint.ProjectConfig
	if err := json.Unmarshal(data, &project); err != nil {
		t.Fatalf("decode project config: %v", err)
	}
	if strings.Join(project.IgnoreDirs, ",") != "build,dist" {
		t.Fatalf("ignore dirs = %v", project.IgnoreDirs)
	}
}

func TestCreateHonorsIgnoreDirsFlag(t *testing.T) {
	env := setupCLITestEnv(t)
	writeProjectFile(t, env.projectDir, "generated_out/bundle.txt", "generated\n")
	if _, _, err := runCLI(t, env, "init"); err != nil {
		t.Fatalf("init: %v", err)
	}

	out, _, err := runCLI(t, env, "create", "cp1", "--ignore-dirs", "generated_out")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	requireContains(t, out, "Created checkpoint cp1 (2 files)")

	out, _, err = runCLI(t, env, "-a", "create", "-n", "cp2", "-i", "generated_out")
	if err != nil {
		t.Fatalf("legacy create: %v", err)
	}
	requireContains(t, out, "Created checkpoint cp2 (2 files)")

	out, _, err = runCLI(t, env, "create", "cp3")
	if err != nil {
		t.Fatalf("create without flag: %v", err)
	}
	requireContains(t, out, "Created checkpoint cp3 (3 files)")
}

func TestHistoryListsOperations(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, env, "init"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, _, err := runCLI(t, env, "create", "cp1"); err != nil {
		t.Fatalf("create: %v", err)
	}

	out, _, err := runCLI(t, env, "history", "--json")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var views []historyView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode history output %q: %v", out, err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 history entries, got %+v", views)
	}
	if views[0].Operation != "create" || views[0].Checkpoint != "cp1" || views[0].Outcome != "ok" {
		t.Fatalf("unexpected newest entry: %+v", views[0])
	}

	out, _, err = runCLI(t, env, "history")
	if err != nil {
		t.Fatalf("history table: %v", err)
	}
	requireContains(t, out, "OPERATION")
	requireContains(t, out, "cp1")

	out, _, err = runCLI(t, env, "history", "--checkpoint", "cp1", "--json")
	if err != nil {
		t.Fatalf("history --checkpoint: %v", err)
	}
	views = nil
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode filtered history %q: %v", out, err)
	}
	if len(views) != 1 || views[0].Operation != "create" {
		t.Fatalf("expected only the cp1 create, got %+v", views)
	}
}

func TestStatusBeforeInit(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Project ==")
	requireContains(t, out, "no (run checkpoint init)")
	if _, err := os.Stat(filepath.Join(env.projectDir, ".checkpoint")); !os.IsNotExist(err) {
		t.Fatalf("status must not create the checkpoint directory (err=%v)", err)
	}
}

func TestStatusLinesReportFailedChecks(t *testing.T) {
	current := "cp2"
	status := &checkpoint.Status{
		Root:        "/work/project",
		Initialized: true,
		Project: &checkpoint.ProjectConfig{
			CurrentCheckpoint: &current,
			Checkpoints:       []string{"cp1", "cp2"},
			IgnoreDirs:        []string{".git"},
		},
		Checks: []preflight.Result{
			{Name: "Project root", Passed: true, Detail: "/work/project"},
			{Name: "Encryption key", Passed: false, Detail: "permission denied"},
		},
	}

	joined := strings.Join(statusLines(status, false), "\n")
	requireContains(t, joined, "Current:")
	requireContains(t, joined, "[INFO] cp2")
	requireContains(t, joined, "[INFO] 2")
	requireContains(t, joined, "[ERROR] permission denied")
	if strings.Contains(joined, "\x1b[") {
		t.Fatalf("unexpected ANSI codes in uncolored output: %q", joined)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	out, _, err := runCLI(t, env, "config", "init", "--output", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, env, "config", "init", "--output", target); err == nil {
		t.Fatal("expected error when config already exists")
	}
	if _, _, err := runCLI(t, env, "config", "init", "--output", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Iterations: 2")
	requireContains(t, out, "Reader text:")
	requireContains(t, out, "Reader image:")
	if strings.Contains(out, "Reader byte:") {
		t.Fatalf("byte reader is opt-in, got %q", out)
	}
	requireContains(t, out, "Configuration valid")
}

func TestFormatSize(t *testing.T) {
	cases := map[int64]string{
		0:           "0 B",
		1023:        "1023 B",
		1024:        "1.0 KiB",
		1536:        "1.5 KiB",
		5 * 1 << 20: "5.0 MiB",
	}
	for size, want := range cases {
		if got := formatSize(size); got != want {
			t.Fatalf("formatSize(%d) = %q, want %q", size, got, want)
		}
	}
}

func TestRenderStatusLineColors(t *testing.T) {
	plain := renderStatusLine("Encryption key", statusError, "missing", false)
	if plain != "  Encryption key:    [ERROR] missing" {
		t.Fatalf("unexpected plain line %q", plain)
	}
	colored := renderStatusLine("Root", statusOK, "", true)
	if !strings.HasPrefix(colored, ansiGreen) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected green line, got %q", colored)
	}
	if got := renderStatusLine("Root", statusKind(42), "x", false); !strings.Contains(got, "[INFO] x") {
		t.Fatalf("unknown kinds fall back to INFO, got %q", got)
	}
}
