package checkpoint_test

import (
	"context"
	"path/filepath"
	"testing"

	"checkpoint/internal/checkpoint"
	"checkpoint/internal/crypt"
	"checkpoint/internal/readers"
	"checkpoint/internal/scanner"
	"checkpoint/internal/sequence"
)

func TestIOSequenceProducesDecryptableManifest(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "hello")
	writeFile(t, filepath.Join(root, "vendored", "skip.txt"), "ignored")
	writeFile(t, filepath.Join(root, "b.unknown"), "dropped")

	sc, err := scanner.New(root, []string{"vendored"})
	if err != nil {
		t.Fatalf("scanner.New returned error: %v", err)
	}
	c, err := crypt.New("crypt.key", t.TempDir(), 1)
	if err != nil {
		t.Fatalf("crypt.New returned error: %v", err)
	}
	seq, run, err := checkpoint.NewIOSequence(checkpoint.IOSequenceOptions{
		Scanner:  sc,
		Registry: readers.NewRegistry([]readers.Reader{readers.NewTextReader()}),
		Crypt:    c,
		Workers:  2,
	})
	if err != nil {
		t.Fatalf("NewIOSequence returned error: %v", err)
	}

	var order []string
	for _, step := range seq.Steps() {
		order = append([]string{step.Name}, order...)
	}
	wantOrder := []string{
		checkpoint.StepWalkDirectories,
		checkpoint.StepGroupExtensions,
		checkpoint.StepResolveReaders,
		checkpoint.StepReadFiles,
		checkpoint.StepEncryptFiles,
	}
	for i := range wantOrder {
		if order[i] != wantOrder[i] {
			t.Fatalf("unexpected execution order %v", order)
		}
	}

	results, err := seq.Execute(context.Background(), sequence.DecreasingOrder, true)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	manifest, ok := results[4].(checkpoint.Manifest)
	if !ok {
		t.Fatalf("expected manifest result, got %T", results[4])
	}
	if len(manifest) != 1 {
		t.Fatalf("expected only a.txt in manifest, got %v", manifest.Paths())
	}
	plain, err := c.Decrypt([]byte(manifest[filepath.Join(root, "a.txt")]))
	if err != nil || string(plain) != "hello" {
		t.Fatalf("decrypt manifest entry: %q, %v", plain, err)
	}
	if run.Index.Len() != 2 || run.Files != 1 || len(run.Dropped) != 1 || run.Dropped[0] != "unknown" {
		t.Fatalf("unexpected run details: %#v", run)
	}
}

func TestIOSequenceRequiresCollaborators(t *testing.T) {
	if _, _, err := checkpoint.NewIOSequence(checkpoint.IOSequenceOptions{}); err == nil {
		t.Fatal("expected error without scanner, registry and crypt")
	}
}
