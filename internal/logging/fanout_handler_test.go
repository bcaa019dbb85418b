package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
)

func TestNewFanoutHandlerCollapses(t *testing.T) {
	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when every handler is nil")
	}

	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newFanoutHandler(nil, inner); h != inner {
		t.Fatal("expected the only handler to be returned unwrapped")
	}
}

func TestFanoutHandlerRespectsEachLevel(t *testing.T) {
	var console, file bytes.Buffer
	h := newFanoutHandler(
		slog.NewTextHandler(&console, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewJSONHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected debug enabled through the file handler")
	}

	logger := slog.New(h)
	logger.Debug("read progress")
	logger.Warn("extension dropped")

	if bytes.Contains(console.Bytes(), []byte("read progress")) {
		t.Fatalf("console should filter debug records, got %q", console.String())
	}
	if !bytes.Contains(console.Bytes(), []byte("extension dropped")) {
		t.Fatalf("console missing warning, got %q", console.String())
	}
	if !bytes.Contains(file.Bytes(), []byte("read progress")) || !bytes.Contains(file.Bytes(), []byte("extension dropped")) {
		t.Fatalf("file sink missing records, got %q", file.String())
	}
}

func TestFanoutHandlerPropagatesAttrsAndGroups(t *testing.T) {
	var a, b bytes.Buffer
	h := newFanoutHandler(slog.NewJSONHandler(&a, nil), slog.NewJSONHandler(&b, nil))

	logger := slog.New(h.WithAttrs([]slog.Attr{slog.String("checkpoint", "cp1")}).WithGroup("read"))
	logger.Info("done", slog.Int("files", 2))

	for name, buf := range map[string]*bytes.Buffer{"a": &a, "b": &b} {
		if !bytes.Contains(buf.Bytes(), []byte(`"checkpoint":"cp1"`)) {
			t.Errorf("%s: missing attr in %q", name, buf.String())
		}
		if !bytes.Contains(buf.Bytes(), []byte(`"read":{"files":2}`)) {
			t.Errorf("%s: missing group in %q", name, buf.String())
		}
	}
}
