package services_test

import (
	"errors"
	"strings"
	"testing"

	"checkpoint/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrConfiguration, "scanner", "open root", "not a directory", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"scanner", "open root", "not a directory"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := services.Wrap(services.ErrNotFound, "", "", "", nil)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "checkpoint failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestKindMapping(t *testing.T) {
	cases := map[string]error{
		"ok":            nil,
		"configuration": services.Wrap(services.ErrConfiguration, "cli", "", "bad action", nil),
		"precondition":  services.Wrap(services.ErrValidation, "create", "", "exists", nil),
		"not_found":     services.Wrap(services.ErrNotFound, "restore", "", "missing", nil),
		"unsupported":   services.Wrap(services.ErrUnsupported, "readers", "", "ext", nil),
		"failure":       errors.New("disk full"),
	}
	for want, err := range cases {
		if got := services.Kind(err); got != want {
			t.Fatalf("Kind(%v) = %q, want %q", err, got, want)
		}
	}
}
