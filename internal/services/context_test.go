package services_test

import (
	"context"
	"testing"

	"checkpoint/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithStage(ctx, "seq_walk_directories")
	ctx = services.WithCheckpoint(ctx, "cp1")
	ctx = services.WithProject(ctx, "/srv/project")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-123" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "seq_walk_directories" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if name, ok := services.CheckpointFromContext(ctx); !ok || name != "cp1" {
		t.Fatalf("unexpected checkpoint: %v %v", name, ok)
	}
	if root, ok := services.ProjectFromContext(ctx); !ok || root != "/srv/project" {
		t.Fatalf("unexpected project: %v %v", root, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithRunID(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id value")
	}
}
