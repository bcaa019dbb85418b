package logging

import (
	"context"
	"log/slog"

	"checkpoint/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldStage is the standardized structured logging key for sequence step names.
	FieldStage = "stage"
	// FieldRunID is the standardized structured logging key for sequence run identifiers.
	FieldRunID = "run_id"
	// FieldCheckpoint is the standardized structured logging key for checkpoint names.
	FieldCheckpoint = "checkpoint"
	// FieldProject is the standardized structured logging key for project roots.
	FieldProject = "project"
	// FieldEventType classifies lifecycle events (stage_start, stage_complete, ...).
	FieldEventType = "event_type"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if root, ok := services.ProjectFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldProject, root))
	}
	if name, ok := services.CheckpointFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCheckpoint, name))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if rid, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		args = append(args, f)
	}
	return logger.With(args...)
}
