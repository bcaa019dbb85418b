package sequence

import (
	"context"
	"log/slog"
	"time"

	"checkpoint/internal/logging"
)

// StepEvent describes one step in a running sequence.
type StepEvent struct {
	Sequence string
	Step     string
	Display  string
	Order    int
	// Index is the 1-based position in execution order.
	Index    int
	Total    int
	Duration time.Duration
}

// Observer receives lifecycle events from a running sequence. Calls happen on
// the goroutine executing the sequence.
type Observer interface {
	SequenceStarted(ctx context.Context, name string, steps int)
	StepStarted(ctx context.Context, event StepEvent)
	StepSucceeded(ctx context.Context, event StepEvent)
	StepFailed(ctx context.Context, event StepEvent, err error)
	SequenceFinished(ctx context.Context, name string, err error)
}

// NopObserver ignores every event. Embed it to implement a subset.
type NopObserver struct{}

func (NopObserver) SequenceStarted(context.Context, string, int) {}

func (NopObserver) StepStarted(context.Context, StepEvent) {}

func (NopObserver) StepSucceeded(context.Context, StepEvent) {}

func (NopObserver) StepFailed(context.Context, StepEvent, error) {}

func (NopObserver) SequenceFinished(context.Context, string, error) {}

// LogObserver writes lifecycle events as structured log records using the
// stage_start, stage_complete and stage_failure event types.
type LogObserver struct {
	logger *slog.Logger
}

func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &LogObserver{logger: logger}
}

func (o *LogObserver) SequenceStarted(ctx context.Context, name string, steps int) {
	logging.WithContext(ctx, o.logger).Debug(
		"sequence started",
		logging.String("sequence", name),
		logging.Int("steps", steps),
	)
}

func (o *LogObserver) StepStarted(ctx context.Context, event StepEvent) {
	logging.WithContext(ctx, o.logger).Debug(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("sequence", event.Sequence),
		logging.String("step", event.Step),
		logging.Int("order", event.Order),
		logging.Int("index", event.Index),
		logging.Int("total", event.Total),
	)
}

func (o *LogObserver) StepSucceeded(ctx context.Context, event StepEvent) {
	logging.WithContext(ctx, o.logger).Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("sequence", event.Sequence),
		logging.Duration("duration", event.Duration.Round(time.Millisecond)),
	)
}

func (o *LogObserver) StepFailed(ctx context.Context, event StepEvent, err error) {
	logging.WithContext(ctx, o.logger).Error(
		"stage failed",
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String("sequence", event.Sequence),
		logging.String("step", event.Step),
		logging.Error(err),
	)
}

func (o *LogObserver) SequenceFinished(ctx context.Context, name string, err error) {
	logger := logging.WithContext(ctx, o.logger)
	if err != nil {
		logger.Debug("sequence failed", logging.String("sequence", name), logging.Error(err))
		return
	}
	logger.Debug("sequence finished", logging.String("sequence", name))
}
