package sequence

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"checkpoint/internal/logging"
	"checkpoint/internal/services"
)

// StepPrefix marks a function name as a sequence step.
const StepPrefix = "seq"

var (
	// ErrInvalidStepName is returned when a step name lacks StepPrefix.
	ErrInvalidStepName = errors.New("step name must start with \"seq\"")
	// ErrRunning is returned when Execute is called on a running sequence.
	ErrRunning = errors.New("sequence is already running")
)

// StepFunc is the body of a step. prev is nil for the first step, and for
// every step when results are not passed along.
type StepFunc func(ctx context.Context, prev any) (any, error)

// Step is a named unit of work at a given order.
type Step struct {
	Name  string
	Order int
	Fn    StepFunc
}

// State is the lifecycle state of a sequence.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Option customizes a Sequence.
type Option func(*Sequence)

// WithObserver adds an observer notified of lifecycle events.
func WithObserver(o Observer) Option {
	return func(s *Sequence) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// WithLogger logs lifecycle events and override warnings to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sequence) {
		if logger != nil {
			s.logger = logger
			s.observers = append(s.observers, NewLogObserver(logger))
		}
	}
}

// OnEnd registers a hook that runs after every execution.
func OnEnd(fn func(*Sequence)) Option {
	return func(s *Sequence) {
		if fn != nil {
			s.onEnd = append(s.onEnd, fn)
		}
	}
}

// Sequence is an ordered collection of steps keyed by order.
type Sequence struct {
	name      string
	logger    *slog.Logger
	observers []Observer
	onEnd     []func(*Sequence)

	mu      sync.Mutex
	steps   map[int]Step
	state   State
	lastErr error
	runID   string
}

// New returns an empty, idle sequence.
func New(name string, opts ...Option) *Sequence {
	s := &Sequence{
		name:   name,
		logger: logging.NewNop(),
		steps:  map[int]Step{},
		state:  StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sequence) Name() string { return s.name }

// State returns the current lifecycle state.
func (s *Sequence) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error of the most recent execution.
func (s *Sequence) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// RunID returns the identifier of the most recent execution.
func (s *Sequence) RunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runID
}

// Add registers fn under name at order. An existing step at the same order is
// replaced and a warning is logged.
func (s *Sequence) Add(name string, fn StepFunc, order int) error {
	if !strings.HasPrefix(name, StepPrefix) {
		return fmt.Errorf("%w: %q", ErrInvalidStepName, name)
	}
	if fn == nil {
		return fmt.Errorf("step %q has no function", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRunning {
		return ErrRunning
	}
	if existing, ok := s.steps[order]; ok {
		logging.WarnWithContext(s.logger, "overriding sequence step", "step_override",
			logging.String("sequence", s.name),
			logging.Int("order", order),
			logging.String("existing_step", existing.Name),
			logging.String("new_step", name),
			logging.String(logging.FieldImpact, fmt.Sprintf("%s will not run", existing.Name)),
		)
	}
	s.steps[order] = Step{Name: name, Order: order, Fn: fn}
	return nil
}

// Register adds steps in discovery order. A step's order comes from orders
// when present there, otherwise from its index in steps.
func (s *Sequence) Register(steps []Step, orders map[string]int) error {
	for idx, step := range steps {
		order, ok := orders[step.Name]
		if !ok {
			order = idx
		}
		if err := s.Add(step.Name, step.Fn, order); err != nil {
			return err
		}
	}
	return nil
}

// AddSubSequence copies sub's steps, lowest order first, into s at offset,
// offset+1, and so on.
func (s *Sequence) AddSubSequence(sub *Sequence, offset int) error {
	if sub == nil {
		return errors.New("sub-sequence is nil")
	}
	for idx, step := range sub.Steps() {
		if err := s.Add(step.Name, step.Fn, offset+idx); err != nil {
			return fmt.Errorf("splice %s into %s: %w", sub.name, s.name, err)
		}
	}
	return nil
}

// Steps returns the registered steps sorted by ascending order.
func (s *Sequence) Steps() []Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked(IncreasingOrder)
}

// Len reports the number of registered steps.
func (s *Sequence) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.steps)
}

// Flush drops every step and returns the sequence to idle.
func (s *Sequence) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRunning {
		return ErrRunning
	}
	s.steps = map[int]Step{}
	s.state = StateIdle
	s.lastErr = nil
	return nil
}

func (s *Sequence) String() string {
	steps := s.Steps()
	names := make([]string, 0, len(steps))
	for _, step := range steps {
		names = append(names, fmt.Sprintf("%d:%s", step.Order, step.Name))
	}
	return fmt.Sprintf("%s[%s] (%s)", s.name, strings.Join(names, ", "), s.State())
}

func (s *Sequence) sortedLocked(policy Policy) []Step {
	steps := make([]Step, 0, len(s.steps))
	for _, step := range s.steps {
		steps = append(steps, step)
	}
	slices.SortFunc(steps, func(a, b Step) int {
		if policy == DecreasingOrder {
			return cmp.Compare(b.Order, a.Order)
		}
		return cmp.Compare(a.Order, b.Order)
	})
	return steps
}

// Execute runs every step once in the direction given by policy and returns
// the results in execution order. With passPrevious each step after the first
// receives the preceding result.
func (s *Sequence) Execute(ctx context.Context, policy Policy, passPrevious bool) ([]any, error) {
	if policy != DecreasingOrder && policy != IncreasingOrder {
		return nil, services.Wrap(services.ErrConfiguration, s.name, "execute",
			fmt.Sprintf("%q is an invalid execution policy", string(policy)), nil)
	}

	s.mu.Lock()
	if s.state == StateRunning {
		s.mu.Unlock()
		return nil, ErrRunning
	}
	steps := s.sortedLocked(policy)
	s.state = StateRunning
	s.lastErr = nil
	runID, ok := services.RunIDFromContext(ctx)
	if !ok {
		runID = uuid.NewString()
		ctx = services.WithRunID(ctx, runID)
	}
	s.runID = runID
	s.mu.Unlock()

	for _, o := range s.observers {
		o.SequenceStarted(ctx, s.name, len(steps))
	}

	results, err := s.run(ctx, steps, passPrevious)

	s.mu.Lock()
	if err != nil {
		s.state = StateFailed
	} else {
		s.state = StateSucceeded
	}
	s.lastErr = err
	s.mu.Unlock()

	for _, o := range s.observers {
		o.SequenceFinished(ctx, s.name, err)
	}
	for _, hook := range s.onEnd {
		hook(s)
	}
	return results, err
}

func (s *Sequence) run(ctx context.Context, steps []Step, passPrevious bool) ([]any, error) {
	results := make([]any, 0, len(steps))
	var prev any
	for idx, step := range steps {
		event := StepEvent{
			Sequence: s.name,
			Step:     step.Name,
			Display:  DisplayName(step.Name),
			Order:    step.Order,
			Index:    idx + 1,
			Total:    len(steps),
		}
		stepCtx := services.WithStage(ctx, event.Display)
		if err := ctx.Err(); err != nil {
			stepErr := &StepError{Step: step.Name, Display: event.Display, Err: err}
			s.notifyFailed(stepCtx, event, stepErr)
			return results, stepErr
		}

		for _, o := range s.observers {
			o.StepStarted(stepCtx, event)
		}

		var input any
		if passPrevious && idx > 0 {
			input = prev
		}
		started := time.Now()
		out, err := invoke(stepCtx, step.Fn, input)
		event.Duration = time.Since(started)
		if err != nil {
			stepErr := &StepError{Step: step.Name, Display: event.Display, Err: err}
			s.notifyFailed(stepCtx, event, stepErr)
			return results, stepErr
		}

		for _, o := range s.observers {
			o.StepSucceeded(stepCtx, event)
		}
		results = append(results, out)
		prev = out
	}
	return results, nil
}

func (s *Sequence) notifyFailed(ctx context.Context, event StepEvent, err error) {
	for _, o := range s.observers {
		o.StepFailed(ctx, event, err)
	}
}

func invoke(ctx context.Context, fn StepFunc, input any) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, input)
}

// StepError reports the step that aborted a run.
type StepError struct {
	Step    string
	Display string
	Err     error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Display, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
