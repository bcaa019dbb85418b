package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"checkpoint/internal/config"
	"checkpoint/internal/crypt"
	"checkpoint/internal/fsio"
	"checkpoint/internal/journal"
	"checkpoint/internal/logging"
	"checkpoint/internal/preflight"
	"checkpoint/internal/readers"
	"checkpoint/internal/sequence"
	"checkpoint/internal/services"
)

// Options configures a Manager. Zero values fall back to defaults.
type Options struct {
	Config   *config.Config
	Logger   *slog.Logger
	Observer sequence.Observer
	Registry *readers.Registry
	Progress readers.ProgressFunc
	Version  string
	// DisableJournal skips recording operations in history.db.
	DisableJournal bool
	// SkipPreflight skips filesystem access checks before mutations.
	SkipPreflight bool
}

// Manager runs checkpoint operations against one project root.
type Manager struct {
	layout   Layout
	cfg      *config.Config
	io       *fsio.IO
	logger   *slog.Logger
	observer sequence.Observer
	registry *readers.Registry
	progress readers.ProgressFunc
	version  string
	journal  bool
	checks   bool
}

// NewManager validates root and the IO mode and returns a manager for root.
func NewManager(root string, opts Options) (*Manager, error) {
	cfg := opts.Config
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	io, err := fsio.New(root, cfg.IO.Mode)
	if err != nil {
		return nil, err
	}

	logger := logging.NewComponentLogger(opts.Logger, "checkpoint")
	registry := opts.Registry
	if registry == nil {
		registry = readers.FromConfig(cfg.Readers, opts.Logger)
	}
	version := strings.TrimSpace(opts.Version)
	if version == "" {
		version = "dev"
	}

	return &Manager{
		layout:   newLayout(io.Root(), cfg.Crypt.KeyName),
		cfg:      cfg,
		io:       io,
		logger:   logger,
		observer: opts.Observer,
		registry: registry,
		progress: opts.Progress,
		version:  version,
		journal:  !opts.DisableJournal,
		checks:   !opts.SkipPreflight,
	}, nil
}

// Layout returns the resolved on-disk locations.
func (m *Manager) Layout() Layout { return m.layout }

// Initialized reports whether the checkpoint directory exists.
func (m *Manager) Initialized() bool {
	info, err := os.Stat(m.layout.Dir)
	return err == nil && info.IsDir()
}

func (m *Manager) opContext(ctx context.Context, name string) context.Context {
	ctx = services.WithProject(ctx, m.layout.Root)
	ctx = services.WithCheckpoint(ctx, name)
	if _, ok := services.RunIDFromContext(ctx); !ok {
		ctx = services.WithRunID(ctx, uuid.NewString())
	}
	return ctx
}

func (m *Manager) newSequence(name string) *sequence.Sequence {
	opts := []sequence.Option{sequence.WithLogger(m.logger)}
	if m.observer != nil {
		opts = append(opts, sequence.WithObserver(m.observer))
	}
	return sequence.New(name, opts...)
}

// runSingle wraps fn in a one-step sequence named seq_<op>_checkpoint.
func (m *Manager) runSingle(ctx context.Context, op string, fn func(context.Context) (any, error)) (any, error) {
	seq := m.newSequence(op + "_checkpoint")
	step := func(ctx context.Context, _ any) (any, error) { return fn(ctx) }
	if err := seq.Add("seq_"+op+"_checkpoint", step, 0); err != nil {
		return nil, err
	}
	results, err := seq.Execute(ctx, sequence.DecreasingOrder, false)
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

func (m *Manager) preflight(ctx context.Context) error {
	if !m.checks {
		return nil
	}
	results := preflight.RunAll(ctx, preflight.Paths{
		Root:          m.layout.Root,
		CheckpointDir: m.layout.Dir,
		KeyPath:       m.layout.KeyPath(),
	}, m.cfg)
	return preflight.Failure(results)
}

// Preflight returns the individual readiness checks for the project.
func (m *Manager) Preflight(ctx context.Context) []preflight.Result {
	return preflight.RunAll(ctx, preflight.Paths{
		Root:          m.layout.Root,
		CheckpointDir: m.layout.Dir,
		KeyPath:       m.layout.KeyPath(),
	}, m.cfg)
}

func (m *Manager) crypt() (*crypt.Crypt, error) {
	if _, err := os.Stat(m.layout.KeyPath()); errors.Is(err, os.ErrNotExist) {
		return nil, services.Wrap(services.ErrNotFound, "checkpoint", "load key",
			fmt.Sprintf("%s is missing; re-run init to recreate the project", m.layout.KeyPath()), nil)
	}
	return crypt.New(m.layout.KeyName, m.layout.Dir, m.cfg.Crypt.Iterations)
}

// record journals a mutating operation. Failures to journal are logged only.
func (m *Manager) record(ctx context.Context, op, name string, files int, opErr error) {
	if !m.journal || !m.Initialized() {
		return
	}
	logger := logging.WithContext(ctx, m.logger)
	j, err := journal.Open(ctx, m.layout.Dir)
	if err != nil {
		logging.WarnWithContext(logger, "operation journal unavailable", "journal_unavailable", logging.Error(err))
		return
	}
	defer j.Close()

	runID, _ := services.RunIDFromContext(ctx)
	entry := journal.Entry{
		RunID:      runID,
		Operation:  op,
		Checkpoint: name,
		Outcome:    services.Kind(opErr),
		Files:      files,
	}
	if opErr != nil {
		entry.Detail = opErr.Error()
	}
	if _, err := j.Record(ctx, entry); err != nil {
		logging.WarnWithContext(logger, "operation journal write failed", "journal_write_failed", logging.Error(err))
	}
}
