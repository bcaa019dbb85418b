package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"checkpoint/internal/crypt"
	"checkpoint/internal/journal"
	"checkpoint/internal/logging"
	"checkpoint/internal/preflight"
	"checkpoint/internal/scanner"
	"checkpoint/internal/sequence"
	"checkpoint/internal/services"
)

// InitOptions controls Init.
type InitOptions struct {
	// IgnoreDirs are stored in the project config. Nil uses the tool config.
	IgnoreDirs []string
	// Force removes an existing checkpoint directory first.
	Force bool
}

// Init creates the checkpoint directory, its key and the project config.
func (m *Manager) Init(ctx context.Context, opts InitOptions) error {
	ctx = m.opContext(ctx, "")
	if m.Initialized() && !opts.Force {
		return services.Wrap(services.ErrValidation, "checkpoint", "init",
			fmt.Sprintf("%s is already initialized (use --force to recreate it)", m.layout.Dir), nil)
	}
	ignore := opts.IgnoreDirs
	if ignore == nil {
		ignore = m.cfg.Scan.IgnoreDirs
	}

	_, err := m.runSingle(ctx, "init", func(ctx context.Context) (any, error) {
		logger := logging.WithContext(ctx, m.logger)
		if opts.Force {
			if err := os.RemoveAll(m.layout.Dir); err != nil {
				return nil, fmt.Errorf("remove existing checkpoint directory: %w", err)
			}
			logging.WarnWithContext(logger, "existing checkpoint directory removed", "checkpoint_reinit",
				logging.String("path", m.layout.Dir),
				logging.String(logging.FieldImpact, "previous checkpoints and key are gone"),
			)
		}
		if err := os.MkdirAll(m.layout.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create checkpoint directory: %w", err)
		}
		if _, err := crypt.GenerateKey(m.layout.KeyName, m.layout.Dir); err != nil {
			return nil, err
		}
		project := ProjectConfig{
			Checkpoints: []string{},
			IgnoreDirs:  append([]string{}, ignore...),
			RootDir:     m.layout.Root,
		}
		if err := saveProjectConfig(m.io, m.layout, project); err != nil {
			return nil, err
		}
		logger.Info("project initialized",
			logging.String("path", m.layout.Dir),
			logging.Strings("ignore_dirs", project.IgnoreDirs),
		)
		return nil, nil
	})
	m.record(ctx, "init", "", 0, err)
	return err
}

// CreateResult summarizes a created checkpoint.
type CreateResult struct {
	Name     string
	Files    int
	Dropped  []string
	Manifest string
}

// CreateOptions controls Create.
type CreateOptions struct {
	// IgnoreDirs are skipped in addition to the fragments stored at init.
	IgnoreDirs []string
}

// Create snapshots the project into a new checkpoint named name.
func (m *Manager) Create(ctx context.Context, name string, opts CreateOptions) (*CreateResult, error) {
	ctx = m.opContext(ctx, name)
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	project, err := loadProjectConfig(m.io, m.layout)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(m.layout.CheckpointDir(name)); err == nil {
		err = services.Wrap(services.ErrValidation, "checkpoint", "create",
			fmt.Sprintf("checkpoint %q already exists", name), nil)
		m.record(ctx, "create", name, 0, err)
		return nil, err
	}
	if err := m.preflight(ctx); err != nil {
		m.record(ctx, "create", name, 0, err)
		return nil, err
	}

	result, err := m.create(ctx, name, project, mergeIgnoreDirs(project.IgnoreDirs, opts.IgnoreDirs))
	files := 0
	if result != nil {
		files = result.Files
	}
	m.record(ctx, "create", name, files, err)
	return result, err
}

func (m *Manager) create(ctx context.Context, name string, project ProjectConfig, ignore []string) (*CreateResult, error) {
	c, err := m.crypt()
	if err != nil {
		return nil, err
	}
	sc, err := scanner.New(m.layout.Root, ignore, scanner.WithExclude(m.layout.Dir))
	if err != nil {
		return nil, err
	}
	ioSeq, run, err := NewIOSequence(IOSequenceOptions{
		Scanner:  sc,
		Registry: m.registry,
		Crypt:    c,
		Workers:  m.cfg.ReadWorkers(),
		Progress: m.progress,
	})
	if err != nil {
		return nil, err
	}

	result := &CreateResult{Name: name, Manifest: m.layout.ManifestPath(name)}
	seq := m.newSequence("create_checkpoint")
	if err := seq.AddSubSequence(ioSeq, 1); err != nil {
		return nil, err
	}
	persist := func(ctx context.Context, prev any) (any, error) {
		manifest, ok := prev.(Manifest)
		if !ok {
			return nil, unexpectedInput("seq_create_checkpoint", prev)
		}
		if err := m.persist(name, manifest, metadataFrom(run.Index), project); err != nil {
			return nil, err
		}
		result.Files = len(manifest)
		result.Dropped = run.Dropped
		logging.WithContext(ctx, m.logger).Info("checkpoint created",
			logging.Int("files", len(manifest)),
			logging.Int("dropped_extensions", len(run.Dropped)),
			logging.String("manifest", result.Manifest),
		)
		return result, nil
	}
	if err := seq.Add("seq_create_checkpoint", persist, 0); err != nil {
		return nil, err
	}

	if _, err := seq.Execute(ctx, sequence.DecreasingOrder, true); err != nil {
		return nil, err
	}
	return result, nil
}

// mergeIgnoreDirs returns stored followed by the extra fragments it lacks.
func mergeIgnoreDirs(stored, extra []string) []string {
	merged := append([]string{}, stored...)
	for _, dir := range extra {
		dir = strings.TrimSpace(dir)
		if dir == "" || slices.Contains(merged, dir) {
			continue
		}
		merged = append(merged, dir)
	}
	return merged
}

// persist writes the manifest and metadata, then registers the checkpoint.
// A failure removes the partially written checkpoint directory and leaves the
// project config untouched.
func (m *Manager) persist(name string, manifest Manifest, metadata Metadata, project ProjectConfig) (err error) {
	dir := m.layout.CheckpointDir(name)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return fmt.Errorf("create checkpoint directory: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.RemoveAll(dir)
		}
	}()

	if err := writeJSON(m.io, m.layout.ManifestPath(name), manifest); err != nil {
		return err
	}
	if err := writeJSON(m.io, m.layout.MetadataPath(name), metadata); err != nil {
		return err
	}
	project.add(name)
	return saveProjectConfig(m.io, m.layout, project)
}

func metadataFrom(index scanner.DirectoryIndex) Metadata {
	metadata := make(Metadata, len(index))
	for dir, files := range index {
		sorted := append([]string(nil), files...)
		slices.Sort(sorted)
		metadata[dir] = sorted
	}
	return metadata
}

// RestoreResult summarizes a restore.
type RestoreResult struct {
	Name  string
	Files int
}

// Restore overwrites every file recorded in checkpoint name with its
// decrypted content. Files absent from the manifest are left in place.
func (m *Manager) Restore(ctx context.Context, name string) (*RestoreResult, error) {
	ctx = m.opContext(ctx, name)
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	project, err := loadProjectConfig(m.io, m.layout)
	if err != nil {
		return nil, err
	}
	if err := m.requireCheckpoint(name); err != nil {
		m.record(ctx, "restore", name, 0, err)
		return nil, err
	}
	if err := m.preflight(ctx); err != nil {
		m.record(ctx, "restore", name, 0, err)
		return nil, err
	}

	out, err := m.runSingle(ctx, "restore", func(ctx context.Context) (any, error) {
		c, err := m.crypt()
		if err != nil {
			return nil, err
		}
		var manifest Manifest
		if err := readJSON(m.io, m.layout.ManifestPath(name), &manifest); err != nil {
			return nil, err
		}

		paths := manifest.Paths()
		plain := make(map[string][]byte, len(paths))
		for _, path := range paths {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			data, err := c.Decrypt([]byte(manifest[path]))
			if err != nil {
				return nil, fmt.Errorf("decrypt %s: %w", path, err)
			}
			plain[path] = data
		}
		for _, path := range paths {
			if err := m.io.WriteFile(path, plain[path]); err != nil {
				return nil, err
			}
		}

		project.setCurrent(name)
		if err := saveProjectConfig(m.io, m.layout, project); err != nil {
			return nil, err
		}
		logging.WithContext(ctx, m.logger).Info("checkpoint restored", logging.Int("files", len(paths)))
		return &RestoreResult{Name: name, Files: len(paths)}, nil
	})
	if err != nil {
		m.record(ctx, "restore", name, 0, err)
		return nil, err
	}
	result := out.(*RestoreResult)
	m.record(ctx, "restore", name, result.Files, nil)
	return result, nil
}

// Delete removes checkpoint name. The current checkpoint becomes the last
// remaining one, or none.
func (m *Manager) Delete(ctx context.Context, name string) error {
	ctx = m.opContext(ctx, name)
	if err := ValidateName(name); err != nil {
		return err
	}
	project, err := loadProjectConfig(m.io, m.layout)
	if err != nil {
		return err
	}
	if err := m.requireCheckpoint(name); err != nil {
		m.record(ctx, "delete", name, 0, err)
		return err
	}

	_, err = m.runSingle(ctx, "delete", func(ctx context.Context) (any, error) {
		if err := os.RemoveAll(m.layout.CheckpointDir(name)); err != nil {
			return nil, fmt.Errorf("remove checkpoint directory: %w", err)
		}
		project.remove(name)
		if err := saveProjectConfig(m.io, m.layout, project); err != nil {
			return nil, err
		}
		logging.WithContext(ctx, m.logger).Info("checkpoint deleted",
			logging.String("current_checkpoint", project.Current()),
			logging.Int("remaining", len(project.Checkpoints)),
		)
		return nil, nil
	})
	m.record(ctx, "delete", name, 0, err)
	return err
}

func (m *Manager) requireCheckpoint(name string) error {
	info, err := os.Stat(m.layout.CheckpointDir(name))
	if err == nil && info.IsDir() {
		return nil
	}
	return services.Wrap(services.ErrNotFound, "checkpoint", "lookup",
		fmt.Sprintf("checkpoint %q does not exist", name), nil)
}

// Version reports the tool version through the logger and returns it.
func (m *Manager) Version(ctx context.Context) (string, error) {
	ctx = m.opContext(ctx, "")
	out, err := m.runSingle(ctx, "version", func(ctx context.Context) (any, error) {
		logging.WithContext(ctx, m.logger).Info("checkpoint version", logging.String("version", m.version))
		return m.version, nil
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// Summary describes one checkpoint for listings.
type Summary struct {
	Name      string
	Current   bool
	Files     int
	Size      int64
	CreatedAt time.Time
	// Missing is set when the project config lists a checkpoint whose
	// directory is gone.
	Missing bool
}

// List returns the checkpoints recorded in the project config, in creation
// order.
func (m *Manager) List(ctx context.Context) ([]Summary, error) {
	ctx = m.opContext(ctx, "")
	project, err := loadProjectConfig(m.io, m.layout)
	if err != nil {
		return nil, err
	}
	out, err := m.runSingle(ctx, "list", func(ctx context.Context) (any, error) {
		summaries := make([]Summary, 0, len(project.Checkpoints))
		for _, name := range project.Checkpoints {
			summary := Summary{Name: name, Current: name == project.Current()}
			info, err := os.Stat(m.layout.ManifestPath(name))
			if err != nil {
				summary.Missing = true
				summaries = append(summaries, summary)
				continue
			}
			summary.Size = info.Size()
			summary.CreatedAt = info.ModTime()
			var manifest Manifest
			if err := readJSON(m.io, m.layout.ManifestPath(name), &manifest); err != nil {
				return nil, err
			}
			summary.Files = len(manifest)
			summaries = append(summaries, summary)
		}
		return summaries, nil
	})
	if err != nil {
		return nil, err
	}
	return out.([]Summary), nil
}

// Status describes a project without modifying it.
type Status struct {
	Root        string
	Initialized bool
	Project     *ProjectConfig
	KeyPath     string
	Checks      []preflight.Result
}

// Status inspects the project config and readiness checks.
func (m *Manager) Status(ctx context.Context) (*Status, error) {
	ctx = m.opContext(ctx, "")
	out, err := m.runSingle(ctx, "status", func(ctx context.Context) (any, error) {
		status := &Status{
			Root:        m.layout.Root,
			Initialized: m.Initialized(),
			KeyPath:     m.layout.KeyPath(),
			Checks:      m.Preflight(ctx),
		}
		if !status.Initialized {
			return status, nil
		}
		project, err := loadProjectConfig(m.io, m.layout)
		if err != nil && !errors.Is(err, services.ErrNotFound) {
			return nil, err
		}
		if err == nil {
			status.Project = &project
		}
		return status, nil
	})
	if err != nil {
		return nil, err
	}
	return out.(*Status), nil
}

// HistoryOptions filters History.
type HistoryOptions struct {
	// Limit keeps the newest Limit entries. Zero or less keeps all.
	Limit int
	// Checkpoint restricts entries to one checkpoint, listed oldest first.
	Checkpoint string
}

// History returns journaled operations, newest first unless filtered to one
// checkpoint.
func (m *Manager) History(ctx context.Context, opts HistoryOptions) ([]journal.Entry, error) {
	ctx = m.opContext(ctx, "")
	if !m.Initialized() {
		return nil, services.Wrap(services.ErrNotFound, "checkpoint", "history",
			fmt.Sprintf("%s is not initialized (run init first)", m.layout.Root), nil)
	}
	out, err := m.runSingle(ctx, "history", func(ctx context.Context) (any, error) {
		j, err := journal.Open(ctx, m.layout.Dir)
		if err != nil {
			return nil, err
		}
		defer j.Close()
		if opts.Checkpoint == "" {
			return j.List(ctx, opts.Limit)
		}
		entries, err := j.ForCheckpoint(ctx, opts.Checkpoint)
		if err != nil {
			return nil, err
		}
		if opts.Limit > 0 && len(entries) > opts.Limit {
			entries = entries[len(entries)-opts.Limit:]
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return out.([]journal.Entry), nil
}
