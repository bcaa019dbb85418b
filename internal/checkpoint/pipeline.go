package checkpoint

import (
	"context"
	"fmt"
	"log/slog"

	"checkpoint/internal/crypt"
	"checkpoint/internal/logging"
	"checkpoint/internal/readers"
	"checkpoint/internal/scanner"
	"checkpoint/internal/sequence"
)

// Step names of the IO sequence.
const (
	StepWalkDirectories = "seq_walk_directories"
	StepGroupExtensions = "seq_group_extensions"
	StepResolveReaders  = "seq_resolve_readers"
	StepReadFiles       = "seq_read_files"
	StepEncryptFiles    = "seq_encrypt_files"
)

// IOSequenceOptions configures the IO sequence.
type IOSequenceOptions struct {
	Scanner  *scanner.Scanner
	Registry *readers.Registry
	Crypt    *crypt.Crypt
	Workers  int
	Progress readers.ProgressFunc
	Logger   *slog.Logger
	Observer sequence.Observer
}

// IORun collects by-products of one IO sequence execution that later steps
// and callers need besides the threaded result.
type IORun struct {
	Index   scanner.DirectoryIndex
	Dropped []string
	Files   int
}

// NewIOSequence builds walk → group → resolve → read → encrypt. Run it with
// sequence.DecreasingOrder and result passing enabled; the final result is a
// Manifest.
func NewIOSequence(opts IOSequenceOptions) (*sequence.Sequence, *IORun, error) {
	if opts.Scanner == nil || opts.Registry == nil || opts.Crypt == nil {
		return nil, nil, fmt.Errorf("io sequence requires scanner, registry and crypt")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	run := &IORun{}

	seqOpts := []sequence.Option{sequence.WithLogger(logger)}
	if opts.Observer != nil {
		seqOpts = append(seqOpts, sequence.WithObserver(opts.Observer))
	}
	seq := sequence.New("io", seqOpts...)

	steps := []sequence.Step{
		{Name: StepWalkDirectories, Fn: func(ctx context.Context, _ any) (any, error) {
			index, err := opts.Scanner.Refresh()
			if err != nil {
				return nil, err
			}
			run.Index = index
			logging.WithContext(ctx, logger).Debug("directories walked",
				logging.Int("directories", len(index)),
				logging.Int("files", index.Len()),
			)
			return index, nil
		}},
		{Name: StepGroupExtensions, Fn: func(_ context.Context, prev any) (any, error) {
			index, ok := prev.(scanner.DirectoryIndex)
			if !ok {
				return nil, unexpectedInput(StepGroupExtensions, prev)
			}
			return readers.GroupByExtension(index), nil
		}},
		{Name: StepResolveReaders, Fn: func(ctx context.Context, prev any) (any, error) {
			groups, ok := prev.(readers.ExtensionGroups)
			if !ok {
				return nil, unexpectedInput(StepResolveReaders, prev)
			}
			res, err := opts.Registry.Resolve(ctx, groups)
			if err != nil {
				return nil, err
			}
			run.Dropped = res.Dropped
			run.Files = res.Files()
			return res, nil
		}},
		{Name: StepReadFiles, Fn: func(ctx context.Context, prev any) (any, error) {
			res, ok := prev.(readers.Resolution)
			if !ok {
				return nil, unexpectedInput(StepReadFiles, prev)
			}
			stepLogger := logging.WithContext(ctx, logger)
			sampler := logging.NewProgressSampler(25)
			progress := func(done, total int) {
				if sampler.ShouldLog(done, total) {
					stepLogger.Debug("read progress",
						logging.Int("done", done),
						logging.Int("total", total),
					)
				}
				if opts.Progress != nil {
					opts.Progress(done, total)
				}
			}
			return readers.ReadAll(ctx, res, opts.Workers, progress)
		}},
		{Name: StepEncryptFiles, Fn: func(ctx context.Context, prev any) (any, error) {
			contents, ok := prev.(map[string]readers.Content)
			if !ok {
				return nil, unexpectedInput(StepEncryptFiles, prev)
			}
			return encryptContents(ctx, opts.Crypt, contents)
		}},
	}
	orders := map[string]int{
		StepWalkDirectories: 4,
		StepGroupExtensions: 3,
		StepResolveReaders:  2,
		StepReadFiles:       1,
		StepEncryptFiles:    0,
	}
	if err := seq.Register(steps, orders); err != nil {
		return nil, nil, err
	}
	return seq, run, nil
}

func encryptContents(ctx context.Context, c *crypt.Crypt, contents map[string]readers.Content) (Manifest, error) {
	manifest := make(Manifest, len(contents))
	for path, content := range contents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		token, err := c.Encrypt(content.Raw)
		if err != nil {
			return nil, fmt.Errorf("encrypt %s: %w", path, err)
		}
		manifest[path] = string(token)
	}
	return manifest, nil
}

func unexpectedInput(step string, value any) error {
	return fmt.Errorf("%s received %T", step, value)
}
