package readers

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"checkpoint/internal/config"
	"checkpoint/internal/logging"
	"checkpoint/internal/scanner"
)

// ExtensionGroups maps a lowercase extension to the files carrying it.
type ExtensionGroups map[string][]string

// Extensions returns the group keys in lexical order.
func (g ExtensionGroups) Extensions() []string {
	out := make([]string, 0, len(g))
	for ext := range g {
		out = append(out, ext)
	}
	slices.Sort(out)
	return out
}

// GroupByExtension buckets every indexed file by its extension.
func GroupByExtension(index scanner.DirectoryIndex) ExtensionGroups {
	groups := ExtensionGroups{}
	for _, path := range index.Files() {
		ext := Extension(path)
		groups[ext] = append(groups[ext], path)
	}
	return groups
}

// Resolution is the outcome of matching extension groups to readers.
type Resolution struct {
	Readers map[string]Reader
	Groups  ExtensionGroups
	Dropped []string
}

// Files reports how many files survived resolution.
func (r Resolution) Files() int {
	total := 0
	for _, paths := range r.Groups {
		total += len(paths)
	}
	return total
}

// Registry maps extensions to readers. The first registered reader claiming
// an extension owns it.
type Registry struct {
	readers []Reader
	probe   bool
	logger  *slog.Logger

	mu    sync.RWMutex
	byExt map[string]Reader
}

// RegistryOption customizes a Registry.
type RegistryOption func(*Registry)

// WithProbe enables probing unknown extensions against every reader.
func WithProbe(enabled bool) RegistryOption {
	return func(r *Registry) { r.probe = enabled }
}

// WithRegistryLogger sets the logger used for dropped-extension warnings.
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry indexes readers by their declared extensions.
func NewRegistry(readers []Reader, opts ...RegistryOption) *Registry {
	reg := &Registry{
		readers: append([]Reader(nil), readers...),
		logger:  logging.NewNop(),
		byExt:   map[string]Reader{},
	}
	for _, opt := range opts {
		opt(reg)
	}
	for _, reader := range reg.readers {
		reg.index(reader, reader.Extensions())
	}
	return reg
}

// FromConfig builds the default registry: text (plus configured extras),
// image, and the byte reader when enabled.
func FromConfig(cfg config.Readers, logger *slog.Logger) *Registry {
	readers := []Reader{NewTextReader(cfg.ExtraTextExtensions...), NewImageReader()}
	if cfg.EnableByteReader {
		readers = append(readers, NewByteReader())
	}
	return NewRegistry(readers,
		WithProbe(cfg.ProbeUnknown),
		WithRegistryLogger(logging.NewComponentLogger(logger, "readers")),
	)
}

func (r *Registry) index(reader Reader, exts []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range exts {
		if _, taken := r.byExt[ext]; !taken {
			r.byExt[ext] = reader
		}
	}
}

// Readers returns the registered readers in registration order.
func (r *Registry) Readers() []Reader {
	return append([]Reader(nil), r.readers...)
}

// Lookup returns the reader owning ext.
func (r *Registry) Lookup(ext string) (Reader, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reader, ok := r.byExt[NormalizeExtension(ext)]
	return reader, ok
}

// Extend validates exts against the named reader and registers the accepted
// ones. It returns the accepted extensions.
func (r *Registry) Extend(readerName string, exts ...string) []string {
	for _, reader := range r.readers {
		if reader.Name() != readerName {
			continue
		}
		accepted := reader.Extend(exts...)
		r.index(reader, accepted)
		return accepted
	}
	return nil
}

// Resolve assigns a reader to every extension group. Unmatched extensions are
// dropped with a warning; with probing enabled each reader gets a chance to
// validate the extension first.
func (r *Registry) Resolve(ctx context.Context, groups ExtensionGroups) (Resolution, error) {
	res := Resolution{
		Readers: map[string]Reader{},
		Groups:  ExtensionGroups{},
	}
	logger := logging.WithContext(ctx, r.logger)

	for _, ext := range groups.Extensions() {
		if err := ctx.Err(); err != nil {
			return Resolution{}, err
		}
		reader, ok := r.Lookup(ext)
		if !ok && r.probe {
			reader, ok = r.probeExtension(ext)
			if ok {
				logger.Info("extension accepted by probe",
					logging.String("extension", ext),
					logging.String("reader", reader.Name()),
				)
			}
		}
		if !ok {
			res.Dropped = append(res.Dropped, ext)
			logging.WarnWithContext(logger, "no reader for extension; files skipped", "extension_dropped",
				logging.String("extension", displayExtension(ext)),
				logging.Int("files", len(groups[ext])),
				logging.String(logging.FieldImpact, "files with this extension are not part of the checkpoint"),
			)
			continue
		}
		res.Readers[ext] = reader
		res.Groups[ext] = append([]string(nil), groups[ext]...)
	}
	return res, nil
}

func (r *Registry) probeExtension(ext string) (Reader, bool) {
	for _, reader := range r.readers {
		if accepted := reader.Extend(ext); len(accepted) > 0 {
			r.index(reader, accepted)
			return reader, true
		}
	}
	return nil, false
}

func displayExtension(ext string) string {
	if ext == "" {
		return "(none)"
	}
	return ext
}
