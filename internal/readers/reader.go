package readers

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// ErrInvalidExtension marks reads attempted on an extension the reader does
// not support.
var ErrInvalidExtension = errors.New("invalid extension")

// InvalidExtensionError names the offending extension and reader.
type InvalidExtensionError struct {
	Ext    string
	Reader string
}

func (e *InvalidExtensionError) Error() string {
	return fmt.Sprintf("invalid file extension %q for reader %s", e.Ext, e.Reader)
}

func (e *InvalidExtensionError) Is(target error) bool {
	return target == ErrInvalidExtension
}

// Content is the result of reading one file.
type Content struct {
	Path   string
	Reader string
	// Raw holds the file bytes exactly as stored on disk.
	Raw []byte
	// View holds the reader-specific rendition: UTF-8 text or a pixel buffer.
	View []byte
}

// Reader reads files of a declared set of extensions.
type Reader interface {
	Name() string
	Extensions() []string
	Supports(ext string) bool
	Read(path string) (Content, error)
	ReadBatch(paths []string) ([]Content, error)
	// Validate reports whether ext is actually readable by round-tripping
	// synthetic content through a scratch directory.
	Validate(ext string) bool
	// Extend validates exts and adds the accepted ones, returning them.
	Extend(exts ...string) []string
}

// Extension returns the lowercase suffix after the last dot of the base name,
// or "" when there is none.
func Extension(path string) string {
	base := filepath.Base(path)
	idx := strings.LastIndexByte(base, '.')
	if idx < 0 {
		return ""
	}
	return strings.ToLower(base[idx+1:])
}

// NormalizeExtension lowercases ext and strips a leading dot.
func NormalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// extensionSet is the shared bookkeeping behind every reader variant.
type extensionSet struct {
	name string

	mu   sync.RWMutex
	exts map[string]struct{}
}

func newExtensionSet(name string, exts []string) *extensionSet {
	set := &extensionSet{name: name, exts: make(map[string]struct{}, len(exts))}
	for _, ext := range exts {
		set.exts[NormalizeExtension(ext)] = struct{}{}
	}
	return set
}

func (s *extensionSet) Name() string { return s.name }

func (s *extensionSet) Extensions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.exts))
	for ext := range s.exts {
		out = append(out, ext)
	}
	slices.Sort(out)
	return out
}

func (s *extensionSet) Supports(ext string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.exts[NormalizeExtension(ext)]
	return ok
}

func (s *extensionSet) add(ext string) {
	s.mu.Lock()
	s.exts[NormalizeExtension(ext)] = struct{}{}
	s.mu.Unlock()
}

func (s *extensionSet) check(path string) error {
	ext := Extension(path)
	if !s.Supports(ext) {
		return &InvalidExtensionError{Ext: ext, Reader: s.name}
	}
	return nil
}

func extend(r Reader, add func(string), exts []string) []string {
	var accepted []string
	for _, ext := range exts {
		ext = NormalizeExtension(ext)
		if r.Supports(ext) {
			continue
		}
		if r.Validate(ext) {
			add(ext)
			accepted = append(accepted, ext)
		}
	}
	return accepted
}

func readBatch(r Reader, paths []string) ([]Content, error) {
	out := make([]Content, 0, len(paths))
	for _, path := range paths {
		content, err := r.Read(path)
		if err != nil {
			return nil, err
		}
		out = append(out, content)
	}
	return out, nil
}

// withScratchFile creates an empty temp directory, lets write populate a
// file named "probe.<ext>" inside it, then hands the path to read.
func withScratchFile(ext string, write func(path string) error, read func(path string) error) bool {
	dir, err := os.MkdirTemp("", "checkpoint-probe-")
	if err != nil {
		return false
	}
	defer os.RemoveAll(dir)

	name := "probe"
	if ext != "" {
		name += "." + ext
	}
	path := filepath.Join(dir, name)
	if err := write(path); err != nil {
		return false
	}
	return read(path) == nil
}
