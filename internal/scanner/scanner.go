package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"checkpoint/internal/services"
)

// DirectoryIndex maps each visited directory to the absolute paths of the
// files it directly contains.
type DirectoryIndex map[string][]string

// Files returns every indexed file path in lexical order.
func (idx DirectoryIndex) Files() []string {
	var files []string
	for _, paths := range idx {
		files = append(files, paths...)
	}
	slices.Sort(files)
	return files
}

// Len reports the number of indexed files.
func (idx DirectoryIndex) Len() int {
	total := 0
	for _, paths := range idx {
		total += len(paths)
	}
	return total
}

// Scanner walks a root directory honoring ignore fragments.
type Scanner struct {
	root    string
	ignore  []string
	exclude []string

	mu      sync.Mutex
	index   DirectoryIndex
	walkErr error
}

// Option customizes a Scanner.
type Option func(*Scanner)

// WithExclude skips the given directories and everything beneath them. Unlike
// ignore fragments these match whole paths.
func WithExclude(dirs ...string) Option {
	return func(s *Scanner) {
		for _, dir := range dirs {
			if dir = strings.TrimSpace(dir); dir != "" {
				s.exclude = append(s.exclude, filepath.Clean(dir))
			}
		}
	}
}

// New validates root and returns a scanner for it.
func New(root string, ignore []string, opts ...Option) (*Scanner, error) {
	if strings.TrimSpace(root) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "scanner", "open root", "root path is empty", nil)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "scanner", "resolve root", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "scanner", "stat root", abs, err)
	}
	if !info.IsDir() {
		return nil, services.Wrap(services.ErrConfiguration, "scanner", "open root", fmt.Sprintf("%s is not a directory", abs), nil)
	}

	fragments := make([]string, 0, len(ignore))
	for _, fragment := range ignore {
		if fragment = strings.TrimSpace(fragment); fragment != "" {
			fragments = append(fragments, fragment)
		}
	}
	s := &Scanner{root: abs, ignore: fragments}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Root returns the absolute root path.
func (s *Scanner) Root() string {
	return s.root
}

// Ignored reports whether dir is skipped, either because it lies under an
// excluded directory or because its path contains an ignore fragment.
func (s *Scanner) Ignored(dir string) bool {
	for _, excluded := range s.exclude {
		if dir == excluded || strings.HasPrefix(dir, excluded+string(filepath.Separator)) {
			return true
		}
	}
	for _, fragment := range s.ignore {
		if strings.Contains(dir, fragment) {
			return true
		}
	}
	return false
}

// Walk yields (directory, filename) pairs for every reachable file. Each call
// starts a fresh traversal; a traversal error ends iteration early and is
// reported by Err.
func (s *Scanner) Walk() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		stop := errors.New("stop")
		err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if s.Ignored(path) {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if !yield(filepath.Dir(path), d.Name()) {
				return stop
			}
			return nil
		})
		if errors.Is(err, stop) {
			err = nil
		}
		s.mu.Lock()
		s.walkErr = err
		s.mu.Unlock()
	}
}

// Err returns the error that ended the most recent Walk, if any.
func (s *Scanner) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.walkErr
}

// Index returns the cached directory index, building it on first use.
func (s *Scanner) Index() (DirectoryIndex, error) {
	s.mu.Lock()
	cached := s.index
	s.mu.Unlock()
	if cached != nil {
		return cached, nil
	}
	return s.Refresh()
}

// Refresh rebuilds the directory index from disk.
func (s *Scanner) Refresh() (DirectoryIndex, error) {
	index := DirectoryIndex{}
	for dir, name := range s.Walk() {
		index[dir] = append(index[dir], filepath.Join(dir, name))
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("walk %s: %w", s.root, err)
	}

	s.mu.Lock()
	s.index = index
	s.mu.Unlock()
	return index, nil
}
