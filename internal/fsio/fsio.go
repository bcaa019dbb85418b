// Package fsio performs file reads and writes beneath a project root under
// one of three permission modes.
//
//	a  all permissions: r w x a wb+ w+ rb+
//	m  moderate:        r w a wb rb
//	s  limited:         r a
package fsio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"checkpoint/internal/services"
)

// Mode is an IO permission mode.
type Mode string

const (
	ModeAll      Mode = "a"
	ModeModerate Mode = "m"
	ModeLimited  Mode = "s"
)

var modeFlags = map[Mode][]string{
	ModeAll:      {"r", "w", "x", "a", "wb+", "w+", "rb+"},
	ModeModerate: {"r", "w", "a", "wb", "rb"},
	ModeLimited:  {"r", "a"},
}

// ErrModeDenied is returned when a write flag is not permitted by the mode.
var ErrModeDenied = errors.New("write mode not allowed")

// ParseMode validates a mode name.
func ParseMode(value string) (Mode, error) {
	mode := Mode(strings.TrimSpace(value))
	if _, ok := modeFlags[mode]; !ok {
		return "", services.Wrap(services.ErrConfiguration, "io", "parse mode",
			fmt.Sprintf("%q is not a valid IO operation mode", value), nil)
	}
	return mode, nil
}

// Allows reports whether flag may be used under m.
func (m Mode) Allows(flag string) bool {
	return slices.Contains(modeFlags[m], flag)
}

// IO reads and writes files under a root directory.
type IO struct {
	root string
	mode Mode
}

// New validates root and mode.
func New(root, mode string) (*IO, error) {
	parsed, err := ParseMode(mode)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "io", "resolve root", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return nil, services.Wrap(services.ErrConfiguration, "io", "open root",
			fmt.Sprintf("%s is not a valid directory", abs), err)
	}
	return &IO{root: abs, mode: parsed}, nil
}

func (f *IO) Root() string { return f.root }

func (f *IO) Mode() Mode { return f.mode }

// Read returns the contents of path.
func (f *IO) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// Write writes content to path using a Python-style open flag ("w", "wb+",
// "a", "x", "rb+" ...). The flag must be permitted by the IO mode.
func (f *IO) Write(path, flag string, content []byte) error {
	if !f.mode.Allows(flag) {
		return services.Wrap(services.ErrValidation, "io", "write",
			fmt.Sprintf("mode %s not allowed with IO mode %s", flag, f.mode), ErrModeDenied)
	}
	osFlag, err := openFlag(flag)
	if err != nil {
		return err
	}
	file, err := os.OpenFile(path, osFlag, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := file.Write(content); err != nil {
		_ = file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// WriteFile creates or truncates path, creating parent directories, with the
// strongest truncating flag the mode permits.
func (f *IO) WriteFile(path string, content []byte) error {
	flag := ""
	for _, candidate := range []string{"wb+", "wb", "w+", "w"} {
		if f.mode.Allows(candidate) {
			flag = candidate
			break
		}
	}
	if flag == "" {
		return services.Wrap(services.ErrValidation, "io", "write",
			fmt.Sprintf("IO mode %s does not permit overwriting %s", f.mode, path), ErrModeDenied)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent of %s: %w", path, err)
	}
	return f.Write(path, flag, content)
}

func openFlag(flag string) (int, error) {
	switch flag {
	case "w", "wb":
		return os.O_WRONLY | os.O_CREATE | os.O_TRUNC, nil
	case "w+", "wb+":
		return os.O_RDWR | os.O_CREATE | os.O_TRUNC, nil
	case "a":
		return os.O_WRONLY | os.O_CREATE | os.O_APPEND, nil
	case "x":
		return os.O_WRONLY | os.O_CREATE | os.O_EXCL, nil
	case "rb+":
		return os.O_RDWR, nil
	default:
		return 0, services.Wrap(services.ErrValidation, "io", "write",
			fmt.Sprintf("mode %s is not a write mode", flag), ErrModeDenied)
	}
}
