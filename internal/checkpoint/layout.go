package checkpoint

import (
	"fmt"
	"path/filepath"
	"strings"

	"checkpoint/internal/services"
)

const (
	// DirName is the hidden directory holding all checkpoint state.
	DirName = ".checkpoint"
	// ConfigFile is the project config file inside DirName.
	ConfigFile = ".config"
	// MetadataFile holds the directory shape of one checkpoint.
	MetadataFile = ".metadata"
)

// Layout resolves the on-disk locations for a project root.
type Layout struct {
	Root    string
	Dir     string
	KeyName string
}

func newLayout(root, keyName string) Layout {
	return Layout{Root: root, Dir: filepath.Join(root, DirName), KeyName: keyName}
}

func (l Layout) ConfigPath() string { return filepath.Join(l.Dir, ConfigFile) }

func (l Layout) KeyPath() string { return filepath.Join(l.Dir, l.KeyName) }

func (l Layout) CheckpointDir(name string) string { return filepath.Join(l.Dir, name) }

func (l Layout) ManifestPath(name string) string {
	return filepath.Join(l.Dir, name, name+".json")
}

func (l Layout) MetadataPath(name string) string {
	return filepath.Join(l.Dir, name, MetadataFile)
}

// ValidateName rejects checkpoint names that cannot be used as a directory
// inside the checkpoint root.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	switch {
	case trimmed == "":
		return services.Wrap(services.ErrValidation, "checkpoint", "validate name", "checkpoint name is required", nil)
	case trimmed != name:
		return services.Wrap(services.ErrValidation, "checkpoint", "validate name",
			fmt.Sprintf("checkpoint name %q has surrounding whitespace", name), nil)
	case strings.ContainsAny(name, `/\`):
		return services.Wrap(services.ErrValidation, "checkpoint", "validate name",
			fmt.Sprintf("checkpoint name %q must not contain path separators", name), nil)
	case strings.HasPrefix(name, "."):
		return services.Wrap(services.ErrValidation, "checkpoint", "validate name",
			fmt.Sprintf("checkpoint name %q must not start with a dot", name), nil)
	}
	return nil
}
