package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"

	"checkpoint/internal/fsio"
	"checkpoint/internal/services"
)

// ProjectConfig is the persisted state of a project.
type ProjectConfig struct {
	CurrentCheckpoint *string  `json:"current_checkpoint"`
	Checkpoints       []string `json:"checkpoints"`
	IgnoreDirs        []string `json:"ignore_dirs"`
	RootDir           string   `json:"root_dir"`
}

// Current returns the current checkpoint name, or "" when there is none.
func (p ProjectConfig) Current() string {
	if p.CurrentCheckpoint == nil {
		return ""
	}
	return *p.CurrentCheckpoint
}

// Has reports whether name is a known checkpoint.
func (p ProjectConfig) Has(name string) bool {
	return slices.Contains(p.Checkpoints, name)
}

func (p *ProjectConfig) setCurrent(name string) {
	if name == "" {
		p.CurrentCheckpoint = nil
		return
	}
	p.CurrentCheckpoint = &name
}

func (p *ProjectConfig) add(name string) {
	if !p.Has(name) {
		p.Checkpoints = append(p.Checkpoints, name)
	}
	p.setCurrent(name)
}

func (p *ProjectConfig) remove(name string) {
	p.Checkpoints = slices.DeleteFunc(p.Checkpoints, func(existing string) bool { return existing == name })
	if len(p.Checkpoints) == 0 {
		p.setCurrent("")
		return
	}
	p.setCurrent(p.Checkpoints[len(p.Checkpoints)-1])
}

func loadProjectConfig(io *fsio.IO, layout Layout) (ProjectConfig, error) {
	data, err := io.Read(layout.ConfigPath())
	if errors.Is(err, os.ErrNotExist) {
		return ProjectConfig{}, services.Wrap(services.ErrNotFound, "checkpoint", "load project config",
			fmt.Sprintf("%s is not initialized (run init first)", layout.Root), nil)
	}
	if err != nil {
		return ProjectConfig{}, err
	}
	var cfg ProjectConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return ProjectConfig{}, fmt.Errorf("decode project config %s: %w", layout.ConfigPath(), err)
	}
	if cfg.Checkpoints == nil {
		cfg.Checkpoints = []string{}
	}
	if cfg.IgnoreDirs == nil {
		cfg.IgnoreDirs = []string{}
	}
	return cfg, nil
}

func saveProjectConfig(io *fsio.IO, layout Layout, cfg ProjectConfig) error {
	return writeJSON(io, layout.ConfigPath(), cfg)
}

func writeJSON(io *fsio.IO, path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	data = append(data, '\n')
	return io.WriteFile(path, data)
}

func readJSON(io *fsio.IO, path string, value any) error {
	data, err := io.Read(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, value); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
