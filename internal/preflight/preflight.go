package preflight

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"checkpoint/internal/config"
	"checkpoint/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Paths names the locations checked for a project.
type Paths struct {
	Root          string
	CheckpointDir string
	KeyPath       string
}

// RunAll executes every applicable check for a project. The checkpoint
// directory and key are only checked once the project is initialized.
func RunAll(ctx context.Context, paths Paths, cfg *config.Config) []Result {
	var results []Result

	results = append(results, CheckDirectoryAccess("Project root", paths.Root))

	if exists(paths.CheckpointDir) {
		results = append(results, CheckDirectoryAccess("Checkpoint directory", paths.CheckpointDir))
		if strings.TrimSpace(paths.KeyPath) != "" {
			results = append(results, CheckKeyReadable("Encryption key", paths.KeyPath))
		}
	}

	if cfg != nil && strings.TrimSpace(cfg.Logging.File) != "" {
		results = append(results, CheckDirectoryAccess("Log directory", filepath.Dir(cfg.Logging.File)))
	}

	if ctx.Err() != nil {
		results = append(results, Result{Name: "Context", Detail: ctx.Err().Error()})
	}
	return results
}

// Failure folds failed results into a single precondition error, or returns
// nil when every check passed.
func Failure(results []Result) error {
	var failed []string
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return services.Wrap(services.ErrValidation, "preflight", "check paths", strings.Join(failed, "; "), nil)
}
