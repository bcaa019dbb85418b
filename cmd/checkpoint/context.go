package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"checkpoint/internal/checkpoint"
	"checkpoint/internal/config"
	"checkpoint/internal/logging"
)

type commandContext struct {
	configFlag *string
	pathFlag   *string
	ignoreFlag *[]string
	stderr     io.Writer

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, pathFlag *string, ignoreFlag *[]string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		pathFlag:   pathFlag,
		ignoreFlag: ignoreFlag,
		stderr:     os.Stderr,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg, shouldColorize(c.stderr))
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) projectPath() string {
	if c.pathFlag == nil || strings.TrimSpace(*c.pathFlag) == "" {
		return "."
	}
	return strings.TrimSpace(*c.pathFlag)
}

// ignoreDirs returns the --ignore-dirs value when it was set explicitly, and
// nil otherwise so the tool config decides.
func (c *commandContext) ignoreDirs(cmd *cobra.Command) []string {
	if c.ignoreFlag == nil {
		return nil
	}
	if flag := cmd.Flags().Lookup("ignore-dirs"); flag == nil || !flag.Changed {
		return nil
	}
	return append([]string{}, *c.ignoreFlag...)
}

func (c *commandContext) manager() (*checkpoint.Manager, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	path, err := config.ExpandPath(c.projectPath())
	if err != nil {
		return nil, fmt.Errorf("resolve project path: %w", err)
	}
	return checkpoint.NewManager(path, checkpoint.Options{
		Config:   cfg,
		Logger:   logger,
		Progress: newReadProgress(c.stderr),
		Version:  version,
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
