package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeScan()
	c.normalizeReaders()
	c.normalizeCrypt()
	c.IO.Mode = strings.TrimSpace(c.IO.Mode)
	if c.IO.Mode == "" {
		c.IO.Mode = defaultIOMode
	}
	return c.normalizeLogging()
}

func (c *Config) normalizeScan() {
	seen := make(map[string]struct{}, len(c.Scan.IgnoreDirs))
	cleaned := make([]string, 0, len(c.Scan.IgnoreDirs))
	for _, dir := range c.Scan.IgnoreDirs {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			continue
		}
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		cleaned = append(cleaned, dir)
	}
	c.Scan.IgnoreDirs = cleaned
}

func (c *Config) normalizeReaders() {
	exts := make([]string, 0, len(c.Readers.ExtraTextExtensions))
	for _, ext := range c.Readers.ExtraTextExtensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			exts = append(exts, ext)
		}
	}
	c.Readers.ExtraTextExtensions = exts
}

func (c *Config) normalizeCrypt() {
	c.Crypt.KeyName = strings.TrimSpace(c.Crypt.KeyName)
	if c.Crypt.KeyName == "" {
		c.Crypt.KeyName = defaultKeyName
	}
	if c.Crypt.Iterations == 0 {
		c.Crypt.Iterations = defaultIterations
	}
}

func (c *Config) normalizeLogging() error {
	if value, ok := os.LookupEnv("CHECKPOINT_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if strings.TrimSpace(c.Logging.File) != "" {
		expanded, err := expandPath(c.Logging.File)
		if err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
		c.Logging.File = expanded
	}
	return nil
}
