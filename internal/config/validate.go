package config

import (
	"errors"
	"fmt"
	"strings"
)

// KeySuffix is the file extension every key artifact name must carry.
const KeySuffix = ".key"

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateReaders(); err != nil {
		return err
	}
	if err := c.validateCrypt(); err != nil {
		return err
	}
	if err := c.validateIO(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateReaders() error {
	if c.Readers.Workers < 0 {
		return errors.New("readers.workers must be zero (auto) or positive")
	}
	return nil
}

func (c *Config) validateCrypt() error {
	if c.Crypt.Iterations < 1 {
		return errors.New("crypt.iterations must be at least 1")
	}
	if !strings.HasSuffix(c.Crypt.KeyName, KeySuffix) {
		return fmt.Errorf("crypt.key_name must end in %q", KeySuffix)
	}
	if strings.ContainsAny(c.Crypt.KeyName, `/\`) {
		return errors.New("crypt.key_name must be a bare file name")
	}
	return nil
}

func (c *Config) validateIO() error {
	switch c.IO.Mode {
	case "a", "m", "s":
		return nil
	default:
		return fmt.Errorf("io.mode %q is not a valid IO operation mode (want a, m or s)", c.IO.Mode)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q is not supported (want console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not supported", c.Logging.Level)
	}
	return nil
}
