package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLock(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.StatusFile) == "" {
		return fmt.Errorf("paths.status_file must be set (or export %s)", StatusFileEnv)
	}
	if c.Journal.Enabled && strings.TrimSpace(c.Paths.JournalPath) == "" {
		return errors.New("paths.journal_path must be set when journal.enabled is true")
	}
	return nil
}

func (c *Config) validateLock() error {
	if c.Lock.TimeoutSeconds < 0 {
		return errors.New("lock.timeout_seconds must not be negative")
	}
	if c.Lock.RetryIntervalMillis <= 0 {
		return errors.New("lock.retry_interval_ms must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

func (c *Config) validatePipeline() error {
	if _, err := c.Graph(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	return nil
}
