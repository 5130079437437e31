package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLock()
	c.normalizeLogging()
	c.normalizePipeline()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	c.Paths.StatusFile = strings.TrimSpace(c.Paths.StatusFile)
	if c.Paths.StatusFile == "" {
		if value, ok := os.LookupEnv(StatusFileEnv); ok && strings.TrimSpace(value) != "" {
			c.Paths.StatusFile = strings.TrimSpace(value)
		} else {
			c.Paths.StatusFile = defaultStatusFile
		}
	}
	if c.Paths.StatusFile, err = expandPath(c.Paths.StatusFile); err != nil {
		return fmt.Errorf("paths.status_file: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.JournalPath) == "" {
		c.Paths.JournalPath = filepath.Join(c.Paths.LogDir, defaultJournalName)
	}
	if c.Paths.JournalPath, err = expandPath(c.Paths.JournalPath); err != nil {
		return fmt.Errorf("paths.journal_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLock() {
	if c.Lock.TimeoutSeconds < 0 {
		c.Lock.TimeoutSeconds = 0
	}
	if c.Lock.RetryIntervalMillis == 0 {
		c.Lock.RetryIntervalMillis = defaultLockRetryIntervalMs
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizePipeline() {
	if len(c.Pipeline.Edges) == 0 {
		c.Pipeline.Edges = defaultEdges()
		return
	}
	for i := range c.Pipeline.Edges {
		e := &c.Pipeline.Edges[i]
		e.Process = strings.TrimSpace(e.Process)
		e.Variable = strings.TrimSpace(e.Variable)
		for j := range e.Upstreams {
			e.Upstreams[j] = strings.TrimSpace(e.Upstreams[j])
		}
	}
}
