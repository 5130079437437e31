package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"llcqueue/internal/pipeline"
	"llcqueue/internal/status"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file and directory locations.
type Paths struct {
	StatusFile  string `toml:"status_file"`
	LogDir      string `toml:"log_dir"`
	JournalPath string `toml:"journal_path"`
}

// Lock contains exclusive-access tuning.
type Lock struct {
	// TimeoutSeconds bounds the wait for the status lock. 0 waits forever.
	TimeoutSeconds      int `toml:"timeout_seconds"`
	RetryIntervalMillis int `toml:"retry_interval_ms"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Journal controls the SQLite transition history.
type Journal struct {
	Enabled bool `toml:"enabled"`
}

// Edge declares one dependency of the pipeline graph. Upstreams use the
// "process.variable" form; the first entry fixes pending order.
type Edge struct {
	Process   string   `toml:"process"`
	Variable  string   `toml:"variable"`
	Upstreams []string `toml:"upstreams"`
}

// Pipeline holds the dependency table.
type Pipeline struct {
	Edges []Edge `toml:"edges"`
}

// Config encapsulates all configuration values for llcqueue.
//
// Configuration sections:
//   - Paths: status document, logs, journal database
//   - Lock: acquisition timeout and poll interval
//   - Logging: log format and level
//   - Journal: transition history toggle
//   - Pipeline: process/variable dependency edges
type Config struct {
	Paths    Paths    `toml:"paths"`
	Lock     Lock     `toml:"lock"`
	Logging  Logging  `toml:"logging"`
	Journal  Journal  `toml:"journal"`
	Pipeline Pipeline `toml:"pipeline"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		// Array tables append to an existing slice; start from an empty edge
		// table so a configured graph replaces the default one.
		cfg.Pipeline.Edges = nil

		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err != nil {
			if os.IsNotExist(err) {
				return "", false, fmt.Errorf("config file %s not found", expanded)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		if info.IsDir() {
			return "", false, fmt.Errorf("config path %s is a directory", expanded)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the log directory and the directory holding the
// status document.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir, filepath.Dir(c.Paths.StatusFile)}
	if c.Journal.Enabled {
		dirs = append(dirs, filepath.Dir(c.Paths.JournalPath))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockTimeout returns the lock wait bound; zero means wait forever.
func (c *Config) LockTimeout() time.Duration {
	if c.Lock.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Lock.TimeoutSeconds) * time.Second
}

// LockRetryInterval returns how often a blocked lock acquisition polls.
func (c *Config) LockRetryInterval() time.Duration {
	return time.Duration(c.Lock.RetryIntervalMillis) * time.Millisecond
}

// Graph converts the configured edges into a validated dependency graph.
func (c *Config) Graph() (*pipeline.Graph, error) {
	edges := make([]pipeline.Edge, 0, len(c.Pipeline.Edges))
	for i, e := range c.Pipeline.Edges {
		edge := pipeline.Edge{Downstream: status.NewKey(e.Process, e.Variable)}
		for _, raw := range e.Upstreams {
			key, err := status.ParseKey(raw)
			if err != nil {
				return nil, fmt.Errorf("pipeline.edges[%d]: %w", i, err)
			}
			edge.Upstreams = append(edge.Upstreams, key)
		}
		edges = append(edges, edge)
	}
	return pipeline.NewGraph(edges)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
