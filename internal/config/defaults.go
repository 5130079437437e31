package config

import "llcqueue/internal/pipeline"

const (
	defaultConfigPath          = "~/.config/llcqueue/config.toml"
	projectConfigName          = "llcqueue.toml"
	defaultStatusFile          = "~/.local/share/llcqueue/folder_status.yml"
	defaultLogDir              = "~/.local/share/llcqueue/logs"
	defaultJournalName         = "journal.db"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLockTimeoutSeconds  = 0
	defaultLockRetryIntervalMs = 50

	// StatusFileEnv fills paths.status_file when the config leaves it unset.
	StatusFileEnv = "LLCQUEUE_STATUS_FILE"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		Lock: Lock{
			TimeoutSeconds:      defaultLockTimeoutSeconds,
			RetryIntervalMillis: defaultLockRetryIntervalMs,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Pipeline: Pipeline{
			Edges: defaultEdges(),
		},
	}
}

func defaultEdges() []Edge {
	g := pipeline.DefaultGraph()
	edges := make([]Edge, 0, len(g.Edges()))
	for _, e := range g.Edges() {
		upstreams := make([]string, 0, len(e.Upstreams))
		for _, up := range e.Upstreams {
			upstreams = append(upstreams, up.String())
		}
		edges = append(edges, Edge{
			Process:   e.Downstream.Process,
			Variable:  e.Downstream.Variable,
			Upstreams: upstreams,
		})
	}
	return edges
}
