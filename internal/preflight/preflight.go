package preflight

import (
	"context"
	"path/filepath"

	"llcqueue/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// The journal check only runs when the journal is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Status directory", filepath.Dir(cfg.Paths.StatusFile)))
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	results = append(results, CheckGraph(cfg))
	results = append(results, CheckStatusDocument(cfg.Paths.StatusFile))
	results = append(results, CheckLock(ctx, cfg.Paths.StatusFile, cfg.LockTimeout()))

	if cfg.Journal.Enabled {
		results = append(results, CheckJournal(cfg.Paths.JournalPath))
	}

	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
