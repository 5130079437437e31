// Package config loads, normalizes, and validates llcqueue configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the LLCQUEUE_STATUS_FILE
// environment fallback for the status document location. The Config type
// also carries the pipeline dependency table, so every worker and
// orchestrator on the cluster can share one file describing which stages feed
// which.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, a validated dependency graph, and clear validation errors.
package config
