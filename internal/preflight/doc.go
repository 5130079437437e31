// Package preflight provides readiness checks for the shared paths and
// resources llcqueue depends on.
//
// Operators run them through "llcqueue check" after pointing a new host at the
// status file: the checks confirm the status directory is writable, the
// document parses, the lock can be taken within the configured bound, the
// dependency graph is valid, and the journal opens when enabled.
//
// Checks only read; none of them modify the status document.
package preflight
