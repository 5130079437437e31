// Package journal keeps an append-only SQLite history of status transitions.
//
// The YAML status document stays the source of truth; the journal only
// answers "who moved what, and when" for operators. Entries carry the
// invocation's correlation ID so they can be matched with log lines.
package journal
