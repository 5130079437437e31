// Package status models the shared status document and persists it.
//
// A Document maps process -> variable -> VariableStatus, where each
// VariableStatus holds three pairwise-disjoint, duplicate-free lists of item
// identifiers: pending, in_progress, and completed. FileStore keeps the
// document as YAML in one file and replaces it atomically on save so a
// concurrent reader sees either the old or the new content.
//
// Load rejects anything that does not decode into that shape, or that breaks
// the list invariants, with ErrCorruptStore. Files written by older tooling
// that call the pending list "to_do" are still accepted.
//
// Nothing in this package locks. Callers go through queue.Engine, which holds
// the lock package's guard around every load/save cycle.
package status
