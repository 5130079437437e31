// Package queue is the transition engine for the LLC status document.
//
// An Engine moves item identifiers between the pending, in_progress, and
// completed lists of one process/variable pair, and derives downstream pending
// lists from upstream completed lists along the configured dependency graph.
// Every public operation runs one locked cycle: acquire the cluster-wide file
// lock, load the document, check preconditions, mutate, save atomically, and
// release. A rejected operation saves nothing.
//
// Workers on different hosts coordinate only through the status file, so the
// engine keeps no state between calls. Items left in progress by a crashed
// worker stay there until an operator runs ResetInProgress.
//
// Failures are classified with Kind so callers can tell a lost claim race
// (KindNotPending) from a broken store or a lock timeout.
package queue
