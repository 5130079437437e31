package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"llcqueue/internal/config"
	"llcqueue/internal/journal"
	"llcqueue/internal/lock"
	"llcqueue/internal/status"
)

// defaultLockProbe bounds the lock check when the configuration waits forever.
const defaultLockProbe = 10 * time.Second

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckStatusDocument loads the document without taking the lock. Saves are
// atomic renames, so an unlocked read sees either the old or the new file.
func CheckStatusDocument(path string) Result {
	const name = "Status document"
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (missing; created on first write)", path)}
	}
	doc, err := status.NewFileStore(path).Load()
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("error: %v", err)}
	}
	pairs, items := 0, 0
	for _, key := range doc.Keys() {
		vs, _ := doc.Lookup(key)
		pairs++
		items += vs.Len()
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d pairs, %d items)", path, pairs, items)}
}

// CheckLock acquires and releases the status lock. A zero timeout is
// replaced by a finite probe so the check cannot hang.
func CheckLock(ctx context.Context, statusFile string, timeout time.Duration) Result {
	const name = "Status lock"
	if timeout <= 0 {
		timeout = defaultLockProbe
	}
	locker := lock.New(statusFile, lock.WithTimeout(timeout))
	guard, err := locker.Acquire(ctx)
	if err != nil {
		if errors.Is(err, lock.ErrTimeout) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: held by another worker for over %s)", locker.Path(), timeout)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", locker.Path(), err)}
	}
	waited := guard.Waited()
	if err := guard.Release(); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", locker.Path(), err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (acquired after %s)", locker.Path(), waited.Round(time.Millisecond))}
}

// CheckGraph validates the configured dependency edges.
func CheckGraph(cfg *config.Config) Result {
	const name = "Dependency graph"
	graph, err := cfg.Graph()
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("error: %v", err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d edges over %d pairs", len(graph.Edges()), len(graph.Keys()))}
}

// CheckJournal opens the journal database, creating it if needed.
func CheckJournal(path string) Result {
	const name = "Journal"
	j, err := journal.Open(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if err := j.Close(); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: close: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (ok)", path)}
}
