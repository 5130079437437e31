package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// ErrTimeout reports that the lock could not be acquired within the
// configured bound.
var ErrTimeout = errors.New("lock timeout")

const (
	lockSuffix           = ".lock"
	defaultRetryInterval = 50 * time.Millisecond
)

// Locker grants cluster-wide exclusive access to one resource. The guard is a
// flock(2) on a sidecar lock file, so every process that sees the same
// filesystem path contends for the same lock.
type Locker struct {
	resource string
	path     string
	timeout  time.Duration
	retry    time.Duration
}

// Option customizes a Locker.
type Option func(*Locker)

// WithTimeout bounds how long Acquire waits. Zero or negative waits forever.
func WithTimeout(d time.Duration) Option {
	return func(l *Locker) {
		l.timeout = d
	}
}

// WithRetryInterval sets how often a blocked Acquire polls the lock.
func WithRetryInterval(d time.Duration) Option {
	return func(l *Locker) {
		if d > 0 {
			l.retry = d
		}
	}
}

// New returns a Locker for resource. The lock file lives next to the
// resource as "<resource>.lock".
func New(resource string, opts ...Option) *Locker {
	resource = strings.TrimSpace(resource)
	l := &Locker{
		resource: resource,
		path:     resource + lockSuffix,
		retry:    defaultRetryInterval,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the lock file location.
func (l *Locker) Path() string {
	return l.path
}

// Resource returns the resource the lock protects.
func (l *Locker) Resource() string {
	return l.resource
}

// Acquire blocks until the lock is held, the timeout elapses, or ctx is done.
// Each call opens its own lock file handle, so concurrent callers in the same
// process exclude each other just like separate processes do.
func (l *Locker) Acquire(ctx context.Context) (*Guard, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if l.resource == "" {
		return nil, errors.New("lock: resource is required")
	}
	if dir := filepath.Dir(l.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create lock directory: %w", err)
		}
	}

	waitCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	fl := flock.New(l.path)
	started := time.Now()
	ok, err := fl.TryLockContext(waitCtx, l.retry)
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s not acquired after %s", ErrTimeout, l.path, l.timeout)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("acquire lock %s: %w", l.path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s not acquired", ErrTimeout, l.path)
	}
	return &Guard{lock: fl, waited: time.Since(started)}, nil
}

// Guard represents a held lock. Release it exactly once; extra calls are
// no-ops.
type Guard struct {
	mu     sync.Mutex
	lock   *flock.Flock
	waited time.Duration
}

// Waited reports how long Acquire blocked before the lock was granted.
func (g *Guard) Waited() time.Duration {
	if g == nil {
		return 0
	}
	return g.waited
}

// Release unlocks and closes the lock file handle.
func (g *Guard) Release() error {
	if g == nil {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.lock == nil {
		return nil
	}
	err := g.lock.Unlock()
	g.lock = nil
	if err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}
