package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"llcqueue/internal/config"
	"llcqueue/internal/journal"
	"llcqueue/internal/lock"
	"llcqueue/internal/logging"
	"llcqueue/internal/pipeline"
	"llcqueue/internal/status"
)

// Recorder receives an entry for every transition that changed the document.
// *journal.Journal implements it.
type Recorder interface {
	Record(ctx context.Context, entry journal.Entry) error
}

// Engine serializes every status mutation through the file lock.
type Engine struct {
	store    status.Store
	locker   *lock.Locker
	graph    *pipeline.Graph
	logger   *slog.Logger
	recorder Recorder
	closers  []func() error

	lockTimeout   time.Duration
	retryInterval time.Duration
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithGraph replaces the default dependency graph.
func WithGraph(graph *pipeline.Graph) Option {
	return func(e *Engine) {
		if graph != nil {
			e.graph = graph
		}
	}
}

// WithLockTimeout bounds how long an operation waits for the lock. Zero waits
// forever.
func WithLockTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.lockTimeout = d
	}
}

// WithRetryInterval sets how often a blocked operation polls the lock.
func WithRetryInterval(d time.Duration) Option {
	return func(e *Engine) {
		e.retryInterval = d
	}
}

// WithJournal records successful transitions to r.
func WithJournal(r Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// New returns an engine for the status document at path.
func New(path string, opts ...Option) (*Engine, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: status file location is required", ErrInvalidInput)
	}
	e := &Engine{
		store: status.NewFileStore(path),
		graph: pipeline.DefaultGraph(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	e.logger = logging.NewComponentLogger(e.logger, "queue")
	e.locker = lock.New(path, lock.WithTimeout(e.lockTimeout), lock.WithRetryInterval(e.retryInterval))
	return e, nil
}

// Open builds an engine from configuration: status file location, lock
// tuning, dependency graph, and the optional journal. Later opts override
// configured values.
func Open(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	graph, err := cfg.Graph()
	if err != nil {
		return nil, fmt.Errorf("pipeline graph: %w", err)
	}

	base := []Option{
		WithGraph(graph),
		WithLockTimeout(cfg.LockTimeout()),
		WithRetryInterval(cfg.LockRetryInterval()),
	}
	var j *journal.Journal
	if cfg.Journal.Enabled {
		j, err = journal.Open(cfg.Paths.JournalPath)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		base = append(base, WithJournal(j))
	}

	e, err := New(cfg.Paths.StatusFile, append(base, opts...)...)
	if err != nil {
		if j != nil {
			_ = j.Close()
		}
		return nil, err
	}
	if j != nil {
		e.closers = append(e.closers, j.Close)
	}
	return e, nil
}

// Close releases resources Open acquired. It does not touch the status file.
func (e *Engine) Close() error {
	if e == nil {
		return nil
	}
	var errs []error
	for _, closeFn := range e.closers {
		errs = append(errs, closeFn())
	}
	e.closers = nil
	return errors.Join(errs...)
}

// Location returns the status document path.
func (e *Engine) Location() string {
	return e.store.Location()
}

// LockPath returns the sidecar lock file path.
func (e *Engine) LockPath() string {
	return e.locker.Path()
}

// Graph returns the dependency graph the engine resolves against.
func (e *Engine) Graph() *pipeline.Graph {
	return e.graph
}

// update runs one locked read-modify-write cycle. fn reports whether it
// changed doc; an unchanged document or an fn error skips the save.
func (e *Engine) update(ctx context.Context, op string, fn func(doc *status.Document) (bool, error)) error {
	return e.withLock(ctx, op, func(doc *status.Document) error {
		changed, err := fn(doc)
		if err != nil || !changed {
			return err
		}
		return e.store.Save(doc)
	})
}

// view runs fn against a freshly loaded document under the lock.
func (e *Engine) view(ctx context.Context, op string, fn func(doc *status.Document) error) error {
	return e.withLock(ctx, op, fn)
}

func (e *Engine) withLock(ctx context.Context, op string, fn func(doc *status.Document) error) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	guard, err := e.locker.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := guard.Release(); releaseErr != nil {
			e.logger.Warn("status lock release failed",
				logging.String(logging.FieldOperation, op),
				logging.Error(releaseErr),
			)
			if err == nil {
				err = releaseErr
			}
		}
	}()
	if waited := guard.Waited(); waited > time.Second {
		e.logger.Debug("waited for status lock",
			logging.String(logging.FieldOperation, op),
			logging.Duration("waited", waited),
		)
	}

	doc, err := e.store.Load()
	if err != nil {
		return err
	}
	return fn(doc)
}

// opLogger returns a logger tagged with the invocation's correlation id and
// the pair being operated on.
func (e *Engine) opLogger(ctx context.Context, op string, key status.Key) *slog.Logger {
	return logging.WithContext(ctx, e.logger).With(
		logging.String(logging.FieldOperation, op),
		logging.String(logging.FieldProcess, key.Process),
		logging.String(logging.FieldVariable, key.Variable),
	)
}

// logRejected reports a failed operation at a level matching its kind. Lost
// claim races are routine and stay at debug.
func logRejected(logger *slog.Logger, msg string, err error) {
	kind := Kind(err)
	attrs := logging.Args(logging.String(logging.FieldErrorKind, kind), logging.Error(err))
	switch kind {
	case KindNotPending, KindNothingPending:
		logger.Debug(msg, attrs...)
	case KindCorruptStore, KindStoreIO, KindUnknown:
		logger.Error(msg, attrs...)
	default:
		logger.Warn(msg, attrs...)
	}
}

// record writes a journal entry after the lock has been released. The status
// document is authoritative, so a journal failure is only logged.
func (e *Engine) record(ctx context.Context, op string, key status.Key, item *int64, count int) {
	if e.recorder == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	correlationID, _ := logging.CorrelationID(ctx)
	entry := journal.Entry{
		At:            time.Now(),
		CorrelationID: correlationID,
		Operation:     op,
		Key:           key,
		ItemID:        item,
		Count:         count,
	}
	if err := e.recorder.Record(ctx, entry); err != nil {
		e.opLogger(ctx, op, key).Warn("journal record failed", logging.Error(err))
	}
}

func validateKey(key status.Key) error {
	if !key.Valid() {
		return fmt.Errorf("%w: process and variable are required, got %q/%q", ErrInvalidInput, key.Process, key.Variable)
	}
	return nil
}
