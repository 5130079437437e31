package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"llcqueue/internal/status"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond

	defaultListLimit = 50
)

// Entry is one recorded transition. ItemID is nil for operations that touch a
// whole pair (append, refresh, init, reset); Count holds how many identifiers
// they moved.
type Entry struct {
	ID            int64
	At            time.Time
	CorrelationID string
	Operation     string
	Key           status.Key
	ItemID        *int64
	Count         int
}

// dsnPragmas is applied by the driver to each new connection.
const dsnPragmas = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// Journal records transitions in a SQLite database. It is safe for concurrent
// use; several workers may share one database file.
type Journal struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the journal database at path.
func Open(path string) (*Journal, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("journal path is required")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
	}

	// Pragmas go in the DSN so each pooled connection applies them.
	db, err := sql.Open("sqlite", path+dsnPragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	j := &Journal{db: db, path: path}
	if err := j.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

// Path returns the database location.
func (j *Journal) Path() string {
	if j == nil {
		return ""
	}
	return j.path
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Record appends an entry. A zero At is stamped with the current time.
func (j *Journal) Record(ctx context.Context, entry Entry) error {
	ctx = ensureContext(ctx)
	at := entry.At
	if at.IsZero() {
		at = time.Now()
	}
	var itemID sql.NullInt64
	if entry.ItemID != nil {
		itemID = sql.NullInt64{Int64: *entry.ItemID, Valid: true}
	}
	return j.execWithRetry(ctx,
		`INSERT INTO transitions (at, correlation_id, operation, process, variable, item_id, count)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		at.UTC().Format(time.RFC3339Nano),
		nullableString(entry.CorrelationID),
		entry.Operation,
		entry.Key.Process,
		entry.Key.Variable,
		itemID,
		entry.Count,
	)
}

// ListOptions filters List. A zero Key lists every pair.
type ListOptions struct {
	Key   status.Key
	Limit int
}

// List returns the most recent entries, newest first.
func (j *Journal) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	ctx = ensureContext(ctx)
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `SELECT id, at, correlation_id, operation, process, variable, item_id, count FROM transitions`
	var args []any
	if opts.Key.Valid() {
		query += ` WHERE process = ? AND variable = ?`
		args = append(args, opts.Key.Process, opts.Key.Variable)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	var entries []Entry
	err := retryOnBusy(ctx, func() error {
		entries = entries[:0]
		rows, err := j.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			entry, err := scanEntry(rows)
			if err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	return entries, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		entry         Entry
		at            string
		correlationID sql.NullString
		itemID        sql.NullInt64
	)
	if err := rows.Scan(&entry.ID, &at, &correlationID, &entry.Operation,
		&entry.Key.Process, &entry.Key.Variable, &itemID, &entry.Count); err != nil {
		return Entry{}, fmt.Errorf("scan transition: %w", err)
	}
	parsed, err := time.Parse(time.RFC3339Nano, at)
	if err != nil {
		return Entry{}, fmt.Errorf("parse transition time %q: %w", at, err)
	}
	entry.At = parsed
	entry.CorrelationID = correlationID.String
	if itemID.Valid {
		id := itemID.Int64
		entry.ItemID = &id
	}
	return entry, nil
}

func nullableString(value string) sql.NullString {
	value = strings.TrimSpace(value)
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (j *Journal) execWithRetry(ctx context.Context, query string, args ...any) error {
	return retryOnBusy(ctx, func() error {
		_, err := j.db.ExecContext(ctx, query, args...)
		return err
	})
}
