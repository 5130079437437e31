package journal

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
)

func TestEveryConnectionGetsPragmas(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })

	ctx := context.Background()
	conns := make([]*sql.Conn, 0, 4)
	t.Cleanup(func() {
		for _, conn := range conns {
			_ = conn.Close()
		}
	})
	// Holding each conn forces the pool to open a new one for the next.
	for i := 0; i < 4; i++ {
		conn, err := j.db.Conn(ctx)
		if err != nil {
			t.Fatalf("conn %d: %v", i, err)
		}
		conns = append(conns, conn)

		var timeout int
		if err := conn.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout); err != nil {
			t.Fatalf("conn %d busy_timeout: %v", i, err)
		}
		if timeout != 5000 {
			t.Fatalf("conn %d: expected busy_timeout 5000, got %d", i, timeout)
		}
		var mode string
		if err := conn.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode); err != nil {
			t.Fatalf("conn %d journal_mode: %v", i, err)
		}
		if !strings.EqualFold(mode, "wal") {
			t.Fatalf("conn %d: expected WAL journal mode, got %q", i, mode)
		}
	}
}
