package testsupport

import (
	"testing"

	"llcqueue/internal/config"
	"llcqueue/internal/queue"
)

// MustOpenEngine opens a queue.Engine for tests and registers cleanup.
func MustOpenEngine(t testing.TB, cfg *config.Config, opts ...queue.Option) *queue.Engine {
	t.Helper()

	engine, err := queue.Open(cfg, opts...)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = engine.Close()
	})
	return engine
}
