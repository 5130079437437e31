package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"llcqueue/internal/status"
)

// WriteFile writes raw content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteDocument persists doc at path through the real file store.
func WriteDocument(t testing.TB, path string, doc *status.Document) {
	t.Helper()

	if err := status.NewFileStore(path).Save(doc); err != nil {
		t.Fatalf("save document %s: %v", path, err)
	}
}

// ReadDocument loads the document at path.
func ReadDocument(t testing.TB, path string) *status.Document {
	t.Helper()

	doc, err := status.NewFileStore(path).Load()
	if err != nil {
		t.Fatalf("load document %s: %v", path, err)
	}
	return doc
}

// Document builds a document from per-pair lists, keyed "process.variable".
func Document(t testing.TB, pairs map[string]status.VariableStatus) *status.Document {
	t.Helper()

	doc := status.NewDocument()
	for raw, lists := range pairs {
		key, err := status.ParseKey(raw)
		if err != nil {
			t.Fatalf("document key: %v", err)
		}
		vs := doc.Status(key)
		*vs = *lists.Clone()
	}
	if err := doc.Validate(); err != nil {
		t.Fatalf("document fixture invalid: %v", err)
	}
	return doc
}
