package status_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"llcqueue/internal/status"
)

func TestLoadMissingFileIsEmpty(t *testing.T) {
	store := status.NewFileStore(filepath.Join(t.TempDir(), "status.yml"))

	doc, err := store.Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(doc.Keys()) != 0 {
		t.Fatalf("expected empty document, got keys %v", doc.Keys())
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.yml")
	store := status.NewFileStore(path)

	doc := status.NewDocument()
	vel := doc.Status(status.NewKey("downloads", "velocity"))
	vel.Pending = []int64{4, 5}
	vel.InProgress = []int64{3}
	vel.Completed = []int64{1, 2}
	doc.Status(status.NewKey("post_processing", "vorticity"))

	if err := store.Save(doc); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	wantKeys := []status.Key{
		{Process: "downloads", Variable: "velocity"},
		{Process: "post_processing", Variable: "vorticity"},
	}
	if diff := cmp.Diff(wantKeys, loaded.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	got, _ := loaded.Lookup(status.NewKey("downloads", "velocity"))
	if diff := cmp.Diff(vel, got); diff != "" {
		t.Fatalf("velocity mismatch (-want +got):\n%s", diff)
	}
	empty, ok := loaded.Lookup(status.NewKey("post_processing", "vorticity"))
	if !ok || empty.Len() != 0 {
		t.Fatalf("expected empty vorticity status, got %#v", empty)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	text := string(raw)
	for _, want := range []string{"downloads:", "    velocity:", "pending: [4, 5]", "in_progress: [3]", "completed: []"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in persisted document:\n%s", want, text)
		}
	}
}

func TestLoadAcceptsLegacyToDo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.yml")
	legacy := `downloads:
    velocity:
        to_do:
        - 7
        - 8
        in_progress: []
        completed:
        - 1
`
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatalf("write legacy file: %v", err)
	}

	doc, err := status.NewFileStore(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	vs, ok := doc.Lookup(status.NewKey("downloads", "velocity"))
	if !ok {
		t.Fatal("expected downloads.velocity")
	}
	if diff := cmp.Diff([]int64{7, 8}, vs.Pending); diff != "" {
		t.Fatalf("pending mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadNullListsAndPairs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.yml")
	content := `downloads:
    velocity:
        pending:
        in_progress: null
    density:
post_processing:
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	doc, err := status.NewFileStore(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !doc.Has(status.NewKey("downloads", "density")) {
		t.Fatal("expected null variable to load as an empty status")
	}
	vs, _ := doc.Lookup(status.NewKey("downloads", "velocity"))
	if vs.Len() != 0 {
		t.Fatalf("expected empty lists, got %#v", vs)
	}
}

func TestLoadCorruptDocuments(t *testing.T) {
	cases := map[string]string{
		"not yaml":          "downloads: [unterminated",
		"scalar root":       "just a string",
		"list root":         "- 1\n- 2\n",
		"variable scalar":   "downloads:\n    velocity: 3\n",
		"string items":      "downloads:\n    velocity:\n        pending: [a, b]\n",
		"float items":       "downloads:\n    velocity:\n        pending: [1.5, 2.9]\n",
		"null item":         "downloads:\n    velocity:\n        completed: [3, ~]\n",
		"unknown list":      "downloads:\n    velocity:\n        queued: [1]\n",
		"overlapping lists": "downloads:\n    velocity:\n        pending: [1]\n        completed: [1]\n",
		"duplicate items":   "downloads:\n    velocity:\n        pending: [2, 2]\n",
		"negative item":     "downloads:\n    velocity:\n        pending: [-1]\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "status.yml")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatalf("write file: %v", err)
			}
			_, err := status.NewFileStore(path).Load()
			if !errors.Is(err, status.ErrCorruptStore) {
				t.Fatalf("expected ErrCorruptStore, got %v", err)
			}
		})
	}
}

func TestLoadUnreadableLocation(t *testing.T) {
	dir := t.TempDir()
	// Reading a directory fails with an IO error rather than a parse error.
	_, err := status.NewFileStore(dir).Load()
	if !errors.Is(err, status.ErrStoreIO) {
		t.Fatalf("expected ErrStoreIO, got %v", err)
	}
}

func TestSaveRejectsInvalidDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.yml")
	doc := status.NewDocument()
	vs := doc.Status(status.NewKey("downloads", "velocity"))
	vs.Pending = []int64{1}
	vs.InProgress = []int64{1}

	if err := status.NewFileStore(path).Save(doc); err == nil {
		t.Fatal("expected Save to reject overlapping lists")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no file to be written, stat err=%v", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	doc := status.NewDocument()
	key := status.NewKey("downloads", "velocity")
	doc.Status(key).Pending = []int64{1, 2}

	clone := doc.Clone()
	clone.Status(key).Pending[0] = 99
	clone.Status(status.NewKey("downloads", "density"))

	if doc.Status(key).Pending[0] != 1 {
		t.Fatal("clone shares list storage with original")
	}
	if doc.Has(status.NewKey("downloads", "density")) {
		t.Fatal("clone shares map storage with original")
	}
}

func TestParseKey(t *testing.T) {
	key, err := status.ParseKey(" post_processing.vorticity ")
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	if key.Process != "post_processing" || key.Variable != "vorticity" {
		t.Fatalf("unexpected key %#v", key)
	}
	if key.String() != "post_processing.vorticity" {
		t.Fatalf("unexpected String %q", key.String())
	}
	for _, bad := range []string{"", "downloads", ".velocity", "downloads."} {
		if _, err := status.ParseKey(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
