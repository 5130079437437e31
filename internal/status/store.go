package status

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"llcqueue/internal/fileutil"
)

var (
	// ErrCorruptStore indicates the persisted document does not parse into the
	// expected process/variable/lists shape or violates the list invariants.
	ErrCorruptStore = errors.New("corrupt status store")
	// ErrStoreIO indicates the persisted location could not be read or written.
	ErrStoreIO = errors.New("status store io")
)

const yamlIndent = 4

// Store loads and persists the status document. Implementations assume the
// caller holds the exclusive-access guard for Location.
type Store interface {
	Load() (*Document, error)
	Save(doc *Document) error
	Location() string
}

// FileStore keeps the document as YAML in a single file.
type FileStore struct {
	path string
	mode os.FileMode
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: strings.TrimSpace(path), mode: 0o664}
}

// Location returns the file path.
func (s *FileStore) Location() string {
	return s.path
}

// Load reads the document. A missing or empty file is an empty document.
func (s *FileStore) Load() (*Document, error) {
	data, err := fileutil.ReadFileIfExists(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrStoreIO, s.path, err)
	}
	return Decode(data, s.path)
}

// Save validates doc and atomically replaces the file.
func (s *FileStore) Save(doc *Document) error {
	if doc == nil {
		doc = NewDocument()
	}
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid document: %w", err)
	}
	data, err := Encode(doc)
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(s.path, data, s.mode); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrStoreIO, s.path, err)
	}
	return nil
}

// Decode parses YAML status data. source only labels errors.
func Decode(data []byte, source string) (*Document, error) {
	doc := NewDocument()
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrCorruptStore, source, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptStore, source, err)
	}
	return doc, nil
}

// Encode renders doc as YAML.
func Encode(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(yamlIndent)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode status document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode status document: %w", err)
	}
	return buf.Bytes(), nil
}
