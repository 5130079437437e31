package status

import (
	"fmt"
	"strings"
)

// Key addresses one process/variable pair, e.g. downloads.velocity.
type Key struct {
	Process  string
	Variable string
}

// NewKey trims and pairs a process and variable name.
func NewKey(process, variable string) Key {
	return Key{Process: strings.TrimSpace(process), Variable: strings.TrimSpace(variable)}
}

// ParseKey parses the "process.variable" form used in configuration.
func ParseKey(value string) (Key, error) {
	trimmed := strings.TrimSpace(value)
	process, variable, ok := strings.Cut(trimmed, ".")
	key := NewKey(process, variable)
	if !ok || !key.Valid() {
		return Key{}, fmt.Errorf("invalid key %q: want process.variable", value)
	}
	return key, nil
}

// Valid reports whether both halves are set.
func (k Key) Valid() bool {
	return k.Process != "" && k.Variable != ""
}

func (k Key) String() string {
	return k.Process + "." + k.Variable
}
