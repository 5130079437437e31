package status

import (
	"fmt"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"
)

// VariableStatus holds the three disjoint item lists for one process/variable.
type VariableStatus struct {
	Pending    []int64 `yaml:"pending,flow"`
	InProgress []int64 `yaml:"in_progress,flow"`
	Completed  []int64 `yaml:"completed,flow"`
}

// legacyPendingKey is the name the pending list had in older status files.
const legacyPendingKey = "to_do"

var variableStatusKeys = map[string]struct{}{
	"pending":        {},
	"in_progress":    {},
	"completed":      {},
	legacyPendingKey: {},
}

// UnmarshalYAML accepts the current layout and the legacy "to_do" name for the
// pending list. Unknown keys are rejected so a malformed file is reported
// instead of silently dropped on the next save.
func (v *VariableStatus) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected mapping of item lists", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		if _, ok := variableStatusKeys[name]; !ok {
			return fmt.Errorf("line %d: unknown list %q", node.Content[i].Line, name)
		}
		if err := checkIntegerItems(name, node.Content[i+1]); err != nil {
			return err
		}
	}

	var raw struct {
		Pending    []int64 `yaml:"pending"`
		ToDo       []int64 `yaml:"to_do"`
		InProgress []int64 `yaml:"in_progress"`
		Completed  []int64 `yaml:"completed"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	v.Pending = append(raw.Pending, raw.ToDo...)
	v.InProgress = raw.InProgress
	v.Completed = raw.Completed
	return nil
}

// checkIntegerItems rejects list items that are not integer scalars. Decoding
// into []int64 would otherwise truncate 1.5 to 1.
func checkIntegerItems(name string, list *yaml.Node) error {
	if list.Kind != yaml.SequenceNode {
		return nil
	}
	for _, item := range list.Content {
		if item.Kind != yaml.ScalarNode || item.ShortTag() != "!!int" {
			return fmt.Errorf("line %d: %s item %q is not an integer", item.Line, name, item.Value)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (v *VariableStatus) Clone() *VariableStatus {
	if v == nil {
		return &VariableStatus{}
	}
	return &VariableStatus{
		Pending:    slices.Clone(v.Pending),
		InProgress: slices.Clone(v.InProgress),
		Completed:  slices.Clone(v.Completed),
	}
}

// Len returns the number of identifiers across all three lists.
func (v *VariableStatus) Len() int {
	if v == nil {
		return 0
	}
	return len(v.Pending) + len(v.InProgress) + len(v.Completed)
}

// Known reports whether id appears in any of the three lists.
func (v *VariableStatus) Known(id int64) bool {
	if v == nil {
		return false
	}
	return slices.Contains(v.Pending, id) || slices.Contains(v.InProgress, id) || slices.Contains(v.Completed, id)
}

// Validate checks that every list is duplicate-free, holds no negative
// identifiers, and shares no identifier with another list.
func (v *VariableStatus) Validate() error {
	if v == nil {
		return nil
	}
	seen := make(map[int64]string, v.Len())
	lists := []struct {
		name string
		ids  []int64
	}{
		{"pending", v.Pending},
		{"in_progress", v.InProgress},
		{"completed", v.Completed},
	}
	for _, list := range lists {
		for _, id := range list.ids {
			if id < 0 {
				return fmt.Errorf("%s: negative item %d", list.name, id)
			}
			if prev, ok := seen[id]; ok {
				if prev == list.name {
					return fmt.Errorf("%s: duplicate item %d", list.name, id)
				}
				return fmt.Errorf("item %d in both %s and %s", id, prev, list.name)
			}
			seen[id] = list.name
		}
	}
	return nil
}

// Document is the full status store: process -> variable -> lists.
type Document struct {
	processes map[string]map[string]*VariableStatus
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{processes: make(map[string]map[string]*VariableStatus)}
}

// Status returns the live status for key, creating an empty one on first
// reference. The returned pointer aliases the document.
func (d *Document) Status(key Key) *VariableStatus {
	if d.processes == nil {
		d.processes = make(map[string]map[string]*VariableStatus)
	}
	vars, ok := d.processes[key.Process]
	if !ok || vars == nil {
		vars = make(map[string]*VariableStatus)
		d.processes[key.Process] = vars
	}
	vs, ok := vars[key.Variable]
	if !ok || vs == nil {
		vs = &VariableStatus{}
		vars[key.Variable] = vs
	}
	return vs
}

// Lookup returns the status for key without creating it.
func (d *Document) Lookup(key Key) (*VariableStatus, bool) {
	if d == nil || d.processes == nil {
		return nil, false
	}
	vs, ok := d.processes[key.Process][key.Variable]
	if !ok || vs == nil {
		return nil, false
	}
	return vs, true
}

// Has reports whether the pair exists in the document.
func (d *Document) Has(key Key) bool {
	_, ok := d.Lookup(key)
	return ok
}

// Keys lists every pair in process then variable order.
func (d *Document) Keys() []Key {
	if d == nil {
		return nil
	}
	var keys []Key
	for process, vars := range d.processes {
		for variable := range vars {
			keys = append(keys, Key{Process: process, Variable: variable})
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Process != keys[j].Process {
			return keys[i].Process < keys[j].Process
		}
		return keys[i].Variable < keys[j].Variable
	})
	return keys
}

// Clone returns a deep copy that shares nothing with d.
func (d *Document) Clone() *Document {
	out := NewDocument()
	if d == nil {
		return out
	}
	for process, vars := range d.processes {
		copied := make(map[string]*VariableStatus, len(vars))
		for variable, vs := range vars {
			copied[variable] = vs.Clone()
		}
		out.processes[process] = copied
	}
	return out
}

// Validate checks the invariants of every pair.
func (d *Document) Validate() error {
	for _, key := range d.Keys() {
		vs, _ := d.Lookup(key)
		if err := vs.Validate(); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

// MarshalYAML writes the nested mapping with every list present.
func (d *Document) MarshalYAML() (any, error) {
	out := make(map[string]map[string]*VariableStatus, len(d.processes))
	for process, vars := range d.processes {
		copied := make(map[string]*VariableStatus, len(vars))
		for variable, vs := range vars {
			c := vs.Clone()
			if c.Pending == nil {
				c.Pending = []int64{}
			}
			if c.InProgress == nil {
				c.InProgress = []int64{}
			}
			if c.Completed == nil {
				c.Completed = []int64{}
			}
			copied[variable] = c
		}
		out[process] = copied
	}
	return out, nil
}

// UnmarshalYAML reads the nested mapping.
func (d *Document) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected mapping of processes", node.Line)
	}
	raw := make(map[string]map[string]*VariableStatus)
	if err := node.Decode(&raw); err != nil {
		return err
	}
	d.processes = make(map[string]map[string]*VariableStatus, len(raw))
	for process, vars := range raw {
		if vars == nil {
			vars = make(map[string]*VariableStatus)
		}
		for variable, vs := range vars {
			if vs == nil {
				vars[variable] = &VariableStatus{}
			}
		}
		d.processes[process] = vars
	}
	return nil
}
