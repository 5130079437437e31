package pipeline

import (
	"slices"

	"llcqueue/internal/status"
)

// Resolve computes the pending list edge.Downstream should have: identifiers
// completed by every upstream, minus those the downstream already has in
// progress or completed. Order follows the first upstream's completed list.
// A pair missing from doc counts as empty. doc is not modified.
func Resolve(doc *status.Document, edge Edge) []int64 {
	if len(edge.Upstreams) == 0 {
		return nil
	}

	completed := func(key status.Key) []int64 {
		if vs, ok := doc.Lookup(key); ok {
			return vs.Completed
		}
		return nil
	}

	others := make([]map[int64]struct{}, 0, len(edge.Upstreams)-1)
	for _, up := range edge.Upstreams[1:] {
		others = append(others, toSet(completed(up)))
	}

	exclude := make(map[int64]struct{})
	if vs, ok := doc.Lookup(edge.Downstream); ok {
		for _, id := range vs.InProgress {
			exclude[id] = struct{}{}
		}
		for _, id := range vs.Completed {
			exclude[id] = struct{}{}
		}
	}

	var pending []int64
	for _, id := range completed(edge.Upstreams[0]) {
		if _, skip := exclude[id]; skip {
			continue
		}
		if !inAll(id, others) {
			continue
		}
		exclude[id] = struct{}{}
		pending = append(pending, id)
	}
	return pending
}

// Apply replaces the downstream pending list with Resolve's result and reports
// whether it changed.
func Apply(doc *status.Document, edge Edge) (pending []int64, changed bool) {
	pending = Resolve(doc, edge)
	vs := doc.Status(edge.Downstream)
	changed = !slices.Equal(vs.Pending, pending)
	vs.Pending = pending
	return pending, changed
}

func toSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func inAll(id int64, sets []map[int64]struct{}) bool {
	for _, set := range sets {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}
