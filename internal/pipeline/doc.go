// Package pipeline declares which stages feed which and derives downstream
// pending work from upstream completions.
//
// A Graph is a small table of edges, one per downstream pair. Resolve is a
// pure function over a status.Document: the downstream's new pending list is
// the intersection of its upstreams' completed lists minus whatever the
// downstream already has in progress or completed. Apply writes that result
// over the existing pending list (a replace, not an append), so running it
// twice without intervening transitions changes nothing.
package pipeline
