package pipeline

import (
	"errors"
	"fmt"
	"sort"

	"llcqueue/internal/status"
)

// Standard process and variable names of the LLC pipeline.
const (
	ProcessDownloads      = "downloads"
	ProcessPostProcessing = "post_processing"

	VariableVelocity           = "velocity"
	VariableDensity            = "density"
	VariableVorticity          = "vorticity"
	VariableBuoyancy           = "buoyancy"
	VariablePotentialVorticity = "potential_vorticity"
)

// ErrInvalidGraph reports a malformed dependency table.
var ErrInvalidGraph = errors.New("invalid dependency graph")

// Edge declares that Downstream's pending work is derived from the completed
// lists of Upstreams. The first upstream is the primary one and fixes the
// order of the derived pending list.
type Edge struct {
	Downstream status.Key
	Upstreams  []status.Key
}

// Graph is an ordered table of dependency edges, at most one per downstream.
type Graph struct {
	edges []Edge
	index map[status.Key]int
	order []int
}

// DefaultGraph returns the LLC post-processing dependencies.
func DefaultGraph() *Graph {
	g, err := NewGraph([]Edge{
		{
			Downstream: status.NewKey(ProcessPostProcessing, VariableVorticity),
			Upstreams:  []status.Key{status.NewKey(ProcessDownloads, VariableVelocity)},
		},
		{
			Downstream: status.NewKey(ProcessPostProcessing, VariableBuoyancy),
			Upstreams:  []status.Key{status.NewKey(ProcessDownloads, VariableDensity)},
		},
		{
			Downstream: status.NewKey(ProcessPostProcessing, VariablePotentialVorticity),
			Upstreams: []status.Key{
				status.NewKey(ProcessPostProcessing, VariableBuoyancy),
				status.NewKey(ProcessPostProcessing, VariableVorticity),
			},
		},
	})
	if err != nil {
		panic(err)
	}
	return g
}

// NewGraph validates edges and computes a dependency order.
func NewGraph(edges []Edge) (*Graph, error) {
	g := &Graph{
		edges: make([]Edge, 0, len(edges)),
		index: make(map[status.Key]int, len(edges)),
	}
	for _, edge := range edges {
		if !edge.Downstream.Valid() {
			return nil, fmt.Errorf("%w: edge with empty downstream %q", ErrInvalidGraph, edge.Downstream)
		}
		if len(edge.Upstreams) == 0 {
			return nil, fmt.Errorf("%w: %s has no upstreams", ErrInvalidGraph, edge.Downstream)
		}
		if _, dup := g.index[edge.Downstream]; dup {
			return nil, fmt.Errorf("%w: %s declared twice", ErrInvalidGraph, edge.Downstream)
		}
		seen := make(map[status.Key]struct{}, len(edge.Upstreams))
		for _, up := range edge.Upstreams {
			if !up.Valid() {
				return nil, fmt.Errorf("%w: %s has an empty upstream", ErrInvalidGraph, edge.Downstream)
			}
			if up == edge.Downstream {
				return nil, fmt.Errorf("%w: %s depends on itself", ErrInvalidGraph, edge.Downstream)
			}
			if _, dup := seen[up]; dup {
				return nil, fmt.Errorf("%w: %s lists %s twice", ErrInvalidGraph, edge.Downstream, up)
			}
			seen[up] = struct{}{}
		}
		copied := Edge{Downstream: edge.Downstream, Upstreams: append([]status.Key(nil), edge.Upstreams...)}
		g.index[edge.Downstream] = len(g.edges)
		g.edges = append(g.edges, copied)
	}
	order, err := g.topoOrder()
	if err != nil {
		return nil, err
	}
	g.order = order
	return g, nil
}

// topoOrder sorts edges so an edge comes after every edge that produces one of
// its upstreams. Ties keep declaration order.
func (g *Graph) topoOrder() ([]int, error) {
	inDegree := make([]int, len(g.edges))
	dependents := make([][]int, len(g.edges))
	for i, edge := range g.edges {
		for _, up := range edge.Upstreams {
			if j, ok := g.index[up]; ok {
				inDegree[i]++
				dependents[j] = append(dependents[j], i)
			}
		}
	}

	var ready []int
	for i, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, i)
		}
	}
	order := make([]int, 0, len(g.edges))
	for len(ready) > 0 {
		sort.Ints(ready)
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)
		for _, dep := range dependents[next] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}
	if len(order) != len(g.edges) {
		var cyclic []string
		for i, deg := range inDegree {
			if deg > 0 {
				cyclic = append(cyclic, g.edges[i].Downstream.String())
			}
		}
		return nil, fmt.Errorf("%w: cycle through %v", ErrInvalidGraph, cyclic)
	}
	return order, nil
}

// Edge returns the edge that feeds downstream.
func (g *Graph) Edge(downstream status.Key) (Edge, bool) {
	if g == nil {
		return Edge{}, false
	}
	i, ok := g.index[downstream]
	if !ok {
		return Edge{}, false
	}
	return g.edges[i], true
}

// Edges returns the edges in dependency order.
func (g *Graph) Edges() []Edge {
	if g == nil {
		return nil
	}
	out := make([]Edge, 0, len(g.order))
	for _, i := range g.order {
		out = append(out, g.edges[i])
	}
	return out
}

// Keys returns every pair the graph mentions, roots first, without duplicates.
func (g *Graph) Keys() []status.Key {
	if g == nil {
		return nil
	}
	seen := make(map[status.Key]struct{})
	var roots, derived []status.Key
	for _, edge := range g.Edges() {
		for _, up := range edge.Upstreams {
			if _, ok := seen[up]; ok {
				continue
			}
			if _, isDerived := g.index[up]; isDerived {
				continue
			}
			seen[up] = struct{}{}
			roots = append(roots, up)
		}
		if _, ok := seen[edge.Downstream]; !ok {
			seen[edge.Downstream] = struct{}{}
			derived = append(derived, edge.Downstream)
		}
	}
	return append(roots, derived...)
}
