package queue

import (
	"context"
	"fmt"
	"slices"

	"llcqueue/internal/logging"
	"llcqueue/internal/pipeline"
	"llcqueue/internal/status"
)

// RefreshResult reports the recomputed pending list of one downstream pair.
type RefreshResult struct {
	Key     status.Key
	Pending []int64
	Changed bool
}

// Refresh recomputes key's pending list from its upstream completed lists in
// one locked cycle. A pair no edge feeds fails with ErrNoDependency. Running
// it again without intervening transitions changes nothing.
func (e *Engine) Refresh(ctx context.Context, key status.Key) (RefreshResult, error) {
	if err := validateKey(key); err != nil {
		return RefreshResult{}, err
	}
	logger := e.opLogger(ctx, OpRefresh, key)
	edge, ok := e.graph.Edge(key)
	if !ok {
		err := fmt.Errorf("%w for %s", ErrNoDependency, key)
		logRejected(logger, "refresh rejected", err)
		return RefreshResult{}, err
	}

	result := RefreshResult{Key: key}
	err := e.update(ctx, OpRefresh, func(doc *status.Document) (bool, error) {
		created := !doc.Has(key)
		result.Pending, result.Changed = pipeline.Apply(doc, edge)
		return result.Changed || created, nil
	})
	if err != nil {
		logRejected(logger, "refresh failed", err)
		return RefreshResult{}, err
	}

	logger.Info("pending refreshed",
		logging.Int("pending", len(result.Pending)),
		logging.Bool("changed", result.Changed),
	)
	if result.Changed {
		e.record(ctx, OpRefresh, key, nil, len(result.Pending))
	}
	return result, nil
}

// RefreshAll applies every edge in dependency order within a single locked
// cycle, so a downstream sees pending lists its upstreams just produced.
func (e *Engine) RefreshAll(ctx context.Context) ([]RefreshResult, error) {
	logger := logging.WithContext(ctx, e.logger).With(logging.String(logging.FieldOperation, OpRefreshAll))
	edges := e.graph.Edges()

	var results []RefreshResult
	err := e.update(ctx, OpRefreshAll, func(doc *status.Document) (bool, error) {
		results = make([]RefreshResult, 0, len(edges))
		dirty := false
		for _, edge := range edges {
			created := !doc.Has(edge.Downstream)
			pending, changed := pipeline.Apply(doc, edge)
			results = append(results, RefreshResult{Key: edge.Downstream, Pending: slices.Clone(pending), Changed: changed})
			dirty = dirty || changed || created
		}
		return dirty, nil
	})
	if err != nil {
		logRejected(logger, "refresh all failed", err)
		return nil, err
	}

	changed := 0
	for _, result := range results {
		if !result.Changed {
			continue
		}
		changed++
		e.record(ctx, OpRefresh, result.Key, nil, len(result.Pending))
	}
	logger.Info("pending lists refreshed",
		logging.Int("edges", len(results)),
		logging.Int("changed", changed),
	)
	return results, nil
}
