package queue

import (
	"context"
	"fmt"
	"slices"

	"llcqueue/internal/logging"
	"llcqueue/internal/status"
)

// Snapshot returns a copy of the document read under the lock.
func (e *Engine) Snapshot(ctx context.Context) (*status.Document, error) {
	var snapshot *status.Document
	err := e.view(ctx, OpSnapshot, func(doc *status.Document) error {
		snapshot = doc.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Init makes sure each key exists in the document with empty lists, leaving
// existing pairs untouched. With no keys it seeds every pair the dependency
// graph mentions. It returns the pairs it created.
func (e *Engine) Init(ctx context.Context, keys ...status.Key) ([]status.Key, error) {
	if len(keys) == 0 {
		keys = e.graph.Keys()
	}
	for _, key := range keys {
		if err := validateKey(key); err != nil {
			return nil, err
		}
	}
	logger := logging.WithContext(ctx, e.logger).With(logging.String(logging.FieldOperation, OpInit))

	var created []status.Key
	err := e.update(ctx, OpInit, func(doc *status.Document) (bool, error) {
		created = created[:0]
		for _, key := range keys {
			if doc.Has(key) {
				continue
			}
			doc.Status(key)
			created = append(created, key)
		}
		return len(created) > 0, nil
	})
	if err != nil {
		logRejected(logger, "init failed", err)
		return nil, err
	}

	logger.Info("status document initialized",
		logging.String("location", e.Location()),
		logging.Int("created", len(created)),
	)
	for _, key := range created {
		e.record(ctx, OpInit, key, nil, 0)
	}
	return created, nil
}

// ResetInProgress returns in-progress ids to the front of pending, for items
// a crashed worker will never finish. With no ids every in-progress item of
// key is reset. Naming an id that is not in progress rejects the whole call.
func (e *Engine) ResetInProgress(ctx context.Context, key status.Key, ids ...int64) ([]int64, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	for _, id := range ids {
		if id < 0 {
			return nil, fmt.Errorf("%w: negative item id %d", ErrInvalidInput, id)
		}
	}
	logger := e.opLogger(ctx, OpReset, key)

	var reset []int64
	err := e.update(ctx, OpReset, func(doc *status.Document) (bool, error) {
		vs, ok := doc.Lookup(key)
		if !ok {
			vs = &status.VariableStatus{}
		}
		if len(ids) == 0 {
			reset = slices.Clone(vs.InProgress)
		} else {
			reset = reset[:0]
			for _, id := range ids {
				if !slices.Contains(vs.InProgress, id) {
					return false, &TransitionError{Op: OpReset, Key: key, Item: id, Err: ErrNotInProgress}
				}
				if !slices.Contains(reset, id) {
					reset = append(reset, id)
				}
			}
		}
		if len(reset) == 0 {
			return false, nil
		}
		vs.InProgress = slices.DeleteFunc(vs.InProgress, func(id int64) bool {
			return slices.Contains(reset, id)
		})
		vs.Pending = append(slices.Clone(reset), vs.Pending...)
		return true, nil
	})
	if err != nil {
		logRejected(logger, "reset rejected", err)
		return nil, err
	}

	if len(reset) > 0 {
		logger.Warn("in-progress items reset to pending",
			logging.Int("count", len(reset)),
			logging.String("items", fmt.Sprint(reset)),
		)
		e.record(ctx, OpReset, key, nil, len(reset))
	}
	return reset, nil
}
