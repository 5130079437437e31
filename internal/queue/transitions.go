package queue

import (
	"context"
	"fmt"
	"slices"

	"llcqueue/internal/logging"
	"llcqueue/internal/status"
)

// Operation names used in logs and journal entries.
const (
	OpAppend     = "append"
	OpClaim      = "claim"
	OpClaimNext  = "claim_next"
	OpSucceed    = "succeed"
	OpFail       = "fail"
	OpRefresh    = "refresh"
	OpRefreshAll = "refresh_all"
	OpInit       = "init"
	OpReset      = "reset"
	OpSnapshot   = "snapshot"
)

// AppendPending adds ids to the end of key's pending list, skipping ids the
// pair already tracks in any list and repeats within ids. It returns the ids
// actually added, in order. Calling it with no ids does not touch the store.
func (e *Engine) AppendPending(ctx context.Context, key status.Key, ids ...int64) ([]int64, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	for _, id := range ids {
		if id < 0 {
			return nil, fmt.Errorf("%w: negative item id %d", ErrInvalidInput, id)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	logger := e.opLogger(ctx, OpAppend, key)
	var added []int64
	err := e.update(ctx, OpAppend, func(doc *status.Document) (bool, error) {
		vs := doc.Status(key)
		added = added[:0]
		seen := make(map[int64]struct{}, len(ids))
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if vs.Known(id) {
				continue
			}
			added = append(added, id)
		}
		vs.Pending = append(vs.Pending, added...)
		return len(added) > 0, nil
	})
	if err != nil {
		logRejected(logger, "append rejected", err)
		return nil, err
	}

	logger.Info("items appended",
		logging.Int("requested", len(ids)),
		logging.Int("added", len(added)),
	)
	if len(added) > 0 {
		e.record(ctx, OpAppend, key, nil, len(added))
	}
	return added, nil
}

// Claim moves id from pending to in_progress. An id that is not pending fails
// with ErrNotPending; this is how a worker learns it lost a race.
func (e *Engine) Claim(ctx context.Context, key status.Key, id int64) error {
	return e.move(ctx, OpClaim, key, id)
}

// Succeed moves id from in_progress to completed.
func (e *Engine) Succeed(ctx context.Context, key status.Key, id int64) error {
	return e.move(ctx, OpSucceed, key, id)
}

// Fail moves id from in_progress back to the front of pending so it is the
// next item offered. Claim followed by Fail restores list membership; the
// pending order is restored only when id was at the front when claimed.
func (e *Engine) Fail(ctx context.Context, key status.Key, id int64) error {
	return e.move(ctx, OpFail, key, id)
}

// ClaimNext claims the first pending id. It fails with ErrNothingPending when
// the pending list is empty.
func (e *Engine) ClaimNext(ctx context.Context, key status.Key) (int64, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}
	logger := e.opLogger(ctx, OpClaimNext, key)

	var claimed int64
	err := e.update(ctx, OpClaimNext, func(doc *status.Document) (bool, error) {
		vs, ok := doc.Lookup(key)
		if !ok || len(vs.Pending) == 0 {
			return false, fmt.Errorf("%w: %s", ErrNothingPending, key)
		}
		claimed = vs.Pending[0]
		vs.Pending = slices.Delete(vs.Pending, 0, 1)
		vs.InProgress = append(vs.InProgress, claimed)
		return true, nil
	})
	if err != nil {
		logRejected(logger, "claim next rejected", err)
		return 0, err
	}

	logger.Info("item claimed", logging.Int64(logging.FieldItemID, claimed))
	e.record(ctx, OpClaim, key, &claimed, 1)
	return claimed, nil
}

// move applies one single-item transition under the lock.
func (e *Engine) move(ctx context.Context, op string, key status.Key, id int64) error {
	if err := validateKey(key); err != nil {
		return &TransitionError{Op: op, Key: key, Item: id, Err: err}
	}
	if id < 0 {
		return &TransitionError{Op: op, Key: key, Item: id, Err: fmt.Errorf("%w: negative item id", ErrInvalidInput)}
	}
	logger := e.opLogger(ctx, op, key).With(logging.Int64(logging.FieldItemID, id))

	err := e.update(ctx, op, func(doc *status.Document) (bool, error) {
		vs, ok := doc.Lookup(key)
		if !ok {
			vs = &status.VariableStatus{}
		}
		switch op {
		case OpClaim:
			i := slices.Index(vs.Pending, id)
			if i < 0 {
				return false, &TransitionError{Op: op, Key: key, Item: id, Err: ErrNotPending}
			}
			vs.Pending = slices.Delete(vs.Pending, i, i+1)
			vs.InProgress = append(vs.InProgress, id)
		case OpSucceed, OpFail:
			i := slices.Index(vs.InProgress, id)
			if i < 0 {
				return false, &TransitionError{Op: op, Key: key, Item: id, Err: ErrNotInProgress}
			}
			vs.InProgress = slices.Delete(vs.InProgress, i, i+1)
			if op == OpSucceed {
				vs.Completed = append(vs.Completed, id)
			} else {
				vs.Pending = slices.Insert(vs.Pending, 0, id)
			}
		default:
			return false, fmt.Errorf("unknown transition %q", op)
		}
		return true, nil
	})
	if err != nil {
		logRejected(logger, op+" rejected", err)
		return err
	}

	switch op {
	case OpClaim:
		logger.Info("item claimed")
	case OpSucceed:
		logger.Info("item completed")
	case OpFail:
		logger.Warn("item failed, returned to pending")
	}
	e.record(ctx, op, key, &id, 1)
	return nil
}
