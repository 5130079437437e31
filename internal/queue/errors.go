package queue

import (
	"context"
	"errors"
	"fmt"

	"llcqueue/internal/lock"
	"llcqueue/internal/status"
)

var (
	// ErrInvalidInput reports a malformed key, identifier, or argument.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotPending reports a claim for an item that is not in pending.
	ErrNotPending = errors.New("item not pending")
	// ErrNotInProgress reports a succeed/fail/reset for an item that is not in progress.
	ErrNotInProgress = errors.New("item not in progress")
	// ErrNothingPending reports a ClaimNext on an empty pending list.
	ErrNothingPending = errors.New("nothing pending")
	// ErrNoDependency reports a refresh for a pair no edge feeds.
	ErrNoDependency = fmt.Errorf("%w: no dependency declared", ErrInvalidInput)
)

// Error kinds reported by Kind and TransitionError.ErrorKind.
const (
	KindInvalidInput   = "invalid_input"
	KindCorruptStore   = "corrupt_store"
	KindNotPending     = "not_pending"
	KindNotInProgress  = "not_in_progress"
	KindNothingPending = "nothing_pending"
	KindLockTimeout    = "lock_timeout"
	KindStoreIO        = "store_io"
	KindCanceled       = "canceled"
	KindUnknown        = "unknown"
)

// ErrorClassifier allows errors to declare their classification.
type ErrorClassifier interface {
	ErrorKind() string
}

// TransitionError describes a rejected single-item transition. The document
// is left exactly as it was.
type TransitionError struct {
	Op   string
	Key  status.Key
	Item int64
	Err  error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s %s #%d: %v", e.Op, e.Key, e.Item, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// ErrorKind implements ErrorClassifier.
func (e *TransitionError) ErrorKind() string {
	return Kind(e.Err)
}

// Kind classifies err into one of the Kind* constants.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotPending):
		return KindNotPending
	case errors.Is(err, ErrNotInProgress):
		return KindNotInProgress
	case errors.Is(err, ErrNothingPending):
		return KindNothingPending
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, status.ErrCorruptStore):
		return KindCorruptStore
	case errors.Is(err, status.ErrStoreIO):
		return KindStoreIO
	case errors.Is(err, lock.ErrTimeout):
		return KindLockTimeout
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	}
	var classifier ErrorClassifier
	if errors.As(err, &classifier) {
		if kind := classifier.ErrorKind(); kind != "" {
			return kind
		}
	}
	return KindUnknown
}
