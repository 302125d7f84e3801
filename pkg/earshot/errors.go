package earshot

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSampleRate is returned when a chunk declares a zero or
	// negative sample rate.
	ErrInvalidSampleRate = errors.New("sample rate must be a positive integer")

	// ErrUnknownSession is returned by stats/clear operations for a user id
	// that has never delivered a chunk (or was already removed).
	ErrUnknownSession = errors.New("unknown session")

	// ErrSongNotFound is returned by the store when a candidate id has no
	// metadata row.
	ErrSongNotFound = errors.New("song not found")

	// ErrStoreUnavailable wraps lookup failures against the fingerprint store.
	ErrStoreUnavailable = errors.New("fingerprint store unavailable")

	// ErrNotificationTimeout and ErrNotificationTransport classify delivery
	// failures for logging. The dispatcher never surfaces them to callers; it
	// reports delivery as a bool.
	ErrNotificationTimeout   = errors.New("notification timed out")
	ErrNotificationTransport = errors.New("notification transport failed")
)

// ExtractionError reports a failed fingerprint extraction for a materialized
// audio container.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("fingerprint extraction failed for %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
