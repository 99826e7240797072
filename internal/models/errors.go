package models

import (
	"errors"
	"fmt"
)

var (
	// ErrRateLimited means the remote API explicitly refused the request
	// because the quota window is exhausted. Never retried within one fetch.
	ErrRateLimited = errors.New("strava rate limit exceeded")

	// ErrNotFound means no snapshot file exists on disk.
	ErrNotFound = errors.New("snapshot not found")

	// ErrCorruptSnapshot means a snapshot file exists but cannot be decoded
	// into the expected schema.
	ErrCorruptSnapshot = errors.New("snapshot corrupt")

	// ErrNoData is the terminal condition: neither the remote API nor the
	// local snapshot could produce a dataset.
	ErrNoData = errors.New("no data available")
)

// TransportError covers network failures and non-quota HTTP errors from the
// remote API. Distinct from ErrRateLimited so callers can tell "slow down"
// apart from "broken".
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("strava %s: unexpected status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("strava %s: %s", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
