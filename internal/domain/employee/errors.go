package employee

import "errors"

var (
	ErrNotFound = errors.New("employee not found")
	// ErrStoreUnavailable wraps infrastructure-level store failures so
	// handlers can surface them as retryable, never as "no record".
	ErrStoreUnavailable = errors.New("record store unavailable")
)
