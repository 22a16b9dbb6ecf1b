package sessionstore

import "errors"

// Sentinel errors the Store returns. Callers (internal/capability) map
// these onto the capability error taxonomy (io_failure, not_found,
// conflict).
var (
	ErrNotFound     = errors.New("session not found")
	ErrAlreadyExist = errors.New("session directory already exists")
	ErrConflict     = errors.New("session is locked by another process")
)
