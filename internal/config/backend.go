package config

import "sync"

// BackendSelector holds the process-wide active backend, mutated by
// /backend and read whenever a new AgentRunner is constructed. Changing
// the selector does not rewrite any session's session_meta.json (see
// DESIGN.md): it only changes what new AgentRunner instances are built
// with, applied only to adapters created thereafter. Thread-safe like an
// in-memory repository guarded by a RWMutex, since a REPL transport's
// command loop and any background work it starts can both read it.
type BackendSelector struct {
	mu      sync.RWMutex
	backend string
}

// NewBackendSelector returns a selector initialized to initial.
func NewBackendSelector(initial string) *BackendSelector {
	return &BackendSelector{backend: initial}
}

// Backend returns the currently selected backend.
func (s *BackendSelector) Backend() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.backend
}

// SetBackend validates and applies a new backend selection. Rejects an
// unrecognized backend without changing the current selection.
func (s *BackendSelector) SetBackend(backend string) error {
	if err := ValidateBackend(backend); err != nil {
		return err
	}
	if backend == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backend = backend
	return nil
}
