package cli

import (
	"errors"

	"github.com/dioko-ai/bob/internal/capability"
	"github.com/dioko-ai/bob/internal/orchestrator"
	"github.com/dioko-ai/bob/internal/sessionstore"
	"github.com/dioko-ai/bob/internal/tracing"
)

// openService opens sessionID and binds it to an orchestrator.Service
// using runner. Used for the two operations (advance, graph edits) the
// capability surface deliberately omits: a transport calls
// internal/orchestrator directly for these, rather than through
// capability.Dispatch.
func openService(sessionID string, runner orchestrator.AgentRunner, provider *tracing.Provider) (*sessionstore.Handle, *orchestrator.Service, error) {
	h, err := sessionstore.Open(sessionID)
	if err != nil {
		return nil, nil, translateOpenErr(err)
	}
	return h, orchestrator.NewService(h, runner, provider), nil
}

func translateOpenErr(err error) error {
	if errors.Is(err, sessionstore.ErrNotFound) {
		return &exitError{code: capability.CodeNotFound, msg: err.Error()}
	}
	return &exitError{code: capability.CodeIOFailure, msg: err.Error()}
}
