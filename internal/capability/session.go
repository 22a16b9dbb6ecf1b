package capability

import (
	"context"
	"errors"

	"github.com/dioko-ai/bob/internal/log"
	"github.com/dioko-ai/bob/internal/sessionindex"
	"github.com/dioko-ai/bob/internal/sessionstore"
	"github.com/dioko-ai/bob/internal/taskgraph"
)

// Session capabilities each open a Handle for exactly the duration of one
// call and close it before returning, rather than holding it across
// requests. This matches the one-call-per-capability-invocation model the
// transport adapters drive: the advisory lock in internal/sessionstore is
// held only while a particular operation (including a long-running
// advance) is actually in flight, never idle between requests.

type SessionInitPayload struct {
	Cwd         string `json:"cwd"`
	Title       string `json:"title"`
	TestCommand string `json:"test_command"`
	Backend     string `json:"backend"`
}

type sessionInitCapability struct{}

func (sessionInitCapability) Name() string          { return "session.init" }
func (sessionInitCapability) Operation() OperationType { return OpWrite }
func (sessionInitCapability) Handle(_ context.Context, req RequestEnvelope) ResponseEnvelope {
	p, ok := req.Payload.(SessionInitPayload)
	if !ok {
		return Err(req, InvalidRequest("session.init requires a SessionInitPayload"))
	}
	h, err := sessionstore.Init(p.Cwd, p.Title, p.TestCommand, p.Backend)
	if err != nil {
		if errors.Is(err, sessionstore.ErrAlreadyExist) {
			return Err(req, Conflict(err.Error()))
		}
		return Err(req, IOFailure(err.Error()))
	}
	defer h.Close()

	meta, err := h.ReadSessionMeta()
	if err != nil {
		return Err(req, IOFailure(err.Error()))
	}
	log.Info(log.CatCapability, "session initialized", "session_id", meta.SessionID)
	return Ok(req, meta)
}

type SessionOpenPayload struct {
	SessionID string `json:"session_id"`
}

type sessionOpenCapability struct{}

func (sessionOpenCapability) Name() string          { return "session.open" }
func (sessionOpenCapability) Operation() OperationType { return OpRead }
func (sessionOpenCapability) Handle(_ context.Context, req RequestEnvelope) ResponseEnvelope {
	p, ok := req.Payload.(SessionOpenPayload)
	if !ok {
		return Err(req, InvalidRequest("session.open requires a SessionOpenPayload"))
	}
	h, err := sessionstore.Open(p.SessionID)
	if err != nil {
		return Err(req, translateSessionOpenErr(err))
	}
	defer h.Close()

	meta, err := h.ReadSessionMeta()
	if err != nil {
		return Err(req, IOFailure(err.Error()))
	}
	return Ok(req, meta)
}

type sessionListCapability struct{}

func (sessionListCapability) Name() string          { return "session.list" }
func (sessionListCapability) Operation() OperationType { return OpRead }
func (sessionListCapability) Handle(_ context.Context, req RequestEnvelope) ResponseEnvelope {
	summaries, err := listSessions()
	if err != nil {
		return Err(req, IOFailure(err.Error()))
	}
	return Ok(req, summaries)
}

// listSessions prefers the sqlite acceleration index, falling back to a
// full directory scan if the index cannot be opened or queried. Per its
// non-authoritative contract, the index being missing or corrupt is never
// a capability-level failure.
func listSessions() ([]sessionstore.Summary, error) {
	path, err := sessionindex.DefaultPath()
	if err != nil {
		return sessionstore.List()
	}
	idx, err := sessionindex.Open(path)
	if err != nil {
		log.Warn(log.CatIndex, "index open failed, falling back to directory scan", "error", err.Error())
		return sessionstore.List()
	}
	defer idx.Close()

	summaries, err := idx.List()
	if err != nil {
		log.Warn(log.CatIndex, "index list failed, falling back to directory scan", "error", err.Error())
		return sessionstore.List()
	}
	return summaries, nil
}

// translateSessionOpenErr maps a sessionstore.Open error to the stable
// taxonomy: a missing session is not_found, anything else is io_failure.
func translateSessionOpenErr(err error) *Error {
	if errors.Is(err, sessionstore.ErrNotFound) {
		return NotFound(err.Error())
	}
	return IOFailure(err.Error())
}

// withSession opens sessionID, runs fn against the Handle, and closes it
// before returning, translating sessionstore errors into the taxonomy.
func withSession(req RequestEnvelope, sessionID string, fn func(h *sessionstore.Handle) (any, *Error)) ResponseEnvelope {
	h, err := sessionstore.Open(sessionID)
	if err != nil {
		return Err(req, translateSessionOpenErr(err))
	}
	defer h.Close()

	data, capErr := fn(h)
	if capErr != nil {
		return Err(req, capErr)
	}
	return Ok(req, data)
}

type SessionIDPayload struct {
	SessionID string `json:"session_id"`
}

func sessionIDFromPayload(req RequestEnvelope) (string, bool) {
	p, ok := req.Payload.(SessionIDPayload)
	return p.SessionID, ok
}

type sessionReadTasksCapability struct{}

func (sessionReadTasksCapability) Name() string          { return "session.read_tasks" }
func (sessionReadTasksCapability) Operation() OperationType { return OpRead }
func (sessionReadTasksCapability) Handle(_ context.Context, req RequestEnvelope) ResponseEnvelope {
	sessionID, ok := sessionIDFromPayload(req)
	if !ok {
		return Err(req, InvalidRequest("session.read_tasks requires a SessionIDPayload"))
	}
	return withSession(req, sessionID, func(h *sessionstore.Handle) (any, *Error) {
		tasks, err := h.ReadTasks()
		if err != nil {
			return nil, IOFailure(err.Error())
		}
		return tasks, nil
	})
}

type sessionReadPlannerCapability struct{}

func (sessionReadPlannerCapability) Name() string          { return "session.read_planner" }
func (sessionReadPlannerCapability) Operation() OperationType { return OpRead }
func (sessionReadPlannerCapability) Handle(_ context.Context, req RequestEnvelope) ResponseEnvelope {
	sessionID, ok := sessionIDFromPayload(req)
	if !ok {
		return Err(req, InvalidRequest("session.read_planner requires a SessionIDPayload"))
	}
	return withSession(req, sessionID, func(h *sessionstore.Handle) (any, *Error) {
		content, err := h.ReadPlanner()
		if err != nil {
			return nil, IOFailure(err.Error())
		}
		return content, nil
	})
}

type sessionReadRollingContextCapability struct{}

func (sessionReadRollingContextCapability) Name() string          { return "session.read_rolling_context" }
func (sessionReadRollingContextCapability) Operation() OperationType { return OpRead }
func (sessionReadRollingContextCapability) Handle(_ context.Context, req RequestEnvelope) ResponseEnvelope {
	sessionID, ok := sessionIDFromPayload(req)
	if !ok {
		return Err(req, InvalidRequest("session.read_rolling_context requires a SessionIDPayload"))
	}
	return withSession(req, sessionID, func(h *sessionstore.Handle) (any, *Error) {
		entries, err := h.ReadRollingContext()
		if err != nil {
			return nil, IOFailure(err.Error())
		}
		return entries, nil
	})
}

type SessionWriteRollingContextPayload struct {
	SessionID string                        `json:"session_id"`
	Entries   []sessionstore.RollingEntry `json:"entries"`
}

type sessionWriteRollingContextCapability struct{}

func (sessionWriteRollingContextCapability) Name() string          { return "session.write_rolling_context" }
func (sessionWriteRollingContextCapability) Operation() OperationType { return OpWrite }
func (sessionWriteRollingContextCapability) Handle(_ context.Context, req RequestEnvelope) ResponseEnvelope {
	p, ok := req.Payload.(SessionWriteRollingContextPayload)
	if !ok {
		return Err(req, InvalidRequest("session.write_rolling_context requires a SessionWriteRollingContextPayload"))
	}
	return withSession(req, p.SessionID, func(h *sessionstore.Handle) (any, *Error) {
		if err := h.WriteRollingContext(p.Entries); err != nil {
			return nil, IOFailure(err.Error())
		}
		return nil, nil
	})
}

type sessionReadTaskFailsCapability struct{}

func (sessionReadTaskFailsCapability) Name() string          { return "session.read_task_fails" }
func (sessionReadTaskFailsCapability) Operation() OperationType { return OpRead }
func (sessionReadTaskFailsCapability) Handle(_ context.Context, req RequestEnvelope) ResponseEnvelope {
	sessionID, ok := sessionIDFromPayload(req)
	if !ok {
		return Err(req, InvalidRequest("session.read_task_fails requires a SessionIDPayload"))
	}
	return withSession(req, sessionID, func(h *sessionstore.Handle) (any, *Error) {
		entries, err := h.ReadTaskFails()
		if err != nil {
			return nil, IOFailure(err.Error())
		}
		return entries, nil
	})
}

type SessionAppendTaskFailsPayload struct {
	SessionID string                   `json:"session_id"`
	Entries   []taskgraph.FailureEntry `json:"entries"`
}

type sessionAppendTaskFailsCapability struct{}

func (sessionAppendTaskFailsCapability) Name() string          { return "session.append_task_fails" }
func (sessionAppendTaskFailsCapability) Operation() OperationType { return OpWrite }
func (sessionAppendTaskFailsCapability) Handle(_ context.Context, req RequestEnvelope) ResponseEnvelope {
	p, ok := req.Payload.(SessionAppendTaskFailsPayload)
	if !ok {
		return Err(req, InvalidRequest("session.append_task_fails requires a SessionAppendTaskFailsPayload"))
	}
	return withSession(req, p.SessionID, func(h *sessionstore.Handle) (any, *Error) {
		if err := h.AppendTaskFails(p.Entries); err != nil {
			return nil, IOFailure(err.Error())
		}
		return nil, nil
	})
}

type sessionReadProjectInfoCapability struct{}

func (sessionReadProjectInfoCapability) Name() string          { return "session.read_project_info" }
func (sessionReadProjectInfoCapability) Operation() OperationType { return OpRead }
func (sessionReadProjectInfoCapability) Handle(_ context.Context, req RequestEnvelope) ResponseEnvelope {
	sessionID, ok := sessionIDFromPayload(req)
	if !ok {
		return Err(req, InvalidRequest("session.read_project_info requires a SessionIDPayload"))
	}
	return withSession(req, sessionID, func(h *sessionstore.Handle) (any, *Error) {
		content, err := h.ReadProjectInfo()
		if err != nil {
			return nil, IOFailure(err.Error())
		}
		return content, nil
	})
}

type SessionWriteProjectInfoPayload struct {
	SessionID string `json:"session_id"`
	Content   string `json:"content"`
}

type sessionWriteProjectInfoCapability struct{}

func (sessionWriteProjectInfoCapability) Name() string          { return "session.write_project_info" }
func (sessionWriteProjectInfoCapability) Operation() OperationType { return OpWrite }
func (sessionWriteProjectInfoCapability) Handle(_ context.Context, req RequestEnvelope) ResponseEnvelope {
	p, ok := req.Payload.(SessionWriteProjectInfoPayload)
	if !ok {
		return Err(req, InvalidRequest("session.write_project_info requires a SessionWriteProjectInfoPayload"))
	}
	return withSession(req, p.SessionID, func(h *sessionstore.Handle) (any, *Error) {
		if err := h.WriteProjectInfo(p.Content); err != nil {
			return nil, IOFailure(err.Error())
		}
		return nil, nil
	})
}

type sessionReadSessionMetaCapability struct{}

func (sessionReadSessionMetaCapability) Name() string          { return "session.read_session_meta" }
func (sessionReadSessionMetaCapability) Operation() OperationType { return OpRead }
func (sessionReadSessionMetaCapability) Handle(_ context.Context, req RequestEnvelope) ResponseEnvelope {
	sessionID, ok := sessionIDFromPayload(req)
	if !ok {
		return Err(req, InvalidRequest("session.read_session_meta requires a SessionIDPayload"))
	}
	return withSession(req, sessionID, func(h *sessionstore.Handle) (any, *Error) {
		meta, err := h.ReadSessionMeta()
		if err != nil {
			return nil, IOFailure(err.Error())
		}
		return meta, nil
	})
}

// RegisterSessionCapabilities registers every session.* capability.
func RegisterSessionCapabilities() {
	Register(sessionInitCapability{})
	Register(sessionOpenCapability{})
	Register(sessionListCapability{})
	Register(sessionReadTasksCapability{})
	Register(sessionReadPlannerCapability{})
	Register(sessionReadRollingContextCapability{})
	Register(sessionWriteRollingContextCapability{})
	Register(sessionReadTaskFailsCapability{})
	Register(sessionAppendTaskFailsCapability{})
	Register(sessionReadProjectInfoCapability{})
	Register(sessionWriteProjectInfoCapability{})
	Register(sessionReadSessionMetaCapability{})
}
