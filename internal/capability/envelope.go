// Package capability implements the Capability Surface (component E):
// typed request/response envelopes, the static capability registry, and
// the stable error taxonomy. Nothing in this package performs
// orchestration logic itself; each Capability delegates to
// internal/orchestrator, internal/sessionstore, or internal/taskgraph.
package capability

// OperationType classifies a capability by whether it touches durable
// state.
type OperationType string

const (
	OpPure  OperationType = "pure"
	OpRead  OperationType = "read"
	OpWrite OperationType = "write"
)

// Metadata identifies the caller for logging/tracing purposes.
type Metadata struct {
	Transport string // "cli", "repl", ...
	Actor     string
}

// RequestEnvelope carries one capability invocation.
type RequestEnvelope struct {
	RequestID string
	Capability string
	Metadata  Metadata
	Payload   any
}

// Result is the Ok/Err union a ResponseEnvelope carries. Exactly one of
// Data or Err is set.
type Result struct {
	Data any
	Err  *Error
}

// ResponseEnvelope carries one capability's result.
type ResponseEnvelope struct {
	RequestID  string
	Capability string
	Result     Result
}

// Ok builds a successful ResponseEnvelope.
func Ok(req RequestEnvelope, data any) ResponseEnvelope {
	return ResponseEnvelope{
		RequestID:  req.RequestID,
		Capability: req.Capability,
		Result:     Result{Data: data},
	}
}

// Err builds a failed ResponseEnvelope.
func Err(req RequestEnvelope, err *Error) ResponseEnvelope {
	return ResponseEnvelope{
		RequestID:  req.RequestID,
		Capability: req.Capability,
		Result:     Result{Err: err},
	}
}
