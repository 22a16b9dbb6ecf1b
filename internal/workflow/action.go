// Package workflow implements the execution engine: a pure function from
// a task graph, failure ledger, and an optional verdict for the task
// currently running, to the next graph, ledger, and Action. It holds no
// state of its own and performs no I/O; the orchestration service (see
// internal/orchestrator) is responsible for persistence and for invoking
// the AgentRunner capability.
package workflow

import "github.com/dioko-ai/bob/internal/taskgraph"

// ActionKind tags the variant carried by an Action.
type ActionKind int

const (
	// ActionRunTask instructs the caller to invoke the AgentRunner for
	// TaskID/Role with PromptContext, then report a Verdict back via Step.
	ActionRunTask ActionKind = iota
	// ActionDone indicates there is no more eligible work; Overall carries
	// the terminal status for the session ("passed" or "failed").
	ActionDone
	// ActionBlocked indicates the engine cannot proceed and the caller
	// should surface Reason without retrying automatically.
	ActionBlocked
)

func (k ActionKind) String() string {
	switch k {
	case ActionRunTask:
		return "run_task"
	case ActionDone:
		return "done"
	case ActionBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// PromptContext is the bounded retry/history data the engine hands back
// with a RunTask action. Prompt text composition itself is an external
// collaborator's concern; the engine only supplies the raw facts.
type PromptContext struct {
	Attempt           int                      // the attempt number about to run (0-indexed)
	MaxAttempts       int
	RecentFailures    []taskgraph.FailureEntry // up to K most recent, oldest first
	RollingContext    []RollingEntry           // recent cross-task status entries
}

// RollingEntry mirrors a single bounded rolling-context record. Defined
// here (rather than imported from the session store) so the engine has
// no dependency on persistence types.
type RollingEntry struct {
	TaskID    string
	Timestamp string
	Summary   string
}

// Action is the tagged value the engine returns from every Step call.
type Action struct {
	Kind ActionKind

	// Populated when Kind == ActionRunTask.
	TaskID        string
	Role          taskgraph.Kind
	PromptContext PromptContext

	// Populated when Kind == ActionDone.
	Overall string // "passed" or "failed"

	// Populated when Kind == ActionBlocked.
	Reason string
}
