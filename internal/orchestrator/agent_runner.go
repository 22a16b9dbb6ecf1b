package orchestrator

import (
	"context"
	"errors"
	"sync"

	"github.com/dioko-ai/bob/internal/taskgraph"
	"github.com/dioko-ai/bob/internal/workflow"
)

// AgentRunner is the external capability that actually drives a headless
// backend process and reduces whatever it observes (exit code, parsed
// output, a structured result) to a Verdict. The core never knows whether
// that means spawning a CLI, calling an API, or replaying a script — it
// only calls Run and waits for a Verdict or an error.
//
// Comparable to a HeadlessClient/HeadlessProcess pair whose Spawn returns
// a process with Events/Errors channels the caller drains until exit: Run
// collapses that into a single blocking call because the workflow engine
// only ever needs the final Verdict, never the intermediate event stream.
type AgentRunner interface {
	// Run invokes role's agent with prompt against sessionHandle (the
	// session directory, used as the backend's working/resume context).
	// cancel is closed to request cooperative cancellation; Run should
	// return promptly with a non-nil error in that case so the caller can
	// revert the task to pending per the cancellation-recovery contract.
	Run(ctx context.Context, role taskgraph.Kind, prompt string, sessionHandle string, cancel <-chan struct{}) (workflow.Verdict, error)
}

// ErrCancelled is returned by an AgentRunner whose run was cancelled
// before it produced a Verdict.
var ErrCancelled = errors.New("agent run cancelled")

// ScriptedRunner is a deterministic AgentRunner driven by a pre-loaded
// queue of verdicts, one consumed per call to Run regardless of role or
// prompt. A scripted stand-in for tests, playing the same role a mock
// client provider plays against a command processor.
type ScriptedRunner struct {
	mu    sync.Mutex
	queue []scriptedStep
	calls []ScriptedCall
}

// scriptedStep is one queued response: either a Verdict or an error.
type scriptedStep struct {
	verdict workflow.Verdict
	err     error
}

// ScriptedCall records one observed invocation, for test assertions about
// what the orchestration service actually asked the runner to do.
type ScriptedCall struct {
	Role          taskgraph.Kind
	Prompt        string
	SessionHandle string
}

// NewScriptedRunner builds a ScriptedRunner that returns verdicts in order.
func NewScriptedRunner(verdicts ...workflow.Verdict) *ScriptedRunner {
	r := &ScriptedRunner{}
	for _, v := range verdicts {
		r.queue = append(r.queue, scriptedStep{verdict: v})
	}
	return r
}

// QueueVerdict appends a Verdict to the end of the script.
func (r *ScriptedRunner) QueueVerdict(v workflow.Verdict) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queue = append(r.queue, scriptedStep{verdict: v})
}

// QueueError appends an error to the end of the script, simulating a
// transport-level failure (the backend process could not even be
// spawned) rather than a domain Verdict::Fail.
func (r *ScriptedRunner) QueueError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queue = append(r.queue, scriptedStep{err: err})
}

// Run implements AgentRunner by popping the next queued step.
func (r *ScriptedRunner) Run(ctx context.Context, role taskgraph.Kind, prompt string, sessionHandle string, cancel <-chan struct{}) (workflow.Verdict, error) {
	select {
	case <-cancel:
		return workflow.Verdict{}, ErrCancelled
	default:
	}
	if ctx != nil {
		select {
		case <-ctx.Done():
			return workflow.Verdict{}, ctx.Err()
		default:
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, ScriptedCall{Role: role, Prompt: prompt, SessionHandle: sessionHandle})

	if len(r.queue) == 0 {
		return workflow.Verdict{}, errors.New("orchestrator: scripted runner script exhausted")
	}
	step := r.queue[0]
	r.queue = r.queue[1:]
	if step.err != nil {
		return workflow.Verdict{}, step.err
	}
	return step.verdict, nil
}

// Calls returns a defensive copy of every invocation observed so far.
func (r *ScriptedRunner) Calls() []ScriptedCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ScriptedCall, len(r.calls))
	copy(out, r.calls)
	return out
}
