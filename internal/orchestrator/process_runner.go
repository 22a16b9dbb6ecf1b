package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/dioko-ai/bob/internal/taskgraph"
	"github.com/dioko-ai/bob/internal/workflow"
)

// backendExecutables maps a configured backend identifier to the headless
// CLI it invokes.
var backendExecutables = map[string]string{
	"claude": "claude",
	"amp":    "amp",
	"codex":  "codex",
	"gemini": "gemini",
}

// ProcessRunner is the production AgentRunner: it spawns the configured
// backend's headless CLI once per Run call, passes prompt as its -p
// argument with sessionHandle as its working directory, and reduces the exit code to a
// Verdict. It does not parse a structured event stream — prompt already
// carries everything role-specific the backend needs, and the engine only
// ever needs pass/fail plus a failure summary.
type ProcessRunner struct {
	Backend string
}

// NewProcessRunner builds a ProcessRunner for backend.
func NewProcessRunner(backend string) *ProcessRunner {
	return &ProcessRunner{Backend: backend}
}

func (r *ProcessRunner) Run(ctx context.Context, _ taskgraph.Kind, prompt string, sessionHandle string, cancel <-chan struct{}) (workflow.Verdict, error) {
	exe, ok := backendExecutables[r.Backend]
	if !ok {
		return workflow.Verdict{}, fmt.Errorf("unknown backend %q", r.Backend)
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-cancel:
			stop()
		case <-done:
		}
	}()

	cmd := exec.CommandContext(runCtx, exe, "-p", prompt)
	cmd.Dir = sessionHandle
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	select {
	case <-cancel:
		return workflow.Verdict{}, ErrCancelled
	default:
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return workflow.Fail(
				fmt.Sprintf("%s exited %d", exe, exitErr.ExitCode()),
				lastLines(stderr.String(), 20),
			), nil
		}
		return workflow.Verdict{}, fmt.Errorf("spawning %s: %w", exe, runErr)
	}
	return workflow.Pass(), nil
}

// lastLines returns the last n lines of s, ignoring trailing newlines, for a
// bounded failure detail blob rather than an unbounded stderr dump.
func lastLines(s string, n int) string {
	trimmed := strings.TrimRight(s, "\n")
	if trimmed == "" {
		return ""
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
