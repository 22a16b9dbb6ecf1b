package workflow

import "github.com/dioko-ai/bob/internal/taskgraph"

// recentFailureWindow bounds the retry prompt context to the last K
// failure summaries for the same task.
const recentFailureWindow = 3

// Step is the engine's single entry point. It is a pure function: given
// the current graph, ledger, an optional verdict for whichever task is
// currently running, and a caller-supplied timestamp (the engine never
// reads the wall clock, so the same inputs always produce the same
// outputs), it returns the next graph, ledger, and Action.
//
// Call Step with verdict == nil to ask "what should run next" when no
// task is currently running. Call it with a non-nil verdict to report
// the outcome of the task currently in the running state; the returned
// Action is then the *next* thing to do after applying that transition.
func Step(g taskgraph.Graph, l taskgraph.Ledger, verdict *Verdict, now string) (taskgraph.Graph, taskgraph.Ledger, Action) {
	running, hasRunning := findRunning(g)

	switch {
	case hasRunning && verdict != nil:
		g, l = applyVerdict(g, l, running, *verdict, now)
	case hasRunning && verdict == nil:
		return g, l, Action{Kind: ActionBlocked, Reason: "task " + running.ID + " is running; a verdict is required before advancing"}
	case !hasRunning && verdict != nil:
		return g, l, Action{Kind: ActionBlocked, Reason: "no task is running; verdict is unexpected"}
	}

	return schedule(g, l)
}

// findRunning returns the task currently in the running state, if any.
// The engine enforces at most one running task at a time by construction
// (schedule only ever marks one task running per Step call).
func findRunning(g taskgraph.Graph) (taskgraph.Task, bool) {
	for _, t := range g.Tasks() {
		if t.Status == taskgraph.StatusRunning {
			return t, true
		}
	}
	return taskgraph.Task{}, false
}

// applyVerdict performs the running -> {passed | pending | failed}
// transition for task and returns the updated graph and ledger.
func applyVerdict(g taskgraph.Graph, l taskgraph.Ledger, task taskgraph.Task, v Verdict, now string) (taskgraph.Graph, taskgraph.Ledger) {
	switch v.Kind {
	case VerdictPass:
		task.Attempt++
		task.Status = taskgraph.StatusPassed
		return g.With(task), l

	case VerdictFail:
		exhausted := task.Attempt+1 >= task.MaxAttempts
		task.Attempt++

		entry := taskgraph.FailureEntry{
			TaskID:         task.ID,
			Attempt:        task.Attempt,
			Kind:           task.Kind,
			VerdictSummary: v.Summary,
			Details:        v.Details,
			Timestamp:      now,
		}
		l, idx := l.Append(entry)
		task = task.WithLinkedFailureRef(idx)

		if !exhausted {
			task.Status = taskgraph.StatusPending
			return g.With(task), l
		}

		task.Status = taskgraph.StatusFailed
		g = g.With(task)
		return propagateFailure(g, l, task, now)
	}
	return g, l
}

// propagateFailure applies failure propagation starting from a task that
// has just exhausted its retries and entered failed.
func propagateFailure(g taskgraph.Graph, l taskgraph.Ledger, failed taskgraph.Task, now string) (taskgraph.Graph, taskgraph.Ledger) {
	switch failed.Kind {
	case taskgraph.KindImplementation:
		return skipChildren(g, l, failed.ID, now)

	case taskgraph.KindAudit, taskgraph.KindTestRun:
		if !failed.HasParent() {
			return g, l
		}
		owner, ok := g.Get(failed.ParentID)
		if !ok || owner.Kind != taskgraph.KindImplementation {
			return g, l
		}
		if owner.Status == taskgraph.StatusFailed {
			return g, l
		}
		owner.Status = taskgraph.StatusFailed
		g = g.With(owner)
		return propagateFailure(g, l, owner, now)

	default:
		// final_audit exhaustion is terminal and handled by the caller
		// (schedule returns ActionDone with overall "failed" before any
		// propagation would be needed); test_write failure has no
		// further propagation target defined.
		return g, l
	}
}

// skipChildren marks every pending or running direct child of implID as
// skipped and appends a ledger entry recording why.
func skipChildren(g taskgraph.Graph, l taskgraph.Ledger, implID string, now string) (taskgraph.Graph, taskgraph.Ledger) {
	for _, child := range g.Children(implID) {
		if child.Status != taskgraph.StatusPending && child.Status != taskgraph.StatusRunning {
			continue
		}
		child.Status = taskgraph.StatusSkipped
		g = g.With(child)

		entry := taskgraph.FailureEntry{
			TaskID:       child.ID,
			Attempt:      child.Attempt,
			Kind:         child.Kind,
			VerdictSummary: "skipped",
			Timestamp:    now,
			SkippedDueTo: implID,
		}
		l, idx := l.Append(entry)
		g = g.With(child.WithLinkedFailureRef(idx))
	}
	return g, l
}

// schedule selects the next eligible task (the first task in canonical
// order whose status is pending) and returns RunTask, or Done if no task
// is pending or running.
func schedule(g taskgraph.Graph, l taskgraph.Ledger) (taskgraph.Graph, taskgraph.Ledger, Action) {
	ordered := g.CanonicalOrder().Tasks()

	for _, t := range ordered {
		if t.Status != taskgraph.StatusPending {
			continue
		}

		running := t
		running.Status = taskgraph.StatusRunning
		g2 := g.With(running)

		return g2, l, Action{
			Kind:          ActionRunTask,
			TaskID:        t.ID,
			Role:          t.Kind,
			PromptContext: buildPromptContext(t, l),
		}
	}

	for _, t := range ordered {
		if t.Status == taskgraph.StatusFailed {
			return g, l, Action{Kind: ActionDone, Overall: "failed"}
		}
	}
	return g, l, Action{Kind: ActionDone, Overall: "passed"}
}

// buildPromptContext assembles the bounded retry context the engine hands
// back with a RunTask action.
func buildPromptContext(t taskgraph.Task, l taskgraph.Ledger) PromptContext {
	return PromptContext{
		Attempt:        t.Attempt,
		MaxAttempts:    t.MaxAttempts,
		RecentFailures: l.LastNForTask(t.ID, recentFailureWindow),
	}
}
