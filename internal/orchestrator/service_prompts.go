package orchestrator

import (
	"context"

	"github.com/dioko-ai/bob/internal/log"
	"github.com/dioko-ai/bob/internal/sessionstore"
	"github.com/dioko-ai/bob/internal/taskgraph"
	"github.com/dioko-ai/bob/internal/workflow"
)

// PrepareMasterPrompt implements app.prepare_master_prompt: a pure
// projection over the session's current state plus message, cached per
// (session_id, generation, message).
func (s *Service) PrepareMasterPrompt(ctx context.Context, message string) (string, error) {
	key := projectionKey(s.sessionID(), s.gen(), "master", message)
	if cached, ok := s.cache.masterPrompt.Get(ctx, key); ok {
		return cached, nil
	}

	meta, err := s.store.ReadSessionMeta()
	if err != nil {
		return "", err
	}
	tasks, err := s.store.ReadTasks()
	if err != nil {
		return "", err
	}
	rolling, err := s.store.ReadRollingContext()
	if err != nil {
		return "", err
	}
	projectInfo, err := s.store.ReadProjectInfo()
	if err != nil {
		return "", err
	}

	text := BuildMasterPrompt(meta, tasks, toWorkflowRolling(rolling), projectInfo, message)
	s.cache.masterPrompt.Set(ctx, key, text, promptCacheTTL)
	return text, nil
}

// PreparePlannerPrompt implements app.prepare_planner_prompt. It is pure
// given its arguments, so it is not cached: the caller already has
// plannerMD/projectInfoMD in hand (typically because it just read or
// edited them) and re-composing the text is cheap relative to a cache
// lookup plus key hashing.
func (s *Service) PreparePlannerPrompt(message, plannerMD, projectInfoMD string) string {
	return BuildPlannerPrompt(message, plannerMD, projectInfoMD)
}

// PrepareAttachDocsPrompt implements app.prepare_attach_docs_prompt over
// the tasks currently persisted for the session.
func (s *Service) PrepareAttachDocsPrompt() (string, error) {
	tasks, err := s.store.ReadTasks()
	if err != nil {
		return "", err
	}
	return BuildAttachDocsPrompt(tasks), nil
}

// RightPaneView renders the session's stored task graph as the right-pane
// outline, the same projection the workflow.right_pane_view capability
// computes from caller-supplied tasks, cached per (session_id, generation,
// width).
func (s *Service) RightPaneView(ctx context.Context, width int) ([]string, error) {
	key := projectionKey(s.sessionID(), s.gen(), "pane", itoa(width))
	if cached, ok := s.cache.rightPane.Get(ctx, key); ok {
		return cached, nil
	}

	tasks, err := s.store.ReadTasks()
	if err != nil {
		return nil, err
	}
	lines := taskgraph.RightPaneView(taskgraph.NewGraph(tasks).CanonicalOrder(), width)
	s.cache.rightPane.Set(ctx, key, lines, promptCacheTTL)
	return lines, nil
}

// WritePlanner replaces planner.md and, per the "[ADDED] Planner diff
// summaries" design, appends a rolling-context entry summarizing the
// change so later agent prompts see that the plan moved even though
// rolling context entries are otherwise keyed to task execution. The
// first write onto an empty or missing planner.md appends no entry.
func (s *Service) WritePlanner(content, now string) error {
	previous, err := s.store.ReadPlanner()
	if err != nil {
		return err
	}
	if err := s.store.WritePlanner(content); err != nil {
		return err
	}

	summary := summarizePlannerDiff(previous, content)
	if previous == "" || summary == "" {
		return nil
	}
	entries, err := s.store.ReadRollingContext()
	if err != nil {
		log.Warn(log.CatOrch, "rolling context read failed after planner write", "error", err.Error())
		return nil
	}
	next := sessionstore.AppendRollingEntry(entries, sessionstore.RollingEntry{Timestamp: now, Summary: summary})
	if err := s.store.WriteRollingContext(next); err != nil {
		log.Warn(log.CatOrch, "rolling context write failed after planner write", "error", err.Error())
	}
	return nil
}

func toWorkflowRolling(entries []sessionstore.RollingEntry) []workflow.RollingEntry {
	out := make([]workflow.RollingEntry, len(entries))
	for i, e := range entries {
		out[i] = workflow.RollingEntry{TaskID: e.TaskID, Timestamp: e.Timestamp, Summary: e.Summary}
	}
	return out
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
