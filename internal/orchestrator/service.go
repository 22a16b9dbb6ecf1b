// Package orchestrator is the Orchestration Service (component D): it
// binds the pure workflow engine to a Session Store handle and an
// AgentRunner capability and drives one logical advance() step at a time.
// Nothing in internal/workflow or internal/taskgraph performs I/O or reads
// a clock; this package is where both happen, and it is the only caller
// of workflow.Step, the same way a command processor is the sole caller
// of its pure command-handling core.
package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dioko-ai/bob/internal/log"
	"github.com/dioko-ai/bob/internal/sessionstore"
	"github.com/dioko-ai/bob/internal/taskgraph"
	"github.com/dioko-ai/bob/internal/tracing"
	"github.com/dioko-ai/bob/internal/workflow"
)

// Service binds one open session to an AgentRunner and drives advance()
// calls against it. A Service is scoped to a single session; it is not
// safe for concurrent Advance calls, following a single-threaded
// cooperative scheduling model — callers serialize via the session's
// directory lock, held for the lifetime of the Handle. The one exception
// is the best-effort planner watcher, which runs on its own goroutine and
// so guards generation with genMu rather than relying on that model.
type Service struct {
	store  *sessionstore.Handle
	runner AgentRunner
	tracer trace.Tracer

	cache      *projectionCache
	genMu      sync.Mutex
	generation int
	watcher    *sessionstore.Watcher
}

// NewService binds store and runner into a Service. provider may be nil, in
// which case a no-op tracer is used (see tracing.NewProvider with
// Enabled: false). It also starts a best-effort watch on the session
// directory so an externally written planner.md invalidates the prompt
// cache; a watcher that fails to start only logs a warning; see
// watchPlanner.
func NewService(store *sessionstore.Handle, runner AgentRunner, provider *tracing.Provider) *Service {
	var tracer trace.Tracer
	if provider != nil {
		tracer = provider.Tracer()
	} else {
		noopProvider, _ := tracing.NewProvider(tracing.Config{Enabled: false})
		tracer = noopProvider.Tracer()
	}
	s := &Service{
		store:  store,
		runner: runner,
		tracer: tracer,
		cache:  newProjectionCache(),
	}
	s.watchPlanner()
	return s
}

// Close stops the session's best-effort planner watch, if one was
// started. It does not close the underlying sessionstore.Handle; callers
// own that separately and should close it after Close returns.
func (s *Service) Close() error {
	if s.watcher != nil {
		return s.watcher.Stop()
	}
	return nil
}

// watchPlanner starts a best-effort fsnotify watch on the session
// directory so an externally edited planner.md invalidates the prompt
// cache before the next PrepareMasterPrompt call, even though no
// persisted task-graph write occurred to bump generation itself. A
// watcher that fails to start (e.g. the platform's inotify/kqueue watch
// limit is exhausted) degrades to the TTL-only invalidation projectionCache
// already provides; it is never a reason to fail NewService.
func (s *Service) watchPlanner() {
	if s.store == nil {
		return
	}
	w, err := sessionstore.NewPlannerWatcher(s.store.Dir())
	if err != nil {
		log.Warn(log.CatWatcher, "planner watch unavailable; cache relies on TTL only", "error", err.Error())
		return
	}
	changes, err := w.Start()
	if err != nil {
		log.Warn(log.CatWatcher, "planner watch failed to start", "error", err.Error())
		return
	}
	s.watcher = w
	go func() {
		for range changes {
			s.bumpGeneration()
		}
	}()
}

func (s *Service) bumpGeneration() {
	s.genMu.Lock()
	s.generation++
	s.genMu.Unlock()
}

func (s *Service) gen() int {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.generation
}

func (s *Service) sessionID() string {
	meta, err := s.store.ReadSessionMeta()
	if err != nil {
		return s.store.Dir()
	}
	return meta.SessionID
}

// Advance asks the engine for the next action and, if it is RunTask,
// invokes the AgentRunner, applies the resulting transition, persists the
// batch, and returns the *observed* action — i.e. whatever the engine
// decided once the verdict was known, not the intermediate "now running"
// action. now is supplied by the caller rather than read from a clock
// here, so the whole advance sequence for a session remains replayable
// from its persisted tasks.json/task-fails.json history.
func (s *Service) Advance(ctx context.Context, now string) (workflow.Action, error) {
	ctx, span := s.tracer.Start(ctx, "advance", trace.WithAttributes(
		attribute.String("session_id", s.sessionID()),
	))
	defer span.End()

	g, l, err := s.load()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return workflow.Action{}, err
	}

	if running, ok := findRunningTask(g); ok {
		g, l = recoverRunningTask(g, l, running, now)
		if err := s.persist(g, l); err != nil {
			span.RecordError(err)
			return workflow.Action{}, err
		}
		action := workflow.Action{Kind: workflow.ActionBlocked, Reason: fmt.Sprintf("recovered task %s left running by a prior crash; retry advance", running.ID)}
		span.SetAttributes(attribute.String("action", action.Kind.String()))
		return action, nil
	}

	g, l, action := workflow.Step(g, l, nil, now)
	if action.Kind != workflow.ActionRunTask {
		if err := s.persist(g, l); err != nil {
			span.RecordError(err)
			return workflow.Action{}, err
		}
		span.SetAttributes(attribute.String("action", action.Kind.String()))
		return action, nil
	}

	if err := s.persist(g, l); err != nil {
		span.RecordError(err)
		return workflow.Action{}, err
	}

	observed, err := s.runTask(ctx, g, l, action, now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return workflow.Action{}, err
	}
	span.SetAttributes(attribute.String("action", observed.Kind.String()))
	return observed, nil
}

// runTask invokes the AgentRunner for action (a freshly scheduled RunTask)
// and applies the resulting verdict, returning the next observed action.
func (s *Service) runTask(ctx context.Context, g taskgraph.Graph, l taskgraph.Ledger, action workflow.Action, now string) (workflow.Action, error) {
	task, ok := g.Get(action.TaskID)
	if !ok {
		return workflow.Action{}, fmt.Errorf("orchestrator: scheduled task %s missing from graph", action.TaskID)
	}

	runCtx, span := s.tracer.Start(ctx, "agent_runner.run", trace.WithAttributes(
		attribute.String("task_id", task.ID),
		attribute.String("role", string(task.Kind)),
		attribute.Int("attempt", action.PromptContext.Attempt),
	))
	defer span.End()

	prompt := BuildTaskPrompt(task, action.PromptContext)
	cancel := make(chan struct{})
	done := make(chan struct{})
	go func() {
		select {
		case <-runCtx.Done():
			close(cancel)
		case <-done:
		}
	}()

	verdict, err := s.runner.Run(runCtx, task.Kind, prompt, s.store.Dir(), cancel)
	close(done)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn(log.CatOrch, "agent runner failed before producing a verdict", "task_id", task.ID, "error", err.Error())
		return workflow.Action{}, err
	}

	g2, l2, next := workflow.Step(g, l, &verdict, now)
	if err := s.persist(g2, l2); err != nil {
		return workflow.Action{}, err
	}

	s.appendRollingEntry(task.ID, now, summarizeVerdict(task, verdict))
	return next, nil
}

func summarizeVerdict(task taskgraph.Task, v workflow.Verdict) string {
	if v.Kind == workflow.VerdictPass {
		return fmt.Sprintf("%s passed", task.Kind)
	}
	return fmt.Sprintf("%s failed: %s", task.Kind, v.Summary)
}

// findRunningTask returns the task currently in the running state, if any.
// The engine itself never exposes this scan (findRunning is private to
// internal/workflow); the orchestration service needs its own copy to
// detect a task left running by a prior crash before calling Step.
func findRunningTask(g taskgraph.Graph) (taskgraph.Task, bool) {
	for _, t := range g.Tasks() {
		if t.Status == taskgraph.StatusRunning {
			return t, true
		}
	}
	return taskgraph.Task{}, false
}

// recoverRunningTask implements cancellation recovery: a task found
// running at the start of advance() (because a prior process was killed
// mid-run) is reverted to pending with its attempt counter unchanged,
// and a "cancelled" entry is appended to the ledger so the history
// records the interruption.
func recoverRunningTask(g taskgraph.Graph, l taskgraph.Ledger, running taskgraph.Task, now string) (taskgraph.Graph, taskgraph.Ledger) {
	entry := taskgraph.FailureEntry{
		TaskID:         running.ID,
		Attempt:        running.Attempt,
		Kind:           running.Kind,
		VerdictSummary: "cancelled",
		Timestamp:      now,
	}
	l, idx := l.Append(entry)
	running.Status = taskgraph.StatusPending
	running = running.WithLinkedFailureRef(idx)
	return g.With(running), l
}

func (s *Service) load() (taskgraph.Graph, taskgraph.Ledger, error) {
	tasks, err := s.store.ReadTasks()
	if err != nil {
		return taskgraph.Graph{}, taskgraph.Ledger{}, err
	}
	fails, err := s.store.ReadTaskFails()
	if err != nil {
		return taskgraph.Graph{}, taskgraph.Ledger{}, err
	}
	return taskgraph.NewGraph(tasks).CanonicalOrder(), taskgraph.NewLedger(fails), nil
}

// persist writes the tasks+fails batch and bumps the generation counter
// that scopes the prompt-projection cache, per the "[ADDED] Prompt-
// projection cache" design: a bumped generation makes every previously
// cached key unreachable without an explicit invalidation pass.
func (s *Service) persist(g taskgraph.Graph, l taskgraph.Ledger) error {
	if err := s.store.WriteTasksAndFails(g.Tasks(), l.Entries()); err != nil {
		return err
	}
	s.bumpGeneration()
	return nil
}

func (s *Service) appendRollingEntry(taskID, now, summary string) {
	entries, err := s.store.ReadRollingContext()
	if err != nil {
		log.Warn(log.CatOrch, "rolling context read failed; skipping append", "error", err.Error())
		return
	}
	next := sessionstore.AppendRollingEntry(entries, sessionstore.RollingEntry{TaskID: taskID, Timestamp: now, Summary: summary})
	if err := s.store.WriteRollingContext(next); err != nil {
		log.Warn(log.CatOrch, "rolling context write failed", "error", err.Error())
	}
}
