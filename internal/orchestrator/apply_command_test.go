package orchestrator

import (
	"testing"

	"github.com/dioko-ai/bob/internal/taskgraph"
	"github.com/stretchr/testify/require"
)

func TestApplyCommand_SplitAuditsByImplementationConcern(t *testing.T) {
	store := newTestSession(t)
	tasks := []taskgraph.Task{
		pendingTask("impl", "", taskgraph.KindImplementation, "build it"),
		withConcern(pendingTask("impl:auth", "impl", taskgraph.KindImplementation, "auth part"), "auth"),
		withConcern(pendingTask("impl:billing", "impl", taskgraph.KindImplementation, "billing part"), "billing"),
		pendingTask("audit", "impl", taskgraph.KindAudit, "audit it"),
	}
	require.NoError(t, store.WriteTasks(tasks))

	svc := NewService(store, NewScriptedRunner(), nil)
	g, err := svc.ApplyCommand(CommandSplitAudits, "impl", "", "")
	require.NoError(t, err)

	children := g.Children("impl")
	var audits []taskgraph.Task
	for _, c := range children {
		if c.Kind == taskgraph.KindAudit {
			audits = append(audits, c)
		}
	}
	require.Len(t, audits, 2)

	persisted, err := store.ReadTasks()
	require.NoError(t, err)
	require.Len(t, taskgraph.NewGraph(persisted).Children("impl"), len(children))
}

func TestApplyCommand_MergeAuditsBack(t *testing.T) {
	store := newTestSession(t)
	tasks := []taskgraph.Task{
		pendingTask("impl", "", taskgraph.KindImplementation, "build it"),
		withConcern(pendingTask("impl:auth", "impl", taskgraph.KindImplementation, "auth part"), "auth"),
		withConcern(pendingTask("impl:billing", "impl", taskgraph.KindImplementation, "billing part"), "billing"),
		withConcern(pendingTask("audit:auth", "impl", taskgraph.KindAudit, "audit auth"), "auth"),
		withConcern(pendingTask("audit:billing", "impl", taskgraph.KindAudit, "audit billing"), "billing"),
	}
	require.NoError(t, store.WriteTasks(tasks))

	svc := NewService(store, NewScriptedRunner(), nil)
	g, err := svc.ApplyCommand(CommandMergeAudits, "impl", "", "")
	require.NoError(t, err)

	var audits []taskgraph.Task
	for _, c := range g.Children("impl") {
		if c.Kind == taskgraph.KindAudit {
			audits = append(audits, c)
		}
	}
	require.Len(t, audits, 1)
	require.Empty(t, audits[0].Concern)
}

func TestApplyCommand_AddThenRemoveFinalAudit(t *testing.T) {
	store := newTestSession(t)
	require.NoError(t, store.WriteTasks([]taskgraph.Task{pendingTask("impl", "", taskgraph.KindImplementation, "build it")}))

	svc := NewService(store, NewScriptedRunner(), nil)

	g, err := svc.ApplyCommand(CommandAddFinalAudit, "impl", "impl:final", "final review")
	require.NoError(t, err)
	_, ok := g.Get("impl:final")
	require.True(t, ok)

	g, err = svc.ApplyCommand(CommandRemoveFinalAudit, "impl", "", "")
	require.NoError(t, err)
	_, ok = g.Get("impl:final")
	require.False(t, ok)
}

func TestApplyCommand_UnknownCommandRejected(t *testing.T) {
	store := newTestSession(t)
	require.NoError(t, store.WriteTasks([]taskgraph.Task{pendingTask("impl", "", taskgraph.KindImplementation, "build it")}))
	svc := NewService(store, NewScriptedRunner(), nil)

	_, err := svc.ApplyCommand("/not-a-real-command", "impl", "", "")
	require.Error(t, err)
	var target *ErrUnknownCommand
	require.ErrorAs(t, err, &target)
}

func TestApplyCommand_NoOpWhenPreconditionUnmet(t *testing.T) {
	store := newTestSession(t)
	require.NoError(t, store.WriteTasks([]taskgraph.Task{pendingTask("impl", "", taskgraph.KindImplementation, "build it")}))
	svc := NewService(store, NewScriptedRunner(), nil)

	g, err := svc.ApplyCommand(CommandSplitAudits, "impl", "", "")
	require.NoError(t, err)
	require.Empty(t, g.Children("impl"))
}

func withConcern(t taskgraph.Task, concern string) taskgraph.Task {
	t.Concern = concern
	return t
}
