package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/dioko-ai/bob/internal/taskgraph"
	"github.com/dioko-ai/bob/internal/workflow"
	"github.com/stretchr/testify/require"
)

func TestScriptedRunner_ReturnsQueuedVerdictsInOrder(t *testing.T) {
	r := NewScriptedRunner(workflow.Pass(), workflow.Fail("bad", "details"))

	v1, err := r.Run(context.Background(), taskgraph.KindImplementation, "p1", "/session", nil)
	require.NoError(t, err)
	require.Equal(t, workflow.VerdictPass, v1.Kind)

	v2, err := r.Run(context.Background(), taskgraph.KindAudit, "p2", "/session", nil)
	require.NoError(t, err)
	require.Equal(t, workflow.VerdictFail, v2.Kind)
	require.Equal(t, "bad", v2.Summary)

	calls := r.Calls()
	require.Len(t, calls, 2)
	require.Equal(t, taskgraph.KindImplementation, calls[0].Role)
	require.Equal(t, "p1", calls[0].Prompt)
	require.Equal(t, "/session", calls[0].SessionHandle)
	require.Equal(t, taskgraph.KindAudit, calls[1].Role)
}

func TestScriptedRunner_QueueError(t *testing.T) {
	r := NewScriptedRunner()
	boom := errors.New("spawn failed")
	r.QueueError(boom)

	_, err := r.Run(context.Background(), taskgraph.KindImplementation, "p", "/s", nil)
	require.ErrorIs(t, err, boom)
}

func TestScriptedRunner_ExhaustedScriptErrors(t *testing.T) {
	r := NewScriptedRunner(workflow.Pass())

	_, err := r.Run(context.Background(), taskgraph.KindImplementation, "p", "/s", nil)
	require.NoError(t, err)

	_, err = r.Run(context.Background(), taskgraph.KindImplementation, "p", "/s", nil)
	require.Error(t, err)
}

func TestScriptedRunner_RespectsCancelChannel(t *testing.T) {
	r := NewScriptedRunner(workflow.Pass())
	cancel := make(chan struct{})
	close(cancel)

	_, err := r.Run(context.Background(), taskgraph.KindImplementation, "p", "/s", cancel)
	require.ErrorIs(t, err, ErrCancelled)
	require.Empty(t, r.Calls())
}

func TestScriptedRunner_RespectsContextCancellation(t *testing.T) {
	r := NewScriptedRunner(workflow.Pass())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, taskgraph.KindImplementation, "p", "/s", nil)
	require.ErrorIs(t, err, context.Canceled)
}
