package workflow

import (
	"fmt"
	"testing"

	"github.com/dioko-ai/bob/internal/taskgraph"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func mustValidate(t *testing.T, tasks []taskgraph.Task) taskgraph.Graph {
	t.Helper()
	g, err := taskgraph.Validate(tasks)
	require.NoError(t, err)
	return g
}

// TestScenario1_SingleTaskSuccess covers end-to-end scenario 1.
func TestScenario1_SingleTaskSuccess(t *testing.T) {
	g := mustValidate(t, []taskgraph.Task{{ID: "T1", Kind: taskgraph.KindImplementation}})
	var l taskgraph.Ledger

	g, l, action := Step(g, l, nil, "t0")
	require.Equal(t, ActionRunTask, action.Kind)
	require.Equal(t, "T1", action.TaskID)

	pass := Pass()
	g, l, action = Step(g, l, &pass, "t1")
	require.Equal(t, ActionDone, action.Kind)
	require.Equal(t, "passed", action.Overall)
	require.Equal(t, 0, l.Len())

	t1, _ := g.Get("T1")
	require.Equal(t, taskgraph.StatusPassed, t1.Status)
}

// TestScenario2_AuditRetryThenPass covers end-to-end scenario 2.
func TestScenario2_AuditRetryThenPass(t *testing.T) {
	g := mustValidate(t, []taskgraph.Task{
		{ID: "T1", Kind: taskgraph.KindImplementation},
		{ID: "T2", ParentID: "T1", Kind: taskgraph.KindAudit},
	})
	var l taskgraph.Ledger

	g, l, action := Step(g, l, nil, "t0")
	require.Equal(t, "T1", action.TaskID)
	pass := Pass()
	g, l, action = Step(g, l, &pass, "t1")
	require.Equal(t, "T2", action.TaskID)

	fail := Fail("missing docstrings", "")
	g, l, action = Step(g, l, &fail, "t2")
	require.Equal(t, ActionRunTask, action.Kind)
	require.Equal(t, "T2", action.TaskID)

	pass2 := Pass()
	g, l, action = Step(g, l, &pass2, "t3")
	require.Equal(t, ActionDone, action.Kind)
	require.Equal(t, "passed", action.Overall)

	t1, _ := g.Get("T1")
	t2, _ := g.Get("T2")
	require.Equal(t, taskgraph.StatusPassed, t1.Status)
	require.Equal(t, taskgraph.StatusPassed, t2.Status)
	require.Equal(t, 2, t2.Attempt)
	require.Equal(t, 1, l.Len())
	require.Equal(t, 1, l.Entries()[0].Attempt)
}

// TestScenario3_AuditExhaustsRetries covers end-to-end scenario 3.
func TestScenario3_AuditExhaustsRetries(t *testing.T) {
	g := mustValidate(t, []taskgraph.Task{
		{ID: "T1", Kind: taskgraph.KindImplementation},
		{ID: "T2", ParentID: "T1", Kind: taskgraph.KindAudit},
	})
	var l taskgraph.Ledger

	var action Action
	g, l, action = Step(g, l, nil, "t0")
	pass := Pass()
	g, l, action = Step(g, l, &pass, "t1")
	require.Equal(t, "T2", action.TaskID)

	for i := 0; i < 4; i++ {
		fail := Fail(fmt.Sprintf("fail #%d", i+1), "")
		g, l, action = Step(g, l, &fail, fmt.Sprintf("t%d", 2+i))
	}

	require.Equal(t, ActionDone, action.Kind)
	require.Equal(t, "failed", action.Overall)

	t1, _ := g.Get("T1")
	t2, _ := g.Get("T2")
	require.Equal(t, taskgraph.StatusFailed, t1.Status, "propagation marks owning implementation failed")
	require.Equal(t, taskgraph.StatusFailed, t2.Status)
	require.Equal(t, 4, t2.Attempt)
	require.Equal(t, 4, l.Len())
	for _, e := range l.Entries() {
		require.Equal(t, "T2", e.TaskID)
	}
}

// TestFailurePropagation_SkipsSiblings exercises the case where an
// implementation fails outright (max_attempts=1) and its children are
// skipped with a skipped_due_to annotation.
func TestFailurePropagation_SkipsSiblings(t *testing.T) {
	g := mustValidate(t, []taskgraph.Task{
		{ID: "T1", Kind: taskgraph.KindImplementation},
		{ID: "T2", ParentID: "T1", Kind: taskgraph.KindAudit},
		{ID: "T3", ParentID: "T1", Kind: taskgraph.KindTestWrite, Concern: "c1"},
		{ID: "T4", ParentID: "T1", Kind: taskgraph.KindTestRun, Concern: "c1"},
	})
	var l taskgraph.Ledger

	g, l, action := Step(g, l, nil, "t0")
	require.Equal(t, "T1", action.TaskID)

	fail := Fail("compile error", "")
	g, l, action = Step(g, l, &fail, "t1")

	t1, _ := g.Get("T1")
	t2, _ := g.Get("T2")
	t3, _ := g.Get("T3")
	t4, _ := g.Get("T4")
	require.Equal(t, taskgraph.StatusFailed, t1.Status)
	require.Equal(t, taskgraph.StatusSkipped, t2.Status)
	require.Equal(t, taskgraph.StatusSkipped, t3.Status)
	require.Equal(t, taskgraph.StatusSkipped, t4.Status)

	require.Equal(t, ActionDone, action.Kind)
	require.Equal(t, "failed", action.Overall)

	var sawSkippedEntries int
	for _, e := range l.Entries() {
		if e.SkippedDueTo == "T1" {
			sawSkippedEntries++
		}
	}
	require.Equal(t, 3, sawSkippedEntries)
}

func TestStep_BlockedWhenVerdictMissingForRunningTask(t *testing.T) {
	g := mustValidate(t, []taskgraph.Task{{ID: "T1", Kind: taskgraph.KindImplementation}})
	var l taskgraph.Ledger

	g, l, _ = Step(g, l, nil, "t0")
	_, _, action := Step(g, l, nil, "t1")
	require.Equal(t, ActionBlocked, action.Kind)
}

func TestStep_BlockedWhenVerdictUnexpected(t *testing.T) {
	g := mustValidate(t, []taskgraph.Task{{ID: "T1", Kind: taskgraph.KindImplementation}})
	var l taskgraph.Ledger

	pass := Pass()
	_, _, action := Step(g, l, &pass, "t0")
	require.Equal(t, ActionBlocked, action.Kind)
}

// TestOrdering_PicksEarliestCanonicalTask verifies the engine runs two
// independent root implementations one after another in canonical order,
// never interleaving their subtrees.
func TestOrdering_PicksEarliestCanonicalTask(t *testing.T) {
	g := mustValidate(t, []taskgraph.Task{
		{ID: "A", Kind: taskgraph.KindImplementation},
		{ID: "A-audit", ParentID: "A", Kind: taskgraph.KindAudit},
		{ID: "B", Kind: taskgraph.KindImplementation},
	})
	var l taskgraph.Ledger

	var seen []string
	g, l, action := Step(g, l, nil, "t0")
	for i := 0; i < 10 && action.Kind == ActionRunTask; i++ {
		seen = append(seen, action.TaskID)
		pass := Pass()
		g, l, action = Step(g, l, &pass, fmt.Sprintf("t%d", i))
	}
	require.Equal(t, []string{"A", "A-audit", "B"}, seen)
}

// TestProperty_RetryBound exercises the "retry bound" testable property:
// for every task, total Fail observations never exceed max_attempts.
func TestProperty_RetryBound(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		g := mustValidateRapid(rt, []taskgraph.Task{
			{ID: "T1", Kind: taskgraph.KindImplementation},
			{ID: "T2", ParentID: "T1", Kind: taskgraph.KindAudit},
		})
		var l taskgraph.Ledger

		failCounts := make(map[string]int)
		g, l, action := Step(g, l, nil, "now")
		for step := 0; step < 50 && action.Kind == ActionRunTask; step++ {
			willFail := rapid.Bool().Draw(rt, "willFail")
			var v Verdict
			if willFail {
				v = Fail("synthetic", "")
				failCounts[action.TaskID]++
			} else {
				v = Pass()
			}
			g, l, action = Step(g, l, &v, "now")
		}

		for id, n := range failCounts {
			task, ok := g.Get(id)
			require.True(rt, ok)
			require.LessOrEqual(rt, n, task.MaxAttempts)
		}
	})
}

// TestProperty_Determinism exercises the "determinism" testable property:
// given an identical graph, ledger, and verdict stream, Step produces an
// identical sequence of actions.
func TestProperty_Determinism(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		initial := mustValidateRapid(rt, []taskgraph.Task{
			{ID: "T1", Kind: taskgraph.KindImplementation},
			{ID: "T2", ParentID: "T1", Kind: taskgraph.KindAudit},
		})

		verdicts := rapid.SliceOfN(rapid.Bool(), 0, 10).Draw(rt, "verdicts")

		run := func() []ActionKind {
			g, l := initial, taskgraph.Ledger{}
			var kinds []ActionKind
			vi := 0
			g, l, action := Step(g, l, nil, "now")
			kinds = append(kinds, action.Kind)
			for step := 0; step < 30 && action.Kind == ActionRunTask; step++ {
				var v Verdict
				if vi < len(verdicts) && verdicts[vi] {
					v = Fail("synthetic", "")
				} else {
					v = Pass()
				}
				vi++
				g, l, action = Step(g, l, &v, "now")
				kinds = append(kinds, action.Kind)
			}
			return kinds
		}

		require.Equal(rt, run(), run())
	})
}

func mustValidateRapid(rt *rapid.T, tasks []taskgraph.Task) taskgraph.Graph {
	g, err := taskgraph.Validate(tasks)
	require.NoError(rt, err)
	return g
}
