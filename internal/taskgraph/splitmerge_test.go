package taskgraph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func baseGraph() Graph {
	return NewGraph([]Task{
		{ID: "root", Kind: KindImplementation},
		{ID: "impl-a", ParentID: "root", Kind: KindImplementation, Concern: "a"},
		{ID: "impl-b", ParentID: "root", Kind: KindImplementation, Concern: "b"},
		{ID: "audit1", ParentID: "root", Kind: KindAudit},
	}).CanonicalOrder()
}

func TestSplitAudits(t *testing.T) {
	g := SplitAudits(baseGraph(), "root")

	_, ok := g.Get("audit1")
	require.False(t, ok, "original audit should be removed")

	a, ok := g.Get("audit1:a")
	require.True(t, ok)
	require.Equal(t, "a", a.Concern)

	b, ok := g.Get("audit1:b")
	require.True(t, ok)
	require.Equal(t, "b", b.Concern)

	_, err := Validate(g.Tasks())
	require.NoError(t, err)
}

// TestSplitAudits_BucketsConcernsByCaseAndWhitespace covers the
// "[ADDED] Concern tag normalization" rule through /split-audits: two
// implementation siblings whose concerns differ only by case/whitespace
// must collapse into a single audit, not two.
func TestSplitAudits_BucketsConcernsByCaseAndWhitespace(t *testing.T) {
	g := NewGraph([]Task{
		{ID: "root", Kind: KindImplementation},
		{ID: "impl-a", ParentID: "root", Kind: KindImplementation, Concern: "Docs"},
		{ID: "impl-b", ParentID: "root", Kind: KindImplementation, Concern: "docs "},
		{ID: "audit1", ParentID: "root", Kind: KindAudit},
	}).CanonicalOrder()

	out := SplitAudits(g, "root")

	_, ok := out.Get("audit1")
	require.False(t, ok, "original audit should be removed")

	a, ok := out.Get("audit1:docs")
	require.True(t, ok, "expected a single docs-bucket audit, not one per raw spelling")
	require.Equal(t, "docs", a.Concern)

	require.Len(t, out.Children("root"), 3, "impl-a, impl-b, and exactly one split audit")

	_, err := Validate(out.Tasks())
	require.NoError(t, err)
}

func TestSplitAudits_NoOpWhenNotExactlyOneAudit(t *testing.T) {
	g := NewGraph([]Task{
		{ID: "impl", ParentID: "root", Kind: KindImplementation},
	})
	out := SplitAudits(g, "root")
	require.Equal(t, g.Tasks(), out.Tasks())
}

func TestMergeAudits_InverseOfSplit(t *testing.T) {
	split := SplitAudits(baseGraph(), "root")
	merged := MergeAudits(split, "root")

	var audits []Task
	for _, c := range merged.Children("root") {
		if c.Kind == KindAudit {
			audits = append(audits, c)
		}
	}
	require.Len(t, audits, 1)
	require.Equal(t, "", audits[0].Concern)

	_, err := Validate(merged.Tasks())
	require.NoError(t, err)
}

func TestSplitAndMergeTests(t *testing.T) {
	g := NewGraph([]Task{
		{ID: "root", Kind: KindImplementation},
		{ID: "impl-a", ParentID: "root", Kind: KindImplementation, Concern: "a"},
		{ID: "impl-b", ParentID: "root", Kind: KindImplementation, Concern: "b"},
		{ID: "write1", ParentID: "root", Kind: KindTestWrite},
		{ID: "run1", ParentID: "root", Kind: KindTestRun},
	}).CanonicalOrder()

	split := SplitTests(g, "root")
	_, err := Validate(split.Tasks())
	require.NoError(t, err)

	_, ok := split.Get("write1:a")
	require.True(t, ok)
	_, ok = split.Get("run1:a")
	require.True(t, ok)

	merged := MergeTests(split, "root")
	var writes, runs int
	for _, c := range merged.Children("root") {
		switch c.Kind {
		case KindTestWrite:
			writes++
		case KindTestRun:
			runs++
		}
	}
	require.Equal(t, 1, writes)
	require.Equal(t, 1, runs)

	_, err = Validate(merged.Tasks())
	require.NoError(t, err)
}

func TestAddAndRemoveFinalAudit(t *testing.T) {
	g := NewGraph([]Task{
		{ID: "root", Kind: KindImplementation},
		{ID: "impl", ParentID: "root", Kind: KindImplementation},
	})

	withFinal := AddFinalAudit(g, "root", "final1", "Final review")
	final, ok := withFinal.Get("final1")
	require.True(t, ok)
	require.Equal(t, KindFinalAudit, final.Kind)

	children := withFinal.Children("root")
	require.Equal(t, "final1", children[len(children)-1].ID, "final_audit must be last among siblings")

	again := AddFinalAudit(withFinal, "root", "final2", "Second review")
	_, ok = again.Get("final2")
	require.False(t, ok, "adding a second final_audit must be a no-op")

	removed := RemoveFinalAudit(withFinal, "root")
	_, ok = removed.Get("final1")
	require.False(t, ok)
}
