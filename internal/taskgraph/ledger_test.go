package taskgraph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLedger_AppendIsImmutable(t *testing.T) {
	var l Ledger
	require.Equal(t, 0, l.Len())

	next, idx := l.Append(FailureEntry{TaskID: "t1", Attempt: 1})
	require.Equal(t, 0, idx)
	require.Equal(t, 0, l.Len(), "original ledger must not be mutated")
	require.Equal(t, 1, next.Len())

	next2, idx2 := next.Append(FailureEntry{TaskID: "t1", Attempt: 2})
	require.Equal(t, 1, idx2)
	require.Equal(t, 1, next.Len(), "intermediate ledger must not be mutated")
	require.Equal(t, 2, next2.Len())
}

func TestLedger_EntriesForTask(t *testing.T) {
	l, _ := Ledger{}.Append(FailureEntry{TaskID: "t1", Attempt: 1})
	l, _ = l.Append(FailureEntry{TaskID: "t2", Attempt: 1})
	l, _ = l.Append(FailureEntry{TaskID: "t1", Attempt: 2})

	got := l.EntriesForTask("t1")
	require.Len(t, got, 2)
	require.Equal(t, 1, got[0].Attempt)
	require.Equal(t, 2, got[1].Attempt)
}

func TestLedger_LastNForTask(t *testing.T) {
	var l Ledger
	for i := 1; i <= 5; i++ {
		l, _ = l.Append(FailureEntry{TaskID: "t1", Attempt: i})
	}

	last := l.LastNForTask("t1", 3)
	require.Len(t, last, 3)
	require.Equal(t, []int{3, 4, 5}, []int{last[0].Attempt, last[1].Attempt, last[2].Attempt})

	all := l.LastNForTask("t1", 10)
	require.Len(t, all, 5)
}

func TestLedger_HasPrefix(t *testing.T) {
	var l Ledger
	l, _ = l.Append(FailureEntry{TaskID: "t1", Attempt: 1})
	snapshot := l
	l, _ = l.Append(FailureEntry{TaskID: "t1", Attempt: 2})

	require.True(t, l.HasPrefix(snapshot))
	require.False(t, snapshot.HasPrefix(l))
}

func TestNewLedger_CopiesInput(t *testing.T) {
	entries := []FailureEntry{{TaskID: "t1", Attempt: 1}}
	l := NewLedger(entries)
	entries[0].Attempt = 99

	require.Equal(t, 1, l.Entries()[0].Attempt, "Ledger must not alias caller's slice")
}
