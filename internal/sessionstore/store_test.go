package sessionstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dioko-ai/bob/internal/taskgraph"
	"github.com/stretchr/testify/require"
)

func withTempHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestInit_CreatesSessionUnderCanonicalRoot(t *testing.T) {
	home := withTempHome(t)

	h, err := Init("/repo", "My session", "go test ./...", "claude")
	require.NoError(t, err)
	defer h.Close()

	root, err := Root()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".bob", "sessions"), root)
	require.Equal(t, root, filepath.Dir(h.Dir()))

	meta, err := h.ReadSessionMeta()
	require.NoError(t, err)
	require.Equal(t, "My session", meta.Title)
	require.Equal(t, "/repo", meta.Cwd)
	require.Equal(t, "claude", meta.Backend)
	require.NotEmpty(t, meta.SessionID)

	tasks, err := h.ReadTasks()
	require.NoError(t, err)
	require.Empty(t, tasks)
}

func TestOpen_FindsCanonicalSession(t *testing.T) {
	withTempHome(t)

	created, err := Init("/repo", "t", "", "claude")
	require.NoError(t, err)
	id := created.mustID(t)
	require.NoError(t, created.Close())

	opened, err := Open(id)
	require.NoError(t, err)
	defer opened.Close()

	meta, err := opened.ReadSessionMeta()
	require.NoError(t, err)
	require.Equal(t, id, meta.SessionID)
}

func TestOpen_NotFound(t *testing.T) {
	withTempHome(t)

	_, err := Open("does-not-exist")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOpen_FallsBackToLegacyRoot(t *testing.T) {
	home := withTempHome(t)

	legacyDir := filepath.Join(home, legacyDirName, sessionsSubdir, "legacy-session-1")
	require.NoError(t, os.MkdirAll(legacyDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(legacyDir, fileSessionMeta),
		[]byte(`{"session_id":"legacy-session-1","title":"old"}`), 0644))

	h, err := Open("legacy-session-1")
	require.NoError(t, err)
	defer h.Close()

	meta, err := h.ReadSessionMeta()
	require.NoError(t, err)
	require.Equal(t, "old", meta.Title)
}

func TestList_NewestFirstAcrossBothRoots(t *testing.T) {
	home := withTempHome(t)

	canonical := filepath.Join(home, canonicalDirName, sessionsSubdir, "s-new")
	require.NoError(t, os.MkdirAll(canonical, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(canonical, fileSessionMeta),
		[]byte(`{"session_id":"s-new","title":"new","created_at":"2026-07-30T00:00:00Z"}`), 0644))

	legacy := filepath.Join(home, legacyDirName, sessionsSubdir, "s-old")
	require.NoError(t, os.MkdirAll(legacy, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(legacy, fileSessionMeta),
		[]byte(`{"session_id":"s-old","title":"old","created_at":"2020-01-01T00:00:00Z"}`), 0644))

	summaries, err := List()
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	require.Equal(t, "s-new", summaries[0].SessionID)
	require.False(t, summaries[0].Legacy)
	require.Equal(t, "s-old", summaries[1].SessionID)
	require.True(t, summaries[1].Legacy)
}

func TestWriteTasksAndFails_RoundTrip(t *testing.T) {
	withTempHome(t)
	h, err := Init("/repo", "t", "", "claude")
	require.NoError(t, err)
	defer h.Close()

	tasks := []taskgraph.Task{{ID: "t1", Kind: taskgraph.KindImplementation, Status: taskgraph.StatusPassed}}
	fails := []taskgraph.FailureEntry{{TaskID: "t1", Attempt: 1, Kind: taskgraph.KindImplementation}}

	require.NoError(t, h.WriteTasksAndFails(tasks, fails))

	gotTasks, err := h.ReadTasks()
	require.NoError(t, err)
	require.Equal(t, tasks, gotTasks)

	gotFails, err := h.ReadTaskFails()
	require.NoError(t, err)
	require.Equal(t, fails, gotFails)
}

func TestAppendTaskFails_IsAppendOnly(t *testing.T) {
	withTempHome(t)
	h, err := Init("/repo", "t", "", "claude")
	require.NoError(t, err)
	defer h.Close()

	require.NoError(t, h.AppendTaskFails([]taskgraph.FailureEntry{{TaskID: "t1", Attempt: 1}}))
	require.NoError(t, h.AppendTaskFails([]taskgraph.FailureEntry{{TaskID: "t1", Attempt: 2}}))

	entries, err := h.ReadTaskFails()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, 1, entries[0].Attempt)
	require.Equal(t, 2, entries[1].Attempt)
}

func TestRollingContext_DefaultsToEmptyWhenMissing(t *testing.T) {
	withTempHome(t)
	h, err := Init("/repo", "t", "", "claude")
	require.NoError(t, err)
	defer h.Close()

	entries, err := h.ReadRollingContext()
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestAppendRollingEntry_EvictsOldestPastCap(t *testing.T) {
	var entries []RollingEntry
	for i := 0; i < rollingContextCap+10; i++ {
		entries = AppendRollingEntry(entries, RollingEntry{TaskID: "t", Summary: "s"})
	}
	require.Len(t, entries, rollingContextCap)
}

func TestPlannerAndProjectInfo_RoundTrip(t *testing.T) {
	withTempHome(t)
	h, err := Init("/repo", "t", "", "claude")
	require.NoError(t, err)
	defer h.Close()

	require.NoError(t, h.WritePlanner("# Plan\n"))
	got, err := h.ReadPlanner()
	require.NoError(t, err)
	require.Equal(t, "# Plan\n", got)

	require.NoError(t, h.WriteProjectInfo("# Project\n"))
	got, err = h.ReadProjectInfo()
	require.NoError(t, err)
	require.Equal(t, "# Project\n", got)
}

func (h *Handle) mustID(t *testing.T) string {
	t.Helper()
	meta, err := h.ReadSessionMeta()
	require.NoError(t, err)
	return meta.SessionID
}
