package sessionstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_DebounceMultipleWrites(t *testing.T) {
	dir := t.TempDir()
	plannerPath := filepath.Join(dir, filePlanner)
	require.NoError(t, os.WriteFile(plannerPath, []byte("v0"), 0644))

	w, err := NewPlannerWatcher(dir)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	onChange, err := w.Start()
	require.NoError(t, err)

	for i := range 10 {
		require.NoError(t, os.WriteFile(plannerPath, []byte{byte('a' + i)}, 0644))
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case <-onChange:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected a debounced notification but got timeout")
	}

	select {
	case <-onChange:
		t.Fatal("unexpected second notification")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filePlanner), []byte("v0"), 0644))
	otherPath := filepath.Join(dir, fileTasks)
	require.NoError(t, os.WriteFile(otherPath, []byte("[]"), 0644))

	w, err := NewPlannerWatcher(dir)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	onChange, err := w.Start()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(otherPath, []byte("[{}]"), 0644))

	select {
	case <-onChange:
		t.Fatal("should not notify for tasks.json writes")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_Stop(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filePlanner), []byte("v0"), 0644))

	w, err := NewPlannerWatcher(dir)
	require.NoError(t, err)

	_, err = w.Start()
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		assert.NoError(t, w.Stop())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop() timed out")
	}
}
