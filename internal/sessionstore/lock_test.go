package sessionstore

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAcquireLock_ConflictsWhileHeldByLiveProcess(t *testing.T) {
	dir := t.TempDir()

	release, err := acquireLock(dir)
	require.NoError(t, err)
	defer release()

	_, err = acquireLock(dir)
	require.ErrorIs(t, err, ErrConflict)
}

func TestAcquireLock_ReclaimsStaleLock(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, lockFileName)
	require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(deadPID())), 0644))

	release, err := acquireLock(dir)
	require.NoError(t, err)
	defer release()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, strconv.Itoa(os.Getpid()), string(data))
}

func TestAcquireLock_ReleaseRemovesFile(t *testing.T) {
	dir := t.TempDir()

	release, err := acquireLock(dir)
	require.NoError(t, err)

	release()

	_, err = os.Stat(filepath.Join(dir, lockFileName))
	require.True(t, os.IsNotExist(err))
}

// deadPID returns a PID extremely unlikely to be alive, for exercising
// stale-lock reclamation deterministically.
func deadPID() int {
	return 1 << 30
}
