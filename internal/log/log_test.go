package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Init uses a package-level sync.Once: only the first call in a process
// wins. Exercise every behavior against that single initialization
// instead of calling Init repeatedly.
func TestLogging(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "debug.log")

	cleanup, err := Init(path)
	require.NoError(t, err)
	defer cleanup()

	Info(CatEngine, "advance started", "session_id", "s1", "task_id", "t1")
	Error(CatStore, "write failed")
	ErrorErr(CatOrch, "agent run failed", nil)

	SetMinLevel(LevelWarn)
	Debug(CatGraph, "should not appear")
	SetMinLevel(LevelDebug)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	require.Contains(t, content, "[INFO] [engine] advance started session_id=s1 task_id=t1")
	require.Contains(t, content, "[ERROR] [store] write failed")
	require.Contains(t, content, "error=<nil>")
	require.NotContains(t, content, "should not appear")
}

func TestLevel_String(t *testing.T) {
	require.Equal(t, "DEBUG", LevelDebug.String())
	require.Equal(t, "INFO", LevelInfo.String())
	require.Equal(t, "WARN", LevelWarn.String())
	require.Equal(t, "ERROR", LevelError.String())
	require.Equal(t, "UNKNOWN", Level(99).String())
}
