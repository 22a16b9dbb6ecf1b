package sessionstore

import (
	"github.com/dioko-ai/bob/internal/log"
	"github.com/dioko-ai/bob/internal/taskgraph"
)

// SessionMeta is the persisted form of session_meta.json: the Session
// attributes plus the selected backend.
type SessionMeta struct {
	SessionID   string `json:"session_id"`
	Title       string `json:"title"`
	CreatedAt   string `json:"created_at"`
	Cwd         string `json:"cwd"`
	TestCommand string `json:"test_command,omitempty"`
	Backend     string `json:"backend"`
}

// Summary is one entry returned by List, enough to render a session
// picker without opening every session's full artifact set.
type Summary struct {
	SessionID string
	Title     string
	CreatedAt string
	Cwd       string
	Legacy    bool // true if resolved from the legacy .metaagent root
}

// RollingEntry is one record in rolling_context.json.
type RollingEntry struct {
	TaskID    string `json:"task_id"`
	Timestamp string `json:"timestamp"`
	Summary   string `json:"summary"`
}

// rollingContextCap is the eviction cap for rolling_context.json; entries
// evict oldest-first once the cap is exceeded. It is a fixed constant and
// cannot be changed through configuration.
const rollingContextCap = 64

// AppendRollingEntry returns entries with e appended, evicting the
// oldest entries first if the result would exceed rollingContextCap. An
// eviction is logged as a warning and is never an error.
func AppendRollingEntry(entries []RollingEntry, e RollingEntry) []RollingEntry {
	next := make([]RollingEntry, len(entries), len(entries)+1)
	copy(next, entries)
	next = append(next, e)
	if len(next) > rollingContextCap {
		log.Warn(log.CatStore, "rolling context over cap; evicting oldest entries", "cap", rollingContextCap, "evicted", len(next)-rollingContextCap)
		next = next[len(next)-rollingContextCap:]
	}
	return next
}

// taskRecord and failureEntry alias the task graph package's wire types,
// since tasks.json/task-fails.json use the same JSON shape the engine
// operates on in memory.
type taskRecord = taskgraph.Task
type failureEntry = taskgraph.FailureEntry
