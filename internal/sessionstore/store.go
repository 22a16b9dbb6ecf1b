// Package sessionstore is the Session Store (component A): durable,
// crash-safe per-session artifacts on disk, with atomic replace for each
// artifact and a directory-level advisory lock. It performs no
// validation of task graph semantics; that is internal/taskgraph's job.
package sessionstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dioko-ai/bob/internal/log"
	"github.com/google/uuid"
)

const (
	fileSessionMeta     = "session_meta.json"
	fileTasks           = "tasks.json"
	filePlanner         = "planner.md"
	fileRollingContext  = "rolling_context.json"
	fileTaskFails       = "task-fails.json"
	fileProjectInfo     = "project_info.md"
)

// Handle is an open session: a directory plus its held advisory lock.
// Handles are not safe for concurrent use from multiple goroutines; a
// single process is assumed to be the sole writer per session.
type Handle struct {
	dir     string
	release func()
}

// Dir returns the session's on-disk directory.
func (h *Handle) Dir() string { return h.dir }

// Close releases the session's advisory lock. It does not delete or
// otherwise alter any artifact.
func (h *Handle) Close() error {
	if h.release != nil {
		h.release()
	}
	return nil
}

// newSessionID derives an opaque session ID from the current time plus a
// random suffix.
func newSessionID(now time.Time) string {
	return fmt.Sprintf("%s-%s", now.UTC().Format("20060102T150405"), uuid.NewString()[:8])
}

// Init creates a new session directory under the canonical root, writes
// an empty task graph and session_meta.json, and returns an open Handle.
// Fails with ErrAlreadyExist if the derived directory already exists.
func Init(cwd, title, testCommand, backend string) (*Handle, error) {
	root, err := Root()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, err
	}

	sessionID := newSessionID(time.Now())
	dir := filepath.Join(root, sessionID)
	if _, err := os.Stat(dir); err == nil {
		return nil, ErrAlreadyExist
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	meta := SessionMeta{
		SessionID:   sessionID,
		Title:       title,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		Cwd:         cwd,
		TestCommand: testCommand,
		Backend:     backend,
	}

	release, err := acquireLock(dir)
	if err != nil {
		return nil, err
	}
	h := &Handle{dir: dir, release: release}

	if err := h.WriteSessionMeta(meta); err != nil {
		_ = h.Close()
		return nil, err
	}
	if err := h.WriteTasks(nil); err != nil {
		_ = h.Close()
		return nil, err
	}

	log.Info(log.CatStore, "session initialized", "session_id", sessionID, "cwd", cwd)
	return h, nil
}

// Open validates that the session directory exists (under the canonical
// root or the legacy root) and returns an open Handle. Missing optional
// artifacts are tolerated: reading one returns its empty default, and no
// file is created until it is written.
// Fails with ErrNotFound if the directory does not exist in either root.
func Open(sessionID string) (*Handle, error) {
	dir, _, err := resolveSessionDir(sessionID)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return nil, ErrNotFound
	}

	release, err := acquireLock(dir)
	if err != nil {
		return nil, err
	}
	log.Info(log.CatStore, "session opened", "session_id", sessionID)
	return &Handle{dir: dir, release: release}, nil
}

// List enumerates session summaries from both the canonical and legacy
// roots, newest first by created_at.
func List() ([]Summary, error) {
	dirs, err := roots()
	if err != nil {
		return nil, err
	}

	var out []Summary
	for i, root := range dirs {
		legacy := i > 0 // roots()'s first entry is always canonical
		entries, err := os.ReadDir(root)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			metaPath := filepath.Join(root, entry.Name(), fileSessionMeta)
			data, err := os.ReadFile(metaPath)
			if err != nil {
				continue
			}
			var meta SessionMeta
			if err := json.Unmarshal(data, &meta); err != nil {
				continue
			}
			out = append(out, Summary{
				SessionID: meta.SessionID,
				Title:     meta.Title,
				CreatedAt: meta.CreatedAt,
				Cwd:       meta.Cwd,
				Legacy:    legacy,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt > out[j].CreatedAt
	})
	return out, nil
}

func (h *Handle) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	target := filepath.Join(h.dir, name)
	if err := atomicWrite(h.dir, target, data); err != nil {
		log.ErrorErr(log.CatStore, "artifact write failed", err, "file", name)
		return err
	}
	return nil
}

func (h *Handle) readJSON(name string, v any) error {
	path := filepath.Join(h.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// ReadSessionMeta reads session_meta.json.
func (h *Handle) ReadSessionMeta() (SessionMeta, error) {
	var meta SessionMeta
	err := h.readJSON(fileSessionMeta, &meta)
	return meta, err
}

// WriteSessionMeta atomically replaces session_meta.json.
func (h *Handle) WriteSessionMeta(meta SessionMeta) error {
	return h.writeJSON(fileSessionMeta, meta)
}

// ReadTasks reads tasks.json. A missing file is tolerated and returns an
// empty slice, matching Open's "missing optional artifacts are
// tolerated" contract.
func (h *Handle) ReadTasks() ([]taskRecord, error) {
	var tasks []taskRecord
	err := h.readJSON(fileTasks, &tasks)
	if os.IsNotExist(err) {
		return nil, nil
	}
	return tasks, err
}

// WriteTasks atomically replaces tasks.json.
func (h *Handle) WriteTasks(tasks []taskRecord) error {
	if tasks == nil {
		tasks = []taskRecord{}
	}
	return h.writeJSON(fileTasks, tasks)
}

// ReadTaskFails reads task-fails.json.
func (h *Handle) ReadTaskFails() ([]failureEntry, error) {
	var entries []failureEntry
	err := h.readJSON(fileTaskFails, &entries)
	if os.IsNotExist(err) {
		return nil, nil
	}
	return entries, err
}

// WriteTaskFails atomically replaces task-fails.json in full. Used by
// WriteTasksAndFails for the combined batch write and by AppendTaskFails.
func (h *Handle) WriteTaskFails(entries []failureEntry) error {
	if entries == nil {
		entries = []failureEntry{}
	}
	return h.writeJSON(fileTaskFails, entries)
}

// AppendTaskFails reads task-fails.json, appends entries, and rewrites it
// atomically. The append-only ledger invariant is enforced by always
// reading the current content first: entries already on disk are never
// reordered or dropped.
func (h *Handle) AppendTaskFails(entries []failureEntry) error {
	existing, err := h.ReadTaskFails()
	if err != nil {
		return err
	}
	return h.WriteTaskFails(append(existing, entries...))
}

// WriteTasksAndFails persists exactly one durable batch for a workflow
// transition: tasks.json and task-fails.json are each written via their
// own atomic rename, fails first then tasks. A crash between the two
// renames is survivable: reopening the session after a crash sees the
// pre-transition tasks.json and, at worst, the new failure entries; the
// next advance recomputes the next action from whatever tasks.json holds.
func (h *Handle) WriteTasksAndFails(tasks []taskRecord, fails []failureEntry) error {
	if err := h.WriteTaskFails(fails); err != nil {
		return err
	}
	return h.WriteTasks(tasks)
}

// ReadRollingContext reads rolling_context.json.
func (h *Handle) ReadRollingContext() ([]RollingEntry, error) {
	var entries []RollingEntry
	err := h.readJSON(fileRollingContext, &entries)
	if os.IsNotExist(err) {
		return nil, nil
	}
	return entries, err
}

// WriteRollingContext atomically replaces rolling_context.json. Rolling
// context updates are best-effort: callers should not treat a failure
// here as fatal to the triggering transition.
func (h *Handle) WriteRollingContext(entries []RollingEntry) error {
	if entries == nil {
		entries = []RollingEntry{}
	}
	return h.writeJSON(fileRollingContext, entries)
}

// ReadPlanner reads planner.md. A missing file returns an empty string.
func (h *Handle) ReadPlanner() (string, error) {
	return h.readText(filePlanner)
}

// WritePlanner atomically replaces planner.md.
func (h *Handle) WritePlanner(content string) error {
	return h.writeText(filePlanner, content)
}

// ReadProjectInfo reads project_info.md. A missing file returns an empty
// string.
func (h *Handle) ReadProjectInfo() (string, error) {
	return h.readText(fileProjectInfo)
}

// WriteProjectInfo atomically replaces project_info.md.
func (h *Handle) WriteProjectInfo(content string) error {
	return h.writeText(fileProjectInfo, content)
}

func (h *Handle) readText(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(h.dir, name))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (h *Handle) writeText(name, content string) error {
	target := filepath.Join(h.dir, name)
	return atomicWrite(h.dir, target, []byte(content))
}
