// Package sessionindex maintains a SQLite-backed secondary index over
// internal/sessionstore's session directories. It is a read-through cache,
// not a second source of truth: every List reconciles against a directory
// scan of the canonical and legacy session roots, using the cached row for
// a session only when its session_meta.json has not changed mtime since
// the row was written. A missing or corrupt index file is never fatal —
// callers fall back to a full directory scan; the index is never itself a
// source of a not_found or validation_failed error.
package sessionindex

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"

	"github.com/dioko-ai/bob/internal/log"
	"github.com/dioko-ai/bob/internal/sessionstore"
	"github.com/golang-migrate/migrate/v4"
	migratesqlite3 "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const indexFileName = "index.db"

// Index is an open handle to the sqlite acceleration database.
type Index struct {
	db *sql.DB
}

// DefaultPath returns the path sessionindex stores its database at:
// alongside the canonical sessions root, one level up so it survives a
// session directory being removed.
func DefaultPath() (string, error) {
	root, err := sessionstore.Root()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(root), indexFileName), nil
}

// Open opens (creating if absent) the index database at path and applies
// any pending schema migrations.
func Open(path string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := migrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Index{db: db}, nil
}

// migrateUp applies every migration in migrations/ that has not yet run,
// tracked in the database's own schema_migrations table.
func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	driver, err := migratesqlite3.WithInstance(db, &migratesqlite3.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Close closes the underlying database connection.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// Rebuild discards every cached row and re-scans from scratch. Used when
// the index is suspected stale beyond what mtime comparison can detect
// (e.g. after restoring a session directory from a backup).
func (idx *Index) Rebuild() ([]sessionstore.Summary, error) {
	if _, err := idx.db.Exec(`DELETE FROM sessions`); err != nil {
		return nil, err
	}
	return idx.List()
}

// List reconciles the index against a scan of every session root,
// re-parsing session_meta.json only for sessions whose directory's
// session_meta.json mtime does not match the cached row, and returns the
// same Summary shape sessionstore.List does.
func (idx *Index) List() ([]sessionstore.Summary, error) {
	dirs, err := sessionstore.Roots()
	if err != nil {
		return nil, err
	}

	var out []sessionstore.Summary
	for i, root := range dirs {
		legacy := i > 0
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
			summary, ok := idx.reconcileOne(root, entry.Name(), legacy)
			if !ok {
				continue
			}
			out = append(out, summary)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

func (idx *Index) reconcileOne(root, sessionID string, legacy bool) (sessionstore.Summary, bool) {
	metaPath := filepath.Join(root, sessionID, "session_meta.json")
	info, err := os.Stat(metaPath)
	if err != nil {
		return sessionstore.Summary{}, false
	}
	mtime := info.ModTime().UnixNano()

	if cached, cachedMtime, ok := idx.lookup(sessionID); ok && cachedMtime == mtime {
		return summaryFromEntry(cached), true
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		return sessionstore.Summary{}, false
	}
	var meta sessionstore.SessionMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return sessionstore.Summary{}, false
	}

	entry := Entry{
		SessionID: meta.SessionID,
		Title:     meta.Title,
		CreatedAt: meta.CreatedAt,
		Cwd:       meta.Cwd,
		Backend:   meta.Backend,
		Legacy:    legacy,
	}
	if err := idx.upsert(sessionID, entry, mtime); err != nil {
		log.Warn(log.CatIndex, "index upsert failed", "session_id", sessionID, "error", err.Error())
	}
	return summaryFromEntry(entry), true
}

// Entry is one cached row: everything session.list needs to render a
// picker without reopening session_meta.json.
type Entry struct {
	SessionID string
	Title     string
	CreatedAt string
	Cwd       string
	Backend   string
	Legacy    bool
}

func summaryFromEntry(e Entry) sessionstore.Summary {
	return sessionstore.Summary{
		SessionID: e.SessionID,
		Title:     e.Title,
		CreatedAt: e.CreatedAt,
		Cwd:       e.Cwd,
		Legacy:    e.Legacy,
	}
}

func (idx *Index) lookup(sessionID string) (Entry, int64, bool) {
	row := idx.db.QueryRow(`
		SELECT title, created_at, cwd, backend, legacy, meta_mtime_unix
		FROM sessions WHERE session_id = ?`, sessionID)

	var e Entry
	var legacyInt int
	var mtime int64
	if err := row.Scan(&e.Title, &e.CreatedAt, &e.Cwd, &e.Backend, &legacyInt, &mtime); err != nil {
		return Entry{}, 0, false
	}
	e.SessionID = sessionID
	e.Legacy = legacyInt != 0
	return e, mtime, true
}

func (idx *Index) upsert(sessionID string, e Entry, mtime int64) error {
	_, err := idx.db.Exec(`
		INSERT INTO sessions (session_id, title, created_at, cwd, backend, legacy, meta_mtime_unix)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			title = excluded.title,
			created_at = excluded.created_at,
			cwd = excluded.cwd,
			backend = excluded.backend,
			legacy = excluded.legacy,
			meta_mtime_unix = excluded.meta_mtime_unix`,
		sessionID, e.Title, e.CreatedAt, e.Cwd, e.Backend, boolToInt(e.Legacy), mtime)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
