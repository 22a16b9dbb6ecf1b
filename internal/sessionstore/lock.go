package sessionstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/dioko-ai/bob/internal/log"
)

const lockFileName = ".lock"

// acquireLock creates the directory-level advisory lock for an open
// session, writing the current process's PID. If a stale lock (owned by
// a process that no longer exists) is found, it is reclaimed. A lock
// owned by a live process returns ErrConflict.
func acquireLock(dir string) (func(), error) {
	path := filepath.Join(dir, lockFileName)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if !os.IsExist(err) {
			return nil, err
		}
		if staleErr := reclaimIfStale(path); staleErr != nil {
			return nil, ErrConflict
		}
		f, err = os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err != nil {
			return nil, ErrConflict
		}
	}

	if _, err := f.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, err
	}

	return func() {
		_ = os.Remove(path)
	}, nil
}

// reclaimIfStale removes the lock file at path if it names a PID that is
// no longer a live process, returning nil on success. Returns an error if
// the owner is live or the PID cannot be determined, meaning the caller
// must treat the session as held by another process.
func reclaimIfStale(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return fmt.Errorf("malformed lock file")
	}
	if pid == os.Getpid() {
		return os.Remove(path)
	}
	if processAlive(pid) {
		return fmt.Errorf("lock held by live process %d", pid)
	}
	log.Warn(log.CatStore, "reclaiming stale session lock", "path", path, "pid", pid)
	return os.Remove(path)
}

// processAlive reports whether pid names a running process on this host.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil
}
