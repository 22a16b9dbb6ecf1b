package sessionstore

import (
	"os"
	"path/filepath"
)

// atomicWrite implements the Store's durability contract: serialize to a
// temp file in dir, fsync the temp file, rename over target, then fsync
// the directory. A crash at any point leaves either the prior content or
// the new content at target, never a torn write.
func atomicWrite(dir, target string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".bob.tmp.*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, target); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	return fsyncDir(dir)
}

// fsyncDir fsyncs a directory so that a rename performed within it is
// durable across a crash. An error opening or syncing the directory is
// returned to the caller.
func fsyncDir(dir string) error {
	d, err := os.Open(filepath.Clean(dir))
	if err != nil {
		return err
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		return err
	}
	return nil
}
