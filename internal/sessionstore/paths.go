package sessionstore

import (
	"os"
	"path/filepath"
)

// canonicalDirName is the directory new sessions are always written under.
const canonicalDirName = ".bob"

// legacyDirName is accepted when opening or listing sessions, for
// compatibility with sessions created by an older on-disk layout; new
// sessions never use it.
const legacyDirName = ".metaagent"

const sessionsSubdir = "sessions"

// Root returns the canonical sessions root, $HOME/.bob/sessions.
func Root() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, canonicalDirName, sessionsSubdir), nil
}

// legacyRoot returns the legacy sessions root, $HOME/.metaagent/sessions.
func legacyRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, legacyDirName, sessionsSubdir), nil
}

// resolveSessionDir locates an existing session directory by ID, checking
// the canonical root first and falling back to the legacy root. Returns
// the resolved directory and true, or ("", false) if the session exists
// in neither location.
func resolveSessionDir(sessionID string) (string, bool, error) {
	root, err := Root()
	if err != nil {
		return "", false, err
	}
	dir := filepath.Join(root, sessionID)
	if info, statErr := os.Stat(dir); statErr == nil && info.IsDir() {
		return dir, false, nil
	}

	legacy, err := legacyRoot()
	if err != nil {
		return "", false, err
	}
	dir = filepath.Join(legacy, sessionID)
	if info, statErr := os.Stat(dir); statErr == nil && info.IsDir() {
		return dir, true, nil
	}

	return "", false, nil
}

// Roots exposes the ordered list of directories session.list scans
// (canonical first, then legacy if present), for internal/sessionindex's
// directory-scan reconciliation.
func Roots() ([]string, error) {
	return roots()
}

// roots lists directories to scan for session.list: canonical first, then
// legacy if it exists.
func roots() ([]string, error) {
	var out []string
	root, err := Root()
	if err != nil {
		return nil, err
	}
	out = append(out, root)

	legacy, err := legacyRoot()
	if err != nil {
		return nil, err
	}
	if info, statErr := os.Stat(legacy); statErr == nil && info.IsDir() {
		out = append(out, legacy)
	}
	return out, nil
}
