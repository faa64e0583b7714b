// Package paths resolves the XDG-compliant on-disk location of the store.
package paths

import (
	"os"
	"path/filepath"

	"github.com/domi413/typetrace-backend/internal/apperrors"
)

const (
	appDirName = "typetrace"
	dbFileName = "TypeTrace.db"
)

// ResolveStorePath returns ${XDG_DATA_HOME}/typetrace/TypeTrace.db if
// XDG_DATA_HOME is set and non-empty, otherwise
// ${HOME}/.local/share/typetrace/TypeTrace.db. It fails with a
// apperrors.KindConfig error when neither is set. The HOME lookup mirrors
// the one lxc/main.go uses to resolve a per-user config directory, without
// its user.Current() fallback.
func ResolveStorePath() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName, dbFileName), nil
	}

	home := os.Getenv("HOME")
	if home == "" {
		return "", apperrors.New(apperrors.KindConfig, "neither XDG_DATA_HOME nor HOME is set")
	}

	return filepath.Join(home, ".local", "share", appDirName, dbFileName), nil
}

// EnsureParents creates every missing ancestor directory of path with
// owner-rwx permissions, tolerating directories that already exist.
func EnsureParents(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return apperrors.New(apperrors.KindSystem, "create data directory %q: %v", dir, err)
	}
	return nil
}
