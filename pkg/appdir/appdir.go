// Package appdir locates the per-user dynstr directory (~/.dynstr).
package appdir

import (
	"os"
	"path/filepath"
)

// EnvOverride names the environment variable that replaces the default location.
const EnvOverride = "DYNSTR_HOME"

var appDirCache string

// AppDir returns the application directory without creating it.
func AppDir() (string, error) {
	if dir := os.Getenv(EnvOverride); dir != "" {
		return dir, nil
	}
	if appDirCache != "" {
		return appDirCache, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	appDirCache = filepath.Join(home, ".dynstr")
	return appDirCache, nil
}

// Ensure returns the application directory, creating it if needed.
func Ensure() (string, error) {
	dir, err := AppDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// Path joins name onto the application directory.
func Path(name string) (string, error) {
	dir, err := AppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}
