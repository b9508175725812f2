// Package paths resolves where geostyle looks for its configuration file.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

const appDirName = "geostyle"

// EnvConfigDir overrides the configuration directory.
const EnvConfigDir = "GEOSTYLE_CONFIG_DIR"

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/geostyle (fallback ~/.config/geostyle)
// macOS:   ~/Library/Application Support/geostyle
// Windows: %APPDATA%/geostyle
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appDirName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", appDirName), nil
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDirName), nil
}

// ResolveConfigDir returns dir when set, then GEOSTYLE_CONFIG_DIR, then
// DefaultConfigDir. Explicit directories are made absolute.
func ResolveConfigDir(dir string) (string, error) {
	if dir != "" {
		return filepath.Abs(dir)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}
