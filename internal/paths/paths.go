// Package paths resolves the configuration and snapshot data directories.
// Each resolves by precedence: flag, then config value (data dir only), then
// environment variable, then the platform default.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user directories.
const AppName = "caseload"

// Environment variable overrides.
const (
	EnvConfigDir = "CASELOAD_CONFIG_DIR"
	EnvDataDir   = "CASELOAD_DATA_DIR"
)

// Files inside the resolved directories.
const (
	ConfigFileName = "config.yaml"
	EnvFileName    = ".env"
)

// platformDir holds platform lookups, replaced in tests.
var platformDir = struct {
	goos          string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	userCacheDir  func() (string, error)
}{
	goos:          runtime.GOOS,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	userCacheDir:  os.UserCacheDir,
}

// DefaultConfigDir returns the per-user configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/caseload (fallback ~/.config/caseload)
// macOS:   ~/Library/Application Support/caseload
// Windows: %APPDATA%/caseload
func DefaultConfigDir() (string, error) {
	if platformDir.goos == "linux" {
		return xdgDir("XDG_CONFIG_HOME", ".config")
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// DefaultDataDir returns the per-user directory for snapshots. Snapshots
// are a cache of API data, so non-Linux platforms use the cache directory.
//
// Linux:   $XDG_DATA_HOME/caseload (fallback ~/.local/share/caseload)
// macOS:   ~/Library/Caches/caseload
// Windows: %LOCALAPPDATA%/caseload
func DefaultDataDir() (string, error) {
	if platformDir.goos == "linux" {
		return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
	}
	dir, err := platformDir.userCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

func xdgDir(env, fallback string) (string, error) {
	if xdg := os.Getenv(env); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, AppName), nil
}

// ResolveConfigDir returns flag, else $CASELOAD_CONFIG_DIR, else
// DefaultConfigDir. Explicit values are made absolute.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns flag, else the data_dir config value, else
// $CASELOAD_DATA_DIR, else DefaultDataDir. Explicit values are made absolute.
func ResolveDataDir(flag, configValue string) (string, error) {
	for _, v := range []string{flag, configValue, os.Getenv(EnvDataDir)} {
		if v != "" {
			return filepath.Abs(v)
		}
	}
	return DefaultDataDir()
}
