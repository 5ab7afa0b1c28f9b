// Package paths resolves the configuration and cache directory locations
// and converts measured file paths to their display form.
// Implements: prd004-cli-surface R2 (directories), R4 (path display).
package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "TALLY_CONFIG_DIR"
	EnvCacheDir  = "TALLY_CACHE_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	userCacheDir  func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	userCacheDir:  os.UserCacheDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/tally (fallback ~/.config/tally)
// macOS:   ~/Library/Application Support/tally
// Windows: %APPDATA%/tally
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "tally"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "tally"), nil
	default:
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "tally"), nil
	}
}

// DefaultCacheDir returns the platform-specific default cache directory.
//
// Linux:   $XDG_CACHE_HOME/tally (fallback ~/.cache/tally)
// macOS:   ~/Library/Caches/tally
// Windows: %LocalAppData%/tally
func DefaultCacheDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
			return filepath.Join(xdg, "tally"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".cache", "tally"), nil
	default:
		dir, err := platformDir.userCacheDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "tally"), nil
	}
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > TALLY_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveCacheDir returns the cache directory following the precedence
// chain: flag > config file value > TALLY_CACHE_DIR env > DefaultCacheDir().
func ResolveCacheDir(flag, configValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	if env := os.Getenv(EnvCacheDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultCacheDir()
}

// Display converts an absolute measured path to its output form.
//
// canonical resolves symlinks, abs keeps the absolute path, trimRoot strips
// a prefix, and the default is relative to the current directory when the
// path lies under it.
func Display(path string, abs, canonical bool, trimRoot string) string {
	if canonical {
		if resolved, err := filepath.EvalSymlinks(path); err == nil {
			return resolved
		}
		return path
	}
	if abs {
		return path
	}
	if trimRoot != "" {
		trimmed := strings.TrimPrefix(path, strings.TrimSuffix(trimRoot, string(filepath.Separator)))
		trimmed = strings.TrimPrefix(trimmed, string(filepath.Separator))
		if trimmed == "" {
			return "."
		}
		return trimmed
	}
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(cwd, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
