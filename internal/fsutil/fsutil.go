// Package fsutil provides the small filesystem and formatting helpers shared
// by the cache and the command-line tools.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Environment variable honoured for cache placement.
const envCacheDir = "CACHE_DIR"

// Path constants.
const (
	appName               = "speech-service"
	dotCache              = ".cache"
	tmpDir                = "/tmp"
	defaultDirPermissions = 0o750
)

// Size formatting units.
const (
	kilobyte = 1024
	megabyte = kilobyte * 1024
	gigabyte = megabyte * 1024
)

// Time formatting boundaries.
const (
	secondsInMinute = 60
	secondsInHour   = 3600
)

// EnsureDir creates the directory (and parents) if it does not exist.
func EnsureDir(path string) error {
	_, statErr := os.Stat(path)
	if os.IsNotExist(statErr) {
		mkdirErr := os.MkdirAll(path, defaultDirPermissions)
		if mkdirErr != nil {
			return fmt.Errorf("failed to create directory %s: %w", path, mkdirErr)
		}
	}

	return nil
}

// DefaultCacheDir resolves where cached audio lives: CACHE_DIR when set,
// otherwise ~/.cache/speech-service, with /tmp as the last resort.
func DefaultCacheDir() string {
	if cacheDir := os.Getenv(envCacheDir); cacheDir != "" {
		return cacheDir
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(tmpDir, appName)
	}

	return filepath.Join(homeDir, dotCache, appName)
}

// SanitizeFilename replaces characters that are invalid in common
// filesystems with underscores.
func SanitizeFilename(filename string) string {
	replacer := strings.NewReplacer(
		"<", "_",
		">", "_",
		":", "_",
		"\"", "_",
		"/", "_",
		"\\", "_",
		"|", "_",
		"?", "_",
		"*", "_",
	)

	return replacer.Replace(filename)
}

// FormatDuration renders seconds as "45.2s", "5m 30.5s", or "1h 15m".
func FormatDuration(seconds float64) string {
	if seconds < secondsInMinute {
		return fmt.Sprintf("%.1fs", seconds)
	}

	if seconds < secondsInHour {
		minutes := int(seconds / secondsInMinute)
		remaining := seconds - float64(minutes*secondsInMinute)

		return fmt.Sprintf("%dm %.1fs", minutes, remaining)
	}

	hours := int(seconds / secondsInHour)
	remaining := int(seconds-float64(hours*secondsInHour)) / secondsInMinute

	return fmt.Sprintf("%dh %dm", hours, remaining)
}

// FormatFileSize renders a byte count with a binary unit suffix.
func FormatFileSize(bytes int64) string {
	switch {
	case bytes >= gigabyte:
		return fmt.Sprintf("%.1f GB", float64(bytes)/gigabyte)
	case bytes >= megabyte:
		return fmt.Sprintf("%.1f MB", float64(bytes)/megabyte)
	case bytes >= kilobyte:
		return fmt.Sprintf("%.1f KB", float64(bytes)/kilobyte)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
