// Package cache implements the filesystem-backed audio cache. Entries are
// WAV files named by a fingerprint of the request-defining inputs; the file
// modification time is the expiry clock.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cardvoice/speech-service/internal/core"
	"github.com/cardvoice/speech-service/internal/fsutil"
)

// File layout constants.
const (
	entryExtension  = ".wav"
	filePermissions = 0o600

	hoursPerDay = 24
)

// Static errors.
var (
	ErrDirEmpty          = errors.New("cache directory cannot be empty")
	ErrRetentionTooShort = errors.New("retention must be at least one day")
)

// DiskCache satisfies core.AudioCache with one file per fingerprint.
// There is no index: the directory listing is the index, and a concurrent
// Put for the same fingerprint resolves as last write wins.
type DiskCache struct {
	dir       string
	retention time.Duration
	hits      atomic.Int64
	misses    atomic.Int64
}

// Compile-time interface check.
var _ core.AudioCache = (*DiskCache)(nil)

// Stats reports cache effectiveness counters for the current process.
type Stats struct {
	Hits   int64
	Misses int64
}

// New creates the cache directory if needed and returns a cache whose entries
// expire after retentionDays.
func New(dir string, retentionDays int) (*DiskCache, error) {
	if dir == "" {
		return nil, ErrDirEmpty
	}

	if retentionDays < 1 {
		return nil, ErrRetentionTooShort
	}

	err := fsutil.EnsureDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &DiskCache{
		dir:       dir,
		retention: time.Duration(retentionDays) * hoursPerDay * time.Hour,
	}, nil
}

// Fingerprint derives the cache key from every input that changes the audio.
// Text is trimmed and lowercased first so trivial whitespace or casing edits
// reuse the same entry across languages.
func Fingerprint(req core.SpeechRequest) string {
	normalized := strings.ToLower(strings.TrimSpace(req.Text))

	hasher := sha256.New()
	fmt.Fprintf(
		hasher,
		"%s:%s:%s:%.4f:%d",
		normalized,
		req.Voice,
		req.Model,
		req.Temperature,
		req.ThinkingBudget,
	)

	return hex.EncodeToString(hasher.Sum(nil))
}

// Get returns the cached audio for a fingerprint. An entry past the retention
// window is removed and reported as a miss.
func (c *DiskCache) Get(fingerprint string) ([]byte, bool, error) {
	path := c.entryPath(fingerprint)

	info, err := os.Stat(path)
	if err != nil {
		c.misses.Add(1)

		if os.IsNotExist(err) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("failed to stat cache entry: %w", err)
	}

	if time.Since(info.ModTime()) > c.retention {
		c.misses.Add(1)

		removeErr := os.Remove(path)
		if removeErr != nil && !os.IsNotExist(removeErr) {
			return nil, false, fmt.Errorf("failed to remove expired entry: %w", removeErr)
		}

		return nil, false, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		c.misses.Add(1)

		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	c.hits.Add(1)

	return data, true, nil
}

// Put stores audio under a fingerprint, overwriting any previous entry.
func (c *DiskCache) Put(fingerprint string, data []byte) error {
	err := os.WriteFile(c.entryPath(fingerprint), data, filePermissions)
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}

	return nil
}

// Sweep deletes every entry older than the retention window and returns the
// number removed. Files it cannot inspect are skipped rather than failing the
// whole pass.
func (c *DiskCache) Sweep() (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list cache directory: %w", err)
	}

	removed := 0
	cutoff := time.Now().Add(-c.retention)

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != entryExtension {
			continue
		}

		info, infoErr := entry.Info()
		if infoErr != nil {
			continue
		}

		if info.ModTime().After(cutoff) {
			continue
		}

		removeErr := os.Remove(filepath.Join(c.dir, entry.Name()))
		if removeErr != nil {
			continue
		}

		removed++
	}

	return removed, nil
}

// Stats returns the hit and miss counters.
func (c *DiskCache) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}
}

// Dir returns the cache directory path.
func (c *DiskCache) Dir() string {
	return c.dir
}

func (c *DiskCache) entryPath(fingerprint string) string {
	return filepath.Join(c.dir, fingerprint+entryExtension)
}
