package cache_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardvoice/speech-service/internal/cache"
	"github.com/cardvoice/speech-service/internal/core"
)

func standardRequest() core.SpeechRequest {
	return core.SpeechRequest{
		Text:           "Hello world",
		Voice:          "Zephyr",
		Model:          "gemini-2.5-flash-preview-tts",
		Temperature:    0.3,
		ThinkingBudget: 0,
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := cache.New("", 30)
	require.ErrorIs(t, err, cache.ErrDirEmpty)

	_, err = cache.New(t.TempDir(), 0)
	require.ErrorIs(t, err, cache.ErrRetentionTooShort)
}

func TestNew_CreatesDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "cache")

	diskCache, err := cache.New(dir, 30)
	require.NoError(t, err)
	assert.Equal(t, dir, diskCache.Dir())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestFingerprint_Stability(t *testing.T) {
	t.Parallel()

	first := cache.Fingerprint(standardRequest())
	second := cache.Fingerprint(standardRequest())

	assert.Equal(t, first, second)
	assert.Len(t, first, 64, "hex-encoded sha256")
}

func TestFingerprint_NormalizesText(t *testing.T) {
	t.Parallel()

	base := cache.Fingerprint(standardRequest())

	padded := standardRequest()
	padded.Text = "  Hello world \n"
	assert.Equal(t, base, cache.Fingerprint(padded))

	upper := standardRequest()
	upper.Text = "HELLO WORLD"
	assert.Equal(t, base, cache.Fingerprint(upper))
}

func TestFingerprint_SensitiveToParameters(t *testing.T) {
	t.Parallel()

	base := cache.Fingerprint(standardRequest())

	tests := []struct {
		name   string
		mutate func(*core.SpeechRequest)
	}{
		{name: "text", mutate: func(r *core.SpeechRequest) { r.Text = "Different text" }},
		{name: "voice", mutate: func(r *core.SpeechRequest) { r.Voice = "Puck" }},
		{name: "model", mutate: func(r *core.SpeechRequest) { r.Model = "gemini-2.5-pro-preview-tts" }},
		{name: "temperature", mutate: func(r *core.SpeechRequest) { r.Temperature = 0.9 }},
		{name: "thinking budget", mutate: func(r *core.SpeechRequest) { r.ThinkingBudget = 512 }},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			req := standardRequest()
			testCase.mutate(&req)
			assert.NotEqual(t, base, cache.Fingerprint(req))
		})
	}
}

func TestDiskCache_PutGet(t *testing.T) {
	t.Parallel()

	diskCache, err := cache.New(t.TempDir(), 30)
	require.NoError(t, err)

	fingerprint := cache.Fingerprint(standardRequest())
	payload := []byte("RIFF fake wav payload")

	data, found, err := diskCache.Get(fingerprint)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, data)

	err = diskCache.Put(fingerprint, payload)
	require.NoError(t, err)

	data, found, err = diskCache.Get(fingerprint)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, payload, data)

	stats := diskCache.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestDiskCache_PutOverwrites(t *testing.T) {
	t.Parallel()

	diskCache, err := cache.New(t.TempDir(), 30)
	require.NoError(t, err)

	fingerprint := cache.Fingerprint(standardRequest())

	require.NoError(t, diskCache.Put(fingerprint, []byte("first")))
	require.NoError(t, diskCache.Put(fingerprint, []byte("second")))

	data, found, err := diskCache.Get(fingerprint)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("second"), data)
}

func TestDiskCache_GetExpiredEntry(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	diskCache, err := cache.New(dir, 30)
	require.NoError(t, err)

	fingerprint := cache.Fingerprint(standardRequest())
	require.NoError(t, diskCache.Put(fingerprint, []byte("stale")))

	backdateEntry(t, dir, fingerprint, 31)

	data, found, err := diskCache.Get(fingerprint)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, data)

	// The expired file must be gone, not just skipped.
	_, statErr := os.Stat(filepath.Join(dir, fingerprint+".wav"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestDiskCache_Sweep(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	diskCache, err := cache.New(dir, 30)
	require.NoError(t, err)

	fresh := standardRequest()
	freshFingerprint := cache.Fingerprint(fresh)
	require.NoError(t, diskCache.Put(freshFingerprint, []byte("fresh")))

	stale := standardRequest()
	stale.Text = "Old entry"
	staleFingerprint := cache.Fingerprint(stale)
	require.NoError(t, diskCache.Put(staleFingerprint, []byte("stale")))
	backdateEntry(t, dir, staleFingerprint, 31)

	// Non-cache files in the directory are left alone.
	otherPath := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(otherPath, []byte("keep me"), 0o600))
	oldTime := time.Now().Add(-40 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(otherPath, oldTime, oldTime))

	removed, err := diskCache.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, found, err := diskCache.Get(freshFingerprint)
	require.NoError(t, err)
	assert.True(t, found, "fresh entry must survive the sweep")

	_, statErr := os.Stat(filepath.Join(dir, staleFingerprint+".wav"))
	assert.True(t, os.IsNotExist(statErr), "stale entry must be removed")

	_, statErr = os.Stat(otherPath)
	assert.NoError(t, statErr, "unrelated files must survive the sweep")
}

func TestDiskCache_SweepEmptyDirectory(t *testing.T) {
	t.Parallel()

	diskCache, err := cache.New(t.TempDir(), 30)
	require.NoError(t, err)

	removed, err := diskCache.Sweep()
	require.NoError(t, err)
	assert.Zero(t, removed)
}

// backdateEntry pushes a cache entry's modification time past the retention
// window by the given number of days.
func backdateEntry(t *testing.T, dir, fingerprint string, days int) {
	t.Helper()

	path := filepath.Join(dir, fingerprint+".wav")
	oldTime := time.Now().Add(-time.Duration(days) * 24 * time.Hour)

	err := os.Chtimes(path, oldTime, oldTime)
	require.NoError(t, err)
}
