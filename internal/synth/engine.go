// Package synth orchestrates one synthesis request end to end: cleanup,
// classification, cache lookup, the speech API call, and container wrapping.
package synth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/book-expert/logger"

	"github.com/cardvoice/speech-service/internal/audio"
	"github.com/cardvoice/speech-service/internal/cache"
	"github.com/cardvoice/speech-service/internal/classify"
	"github.com/cardvoice/speech-service/internal/config"
	"github.com/cardvoice/speech-service/internal/core"
	"github.com/cardvoice/speech-service/internal/fsutil"
	"github.com/cardvoice/speech-service/internal/gemini"
	"github.com/cardvoice/speech-service/internal/text"
)

// Output naming.
const (
	outputFilePrefix    = "gemini_tts"
	outputFileFormat    = "%s_%s_%d.wav"
	chunkFileFormat     = "chunk_%04d.wav"
	fingerprintPrefixes = 8

	filePermissions = 0o600
)

// Static errors.
var (
	ErrNoChunks       = errors.New("no chunks found")
	ErrOutputDirEmpty = errors.New("output directory cannot be empty")
)

// Request is one synthesis job. Empty Voice and Model fall back to the
// configured defaults; a zero Temperature uses the configured value.
type Request struct {
	Text           string
	Voice          string
	Model          string
	Temperature    float64
	ThinkingBudget int
}

// Result carries the playable audio plus everything a caller reports back:
// whether the cache answered, which model actually ran, and the structure
// analysis that sized the thinking budget.
type Result struct {
	WAV         []byte
	Fingerprint string
	Model       string
	CacheHit    bool
	Analysis    classify.Analysis
	Duration    time.Duration
}

// Engine wires the synthesizer, the optional cache, and the text pipeline.
type Engine struct {
	synthesizer core.Synthesizer
	audioCache  core.AudioCache
	normalizer  *text.Normalizer
	cfg         *config.Config
	log         *logger.Logger
}

// New creates an engine. audioCache may be nil when caching is disabled.
func New(
	cfg *config.Config,
	synthesizer core.Synthesizer,
	audioCache core.AudioCache,
	log *logger.Logger,
) *Engine {
	return &Engine{
		synthesizer: synthesizer,
		audioCache:  audioCache,
		normalizer:  text.NewNormalizer(),
		cfg:         cfg,
		log:         log,
	}
}

// Synthesize runs the full pipeline for one request. The speech API is only
// reached on a cache miss; cache write failures are logged and never fail the
// request.
func (e *Engine) Synthesize(ctx context.Context, req Request) (Result, error) {
	// Structure analysis runs on the raw selection: normalization strips
	// the bullets and line breaks the classifier keys on.
	analysis := classify.Analyze(req.Text)

	cleaned := e.normalizer.Normalize(req.Text)

	err := text.Validate(cleaned, e.cfg.Gemini.MaxTextChars)
	if err != nil {
		return Result{}, fmt.Errorf("text rejected: %w", err)
	}

	speechReq := e.resolveParams(req, cleaned, analysis)

	result, found := e.lookupCache(speechReq, analysis)
	if found {
		return result, nil
	}

	pcm, usedModel, err := e.callWithFallback(ctx, speechReq)
	if err != nil {
		return Result{}, err
	}

	wav, err := audio.EncodeWAV(pcm.Data, pcm.SampleRate)
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode audio container: %w", err)
	}

	speechReq.Model = usedModel
	fingerprint := cache.Fingerprint(speechReq)

	e.storeCache(fingerprint, wav)

	return Result{
		WAV:         wav,
		Fingerprint: fingerprint,
		Model:       usedModel,
		CacheHit:    false,
		Analysis:    analysis,
		Duration:    audio.PCMDuration(len(pcm.Data), pcm.SampleRate),
	}, nil
}

// resolveParams merges per-request overrides with configured defaults and
// picks the thinking budget: explicit override first, then the classifier's
// suggestion when auto mode is on, then the fixed configured budget.
func (e *Engine) resolveParams(
	req Request,
	cleaned string,
	analysis classify.Analysis,
) core.SpeechRequest {
	voice := req.Voice
	if voice == "" {
		voice = e.cfg.Gemini.Voice
	}

	model := req.Model
	if model == "" {
		model = e.cfg.Gemini.Model
	}

	temperature := req.Temperature
	if temperature == 0 {
		temperature = e.cfg.Gemini.Temperature
	}

	budget := req.ThinkingBudget

	if budget == 0 {
		if e.cfg.Gemini.AutoThinkingBudget {
			budget = analysis.ThinkingBudget
		} else {
			budget = e.cfg.Gemini.ThinkingBudget
		}
	}

	return core.SpeechRequest{
		Text:           cleaned,
		Voice:          voice,
		Model:          model,
		Temperature:    temperature,
		ThinkingBudget: budget,
	}
}

func (e *Engine) lookupCache(
	speechReq core.SpeechRequest,
	analysis classify.Analysis,
) (Result, bool) {
	if e.audioCache == nil {
		return Result{}, false
	}

	fingerprint := cache.Fingerprint(speechReq)

	data, found, err := e.audioCache.Get(fingerprint)
	if err != nil {
		e.log.Warn("Cache read failed for %s: %v", fingerprint, err)

		return Result{}, false
	}

	if !found {
		return Result{}, false
	}

	return Result{
		WAV:         data,
		Fingerprint: fingerprint,
		Model:       speechReq.Model,
		CacheHit:    true,
		Analysis:    analysis,
		Duration:    0,
	}, true
}

func (e *Engine) storeCache(fingerprint string, wav []byte) {
	if e.audioCache == nil {
		return
	}

	err := e.audioCache.Put(fingerprint, wav)
	if err != nil {
		e.log.Warn("Cache write failed for %s: %v", fingerprint, err)
	}
}

// callWithFallback issues the API call, retrying once on the flash model when
// the configured model fails for a reason a cheaper model might not share.
// Auth and quota failures are terminal either way and are surfaced as-is.
func (e *Engine) callWithFallback(
	ctx context.Context,
	speechReq core.SpeechRequest,
) (core.PCMAudio, string, error) {
	pcm, err := e.synthesizer.Synthesize(ctx, speechReq)
	if err == nil {
		return pcm, speechReq.Model, nil
	}

	if !e.shouldFallBack(speechReq.Model, err) {
		return core.PCMAudio{}, "", fmt.Errorf("synthesis failed: %w", err)
	}

	e.log.Warn("Model %s failed (%v), retrying with %s", speechReq.Model, err, gemini.ModelFlash)

	speechReq.Model = gemini.ModelFlash

	pcm, fallbackErr := e.synthesizer.Synthesize(ctx, speechReq)
	if fallbackErr != nil {
		return core.PCMAudio{}, "", fmt.Errorf("synthesis failed after fallback: %w", fallbackErr)
	}

	return pcm, gemini.ModelFlash, nil
}

func (e *Engine) shouldFallBack(model string, err error) bool {
	if !e.cfg.Gemini.FallbackToFlash || model == gemini.ModelFlash {
		return false
	}

	if errors.Is(err, gemini.ErrAuthDenied) ||
		errors.Is(err, gemini.ErrRateLimited) ||
		errors.Is(err, gemini.ErrMissingAPIKey) {
		return false
	}

	return true
}

// SweepCache removes expired cache entries and reports how many went away.
func (e *Engine) SweepCache() (int, error) {
	if e.audioCache == nil {
		return 0, nil
	}

	removed, err := e.audioCache.Sweep()
	if err != nil {
		return 0, fmt.Errorf("cache sweep failed: %w", err)
	}

	return removed, nil
}

// WriteFile saves a result into outputDir under a collision-free name built
// from the fingerprint prefix and a timestamp, and returns the full path.
func (e *Engine) WriteFile(result Result, outputDir string) (string, error) {
	if outputDir == "" {
		return "", ErrOutputDirEmpty
	}

	err := fsutil.EnsureDir(outputDir)
	if err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	name := fmt.Sprintf(
		outputFileFormat,
		outputFilePrefix,
		result.Fingerprint[:fingerprintPrefixes],
		time.Now().Unix(),
	)
	path := filepath.Join(outputDir, fsutil.SanitizeFilename(name))

	err = os.WriteFile(path, result.WAV, filePermissions)
	if err != nil {
		return "", fmt.Errorf("failed to write audio file: %w", err)
	}

	return path, nil
}

// SynthesizeChunks processes a JSON file containing an array of text chunks,
// writing sequentially named WAV files into outputDir. Chunks run in
// parallel under a bounded worker pool; individual failures are logged and
// the last one is returned after every chunk has had its chance.
func (e *Engine) SynthesizeChunks(ctx context.Context, chunksPath, outputDir string) error {
	chunks, err := readChunksFile(chunksPath)
	if err != nil {
		return err
	}

	err = fsutil.EnsureDir(outputDir)
	if err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var (
		waitGroup sync.WaitGroup
		mutex     sync.Mutex
		lastError error
	)

	workerPool := make(chan struct{}, e.cfg.Gemini.Workers)

	for chunkIndex, chunk := range chunks {
		waitGroup.Add(1)

		go func(index int, chunkText string) {
			defer waitGroup.Done()

			workerPool <- struct{}{}

			defer func() { <-workerPool }()

			chunkErr := e.processChunk(ctx, index, chunkText, outputDir)
			if chunkErr != nil {
				mutex.Lock()

				lastError = fmt.Errorf("chunk %d failed: %w", index+1, chunkErr)

				mutex.Unlock()
				e.log.Error("Failed to process chunk %d: %v", index+1, chunkErr)

				return
			}

			e.log.Info("Processed chunk %d/%d", index+1, len(chunks))
		}(chunkIndex, chunk)
	}

	waitGroup.Wait()
	close(workerPool)

	return lastError
}

func (e *Engine) processChunk(
	ctx context.Context,
	index int,
	chunkText, outputDir string,
) error {
	result, err := e.Synthesize(ctx, Request{
		Text:           chunkText,
		Voice:          "",
		Model:          "",
		Temperature:    0,
		ThinkingBudget: 0,
	})
	if err != nil {
		return err
	}

	path := filepath.Join(outputDir, fmt.Sprintf(chunkFileFormat, index+1))

	writeErr := os.WriteFile(path, result.WAV, filePermissions)
	if writeErr != nil {
		return fmt.Errorf("failed to write audio file: %w", writeErr)
	}

	return nil
}

func readChunksFile(chunksPath string) ([]string, error) {
	data, err := os.ReadFile(chunksPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read chunks file: %w", err)
	}

	var chunks []string

	err = json.Unmarshal(data, &chunks)
	if err != nil {
		return nil, fmt.Errorf("failed to parse chunks JSON: %w", err)
	}

	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoChunks, chunksPath)
	}

	return chunks, nil
}
