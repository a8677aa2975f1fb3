// Package config provides the configuration structure for the speech service.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"

	"github.com/cardvoice/speech-service/internal/fsutil"
	"github.com/cardvoice/speech-service/internal/gemini"
)

// Environment override for the API key, preferred over the TOML value so the
// key can stay out of checked-in configuration.
const envAPIKey = "GEMINI_API_KEY"

// Defaults applied to unset fields.
const (
	DefaultModel          = gemini.ModelFlash
	DefaultVoice          = gemini.DefaultVoice
	DefaultTemperature    = 0.0
	DefaultTimeoutSeconds = 30
	DefaultRetentionDays  = 30
	DefaultMaxTextChars   = 5000
	DefaultWorkers        = 4
)

// Validation bounds.
const (
	maxTemperature = 1.0
	minimumWorkers = 1
)

// Static errors.
var (
	ErrAPIKeyMissing      = errors.New("gemini api key is not set")
	ErrUnknownModel       = errors.New("unknown gemini model")
	ErrUnknownVoice       = errors.New("unknown gemini voice")
	ErrTemperatureRange   = errors.New("temperature must be between 0.0 and 1.0")
	ErrThinkingBudgetNeg  = errors.New("thinking budget must be non-negative")
	ErrRetentionTooShort  = errors.New("cache retention must be at least one day")
	ErrTimeoutNotPositive = errors.New("timeout seconds must be positive")
)

// GeminiConfig holds everything that shapes one synthesis request.
type GeminiConfig struct {
	APIKey             string  `toml:"api_key"`
	BaseURL            string  `toml:"base_url"`
	Model              string  `toml:"model"`
	Voice              string  `toml:"voice"`
	Temperature        float64 `toml:"temperature"`
	AutoThinkingBudget bool    `toml:"auto_thinking_budget"`
	ThinkingBudget     int     `toml:"thinking_budget"`
	FallbackToFlash    bool    `toml:"fallback_to_flash"`
	TimeoutSeconds     int     `toml:"timeout_seconds"`
	MaxTextChars       int     `toml:"max_text_chars"`
	Workers            int     `toml:"workers"`
}

// CacheConfig controls the on-disk audio cache.
type CacheConfig struct {
	Enabled       bool   `toml:"enabled"`
	Dir           string `toml:"dir"`
	RetentionDays int    `toml:"retention_days"`
}

// NATSConfig holds the messaging endpoints for service mode.
type NATSConfig struct {
	URL                    string `toml:"url"`
	SynthesisSubject       string `toml:"synthesis_subject"`
	AudioObjectStoreBucket string `toml:"audio_object_store_bucket"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
	OutputDir   string `toml:"output_dir"`
}

// Config is the root configuration structure.
type Config struct {
	Gemini GeminiConfig `toml:"gemini"`
	Cache  CacheConfig  `toml:"cache"`
	NATS   NATSConfig   `toml:"nats"`
	Paths  PathsConfig  `toml:"paths"`
}

// Load loads the configuration through the central configurator, applies the
// defaults and environment overrides, and validates the result.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	cfg.ApplyDefaults()

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyDefaults fills unset fields, mirroring the behavior users of the
// original add-on relied on: cache on with 30-day retention, Zephyr voice,
// deterministic temperature.
func (c *Config) ApplyDefaults() {
	if key := os.Getenv(envAPIKey); key != "" {
		c.Gemini.APIKey = key
	}

	if c.Gemini.Model == "" {
		c.Gemini.Model = DefaultModel
	}

	if c.Gemini.Voice == "" {
		c.Gemini.Voice = DefaultVoice
	}

	if c.Gemini.TimeoutSeconds == 0 {
		c.Gemini.TimeoutSeconds = DefaultTimeoutSeconds
	}

	if c.Gemini.MaxTextChars == 0 {
		c.Gemini.MaxTextChars = DefaultMaxTextChars
	}

	if c.Gemini.Workers < minimumWorkers {
		c.Gemini.Workers = DefaultWorkers
	}

	if c.Cache.Dir == "" {
		c.Cache.Dir = fsutil.DefaultCacheDir()
	}

	if c.Cache.RetentionDays == 0 {
		c.Cache.RetentionDays = DefaultRetentionDays
	}
}

// Validate checks every value a bad config file or typo could break.
func (c *Config) Validate() error {
	if c.Gemini.APIKey == "" {
		return ErrAPIKeyMissing
	}

	if !gemini.IsKnownModel(c.Gemini.Model) {
		return fmt.Errorf("%w: %q", ErrUnknownModel, c.Gemini.Model)
	}

	if !gemini.IsKnownVoice(c.Gemini.Voice) {
		return fmt.Errorf("%w: %q", ErrUnknownVoice, c.Gemini.Voice)
	}

	if c.Gemini.Temperature < 0.0 || c.Gemini.Temperature > maxTemperature {
		return fmt.Errorf("%w: got %.2f", ErrTemperatureRange, c.Gemini.Temperature)
	}

	if c.Gemini.ThinkingBudget < 0 {
		return fmt.Errorf("%w: got %d", ErrThinkingBudgetNeg, c.Gemini.ThinkingBudget)
	}

	if c.Gemini.TimeoutSeconds <= 0 {
		return ErrTimeoutNotPositive
	}

	if c.Cache.RetentionDays < 1 {
		return ErrRetentionTooShort
	}

	return nil
}
