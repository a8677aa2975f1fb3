// Package core defines the business-level interfaces and job types shared by
// the speech service components.
package core

import "context"

// SpeechRequest holds the parameters for a single synthesis call. Every field
// participates in the cache fingerprint, so two requests with identical values
// are interchangeable.
type SpeechRequest struct {
	Text           string
	Voice          string
	Model          string
	Temperature    float64
	ThinkingBudget int
}

// PCMAudio is raw little-endian 16-bit mono PCM as returned by the speech API,
// before it is wrapped in a playable container.
type PCMAudio struct {
	Data       []byte
	SampleRate int
}

// Synthesizer turns text into raw PCM audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SpeechRequest) (PCMAudio, error)
}

// AudioCache is a fingerprint-keyed byte store with age-based expiry.
type AudioCache interface {
	Get(fingerprint string) ([]byte, bool, error)
	Put(fingerprint string, data []byte) error
	Sweep() (int, error)
}

// ObjectStore is a key-value blob store for finished audio artifacts.
type ObjectStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
}

// SynthesisJob is the wire format for a synthesis request received over NATS.
// Zero-value overrides fall back to the service configuration.
type SynthesisJob struct {
	JobID          string  `json:"job_id"`
	Text           string  `json:"text"`
	Voice          string  `json:"voice,omitempty"`
	Model          string  `json:"model,omitempty"`
	Temperature    float64 `json:"temperature,omitempty"`
	ThinkingBudget int     `json:"thinking_budget,omitempty"`
}

// SpeechReady is the reply published once a job's audio has been stored.
type SpeechReady struct {
	JobID           string  `json:"job_id"`
	AudioKey        string  `json:"audio_key"`
	Model           string  `json:"model"`
	CacheHit        bool    `json:"cache_hit"`
	DurationSeconds float64 `json:"duration_seconds"`
}
