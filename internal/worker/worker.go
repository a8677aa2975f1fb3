// Package worker provides the NATS worker that serves synthesis jobs.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/book-expert/logger"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/cardvoice/speech-service/internal/core"
	"github.com/cardvoice/speech-service/internal/gemini"
	"github.com/cardvoice/speech-service/internal/synth"
)

const handleMessageTimeout = 60 * time.Second

// Static errors.
var (
	// ErrTextEmpty indicates a job without text.
	ErrTextEmpty = errors.New("job text cannot be empty")
	// ErrUnknownVoice indicates a voice outside the prebuilt voice list.
	ErrUnknownVoice = errors.New("unknown voice")
	// ErrUnknownModel indicates a model id outside the supported set.
	ErrUnknownModel = errors.New("unknown model")
	// ErrTemperatureRange indicates a temperature outside [0.0, 1.0].
	ErrTemperatureRange = errors.New("temperature must be between 0.0 and 1.0")
	// ErrThinkingBudgetNeg indicates a negative thinking budget.
	ErrThinkingBudgetNeg = errors.New("thinking budget must be non-negative")
)

const maxTemperature = 1.0

// Worker listens for synthesis jobs on a NATS subject, runs them through the
// engine, stores the audio, and replies with the object key.
type Worker struct {
	natsConnection *nats.Conn
	subject        string
	store          core.ObjectStore
	engine         *synth.Engine
	log            *logger.Logger
}

// New creates a worker bound to one subject.
func New(
	natsConnection *nats.Conn,
	subject string,
	store core.ObjectStore,
	engine *synth.Engine,
	log *logger.Logger,
) *Worker {
	return &Worker{
		natsConnection: natsConnection,
		subject:        subject,
		store:          store,
		engine:         engine,
		log:            log,
	}
}

// Run subscribes and serves until the context is cancelled, then drains the
// subscription.
func (w *Worker) Run(ctx context.Context) error {
	sub, err := w.natsConnection.Subscribe(w.subject, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.subject, err)
	}

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

func (w *Worker) handleMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handleMessageTimeout)
	defer cancel()

	job, err := parseAndValidateJob(msg)
	if err != nil {
		w.log.Error("Rejected synthesis job: %v", err)

		return
	}

	reply, err := w.processJob(ctx, job)
	if err != nil {
		w.log.Error("Failed to process job %s: %v", job.JobID, err)

		return
	}

	err = w.respond(msg, reply)
	if err != nil {
		w.log.Error("Failed to publish reply for job %s: %v", job.JobID, err)
	}
}

// processJob runs the pipeline and uploads the audio under a fresh key.
func (w *Worker) processJob(ctx context.Context, job *core.SynthesisJob) (*core.SpeechReady, error) {
	result, err := w.engine.Synthesize(ctx, synth.Request{
		Text:           job.Text,
		Voice:          job.Voice,
		Model:          job.Model,
		Temperature:    job.Temperature,
		ThinkingBudget: job.ThinkingBudget,
	})
	if err != nil {
		return nil, fmt.Errorf("synthesis failed: %w", err)
	}

	audioKey := uuid.NewString() + ".wav"

	err = w.store.Put(ctx, audioKey, result.WAV)
	if err != nil {
		return nil, fmt.Errorf("failed to store audio under key '%s': %w", audioKey, err)
	}

	return &core.SpeechReady{
		JobID:           job.JobID,
		AudioKey:        audioKey,
		Model:           result.Model,
		CacheHit:        result.CacheHit,
		DurationSeconds: result.Duration.Seconds(),
	}, nil
}

func (w *Worker) respond(msg *nats.Msg, reply *core.SpeechReady) error {
	replyData, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("failed to marshal reply: %w", err)
	}

	err = msg.Respond(replyData)
	if err != nil {
		return fmt.Errorf("failed to respond: %w", err)
	}

	return nil
}

func parseAndValidateJob(msg *nats.Msg) (*core.SynthesisJob, error) {
	var job core.SynthesisJob

	err := json.Unmarshal(msg.Data, &job)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}

	err = validateJob(&job)
	if err != nil {
		return nil, err
	}

	return &job, nil
}

// validateJob checks the optional overrides at the boundary so a bad message
// fails loudly instead of producing a confusing API error downstream.
func validateJob(job *core.SynthesisJob) error {
	if job.Text == "" {
		return ErrTextEmpty
	}

	if job.Voice != "" && !gemini.IsKnownVoice(job.Voice) {
		return fmt.Errorf("%w: '%s'", ErrUnknownVoice, job.Voice)
	}

	if job.Model != "" && !gemini.IsKnownModel(job.Model) {
		return fmt.Errorf("%w: '%s'", ErrUnknownModel, job.Model)
	}

	if job.Temperature < 0.0 || job.Temperature > maxTemperature {
		return fmt.Errorf("%w: got %f", ErrTemperatureRange, job.Temperature)
	}

	if job.ThinkingBudget < 0 {
		return fmt.Errorf("%w: got %d", ErrThinkingBudgetNeg, job.ThinkingBudget)
	}

	return nil
}
