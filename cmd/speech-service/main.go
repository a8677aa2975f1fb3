// main package for the speech-service
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/book-expert/logger"
	"github.com/nats-io/nats.go"

	"github.com/cardvoice/speech-service/internal/cache"
	"github.com/cardvoice/speech-service/internal/config"
	"github.com/cardvoice/speech-service/internal/core"
	"github.com/cardvoice/speech-service/internal/gemini"
	"github.com/cardvoice/speech-service/internal/objectstore"
	"github.com/cardvoice/speech-service/internal/synth"
	"github.com/cardvoice/speech-service/internal/worker"
)

const bootstrapLogName = "speech-service-bootstrap.log"

const serviceLogName = "speech-service.log"

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	bootstrapLog, err := logger.New(os.TempDir(), bootstrapLogName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(cfg.Paths.BaseLogsDir, serviceLogName)
	if err != nil {
		bootstrapLog.Error("Failed to create service logger: %v", err)

		return fmt.Errorf("failed to create service logger: %w", err)
	}

	defer func() {
		closeErr := log.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing logger: %v\n", closeErr)
		}
	}()

	return serve(cfg, log)
}

// serve wires the engine, the NATS transport, and the worker loop, and runs
// until SIGINT or SIGTERM.
func serve(cfg *config.Config, log *logger.Logger) error {
	engine, err := buildEngine(cfg, log)
	if err != nil {
		return err
	}

	natsConnection, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
	}
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		return fmt.Errorf("failed to get JetStream context: %w", err)
	}

	store, err := objectstore.New(jetstreamContext, cfg.NATS.AudioObjectStoreBucket)
	if err != nil {
		return fmt.Errorf("failed to open audio object store: %w", err)
	}

	synthWorker := worker.New(natsConnection, cfg.NATS.SynthesisSubject, store, engine, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.System("Speech service listening for jobs on subject: %s", cfg.NATS.SynthesisSubject)

	runErr := synthWorker.Run(ctx)
	if runErr != nil {
		return fmt.Errorf("worker stopped: %w", runErr)
	}

	return nil
}

func buildEngine(cfg *config.Config, log *logger.Logger) (*synth.Engine, error) {
	client := gemini.NewClient(
		cfg.Gemini.BaseURL,
		cfg.Gemini.APIKey,
		time.Duration(cfg.Gemini.TimeoutSeconds)*time.Second,
	)

	var audioCache core.AudioCache

	if cfg.Cache.Enabled {
		diskCache, err := cache.New(cfg.Cache.Dir, cfg.Cache.RetentionDays)
		if err != nil {
			return nil, fmt.Errorf("failed to open audio cache: %w", err)
		}

		audioCache = diskCache
	}

	return synth.New(cfg, client, audioCache, log), nil
}
