package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/book-expert/logger"

	"github.com/cardvoice/speech-service/internal/cache"
	"github.com/cardvoice/speech-service/internal/classify"
	"github.com/cardvoice/speech-service/internal/config"
	"github.com/cardvoice/speech-service/internal/core"
	"github.com/cardvoice/speech-service/internal/fsutil"
	"github.com/cardvoice/speech-service/internal/gemini"
	"github.com/cardvoice/speech-service/internal/synth"
)

// Flag names.
const (
	flagText       = "text"
	flagChunks     = "chunks"
	flagOutput     = "output"
	flagVoice      = "voice"
	flagModel      = "model"
	flagAnalyze    = "analyze"
	flagSweep      = "sweep"
	flagListVoices = "list-voices"
)

// Flag descriptions.
const (
	flagTextDesc       = "Text to convert to speech"
	flagChunksDesc     = "JSON file containing an array of text chunks to process"
	flagOutputDesc     = "Output file or directory"
	flagVoiceDesc      = "Voice name (defaults to the configured voice)"
	flagModelDesc      = "Model id (defaults to the configured model)"
	flagAnalyzeDesc    = "Print the content analysis for the text and exit"
	flagSweepDesc      = "Remove expired cache entries and exit"
	flagListVoicesDesc = "List available voices and exit"
)

// Error messages.
const (
	errEitherTextOrChunks = "either --text or --chunks must be provided"
	errCannotSpecifyBoth  = "cannot specify both --text and --chunks"
)

const clientLogName = "speech-client.log"

// appFlags holds the parsed command-line flag values.
type appFlags struct {
	text       string
	chunks     string
	output     string
	voice      string
	model      string
	analyze    bool
	sweep      bool
	listVoices bool
}

func main() {
	err := run()
	if err != nil {
		// The file logger may not exist yet, so use the standard log package.
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	flags := parseFlags()

	if flags.listVoices {
		printVoices()

		return nil
	}

	if flags.analyze && flags.text != "" {
		printAnalysis(flags.text)

		return nil
	}

	cfg, fileLog, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = fileLog.Close() }()

	engine, err := buildEngine(cfg, fileLog)
	if err != nil {
		return err
	}

	if flags.sweep {
		return handleSweep(engine)
	}

	return handleSynthesis(engine, cfg, flags)
}

func parseFlags() appFlags {
	var flags appFlags

	flag.StringVar(&flags.text, flagText, "", flagTextDesc)
	flag.StringVar(&flags.chunks, flagChunks, "", flagChunksDesc)
	flag.StringVar(&flags.output, flagOutput, "", flagOutputDesc)
	flag.StringVar(&flags.voice, flagVoice, "", flagVoiceDesc)
	flag.StringVar(&flags.model, flagModel, "", flagModelDesc)
	flag.BoolVar(&flags.analyze, flagAnalyze, false, flagAnalyzeDesc)
	flag.BoolVar(&flags.sweep, flagSweep, false, flagSweepDesc)
	flag.BoolVar(&flags.listVoices, flagListVoices, false, flagListVoicesDesc)
	flag.Parse()

	return flags
}

func setup() (*config.Config, *logger.Logger, error) {
	bootstrapLog, err := logger.New(os.TempDir(), clientLogName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, bootstrapLog, nil
}

func buildEngine(cfg *config.Config, fileLog *logger.Logger) (*synth.Engine, error) {
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

	return synth.New(cfg, client, audioCache, fileLog), nil
}

func printVoices() {
	for _, voice := range gemini.Voices() {
		fmt.Println(voice)
	}
}

func printAnalysis(selection string) {
	analysis := classify.Analyze(selection)

	fmt.Printf("type: %s\n", analysis.Type)
	fmt.Printf("complexity: %s\n", analysis.Complexity)
	fmt.Printf("strategy: %s\n", analysis.Strategy)
	fmt.Printf("thinking budget: %d\n", analysis.ThinkingBudget)
	fmt.Printf("structured: %t\n", analysis.Structured())
	fmt.Printf("estimated speech time: %s\n", fsutil.FormatDuration(analysis.EstimatedSpeechSecs))
}

func handleSweep(engine *synth.Engine) error {
	removed, err := engine.SweepCache()
	if err != nil {
		return err
	}

	fmt.Printf("Removed %d expired cache entries\n", removed)

	return nil
}

func handleSynthesis(engine *synth.Engine, cfg *config.Config, flags appFlags) error {
	if flags.text == "" && flags.chunks == "" {
		flag.Usage()

		return errors.New(errEitherTextOrChunks)
	}

	if flags.text != "" && flags.chunks != "" {
		return errors.New(errCannotSpecifyBoth)
	}

	ctx := context.Background()

	if flags.chunks != "" {
		outputDir := flags.output
		if outputDir == "" {
			outputDir = cfg.Paths.OutputDir
		}

		err := engine.SynthesizeChunks(ctx, flags.chunks, outputDir)
		if err != nil {
			return fmt.Errorf("failed to process chunks: %w", err)
		}

		fmt.Printf("Generated audio files in: %s\n", outputDir)

		return nil
	}

	result, err := engine.Synthesize(ctx, synth.Request{
		Text:           flags.text,
		Voice:          flags.voice,
		Model:          flags.model,
		Temperature:    0,
		ThinkingBudget: 0,
	})
	if err != nil {
		return fmt.Errorf("failed to synthesize: %w", err)
	}

	outputDir := flags.output
	if outputDir == "" {
		outputDir = cfg.Paths.OutputDir
	}

	path, err := engine.WriteFile(result, outputDir)
	if err != nil {
		return err
	}

	source := "api"
	if result.CacheHit {
		source = "cache"
	}

	fmt.Printf(
		"Generated: %s (%s, model %s, from %s)\n",
		path,
		fsutil.FormatFileSize(int64(len(result.WAV))),
		result.Model,
		source,
	)

	return nil
}
