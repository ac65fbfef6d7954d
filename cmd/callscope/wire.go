package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/MikeSquared-Agency/callscope/internal/hermes"
	"github.com/MikeSquared-Agency/callscope/internal/llm"
	"github.com/MikeSquared-Agency/callscope/internal/pipeline"
	"github.com/MikeSquared-Agency/callscope/internal/processor"
	"github.com/MikeSquared-Agency/callscope/internal/store"
	"github.com/MikeSquared-Agency/callscope/internal/transcribe"
)

type app struct {
	store  store.Store
	proc   *processor.Processor
	events *hermes.Client
}

// newApp connects storage, the model gateway and, when withEvents is set
// and NATS_URL is configured, the event bus.
func newApp(ctx context.Context, withEvents bool) (*app, error) {
	logger := slog.Default()

	dsn := cfg.DBPath
	if cfg.StoreDriver == store.DriverPostgres {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
		dsn = cfg.DatabaseURL
	}
	st, err := store.Open(ctx, cfg.StoreDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}
	logger.Info("store ready", "driver", cfg.StoreDriver)

	gen, err := llm.New(llm.Config{
		Provider:   cfg.LLMProvider,
		BaseURL:    cfg.LLMBaseURL,
		APIKey:     cfg.LLMAPIKey,
		Model:      cfg.LLMModel,
		MaxTokens:  int64(cfg.LLMMaxTokens),
		RatePerSec: cfg.LLMRatePerSec,
	}, logger)
	if err != nil {
		st.Close()
		return nil, err
	}

	// the speech model is only contacted once audio arrives
	tr := transcribe.NewLazy(func() (transcribe.Transcriber, error) {
		w, err := transcribe.NewWhisper(transcribe.WhisperConfig{
			BaseURL: cfg.TranscribeURL,
			APIKey:  cfg.TranscribeAPIKey,
			Model:   cfg.TranscribeModel,
		}, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("transcriber ready", "url", cfg.TranscribeURL, "model", cfg.TranscribeModel)
		return w, nil
	})

	a := &app{store: st}

	var pub processor.Publisher
	if withEvents && cfg.NatsURL != "" {
		a.events, err = hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, logger)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("connect to NATS: %w", err)
		}
		pub = a.events
		logger.Info("NATS connected", "url", cfg.NatsURL)
	}

	a.proc = processor.New(st, pipeline.New(tr, gen, logger), pub, cfg.PipelineConcurrency, logger)
	return a, nil
}

func (a *app) Close() {
	if a.events != nil {
		a.events.Close()
	}
	if err := a.store.Close(); err != nil {
		slog.Warn("close store", "error", err)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
