// Package llm is the language-model gateway: prompt text in, raw text out.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/MikeSquared-Agency/callscope/internal/prompt"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	defaultMaxTokens = 512
)

// Generator sends a rendered prompt to a text-generation backend.
// It does no parsing of the reply.
type Generator interface {
	Generate(ctx context.Context, req prompt.Request) (string, error)
}

// Config selects and configures a backend.
type Config struct {
	Provider   string
	BaseURL    string
	APIKey     string
	Model      string
	MaxTokens  int64
	RatePerSec float64
}

// StatusError is a non-2xx reply from a backend.
type StatusError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
}

func (e *StatusError) Unwrap() error { return e.Err }

// Permanent reports whether retrying the request cannot help.
func (e *StatusError) Permanent() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500 && e.StatusCode != http.StatusTooManyRequests
}

// IsPermanent reports whether err wraps a permanent StatusError.
func IsPermanent(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Permanent()
}

// New builds the configured backend wrapped in rate limiting and retries.
func New(cfg Config, logger *slog.Logger) (Generator, error) {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	var base Generator
	switch cfg.Provider {
	case ProviderAnthropic:
		base = NewAnthropic(cfg)
	case ProviderOpenAI, "":
		base = NewOpenAI(cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}

	logger.Info("llm gateway configured",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"base_url", cfg.BaseURL,
	)
	return NewResilient(base, cfg.RatePerSec, logger), nil
}
