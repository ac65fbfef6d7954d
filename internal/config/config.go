package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     int
	LogLevel string
	Env      string

	StoreDriver string
	DBPath      string
	DatabaseURL string

	NatsURL   string
	NatsToken string

	LLMProvider   string
	LLMBaseURL    string
	LLMAPIKey     string
	LLMModel      string
	LLMMaxTokens  int
	LLMRatePerSec float64

	TranscribeURL    string
	TranscribeAPIKey string
	TranscribeModel  string

	MaxFileSize         int64
	AllowedOrigins      []string
	PipelineConcurrency int
	AnalysisTimeout     time.Duration
}

// Load reads configuration from the environment after merging a local
// .env file, if one exists. Variables already set take precedence.
func Load() Config {
	_ = LoadEnvFile(".env")

	provider := strings.ToLower(envStr("LLM_PROVIDER", "openai"))
	return Config{
		Port:     envInt("CALLSCOPE_PORT", 8760),
		LogLevel: envStr("LOG_LEVEL", "info"),
		Env:      envStr("ENV", "development"),

		StoreDriver: envStr("STORE_DRIVER", "sqlite"),
		DBPath:      envStr("DB_PATH", "data/support_calls.db"),
		DatabaseURL: envStr("DATABASE_URL", ""),

		NatsURL:   envStr("NATS_URL", ""),
		NatsToken: envStr("NATS_TOKEN", ""),

		LLMProvider:   provider,
		LLMBaseURL:    envStr("LLM_BASE_URL", defaultBaseURL(provider)),
		LLMAPIKey:     envStr("LLM_API_KEY", ""),
		LLMModel:      envStr("LLM_MODEL", defaultModel(provider)),
		LLMMaxTokens:  envInt("LLM_MAX_TOKENS", 512),
		LLMRatePerSec: envFloat("LLM_RATE_PER_SEC", 0),

		TranscribeURL:    envStr("TRANSCRIBE_URL", "http://localhost:9000"),
		TranscribeAPIKey: envStr("TRANSCRIBE_API_KEY", ""),
		TranscribeModel:  envStr("TRANSCRIBE_MODEL", "whisper-1"),

		MaxFileSize:         int64(envInt("MAX_FILE_SIZE", 50*1024*1024)),
		AllowedOrigins:      envList("ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		PipelineConcurrency: envInt("PIPELINE_CONCURRENCY", 2),
		AnalysisTimeout:     envDuration("ANALYSIS_TIMEOUT", 5*time.Minute),
	}
}

// LoadEnvFile merges key=value pairs from path into the process
// environment. A missing file is not an error.
func LoadEnvFile(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Debug reports whether the service runs in development mode.
func (c Config) Debug() bool {
	return c.Env == "development"
}

func defaultBaseURL(provider string) string {
	if provider == "anthropic" {
		return ""
	}
	// Ollama's OpenAI-compatible endpoint
	return "http://localhost:11434/v1/"
}

func defaultModel(provider string) string {
	if provider == "anthropic" {
		return "claude-sonnet-4-20250514"
	}
	return "phi3"
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
