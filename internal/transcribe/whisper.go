package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const transcriptionsPath = "/v1/audio/transcriptions"

// Whisper talks to a speech-to-text server implementing the OpenAI
// audio transcription contract (whisper.cpp server, faster-whisper-server,
// OpenAI itself).
type Whisper struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
	logger   *slog.Logger

	newBackOff func() backoff.BackOff
}

type WhisperConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

func NewWhisper(cfg WhisperConfig, logger *slog.Logger) (*Whisper, error) {
	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse transcribe url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("transcribe url %q: scheme must be http or https", cfg.BaseURL)
	}
	model := cfg.Model
	if model == "" {
		model = "whisper-1"
	}
	return &Whisper{
		endpoint: u.String() + transcriptionsPath,
		apiKey:   cfg.APIKey,
		model:    model,
		client:   &http.Client{Timeout: 5 * time.Minute},
		logger:   logger,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.MaxElapsedTime = 30 * time.Second
			return b
		},
	}, nil
}

type verboseTranscription struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.code, e.body)
}

// permanent reports whether a retry cannot help. Rate limiting is transient.
func (e *statusError) permanent() bool {
	return e.code < 500 && e.code != http.StatusTooManyRequests
}

func (w *Whisper) Transcribe(ctx context.Context, audio Audio) Result {
	if len(audio.Data) == 0 {
		return failure(ErrEmptyTranscript, "")
	}

	op := func() (verboseTranscription, error) {
		out, err := w.post(ctx, audio)
		if err == nil {
			return out, nil
		}
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return out, err
		}
		var se *statusError
		if errors.As(err, &se) && se.permanent() {
			return out, backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return out, backoff.Permanent(err)
		}
		w.logger.Warn("transcription request failed, retrying", "file", audio.Name, "error", err)
		return out, err
	}

	out, err := backoff.RetryWithData(op, backoff.WithContext(w.newBackOff(), ctx))
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && (se.code == http.StatusUnsupportedMediaType || se.code == http.StatusBadRequest) {
			return failure(ErrUnsupportedFormat, "")
		}
		return exception(err)
	}

	text := strings.TrimSpace(out.Text)
	if text == "" {
		return failure(ErrEmptyTranscript, out.Language)
	}
	return Result{Success: true, Text: text, Language: out.Language}
}

func (w *Whisper) post(ctx context.Context, audio Audio) (verboseTranscription, error) {
	var out verboseTranscription

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", audio.Name)
	if err != nil {
		return out, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(audio.Data); err != nil {
		return out, fmt.Errorf("write audio: %w", err)
	}
	mw.WriteField("model", w.model)
	mw.WriteField("response_format", "verbose_json")
	if err := mw.Close(); err != nil {
		return out, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, &body)
	if err != nil {
		return out, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if w.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+w.apiKey)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return out, fmt.Errorf("api call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return out, &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(respBody))}
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return out, backoff.Permanent(fmt.Errorf("unmarshal response: %w", err))
	}
	return out, nil
}
