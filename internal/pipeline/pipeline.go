// Package pipeline classifies a single support call end to end.
package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/MikeSquared-Agency/callscope/internal/analysis"
	"github.com/MikeSquared-Agency/callscope/internal/extractor"
	"github.com/MikeSquared-Agency/callscope/internal/llm"
	"github.com/MikeSquared-Agency/callscope/internal/prompt"
	"github.com/MikeSquared-Agency/callscope/internal/transcribe"
)

// MinTextLen is the shortest trimmed text worth classifying.
const MinTextLen = 5

type Kind string

const (
	KindText  Kind = "text"
	KindAudio Kind = "audio"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"

	StageInput         = "input"
	StageTranscription = "transcription"

	ReasonEmptyOrInvalidText  = "empty_or_invalid_text"
	ReasonTranscriptionFailed = "transcription_failed"
)

// Input is either raw text or an audio recording.
type Input struct {
	Kind  Kind
	Text  string
	Audio transcribe.Audio
}

// Result is the outcome of one classification. Failures are tagged with
// Stage and Reason; Detail carries the transcriber's error kind.
type Result struct {
	Status     string                 `json:"status"`
	Stage      string                 `json:"stage,omitempty"`
	Reason     string                 `json:"reason,omitempty"`
	Detail     string                 `json:"detail,omitempty"`
	Transcript string                 `json:"transcript"`
	Language   string                 `json:"language,omitempty"`
	Analysis   *analysis.CallAnalysis `json:"insights,omitempty"`
	LLMStatus  analysis.Status        `json:"llm_status,omitempty"`
}

// Succeeded reports whether the result carries a validated analysis.
func (r Result) Succeeded() bool { return r.Status == StatusSuccess }

// Orchestrator sequences transcription, prompting, extraction, outcome
// derivation and validation. It is safe for concurrent use as long as its
// collaborators are.
type Orchestrator struct {
	transcriber transcribe.Transcriber
	generator   llm.Generator
	logger      *slog.Logger
}

func New(t transcribe.Transcriber, g llm.Generator, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{transcriber: t, generator: g, logger: logger}
}

// Analyze never returns an error; every failure is reported in the Result.
func (o *Orchestrator) Analyze(ctx context.Context, in Input) Result {
	var transcript, language string

	switch in.Kind {
	case KindAudio:
		if o.transcriber == nil {
			return Result{Status: StatusFailed, Stage: StageTranscription, Reason: ReasonTranscriptionFailed, Detail: "no transcriber configured"}
		}
		tx := o.transcriber.Transcribe(ctx, in.Audio)
		if !tx.Success {
			o.logger.Warn("transcription failed", "file", in.Audio.Name, "error_kind", tx.ErrorKind)
			return Result{Status: StatusFailed, Stage: StageTranscription, Reason: ReasonTranscriptionFailed, Detail: tx.ErrorKind}
		}
		transcript, language = tx.Text, tx.Language
	default:
		transcript = strings.TrimSpace(in.Text)
		if tooShort(transcript) {
			d := analysis.Default()
			return Result{Status: StatusFailed, Stage: StageInput, Reason: ReasonEmptyOrInvalidText, Analysis: &d}
		}
	}

	a, status := o.classify(ctx, transcript)
	return Result{
		Status:     StatusSuccess,
		Transcript: transcript,
		Language:   language,
		Analysis:   &a,
		LLMStatus:  status,
	}
}

func (o *Orchestrator) classify(ctx context.Context, transcript string) (analysis.CallAnalysis, analysis.Status) {
	if tooShort(transcript) {
		return analysis.Default(), analysis.StatusOK
	}

	fields, status := analysis.FallbackFields(), analysis.StatusFallback
	raw, err := o.generator.Generate(ctx, prompt.Build(transcript))
	if err != nil {
		o.logger.Error("llm generate failed, using fallback", "error", err)
	} else if obj, ok := extractor.Extract(raw); ok {
		fields, status = obj, analysis.StatusOK
	} else {
		o.logger.Warn("no json object in model output, using fallback", "raw_len", len(raw))
	}

	a, vs := analysis.Validate(fields, analysis.DeriveOutcome(fields))
	if vs == analysis.StatusValidationFailed {
		o.logger.Warn("model output failed validation", "fields", fields)
		return a, vs
	}
	return a, status
}

func tooShort(s string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(s)) < MinTextLen
}
