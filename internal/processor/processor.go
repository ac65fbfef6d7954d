// Package processor runs submissions through the classification pipeline,
// deduplicates audio by content hash, persists results and emits events.
package processor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/MikeSquared-Agency/callscope/internal/analysis"
	"github.com/MikeSquared-Agency/callscope/internal/hermes"
	"github.com/MikeSquared-Agency/callscope/internal/pipeline"
	"github.com/MikeSquared-Agency/callscope/internal/risk"
	"github.com/MikeSquared-Agency/callscope/internal/store"
	"github.com/MikeSquared-Agency/callscope/internal/transcribe"
)

const (
	StatusSuccess   = "success"
	StatusDuplicate = "duplicate"
	StatusFailed    = "failed"

	duplicateMessage = "This call has already been analyzed"

	submitTimeout = 5 * time.Minute
)

// Analyzer is satisfied by *pipeline.Orchestrator.
type Analyzer interface {
	Analyze(ctx context.Context, in pipeline.Input) pipeline.Result
}

// Publisher is satisfied by *hermes.Client.
type Publisher interface {
	Publish(subject string, data any) error
}

// Submission is the outcome of one submitted call.
type Submission struct {
	Status         string                 `json:"status"`
	Stage          string                 `json:"stage,omitempty"`
	Reason         string                 `json:"reason,omitempty"`
	Detail         string                 `json:"detail,omitempty"`
	Message        string                 `json:"message,omitempty"`
	CallID         int64                  `json:"call_id,omitempty"`
	ExistingCallID int64                  `json:"existing_call_id,omitempty"`
	Transcript     string                 `json:"transcript,omitempty"`
	Language       string                 `json:"language,omitempty"`
	Insights       *analysis.CallAnalysis `json:"insights,omitempty"`
	LLMStatus      analysis.Status        `json:"llm_status,omitempty"`
}

type Processor struct {
	store    store.Store
	analyzer Analyzer
	events   Publisher
	sem      *semaphore.Weighted
	logger   *slog.Logger
}

// New builds a Processor. events may be nil; concurrency bounds how many
// pipeline runs execute at once.
func New(s store.Store, a Analyzer, events Publisher, concurrency int, logger *slog.Logger) *Processor {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Processor{
		store:    s,
		analyzer: a,
		events:   events,
		sem:      semaphore.NewWeighted(int64(concurrency)),
		logger:   logger,
	}
}

// HashContent is the deduplication key for uploaded audio.
func HashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SubmitAudio analyzes an uploaded recording unless identical content has
// been analyzed before.
func (p *Processor) SubmitAudio(ctx context.Context, name string, data []byte) (Submission, error) {
	hash := HashContent(data)

	existing, err := p.store.FindByHash(ctx, hash)
	if err != nil {
		return Submission{}, fmt.Errorf("check duplicate: %w", err)
	}
	if existing != nil {
		p.logger.Info("duplicate call skipped", "file", name, "existing_call_id", existing.ID)
		return duplicate(existing.ID), nil
	}

	res, err := p.analyze(ctx, pipeline.Input{
		Kind:  pipeline.KindAudio,
		Audio: transcribe.Audio{Name: name, Data: data},
	})
	if err != nil {
		return Submission{}, err
	}
	return p.persist(ctx, hash, res)
}

// SubmitText analyzes a raw transcript. Text submissions are not deduplicated.
func (p *Processor) SubmitText(ctx context.Context, content string) (Submission, error) {
	res, err := p.analyze(ctx, pipeline.Input{Kind: pipeline.KindText, Text: content})
	if err != nil {
		return Submission{}, err
	}
	return p.persist(ctx, "", res)
}

func (p *Processor) analyze(ctx context.Context, in pipeline.Input) (pipeline.Result, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return pipeline.Result{}, fmt.Errorf("wait for pipeline slot: %w", err)
	}
	defer p.sem.Release(1)

	start := time.Now()
	res := p.analyzer.Analyze(ctx, in)
	p.logger.Info("pipeline finished",
		"kind", in.Kind,
		"status", res.Status,
		"llm_status", res.LLMStatus,
		"duration", time.Since(start),
	)
	return res, nil
}

func (p *Processor) persist(ctx context.Context, hash string, res pipeline.Result) (Submission, error) {
	if !res.Succeeded() {
		return Submission{
			Status: StatusFailed,
			Stage:  res.Stage,
			Reason: res.Reason,
			Detail: res.Detail,
		}, nil
	}

	ins, err := p.store.Insert(ctx, store.NewCall{
		FileHash:   hash,
		Transcript: res.Transcript,
		Analysis:   *res.Analysis,
		LLMStatus:  res.LLMStatus,
	})
	if err != nil {
		return Submission{}, fmt.Errorf("store call: %w", err)
	}
	if !ins.Inserted {
		p.logger.Info("concurrent duplicate converged", "existing_call_id", ins.ID, "reason", ins.Reason)
		return duplicate(ins.ID), nil
	}

	p.publish(hermes.SubjectCallAnalyzed, hermes.CallAnalyzed{
		EventID:       hermes.NewEventID(),
		ID:            ins.ID,
		FileHash:      hashPtr(hash),
		Sentiment:     string(res.Analysis.Sentiment),
		IssueCategory: res.Analysis.CategoryStrings(),
		Urgency:       string(res.Analysis.Urgency),
		AgentBehavior: string(res.Analysis.AgentBehavior),
		CallOutcome:   string(res.Analysis.CallOutcome),
		LLMStatus:     string(res.LLMStatus),
		Timestamp:     time.Now().UTC(),
	})

	return Submission{
		Status:     StatusSuccess,
		CallID:     ins.ID,
		Transcript: res.Transcript,
		Language:   res.Language,
		Insights:   res.Analysis,
		LLMStatus:  res.LLMStatus,
	}, nil
}

func (p *Processor) List(ctx context.Context) ([]store.Call, error) {
	return p.store.List(ctx)
}

// Delete removes a call. It reports false when no such call exists.
func (p *Processor) Delete(ctx context.Context, id int64) (bool, error) {
	n, err := p.store.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	p.publish(hermes.SubjectCallDeleted, hermes.CallDeleted{
		EventID:   hermes.NewEventID(),
		ID:        id,
		Timestamp: time.Now().UTC(),
	})
	return true, nil
}

func (p *Processor) Summary(ctx context.Context) (store.Summary, error) {
	return p.store.Summary(ctx)
}

// Risk scores the stored call history.
func (p *Processor) Risk(ctx context.Context) (risk.Assessment, error) {
	calls, err := p.store.List(ctx)
	if err != nil {
		return risk.Assessment{}, fmt.Errorf("load history: %w", err)
	}
	return risk.Compute(store.Analyses(calls)), nil
}

// HandleSubmit is the NATS handler for callscope.call.submit.
func (p *Processor) HandleSubmit(subject string, data []byte) {
	var req hermes.SubmitRequest
	if err := json.Unmarshal(data, &req); err != nil {
		p.logger.Error("failed to parse submit request", "subject", subject, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()

	sub, err := p.SubmitText(ctx, req.Content)
	if err != nil {
		p.logger.Error("submission failed", "request_id", req.RequestID, "error", err)
		return
	}
	p.logger.Info("submission processed",
		"request_id", req.RequestID,
		"status", sub.Status,
		"call_id", sub.CallID,
		"reason", sub.Reason,
	)
}

func (p *Processor) publish(subject string, evt any) {
	if p.events == nil {
		return
	}
	if err := p.events.Publish(subject, evt); err != nil {
		p.logger.Error("failed to publish event", "subject", subject, "error", err)
	}
}

func duplicate(existingID int64) Submission {
	return Submission{
		Status:         StatusDuplicate,
		Message:        duplicateMessage,
		ExistingCallID: existingID,
	}
}

func hashPtr(h string) *string {
	if h == "" {
		return nil
	}
	return &h
}
