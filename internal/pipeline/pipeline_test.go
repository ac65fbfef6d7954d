package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/MikeSquared-Agency/callscope/internal/analysis"
	"github.com/MikeSquared-Agency/callscope/internal/prompt"
	"github.com/MikeSquared-Agency/callscope/internal/transcribe"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeGenerator struct {
	out   string
	err   error
	calls int
	last  prompt.Request
}

func (f *fakeGenerator) Generate(ctx context.Context, req prompt.Request) (string, error) {
	f.calls++
	f.last = req
	return f.out, f.err
}

type fakeTranscriber struct {
	res   transcribe.Result
	calls int
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio transcribe.Audio) transcribe.Result {
	f.calls++
	return f.res
}

const refundTranscript = "I was charged twice yesterday. You have confirmed the refund to my card."

const refundReply = `Here is the classification:
{
  "sentiment": "neutral",
  "issue_category": ["billing", "refund"],
  "urgency": "medium",
  "agent_behavior": "polite",
  "resolution_action_taken": "yes",
  "customer_confirmation": "yes",
  "pending_followup": "no",
  "call_outcome": "unresolved"
}`

func TestAnalyze_RefundScenario(t *testing.T) {
	gen := &fakeGenerator{out: refundReply}
	o := New(nil, gen, discardLogger())

	res := o.Analyze(context.Background(), Input{Kind: KindText, Text: refundTranscript})
	if !res.Succeeded() {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Analysis.CallOutcome != analysis.OutcomeResolved {
		t.Errorf("expected resolved, got %s", res.Analysis.CallOutcome)
	}
	if !slices.Contains(res.Analysis.IssueCategory, analysis.CategoryRefund) {
		t.Errorf("expected refund category, got %v", res.Analysis.IssueCategory)
	}
	if res.LLMStatus != analysis.StatusOK {
		t.Errorf("expected llm status ok, got %s", res.LLMStatus)
	}
	if res.Transcript != refundTranscript {
		t.Errorf("unexpected transcript %q", res.Transcript)
	}
	if !strings.Contains(gen.last.User, refundTranscript) {
		t.Error("prompt should contain the transcript")
	}
}

func TestAnalyze_ShortTextSkipsGateway(t *testing.T) {
	for _, text := range []string{"", "    ", "hi", " ok? ", "abcd"} {
		gen := &fakeGenerator{out: refundReply}
		o := New(nil, gen, discardLogger())

		res := o.Analyze(context.Background(), Input{Kind: KindText, Text: text})
		if gen.calls != 0 {
			t.Errorf("%q: gateway should not be called", text)
		}
		if res.Status != StatusFailed || res.Stage != StageInput || res.Reason != ReasonEmptyOrInvalidText {
			t.Errorf("%q: unexpected result %+v", text, res)
		}
		if res.Analysis == nil || !reflect.DeepEqual(*res.Analysis, analysis.Default()) {
			t.Errorf("%q: expected default analysis, got %+v", text, res.Analysis)
		}
	}
}

func TestAnalyze_ShortTranscriptSkipsGateway(t *testing.T) {
	gen := &fakeGenerator{out: refundReply}
	tr := &fakeTranscriber{res: transcribe.Result{Success: true, Text: "Hm.", Language: "en"}}
	o := New(tr, gen, discardLogger())

	res := o.Analyze(context.Background(), Input{Kind: KindAudio, Audio: transcribe.Audio{Name: "a.wav", Data: []byte("x")}})
	if gen.calls != 0 {
		t.Error("gateway should not be called for a short transcript")
	}
	if !res.Succeeded() || !reflect.DeepEqual(*res.Analysis, analysis.Default()) {
		t.Errorf("expected default analysis, got %+v", res)
	}
}

func TestAnalyze_TranscriptionFailure(t *testing.T) {
	gen := &fakeGenerator{out: refundReply}
	tr := &fakeTranscriber{res: transcribe.Result{ErrorKind: transcribe.ErrEmptyTranscript}}
	o := New(tr, gen, discardLogger())

	res := o.Analyze(context.Background(), Input{Kind: KindAudio, Audio: transcribe.Audio{Name: "silence.wav", Data: []byte("x")}})
	if res.Status != StatusFailed || res.Stage != StageTranscription || res.Reason != ReasonTranscriptionFailed {
		t.Errorf("unexpected result %+v", res)
	}
	if res.Detail != transcribe.ErrEmptyTranscript {
		t.Errorf("expected detail %q, got %q", transcribe.ErrEmptyTranscript, res.Detail)
	}
	if gen.calls != 0 {
		t.Error("gateway should not be called after transcription failure")
	}
}

func TestAnalyze_AudioSuccess(t *testing.T) {
	gen := &fakeGenerator{out: refundReply}
	tr := &fakeTranscriber{res: transcribe.Result{Success: true, Text: refundTranscript, Language: "en"}}
	o := New(tr, gen, discardLogger())

	res := o.Analyze(context.Background(), Input{Kind: KindAudio, Audio: transcribe.Audio{Name: "a.wav", Data: []byte("x")}})
	if !res.Succeeded() || res.Language != "en" || tr.calls != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Analysis.CallOutcome != analysis.OutcomeResolved {
		t.Errorf("expected resolved, got %s", res.Analysis.CallOutcome)
	}
}

func TestAnalyze_NoTranscriber(t *testing.T) {
	o := New(nil, &fakeGenerator{}, discardLogger())
	res := o.Analyze(context.Background(), Input{Kind: KindAudio, Audio: transcribe.Audio{Data: []byte("x")}})
	if res.Status != StatusFailed || res.Stage != StageTranscription {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestAnalyze_ModelOutputRecovery(t *testing.T) {
	tests := []struct {
		name       string
		out        string
		err        error
		wantStatus analysis.Status
		want       analysis.CallAnalysis
	}{
		{
			name:       "prose only",
			out:        "I am not able to help with that.",
			wantStatus: analysis.StatusFallback,
			want:       analysis.Default(),
		},
		{
			name:       "gateway error",
			err:        errors.New("connection refused"),
			wantStatus: analysis.StatusFallback,
			want:       analysis.Default(),
		},
		{
			name:       "enum violation",
			out:        `{"sentiment": "angry", "issue_category": ["billing"], "urgency": "high", "agent_behavior": "rude"}`,
			wantStatus: analysis.StatusValidationFailed,
			want:       analysis.Default(),
		},
		{
			name:       "lenient json",
			out:        "```json\n{sentiment: 'negative', issue_category: 'delivery', urgency: 'high', agent_behavior: 'neutral', resolution_action_taken: 'no', customer_confirmation: 'no', pending_followup: 'yes',}\n```",
			wantStatus: analysis.StatusOK,
			want: analysis.CallAnalysis{
				Sentiment:     analysis.SentimentNegative,
				IssueCategory: []analysis.Category{analysis.CategoryDelivery},
				Urgency:       analysis.UrgencyHigh,
				AgentBehavior: analysis.BehaviorNeutral,
				CallOutcome:   analysis.OutcomeUnresolved,
			},
		},
		{
			name:       "model outcome ignored",
			out:        `{"sentiment": "positive", "issue_category": ["technical"], "urgency": "low", "agent_behavior": "polite", "call_outcome": "resolved", "resolution_action_taken": "yes", "customer_confirmation": "unclear", "pending_followup": "no"}`,
			wantStatus: analysis.StatusOK,
			want: analysis.CallAnalysis{
				Sentiment:     analysis.SentimentPositive,
				IssueCategory: []analysis.Category{analysis.CategoryTechnical},
				Urgency:       analysis.UrgencyLow,
				AgentBehavior: analysis.BehaviorPolite,
				CallOutcome:   analysis.OutcomeUnresolved,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := New(nil, &fakeGenerator{out: tt.out, err: tt.err}, discardLogger())
			res := o.Analyze(context.Background(), Input{Kind: KindText, Text: "The customer called about an issue with their order."})
			if !res.Succeeded() {
				t.Fatalf("model failures must not fail the pipeline, got %+v", res)
			}
			if res.LLMStatus != tt.wantStatus {
				t.Errorf("expected status %s, got %s", tt.wantStatus, res.LLMStatus)
			}
			if !reflect.DeepEqual(*res.Analysis, tt.want) {
				t.Errorf("got %+v, want %+v", *res.Analysis, tt.want)
			}
		})
	}
}
