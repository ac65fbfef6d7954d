// Package store persists analyzed support calls.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/callscope/internal/analysis"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	// ReasonDuplicate is reported when a call with the same file hash exists.
	ReasonDuplicate = "duplicate"
)

// Call is a persisted, analyzed support call. FileHash is nil for text input.
type Call struct {
	ID         int64   `json:"id"`
	FileHash   *string `json:"file_hash"`
	Transcript string  `json:"transcript"`
	analysis.CallAnalysis
	LLMStatus string    `json:"llm_status"`
	CreatedAt time.Time `json:"created_at"`
}

type NewCall struct {
	FileHash   string
	Transcript string
	Analysis   analysis.CallAnalysis
	LLMStatus  analysis.Status
}

// InsertResult reports whether a row was written. When Inserted is false,
// Reason says why and ID refers to the existing row.
type InsertResult struct {
	Inserted bool
	ID       int64
	Reason   string
}

type Summary struct {
	Sentiment   map[string]int `json:"sentiment_distribution"`
	Urgency     map[string]int `json:"urgency_distribution"`
	CallOutcome map[string]int `json:"call_outcome_distribution"`
}

// Store is implemented by SQLiteStore and PostgresStore.
type Store interface {
	Insert(ctx context.Context, c NewCall) (InsertResult, error)
	FindByHash(ctx context.Context, hash string) (*Call, error)
	List(ctx context.Context) ([]Call, error)
	Delete(ctx context.Context, id int64) (int64, error)
	Summary(ctx context.Context) (Summary, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open connects to the store selected by driver. For sqlite dsn is a file
// path, for postgres a connection URL.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case DriverSQLite, "":
		s, err := NewSQLite(dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverPostgres:
		s, err := NewPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

// Analyses strips storage metadata for the risk scorer.
func Analyses(calls []Call) []analysis.CallAnalysis {
	out := make([]analysis.CallAnalysis, len(calls))
	for i, c := range calls {
		out[i] = c.CallAnalysis
	}
	return out
}

func joinCategories(cats []analysis.Category) string {
	parts := make([]string, len(cats))
	for i, c := range cats {
		parts[i] = string(c)
	}
	return strings.Join(parts, ",")
}

// splitCategories never fails; unreadable values become [other].
func splitCategories(s string) []analysis.Category {
	cats, _ := analysis.NormalizeCategories(s)
	return cats
}

func nullableHash(h string) *string {
	if h == "" {
		return nil
	}
	return &h
}

type rowScanner interface {
	Scan(dest ...any) error
}

const callColumns = `id, file_hash, transcript, sentiment, issue_category, urgency, agent_behavior, call_outcome, llm_status, created_at`

func scanCall(row rowScanner) (Call, error) {
	var c Call
	var sentiment, categories, urgency, behavior, outcome string
	if err := row.Scan(&c.ID, &c.FileHash, &c.Transcript, &sentiment, &categories, &urgency, &behavior, &outcome, &c.LLMStatus, &c.CreatedAt); err != nil {
		return Call{}, err
	}
	c.CallAnalysis = analysis.CallAnalysis{
		Sentiment:     analysis.Sentiment(sentiment),
		IssueCategory: splitCategories(categories),
		Urgency:       analysis.Urgency(urgency),
		AgentBehavior: analysis.AgentBehavior(behavior),
		CallOutcome:   analysis.Outcome(outcome),
	}
	return c, nil
}

func newSummary() Summary {
	return Summary{
		Sentiment:   map[string]int{},
		Urgency:     map[string]int{},
		CallOutcome: map[string]int{},
	}
}
