package hermes

import (
	"time"

	"github.com/google/uuid"
)

const (
	SubjectCallAnalyzed = "callscope.call.analyzed"
	SubjectCallDeleted  = "callscope.call.deleted"
	// SubjectCallSubmit carries text submissions from other services.
	SubjectCallSubmit = "callscope.call.submit"
)

// CallAnalyzed is published after a new call is stored.
type CallAnalyzed struct {
	EventID       string    `json:"event_id"`
	ID            int64     `json:"id"`
	FileHash      *string   `json:"file_hash"`
	Sentiment     string    `json:"sentiment"`
	IssueCategory []string  `json:"issue_category"`
	Urgency       string    `json:"urgency"`
	AgentBehavior string    `json:"agent_behavior"`
	CallOutcome   string    `json:"call_outcome"`
	LLMStatus     string    `json:"llm_status"`
	Timestamp     time.Time `json:"timestamp"`
}

type CallDeleted struct {
	EventID   string    `json:"event_id"`
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// SubmitRequest asks for a text transcript to be analyzed and stored.
type SubmitRequest struct {
	RequestID string `json:"request_id"`
	Content   string `json:"content"`
}

// NewEventID returns a fresh id for an outgoing event.
func NewEventID() string {
	return uuid.NewString()
}
