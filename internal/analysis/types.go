package analysis

// Sentiment is the caller's overall sentiment.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Category is an issue category. A call may carry several.
type Category string

const (
	CategoryBilling   Category = "billing"
	CategoryDelivery  Category = "delivery"
	CategoryRefund    Category = "refund"
	CategoryTechnical Category = "technical"
	CategoryOther     Category = "other"
)

type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

type AgentBehavior string

const (
	BehaviorPolite  AgentBehavior = "polite"
	BehaviorNeutral AgentBehavior = "neutral"
	BehaviorRude    AgentBehavior = "rude"
	BehaviorUnknown AgentBehavior = "unknown"
)

// Outcome is always computed by DeriveOutcome, never taken from the model.
type Outcome string

const (
	OutcomeResolved   Outcome = "resolved"
	OutcomeUnresolved Outcome = "unresolved"
)

// Evidence is the value of one of the three resolution evidence fields.
type Evidence string

const (
	EvidenceYes     Evidence = "yes"
	EvidenceNo      Evidence = "no"
	EvidenceUnclear Evidence = "unclear"
)

// Status records how a CallAnalysis was produced.
type Status string

const (
	StatusOK               Status = "ok"
	StatusFallback         Status = "fallback"
	StatusValidationFailed Status = "validation_failed"
)

// Field names as they appear in model output and on the wire.
const (
	FieldSentiment             = "sentiment"
	FieldIssueCategory         = "issue_category"
	FieldUrgency               = "urgency"
	FieldAgentBehavior         = "agent_behavior"
	FieldCallOutcome           = "call_outcome"
	FieldResolutionActionTaken = "resolution_action_taken"
	FieldCustomerConfirmation  = "customer_confirmation"
	FieldPendingFollowup       = "pending_followup"
)

// Fields is the loosely-typed object parsed from model output, before validation.
type Fields map[string]any

// CallAnalysis is the validated classification of one call.
type CallAnalysis struct {
	Sentiment     Sentiment     `json:"sentiment"`
	IssueCategory []Category    `json:"issue_category"`
	Urgency       Urgency       `json:"urgency"`
	AgentBehavior AgentBehavior `json:"agent_behavior"`
	CallOutcome   Outcome       `json:"call_outcome"`
}

// Default is the safe classification used whenever nothing better is known.
func Default() CallAnalysis {
	return CallAnalysis{
		Sentiment:     SentimentNeutral,
		IssueCategory: []Category{CategoryOther},
		Urgency:       UrgencyLow,
		AgentBehavior: BehaviorUnknown,
		CallOutcome:   OutcomeUnresolved,
	}
}

// FallbackFields stands in for model output that could not be recovered.
func FallbackFields() Fields {
	return Fields{
		FieldSentiment:             string(SentimentNeutral),
		FieldIssueCategory:         []any{string(CategoryOther)},
		FieldUrgency:               string(UrgencyLow),
		FieldAgentBehavior:         string(BehaviorUnknown),
		FieldResolutionActionTaken: string(EvidenceUnclear),
		FieldCustomerConfirmation:  string(EvidenceUnclear),
		FieldPendingFollowup:       string(EvidenceNo),
	}
}

// CategoryStrings returns the categories as plain strings.
func (a CallAnalysis) CategoryStrings() []string {
	out := make([]string, len(a.IssueCategory))
	for i, c := range a.IssueCategory {
		out[i] = string(c)
	}
	return out
}
