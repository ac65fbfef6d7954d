// Package prompt renders the classification request sent to the model.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Request is a rendered classification prompt.
type Request struct {
	System string
	User   string
}

// Example is one worked transcript/answer pair shown to the model.
type Example struct {
	Transcript            string   `json:"-"`
	Sentiment             string   `json:"sentiment"`
	IssueCategory         []string `json:"issue_category"`
	Urgency               string   `json:"urgency"`
	AgentBehavior         string   `json:"agent_behavior"`
	ResolutionActionTaken string   `json:"resolution_action_taken"`
	CustomerConfirmation  string   `json:"customer_confirmation"`
	PendingFollowup       string   `json:"pending_followup"`
}

// Examples covers deferral with politeness, confirmed refund, multiple
// categories, a recurring fault, a confirmed technical fix and an agent
// who cannot resolve.
var Examples = []Example{
	{
		Transcript:            "Thank you for calling, we will look into this and get back to you.",
		Sentiment:             "neutral",
		IssueCategory:         []string{"other"},
		Urgency:               "medium",
		AgentBehavior:         "polite",
		ResolutionActionTaken: "no",
		CustomerConfirmation:  "no",
		PendingFollowup:       "yes",
	},
	{
		Transcript:            "I was charged twice yesterday. You have confirmed the refund to my card.",
		Sentiment:             "neutral",
		IssueCategory:         []string{"billing", "refund"},
		Urgency:               "medium",
		AgentBehavior:         "polite",
		ResolutionActionTaken: "yes",
		CustomerConfirmation:  "yes",
		PendingFollowup:       "no",
	},
	{
		Transcript:            "My package arrived late and I was charged extra.",
		Sentiment:             "negative",
		IssueCategory:         []string{"delivery", "billing"},
		Urgency:               "medium",
		AgentBehavior:         "neutral",
		ResolutionActionTaken: "no",
		CustomerConfirmation:  "no",
		PendingFollowup:       "yes",
	},
	{
		Transcript:            "I'm still facing the issue. You said it would be fixed yesterday.",
		Sentiment:             "negative",
		IssueCategory:         []string{"technical"},
		Urgency:               "high",
		AgentBehavior:         "neutral",
		ResolutionActionTaken: "no",
		CustomerConfirmation:  "no",
		PendingFollowup:       "yes",
	},
	{
		Transcript:            "Yes, it is working now. Thanks for fixing it.",
		Sentiment:             "positive",
		IssueCategory:         []string{"technical"},
		Urgency:               "low",
		AgentBehavior:         "polite",
		ResolutionActionTaken: "yes",
		CustomerConfirmation:  "yes",
		PendingFollowup:       "no",
	},
	{
		Transcript:            "I understand the issue, but I cannot resolve this right now.",
		Sentiment:             "neutral",
		IssueCategory:         []string{"other"},
		Urgency:               "medium",
		AgentBehavior:         "neutral",
		ResolutionActionTaken: "no",
		CustomerConfirmation:  "no",
		PendingFollowup:       "yes",
	},
}

var renderedExamples = renderExamples(Examples)

// Build renders the classification request for transcript.
func Build(transcript string) Request {
	return Request{
		System: fmt.Sprintf(systemPrompt, renderedExamples),
		User:   fmt.Sprintf(userPrompt, strings.TrimSpace(transcript)),
	}
}

func renderExamples(examples []Example) string {
	var b strings.Builder
	for _, ex := range examples {
		answer, _ := json.MarshalIndent(ex, "", "  ")
		fmt.Fprintf(&b, "\nTranscript:\n%q\nJSON:\n%s\n", ex.Transcript, answer)
	}
	return b.String()
}
