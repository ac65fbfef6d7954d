package analysis

import "strings"

// Validate normalizes extracted fields into a CallAnalysis carrying the
// given outcome. Any field outside its allowed set discards the whole
// result in favour of Default, reported as StatusValidationFailed.
func Validate(f Fields, outcome Outcome) (CallAnalysis, Status) {
	sentiment, ok1 := ParseSentiment(f[FieldSentiment])
	urgency, ok2 := ParseUrgency(f[FieldUrgency])
	behavior, ok3 := ParseAgentBehavior(f[FieldAgentBehavior])
	categories, ok4 := NormalizeCategories(f[FieldIssueCategory])
	ok5 := outcome == OutcomeResolved || outcome == OutcomeUnresolved

	if !(ok1 && ok2 && ok3 && ok4 && ok5) {
		return Default(), StatusValidationFailed
	}
	return CallAnalysis{
		Sentiment:     sentiment,
		IssueCategory: categories,
		Urgency:       urgency,
		AgentBehavior: behavior,
		CallOutcome:   outcome,
	}, StatusOK
}

func ParseSentiment(v any) (Sentiment, bool) {
	s, _ := normString(v)
	switch x := Sentiment(s); x {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return x, true
	}
	return SentimentNeutral, false
}

func ParseUrgency(v any) (Urgency, bool) {
	s, _ := normString(v)
	switch x := Urgency(s); x {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return x, true
	}
	return UrgencyLow, false
}

func ParseAgentBehavior(v any) (AgentBehavior, bool) {
	s, _ := normString(v)
	switch x := AgentBehavior(s); x {
	case BehaviorPolite, BehaviorNeutral, BehaviorRude, BehaviorUnknown:
		return x, true
	}
	return BehaviorUnknown, false
}

func ParseCategory(v any) (Category, bool) {
	s, _ := normString(v)
	switch x := Category(s); x {
	case CategoryBilling, CategoryDelivery, CategoryRefund, CategoryTechnical, CategoryOther:
		return x, true
	}
	return CategoryOther, false
}

// NormalizeCategories accepts a bare string or a list of strings.
// Absent values, empty lists and any other shape become [other] and are
// not treated as violations; a recognizable string outside the category
// set is a violation.
func NormalizeCategories(v any) ([]Category, bool) {
	var raw []string
	switch x := v.(type) {
	case string:
		raw = strings.Split(x, ",")
	case []string:
		raw = x
	case []any:
		for _, item := range x {
			s, ok := item.(string)
			if !ok {
				return []Category{CategoryOther}, true
			}
			raw = append(raw, s)
		}
	default:
		return []Category{CategoryOther}, true
	}

	out := make([]Category, 0, len(raw))
	seen := make(map[Category]bool, len(raw))
	for _, s := range raw {
		if strings.TrimSpace(s) == "" {
			continue
		}
		c, ok := ParseCategory(s)
		if !ok {
			return []Category{CategoryOther}, false
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	if len(out) == 0 {
		return []Category{CategoryOther}, true
	}
	return out, true
}

func normString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	return strings.ToLower(strings.TrimSpace(s)), true
}
