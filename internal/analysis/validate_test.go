package analysis

import (
	"reflect"
	"testing"
)

func validFields() Fields {
	return Fields{
		FieldSentiment:     "negative",
		FieldIssueCategory: []any{"billing", "refund"},
		FieldUrgency:       "high",
		FieldAgentBehavior: "polite",
	}
}

func TestValidate_OK(t *testing.T) {
	got, status := Validate(validFields(), OutcomeResolved)
	if status != StatusOK {
		t.Fatalf("expected status ok, got %s", status)
	}
	want := CallAnalysis{
		Sentiment:     SentimentNegative,
		IssueCategory: []Category{CategoryBilling, CategoryRefund},
		Urgency:       UrgencyHigh,
		AgentBehavior: BehaviorPolite,
		CallOutcome:   OutcomeResolved,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestValidate_EnumViolationReturnsFullDefault(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"sentiment", FieldSentiment, "furious"},
		{"urgency", FieldUrgency, "critical"},
		{"agent behavior", FieldAgentBehavior, "helpful"},
		{"unknown category in list", FieldIssueCategory, []any{"billing", "shipping"}},
		{"unknown bare category", FieldIssueCategory, "account"},
		{"missing sentiment", FieldSentiment, nil},
		{"numeric urgency", FieldUrgency, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validFields()
			if tt.value == nil {
				delete(f, tt.key)
			} else {
				f[tt.key] = tt.value
			}
			got, status := Validate(f, OutcomeResolved)
			if status != StatusValidationFailed {
				t.Errorf("expected validation_failed, got %s", status)
			}
			if !reflect.DeepEqual(got, Default()) {
				t.Errorf("expected full default, got %+v", got)
			}
		})
	}
}

func TestValidate_InvalidOutcome(t *testing.T) {
	got, status := Validate(validFields(), Outcome("maybe"))
	if status != StatusValidationFailed || !reflect.DeepEqual(got, Default()) {
		t.Errorf("expected default with validation_failed, got %+v %s", got, status)
	}
}

func TestNormalizeCategories(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []Category
		ok   bool
	}{
		{"bare string", "billing", []Category{CategoryBilling}, true},
		{"wrong type", 42, []Category{CategoryOther}, true},
		{"absent", nil, []Category{CategoryOther}, true},
		{"empty list", []any{}, []Category{CategoryOther}, true},
		{"list with non-string", []any{"billing", 3}, []Category{CategoryOther}, true},
		{"dedup keeps order", []any{"refund", "Billing", "refund"}, []Category{CategoryRefund, CategoryBilling}, true},
		{"string slice", []string{" technical "}, []Category{CategoryTechnical}, true},
		{"comma joined", "billing,refund", []Category{CategoryBilling, CategoryRefund}, true},
		{"unknown value", []any{"warranty"}, []Category{CategoryOther}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeCategories(tt.in)
			if ok != tt.ok {
				t.Errorf("ok: got %v, want %v", ok, tt.ok)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidate_BareStringCategory(t *testing.T) {
	f := validFields()
	f[FieldIssueCategory] = "billing"
	got, status := Validate(f, OutcomeUnresolved)
	if status != StatusOK {
		t.Fatalf("expected ok, got %s", status)
	}
	if !reflect.DeepEqual(got.IssueCategory, []Category{CategoryBilling}) {
		t.Errorf("expected [billing], got %v", got.IssueCategory)
	}
}

func TestValidate_WrongTypeCategory(t *testing.T) {
	f := validFields()
	f[FieldIssueCategory] = 42
	got, status := Validate(f, OutcomeUnresolved)
	if status != StatusOK {
		t.Fatalf("expected ok, got %s", status)
	}
	if !reflect.DeepEqual(got.IssueCategory, []Category{CategoryOther}) {
		t.Errorf("expected [other], got %v", got.IssueCategory)
	}
}

func TestValidate_FallbackFieldsAreValid(t *testing.T) {
	f := FallbackFields()
	got, status := Validate(f, DeriveOutcome(f))
	if status != StatusOK {
		t.Fatalf("fallback fields should validate, got %s", status)
	}
	if !reflect.DeepEqual(got, Default()) {
		t.Errorf("fallback should validate to the default, got %+v", got)
	}
}
