package analysis

// DeriveOutcome decides resolution from the evidence fields alone.
// A call is resolved only when an action was taken, the customer confirmed
// it and nothing is pending. Missing or malformed evidence is unresolved.
func DeriveOutcome(f Fields) Outcome {
	if evidence(f, FieldResolutionActionTaken) == EvidenceYes &&
		evidence(f, FieldCustomerConfirmation) == EvidenceYes &&
		evidence(f, FieldPendingFollowup) == EvidenceNo {
		return OutcomeResolved
	}
	return OutcomeUnresolved
}

func evidence(f Fields, key string) Evidence {
	s, ok := normString(f[key])
	if !ok {
		return ""
	}
	switch e := Evidence(s); e {
	case EvidenceYes, EvidenceNo, EvidenceUnclear:
		return e
	}
	return ""
}
