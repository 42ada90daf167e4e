package transfer

import "testing"

func allCompliant() ComplianceChecks {
	return ComplianceChecks{
		EthiopianLaw:    SubCheck{Status: CheckCompliant, Notes: "deed chain verified"},
		TaxClearance:    SubCheck{Status: CheckCompliant, Notes: "no outstanding tax"},
		FraudPrevention: FraudCheck{Status: CheckCompliant, Notes: "no flags", Risk: RiskLow},
	}
}

func TestAggregate_AllCompliant(t *testing.T) {
	if got := Aggregate(allCompliant()); got != VerdictCompliant {
		t.Fatalf("expected compliant, got %s", got)
	}
}

func TestAggregate_HighRiskOverridesCompliantChecks(t *testing.T) {
	checks := allCompliant()
	checks.FraudPrevention.Risk = RiskHigh

	if got := Aggregate(checks); got != VerdictNonCompliant {
		t.Fatalf("expected non_compliant for high fraud risk, got %s", got)
	}
}

func TestAggregate_AnyFailureIsNonCompliant(t *testing.T) {
	for name, mutate := range map[string]func(*ComplianceChecks){
		"law":   func(c *ComplianceChecks) { c.EthiopianLaw.Status = CheckNonCompliant },
		"tax":   func(c *ComplianceChecks) { c.TaxClearance.Status = CheckNonCompliant },
		"fraud": func(c *ComplianceChecks) { c.FraudPrevention.Status = CheckNonCompliant },
	} {
		checks := allCompliant()
		mutate(&checks)
		if got := Aggregate(checks); got != VerdictNonCompliant {
			t.Fatalf("%s failure: expected non_compliant, got %s", name, got)
		}
	}
}

func TestAggregate_PendingWithholdsVerdict(t *testing.T) {
	checks := allCompliant()
	checks.TaxClearance.Status = CheckPending

	if got := Aggregate(checks); got != VerdictPending {
		t.Fatalf("expected pending, got %s", got)
	}
}

func TestAggregate_FailureBeatsPending(t *testing.T) {
	checks := allCompliant()
	checks.TaxClearance.Status = CheckPending
	checks.EthiopianLaw.Status = CheckNonCompliant

	if got := Aggregate(checks); got != VerdictNonCompliant {
		t.Fatalf("expected non_compliant when a hard failure exists, got %s", got)
	}
}

func TestAggregate_MediumRiskIsAcceptable(t *testing.T) {
	checks := allCompliant()
	checks.FraudPrevention.Risk = RiskMedium

	if got := Aggregate(checks); got != VerdictCompliant {
		t.Fatalf("expected compliant for medium risk, got %s", got)
	}
}
