package transfer

// CheckStatus is the outcome of a single compliance sub-check.
type CheckStatus string

const (
	CheckCompliant    CheckStatus = "compliant"
	CheckNonCompliant CheckStatus = "non_compliant"
	CheckPending      CheckStatus = "pending"
)

func validCheckStatus(s CheckStatus) bool {
	return s == CheckCompliant || s == CheckNonCompliant || s == CheckPending
}

// RiskLevel grades the fraud-prevention assessment.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

func validRiskLevel(r RiskLevel) bool {
	return r == RiskLow || r == RiskMedium || r == RiskHigh
}

// SubCheck is one legal/tax sub-record with reviewer notes.
type SubCheck struct {
	Status CheckStatus
	Notes  string
}

// FraudCheck extends a sub-check with a graded risk level.
type FraudCheck struct {
	Status CheckStatus
	Notes  string
	Risk   RiskLevel
}

// ComplianceChecks bundles the three sub-checks evaluated during transfer
// verification.
type ComplianceChecks struct {
	EthiopianLaw    SubCheck
	TaxClearance    SubCheck
	FraudPrevention FraudCheck
}

// Verdict is the aggregate outcome of the three sub-checks.
type Verdict string

const (
	VerdictCompliant    Verdict = "compliant"
	VerdictNonCompliant Verdict = "non_compliant"
	VerdictPending      Verdict = "pending"
)

// Aggregate folds the three sub-checks into one verdict. A hard failure
// (any non_compliant sub-check, or high fraud risk) decides immediately; a
// pending sub-check with no failures withholds the verdict so the transfer
// stays in verification. Pure function, no persistence.
func Aggregate(c ComplianceChecks) Verdict {
	if c.EthiopianLaw.Status == CheckNonCompliant ||
		c.TaxClearance.Status == CheckNonCompliant ||
		c.FraudPrevention.Status == CheckNonCompliant ||
		c.FraudPrevention.Risk == RiskHigh {
		return VerdictNonCompliant
	}
	if c.EthiopianLaw.Status == CheckPending ||
		c.TaxClearance.Status == CheckPending ||
		c.FraudPrevention.Status == CheckPending {
		return VerdictPending
	}
	return VerdictCompliant
}
