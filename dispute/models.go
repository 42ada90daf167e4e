package dispute

import (
	"time"

	"landflow/workflow"
)

// Status is the lifecycle of a dispute.
type Status string

const (
	StatusSubmitted     Status = "submitted"
	StatusUnderReview   Status = "under_review"
	StatusInvestigation Status = "investigation"
	StatusMediation     Status = "mediation"
	StatusResolved      Status = "resolved"
	StatusWithdrawn     Status = "withdrawn"
)

// Terminal reports whether the dispute can never change again.
func (s Status) Terminal() bool {
	return s == StatusResolved || s == StatusWithdrawn
}

// Transitions is the dispute state machine. Withdrawal is legal up to and
// including investigation; once mediation is scheduled only resolution ends
// the dispute.
var Transitions = workflow.Table{
	string(StatusSubmitted):     {string(StatusUnderReview), string(StatusWithdrawn)},
	string(StatusUnderReview):   {string(StatusInvestigation), string(StatusResolved), string(StatusWithdrawn)},
	string(StatusInvestigation): {string(StatusMediation), string(StatusResolved), string(StatusWithdrawn)},
	string(StatusMediation):     {string(StatusResolved)},
	string(StatusResolved):      {},
	string(StatusWithdrawn):     {},
}

// Type classifies the claim being raised.
type Type string

const (
	TypeOwnership              Type = "ownership_dispute"
	TypeBoundary               Type = "boundary_dispute"
	TypeDocumentationError     Type = "documentation_error"
	TypeFraudulentRegistration Type = "fraudulent_registration"
	TypeInheritance            Type = "inheritance_dispute"
	TypeOther                  Type = "other"
)

func validType(t Type) bool {
	switch t {
	case TypeOwnership, TypeBoundary, TypeDocumentationError, TypeFraudulentRegistration, TypeInheritance, TypeOther:
		return true
	default:
		return false
	}
}

// EvidenceType is the closed vocabulary of dispute evidence documents.
type EvidenceType string

const (
	EvidenceSaleAgreement        EvidenceType = "sale_agreement"
	EvidenceIDCard               EvidenceType = "id_card"
	EvidenceOwnershipCertificate EvidenceType = "ownership_certificate"
	EvidenceTaxClearance         EvidenceType = "tax_clearance"
	EvidenceCourtOrder           EvidenceType = "court_order"
	EvidenceOther                EvidenceType = "other"
)

func validEvidenceType(t EvidenceType) bool {
	switch t {
	case EvidenceSaleAgreement, EvidenceIDCard, EvidenceOwnershipCertificate, EvidenceTaxClearance, EvidenceCourtOrder, EvidenceOther:
		return true
	default:
		return false
	}
}

// Evidence is one supporting record attached to a dispute. FileID points into
// the external document store.
type Evidence struct {
	ID          string
	DisputeID   string
	DocType     EvidenceType
	FileID      string
	Description string
	AddedAt     time.Time
}

// EvidenceInput is a disputant-supplied upload reference.
type EvidenceInput struct {
	DocType     EvidenceType
	FileID      string
	Description string
}

// Dispute mirrors the disputes table. Resolution fields are set once, when
// the dispute reaches resolved.
type Dispute struct {
	ID                string
	PropertyID        string
	DisputantID       string
	DisputeType       Type
	Title             string
	Description       string
	Status            Status
	ResolutionOutcome *string
	ResolvedBy        *string
	ResolvedAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TimelineEvent is one immutable row of a dispute's history.
type TimelineEvent struct {
	ID        int64
	DisputeID string
	Seq       int
	Action    string
	ActorID   *string
	ActorRole string
	Notes     string
	CreatedAt time.Time
}
