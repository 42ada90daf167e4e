package transfer

import (
	"time"

	"landflow/workflow"
)

// Status is the lifecycle of one ownership-change attempt.
type Status string

const (
	StatusInitiated           Status = "initiated"
	StatusDocumentsPending    Status = "documents_pending"
	StatusUnderReview         Status = "under_review"
	StatusVerificationPending Status = "verification_pending"
	StatusApproved            Status = "approved"
	StatusRejected            Status = "rejected"
	StatusCompleted           Status = "completed"
	StatusCancelled           Status = "cancelled"
)

// Terminal reports whether a transfer in this status can never change again.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusRejected
}

// Transitions is the transfer state machine shared by every coordinator
// operation. under_review loops to itself on failed reviews and document
// resubmission.
var Transitions = workflow.Table{
	string(StatusInitiated):           {string(StatusDocumentsPending), string(StatusUnderReview), string(StatusCancelled)},
	string(StatusDocumentsPending):    {string(StatusUnderReview), string(StatusCancelled)},
	string(StatusUnderReview):         {string(StatusUnderReview), string(StatusVerificationPending), string(StatusCancelled)},
	string(StatusVerificationPending): {string(StatusApproved), string(StatusRejected)},
	string(StatusApproved):            {string(StatusCompleted)},
	string(StatusRejected):            {},
	string(StatusCompleted):           {},
	string(StatusCancelled):           {},
}

// TransferType classifies the legal basis of the ownership change.
type TransferType string

const (
	TypeSale                  TransferType = "sale"
	TypeInheritance           TransferType = "inheritance"
	TypeGift                  TransferType = "gift"
	TypeCourtOrder            TransferType = "court_order"
	TypeGovernmentAcquisition TransferType = "government_acquisition"
	TypeExchange              TransferType = "exchange"
	TypeOther                 TransferType = "other"
)

func validTransferType(t TransferType) bool {
	switch t {
	case TypeSale, TypeInheritance, TypeGift, TypeCourtOrder, TypeGovernmentAcquisition, TypeExchange, TypeOther:
		return true
	default:
		return false
	}
}

// DocType is the closed vocabulary of transfer evidence documents.
type DocType string

const (
	DocSaleAgreement        DocType = "sale_agreement"
	DocIDCard               DocType = "id_card"
	DocOwnershipCertificate DocType = "ownership_certificate"
	DocTaxClearance         DocType = "tax_clearance"
	DocCourtOrder           DocType = "court_order"
	DocOther                DocType = "other"
)

func validDocType(t DocType) bool {
	switch t {
	case DocSaleAgreement, DocIDCard, DocOwnershipCertificate, DocTaxClearance, DocCourtOrder, DocOther:
		return true
	default:
		return false
	}
}

// ReviewVerdict is an officer's per-document decision.
type ReviewVerdict string

const (
	VerdictDocPending       ReviewVerdict = "pending"
	VerdictDocApproved      ReviewVerdict = "approved"
	VerdictDocRejected      ReviewVerdict = "rejected"
	VerdictDocNeedsRevision ReviewVerdict = "needs_revision"
)

// Document is one evidence record attached to a transfer. FileID points into
// the external document store; bytes never pass through this core.
type Document struct {
	ID           string
	TransferID   string
	DocType      DocType
	FileID       string
	ReviewStatus ReviewVerdict
	ReviewNotes  *string
	UploadedAt   time.Time
	ReviewedAt   *time.Time
}

// DocumentInput is a citizen-supplied upload reference.
type DocumentInput struct {
	DocType DocType
	FileID  string
}

// DocumentReview is one item of an officer's review submission.
type DocumentReview struct {
	DocumentID string
	Verdict    ReviewVerdict
	Notes      string
}

// Transfer mirrors the property_transfers table.
type Transfer struct {
	ID              string
	PropertyID      string
	PreviousOwnerID string
	NewOwnerID      string
	TransferType    TransferType
	TransferValue   float64
	Currency        string
	TransferReason  string
	Status          Status
	Compliance      ComplianceChecks
	DecisionNotes   *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TimelineEvent is one immutable row of a transfer's history.
type TimelineEvent struct {
	ID         int64
	TransferID string
	Seq        int
	Action     string
	ActorID    *string
	ActorRole  string
	Notes      string
	CreatedAt  time.Time
}
