package property

import (
	"time"

	"landflow/workflow"
)

// Status is the top-level lifecycle of a land parcel record.
type Status string

const (
	StatusPending            Status = "pending"
	StatusDocumentsValidated Status = "documents_validated"
	StatusPaymentCompleted   Status = "payment_completed"
	StatusApproved           Status = "approved"
	StatusRejected           Status = "rejected"
	StatusNeedsUpdate        Status = "needs_update"
	StatusTransferred        Status = "transferred"
)

// Type classifies the use of a parcel.
type Type string

const (
	TypeResidential  Type = "residential"
	TypeCommercial   Type = "commercial"
	TypeIndustrial   Type = "industrial"
	TypeAgricultural Type = "agricultural"
)

// Transitions is the registration state machine. approved -> transferred is
// deliberately present so the transfer coordinator can drive it; the status
// service refuses that edge for direct callers.
var Transitions = workflow.Table{
	string(StatusPending):            {string(StatusDocumentsValidated), string(StatusRejected), string(StatusNeedsUpdate)},
	string(StatusDocumentsValidated): {string(StatusPaymentCompleted), string(StatusRejected), string(StatusNeedsUpdate)},
	string(StatusPaymentCompleted):   {string(StatusApproved), string(StatusRejected), string(StatusNeedsUpdate)},
	string(StatusApproved):           {string(StatusTransferred)},
	string(StatusNeedsUpdate):        {string(StatusPending)},
	string(StatusRejected):           {},
	string(StatusTransferred):        {},
}

// Location identifies where a parcel sits within the Ethiopian administrative
// hierarchy.
type Location struct {
	Region      string
	SubCity     string
	Kebele      string
	Street      *string
	HouseNumber *string
}

// Property mirrors the properties table.
type Property struct {
	ID                string
	PlotNumber        string
	Location          Location
	PropertyType      Type
	AreaSqm           float64
	Status            Status
	OwnerID           string
	CurrentTransferID *string
	HasActiveDispute  bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// OwnershipRecord is one past owner of a parcel, appended when a transfer
// completes.
type OwnershipRecord struct {
	ID         string
	PropertyID string
	OwnerID    string
	TransferID *string
	OwnedUntil time.Time
}

// RegisterParams enumerates the fields a citizen submits for registration.
type RegisterParams struct {
	PlotNumber   string
	Location     Location
	PropertyType Type
	AreaSqm      float64
	OwnerID      string
}

func validType(t Type) bool {
	switch t {
	case TypeResidential, TypeCommercial, TypeIndustrial, TypeAgricultural:
		return true
	default:
		return false
	}
}
