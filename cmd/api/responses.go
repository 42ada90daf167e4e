package main

import (
	"time"

	"landflow/audit"
	"landflow/dispute"
	"landflow/property"
	"landflow/transfer"
)

type userResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

type propertyResponse struct {
	ID                string  `json:"id"`
	PlotNumber        string  `json:"plotNumber"`
	Region            string  `json:"region"`
	SubCity           string  `json:"subCity"`
	Kebele            string  `json:"kebele"`
	PropertyType      string  `json:"propertyType"`
	AreaSqm           float64 `json:"areaSqm"`
	Status            string  `json:"status"`
	OwnerID           string  `json:"ownerId"`
	CurrentTransferID *string `json:"currentTransferId,omitempty"`
	HasActiveDispute  bool    `json:"hasActiveDispute"`
	CreatedAt         string  `json:"createdAt"`
}

func toPropertyResponse(p property.Property) propertyResponse {
	return propertyResponse{
		ID:                p.ID,
		PlotNumber:        p.PlotNumber,
		Region:            p.Location.Region,
		SubCity:           p.Location.SubCity,
		Kebele:            p.Location.Kebele,
		PropertyType:      string(p.PropertyType),
		AreaSqm:           p.AreaSqm,
		Status:            string(p.Status),
		OwnerID:           p.OwnerID,
		CurrentTransferID: p.CurrentTransferID,
		HasActiveDispute:  p.HasActiveDispute,
		CreatedAt:         p.CreatedAt.Format(time.RFC3339),
	}
}

type checkResponse struct {
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
	Risk   string `json:"riskLevel,omitempty"`
}

type transferResponse struct {
	ID              string        `json:"id"`
	PropertyID      string        `json:"propertyId"`
	PreviousOwnerID string        `json:"previousOwnerId"`
	NewOwnerID      string        `json:"newOwnerId"`
	TransferType    string        `json:"transferType"`
	TransferValue   float64       `json:"transferValue"`
	Currency        string        `json:"currency"`
	TransferReason  string        `json:"transferReason,omitempty"`
	Status          string        `json:"status"`
	EthiopianLaw    checkResponse `json:"ethiopianLaw"`
	TaxClearance    checkResponse `json:"taxClearance"`
	FraudPrevention checkResponse `json:"fraudPrevention"`
	DecisionNotes   *string       `json:"decisionNotes,omitempty"`
	CreatedAt       string        `json:"createdAt"`
}

func toTransferResponse(t transfer.Transfer) transferResponse {
	return transferResponse{
		ID:              t.ID,
		PropertyID:      t.PropertyID,
		PreviousOwnerID: t.PreviousOwnerID,
		NewOwnerID:      t.NewOwnerID,
		TransferType:    string(t.TransferType),
		TransferValue:   t.TransferValue,
		Currency:        t.Currency,
		TransferReason:  t.TransferReason,
		Status:          string(t.Status),
		EthiopianLaw:    checkResponse{Status: string(t.Compliance.EthiopianLaw.Status), Notes: t.Compliance.EthiopianLaw.Notes},
		TaxClearance:    checkResponse{Status: string(t.Compliance.TaxClearance.Status), Notes: t.Compliance.TaxClearance.Notes},
		FraudPrevention: checkResponse{
			Status: string(t.Compliance.FraudPrevention.Status),
			Notes:  t.Compliance.FraudPrevention.Notes,
			Risk:   string(t.Compliance.FraudPrevention.Risk),
		},
		DecisionNotes: t.DecisionNotes,
		CreatedAt:     t.CreatedAt.Format(time.RFC3339),
	}
}

type documentResponse struct {
	ID           string  `json:"id"`
	DocType      string  `json:"docType"`
	FileID       string  `json:"fileId"`
	ReviewStatus string  `json:"reviewStatus"`
	ReviewNotes  *string `json:"reviewNotes,omitempty"`
	UploadedAt   string  `json:"uploadedAt"`
}

func toDocumentResponse(d transfer.Document) documentResponse {
	return documentResponse{
		ID:           d.ID,
		DocType:      string(d.DocType),
		FileID:       d.FileID,
		ReviewStatus: string(d.ReviewStatus),
		ReviewNotes:  d.ReviewNotes,
		UploadedAt:   d.UploadedAt.Format(time.RFC3339),
	}
}

type timelineResponse struct {
	Seq       int     `json:"seq"`
	Action    string  `json:"action"`
	ActorID   *string `json:"actorId,omitempty"`
	ActorRole string  `json:"actorRole"`
	Notes     string  `json:"notes,omitempty"`
	CreatedAt string  `json:"createdAt"`
}

type disputeResponse struct {
	ID                string  `json:"id"`
	PropertyID        string  `json:"propertyId"`
	DisputantID       string  `json:"disputantId"`
	DisputeType       string  `json:"disputeType"`
	Title             string  `json:"title"`
	Description       string  `json:"description,omitempty"`
	Status            string  `json:"status"`
	ResolutionOutcome *string `json:"resolutionOutcome,omitempty"`
	ResolvedBy        *string `json:"resolvedBy,omitempty"`
	CreatedAt         string  `json:"createdAt"`
}

func toDisputeResponse(d dispute.Dispute) disputeResponse {
	return disputeResponse{
		ID:                d.ID,
		PropertyID:        d.PropertyID,
		DisputantID:       d.DisputantID,
		DisputeType:       string(d.DisputeType),
		Title:             d.Title,
		Description:       d.Description,
		Status:            string(d.Status),
		ResolutionOutcome: d.ResolutionOutcome,
		ResolvedBy:        d.ResolvedBy,
		CreatedAt:         d.CreatedAt.Format(time.RFC3339),
	}
}

type evidenceResponse struct {
	ID          string `json:"id"`
	DocType     string `json:"docType"`
	FileID      string `json:"fileId"`
	Description string `json:"description,omitempty"`
	AddedAt     string `json:"addedAt"`
}

func toEvidenceResponse(e dispute.Evidence) evidenceResponse {
	return evidenceResponse{
		ID:          e.ID,
		DocType:     string(e.DocType),
		FileID:      e.FileID,
		Description: e.Description,
		AddedAt:     e.AddedAt.Format(time.RFC3339),
	}
}

type auditResponse struct {
	Action      string `json:"action"`
	PerformedBy string `json:"performedBy,omitempty"`
	ActorRole   string `json:"actorRole"`
	Status      string `json:"status"`
	Notes       string `json:"notes,omitempty"`
	CreatedAt   string `json:"createdAt"`
}

func toAuditResponse(rec audit.Record) auditResponse {
	return auditResponse{
		Action:      string(rec.Action),
		PerformedBy: rec.PerformedBy,
		ActorRole:   rec.ActorRole,
		Status:      rec.Status,
		Notes:       rec.Notes,
		CreatedAt:   rec.CreatedAt.Format(time.RFC3339),
	}
}
