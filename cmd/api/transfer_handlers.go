package main

import (
	"net/http"
	"strings"
	"time"

	"landflow/transfer"
)

type initiateTransferRequest struct {
	PropertyID     string  `json:"propertyId"`
	NewOwnerEmail  string  `json:"newOwnerEmail"`
	TransferType   string  `json:"transferType"`
	TransferValue  float64 `json:"transferValue"`
	Currency       string  `json:"currency"`
	TransferReason string  `json:"transferReason"`
}

func (s *Server) handleTransfers(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		s.writeErrorMessage(w, http.StatusUnauthorized, "missing actor")
		return
	}
	if r.Method != http.MethodPost {
		s.writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req initiateTransferRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tr, err := s.transferService.Initiate(r.Context(), actor, transfer.InitiateParams{
		PropertyID:     req.PropertyID,
		NewOwnerEmail:  req.NewOwnerEmail,
		TransferType:   transfer.TransferType(req.TransferType),
		TransferValue:  req.TransferValue,
		Currency:       req.Currency,
		TransferReason: req.TransferReason,
	})
	if err != nil {
		s.writeWorkflowError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toTransferResponse(tr))
}

type uploadDocumentsRequest struct {
	Documents []struct {
		DocType string `json:"docType"`
		FileID  string `json:"fileId"`
	} `json:"documents"`
}

type reviewDocumentsRequest struct {
	Reviews []struct {
		DocumentID string `json:"documentId"`
		Verdict    string `json:"verdict"`
		Notes      string `json:"notes"`
	} `json:"reviews"`
	Notes string `json:"notes"`
}

type complianceRequest struct {
	EthiopianLaw struct {
		Status string `json:"status"`
		Notes  string `json:"notes"`
	} `json:"ethiopianLaw"`
	TaxClearance struct {
		Status string `json:"status"`
		Notes  string `json:"notes"`
	} `json:"taxClearance"`
	FraudPrevention struct {
		Status string `json:"status"`
		Notes  string `json:"notes"`
		Risk   string `json:"riskLevel"`
	} `json:"fraudPrevention"`
}

type decisionRequest struct {
	Approve bool   `json:"approve"`
	Notes   string `json:"notes"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleTransferDetail(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		s.writeErrorMessage(w, http.StatusUnauthorized, "missing actor")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/transfers/")
	parts := strings.Split(rest, "/")
	id := parts[0]
	if id == "" {
		s.writeErrorMessage(w, http.StatusBadRequest, "missing transfer id")
		return
	}

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			s.writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		tr, err := s.transferService.Get(r.Context(), id)
		if err != nil {
			s.writeWorkflowError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, toTransferResponse(tr))
		return
	}
	if len(parts) != 2 {
		s.writeErrorMessage(w, http.StatusNotFound, "unknown route")
		return
	}

	switch parts[1] {
	case "documents":
		switch r.Method {
		case http.MethodPost:
			var req uploadDocumentsRequest
			if err := decodeJSON(r, &req); err != nil {
				s.writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
				return
			}
			docs := make([]transfer.DocumentInput, 0, len(req.Documents))
			for _, d := range req.Documents {
				docs = append(docs, transfer.DocumentInput{DocType: transfer.DocType(d.DocType), FileID: d.FileID})
			}
			tr, err := s.transferService.UploadDocuments(r.Context(), actor, id, docs)
			if err != nil {
				s.writeWorkflowError(w, r, err)
				return
			}
			s.writeJSON(w, http.StatusOK, toTransferResponse(tr))
		case http.MethodGet:
			docs, err := s.transferService.Documents(r.Context(), id)
			if err != nil {
				s.writeWorkflowError(w, r, err)
				return
			}
			items := make([]documentResponse, 0, len(docs))
			for _, d := range docs {
				items = append(items, toDocumentResponse(d))
			}
			s.writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
		default:
			s.writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		}

	case "review-documents":
		if r.Method != http.MethodPut {
			s.writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var req reviewDocumentsRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
			return
		}
		reviews := make([]transfer.DocumentReview, 0, len(req.Reviews))
		for _, rv := range req.Reviews {
			reviews = append(reviews, transfer.DocumentReview{
				DocumentID: rv.DocumentID,
				Verdict:    transfer.ReviewVerdict(rv.Verdict),
				Notes:      rv.Notes,
			})
		}
		tr, err := s.transferService.ReviewDocuments(r.Context(), actor, transfer.ReviewParams{
			TransferID: id,
			Reviews:    reviews,
			Notes:      req.Notes,
		})
		if err != nil {
			s.writeWorkflowError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, toTransferResponse(tr))

	case "compliance":
		if r.Method != http.MethodPut {
			s.writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var req complianceRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
			return
		}
		tr, err := s.transferService.PerformComplianceChecks(r.Context(), actor, id, transfer.ComplianceChecks{
			EthiopianLaw: transfer.SubCheck{Status: transfer.CheckStatus(req.EthiopianLaw.Status), Notes: req.EthiopianLaw.Notes},
			TaxClearance: transfer.SubCheck{Status: transfer.CheckStatus(req.TaxClearance.Status), Notes: req.TaxClearance.Notes},
			FraudPrevention: transfer.FraudCheck{
				Status: transfer.CheckStatus(req.FraudPrevention.Status),
				Notes:  req.FraudPrevention.Notes,
				Risk:   transfer.RiskLevel(req.FraudPrevention.Risk),
			},
		})
		if err != nil {
			s.writeWorkflowError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, toTransferResponse(tr))

	case "approve":
		if r.Method != http.MethodPut {
			s.writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var req decisionRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
			return
		}
		tr, err := s.transferService.Decide(r.Context(), actor, transfer.DecisionParams{
			TransferID: id,
			Approve:    req.Approve,
			Notes:      req.Notes,
		})
		if err != nil {
			s.writeWorkflowError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, toTransferResponse(tr))

	case "complete":
		if r.Method != http.MethodPut {
			s.writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		tr, err := s.transferService.Complete(r.Context(), actor, id)
		if err != nil {
			s.writeWorkflowError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, toTransferResponse(tr))

	case "cancel":
		if r.Method != http.MethodPut {
			s.writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var req cancelRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
			return
		}
		tr, err := s.transferService.Cancel(r.Context(), actor, id, req.Reason)
		if err != nil {
			s.writeWorkflowError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, toTransferResponse(tr))

	case "timeline":
		if r.Method != http.MethodGet {
			s.writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		events, err := s.transferService.Timeline(r.Context(), id)
		if err != nil {
			s.writeWorkflowError(w, r, err)
			return
		}
		items := make([]timelineResponse, 0, len(events))
		for _, ev := range events {
			items = append(items, timelineResponse{
				Seq:       ev.Seq,
				Action:    ev.Action,
				ActorID:   ev.ActorID,
				ActorRole: ev.ActorRole,
				Notes:     ev.Notes,
				CreatedAt: ev.CreatedAt.Format(time.RFC3339),
			})
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})

	default:
		s.writeErrorMessage(w, http.StatusNotFound, "unknown route")
	}
}
