package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"landflow/auth"
	"landflow/dispute"
)

type evidenceItemRequest struct {
	DocType     string `json:"docType"`
	FileID      string `json:"fileId"`
	Description string `json:"description"`
}

type submitDisputeRequest struct {
	PropertyID  string                `json:"propertyId"`
	DisputeType string                `json:"disputeType"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Evidence    []evidenceItemRequest `json:"evidence"`
}

func (s *Server) handleDisputes(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		s.writeErrorMessage(w, http.StatusUnauthorized, "missing actor")
		return
	}
	if r.Method != http.MethodPost {
		s.writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req submitDisputeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	evidence := make([]dispute.EvidenceInput, 0, len(req.Evidence))
	for _, item := range req.Evidence {
		evidence = append(evidence, dispute.EvidenceInput{
			DocType:     dispute.EvidenceType(item.DocType),
			FileID:      item.FileID,
			Description: item.Description,
		})
	}

	d, err := s.disputeService.Submit(r.Context(), actor, dispute.SubmitParams{
		PropertyID:  req.PropertyID,
		DisputeType: dispute.Type(req.DisputeType),
		Title:       req.Title,
		Description: req.Description,
		Evidence:    evidence,
	})
	if err != nil {
		s.writeWorkflowError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toDisputeResponse(d))
}

type notesRequest struct {
	Notes string `json:"notes"`
}

type resolveRequest struct {
	Outcome string `json:"outcome"`
}

type withdrawRequest struct {
	Reason string `json:"reason"`
}

type addEvidenceRequest struct {
	Evidence []evidenceItemRequest `json:"evidence"`
}

func (s *Server) handleDisputeDetail(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		s.writeErrorMessage(w, http.StatusUnauthorized, "missing actor")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/disputes/")
	parts := strings.Split(rest, "/")
	id := parts[0]
	if id == "" {
		s.writeErrorMessage(w, http.StatusBadRequest, "missing dispute id")
		return
	}

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			s.writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		d, err := s.disputeService.Get(r.Context(), id)
		if err != nil {
			s.writeWorkflowError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, toDisputeResponse(d))
		return
	}
	if len(parts) != 2 {
		s.writeErrorMessage(w, http.StatusNotFound, "unknown route")
		return
	}

	switch parts[1] {
	case "evidence":
		switch r.Method {
		case http.MethodPost:
			var req addEvidenceRequest
			if err := decodeJSON(r, &req); err != nil {
				s.writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
				return
			}
			items := make([]dispute.EvidenceInput, 0, len(req.Evidence))
			for _, item := range req.Evidence {
				items = append(items, dispute.EvidenceInput{
					DocType:     dispute.EvidenceType(item.DocType),
					FileID:      item.FileID,
					Description: item.Description,
				})
			}
			stored, err := s.disputeService.AddEvidence(r.Context(), actor, id, items)
			if err != nil {
				s.writeWorkflowError(w, r, err)
				return
			}
			out := make([]evidenceResponse, 0, len(stored))
			for _, e := range stored {
				out = append(out, toEvidenceResponse(e))
			}
			s.writeJSON(w, http.StatusOK, map[string]any{"items": out, "total": len(out)})
		case http.MethodGet:
			stored, err := s.disputeService.Evidence(r.Context(), id)
			if err != nil {
				s.writeWorkflowError(w, r, err)
				return
			}
			out := make([]evidenceResponse, 0, len(stored))
			for _, e := range stored {
				out = append(out, toEvidenceResponse(e))
			}
			s.writeJSON(w, http.StatusOK, map[string]any{"items": out, "total": len(out)})
		default:
			s.writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		}

	case "review":
		s.handleDisputeStep(w, r, id, actor, s.disputeService.BeginReview)

	case "assign":
		s.handleDisputeStep(w, r, id, actor, s.disputeService.Assign)

	case "mediation":
		s.handleDisputeStep(w, r, id, actor, s.disputeService.ScheduleMediation)

	case "resolve":
		if r.Method != http.MethodPost {
			s.writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var req resolveRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
			return
		}
		d, err := s.disputeService.Resolve(r.Context(), actor, id, req.Outcome)
		if err != nil {
			s.writeWorkflowError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, toDisputeResponse(d))

	case "withdraw":
		if r.Method != http.MethodPut {
			s.writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var req withdrawRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
			return
		}
		d, err := s.disputeService.Withdraw(r.Context(), actor, id, req.Reason)
		if err != nil {
			s.writeWorkflowError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, toDisputeResponse(d))

	case "timeline":
		if r.Method != http.MethodGet {
			s.writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		events, err := s.disputeService.Timeline(r.Context(), id)
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

type disputeStepFunc func(ctx context.Context, actor auth.Actor, disputeID, notes string) (dispute.Dispute, error)

// handleDisputeStep serves the officer-driven transitions that differ only in
// the target state.
func (s *Server) handleDisputeStep(w http.ResponseWriter, r *http.Request, id string, actor auth.Actor, step disputeStepFunc) {
	if r.Method != http.MethodPost {
		s.writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req notesRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	d, err := step(r.Context(), actor, id, req.Notes)
	if err != nil {
		s.writeWorkflowError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toDisputeResponse(d))
}
