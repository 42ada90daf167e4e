package main

import (
	"net/http"
	"strings"

	"landflow/property"
)

type registerPropertyRequest struct {
	PlotNumber   string  `json:"plotNumber"`
	Region       string  `json:"region"`
	SubCity      string  `json:"subCity"`
	Kebele       string  `json:"kebele"`
	Street       *string `json:"street"`
	HouseNumber  *string `json:"houseNumber"`
	PropertyType string  `json:"propertyType"`
	AreaSqm      float64 `json:"areaSqm"`
}

func (s *Server) handleProperties(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		s.writeErrorMessage(w, http.StatusUnauthorized, "missing actor")
		return
	}

	switch r.Method {
	case http.MethodPost:
		var req registerPropertyRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
			return
		}
		prop, err := s.propertyService.Register(r.Context(), actor, property.RegisterParams{
			PlotNumber: req.PlotNumber,
			Location: property.Location{
				Region:      req.Region,
				SubCity:     req.SubCity,
				Kebele:      req.Kebele,
				Street:      req.Street,
				HouseNumber: req.HouseNumber,
			},
			PropertyType: property.Type(req.PropertyType),
			AreaSqm:      req.AreaSqm,
		})
		if err != nil {
			s.writeWorkflowError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, toPropertyResponse(prop))

	case http.MethodGet:
		props, err := s.propertyService.ListByOwner(r.Context(), actor.ID)
		if err != nil {
			s.writeWorkflowError(w, r, err)
			return
		}
		items := make([]propertyResponse, 0, len(props))
		for _, p := range props {
			items = append(items, toPropertyResponse(p))
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})

	default:
		s.writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type statusChangeRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

func (s *Server) handlePropertyDetail(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		s.writeErrorMessage(w, http.StatusUnauthorized, "missing actor")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/properties/")
	parts := strings.Split(rest, "/")
	id := parts[0]
	if id == "" {
		s.writeErrorMessage(w, http.StatusBadRequest, "missing property id")
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		prop, err := s.propertyService.Get(r.Context(), id)
		if err != nil {
			s.writeWorkflowError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, toPropertyResponse(prop))

	case len(parts) == 2 && parts[1] == "status" && r.Method == http.MethodPut:
		var req statusChangeRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
			return
		}
		prop, err := s.propertyService.RequestTransition(r.Context(), property.TransitionParams{
			PropertyID: id,
			Target:     property.Status(req.Status),
			Actor:      actor,
			Notes:      req.Notes,
		})
		if err != nil {
			s.writeWorkflowError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, toPropertyResponse(prop))

	case len(parts) == 2 && parts[1] == "audit" && r.Method == http.MethodGet:
		records, err := s.auditTrail.ListByProperty(r.Context(), id)
		if err != nil {
			s.writeWorkflowError(w, r, err)
			return
		}
		items := make([]auditResponse, 0, len(records))
		for _, rec := range records {
			items = append(items, toAuditResponse(rec))
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})

	case len(parts) == 2 && parts[1] == "transfers" && r.Method == http.MethodGet:
		transfers, err := s.transferService.ListByProperty(r.Context(), id)
		if err != nil {
			s.writeWorkflowError(w, r, err)
			return
		}
		items := make([]transferResponse, 0, len(transfers))
		for _, t := range transfers {
			items = append(items, toTransferResponse(t))
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})

	case len(parts) == 2 && parts[1] == "disputes" && r.Method == http.MethodGet:
		disputes, err := s.disputeService.ListByProperty(r.Context(), id)
		if err != nil {
			s.writeWorkflowError(w, r, err)
			return
		}
		items := make([]disputeResponse, 0, len(disputes))
		for _, d := range disputes {
			items = append(items, toDisputeResponse(d))
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})

	default:
		s.writeErrorMessage(w, http.StatusNotFound, "unknown route")
	}
}
