package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"landflow/audit"
	"landflow/auth"
	"landflow/dispute"
	"landflow/metrics"
	"landflow/property"
	"landflow/transfer"
	"landflow/workflow"
)

type ctxKey int

const ctxKeyActor ctxKey = iota

type authService interface {
	Register(ctx context.Context, req auth.RegisterRequest) (*auth.User, error)
	Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResult, error)
	VerifyToken(token string) (auth.Actor, error)
}

type propertyService interface {
	Register(ctx context.Context, actor auth.Actor, params property.RegisterParams) (property.Property, error)
	RequestTransition(ctx context.Context, params property.TransitionParams) (property.Property, error)
	Get(ctx context.Context, id string) (property.Property, error)
	ListByOwner(ctx context.Context, ownerID string) ([]property.Property, error)
}

type transferService interface {
	Initiate(ctx context.Context, actor auth.Actor, params transfer.InitiateParams) (transfer.Transfer, error)
	UploadDocuments(ctx context.Context, actor auth.Actor, transferID string, docs []transfer.DocumentInput) (transfer.Transfer, error)
	ReviewDocuments(ctx context.Context, actor auth.Actor, params transfer.ReviewParams) (transfer.Transfer, error)
	PerformComplianceChecks(ctx context.Context, actor auth.Actor, transferID string, checks transfer.ComplianceChecks) (transfer.Transfer, error)
	Decide(ctx context.Context, actor auth.Actor, params transfer.DecisionParams) (transfer.Transfer, error)
	Complete(ctx context.Context, actor auth.Actor, transferID string) (transfer.Transfer, error)
	Cancel(ctx context.Context, actor auth.Actor, transferID, reason string) (transfer.Transfer, error)
	Get(ctx context.Context, id string) (transfer.Transfer, error)
	Timeline(ctx context.Context, transferID string) ([]transfer.TimelineEvent, error)
	Documents(ctx context.Context, transferID string) ([]transfer.Document, error)
	ListByProperty(ctx context.Context, propertyID string) ([]transfer.Transfer, error)
}

type disputeService interface {
	Submit(ctx context.Context, actor auth.Actor, params dispute.SubmitParams) (dispute.Dispute, error)
	AddEvidence(ctx context.Context, actor auth.Actor, disputeID string, items []dispute.EvidenceInput) ([]dispute.Evidence, error)
	BeginReview(ctx context.Context, actor auth.Actor, disputeID, notes string) (dispute.Dispute, error)
	Assign(ctx context.Context, actor auth.Actor, disputeID, notes string) (dispute.Dispute, error)
	ScheduleMediation(ctx context.Context, actor auth.Actor, disputeID, notes string) (dispute.Dispute, error)
	Resolve(ctx context.Context, actor auth.Actor, disputeID, outcome string) (dispute.Dispute, error)
	Withdraw(ctx context.Context, actor auth.Actor, disputeID, reason string) (dispute.Dispute, error)
	Get(ctx context.Context, id string) (dispute.Dispute, error)
	Timeline(ctx context.Context, disputeID string) ([]dispute.TimelineEvent, error)
	Evidence(ctx context.Context, disputeID string) ([]dispute.Evidence, error)
	ListByProperty(ctx context.Context, propertyID string) ([]dispute.Dispute, error)
}

type auditTrail interface {
	ListByProperty(ctx context.Context, propertyID string) ([]audit.Record, error)
}

// Server routes HTTP requests into the workflow services.
type Server struct {
	authService     authService
	propertyService propertyService
	transferService transferService
	disputeService  disputeService
	auditTrail      auditTrail
	metrics         *metrics.Metrics
	logger          *slog.Logger
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/register", s.handleAuthRegister)
	mux.HandleFunc("/api/auth/login", s.handleAuthLogin)
	mux.HandleFunc("/api/properties", s.requireAuth(s.handleProperties))
	mux.HandleFunc("/api/properties/", s.requireAuth(s.handlePropertyDetail))
	mux.HandleFunc("/api/transfers", s.requireAuth(s.handleTransfers))
	mux.HandleFunc("/api/transfers/", s.requireAuth(s.handleTransferDetail))
	mux.HandleFunc("/api/disputes", s.requireAuth(s.handleDisputes))
	mux.HandleFunc("/api/disputes/", s.requireAuth(s.handleDisputeDetail))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requireAuth resolves the bearer token into an Actor and stashes it in the
// request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			s.writeErrorMessage(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		actor, err := s.authService.VerifyToken(token)
		if err != nil {
			s.writeErrorMessage(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), ctxKeyActor, actor)))
	}
}

func actorFrom(r *http.Request) (auth.Actor, bool) {
	actor, ok := r.Context().Value(ctxKeyActor).(auth.Actor)
	return actor, ok
}

func statusForKind(kind workflow.Kind) int {
	switch kind {
	case workflow.KindValidation:
		return http.StatusBadRequest
	case workflow.KindNotFound:
		return http.StatusNotFound
	case workflow.KindNotOwner, workflow.KindForbidden:
		return http.StatusForbidden
	case workflow.KindInvalidTransition, workflow.KindAlreadyActive:
		return http.StatusConflict
	case workflow.KindCompliance:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeWorkflowError translates a coordinator error into an HTTP rejection.
func (s *Server) writeWorkflowError(w http.ResponseWriter, r *http.Request, err error) {
	kind := workflow.KindOf(err)
	status := statusForKind(kind)
	if status == http.StatusInternalServerError {
		s.log().Error("request failed", "path", r.URL.Path, "error", err)
		s.writeErrorMessage(w, status, "internal error")
		return
	}
	s.log().Warn("request rejected", "path", r.URL.Path, "kind", string(kind), "reason", err.Error())
	s.metrics.IncRejection(string(kind))
	s.writeErrorMessage(w, status, err.Error())
}

func (s *Server) writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("encode response", "error", err)
	}
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func (s *Server) log() *slog.Logger {
	if s.logger == nil {
		return slog.Default()
	}
	return s.logger
}
