package property

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"landflow/audit"
	"landflow/auth"
	"landflow/metrics"
	"landflow/notify"
	"landflow/workflow"
)

// TxBeginner abstracts pgxpool.Pool for testability.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// AuditRecorder appends application log entries inside the caller's transaction.
type AuditRecorder interface {
	Append(ctx context.Context, tx pgx.Tx, entry audit.Entry) error
}

// OutboxWriter enqueues notification messages inside the caller's transaction.
type OutboxWriter interface {
	Enqueue(ctx context.Context, tx pgx.Tx, topic string, payload map[string]any) error
}

// Service owns the registration state machine. It is the only component that
// mutates property.status directly; ownership and dispute flags belong to the
// transfer and dispute coordinators.
type Service struct {
	pool    TxBeginner
	repo    Repository
	auditor AuditRecorder
	outbox  OutboxWriter
	metrics *metrics.Metrics
}

func NewService(pool TxBeginner, repo Repository, auditor AuditRecorder, outbox OutboxWriter) *Service {
	if auditor == nil {
		auditor = audit.NewRecorder()
	}
	if outbox == nil {
		outbox = notify.NewOutbox()
	}
	return &Service{
		pool:    pool,
		repo:    repo,
		auditor: auditor,
		outbox:  outbox,
	}
}

func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

// Register submits a new parcel for registration on behalf of the actor.
func (s *Service) Register(ctx context.Context, actor auth.Actor, params RegisterParams) (Property, error) {
	if strings.TrimSpace(params.PlotNumber) == "" {
		return Property{}, workflow.NewError(workflow.KindValidation, "plot number is required")
	}
	if params.Location.Region == "" || params.Location.SubCity == "" || params.Location.Kebele == "" {
		return Property{}, workflow.NewError(workflow.KindValidation, "region, sub-city and kebele are required")
	}
	if !validType(params.PropertyType) {
		return Property{}, workflow.NewError(workflow.KindValidation,
			fmt.Sprintf("unknown property type %q", params.PropertyType))
	}
	if params.AreaSqm <= 0 {
		return Property{}, workflow.NewError(workflow.KindValidation, "area must be a positive number of square meters")
	}
	params.OwnerID = actor.ID

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Property{}, fmt.Errorf("property: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	prop, err := s.repo.Insert(ctx, tx, params)
	if err != nil {
		return Property{}, err
	}

	if err := s.auditor.Append(ctx, tx, audit.Entry{
		PropertyID:  prop.ID,
		PerformedBy: actor.ID,
		ActorRole:   string(actor.Role),
		Action:      audit.ActionPropertyRegistered,
		Status:      string(prop.Status),
		Notes:       "registration submitted",
		Metadata:    map[string]any{"plot_number": prop.PlotNumber},
	}); err != nil {
		return Property{}, err
	}

	if err := s.outbox.Enqueue(ctx, tx, notify.TopicPropertyRegistered, map[string]any{
		"property_id": prop.ID,
		"owner_id":    prop.OwnerID,
	}); err != nil {
		return Property{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Property{}, fmt.Errorf("property: commit register: %w", err)
	}

	s.metrics.IncTransition("property", string(audit.ActionPropertyRegistered))
	return prop, nil
}

// TransitionParams describe one requested status change.
type TransitionParams struct {
	PropertyID string
	Target     Status
	Actor      auth.Actor
	Notes      string
}

// RequestTransition validates and applies one edge of the registration state
// machine, writing the audit entry in the same transaction. Entering rejected
// or needs_update leaves has_active_dispute and current_transfer_id untouched;
// those are independent locks owned by the other coordinators.
func (s *Service) RequestTransition(ctx context.Context, params TransitionParams) (Property, error) {
	if params.Target == StatusTransferred {
		// Only a completed transfer moves a parcel to transferred.
		return Property{}, workflow.NewError(workflow.KindInvalidTransition,
			"a property becomes transferred only through a completed ownership transfer")
	}
	if !Transitions.Known(string(params.Target)) {
		return Property{}, workflow.NewError(workflow.KindValidation,
			fmt.Sprintf("unknown property status %q", params.Target))
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Property{}, fmt.Errorf("property: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	prop, err := s.repo.GetForUpdate(ctx, tx, params.PropertyID)
	if err != nil {
		return Property{}, err
	}

	// Resubmission (needs_update -> pending) belongs to the owner; every other
	// edge is an officer/admin decision.
	resubmission := prop.Status == StatusNeedsUpdate && params.Target == StatusPending
	if resubmission {
		if prop.OwnerID != params.Actor.ID {
			return Property{}, workflow.NewError(workflow.KindNotOwner, "only the owner may resubmit a registration")
		}
	} else if !params.Actor.CanReview() {
		return Property{}, workflow.NewError(workflow.KindForbidden, "only land officers may change a registration status")
	}

	if err := Transitions.Step(string(prop.Status), string(params.Target)); err != nil {
		return Property{}, err
	}

	updated, err := s.repo.SetStatus(ctx, tx, prop.ID, params.Target)
	if err != nil {
		return Property{}, err
	}

	if err := s.auditor.Append(ctx, tx, audit.Entry{
		PropertyID:  updated.ID,
		PerformedBy: params.Actor.ID,
		ActorRole:   string(params.Actor.Role),
		Action:      audit.ActionStatusChanged,
		Status:      string(updated.Status),
		Notes:       params.Notes,
		Metadata: map[string]any{
			"previous_status": string(prop.Status),
			"next_status":     string(updated.Status),
		},
	}); err != nil {
		return Property{}, err
	}

	if err := s.outbox.Enqueue(ctx, tx, notify.TopicPropertyStatusChanged, map[string]any{
		"property_id": updated.ID,
		"previous":    string(prop.Status),
		"next":        string(updated.Status),
	}); err != nil {
		return Property{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Property{}, fmt.Errorf("property: commit transition: %w", err)
	}

	s.metrics.IncTransition("property", string(audit.ActionStatusChanged))
	return updated, nil
}

// Get fetches a parcel by id.
func (s *Service) Get(ctx context.Context, id string) (Property, error) {
	return s.repo.Get(ctx, id)
}

// ListByOwner returns the actor's parcels.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]Property, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}
