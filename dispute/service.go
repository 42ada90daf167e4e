package dispute

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

// Service coordinates disputes. It is the only component that mutates
// property.has_active_dispute, and it always derives the flag from the
// remaining non-terminal disputes rather than flipping it.
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

// SubmitParams is a citizen's claim against a property.
type SubmitParams struct {
	PropertyID  string
	DisputeType Type
	Title       string
	Description string
	Evidence    []EvidenceInput
}

// Submit files a new dispute. The property row lock plus the partial unique
// index guarantee at most one non-terminal dispute per property; the flag on
// the property row is set in the same transaction.
func (s *Service) Submit(ctx context.Context, actor auth.Actor, params SubmitParams) (Dispute, error) {
	if !validType(params.DisputeType) {
		return Dispute{}, workflow.NewError(workflow.KindValidation,
			fmt.Sprintf("unknown dispute type %q", params.DisputeType))
	}
	if strings.TrimSpace(params.Title) == "" {
		return Dispute{}, workflow.NewError(workflow.KindValidation, "title is required")
	}
	if len(params.Title) > 200 {
		return Dispute{}, workflow.NewError(workflow.KindValidation, "title must be 200 characters or fewer")
	}
	if len(params.Description) > 2000 {
		return Dispute{}, workflow.NewError(workflow.KindValidation, "description must be 2000 characters or fewer")
	}
	for _, item := range params.Evidence {
		if !validEvidenceType(item.DocType) {
			return Dispute{}, workflow.NewError(workflow.KindValidation,
				fmt.Sprintf("unknown evidence type %q", item.DocType))
		}
		if strings.TrimSpace(item.FileID) == "" {
			return Dispute{}, workflow.NewError(workflow.KindValidation, "evidence file reference is required")
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Dispute{}, fmt.Errorf("dispute: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	prop, err := s.repo.GetPropertyForUpdate(ctx, tx, params.PropertyID)
	if err != nil {
		return Dispute{}, err
	}
	active, err := s.repo.HasActiveForProperty(ctx, tx, prop.ID)
	if err != nil {
		return Dispute{}, err
	}
	if active {
		return Dispute{}, workflow.NewError(workflow.KindAlreadyActive,
			"there is already an active dispute for this property")
	}

	d, err := s.repo.Insert(ctx, tx, InsertParams{
		PropertyID:  prop.ID,
		DisputantID: actor.ID,
		DisputeType: params.DisputeType,
		Title:       params.Title,
		Description: params.Description,
	})
	if err != nil {
		return Dispute{}, err
	}

	if err := s.repo.SetDisputeFlag(ctx, tx, prop.ID, true); err != nil {
		return Dispute{}, err
	}
	if len(params.Evidence) > 0 {
		if _, err := s.repo.AddEvidence(ctx, tx, d.ID, params.Evidence); err != nil {
			return Dispute{}, err
		}
	}
	if err := s.repo.AppendEvent(ctx, tx, d.ID, string(audit.ActionDisputeSubmitted), actor.ID, string(actor.Role), params.Title); err != nil {
		return Dispute{}, err
	}
	if err := s.auditor.Append(ctx, tx, audit.Entry{
		PropertyID:  prop.ID,
		PerformedBy: actor.ID,
		ActorRole:   string(actor.Role),
		Action:      audit.ActionDisputeSubmitted,
		Status:      string(d.Status),
		Notes:       params.Title,
		Metadata:    map[string]any{"dispute_id": d.ID, "dispute_type": string(d.DisputeType)},
	}); err != nil {
		return Dispute{}, err
	}
	if err := s.outbox.Enqueue(ctx, tx, notify.TopicDisputeSubmitted, map[string]any{
		"dispute_id":  d.ID,
		"property_id": prop.ID,
	}); err != nil {
		return Dispute{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Dispute{}, fmt.Errorf("dispute: commit submit: %w", err)
	}

	s.metrics.IncTransition("dispute", string(audit.ActionDisputeSubmitted))
	return d, nil
}

// AddEvidence appends supporting records to a live dispute. Only the original
// disputant may add evidence, and only while the dispute is non-terminal.
func (s *Service) AddEvidence(ctx context.Context, actor auth.Actor, disputeID string, items []EvidenceInput) ([]Evidence, error) {
	if len(items) == 0 {
		return nil, workflow.NewError(workflow.KindValidation, "at least one evidence item is required")
	}
	for _, item := range items {
		if !validEvidenceType(item.DocType) {
			return nil, workflow.NewError(workflow.KindValidation,
				fmt.Sprintf("unknown evidence type %q", item.DocType))
		}
		if strings.TrimSpace(item.FileID) == "" {
			return nil, workflow.NewError(workflow.KindValidation, "evidence file reference is required")
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("dispute: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	d, err := s.repo.GetForUpdate(ctx, tx, disputeID)
	if err != nil {
		return nil, err
	}
	if d.DisputantID != actor.ID {
		return nil, workflow.NewError(workflow.KindForbidden, "only the disputant may add evidence")
	}
	if d.Status.Terminal() {
		return nil, workflow.NewError(workflow.KindInvalidTransition,
			fmt.Sprintf("evidence cannot be added to a %s dispute", d.Status))
	}

	out, err := s.repo.AddEvidence(ctx, tx, d.ID, items)
	if err != nil {
		return nil, err
	}

	if err := s.repo.AppendEvent(ctx, tx, d.ID, string(audit.ActionEvidenceAdded), actor.ID, string(actor.Role),
		fmt.Sprintf("%d evidence item(s) added", len(items))); err != nil {
		return nil, err
	}
	if err := s.auditor.Append(ctx, tx, audit.Entry{
		PropertyID:  d.PropertyID,
		PerformedBy: actor.ID,
		ActorRole:   string(actor.Role),
		Action:      audit.ActionEvidenceAdded,
		Status:      string(d.Status),
		Notes:       fmt.Sprintf("%d evidence item(s) added", len(items)),
		Metadata:    map[string]any{"dispute_id": d.ID, "count": len(items)},
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("dispute: commit evidence: %w", err)
	}

	s.metrics.IncTransition("dispute", string(audit.ActionEvidenceAdded))
	return out, nil
}

// BeginReview moves a submitted dispute under officer review.
func (s *Service) BeginReview(ctx context.Context, actor auth.Actor, disputeID, notes string) (Dispute, error) {
	return s.step(ctx, actor, disputeID, StatusUnderReview, audit.ActionDisputeReviewStarted, notes)
}

// Assign opens the investigation phase.
func (s *Service) Assign(ctx context.Context, actor auth.Actor, disputeID, notes string) (Dispute, error) {
	return s.step(ctx, actor, disputeID, StatusInvestigation, audit.ActionDisputeAssigned, notes)
}

// ScheduleMediation moves an investigated dispute into mediation. From here
// withdrawal is no longer possible.
func (s *Service) ScheduleMediation(ctx context.Context, actor auth.Actor, disputeID, notes string) (Dispute, error) {
	return s.step(ctx, actor, disputeID, StatusMediation, audit.ActionMediationScheduled, notes)
}

// step is the shared officer-driven transition: guard, move, log.
func (s *Service) step(ctx context.Context, actor auth.Actor, disputeID string, target Status, action audit.Action, notes string) (Dispute, error) {
	if !actor.CanReview() {
		return Dispute{}, workflow.NewError(workflow.KindForbidden, "only land officers may manage disputes")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Dispute{}, fmt.Errorf("dispute: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	d, err := s.repo.GetForUpdate(ctx, tx, disputeID)
	if err != nil {
		return Dispute{}, err
	}
	if err := Transitions.Step(string(d.Status), string(target)); err != nil {
		return Dispute{}, err
	}

	updated, err := s.repo.SetStatus(ctx, tx, d.ID, target)
	if err != nil {
		return Dispute{}, err
	}

	if err := s.repo.AppendEvent(ctx, tx, d.ID, string(action), actor.ID, string(actor.Role), notes); err != nil {
		return Dispute{}, err
	}
	if err := s.auditor.Append(ctx, tx, audit.Entry{
		PropertyID:  d.PropertyID,
		PerformedBy: actor.ID,
		ActorRole:   string(actor.Role),
		Action:      action,
		Status:      string(updated.Status),
		Notes:       notes,
		Metadata:    map[string]any{"dispute_id": d.ID},
	}); err != nil {
		return Dispute{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Dispute{}, fmt.Errorf("dispute: commit %s: %w", action, err)
	}

	s.metrics.IncTransition("dispute", string(action))
	return updated, nil
}

// Resolve terminalizes a dispute with a written outcome and recomputes the
// property's dispute flag from the remaining non-terminal disputes.
func (s *Service) Resolve(ctx context.Context, actor auth.Actor, disputeID, outcome string) (Dispute, error) {
	if !actor.CanReview() {
		return Dispute{}, workflow.NewError(workflow.KindForbidden, "only land officers may resolve disputes")
	}
	if strings.TrimSpace(outcome) == "" {
		return Dispute{}, workflow.NewError(workflow.KindValidation, "a resolution outcome is required")
	}
	if len(outcome) > 1000 {
		return Dispute{}, workflow.NewError(workflow.KindValidation, "resolution outcome must be 1000 characters or fewer")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Dispute{}, fmt.Errorf("dispute: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	d, err := s.repo.GetForUpdate(ctx, tx, disputeID)
	if err != nil {
		return Dispute{}, err
	}
	if err := Transitions.Step(string(d.Status), string(StatusResolved)); err != nil {
		return Dispute{}, err
	}

	updated, err := s.repo.SetResolution(ctx, tx, d.ID, outcome, actor.ID)
	if err != nil {
		return Dispute{}, err
	}
	if err := s.recomputeFlag(ctx, tx, d.PropertyID, d.ID); err != nil {
		return Dispute{}, err
	}

	if err := s.repo.AppendEvent(ctx, tx, d.ID, string(audit.ActionDisputeResolved), actor.ID, string(actor.Role), outcome); err != nil {
		return Dispute{}, err
	}
	if err := s.auditor.Append(ctx, tx, audit.Entry{
		PropertyID:  d.PropertyID,
		PerformedBy: actor.ID,
		ActorRole:   string(actor.Role),
		Action:      audit.ActionDisputeResolved,
		Status:      string(updated.Status),
		Notes:       outcome,
		Metadata:    map[string]any{"dispute_id": d.ID},
	}); err != nil {
		return Dispute{}, err
	}
	if err := s.outbox.Enqueue(ctx, tx, notify.TopicDisputeResolved, map[string]any{
		"dispute_id":  d.ID,
		"property_id": d.PropertyID,
		"outcome":     outcome,
	}); err != nil {
		return Dispute{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Dispute{}, fmt.Errorf("dispute: commit resolve: %w", err)
	}

	s.metrics.IncTransition("dispute", string(audit.ActionDisputeResolved))
	return updated, nil
}

// Withdraw lets the original disputant abandon a dispute that has not yet
// reached mediation. The property's dispute flag is recomputed, not cleared
// blindly.
func (s *Service) Withdraw(ctx context.Context, actor auth.Actor, disputeID, reason string) (Dispute, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Dispute{}, fmt.Errorf("dispute: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	d, err := s.repo.GetForUpdate(ctx, tx, disputeID)
	if err != nil {
		return Dispute{}, err
	}
	if d.DisputantID != actor.ID {
		return Dispute{}, workflow.NewError(workflow.KindForbidden, "only the disputant may withdraw a dispute")
	}
	if err := Transitions.Step(string(d.Status), string(StatusWithdrawn)); err != nil {
		return Dispute{}, err
	}

	updated, err := s.repo.SetStatus(ctx, tx, d.ID, StatusWithdrawn)
	if err != nil {
		return Dispute{}, err
	}
	if err := s.recomputeFlag(ctx, tx, d.PropertyID, d.ID); err != nil {
		return Dispute{}, err
	}

	if err := s.repo.AppendEvent(ctx, tx, d.ID, string(audit.ActionDisputeWithdrawn), actor.ID, string(actor.Role), reason); err != nil {
		return Dispute{}, err
	}
	if err := s.auditor.Append(ctx, tx, audit.Entry{
		PropertyID:  d.PropertyID,
		PerformedBy: actor.ID,
		ActorRole:   string(actor.Role),
		Action:      audit.ActionDisputeWithdrawn,
		Status:      string(updated.Status),
		Notes:       reason,
		Metadata:    map[string]any{"dispute_id": d.ID},
	}); err != nil {
		return Dispute{}, err
	}
	if err := s.outbox.Enqueue(ctx, tx, notify.TopicDisputeWithdrawn, map[string]any{
		"dispute_id":  d.ID,
		"property_id": d.PropertyID,
	}); err != nil {
		return Dispute{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Dispute{}, fmt.Errorf("dispute: commit withdraw: %w", err)
	}

	s.metrics.IncTransition("dispute", string(audit.ActionDisputeWithdrawn))
	return updated, nil
}

// recomputeFlag locks the property and derives has_active_dispute from the
// non-terminal disputes other than the one being terminalized.
func (s *Service) recomputeFlag(ctx context.Context, tx pgx.Tx, propertyID, terminalizedID string) error {
	if _, err := s.repo.GetPropertyForUpdate(ctx, tx, propertyID); err != nil {
		return err
	}
	remaining, err := s.repo.HasOtherActive(ctx, tx, propertyID, terminalizedID)
	if err != nil {
		return err
	}
	return s.repo.SetDisputeFlag(ctx, tx, propertyID, remaining)
}

// Get fetches a dispute by id.
func (s *Service) Get(ctx context.Context, id string) (Dispute, error) {
	return s.repo.Get(ctx, id)
}

// Timeline returns a dispute's event history in order.
func (s *Service) Timeline(ctx context.Context, disputeID string) ([]TimelineEvent, error) {
	return s.repo.Timeline(ctx, disputeID)
}

// Evidence returns a dispute's supporting records.
func (s *Service) Evidence(ctx context.Context, disputeID string) ([]Evidence, error) {
	return s.repo.ListEvidence(ctx, disputeID)
}

// ListByProperty returns all disputes filed against a property.
func (s *Service) ListByProperty(ctx context.Context, propertyID string) ([]Dispute, error) {
	return s.repo.ListByProperty(ctx, propertyID)
}
