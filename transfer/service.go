package transfer

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

// UserResolver looks up the receiving party when a transfer is initiated.
type UserResolver interface {
	ResolveByEmail(ctx context.Context, email string) (*auth.User, error)
}

// Service coordinates ownership transfers. Every operation runs inside one
// transaction that locks the property row first, so the checks it performs
// stay true until commit.
type Service struct {
	pool    TxBeginner
	repo    Repository
	users   UserResolver
	auditor AuditRecorder
	outbox  OutboxWriter
	metrics *metrics.Metrics
}

func NewService(pool TxBeginner, repo Repository, users UserResolver, auditor AuditRecorder, outbox OutboxWriter) *Service {
	if auditor == nil {
		auditor = audit.NewRecorder()
	}
	if outbox == nil {
		outbox = notify.NewOutbox()
	}
	return &Service{
		pool:    pool,
		repo:    repo,
		users:   users,
		auditor: auditor,
		outbox:  outbox,
	}
}

func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

// InitiateParams is the owner's request to start an ownership change.
type InitiateParams struct {
	PropertyID     string
	NewOwnerEmail  string
	TransferType   TransferType
	TransferValue  float64
	Currency       string
	TransferReason string
}

// Initiate starts a transfer for an approved, undisputed property. The
// property row lock plus the partial unique index guarantee at most one
// non-terminal transfer per property even under concurrent initiations.
func (s *Service) Initiate(ctx context.Context, actor auth.Actor, params InitiateParams) (Transfer, error) {
	if !validTransferType(params.TransferType) {
		return Transfer{}, workflow.NewError(workflow.KindValidation,
			fmt.Sprintf("unknown transfer type %q", params.TransferType))
	}
	if params.TransferValue < 0 {
		return Transfer{}, workflow.NewError(workflow.KindValidation, "transfer value cannot be negative")
	}
	if len(params.TransferReason) > 1000 {
		return Transfer{}, workflow.NewError(workflow.KindValidation, "transfer reason must be 1000 characters or fewer")
	}
	if strings.TrimSpace(params.NewOwnerEmail) == "" {
		return Transfer{}, workflow.NewError(workflow.KindValidation, "new owner email is required")
	}
	if params.Currency == "" {
		params.Currency = "ETB"
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Transfer{}, fmt.Errorf("transfer: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	prop, err := s.repo.GetPropertyForUpdate(ctx, tx, params.PropertyID)
	if err != nil {
		return Transfer{}, err
	}
	if prop.OwnerID != actor.ID {
		return Transfer{}, workflow.NewError(workflow.KindNotOwner, "only the current owner may initiate a transfer")
	}
	if prop.HasActiveDispute {
		return Transfer{}, workflow.NewError(workflow.KindAlreadyActive,
			"this property has an active dispute; transfers are blocked until it is resolved")
	}
	active, err := s.repo.HasActiveForProperty(ctx, tx, prop.ID)
	if err != nil {
		return Transfer{}, err
	}
	if active {
		return Transfer{}, workflow.NewError(workflow.KindAlreadyActive,
			"there is already an active transfer for this property")
	}

	newOwner, err := s.users.ResolveByEmail(ctx, params.NewOwnerEmail)
	if err != nil {
		return Transfer{}, workflow.NewError(workflow.KindValidation,
			fmt.Sprintf("no registered user with email %s", params.NewOwnerEmail))
	}
	if newOwner.ID == prop.OwnerID {
		return Transfer{}, workflow.NewError(workflow.KindValidation, "cannot transfer a property to its current owner")
	}
	if prop.Status != "approved" {
		return Transfer{}, workflow.NewError(workflow.KindInvalidTransition,
			fmt.Sprintf("only approved properties can be transferred, current status is %s", prop.Status))
	}

	tr, err := s.repo.Insert(ctx, tx, InsertParams{
		PropertyID:      prop.ID,
		PreviousOwnerID: prop.OwnerID,
		NewOwnerID:      newOwner.ID,
		TransferType:    params.TransferType,
		TransferValue:   params.TransferValue,
		Currency:        params.Currency,
		TransferReason:  params.TransferReason,
	})
	if err != nil {
		return Transfer{}, err
	}

	if err := s.repo.SetPropertyTransferLock(ctx, tx, prop.ID, &tr.ID); err != nil {
		return Transfer{}, err
	}
	if err := s.repo.AppendEvent(ctx, tx, tr.ID, string(audit.ActionTransferInitiated), actor.ID, string(actor.Role), params.TransferReason); err != nil {
		return Transfer{}, err
	}
	if err := s.auditor.Append(ctx, tx, audit.Entry{
		PropertyID:  prop.ID,
		PerformedBy: actor.ID,
		ActorRole:   string(actor.Role),
		Action:      audit.ActionTransferInitiated,
		Status:      string(tr.Status),
		Notes:       params.TransferReason,
		Metadata: map[string]any{
			"transfer_id":   tr.ID,
			"new_owner_id":  newOwner.ID,
			"transfer_type": string(tr.TransferType),
		},
	}); err != nil {
		return Transfer{}, err
	}
	if err := s.outbox.Enqueue(ctx, tx, notify.TopicTransferInitiated, map[string]any{
		"transfer_id":  tr.ID,
		"property_id":  prop.ID,
		"new_owner_id": newOwner.ID,
	}); err != nil {
		return Transfer{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Transfer{}, fmt.Errorf("transfer: commit initiate: %w", err)
	}

	s.metrics.IncTransition("transfer", string(audit.ActionTransferInitiated))
	return tr, nil
}

// UploadDocuments attaches evidence to a transfer and moves it under review.
// Only the transferring owner may upload, and only while the transfer has not
// yet reached verification.
func (s *Service) UploadDocuments(ctx context.Context, actor auth.Actor, transferID string, docs []DocumentInput) (Transfer, error) {
	if len(docs) == 0 {
		return Transfer{}, workflow.NewError(workflow.KindValidation, "at least one document is required")
	}
	for _, d := range docs {
		if !validDocType(d.DocType) {
			return Transfer{}, workflow.NewError(workflow.KindValidation,
				fmt.Sprintf("unknown document type %q", d.DocType))
		}
		if strings.TrimSpace(d.FileID) == "" {
			return Transfer{}, workflow.NewError(workflow.KindValidation, "document file reference is required")
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Transfer{}, fmt.Errorf("transfer: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tr, err := s.repo.GetForUpdate(ctx, tx, transferID)
	if err != nil {
		return Transfer{}, err
	}
	if tr.PreviousOwnerID != actor.ID {
		return Transfer{}, workflow.NewError(workflow.KindNotOwner, "only the transferring owner may upload documents")
	}
	switch tr.Status {
	case StatusInitiated, StatusDocumentsPending, StatusUnderReview:
	default:
		return Transfer{}, workflow.NewError(workflow.KindInvalidTransition,
			fmt.Sprintf("documents cannot be uploaded while the transfer is %s", tr.Status))
	}

	if _, err := s.repo.AddDocuments(ctx, tx, tr.ID, docs); err != nil {
		return Transfer{}, err
	}

	updated := tr
	if tr.Status != StatusUnderReview {
		if err := Transitions.Step(string(tr.Status), string(StatusUnderReview)); err != nil {
			return Transfer{}, err
		}
		updated, err = s.repo.SetStatus(ctx, tx, tr.ID, StatusUnderReview)
		if err != nil {
			return Transfer{}, err
		}
	}

	if err := s.repo.AppendEvent(ctx, tx, tr.ID, string(audit.ActionTransferDocsUploaded), actor.ID, string(actor.Role),
		fmt.Sprintf("%d document(s) uploaded", len(docs))); err != nil {
		return Transfer{}, err
	}
	if err := s.auditor.Append(ctx, tx, audit.Entry{
		PropertyID:  tr.PropertyID,
		PerformedBy: actor.ID,
		ActorRole:   string(actor.Role),
		Action:      audit.ActionTransferDocsUploaded,
		Status:      string(updated.Status),
		Notes:       fmt.Sprintf("%d document(s) uploaded", len(docs)),
		Metadata:    map[string]any{"transfer_id": tr.ID, "count": len(docs)},
	}); err != nil {
		return Transfer{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Transfer{}, fmt.Errorf("transfer: commit upload: %w", err)
	}

	s.metrics.IncTransition("transfer", string(audit.ActionTransferDocsUploaded))
	return updated, nil
}

// ReviewParams is an officer's document review submission. Notes are
// mandatory so every decision leaves a reasoned trail.
type ReviewParams struct {
	TransferID string
	Reviews    []DocumentReview
	Notes      string
}

// ReviewDocuments applies per-document verdicts. When every document on the
// transfer is approved the transfer advances to verification_pending;
// otherwise it stays under review for resubmission.
func (s *Service) ReviewDocuments(ctx context.Context, actor auth.Actor, params ReviewParams) (Transfer, error) {
	if !actor.CanReview() {
		return Transfer{}, workflow.NewError(workflow.KindForbidden, "only land officers may review documents")
	}
	if strings.TrimSpace(params.Notes) == "" {
		return Transfer{}, workflow.NewError(workflow.KindValidation, "review notes are required")
	}
	if len(params.Reviews) == 0 {
		return Transfer{}, workflow.NewError(workflow.KindValidation, "at least one document verdict is required")
	}
	for _, rv := range params.Reviews {
		switch rv.Verdict {
		case VerdictDocApproved, VerdictDocRejected, VerdictDocNeedsRevision:
		default:
			return Transfer{}, workflow.NewError(workflow.KindValidation,
				fmt.Sprintf("unknown review verdict %q", rv.Verdict))
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Transfer{}, fmt.Errorf("transfer: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tr, err := s.repo.GetForUpdate(ctx, tx, params.TransferID)
	if err != nil {
		return Transfer{}, err
	}
	if tr.Status != StatusUnderReview {
		return Transfer{}, workflow.NewError(workflow.KindInvalidTransition,
			fmt.Sprintf("documents can only be reviewed while the transfer is under_review, not %s", tr.Status))
	}

	for _, rv := range params.Reviews {
		if err := s.repo.ApplyReview(ctx, tx, tr.ID, rv); err != nil {
			return Transfer{}, err
		}
	}

	allApproved, err := s.repo.AllDocumentsApproved(ctx, tx, tr.ID)
	if err != nil {
		return Transfer{}, err
	}

	updated := tr
	if allApproved {
		if err := Transitions.Step(string(tr.Status), string(StatusVerificationPending)); err != nil {
			return Transfer{}, err
		}
		updated, err = s.repo.SetStatus(ctx, tx, tr.ID, StatusVerificationPending)
		if err != nil {
			return Transfer{}, err
		}
	}

	if err := s.repo.AppendEvent(ctx, tx, tr.ID, string(audit.ActionTransferDocsReviewed), actor.ID, string(actor.Role), params.Notes); err != nil {
		return Transfer{}, err
	}
	if err := s.auditor.Append(ctx, tx, audit.Entry{
		PropertyID:  tr.PropertyID,
		PerformedBy: actor.ID,
		ActorRole:   string(actor.Role),
		Action:      audit.ActionTransferDocsReviewed,
		Status:      string(updated.Status),
		Notes:       params.Notes,
		Metadata:    map[string]any{"transfer_id": tr.ID, "all_approved": allApproved},
	}); err != nil {
		return Transfer{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Transfer{}, fmt.Errorf("transfer: commit review: %w", err)
	}

	s.metrics.IncTransition("transfer", string(audit.ActionTransferDocsReviewed))
	return updated, nil
}

// PerformComplianceChecks records the three verification sub-checks. A
// non-compliant aggregate rejects the transfer in the same transaction and
// releases the property; a pending aggregate keeps it in verification.
func (s *Service) PerformComplianceChecks(ctx context.Context, actor auth.Actor, transferID string, checks ComplianceChecks) (Transfer, error) {
	if !actor.CanReview() {
		return Transfer{}, workflow.NewError(workflow.KindForbidden, "only land officers may perform compliance checks")
	}
	if !validCheckStatus(checks.EthiopianLaw.Status) ||
		!validCheckStatus(checks.TaxClearance.Status) ||
		!validCheckStatus(checks.FraudPrevention.Status) {
		return Transfer{}, workflow.NewError(workflow.KindValidation, "each compliance check must be compliant, non_compliant or pending")
	}
	if !validRiskLevel(checks.FraudPrevention.Risk) {
		return Transfer{}, workflow.NewError(workflow.KindValidation, "fraud risk must be low, medium or high")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Transfer{}, fmt.Errorf("transfer: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tr, err := s.repo.GetForUpdate(ctx, tx, transferID)
	if err != nil {
		return Transfer{}, err
	}
	if tr.Status != StatusVerificationPending {
		return Transfer{}, workflow.NewError(workflow.KindInvalidTransition,
			fmt.Sprintf("compliance checks run only in verification_pending, not %s", tr.Status))
	}

	updated, err := s.repo.SetCompliance(ctx, tx, tr.ID, checks)
	if err != nil {
		return Transfer{}, err
	}

	verdict := Aggregate(checks)
	action := audit.ActionComplianceChecked
	notes := fmt.Sprintf("compliance verdict: %s", verdict)

	if verdict == VerdictNonCompliant {
		if err := Transitions.Step(string(tr.Status), string(StatusRejected)); err != nil {
			return Transfer{}, err
		}
		updated, err = s.repo.SetDecision(ctx, tx, tr.ID, StatusRejected, notes)
		if err != nil {
			return Transfer{}, err
		}
		if err := s.repo.SetPropertyTransferLock(ctx, tx, tr.PropertyID, nil); err != nil {
			return Transfer{}, err
		}
		action = audit.ActionTransferRejected
	}

	if err := s.repo.AppendEvent(ctx, tx, tr.ID, string(action), actor.ID, string(actor.Role), notes); err != nil {
		return Transfer{}, err
	}
	if err := s.auditor.Append(ctx, tx, audit.Entry{
		PropertyID:  tr.PropertyID,
		PerformedBy: actor.ID,
		ActorRole:   string(actor.Role),
		Action:      action,
		Status:      string(updated.Status),
		Notes:       notes,
		Metadata:    map[string]any{"transfer_id": tr.ID, "verdict": string(verdict)},
	}); err != nil {
		return Transfer{}, err
	}
	if verdict == VerdictNonCompliant {
		if err := s.outbox.Enqueue(ctx, tx, notify.TopicTransferRejected, map[string]any{
			"transfer_id": tr.ID,
			"property_id": tr.PropertyID,
			"reason":      notes,
		}); err != nil {
			return Transfer{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Transfer{}, fmt.Errorf("transfer: commit compliance: %w", err)
	}

	s.metrics.IncTransition("transfer", string(action))
	return updated, nil
}

// DecisionParams is an approver's final verdict on a verified transfer.
type DecisionParams struct {
	TransferID string
	Approve    bool
	Notes      string
}

// Decide approves or rejects a transfer in verification_pending. Approval
// requires a compliant aggregate verdict and re-checks the dispute flag under
// the property lock; rejection requires written reasons and releases the
// property for a new attempt.
func (s *Service) Decide(ctx context.Context, actor auth.Actor, params DecisionParams) (Transfer, error) {
	if !actor.CanApprove() {
		return Transfer{}, workflow.NewError(workflow.KindForbidden, "only land officers may decide transfers")
	}
	if !params.Approve && strings.TrimSpace(params.Notes) == "" {
		return Transfer{}, workflow.NewError(workflow.KindValidation, "rejection requires written reasons")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Transfer{}, fmt.Errorf("transfer: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tr, err := s.repo.GetForUpdate(ctx, tx, params.TransferID)
	if err != nil {
		return Transfer{}, err
	}
	if tr.Status != StatusVerificationPending {
		return Transfer{}, workflow.NewError(workflow.KindInvalidTransition,
			fmt.Sprintf("a transfer is decided only in verification_pending, not %s", tr.Status))
	}

	var (
		target Status
		action audit.Action
	)
	if params.Approve {
		if Aggregate(tr.Compliance) != VerdictCompliant {
			return Transfer{}, workflow.NewError(workflow.KindCompliance,
				"transfer cannot be approved until all compliance checks pass")
		}
		prop, err := s.repo.GetPropertyForUpdate(ctx, tx, tr.PropertyID)
		if err != nil {
			return Transfer{}, err
		}
		if prop.HasActiveDispute {
			return Transfer{}, workflow.NewError(workflow.KindAlreadyActive,
				"a dispute was opened on this property; the transfer cannot be approved")
		}
		target, action = StatusApproved, audit.ActionTransferApproved
	} else {
		target, action = StatusRejected, audit.ActionTransferRejected
	}

	if err := Transitions.Step(string(tr.Status), string(target)); err != nil {
		return Transfer{}, err
	}
	updated, err := s.repo.SetDecision(ctx, tx, tr.ID, target, params.Notes)
	if err != nil {
		return Transfer{}, err
	}
	if target == StatusRejected {
		if err := s.repo.SetPropertyTransferLock(ctx, tx, tr.PropertyID, nil); err != nil {
			return Transfer{}, err
		}
	}

	if err := s.repo.AppendEvent(ctx, tx, tr.ID, string(action), actor.ID, string(actor.Role), params.Notes); err != nil {
		return Transfer{}, err
	}
	if err := s.auditor.Append(ctx, tx, audit.Entry{
		PropertyID:  tr.PropertyID,
		PerformedBy: actor.ID,
		ActorRole:   string(actor.Role),
		Action:      action,
		Status:      string(updated.Status),
		Notes:       params.Notes,
		Metadata:    map[string]any{"transfer_id": tr.ID},
	}); err != nil {
		return Transfer{}, err
	}
	if target == StatusRejected {
		if err := s.outbox.Enqueue(ctx, tx, notify.TopicTransferRejected, map[string]any{
			"transfer_id": tr.ID,
			"property_id": tr.PropertyID,
			"reason":      params.Notes,
		}); err != nil {
			return Transfer{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Transfer{}, fmt.Errorf("transfer: commit decision: %w", err)
	}

	s.metrics.IncTransition("transfer", string(action))
	return updated, nil
}

// Complete executes an approved transfer: the owner swap, the ownership
// history append, the property lock release and the terminal transfer status
// commit or roll back together.
func (s *Service) Complete(ctx context.Context, actor auth.Actor, transferID string) (Transfer, error) {
	if !actor.CanComplete() {
		return Transfer{}, workflow.NewError(workflow.KindForbidden, "only administrators may complete transfers")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Transfer{}, fmt.Errorf("transfer: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tr, err := s.repo.GetForUpdate(ctx, tx, transferID)
	if err != nil {
		return Transfer{}, err
	}
	if tr.Status != StatusApproved {
		return Transfer{}, workflow.NewError(workflow.KindInvalidTransition,
			fmt.Sprintf("only approved transfers can be completed, current status is %s", tr.Status))
	}

	prop, err := s.repo.GetPropertyForUpdate(ctx, tx, tr.PropertyID)
	if err != nil {
		return Transfer{}, err
	}
	if prop.HasActiveDispute {
		return Transfer{}, workflow.NewError(workflow.KindAlreadyActive,
			"a dispute was opened on this property; the transfer cannot be completed")
	}

	if err := s.repo.CompleteOwnershipSwap(ctx, tx, tr.PropertyID, tr.PreviousOwnerID, tr.NewOwnerID, tr.ID); err != nil {
		return Transfer{}, err
	}
	updated, err := s.repo.SetStatus(ctx, tx, tr.ID, StatusCompleted)
	if err != nil {
		return Transfer{}, err
	}

	if err := s.repo.AppendEvent(ctx, tx, tr.ID, string(audit.ActionTransferCompleted), actor.ID, string(actor.Role), "ownership transferred"); err != nil {
		return Transfer{}, err
	}
	if err := s.auditor.Append(ctx, tx, audit.Entry{
		PropertyID:  tr.PropertyID,
		PerformedBy: actor.ID,
		ActorRole:   string(actor.Role),
		Action:      audit.ActionTransferCompleted,
		Status:      string(updated.Status),
		Notes:       "ownership transferred",
		Metadata: map[string]any{
			"transfer_id":       tr.ID,
			"previous_owner_id": tr.PreviousOwnerID,
			"new_owner_id":      tr.NewOwnerID,
		},
	}); err != nil {
		return Transfer{}, err
	}
	if err := s.outbox.Enqueue(ctx, tx, notify.TopicTransferCompleted, map[string]any{
		"transfer_id":  tr.ID,
		"property_id":  tr.PropertyID,
		"new_owner_id": tr.NewOwnerID,
	}); err != nil {
		return Transfer{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Transfer{}, fmt.Errorf("transfer: commit complete: %w", err)
	}

	s.metrics.IncTransition("transfer", string(audit.ActionTransferCompleted))
	return updated, nil
}

// Cancel withdraws a transfer that has not yet reached verification. Only the
// transferring owner may cancel; the property is released for a new attempt.
func (s *Service) Cancel(ctx context.Context, actor auth.Actor, transferID, reason string) (Transfer, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Transfer{}, fmt.Errorf("transfer: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tr, err := s.repo.GetForUpdate(ctx, tx, transferID)
	if err != nil {
		return Transfer{}, err
	}
	if tr.PreviousOwnerID != actor.ID {
		return Transfer{}, workflow.NewError(workflow.KindNotOwner, "only the transferring owner may cancel")
	}
	if err := Transitions.Step(string(tr.Status), string(StatusCancelled)); err != nil {
		return Transfer{}, err
	}

	updated, err := s.repo.SetStatus(ctx, tx, tr.ID, StatusCancelled)
	if err != nil {
		return Transfer{}, err
	}
	if err := s.repo.SetPropertyTransferLock(ctx, tx, tr.PropertyID, nil); err != nil {
		return Transfer{}, err
	}

	if err := s.repo.AppendEvent(ctx, tx, tr.ID, string(audit.ActionTransferCancelled), actor.ID, string(actor.Role), reason); err != nil {
		return Transfer{}, err
	}
	if err := s.auditor.Append(ctx, tx, audit.Entry{
		PropertyID:  tr.PropertyID,
		PerformedBy: actor.ID,
		ActorRole:   string(actor.Role),
		Action:      audit.ActionTransferCancelled,
		Status:      string(updated.Status),
		Notes:       reason,
		Metadata:    map[string]any{"transfer_id": tr.ID},
	}); err != nil {
		return Transfer{}, err
	}
	if err := s.outbox.Enqueue(ctx, tx, notify.TopicTransferCancelled, map[string]any{
		"transfer_id": tr.ID,
		"property_id": tr.PropertyID,
	}); err != nil {
		return Transfer{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Transfer{}, fmt.Errorf("transfer: commit cancel: %w", err)
	}

	s.metrics.IncTransition("transfer", string(audit.ActionTransferCancelled))
	return updated, nil
}

// Get fetches a transfer by id.
func (s *Service) Get(ctx context.Context, id string) (Transfer, error) {
	return s.repo.Get(ctx, id)
}

// Timeline returns a transfer's event history in order.
func (s *Service) Timeline(ctx context.Context, transferID string) ([]TimelineEvent, error) {
	return s.repo.Timeline(ctx, transferID)
}

// Documents returns a transfer's evidence records.
func (s *Service) Documents(ctx context.Context, transferID string) ([]Document, error) {
	return s.repo.ListDocuments(ctx, transferID)
}

// ListByProperty returns all transfer attempts for a property.
func (s *Service) ListByProperty(ctx context.Context, propertyID string) ([]Transfer, error) {
	return s.repo.ListByProperty(ctx, propertyID)
}
