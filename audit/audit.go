package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Action is the closed vocabulary of auditable operations. Every state-changing
// coordinator call records exactly one of these.
type Action string

const (
	ActionPropertyRegistered   Action = "property_registered"
	ActionStatusChanged        Action = "status_changed"
	ActionTransferInitiated    Action = "transfer_initiated"
	ActionTransferDocsUploaded Action = "transfer_documents_uploaded"
	ActionTransferDocsReviewed Action = "transfer_documents_reviewed"
	ActionComplianceChecked    Action = "transfer_compliance_checked"
	ActionTransferApproved     Action = "transfer_approved"
	ActionTransferRejected     Action = "transfer_rejected"
	ActionTransferCompleted    Action = "transfer_completed"
	ActionTransferCancelled    Action = "transfer_cancelled"
	ActionDisputeSubmitted     Action = "dispute_submitted"
	ActionEvidenceAdded        Action = "dispute_evidence_added"
	ActionDisputeReviewStarted Action = "dispute_review_started"
	ActionDisputeAssigned      Action = "dispute_assigned"
	ActionMediationScheduled   Action = "dispute_mediation_scheduled"
	ActionDisputeResolved      Action = "dispute_resolved"
	ActionDisputeWithdrawn     Action = "dispute_withdrawn"
)

// Entry is one immutable audit record tying a transition to an actor.
type Entry struct {
	PropertyID  string
	PerformedBy string
	ActorRole   string
	Action      Action
	Status      string
	Notes       string
	Metadata    map[string]any
}

// Record mirrors a persisted application_logs row.
type Record struct {
	ID          string
	PropertyID  string
	PerformedBy string
	ActorRole   string
	Action      Action
	Status      string
	Notes       string
	CreatedAt   time.Time
}

// Recorder appends application log rows. It exposes no update or delete
// capability; rows only ever accumulate.
type Recorder struct{}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// Append writes one audit entry inside the caller's transaction so a state
// change and its audit record commit or roll back together.
func (r *Recorder) Append(ctx context.Context, tx pgx.Tx, entry Entry) error {
	if entry.PropertyID == "" {
		return fmt.Errorf("audit: missing property id")
	}
	if entry.Action == "" {
		return fmt.Errorf("audit: missing action")
	}

	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	body, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("audit: marshal metadata: %w", err)
	}

	var actor any
	if entry.PerformedBy != "" {
		actor = entry.PerformedBy
	}

	const insertSQL = `
INSERT INTO application_logs (property_id, performed_by, actor_role, action, status, notes, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb)
`
	if _, err := tx.Exec(ctx, insertSQL,
		entry.PropertyID,
		actor,
		entry.ActorRole,
		string(entry.Action),
		entry.Status,
		entry.Notes,
		body,
	); err != nil {
		return fmt.Errorf("audit: insert log entry: %w", err)
	}

	return nil
}

// ListByProperty returns the audit trail for a property, oldest first.
func (r *Recorder) ListByProperty(ctx context.Context, q Querier, propertyID string) ([]Record, error) {
	const query = `
SELECT id, property_id, COALESCE(performed_by::text, ''), actor_role, action, status, notes, created_at
FROM application_logs
WHERE property_id = $1
ORDER BY created_at ASC, id ASC
`
	rows, err := q.Query(ctx, query, propertyID)
	if err != nil {
		return nil, fmt.Errorf("audit: list: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0, 16)
	for rows.Next() {
		var rec Record
		var action string
		if err := rows.Scan(&rec.ID, &rec.PropertyID, &rec.PerformedBy, &rec.ActorRole, &action, &rec.Status, &rec.Notes, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit: scan: %w", err)
		}
		rec.Action = Action(action)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: iterate: %w", err)
	}
	return out, nil
}

// Querier abstracts pgxpool.Pool for read paths.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}
