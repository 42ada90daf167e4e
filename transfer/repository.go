package transfer

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"landflow/workflow"
)

const transferColumns = `
id, property_id, previous_owner_id, new_owner_id, transfer_type, transfer_value,
currency, transfer_reason, status::text,
law_status::text, law_notes, tax_status::text, tax_notes,
fraud_status::text, fraud_notes, fraud_risk::text,
decision_notes, created_at, updated_at
`

// PropertyState is the slice of a property row the transfer coordinator reads
// under lock before committing its own mutation.
type PropertyState struct {
	ID                string
	OwnerID           string
	Status            string
	HasActiveDispute  bool
	CurrentTransferID *string
}

// InsertParams enumerates the fields written when a transfer is initiated.
type InsertParams struct {
	PropertyID      string
	PreviousOwnerID string
	NewOwnerID      string
	TransferType    TransferType
	TransferValue   float64
	Currency        string
	TransferReason  string
}

// Repository defines the data access the transfer coordinator needs.
type Repository interface {
	Insert(ctx context.Context, tx pgx.Tx, params InsertParams) (Transfer, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (Transfer, error)
	Get(ctx context.Context, id string) (Transfer, error)
	HasActiveForProperty(ctx context.Context, tx pgx.Tx, propertyID string) (bool, error)
	SetStatus(ctx context.Context, tx pgx.Tx, id string, status Status) (Transfer, error)
	SetDecision(ctx context.Context, tx pgx.Tx, id string, status Status, notes string) (Transfer, error)
	AddDocuments(ctx context.Context, tx pgx.Tx, transferID string, docs []DocumentInput) ([]Document, error)
	ApplyReview(ctx context.Context, tx pgx.Tx, transferID string, review DocumentReview) error
	AllDocumentsApproved(ctx context.Context, tx pgx.Tx, transferID string) (bool, error)
	ListDocuments(ctx context.Context, transferID string) ([]Document, error)
	SetCompliance(ctx context.Context, tx pgx.Tx, id string, checks ComplianceChecks) (Transfer, error)
	AppendEvent(ctx context.Context, tx pgx.Tx, transferID, action, actorID, actorRole, notes string) error
	Timeline(ctx context.Context, transferID string) ([]TimelineEvent, error)
	GetPropertyForUpdate(ctx context.Context, tx pgx.Tx, propertyID string) (PropertyState, error)
	SetPropertyTransferLock(ctx context.Context, tx pgx.Tx, propertyID string, transferID *string) error
	CompleteOwnershipSwap(ctx context.Context, tx pgx.Tx, propertyID, previousOwnerID, newOwnerID, transferID string) error
	ListByProperty(ctx context.Context, propertyID string) ([]Transfer, error)
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Insert creates the transfer row. The partial unique index on
// (property_id) WHERE status is non-terminal makes a concurrent second
// initiation fail with a unique violation, which maps to AlreadyActive.
func (r *PGRepository) Insert(ctx context.Context, tx pgx.Tx, params InsertParams) (Transfer, error) {
	const insertSQL = `
INSERT INTO property_transfers
  (property_id, previous_owner_id, new_owner_id, transfer_type, transfer_value, currency, transfer_reason, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, 'initiated')
RETURNING ` + transferColumns

	tr, err := scanTransfer(tx.QueryRow(ctx, insertSQL,
		params.PropertyID,
		params.PreviousOwnerID,
		params.NewOwnerID,
		params.TransferType,
		params.TransferValue,
		params.Currency,
		params.TransferReason,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Transfer{}, workflow.NewError(workflow.KindAlreadyActive,
				"there is already an active transfer for this property")
		}
		return Transfer{}, fmt.Errorf("transfer: insert: %w", err)
	}
	return tr, nil
}

// GetForUpdate loads a transfer and locks its row.
func (r *PGRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM property_transfers WHERE id = $1 FOR UPDATE`
	tr, err := scanTransfer(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transfer{}, workflow.NewError(workflow.KindNotFound, "transfer not found")
		}
		return Transfer{}, fmt.Errorf("transfer: get for update: %w", err)
	}
	return tr, nil
}

// Get fetches a transfer by id without locking.
func (r *PGRepository) Get(ctx context.Context, id string) (Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM property_transfers WHERE id = $1`
	tr, err := scanTransfer(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transfer{}, workflow.NewError(workflow.KindNotFound, "transfer not found")
		}
		return Transfer{}, fmt.Errorf("transfer: get: %w", err)
	}
	return tr, nil
}

// HasActiveForProperty reports whether a non-terminal transfer exists for the
// property. Runs inside the caller's transaction so the answer is current as
// of the property row lock.
func (r *PGRepository) HasActiveForProperty(ctx context.Context, tx pgx.Tx, propertyID string) (bool, error) {
	const query = `
SELECT EXISTS (
  SELECT 1 FROM property_transfers
  WHERE property_id = $1 AND status NOT IN ('completed', 'cancelled', 'rejected')
)`
	var exists bool
	if err := tx.QueryRow(ctx, query, propertyID).Scan(&exists); err != nil {
		return false, fmt.Errorf("transfer: check active: %w", err)
	}
	return exists, nil
}

// SetStatus persists a validated status change.
func (r *PGRepository) SetStatus(ctx context.Context, tx pgx.Tx, id string, status Status) (Transfer, error) {
	query := `
UPDATE property_transfers
SET status = $2::transfer_status, updated_at = now()
WHERE id = $1
RETURNING ` + transferColumns

	tr, err := scanTransfer(tx.QueryRow(ctx, query, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transfer{}, workflow.NewError(workflow.KindNotFound, "transfer not found")
		}
		return Transfer{}, fmt.Errorf("transfer: set status: %w", err)
	}
	return tr, nil
}

// SetDecision records an approve/reject outcome with the deciding notes.
func (r *PGRepository) SetDecision(ctx context.Context, tx pgx.Tx, id string, status Status, notes string) (Transfer, error) {
	query := `
UPDATE property_transfers
SET status = $2::transfer_status, decision_notes = $3, updated_at = now()
WHERE id = $1
RETURNING ` + transferColumns

	tr, err := scanTransfer(tx.QueryRow(ctx, query, id, status, notes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transfer{}, workflow.NewError(workflow.KindNotFound, "transfer not found")
		}
		return Transfer{}, fmt.Errorf("transfer: set decision: %w", err)
	}
	return tr, nil
}

// AddDocuments appends evidence records for a transfer.
func (r *PGRepository) AddDocuments(ctx context.Context, tx pgx.Tx, transferID string, docs []DocumentInput) ([]Document, error) {
	const insertSQL = `
INSERT INTO transfer_documents (transfer_id, doc_type, file_id, review_status)
VALUES ($1, $2, $3, 'pending')
RETURNING id, transfer_id, doc_type::text, file_id, review_status::text, review_notes, uploaded_at, reviewed_at
`
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		doc, err := scanDocument(tx.QueryRow(ctx, insertSQL, transferID, d.DocType, d.FileID))
		if err != nil {
			return nil, fmt.Errorf("transfer: add document: %w", err)
		}
		out = append(out, doc)
	}
	return out, nil
}

// ApplyReview stores one per-document verdict.
func (r *PGRepository) ApplyReview(ctx context.Context, tx pgx.Tx, transferID string, review DocumentReview) error {
	const updateSQL = `
UPDATE transfer_documents
SET review_status = $3::doc_review_status, review_notes = $4, reviewed_at = now()
WHERE id = $1 AND transfer_id = $2
`
	tag, err := tx.Exec(ctx, updateSQL, review.DocumentID, transferID, review.Verdict, review.Notes)
	if err != nil {
		return fmt.Errorf("transfer: apply review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return workflow.NewError(workflow.KindNotFound,
			fmt.Sprintf("document %s not found on this transfer", review.DocumentID))
	}
	return nil
}

// AllDocumentsApproved reports whether every document of the transfer carries
// an approved verdict.
func (r *PGRepository) AllDocumentsApproved(ctx context.Context, tx pgx.Tx, transferID string) (bool, error) {
	const query = `
SELECT COUNT(*) FILTER (WHERE review_status <> 'approved'), COUNT(*)
FROM transfer_documents
WHERE transfer_id = $1
`
	var notApproved, total int
	if err := tx.QueryRow(ctx, query, transferID).Scan(&notApproved, &total); err != nil {
		return false, fmt.Errorf("transfer: count reviews: %w", err)
	}
	return total > 0 && notApproved == 0, nil
}

// ListDocuments returns the evidence records of a transfer, oldest first.
func (r *PGRepository) ListDocuments(ctx context.Context, transferID string) ([]Document, error) {
	const query = `
SELECT id, transfer_id, doc_type::text, file_id, review_status::text, review_notes, uploaded_at, reviewed_at
FROM transfer_documents
WHERE transfer_id = $1
ORDER BY uploaded_at ASC, id ASC
`
	rows, err := r.pool.Query(ctx, query, transferID)
	if err != nil {
		return nil, fmt.Errorf("transfer: list documents: %w", err)
	}
	defer rows.Close()

	out := make([]Document, 0, 8)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("transfer: scan document: %w", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("transfer: iterate documents: %w", err)
	}
	return out, nil
}

// SetCompliance writes the three sub-check records.
func (r *PGRepository) SetCompliance(ctx context.Context, tx pgx.Tx, id string, checks ComplianceChecks) (Transfer, error) {
	query := `
UPDATE property_transfers
SET law_status = $2::check_status, law_notes = $3,
    tax_status = $4::check_status, tax_notes = $5,
    fraud_status = $6::check_status, fraud_notes = $7, fraud_risk = $8::risk_level,
    updated_at = now()
WHERE id = $1
RETURNING ` + transferColumns

	tr, err := scanTransfer(tx.QueryRow(ctx, query, id,
		checks.EthiopianLaw.Status, checks.EthiopianLaw.Notes,
		checks.TaxClearance.Status, checks.TaxClearance.Notes,
		checks.FraudPrevention.Status, checks.FraudPrevention.Notes, checks.FraudPrevention.Risk,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transfer{}, workflow.NewError(workflow.KindNotFound, "transfer not found")
		}
		return Transfer{}, fmt.Errorf("transfer: set compliance: %w", err)
	}
	return tr, nil
}

// AppendEvent writes one timeline row with the next sequence number.
func (r *PGRepository) AppendEvent(ctx context.Context, tx pgx.Tx, transferID, action, actorID, actorRole, notes string) error {
	var seq int
	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM transfer_events WHERE transfer_id = $1`,
		transferID,
	).Scan(&seq); err != nil {
		return fmt.Errorf("transfer: next event seq: %w", err)
	}

	var actor any
	if actorID != "" {
		actor = actorID
	}
	const insertSQL = `
INSERT INTO transfer_events (transfer_id, seq, action, actor_id, actor_role, notes)
VALUES ($1, $2, $3, $4, $5, $6)
`
	if _, err := tx.Exec(ctx, insertSQL, transferID, seq, action, actor, actorRole, notes); err != nil {
		return fmt.Errorf("transfer: insert event: %w", err)
	}
	return nil
}

// Timeline returns a transfer's events in sequence order.
func (r *PGRepository) Timeline(ctx context.Context, transferID string) ([]TimelineEvent, error) {
	const query = `
SELECT id, transfer_id, seq, action, actor_id::text, actor_role, notes, created_at
FROM transfer_events
WHERE transfer_id = $1
ORDER BY seq ASC
`
	rows, err := r.pool.Query(ctx, query, transferID)
	if err != nil {
		return nil, fmt.Errorf("transfer: timeline: %w", err)
	}
	defer rows.Close()

	out := make([]TimelineEvent, 0, 8)
	for rows.Next() {
		var ev TimelineEvent
		if err := rows.Scan(&ev.ID, &ev.TransferID, &ev.Seq, &ev.Action, &ev.ActorID, &ev.ActorRole, &ev.Notes, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("transfer: scan event: %w", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("transfer: iterate events: %w", err)
	}
	return out, nil
}

// GetPropertyForUpdate locks the property row; the per-property critical
// section every coordinator operation runs inside.
func (r *PGRepository) GetPropertyForUpdate(ctx context.Context, tx pgx.Tx, propertyID string) (PropertyState, error) {
	const query = `
SELECT id, owner_id, status::text, has_active_dispute, current_transfer_id::text
FROM properties
WHERE id = $1
FOR UPDATE
`
	var st PropertyState
	if err := tx.QueryRow(ctx, query, propertyID).Scan(&st.ID, &st.OwnerID, &st.Status, &st.HasActiveDispute, &st.CurrentTransferID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PropertyState{}, workflow.NewError(workflow.KindNotFound, "property not found")
		}
		return PropertyState{}, fmt.Errorf("transfer: lock property: %w", err)
	}
	return st, nil
}

// SetPropertyTransferLock sets or clears property.current_transfer_id.
func (r *PGRepository) SetPropertyTransferLock(ctx context.Context, tx pgx.Tx, propertyID string, transferID *string) error {
	var val any
	if transferID != nil {
		val = *transferID
	}
	if _, err := tx.Exec(ctx,
		`UPDATE properties SET current_transfer_id = $2, updated_at = now() WHERE id = $1`,
		propertyID, val,
	); err != nil {
		return fmt.Errorf("transfer: set property lock: %w", err)
	}
	return nil
}

// CompleteOwnershipSwap performs the property side of transfer completion:
// owner swap, ownership-history append, status transferred, lock release.
func (r *PGRepository) CompleteOwnershipSwap(ctx context.Context, tx pgx.Tx, propertyID, previousOwnerID, newOwnerID, transferID string) error {
	if _, err := tx.Exec(ctx, `
UPDATE properties
SET owner_id = $2, status = 'transferred', current_transfer_id = NULL, updated_at = now()
WHERE id = $1
`, propertyID, newOwnerID); err != nil {
		return fmt.Errorf("transfer: swap owner: %w", err)
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO ownership_history (property_id, owner_id, transfer_id, owned_until)
VALUES ($1, $2, $3, now())
`, propertyID, previousOwnerID, transferID); err != nil {
		return fmt.Errorf("transfer: append ownership history: %w", err)
	}

	return nil
}

// ListByProperty returns all transfer attempts for a property, newest first.
func (r *PGRepository) ListByProperty(ctx context.Context, propertyID string) ([]Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM property_transfers WHERE property_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, propertyID)
	if err != nil {
		return nil, fmt.Errorf("transfer: list by property: %w", err)
	}
	defer rows.Close()

	out := make([]Transfer, 0, 4)
	for rows.Next() {
		tr, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("transfer: scan: %w", err)
		}
		out = append(out, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("transfer: iterate: %w", err)
	}
	return out, nil
}

func scanTransfer(row pgx.Row) (Transfer, error) {
	var (
		tr                                Transfer
		status, trType                    string
		lawStatus, taxStatus, fraudStatus *string
		lawNotes, taxNotes, fraudNotes    *string
		fraudRisk                         *string
		decisionNotes                     *string
	)
	err := row.Scan(
		&tr.ID,
		&tr.PropertyID,
		&tr.PreviousOwnerID,
		&tr.NewOwnerID,
		&trType,
		&tr.TransferValue,
		&tr.Currency,
		&tr.TransferReason,
		&status,
		&lawStatus, &lawNotes,
		&taxStatus, &taxNotes,
		&fraudStatus, &fraudNotes, &fraudRisk,
		&decisionNotes,
		&tr.CreatedAt,
		&tr.UpdatedAt,
	)
	if err != nil {
		return Transfer{}, err
	}

	tr.TransferType = TransferType(trType)
	tr.Status = Status(status)
	tr.DecisionNotes = decisionNotes
	tr.Compliance = ComplianceChecks{
		EthiopianLaw:    SubCheck{Status: checkStatusOrPending(lawStatus), Notes: strOrEmpty(lawNotes)},
		TaxClearance:    SubCheck{Status: checkStatusOrPending(taxStatus), Notes: strOrEmpty(taxNotes)},
		FraudPrevention: FraudCheck{Status: checkStatusOrPending(fraudStatus), Notes: strOrEmpty(fraudNotes), Risk: riskOrLow(fraudRisk)},
	}
	return tr, nil
}

func scanDocument(row pgx.Row) (Document, error) {
	var (
		doc             Document
		docType, status string
	)
	err := row.Scan(&doc.ID, &doc.TransferID, &docType, &doc.FileID, &status, &doc.ReviewNotes, &doc.UploadedAt, &doc.ReviewedAt)
	if err != nil {
		return Document{}, err
	}
	doc.DocType = DocType(docType)
	doc.ReviewStatus = ReviewVerdict(status)
	return doc, nil
}

func checkStatusOrPending(s *string) CheckStatus {
	if s == nil {
		return CheckPending
	}
	return CheckStatus(*s)
}

func riskOrLow(s *string) RiskLevel {
	if s == nil {
		return RiskLow
	}
	return RiskLevel(*s)
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
