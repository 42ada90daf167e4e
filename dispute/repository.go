package dispute

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"landflow/workflow"
)

const disputeColumns = `
id, property_id, disputant_id, dispute_type::text, title, description,
status::text, resolution_outcome, resolved_by::text, resolved_at, created_at, updated_at
`

// PropertyState is the slice of a property row the dispute coordinator reads
// under lock.
type PropertyState struct {
	ID               string
	OwnerID          string
	Status           string
	HasActiveDispute bool
}

// InsertParams enumerates the fields written when a dispute is submitted.
type InsertParams struct {
	PropertyID  string
	DisputantID string
	DisputeType Type
	Title       string
	Description string
}

// Repository defines the data access the dispute coordinator needs.
type Repository interface {
	Insert(ctx context.Context, tx pgx.Tx, params InsertParams) (Dispute, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (Dispute, error)
	Get(ctx context.Context, id string) (Dispute, error)
	SetStatus(ctx context.Context, tx pgx.Tx, id string, status Status) (Dispute, error)
	SetResolution(ctx context.Context, tx pgx.Tx, id, outcome, resolverID string) (Dispute, error)
	AddEvidence(ctx context.Context, tx pgx.Tx, disputeID string, items []EvidenceInput) ([]Evidence, error)
	ListEvidence(ctx context.Context, disputeID string) ([]Evidence, error)
	AppendEvent(ctx context.Context, tx pgx.Tx, disputeID, action, actorID, actorRole, notes string) error
	Timeline(ctx context.Context, disputeID string) ([]TimelineEvent, error)
	GetPropertyForUpdate(ctx context.Context, tx pgx.Tx, propertyID string) (PropertyState, error)
	SetDisputeFlag(ctx context.Context, tx pgx.Tx, propertyID string, active bool) error
	HasActiveForProperty(ctx context.Context, tx pgx.Tx, propertyID string) (bool, error)
	HasOtherActive(ctx context.Context, tx pgx.Tx, propertyID, excludeDisputeID string) (bool, error)
	ListByProperty(ctx context.Context, propertyID string) ([]Dispute, error)
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Insert creates the dispute row. The partial unique index on (property_id)
// WHERE status is non-terminal rejects a concurrent second submission.
func (r *PGRepository) Insert(ctx context.Context, tx pgx.Tx, params InsertParams) (Dispute, error) {
	const insertSQL = `
INSERT INTO disputes (property_id, disputant_id, dispute_type, title, description, status)
VALUES ($1, $2, $3, $4, $5, 'submitted')
RETURNING ` + disputeColumns

	d, err := scanDispute(tx.QueryRow(ctx, insertSQL,
		params.PropertyID,
		params.DisputantID,
		params.DisputeType,
		params.Title,
		params.Description,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Dispute{}, workflow.NewError(workflow.KindAlreadyActive,
				"there is already an active dispute for this property")
		}
		return Dispute{}, fmt.Errorf("dispute: insert: %w", err)
	}
	return d, nil
}

// GetForUpdate loads a dispute and locks its row.
func (r *PGRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (Dispute, error) {
	query := `SELECT ` + disputeColumns + ` FROM disputes WHERE id = $1 FOR UPDATE`
	d, err := scanDispute(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Dispute{}, workflow.NewError(workflow.KindNotFound, "dispute not found")
		}
		return Dispute{}, fmt.Errorf("dispute: get for update: %w", err)
	}
	return d, nil
}

// Get fetches a dispute by id without locking.
func (r *PGRepository) Get(ctx context.Context, id string) (Dispute, error) {
	query := `SELECT ` + disputeColumns + ` FROM disputes WHERE id = $1`
	d, err := scanDispute(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Dispute{}, workflow.NewError(workflow.KindNotFound, "dispute not found")
		}
		return Dispute{}, fmt.Errorf("dispute: get: %w", err)
	}
	return d, nil
}

// SetStatus persists a validated status change.
func (r *PGRepository) SetStatus(ctx context.Context, tx pgx.Tx, id string, status Status) (Dispute, error) {
	query := `
UPDATE disputes
SET status = $2::dispute_status, updated_at = now()
WHERE id = $1
RETURNING ` + disputeColumns

	d, err := scanDispute(tx.QueryRow(ctx, query, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Dispute{}, workflow.NewError(workflow.KindNotFound, "dispute not found")
		}
		return Dispute{}, fmt.Errorf("dispute: set status: %w", err)
	}
	return d, nil
}

// SetResolution terminalizes the dispute as resolved with its outcome record.
func (r *PGRepository) SetResolution(ctx context.Context, tx pgx.Tx, id, outcome, resolverID string) (Dispute, error) {
	query := `
UPDATE disputes
SET status = 'resolved', resolution_outcome = $2, resolved_by = $3, resolved_at = now(), updated_at = now()
WHERE id = $1
RETURNING ` + disputeColumns

	d, err := scanDispute(tx.QueryRow(ctx, query, id, outcome, resolverID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Dispute{}, workflow.NewError(workflow.KindNotFound, "dispute not found")
		}
		return Dispute{}, fmt.Errorf("dispute: set resolution: %w", err)
	}
	return d, nil
}

// AddEvidence appends supporting records for a dispute.
func (r *PGRepository) AddEvidence(ctx context.Context, tx pgx.Tx, disputeID string, items []EvidenceInput) ([]Evidence, error) {
	const insertSQL = `
INSERT INTO dispute_evidence (dispute_id, doc_type, file_id, description)
VALUES ($1, $2, $3, $4)
RETURNING id, dispute_id, doc_type::text, file_id, description, added_at
`
	out := make([]Evidence, 0, len(items))
	for _, item := range items {
		var (
			ev      Evidence
			docType string
		)
		err := tx.QueryRow(ctx, insertSQL, disputeID, item.DocType, item.FileID, item.Description).
			Scan(&ev.ID, &ev.DisputeID, &docType, &ev.FileID, &ev.Description, &ev.AddedAt)
		if err != nil {
			return nil, fmt.Errorf("dispute: add evidence: %w", err)
		}
		ev.DocType = EvidenceType(docType)
		out = append(out, ev)
	}
	return out, nil
}

// ListEvidence returns a dispute's evidence, oldest first.
func (r *PGRepository) ListEvidence(ctx context.Context, disputeID string) ([]Evidence, error) {
	const query = `
SELECT id, dispute_id, doc_type::text, file_id, description, added_at
FROM dispute_evidence
WHERE dispute_id = $1
ORDER BY added_at ASC, id ASC
`
	rows, err := r.pool.Query(ctx, query, disputeID)
	if err != nil {
		return nil, fmt.Errorf("dispute: list evidence: %w", err)
	}
	defer rows.Close()

	out := make([]Evidence, 0, 8)
	for rows.Next() {
		var (
			ev      Evidence
			docType string
		)
		if err := rows.Scan(&ev.ID, &ev.DisputeID, &docType, &ev.FileID, &ev.Description, &ev.AddedAt); err != nil {
			return nil, fmt.Errorf("dispute: scan evidence: %w", err)
		}
		ev.DocType = EvidenceType(docType)
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dispute: iterate evidence: %w", err)
	}
	return out, nil
}

// AppendEvent writes one timeline row with the next sequence number.
func (r *PGRepository) AppendEvent(ctx context.Context, tx pgx.Tx, disputeID, action, actorID, actorRole, notes string) error {
	var seq int
	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM dispute_events WHERE dispute_id = $1`,
		disputeID,
	).Scan(&seq); err != nil {
		return fmt.Errorf("dispute: next event seq: %w", err)
	}

	var actor any
	if actorID != "" {
		actor = actorID
	}
	const insertSQL = `
INSERT INTO dispute_events (dispute_id, seq, action, actor_id, actor_role, notes)
VALUES ($1, $2, $3, $4, $5, $6)
`
	if _, err := tx.Exec(ctx, insertSQL, disputeID, seq, action, actor, actorRole, notes); err != nil {
		return fmt.Errorf("dispute: insert event: %w", err)
	}
	return nil
}

// Timeline returns a dispute's events in sequence order.
func (r *PGRepository) Timeline(ctx context.Context, disputeID string) ([]TimelineEvent, error) {
	const query = `
SELECT id, dispute_id, seq, action, actor_id::text, actor_role, notes, created_at
FROM dispute_events
WHERE dispute_id = $1
ORDER BY seq ASC
`
	rows, err := r.pool.Query(ctx, query, disputeID)
	if err != nil {
		return nil, fmt.Errorf("dispute: timeline: %w", err)
	}
	defer rows.Close()

	out := make([]TimelineEvent, 0, 8)
	for rows.Next() {
		var ev TimelineEvent
		if err := rows.Scan(&ev.ID, &ev.DisputeID, &ev.Seq, &ev.Action, &ev.ActorID, &ev.ActorRole, &ev.Notes, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("dispute: scan event: %w", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dispute: iterate events: %w", err)
	}
	return out, nil
}

// GetPropertyForUpdate locks the property row for the duration of the
// dispute mutation.
func (r *PGRepository) GetPropertyForUpdate(ctx context.Context, tx pgx.Tx, propertyID string) (PropertyState, error) {
	const query = `
SELECT id, owner_id, status::text, has_active_dispute
FROM properties
WHERE id = $1
FOR UPDATE
`
	var st PropertyState
	if err := tx.QueryRow(ctx, query, propertyID).Scan(&st.ID, &st.OwnerID, &st.Status, &st.HasActiveDispute); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PropertyState{}, workflow.NewError(workflow.KindNotFound, "property not found")
		}
		return PropertyState{}, fmt.Errorf("dispute: lock property: %w", err)
	}
	return st, nil
}

// SetDisputeFlag writes property.has_active_dispute.
func (r *PGRepository) SetDisputeFlag(ctx context.Context, tx pgx.Tx, propertyID string, active bool) error {
	if _, err := tx.Exec(ctx,
		`UPDATE properties SET has_active_dispute = $2, updated_at = now() WHERE id = $1`,
		propertyID, active,
	); err != nil {
		return fmt.Errorf("dispute: set dispute flag: %w", err)
	}
	return nil
}

// HasActiveForProperty reports whether any non-terminal dispute exists for the
// property. Submission uses this form: there is no dispute id to exclude yet,
// and the uuid column would reject an empty exclusion value.
func (r *PGRepository) HasActiveForProperty(ctx context.Context, tx pgx.Tx, propertyID string) (bool, error) {
	const query = `
SELECT EXISTS (
  SELECT 1 FROM disputes
  WHERE property_id = $1 AND status NOT IN ('resolved', 'withdrawn')
)`
	var exists bool
	if err := tx.QueryRow(ctx, query, propertyID).Scan(&exists); err != nil {
		return false, fmt.Errorf("dispute: check active: %w", err)
	}
	return exists, nil
}

// HasOtherActive reports whether a non-terminal dispute other than the given
// one exists for the property. The flag on the property row is derived from
// this predicate, never flipped blindly.
func (r *PGRepository) HasOtherActive(ctx context.Context, tx pgx.Tx, propertyID, excludeDisputeID string) (bool, error) {
	const query = `
SELECT EXISTS (
  SELECT 1 FROM disputes
  WHERE property_id = $1 AND id <> $2 AND status NOT IN ('resolved', 'withdrawn')
)`
	var exists bool
	if err := tx.QueryRow(ctx, query, propertyID, excludeDisputeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("dispute: check other active: %w", err)
	}
	return exists, nil
}

// ListByProperty returns all disputes filed against a property, newest first.
func (r *PGRepository) ListByProperty(ctx context.Context, propertyID string) ([]Dispute, error) {
	query := `SELECT ` + disputeColumns + ` FROM disputes WHERE property_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, propertyID)
	if err != nil {
		return nil, fmt.Errorf("dispute: list by property: %w", err)
	}
	defer rows.Close()

	out := make([]Dispute, 0, 4)
	for rows.Next() {
		d, err := scanDispute(rows)
		if err != nil {
			return nil, fmt.Errorf("dispute: scan: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dispute: iterate: %w", err)
	}
	return out, nil
}

func scanDispute(row pgx.Row) (Dispute, error) {
	var (
		d             Dispute
		dType, status string
	)
	err := row.Scan(
		&d.ID,
		&d.PropertyID,
		&d.DisputantID,
		&dType,
		&d.Title,
		&d.Description,
		&status,
		&d.ResolutionOutcome,
		&d.ResolvedBy,
		&d.ResolvedAt,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return Dispute{}, err
	}
	d.DisputeType = Type(dType)
	d.Status = Status(status)
	return d, nil
}
