package property

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"landflow/workflow"
)

const propertyColumns = `
id, plot_number, region, sub_city, kebele, street, house_number,
property_type, area_sqm, status::text, owner_id, current_transfer_id::text,
has_active_dispute, created_at, updated_at
`

// Repository defines the data access the property service needs. Transactional
// methods take the caller's pgx.Tx so state change, audit, and outbox commit
// together.
type Repository interface {
	Insert(ctx context.Context, tx pgx.Tx, params RegisterParams) (Property, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (Property, error)
	SetStatus(ctx context.Context, tx pgx.Tx, id string, status Status) (Property, error)
	Get(ctx context.Context, id string) (Property, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Property, error)
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Insert creates a parcel record in pending state. A duplicate plot number
// within the same sub-city/kebele violates the identity index.
func (r *PGRepository) Insert(ctx context.Context, tx pgx.Tx, params RegisterParams) (Property, error) {
	const insertSQL = `
INSERT INTO properties (plot_number, region, sub_city, kebele, street, house_number, property_type, area_sqm, status, owner_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending', $9)
RETURNING ` + propertyColumns

	prop, err := scanProperty(tx.QueryRow(ctx, insertSQL,
		params.PlotNumber,
		params.Location.Region,
		params.Location.SubCity,
		params.Location.Kebele,
		params.Location.Street,
		params.Location.HouseNumber,
		params.PropertyType,
		params.AreaSqm,
		params.OwnerID,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Property{}, workflow.NewError(workflow.KindValidation,
				"a property with this plot number is already registered in this sub-city and kebele")
		}
		return Property{}, fmt.Errorf("property: insert: %w", err)
	}
	return prop, nil
}

// GetForUpdate loads a parcel and locks its row for the rest of the transaction.
func (r *PGRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE id = $1 FOR UPDATE`
	prop, err := scanProperty(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Property{}, workflow.NewError(workflow.KindNotFound, "property not found")
		}
		return Property{}, fmt.Errorf("property: get for update: %w", err)
	}
	return prop, nil
}

// SetStatus persists a validated status change. Edge legality is the service's
// concern; this only writes.
func (r *PGRepository) SetStatus(ctx context.Context, tx pgx.Tx, id string, status Status) (Property, error) {
	query := `
UPDATE properties
SET status = $2::property_status, updated_at = now()
WHERE id = $1
RETURNING ` + propertyColumns

	prop, err := scanProperty(tx.QueryRow(ctx, query, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Property{}, workflow.NewError(workflow.KindNotFound, "property not found")
		}
		return Property{}, fmt.Errorf("property: set status: %w", err)
	}
	return prop, nil
}

// Get fetches a parcel by id.
func (r *PGRepository) Get(ctx context.Context, id string) (Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE id = $1`
	prop, err := scanProperty(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Property{}, workflow.NewError(workflow.KindNotFound, "property not found")
		}
		return Property{}, fmt.Errorf("property: get: %w", err)
	}
	return prop, nil
}

// ListByOwner returns the parcels currently owned by a user, newest first.
func (r *PGRepository) ListByOwner(ctx context.Context, ownerID string) ([]Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE owner_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("property: list by owner: %w", err)
	}
	defer rows.Close()

	out := make([]Property, 0, 8)
	for rows.Next() {
		prop, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("property: scan: %w", err)
		}
		out = append(out, prop)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("property: iterate: %w", err)
	}
	return out, nil
}

func scanProperty(row pgx.Row) (Property, error) {
	var (
		prop            Property
		street, houseNo *string
		transferID      *string
		status, ptype   string
	)
	err := row.Scan(
		&prop.ID,
		&prop.PlotNumber,
		&prop.Location.Region,
		&prop.Location.SubCity,
		&prop.Location.Kebele,
		&street,
		&houseNo,
		&ptype,
		&prop.AreaSqm,
		&status,
		&prop.OwnerID,
		&transferID,
		&prop.HasActiveDispute,
		&prop.CreatedAt,
		&prop.UpdatedAt,
	)
	if err != nil {
		return Property{}, err
	}

	prop.Location.Street = street
	prop.Location.HouseNumber = houseNo
	prop.PropertyType = Type(ptype)
	prop.Status = Status(status)
	prop.CurrentTransferID = transferID
	return prop, nil
}
