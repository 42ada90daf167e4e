package actors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// transient reports errors caused by chaos terminating our backend; the loop
// picks up a fresh connection from the pool on the next attempt.
func transient(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "57P01", "40001", "40P01":
			return true
		}
	}
	if pgconn.SafeToRetry(err) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "conn closed") || strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "unexpected EOF")
}

// Initiator races to open transfers for the same parcel. Only one may hold the
// active slot at a time; the partial unique index turns the losers into 23505s.
func Initiator(ctx context.Context, pool *pgxpool.Pool, propertyID, userA, userB string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		if err := tryInitiate(ctx, pool, propertyID, userA, userB); err != nil && !transient(err) {
			return err
		}
		time.Sleep(time.Duration(10+rand.Intn(20)) * time.Millisecond)
	}
}

func tryInitiate(ctx context.Context, pool *pgxpool.Pool, propertyID, userA, userB string) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var ownerID string
	var disputed bool
	err = tx.QueryRow(ctx,
		`SELECT owner_id, has_active_dispute FROM properties WHERE id=$1 FOR UPDATE`,
		propertyID,
	).Scan(&ownerID, &disputed)
	if err != nil {
		return fmt.Errorf("initiator lock property: %w", err)
	}
	if disputed {
		return nil
	}

	newOwner := userA
	if ownerID == userA {
		newOwner = userB
	}

	var trID string
	err = tx.QueryRow(ctx, `
INSERT INTO property_transfers (property_id, previous_owner_id, new_owner_id, transfer_type, transfer_value, status)
VALUES ($1, $2, $3, 'sale', 1000000, 'initiated')
RETURNING id`, propertyID, ownerID, newOwner).Scan(&trID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// expected under contention
			return nil
		}
		return fmt.Errorf("initiator insert: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE properties SET current_transfer_id=$2, updated_at=now() WHERE id=$1`,
		propertyID, trID,
	); err != nil {
		return fmt.Errorf("initiator set lock: %w", err)
	}
	if err := appendTransferEvent(ctx, tx, trID, "transfer_initiated"); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Driver walks the active transfer of the parcel one step forward per tick.
// Terminal steps release the property slot; completion swaps the owner and
// appends the history row in the same transaction.
func Driver(ctx context.Context, pool *pgxpool.Pool, propertyID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		if err := tryDrive(ctx, pool, propertyID); err != nil && !transient(err) {
			return err
		}
		time.Sleep(time.Duration(20+rand.Intn(40)) * time.Millisecond)
	}
}

func tryDrive(ctx context.Context, pool *pgxpool.Pool, propertyID string) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Property lock first: same ordering as Initiator, so the two never deadlock.
	var current *string
	if err := tx.QueryRow(ctx,
		`SELECT current_transfer_id::text FROM properties WHERE id=$1 FOR UPDATE`,
		propertyID,
	).Scan(&current); err != nil {
		return fmt.Errorf("driver lock property: %w", err)
	}
	if current == nil {
		return nil
	}

	var trID, status, prevOwner, newOwner string
	if err := tx.QueryRow(ctx,
		`SELECT id, status::text, previous_owner_id, new_owner_id FROM property_transfers WHERE id=$1 FOR UPDATE`,
		*current,
	).Scan(&trID, &status, &prevOwner, &newOwner); err != nil {
		return fmt.Errorf("driver lock transfer: %w", err)
	}

	switch status {
	case "initiated":
		return step(ctx, tx, trID, "under_review", "transfer_documents_reviewed")
	case "under_review":
		return step(ctx, tx, trID, "verification_pending", "transfer_documents_reviewed")
	case "verification_pending":
		if _, err := tx.Exec(ctx, `
UPDATE property_transfers
SET law_status='compliant', tax_status='compliant', fraud_status='compliant', fraud_risk='low',
    status='approved', updated_at=now()
WHERE id=$1`, trID); err != nil {
			return fmt.Errorf("driver approve: %w", err)
		}
		if err := appendTransferEvent(ctx, tx, trID, "transfer_approved"); err != nil {
			return err
		}
		return tx.Commit(ctx)
	case "approved":
		switch rand.Intn(3) {
		case 0:
			// cancel: release the slot, parcel stays with the seller
			if _, err := tx.Exec(ctx,
				`UPDATE property_transfers SET status='cancelled', updated_at=now() WHERE id=$1`, trID); err != nil {
				return fmt.Errorf("driver cancel: %w", err)
			}
			if _, err := tx.Exec(ctx,
				`UPDATE properties SET current_transfer_id=NULL, updated_at=now() WHERE id=$1`, propertyID); err != nil {
				return fmt.Errorf("driver release: %w", err)
			}
			if err := appendTransferEvent(ctx, tx, trID, "transfer_cancelled"); err != nil {
				return err
			}
		default:
			// complete: swap owner, append history, release the slot. The parcel is
			// put back to approved so the next initiation round can run.
			if _, err := tx.Exec(ctx, `
UPDATE properties SET owner_id=$2, status='approved', current_transfer_id=NULL, updated_at=now() WHERE id=$1`,
				propertyID, newOwner); err != nil {
				return fmt.Errorf("driver swap owner: %w", err)
			}
			if _, err := tx.Exec(ctx, `
INSERT INTO ownership_history (property_id, owner_id, transfer_id, owned_until) VALUES ($1, $2, $3, now())`,
				propertyID, prevOwner, trID); err != nil {
				return fmt.Errorf("driver history: %w", err)
			}
			if _, err := tx.Exec(ctx,
				`UPDATE property_transfers SET status='completed', updated_at=now() WHERE id=$1`, trID); err != nil {
				return fmt.Errorf("driver complete: %w", err)
			}
			if err := appendTransferEvent(ctx, tx, trID, "transfer_completed"); err != nil {
				return err
			}
		}
		return tx.Commit(ctx)
	default:
		return nil
	}
}

func step(ctx context.Context, tx pgx.Tx, trID, next, action string) error {
	if _, err := tx.Exec(ctx,
		`UPDATE property_transfers SET status=$2::transfer_status, updated_at=now() WHERE id=$1`,
		trID, next,
	); err != nil {
		return fmt.Errorf("driver step to %s: %w", next, err)
	}
	if err := appendTransferEvent(ctx, tx, trID, action); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func appendTransferEvent(ctx context.Context, tx pgx.Tx, trID, action string) error {
	var seq int
	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(seq),0)+1 FROM transfer_events WHERE transfer_id=$1`, trID,
	).Scan(&seq); err != nil {
		return fmt.Errorf("next seq: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO transfer_events (transfer_id, seq, action, actor_role) VALUES ($1, $2, $3, 'officer')`,
		trID, seq, action,
	); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// Disputant races to open disputes for the parcel. The flag write shares the
// transaction with the insert so the derived flag never drifts.
func Disputant(ctx context.Context, pool *pgxpool.Pool, propertyID, disputantID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		if err := trySubmit(ctx, pool, propertyID, disputantID); err != nil && !transient(err) {
			return err
		}
		time.Sleep(time.Duration(40+rand.Intn(60)) * time.Millisecond)
	}
}

func trySubmit(ctx context.Context, pool *pgxpool.Pool, propertyID, disputantID string) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT 1 FROM properties WHERE id=$1 FOR UPDATE`, propertyID); err != nil {
		return fmt.Errorf("disputant lock property: %w", err)
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO disputes (property_id, disputant_id, dispute_type, title, status)
VALUES ($1, $2, 'boundary_dispute', 'stress dispute', 'submitted')`,
		propertyID, disputantID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// expected under contention
			return nil
		}
		return fmt.Errorf("disputant insert: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE properties SET has_active_dispute=true, updated_at=now() WHERE id=$1`, propertyID); err != nil {
		return fmt.Errorf("disputant set flag: %w", err)
	}
	return tx.Commit(ctx)
}

// Resolver closes open disputes and recomputes the property flag from what
// actually remains open, never by blind assignment.
func Resolver(ctx context.Context, pool *pgxpool.Pool, propertyID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		if err := tryResolve(ctx, pool, propertyID); err != nil && !transient(err) {
			return err
		}
		time.Sleep(time.Duration(60+rand.Intn(80)) * time.Millisecond)
	}
}

func tryResolve(ctx context.Context, pool *pgxpool.Pool, propertyID string) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT 1 FROM properties WHERE id=$1 FOR UPDATE`, propertyID); err != nil {
		return fmt.Errorf("resolver lock property: %w", err)
	}

	var dispID string
	err = tx.QueryRow(ctx, `
SELECT id FROM disputes
WHERE property_id=$1 AND status NOT IN ('resolved','withdrawn')
LIMIT 1 FOR UPDATE`, propertyID).Scan(&dispID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("resolver pick dispute: %w", err)
	}

	if _, err := tx.Exec(ctx, `
UPDATE disputes SET status='resolved', resolution_outcome='stress resolution', resolved_at=now(), updated_at=now()
WHERE id=$1`, dispID); err != nil {
		return fmt.Errorf("resolver close: %w", err)
	}

	if _, err := tx.Exec(ctx, `
UPDATE properties
SET has_active_dispute = EXISTS (
  SELECT 1 FROM disputes WHERE property_id=$1 AND id<>$2 AND status NOT IN ('resolved','withdrawn')
), updated_at=now()
WHERE id=$1`, propertyID, dispID); err != nil {
		return fmt.Errorf("resolver recompute flag: %w", err)
	}
	return tx.Commit(ctx)
}

// AuditWriter appends application log rows to exercise the append-only trail.
func AuditWriter(ctx context.Context, pool *pgxpool.Pool, propertyID, actorID string, stop <-chan struct{}) error {
	actions := []string{"status_changed", "transfer_documents_uploaded"}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		action := actions[rand.Intn(len(actions))]
		_, _ = pool.Exec(ctx, `
INSERT INTO application_logs (property_id, performed_by, actor_role, action, metadata)
VALUES ($1, $2, 'officer', $3, '{}'::jsonb)`, propertyID, actorID, action)
		time.Sleep(time.Duration(15+rand.Intn(35)) * time.Millisecond)
	}
}

// OutboxWorker consumes pending outbox messages with SKIP LOCKED and marks processed.
func OutboxWorker(ctx context.Context, pool *pgxpool.Pool, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		rows, err := tx.Query(ctx, `SELECT id FROM outbox WHERE status='pending' ORDER BY created_at FOR UPDATE SKIP LOCKED LIMIT 10`)
		if err != nil {
			_ = tx.Rollback(ctx)
			time.Sleep(50 * time.Millisecond)
			continue
		}
		ids := make([]int64, 0, 10)
		for rows.Next() {
			var id int64
			_ = rows.Scan(&id)
			ids = append(ids, id)
		}
		rows.Close()
		for _, id := range ids {
			// simulate random failure
			if rand.Intn(10) == 0 {
				_, _ = tx.Exec(ctx, `UPDATE outbox SET attempts=attempts+1 WHERE id=$1`, id)
				continue
			}
			_, _ = tx.Exec(ctx, `UPDATE outbox SET status='processed' WHERE id=$1`, id)
		}
		_ = tx.Commit(ctx)
		time.Sleep(100 * time.Millisecond)
	}
}
