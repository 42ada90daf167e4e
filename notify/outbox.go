package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Topics published by the workflow coordinators. Delivery to users happens
// downstream of the outbox table; a delivery failure can never block a
// workflow commit.
const (
	TopicPropertyRegistered    = "property.registered"
	TopicPropertyStatusChanged = "property.status_changed"
	TopicTransferInitiated     = "transfer.initiated"
	TopicTransferCompleted     = "transfer.completed"
	TopicTransferRejected      = "transfer.rejected"
	TopicTransferCancelled     = "transfer.cancelled"
	TopicDisputeSubmitted      = "dispute.submitted"
	TopicDisputeResolved       = "dispute.resolved"
	TopicDisputeWithdrawn      = "dispute.withdrawn"
)

// Outbox enqueues notification messages transactionally with the state change
// they describe.
type Outbox struct{}

func NewOutbox() *Outbox {
	return &Outbox{}
}

// Enqueue inserts one outbox message inside the caller's transaction.
func (o *Outbox) Enqueue(ctx context.Context, tx pgx.Tx, topic string, payload map[string]any) error {
	if topic == "" {
		return fmt.Errorf("notify: empty topic")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: marshal payload: %w", err)
	}

	const insertSQL = `INSERT INTO outbox (topic, payload) VALUES ($1, $2::jsonb)`
	if _, err := tx.Exec(ctx, insertSQL, topic, body); err != nil {
		return fmt.Errorf("notify: enqueue outbox: %w", err)
	}
	return nil
}
