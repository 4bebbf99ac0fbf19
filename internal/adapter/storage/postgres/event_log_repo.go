package postgres

import (
	"context"
	"fmt"

	"payment-hub/internal/core/domain"
)

// EventLogRepo implements ports.EventLogRepository. Append-only; the
// FAILED rows feed reconciliation.
type EventLogRepo struct {
	pool Pool
}

// NewEventLogRepo creates a new EventLogRepo.
func NewEventLogRepo(pool Pool) *EventLogRepo {
	return &EventLogRepo{pool: pool}
}

// Create appends one inbound event record.
func (r *EventLogRepo) Create(ctx context.Context, e *domain.WebhookEventLog) error {
	query := `INSERT INTO webhook_event_logs (id, provider, event_type, order_transaction_id,
		vendor_transaction_id, outcome, detail, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		e.ID, e.Provider, e.EventType, e.OrderTransactionID,
		e.VendorTransactionID, e.Outcome, e.Detail, e.Payload, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert webhook event log: %w", err)
	}
	return nil
}

// ListByOutcome fetches the most recent events with a given outcome.
func (r *EventLogRepo) ListByOutcome(ctx context.Context, outcome domain.EventOutcome, limit int) ([]domain.WebhookEventLog, error) {
	query := `SELECT id, provider, event_type, order_transaction_id,
		vendor_transaction_id, outcome, detail, payload, created_at
		FROM webhook_event_logs WHERE outcome = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, outcome, limit)
	if err != nil {
		return nil, fmt.Errorf("list webhook event logs: %w", err)
	}
	defer rows.Close()

	var entries []domain.WebhookEventLog
	for rows.Next() {
		e := domain.WebhookEventLog{}
		err := rows.Scan(
			&e.ID, &e.Provider, &e.EventType, &e.OrderTransactionID,
			&e.VendorTransactionID, &e.Outcome, &e.Detail, &e.Payload, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan webhook event log row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate webhook event log rows: %w", err)
	}
	return entries, nil
}
