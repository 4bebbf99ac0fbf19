package ports

import (
	"context"
	"time"

	"payment-hub/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserRepository defines persistence operations for buyer accounts.
// Credit is a conditional in-place increment so webhook processing never
// reads a stale balance.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Credit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64) error
}

// OrderRepository defines persistence operations for orders.
// Transition methods are compare-and-set: they only touch rows still in
// PENDING state and report whether a row was changed.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*domain.Order, error)
	// MarkPaid transitions PENDING -> PAID, recording the payment method
	// and the vendor's payment reference. Returns false if the order was
	// no longer PENDING.
	MarkPaid(ctx context.Context, tx pgx.Tx, id uuid.UUID, method, paymentID string) (bool, error)
	// MarkFailed transitions PENDING -> FAILED with the vendor's failure
	// detail. Returns false if the order was no longer PENDING.
	MarkFailed(ctx context.Context, tx pgx.Tx, id uuid.UUID, errorMessage string) (bool, error)
}

// RateRepository persists the exchange rate snapshot. The snapshot is
// replaced wholesale; UpdatedAt doubles as the staleness marker.
type RateRepository interface {
	GetLatest(ctx context.Context) (*domain.RateSet, error)
	Replace(ctx context.Context, set *domain.RateSet) error
}

// EventLogRepository records every inbound provider event for
// reconciliation. Append-only.
type EventLogRepository interface {
	Create(ctx context.Context, entry *domain.WebhookEventLog) error
	ListByOutcome(ctx context.Context, outcome domain.EventOutcome, limit int) ([]domain.WebhookEventLog, error)
}

// EventDedupStore detects redelivered provider events.
type EventDedupStore interface {
	// CheckAndSet atomically records the event key. Returns true if the
	// event is new, false if it was already seen.
	CheckAndSet(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Clear forgets the event key so a redelivery is processed again.
	Clear(ctx context.Context, key string) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
