package postgres

import (
	"context"
	"errors"
	"fmt"

	"payment-hub/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OrderRepo implements ports.OrderRepository. The terminal transitions
// are compare-and-set on the PENDING status; the row count tells the
// caller whether this delivery won the transition.
type OrderRepo struct {
	pool Pool
}

// NewOrderRepo creates a new OrderRepo.
func NewOrderRepo(pool Pool) *OrderRepo {
	return &OrderRepo{pool: pool}
}

// Create inserts a new order.
func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) error {
	query := `INSERT INTO orders (id, buyer_id, seller_ref, service_code, country_code, amount, currency,
		status, payment_method, payment_id, transaction_id, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.pool.Exec(ctx, query,
		o.ID, o.BuyerID, o.SellerRef, o.ServiceCode, o.CountryCode,
		o.Amount, o.Currency, o.Status, o.PaymentMethod, o.PaymentID,
		o.TransactionID, o.ErrorMessage, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// GetByID fetches an order by UUID.
func (r *OrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT id, buyer_id, seller_ref, service_code, country_code, amount, currency,
		status, payment_method, payment_id, transaction_id, error_message, created_at, updated_at
		FROM orders WHERE id = $1`

	return r.scanOrder(r.pool.QueryRow(ctx, query, id))
}

// GetByTransactionID fetches an order by its client-generated reference.
func (r *OrderRepo) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Order, error) {
	query := `SELECT id, buyer_id, seller_ref, service_code, country_code, amount, currency,
		status, payment_method, payment_id, transaction_id, error_message, created_at, updated_at
		FROM orders WHERE transaction_id = $1`

	return r.scanOrder(r.pool.QueryRow(ctx, query, transactionID))
}

// MarkPaid transitions PENDING -> PAID within a transaction. A zero row
// count means another delivery already settled the order.
func (r *OrderRepo) MarkPaid(ctx context.Context, tx pgx.Tx, id uuid.UUID, method, paymentID string) (bool, error) {
	query := `UPDATE orders SET status = $1, payment_method = $2, payment_id = $3, updated_at = NOW()
		WHERE id = $4 AND status = $5`

	tag, err := tx.Exec(ctx, query,
		domain.OrderStatusPaid, method, paymentID, id, domain.OrderStatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("mark order paid: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkFailed transitions PENDING -> FAILED within a transaction.
func (r *OrderRepo) MarkFailed(ctx context.Context, tx pgx.Tx, id uuid.UUID, errorMessage string) (bool, error) {
	query := `UPDATE orders SET status = $1, error_message = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4`

	tag, err := tx.Exec(ctx, query,
		domain.OrderStatusFailed, errorMessage, id, domain.OrderStatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("mark order failed: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// scanOrder is a helper to scan a single row into an Order.
func (r *OrderRepo) scanOrder(row pgx.Row) (*domain.Order, error) {
	o := &domain.Order{}
	err := row.Scan(
		&o.ID, &o.BuyerID, &o.SellerRef, &o.ServiceCode, &o.CountryCode,
		&o.Amount, &o.Currency, &o.Status, &o.PaymentMethod, &o.PaymentID,
		&o.TransactionID, &o.ErrorMessage, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	return o, nil
}
