package postgres

import (
	"context"
	"testing"
	"time"

	"payment-hub/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder() *domain.Order {
	return &domain.Order{
		ID:            uuid.New(),
		BuyerID:       uuid.New(),
		SellerRef:     "seller-42",
		ServiceCode:   "AIRTIME",
		CountryCode:   "CM",
		Amount:        150000,
		Currency:      "XAF",
		Status:        domain.OrderStatusPending,
		TransactionID: "txn-001",
		CreatedAt:     time.Now().UTC().Truncate(time.Microsecond),
		UpdatedAt:     time.Now().UTC().Truncate(time.Microsecond),
	}
}

func orderColumns() []string {
	return []string{"id", "buyer_id", "seller_ref", "service_code", "country_code", "amount", "currency",
		"status", "payment_method", "payment_id", "transaction_id", "error_message", "created_at", "updated_at"}
}

func orderRow(o *domain.Order) *pgxmock.Rows {
	return pgxmock.NewRows(orderColumns()).AddRow(
		o.ID, o.BuyerID, o.SellerRef, o.ServiceCode, o.CountryCode,
		o.Amount, o.Currency, o.Status, o.PaymentMethod, o.PaymentID,
		o.TransactionID, o.ErrorMessage, o.CreatedAt, o.UpdatedAt,
	)
}

func TestOrderRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepo(mock)
	o := newTestOrder()

	mock.ExpectExec("INSERT INTO orders").
		WithArgs(o.ID, o.BuyerID, o.SellerRef, o.ServiceCode, o.CountryCode,
			o.Amount, o.Currency, o.Status, o.PaymentMethod, o.PaymentID,
			o.TransactionID, o.ErrorMessage, o.CreatedAt, o.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), o)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_GetByTransactionID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepo(mock)
	o := newTestOrder()

	mock.ExpectQuery("SELECT (.+) FROM orders WHERE transaction_id").
		WithArgs(o.TransactionID).
		WillReturnRows(orderRow(o))

	got, err := repo.GetByTransactionID(context.Background(), o.TransactionID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, o.ID, got.ID)
	assert.Equal(t, domain.OrderStatusPending, got.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_GetByTransactionID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepo(mock)

	mock.ExpectQuery("SELECT (.+) FROM orders WHERE transaction_id").
		WithArgs("txn-missing").
		WillReturnRows(pgxmock.NewRows(orderColumns()))

	got, err := repo.GetByTransactionID(context.Background(), "txn-missing")
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_MarkPaid(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepo(mock)
	orderID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE orders SET status").
		WithArgs(domain.OrderStatusPaid, "campay", "cam-ref-5", orderID, domain.OrderStatusPending).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	changed, err := repo.MarkPaid(context.Background(), tx, orderID, "campay", "cam-ref-5")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_MarkPaid_AlreadySettled(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepo(mock)
	orderID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE orders SET status").
		WithArgs(domain.OrderStatusPaid, "campay", "cam-ref-5", orderID, domain.OrderStatusPending).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	changed, err := repo.MarkPaid(context.Background(), tx, orderID, "campay", "cam-ref-5")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_MarkFailed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepo(mock)
	orderID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE orders SET status").
		WithArgs(domain.OrderStatusFailed, "insufficient funds", orderID, domain.OrderStatusPending).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	changed, err := repo.MarkFailed(context.Background(), tx, orderID, "insufficient funds")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
