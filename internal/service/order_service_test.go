package service

import (
	"context"
	"errors"
	"testing"

	"payment-hub/internal/core/domain"
	"payment-hub/internal/core/ports/mocks"
	"payment-hub/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type orderTestDeps struct {
	svc        *OrderServiceImpl
	orderRepo  *mocks.MockOrderRepository
	userRepo   *mocks.MockUserRepository
	rateSvc    *mocks.MockRateService
	notifier   *mocks.MockNotifier
	transactor *mocks.MockDBTransactor
	ctrl       *gomock.Controller
}

func setupOrderService(t *testing.T) *orderTestDeps {
	ctrl := gomock.NewController(t)
	d := &orderTestDeps{
		orderRepo:  mocks.NewMockOrderRepository(ctrl),
		userRepo:   mocks.NewMockUserRepository(ctrl),
		rateSvc:    mocks.NewMockRateService(ctrl),
		notifier:   mocks.NewMockNotifier(ctrl),
		transactor: mocks.NewMockDBTransactor(ctrl),
		ctrl:       ctrl,
	}
	d.svc = NewOrderService(
		d.orderRepo, d.userRepo, d.rateSvc, d.notifier, d.transactor, zerolog.Nop(),
	)
	return d
}

// mockTx implements pgx.Tx for testing
type mockTx struct{ pgx.Tx }

func (m *mockTx) Rollback(_ context.Context) error { return nil }
func (m *mockTx) Commit(_ context.Context) error   { return nil }

func pendingOrder(buyerID uuid.UUID) *domain.Order {
	return &domain.Order{
		ID:            uuid.New(),
		BuyerID:       buyerID,
		TransactionID: "txn-001",
		Amount:        150000,
		Currency:      "XAF",
		Status:        domain.OrderStatusPending,
	}
}

func successEvent() *domain.PaymentEvent {
	return &domain.PaymentEvent{
		Provider:            domain.ProviderCampay,
		Type:                domain.EventPaymentSucceeded,
		OrderTransactionID:  "txn-001",
		VendorTransactionID: "cam-ref-5",
		Amount:              150000,
		Currency:            "XAF",
		Method:              "MTN",
	}
}

func TestOrderService_ApplyPaymentEvent_Success(t *testing.T) {
	d := setupOrderService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	buyerID := uuid.New()
	order := pendingOrder(buyerID)
	user := &domain.User{ID: buyerID, Currency: "USD"}
	tx := &mockTx{}

	d.orderRepo.EXPECT().GetByTransactionID(ctx, "txn-001").Return(order, nil)
	d.userRepo.EXPECT().GetByID(ctx, buyerID).Return(user, nil)
	// 150000 XAF minor units convert to 250 USD cents.
	d.rateSvc.EXPECT().Convert(ctx, int64(150000), "XAF", "USD").Return(int64(250), nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.orderRepo.EXPECT().MarkPaid(ctx, tx, order.ID, "MTN", "cam-ref-5").Return(true, nil)
	d.userRepo.EXPECT().Credit(ctx, tx, buyerID, int64(250)).Return(nil)
	d.notifier.EXPECT().PaymentSucceeded(ctx, order)

	err := d.svc.ApplyPaymentEvent(ctx, successEvent())
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, order.Status)
}

func TestOrderService_ApplyPaymentEvent_CreditsSettledAmount(t *testing.T) {
	d := setupOrderService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	buyerID := uuid.New()
	order := pendingOrder(buyerID)
	user := &domain.User{ID: buyerID, Currency: "USD"}
	tx := &mockTx{}

	// The vendor settled less than the order asked for. The credit
	// follows the settled amount, not the order's.
	ev := successEvent()
	ev.Amount = 120000

	d.orderRepo.EXPECT().GetByTransactionID(ctx, "txn-001").Return(order, nil)
	d.userRepo.EXPECT().GetByID(ctx, buyerID).Return(user, nil)
	d.rateSvc.EXPECT().Convert(ctx, int64(120000), "XAF", "USD").Return(int64(200), nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.orderRepo.EXPECT().MarkPaid(ctx, tx, order.ID, "MTN", "cam-ref-5").Return(true, nil)
	d.userRepo.EXPECT().Credit(ctx, tx, buyerID, int64(200)).Return(nil)
	d.notifier.EXPECT().PaymentSucceeded(ctx, order)

	err := d.svc.ApplyPaymentEvent(ctx, ev)
	require.NoError(t, err)
}

func TestOrderService_ApplyPaymentEvent_EventWithoutAmountUsesOrder(t *testing.T) {
	d := setupOrderService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	buyerID := uuid.New()
	order := pendingOrder(buyerID)
	user := &domain.User{ID: buyerID, Currency: "USD"}
	tx := &mockTx{}

	ev := successEvent()
	ev.Amount = 0
	ev.Currency = ""

	d.orderRepo.EXPECT().GetByTransactionID(ctx, "txn-001").Return(order, nil)
	d.userRepo.EXPECT().GetByID(ctx, buyerID).Return(user, nil)
	d.rateSvc.EXPECT().Convert(ctx, int64(150000), "XAF", "USD").Return(int64(250), nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.orderRepo.EXPECT().MarkPaid(ctx, tx, order.ID, "MTN", "cam-ref-5").Return(true, nil)
	d.userRepo.EXPECT().Credit(ctx, tx, buyerID, int64(250)).Return(nil)
	d.notifier.EXPECT().PaymentSucceeded(ctx, order)

	err := d.svc.ApplyPaymentEvent(ctx, ev)
	require.NoError(t, err)
}

func TestOrderService_ApplyPaymentEvent_TerminalOrderIsNoOp(t *testing.T) {
	d := setupOrderService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	order := pendingOrder(uuid.New())
	order.Status = domain.OrderStatusPaid

	// No transaction, no credit, no notification.
	d.orderRepo.EXPECT().GetByTransactionID(ctx, "txn-001").Return(order, nil)

	err := d.svc.ApplyPaymentEvent(ctx, successEvent())
	require.NoError(t, err)
}

func TestOrderService_ApplyPaymentEvent_DoubleDelivery(t *testing.T) {
	d := setupOrderService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	buyerID := uuid.New()
	user := &domain.User{ID: buyerID, Currency: "USD"}
	tx := &mockTx{}

	// First delivery settles the order.
	first := pendingOrder(buyerID)
	d.orderRepo.EXPECT().GetByTransactionID(ctx, "txn-001").Return(first, nil)
	d.userRepo.EXPECT().GetByID(ctx, buyerID).Return(user, nil)
	d.rateSvc.EXPECT().Convert(ctx, int64(150000), "XAF", "USD").Return(int64(250), nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.orderRepo.EXPECT().MarkPaid(ctx, tx, first.ID, "MTN", "cam-ref-5").Return(true, nil)
	d.userRepo.EXPECT().Credit(ctx, tx, buyerID, int64(250)).Return(nil)
	d.notifier.EXPECT().PaymentSucceeded(ctx, first)

	require.NoError(t, d.svc.ApplyPaymentEvent(ctx, successEvent()))

	// Second delivery sees the terminal order and must not credit again.
	second := pendingOrder(buyerID)
	second.ID = first.ID
	second.Status = domain.OrderStatusPaid
	d.orderRepo.EXPECT().GetByTransactionID(ctx, "txn-001").Return(second, nil)

	require.NoError(t, d.svc.ApplyPaymentEvent(ctx, successEvent()))
}

func TestOrderService_ApplyPaymentEvent_LostCASRace(t *testing.T) {
	d := setupOrderService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	buyerID := uuid.New()
	order := pendingOrder(buyerID)
	user := &domain.User{ID: buyerID, Currency: "USD"}
	tx := &mockTx{}

	d.orderRepo.EXPECT().GetByTransactionID(ctx, "txn-001").Return(order, nil)
	d.userRepo.EXPECT().GetByID(ctx, buyerID).Return(user, nil)
	d.rateSvc.EXPECT().Convert(ctx, int64(150000), "XAF", "USD").Return(int64(250), nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	// Another delivery settled the row between the read and the update.
	d.orderRepo.EXPECT().MarkPaid(ctx, tx, order.ID, "MTN", "cam-ref-5").Return(false, nil)
	// No Credit, no notification.

	err := d.svc.ApplyPaymentEvent(ctx, successEvent())
	require.NoError(t, err)
}

func TestOrderService_ApplyPaymentEvent_Failure(t *testing.T) {
	d := setupOrderService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	order := pendingOrder(uuid.New())
	tx := &mockTx{}

	ev := successEvent()
	ev.Type = domain.EventPaymentFailed
	ev.FailureReason = "insufficient funds"

	d.orderRepo.EXPECT().GetByTransactionID(ctx, "txn-001").Return(order, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.orderRepo.EXPECT().MarkFailed(ctx, tx, order.ID, "insufficient funds").Return(true, nil)
	d.notifier.EXPECT().PaymentFailed(ctx, order, "insufficient funds")

	err := d.svc.ApplyPaymentEvent(ctx, ev)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusFailed, order.Status)
}

func TestOrderService_ApplyPaymentEvent_FailureWithoutReason(t *testing.T) {
	d := setupOrderService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	order := pendingOrder(uuid.New())
	tx := &mockTx{}

	ev := successEvent()
	ev.Type = domain.EventPaymentFailed

	d.orderRepo.EXPECT().GetByTransactionID(ctx, "txn-001").Return(order, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.orderRepo.EXPECT().MarkFailed(ctx, tx, order.ID, "payment failed").Return(true, nil)
	d.notifier.EXPECT().PaymentFailed(ctx, order, "payment failed")

	require.NoError(t, d.svc.ApplyPaymentEvent(ctx, ev))
}

func TestOrderService_ApplyPaymentEvent_OrderNotFound(t *testing.T) {
	d := setupOrderService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.orderRepo.EXPECT().GetByTransactionID(ctx, "txn-001").Return(nil, nil)

	err := d.svc.ApplyPaymentEvent(ctx, successEvent())
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "ORD_001", appErr.Code)
}

func TestOrderService_ApplyPaymentEvent_CreditFailurePropagates(t *testing.T) {
	d := setupOrderService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	buyerID := uuid.New()
	order := pendingOrder(buyerID)
	user := &domain.User{ID: buyerID, Currency: "USD"}
	tx := &mockTx{}

	d.orderRepo.EXPECT().GetByTransactionID(ctx, "txn-001").Return(order, nil)
	d.userRepo.EXPECT().GetByID(ctx, buyerID).Return(user, nil)
	d.rateSvc.EXPECT().Convert(ctx, int64(150000), "XAF", "USD").Return(int64(250), nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.orderRepo.EXPECT().MarkPaid(ctx, tx, order.ID, "MTN", "cam-ref-5").Return(true, nil)
	d.userRepo.EXPECT().Credit(ctx, tx, buyerID, int64(250)).Return(errors.New("connection reset"))

	err := d.svc.ApplyPaymentEvent(ctx, successEvent())
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "SYS_002", appErr.Code)
}

func TestOrderService_GetByTransactionID(t *testing.T) {
	d := setupOrderService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	order := pendingOrder(uuid.New())

	d.orderRepo.EXPECT().GetByTransactionID(ctx, "txn-001").Return(order, nil)

	got, err := d.svc.GetByTransactionID(ctx, "txn-001")
	require.NoError(t, err)
	assert.Equal(t, order, got)

	d.orderRepo.EXPECT().GetByTransactionID(ctx, "missing").Return(nil, nil)

	_, err = d.svc.GetByTransactionID(ctx, "missing")
	require.Error(t, err)
}
