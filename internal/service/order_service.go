package service

import (
	"context"
	"fmt"

	"payment-hub/internal/core/domain"
	"payment-hub/internal/core/ports"
	"payment-hub/pkg/apperror"

	"github.com/rs/zerolog"
)

// OrderServiceImpl implements ports.OrderService.
type OrderServiceImpl struct {
	orderRepo  ports.OrderRepository
	userRepo   ports.UserRepository
	rateSvc    ports.RateService
	notifier   ports.Notifier
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewOrderService creates a new OrderServiceImpl.
func NewOrderService(
	orderRepo ports.OrderRepository,
	userRepo ports.UserRepository,
	rateSvc ports.RateService,
	notifier ports.Notifier,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *OrderServiceImpl {
	return &OrderServiceImpl{
		orderRepo:  orderRepo,
		userRepo:   userRepo,
		rateSvc:    rateSvc,
		notifier:   notifier,
		transactor: transactor,
		log:        log,
	}
}

// ApplyPaymentEvent applies a verified provider event to its order.
// Transitions run as compare-and-set inside one database transaction
// with the balance credit, so a redelivered success event can never
// credit twice: the second CAS finds the order no longer PENDING and
// the whole transaction is a no-op.
func (s *OrderServiceImpl) ApplyPaymentEvent(ctx context.Context, ev *domain.PaymentEvent) error {
	order, err := s.orderRepo.GetByTransactionID(ctx, ev.OrderTransactionID)
	if err != nil {
		return apperror.ErrPersistence(fmt.Errorf("load order: %w", err))
	}
	if order == nil {
		return apperror.ErrOrderNotFound(ev.OrderTransactionID)
	}

	if order.IsTerminal() {
		s.log.Info().
			Str("transaction_id", ev.OrderTransactionID).
			Str("status", string(order.Status)).
			Str("event_type", string(ev.Type)).
			Msg("order already settled, ignoring event")
		return nil
	}

	switch ev.Type {
	case domain.EventPaymentSucceeded:
		return s.applySuccess(ctx, order, ev)
	case domain.EventPaymentFailed:
		return s.applyFailure(ctx, order, ev)
	default:
		return apperror.InternalError(fmt.Errorf("unknown event type %q", ev.Type))
	}
}

func (s *OrderServiceImpl) applySuccess(ctx context.Context, order *domain.Order, ev *domain.PaymentEvent) error {
	user, err := s.userRepo.GetByID(ctx, order.BuyerID)
	if err != nil {
		return apperror.ErrPersistence(fmt.Errorf("load buyer: %w", err))
	}
	if user == nil {
		return apperror.ErrOrderNotFound(order.TransactionID)
	}

	// Credit what the vendor actually settled, not what the order asked
	// for. Events without an amount fall back to the order's.
	settled, settledCurrency := order.Amount, order.Currency
	if ev.Amount > 0 {
		settled = ev.Amount
		if ev.Currency != "" {
			settledCurrency = ev.Currency
		}
		if settled != order.Amount || settledCurrency != order.Currency {
			s.log.Warn().
				Str("transaction_id", order.TransactionID).
				Int64("order_amount", order.Amount).
				Str("order_currency", order.Currency).
				Int64("settled_amount", settled).
				Str("settled_currency", settledCurrency).
				Msg("settled amount differs from order amount")
		}
	}

	credit, err := s.rateSvc.Convert(ctx, settled, settledCurrency, user.Currency)
	if err != nil {
		return err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.ErrPersistence(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	changed, err := s.orderRepo.MarkPaid(ctx, dbTx, order.ID, ev.Method, ev.VendorTransactionID)
	if err != nil {
		return apperror.ErrPersistence(fmt.Errorf("mark paid: %w", err))
	}
	if !changed {
		// Lost the race against another delivery of the same event.
		s.log.Info().
			Str("transaction_id", order.TransactionID).
			Msg("order settled concurrently, skipping credit")
		return nil
	}

	if err := s.userRepo.Credit(ctx, dbTx, order.BuyerID, credit); err != nil {
		return apperror.ErrPersistence(fmt.Errorf("credit balance: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.ErrPersistence(fmt.Errorf("commit: %w", err))
	}

	s.log.Info().
		Str("transaction_id", order.TransactionID).
		Str("provider", string(ev.Provider)).
		Int64("amount", order.Amount).
		Str("currency", order.Currency).
		Int64("credited", credit).
		Msg("payment settled")

	order.Status = domain.OrderStatusPaid
	s.notifier.PaymentSucceeded(ctx, order)
	return nil
}

func (s *OrderServiceImpl) applyFailure(ctx context.Context, order *domain.Order, ev *domain.PaymentEvent) error {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.ErrPersistence(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	reason := ev.FailureReason
	if reason == "" {
		reason = "payment failed"
	}

	changed, err := s.orderRepo.MarkFailed(ctx, dbTx, order.ID, reason)
	if err != nil {
		return apperror.ErrPersistence(fmt.Errorf("mark failed: %w", err))
	}
	if !changed {
		return nil
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.ErrPersistence(fmt.Errorf("commit: %w", err))
	}

	s.log.Info().
		Str("transaction_id", order.TransactionID).
		Str("provider", string(ev.Provider)).
		Str("reason", reason).
		Msg("payment failed")

	order.Status = domain.OrderStatusFailed
	s.notifier.PaymentFailed(ctx, order, reason)
	return nil
}

// GetByTransactionID implements ports.OrderService.
func (s *OrderServiceImpl) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Order, error) {
	order, err := s.orderRepo.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, apperror.ErrPersistence(fmt.Errorf("load order: %w", err))
	}
	if order == nil {
		return nil, apperror.ErrOrderNotFound(transactionID)
	}
	return order, nil
}
