package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"payment-hub/internal/core/domain"
	"payment-hub/internal/core/ports"
	"payment-hub/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CheckoutServiceImpl implements ports.CheckoutService.
type CheckoutServiceImpl struct {
	registry  ports.GatewayRegistry
	orderRepo ports.OrderRepository
	userRepo  ports.UserRepository
	orderSvc  ports.OrderService
	log       zerolog.Logger
}

// NewCheckoutService creates a new CheckoutServiceImpl.
func NewCheckoutService(
	registry ports.GatewayRegistry,
	orderRepo ports.OrderRepository,
	userRepo ports.UserRepository,
	orderSvc ports.OrderService,
	log zerolog.Logger,
) *CheckoutServiceImpl {
	return &CheckoutServiceImpl{
		registry:  registry,
		orderRepo: orderRepo,
		userRepo:  userRepo,
		orderSvc:  orderSvc,
		log:       log,
	}
}

// CreatePayment opens a hosted payment page for a new PENDING order.
// The transaction reference is unique per order; reusing one is a
// conflict, not a retry.
func (s *CheckoutServiceImpl) CreatePayment(ctx context.Context, userID uuid.UUID, provider string, req ports.CreatePaymentRequest) (*domain.PaymentLink, error) {
	gw, ok := s.registry.Get(provider)
	if !ok {
		return nil, apperror.ErrUnknownProvider(provider)
	}
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.Currency == "" {
		return nil, apperror.ErrMissingField("currency")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperror.ErrPersistence(fmt.Errorf("load user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrInvalidToken()
	}

	transactionID := req.TransactionID
	if transactionID == "" {
		transactionID = uuid.New().String()
	}

	existing, err := s.orderRepo.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, apperror.ErrPersistence(fmt.Errorf("check transaction id: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrDuplicateTransactionID()
	}

	now := time.Now()
	order := &domain.Order{
		ID:            uuid.New(),
		BuyerID:       userID,
		SellerRef:     req.SellerRef,
		ServiceCode:   req.ServiceCode,
		CountryCode:   req.CountryCode,
		Amount:        req.Amount,
		Currency:      strings.ToUpper(req.Currency),
		Status:        domain.OrderStatusPending,
		TransactionID: transactionID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, apperror.ErrPersistence(fmt.Errorf("create order: %w", err))
	}

	link, err := gw.CreatePaymentLink(ctx, domain.PaymentLinkRequest{
		CountryCode:   order.CountryCode,
		Name:          user.DisplayName,
		Email:         user.Email,
		Mobile:        req.Mobile,
		Amount:        order.Amount,
		Currency:      order.Currency,
		TransactionID: transactionID,
		Description:   req.Description,
	})
	if err != nil {
		// The order never left the gate; close it so status polling
		// reports the failure instead of an eternal PENDING.
		s.failOrder(ctx, gw.Name(), order, err)
		return nil, err
	}

	s.log.Info().
		Str("provider", provider).
		Str("transaction_id", transactionID).
		Int64("amount", order.Amount).
		Str("currency", order.Currency).
		Msg("payment link created")
	return link, nil
}

func (s *CheckoutServiceImpl) failOrder(ctx context.Context, provider domain.PaymentProvider, order *domain.Order, cause error) {
	ev := &domain.PaymentEvent{
		Provider:           provider,
		Type:               domain.EventPaymentFailed,
		OrderTransactionID: order.TransactionID,
		FailureReason:      cause.Error(),
	}
	if err := s.orderSvc.ApplyPaymentEvent(ctx, ev); err != nil {
		s.log.Error().Err(err).
			Str("transaction_id", order.TransactionID).
			Msg("could not mark order failed after gateway error")
	}
}

// CheckPayment polls the provider for a transaction's status. When the
// vendor reports a terminal outcome for an order still PENDING on our
// side, the missed webhook transition is applied here.
func (s *CheckoutServiceImpl) CheckPayment(ctx context.Context, provider string, reference string) (*domain.PaymentStatus, error) {
	gw, ok := s.registry.Get(provider)
	if !ok {
		return nil, apperror.ErrUnknownProvider(provider)
	}
	if reference == "" {
		return nil, apperror.ErrMissingField("reference")
	}

	status, err := gw.CheckStatus(ctx, reference)
	if err != nil {
		return nil, err
	}

	transactionID := status.TransactionID
	if transactionID == "" {
		transactionID = reference
	}

	order, err := s.orderRepo.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, apperror.ErrPersistence(fmt.Errorf("load order: %w", err))
	}
	if order == nil || order.IsTerminal() {
		return status, nil
	}

	switch {
	case status.State.IsSettled():
		s.applyPolledEvent(ctx, gw.Name(), order, domain.EventPaymentSucceeded, status, "")
	case status.State == domain.PaymentStateFailed || status.State == domain.PaymentStateCanceled:
		s.applyPolledEvent(ctx, gw.Name(), order, domain.EventPaymentFailed, status, "reported failed on status poll")
	}
	return status, nil
}

func (s *CheckoutServiceImpl) applyPolledEvent(ctx context.Context, provider domain.PaymentProvider, order *domain.Order, typ domain.EventType, status *domain.PaymentStatus, reason string) {
	ev := &domain.PaymentEvent{
		Provider:            provider,
		Type:                typ,
		OrderTransactionID:  order.TransactionID,
		VendorTransactionID: status.TransactionID,
		Amount:              status.Amount,
		Currency:            status.Currency,
		Method:              status.Method,
		FailureReason:       reason,
	}
	if err := s.orderSvc.ApplyPaymentEvent(ctx, ev); err != nil {
		s.log.Error().Err(err).
			Str("transaction_id", order.TransactionID).
			Msg("could not apply polled status transition")
	}
}
