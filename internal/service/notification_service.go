package service

import (
	"context"

	"payment-hub/internal/core/domain"
	"payment-hub/internal/core/ports"

	"github.com/rs/zerolog"
)

// LogNotifier emits structured notification events. Production
// deployments swap this for an email or push delivery channel behind
// the same port.
type LogNotifier struct {
	log zerolog.Logger
}

var _ ports.Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a new LogNotifier.
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With().Str("component", "notifier").Logger()}
}

func (n *LogNotifier) PaymentSucceeded(_ context.Context, order *domain.Order) {
	n.log.Info().
		Str("event", "payment_succeeded").
		Str("transaction_id", order.TransactionID).
		Str("buyer_id", order.BuyerID.String()).
		Str("provider", order.PaymentMethod).
		Int64("amount", order.Amount).
		Str("currency", order.Currency).
		Msg("payment settled")
}

func (n *LogNotifier) PaymentFailed(_ context.Context, order *domain.Order, reason string) {
	n.log.Info().
		Str("event", "payment_failed").
		Str("transaction_id", order.TransactionID).
		Str("buyer_id", order.BuyerID.String()).
		Str("provider", order.PaymentMethod).
		Str("reason", reason).
		Msg("payment failed")
}
