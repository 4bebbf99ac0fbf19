package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"payment-hub/internal/core/domain"
	"payment-hub/internal/core/ports"
	"payment-hub/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// dedupTTL bounds how long a vendor event reference is remembered.
// Providers redeliver within minutes; a day is comfortably past that.
const dedupTTL = 24 * time.Hour

// WebhookProcessor drives the inbound provider event pipeline:
// verify, dedupe, apply, record. Every event that reaches verification
// leaves a row in the event log with its outcome.
type WebhookProcessor struct {
	registry ports.GatewayRegistry
	orderSvc ports.OrderService
	dedup    ports.EventDedupStore
	eventLog ports.EventLogRepository
	log      zerolog.Logger
}

var _ ports.WebhookProcessor = (*WebhookProcessor)(nil)

// NewWebhookProcessor creates a new WebhookProcessor.
func NewWebhookProcessor(
	registry ports.GatewayRegistry,
	orderSvc ports.OrderService,
	dedup ports.EventDedupStore,
	eventLog ports.EventLogRepository,
	log zerolog.Logger,
) *WebhookProcessor {
	return &WebhookProcessor{
		registry: registry,
		orderSvc: orderSvc,
		dedup:    dedup,
		eventLog: eventLog,
		log:      log,
	}
}

// Process handles one inbound provider callback. The error return maps
// to the HTTP response: verification and parse failures are client
// errors, a store-side transition failure is a server error so the
// provider redelivers, and everything else acknowledges receipt. An
// event that verified but cannot ever apply is acknowledged too; its
// FAILED log row is the reconciliation queue.
func (s *WebhookProcessor) Process(ctx context.Context, provider string, header http.Header, body []byte) error {
	gw, ok := s.registry.Get(provider)
	if !ok {
		return apperror.ErrUnknownProvider(provider)
	}

	ev, err := gw.ParseWebhook(ctx, header, body)
	if err != nil {
		s.log.Warn().Err(err).
			Str("provider", provider).
			Msg("webhook rejected")
		s.record(ctx, provider, ev, body, domain.EventOutcomeRejected, err.Error())
		return err
	}
	if ev == nil {
		// Verified callback with an interim status or an event type
		// that settles nothing. Acknowledge so the vendor does not
		// retry.
		s.record(ctx, provider, nil, body, domain.EventOutcomeIgnored, "")
		return nil
	}

	var dedupKey string
	if ev.VendorTransactionID != "" {
		dedupKey = domain.BuildEventDedupKey(ev.Provider, ev.VendorTransactionID)
		fresh, err := s.dedup.CheckAndSet(ctx, dedupKey, dedupTTL)
		if err != nil {
			// Fail open: the CAS transition is the real idempotency
			// guard, the dedup store only saves work.
			s.log.Warn().Err(err).Str("key", dedupKey).Msg("dedup store unavailable")
		} else if !fresh {
			s.log.Info().
				Str("provider", provider).
				Str("vendor_transaction_id", ev.VendorTransactionID).
				Msg("duplicate event delivery ignored")
			s.record(ctx, provider, ev, body, domain.EventOutcomeDuplicate, "")
			return nil
		}
	}

	if err := s.orderSvc.ApplyPaymentEvent(ctx, ev); err != nil {
		s.record(ctx, provider, ev, body, domain.EventOutcomeFailed, err.Error())

		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.HTTPStatus < http.StatusInternalServerError {
			// Unresolvable event, an unknown order reference for
			// example. Redelivery cannot fix it, so acknowledge and
			// leave the FAILED row for reconciliation.
			s.log.Warn().Err(err).
				Str("provider", provider).
				Str("order_transaction_id", ev.OrderTransactionID).
				Msg("event could not be applied")
			return nil
		}

		// Release the key so the provider's redelivery is not dropped
		// as a duplicate while the order is still unsettled.
		if dedupKey != "" {
			if clearErr := s.dedup.Clear(ctx, dedupKey); clearErr != nil {
				s.log.Warn().Err(clearErr).Str("key", dedupKey).Msg("could not clear dedup key")
			}
		}
		return err
	}

	s.record(ctx, provider, ev, body, domain.EventOutcomeApplied, "")
	return nil
}

// record appends to the reconciliation log. Best effort: a logging
// failure never turns a processed event into a retry.
func (s *WebhookProcessor) record(ctx context.Context, provider string, ev *domain.PaymentEvent, body []byte, outcome domain.EventOutcome, detail string) {
	entry := &domain.WebhookEventLog{
		ID:        uuid.New(),
		Provider:  provider,
		Outcome:   outcome,
		Payload:   string(body),
		CreatedAt: time.Now().UTC(),
	}
	if ev != nil {
		entry.EventType = string(ev.Type)
		entry.OrderTransactionID = ev.OrderTransactionID
		entry.VendorTransactionID = ev.VendorTransactionID
	}
	if detail != "" {
		entry.Detail = &detail
	}

	if err := s.eventLog.Create(ctx, entry); err != nil {
		s.log.Error().Err(err).
			Str("provider", provider).
			Str("outcome", string(outcome)).
			Msg("could not write event log entry")
	}
}
