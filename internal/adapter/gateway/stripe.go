package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"payment-hub/config"
	"payment-hub/internal/core/domain"
	"payment-hub/pkg/apperror"

	"github.com/rs/zerolog"
	stripe "github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
	"github.com/stripe/stripe-go/v72/webhook"
)

const stripeMetadataTransactionID = "transaction_id"

// StripeGateway settles card payments through Stripe PaymentIntents.
// Unlike the mobile-money providers it hands the buyer a client secret
// for in-browser confirmation rather than a hosted redirect URL.
type StripeGateway struct {
	cfg        config.StripeConfig
	sc         *client.API
	convention Convention
	log        zerolog.Logger
}

// NewStripeGateway creates the Stripe adapter.
func NewStripeGateway(cfg config.StripeConfig, log zerolog.Logger) (*StripeGateway, error) {
	if cfg.SecretKey == "" {
		return nil, apperror.ErrConfiguration("gateway.stripe.secret_key")
	}
	sc := &client.API{}
	sc.Init(cfg.SecretKey, nil)

	convention, err := ConventionFor(domain.ProviderStripe)
	if err != nil {
		return nil, err
	}
	return &StripeGateway{cfg: cfg, sc: sc, convention: convention, log: log}, nil
}

// Name implements ports.PaymentGateway.
func (g *StripeGateway) Name() domain.PaymentProvider { return domain.ProviderStripe }

// CreatePaymentLink implements ports.PaymentGateway. The transaction
// reference travels in the intent metadata so webhook events can be
// tied back to the order without a lookup table on our side.
func (g *StripeGateway) CreatePaymentLink(ctx context.Context, req domain.PaymentLinkRequest) (*domain.PaymentLink, error) {
	if err := validateLinkRequest(g.convention, req); err != nil {
		return nil, err
	}

	params := &stripe.PaymentIntentParams{
		Amount:       stripe.Int64(req.Amount),
		Currency:     stripe.String(req.Currency),
		ReceiptEmail: stripe.String(req.Email),
		Description:  stripe.String(req.Description),
	}
	params.Context = ctx
	params.AddMetadata(stripeMetadataTransactionID, req.TransactionID)

	intent, err := g.sc.PaymentIntents.New(params)
	if err != nil {
		if stripeErr, ok := err.(*stripe.Error); ok {
			switch {
			case stripeErr.HTTPStatusCode == http.StatusUnauthorized:
				return nil, apperror.ErrGatewayAuth("stripe", err)
			case stripeErr.HTTPStatusCode >= http.StatusInternalServerError:
				return nil, apperror.ErrGatewayUnavailable("stripe", err)
			default:
				return nil, apperror.ErrGatewayRejected("stripe", stripeErr.Msg)
			}
		}
		return nil, apperror.ErrGatewayUnavailable("stripe", err)
	}

	g.log.Info().
		Str("transaction_id", req.TransactionID).
		Str("payment_intent", intent.ID).
		Msg("stripe payment intent created")

	return &domain.PaymentLink{
		ClientSecret:  intent.ClientSecret,
		TransactionID: req.TransactionID,
	}, nil
}

// CheckStatus implements ports.PaymentGateway. transactionID here is
// the PaymentIntent id returned at creation.
func (g *StripeGateway) CheckStatus(ctx context.Context, transactionID string) (*domain.PaymentStatus, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	intent, err := g.sc.PaymentIntents.Get(transactionID, params)
	if err != nil {
		return nil, apperror.ErrGatewayUnavailable("stripe", err)
	}

	return &domain.PaymentStatus{
		State:         mapStripeIntentStatus(intent.Status),
		TransactionID: intent.Metadata[stripeMetadataTransactionID],
		Amount:        intent.Amount,
		Currency:      string(intent.Currency),
		Method:        "stripe",
	}, nil
}

func mapStripeIntentStatus(s stripe.PaymentIntentStatus) domain.PaymentState {
	switch s {
	case stripe.PaymentIntentStatusSucceeded:
		return domain.PaymentStateCompleted
	case stripe.PaymentIntentStatusCanceled:
		return domain.PaymentStateFailed
	default:
		return domain.PaymentStatePending
	}
}

// ParseWebhook implements ports.PaymentGateway. Signature verification
// is delegated to the Stripe SDK.
func (g *StripeGateway) ParseWebhook(_ context.Context, header http.Header, body []byte) (*domain.PaymentEvent, error) {
	event, err := webhook.ConstructEvent(body, header.Get(HeaderStripeSignature), g.cfg.WebhookSecret)
	if err != nil {
		return nil, apperror.ErrWebhookSignature("stripe")
	}

	var eventType domain.EventType
	switch event.Type {
	case "payment_intent.succeeded":
		eventType = domain.EventPaymentSucceeded
	case "payment_intent.payment_failed", "payment_intent.canceled":
		eventType = domain.EventPaymentFailed
	default:
		// Stripe delivers every subscribed event type; the ones that
		// do not settle an intent are acknowledged, not errors.
		return nil, nil
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return nil, apperror.ErrWebhookMalformed(err)
	}

	orderRef := intent.Metadata[stripeMetadataTransactionID]
	if orderRef == "" {
		return nil, apperror.ErrWebhookMalformed(errMissingReference)
	}

	ev := &domain.PaymentEvent{
		Provider:            domain.ProviderStripe,
		Type:                eventType,
		OrderTransactionID:  orderRef,
		VendorTransactionID: intent.ID,
		Amount:              intent.Amount,
		Currency:            string(intent.Currency),
		Method:              "stripe",
	}
	if eventType == domain.EventPaymentFailed && intent.LastPaymentError != nil {
		ev.FailureReason = intent.LastPaymentError.Msg
	}
	return ev, nil
}
