package gateway

import (
	"context"
	"net/http"

	"payment-hub/internal/core/domain"
	"payment-hub/internal/core/ports"

	"github.com/rs/zerolog"
)

// TestModeGateway wraps a real adapter and short-circuits outbound
// calls with deterministic successful responses. Validation and
// webhook verification still run against the wrapped adapter, so
// sandbox deployments exercise the full request path without vendor
// credentials.
type TestModeGateway struct {
	inner      ports.PaymentGateway
	convention Convention
	log        zerolog.Logger
}

// NewTestModeGateway wraps gw with synthetic vendor responses.
func NewTestModeGateway(gw ports.PaymentGateway, log zerolog.Logger) *TestModeGateway {
	convention, err := ConventionFor(gw.Name())
	if err != nil {
		convention = Convention{Provider: gw.Name(), MinorUnitFactor: 1}
	}
	return &TestModeGateway{inner: gw, convention: convention, log: log}
}

// Name implements ports.PaymentGateway.
func (g *TestModeGateway) Name() domain.PaymentProvider { return g.inner.Name() }

// CreatePaymentLink returns a synthetic link without calling the vendor.
// Request validation still applies.
func (g *TestModeGateway) CreatePaymentLink(_ context.Context, req domain.PaymentLinkRequest) (*domain.PaymentLink, error) {
	if err := validateLinkRequest(g.convention, req); err != nil {
		return nil, err
	}

	g.log.Info().
		Str("provider", string(g.inner.Name())).
		Str("transaction_id", req.TransactionID).
		Msg("test mode: returning synthetic payment link")

	link := &domain.PaymentLink{
		URL:           "https://sandbox.invalid/pay/" + req.TransactionID,
		TransactionID: req.TransactionID,
	}
	if g.inner.Name() == domain.ProviderStripe {
		link.ClientSecret = "pi_test_" + req.TransactionID + "_secret_test"
	}
	return link, nil
}

// CheckStatus reports every transaction as settled.
func (g *TestModeGateway) CheckStatus(_ context.Context, transactionID string) (*domain.PaymentStatus, error) {
	return &domain.PaymentStatus{
		State:         domain.PaymentStateCompleted,
		TransactionID: transactionID,
		Method:        string(g.inner.Name()),
	}, nil
}

// ParseWebhook delegates to the wrapped adapter. Signature checks stay
// live in test mode so sandbox callbacks are still authenticated.
func (g *TestModeGateway) ParseWebhook(ctx context.Context, header http.Header, body []byte) (*domain.PaymentEvent, error) {
	return g.inner.ParseWebhook(ctx, header, body)
}
