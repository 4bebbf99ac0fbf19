package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"payment-hub/config"
	"payment-hub/internal/core/domain"
	"payment-hub/pkg/apperror"

	"github.com/rs/zerolog"
)

// CampayGateway integrates the Campay collection API (XAF mobile
// money). Campay exchanges app credentials for a short-lived token and
// reports payment outcomes with SUCCESSFUL/FAILED/PENDING wording.
type CampayGateway struct {
	cfg        config.CampayConfig
	client     *vendorClient
	convention Convention
	log        zerolog.Logger
}

// NewCampayGateway creates the Campay adapter.
func NewCampayGateway(cfg config.CampayConfig, timeout time.Duration, log zerolog.Logger) (*CampayGateway, error) {
	if cfg.Username == "" || cfg.Password == "" {
		return nil, apperror.ErrConfiguration("gateway.campay.username/password")
	}
	client, err := newVendorClient(cfg.BaseURL, timeout, log)
	if err != nil {
		return nil, err
	}
	convention, err := ConventionFor(domain.ProviderCampay)
	if err != nil {
		return nil, err
	}
	return &CampayGateway{cfg: cfg, client: client, convention: convention, log: log}, nil
}

// Name implements ports.PaymentGateway.
func (g *CampayGateway) Name() domain.PaymentProvider { return domain.ProviderCampay }

type campayTokenResponse struct {
	Token string `json:"token"`
}

func (g *CampayGateway) authenticate(ctx context.Context) (string, error) {
	body := map[string]string{
		"username": g.cfg.Username,
		"password": g.cfg.Password,
	}

	var resp campayTokenResponse
	httpStatus, err := g.client.doJSON(ctx, http.MethodPost, "api/token/", nil, nil, body, &resp)
	if err != nil {
		return "", apperror.ErrGatewayUnavailable("campay", err)
	}
	if httpStatus != http.StatusOK || resp.Token == "" {
		return "", apperror.ErrGatewayAuth("campay", nil)
	}
	return resp.Token, nil
}

type campayCollectResponse struct {
	Reference string `json:"reference"`
	Link      string `json:"link"`
	Message   string `json:"message"`
}

// CreatePaymentLink implements ports.PaymentGateway. Campay's hosted
// payment page is requested through the collection widget endpoint.
func (g *CampayGateway) CreatePaymentLink(ctx context.Context, req domain.PaymentLinkRequest) (*domain.PaymentLink, error) {
	if err := validateLinkRequest(g.convention, req); err != nil {
		return nil, err
	}

	token, err := g.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"amount":             vendorAmount(g.convention, req.Amount),
		"currency":           req.Currency,
		"from":               req.Mobile,
		"description":        req.Description,
		"external_reference": req.TransactionID,
	}

	var resp campayCollectResponse
	httpStatus, err := g.client.doJSON(ctx, http.MethodPost, "api/get_payment_link/",
		nil, map[string]string{"Authorization": "Token " + token}, body, &resp)
	if err != nil {
		return nil, apperror.ErrGatewayUnavailable("campay", err)
	}
	if httpStatus != http.StatusOK || resp.Link == "" {
		return nil, apperror.ErrGatewayRejected("campay", resp.Message)
	}

	g.log.Info().
		Str("transaction_id", req.TransactionID).
		Str("reference", resp.Reference).
		Msg("campay payment link created")

	return &domain.PaymentLink{
		URL:           resp.Link,
		TransactionID: req.TransactionID,
	}, nil
}

type campayStatusResponse struct {
	Reference         string      `json:"reference"`
	ExternalReference string      `json:"external_reference"`
	Status            string      `json:"status"`
	Amount            json.Number `json:"amount"`
	Currency          string      `json:"currency"`
	Operator          string      `json:"operator"`
	Reason            string      `json:"reason"`
	Message           string      `json:"message"`
}

// CheckStatus implements ports.PaymentGateway.
func (g *CampayGateway) CheckStatus(ctx context.Context, transactionID string) (*domain.PaymentStatus, error) {
	token, err := g.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	var resp campayStatusResponse
	httpStatus, err := g.client.doJSON(ctx, http.MethodGet, "api/transaction/"+transactionID+"/",
		nil, map[string]string{"Authorization": "Token " + token}, nil, &resp)
	if err != nil {
		return nil, apperror.ErrGatewayUnavailable("campay", err)
	}
	if httpStatus != http.StatusOK {
		return nil, apperror.ErrGatewayRejected("campay", resp.Message)
	}

	minor, err := vendorAmountToMinor(g.convention, resp.Amount)
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	return &domain.PaymentStatus{
		State:         g.convention.MapStatus(resp.Status),
		TransactionID: transactionID,
		Amount:        minor,
		Currency:      resp.Currency,
		Method:        resp.Operator,
	}, nil
}

type campayWebhookPayload struct {
	Reference         string      `json:"reference"`
	ExternalReference string      `json:"external_reference"`
	Status            string      `json:"status"`
	Amount            json.Number `json:"amount"`
	Currency          string      `json:"currency"`
	Operator          string      `json:"operator"`
	Reason            string      `json:"reason"`
}

// ParseWebhook implements ports.PaymentGateway. Campay callbacks carry
// the configured webhook key as a bearer token.
func (g *CampayGateway) ParseWebhook(_ context.Context, header http.Header, body []byte) (*domain.PaymentEvent, error) {
	auth := header.Get("Authorization")
	token := strings.TrimPrefix(auth, "Bearer ")
	if auth == token || !verifyToken(g.cfg.WebhookKey, token) {
		return nil, apperror.ErrWebhookSignature("campay")
	}

	var p campayWebhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, apperror.ErrWebhookMalformed(err)
	}
	if p.ExternalReference == "" {
		return nil, apperror.ErrWebhookMalformed(errMissingReference)
	}

	minor, err := vendorAmountToMinor(g.convention, p.Amount)
	if err != nil {
		return nil, apperror.ErrWebhookMalformed(err)
	}

	eventType, ok := eventTypeForState(g.convention.MapStatus(p.Status))
	if !ok {
		// Interim notification; nothing to settle yet.
		return nil, nil
	}

	ev := &domain.PaymentEvent{
		Provider:            domain.ProviderCampay,
		Type:                eventType,
		OrderTransactionID:  p.ExternalReference,
		VendorTransactionID: p.Reference,
		Amount:              minor,
		Currency:            p.Currency,
		Method:              p.Operator,
	}
	if eventType == domain.EventPaymentFailed {
		ev.FailureReason = p.Reason
	}
	return ev, nil
}
