package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"payment-hub/config"
	"payment-hub/internal/core/domain"
	"payment-hub/pkg/apperror"

	"github.com/rs/zerolog"
)

// FapshiGateway integrates the Fapshi collection API. Fapshi uses
// static header credentials (apiuser/apikey) instead of a login
// exchange, amounts in centimes, and reports success as a body
// statusCode of 200.
type FapshiGateway struct {
	cfg        config.FapshiConfig
	client     *vendorClient
	convention Convention
	log        zerolog.Logger
}

// NewFapshiGateway creates the Fapshi adapter.
func NewFapshiGateway(cfg config.FapshiConfig, timeout time.Duration, log zerolog.Logger) (*FapshiGateway, error) {
	if cfg.APIUser == "" || cfg.APIKey == "" {
		return nil, apperror.ErrConfiguration("gateway.fapshi.api_user/api_key")
	}
	client, err := newVendorClient(cfg.BaseURL, timeout, log)
	if err != nil {
		return nil, err
	}
	convention, err := ConventionFor(domain.ProviderFapshi)
	if err != nil {
		return nil, err
	}
	return &FapshiGateway{cfg: cfg, client: client, convention: convention, log: log}, nil
}

// Name implements ports.PaymentGateway.
func (g *FapshiGateway) Name() domain.PaymentProvider { return domain.ProviderFapshi }

func (g *FapshiGateway) authHeaders() map[string]string {
	return map[string]string{
		"apiuser": g.cfg.APIUser,
		"apikey":  g.cfg.APIKey,
	}
}

type fapshiInitiateResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Link       string `json:"link"`
	TransID    string `json:"transId"`
}

// CreatePaymentLink implements ports.PaymentGateway.
func (g *FapshiGateway) CreatePaymentLink(ctx context.Context, req domain.PaymentLinkRequest) (*domain.PaymentLink, error) {
	if err := validateLinkRequest(g.convention, req); err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"amount":     vendorAmount(g.convention, req.Amount),
		"email":      req.Email,
		"userName":   req.Name,
		"phone":      req.Mobile,
		"externalId": req.TransactionID,
		"message":    req.Description,
	}

	var resp fapshiInitiateResponse
	httpStatus, err := g.client.doJSON(ctx, http.MethodPost, "initiate-pay",
		nil, g.authHeaders(), body, &resp)
	if err != nil {
		return nil, apperror.ErrGatewayUnavailable("fapshi", err)
	}
	if httpStatus == http.StatusUnauthorized || httpStatus == http.StatusForbidden {
		return nil, apperror.ErrGatewayAuth("fapshi", nil)
	}
	if resp.StatusCode != 200 || resp.Link == "" {
		return nil, apperror.ErrGatewayRejected("fapshi", resp.Message)
	}

	g.log.Info().
		Str("transaction_id", req.TransactionID).
		Str("trans_id", resp.TransID).
		Msg("fapshi payment link created")

	return &domain.PaymentLink{
		URL:           resp.Link,
		TransactionID: req.TransactionID,
	}, nil
}

type fapshiStatusResponse struct {
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message"`
	TransID    string      `json:"transId"`
	ExternalID string      `json:"externalId"`
	Status     string      `json:"status"`
	Medium     string      `json:"medium"`
	Amount     json.Number `json:"amount"`
}

// CheckStatus implements ports.PaymentGateway. The transactionID here
// is the externalId echoed by Fapshi at initiation.
func (g *FapshiGateway) CheckStatus(ctx context.Context, transactionID string) (*domain.PaymentStatus, error) {
	var resp fapshiStatusResponse
	httpStatus, err := g.client.doJSON(ctx, http.MethodGet, "payment-status/"+transactionID,
		nil, g.authHeaders(), nil, &resp)
	if err != nil {
		return nil, apperror.ErrGatewayUnavailable("fapshi", err)
	}
	if httpStatus == http.StatusUnauthorized || httpStatus == http.StatusForbidden {
		return nil, apperror.ErrGatewayAuth("fapshi", nil)
	}
	if resp.StatusCode != 200 {
		return nil, apperror.ErrGatewayRejected("fapshi", resp.Message)
	}

	minor, err := vendorAmountToMinor(g.convention, resp.Amount)
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	return &domain.PaymentStatus{
		State:         g.convention.MapStatus(resp.Status),
		TransactionID: transactionID,
		Amount:        minor,
		Currency:      "XAF",
		Method:        resp.Medium,
	}, nil
}

type fapshiWebhookPayload struct {
	TransID    string      `json:"transId"`
	ExternalID string      `json:"externalId"`
	Status     string      `json:"status"`
	Medium     string      `json:"medium"`
	Amount     json.Number `json:"amount"`
	Message    string      `json:"message"`
}

// ParseWebhook implements ports.PaymentGateway. Fapshi events carry an
// HMAC-SHA256 hex signature of the raw body.
func (g *FapshiGateway) ParseWebhook(_ context.Context, header http.Header, body []byte) (*domain.PaymentEvent, error) {
	if !verifyBodySignature(g.cfg.WebhookSecret, body, header.Get(HeaderFapshiSignature)) {
		return nil, apperror.ErrWebhookSignature("fapshi")
	}

	var p fapshiWebhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, apperror.ErrWebhookMalformed(err)
	}
	if p.ExternalID == "" {
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
		Provider:            domain.ProviderFapshi,
		Type:                eventType,
		OrderTransactionID:  p.ExternalID,
		VendorTransactionID: p.TransID,
		Amount:              minor,
		Currency:            "XAF",
		Method:              p.Medium,
	}
	if eventType == domain.EventPaymentFailed {
		ev.FailureReason = p.Message
	}
	return ev, nil
}
