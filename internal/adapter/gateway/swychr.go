package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"payment-hub/config"
	"payment-hub/internal/core/domain"
	"payment-hub/pkg/apperror"

	"github.com/google/go-querystring/query"
	"github.com/rs/zerolog"
)

// SwychrGateway integrates the Swychr (AccountPe) pay-in API.
// Swychr reports success as HTTP 200 plus a body status field equal to
// 200; anything else is a vendor rejection. Tokens are short-lived and
// re-acquired per call chain.
type SwychrGateway struct {
	cfg        config.SwychrConfig
	client     *vendorClient
	convention Convention
	log        zerolog.Logger
}

// NewSwychrGateway creates the Swychr adapter.
func NewSwychrGateway(cfg config.SwychrConfig, timeout time.Duration, log zerolog.Logger) (*SwychrGateway, error) {
	if cfg.Email == "" || cfg.Password == "" {
		return nil, apperror.ErrConfiguration("gateway.swychr.email/password")
	}
	client, err := newVendorClient(cfg.BaseURL, timeout, log)
	if err != nil {
		return nil, err
	}
	convention, err := ConventionFor(domain.ProviderSwychr)
	if err != nil {
		return nil, err
	}
	return &SwychrGateway{cfg: cfg, client: client, convention: convention, log: log}, nil
}

// Name implements ports.PaymentGateway.
func (g *SwychrGateway) Name() domain.PaymentProvider { return domain.ProviderSwychr }

type swychrAuthResponse struct {
	Status  int    `json:"status"`
	Token   string `json:"token"`
	Message string `json:"message"`
}

// authenticate exchanges the configured credentials for a bearer token.
func (g *SwychrGateway) authenticate(ctx context.Context) (string, error) {
	body := map[string]string{
		"email":    g.cfg.Email,
		"password": g.cfg.Password,
	}

	var resp swychrAuthResponse
	httpStatus, err := g.client.doJSON(ctx, http.MethodPost, "admin/auth", nil, nil, body, &resp)
	if err != nil {
		return "", apperror.ErrGatewayUnavailable("swychr", err)
	}
	if httpStatus != http.StatusOK || resp.Status != 200 || resp.Token == "" {
		return "", apperror.ErrGatewayAuth("swychr", nil)
	}
	return resp.Token, nil
}

type swychrLinkResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    struct {
		PaymentURL    string `json:"payment_url"`
		TransactionID string `json:"transaction_id"`
	} `json:"data"`
}

// CreatePaymentLink implements ports.PaymentGateway.
func (g *SwychrGateway) CreatePaymentLink(ctx context.Context, req domain.PaymentLinkRequest) (*domain.PaymentLink, error) {
	if err := validateLinkRequest(g.convention, req); err != nil {
		return nil, err
	}

	token, err := g.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"country_code":        req.CountryCode,
		"name":                req.Name,
		"email":               req.Email,
		"mobile":              req.Mobile,
		"amount":              vendorAmount(g.convention, req.Amount),
		"transaction_id":      req.TransactionID,
		"description":         req.Description,
		"pass_digital_charge": req.PassDigitalCharge,
	}

	var resp swychrLinkResponse
	httpStatus, err := g.client.doJSON(ctx, http.MethodPost, "create_payment_links",
		nil, map[string]string{"Authorization": "Bearer " + token}, body, &resp)
	if err != nil {
		return nil, apperror.ErrGatewayUnavailable("swychr", err)
	}
	if httpStatus != http.StatusOK || resp.Status != 200 {
		return nil, apperror.ErrGatewayRejected("swychr", resp.Message)
	}

	g.log.Info().
		Str("transaction_id", req.TransactionID).
		Msg("swychr payment link created")

	return &domain.PaymentLink{
		URL:           resp.Data.PaymentURL,
		TransactionID: req.TransactionID,
	}, nil
}

type swychrStatusQuery struct {
	TransactionID string `url:"transaction_id"`
}

type swychrStatusResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status        string      `json:"status"`
		Amount        json.Number `json:"amount"`
		PaymentMethod string      `json:"payment_method"`
		Currency      string      `json:"currency"`
	} `json:"data"`
}

// CheckStatus implements ports.PaymentGateway. Re-authenticates per
// call; Swychr tokens are not reused.
func (g *SwychrGateway) CheckStatus(ctx context.Context, transactionID string) (*domain.PaymentStatus, error) {
	token, err := g.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	qs, err := query.Values(swychrStatusQuery{TransactionID: transactionID})
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	var resp swychrStatusResponse
	httpStatus, err := g.client.doJSON(ctx, http.MethodGet, "payment_link_status",
		qs, map[string]string{"Authorization": "Bearer " + token}, nil, &resp)
	if err != nil {
		return nil, apperror.ErrGatewayUnavailable("swychr", err)
	}
	if httpStatus != http.StatusOK || resp.Status != 200 {
		return nil, apperror.ErrGatewayRejected("swychr", resp.Message)
	}

	minor, err := vendorAmountToMinor(g.convention, resp.Data.Amount)
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	return &domain.PaymentStatus{
		State:         g.convention.MapStatus(resp.Data.Status),
		TransactionID: transactionID,
		Amount:        minor,
		Currency:      resp.Data.Currency,
		Method:        resp.Data.PaymentMethod,
	}, nil
}

type swychrWebhookPayload struct {
	TransactionID string      `json:"transaction_id"`
	PaymentID     string      `json:"payment_id"`
	Status        string      `json:"status"`
	Amount        json.Number `json:"amount"`
	Currency      string      `json:"currency"`
	PaymentMethod string      `json:"payment_method"`
	Reason        string      `json:"reason"`
}

// ParseWebhook implements ports.PaymentGateway. Swychr signs the raw
// body with the shared webhook secret (HMAC-SHA256, hex).
func (g *SwychrGateway) ParseWebhook(_ context.Context, header http.Header, body []byte) (*domain.PaymentEvent, error) {
	if !verifyBodySignature(g.cfg.WebhookSecret, body, header.Get(HeaderSwychrSignature)) {
		return nil, apperror.ErrWebhookSignature("swychr")
	}

	var p swychrWebhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, apperror.ErrWebhookMalformed(err)
	}
	if p.TransactionID == "" {
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
		Provider:            domain.ProviderSwychr,
		Type:                eventType,
		OrderTransactionID:  p.TransactionID,
		VendorTransactionID: p.PaymentID,
		Amount:              minor,
		Currency:            p.Currency,
		Method:              p.PaymentMethod,
	}
	if eventType == domain.EventPaymentFailed {
		ev.FailureReason = p.Reason
	}
	return ev, nil
}
