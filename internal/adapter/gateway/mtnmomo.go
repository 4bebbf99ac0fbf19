package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"payment-hub/config"
	"payment-hub/internal/core/domain"
	"payment-hub/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MoMoGateway integrates the MTN MoMo collection API. MoMo is a push
// flow: requesttopay sends a prompt to the payer's handset and the
// X-Reference-Id supplied at creation is the handle for later status
// queries. The buyer is sent to a configured checkout page that polls.
type MoMoGateway struct {
	cfg        config.MTNMoMoConfig
	client     *vendorClient
	convention Convention
	log        zerolog.Logger
}

// NewMoMoGateway creates the MTN MoMo adapter.
func NewMoMoGateway(cfg config.MTNMoMoConfig, timeout time.Duration, log zerolog.Logger) (*MoMoGateway, error) {
	if cfg.SubscriptionKey == "" || cfg.APIUser == "" || cfg.APIKey == "" {
		return nil, apperror.ErrConfiguration("gateway.mtn_momo credentials")
	}
	client, err := newVendorClient(cfg.BaseURL, timeout, log)
	if err != nil {
		return nil, err
	}
	convention, err := ConventionFor(domain.ProviderMTNMoMo)
	if err != nil {
		return nil, err
	}
	return &MoMoGateway{cfg: cfg, client: client, convention: convention, log: log}, nil
}

// Name implements ports.PaymentGateway.
func (g *MoMoGateway) Name() domain.PaymentProvider { return domain.ProviderMTNMoMo }

type momoTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (g *MoMoGateway) authenticate(ctx context.Context) (string, error) {
	basic := base64.StdEncoding.EncodeToString([]byte(g.cfg.APIUser + ":" + g.cfg.APIKey))
	headers := map[string]string{
		"Authorization":             "Basic " + basic,
		"Ocp-Apim-Subscription-Key": g.cfg.SubscriptionKey,
	}

	var resp momoTokenResponse
	httpStatus, err := g.client.doJSON(ctx, http.MethodPost, "collection/token/", nil, headers, nil, &resp)
	if err != nil {
		return "", apperror.ErrGatewayUnavailable("mtn-momo", err)
	}
	if httpStatus != http.StatusOK || resp.AccessToken == "" {
		return "", apperror.ErrGatewayAuth("mtn-momo", nil)
	}
	return resp.AccessToken, nil
}

// CreatePaymentLink implements ports.PaymentGateway. The returned URL
// points at the configured checkout page carrying the reference the
// buyer's session polls against.
func (g *MoMoGateway) CreatePaymentLink(ctx context.Context, req domain.PaymentLinkRequest) (*domain.PaymentLink, error) {
	if err := validateLinkRequest(g.convention, req); err != nil {
		return nil, err
	}
	if req.Mobile == "" {
		return nil, apperror.ErrMissingField("mobile")
	}

	token, err := g.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	referenceID := uuid.New().String()
	headers := map[string]string{
		"Authorization":             "Bearer " + token,
		"Ocp-Apim-Subscription-Key": g.cfg.SubscriptionKey,
		"X-Reference-Id":            referenceID,
		"X-Target-Environment":      g.cfg.TargetEnv,
	}

	body := map[string]interface{}{
		"amount":     vendorAmount(g.convention, req.Amount).String(),
		"currency":   req.Currency,
		"externalId": req.TransactionID,
		"payer": map[string]string{
			"partyIdType": "MSISDN",
			"partyId":     req.Mobile,
		},
		"payerMessage": req.Description,
		"payeeNote":    req.Description,
	}

	httpStatus, err := g.client.doJSON(ctx, http.MethodPost, "collection/v1_0/requesttopay",
		nil, headers, body, nil)
	if err != nil {
		return nil, apperror.ErrGatewayUnavailable("mtn-momo", err)
	}
	if httpStatus != http.StatusAccepted {
		return nil, apperror.ErrGatewayRejected("mtn-momo", http.StatusText(httpStatus))
	}

	g.log.Info().
		Str("transaction_id", req.TransactionID).
		Str("reference_id", referenceID).
		Msg("momo requesttopay accepted")

	checkout := g.cfg.CheckoutURL + "?" + url.Values{"reference": {referenceID}}.Encode()
	return &domain.PaymentLink{
		URL:           checkout,
		TransactionID: req.TransactionID,
	}, nil
}

type momoStatusResponse struct {
	Amount     json.Number `json:"amount"`
	Currency   string      `json:"currency"`
	ExternalID string      `json:"externalId"`
	Status     string      `json:"status"`
	Reason     struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"reason"`
}

// CheckStatus implements ports.PaymentGateway. transactionID here is
// the X-Reference-Id issued at creation.
func (g *MoMoGateway) CheckStatus(ctx context.Context, transactionID string) (*domain.PaymentStatus, error) {
	token, err := g.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{
		"Authorization":             "Bearer " + token,
		"Ocp-Apim-Subscription-Key": g.cfg.SubscriptionKey,
		"X-Target-Environment":      g.cfg.TargetEnv,
	}

	var resp momoStatusResponse
	httpStatus, err := g.client.doJSON(ctx, http.MethodGet, "collection/v1_0/requesttopay/"+transactionID,
		nil, headers, nil, &resp)
	if err != nil {
		return nil, apperror.ErrGatewayUnavailable("mtn-momo", err)
	}
	if httpStatus != http.StatusOK {
		return nil, apperror.ErrGatewayRejected("mtn-momo", http.StatusText(httpStatus))
	}

	minor, err := vendorAmountToMinor(g.convention, resp.Amount)
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	return &domain.PaymentStatus{
		State:         g.convention.MapStatus(resp.Status),
		TransactionID: resp.ExternalID,
		Amount:        minor,
		Currency:      resp.Currency,
		Method:        "mtn-momo",
	}, nil
}

type momoWebhookPayload struct {
	ExternalID  string      `json:"externalId"`
	ReferenceID string      `json:"referenceId"`
	Status      string      `json:"status"`
	Amount      json.Number `json:"amount"`
	Currency    string      `json:"currency"`
	Reason      struct {
		Message string `json:"message"`
	} `json:"reason"`
}

// ParseWebhook implements ports.PaymentGateway. MoMo callbacks are
// authenticated by the static token configured at subscription time.
func (g *MoMoGateway) ParseWebhook(_ context.Context, header http.Header, body []byte) (*domain.PaymentEvent, error) {
	if !verifyToken(g.cfg.CallbackToken, header.Get(HeaderCallbackToken)) {
		return nil, apperror.ErrWebhookSignature("mtn-momo")
	}

	var p momoWebhookPayload
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
		Provider:            domain.ProviderMTNMoMo,
		Type:                eventType,
		OrderTransactionID:  p.ExternalID,
		VendorTransactionID: p.ReferenceID,
		Amount:              minor,
		Currency:            p.Currency,
		Method:              "mtn-momo",
	}
	if eventType == domain.EventPaymentFailed {
		ev.FailureReason = p.Reason.Message
	}
	return ev, nil
}
