package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"payment-hub/config"
	"payment-hub/internal/core/domain"
	"payment-hub/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFapshiForTest(t *testing.T, baseURL string) *FapshiGateway {
	t.Helper()
	gw, err := NewFapshiGateway(config.FapshiConfig{
		BaseURL:       baseURL,
		APIUser:       "user-1",
		APIKey:        "key-1",
		WebhookSecret: "whsec-fapshi",
	}, 2*time.Second, zerolog.Nop())
	require.NoError(t, err)
	return gw
}

func TestFapshiGateway_CreatePaymentLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/initiate-pay", r.URL.Path)
		assert.Equal(t, "user-1", r.Header.Get("apiuser"))
		assert.Equal(t, "key-1", r.Header.Get("apikey"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		// Fapshi amounts are already minor units, no division.
		assert.Equal(t, float64(150000), body["amount"])
		assert.Equal(t, "txn-001", body["externalId"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"statusCode": 200,
			"link":       "https://checkout.fapshi.com/p/xyz",
			"transId":    "fp-77",
		})
	}))
	defer srv.Close()

	gw := newFapshiForTest(t, srv.URL)

	link, err := gw.CreatePaymentLink(context.Background(), testLinkRequest())
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.fapshi.com/p/xyz", link.URL)
	assert.Equal(t, "txn-001", link.TransactionID)
}

func TestFapshiGateway_CreatePaymentLink_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]interface{}{"message": "invalid credentials"})
	}))
	defer srv.Close()

	gw := newFapshiForTest(t, srv.URL)

	_, err := gw.CreatePaymentLink(context.Background(), testLinkRequest())
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "GW_001", appErr.Code)
}

func TestFapshiGateway_CheckStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payment-status/txn-001", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"statusCode": 200,
			"transId":    "fp-77",
			"externalId": "txn-001",
			"status":     "SUCCESSFUL",
			"medium":     "orange money",
			"amount":     150000,
		})
	}))
	defer srv.Close()

	gw := newFapshiForTest(t, srv.URL)

	status, err := gw.CheckStatus(context.Background(), "txn-001")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStateCompleted, status.State)
	assert.Equal(t, int64(150000), status.Amount)
	assert.Equal(t, "XAF", status.Currency)
	assert.Equal(t, "orange money", status.Method)
}

func TestFapshiGateway_ParseWebhook(t *testing.T) {
	gw := newFapshiForTest(t, "https://fapshi.invalid")

	t.Run("failed payment carries the reason", func(t *testing.T) {
		body := []byte(`{"transId":"fp-77","externalId":"txn-001","status":"FAILED","amount":150000,"medium":"mtn","message":"insufficient funds"}`)
		header := http.Header{}
		header.Set(HeaderFapshiSignature, signBody("whsec-fapshi", body))

		ev, err := gw.ParseWebhook(context.Background(), header, body)
		require.NoError(t, err)
		assert.Equal(t, domain.EventPaymentFailed, ev.Type)
		assert.Equal(t, "txn-001", ev.OrderTransactionID)
		assert.Equal(t, "insufficient funds", ev.FailureReason)
	})

	t.Run("missing signature", func(t *testing.T) {
		body := []byte(`{"externalId":"txn-001","status":"SUCCESSFUL","amount":1}`)

		_, err := gw.ParseWebhook(context.Background(), http.Header{}, body)
		require.Error(t, err)

		var appErr *apperror.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "HOOK_001", appErr.Code)
	})

	t.Run("missing reference", func(t *testing.T) {
		body := []byte(`{"status":"SUCCESSFUL","amount":1}`)
		header := http.Header{}
		header.Set(HeaderFapshiSignature, signBody("whsec-fapshi", body))

		_, err := gw.ParseWebhook(context.Background(), header, body)
		require.Error(t, err)

		var appErr *apperror.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "HOOK_002", appErr.Code)
	})
}
