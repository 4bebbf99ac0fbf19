package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"payment-hub/internal/adapter/gateway"
	httpHandler "payment-hub/internal/adapter/http/handler"
	redisStorage "payment-hub/internal/adapter/storage/redis"
	"payment-hub/internal/core/domain"
	"payment-hub/internal/core/ports"
	"payment-hub/internal/service"
	"payment-hub/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp builds a full application stack: the real HTTP layer,
// middleware, handlers, and services, wired to in-memory repos, a fake
// provider adapter, and a real Redis dedup store backed by miniredis.

type testApp struct {
	server   *httptest.Server
	redis    *miniredis.Miniredis
	gw       *fakeGateway
	users    *inMemoryUserRepo
	orders   *inMemoryOrderRepo
	eventLog *inMemoryEventLogRepo
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	dedupStore := redisStorage.NewEventDedupStore(rdb)

	userRepo := newInMemoryUserRepo()
	orderRepo := newInMemoryOrderRepo()
	rateRepo := newInMemoryRateRepo()
	eventLogRepo := newInMemoryEventLogRepo()
	transactor := newInMemoryTransactor()

	gw := newFakeGateway(domain.ProviderCampay)
	registry := gateway.NewRegistryFrom(gw)

	log := logger.New("debug", false)

	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService("test-jwt-secret-key-32bytes!!", 24*time.Hour, "test-issuer")
	notifier := service.NewLogNotifier(log)

	authSvc := service.NewAuthService(userRepo, hashSvc, tokenSvc)
	rateSvc := service.NewRateService(newFakeRateSource(), rateRepo, 24*time.Hour, log)
	orderSvc := service.NewOrderService(orderRepo, userRepo, rateSvc, notifier, transactor, log)
	checkoutSvc := service.NewCheckoutService(registry, orderRepo, userRepo, orderSvc, log)
	webhookProc := service.NewWebhookProcessor(registry, orderSvc, dedupStore, eventLogRepo, log)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		CheckoutSvc:    checkoutSvc,
		RateSvc:        rateSvc,
		WebhookProc:    webhookProc,
		UserRepo:       userRepo,
		TokenSvc:       tokenSvc,
		RateLimitStore: nil, // rate limiting covered by middleware tests
		HealthCheckers: []ports.HealthChecker{redisStorage.NewHealthCheck(rdb)},
		Logger:         log,
	})

	server := httptest.NewServer(router)

	return &testApp{
		server:   server,
		redis:    mr,
		gw:       gw,
		users:    userRepo,
		orders:   orderRepo,
		eventLog: eventLogRepo,
	}
}

func (a *testApp) close() {
	a.server.Close()
	a.redis.Close()
}

// --- Integration Tests ---

func TestIntegration_HealthCheck(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, err := http.Get(app.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestIntegration_RegisterAndLogin(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	regBody, _ := json.Marshal(map[string]string{
		"email":        "buyer@example.com",
		"password":     "StrongPass123!",
		"display_name": "Test Buyer",
		"currency":     "XAF",
	})
	resp, err := http.Post(app.server.URL+"/api/v1/auth/register", "application/json", bytes.NewReader(regBody))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var regResp map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&regResp))
	data := regResp["data"].(map[string]interface{})
	assert.NotEmpty(t, data["user_id"])
	assert.Equal(t, "buyer@example.com", data["email"])
	assert.Equal(t, "XAF", data["currency"])

	loginBody, _ := json.Marshal(map[string]string{
		"email":    "buyer@example.com",
		"password": "StrongPass123!",
	})
	resp2, err := http.Post(app.server.URL+"/api/v1/auth/login", "application/json", bytes.NewReader(loginBody))
	require.NoError(t, err)
	defer resp2.Body.Close()

	assert.Equal(t, http.StatusOK, resp2.StatusCode)

	var loginResp map[string]interface{}
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&loginResp))
	loginData := loginResp["data"].(map[string]interface{})
	assert.NotEmpty(t, loginData["token"])
}

func TestIntegration_LoginWrongCredentials(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	loginBody, _ := json.Marshal(map[string]string{
		"email":    "nobody@example.com",
		"password": "wrongpassword",
	})
	resp, err := http.Post(app.server.URL+"/api/v1/auth/login", "application/json", bytes.NewReader(loginBody))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIntegration_DuplicateEmail(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	regBody, _ := json.Marshal(map[string]string{
		"email":    "dup@example.com",
		"password": "StrongPass123!",
	})

	resp, err := http.Post(app.server.URL+"/api/v1/auth/register", "application/json", bytes.NewReader(regBody))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp2, err := http.Post(app.server.URL+"/api/v1/auth/register", "application/json", bytes.NewReader(regBody))
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusConflict, resp2.StatusCode)
}

func TestIntegration_Balance_Unauthorized(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	req, _ := http.NewRequest(http.MethodGet, app.server.URL+"/api/v1/users/me/balance", nil)
	// No Authorization header
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIntegration_Rates(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, err := http.Get(app.server.URL + "/api/v1/rates")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data struct {
			Base  string `json:"base"`
			Rates []struct {
				Currency string `json:"currency"`
				Rate     string `json:"rate"`
			} `json:"rates"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "USD", body.Data.Base)
	// USD plus the three fake source currencies
	assert.Len(t, body.Data.Rates, 4)
}

func TestIntegration_PaymentLinkAndWebhookSettlement(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := registerAndLogin(t, app, "settle@example.com", "XAF")

	// Open a payment link
	linkResp := createPayment(t, app, token, "order-settle-001", 150000, "XAF")
	assert.Equal(t, "campay", linkResp.Provider)
	assert.Equal(t, "order-settle-001", linkResp.TransactionID)
	assert.Contains(t, linkResp.PaymentURL, "pay.example.test")

	// Vendor settles and calls back
	resp := deliverWebhook(t, app, webhookBody("order-settle-001", "vendor-ref-1", "SUCCESSFUL", 150000, "XAF"), fakeWebhookSecret)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var ack map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ack))
	assert.Equal(t, true, ack["received"])

	// Order is PAID and the buyer was credited in full (same currency)
	assertBalance(t, app, token, 150000, "XAF")

	order, err := app.orders.GetByTransactionID(context.Background(), "order-settle-001")
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, domain.OrderStatusPaid, order.Status)
	assert.Equal(t, "vendor-ref-1", order.PaymentID)
}

func TestIntegration_WebhookRedelivery_NoDoubleCredit(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := registerAndLogin(t, app, "redeliver@example.com", "XAF")
	createPayment(t, app, token, "order-redeliver-001", 50000, "XAF")

	body := webhookBody("order-redeliver-001", "vendor-ref-2", "SUCCESSFUL", 50000, "XAF")

	resp1 := deliverWebhook(t, app, body, fakeWebhookSecret)
	resp1.Body.Close()
	require.Equal(t, http.StatusOK, resp1.StatusCode)

	// Same vendor reference again: acknowledged, not re-applied
	resp2 := deliverWebhook(t, app, body, fakeWebhookSecret)
	resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)

	assertBalance(t, app, token, 50000, "XAF")
	assert.Equal(t, 1, app.eventLog.countByOutcome(domain.EventOutcomeApplied))
	assert.Equal(t, 1, app.eventLog.countByOutcome(domain.EventOutcomeDuplicate))
}

func TestIntegration_WebhookBadSignature(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := registerAndLogin(t, app, "badsig@example.com", "XAF")
	createPayment(t, app, token, "order-badsig-001", 10000, "XAF")

	resp := deliverWebhook(t, app, webhookBody("order-badsig-001", "vendor-ref-3", "SUCCESSFUL", 10000, "XAF"), "wrong-secret")
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Nothing was applied
	assertBalance(t, app, token, 0, "XAF")
}

func TestIntegration_WebhookFailureEvent(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := registerAndLogin(t, app, "failed@example.com", "XAF")
	createPayment(t, app, token, "order-failed-001", 20000, "XAF")

	body := webhookBody("order-failed-001", "vendor-ref-4", "FAILED", 20000, "XAF")
	resp := deliverWebhook(t, app, body, fakeWebhookSecret)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assertBalance(t, app, token, 0, "XAF")

	order, err := app.orders.GetByTransactionID(context.Background(), "order-failed-001")
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, domain.OrderStatusFailed, order.Status)
}

func TestIntegration_WebhookInterimStatusAcknowledged(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := registerAndLogin(t, app, "interim@example.com", "XAF")
	createPayment(t, app, token, "order-interim-001", 20000, "XAF")

	// A verified PENDING notification is acknowledged so the vendor
	// stops redelivering, and settles nothing.
	body := webhookBody("order-interim-001", "vendor-ref-7", "PENDING", 20000, "XAF")
	resp := deliverWebhook(t, app, body, fakeWebhookSecret)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assertBalance(t, app, token, 0, "XAF")

	order, err := app.orders.GetByTransactionID(context.Background(), "order-interim-001")
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, 1, app.eventLog.countByOutcome(domain.EventOutcomeIgnored))

	// The real settlement still lands afterwards.
	settle := webhookBody("order-interim-001", "vendor-ref-7", "SUCCESSFUL", 20000, "XAF")
	resp = deliverWebhook(t, app, settle, fakeWebhookSecret)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assertBalance(t, app, token, 20000, "XAF")
}

func TestIntegration_StatusPollSettlesMissedWebhook(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := registerAndLogin(t, app, "poll@example.com", "XAF")
	createPayment(t, app, token, "order-poll-001", 75000, "XAF")

	// Vendor settled but the webhook never arrived
	app.gw.setState("order-poll-001", domain.PaymentStateCompleted)

	req, _ := http.NewRequest(http.MethodGet, app.server.URL+"/api/v1/payments/campay/status?reference=order-poll-001", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data struct {
			Status        string `json:"status"`
			TransactionID string `json:"transaction_id"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "completed", body.Data.Status)

	// The poll applied the missed transition
	assertBalance(t, app, token, 75000, "XAF")
}

func TestIntegration_CreatePayment_UnknownProvider(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := registerAndLogin(t, app, "unknown@example.com", "XAF")

	payBody, _ := json.Marshal(map[string]interface{}{
		"amount":   int64(1000),
		"currency": "XAF",
	})
	req, _ := http.NewRequest(http.MethodPost, app.server.URL+"/api/v1/payments/paypal", bytes.NewReader(payBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIntegration_DuplicateTransactionID(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := registerAndLogin(t, app, "duptxn@example.com", "XAF")
	createPayment(t, app, token, "order-dup-001", 5000, "XAF")

	payBody, _ := json.Marshal(map[string]interface{}{
		"amount":         int64(5000),
		"currency":       "XAF",
		"transaction_id": "order-dup-001",
	})
	req, _ := http.NewRequest(http.MethodPost, app.server.URL+"/api/v1/payments/campay", bytes.NewReader(payBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

// --- Helpers ---

func registerAndLogin(t *testing.T, app *testApp, email, currency string) string {
	t.Helper()
	regBody, _ := json.Marshal(map[string]string{
		"email":    email,
		"password": "StrongPass123!",
		"currency": currency,
	})
	resp, err := http.Post(app.server.URL+"/api/v1/auth/register", "application/json", bytes.NewReader(regBody))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	loginBody, _ := json.Marshal(map[string]string{
		"email":    email,
		"password": "StrongPass123!",
	})
	resp2, err := http.Post(app.server.URL+"/api/v1/auth/login", "application/json", bytes.NewReader(loginBody))
	require.NoError(t, err)
	defer resp2.Body.Close()

	bodyBytes, _ := io.ReadAll(resp2.Body)
	var loginResp map[string]interface{}
	require.NoError(t, json.Unmarshal(bodyBytes, &loginResp))
	data := loginResp["data"].(map[string]interface{})
	return data["token"].(string)
}

type paymentLinkData struct {
	Provider      string `json:"provider"`
	TransactionID string `json:"transaction_id"`
	PaymentURL    string `json:"payment_url"`
}

func createPayment(t *testing.T, app *testApp, token, transactionID string, amount int64, currency string) paymentLinkData {
	t.Helper()
	payBody, _ := json.Marshal(map[string]interface{}{
		"amount":         amount,
		"currency":       currency,
		"transaction_id": transactionID,
		"country_code":   "CM",
		"description":    "integration test order",
	})
	req, _ := http.NewRequest(http.MethodPost, app.server.URL+"/api/v1/payments/campay", bytes.NewReader(payBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, "create payment response: %s", string(bodyBytes))

	var linkResp struct {
		Data paymentLinkData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(bodyBytes, &linkResp))
	return linkResp.Data
}

func webhookBody(transactionID, vendorRef, status string, amount int64, currency string) []byte {
	body, _ := json.Marshal(map[string]interface{}{
		"transaction_id":        transactionID,
		"vendor_transaction_id": vendorRef,
		"status":                status,
		"amount":                amount,
		"currency":              currency,
		"method":                "mobile_money",
	})
	return body
}

func deliverWebhook(t *testing.T, app *testApp, body []byte, secret string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(http.MethodPost, app.server.URL+"/webhooks/campay", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Key", secret)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func assertBalance(t *testing.T, app *testApp, token string, want int64, wantCurrency string) {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, app.server.URL+"/api/v1/users/me/balance", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data struct {
			Balance  int64  `json:"balance"`
			Currency string `json:"currency"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, want, body.Data.Balance, "balance mismatch")
	assert.Equal(t, wantCurrency, body.Data.Currency)
}
