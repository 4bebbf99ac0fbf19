package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"payment-hub/internal/core/domain"
	"payment-hub/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// --- In-Memory User Repo ---

type inMemoryUserRepo struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*domain.User
}

func newInMemoryUserRepo() *inMemoryUserRepo {
	return &inMemoryUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *inMemoryUserRepo) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return fmt.Errorf("email already exists")
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *inMemoryUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *inMemoryUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryUserRepo) Credit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("user not found")
	}
	u.Balance += amount
	u.UpdatedAt = time.Now()
	return nil
}

// --- In-Memory Order Repo ---

type inMemoryOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*domain.Order
}

func newInMemoryOrderRepo() *inMemoryOrderRepo {
	return &inMemoryOrderRepo{orders: make(map[uuid.UUID]*domain.Order)}
}

func (r *inMemoryOrderRepo) Create(ctx context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.orders {
		if existing.TransactionID == o.TransactionID {
			return fmt.Errorf("transaction id already exists")
		}
	}
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *inMemoryOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (r *inMemoryOrderRepo) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.TransactionID == transactionID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

// MarkPaid mirrors the SQL compare-and-set: the status check and the
// update happen under one lock, so concurrent deliveries of the same
// event observe exactly one transition.
func (r *inMemoryOrderRepo) MarkPaid(ctx context.Context, tx pgx.Tx, id uuid.UUID, method, paymentID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.Status != domain.OrderStatusPending {
		return false, nil
	}
	o.Status = domain.OrderStatusPaid
	o.PaymentMethod = method
	o.PaymentID = paymentID
	o.UpdatedAt = time.Now()
	return true, nil
}

func (r *inMemoryOrderRepo) MarkFailed(ctx context.Context, tx pgx.Tx, id uuid.UUID, errorMessage string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.Status != domain.OrderStatusPending {
		return false, nil
	}
	o.Status = domain.OrderStatusFailed
	o.ErrorMessage = &errorMessage
	o.UpdatedAt = time.Now()
	return true, nil
}

// --- In-Memory Rate Repo ---

type inMemoryRateRepo struct {
	mu       sync.RWMutex
	snapshot *domain.RateSet
}

func newInMemoryRateRepo() *inMemoryRateRepo {
	return &inMemoryRateRepo{}
}

func (r *inMemoryRateRepo) GetLatest(ctx context.Context) (*domain.RateSet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot, nil
}

func (r *inMemoryRateRepo) Replace(ctx context.Context, set *domain.RateSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshot = set
	return nil
}

// --- In-Memory Event Log Repo ---

type inMemoryEventLogRepo struct {
	mu      sync.Mutex
	entries []domain.WebhookEventLog
}

func newInMemoryEventLogRepo() *inMemoryEventLogRepo {
	return &inMemoryEventLogRepo{}
}

func (r *inMemoryEventLogRepo) Create(ctx context.Context, entry *domain.WebhookEventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *inMemoryEventLogRepo) ListByOutcome(ctx context.Context, outcome domain.EventOutcome, limit int) ([]domain.WebhookEventLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.WebhookEventLog
	for i := len(r.entries) - 1; i >= 0 && len(result) < limit; i-- {
		if r.entries[i].Outcome == outcome {
			result = append(result, r.entries[i])
		}
	}
	return result, nil
}

func (r *inMemoryEventLogRepo) countByOutcome(outcome domain.EventOutcome) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.Outcome == outcome {
			n++
		}
	}
	return n
}

// --- In-Memory Transactor (no-op tx) ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }

// --- Fake Payment Gateway ---

const fakeWebhookSecret = "integration-webhook-secret"

// fakeGateway stands in for a hosted-checkout provider. Webhooks are
// authenticated by a shared-secret header, the same shape the real
// Campay adapter uses.
type fakeGateway struct {
	provider domain.PaymentProvider

	mu       sync.Mutex
	statuses map[string]*domain.PaymentStatus
}

func newFakeGateway(provider domain.PaymentProvider) *fakeGateway {
	return &fakeGateway{
		provider: provider,
		statuses: make(map[string]*domain.PaymentStatus),
	}
}

func (g *fakeGateway) Name() domain.PaymentProvider { return g.provider }

func (g *fakeGateway) CreatePaymentLink(ctx context.Context, req domain.PaymentLinkRequest) (*domain.PaymentLink, error) {
	g.mu.Lock()
	g.statuses[req.TransactionID] = &domain.PaymentStatus{
		State:         domain.PaymentStatePending,
		TransactionID: req.TransactionID,
		Amount:        req.Amount,
		Currency:      req.Currency,
	}
	g.mu.Unlock()
	return &domain.PaymentLink{
		URL:           fmt.Sprintf("https://pay.example.test/%s/%s", g.provider, req.TransactionID),
		TransactionID: req.TransactionID,
	}, nil
}

func (g *fakeGateway) CheckStatus(ctx context.Context, transactionID string) (*domain.PaymentStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	status, ok := g.statuses[transactionID]
	if !ok {
		return nil, apperror.ErrGatewayRejected(string(g.provider), "unknown transaction")
	}
	cp := *status
	return &cp, nil
}

func (g *fakeGateway) setState(transactionID string, state domain.PaymentState) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if status, ok := g.statuses[transactionID]; ok {
		status.State = state
	}
}

type fakeWebhookPayload struct {
	TransactionID       string `json:"transaction_id"`
	VendorTransactionID string `json:"vendor_transaction_id"`
	Status              string `json:"status"`
	Amount              int64  `json:"amount"`
	Currency            string `json:"currency"`
	Method              string `json:"method"`
	Reason              string `json:"reason"`
}

func (g *fakeGateway) ParseWebhook(ctx context.Context, header http.Header, body []byte) (*domain.PaymentEvent, error) {
	if header.Get("X-Webhook-Key") != fakeWebhookSecret {
		return nil, apperror.ErrWebhookSignature(string(g.provider))
	}

	var payload fakeWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperror.ErrWebhookMalformed(err)
	}

	ev := &domain.PaymentEvent{
		Provider:            g.provider,
		OrderTransactionID:  payload.TransactionID,
		VendorTransactionID: payload.VendorTransactionID,
		Amount:              payload.Amount,
		Currency:            payload.Currency,
		Method:              payload.Method,
		FailureReason:       payload.Reason,
	}
	switch payload.Status {
	case "SUCCESSFUL":
		ev.Type = domain.EventPaymentSucceeded
	case "FAILED":
		ev.Type = domain.EventPaymentFailed
	default:
		// Interim notifications settle nothing.
		return nil, nil
	}
	return ev, nil
}

// --- Fake Rate Source ---

type fakeRateSource struct{}

func newFakeRateSource() *fakeRateSource {
	return &fakeRateSource{}
}

func (s *fakeRateSource) FetchRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	return map[string]decimal.Decimal{
		"XAF": decimal.NewFromInt(600),
		"EUR": decimal.NewFromFloat(0.9),
		"NGN": decimal.NewFromInt(1500),
	}, nil
}
