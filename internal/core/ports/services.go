package ports

import (
	"context"
	"net/http"
	"time"

	"payment-hub/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- Gateway Ports ---

// PaymentGateway is the contract every provider adapter implements.
// Adapters authenticate per call chain; tokens are never cached across
// calls (a status check re-authenticates).
type PaymentGateway interface {
	Name() domain.PaymentProvider
	// CreatePaymentLink validates the request before any network I/O,
	// authenticates against the vendor, and opens a hosted payment page.
	CreatePaymentLink(ctx context.Context, req domain.PaymentLinkRequest) (*domain.PaymentLink, error)
	// CheckStatus re-authenticates and maps the vendor's status
	// vocabulary onto domain.PaymentState.
	CheckStatus(ctx context.Context, transactionID string) (*domain.PaymentStatus, error)
	// ParseWebhook verifies an inbound vendor event and normalizes it.
	// Verification failure must surface before any order mutation. A
	// verified callback that settles nothing, an interim status for
	// example, returns (nil, nil).
	ParseWebhook(ctx context.Context, header http.Header, body []byte) (*domain.PaymentEvent, error)
}

// GatewayRegistry resolves a provider name to its adapter.
type GatewayRegistry interface {
	Get(provider string) (PaymentGateway, bool)
	Names() []string
}

// RateSource fetches fresh USD-relative conversion rates from an
// external provider.
type RateSource interface {
	FetchRates(ctx context.Context) (map[string]decimal.Decimal, error)
}

// Notifier delivers a user-facing notification after a terminal order
// transition. Implementations must not block webhook processing.
type Notifier interface {
	PaymentSucceeded(ctx context.Context, order *domain.Order)
	PaymentFailed(ctx context.Context, order *domain.Order, reason string)
}

// --- Service Ports (Business Logic) ---

// OrderService owns order state transitions and the balance credit that
// accompanies a settled payment.
type OrderService interface {
	// ApplyPaymentEvent applies a verified provider event to its order.
	// Re-applying an event for an order already in a terminal state is a
	// no-op, never a repeated credit.
	ApplyPaymentEvent(ctx context.Context, ev *domain.PaymentEvent) error
	GetByTransactionID(ctx context.Context, transactionID string) (*domain.Order, error)
}

// WebhookProcessor ingests an inbound provider callback end to end:
// verification, dedup, order transition, event logging.
type WebhookProcessor interface {
	Process(ctx context.Context, provider string, header http.Header, body []byte) error
}

// CheckoutService drives the payment-link lifecycle from the buyer side.
type CheckoutService interface {
	CreatePayment(ctx context.Context, userID uuid.UUID, provider string, req CreatePaymentRequest) (*domain.PaymentLink, error)
	// CheckPayment polls the provider and, when the vendor reports a
	// terminal outcome for a still-pending order, applies the same
	// transition a webhook would.
	CheckPayment(ctx context.Context, provider string, reference string) (*domain.PaymentStatus, error)
}

// CreatePaymentRequest holds validated input for opening a payment link.
type CreatePaymentRequest struct {
	Amount        int64
	Currency      string
	CountryCode   string
	Mobile        string
	Description   string
	TransactionID string
	ServiceCode   string
	SellerRef     string
}

// RateService owns the exchange rate snapshot and its 24-hour refresh
// window.
type RateService interface {
	// RefreshIfStale returns the current rate set, fetching from the
	// upstream source only when the snapshot is older than the window.
	RefreshIfStale(ctx context.Context, now time.Time) (*domain.RateSet, error)
	// Convert translates an amount in minor units between currencies
	// using the current snapshot.
	Convert(ctx context.Context, amount int64, from, to string) (int64, error)
}

// AuthService defines buyer account authentication.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, time.Time, error) // token, expiry, error
}

// RegisterRequest holds input for account registration.
type RegisterRequest struct {
	Email       string
	Password    string
	DisplayName string
	Currency    string
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(userID uuid.UUID, email string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID uuid.UUID
	Email  string
}
