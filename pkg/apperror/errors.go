package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Request Validation (VAL) ----

// Validation reports a missing or malformed request field.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

func ErrMissingField(field string) *AppError {
	return New("VAL_002", fmt.Sprintf("missing required field: %s", field), http.StatusBadRequest)
}

func ErrInvalidAmount() *AppError {
	return New("VAL_003", "Invalid amount", http.StatusBadRequest)
}

func ErrUnknownProvider(provider string) *AppError {
	return New("VAL_004", fmt.Sprintf("unknown payment provider: %s", provider), http.StatusNotFound)
}

// ---- Payment Gateway (GW) ----

// ErrGatewayAuth reports a failed authentication against a provider API.
func ErrGatewayAuth(provider string, err error) *AppError {
	return Wrap("GW_001", fmt.Sprintf("%s authentication failed", provider), http.StatusBadGateway, err)
}

// ErrGatewayRejected reports a provider-side business failure; the
// vendor's message is passed through to the caller.
func ErrGatewayRejected(provider string, vendorMessage string) *AppError {
	return New("GW_002", fmt.Sprintf("%s rejected payment: %s", provider, vendorMessage), http.StatusBadRequest)
}

// ErrGatewayUnavailable reports a transport-level failure after the
// retry budget was exhausted.
func ErrGatewayUnavailable(provider string, err error) *AppError {
	return Wrap("GW_003", fmt.Sprintf("%s is unavailable", provider), http.StatusBadGateway, err)
}

// ---- Webhook Verification (HOOK) ----

func ErrWebhookSignature(provider string) *AppError {
	return New("HOOK_001", fmt.Sprintf("invalid %s webhook signature", provider), http.StatusUnauthorized)
}

func ErrWebhookMalformed(err error) *AppError {
	return Wrap("HOOK_002", "malformed webhook payload", http.StatusBadRequest, err)
}

// ---- Order Lifecycle (ORD) ----

func ErrOrderNotFound(reference string) *AppError {
	return New("ORD_001", fmt.Sprintf("order not found: %s", reference), http.StatusNotFound)
}

func ErrDuplicateTransactionID() *AppError {
	return New("ORD_002", "transaction_id already used", http.StatusConflict)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrEmailExists() *AppError {
	return New("AUTH_002", "Email already registered", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- Configuration (CFG) ----

// ErrConfiguration reports missing or unusable credentials. The message
// names the setting, never its value.
func ErrConfiguration(setting string) *AppError {
	return New("CFG_001", fmt.Sprintf("missing or invalid configuration: %s", setting), http.StatusInternalServerError)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// ErrPersistence reports a database write failure. It is never
// swallowed: callers propagate it so the update can be retried.
func ErrPersistence(err error) *AppError {
	return Wrap("SYS_002", "Persistence failure", http.StatusInternalServerError, err)
}

func ErrRateFetch(err error) *AppError {
	return Wrap("SYS_003", "Exchange rate fetch failed", http.StatusServiceUnavailable, err)
}
