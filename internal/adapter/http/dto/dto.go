package dto

// RegisterRequest is the request body for account registration.
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email,max=254"`
	Password    string `json:"password" binding:"required,min=8,max=128"`
	DisplayName string `json:"display_name" binding:"omitempty,max=100"`
	Currency    string `json:"currency" binding:"omitempty,len=3"`
}

// LoginRequest is the request body for account login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse is the response body for successful registration.
type RegisterResponse struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Currency string `json:"currency"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// CreatePaymentRequest is the request body for opening a payment link.
// TransactionID is optional; the server generates one when absent.
type CreatePaymentRequest struct {
	Amount        int64  `json:"amount" binding:"required,gt=0"`
	Currency      string `json:"currency" binding:"required,len=3"`
	CountryCode   string `json:"country_code" binding:"omitempty,len=2"`
	Mobile        string `json:"mobile" binding:"omitempty,msisdn"`
	Description   string `json:"description" binding:"omitempty,max=255"`
	TransactionID string `json:"transaction_id" binding:"omitempty,safe_id,max=100"`
	ServiceCode   string `json:"service_code" binding:"omitempty,safe_id,max=50"`
	SellerRef     string `json:"seller_ref" binding:"omitempty,safe_id,max=100"`
}

// PaymentLinkResponse is the response body for a created payment link.
type PaymentLinkResponse struct {
	Provider      string `json:"provider"`
	TransactionID string `json:"transaction_id"`
	PaymentURL    string `json:"payment_url"`
	ClientSecret  string `json:"client_secret,omitempty"`
}

// PaymentStatusResponse is the response body for a status poll.
type PaymentStatusResponse struct {
	Provider      string `json:"provider"`
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
}

// RateEntry is one currency row in the rate listing.
type RateEntry struct {
	Currency   string `json:"currency"`
	Rate       string `json:"rate"` // USD-relative, decimal string
	VATPercent string `json:"vat_percent"`
}

// RatesResponse is the response body for the public rate listing.
type RatesResponse struct {
	Base      string      `json:"base"`
	Rates     []RateEntry `json:"rates"`
	UpdatedAt string      `json:"updated_at"`
}

// BalanceResponse is the response body for the balance view.
type BalanceResponse struct {
	Balance  int64  `json:"balance"`
	Currency string `json:"currency"`
}
