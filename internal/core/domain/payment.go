package domain

// PaymentProvider identifies an external payment processor.
type PaymentProvider string

const (
	ProviderSwychr  PaymentProvider = "swychr"
	ProviderFapshi  PaymentProvider = "fapshi"
	ProviderCampay  PaymentProvider = "campay"
	ProviderMTNMoMo PaymentProvider = "mtn-momo"
	ProviderStripe  PaymentProvider = "stripe"
)

// PaymentState is the normalized status vocabulary shared by all
// provider adapters. Each adapter maps its vendor's own wording onto
// this set.
type PaymentState string

const (
	PaymentStatePending   PaymentState = "pending"
	PaymentStatePaid      PaymentState = "paid"
	PaymentStateCompleted PaymentState = "completed"
	PaymentStateFailed    PaymentState = "failed"
	PaymentStateCanceled  PaymentState = "canceled"
)

// IsSettled returns true for states that end a payment attempt successfully.
func (s PaymentState) IsSettled() bool {
	return s == PaymentStatePaid || s == PaymentStateCompleted
}

// PaymentLinkRequest is the transient value object handed to a provider
// adapter to open a hosted payment page. It is constructed per call and
// never persisted.
type PaymentLinkRequest struct {
	CountryCode       string
	Name              string
	Email             string
	Mobile            string
	Amount            int64 // In minor units of Currency
	Currency          string
	TransactionID     string
	Description       string
	PassDigitalCharge bool
}

// PaymentLink is the result of a successful payment-link creation.
// ClientSecret is set only by providers that settle in the browser
// (Stripe); URL is set by redirect-based providers.
type PaymentLink struct {
	URL           string `json:"payment_url,omitempty"`
	ClientSecret  string `json:"client_secret,omitempty"`
	TransactionID string `json:"transaction_id"`
}

// PaymentStatus is a provider's view of a payment attempt.
type PaymentStatus struct {
	State         PaymentState `json:"status"`
	TransactionID string       `json:"transaction_id"`
	Amount        int64        `json:"amount"`
	Currency      string       `json:"currency"`
	Method        string       `json:"method,omitempty"`
}

// EventType classifies a normalized provider webhook event.
type EventType string

const (
	EventPaymentSucceeded EventType = "payment.succeeded"
	EventPaymentFailed    EventType = "payment.failed"
)

// PaymentEvent is the normalized shape of a verified provider webhook.
// OrderTransactionID matches Order.TransactionID; VendorTransactionID
// is the provider's own reference.
type PaymentEvent struct {
	Provider            PaymentProvider `json:"provider"`
	Type                EventType       `json:"event_type"`
	OrderTransactionID  string          `json:"order_transaction_id"`
	VendorTransactionID string          `json:"vendor_transaction_id"`
	Amount              int64           `json:"amount"`
	Currency            string          `json:"currency"`
	Method              string          `json:"method,omitempty"`
	FailureReason       string          `json:"failure_reason,omitempty"`
}
