package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus represents the lifecycle state of a purchase order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusFailed    OrderStatus = "FAILED"
)

// Order represents a purchase that is settled through an external
// payment provider. TransactionID is the client-generated reference
// handed to the provider; PaymentID is the provider's own reference
// reported back on settlement.
type Order struct {
	ID            uuid.UUID   `json:"id"`
	BuyerID       uuid.UUID   `json:"buyer_id"`
	SellerRef     string      `json:"seller_ref"`
	ServiceCode   string      `json:"service_code"`
	CountryCode   string      `json:"country_code"`
	Amount        int64       `json:"amount"` // In minor units of Currency
	Currency      string      `json:"currency"`
	Status        OrderStatus `json:"status"`
	PaymentMethod string      `json:"payment_method,omitempty"`
	PaymentID     string      `json:"payment_id,omitempty"`
	TransactionID string      `json:"transaction_id"`
	ErrorMessage  *string     `json:"error_message,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// IsTerminal returns true if the order is in a final state.
// No transition out of a terminal state is permitted.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusPaid ||
		o.Status == OrderStatusCompleted ||
		o.Status == OrderStatusFailed
}
