package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventOutcome records how an inbound provider event was handled.
type EventOutcome string

const (
	EventOutcomeApplied   EventOutcome = "APPLIED"
	EventOutcomeDuplicate EventOutcome = "DUPLICATE"
	EventOutcomeRejected  EventOutcome = "REJECTED"
	EventOutcomeFailed    EventOutcome = "FAILED"
	EventOutcomeIgnored   EventOutcome = "IGNORED"
)

// WebhookEventLog is the durable record of every inbound provider event.
// FAILED rows are the reconciliation queue: events that verified correctly
// but could not be applied to an order.
type WebhookEventLog struct {
	ID                  uuid.UUID    `json:"id"`
	Provider            string       `json:"provider"`
	EventType           string       `json:"event_type"`
	OrderTransactionID  string       `json:"order_transaction_id"`
	VendorTransactionID string       `json:"vendor_transaction_id"`
	Outcome             EventOutcome `json:"outcome"`
	Detail              *string      `json:"detail,omitempty"`
	Payload             string       `json:"payload"` // Raw JSON body as received
	CreatedAt           time.Time    `json:"created_at"`
}

// BuildEventDedupKey constructs the key used to detect redelivered
// provider events. Format: "provider:vendor_transaction_id".
func BuildEventDedupKey(provider PaymentProvider, vendorTxID string) string {
	return string(provider) + ":" + vendorTxID
}
