// Package gateway holds the provider adapters: one file per payment
// vendor, a shared HTTP client with a bounded retry budget, and a
// single convention table that owns unit conversion and status mapping
// for all of them.
package gateway

import (
	"encoding/json"
	"errors"
	"fmt"

	"payment-hub/internal/core/domain"
	"payment-hub/pkg/apperror"

	"github.com/shopspring/decimal"
)

// Webhook header names, per vendor documentation.
const (
	HeaderStripeSignature = "Stripe-Signature"
	HeaderSwychrSignature = "X-Swychr-Signature"
	HeaderFapshiSignature = "X-Fapshi-Signature"
	HeaderCallbackToken   = "X-Callback-Token"
)

// validateLinkRequest enforces the required fields of a payment-link
// request, including that the amount is a whole number of the vendor's
// units. It runs before any network I/O: a failed validation must
// leave no authentication side effect at the vendor.
func validateLinkRequest(c Convention, req domain.PaymentLinkRequest) error {
	switch {
	case req.CountryCode == "":
		return apperror.ErrMissingField("country_code")
	case req.Name == "":
		return apperror.ErrMissingField("name")
	case req.Email == "":
		return apperror.ErrMissingField("email")
	case req.Currency == "":
		return apperror.ErrMissingField("currency")
	case req.TransactionID == "":
		return apperror.ErrMissingField("transaction_id")
	case req.Amount <= 0:
		return apperror.ErrInvalidAmount()
	case req.Amount%c.MinorUnitFactor != 0:
		return apperror.ErrInvalidAmount()
	}
	return nil
}

var errMissingReference = errors.New("webhook payload carries no transaction reference")

// vendorAmount renders an internal minor-unit amount in the vendor's
// unit as a bare JSON number.
func vendorAmount(c Convention, minor int64) json.Number {
	return json.Number(c.FromMinorUnits(minor).String())
}

// vendorAmountToMinor parses a vendor-unit amount as reported in a
// response or webhook and converts it to internal minor units.
func vendorAmountToMinor(c Convention, raw json.Number) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(raw.String())
	if err != nil {
		return 0, fmt.Errorf("parsing vendor amount %q: %w", raw, err)
	}
	return c.ToMinorUnits(d)
}

// eventTypeForState classifies a vendor-reported state as a success or
// failure event. Interim states such as PENDING carry no event: the
// callback is valid, there is just nothing to settle yet.
func eventTypeForState(state domain.PaymentState) (domain.EventType, bool) {
	switch {
	case state.IsSettled():
		return domain.EventPaymentSucceeded, true
	case state == domain.PaymentStateFailed, state == domain.PaymentStateCanceled:
		return domain.EventPaymentFailed, true
	default:
		return "", false
	}
}
