package gateway

import (
	"fmt"
	"strings"

	"payment-hub/internal/core/domain"

	"github.com/shopspring/decimal"
)

// Convention declares, per provider, the amount unit the vendor API
// expects and how its status wording maps onto the normalized state
// set. All unit conversion happens at this boundary and nowhere else.
type Convention struct {
	Provider domain.PaymentProvider
	// MinorUnitFactor is how many internal minor units make up one
	// vendor unit. 1 means the vendor already speaks minor units
	// (cents, centimes); 100 means it expects major units.
	MinorUnitFactor int64
	// StatusVocabulary maps the vendor's status strings, uppercased,
	// onto the normalized state set.
	StatusVocabulary map[string]domain.PaymentState
}

var conventions = map[domain.PaymentProvider]Convention{
	domain.ProviderSwychr: {
		Provider:        domain.ProviderSwychr,
		MinorUnitFactor: 100, // v2 API takes major units
		StatusVocabulary: map[string]domain.PaymentState{
			"PENDING":   domain.PaymentStatePending,
			"INITIATED": domain.PaymentStatePending,
			"PAID":      domain.PaymentStatePaid,
			"COMPLETED": domain.PaymentStateCompleted,
			"FAILED":    domain.PaymentStateFailed,
			"CANCELED":  domain.PaymentStateCanceled,
		},
	},
	domain.ProviderFapshi: {
		Provider:        domain.ProviderFapshi,
		MinorUnitFactor: 1, // centimes
		StatusVocabulary: map[string]domain.PaymentState{
			"CREATED":    domain.PaymentStatePending,
			"PENDING":    domain.PaymentStatePending,
			"SUCCESSFUL": domain.PaymentStatePaid,
			"FAILED":     domain.PaymentStateFailed,
			"EXPIRED":    domain.PaymentStateCanceled,
		},
	},
	domain.ProviderCampay: {
		Provider:        domain.ProviderCampay,
		MinorUnitFactor: 100, // XAF major units
		StatusVocabulary: map[string]domain.PaymentState{
			"PENDING":    domain.PaymentStatePending,
			"SUCCESSFUL": domain.PaymentStatePaid,
			"FAILED":     domain.PaymentStateFailed,
		},
	},
	domain.ProviderMTNMoMo: {
		Provider:        domain.ProviderMTNMoMo,
		MinorUnitFactor: 100, // requesttopay takes major units
		StatusVocabulary: map[string]domain.PaymentState{
			"PENDING":    domain.PaymentStatePending,
			"SUCCESSFUL": domain.PaymentStatePaid,
			"FAILED":     domain.PaymentStateFailed,
			"TIMEOUT":    domain.PaymentStateFailed,
			"REJECTED":   domain.PaymentStateCanceled,
		},
	},
	domain.ProviderStripe: {
		Provider:        domain.ProviderStripe,
		MinorUnitFactor: 1, // cents
		StatusVocabulary: map[string]domain.PaymentState{
			"REQUIRES_PAYMENT_METHOD": domain.PaymentStatePending,
			"REQUIRES_CONFIRMATION":   domain.PaymentStatePending,
			"REQUIRES_ACTION":         domain.PaymentStatePending,
			"PROCESSING":              domain.PaymentStatePending,
			"SUCCEEDED":               domain.PaymentStatePaid,
			"CANCELED":                domain.PaymentStateCanceled,
		},
	},
}

// ConventionFor returns the declared convention for a provider.
func ConventionFor(provider domain.PaymentProvider) (Convention, error) {
	c, ok := conventions[provider]
	if !ok {
		return Convention{}, fmt.Errorf("no convention declared for provider %q", provider)
	}
	return c, nil
}

// FromMinorUnits converts an internal minor-unit amount into the
// vendor's unit. Exact for every amount: factor-100 vendors receive a
// decimal with up to two fraction digits.
func (c Convention) FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, 0).Div(decimal.New(c.MinorUnitFactor, 0))
}

// ToMinorUnits converts a vendor-unit amount back into internal minor
// units. Fails if the result is not a whole number of minor units.
func (c Convention) ToMinorUnits(vendor decimal.Decimal) (int64, error) {
	minor := vendor.Mul(decimal.New(c.MinorUnitFactor, 0))
	if !minor.IsInteger() {
		return 0, fmt.Errorf("%s amount %s is not a whole number of minor units", c.Provider, vendor)
	}
	return minor.IntPart(), nil
}

// MapStatus normalizes a vendor status string. Unknown wording maps to
// pending so an unrecognized interim status never settles an order.
func (c Convention) MapStatus(vendorStatus string) domain.PaymentState {
	if s, ok := c.StatusVocabulary[strings.ToUpper(vendorStatus)]; ok {
		return s
	}
	return domain.PaymentStatePending
}
