package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate is one currency's conversion rate relative to USD plus
// its VAT percentage. USD is always rate 1.0 with VAT 0.
type ExchangeRate struct {
	Currency   string          `json:"currency"`
	Rate       decimal.Decimal `json:"rate"`
	VATPercent decimal.Decimal `json:"vat_percent"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// RateSet is a full snapshot of exchange rates keyed by currency code.
// It is always replaced wholesale, never merged incrementally.
type RateSet struct {
	Rates     map[string]ExchangeRate `json:"rates"`
	UpdatedAt time.Time               `json:"updated_at"`
}

// Get returns the rate for a currency code, or false when unlisted.
func (rs *RateSet) Get(currency string) (ExchangeRate, bool) {
	r, ok := rs.Rates[currency]
	return r, ok
}
