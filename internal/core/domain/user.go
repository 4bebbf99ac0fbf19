package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents a buyer account with a credit balance.
// Balance is held in minor units of the account currency and is only
// mutated by the order updater when a payment settles.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	Balance      int64     `json:"balance"`
	Currency     string    `json:"currency"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
