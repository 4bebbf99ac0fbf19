package postgres

import (
	"context"
	"fmt"

	"payment-hub/internal/core/domain"
)

// RateRepo implements ports.RateRepository. The snapshot is stored one
// row per currency and swapped wholesale inside a transaction, so
// readers never observe a half-replaced set.
type RateRepo struct {
	pool Pool
}

// NewRateRepo creates a new RateRepo.
func NewRateRepo(pool Pool) *RateRepo {
	return &RateRepo{pool: pool}
}

// GetLatest loads the current snapshot. Returns nil when no snapshot
// has been persisted yet.
func (r *RateRepo) GetLatest(ctx context.Context) (*domain.RateSet, error) {
	query := `SELECT currency, rate, vat_percent, updated_at FROM exchange_rates`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query exchange rates: %w", err)
	}
	defer rows.Close()

	set := &domain.RateSet{Rates: make(map[string]domain.ExchangeRate)}
	for rows.Next() {
		var er domain.ExchangeRate
		if err := rows.Scan(&er.Currency, &er.Rate, &er.VATPercent, &er.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan exchange rate row: %w", err)
		}
		set.Rates[er.Currency] = er
		if er.UpdatedAt.After(set.UpdatedAt) {
			set.UpdatedAt = er.UpdatedAt
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exchange rate rows: %w", err)
	}
	if len(set.Rates) == 0 {
		return nil, nil
	}
	return set, nil
}

// Replace swaps the persisted snapshot for the given one.
func (r *RateRepo) Replace(ctx context.Context, set *domain.RateSet) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin rate replace: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM exchange_rates`); err != nil {
		return fmt.Errorf("clear exchange rates: %w", err)
	}

	query := `INSERT INTO exchange_rates (currency, rate, vat_percent, updated_at)
		VALUES ($1, $2, $3, $4)`
	for _, er := range set.Rates {
		if _, err := tx.Exec(ctx, query, er.Currency, er.Rate, er.VATPercent, set.UpdatedAt); err != nil {
			return fmt.Errorf("insert exchange rate %s: %w", er.Currency, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit rate replace: %w", err)
	}
	return nil
}
