package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"payment-hub/internal/core/domain"
	"payment-hub/internal/core/ports"
	"payment-hub/pkg/apperror"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const rateSetCacheKey = "rates:current"

// vatOverrides lists jurisdictions whose VAT differs from the default.
// Keyed by currency code.
var vatOverrides = map[string]decimal.Decimal{
	"XAF": decimal.NewFromFloat(19.25),
	"NGN": decimal.NewFromFloat(7.5),
	"EUR": decimal.NewFromFloat(20.0),
	"GBP": decimal.NewFromFloat(20.0),
}

var defaultVAT = decimal.NewFromFloat(5.0)

// RateServiceImpl implements ports.RateService. Rates are USD-relative
// and refreshed wholesale at most once per window: a hot in-process
// cache sits in front of the durable snapshot, and the mutex makes
// concurrent stale reads collapse into a single upstream fetch.
type RateServiceImpl struct {
	source   ports.RateSource
	rateRepo ports.RateRepository
	hot      *gocache.Cache
	maxAge   time.Duration
	mu       sync.Mutex
	log      zerolog.Logger
}

// NewRateService creates a new RateServiceImpl. maxAge is the refresh
// window; zero means 24 hours.
func NewRateService(source ports.RateSource, rateRepo ports.RateRepository, maxAge time.Duration, log zerolog.Logger) *RateServiceImpl {
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	return &RateServiceImpl{
		source:   source,
		rateRepo: rateRepo,
		hot:      gocache.New(maxAge, 10*time.Minute),
		maxAge:   maxAge,
		log:      log,
	}
}

// RefreshIfStale implements ports.RateService.
func (s *RateServiceImpl) RefreshIfStale(ctx context.Context, now time.Time) (*domain.RateSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.hot.Get(rateSetCacheKey); ok {
		set := cached.(*domain.RateSet)
		if now.Sub(set.UpdatedAt) < s.maxAge {
			return set, nil
		}
	}

	stored, err := s.rateRepo.GetLatest(ctx)
	if err != nil {
		return nil, apperror.ErrPersistence(fmt.Errorf("load rate snapshot: %w", err))
	}
	if stored != nil && now.Sub(stored.UpdatedAt) < s.maxAge {
		s.hot.Set(rateSetCacheKey, stored, gocache.DefaultExpiration)
		return stored, nil
	}

	fresh, err := s.fetch(ctx, now)
	if err != nil {
		// A stale snapshot beats no snapshot while the upstream is down.
		if stored != nil {
			s.log.Warn().Err(err).
				Time("snapshot_at", stored.UpdatedAt).
				Msg("rate fetch failed, serving stale snapshot")
			s.hot.Set(rateSetCacheKey, stored, gocache.DefaultExpiration)
			return stored, nil
		}
		return nil, err
	}

	if err := s.rateRepo.Replace(ctx, fresh); err != nil {
		return nil, apperror.ErrPersistence(fmt.Errorf("store rate snapshot: %w", err))
	}
	s.hot.Set(rateSetCacheKey, fresh, gocache.DefaultExpiration)

	s.log.Info().
		Int("currencies", len(fresh.Rates)).
		Msg("exchange rates refreshed")
	return fresh, nil
}

func (s *RateServiceImpl) fetch(ctx context.Context, now time.Time) (*domain.RateSet, error) {
	raw, err := s.source.FetchRates(ctx)
	if err != nil {
		return nil, apperror.ErrRateFetch(err)
	}

	set := &domain.RateSet{
		Rates:     make(map[string]domain.ExchangeRate, len(raw)+1),
		UpdatedAt: now,
	}
	for currency, rate := range raw {
		if !rate.IsPositive() {
			continue
		}
		set.Rates[currency] = domain.ExchangeRate{
			Currency:   currency,
			Rate:       rate,
			VATPercent: vatFor(currency),
			UpdatedAt:  now,
		}
	}
	// USD is the unit of account and never floats.
	set.Rates["USD"] = domain.ExchangeRate{
		Currency:   "USD",
		Rate:       decimal.NewFromInt(1),
		VATPercent: decimal.Zero,
		UpdatedAt:  now,
	}
	return set, nil
}

func vatFor(currency string) decimal.Decimal {
	if vat, ok := vatOverrides[currency]; ok {
		return vat
	}
	return defaultVAT
}

// Convert implements ports.RateService. Amounts stay in minor units;
// the result is rounded half up.
func (s *RateServiceImpl) Convert(ctx context.Context, amount int64, from, to string) (int64, error) {
	if from == to {
		return amount, nil
	}

	set, err := s.RefreshIfStale(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	fromRate, ok := set.Get(from)
	if !ok {
		return 0, apperror.Validation(fmt.Sprintf("no exchange rate for %s", from))
	}
	toRate, ok := set.Get(to)
	if !ok {
		return 0, apperror.Validation(fmt.Sprintf("no exchange rate for %s", to))
	}

	converted := decimal.NewFromInt(amount).
		Div(fromRate.Rate).
		Mul(toRate.Rate).
		Round(0)
	return converted.IntPart(), nil
}
