// Package rates fetches wholesale USD-relative exchange rates from an
// external provider over HTTP.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"payment-hub/config"

	"github.com/shopspring/decimal"
)

// HTTPSource implements ports.RateSource against any provider that
// serves the common open-exchange-rates response shape:
// {"base":"USD","rates":{"XAF":605.5,...}}.
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource creates a rate source from cfg. The API key, when set,
// is passed as a query parameter.
func NewHTTPSource(cfg config.RatesConfig) (*HTTPSource, error) {
	u, err := url.Parse(cfg.SourceURL)
	if err != nil {
		return nil, fmt.Errorf("parsing rate source URL: %w", err)
	}
	if cfg.APIKey != "" {
		q := u.Query()
		q.Set("app_id", cfg.APIKey)
		u.RawQuery = q.Encode()
	}
	return &HTTPSource{
		url:    u.String(),
		client: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

type ratesResponse struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// FetchRates implements ports.RateSource.
func (s *HTTPSource) FetchRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate provider returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	var parsed ratesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding rate response: %w", err)
	}
	if parsed.Base != "" && parsed.Base != "USD" {
		return nil, fmt.Errorf("rate provider base is %s, expected USD", parsed.Base)
	}
	if len(parsed.Rates) == 0 {
		return nil, fmt.Errorf("rate provider returned no rates")
	}
	return parsed.Rates, nil
}
