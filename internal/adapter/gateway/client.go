package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"payment-hub/pkg/backoff"

	"github.com/rs/zerolog"
)

// vendorClient is the shared HTTP plumbing for provider adapters:
// bounded timeout, JSON encoding, and a retry budget that only covers
// transport failures and 5xx responses. A definitive vendor answer,
// success or rejection, is never retried.
type vendorClient struct {
	baseURL *url.URL
	client  *http.Client
	log     zerolog.Logger
}

func newVendorClient(baseURL string, timeout time.Duration, log zerolog.Logger) (*vendorClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &vendorClient{
		baseURL: u,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}, nil
}

// transientError marks an error as retriable under the backoff policy.
type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func isTransient(err error) bool {
	_, ok := err.(*transientError)
	return ok
}

// doJSON performs one logical vendor call. The response body is decoded
// into out when out is non-nil and the body is not empty; the HTTP
// status is returned either way so adapters can apply their vendor's
// success convention.
func (c *vendorClient) doJSON(ctx context.Context, method, path string, query url.Values, headers map[string]string, body, out interface{}) (int, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encoding request body: %w", err)
		}
	}

	resolved := c.baseURL.ResolveReference(&url.URL{Path: path})
	if query != nil {
		resolved.RawQuery = query.Encode()
	}

	var status int
	var respBody []byte

	op := func() error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, resolved.String(), reader)
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return &transientError{err}
		}
		defer resp.Body.Close()

		status = resp.StatusCode
		respBody, err = io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return &transientError{err}
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return &transientError{fmt.Errorf("vendor returned %d", resp.StatusCode)}
		}
		return nil
	}

	if err := backoff.Retry(ctx, op, backoff.DefaultPolicy(), isTransient); err != nil {
		return status, err
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return status, fmt.Errorf("decoding vendor response: %w", err)
		}
	}
	return status, nil
}
