// Package exchangerate fetches the billing-to-target currency conversion
// rate from a configured HTTP endpoint, satisfying notifier.RateSource.
package exchangerate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/finops-claw-gang/billing-notify/internal/domain"
)

// Client queries the exchange-rate endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	now        func() time.Time
}

// New creates an exchange-rate client with the given endpoint URL.
func New(endpoint string) *Client {
	return NewWithHTTPClient(endpoint, &http.Client{Timeout: 10 * time.Second})
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing
// or for sharing an instrumented transport).
func NewWithHTTPClient(endpoint string, httpClient *http.Client) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: httpClient,
		now:        time.Now,
	}
}

// ratesDocument is the sheet-like shape the endpoint returns; the current
// rate is the first cell of the first row.
type ratesDocument struct {
	Values [][]any `json:"values"`
}

// Rate fetches the current conversion rate. Any failure here is expected to
// be degraded on by the caller, not to abort the run.
func (c *Client) Rate(ctx context.Context) (domain.ExchangeRate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return domain.ExchangeRate{}, fmt.Errorf("exchangerate: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ExchangeRate{}, fmt.Errorf("exchangerate: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.ExchangeRate{}, fmt.Errorf("exchangerate: unexpected status %d", resp.StatusCode)
	}

	var doc ratesDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return domain.ExchangeRate{}, fmt.Errorf("exchangerate: decode response: %w", err)
	}
	if len(doc.Values) == 0 || len(doc.Values[0]) == 0 {
		return domain.ExchangeRate{}, fmt.Errorf("exchangerate: empty values in response")
	}

	rate, err := toFloat(doc.Values[0][0])
	if err != nil {
		return domain.ExchangeRate{}, fmt.Errorf("exchangerate: parse rate: %w", err)
	}
	if rate <= 0 {
		return domain.ExchangeRate{}, fmt.Errorf("exchangerate: non-positive rate %v", rate)
	}

	return domain.ExchangeRate{Rate: rate, AsOf: c.now()}, nil
}

// toFloat accepts the cell as either a JSON number or a numeric string,
// since the upstream sheet export is not consistent about it.
func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case string:
		return strconv.ParseFloat(n, 64)
	}
	return 0, fmt.Errorf("unsupported cell type %T", v)
}
