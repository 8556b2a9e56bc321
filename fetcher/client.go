// Package fetcher pulls market data from the TWSE public endpoints:
// daily kline history from the exchangeReport CSV and realtime quotes
// from the MIS JSON API. All retry/backoff behavior lives here, at
// the I/O boundary — never inside the ledger or backtest loop.
package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// client wraps http.Client with a request rate limit and exponential
// retry. The exchange endpoints throttle aggressive callers, so every
// fetcher in this package shares one of these.
type client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	maxElapsed time.Duration
}

func newClient(timeout time.Duration, requestsPerSec int) *client {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if requestsPerSec == 0 {
		requestsPerSec = 3
	}
	return &client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Every(time.Second), requestsPerSec),
		maxElapsed: 30 * time.Second,
	}
}

// get performs a rate-limited GET with retries on transport errors
// and non-200 responses.
func (c *client) get(ctx context.Context, url string, header map[string]string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var resp *http.Response
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", userAgent)
		for k, v := range header {
			req.Header.Set(k, v)
		}

		resp, err = c.httpClient.Do(req)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return fmt.Errorf("non-200 status: %d", resp.StatusCode)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.maxElapsed
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}
	return resp, nil
}
