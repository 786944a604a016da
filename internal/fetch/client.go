// Package fetch provides a resilient HTTP client for upstream dataset
// downloads: retries with exponential backoff and a circuit breaker per
// source. The public datasets the pipeline reads (NOAA, Census) rate-limit
// and brown out often enough that every client goes through this layer.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// Sentinel errors for dataset fetches.
var (
	// ErrSourceUnavailable indicates the source's circuit breaker is open.
	ErrSourceUnavailable = errors.New("data source unavailable")
	// ErrNotFound indicates the requested resource does not exist upstream.
	ErrNotFound = errors.New("resource not found")
)

// Doer abstracts HTTP request execution so clients can be stubbed in tests.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds configuration for a resilient fetch client.
type Config struct {
	// Name identifies the upstream source for breaker naming and logs.
	Name string

	// Timeout for individual HTTP calls. Default: 20s, matching the
	// slowest well-behaved source (the GHCN-Daily archive).
	Timeout time.Duration

	// MaxRetries is the retry budget per request. Default: 3.
	MaxRetries uint64

	// InitialBackoff is the first retry delay. Default: 200ms.
	InitialBackoff time.Duration

	// MaxBackoff caps the retry delay. Default: 5s.
	MaxBackoff time.Duration

	// BreakerTimeout is how long an open circuit stays open before a
	// half-open probe. Default: 60s.
	BreakerTimeout time.Duration
}

// Client is a resilient HTTP client for one upstream source.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	config     Config
}

// NewClient creates a fetch client for the named source.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialBackoff == 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff == 0 {
		cfg.MaxBackoff = 5 * time.Second
	}
	if cfg.BreakerTimeout == 0 {
		cfg.BreakerTimeout = 60 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:    cfg.Name,
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && ratio >= 0.5
		},
	})

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    breaker,
		config:     cfg,
	}
}

// Do executes the request through the breaker, retrying transient failures
// (network errors, 5xx) with exponential backoff. 4xx responses are returned
// without retrying; an open breaker fails fast with ErrSourceUnavailable.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.config.InitialBackoff
	bo.MaxInterval = c.config.MaxBackoff
	bo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.config.MaxRetries), ctx)

	var lastResp *http.Response
	operation := func() error {
		resp, err := c.breaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // caller closes
			r, doErr := c.httpClient.Do(req.Clone(ctx))
			if doErr != nil {
				return nil, doErr
			}
			if r.StatusCode >= 500 {
				// Counted as a breaker failure and retried.
				return r, &upstreamError{status: r.StatusCode}
			}
			return r, nil
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(fmt.Errorf("%w: %s", ErrSourceUnavailable, c.config.Name))
			}
			if resp != nil {
				drainAndClose(lastResp)
				lastResp = resp
			}
			return err
		}
		drainAndClose(lastResp)
		lastResp = resp
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		if lastResp != nil {
			// Retries exhausted on 5xx; hand the final response back.
			return lastResp, nil
		}
		return nil, err
	}
	return lastResp, nil
}

// GetBytes fetches the URL and returns the response body. Missing resources
// map to ErrNotFound; any other non-2xx status is an error.
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return body, nil
}

// BreakerState exposes the breaker state for health reporting.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

func drainAndClose(resp *http.Response) {
	if resp == nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

// upstreamError marks a 5xx response as a retryable failure.
type upstreamError struct {
	status int
}

func (e *upstreamError) Error() string {
	return "upstream error: " + http.StatusText(e.status)
}
