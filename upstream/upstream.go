// Package upstream is the outbound HTTP plumbing shared by the collaborator
// clients: bounded retries, a per-attempt timeout, an outbound rate limit and
// request metrics.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/qubesight-bit/gosafe.lat-sub000/metrics"
)

// maxBodySize caps how much of a collaborator response is read.
const maxBodySize = 8 << 20

// ErrUnexpectedStatus is returned for any non-2xx response.
var ErrUnexpectedStatus = errors.New("unexpected status")

// StatusError carries the status code of a rejected response.
type StatusError struct {
	Collaborator string
	Code         int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %v %d", e.Collaborator, ErrUnexpectedStatus, e.Code)
}

func (e *StatusError) Unwrap() error { return ErrUnexpectedStatus }

// Options configures a Client.
type Options struct {
	Name          string        // collaborator label for metrics and errors
	Timeout       time.Duration // per attempt
	RetryMax      int
	RatePerSecond float64 // 0 disables the outbound limiter
	UserAgent     string
	Logger        retryablehttp.LeveledLogger // nil silences retry logging
}

// Client performs GET requests against one collaborator.
type Client struct {
	name      string
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// New builds a client from opts.
func New(opts Options) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.RetryMax
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	if opts.Timeout > 0 {
		rc.HTTPClient.Timeout = opts.Timeout
	}
	rc.Logger = opts.Logger

	var limiter *rate.Limiter
	if opts.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), max(1, int(opts.RatePerSecond)))
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "gosafe-lookup/1.0"
	}

	return &Client{
		name:      opts.Name,
		http:      rc.StandardClient(),
		limiter:   limiter,
		userAgent: userAgent,
	}
}

// Name returns the collaborator label.
func (c *Client) Name() string {
	return c.name
}

// Get fetches rawURL and returns the body of a 2xx response.
func (c *Client) Get(ctx context.Context, rawURL string) (body []byte, err error) {
	start := time.Now()
	defer func() { metrics.ObserveExternal(c.name, start, err) }()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s: waiting for rate limiter: %w", c.name, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: building request: %w", c.name, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, &StatusError{Collaborator: c.name, Code: resp.StatusCode}
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%s: reading body: %w", c.name, err)
	}
	return body, nil
}
