package directions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"itinerary-service/internal/platform/metrics"
	"itinerary-service/internal/ports"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

// Option configures a directions provider.
type Option func(*clientConfig)

type clientConfig struct {
	baseURL     string
	session     *http.Client
	ratePerSec  float64
	burst       int
	maxAttempts int
	backoff     time.Duration
	now         func() time.Time
}

func defaultClientConfig(baseURL string) clientConfig {
	return clientConfig{
		baseURL:     baseURL,
		session:     &http.Client{Timeout: 10 * time.Second},
		ratePerSec:  10,
		burst:       5,
		maxAttempts: 4,
		backoff:     200 * time.Millisecond,
		now:         time.Now,
	}
}

func WithBaseURL(u string) Option {
	return func(c *clientConfig) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *clientConfig) {
		if hc != nil {
			c.session = hc
		}
	}
}

// WithRateLimit caps outbound requests per second; rps <= 0 disables the cap.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *clientConfig) {
		c.ratePerSec = rps
		if burst > 0 {
			c.burst = burst
		}
	}
}

func WithRetry(maxAttempts int, backoff time.Duration) Option {
	return func(c *clientConfig) {
		if maxAttempts > 0 {
			c.maxAttempts = maxAttempts
		}
		if backoff > 0 {
			c.backoff = backoff
		}
	}
}

// WithNow overrides the wall clock used to decide whether a departure time
// lies in the future.
func WithNow(now func() time.Time) Option {
	return func(c *clientConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// httpClient is the rate-limited, retrying transport shared by providers.
type httpClient struct {
	provider    string
	session     *http.Client
	limiter     *rate.Limiter
	maxAttempts int
	backoff     time.Duration
}

func newHTTPClient(provider string, cfg clientConfig) *httpClient {
	limit := rate.Inf
	if cfg.ratePerSec > 0 {
		limit = rate.Limit(cfg.ratePerSec)
	}

	return &httpClient{
		provider:    provider,
		session:     cfg.session,
		limiter:     rate.NewLimiter(limit, cfg.burst),
		maxAttempts: cfg.maxAttempts,
		backoff:     cfg.backoff,
	}
}

func (c *httpClient) newRequest(
	ctx context.Context,
	method string,
	url string,
	body io.Reader,
) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

func (c *httpClient) do(req *http.Request) (*http.Response, error) {
	resp, err := c.session.Do(req)
	if err != nil {
		metrics.ProviderRequests.WithLabelValues(c.provider, "transport_error").Inc()
		return nil, err
	}

	metrics.ProviderRequests.WithLabelValues(c.provider, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &httpStatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}

// doWithRetry retries transient failures (network errors, 429 and 5xx
// responses) using exponential backoff while respecting context
// cancellation. Every attempt first waits for the rate limiter.
func (c *httpClient) doWithRetry(
	ctx context.Context,
	makeReq func() (*http.Request, error),
) (*http.Response, error) {
	backoff := c.backoff

	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		req, err := makeReq()
		if err != nil {
			return nil, fmt.Errorf("make request: %w", err)
		}

		resp, err := c.do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		retry := false
		var he *httpStatusError
		if errors.As(err, &he) {
			switch he.Code {
			case 429, 500, 502, 503, 504:
				retry = true
			}
		}

		var netErr net.Error
		if !retry && errors.As(err, &netErr) {
			retry = true
		}

		if !retry || attempt == c.maxAttempts {
			return nil, lastErr
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
	}

	return nil, lastErr
}

// classifyStatus converts HTTP-level authorization and quota failures into
// hard provider errors. Other errors are returned unchanged.
func (c *httpClient) classifyStatus(err error) error {
	var he *httpStatusError
	if !errors.As(err, &he) {
		return err
	}

	switch he.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &ports.ProviderHardError{Provider: c.provider, Status: "REQUEST_DENIED", Message: he.Body}
	case http.StatusTooManyRequests:
		return &ports.ProviderHardError{Provider: c.provider, Status: "OVER_QUERY_LIMIT", Message: he.Body}
	}
	return err
}
