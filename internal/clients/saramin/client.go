package saramin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/maxaizer/saramin-crawler/internal/metrics"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	DefaultRetryLimit      = 3
	DefaultRetryDelay      = 2 * time.Second
	DefaultRetryMultiplier = 2.0
	DefaultRequestTimeout  = 10 * time.Second
	DefaultPacingDelay     = 500 * time.Millisecond
)

var ErrUnexpectedStatus = errors.New("unexpected response status")

// FetchError is returned once every attempt for a URL has failed.
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type RetryPolicy struct {
	Limit      int
	Delay      time.Duration
	Multiplier float64
}

// Backoff returns the pause before retry number attempt (1-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	delay := float64(p.Delay)
	for i := 1; i < attempt; i++ {
		delay *= p.Multiplier
	}
	return time.Duration(delay)
}

type Client struct {
	httpClient     HTTPClient
	baseURL        string
	userAgent      string
	requestTimeout time.Duration
	retry          RetryPolicy
	pacer          *rate.Limiter
}

func NewClient() *Client {
	c := &Client{
		httpClient:     &http.Client{},
		baseURL:        DefaultBaseURL,
		userAgent:      DefaultUserAgent,
		requestTimeout: DefaultRequestTimeout,
		retry: RetryPolicy{
			Limit:      DefaultRetryLimit,
			Delay:      DefaultRetryDelay,
			Multiplier: DefaultRetryMultiplier,
		},
	}
	c.SetPacing(DefaultPacingDelay)
	return c
}

func (c *Client) SetHTTPClient(client HTTPClient) {
	c.httpClient = client
}

func (c *Client) SetBaseURL(baseURL string) {
	if baseURL != "" {
		c.baseURL = baseURL
	}
}

func (c *Client) SetUserAgent(userAgent string) {
	if userAgent != "" {
		c.userAgent = userAgent
	}
}

func (c *Client) SetRequestTimeout(timeout time.Duration) {
	c.requestTimeout = timeout
}

func (c *Client) SetRetryPolicy(policy RetryPolicy) {
	if policy.Limit < 0 {
		policy.Limit = 0
	}
	if policy.Multiplier < 1 {
		policy.Multiplier = 1
	}
	c.retry = policy
}

// SetPacing enforces a minimum delay between any two outgoing requests.
func (c *Client) SetPacing(delay time.Duration) {
	if delay <= 0 {
		c.pacer = nil
		return
	}
	c.pacer = rate.NewLimiter(rate.Every(delay), 1)
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) SearchURL(keyword string, page int) (string, error) {
	params := SearchParameters{Keyword: keyword, Page: page}
	if err := params.Validate(); err != nil {
		return "", fmt.Errorf("invalid search parameters: %w", err)
	}
	return SearchURL(c.baseURL, params), nil
}

// Fetch downloads a page, retrying up to the retry limit with growing backoff.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	attempts := 0

	for attempt := 0; attempt <= c.retry.Limit; attempt++ {
		if attempt > 0 {
			backoff := c.retry.Backoff(attempt)
			log.Warnf("retry attempt %d for %s in %v: %v", attempt, url, backoff, lastErr)
			if err := sleep(ctx, backoff); err != nil {
				return nil, err
			}
		}

		attempts++
		start := time.Now()
		body, err := c.fetchOnce(ctx, url)
		metrics.FetchDuration.Observe(time.Since(start).Seconds())
		if err == nil {
			metrics.FetchAttemptsCounter.WithLabelValues("success").Inc()
			return body, nil
		}
		metrics.FetchAttemptsCounter.WithLabelValues("failure").Inc()

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}

	return nil, &FetchError{URL: url, Attempts: attempts, Err: lastErr}
}

func (c *Client) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	if c.pacer != nil {
		if err := c.pacer.Wait(ctx); err != nil {
			return nil, err
		}
	}

	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Wrapf(ErrUnexpectedStatus, "status %d", resp.StatusCode)
	}
	return body, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
