package httputil

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"

	"golang.org/x/time/rate"

	"github.com/avaldes/gainers/pkg/config"
	"github.com/avaldes/gainers/pkg/logger"
)

// Browser-like headers. The list source serves a consent interstitial to
// clients it does not recognize.
const (
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36"
	acceptLanguage = "en-US,en;q=0.9"
)

// Client is an HTTP client wrapper with request pacing and logging.
// All outbound requests go through this client. Retry policy lives with
// the callers (internal/retry), not here, so an operation's post-condition
// can be validated alongside the transport call.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logger.Logger
}

// New creates an HTTP client from config. The cookie jar is shared across
// requests so consent redirects stick.
func New(cfg *config.Config, log *logger.Logger) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.HTTP.Timeout,
			Jar:     jar,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.HTTP.RequestsPerSec), 1),
		logger:  log,
	}
}

// Get performs a paced GET request with browser headers.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create GET request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/json;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", acceptLanguage)

	c.logger.WithFields(map[string]interface{}{
		"method": http.MethodGet,
		"url":    url,
	}).Debug("HTTP request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	return resp, nil
}

// CloseIdleConnections releases pooled connections. Called when the page
// session is done with the list source.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}
