// Package lookupmatcher implements a pool.Validator that resolves named
// entities against an external lookup service, standing in for "a
// name-lookup validator" (spec §1's out-of-scope external collaborator).
package lookupmatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/rulecheck/internal/common"
)

const (
	DefaultBaseURL = "https://names.example.internal"
	DefaultTimeout = 10 * time.Second
)

// Client performs rate-limited HTTP lookups against an external
// name-resolution service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the default base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRateLimit overrides the default requests-per-second limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout overrides the default HTTP timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient creates a rate-limited lookup Client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(10), 10),
		logger:     common.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// resolution is the result of resolving a single candidate name.
type resolution struct {
	Name      string `json:"name"`
	Known     bool   `json:"known"`
	Canonical string `json:"canonical,omitempty"`
}

// Resolve looks up name against the external service, rate-limiting itself
// before every request.
func (c *Client) Resolve(ctx context.Context, name string) (resolution, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return resolution{}, fmt.Errorf("lookupmatcher: rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("name", name)
	reqURL := fmt.Sprintf("%s/resolve?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return resolution{}, fmt.Errorf("lookupmatcher: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return resolution{}, fmt.Errorf("lookupmatcher: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return resolution{}, fmt.Errorf("lookupmatcher: unexpected status %d resolving %q", resp.StatusCode, name)
	}

	var r resolution
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return resolution{}, fmt.Errorf("lookupmatcher: decode response: %w", err)
	}
	return r, nil
}
