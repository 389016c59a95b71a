package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/chinmay1088/chainkit/config"
	"github.com/rs/zerolog"
)

// Client handles calls to the wallet-server, balance and verify services
type Client struct {
	httpClient      *http.Client
	verifyURL       string
	walletServerURL string
	balanceURL      string
	clientTag       string
	projectID       string
	attempts        uint
	delay           time.Duration
	logger          zerolog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the client logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new API client from configuration
func NewClient(cfg *config.Config, opts ...Option) *Client {
	timeout := cfg.HTTP.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	attempts := cfg.HTTP.RetryAttempts
	if attempts == 0 {
		attempts = 1
	}
	tag := cfg.ClientTag
	if tag == "" {
		tag = config.DefaultClientTag
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		verifyURL:       cfg.VerifyURL,
		walletServerURL: cfg.WalletServerURL,
		balanceURL:      cfg.BalanceURL,
		clientTag:       tag,
		projectID:       cfg.ProjectID,
		attempts:        attempts,
		delay:           cfg.HTTP.RetryDelay,
		logger:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// getJSON issues a GET and decodes the body into out. Transport errors and
// 5xx/429 responses are retried, other statuses fail immediately.
func (c *Client) getJSON(ctx context.Context, endpoint string, query url.Values, out interface{}) error {
	u := endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	body, err := retry.DoWithData(
		func() ([]byte, error) {
			return c.get(ctx, u)
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var statusErr *StatusError
			if errors.As(err, &statusErr) {
				return statusErr.Temporary()
			}
			return true
		}),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug().Err(err).Uint("attempt", n+1).Str("url", endpoint).Msg("retrying request")
		}),
	)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if c.projectID != "" {
		req.Header.Set("x-project-id", c.projectID)
	}
	req.Header.Set("x-sdk-type", c.clientTag)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}
