// Package source holds the HTTP plumbing shared by the job-board adapters.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"job_fetcher/internal/apperr"
)

const UserAgent = "JobFetcher/1.0"

var listingNamespace = uuid.MustParse("6ba7b811-9dad-11d1-80b4-00c04fd430c8")

type RetryConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Backoff doubles from InitialBackoff per attempt, capped at MaxBackoff.
func (c RetryConfig) Backoff(attempt int) time.Duration {
	backoff := c.InitialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > c.MaxBackoff {
		backoff = c.MaxBackoff
	}
	return backoff
}

// Client performs JSON GET requests with retry.
type Client struct {
	httpClient *http.Client
	retry      RetryConfig
	logger     *zap.Logger
}

func NewClient(timeout time.Duration, retry RetryConfig, logger *zap.Logger) *Client {
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retry:  retry,
		logger: logger,
	}
}

// GetJSON fetches url into out. Rate limiting and server or transport
// failures are retried; other client errors are not.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	var err error

	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		err = c.doRequest(ctx, url, out)
		if err == nil {
			return nil
		}

		if !retryable(err) || attempt == c.retry.MaxAttempts {
			break
		}

		backoff := c.retry.Backoff(attempt)
		c.logger.Warn("request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("after %d attempts: %w", c.retry.MaxAttempts, err)
}

func (c *Client) doRequest(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return apperr.InvalidInput("create request", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.Unavailable("execute request", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return apperr.RateLimit("provider rate limit", statusError(resp))
	case resp.StatusCode >= http.StatusInternalServerError:
		return apperr.Unavailable("provider unavailable", statusError(resp))
	case resp.StatusCode != http.StatusOK:
		return apperr.InvalidInput("provider rejected request", statusError(resp))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Unavailable("decode response", err)
	}

	return nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, msg)
	}
	return fmt.Errorf("unexpected status %d", resp.StatusCode)
}

func retryable(err error) bool {
	return apperr.Is(err, apperr.ErrTypeRateLimit) || apperr.Is(err, apperr.ErrTypeUnavailable)
}

// FallbackID derives a stable external id for providers that omit one, so the
// same posting maps to the same key across runs.
func FallbackID(parts ...string) string {
	return uuid.NewSHA1(listingNamespace, []byte(strings.Join(parts, "|"))).String()
}
