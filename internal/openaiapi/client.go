// Package openaiapi is a small JSON client for OpenAI-compatible HTTP endpoints
// with retry, backoff and client-side rate limiting.
package openaiapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/time/rate"
)

// Config configures the client.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	// APIKey takes precedence over APIKeyEnv when set.
	APIKey            string
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerMinute int
	HTTPClient        *http.Client
}

// Client posts JSON requests and decodes JSON responses.
type Client struct {
	baseURL    string
	apiKey     string
	client     *http.Client
	maxRetries int
	limiter    *rate.Limiter
	sleep      func(ctx context.Context, d time.Duration) error
}

// APIError is a non-retryable (or retries exhausted) HTTP failure.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("openai api: %s", e.Status)
	}
	return fmt.Sprintf("openai api: %s: %s", e.Status, e.Body)
}

// New creates a client. The API key must be present.
func New(cfg Config) (*Client, error) {
	key := cfg.APIKey
	if key == "" && cfg.APIKeyEnv != "" {
		key = strings.TrimSpace(os.Getenv(cfg.APIKeyEnv))
	}
	if key == "" {
		return nil, goerr.New("missing API key", goerr.V("env", cfg.APIKeyEnv))
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: t}
	}
	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     key,
		client:     hc,
		maxRetries: retries,
		limiter:    rate.NewLimiter(limit, 1),
		sleep:      sleepContext,
	}, nil
}

// PostJSON sends in to baseURL+path and decodes the response body into out.
// 429 and 5xx responses, transport errors and undecodable bodies are retried.
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return goerr.Wrap(err, "failed to encode request")
	}
	url := c.baseURL + path

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, lastDelay(lastErr, attempt-1)); err != nil {
				return err
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return goerr.Wrap(err, "rate limiter wait aborted")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return goerr.Wrap(err, "failed to build request")
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return goerr.Wrap(ctx.Err(), "request cancelled")
			}
			lastErr = goerr.Wrap(err, "request failed", goerr.V("url", url))
			continue
		}

		payload, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = &retryable{
				err:        &APIError{StatusCode: resp.StatusCode, Status: resp.Status, Body: truncate(string(payload))},
				retryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			}
			continue
		}
		if resp.StatusCode >= 300 {
			return &APIError{StatusCode: resp.StatusCode, Status: resp.Status, Body: truncate(string(payload))}
		}
		if readErr != nil {
			lastErr = goerr.Wrap(readErr, "failed to read response")
			continue
		}
		if err := json.Unmarshal(payload, out); err != nil {
			lastErr = goerr.Wrap(err, "failed to decode response")
			continue
		}
		return nil
	}
	if r, ok := lastErr.(*retryable); ok {
		return r.err
	}
	return lastErr
}

type retryable struct {
	err        error
	retryAfter time.Duration
}

func (r *retryable) Error() string { return r.err.Error() }
func (r *retryable) Unwrap() error { return r.err }

func lastDelay(err error, attempt int) time.Duration {
	if r, ok := err.(*retryable); ok && r.retryAfter > 0 {
		return r.retryAfter
	}
	return retryDelay(attempt)
}

func parseRetryAfter(v string) time.Duration {
	if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 200 * time.Millisecond
	// exponential backoff capped at 5s
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return goerr.Wrap(ctx.Err(), "retry wait aborted")
	case <-timer.C:
		return nil
	}
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 512 {
		return s[:512] + "..."
	}
	return s
}
