package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/pkg/retry"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultAttempts = 3
	maxErrorBody    = 64 << 10
	maxRetryDelay   = 10 * time.Second
)

type Opt func(*Client) error

func HTTPClientOpt(hc *http.Client) Opt {
	return func(c *Client) error {
		if hc == nil {
			return errors.New("http client is nil")
		}
		c.http = hc
		return nil
	}
}

func TimeoutOpt(d time.Duration) Opt {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("invalid timeout %s", d)
		}
		c.http.Timeout = d
		return nil
	}
}

// RetryOpt sets how many times an idempotent GET is attempted.
func RetryOpt(attempts int, backoff retry.Backoff) Opt {
	return func(c *Client) error {
		if attempts < 1 {
			return fmt.Errorf("invalid retry attempts %d", attempts)
		}
		c.retry.MaxAttempts = attempts
		if backoff != nil {
			c.retry.Backoff = backoff
		}
		return nil
	}
}

// Client talks to the storefront backend REST API.
type Client struct {
	base  *url.URL
	http  *http.Client
	retry retry.Policy
	norm  normalizer
}

func New(baseURL string, opts ...Opt) (*Client, error) {
	const op = "restapi.New"

	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%s: base url %q is not absolute", op, baseURL)
	}

	c := &Client{
		base: u,
		http: &http.Client{Timeout: defaultTimeout},
		retry: retry.Policy{
			MaxAttempts: defaultAttempts,
			MaxDelay:    maxRetryDelay,
			Retryable:   shouldRetry,
		},
		norm: normalizer{mediaBase: u.String()},
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return c, nil
}

func shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var re *ResponseError
	if errors.As(err, &re) {
		return re.temporary()
	}
	var (
		ve      *domain.ValidationError
		bodyErr *decodeError
	)
	return !errors.As(err, &ve) && !errors.As(err, &bodyErr)
}

type decodeError struct {
	err error
}

func (e *decodeError) Error() string { return "decode response: " + e.err.Error() }

func (e *decodeError) Unwrap() error { return e.err }

func (c *Client) get(ctx context.Context, path, token string, out any) error {
	p := c.retry
	p.OnRetry = func(attempt int, wait time.Duration, err error) {
		slog.Debug("retrying", "path", path, "attempt", attempt, "wait", wait, "err", err)
	}
	return retry.Do(ctx, p, func(ctx context.Context) error {
		return c.do(ctx, http.MethodGet, path, token, nil, out)
	})
}

func (c *Client) do(
	ctx context.Context, method, path, token string, in, out any,
) error {
	log := slog.With("method", method, "path", path)

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		log.Debug("request failed", "err", err)
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		log.Debug("unexpected status", "status", res.StatusCode)
		return responseError(res.StatusCode, res.Header, b)
	}

	if out == nil || res.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return &decodeError{err}
	}
	return nil
}
