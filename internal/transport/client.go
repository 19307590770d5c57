// Package transport is the authenticated HTTP client shared by schema checks
// and uploads. Requests carry a token header and an explicit timeout.
// Idempotent requests are retried with exponential backoff on network errors
// and 5xx responses; other requests are resent only when no connection could
// be made, so a record the server may have stored is never posted twice.
package transport

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/errors"
)

// Defaults applied when Options leaves a value at zero.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultRetryDelay = 500 * time.Millisecond
)

// maxBackoffDoublings caps the wait between retries at RetryDelay << 8.
const maxBackoffDoublings = 8

// Options configures a Client.
type Options struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration // Per attempt.
	MaxRetries int           // Retries after the first attempt.
	RetryDelay time.Duration // Delay before the first retry; doubles after each.
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
}

// Client sends requests to the DRIVER server.
type Client struct {
	idempotent *retryablehttp.Client
	unsafe     *retryablehttp.Client
	baseURL    string
	token      string
	logger     *slog.Logger
}

// New creates a Client. A nil httpClient gets one with the configured
// timeout.
func New(opts Options, httpClient *http.Client, logger *slog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	retries := max(opts.MaxRetries, 0)

	c := &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   opts.Token,
		logger:  logger.With(slog.String("component", "transport")),
	}
	c.idempotent = c.retryClient(httpClient, retries, delay, retryIdempotent)
	c.unsafe = c.retryClient(httpClient, retries, delay, retryUnsafe)
	return c
}

func (c *Client) retryClient(
	httpClient *http.Client,
	retries int,
	delay time.Duration,
	check retryablehttp.CheckRetry,
) *retryablehttp.Client {
	return &retryablehttp.Client{
		HTTPClient:   httpClient,
		RetryMax:     retries,
		RetryWaitMin: delay,
		RetryWaitMax: delay << min(retries, maxBackoffDoublings),
		CheckRetry:   check,
		Backoff:      retryablehttp.DefaultBackoff,
		ErrorHandler: retryablehttp.PassthroughErrorHandler,
		RequestLogHook: func(_ retryablehttp.Logger, req *http.Request, attempt int) {
			if attempt > 0 {
				c.logger.WarnContext(req.Context(), "request failed, retrying",
					slog.String("method", req.Method), slog.String("url", req.URL.String()),
					slog.Int("attempt", attempt+1))
			}
		},
	}
}

// retryIdempotent retries network errors and 5xx responses. 4xx responses
// are final.
func retryIdempotent(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, nil
	}
	return resp.StatusCode >= http.StatusInternalServerError, nil
}

// retryUnsafe retries only failures to connect. Once the request may have
// reached the server the outcome is returned as is.
func retryUnsafe(ctx context.Context, _ *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	return isDialError(err), nil
}

func isDialError(err error) bool {
	var opErr *net.OpError
	return err != nil && errors.As(err, &opErr) && opErr.Op == "dial"
}

// Get sends a GET request for path.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// PostJSON sends body as a JSON POST to path. The POST is not resent after a
// connection was made: a network error or 5xx is returned to the caller, which
// keeps the data for a later attempt.
func (c *Client) PostJSON(ctx context.Context, path string, body []byte) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

// Do sends a request and reads the whole response. 4xx responses are
// returned as is; a retried 5xx response is returned only after the last
// attempt.
func (c *Client) Do(ctx context.Context, method, path string, body []byte) (*Response, error) {
	url := c.baseURL + path

	var raw any
	if body != nil {
		raw = body
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, raw)
	if err != nil {
		return nil, errors.Wrap(err, "build request", slog.String("method", method), slog.String("url", url))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}

	rc := c.unsafe
	if idempotent(method) {
		rc = c.idempotent
	}
	resp, err := rc.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, errors.Wrap(err, "send request", slog.String("method", method), slog.String("url", url))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response", slog.String("method", method), slog.String("url", url))
	}
	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}
