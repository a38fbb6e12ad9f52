// Package api is the single chokepoint for backend calls: it resolves paths
// against the configured base URL, attaches the stored bearer token, speaks
// snake_case JSON on the wire and classifies responses.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/heartbridge/heartbridge/internal/credential"
	"github.com/heartbridge/heartbridge/internal/logging"
	"github.com/heartbridge/heartbridge/internal/wire"
)

const (
	headerAccept        = "Accept"
	headerContentType   = "Content-Type"
	headerAuthorization = "Authorization"
	headerRequestID     = "X-Request-ID"
	mimeJSON            = "application/json"
)

// Client executes JSON requests against one backend. Each call runs exactly
// once: no retries, no caching, no deduplication.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	tokens  credential.Store
	logger  *slog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient swaps the transport, e.g. for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger attaches a structured logger; requests are logged at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient builds a client for baseURL reading tokens from tokens.
func NewClient(baseURL string, tokens credential.Store, opts ...Option) (*Client, error) {
	if tokens == nil {
		return nil, errors.New("api: credential store is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: base url %q", ErrInvalidURL, baseURL)
	}
	c := &Client{
		baseURL: u,
		http:    &http.Client{},
		tokens:  tokens,
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get issues GET path and decodes the response into T.
func Get[T any](ctx context.Context, c *Client, path string) (T, error) {
	var out T
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Post issues POST path with body encoded as snake_case JSON and decodes the
// response into T. A nil body sends no payload and no Content-Type.
func Post[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	var payload []byte
	if body != nil {
		encoded, err := wire.Marshal(body)
		if err != nil {
			var zero T
			return zero, fmt.Errorf("encode request body: %w", err)
		}
		payload = encoded
	}
	var out T
	if err := c.do(ctx, http.MethodPost, path, payload, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	ref, err := url.Parse(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	target := c.baseURL.ResolveReference(ref)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	req.Header.Set(headerAccept, mimeJSON)
	if body != nil {
		req.Header.Set(headerContentType, mimeJSON)
	}
	if token, ok := c.tokens.Get(ctx); ok && token != "" {
		req.Header.Set(headerAuthorization, "Bearer "+token)
	}
	requestID := uuid.NewString()
	req.Header.Set(headerRequestID, requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			slog.String("method", method),
			slog.String("path", target.Path),
			slog.String("request_id", requestID),
			slog.Any("error", err),
		)
		return fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %w", ErrInvalidResponse, err)
	}

	c.logger.Debug("request completed",
		slog.String("method", method),
		slog.String("path", target.Path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
		slog.String("request_id", requestID),
	)

	if !IsSuccess(resp.StatusCode) {
		return serverError(resp.StatusCode, data)
	}

	if err := wire.Unmarshal(data, out); err != nil {
		return &DecodingError{Message: err.Error()}
	}
	return nil
}

// IsSuccess reports whether status is in the 2xx range.
func IsSuccess(status int) bool {
	return status >= 200 && status <= 299
}

func serverError(status int, body []byte) error {
	var payload errorResponse
	if err := wire.Unmarshal(body, &payload); err == nil && payload.Error != nil {
		return &ServerError{Status: status, Message: *payload.Error}
	}
	return &ServerError{Status: status, Message: fmt.Sprintf("Server error (%d)", status)}
}
