// Package backend is the typed client for the remote commerce API. The
// backend is a black box: this package owns the wire shapes, the error
// envelope decoding and the resilience policy (per-call timeout, circuit
// breaker), nothing else.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

var (
	// ErrNotAuthenticated is returned before any request fires when an
	// authenticated resource is called without a session token.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNotFound maps backend 404 responses.
	ErrNotFound = errors.New("resource not found")
)

// Error is a backend-reported failure with a message safe to show users.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("backend: %s (status %d)", e.Message, e.Status)
}

// TokenProvider yields the session bearer token for a request, or
// ErrNotAuthenticated when the session is anonymous.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

type tokenKey struct{}

// WithToken attaches a session bearer token to the context.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// ContextTokens resolves tokens attached to the request context by the
// HTTP middleware.
type ContextTokens struct{}

func (ContextTokens) Token(ctx context.Context) (string, error) {
	if tok, ok := ctx.Value(tokenKey{}).(string); ok && tok != "" {
		return tok, nil
	}
	return "", ErrNotAuthenticated
}

// Client talks to the commerce backend.
type Client struct {
	base    *url.URL
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	tokens  TokenProvider
	timeout time.Duration
	log     *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, tokens TokenProvider, log *zap.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing backend url: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "commerce-backend",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		base: base,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: breaker,
		tokens:  tokens,
		timeout: timeout,
		log:     log,
	}, nil
}

// errorEnvelope is the backend's error body. Either field may be set.
type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// do performs one backend call. authed calls fail locally with
// ErrNotAuthenticated before any request fires.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, authed bool) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var token string
	if authed {
		var err error
		if token, err = c.tokens.Token(ctx); err != nil {
			return err
		}
	}

	u := *c.base
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		return c.http.Do(req)
	})
	if err != nil {
		c.log.Warn("backend call failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return fmt.Errorf("calling backend %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.decodeError(resp, method, path)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding backend response: %w", err)
	}
	return nil
}

// decodeError turns a 4xx/5xx response into an *Error with a
// human-readable message, falling back to a generic string when the body
// carries none. 404s additionally match ErrNotFound.
func (c *Client) decodeError(resp *http.Response, method, path string) error {
	var env errorEnvelope
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&env)

	msg := env.Error
	if msg == "" {
		msg = env.Message
	}
	if msg == "" {
		msg = "algo salió mal, inténtalo de nuevo"
	}

	c.log.Warn("backend error response",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("message", msg))

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	}
	return &Error{Status: resp.StatusCode, Message: msg}
}
