// ABOUTME: HTTP client for a crmdesk-compatible REST backend under <base>/api
// ABOUTME: Bearer auth with one silent refresh and retry on 401; calls run behind a circuit breaker
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/manvote/crmdesk/logging"
	"github.com/manvote/crmdesk/store"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote returned %d", e.Status)
	}
	return fmt.Sprintf("remote returned %d: %s", e.Status, e.Message)
}

// Is maps 404 and 400 onto the store sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case store.ErrNotFound:
		return e.Status == http.StatusNotFound
	case store.ErrInvalid:
		return e.Status == http.StatusBadRequest
	}
	return false
}

var ErrUnauthorized = errors.New("remote rejected credentials")

type Client struct {
	base     string
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker
	username string
	password string
	log      *logrus.Entry

	mu      sync.Mutex
	access  string
	refresh string
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTokens seeds the client with an existing token pair.
func WithTokens(access, refresh string) Option {
	return func(c *Client) {
		c.access = access
		c.refresh = refresh
	}
}

// NewClient builds a client for baseURL, for example https://crm.example.com.
func NewClient(baseURL, username, password string, opts ...Option) *Client {
	c := &Client{
		base:     strings.TrimRight(baseURL, "/") + "/api",
		http:     &http.Client{Timeout: 15 * time.Second},
		username: username,
		password: password,
		log:      logging.For("remote"),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "remote-api",
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		// Client errors say nothing about backend health.
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.Status < 500
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).
				Warn("Circuit breaker changed state")
		},
	})
	return c
}

// Login exchanges the configured credentials for a token pair.
func (c *Client) Login(ctx context.Context) error {
	var out struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	body := map[string]string{"username": c.username, "password": c.password}
	if err := c.send(ctx, http.MethodPost, "/login/", "", body, &out); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	c.mu.Lock()
	c.access, c.refresh = out.Access, out.Refresh
	c.mu.Unlock()
	return nil
}

func (c *Client) refreshAccess(ctx context.Context) error {
	c.mu.Lock()
	refresh := c.refresh
	c.mu.Unlock()

	if refresh == "" {
		return c.Login(ctx)
	}

	var out struct {
		Access string `json:"access"`
	}
	if err := c.send(ctx, http.MethodPost, "/token/refresh/", "", map[string]string{"refresh": refresh}, &out); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized && c.username != "" {
			return c.Login(ctx)
		}
		return fmt.Errorf("token refresh failed: %w", err)
	}

	c.mu.Lock()
	c.access = out.Access
	c.mu.Unlock()
	c.log.Debug("Refreshed access token")
	return nil
}

func (c *Client) token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.access
}

// Do performs an authenticated request. A 401 triggers one refresh and one retry.
func (c *Client) Do(ctx context.Context, method, path string, in, out any) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		if c.token() == "" && c.username != "" {
			if err := c.Login(ctx); err != nil {
				return nil, err
			}
		}

		err := c.send(ctx, method, path, c.token(), in, out)
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
			return nil, err
		}

		if err := c.refreshAccess(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
		return nil, c.send(ctx, method, path, c.token(), in, out)
	})
	return err
}

func (c *Client) send(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
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

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		var payload struct {
			Error  string `json:"error"`
			Detail string `json:"detail"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		msg := payload.Error
		if msg == "" {
			msg = payload.Detail
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s: %w", method, path, err)
	}
	return nil
}
