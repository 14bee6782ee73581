package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-console/internal/metrics"
	"github.com/ukydev/fleet-console/internal/session"
)

// LoginPath is where the console sends a user whose session ended.
const LoginPath = "/login"

var (
	ErrUnauthorized = errors.New("authentication required")
	ErrNotFound     = errors.New("not found")
)

// APIError is a non-2xx backend response other than 401.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend returned %d", e.Status)
}

// Is lets errors.Is match ErrNotFound against a 404.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// UserMessage returns the server-provided message carried by err, or fallback.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// Navigator moves the user to another view.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// Client talks to the fleet backend on behalf of the current session.
type Client struct {
	baseURL   string
	http      *http.Client
	session   *session.Manager
	navigator Navigator
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithNavigator sets where the client sends the user after a 401.
func WithNavigator(n Navigator) Option {
	return func(c *Client) { c.navigator = n }
}

// NewClient creates a backend client. timeout bounds every request.
func NewClient(baseURL string, timeout time.Duration, sess *session.Manager, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		session: sess,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the session context the client authenticates with.
func (c *Client) Session() *session.Manager {
	return c.session
}

type request struct {
	method string
	path   string
	body   interface{}
	out    interface{}
	public bool
}

func (c *Client) do(ctx context.Context, r request) error {
	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if !r.public {
		if token := c.session.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.APIRequests.WithLabelValues(r.method, "error").Inc()
		return fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()
	metrics.APIRequests.WithLabelValues(r.method, strconv.Itoa(resp.StatusCode)).Inc()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized && !r.public {
		c.unauthorized(r)
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Message: serverMessage(data)}
	}

	if r.out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, r.out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// unauthorized wipes the stored credentials and sends the user to login.
func (c *Client) unauthorized(r request) {
	metrics.Unauthorized.Inc()
	log.WithFields(log.Fields{"method": r.method, "path": r.path}).Warn("Backend rejected credentials")
	if err := c.session.End(); err != nil {
		log.WithError(err).Error("Failed to clear session")
	}
	if c.navigator != nil {
		c.navigator.Navigate(LoginPath)
	}
}

// serverMessage pulls a human readable message out of an error body.
func serverMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
