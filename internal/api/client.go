// Package api is the REST client for the FocusAgent backend.
//
//	client := api.NewClient("http://127.0.0.1:8000")
//	snap, err := client.StartSession(ctx, "Write report", 25)
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/focusagent/focusagent/internal/logger"
	"github.com/focusagent/focusagent/internal/models"
)

// maxErrorBody bounds how much of an error response is read for its detail
const maxErrorBody = 64 << 10

// Client talks to the session and analysis endpoints
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(client *Client) {
		client.httpClient.Timeout = d
	}
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: logger.Component("api"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the backend address the client was built with
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Ping checks that the backend is up.
func (c *Client) Ping(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	_, err := c.do(ctx, http.MethodGet, "/ping", nil, &out, MsgRequestFailed)
	return err
}

// StartSession begins a timed work session.
func (c *Client) StartSession(ctx context.Context, task string, minutes int) (*models.SessionSnapshot, error) {
	task = strings.TrimSpace(task)
	if task == "" {
		return nil, fmt.Errorf("%w: task description cannot be empty", ErrInvalidInput)
	}
	if minutes <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive, got %d", ErrInvalidInput, minutes)
	}

	req := models.StartSessionRequest{TaskDescription: task, DurationMinutes: minutes}
	var snap models.SessionSnapshot
	if _, err := c.do(ctx, http.MethodPost, "/session", req, &snap, MsgRequestFailed); err != nil {
		return nil, err
	}
	return &snap, nil
}

// GetSession fetches the active session. A nil snapshot with a nil error
// means there is no active session.
func (c *Client) GetSession(ctx context.Context) (*models.SessionSnapshot, error) {
	var snap models.SessionSnapshot
	_, err := c.do(ctx, http.MethodGet, "/session", nil, &snap, MsgRequestFailed)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// EndSession stops the active session. Ending a session that does not
// exist is not an error.
func (c *Client) EndSession(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodDelete, "/session", nil, nil, MsgRequestFailed)
	if IsNotFound(err) {
		return nil
	}
	return err
}

// Analyze asks the backend for an immediate check-in against task.
func (c *Client) Analyze(ctx context.Context, task string) (*models.AnalyzeResult, error) {
	var result models.AnalyzeResult
	req := models.AnalyzeRequest{TaskDescription: task}
	if _, err := c.do(ctx, http.MethodPost, "/analyze", req, &result, MsgAnalyzeFailed); err != nil {
		return nil, err
	}
	return &result, nil
}

// do performs an HTTP request and decodes a JSON response into result.
func (c *Client) do(ctx context.Context, method, path string, body, result interface{}, fallback string) (int, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return 0, &Error{Message: fallback, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := newStatusError(resp.StatusCode, data, fallback)
		c.log.Debug().
			Int("status", resp.StatusCode).
			Str("method", method).
			Str("path", path).
			Str("detail", apiErr.Message).
			Msg("request rejected")
		return resp.StatusCode, apiErr
	}

	if result == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return resp.StatusCode, &Error{StatusCode: resp.StatusCode, Message: fallback, Err: fmt.Errorf("decode response: %w", err)}
	}
	return resp.StatusCode, nil
}
