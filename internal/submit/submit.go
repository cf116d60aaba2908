// Package submit delivers assembled prompts to the session service over
// HTTP. Each enabled role in a run becomes one session on the service.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 1 << 20

var (
	// ErrNotConfigured is returned when no service URL has been set.
	ErrNotConfigured = errors.New("submission service not configured")
	// ErrUnauthorized is returned when the service rejects the token.
	ErrUnauthorized = errors.New("submission service rejected credentials")
)

// Config holds the settings needed to reach the session service.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client talks to the session service.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a session service client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, ErrNotConfigured
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// SessionRequest is the payload for creating one agent session.
type SessionRequest struct {
	ID         string            `json:"id"`
	Role       string            `json:"role"`
	Workstream string            `json:"workstream"`
	Branch     string            `json:"branch,omitempty"`
	Prompt     string            `json:"prompt"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// SessionResponse is the service's answer to a session creation.
type SessionResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	URL       string `json:"url,omitempty"`
}

// CreateSession posts one session to the service.
func (c *Client) CreateSession(ctx context.Context, req *SessionRequest) (*SessionResponse, error) {
	if req.Prompt == "" {
		return nil, errors.New("prompt cannot be empty")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode session request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create session request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("session request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read session response: %w", err)
	}

	switch {
	case httpResp.StatusCode == http.StatusUnauthorized,
		httpResp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w (status %d)", ErrUnauthorized, httpResp.StatusCode)
	case httpResp.StatusCode < 200 || httpResp.StatusCode >= 300:
		return nil, fmt.Errorf("session service error (status %d): %s", httpResp.StatusCode, snippet(respBody))
	}

	var resp SessionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("parse session response: %w", err)
	}
	return &resp, nil
}

// Ping checks that the service is reachable and healthy.
func (c *Client) Ping(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("create health request: %w", err)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("health request failed: %w", err)
	}
	defer httpResp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return fmt.Errorf("session service unhealthy (status %d): %s", httpResp.StatusCode, snippet(body))
	}
	return nil
}

// snippet bounds a response body for inclusion in error messages.
func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
