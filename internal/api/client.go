// Package api implements the HTTP client for the multichat backend: one
// streaming generation channel per (turn, model) pair, plus the
// conversation history endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"

	"github.com/rafael/multichat/internal/apierrors"
	"github.com/rafael/multichat/internal/models"
)

// CredentialSource supplies the bearer token attached to every request.
// The client never assumes where the token lives; callers inject a source
// backed by config, environment, or anything else.
type CredentialSource interface {
	Token() (string, error)
}

// StaticToken is a CredentialSource holding a fixed token.
type StaticToken string

// Token returns the static token, or ErrNoToken when empty.
func (t StaticToken) Token() (string, error) {
	if t == "" {
		return "", apierrors.ErrNoToken
	}
	return string(t), nil
}

// Client talks to the multichat backend.
type Client struct {
	httpClient tls_client.HttpClient
	baseURL    string
	creds      CredentialSource
}

// ClientOption is a function that configures the client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client (used by tests).
func WithHTTPClient(hc tls_client.HttpClient) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a Client for the given base URL.
func NewClient(baseURL string, creds CredentialSource, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	if creds == nil {
		return nil, fmt.Errorf("credential source cannot be nil")
	}

	client := &Client{
		baseURL: trimTrailingSlash(baseURL),
		creds:   creds,
	}
	for _, opt := range opts {
		opt(client)
	}

	if client.httpClient == nil {
		options := []tls_client.HttpClientOption{
			tls_client.WithTimeoutSeconds(300),
			tls_client.WithNotFollowRedirects(),
		}
		hc, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		client.httpClient = hc
	}

	return client, nil
}

// StreamRequest describes one outbound generation channel. All channels of
// one turn share the same ConversationID so the backend persists them into
// a single conversation. Temperature is sent as given: an explicit 0 asks
// for deterministic sampling, it is not replaced by the server default.
type StreamRequest struct {
	Prompt         string  `json:"prompt"`
	ModelID        string  `json:"model"`
	ConversationID string  `json:"conversation_id"`
	MaxTokens      int     `json:"max_tokens"`
	Temperature    float64 `json:"temperature"`
}

// OpenStream opens one streaming generation channel. The returned body is
// the raw framed stream; the caller owns closing it. A non-2xx status is
// returned as an APIError, transport failures as a NetworkError.
func (c *Client) OpenStream(ctx context.Context, req StreamRequest) (io.ReadCloser, error) {
	endpoint := c.baseURL + models.PathStreamChat

	if req.MaxTokens <= 0 {
		req.MaxTokens = models.DefaultMaxTokens
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stream request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if err := c.setHeaders(httpReq); err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, apierrors.NewNetworkError("open stream", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := readLimited(resp.Body, 4096)
		_ = resp.Body.Close()
		return nil, apierrors.NewAPIErrorWithBody(resp.StatusCode, endpoint,
			statusMessage(snippet, resp.StatusCode), snippet)
	}

	return resp.Body, nil
}

// setHeaders attaches the content type and bearer token.
func (c *Client) setHeaders(req *http.Request) error {
	token, err := c.creds.Token()
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// readLimited drains up to limit bytes for error diagnostics.
func readLimited(r io.Reader, limit int64) string {
	data, _ := io.ReadAll(io.LimitReader(r, limit))
	return string(data)
}

// statusMessage extracts a readable message from an error response body,
// falling back to the HTTP status text.
func statusMessage(body string, statusCode int) string {
	var payload struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err == nil {
		if payload.Detail != "" {
			return payload.Detail
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return http.StatusText(statusCode)
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
