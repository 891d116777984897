package metasync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 30 * time.Second

// Request is the payload dispatched to the external sync executor.
type Request struct {
	ProjectID   string `json:"projectId"`
	AdAccountID string `json:"adAccountId,omitempty"`
	DatePreset  string `json:"datePreset,omitempty"`
}

// Response is the executor's reply. The absence of Success, or a transport
// error, is treated identically to Success=false.
type Response struct {
	Success bool   `json:"success"`
	Data    *Data  `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Data carries the executor's import counters.
type Data struct {
	RecordsImported int `json:"recordsImported"`
}

// Result is the decoded outcome of a dispatch.
type Result struct {
	Success         bool
	RecordsImported int
	Error           string
}

// Client invokes the remote sync executor over HTTP. The executor embeds its
// own retry/backoff, so this client performs single attempts only.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates an executor client. A non-positive timeout falls back to
// the default; the per-dispatch context may still cut a request shorter.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Dispatch sends one sync job to the executor and decodes its outcome.
// Transport errors are returned as-is; an executor-reported failure comes
// back as a Result with Success=false.
func (c *Client) Dispatch(ctx context.Context, req Request) (*Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("dispatch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(raw))
	}

	var decoded Response
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	result := &Result{Success: decoded.Success, Error: decoded.Error}
	if decoded.Data != nil {
		result.RecordsImported = decoded.Data.RecordsImported
	}
	if !result.Success && result.Error == "" {
		result.Error = "executor reported failure without detail"
	}
	return result, nil
}
