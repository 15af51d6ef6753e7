// Package client is a typed client for the yt-webdl JSON API.
package client

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

	"github.com/ytget/yt-webdl/internal/model"
	"github.com/ytget/yt-webdl/internal/server"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	maxErrorBody       = 4096
)

// APIError is returned for every non-2xx response
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %s", http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("api: %s (%d)", e.Message, e.StatusCode)
}

// IsNotFound reports whether err is a 404 from the API
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client talks to a running yt-webdl server
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// New creates a client for baseURL. A bare host:port is treated as http.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		return nil, errors.New("client: base url is required")
	}
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("client: parse base url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Client{baseURL: parsed, http: httpClient}, nil
}

// BaseURL returns the server address
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// StartDownload submits a job and returns its id
func (c *Client) StartDownload(ctx context.Context, req server.StartDownloadRequest) (string, error) {
	var resp server.StartDownloadResponse
	if err := c.do(ctx, http.MethodPost, c.baseURL.JoinPath("api", "start_download"), req, &resp); err != nil {
		return "", err
	}
	return resp.JobID, nil
}

// Progress returns the current snapshot of a job
func (c *Client) Progress(ctx context.Context, jobID string) (model.Snapshot, error) {
	var snap model.Snapshot
	err := c.do(ctx, http.MethodGet, c.baseURL.JoinPath("api", "progress", jobID), nil, &snap)
	return snap, err
}

// Cancel requests cancellation and returns the resulting status
func (c *Client) Cancel(ctx context.Context, jobID string) (model.JobStatus, error) {
	var resp server.CancelResponse
	if err := c.do(ctx, http.MethodPost, c.baseURL.JoinPath("api", "cancel", jobID), nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// Jobs lists every job the server knows about
func (c *Client) Jobs(ctx context.Context) ([]model.Snapshot, error) {
	var resp server.JobsResponse
	if err := c.do(ctx, http.MethodGet, c.baseURL.JoinPath("api", "jobs"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

// Playlist lists the items of a playlist URL without downloading
func (c *Client) Playlist(ctx context.Context, playlistURL string) (*model.Playlist, error) {
	endpoint := c.baseURL.JoinPath("api", "playlist")
	endpoint.RawQuery = url.Values{"url": {playlistURL}}.Encode()

	var playlist model.Playlist
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// Health returns the server health report. A degraded server still yields a
// report alongside the APIError.
func (c *Client) Health(ctx context.Context) (server.HealthResponse, error) {
	var resp server.HealthResponse
	err := c.do(ctx, http.MethodGet, c.baseURL.JoinPath("healthz"), nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method string, endpoint *url.URL, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, endpoint.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("client: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Health reports carry a body worth keeping even when degraded
		if out != nil && len(data) > 0 {
			_ = json.Unmarshal(data, out)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}

func errorMessage(data []byte) string {
	var payload server.ErrorResponse
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	if len(data) > maxErrorBody {
		data = data[:maxErrorBody]
	}
	return strings.TrimSpace(string(data))
}
