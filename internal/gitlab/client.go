// Package gitlab implements the remote project sources backed by the GitLab
// REST API (v4).
package gitlab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// maxBodySize caps how much of a response body is read
const maxBodySize = 16 << 20

// Client is an authenticated HTTP client for one GitLab instance
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a client for the given base URL and private token
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// RemoteError represents a non-success response from the GitLab API
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("gitlab error %d: %s", e.StatusCode, e.Message)
}

// IsNotFound returns true for a 404 response
func (e *RemoteError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized returns true for a 401 response
func (e *RemoteError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// get performs a single GET request. No retry happens at this layer; the
// fetch engine wraps each page operation in its own bounded retry.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, http.Header, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid base URL: %w", err)
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "glsel/1.0")
	req.Header.Set("PRIVATE-TOKEN", c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, &RemoteError{
			StatusCode: resp.StatusCode,
			Message:    parseErrorMessage(data),
		}
	}

	return data, resp.Header, nil
}

func parseErrorMessage(body []byte) string {
	var msg struct {
		Message interface{} `json:"message"`
		Error   string      `json:"error"`
	}
	if err := json.Unmarshal(body, &msg); err == nil {
		if msg.Message != nil {
			return fmt.Sprintf("%v", msg.Message)
		}
		if msg.Error != "" {
			return msg.Error
		}
	}
	return strings.TrimSpace(string(body))
}

// totalFromHeader parses the X-Total header GitLab attaches to list
// responses. Missing or malformed values are an error: the refresh engine
// needs an exact count, there is no fallback.
func totalFromHeader(h http.Header) (int, error) {
	raw := h.Get("X-Total")
	if raw == "" {
		return 0, fmt.Errorf("response missing X-Total header")
	}
	total, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("malformed X-Total header %q: %w", raw, err)
	}
	return total, nil
}
