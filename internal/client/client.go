// Package client talks to a running logview server over HTTP and
// websockets.
package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charliek/logview/internal/api"
	"github.com/charliek/logview/internal/constants"
	"github.com/charliek/logview/internal/domain"
)

// Client is an HTTP client for the logview API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: constants.DefaultRequestTimeout,
		},
	}
}

// BaseURL returns the server base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Status gets server status
func (c *Client) Status() (*api.StatusResponse, error) {
	var resp api.StatusResponse
	if err := c.get("/api/v1/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logs gets the window the server would send a viewer making req
func (c *Client) Logs(req domain.Request) (*domain.InitResponse, error) {
	query := url.Values{}
	if req.Mode != "" {
		query.Set("mode", string(req.Mode))
	}
	if req.Filter != "" {
		query.Set("filter", req.Filter)
	}
	if req.OffsetStart != nil {
		query.Set("offset", strconv.Itoa(*req.OffsetStart))
	}
	if req.MaxMessages != nil {
		query.Set("max", strconv.Itoa(*req.MaxMessages))
	}

	path := "/api/v1/logs"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var resp domain.InitResponse
	if err := c.get(path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Healthy reports whether the server answers its health check
func (c *Client) Healthy() bool {
	hc := &http.Client{Timeout: 2 * time.Second}
	resp, err := hc.Get(c.baseURL + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *Client) get(path string, v interface{}) error {
	req, err := http.NewRequest("GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp api.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			return fmt.Errorf("%s: %s", errResp.Code, errResp.Error)
		}
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
