package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/picogrid/mu-attack/pkg/logger"
)

// Backend is the client for an inference server hosting the diffusion models
type Backend struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Config holds the configuration for the backend client
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NewClient creates a new backend client with the given configuration
func NewClient(cfg Config) (*Backend, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", cfg.BaseURL)
	}

	// Generation is slow, so the default is generous
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	return &Backend{
		baseURL: strings.TrimRight(u.String(), "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// BaseURL returns the server address
func (c *Backend) BaseURL() string {
	return c.baseURL
}

// doRequest performs an HTTP request with authentication and error handling
func (c *Backend) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	fullURL := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode >= 400 {
		defer closeBody(resp.Body)
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}

	return resp, nil
}

// decodeResponse decodes a JSON response into the provided interface
func decodeResponse(resp *http.Response, v interface{}) error {
	defer closeBody(resp.Body)

	if v == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(v)
}

func closeBody(body io.ReadCloser) {
	if err := body.Close(); err != nil {
		logger.Errorf("failed to close response body: %v", err)
	}
}
