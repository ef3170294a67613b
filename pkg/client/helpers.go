package client

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/picogrid/mu-attack/pkg/models"
)

// NewBackendClient creates a backend client with API key authentication.
// This is a convenience wrapper around NewClient.
func NewBackendClient(baseURL string, apiKey string, timeout time.Duration) (*Backend, error) {
	return NewClient(Config{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Timeout: timeout,
	})
}

// GetAPIKey retrieves the API key from an environment variable
func GetAPIKey(envVarName string) string {
	if envVarName == "" {
		return ""
	}
	return os.Getenv(envVarName)
}

// Health returns the backend status
func (c *Backend) Health(ctx context.Context) (*models.HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check health: %w", err)
	}

	var health models.HealthResponse
	if err := decodeResponse(resp, &health); err != nil {
		return nil, fmt.Errorf("failed to decode health response: %w", err)
	}
	return &health, nil
}

// ValidateConnection tests the connection to the backend
func (c *Backend) ValidateConnection(ctx context.Context) error {
	health, err := c.Health(ctx)
	if err != nil {
		return err
	}
	if health.Status != "ok" {
		return fmt.Errorf("backend at %s is %q", c.baseURL, health.Status)
	}
	return nil
}

// Vocabulary fetches the tokens usable in adversarial prompts
func (c *Backend) Vocabulary(ctx context.Context) ([]string, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/vocab", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get vocabulary: %w", err)
	}

	var vocab models.VocabularyResponse
	if err := decodeResponse(resp, &vocab); err != nil {
		return nil, fmt.Errorf("failed to decode vocabulary response: %w", err)
	}
	return vocab.Tokens, nil
}

// Evaluate generates an image for the request's prompt and scores it
func (c *Backend) Evaluate(ctx context.Context, req *models.EvaluateRequest) (*models.EvaluateResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/evaluate", req)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate prompt: %w", err)
	}

	var result models.EvaluateResponse
	if err := decodeResponse(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to decode evaluate response: %w", err)
	}
	return &result, nil
}
