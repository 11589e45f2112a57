package eligibility

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Client calls the backend verification endpoint. The backend owns the
// actual eligibility computation; this client only transports the request
// and hands the raw payload to Map.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8090"
	}
	return &Client{BaseURL: baseURL, HTTP: &http.Client{}}
}

type verifyRequest struct {
	NoticeID string `json:"notice_id"`
}

// Verify runs the backend check for one notice and returns the raw payload.
func (c *Client) Verify(ctx context.Context, noticeID string) (map[string]any, error) {
	body, err := json.Marshal(verifyRequest{NoticeID: noticeID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/api/eligibility/verify", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verification request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("verification returned status: %d", resp.StatusCode)
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return payload, nil
}
