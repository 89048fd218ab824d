package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/skillhub/chat-service/internal/config"
	"github.com/skillhub/chat-service/internal/model"
)

// Client reads display data from the profile service. The chat service never
// writes profile data; the projection it keeps is refreshed from here and
// from the kafka profile worker.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(cfg *config.Config) *Client {
	return &Client{
		baseURL: cfg.Profile.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Profile.Timeout,
		},
	}
}

func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) GetProfileByUUID(ctx context.Context, userUUID string) (*model.ProfileParams, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/profiles/"+userUUID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // .

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var profile model.ProfileParams
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if profile.UserID == "" {
		profile.UserID = userUUID
	}

	return &profile, nil
}
