// Package imagery looks up free street-level photos for a coordinate pair.
// KartaView is the provider; Google street view is offered as a deep link
// only, which stays free because it opens their standard web interface.
package imagery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.kartaview.org/2.0"

// Client queries the KartaView photo API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an imagery client. baseURL is overridable for tests; pass
// empty for the public API.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// photoResponse is the subset of the KartaView envelope we read
type photoResponse struct {
	Status struct {
		APICode string `json:"apiCode"`
	} `json:"status"`
	Data []struct {
		ThumbName string `json:"thumb_name"`
		Name      string `json:"name"`
	} `json:"data"`
}

// NearestPhoto returns the closest photo URL within 100m of the coordinates,
// or empty when imagery is sparse there. Sparse coverage is not an error.
func (c *Client) NearestPhoto(ctx context.Context, lat, lng float64) (string, error) {
	url := fmt.Sprintf("%s/photo/?lat=%f&lng=%f&radius=100&limit=1", c.baseURL, lat, lng)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("imagery lookup failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("imagery response read failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("imagery lookup returned %d", resp.StatusCode)
	}

	var parsed photoResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("imagery response parse failed: %w", err)
	}

	if parsed.Status.APICode != "200" || len(parsed.Data) == 0 {
		return "", nil
	}
	photo := parsed.Data[0]
	if photo.ThumbName != "" {
		return photo.ThumbName, nil
	}
	return photo.Name, nil
}

// GoogleStreetViewLink builds an interactive street-view deep link
func GoogleStreetViewLink(lat, lng float64) string {
	return fmt.Sprintf("https://www.google.com/maps/@?api=1&map_action=pano&viewpoint=%f,%f", lat, lng)
}
