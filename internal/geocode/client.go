package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cybershaman666/jobshaman.cz-sub002/internal/domain/job"
)

// Client resolves free-text city names to coordinates. The engine calls it
// at most once per request, before any tier runs; a failure is never fatal.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("geocode: base url is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 3 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{baseURL: base, httpClient: httpClient}, nil
}

type place struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Resolve returns nil without error when the city is unknown.
func (c *Client) Resolve(ctx context.Context, city string) (*job.Coordinates, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, nil
	}

	values := url.Values{}
	values.Set("q", city)
	values.Set("format", "json")
	values.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+values.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("geocode: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode: request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("geocode: status %d", resp.StatusCode)
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("geocode: decode response: %w", err)
	}
	if len(places) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("geocode: bad latitude %q", places[0].Lat)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("geocode: bad longitude %q", places[0].Lon)
	}

	return &job.Coordinates{Lat: lat, Lon: lon}, nil
}
