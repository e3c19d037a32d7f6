package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vetlink/backend/pkg/config"
	"github.com/vetlink/backend/pkg/geo"
)

var errAPIKeyRequired = errors.New("geocoder api key is required")

// Client wraps the Google Geocoding API used to turn street addresses into
// coordinates for proximity search.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured geocoder base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the geocoder from configuration.
func NewClient(cfg config.GeocoderConfig, opts ...Option) (*Client, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, errAPIKeyRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &Client{
		apiKey:     key,
		baseURL:    strings.TrimSpace(cfg.BaseURL),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.baseURL == "" {
		client.baseURL = "https://maps.googleapis.com/maps/api/geocode"
	}

	return client, nil
}

// Resolve geocodes a street address. Failures return (nil, nil): a listing
// without coordinates is still valid, it just will not appear in proximity
// results until the address resolves.
func (c *Client) Resolve(ctx context.Context, address string) (*geo.Point, error) {
	if c == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/json?address=%s&key=%s",
		strings.TrimRight(c.baseURL, "/"), url.QueryEscape(trimmed), url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, nil
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	var apiResp struct {
		Status  string `json:"status"`
		Results []struct {
			Geometry struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, nil
	}
	if apiResp.Status != "OK" || len(apiResp.Results) == 0 {
		return nil, nil
	}

	loc := apiResp.Results[0].Geometry.Location
	return &geo.Point{Latitude: loc.Lat, Longitude: loc.Lng}, nil
}
