package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client performs one reverse-geocoding request. A nil address with a nil
// error means the provider answered but had nothing for the coordinate.
type Client interface {
	Reverse(ctx context.Context, lat, lon float64) (*Address, error)
}

type NominatimConfig struct {
	Endpoint  string
	UserAgent string
	Language  string
	Timeout   time.Duration
}

// StatusError is returned for a non-2xx provider response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("reverse geocoding returned status %d", e.StatusCode)
}

// NominatimClient talks to a Nominatim-compatible /reverse endpoint.
type NominatimClient struct {
	client *resty.Client
}

type reverseResponse struct {
	Error   string   `json:"error"`
	Address *Address `json:"address"`
}

func NewNominatimClient(cfg NominatimConfig) *NominatimClient {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://nominatim.openstreetmap.org"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "photosync/1.0"
	}
	if cfg.Language == "" {
		cfg.Language = "ko,en"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.Endpoint, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept-Language", cfg.Language).
		SetHeader("Accept", "application/json")

	return &NominatimClient{client: cli}
}

func (c *NominatimClient) Reverse(ctx context.Context, lat, lon float64) (*Address, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"format":         "jsonv2",
			"lat":            strconv.FormatFloat(lat, 'f', 6, 64),
			"lon":            strconv.FormatFloat(lon, 'f', 6, 64),
			"zoom":           "14",
			"addressdetails": "1",
		}).
		Get("/reverse")
	if err != nil {
		return nil, fmt.Errorf("reverse geocoding request: %w", err)
	}
	if resp.IsError() {
		return nil, &StatusError{StatusCode: resp.StatusCode()}
	}

	var body reverseResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("decode reverse geocoding response: %w", err)
	}
	if body.Error != "" || body.Address == nil {
		return nil, nil
	}
	return body.Address, nil
}
