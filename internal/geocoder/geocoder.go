// Package geocoder resolves free-text addresses through the Yandex geocoder.
package geocoder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"mspro-labs/brew-map/internal/models"
)

const defaultURL = "https://geocode-maps.yandex.ru/1.x"

var (
	// ErrNotFound is returned when the geocoder has no candidates for an address.
	ErrNotFound = errors.New("address not found")
	// ErrMissingAPIKey is wrapped in a NetworkError when no key was configured.
	ErrMissingAPIKey = errors.New("API key is not set")
)

// NetworkError reports a transport failure or a non-success HTTP status.
type NetworkError struct {
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("geocoder request failed (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("geocoder request failed: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ResponseError reports a successful response whose body could not be used.
type ResponseError struct {
	Err error
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("unexpected geocoder response: %v", e.Err)
}

func (e *ResponseError) Unwrap() error {
	return e.Err
}

// Client queries the geocoding endpoint
type Client struct {
	httpClient *http.Client
	url        string
	apiKey     string
}

// ClientOption is a function that configures a Client
type ClientOption func(*Client)

// WithURL sets a custom endpoint URL
func WithURL(endpoint string) ClientOption {
	return func(c *Client) {
		c.url = endpoint
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a geocoder client bound to apiKey.
// The default HTTP client has no timeout of its own.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	client := &Client{
		httpClient: &http.Client{},
		url:        defaultURL,
		apiKey:     apiKey,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// geocodeResponse is the subset of the geocoder's JSON we read.
type geocodeResponse struct {
	Response struct {
		GeoObjectCollection struct {
			FeatureMember []struct {
				GeoObject struct {
					Point struct {
						Pos string `json:"pos"`
					} `json:"Point"`
				} `json:"GeoObject"`
			} `json:"featureMember"`
		} `json:"GeoObjectCollection"`
	} `json:"response"`
}

// ResolveAddress returns the most relevant location for address, or
// ErrNotFound when the service has no candidates.
func (c *Client) ResolveAddress(ctx context.Context, address string) (models.Location, error) {
	if c.apiKey == "" {
		return models.Location{}, &NetworkError{StatusCode: http.StatusUnauthorized, Err: ErrMissingAPIKey}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return models.Location{}, &NetworkError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	q := url.Values{}
	q.Set("geocode", address)
	q.Set("apikey", c.apiKey)
	q.Set("format", "json")
	req.URL.RawQuery = q.Encode()

	log.WithField("address", address).Debug("Sending geocoder request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Location{}, &NetworkError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.Location{}, &NetworkError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	var body geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return models.Location{}, &ResponseError{Err: fmt.Errorf("failed to parse body: %w", err)}
	}

	members := body.Response.GeoObjectCollection.FeatureMember
	if len(members) == 0 {
		return models.Location{}, ErrNotFound
	}

	loc, err := ParsePos(members[0].GeoObject.Point.Pos)
	if err != nil {
		return models.Location{}, &ResponseError{Err: err}
	}

	log.WithFields(log.Fields{
		"address":    address,
		"candidates": len(members),
		"location":   loc.String(),
	}).Info("Resolved address")
	return loc, nil
}

// ParsePos parses a "longitude latitude" string.
func ParsePos(pos string) (models.Location, error) {
	parts := strings.Fields(pos)
	if len(parts) != 2 {
		return models.Location{}, fmt.Errorf("invalid pos %q: expected \"lon lat\"", pos)
	}
	lon, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return models.Location{}, fmt.Errorf("invalid longitude in pos %q: %w", pos, err)
	}
	lat, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return models.Location{}, fmt.Errorf("invalid latitude in pos %q: %w", pos, err)
	}
	return models.Location{Longitude: lon, Latitude: lat}, nil
}
