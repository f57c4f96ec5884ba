package geocoder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/stwalsh4118/chargemap/internal/models"
)

// ProviderNominatim names results produced by NominatimClient.
const ProviderNominatim = "nominatim"

// maxErrorBody bounds how much of an error response is kept for the error message.
const maxErrorBody = 512

// NominatimClient geocodes through a Nominatim (OpenStreetMap) search endpoint.
type NominatimClient struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewNominatimClient creates a client for the Nominatim instance at baseURL.
// Nominatim's usage policy requires an identifying User-Agent.
func NewNominatimClient(baseURL, userAgent string, timeout time.Duration) *NominatimClient {
	return NewNominatimClientWithHTTP(baseURL, userAgent, &http.Client{Timeout: timeout})
}

// NewNominatimClientWithHTTP creates a client with a custom HTTP client.
func NewNominatimClientWithHTTP(baseURL, userAgent string, httpClient *http.Client) *NominatimClient {
	return &NominatimClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		userAgent:  userAgent,
	}
}

// nominatimPlace is one entry of a jsonv2 search response.
// Nominatim encodes coordinates as strings.
type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode looks up the best match for query.
func (c *NominatimClient) Geocode(ctx context.Context, query string) (*Location, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "jsonv2")
	params.Set("limit", "1")

	reqURL := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geocode request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("geocoder returned status %d: %s", resp.StatusCode, string(body))
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("failed to decode geocode response: %w", err)
	}

	if len(places) == 0 {
		return nil, nil
	}

	place := places[0]
	lat, err := strconv.ParseFloat(place.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude %q in geocode response: %w", place.Lat, err)
	}
	lon, err := strconv.ParseFloat(place.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude %q in geocode response: %w", place.Lon, err)
	}

	return &Location{
		DisplayName: place.DisplayName,
		Provider:    ProviderNominatim,
		Coordinate:  models.Coordinate{Lat: lat, Lon: lon},
	}, nil
}
