// Package locate holds the two location sources: a continuous gpsd stream
// and a one-shot IP lookup used as a coarse fallback.
package locate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"nav-edge/internal/geo"
)

const DefaultIPLookupURL = "https://ipapi.co/json/"

var ErrNoFix = errors.New("lookup returned no position")

// IPLocator resolves the caller's approximate position from its public IP.
type IPLocator struct {
	URL        string
	httpClient *http.Client
}

// NewIPLocator uses the transport's default timeouts; a hung lookup only
// delays the fallback.
func NewIPLocator(url string) *IPLocator {
	if url == "" {
		url = DefaultIPLookupURL
	}
	return &IPLocator{URL: url, httpClient: &http.Client{}}
}

type ipResponse struct {
	Latitude  json.Number `json:"latitude"`
	Longitude json.Number `json:"longitude"`
}

func (l *IPLocator) Locate(ctx context.Context) (geo.GeoPoint, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.URL, nil)
	if err != nil {
		return geo.GeoPoint{}, err
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return geo.GeoPoint{}, fmt.Errorf("ip lookup: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return geo.GeoPoint{}, fmt.Errorf("ip lookup: HTTP %d", resp.StatusCode)
	}
	var parsed ipResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return geo.GeoPoint{}, fmt.Errorf("ip lookup decode: %w", err)
	}
	lat, _ := parsed.Latitude.Float64()
	lng, _ := parsed.Longitude.Float64()
	if lat == 0 {
		return geo.GeoPoint{}, ErrNoFix
	}
	p := geo.GeoPoint{Lat: lat, Lng: lng}
	return p, p.Validate()
}
