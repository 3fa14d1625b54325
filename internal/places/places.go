// Package places looks up destinations with the Google Places API (v1).
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"nav-edge/internal/geo"
)

const BaseURL = "https://places.googleapis.com/v1"

var (
	ErrEmptyQuery = errors.New("empty query")
	ErrNoResults  = errors.New("no results")
)

const (
	searchFieldMask  = "places.id,places.displayName,places.formattedAddress,places.location"
	detailsFieldMask = "id,displayName,formattedAddress,nationalPhoneNumber,rating,userRatingCount,types,websiteUri,location"
)

type Place struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Address     string       `json:"address,omitempty"`
	Location    geo.GeoPoint `json:"location"`
	Phone       string       `json:"phone,omitempty"`
	Rating      float64      `json:"rating,omitempty"`
	RatingCount int          `json:"rating_count,omitempty"`
	Types       []string     `json:"types,omitempty"`
	Website     string       `json:"website,omitempty"`
}

type Options struct {
	BaseURL    string
	APIKey     string
	MaxResults int
	Language   string
	CacheSize  int
	CacheTTL   time.Duration
	Timeout    time.Duration
}

type Client struct {
	opts       Options
	httpClient *http.Client
	cache      *expirable.LRU[string, []Place]
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = BaseURL
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = 8
	}
	if opts.Language == "" {
		opts.Language = "en"
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 64
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Client{
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
		cache:      expirable.NewLRU[string, []Place](opts.CacheSize, nil, opts.CacheTTL),
	}
}

type apiPlace struct {
	ID          string `json:"id"`
	DisplayName struct {
		Text string `json:"text"`
	} `json:"displayName"`
	FormattedAddress    string   `json:"formattedAddress"`
	NationalPhoneNumber string   `json:"nationalPhoneNumber"`
	Rating              float64  `json:"rating"`
	UserRatingCount     int      `json:"userRatingCount"`
	Types               []string `json:"types"`
	WebsiteURI          string   `json:"websiteUri"`
	Location            struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
}

func (p apiPlace) place() Place {
	return Place{
		ID:          p.ID,
		Name:        p.DisplayName.Text,
		Address:     p.FormattedAddress,
		Location:    geo.GeoPoint{Lat: p.Location.Latitude, Lng: p.Location.Longitude},
		Phone:       p.NationalPhoneNumber,
		Rating:      p.Rating,
		RatingCount: p.UserRatingCount,
		Types:       p.Types,
		Website:     p.WebsiteURI,
	}
}

// Search runs a free-text query. Results are cached per normalized query.
func (c *Client) Search(ctx context.Context, query string) ([]Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	key := strings.ToLower(query)
	if cached, ok := c.cache.Get(key); ok {
		return slices.Clone(cached), nil
	}

	body, err := json.Marshal(map[string]any{
		"textQuery":      query,
		"maxResultCount": c.opts.MaxResults,
		"languageCode":   c.opts.Language,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+"/places:searchText", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-FieldMask", searchFieldMask)

	var parsed struct {
		Places []apiPlace `json:"places"`
	}
	if err := c.do(req, &parsed); err != nil {
		return nil, fmt.Errorf("places search: %w", err)
	}
	if len(parsed.Places) == 0 {
		return nil, ErrNoResults
	}
	out := make([]Place, 0, len(parsed.Places))
	for _, p := range parsed.Places {
		out = append(out, p.place())
	}
	c.cache.Add(key, out)
	return slices.Clone(out), nil
}

// Details fetches the fields shown for a selected place.
func (c *Client) Details(ctx context.Context, id string) (Place, error) {
	if id == "" {
		return Place{}, ErrNoResults
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.BaseURL+"/places/"+url.PathEscape(id), nil)
	if err != nil {
		return Place{}, err
	}
	req.Header.Set("X-Goog-FieldMask", detailsFieldMask)

	var parsed apiPlace
	if err := c.do(req, &parsed); err != nil {
		return Place{}, fmt.Errorf("place details: %w", err)
	}
	return parsed.place(), nil
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("X-Goog-Api-Key", c.opts.APIKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNoResults
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
