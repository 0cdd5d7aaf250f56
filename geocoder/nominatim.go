package geocoder

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org"

// Nominatim talks to a Nominatim-compatible geocoding service.
type Nominatim struct {
	baseURL   string
	userAgent string
	client    *http.Client
	cache     Cache
}

// Option configures a Nominatim client.
type Option func(*Nominatim)

// WithBaseURL points the client at a different service endpoint.
func WithBaseURL(u string) Option {
	return func(n *Nominatim) { n.baseURL = u }
}

// WithCache adds a lookup cache. Nominatim's usage policy asks for at most
// one request per second, so repeated lookups should not hit the service.
func WithCache(c Cache) Option {
	return func(n *Nominatim) { n.cache = c }
}

// NewNominatim creates a client with the given identification and timeout.
// Nominatim requires a meaningful User-Agent.
func NewNominatim(userAgent string, timeout time.Duration, opts ...Option) *Nominatim {
	n := &Nominatim{
		baseURL:   defaultBaseURL,
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

type reverseResult struct {
	DisplayName string `json:"display_name"`
}

// Geocode implements Client.
func (n *Nominatim) Geocode(ctx context.Context, name string) (*Coordinates, error) {
	cacheKey := "geocode:name:" + name
	if cached, ok := n.cacheGet(ctx, cacheKey); ok {
		var coords Coordinates
		if json.Unmarshal([]byte(cached), &coords) == nil {
			return &coords, nil
		}
	}

	q := url.Values{}
	q.Set("q", name)
	q.Set("format", "jsonv2")
	q.Set("limit", "1")

	var results []searchResult
	if err := n.get(ctx, "/search", q, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("bad latitude %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("bad longitude %q: %w", results[0].Lon, err)
	}

	coords := &Coordinates{Latitude: round6(lat), Longitude: round6(lon)}
	if b, err := json.Marshal(coords); err == nil {
		n.cacheSet(ctx, cacheKey, string(b))
	}
	return coords, nil
}

// Reverse implements Client.
func (n *Nominatim) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	cacheKey := fmt.Sprintf("geocode:rev:%.6f:%.6f", lat, lon)
	if cached, ok := n.cacheGet(ctx, cacheKey); ok {
		return cached, nil
	}

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', 6, 64))
	q.Set("format", "jsonv2")

	var result reverseResult
	if err := n.get(ctx, "/reverse", q, &result); err != nil {
		return "", err
	}
	if result.DisplayName != "" {
		n.cacheSet(ctx, cacheKey, result.DisplayName)
	}
	return result.DisplayName, nil
}

func (n *Nominatim) get(ctx context.Context, path string, q url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", n.userAgent)

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("geocoding service returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (n *Nominatim) cacheGet(ctx context.Context, key string) (string, bool) {
	if n.cache == nil {
		return "", false
	}
	return n.cache.Get(ctx, key)
}

func (n *Nominatim) cacheSet(ctx context.Context, key, value string) {
	if n.cache != nil {
		n.cache.Set(ctx, key, value)
	}
}

func round6(v float64) float64 {
	f, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 6, 64), 64)
	return f
}
