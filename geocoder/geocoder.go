// Package geocoder resolves between place names and coordinates through the
// Nominatim HTTP API. Lookups are strictly best-effort: every call is bounded
// by the client timeout and callers fall back to stored values on failure.
package geocoder

import "context"

// Coordinates is a geographic point. Values carry 6 decimal places.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Client is the external geocoding collaborator. Implementations are
// stateless and injected where needed; there is no process-wide instance.
type Client interface {
	// Geocode resolves a place name to coordinates. A nil result with nil
	// error means the service answered but found nothing.
	Geocode(ctx context.Context, name string) (*Coordinates, error)
	// Reverse resolves coordinates to a display address. An empty result
	// with nil error means the service found no address.
	Reverse(ctx context.Context, lat, lon float64) (string, error)
}
