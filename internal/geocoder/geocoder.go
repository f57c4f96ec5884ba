// Package geocoder resolves free-text place names to coordinates.
package geocoder

import (
	"context"
	"strings"

	"github.com/stwalsh4118/chargemap/internal/models"
)

// Location is a resolved place.
type Location struct {
	DisplayName string
	Provider    string
	Coordinate  models.Coordinate
}

// Geocoder resolves a place name to a location.
type Geocoder interface {
	// Geocode returns nil, nil when the query matches no place.
	// An error means the lookup itself failed.
	Geocode(ctx context.Context, query string) (*Location, error)
}

// normalizeQuery is the cache key form of a query.
func normalizeQuery(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}
