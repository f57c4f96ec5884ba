package models

import (
	"encoding/json"
	"fmt"
)

// Point represents a GeoJSON Point geometry.
// Coordinates are stored in GeoJSON order: [lon, lat] (WGS84).
type Point struct {
	Coordinates [2]float64
}

// NewPoint builds a Point from a coordinate, swapping into GeoJSON order.
func NewPoint(c Coordinate) Point {
	return Point{Coordinates: [2]float64{c.Lon, c.Lat}}
}

// Coordinate returns the point as a lat/lon pair.
func (p Point) Coordinate() Coordinate {
	return Coordinate{Lat: p.Coordinates[1], Lon: p.Coordinates[0]}
}

// MarshalJSON implements json.Marshaler.
// Returns GeoJSON-compliant format for map widgets.
func (p Point) MarshalJSON() ([]byte, error) {
	geom := struct {
		Type        string     `json:"type"`
		Coordinates [2]float64 `json:"coordinates"`
	}{
		Type:        "Point",
		Coordinates: p.Coordinates,
	}
	return json.Marshal(geom)
}

// UnmarshalJSON implements json.Unmarshaler for parsing GeoJSON input.
func (p *Point) UnmarshalJSON(data []byte) error {
	var geom struct {
		Type        string     `json:"type"`
		Coordinates [2]float64 `json:"coordinates"`
	}

	if err := json.Unmarshal(data, &geom); err != nil {
		return fmt.Errorf("failed to unmarshal point: %w", err)
	}

	if geom.Type != "" && geom.Type != "Point" {
		return fmt.Errorf("expected Point type, got %s", geom.Type)
	}

	p.Coordinates = geom.Coordinates
	return nil
}

// Feature is a GeoJSON Feature carrying one station as its properties.
type Feature struct {
	Type       string  `json:"type"`
	Geometry   Point   `json:"geometry"`
	Properties Station `json:"properties"`
}

// FeatureCollection is a GeoJSON FeatureCollection.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// NewStationFeatureCollection places each station on the map as a point feature.
// Features keep the order of the input table.
func NewStationFeatureCollection(stations []Station) FeatureCollection {
	features := make([]Feature, 0, len(stations))
	for _, s := range stations {
		features = append(features, Feature{
			Type:       "Feature",
			Geometry:   NewPoint(s.Coordinate()),
			Properties: s,
		})
	}
	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}
