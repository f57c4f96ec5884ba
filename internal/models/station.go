package models

import (
	"encoding/json"
)

// Column names of a station row in the station store.
// Column order is irrelevant; unknown columns are ignored when reading.
const (
	ColumnName           = "name"
	ColumnLat            = "lat"
	ColumnLon            = "lon"
	ColumnPrice          = "price"
	ColumnType           = "type"
	ColumnContact        = "contact"
	ColumnStatus         = "status"
	ColumnRating         = "rating"
	ColumnReviews        = "reviews"
	ColumnAmenities      = "amenities"
	ColumnOperatingHours = "operating_hours"
	ColumnVerifiedEmail  = "verified_email"
)

// Station status values used by the submission form.
const (
	StatusAvailable    = "Available"
	StatusInUse        = "In Use"
	StatusOutOfService = "Out of Service"
)

// TypeOther marks a submission whose charger type is given as free text in CustomType.
const TypeOther = "Other"

// DefaultOperatingHours is used when a row has no operating hours.
const DefaultOperatingHours = "24/7"

// PendingVerification is written to the verified_email column of new rows.
// Contact email verification is not performed.
const PendingVerification = "pending_verification"

// Coordinate is a WGS84 latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Station is the canonical, fully typed record of one charging station.
// Every field is always present; Amenities is never nil.
type Station struct {
	Name           string   `json:"name"`
	Type           string   `json:"type"`
	Contact        string   `json:"contact"`
	Status         string   `json:"status"`
	OperatingHours string   `json:"operating_hours"`
	Amenities      []string `json:"amenities"`
	Lat            float64  `json:"lat"`
	Lon            float64  `json:"lon"`
	Price          float64  `json:"price"`
	Rating         int      `json:"rating"`
	Reviews        int      `json:"reviews"`
}

// Coordinate returns the station position.
func (s Station) Coordinate() Coordinate {
	return Coordinate{Lat: s.Lat, Lon: s.Lon}
}

// Row converts the station into the loosely typed row written to the store.
// Amenities are serialized as a JSON array string, matching what spreadsheet
// backed tables hold in that column.
func (s Station) Row() map[string]interface{} {
	amenities := s.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	encoded, err := json.Marshal(amenities)
	if err != nil {
		encoded = []byte("[]")
	}

	return map[string]interface{}{
		ColumnName:           s.Name,
		ColumnLat:            s.Lat,
		ColumnLon:            s.Lon,
		ColumnPrice:          s.Price,
		ColumnType:           s.Type,
		ColumnContact:        s.Contact,
		ColumnStatus:         s.Status,
		ColumnRating:         s.Rating,
		ColumnReviews:        s.Reviews,
		ColumnAmenities:      string(encoded),
		ColumnOperatingHours: s.OperatingHours,
		ColumnVerifiedEmail:  PendingVerification,
	}
}

// SearchResult is a station paired with its distance from a search reference point.
// It is computed per query and never persisted.
type SearchResult struct {
	Station
	DistanceKm float64 `json:"distance_km"`
}

// StationDraft is the add-station input submitted by a client.
type StationDraft struct {
	Name           string   `json:"name" validate:"required,max=200"`
	Type           string   `json:"type" validate:"omitempty,oneof='Level 1' 'Level 2' 'DC Fast' 'Other'"`
	CustomType     string   `json:"custom_type" validate:"required_if=Type Other,max=100"`
	Contact        string   `json:"contact" validate:"max=200"`
	Status         string   `json:"status" validate:"omitempty,oneof='Available' 'In Use' 'Out of Service'"`
	OperatingHours string   `json:"operating_hours" validate:"max=100"`
	Amenities      []string `json:"amenities" validate:"omitempty,max=20,dive,required,max=50"`
	Lat            float64  `json:"lat" validate:"required,min=-90,max=90"`
	Lon            float64  `json:"lon" validate:"required,min=-180,max=180"`
	Price          float64  `json:"price" validate:"gte=0"`
}

// SearchQuery is the request-scoped search context. Either Query (a free-text
// place name) or Reference must be set; Reference wins when both are.
type SearchQuery struct {
	Reference *Coordinate
	Query     string
	RadiusKm  int
}
