// Package normalizer turns loosely typed station rows into canonical records.
//
// Rows come from a hand-edited, third-party editable table, so any column may be
// absent, blank or of the wrong type. Every coercion here recovers locally with a
// default; nothing in this package returns an error.
package normalizer

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/stwalsh4118/chargemap/internal/models"
)

// NormalizeTable converts raw rows into the canonical station table.
// The result has exactly one record per input row and is never nil.
func NormalizeTable(rows []models.RawRow) []models.Station {
	stations := make([]models.Station, 0, len(rows))
	for _, row := range rows {
		stations = append(stations, NormalizeRow(row))
	}
	return stations
}

// NormalizeRow converts a single raw row. Absent columns take the schema default.
func NormalizeRow(row models.RawRow) models.Station {
	return models.Station{
		Name:           CoerceText(row[models.ColumnName], ""),
		Lat:            CoerceNumeric(row[models.ColumnLat]),
		Lon:            CoerceNumeric(row[models.ColumnLon]),
		Price:          CoerceNumeric(row[models.ColumnPrice]),
		Type:           CoerceText(row[models.ColumnType], ""),
		Contact:        CoerceText(row[models.ColumnContact], ""),
		Status:         CoerceText(row[models.ColumnStatus], ""),
		Rating:         CoerceRating(row[models.ColumnRating]),
		Reviews:        CoerceCount(row[models.ColumnReviews]),
		Amenities:      CoerceAmenities(row[models.ColumnAmenities]),
		OperatingHours: coerceOperatingHours(row[models.ColumnOperatingHours]),
	}
}

// CoerceRating converts any representation of a rating to a non-negative integer.
// Null, blank, "nan" (any case), unparsable text, non-finite numbers and lists
// yield 0. Numeric values are truncated, so 4.7 and "4.7" both become 4.
func CoerceRating(v models.RawValue) int {
	return coerceNonNegativeInt(v)
}

// CoerceCount applies the rating rules to counters such as the review count.
func CoerceCount(v models.RawValue) int {
	return coerceNonNegativeInt(v)
}

func coerceNonNegativeInt(v models.RawValue) int {
	f, ok := parseNumber(v)
	if !ok {
		return 0
	}
	n := math.Trunc(f)
	if n <= 0 {
		return 0
	}
	if n >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

// CoerceNumeric converts a coordinate or price cell to a float; anything that is
// not a finite number, or text holding one, becomes 0.
func CoerceNumeric(v models.RawValue) float64 {
	f, ok := parseNumber(v)
	if !ok {
		return 0
	}
	return f
}

// parseNumber reports the finite numeric value held by v, if any.
func parseNumber(v models.RawValue) (float64, bool) {
	var f float64
	switch v.Kind() {
	case models.RawNumber:
		f, _ = v.Num()
	case models.RawString:
		s, _ := v.Str()
		s = strings.TrimSpace(s)
		if s == "" || strings.EqualFold(s, "nan") {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// CoerceAmenities returns the amenity list held by v.
// Lists are used as is; strings are parsed as a JSON array of strings.
// Null, blank and malformed values yield an empty, non-nil slice.
func CoerceAmenities(v models.RawValue) []string {
	switch v.Kind() {
	case models.RawList:
		items, _ := v.Items()
		amenities := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.Str(); ok {
				amenities = append(amenities, s)
			}
		}
		return amenities
	case models.RawString:
		s, _ := v.Str()
		s = strings.TrimSpace(s)
		if s == "" {
			return []string{}
		}
		var amenities []string
		if err := json.Unmarshal([]byte(s), &amenities); err != nil || amenities == nil {
			return []string{}
		}
		return amenities
	default:
		return []string{}
	}
}

// CoerceText returns the text held by v, or def for null and list cells.
// Numbers are rendered without trailing zeros; spreadsheets store phone
// numbers and similar identifiers as numbers.
func CoerceText(v models.RawValue, def string) string {
	switch v.Kind() {
	case models.RawString:
		s, _ := v.Str()
		return s
	case models.RawNumber:
		f, _ := v.Num()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return def
		}
		return strconv.FormatFloat(f, 'f', -1, 64)
	default:
		return def
	}
}

func coerceOperatingHours(v models.RawValue) string {
	hours := strings.TrimSpace(CoerceText(v, ""))
	if hours == "" {
		return models.DefaultOperatingHours
	}
	return hours
}
