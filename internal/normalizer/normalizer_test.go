package normalizer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/chargemap/internal/models"
)

func TestCoerceRating(t *testing.T) {
	tests := []struct {
		name  string
		value models.RawValue
		want  int
	}{
		{name: "null", value: models.Null(), want: 0},
		{name: "empty string", value: models.String(""), want: 0},
		{name: "whitespace", value: models.String("   "), want: 0},
		{name: "nan lower", value: models.String("nan"), want: 0},
		{name: "nan mixed case", value: models.String(" NaN "), want: 0},
		{name: "float NaN", value: models.Number(math.NaN()), want: 0},
		{name: "infinity", value: models.Number(math.Inf(1)), want: 0},
		{name: "text infinity", value: models.String("inf"), want: 0},
		{name: "float truncates", value: models.Number(4.9), want: 4},
		{name: "float 4.7", value: models.Number(4.7), want: 4},
		{name: "integer", value: models.Number(3), want: 3},
		{name: "numeric string", value: models.String("3"), want: 3},
		{name: "decimal string", value: models.String("4.0"), want: 4},
		{name: "padded string", value: models.String(" 5 "), want: 5},
		{name: "garbage", value: models.String("five stars"), want: 0},
		{name: "negative clamps", value: models.Number(-2), want: 0},
		{name: "list", value: models.List(models.Number(4)), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CoerceRating(tt.value))
		})
	}
}

func TestCoerceAmenities(t *testing.T) {
	tests := []struct {
		name  string
		value models.RawValue
		want  []string
	}{
		{name: "null", value: models.Null(), want: []string{}},
		{name: "empty string", value: models.String(""), want: []string{}},
		{name: "json array", value: models.String(`["WiFi","Food"]`), want: []string{"WiFi", "Food"}},
		{name: "empty json array", value: models.String(`[]`), want: []string{}},
		{name: "not json", value: models.String("not json"), want: []string{}},
		{name: "json null", value: models.String("null"), want: []string{}},
		{name: "json object", value: models.String(`{"a":"b"}`), want: []string{}},
		{name: "mixed array", value: models.String(`["WiFi", 3]`), want: []string{}},
		{name: "number", value: models.Number(1), want: []string{}},
		{
			name:  "list value",
			value: models.List(models.String("Restrooms"), models.Number(2), models.String("Covered")),
			want:  []string{"Restrooms", "Covered"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CoerceAmenities(tt.value)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoerceNumeric(t *testing.T) {
	tests := []struct {
		name  string
		value models.RawValue
		want  float64
	}{
		{name: "null", value: models.Null(), want: 0},
		{name: "number", value: models.Number(24.86), want: 24.86},
		{name: "negative", value: models.Number(-95.45), want: -95.45},
		{name: "numeric text", value: models.String(" 67.05 "), want: 67.05},
		{name: "blank", value: models.String(""), want: 0},
		{name: "garbage", value: models.String("north"), want: 0},
		{name: "nan text", value: models.String("NAN"), want: 0},
		{name: "list", value: models.List(), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CoerceNumeric(tt.value))
		})
	}
}

func TestCoerceText(t *testing.T) {
	assert.Equal(t, "Level 2", CoerceText(models.String("Level 2"), ""))
	assert.Equal(t, "3001234567", CoerceText(models.Number(3001234567), ""))
	assert.Equal(t, "0.25", CoerceText(models.Number(0.25), ""))
	assert.Equal(t, "fallback", CoerceText(models.Null(), "fallback"))
	assert.Equal(t, "", CoerceText(models.List(models.String("x")), ""))
}

func TestNormalizeRow_EmptyRowGetsDefaults(t *testing.T) {
	s := NormalizeRow(models.RawRow{})

	assert.Equal(t, models.Station{
		Amenities:      []string{},
		OperatingHours: models.DefaultOperatingHours,
	}, s)
}

func TestNormalizeRow_MissingRatingColumn(t *testing.T) {
	s := NormalizeRow(models.RawRow{
		"name": models.String("No Rating"),
		"lat":  models.Number(1),
		"lon":  models.Number(2),
	})

	assert.Equal(t, 0, s.Rating)
	assert.Equal(t, "No Rating", s.Name)
}

func TestNormalizeRow_FullRow(t *testing.T) {
	s := NormalizeRow(models.RawRow{
		"name":            models.String("Dolmen Mall"),
		"lat":             models.String("24.8011"),
		"lon":             models.Number(67.0305),
		"price":           models.String("0.30"),
		"type":            models.String("DC Fast"),
		"contact":         models.Number(923001234567),
		"status":          models.String("In Use"),
		"rating":          models.String("4.0"),
		"reviews":         models.Number(12),
		"amenities":       models.String(`["Shopping","Food"]`),
		"operating_hours": models.String("10 AM - 11 PM"),
		"verified_email":  models.String("pending_verification"),
		"legacy_column":   models.String("ignored"),
	})

	assert.Equal(t, models.Station{
		Name:           "Dolmen Mall",
		Lat:            24.8011,
		Lon:            67.0305,
		Price:          0.30,
		Type:           "DC Fast",
		Contact:        "923001234567",
		Status:         "In Use",
		Rating:         4,
		Reviews:        12,
		Amenities:      []string{"Shopping", "Food"},
		OperatingHours: "10 AM - 11 PM",
	}, s)
}

func TestNormalizeRow_BlankOperatingHours(t *testing.T) {
	s := NormalizeRow(models.RawRow{"operating_hours": models.String("  ")})
	assert.Equal(t, "24/7", s.OperatingHours)
}

func TestNormalizeTable_EveryFieldPresentForAnySubset(t *testing.T) {
	columns := []string{
		models.ColumnName, models.ColumnLat, models.ColumnLon, models.ColumnPrice,
		models.ColumnType, models.ColumnContact, models.ColumnStatus, models.ColumnRating,
		models.ColumnReviews, models.ColumnAmenities, models.ColumnOperatingHours,
	}
	full := models.RawRow{
		models.ColumnName:           models.String("S"),
		models.ColumnLat:            models.Number(10),
		models.ColumnLon:            models.Number(20),
		models.ColumnPrice:          models.Number(0.5),
		models.ColumnType:           models.String("Level 2"),
		models.ColumnContact:        models.String("c"),
		models.ColumnStatus:         models.String("Available"),
		models.ColumnRating:         models.Number(5),
		models.ColumnReviews:        models.Number(1),
		models.ColumnAmenities:      models.String(`["WiFi"]`),
		models.ColumnOperatingHours: models.String("9-5"),
	}

	// Drop every subset of columns and check the record is still complete.
	rows := make([]models.RawRow, 0, 1<<len(columns))
	for mask := 0; mask < 1<<len(columns); mask++ {
		row := models.RawRow{}
		for i, col := range columns {
			if mask&(1<<i) != 0 {
				row[col] = full[col]
			}
		}
		rows = append(rows, row)
	}

	stations := NormalizeTable(rows)
	require.Len(t, stations, len(rows))
	for i, s := range stations {
		assert.NotNil(t, s.Amenities, "row %d", i)
		assert.NotEmpty(t, s.OperatingHours, "row %d", i)
		assert.GreaterOrEqual(t, s.Rating, 0, "row %d", i)
		assert.False(t, math.IsNaN(s.Lat) || math.IsNaN(s.Lon) || math.IsNaN(s.Price), "row %d", i)
	}
	assert.Equal(t, NormalizeRow(full), stations[len(stations)-1])
}

func TestNormalizeTable_Empty(t *testing.T) {
	stations := NormalizeTable(nil)
	assert.NotNil(t, stations)
	assert.Empty(t, stations)
}

func TestNormalizeTable_MixedRecords(t *testing.T) {
	stations := NormalizeTable([]models.RawRow{
		{
			"name":      models.String("A"),
			"lat":       models.Number(24.86),
			"lon":       models.Number(67.00),
			"rating":    models.String("nan"),
			"amenities": models.String(""),
		},
		{
			"name":      models.String("B"),
			"lat":       models.Number(24.90),
			"lon":       models.Number(67.05),
			"rating":    models.Number(4),
			"amenities": models.String(`["WiFi"]`),
		},
	})

	require.Len(t, stations, 2)
	assert.Equal(t, 0, stations[0].Rating)
	assert.Equal(t, []string{}, stations[0].Amenities)
	assert.Equal(t, 4, stations[1].Rating)
	assert.Equal(t, []string{"WiFi"}, stations[1].Amenities)
}
