// Package proximity computes great-circle distances from a reference point to
// stations and answers radius-filtered, distance-sorted queries.
package proximity

import (
	"math"
	"sort"

	"github.com/stwalsh4118/chargemap/internal/models"
)

// EarthRadiusKm is the mean Earth radius (IUGG) used for haversine distances.
const EarthRadiusKm = 6371.0088

// Distance returns the great-circle distance between a and b in kilometres.
func Distance(a, b models.Coordinate) float64 {
	if a == b {
		return 0
	}

	φ1 := a.Lat * math.Pi / 180.0
	φ2 := b.Lat * math.Pi / 180.0
	dφ := (b.Lat - a.Lat) * math.Pi / 180.0
	dλ := (b.Lon - a.Lon) * math.Pi / 180.0

	h := math.Sin(dφ/2)*math.Sin(dφ/2) + math.Cos(φ1)*math.Cos(φ2)*math.Sin(dλ/2)*math.Sin(dλ/2)
	// Rounding can push h a hair past 1 for antipodal points.
	h = math.Min(1, math.Max(0, h))

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// AnnotateDistances pairs every station with its distance from ref, keeping input order.
func AnnotateDistances(ref models.Coordinate, stations []models.Station) []models.SearchResult {
	results := make([]models.SearchResult, 0, len(stations))
	for _, s := range stations {
		results = append(results, models.SearchResult{
			Station:    s,
			DistanceKm: Distance(ref, s.Coordinate()),
		})
	}
	return results
}

// FilterWithinRadius keeps results whose distance is at most maxKm. The boundary is inclusive.
func FilterWithinRadius(results []models.SearchResult, maxKm float64) []models.SearchResult {
	kept := make([]models.SearchResult, 0, len(results))
	for _, r := range results {
		if r.DistanceKm <= maxKm {
			kept = append(kept, r)
		}
	}
	return kept
}

// SortByDistance returns a copy of results ordered by ascending distance.
// Equal distances keep their input order.
func SortByDistance(results []models.SearchResult) []models.SearchResult {
	sorted := make([]models.SearchResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DistanceKm < sorted[j].DistanceKm
	})
	return sorted
}

// FindNearby returns the stations within maxKm of ref, nearest first.
func FindNearby(ref models.Coordinate, stations []models.Station, maxKm float64) []models.SearchResult {
	return SortByDistance(FilterWithinRadius(AnnotateDistances(ref, stations), maxKm))
}

// Centroid returns the mean position of the stations, used to centre a map view.
// It reports false for an empty table.
func Centroid(stations []models.Station) (models.Coordinate, bool) {
	if len(stations) == 0 {
		return models.Coordinate{}, false
	}

	var sumLat, sumLon float64
	for _, s := range stations {
		sumLat += s.Lat
		sumLon += s.Lon
	}
	n := float64(len(stations))
	return models.Coordinate{Lat: sumLat / n, Lon: sumLon / n}, true
}
