package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stwalsh4118/chargemap/internal/geocoder"
	"github.com/stwalsh4118/chargemap/internal/logger"
	"github.com/stwalsh4118/chargemap/internal/models"
	"github.com/stwalsh4118/chargemap/internal/normalizer"
	"github.com/stwalsh4118/chargemap/internal/proximity"
	"github.com/stwalsh4118/chargemap/internal/repository"
)

// Coordinate validation constants
const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

// Radius validation constants
const (
	MinRadiusKm = 1
	MaxRadiusKm = 100
)

// DefaultChargerType is used when a submission names no charger type.
const DefaultChargerType = "Level 1"

// Service-level errors
var (
	ErrValidation          = errors.New("validation failed")
	ErrStoreUnavailable    = errors.New("station store unavailable")
	ErrLocationNotFound    = errors.New("location not found")
	ErrGeocoderUnavailable = errors.New("geocoder unavailable")
	ErrUpstreamTimeout     = errors.New("upstream timed out")
	ErrInvalidCoordinates  = errors.New("invalid coordinates")
	ErrInvalidRadius       = errors.New("radius must be between 1 and 100 km")
	ErrMissingLocation     = errors.New("a place name or coordinates are required")
)

// ValidationError carries the field errors of a rejected submission.
// errors.Is(err, ErrValidation) holds for every ValidationError.
type ValidationError struct {
	Fields validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), e.Fields.Error())
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Timeouts bounds calls to external collaborators. A zero value disables the bound.
type Timeouts struct {
	Store   time.Duration
	Geocode time.Duration
}

// NearbyResult is the outcome of a proximity search.
type NearbyResult struct {
	Reference models.Coordinate
	// Location is the geocoder's name for the reference; empty for explicit coordinates.
	Location string
	Query    string
	RadiusKm int
	Results  []models.SearchResult
}

// StationService defines the interface for station business logic operations.
type StationService interface {
	// ListStations reads every stored row and returns the canonical table.
	// Returns ErrStoreUnavailable (and ErrUpstreamTimeout on deadline) when the store fails.
	ListStations(ctx context.Context) ([]models.Station, error)

	// AddStation validates a submission and appends it to the store.
	// Returns a *ValidationError before touching the store when the draft is invalid.
	// Returns ErrStoreUnavailable when the append fails.
	AddStation(ctx context.Context, draft models.StationDraft) (*models.Station, error)

	// FindNearby resolves the search reference and returns stations within the radius,
	// nearest first.
	// Returns ErrInvalidRadius, ErrInvalidCoordinates or ErrMissingLocation for bad input.
	// Returns ErrLocationNotFound when the place name matches nothing; the store is not read.
	// Returns ErrGeocoderUnavailable or ErrStoreUnavailable for collaborator failures.
	FindNearby(ctx context.Context, query models.SearchQuery) (*NearbyResult, error)
}

// stationService is the concrete implementation of StationService.
type stationService struct {
	repo     repository.StationRepository
	geo      geocoder.Geocoder
	validate *validator.Validate
	timeouts Timeouts
	log      *logger.Logger
}

// NewStationService creates a new instance of StationService.
func NewStationService(repo repository.StationRepository, geo geocoder.Geocoder, timeouts Timeouts, log *logger.Logger) StationService {
	return &stationService{
		repo:     repo,
		geo:      geo,
		validate: newValidator(),
		timeouts: timeouts,
		log:      log,
	}
}

// newValidator reports field errors under their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ListStations loads and normalizes the station table.
func (s *stationService) ListStations(ctx context.Context) ([]models.Station, error) {
	ctx, cancel := withTimeout(ctx, s.timeouts.Store)
	defer cancel()

	rows, err := s.repo.ReadAll(ctx)
	if err != nil {
		s.log.Error("Failed to read station table", err, nil)
		return nil, wrapUpstream(ErrStoreUnavailable, "failed to read stations", err)
	}

	stations := normalizer.NormalizeTable(rows)

	s.log.Debug("Station table loaded", map[string]interface{}{
		"rows": len(rows),
	})

	return stations, nil
}

// AddStation validates the draft, fills defaults and appends the new row.
func (s *stationService) AddStation(ctx context.Context, draft models.StationDraft) (*models.Station, error) {
	draft = trimDraft(draft)

	if err := s.validate.Struct(draft); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, fmt.Errorf("failed to validate station: %w", err)
		}
		s.log.Warn("Station submission rejected", map[string]interface{}{
			"name":   draft.Name,
			"fields": len(fieldErrs),
		})
		return nil, &ValidationError{Fields: fieldErrs}
	}

	station := stationFromDraft(draft)

	ctx, cancel := withTimeout(ctx, s.timeouts.Store)
	defer cancel()

	if err := s.repo.Append(ctx, station); err != nil {
		s.log.Error("Failed to append station", err, map[string]interface{}{
			"name": station.Name,
		})
		return nil, wrapUpstream(ErrStoreUnavailable, "failed to add station", err)
	}

	s.log.Info("Station added", map[string]interface{}{
		"name": station.Name,
		"lat":  station.Lat,
		"lon":  station.Lon,
		"type": station.Type,
	})

	return &station, nil
}

// FindNearby runs a radius search around an explicit or geocoded reference point.
func (s *stationService) FindNearby(ctx context.Context, query models.SearchQuery) (*NearbyResult, error) {
	if query.RadiusKm < MinRadiusKm || query.RadiusKm > MaxRadiusKm {
		s.log.Warn("Invalid radius provided", map[string]interface{}{
			"radius": query.RadiusKm,
		})
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRadius, query.RadiusKm)
	}

	result := &NearbyResult{
		Query:    strings.TrimSpace(query.Query),
		RadiusKm: query.RadiusKm,
	}

	switch {
	case query.Reference != nil:
		if err := validateCoordinate(*query.Reference); err != nil {
			s.log.Warn("Invalid reference coordinates", map[string]interface{}{
				"lat": query.Reference.Lat,
				"lon": query.Reference.Lon,
			})
			return nil, err
		}
		result.Reference = *query.Reference
	case result.Query != "":
		location, err := s.resolve(ctx, result.Query)
		if err != nil {
			return nil, err
		}
		result.Reference = location.Coordinate
		result.Location = location.DisplayName
	default:
		return nil, ErrMissingLocation
	}

	stations, err := s.ListStations(ctx)
	if err != nil {
		return nil, err
	}

	result.Results = proximity.FindNearby(result.Reference, stations, float64(query.RadiusKm))

	s.log.Info("Nearby stations found", map[string]interface{}{
		"lat":    result.Reference.Lat,
		"lon":    result.Reference.Lon,
		"radius": query.RadiusKm,
		"query":  result.Query,
		"count":  len(result.Results),
	})

	return result, nil
}

// resolve geocodes a place name under the geocode timeout.
func (s *stationService) resolve(ctx context.Context, query string) (*geocoder.Location, error) {
	ctx, cancel := withTimeout(ctx, s.timeouts.Geocode)
	defer cancel()

	location, err := s.geo.Geocode(ctx, query)
	if err != nil {
		s.log.Error("Geocoding failed", err, map[string]interface{}{
			"query": query,
		})
		return nil, wrapUpstream(ErrGeocoderUnavailable, fmt.Sprintf("failed to geocode %q", query), err)
	}

	if location == nil {
		s.log.Debug("No location matched query", map[string]interface{}{
			"query": query,
		})
		return nil, fmt.Errorf("%w: %q", ErrLocationNotFound, query)
	}

	return location, nil
}

func validateCoordinate(c models.Coordinate) error {
	if c.Lat < MinLatitude || c.Lat > MaxLatitude {
		return fmt.Errorf("%w: latitude must be between %f and %f, got %f",
			ErrInvalidCoordinates, MinLatitude, MaxLatitude, c.Lat)
	}
	if c.Lon < MinLongitude || c.Lon > MaxLongitude {
		return fmt.Errorf("%w: longitude must be between %f and %f, got %f",
			ErrInvalidCoordinates, MinLongitude, MaxLongitude, c.Lon)
	}
	return nil
}

func trimDraft(d models.StationDraft) models.StationDraft {
	d.Name = strings.TrimSpace(d.Name)
	d.Type = strings.TrimSpace(d.Type)
	d.CustomType = strings.TrimSpace(d.CustomType)
	d.Contact = strings.TrimSpace(d.Contact)
	d.Status = strings.TrimSpace(d.Status)
	d.OperatingHours = strings.TrimSpace(d.OperatingHours)
	if d.Amenities != nil {
		amenities := make([]string, len(d.Amenities))
		for i, a := range d.Amenities {
			amenities[i] = strings.TrimSpace(a)
		}
		d.Amenities = amenities
	}
	return d
}

// stationFromDraft builds the stored record of a validated draft.
// New stations start unrated.
func stationFromDraft(d models.StationDraft) models.Station {
	chargerType := d.Type
	switch chargerType {
	case "":
		chargerType = DefaultChargerType
	case models.TypeOther:
		chargerType = d.CustomType
	}

	status := d.Status
	if status == "" {
		status = models.StatusAvailable
	}

	hours := d.OperatingHours
	if hours == "" {
		hours = models.DefaultOperatingHours
	}

	amenities := d.Amenities
	if amenities == nil {
		amenities = []string{}
	}

	return models.Station{
		Name:           d.Name,
		Type:           chargerType,
		Contact:        d.Contact,
		Status:         status,
		OperatingHours: hours,
		Amenities:      amenities,
		Lat:            d.Lat,
		Lon:            d.Lon,
		Price:          d.Price,
		Rating:         0,
		Reviews:        0,
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// wrapUpstream tags a collaborator failure with its sentinel, adding
// ErrUpstreamTimeout when the failure was a deadline.
func wrapUpstream(sentinel error, msg string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w: %s: %w", ErrUpstreamTimeout, sentinel, msg, err)
	}
	return fmt.Errorf("%w: %s: %w", sentinel, msg, err)
}
