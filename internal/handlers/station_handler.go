package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/stwalsh4118/chargemap/internal/errors"
	"github.com/stwalsh4118/chargemap/internal/middleware"
	"github.com/stwalsh4118/chargemap/internal/models"
	"github.com/stwalsh4118/chargemap/internal/proximity"
	"github.com/stwalsh4118/chargemap/internal/services"
)

// Client-facing messages for upstream failures.
const (
	msgLocationNotFound    = "Location not found. Please try a different search query."
	msgStoreUnavailable    = "Station data is temporarily unavailable"
	msgGeocoderUnavailable = "Error searching for locations"
	msgUpstreamTimeout     = "An upstream service did not respond in time"
)

// StationHandler handles station-related HTTP requests.
type StationHandler struct {
	service         services.StationService
	defaultRadiusKm int
}

// NewStationHandler creates a new StationHandler instance.
// defaultRadiusKm is used by Nearby when the request names no radius.
func NewStationHandler(service services.StationService, defaultRadiusKm int) *StationHandler {
	return &StationHandler{
		service:         service,
		defaultRadiusKm: defaultRadiusKm,
	}
}

// NearbyRequest represents the query parameters for the nearby endpoint.
// Either q or both lat and lon must be given; coordinates win over q.
type NearbyRequest struct {
	Query  string   `form:"q" binding:"max=200"`
	Lat    *float64 `form:"lat" binding:"omitempty,min=-90,max=90"`
	Lon    *float64 `form:"lon" binding:"omitempty,min=-180,max=180"`
	Radius int      `form:"radius" binding:"omitempty,min=1,max=100"`
}

// StationListResponse represents the response for the station list endpoint.
// Center is the mean station position, null when there are no stations.
type StationListResponse struct {
	Stations []models.Station   `json:"stations"`
	Count    int                `json:"count"`
	Center   *models.Coordinate `json:"center"`
}

// StationResponse represents the response for the add-station endpoint.
type StationResponse struct {
	Station *models.Station `json:"station"`
}

// ReferenceData describes the point a nearby search was centred on.
type ReferenceData struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Query    string  `json:"query,omitempty"`
	Location string  `json:"location,omitempty"`
}

// NearbyResponse represents the response for the nearby endpoint.
type NearbyResponse struct {
	Reference ReferenceData         `json:"reference"`
	RadiusKm  int                   `json:"radius_km"`
	Stations  []models.SearchResult `json:"stations"`
	Count     int                   `json:"count"`
}

// List handles GET /api/v1/stations endpoint.
// It returns the canonical station table.
func (h *StationHandler) List(c *gin.Context) {
	stations, err := h.service.ListStations(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response := StationListResponse{
		Stations: stations,
		Count:    len(stations),
	}
	if center, ok := proximity.Centroid(stations); ok {
		response.Center = &center
	}

	c.JSON(http.StatusOK, response)
}

// GeoJSON handles GET /api/v1/stations/geojson endpoint.
// It returns every station as a point feature for map layers.
func (h *StationHandler) GeoJSON(c *gin.Context) {
	stations, err := h.service.ListStations(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NewStationFeatureCollection(stations))
}

// Add handles POST /api/v1/stations endpoint.
// It validates the submitted station and appends it to the store.
func (h *StationHandler) Add(c *gin.Context) {
	var draft models.StationDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		apierrors.BadRequest(c, "Invalid request body", nil)
		return
	}

	station, err := h.service.AddStation(c.Request.Context(), draft)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, StationResponse{Station: station})
}

// Nearby handles GET /api/v1/stations/nearby endpoint.
// It finds stations within a radius of a place name or coordinate pair.
func (h *StationHandler) Nearby(c *gin.Context) {
	log := middleware.GetLogger(c)

	// Bind and validate query parameters
	var req NearbyRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return
	}

	if (req.Lat == nil) != (req.Lon == nil) {
		apierrors.BadRequest(c, "lat and lon must be given together", nil)
		return
	}

	if req.Radius == 0 {
		req.Radius = h.defaultRadiusKm
	}

	query := models.SearchQuery{
		Query:    req.Query,
		RadiusKm: req.Radius,
	}
	if req.Lat != nil {
		query.Reference = &models.Coordinate{Lat: *req.Lat, Lon: *req.Lon}
	}

	if log != nil {
		log.Info("Processing nearby request", map[string]interface{}{
			"q":      req.Query,
			"coords": query.Reference != nil,
			"radius": req.Radius,
		})
	}

	result, err := h.service.FindNearby(c.Request.Context(), query)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, NearbyResponse{
		Reference: ReferenceData{
			Lat:      result.Reference.Lat,
			Lon:      result.Reference.Lon,
			Query:    result.Query,
			Location: result.Location,
		},
		RadiusKm: result.RadiusKm,
		Stations: result.Results,
		Count:    len(result.Results),
	})
}

// respondServiceError maps service errors onto API error responses.
// Timeouts are checked first since they also carry the failing collaborator's error.
func respondServiceError(c *gin.Context, err error) {
	var validationErr *services.ValidationError

	switch {
	case errors.As(err, &validationErr):
		apierrors.ValidationError(c, validationErr.Fields)
	case errors.Is(err, services.ErrInvalidCoordinates),
		errors.Is(err, services.ErrInvalidRadius),
		errors.Is(err, services.ErrMissingLocation):
		apierrors.BadRequest(c, err.Error(), nil)
	case errors.Is(err, services.ErrLocationNotFound):
		apierrors.LocationNotFound(c, msgLocationNotFound)
	case errors.Is(err, services.ErrUpstreamTimeout):
		apierrors.UpstreamTimeout(c, msgUpstreamTimeout, err)
	case errors.Is(err, services.ErrGeocoderUnavailable):
		apierrors.GeocoderUnavailable(c, msgGeocoderUnavailable, err)
	case errors.Is(err, services.ErrStoreUnavailable):
		apierrors.StoreUnavailable(c, msgStoreUnavailable, err)
	default:
		apierrors.InternalServerError(c, "An unexpected error occurred", err)
	}
}
