package errors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stwalsh4118/chargemap/internal/middleware"
)

// Error code constants for standardized error responses
const (
	ErrNotFound            = "NOT_FOUND"
	ErrBadRequest          = "BAD_REQUEST"
	ErrInternalServer      = "INTERNAL_SERVER_ERROR"
	ErrValidation          = "VALIDATION_ERROR"
	ErrLocationNotFound    = "LOCATION_NOT_FOUND"
	ErrStoreUnavailable    = "STORE_UNAVAILABLE"
	ErrGeocoderUnavailable = "GEOCODER_UNAVAILABLE"
	ErrUpstreamTimeout     = "UPSTREAM_TIMEOUT"
)

// ErrorResponse is the top-level error response structure.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error information.
type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// NotFound returns a 404 Not Found error response.
// It logs a warning and sends a JSON response with the error details.
func NotFound(c *gin.Context, message string) {
	warn(c, "Resource not found", message, nil)
	respond(c, http.StatusNotFound, ErrNotFound, message, nil)
}

// LocationNotFound returns a 404 response for a place name the geocoder could not resolve.
func LocationNotFound(c *gin.Context, message string) {
	warn(c, "Location not found", message, nil)
	respond(c, http.StatusNotFound, ErrLocationNotFound, message, nil)
}

// BadRequest returns a 400 Bad Request error response with optional details.
// It logs a warning and sends a JSON response with the error details.
func BadRequest(c *gin.Context, message string, details map[string]interface{}) {
	warn(c, "Bad request", message, details)
	respond(c, http.StatusBadRequest, ErrBadRequest, message, details)
}

// InternalServerError returns a 500 Internal Server Error response.
// It logs the error with full context and sends a generic error message to the client.
// The actual error details are not exposed to the client for security reasons.
func InternalServerError(c *gin.Context, message string, err error) {
	fail(c, "Internal server error", message, err)
	respond(c, http.StatusInternalServerError, ErrInternalServer, message, nil)
}

// StoreUnavailable returns a 503 response when the station store cannot be reached.
func StoreUnavailable(c *gin.Context, message string, err error) {
	fail(c, "Station store unavailable", message, err)
	respond(c, http.StatusServiceUnavailable, ErrStoreUnavailable, message, nil)
}

// GeocoderUnavailable returns a 502 response when the geocoding service fails.
func GeocoderUnavailable(c *gin.Context, message string, err error) {
	fail(c, "Geocoder unavailable", message, err)
	respond(c, http.StatusBadGateway, ErrGeocoderUnavailable, message, nil)
}

// UpstreamTimeout returns a 504 response when an external call ran out of time.
func UpstreamTimeout(c *gin.Context, message string, err error) {
	fail(c, "Upstream timeout", message, err)
	respond(c, http.StatusGatewayTimeout, ErrUpstreamTimeout, message, nil)
}

// ValidationError returns a 400 Bad Request error response with field-specific validation errors.
// It parses the validation errors from the validator library and formats them for the client.
func ValidationError(c *gin.Context, validationErrors validator.ValidationErrors) {
	// Convert validation errors to a map of field -> error message
	details := make(map[string]interface{})
	for _, err := range validationErrors {
		details[err.Field()] = formatValidationError(err)
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Warn("Validation error", map[string]interface{}{
			"request_id": middleware.GetRequestID(c),
			"path":       c.Request.URL.Path,
			"fields":     details,
		})
	}

	respond(c, http.StatusBadRequest, ErrValidation, "Validation failed for one or more fields", details)
}

func respond(c *gin.Context, status int, code, message string, details map[string]interface{}) {
	c.JSON(status, ErrorResponse{
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: middleware.GetRequestID(c),
		},
	})
}

func warn(c *gin.Context, event, message string, details map[string]interface{}) {
	log := middleware.GetLogger(c)
	if log == nil {
		return
	}

	fields := map[string]interface{}{
		"message":    message,
		"request_id": middleware.GetRequestID(c),
		"path":       c.Request.URL.Path,
	}
	if details != nil {
		fields["details"] = details
	}
	log.Warn(event, fields)
}

func fail(c *gin.Context, event, message string, err error) {
	log := middleware.GetLogger(c)
	if log == nil {
		return
	}

	log.Error(event, err, map[string]interface{}{
		"message":    message,
		"request_id": middleware.GetRequestID(c),
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
	})
}

// formatValidationError converts a validator.FieldError to a human-readable message.
func formatValidationError(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "required_if":
		return "This field is required when " + describeCondition(err.Param())
	case "email":
		return "Must be a valid email address"
	case "min":
		return "Value is too short or small (minimum: " + err.Param() + ")"
	case "max":
		return "Value is too long or large (maximum: " + err.Param() + ")"
	case "len":
		return "Must have length of " + err.Param()
	case "gt":
		return "Must be greater than " + err.Param()
	case "gte":
		return "Must be greater than or equal to " + err.Param()
	case "lt":
		return "Must be less than " + err.Param()
	case "lte":
		return "Must be less than or equal to " + err.Param()
	case "oneof":
		return "Must be one of: " + err.Param()
	case "url":
		return "Must be a valid URL"
	case "uuid":
		return "Must be a valid UUID"
	default:
		return "Validation failed for tag: " + err.Tag()
	}
}

// describeCondition renders a required_if param such as "Type Other".
func describeCondition(param string) string {
	parts := strings.Fields(param)
	if len(parts) == 0 || len(parts)%2 != 0 {
		return param
	}

	conditions := make([]string, 0, len(parts)/2)
	for i := 0; i < len(parts); i += 2 {
		conditions = append(conditions, strings.ToLower(parts[i])+" is "+parts[i+1])
	}
	return strings.Join(conditions, " and ")
}
