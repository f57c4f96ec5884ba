package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/chargemap/internal/config"
	"github.com/stwalsh4118/chargemap/internal/geocoder"
	"github.com/stwalsh4118/chargemap/internal/logger"
	"github.com/stwalsh4118/chargemap/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig(geocoderURL string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Env:            "test",
			RequestTimeout: 5 * time.Second,
		},
		Store: config.StoreConfig{
			Driver:  config.StoreDriverMemory,
			Timeout: time.Second,
		},
		CORS: config.CORSConfig{
			Origins: []string{"http://localhost:3000"},
		},
		Geocoder: config.GeocoderConfig{
			URL:       geocoderURL,
			UserAgent: "ev_charger_finder",
			Timeout:   time.Second,
			CacheSize: 16,
			CacheTTL:  time.Minute,
		},
		Search: config.SearchConfig{
			DefaultRadiusKm: 10,
		},
	}
}

// setupServer wires the full application against the memory store and a fake Nominatim.
func setupServer(t *testing.T) (*gin.Engine, *int32) {
	t.Helper()

	var geocodeHits int32
	nominatim := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&geocodeHits, 1)
		if strings.Contains(r.URL.Query().Get("q"), "Atlantis") {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		_, _ = w.Write([]byte(`[{"lat":"24.8607","lon":"67.0011","display_name":"Karachi"}]`))
	}))
	t.Cleanup(nominatim.Close)

	cfg := testConfig(nominatim.URL)
	log := logger.Nop()

	store, closeStore, err := openStore(context.Background(), cfg, log)
	require.NoError(t, err)
	t.Cleanup(closeStore)

	service := services.NewStationService(store, newGeocoder(cfg.Geocoder, log), services.Timeouts{
		Store:   cfg.Store.Timeout,
		Geocode: cfg.Geocoder.Timeout,
	}, log)

	return newRouter(cfg, log, store, service), &geocodeHits
}

func do(router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_AddThenSearch(t *testing.T) {
	router, geocodeHits := setupServer(t)

	w := do(router, http.MethodPost, "/api/v1/stations",
		`{"name":"Saddar Fast Charge","lat":24.8600,"lon":67.0100,"type":"DC Fast","amenities":["Food"]}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(router, http.MethodPost, "/api/v1/stations",
		`{"name":"Lahore Mall","lat":31.52,"lon":74.35}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	for i := 0; i < 2; i++ {
		w = do(router, http.MethodGet, "/api/v1/stations/nearby?q=Karachi&radius=5", "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var body struct {
			Count    int `json:"count"`
			Stations []struct {
				Name       string  `json:"name"`
				DistanceKm float64 `json:"distance_km"`
			} `json:"stations"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Equal(t, 1, body.Count)
		assert.Equal(t, "Saddar Fast Charge", body.Stations[0].Name)
		assert.Less(t, body.Stations[0].DistanceKm, 1.0)
	}

	// Second search is answered from the geocode cache
	assert.Equal(t, int32(1), atomic.LoadInt32(geocodeHits))
}

func TestRouter_LocationNotFound(t *testing.T) {
	router, _ := setupServer(t)

	w := do(router, http.MethodGet, "/api/v1/stations/nearby?q=Atlantis", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "LOCATION_NOT_FOUND")
}

func TestRouter_HealthAndInfo(t *testing.T) {
	router, _ := setupServer(t)

	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/health/ready", "").Code)

	w := do(router, http.MethodGet, "/api/v1/info", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"store":"memory"`)
}

func TestRouter_UnknownRoute(t *testing.T) {
	router, _ := setupServer(t)

	w := do(router, http.MethodGet, "/api/v1/chargers", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_FOUND")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	cfg := testConfig("http://localhost")
	cfg.Store.Driver = "sheets"

	_, _, err := openStore(context.Background(), cfg, logger.Nop())

	assert.Error(t, err)
}

func TestNewGeocoder_CacheToggle(t *testing.T) {
	cfg := testConfig("http://localhost").Geocoder

	_, cached := newGeocoder(cfg, logger.Nop()).(*geocoder.CachingGeocoder)
	assert.True(t, cached)

	cfg.CacheSize = 0
	_, plain := newGeocoder(cfg, logger.Nop()).(*geocoder.NominatimClient)
	assert.True(t, plain)
}
