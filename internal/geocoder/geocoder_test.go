package geocoder

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/chargemap/internal/models"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestNominatimClient_Found(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Karachi, Pakistan", r.URL.Query().Get("q"))
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "ev_charger_finder", r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"24.8607","lon":"67.0011","display_name":"Karachi, Sindh, Pakistan"}]`))
	})

	client := NewNominatimClient(srv.URL, "ev_charger_finder", 2*time.Second)
	loc, err := client.Geocode(context.Background(), "Karachi, Pakistan")

	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.Equal(t, models.Coordinate{Lat: 24.8607, Lon: 67.0011}, loc.Coordinate)
	assert.Equal(t, "Karachi, Sindh, Pakistan", loc.DisplayName)
	assert.Equal(t, ProviderNominatim, loc.Provider)
}

func TestNominatimClient_NotFound(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	loc, err := NewNominatimClient(srv.URL, "test", time.Second).Geocode(context.Background(), "Atlantis")

	assert.NoError(t, err, "no match is a normal outcome")
	assert.Nil(t, loc)
}

func TestNominatimClient_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "boom", wantErr: "status 500"},
		{name: "rate limited", status: http.StatusTooManyRequests, body: "slow down", wantErr: "status 429"},
		{name: "bad json", status: http.StatusOK, body: `{"lat":`, wantErr: "decode"},
		{name: "bad latitude", status: http.StatusOK, body: `[{"lat":"north","lon":"1"}]`, wantErr: "invalid latitude"},
		{name: "bad longitude", status: http.StatusOK, body: `[{"lat":"1","lon":""}]`, wantErr: "invalid longitude"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			loc, err := NewNominatimClient(srv.URL, "test", time.Second).Geocode(context.Background(), "x")

			require.Error(t, err)
			assert.Nil(t, loc)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNominatimClient_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewNominatimClient(srv.URL, "test", 5*time.Second).Geocode(ctx, "slow")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// MockGeocoder is a mock implementation of Geocoder for testing
type MockGeocoder struct {
	mock.Mock
}

func (m *MockGeocoder) Geocode(ctx context.Context, query string) (*Location, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	loc, ok := args.Get(0).(*Location)
	if !ok {
		return nil, args.Error(1)
	}
	return loc, args.Error(1)
}

func TestCachingGeocoder_HitAvoidsUpstream(t *testing.T) {
	upstream := new(MockGeocoder)
	ctx := context.Background()
	want := &Location{Coordinate: models.Coordinate{Lat: 24.86, Lon: 67.0}, Provider: "mock"}
	upstream.On("Geocode", ctx, "Karachi").Return(want, nil).Once()

	cached := NewCachingGeocoder(upstream, 10, time.Hour)

	first, err := cached.Geocode(ctx, "Karachi")
	require.NoError(t, err)
	second, err := cached.Geocode(ctx, "  karachi ")
	require.NoError(t, err)

	assert.Equal(t, want, first)
	assert.Equal(t, want, second)
	assert.Equal(t, 1, cached.Len())
	upstream.AssertNumberOfCalls(t, "Geocode", 1)
}

func TestCachingGeocoder_CachesMisses(t *testing.T) {
	upstream := new(MockGeocoder)
	ctx := context.Background()
	upstream.On("Geocode", ctx, "Atlantis").Return(nil, nil).Once()

	cached := NewCachingGeocoder(upstream, 10, 0)

	for i := 0; i < 3; i++ {
		loc, err := cached.Geocode(ctx, "Atlantis")
		require.NoError(t, err)
		assert.Nil(t, loc)
	}
	upstream.AssertNumberOfCalls(t, "Geocode", 1)
}

func TestCachingGeocoder_DoesNotCacheErrors(t *testing.T) {
	upstream := new(MockGeocoder)
	ctx := context.Background()
	upstream.On("Geocode", ctx, "Lahore").Return(nil, errors.New("upstream down")).Twice()

	cached := NewCachingGeocoder(upstream, 10, time.Hour)

	_, err := cached.Geocode(ctx, "Lahore")
	assert.Error(t, err)
	_, err = cached.Geocode(ctx, "Lahore")
	assert.Error(t, err)

	assert.Equal(t, 0, cached.Len())
	upstream.AssertExpectations(t)
}

func TestCachingGeocoder_ReturnsCopies(t *testing.T) {
	upstream := new(MockGeocoder)
	ctx := context.Background()
	upstream.On("Geocode", ctx, "Quetta").
		Return(&Location{Coordinate: models.Coordinate{Lat: 30.18, Lon: 66.97}}, nil).Once()

	cached := NewCachingGeocoder(upstream, 10, time.Hour)

	first, err := cached.Geocode(ctx, "Quetta")
	require.NoError(t, err)
	first.Coordinate.Lat = 0

	second, err := cached.Geocode(ctx, "Quetta")
	require.NoError(t, err)
	assert.Equal(t, 30.18, second.Coordinate.Lat)
}

func TestCachingGeocoder_OverNominatim(t *testing.T) {
	var hits int32
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(`[{"lat":"31.5204","lon":"74.3587","display_name":"Lahore"}]`))
	})

	cached := NewCachingGeocoder(NewNominatimClient(srv.URL, "test", time.Second), 5, time.Minute)
	for i := 0; i < 3; i++ {
		loc, err := cached.Geocode(context.Background(), "Lahore")
		require.NoError(t, err)
		require.NotNil(t, loc)
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "new york, ny", normalizeQuery("  New   York,  NY "))
	assert.Equal(t, "", normalizeQuery("   "))
}
