package geocoding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"ecotrack/internal/cache"
	"ecotrack/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := cache.NewMemoryCache(cache.DefaultConfig(), zap.NewNop())
	t.Cleanup(func() { _ = c.Close() })

	return NewClient(config.GeocodingConfig{
		BaseURL:   server.URL,
		UserAgent: "EcoTrack/test",
		Timeout:   2 * time.Second,
		CacheTTL:  time.Minute,
	}, c, zap.NewNop())
}

func TestSearchParsesCoordinatesAndCaches(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "Nairobi", r.URL.Query().Get("q"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, "EcoTrack/test", r.Header.Get("User-Agent"))
		assert.Equal(t, "en", r.Header.Get("Accept-Language"))
		_, _ = w.Write([]byte(`[{"display_name":"Nairobi, Kenya","lat":"-1.2833","lon":"36.8167"},{"display_name":"Bad","lat":"x","lon":"1"}]`))
	})

	places, err := client.Search(context.Background(), "Nairobi", 5)
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, Place{DisplayName: "Nairobi, Kenya", Lat: -1.2833, Lon: 36.8167}, places[0])

	again, err := client.Search(context.Background(), "nairobi", 5)
	require.NoError(t, err)
	assert.Equal(t, places, again)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSearchCapsLimitAndSkipsBlankQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`[]`))
	})

	places, err := client.Search(context.Background(), "   ", 3)
	require.NoError(t, err)
	assert.Empty(t, places)

	places, err = client.Search(context.Background(), "Mombasa", 50)
	require.NoError(t, err)
	assert.Empty(t, places)
}

func TestReverse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("addressdetails"))
		assert.Equal(t, "-1.283300", r.URL.Query().Get("lat"))
		_, _ = w.Write([]byte(`{"display_name":"Kenyatta Avenue, Nairobi","address":{"city":"Nairobi"}}`))
	})

	address, err := client.Reverse(context.Background(), -1.2833, 36.8167)
	require.NoError(t, err)
	assert.Equal(t, "Kenyatta Avenue, Nairobi", address.DisplayName)
}

func TestRetriesServerErrorsButNotClientErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"display_name":"Kisumu","lat":"-0.1","lon":"34.7"}]`))
	})

	places, err := client.Search(context.Background(), "Kisumu", 1)
	require.NoError(t, err)
	assert.Len(t, places, 1)
	assert.Equal(t, int32(2), calls.Load())

	var badCalls atomic.Int32
	bad := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		badCalls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	})
	_, err = bad.Search(context.Background(), "Kisumu", 1)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(1), badCalls.Load())
}
