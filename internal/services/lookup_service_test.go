package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"ecotrack/internal/geocoding"
	"ecotrack/internal/models"
	"ecotrack/internal/verification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingVerifier holds the first call until its context is cancelled
type blockingVerifier struct {
	started chan struct{}
	calls   int
}

func (b *blockingVerifier) Enabled() bool { return true }

func (b *blockingVerifier) Verify(ctx context.Context, _ string, _ models.ActivityType) (*verification.Result, error) {
	b.calls++
	if b.calls == 1 {
		close(b.started)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return &verification.Result{Match: true, Confidence: 0.9, Reason: "trees visible"}, nil
}

func TestVerifySupersedesOlderCall(t *testing.T) {
	verifier := &blockingVerifier{started: make(chan struct{})}
	env := newTestEnv(t, func(d *Dependencies) { d.Verifier = verifier })
	req := &VerifyImageRequest{ImageBase64: "aGVsbG8=", ActivityType: models.ActivityTreePlantation}

	firstErr := make(chan error, 1)
	go func() {
		_, err := env.sc.VerificationService.Verify(context.Background(), "user-1", req)
		firstErr <- err
	}()
	<-verifier.started

	result, err := env.sc.VerificationService.Verify(context.Background(), "user-1", req)
	require.NoError(t, err)
	assert.True(t, result.Match)

	select {
	case err := <-firstErr:
		requireCode(t, err, http.StatusConflict, CodeSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("first call was not cancelled")
	}
}

func TestVerifyErrorMapping(t *testing.T) {
	req := &VerifyImageRequest{ImageBase64: "aGVsbG8=", ActivityType: models.ActivityCleanup}

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"rate limited", verification.ErrRateLimited, http.StatusTooManyRequests, "Rate limit exceeded. Please try again in a moment."},
		{"quota", verification.ErrQuotaExhausted, http.StatusPaymentRequired, "AI credits exhausted. Please try again later."},
		{"upstream", errors.New("boom"), http.StatusInternalServerError, "Image verification failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, func(d *Dependencies) { d.Verifier = &stubVerifier{err: tt.err} })
			_, err := env.sc.VerificationService.Verify(context.Background(), "k", req)
			requireCode(t, err, tt.status, "")
			assert.Equal(t, tt.message, GetServiceError(err).Message)
		})
	}
}

func TestVerifyRequiresFields(t *testing.T) {
	env := newTestEnv(t, func(d *Dependencies) { d.Verifier = &stubVerifier{} })

	_, err := env.sc.VerificationService.Verify(context.Background(), "k", &VerifyImageRequest{ActivityType: models.ActivityCleanup})
	requireCode(t, err, http.StatusBadRequest, "")
}

type stubGeocoder struct {
	places []geocoding.Place
	err    error
	limit  int
}

func (s *stubGeocoder) Search(_ context.Context, _ string, limit int) ([]geocoding.Place, error) {
	s.limit = limit
	return s.places, s.err
}

func (s *stubGeocoder) Reverse(context.Context, float64, float64) (*geocoding.Address, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &geocoding.Address{DisplayName: "Juhu Beach, Mumbai"}, nil
}

func TestGeocodeSearch(t *testing.T) {
	geocoder := &stubGeocoder{places: []geocoding.Place{{DisplayName: "Pune", Lat: 18.52, Lon: 73.85}}}
	env := newTestEnv(t, func(d *Dependencies) { d.Geocoder = geocoder })

	places, err := env.sc.GeocodingService.Search(context.Background(), "ip", "pune", 50)
	require.NoError(t, err)
	assert.Len(t, places, 1)
	assert.Equal(t, 10, geocoder.limit)

	_, err = env.sc.GeocodingService.Search(context.Background(), "ip", "  ", 5)
	requireCode(t, err, http.StatusBadRequest, "")
}

func TestGeocodeFailuresAreTransient(t *testing.T) {
	env := newTestEnv(t, func(d *Dependencies) { d.Geocoder = &stubGeocoder{err: geocoding.ErrUnavailable} })

	_, err := env.sc.GeocodingService.Search(context.Background(), "ip", "pune", 5)
	requireCode(t, err, http.StatusServiceUnavailable, "")

	_, err = env.sc.GeocodingService.Reverse(context.Background(), 18.5, 73.8)
	requireCode(t, err, http.StatusServiceUnavailable, "")
}
