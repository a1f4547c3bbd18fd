package services

import (
	"context"
	"errors"
	"strings"

	"ecotrack/internal/geocoding"
	"ecotrack/internal/supersede"
	"ecotrack/internal/verification"

	"go.uber.org/zap"
)

const maxGeocodeResults = 10

// superseded reports a lookup replaced by a newer one for the same key
func superseded() *ServiceError {
	return NewConflictError("Superseded by a newer request", CodeSuperseded)
}

// ===============================
// IMAGE VERIFICATION
// ===============================

type verificationService struct {
	baseService
	verifier ImageVerifier
	inflight *supersede.Group
}

// NewVerificationService creates the image verification function
func NewVerificationService(deps *Dependencies) VerificationService {
	return &verificationService{
		baseService: newBaseService(deps, "verification"),
		verifier:    deps.Verifier,
		inflight:    supersede.NewGroup(),
	}
}

func (s *verificationService) Verify(ctx context.Context, key string, req *VerifyImageRequest) (*verification.Result, error) {
	if strings.TrimSpace(req.ImageBase64) == "" || req.ActivityType == "" {
		return nil, NewValidationError("Missing imageBase64 or activityType", nil)
	}
	if !req.ActivityType.Valid() {
		return nil, InvalidInputError("activityType", "unknown activity type")
	}
	if s.verifier == nil || !s.verifier.Enabled() {
		return nil, wrapInternal("Image verification is not configured", verification.ErrNotConfigured)
	}

	ctx, token, done := s.inflight.Begin(ctx, "verify:"+key)
	defer done()

	result, err := s.verifier.Verify(ctx, req.ImageBase64, req.ActivityType)
	if !s.inflight.Current(token) {
		return nil, superseded()
	}
	if err != nil {
		switch {
		case errors.Is(err, verification.ErrRateLimited):
			return nil, NewRateLimitError("Rate limit exceeded. Please try again in a moment.", nil)
		case errors.Is(err, verification.ErrQuotaExhausted):
			return nil, NewPaymentRequiredError("AI credits exhausted. Please try again later.")
		}
		s.logger.Error("Image verification failed", zap.String("key", key), zap.Error(err))
		return nil, wrapInternal("Image verification failed", err)
	}
	return result, nil
}

// ===============================
// GEOCODING
// ===============================

type geocodingService struct {
	baseService
	geocoder Geocoder
	inflight *supersede.Group
}

// NewGeocodingService creates the place lookup service
func NewGeocodingService(deps *Dependencies) GeocodingService {
	return &geocodingService{
		baseService: newBaseService(deps, "geocoding"),
		geocoder:    deps.Geocoder,
		inflight:    supersede.NewGroup(),
	}
}

func (s *geocodingService) Search(ctx context.Context, key, query string, limit int) ([]geocoding.Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, InvalidInputError("q", "is required")
	}
	if limit <= 0 || limit > maxGeocodeResults {
		limit = maxGeocodeResults
	}
	if s.geocoder == nil {
		return nil, NewServiceUnavailableError("Location search is unavailable")
	}

	ctx, token, done := s.inflight.Begin(ctx, "geocode:"+key)
	defer done()

	places, err := s.geocoder.Search(ctx, query, limit)
	if !s.inflight.Current(token) {
		return nil, superseded()
	}
	if err != nil {
		s.logger.Warn("Geocode search failed", zap.String("query", query), zap.Error(err))
		return nil, NewServiceUnavailableError("Location search is temporarily unavailable")
	}
	return places, nil
}

func (s *geocodingService) Reverse(ctx context.Context, lat, lon float64) (*geocoding.Address, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, NewValidationError("lat and lon are out of range", nil)
	}
	if s.geocoder == nil {
		return nil, NewServiceUnavailableError("Reverse geocoding is unavailable")
	}

	addr, err := s.geocoder.Reverse(ctx, lat, lon)
	if err != nil {
		s.logger.Warn("Reverse geocode failed", zap.Float64("lat", lat), zap.Float64("lon", lon), zap.Error(err))
		return nil, NewServiceUnavailableError("Reverse geocoding is temporarily unavailable")
	}
	return addr, nil
}
