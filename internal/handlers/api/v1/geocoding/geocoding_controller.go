package geocoding

import (
	"net/http"

	"ecotrack/internal/geocoding"
	"ecotrack/internal/handlers/api/v1/base"
	"ecotrack/internal/handlers/api/v1/functions"
	"ecotrack/internal/response"
	"ecotrack/internal/services"

	"go.uber.org/zap"
)

const defaultSearchLimit = 5

// GeocodingController exposes place search and reverse lookups
type GeocodingController struct {
	base.Controller
	geocoding services.GeocodingService
}

// NewGeocodingController creates the controller
func NewGeocodingController(serviceCollection *services.ServiceCollection, logger *zap.Logger, responseBuilder *response.Builder) *GeocodingController {
	return &GeocodingController{
		Controller: base.New(serviceCollection, logger, responseBuilder),
		geocoding:  serviceCollection.GeocodingService,
	}
}

// Search godoc
// @Summary Search places by name
// @Tags Geocoding
// @Produce json
// @Param q query string true "Free-form query"
// @Param limit query int false "At most 10"
// @Success 200 {object} response.APIResponse{data=[]geocoding.Place}
// @Failure 400 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse "Superseded by a newer search"
// @Failure 503 {object} response.APIResponse
// @Router /geocode/search [get]
func (c *GeocodingController) Search(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	limit, err := response.IntQuery(r, "limit", defaultSearchLimit)
	if err != nil {
		c.Fail(w, r, err, "geocode_search")
		return
	}

	places, err := c.geocoding.Search(ctx, functions.CallerKey(r), r.URL.Query().Get("q"), limit)
	if err != nil {
		c.Fail(w, r, err, "geocode_search")
		return
	}
	c.ResponseBuilder.WriteSuccess(w, r, places)
}

// Reverse resolves coordinates to a display name. Lookup failures answer
// with an empty name so callers can keep the raw coordinates.
func (c *GeocodingController) Reverse(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	lat, err := response.FloatQuery(r, "lat")
	if err != nil {
		c.Fail(w, r, err, "geocode_reverse")
		return
	}
	lon, err := response.FloatQuery(r, "lon")
	if err != nil {
		c.Fail(w, r, err, "geocode_reverse")
		return
	}

	addr, err := c.geocoding.Reverse(ctx, lat, lon)
	if err != nil {
		if services.IsValidationError(err) {
			c.Fail(w, r, err, "geocode_reverse")
			return
		}
		addr = &geocoding.Address{}
	}
	c.ResponseBuilder.WriteSuccess(w, r, addr)
}
