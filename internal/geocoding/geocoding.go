// Package geocoding resolves place names and coordinates through a
// Nominatim-compatible service.
package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ecotrack/internal/cache"
	"ecotrack/internal/config"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const maxSearchResults = 10

// ErrUnavailable wraps every failure to reach or understand the geocoder
var ErrUnavailable = errors.New("geocoder unavailable")

// Place is one search hit
type Place struct {
	DisplayName string  `json:"display_name"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

// Address is a reverse lookup result
type Address struct {
	DisplayName string `json:"display_name"`
}

// Client talks to Nominatim with retries and a result cache
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	cache      cache.Cache
	cacheTTL   time.Duration
	maxRetries uint64
	logger     *zap.Logger
}

// NewClient creates a geocoding client. c may be nil to disable caching.
func NewClient(cfg config.GeocodingConfig, c cache.Cache, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		cache:      c,
		cacheTTL:   ttl,
		maxRetries: 2,
		logger:     logger,
	}
}

type nominatimPlace struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// Search looks up places matching q, at most limit (capped at 10)
func (c *Client) Search(ctx context.Context, q string, limit int) ([]Place, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []Place{}, nil
	}
	if limit <= 0 || limit > maxSearchResults {
		limit = maxSearchResults
	}

	key := fmt.Sprintf("geocode:search:%d:%s", limit, strings.ToLower(q))
	var cached []Place
	if c.cache != nil && cache.GetJSON(ctx, c.cache, key, &cached) {
		return cached, nil
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("q", q)
	params.Set("limit", strconv.Itoa(limit))

	var raw []nominatimPlace
	if err := c.get(ctx, "/search", params, &raw); err != nil {
		return nil, err
	}

	places := make([]Place, 0, len(raw))
	for _, p := range raw {
		lat, latErr := strconv.ParseFloat(p.Lat, 64)
		lon, lonErr := strconv.ParseFloat(p.Lon, 64)
		if latErr != nil || lonErr != nil {
			c.logger.Debug("Skipping place with unparseable coordinates",
				zap.String("display_name", p.DisplayName))
			continue
		}
		places = append(places, Place{DisplayName: p.DisplayName, Lat: lat, Lon: lon})
	}

	c.store(ctx, key, places)
	return places, nil
}

// Reverse returns the display name for a coordinate
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (*Address, error) {
	latText := strconv.FormatFloat(lat, 'f', 6, 64)
	lonText := strconv.FormatFloat(lon, 'f', 6, 64)

	key := fmt.Sprintf("geocode:reverse:%s:%s", latText, lonText)
	var cached Address
	if c.cache != nil && cache.GetJSON(ctx, c.cache, key, &cached) {
		return &cached, nil
	}

	params := url.Values{}
	params.Set("lat", latText)
	params.Set("lon", lonText)
	params.Set("format", "json")
	params.Set("addressdetails", "1")

	var address Address
	if err := c.get(ctx, "/reverse", params, &address); err != nil {
		return nil, err
	}

	c.store(ctx, key, address)
	return &address, nil
}

func (c *Client) store(ctx context.Context, key string, value interface{}) {
	if c.cache == nil {
		return
	}
	if err := cache.SetJSON(ctx, c.cache, key, value, c.cacheTTL); err != nil {
		c.logger.Warn("Failed to cache geocoding result", zap.String("key", key), zap.Error(err))
	}
}

// get retries transport errors and 5xx responses; 4xx is permanent
func (c *Client) get(ctx context.Context, path string, params url.Values, dest interface{}) error {
	endpoint := c.baseURL + path + "?" + params.Encode()

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept-Language", "en")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("geocoder returned status %d", resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("geocoder returned status %d", resp.StatusCode))
		}
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode geocoder response: %w", err))
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxElapsedTime = 5 * time.Second

	err := backoff.RetryNotify(operation,
		backoff.WithContext(backoff.WithMaxRetries(b, c.maxRetries), ctx),
		func(err error, wait time.Duration) {
			c.logger.Warn("Geocoder request failed, retrying",
				zap.String("path", path),
				zap.Error(err),
				zap.Duration("retry_in", wait))
		})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
