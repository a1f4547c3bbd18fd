package response

import (
	"net/http"
	"net/url"
	"strconv"

	"ecotrack/internal/models"
	"ecotrack/internal/services"
)

// PaginationConfig holds the query parameter names and bounds
type PaginationConfig struct {
	DefaultPageSize int
	MaxPageSize     int
	PageParam       string
	SizeParam       string
}

// DefaultPaginationConfig returns the admin listing defaults
func DefaultPaginationConfig() *PaginationConfig {
	return &PaginationConfig{
		DefaultPageSize: 20,
		MaxPageSize:     100,
		PageParam:       "page",
		SizeParam:       "page_size",
	}
}

// PaginationParser reads page/page_size query parameters
type PaginationParser struct {
	config *PaginationConfig
}

// NewPaginationParser creates a parser; nil config uses the defaults
func NewPaginationParser(config *PaginationConfig) *PaginationParser {
	if config == nil {
		config = DefaultPaginationConfig()
	}
	return &PaginationParser{config: config}
}

// ParseFromQuery converts page numbers into limit/offset parameters
func (p *PaginationParser) ParseFromQuery(query url.Values) (models.PaginationParams, error) {
	page := 1
	size := p.config.DefaultPageSize

	if raw := query.Get(p.config.PageParam); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return models.PaginationParams{}, services.InvalidInputError(p.config.PageParam, "must be a positive integer")
		}
		page = n
	}
	if raw := query.Get(p.config.SizeParam); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > p.config.MaxPageSize {
			return models.PaginationParams{}, services.InvalidInputError(p.config.SizeParam, "must be between 1 and "+strconv.Itoa(p.config.MaxPageSize))
		}
		size = n
	}

	return models.PaginationParams{Limit: size, Offset: (page - 1) * size}, nil
}

// ParseFromRequest parses pagination parameters from the request URL
func (p *PaginationParser) ParseFromRequest(r *http.Request) (models.PaginationParams, error) {
	return p.ParseFromQuery(r.URL.Query())
}

// WritePage writes a repository page using the envelope's pagination meta
func WritePage[T any](b *Builder, w http.ResponseWriter, r *http.Request, page *models.PaginatedResponse[T]) {
	b.WritePaginated(w, r, page.Data,
		page.Pagination.CurrentPage,
		page.Pagination.ItemsPerPage,
		page.Pagination.TotalItems)
}

// IntQuery reads an optional integer query parameter
func IntQuery(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, services.InvalidInputError(name, "must be an integer")
	}
	return n, nil
}

// FloatQuery reads a required float query parameter
func FloatQuery(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, services.InvalidInputError(name, "is required")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, services.InvalidInputError(name, "must be a number")
	}
	return f, nil
}
