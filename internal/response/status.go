package response

import (
	"net/http"
	"strconv"
	"time"

	"ecotrack/internal/database"
	"ecotrack/internal/services"
)

// WriteUnauthorized writes a 401 envelope
func (b *Builder) WriteUnauthorized(w http.ResponseWriter, r *http.Request, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="ecotrack"`)
	b.WriteError(w, r, services.NewUnauthorizedError(message))
}

// WriteForbidden writes a 403 envelope
func (b *Builder) WriteForbidden(w http.ResponseWriter, r *http.Request, message string) {
	b.WriteError(w, r, services.NewForbiddenError(message))
}

// WriteNotFound writes a 404 envelope
func (b *Builder) WriteNotFound(w http.ResponseWriter, r *http.Request, message string) {
	b.WriteError(w, r, services.NewNotFoundError(message))
}

// WriteMethodNotAllowed writes a 405 envelope
func (b *Builder) WriteMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	b.WriteJSON(w, r, b.Error(r.Context(), &services.ServiceError{
		Type:       "METHOD_NOT_ALLOWED",
		Message:    "Method not allowed",
		StatusCode: http.StatusMethodNotAllowed,
	}), http.StatusMethodNotAllowed)
}

// WriteTooManyRequests writes a 429 envelope with Retry-After
func (b *Builder) WriteTooManyRequests(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	seconds := int(retryAfter.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	b.WriteError(w, r, services.NewRateLimitError("Rate limit exceeded. Please try again in a moment.",
		map[string]interface{}{"retry_after_seconds": seconds}))
}

// WriteHealthCheck writes the health report, 503 when storage is down.
// body defaults to health and may embed it with extra fields.
func (b *Builder) WriteHealthCheck(w http.ResponseWriter, r *http.Request, health *services.ServiceHealth, body interface{}) {
	code := http.StatusOK
	if health.Status == database.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	if body == nil {
		body = health
	}
	b.WriteJSON(w, r, b.Success(r.Context(), body), code)
}

// QuickTooManyRequests writes a 429 with the request's builder
func QuickTooManyRequests(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	builderFor(r).WriteTooManyRequests(w, r, retryAfter)
}
