// file: internal/middleware/recovery.go
package middleware

import (
	"fmt"
	"net/http"
	"runtime"
	"strings"

	"ecotrack/internal/response"
	"ecotrack/internal/services"

	"go.uber.org/zap"
)

const maxPanicFrames = 20

// StackFrame is one frame of a recovered panic
type StackFrame struct {
	Function string `json:"function"`
	File     string `json:"file"`
	Line     int    `json:"line"`
}

// Recovery turns handler panics into a masked 500 envelope
func Recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				requestLogger := logger
				if scoped, ok := r.Context().Value(LoggerKey).(*zap.Logger); ok {
					requestLogger = scoped
				}
				requestLogger.Error("Panic recovered",
					zap.String("panic", fmt.Sprint(rec)),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Any("stack", captureStackTrace(maxPanicFrames)),
				)

				response.QuickError(w, r, services.NewInternalError("An internal error occurred"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// captureStackTrace skips runtime frames and the recovery closure
func captureStackTrace(maxFrames int) []StackFrame {
	pcs := make([]uintptr, maxFrames)
	n := runtime.Callers(4, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var stack []StackFrame
	for {
		frame, more := frames.Next()
		if !strings.HasPrefix(frame.Function, "runtime.") {
			stack = append(stack, StackFrame{Function: frame.Function, File: frame.File, Line: frame.Line})
		}
		if !more {
			break
		}
	}
	return stack
}
