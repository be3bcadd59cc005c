package middleware

import (
	"net/http"
	"time"

	"converteasy/logger"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// LoggingMiddleware creates a new HTTP middleware for logging requests and responses.
func LoggingMiddleware(lg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()

			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			// WriteHeader is not always called
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			lg.HTTP(
				r.Method,
				r.URL.Path,
				status,
				time.Since(startTime),
				map[string]any{
					"remote_addr":   r.RemoteAddr,
					"user_agent":    r.UserAgent(),
					"request_id":    chimiddleware.GetReqID(r.Context()),
					"bytes_written": ww.BytesWritten(),
				},
			)
		})
	}
}
