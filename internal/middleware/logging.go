package middleware

import (
	"net/http"
	"time"

	"github.com/Abdurahmanit/GroupProject/storefront/internal/platform/logger"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Logger writes one access-log line per request.
func Logger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				line := log.With(
					"request_id", chimw.GetReqID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"status", status,
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
				)
				if status >= http.StatusInternalServerError {
					line.Warn("HTTP request completed with server error")
				} else {
					line.Info("HTTP request completed")
				}
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
