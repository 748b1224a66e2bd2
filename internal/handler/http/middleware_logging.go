package http

import (
	"net/http"
	"time"

	"github.com/sweep7125/sub-service/internal/logger"
)

// responseWriter captures status and size for access logging.
type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *responseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(data []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	size, err := w.ResponseWriter.Write(data)
	w.size += size
	return size, err
}

// withLogging attaches a request-scoped logger carrying the client IP to the
// context and writes one access log line per request.
func (h *Handler) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := clientIP(r)

		reqLogger := h.logger.With().Str("client_ip", clientIP).Logger()
		r = r.WithContext(reqLogger.WithContext(r.Context()))

		start := time.Now()

		uri := r.RequestURI
		method := r.Method

		lw := &responseWriter{
			ResponseWriter: w,
		}

		next.ServeHTTP(lw, r)

		duration := time.Since(start)

		log := logger.FromRequest(r)
		event := log.Info()
		if lw.status >= http.StatusBadRequest {
			event = log.Warn()
		}

		event.
			Str("uri", uri).
			Str("method", method).
			Int("status", lw.status).
			Dur("duration", duration).
			Int("size", lw.size).
			Send()
	})
}
