package http

import (
	"net/http"

	"github.com/sweep7125/sub-service/internal/logger"
)

// withSecurityCheck only admits connections arriving locally: either over
// the Unix socket or from a loopback address. In production nginx terminates
// TLS and talks to the service over the socket, so anything else reaching us
// directly is bypassing the proxy.
func (h *Handler) withSecurityCheck(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isLocalConnection(r) {
			log := logger.FromRequest(r)
			log.Warn().
				Str("path", r.URL.Path).
				Str("remote", r.RemoteAddr).
				Msg("security: blocked non-local connection")

			h.redirectHome(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func isLocalConnection(r *http.Request) bool {
	host := remoteHost(r)

	switch host {
	case "", "@": // unix socket connection
		return true
	case "127.0.0.1", "::1", "localhost":
		return true
	}

	return false
}
