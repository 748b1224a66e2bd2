package http

import (
	"net/http"
	"regexp"
)

// happUserAgentPattern matches Happ clients, which understand the routing
// header.
var happUserAgentPattern = regexp.MustCompile(`^Happ/\d+\.\d+\.\d+`)

// applyHeaders decorates a successful config response with the subscription
// profile headers, the operator-defined custom headers, and the Happ routing
// header when the client supports it.
func (h *Handler) applyHeaders(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Profile-Update-Interval", h.cfg.App.ProfileUpdateInterval)
	w.Header().Set("Profile-Title", h.cfg.App.ProfileTitle)

	userAgent := r.UserAgent()

	for _, header := range h.cfg.CustomHeaders {
		if header.UserAgentRegex != nil && !header.UserAgentRegex.MatchString(userAgent) {
			continue
		}
		w.Header().Set(header.Name, header.Value)
	}

	if happUserAgentPattern.MatchString(userAgent) {
		if routing := h.geoService.BuildRoutingHeader(r.Context(), h.happRouting); routing != "" {
			w.Header().Set("Routing", routing)
		}
	}
}
