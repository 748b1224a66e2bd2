package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sweep7125/sub-service/internal/logger"
	"github.com/sweep7125/sub-service/internal/service"
	"github.com/sweep7125/sub-service/models"
)

const (
	mimeTypeJSON = "application/json"
	mimeTypeYAML = "application/yaml"
	mimeTypeText = "text/plain"
)

// handleConfig serves a generated client configuration. The first path
// segment after the secret identifies the user (longest-prefix match), the
// optional second one selects the output format.
func (h *Handler) handleConfig(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	user, format, ok := h.resolveRequest(w, r)
	if !ok {
		return
	}

	servers, err := h.configService.GetServers()
	if err != nil {
		log.Error().Err(err).Msg("failed to load servers")
		h.redirectHome(w, r)
		return
	}
	if len(servers) == 0 {
		log.Error().Msg("no servers available in configuration")
		h.redirectHome(w, r)
		return
	}

	log.Info().
		Str("user", user.Comment).
		Str("format", format.String()).
		Str("groups", service.UserGroupsSummary(user)).
		Str("user_agent", r.UserAgent()).
		Msg("generating config")

	content, err := h.configService.BuildConfig(format, servers, user)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoAccessibleServers):
			log.Warn().Str("user", user.LinkPath).Msg("cannot build config: no accessible servers")
		default:
			log.Error().Err(err).Msg("cannot build config")
		}
		h.redirectHome(w, r)
		return
	}

	h.writeConfig(w, r, format, content)
}

// resolveRequest parses the wildcard path into a user record and a format.
// On failure it has already written the response and returns ok=false.
func (h *Handler) resolveRequest(w http.ResponseWriter, r *http.Request) (models.UserInfo, service.Format, bool) {
	log := logger.FromRequest(r)

	var segments []string
	for _, s := range strings.Split(chi.URLParam(r, "*"), "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}

	if len(segments) == 0 {
		log.Warn().Msg("empty user path")
		h.redirectHome(w, r)
		return models.UserInfo{}, 0, false
	}

	user, found, err := h.configService.FindUser(segments[0])
	if err != nil {
		log.Error().Err(err).Msg("failed to load users")
		h.redirectHome(w, r)
		return models.UserInfo{}, 0, false
	}
	if !found {
		log.Warn().Str("lookup_key", segments[0]).Msg("user not found")
		h.redirectHome(w, r)
		return models.UserInfo{}, 0, false
	}

	format := service.FormatLegacyJSON
	if len(segments) > 1 {
		format = service.ParseFormat(segments[1])
	}

	return user, format, true
}

// writeConfig sends the generated document with the per-format MIME type
// and the common subscription headers.
func (h *Handler) writeConfig(w http.ResponseWriter, r *http.Request, format service.Format, content []byte) {
	switch format {
	case service.FormatV2Ray:
		w.Header().Set("Content-Type", mimeTypeText)
	case service.FormatMihomo:
		w.Header().Set("Content-Type", mimeTypeYAML)
		w.Header().Set("Content-Disposition", `attachment; filename="sub"`)
	default:
		w.Header().Set("Content-Type", mimeTypeJSON)
	}

	h.applyHeaders(w, r)

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(content); err != nil {
		logger.FromRequest(r).Error().Err(err).Msg("failed to write response")
	}
}

// redirectHome is the single error response of the service: every failure,
// including access denial, sends the client to the site root so the secret
// surface stays indistinguishable from a bare web server.
func (h *Handler) redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusFound)
}
