package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withLogging)
	router.Use(h.withSecurityCheck)

	secret := h.cfg.App.SecretPath
	router.Get("/"+secret+"/", h.handleConfig)
	router.Get("/"+secret+"/*", h.handleConfig)

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.redirectHome(w, r)
	})

	return router
}
