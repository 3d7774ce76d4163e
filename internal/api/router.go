package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/filecat/internal/workspace"
)

// NewRouter creates a chi router with the catalog routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *workspace.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Route("/catalog", func(r chi.Router) {
		r.Get("/", h.Tree)
		r.Get("/files", h.Files)
		r.Post("/toggle", h.Toggle)
		r.Post("/reveal", h.Reveal)
		r.Post("/rebuild", h.Rebuild)
		r.Get("/filter", h.GetFilter)
		r.Put("/filter", h.SetFilter)
	})

	r.Get("/reference/options", h.ReferenceOptions)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
