package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the JSON API. limit, when set, wraps every route that
// calls the model service.
func RegisterRoutes(mux chi.Router, h *Handlers, limit func(http.Handler) http.Handler) {
	mux.Get("/healthz", h.Health)
	mux.Get("/version", h.Version)

	mux.Get("/api/models", h.ListModels)
	mux.Get("/api/sessions", h.ListSessions)
	mux.Get("/api/history/{id}", h.GetHistory)
	mux.Post("/api/chat/reset", h.ResetChat)

	mux.Group(func(r chi.Router) {
		if limit != nil {
			r.Use(limit)
		}
		r.Post("/api/chat", h.Chat)
		r.Post("/api/article", h.Article)
		r.Post("/api/image", h.Image)
		r.Post("/api/recommendations", h.Recommendations)
	})

	if h.Admin != nil {
		mux.Get("/admin/upstream", h.Admin.Upstream)
	}
}
