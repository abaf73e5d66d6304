package ui

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the UI under the router it is given (usually /ui).
func MountRoutes(r chi.Router, h *Handler) {
	r.Group(func(r chi.Router) {
		r.Use(h.EnsureCSRFToken)
		r.Use(h.RequireCSRF)
		r.Get("/", h.Home)
		r.Post("/ask", h.Ask)
	})
}
