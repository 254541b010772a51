package ask

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers ask routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/ask", h.Ask)
	r.Get("/pages", h.ListPages)
	r.Get("/pages/content", h.PageContent)
}
