package payables

import "github.com/go-chi/chi/v5"

// MountRoutes attaches the accounts payable routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/summary", h.summary)
	r.Get("/series/{seriesId}", h.series)
	r.Delete("/series/{seriesId}", h.deleteSeries)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Patch("/{id}/paid", h.markPaid)
	r.Delete("/{id}", h.delete)
}
