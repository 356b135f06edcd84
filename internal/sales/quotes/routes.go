package quotes

import "github.com/go-chi/chi/v5"

// MountRoutes attaches the quote routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/number/{number}", h.getByNumber)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Patch("/{id}/status", h.changeStatus)
	r.Delete("/{id}", h.delete)
}
