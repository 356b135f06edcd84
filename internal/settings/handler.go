package settings

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bizdesk/bizdesk/internal/platform/httpx"
	"github.com/bizdesk/bizdesk/internal/shared"
)

// Handler exposes company settings.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	adminOnly func(http.Handler) http.Handler
}

// NewHandler builds a Handler. adminOnly guards the write route.
func NewHandler(logger *slog.Logger, service *Service, adminOnly func(http.Handler) http.Handler) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, adminOnly: adminOnly}
}

// MountRoutes attaches the settings routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/company", h.getCompany)
	r.Group(func(r chi.Router) {
		if h.adminOnly != nil {
			r.Use(h.adminOnly)
		}
		r.Put("/company", h.updateCompany)
	})
}

func (h *Handler) getCompany(w http.ResponseWriter, r *http.Request) {
	company, err := h.service.Company(r.Context())
	if err != nil {
		h.logger.Error("get company settings", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, company)
}

func (h *Handler) updateCompany(w http.ResponseWriter, r *http.Request) {
	caller, _ := shared.CallerFromContext(r.Context())
	var req UpdateCompanyRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	company, err := h.service.UpdateCompany(r.Context(), caller, req)
	if err != nil {
		if httpx.StatusFor(err) >= http.StatusInternalServerError {
			h.logger.Error("update company settings", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, company)
}
