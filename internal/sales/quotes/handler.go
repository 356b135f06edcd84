package quotes

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bizdesk/bizdesk/internal/platform/httpx"
	"github.com/bizdesk/bizdesk/internal/shared"
)

// Handler exposes quotes over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if httpx.StatusFor(err) >= http.StatusInternalServerError {
		h.logger.Error(msg, slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	caller, _ := shared.CallerFromContext(r.Context())
	var req CreateRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	quote, err := h.service.Create(r.Context(), caller, req, r.Header.Get(shared.IdempotencyHeader))
	if err != nil {
		h.fail(w, r, "create quote", err)
		return
	}
	w.Header().Set("Location", "/api/quotes/"+strconv.FormatInt(quote.ID, 10))
	httpx.JSON(w, http.StatusCreated, quote)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := ListFilters{
		Status: Status(q.Get("status")),
		Search: q.Get("search"),
		Page:   shared.ParsePageQuery(q),
	}
	if raw := q.Get("customerId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "customerId must be a positive integer")
			return
		}
		filters.CustomerID = id
	}
	for param, target := range map[string]*shared.Date{"from": &filters.From, "to": &filters.To} {
		if raw := q.Get(param); raw != "" {
			d, err := shared.ParseDate(raw)
			if err != nil {
				httpx.Problem(w, http.StatusBadRequest, "Validation Failed", param+": "+err.Error())
				return
			}
			*target = d
		}
	}
	page, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.fail(w, r, "list quotes", err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	quote, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get quote", err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

func (h *Handler) getByNumber(w http.ResponseWriter, r *http.Request) {
	quote, err := h.service.GetByNumber(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		h.fail(w, r, "get quote by number", err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	caller, _ := shared.CallerFromContext(r.Context())
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	quote, err := h.service.Update(r.Context(), caller, id, req)
	if err != nil {
		h.fail(w, r, "update quote", err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request) {
	caller, _ := shared.CallerFromContext(r.Context())
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req StatusRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	quote, err := h.service.ChangeStatus(r.Context(), caller, id, req.Status)
	if err != nil {
		h.fail(w, r, "change quote status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	caller, _ := shared.CallerFromContext(r.Context())
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), caller, id); err != nil {
		h.fail(w, r, "delete quote", err)
		return
	}
	httpx.NoContent(w)
}
