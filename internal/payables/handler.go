package payables

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bizdesk/bizdesk/internal/platform/httpx"
	"github.com/bizdesk/bizdesk/internal/shared"
)

// Handler exposes accounts payable over HTTP.
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
	resp, err := h.service.Create(r.Context(), caller, req, r.Header.Get(shared.IdempotencyHeader))
	if err != nil {
		h.fail(w, r, "create accounts payable", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, resp)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := ListFilters{
		SeriesID: q.Get("seriesId"),
		Search:   q.Get("search"),
		Page:     shared.ParsePageQuery(q),
	}
	if raw := q.Get("paid"); raw != "" {
		paid, err := strconv.ParseBool(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "paid must be true or false")
			return
		}
		filters.Paid = &paid
	}
	for param, target := range map[string]*shared.Date{"dueFrom": &filters.DueFrom, "dueTo": &filters.DueTo} {
		if raw := q.Get(param); raw != "" {
			d, err := shared.ParseDate(raw)
			if err != nil {
				httpx.Problem(w, http.StatusBadRequest, "Validation Failed", param+": "+err.Error())
				return
			}
			*target = d
		}
	}
	if raw := q.Get("supplierId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "supplierId must be a positive integer")
			return
		}
		filters.SupplierID = id
	}
	page, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.fail(w, r, "list accounts payable", err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.fail(w, r, "accounts payable summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	entry, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get accounts payable", err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
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
	entry, err := h.service.Update(r.Context(), caller, id, req)
	if err != nil {
		h.fail(w, r, "update accounts payable", err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) markPaid(w http.ResponseWriter, r *http.Request) {
	caller, _ := shared.CallerFromContext(r.Context())
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req MarkPaidRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	entry, err := h.service.MarkPaid(r.Context(), caller, id, req.Paid)
	if err != nil {
		h.fail(w, r, "mark accounts payable paid", err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	caller, _ := shared.CallerFromContext(r.Context())
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), caller, id); err != nil {
		h.fail(w, r, "delete accounts payable", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) series(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Series(r.Context(), chi.URLParam(r, "seriesId"))
	if err != nil {
		h.fail(w, r, "get series", err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) deleteSeries(w http.ResponseWriter, r *http.Request) {
	caller, _ := shared.CallerFromContext(r.Context())
	resp, err := h.service.DeleteSeries(r.Context(), caller, chi.URLParam(r, "seriesId"))
	if err != nil {
		h.fail(w, r, "delete series", err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}
