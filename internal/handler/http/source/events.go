package source

import (
	"log/slog"
	"net/http"
	"time"

	"event-harvest/internal/common/pagination"
	"event-harvest/internal/handler/http/pathutil"
	"event-harvest/internal/handler/http/requestid"
	"event-harvest/internal/handler/http/respond"
	"event-harvest/internal/repository"
	"event-harvest/internal/usecase/sourcemgr"
)

// EventsHandler serves the paginated event listing for one source.
type EventsHandler struct {
	Svc    *sourcemgr.Service
	Events repository.EventRepository
	Config pagination.Config
	Logger *slog.Logger
}

func (h EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reqID := requestid.FromContext(r.Context())

	id, err := pathutil.ExtractID(r.URL.Path, "/sources/")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	params, err := pagination.ParseQueryParams(r, h.Config)
	if err != nil {
		pagination.RecordError("invalid_params")
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	pagination.LogRequest(logger, reqID, params)

	src, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	if src == nil {
		respond.SafeError(w, http.StatusNotFound, sourcemgr.ErrSourceNotFound)
		return
	}

	events, err := h.Events.ListBySource(r.Context(), id)
	if err != nil {
		pagination.RecordError("repository")
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	total := int64(len(events))
	offset := pagination.CalculateOffset(params.Page, params.Limit)

	page := make([]EventDTO, 0, params.Limit)
	if offset < len(events) {
		end := offset + params.Limit
		if end > len(events) {
			end = len(events)
		}
		for _, e := range events[offset:end] {
			page = append(page, toEventDTO(e))
		}
	}

	meta := pagination.Metadata{
		Total:      total,
		Page:       params.Page,
		Limit:      params.Limit,
		TotalPages: pagination.CalculateTotalPages(total, params.Limit),
	}

	pagination.UpdateTotalCount(total)
	pagination.RecordRequest(http.StatusOK, params.Page)
	pagination.RecordDuration("handler", time.Since(start).Seconds())
	pagination.LogResponse(logger, reqID, params, len(page), time.Since(start), http.StatusOK)
	respond.JSON(w, http.StatusOK, pagination.NewResponse(page, meta))
}
