package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"event-harvest/internal/domain/entity"
	"event-harvest/internal/handler/http/respond"
	"event-harvest/internal/repository"
)

const (
	defaultJobHistoryLimit = 50
	maxJobHistoryLimit     = 500
)

// JobResultDTO is the wire representation of one scrape job outcome.
type JobResultDTO struct {
	ID            string    `json:"id"`
	SourceID      string    `json:"source_id"`
	Status        string    `json:"status"`
	EventsFound   int       `json:"events_found"`
	EventsCreated int       `json:"events_created"`
	EventsUpdated int       `json:"events_updated"`
	EventsSkipped int       `json:"events_skipped"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
}

func toJobResultDTO(r *entity.ScrapeJobResult) JobResultDTO {
	return JobResultDTO{
		ID:            r.ID,
		SourceID:      r.SourceID,
		Status:        string(r.Status),
		EventsFound:   r.EventsFound,
		EventsCreated: r.EventsCreated,
		EventsUpdated: r.EventsUpdated,
		EventsSkipped: r.EventsSkipped,
		ErrorMessage:  r.ErrorMessage,
		StartedAt:     r.StartedAt,
		FinishedAt:    r.FinishedAt,
	}
}

// JobsHandler serves the recent scrape job history, newest first.
type JobsHandler struct {
	History repository.JobHistoryRepository
}

func (h JobsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	limit := defaultJobHistoryLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 || n > maxJobHistoryLimit {
			respond.SafeError(w, http.StatusBadRequest,
				errors.New("invalid query parameter: limit must be between 1 and 500"))
			return
		}
		limit = n
	}

	results, err := h.History.ListRecent(r.Context(), limit)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	out := make([]JobResultDTO, 0, len(results))
	for _, res := range results {
		out = append(out, toJobResultDTO(res))
	}
	respond.JSON(w, http.StatusOK, out)
}
