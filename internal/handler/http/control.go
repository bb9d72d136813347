package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"event-harvest/internal/handler/http/pathutil"
	"event-harvest/internal/handler/http/respond"
	"event-harvest/internal/infra/scheduler"
	"event-harvest/internal/usecase/ingest"
	"event-harvest/internal/usecase/sourcemgr"
)

// defaultCleanGrace protects recent job records from /queue/clean requests
// that omit an explicit grace period.
const defaultCleanGrace = 24 * time.Hour

/* ───────── スケジューラ制御 ───────── */

// SchedulerStartHandler starts the polling tick. Starting a running
// scheduler is a no-op and still returns 200.
type SchedulerStartHandler struct{ Sched *scheduler.Scheduler }

func (h SchedulerStartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.Sched.Start(r.Context()); err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, h.Sched.Metrics())
}

type SchedulerStopHandler struct{ Sched *scheduler.Scheduler }

func (h SchedulerStopHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.Sched.Stop()
	respond.JSON(w, http.StatusOK, h.Sched.Metrics())
}

type SchedulerRestartHandler struct{ Sched *scheduler.Scheduler }

func (h SchedulerRestartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.Sched.Restart(r.Context()); err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, h.Sched.Metrics())
}

/* ───────── キュー制御 ───────── */

type QueuePauseHandler struct{ Queue ingest.Queue }

func (h QueuePauseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.Queue.Pause(r.Context()); err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type QueueResumeHandler struct{ Queue ingest.Queue }

func (h QueueResumeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.Queue.Resume(r.Context()); err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// QueueRetryFailedHandler requeues every failed job.
type QueueRetryFailedHandler struct{ Queue ingest.Queue }

func (h QueueRetryFailedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n, err := h.Queue.RetryFailed(r.Context())
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]int{"requeued": n})
}

// QueueCleanHandler drops terminal job records older than the grace period.
type QueueCleanHandler struct{ Queue ingest.Queue }

func (h QueueCleanHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GraceHours int    `json:"grace_hours"`
		State      string `json:"state"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	grace := defaultCleanGrace
	if req.GraceHours > 0 {
		grace = time.Duration(req.GraceHours) * time.Hour
	}
	state := req.State
	if state == "" {
		state = ingest.StateCompleted
	}
	if state != ingest.StateCompleted && state != ingest.StateFailed {
		respond.SafeError(w, http.StatusBadRequest,
			errors.New("invalid state: must be completed or failed"))
		return
	}

	n, err := h.Queue.Clean(r.Context(), grace, state)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]int{"removed": n})
}

/* ───────── 手動スクレイプ ───────── */

// ScrapeHandler enqueues a manual scrape for one source. The job carries
// manual priority, so it is dequeued ahead of scheduled work.
type ScrapeHandler struct {
	Svc   *sourcemgr.Service
	Sched *scheduler.Scheduler
}

func (h ScrapeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ExtractID(r.URL.Path, "/sources/")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	src, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	if src == nil {
		respond.SafeError(w, http.StatusNotFound, sourcemgr.ErrSourceNotFound)
		return
	}

	if err := h.Sched.Trigger(r.Context(), src); err != nil {
		if errors.Is(err, scheduler.ErrAlreadyScheduled) {
			respond.JSON(w, http.StatusConflict, map[string]string{
				"error": scheduler.ErrAlreadyScheduled.Error(),
			})
			return
		}
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	respond.JSON(w, http.StatusAccepted, map[string]string{
		"status":    "queued",
		"source_id": src.ID,
	})
}
