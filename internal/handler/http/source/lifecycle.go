package source

import (
	"context"
	"errors"
	"net/http"

	"event-harvest/internal/handler/http/pathutil"
	"event-harvest/internal/handler/http/respond"
	"event-harvest/internal/usecase/sourcemgr"
)

// ActivateHandler re-enables a source so the scheduler picks it up again.
type ActivateHandler struct{ Svc *sourcemgr.Service }

func (h ActivateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setActive(w, r, h.Svc.Activate)
}

// DeactivateHandler soft-disables a source. Scheduled scraping stops but the
// source and its events stay in the registry.
type DeactivateHandler struct{ Svc *sourcemgr.Service }

func (h DeactivateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setActive(w, r, h.Svc.Deactivate)
}

func setActive(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id string) error) {
	id, err := pathutil.ExtractID(r.URL.Path, "/sources/")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if err := op(r.Context(), id); err != nil {
		if errors.Is(err, sourcemgr.ErrSourceNotFound) {
			respond.SafeError(w, http.StatusNotFound, err)
			return
		}
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
