package source

import (
	"errors"
	"net/http"

	"event-harvest/internal/handler/http/pathutil"
	"event-harvest/internal/handler/http/respond"
	"event-harvest/internal/usecase/sourcemgr"
)

type DeleteHandler struct{ Svc *sourcemgr.Service }

func (h DeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ExtractID(r.URL.Path, "/sources/")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, sourcemgr.ErrSourceNotFound) {
			respond.SafeError(w, http.StatusNotFound, err)
			return
		}
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
