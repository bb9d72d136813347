package source

import (
	"net/http"

	"event-harvest/internal/handler/http/pathutil"
	"event-harvest/internal/handler/http/respond"
	"event-harvest/internal/usecase/sourcemgr"
)

type GetHandler struct{ Svc *sourcemgr.Service }

func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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
	respond.JSON(w, http.StatusOK, toDTO(src))
}
