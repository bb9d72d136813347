package source

import (
	"net/http"

	"event-harvest/internal/domain/entity"
	"event-harvest/internal/handler/http/respond"
	"event-harvest/internal/usecase/sourcemgr"
)

type ListHandler struct{ Svc *sourcemgr.Service }

func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var (
		list []*entity.EventSource
		err  error
	)
	if r.URL.Query().Get("active") == "true" {
		list, err = h.Svc.ListActive(r.Context())
	} else {
		list, err = h.Svc.List(r.Context())
	}
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]DTO, 0, len(list))
	for _, s := range list {
		out = append(out, toDTO(s))
	}
	respond.JSON(w, http.StatusOK, out)
}
