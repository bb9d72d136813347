package source

import (
	"log/slog"
	"net/http"

	"event-harvest/internal/common/pagination"
	"event-harvest/internal/repository"
	"event-harvest/internal/usecase/sourcemgr"
)

// Register registers all source-related HTTP handlers with the given mux.
// Read endpoints are open; mutating endpoints go through the authz
// middleware supplied by the caller.
func Register(mux *http.ServeMux, svc *sourcemgr.Service, events repository.EventRepository, pageCfg pagination.Config, logger *slog.Logger, authz func(http.Handler) http.Handler) {
	mux.Handle("GET /sources", ListHandler{svc})
	mux.Handle("GET /sources/{id}", GetHandler{svc})
	mux.Handle("GET /sources/{id}/events", EventsHandler{Svc: svc, Events: events, Config: pageCfg, Logger: logger})

	mux.Handle("POST /sources", authz(CreateHandler{svc}))
	mux.Handle("PUT /sources/{id}", authz(UpdateHandler{svc}))
	mux.Handle("DELETE /sources/{id}", authz(DeleteHandler{svc}))
	mux.Handle("POST /sources/{id}/activate", authz(ActivateHandler{svc}))
	mux.Handle("POST /sources/{id}/deactivate", authz(DeactivateHandler{svc}))
}
