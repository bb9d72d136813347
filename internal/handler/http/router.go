package http

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"event-harvest/internal/common/pagination"
	"event-harvest/internal/handler/http/requestid"
	"event-harvest/internal/handler/http/source"
	"event-harvest/internal/infra/scheduler"
	"event-harvest/internal/observability/tracing"
	"event-harvest/internal/repository"
	"event-harvest/internal/usecase/ingest"
	"event-harvest/internal/usecase/sourcemgr"
)

const (
	defaultRequestTimeout = 30 * time.Second
	maxRequestBodyBytes   = 1 << 20 // 1MB, source payloads are small

	// Ops surface, not public traffic. Generous per-IP ceiling that still
	// stops runaway clients.
	rateLimitRequests = 300
	rateLimitWindow   = time.Minute
)

// RouterDeps carries everything the operational API serves.
type RouterDeps struct {
	DB       *sql.DB
	Sources  *sourcemgr.Service
	Events   repository.EventRepository
	History  repository.JobHistoryRepository
	Pipeline *ingest.Service
	Queue    ingest.Queue
	Sched    *scheduler.Scheduler

	Auth    AuthConfig
	Health  HealthLimits
	PageCfg pagination.Config
	Version string
	Logger  *slog.Logger
}

// NewRouter builds the worker's HTTP handler: routes plus the middleware
// stack (request ID, panic recovery, tracing, logging, metrics, input
// validation, rate limiting, body limit, timeout).
func NewRouter(deps RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	authz := deps.Auth.Middleware(logger)

	// Probes and metrics
	mux.Handle("GET /health", &HealthHandler{DB: deps.DB, Version: deps.Version, Sources: deps.Sources})
	mux.Handle("GET /ready", &ReadyHandler{DB: deps.DB})
	mux.Handle("GET /live", &LiveHandler{})
	mux.Handle("GET /metrics", MetricsHandler())

	// Operational snapshot and job history
	status := StatusHandler{Queue: deps.Queue, Sched: deps.Sched, Limits: deps.Health}
	if deps.Pipeline != nil {
		status.Pipeline = deps.Pipeline
	}
	mux.Handle("GET /status", status)
	mux.Handle("GET /jobs", JobsHandler{History: deps.History})

	// Source registry CRUD and the per-source event listing
	source.Register(mux, deps.Sources, deps.Events, deps.PageCfg, logger, authz)

	// Control actions
	mux.Handle("POST /sources/{id}/scrape", authz(ScrapeHandler{Svc: deps.Sources, Sched: deps.Sched}))
	mux.Handle("POST /scheduler/start", authz(SchedulerStartHandler{Sched: deps.Sched}))
	mux.Handle("POST /scheduler/stop", authz(SchedulerStopHandler{Sched: deps.Sched}))
	mux.Handle("POST /scheduler/restart", authz(SchedulerRestartHandler{Sched: deps.Sched}))
	mux.Handle("POST /queue/pause", authz(QueuePauseHandler{Queue: deps.Queue}))
	mux.Handle("POST /queue/resume", authz(QueueResumeHandler{Queue: deps.Queue}))
	mux.Handle("POST /queue/retry-failed", authz(QueueRetryFailedHandler{Queue: deps.Queue}))
	mux.Handle("POST /queue/clean", authz(QueueCleanHandler{Queue: deps.Queue}))

	rateLimiter := NewRateLimiter(rateLimitRequests, rateLimitWindow)

	// 外側から順に適用される
	var handler http.Handler = mux
	handler = Timeout(defaultRequestTimeout)(handler)
	handler = LimitRequestBody(maxRequestBodyBytes)(handler)
	handler = rateLimiter.Limit(handler)
	handler = InputValidation()(handler)
	handler = MetricsMiddleware(handler)
	handler = Logging(logger)(handler)
	handler = tracing.Middleware(handler)
	handler = Recover(logger)(handler)
	handler = requestid.Middleware(handler)

	return handler
}
