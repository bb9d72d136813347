package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/robfig/cron/v3"

	"event-harvest/internal/common/pagination"
	"event-harvest/internal/domain/entity"
	hhttp "event-harvest/internal/handler/http"
	"event-harvest/internal/infra/adapter/persistence/memory"
	pgRepo "event-harvest/internal/infra/adapter/persistence/postgres"
	"event-harvest/internal/infra/db"
	"event-harvest/internal/infra/extractor"
	"event-harvest/internal/infra/fetcher"
	"event-harvest/internal/infra/notifier"
	"event-harvest/internal/infra/queue"
	"event-harvest/internal/infra/scheduler"
	workerPkg "event-harvest/internal/infra/worker"
	"event-harvest/internal/observability/logging"
	"event-harvest/internal/observability/slo"
	"event-harvest/internal/observability/tracing"
	"event-harvest/internal/pkg/config"
	"event-harvest/internal/repository"
	"event-harvest/internal/resilience/circuitbreaker"
	"event-harvest/internal/usecase/ingest"
	"event-harvest/internal/usecase/sourcemgr"
)

// version is overridden at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	once := flag.Bool("once", false, "run a single harvest cycle over all due sources and exit")
	flag.Parse()

	logger := initLogger()

	shutdownTracing := tracing.Setup("event-harvest-worker", version)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error("failed to shut down tracer provider", slog.Any("error", err))
		}
	}()

	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db.StartPoolMonitor(ctx, database, time.Minute)

	// Load worker configuration (fail-open strategy)
	workerMetrics := workerPkg.NewWorkerMetrics()
	workerMetrics.MustRegister()
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker configuration loaded",
		slog.Duration("tick_interval", workerConfig.TickInterval),
		slog.Duration("scrape_timeout", workerConfig.ScrapeTimeout),
		slog.Int("concurrency", workerConfig.Concurrency),
		slog.Int("error_threshold", workerConfig.ErrorThreshold),
		slog.Int("ops_port", workerConfig.OpsPort),
		slog.Int("health_port", workerConfig.HealthPort))

	// One breaker guards every repository so a database outage trips them all
	// together instead of per-table.
	breaker := circuitbreaker.NewDBCircuitBreaker(database)
	sources := setupSourceRegistry(ctx, logger, breaker, workerConfig)
	pipeline, events, history := setupPipeline(logger, breaker, sources, workerConfig)

	if *once {
		runOnce(ctx, logger, pipeline, workerMetrics)
		return
	}

	// Job queue: durable Redis when reachable, direct execution otherwise.
	// The terminal hook releases the scheduler's in-flight slot for the source.
	inflight := scheduler.NewInflightSet()
	queueCfg := queue.Config{
		Addr:        workerConfig.RedisAddr,
		Password:    os.Getenv("REDIS_PASSWORD"),
		Concurrency: workerConfig.Concurrency,
		MaxAttempts: workerConfig.QueueMaxAttempts,
		Backoff:     workerConfig.QueueBackoff,
		JobTimeout:  workerConfig.ScrapeTimeout,
		OnTerminal: func(sourceID string, _ entity.JobStatus) {
			inflight.Remove(sourceID)
		},
	}
	jobQueue := queue.New(ctx, queueCfg, pipeline.Run, logger)
	defer func() {
		if err := jobQueue.Close(); err != nil {
			logger.Error("failed to close job queue", slog.Any("error", err))
		}
	}()

	sched := scheduler.New(sources, jobQueue, inflight, workerConfig.TickInterval, logger)
	if workerConfig.SchedulerAutostart {
		if err := sched.Start(ctx); err != nil {
			logger.Error("failed to start scheduler", slog.Any("error", err))
			os.Exit(1)
		}
	} else {
		logger.Info("scheduler autostart disabled, start it via POST /scheduler/start")
	}
	defer sched.Stop()

	maintenance := startQueueMaintenance(ctx, logger, jobQueue, workerConfig)
	defer maintenance.Stop()

	// Operational HTTP API
	opsServer := startOpsServer(logger, hhttp.RouterDeps{
		DB:       database,
		Sources:  sources,
		Events:   events,
		History:  history,
		Pipeline: pipeline,
		Queue:    jobQueue,
		Sched:    sched,
		Auth: hhttp.LoadAuthConfigFromEnv(),
		Health: hhttp.HealthLimits{
			MaxFailedJobs: int64(workerConfig.StatusMaxFailedJobs),
			MaxErrorRate:  float64(workerConfig.StatusMaxErrorPercent) / 100,
		},
		PageCfg: pagination.LoadFromEnv(),
		Version: version,
		Logger:  logger,
	}, workerConfig.OpsPort)

	startMetricsServer(ctx, logger)

	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	go refreshObservability(ctx, pipeline, events)

	healthServer.SetReady(true)
	logger.Info("worker started",
		slog.String("mode", string(jobQueue.Mode())),
		slog.Bool("degraded", sources.Degraded()))

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("ops server shutdown error", slog.Any("error", err))
	}
}

// initLogger initializes and returns a structured logger based on environment configuration.
func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

// initDatabase opens the database connection and applies the schema.
func initDatabase(logger *slog.Logger) *sql.DB {
	database := db.Open()
	if err := db.MigrateUp(database); err != nil {
		logger.Error("failed to apply database schema", slog.Any("error", err))
		os.Exit(1)
	}
	return database
}

// setupSourceRegistry builds the source manager: postgres-backed with an
// in-memory fallback seeded from the static source declarations, and the
// deactivation alert channel wired in.
func setupSourceRegistry(ctx context.Context, logger *slog.Logger, store pgRepo.DBTX, cfg *workerPkg.WorkerConfig) *sourcemgr.Service {
	staticPath := config.LoadEnvString("STATIC_SOURCES_PATH", "configs/sources.yaml")
	static, err := sourcemgr.LoadStaticSources(staticPath)
	if err != nil {
		logger.Error("failed to load static sources", slog.String("path", staticPath), slog.Any("error", err))
		os.Exit(1)
	}
	if len(static) > 0 {
		logger.Info("static sources loaded", slog.String("path", staticPath), slog.Int("count", len(static)))
	}

	alerts := notifier.FromEnv()
	sources := sourcemgr.NewService(
		pgRepo.NewSourceRepo(store),
		memory.NewSourceRepo(),
		static,
		sourcemgr.Config{
			DeactivationThreshold: cfg.ErrorThreshold,
			OnDeactivated: func(ctx context.Context, src *entity.EventSource, reason string) {
				if err := alerts.NotifySourceDeactivated(ctx, src, reason); err != nil {
					logger.Error("failed to send deactivation alert",
						slog.String("source_id", src.ID),
						slog.Any("error", err))
				}
			},
		},
		logger,
	)

	if err := sources.Initialize(ctx); err != nil {
		if sources.Degraded() {
			logger.Warn("source registry degraded to static declarations", slog.Any("error", err))
		} else {
			logger.Error("failed to initialize source registry", slog.Any("error", err))
			os.Exit(1)
		}
	}
	return sources
}

// setupPipeline wires the ingestion coordinator with the per-type extractors
// and the postgres-backed event and job history stores.
func setupPipeline(logger *slog.Logger, store pgRepo.DBTX, sources *sourcemgr.Service, cfg *workerPkg.WorkerConfig) (*ingest.Service, repository.EventRepository, repository.JobHistoryRepository) {
	events := pgRepo.NewEventRepo(store)
	history := pgRepo.NewJobHistoryRepo(store)

	client := createHTTPClient()
	registry := extractor.NewRegistry()
	registry.Register(entity.SourceTypeFeed, extractor.NewFeedExtractor(client))
	registry.Register(entity.SourceTypeAPI, extractor.NewAPIExtractor(client))

	htmlExtractor := extractor.NewHTMLExtractor(client)
	detailCfg, err := fetcher.LoadConfigFromEnv()
	if err != nil {
		logger.Warn("invalid detail fetch configuration, detail enrichment disabled", slog.Any("error", err))
	} else if detailCfg.Enabled {
		htmlExtractor.WithDescriptionFetcher(fetcher.NewReadabilityFetcher(detailCfg))
		logger.Info("detail page enrichment enabled",
			slog.Duration("timeout", detailCfg.Timeout))
	}
	registry.Register(entity.SourceTypeHTML, htmlExtractor)

	pipeline := ingest.NewService(sources, events, history, registry,
		ingest.Config{Concurrency: cfg.Concurrency}, logger)
	return pipeline, events, history
}

// startOpsServer serves the operational HTTP API in the background and
// returns the server for shutdown control.
func startOpsServer(logger *slog.Logger, deps hhttp.RouterDeps, port int) *http.Server {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      hhttp.NewRouter(deps),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		logger.Info("ops server starting", slog.Int("port", port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ops server failed", slog.Any("error", err))
		}
	}()
	return server
}

// startQueueMaintenance schedules the nightly cleanup of terminal job
// records in the configured timezone. Failed records are kept seven times
// longer than completed ones so they stay inspectable.
func startQueueMaintenance(ctx context.Context, logger *slog.Logger, jobQueue ingest.Queue, cfg *workerPkg.WorkerConfig) *cron.Cron {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		// LoadConfigFromEnv validated the name; missing tzdata still falls here
		logger.Warn("timezone unavailable, queue cleanup runs in UTC",
			slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}

	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(cfg.CleanSchedule, func() {
		completed, err := jobQueue.Clean(ctx, cfg.CleanGrace, ingest.StateCompleted)
		if err != nil {
			logger.Error("queue cleanup failed",
				slog.String("state", ingest.StateCompleted), slog.Any("error", err))
		}
		failed, err := jobQueue.Clean(ctx, 7*cfg.CleanGrace, ingest.StateFailed)
		if err != nil {
			logger.Error("queue cleanup failed",
				slog.String("state", ingest.StateFailed), slog.Any("error", err))
		}
		logger.Info("queue cleanup finished",
			slog.Int("completed_removed", completed),
			slog.Int("failed_removed", failed))
	})
	if err != nil {
		logger.Error("failed to register queue cleanup", slog.Any("error", err))
		return c
	}

	c.Start()
	logger.Info("queue cleanup scheduled",
		slog.String("schedule", cfg.CleanSchedule),
		slog.String("timezone", loc.String()))
	return c
}

// createHTTPClient creates the outbound HTTP client shared by the extractors.
// TLS 1.2+ is enforced.
func createHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}

// refreshObservability periodically recomputes the gauges that are derived
// from pipeline state rather than incremented on the request path.
func refreshObservability(ctx context.Context, pipeline *ingest.Service, events repository.EventRepository) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m, err := pipeline.GetMetrics(ctx)
			if err != nil {
				continue
			}
			slo.UpdateScrapeSuccess(1 - m.ErrorRate)
			hhttp.UpdateSourcesTotal(m.Sources.TotalSources)
			if total, err := events.CountCreatedSince(ctx, time.Time{}); err == nil {
				hhttp.UpdateEventsTotal(int(total))
			}
		}
	}
}

// runOnce executes a single harvest cycle over every active source and exits.
// Used by container cron jobs and for manual backfills.
func runOnce(ctx context.Context, logger *slog.Logger, pipeline *ingest.Service, metrics *workerPkg.WorkerMetrics) {
	start := time.Now()
	logger.Info("harvest cycle started")

	results, err := pipeline.ScrapeAllSources(ctx)
	metrics.RecordCycleDuration(time.Since(start).Seconds())
	if err != nil {
		metrics.RecordCycleRun("failure")
		logger.Error("harvest cycle failed", slog.Any("error", err))
		os.Exit(1)
	}

	var created, updated, failed int
	for _, r := range results {
		created += r.EventsCreated
		updated += r.EventsUpdated
		if r.Status == entity.JobFailed {
			failed++
		}
	}
	metrics.RecordCycleRun("success")
	metrics.RecordSourcesProcessed(len(results))
	metrics.RecordLastSuccess()

	logger.Info("harvest cycle completed",
		slog.Int("sources", len(results)),
		slog.Int("events_created", created),
		slog.Int("events_updated", updated),
		slog.Int("sources_failed", failed),
		slog.Duration("duration", time.Since(start)))
}
