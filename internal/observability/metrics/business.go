package metrics

import "time"

// RecordScrapeRun records one full scrape cycle for a source.
// Status should be either "success" or "failure".
func RecordScrapeRun(sourceName, status string, duration time.Duration) {
	ScrapeRunsTotal.WithLabelValues(sourceName, status).Inc()
	ScrapeRunDuration.WithLabelValues(sourceName).Observe(duration.Seconds())
}

// RecordDedupOutcomes records the candidate breakdown of one scrape run.
func RecordDedupOutcomes(created, updated, skipped int) {
	if created > 0 {
		EventsIngestedTotal.WithLabelValues("created").Add(float64(created))
	}
	if updated > 0 {
		EventsIngestedTotal.WithLabelValues("updated").Add(float64(updated))
	}
	if skipped > 0 {
		EventsIngestedTotal.WithLabelValues("skipped").Add(float64(skipped))
	}
}

// RecordFetchSuccess records a successful source fetch.
func RecordFetchSuccess(duration time.Duration) {
	FetchAttemptsTotal.WithLabelValues("success").Inc()
	FetchDuration.Observe(duration.Seconds())
}

// RecordFetchFailed records a failed source fetch.
func RecordFetchFailed(duration time.Duration) {
	FetchAttemptsTotal.WithLabelValues("failure").Inc()
	FetchDuration.Observe(duration.Seconds())
}

// RecordQueueJob records a terminal queue job outcome.
// State should be "completed", "failed", or "retried".
func RecordQueueJob(state string) {
	QueueJobsTotal.WithLabelValues(state).Inc()
}

// UpdateQueueDepth updates the gauge for one queue population.
func UpdateQueueDepth(state string, depth int64) {
	QueueDepth.WithLabelValues(state).Set(float64(depth))
}

// UpdateSourceGauges updates the registry size gauges.
// These should be refreshed periodically to reflect the current state.
func UpdateSourceGauges(total, active int) {
	SourcesTotal.Set(float64(total))
	SourcesActive.Set(float64(active))
}

// RecordDBQuery records the duration of a database query operation.
// Operation should describe the query type (e.g., "select_events", "insert_event").
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBConnectionStats updates database connection pool statistics.
func UpdateDBConnectionStats(active, idle int) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
