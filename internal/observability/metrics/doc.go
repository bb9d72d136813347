// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all application metrics including:
//   - HTTP request metrics (duration, count)
//   - Pipeline metrics (scrape runs, dedup outcomes, sources)
//   - Queue metrics (job outcomes, depth per state)
//   - Database query metrics
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "event-harvest/internal/observability/metrics"
//
//	func runScrape(source string) {
//	    start := time.Now()
//	    // ... fetch, dedupe, persist ...
//	    metrics.RecordScrapeRun(source, "success", time.Since(start))
//	    metrics.RecordDedupOutcomes(created, updated, skipped)
//	}
package metrics
