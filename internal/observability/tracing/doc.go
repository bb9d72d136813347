// Package tracing provides OpenTelemetry tracing integration.
//
// It offers a shared tracer for creating spans and HTTP middleware that
// extracts W3C trace context from incoming requests.
//
// Example usage:
//
//	import "event-harvest/internal/observability/tracing"
//
//	func scrape(ctx context.Context) {
//	    ctx, span := tracing.GetTracer().Start(ctx, "ingest.scrape_source")
//	    defer span.End()
//	    // ... run the scrape ...
//	}
package tracing
