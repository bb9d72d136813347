// Package queue provides the two job queue implementations behind the
// ingestion pipeline: a Redis-backed durable queue with priorities, delayed
// retries, and terminal job logs, and a synchronous direct executor used when
// the broker is unreachable at startup. New probes the broker once and picks
// the implementation; callers only ever see the ingest.Queue interface.
package queue
