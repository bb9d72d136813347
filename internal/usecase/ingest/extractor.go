package ingest

import (
	"context"

	"event-harvest/internal/domain/entity"
)

// Extractor fetches a source and turns its payload into candidate events.
// Implementations live in infra (feed, API, HTML) and are chosen per source
// by SourceType. Extraction errors are per-source faults: they fail the one
// job, never the pipeline.
type Extractor interface {
	Extract(ctx context.Context, source *entity.EventSource) ([]*entity.CandidateEvent, error)
}
