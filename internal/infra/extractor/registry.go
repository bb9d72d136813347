package extractor

import (
	"context"
	"fmt"

	"event-harvest/internal/domain/entity"
	"event-harvest/internal/usecase/ingest"
)

// Registry dispatches extraction by source type. It implements the pipeline's
// Extractor interface so the coordinator never cares which concrete extractor
// serves a source.
type Registry struct {
	byType map[string]ingest.Extractor
}

var _ ingest.Extractor = (*Registry)(nil)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byType: make(map[string]ingest.Extractor)}
}

// Register binds an extractor to a source type, replacing any previous one.
func (r *Registry) Register(sourceType string, e ingest.Extractor) {
	r.byType[sourceType] = e
}

// Extract routes to the extractor registered for the source's type.
func (r *Registry) Extract(ctx context.Context, source *entity.EventSource) ([]*entity.CandidateEvent, error) {
	e, ok := r.byType[source.SourceType]
	if !ok {
		return nil, fmt.Errorf("no extractor registered for source type %q", source.SourceType)
	}
	return e.Extract(ctx, source)
}
