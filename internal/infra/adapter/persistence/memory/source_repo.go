// Package memory provides in-memory persistence adapters. The source
// repository here backs the degraded mode of the source manager when the
// durable store is unreachable, and doubles as a lightweight test double.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"event-harvest/internal/domain/entity"
	"event-harvest/internal/repository"
)

// SourceRepo is a mutex-guarded in-memory SourceRepository. The single mutex
// serializes every read-modify-write, so concurrent counter updates on the
// same source cannot lose writes.
type SourceRepo struct {
	mu      sync.RWMutex
	sources map[string]*entity.EventSource
}

// NewSourceRepo creates an empty in-memory source repository.
func NewSourceRepo() *SourceRepo {
	return &SourceRepo{sources: make(map[string]*entity.EventSource)}
}

var _ repository.SourceRepository = (*SourceRepo)(nil)

func (r *SourceRepo) Get(_ context.Context, id string) (*entity.EventSource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src, ok := r.sources[id]
	if !ok {
		return nil, nil
	}
	cp := *src
	return &cp, nil
}

func (r *SourceRepo) GetByNameOrURL(_ context.Context, name, baseURL string) (*entity.EventSource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, src := range r.sources {
		if src.Name == name || src.BaseURL == baseURL {
			cp := *src
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *SourceRepo) List(_ context.Context) ([]*entity.EventSource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(*entity.EventSource) bool { return true }), nil
}

func (r *SourceRepo) ListActive(_ context.Context) ([]*entity.EventSource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(s *entity.EventSource) bool { return s.Active }), nil
}

func (r *SourceRepo) ListDue(_ context.Context, now time.Time) ([]*entity.EventSource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	due := r.collect(func(s *entity.EventSource) bool { return s.Due(now) })

	// oldest-due first; never-scheduled sources go to the front
	sort.SliceStable(due, func(i, j int) bool {
		a, b := due[i].NextScrapeAt, due[j].NextScrapeAt
		if a == nil {
			return b != nil
		}
		if b == nil {
			return false
		}
		return a.Before(*b)
	})
	return due, nil
}

func (r *SourceRepo) Create(_ context.Context, source *entity.EventSource) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if source.ID == "" {
		source.ID = uuid.NewString()
	}
	cp := *source
	r.sources[source.ID] = &cp
	return nil
}

func (r *SourceRepo) Update(_ context.Context, source *entity.EventSource) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sources[source.ID]; !ok {
		return entity.ErrNotFound
	}
	cp := *source
	r.sources[source.ID] = &cp
	return nil
}

func (r *SourceRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sources[id]; !ok {
		return entity.ErrNotFound
	}
	delete(r.sources, id)
	return nil
}

func (r *SourceRepo) SetActive(_ context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	src, ok := r.sources[id]
	if !ok {
		return entity.ErrNotFound
	}
	src.Active = active
	src.UpdatedAt = time.Now()
	return nil
}

func (r *SourceRepo) IncrementError(_ context.Context, id, message string, deactivateAt int) (*entity.EventSource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	src, ok := r.sources[id]
	if !ok {
		return nil, nil
	}
	src.ErrorCount++
	src.LastError = message
	if deactivateAt > 0 && src.ErrorCount >= deactivateAt {
		src.Active = false
	}
	src.UpdatedAt = time.Now()
	cp := *src
	return &cp, nil
}

func (r *SourceRepo) ResetError(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	src, ok := r.sources[id]
	if !ok {
		return entity.ErrNotFound
	}
	src.ErrorCount = 0
	src.LastError = ""
	src.UpdatedAt = time.Now()
	return nil
}

func (r *SourceRepo) TouchScraped(_ context.Context, id string, now, next time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	src, ok := r.sources[id]
	if !ok {
		return entity.ErrNotFound
	}
	scrapedAt, nextAt := now, next
	src.LastScrapedAt = &scrapedAt
	src.NextScrapeAt = &nextAt
	src.UpdatedAt = now
	return nil
}

// collect copies matching sources while the lock is held.
func (r *SourceRepo) collect(match func(*entity.EventSource) bool) []*entity.EventSource {
	out := make([]*entity.EventSource, 0, len(r.sources))
	for _, src := range r.sources {
		if match(src) {
			cp := *src
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
