// Package extractor provides implementations of the ingestion pipeline's
// extraction collaborator, one per source type: RSS/Atom feeds (gofeed),
// server-rendered HTML listings (goquery), and JSON APIs. All of them run
// behind retry, circuit breaker, and outbound rate limiting.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"event-harvest/internal/domain/entity"
	"event-harvest/internal/observability/metrics"
	"event-harvest/internal/resilience/circuitbreaker"
	"event-harvest/internal/resilience/retry"
	"event-harvest/internal/usecase/ingest"
)

const userAgent = "EventHarvestBot"

// defaultFetchRate paces outbound fetches so a burst of due sources does not
// hammer the upstream hosts.
var defaultFetchRate = rate.Limit(2)

// FeedExtractor turns RSS/Atom feed entries into candidate events.
type FeedExtractor struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	limiter        *rate.Limiter
}

var _ ingest.Extractor = (*FeedExtractor)(nil)

// NewFeedExtractor creates a feed extractor with the given HTTP client.
// It automatically configures circuit breaker, retry, and rate limiting.
func NewFeedExtractor(client *http.Client) *FeedExtractor {
	return &FeedExtractor{
		client:         client,
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retryConfig:    retry.FeedFetchConfig(),
		limiter:        rate.NewLimiter(defaultFetchRate, 1),
	}
}

// Extract fetches the source's feed and maps each entry to a candidate.
func (e *FeedExtractor) Extract(ctx context.Context, source *entity.EventSource) ([]*entity.CandidateEvent, error) {
	feedURL := source.BaseURL
	if source.ScrapeConfig != nil && source.ScrapeConfig.FeedURL != "" {
		feedURL = source.ScrapeConfig.FeedURL
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("fetch pacing: %w", err)
	}

	started := time.Now()
	var candidates []*entity.CandidateEvent
	retryErr := retry.WithBackoff(ctx, e.retryConfig, func() error {
		cbResult, err := e.circuitBreaker.Execute(func() (interface{}, error) {
			return e.doFetch(ctx, source, feedURL)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("feed fetch circuit breaker open, request rejected",
					slog.String("url", feedURL),
					slog.String("state", e.circuitBreaker.State().String()))
			}
			return err
		}
		candidates = cbResult.([]*entity.CandidateEvent)
		return nil
	})
	if retryErr != nil {
		metrics.RecordFetchFailed(time.Since(started))
		return nil, retryErr
	}

	metrics.RecordFetchSuccess(time.Since(started))
	return candidates, nil
}

// doFetch performs one fetch-and-parse without retry or circuit breaker.
func (e *FeedExtractor) doFetch(ctx context.Context, source *entity.EventSource, feedURL string) ([]*entity.CandidateEvent, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = userAgent
	fp.Client = e.client

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	candidates := make([]*entity.CandidateEvent, 0, len(feed.Items))
	for _, it := range feed.Items {
		// Content優先、なければDescriptionを使用
		description := it.Content
		if description == "" {
			description = it.Description
		}

		var start *time.Time
		if it.PublishedParsed != nil {
			t := *it.PublishedParsed
			start = &t
		}

		var image string
		if it.Image != nil {
			image = it.Image.URL
		} else if len(it.Enclosures) > 0 {
			image = it.Enclosures[0].URL
		}

		candidates = append(candidates, &entity.CandidateEvent{
			SourceID:    source.ID,
			Title:       it.Title,
			Description: description,
			StartTime:   start,
			SourceURL:   it.Link,
			ImageURL:    image,
			ExtractedAt: now,
		})
	}
	return candidates, nil
}
