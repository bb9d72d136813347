package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"event-harvest/internal/domain/entity"
	"event-harvest/internal/observability/metrics"
	"event-harvest/internal/resilience/circuitbreaker"
	"event-harvest/internal/resilience/retry"
	"event-harvest/internal/usecase/ingest"
)

// APIExtractor turns JSON event endpoints into candidate events.
// The endpoint comes from ScrapeConfig.Endpoint (falling back to BaseURL)
// and must return either a JSON array of event objects or an object whose
// root key (Options["root"], default "events") holds that array.
//
// Field names are remappable via Options (title_field, desc_field,
// start_field, end_field, location_field, price_field, url_field,
// image_field, time_format) so one extractor serves many upstream schemas.
type APIExtractor struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	limiter        *rate.Limiter
}

var _ ingest.Extractor = (*APIExtractor)(nil)

// NewAPIExtractor creates a JSON API extractor with the given HTTP client.
func NewAPIExtractor(client *http.Client) *APIExtractor {
	return &APIExtractor{
		client:         client,
		circuitBreaker: circuitbreaker.New(circuitbreaker.APIFetchConfig()),
		retryConfig:    retry.APIFetchConfig(),
		limiter:        rate.NewLimiter(defaultFetchRate, 1),
	}
}

// Extract fetches the source's endpoint and maps each record to a candidate.
func (e *APIExtractor) Extract(ctx context.Context, source *entity.EventSource) ([]*entity.CandidateEvent, error) {
	endpoint := source.BaseURL
	if source.ScrapeConfig != nil && source.ScrapeConfig.Endpoint != "" {
		endpoint = source.ScrapeConfig.Endpoint
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("fetch pacing: %w", err)
	}

	started := time.Now()
	var candidates []*entity.CandidateEvent
	retryErr := retry.WithBackoff(ctx, e.retryConfig, func() error {
		cbResult, err := e.circuitBreaker.Execute(func() (interface{}, error) {
			return e.doFetch(ctx, source, endpoint)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("api fetch circuit breaker open, request rejected",
					slog.String("url", endpoint),
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

// doFetch performs one fetch-and-decode without retry or circuit breaker.
func (e *APIExtractor) doFetch(ctx context.Context, source *entity.EventSource, endpoint string) ([]*entity.CandidateEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected status: %s", resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	opts := map[string]string{}
	if source.ScrapeConfig != nil && source.ScrapeConfig.Options != nil {
		opts = source.ScrapeConfig.Options
	}

	records, err := decodeRecords(body, firstNonEmpty(opts["root"], "events"))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	candidates := make([]*entity.CandidateEvent, 0, len(records))
	for _, rec := range records {
		c := &entity.CandidateEvent{
			SourceID:    source.ID,
			Title:       stringField(rec, firstNonEmpty(opts["title_field"], "title")),
			Description: stringField(rec, firstNonEmpty(opts["desc_field"], "description")),
			Location:    stringField(rec, firstNonEmpty(opts["location_field"], "location")),
			Price:       stringField(rec, firstNonEmpty(opts["price_field"], "price")),
			SourceURL:   stringField(rec, firstNonEmpty(opts["url_field"], "url")),
			ImageURL:    stringField(rec, firstNonEmpty(opts["image_field"], "image_url")),
			ExtractedAt: now,
		}
		c.StartTime = timeField(rec, firstNonEmpty(opts["start_field"], "start_time"), opts["time_format"])
		c.EndTime = timeField(rec, firstNonEmpty(opts["end_field"], "end_time"), opts["time_format"])
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// decodeRecords accepts either a bare array or an object wrapping one.
func decodeRecords(body []byte, rootKey string) ([]map[string]interface{}, error) {
	var records []map[string]interface{}
	if err := json.Unmarshal(body, &records); err == nil {
		return records, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	raw, ok := wrapper[rootKey]
	if !ok {
		return nil, fmt.Errorf("response has no %q array", rootKey)
	}
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode %q array: %w", rootKey, err)
	}
	return records, nil
}

func stringField(rec map[string]interface{}, key string) string {
	if v, ok := rec[key].(string); ok {
		return v
	}
	return ""
}

// timeField parses a timestamp field, preferring the configured layout and
// falling back to RFC3339 then plain dates.
func timeField(rec map[string]interface{}, key, layout string) *time.Time {
	s := stringField(rec, key)
	if s == "" {
		return nil
	}
	if t, ok := parseEventDate(s, layout); ok {
		return &t
	}
	return nil
}
