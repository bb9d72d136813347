package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"event-harvest/internal/domain/entity"
	"event-harvest/internal/observability/metrics"
	"event-harvest/internal/resilience/circuitbreaker"
	"event-harvest/internal/resilience/retry"
	"event-harvest/internal/usecase/ingest"
)

const maxBodySize = 10 * 1024 * 1024 // 10MB

// HTMLExtractor turns server-rendered listing pages into candidate events.
// It uses goquery CSS selectors configured per source via ScrapeConfig.Options:
//
//	item      - selector for one event block (required)
//	title     - selector for the event title (required)
//	desc      - selector for the description
//	date      - selector for the start date text
//	date_format - Go time layout for the date text
//	end_date  - selector for the end date text
//	location  - selector for the venue text
//	price     - selector for the price text
//	url       - selector for the detail link (href attribute)
//	url_prefix - base used to absolutize relative links
//	image     - selector for the image (src attribute)
type HTMLExtractor struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	limiter        *rate.Limiter
	descFetcher    DescriptionFetcher
}

// DescriptionFetcher enriches a candidate with readable text from its detail
// page. Optional; the extractor works without one.
type DescriptionFetcher interface {
	FetchDescription(ctx context.Context, pageURL string) (string, error)
}

var _ ingest.Extractor = (*HTMLExtractor)(nil)

// NewHTMLExtractor creates an HTML extractor with the given HTTP client.
// It automatically configures circuit breaker, retry, and rate limiting.
func NewHTMLExtractor(client *http.Client) *HTMLExtractor {
	return &HTMLExtractor{
		client:         client,
		circuitBreaker: circuitbreaker.New(circuitbreaker.WebScraperConfig()),
		retryConfig:    retry.WebScraperConfig(),
		limiter:        rate.NewLimiter(defaultFetchRate, 1),
	}
}

// WithDescriptionFetcher installs a detail-page description fetcher.
// When set, candidates whose listing block has no description get their
// description from the detail page instead.
func (e *HTMLExtractor) WithDescriptionFetcher(f DescriptionFetcher) *HTMLExtractor {
	e.descFetcher = f
	return e
}

// Extract fetches the source's listing page and maps each item to a candidate.
func (e *HTMLExtractor) Extract(ctx context.Context, source *entity.EventSource) ([]*entity.CandidateEvent, error) {
	opts := map[string]string{}
	if source.ScrapeConfig != nil && source.ScrapeConfig.Options != nil {
		opts = source.ScrapeConfig.Options
	}
	if opts["item"] == "" || opts["title"] == "" {
		return nil, errors.New("html extractor requires item and title selectors")
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("fetch pacing: %w", err)
	}

	started := time.Now()
	var candidates []*entity.CandidateEvent
	retryErr := retry.WithBackoff(ctx, e.retryConfig, func() error {
		cbResult, err := e.circuitBreaker.Execute(func() (interface{}, error) {
			return e.doFetch(ctx, source, opts)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("html fetch circuit breaker open, request rejected",
					slog.String("url", source.BaseURL),
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
	e.enrichDescriptions(ctx, candidates)
	return candidates, nil
}

// doFetch performs one fetch-and-parse without retry or circuit breaker.
func (e *HTMLExtractor) doFetch(ctx context.Context, source *entity.EventSource, opts map[string]string) ([]*entity.CandidateEvent, error) {
	doc, err := e.fetchHTML(ctx, source.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("fetch HTML: %w", err)
	}

	now := time.Now()
	var candidates []*entity.CandidateEvent
	doc.Find(opts["item"]).Each(func(i int, itemEl *goquery.Selection) {
		title := strings.TrimSpace(itemEl.Find(opts["title"]).Text())
		if title == "" {
			slog.Debug("skipping item with empty title", slog.Int("index", i))
			return
		}

		c := &entity.CandidateEvent{
			SourceID:    source.ID,
			Title:       title,
			ExtractedAt: now,
		}

		if sel := opts["desc"]; sel != "" {
			c.Description = strings.TrimSpace(itemEl.Find(sel).Text())
		}
		if sel := opts["location"]; sel != "" {
			c.Location = strings.TrimSpace(itemEl.Find(sel).Text())
		}
		if sel := opts["price"]; sel != "" {
			c.Price = strings.TrimSpace(itemEl.Find(sel).Text())
		}
		if sel := opts["date"]; sel != "" {
			if t, ok := parseEventDate(strings.TrimSpace(itemEl.Find(sel).Text()), opts["date_format"]); ok {
				c.StartTime = &t
			}
		}
		if sel := opts["end_date"]; sel != "" {
			if t, ok := parseEventDate(strings.TrimSpace(itemEl.Find(sel).Text()), opts["date_format"]); ok {
				c.EndTime = &t
			}
		}
		if sel := opts["url"]; sel != "" {
			if href, exists := itemEl.Find(sel).Attr("href"); exists {
				c.SourceURL = makeAbsoluteURL(strings.TrimSpace(href), firstNonEmpty(opts["url_prefix"], source.BaseURL))
			}
		}
		if sel := opts["image"]; sel != "" {
			if src, exists := itemEl.Find(sel).Attr("src"); exists {
				c.ImageURL = makeAbsoluteURL(strings.TrimSpace(src), firstNonEmpty(opts["url_prefix"], source.BaseURL))
			}
		}

		candidates = append(candidates, c)
	})

	if len(candidates) == 0 {
		return nil, fmt.Errorf("no items found with selector: %s", opts["item"])
	}
	return candidates, nil
}

// fetchHTML fetches and parses HTML from the given URL.
func (e *HTMLExtractor) fetchHTML(ctx context.Context, urlStr string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

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

	// メモリ枯渇防止のためボディサイズを制限
	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}
	return doc, nil
}

// enrichDescriptions fills empty descriptions from detail pages.
// Failures are logged and ignored; the listing data is already usable.
func (e *HTMLExtractor) enrichDescriptions(ctx context.Context, candidates []*entity.CandidateEvent) {
	if e.descFetcher == nil {
		return
	}
	for _, c := range candidates {
		if c.Description != "" || c.SourceURL == "" {
			continue
		}
		text, err := e.descFetcher.FetchDescription(ctx, c.SourceURL)
		if err != nil {
			slog.Debug("detail page description fetch failed",
				slog.String("url", c.SourceURL),
				slog.Any("error", err))
			continue
		}
		c.Description = text
	}
}

// makeAbsoluteURL resolves href against base when href is relative.
func makeAbsoluteURL(href, base string) string {
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if u.IsAbs() {
		return href
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	return b.ResolveReference(u).String()
}

// parseEventDate parses a date string using the given layout, trying common
// layouts as fallback. Unlike feed timestamps, listing dates come in many
// shapes, so an unparseable date yields no StartTime rather than a guess.
func parseEventDate(dateStr, layout string) (time.Time, bool) {
	if dateStr == "" {
		return time.Time{}, false
	}

	layouts := []string{
		"2006-01-02",
		"2006-01-02T15:04:05Z",
		time.RFC3339,
		"Jan 2, 2006",
		"January 2, 2006",
		"2006/01/02",
	}
	if layout != "" {
		layouts = append([]string{layout}, layouts...)
	}

	for _, l := range layouts {
		if t, err := time.Parse(l, dateStr); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
