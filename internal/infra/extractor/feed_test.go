package extractor_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"event-harvest/internal/domain/entity"
	"event-harvest/internal/infra/extractor"
)

func feedServer(t *testing.T, payload string, contentType string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		if _, err := w.Write([]byte(payload)); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}))
}

func TestFeedExtractor_Extract_Success(t *testing.T) {
	// モックRSSフィードを提供するHTTPサーバー
	rss := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>City Events</title>
    <link>https://example.com</link>
    <description>Upcoming events</description>
    <item>
      <title>Jazz Night</title>
      <link>https://example.com/jazz-night</link>
      <description>Live jazz at the riverfront</description>
      <pubDate>Fri, 04 Sep 2026 18:00:00 +0000</pubDate>
    </item>
    <item>
      <title>Art Walk</title>
      <link>https://example.com/art-walk</link>
      <description>Galleries open late</description>
      <pubDate>Sat, 05 Sep 2026 17:00:00 +0000</pubDate>
    </item>
  </channel>
</rss>`
	server := feedServer(t, rss, "application/rss+xml")
	defer server.Close()

	client := &http.Client{Timeout: 10 * time.Second}
	e := extractor.NewFeedExtractor(client)
	source := &entity.EventSource{ID: "src-1", Name: "City Events", BaseURL: server.URL, SourceType: entity.SourceTypeFeed}

	candidates, err := e.Extract(context.Background(), source)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("candidates length = %d, want 2", len(candidates))
	}

	if candidates[0].Title != "Jazz Night" {
		t.Errorf("candidates[0].Title = %q, want %q", candidates[0].Title, "Jazz Night")
	}
	if candidates[0].SourceID != "src-1" {
		t.Errorf("candidates[0].SourceID = %q, want src-1", candidates[0].SourceID)
	}
	if candidates[0].SourceURL != "https://example.com/jazz-night" {
		t.Errorf("candidates[0].SourceURL = %q", candidates[0].SourceURL)
	}
	if candidates[0].Description != "Live jazz at the riverfront" {
		t.Errorf("candidates[0].Description = %q", candidates[0].Description)
	}
	if candidates[0].StartTime == nil {
		t.Fatal("candidates[0].StartTime must come from pubDate")
	}
	want := time.Date(2026, 9, 4, 18, 0, 0, 0, time.UTC)
	if !candidates[0].StartTime.Equal(want) {
		t.Errorf("candidates[0].StartTime = %v, want %v", candidates[0].StartTime, want)
	}
	if candidates[0].ExtractedAt.IsZero() {
		t.Error("ExtractedAt must be stamped")
	}
}

func TestFeedExtractor_Extract_FeedURLOverride(t *testing.T) {
	rss := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Feed</title>
    <item>
      <title>One Event</title>
      <link>https://example.com/one</link>
    </item>
  </channel>
</rss>`
	server := feedServer(t, rss, "application/rss+xml")
	defer server.Close()

	e := extractor.NewFeedExtractor(&http.Client{Timeout: 10 * time.Second})
	source := &entity.EventSource{
		ID:      "src-1",
		Name:    "Override",
		BaseURL: "https://unreachable.invalid",
		ScrapeConfig: &entity.ScrapeConfig{
			FeedURL: server.URL,
		},
	}

	candidates, err := e.Extract(context.Background(), source)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(candidates) != 1 || candidates[0].Title != "One Event" {
		t.Errorf("feed_url override not honored: %+v", candidates)
	}
}

func TestFeedExtractor_Extract_InvalidPayload(t *testing.T) {
	server := feedServer(t, "not a feed at all", "text/plain")
	defer server.Close()

	e := extractor.NewFeedExtractor(&http.Client{Timeout: 10 * time.Second})
	source := &entity.EventSource{ID: "src-1", Name: "Broken", BaseURL: server.URL}

	if _, err := e.Extract(context.Background(), source); err == nil {
		t.Fatal("want parse error, got nil")
	}
}

func TestRegistry_Dispatch(t *testing.T) {
	rss := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Feed</title>
    <item><title>Routed Event</title><link>https://example.com/e</link></item>
  </channel>
</rss>`
	server := feedServer(t, rss, "application/rss+xml")
	defer server.Close()

	reg := extractor.NewRegistry()
	reg.Register(entity.SourceTypeFeed, extractor.NewFeedExtractor(&http.Client{Timeout: 10 * time.Second}))

	feedSource := &entity.EventSource{ID: "src-1", Name: "Feed", BaseURL: server.URL, SourceType: entity.SourceTypeFeed}
	candidates, err := reg.Extract(context.Background(), feedSource)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(candidates) != 1 || candidates[0].Title != "Routed Event" {
		t.Errorf("dispatch failed: %+v", candidates)
	}

	htmlSource := &entity.EventSource{ID: "src-2", Name: "HTML", BaseURL: server.URL, SourceType: entity.SourceTypeHTML}
	if _, err := reg.Extract(context.Background(), htmlSource); err == nil {
		t.Error("unregistered source type must be an error")
	}
}
