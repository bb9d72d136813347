package fetcher_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"event-harvest/internal/infra/extractor"
	"event-harvest/internal/infra/fetcher"
)

// ReadabilityFetcher must plug into the HTML extractor's enrichment hook.
var _ extractor.DescriptionFetcher = (*fetcher.ReadabilityFetcher)(nil)

// articlePage builds a detail page with enough body text for Readability
// to treat it as the main content.
func articlePage(paragraph string, repeats int) string {
	var b strings.Builder
	b.WriteString(`<html><head><title>Lantern Festival</title></head><body><article><h1>Lantern Festival</h1>`)
	for i := 0; i < repeats; i++ {
		b.WriteString("<p>")
		b.WriteString(paragraph)
		b.WriteString("</p>")
	}
	b.WriteString(`</article></body></html>`)
	return b.String()
}

// testConfig allows fetching from httptest servers, which listen on loopback.
func testConfig() fetcher.DetailFetchConfig {
	cfg := fetcher.DefaultConfig()
	cfg.DenyPrivateIPs = false
	return cfg
}

func TestFetchDescription_Success(t *testing.T) {
	paragraph := "Hundreds of handmade lanterns line the canal while local bands play on three floating stages throughout the evening."
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(articlePage(paragraph, 8)))
	}))
	defer server.Close()

	f := fetcher.NewReadabilityFetcher(testConfig())
	text, err := f.FetchDescription(context.Background(), server.URL+"/events/lantern")
	if err != nil {
		t.Fatalf("FetchDescription() error = %v", err)
	}
	if !strings.Contains(text, "handmade lanterns") {
		t.Errorf("extracted text missing article body: %q", text)
	}
	if strings.Contains(text, "<p>") {
		t.Errorf("extracted text contains HTML tags: %q", text)
	}
}

func TestFetchDescription_TruncatesLongText(t *testing.T) {
	paragraph := strings.Repeat("The festival runs from dusk until midnight with food stalls along the towpath. ", 10)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(articlePage(paragraph, 10)))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.MaxDescriptionLength = 200
	f := fetcher.NewReadabilityFetcher(cfg)

	text, err := f.FetchDescription(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("FetchDescription() error = %v", err)
	}
	// 上限200ルーン + 省略記号
	if len([]rune(text)) > 203 {
		t.Errorf("text length = %d runes, want <= 203", len([]rune(text)))
	}
	if !strings.HasSuffix(text, "...") {
		t.Errorf("truncated text must end with ellipsis: %q", text)
	}
}

func TestFetchDescription_PrivateIPBlocked(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(articlePage("should never be fetched", 5)))
	}))
	defer server.Close()

	cfg := fetcher.DefaultConfig() // DenyPrivateIPs: true
	f := fetcher.NewReadabilityFetcher(cfg)

	_, err := f.FetchDescription(context.Background(), server.URL)
	if !errors.Is(err, fetcher.ErrPrivateIP) {
		t.Errorf("error = %v, want ErrPrivateIP", err)
	}
}

func TestFetchDescription_InvalidScheme(t *testing.T) {
	f := fetcher.NewReadabilityFetcher(testConfig())

	_, err := f.FetchDescription(context.Background(), "ftp://example.com/page")
	if !errors.Is(err, fetcher.ErrInvalidURL) {
		t.Errorf("error = %v, want ErrInvalidURL", err)
	}
}

func TestFetchDescription_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	f := fetcher.NewReadabilityFetcher(testConfig())
	if _, err := f.FetchDescription(context.Background(), server.URL); err == nil {
		t.Fatal("want error on HTTP 500, got nil")
	}
}

func TestFetchDescription_BodyTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(articlePage(strings.Repeat("x", 1000), 10)))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.MaxBodySize = 2048
	f := fetcher.NewReadabilityFetcher(cfg)

	_, err := f.FetchDescription(context.Background(), server.URL)
	if !errors.Is(err, fetcher.ErrBodyTooLarge) {
		t.Errorf("error = %v, want ErrBodyTooLarge", err)
	}
}

func TestFetchDescription_TooManyRedirects(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.MaxRedirects = 2
	f := fetcher.NewReadabilityFetcher(cfg)

	_, err := f.FetchDescription(context.Background(), server.URL)
	if !errors.Is(err, fetcher.ErrTooManyRedirects) {
		t.Errorf("error = %v, want ErrTooManyRedirects", err)
	}
}
