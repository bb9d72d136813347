package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"event-harvest/internal/domain/entity"
)

func deactivatedSource() *entity.EventSource {
	return &entity.EventSource{
		ID:         "3f0e8d0a-6a31-4c9c-9a51-2f4f0f5d8b11",
		Name:       "City Calendar",
		BaseURL:    "https://city.example.com/events",
		SourceType: entity.SourceTypeHTML,
		Active:     false,
		ErrorCount: 3,
		LastError:  "no items found with selector: div.event",
	}
}

func newDiscordTestNotifier(url string) *DiscordNotifier {
	n := NewDiscordNotifier(DiscordConfig{
		Enabled:    true,
		WebhookURL: url,
		Timeout:    5 * time.Second,
	})
	// テストを高速化するためレート制限を緩める
	n.rateLimiter = NewRateLimiter(100.0, 10)
	return n
}

func TestDiscordNotifier_NotifySourceDeactivated(t *testing.T) {
	t.Run("TC-1: should send embed with source details", func(t *testing.T) {
		var got DiscordWebhookPayload
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("method = %s, want POST", r.Method)
			}
			if ct := r.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %s, want application/json", ct)
			}
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Errorf("decode payload: %v", err)
			}
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		n := newDiscordTestNotifier(server.URL)
		err := n.NotifySourceDeactivated(context.Background(), deactivatedSource(), "3 consecutive scrape failures")
		if err != nil {
			t.Fatalf("NotifySourceDeactivated() error = %v", err)
		}

		if len(got.Embeds) != 1 {
			t.Fatalf("embeds length = %d, want 1", len(got.Embeds))
		}
		embed := got.Embeds[0]
		if embed.Title != "Source deactivated: City Calendar" {
			t.Errorf("Title = %q", embed.Title)
		}
		if !strings.Contains(embed.Description, "3 consecutive scrape failures") {
			t.Errorf("Description missing reason: %q", embed.Description)
		}
		if !strings.Contains(embed.Description, "no items found with selector") {
			t.Errorf("Description missing last error: %q", embed.Description)
		}
		if embed.URL != "https://city.example.com/events" {
			t.Errorf("URL = %q", embed.URL)
		}
		if embed.Color != discordRedColor {
			t.Errorf("Color = %d, want red alert color %d", embed.Color, discordRedColor)
		}
		if !strings.Contains(embed.Footer.Text, "3 consecutive errors") {
			t.Errorf("Footer = %q", embed.Footer.Text)
		}
	})

	t.Run("TC-2: should not retry on 4xx client error", func(t *testing.T) {
		var requests int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			atomic.AddInt32(&requests, 1)
			http.Error(w, `{"message":"Invalid Webhook Token","code":50027}`, http.StatusUnauthorized)
		}))
		defer server.Close()

		n := newDiscordTestNotifier(server.URL)
		err := n.NotifySourceDeactivated(context.Background(), deactivatedSource(), "failures")
		if err == nil {
			t.Fatal("want error on 401, got nil")
		}
		if got := atomic.LoadInt32(&requests); got != 1 {
			t.Errorf("request count = %d, want 1 (no retry on client error)", got)
		}
	})

	t.Run("TC-3: should retry after 429 with retry_after from body", func(t *testing.T) {
		var requests int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if atomic.AddInt32(&requests, 1) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"message":"You are being rate limited.","retry_after":0.05}`))
				return
			}
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		n := newDiscordTestNotifier(server.URL)
		err := n.NotifySourceDeactivated(context.Background(), deactivatedSource(), "failures")
		if err != nil {
			t.Fatalf("NotifySourceDeactivated() error = %v", err)
		}
		if got := atomic.LoadInt32(&requests); got != 2 {
			t.Errorf("request count = %d, want 2", got)
		}
	})

	t.Run("TC-4: should truncate oversized last error", func(t *testing.T) {
		var got DiscordWebhookPayload
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&got)
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		source := deactivatedSource()
		source.LastError = strings.Repeat("x", 5000)

		n := newDiscordTestNotifier(server.URL)
		if err := n.NotifySourceDeactivated(context.Background(), source, "failures"); err != nil {
			t.Fatalf("NotifySourceDeactivated() error = %v", err)
		}

		if len(got.Embeds) != 1 {
			t.Fatalf("embeds length = %d, want 1", len(got.Embeds))
		}
		if len(got.Embeds[0].Description) > maxDescriptionLength {
			t.Errorf("Description length = %d, want <= %d", len(got.Embeds[0].Description), maxDescriptionLength)
		}
		if !strings.HasSuffix(got.Embeds[0].Description, truncationSuffix) {
			t.Error("truncated description must end with suffix")
		}
	})
}

func TestExtractRetryAfter(t *testing.T) {
	t.Run("TC-1: should prefer retry_after from JSON body", func(t *testing.T) {
		resp := &http.Response{Header: http.Header{"Retry-After": []string{"10"}}}
		got := extractRetryAfter(resp, []byte(`{"retry_after":2.5}`))
		if got != 2500*time.Millisecond {
			t.Errorf("retry after = %v, want 2.5s", got)
		}
	})

	t.Run("TC-2: should fall back to Retry-After header", func(t *testing.T) {
		resp := &http.Response{Header: http.Header{"Retry-After": []string{"7"}}}
		got := extractRetryAfter(resp, []byte(`not json`))
		if got != 7*time.Second {
			t.Errorf("retry after = %v, want 7s", got)
		}
	})

	t.Run("TC-3: should default to 5 seconds", func(t *testing.T) {
		resp := &http.Response{Header: http.Header{}}
		got := extractRetryAfter(resp, nil)
		if got != 5*time.Second {
			t.Errorf("retry after = %v, want 5s", got)
		}
	})
}
