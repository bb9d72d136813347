// Package notifier sends operational alerts when the ingestion pipeline
// deactivates an event source. It defines the Notifier interface which
// allows different channels (Discord, Slack) to be used interchangeably
// through dependency injection, plus a no-op notifier for when alerts
// are disabled.
package notifier

import (
	"context"
	"os"
	"time"

	"event-harvest/internal/domain/entity"
)

// Notifier is an interface for sending source deactivation alerts.
// Implementations should handle rate limiting, retries, and error logging
// internally.
type Notifier interface {
	// NotifySourceDeactivated reports that a source was automatically
	// deactivated, typically after consecutive scrape failures. The alert
	// should include the source identity and the reason so an operator can
	// decide whether to fix the source configuration or retire it.
	//
	// Implementations should:
	//   - Generate a unique request ID for tracing
	//   - Apply rate limiting to protect the webhook endpoint
	//   - Retry transient failures with backoff
	//   - Respect context cancellation
	NotifySourceDeactivated(ctx context.Context, source *entity.EventSource, reason string) error
}

// FromEnv builds a Notifier from environment variables. The first
// configured channel wins: SLACK_WEBHOOK_URL, then DISCORD_WEBHOOK_URL.
// With neither set, alerts are silently dropped via the no-op notifier.
func FromEnv() Notifier {
	if url := os.Getenv("SLACK_WEBHOOK_URL"); url != "" {
		return NewSlackNotifier(SlackConfig{
			Enabled:    true,
			WebhookURL: url,
			Timeout:    10 * time.Second,
		})
	}
	if url := os.Getenv("DISCORD_WEBHOOK_URL"); url != "" {
		return NewDiscordNotifier(DiscordConfig{
			Enabled:    true,
			WebhookURL: url,
			Timeout:    10 * time.Second,
		})
	}
	return NewNoOpNotifier()
}
