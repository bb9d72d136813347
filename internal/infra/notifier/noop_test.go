package notifier

import (
	"context"
	"testing"
)

func TestNoOpNotifier_NotifySourceDeactivated(t *testing.T) {
	t.Run("TC-1: should return nil without error", func(t *testing.T) {
		n := NewNoOpNotifier()

		if err := n.NotifySourceDeactivated(context.Background(), deactivatedSource(), "failures"); err != nil {
			t.Errorf("NotifySourceDeactivated() = %v, want nil", err)
		}
	})

	t.Run("TC-2: should satisfy the Notifier interface", func(t *testing.T) {
		var _ Notifier = NewNoOpNotifier()
		var _ Notifier = NewSlackNotifier(SlackConfig{})
		var _ Notifier = NewDiscordNotifier(DiscordConfig{})
	})
}
