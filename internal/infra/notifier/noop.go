package notifier

import (
	"context"

	"event-harvest/internal/domain/entity"
)

// NoOpNotifier is a no-operation implementation of the Notifier interface.
// It is used when alerts are disabled to avoid nil checks in the code.
// This follows the Null Object pattern.
type NoOpNotifier struct{}

// NewNoOpNotifier creates a new NoOpNotifier instance.
func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

// NotifySourceDeactivated does nothing and returns nil immediately.
func (n *NoOpNotifier) NotifySourceDeactivated(_ context.Context, _ *entity.EventSource, _ string) error {
	return nil
}
