package dispatch

import (
	"context"
	"encoding/json"

	"github.com/tinywideclouds/go-notification-relay/pkg/notification"
)

// Registry defines the contract for storing the single push token of each user.
type Registry interface {
	// Register inserts or replaces the registration keyed by UserID.
	// It must be atomic: concurrent registrations for one user resolve to the last write.
	Register(ctx context.Context, reg notification.DeviceRegistration) (*notification.DeviceRegistration, error)

	// Lookup returns the registration for userID or an error matching notification.ErrNotFound.
	Lookup(ctx context.Context, userID string) (*notification.DeviceRegistration, error)

	// Delete removes the registration for userID or returns notification.ErrNotFound.
	Delete(ctx context.Context, userID string) error
}

// Sender defines the contract for the outbound push provider.
type Sender interface {
	// Send delivers one notification to one push token and returns the
	// provider's raw response body. data may be nil.
	Send(ctx context.Context, pushToken, title, message string, data any) (json.RawMessage, error)
}

// Notifier is the dispatcher surface used by the HTTP layer.
type Notifier interface {
	NotifyUser(ctx context.Context, userID, title, message string) (json.RawMessage, error)
	NotifyFileWorkflowEvent(ctx context.Context, event notification.FileWorkflowEvent) (json.RawMessage, error)
}
