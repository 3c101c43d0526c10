// Package relay contains the notification dispatcher: it resolves the
// recipient's push token from the registry and hands one notification to the
// provider sender.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tinywideclouds/go-notification-relay/pkg/dispatch"
	"github.com/tinywideclouds/go-notification-relay/pkg/notification"
)

type Dispatcher struct {
	registry dispatch.Registry
	sender   dispatch.Sender
	logger   *slog.Logger
}

// NewDispatcher creates the dispatcher. It holds no mutable state; each call
// is independent.
func NewDispatcher(registry dispatch.Registry, sender dispatch.Sender, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		sender:   sender,
		logger:   logger.With("component", "Dispatcher"),
	}
}

// NotifyUser sends a plain title/message notification to userID.
func (d *Dispatcher) NotifyUser(ctx context.Context, userID, title, message string) (json.RawMessage, error) {
	if userID == "" {
		return nil, notification.NewValidationError("Missing required fields", "userId")
	}
	procLogger := d.logger.With("user_id", userID)

	device, err := d.registry.Lookup(ctx, userID)
	if err != nil {
		procLogger.Warn("Failed to resolve device", "err", err)
		return nil, fmt.Errorf("lookup %q: %w", userID, err)
	}

	result, err := d.sender.Send(ctx, device.PushToken, title, message, nil)
	if err != nil {
		procLogger.Error("Notification dispatch failed", "err", err)
		return nil, err
	}
	procLogger.Info("Notification dispatched")
	return result, nil
}

// NotifyFileWorkflowEvent tells the receiver of event that a document needs
// review. The four identifying fields are validated before the registry is
// consulted.
func (d *Dispatcher) NotifyFileWorkflowEvent(ctx context.Context, event notification.FileWorkflowEvent) (json.RawMessage, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}
	receiverID := event.ReceiverID.String()
	procLogger := d.logger.With(
		"receiver_id", receiverID,
		"sender_id", event.SenderID.String(),
		"file_id", event.FileID.String(),
	)

	device, err := d.registry.Lookup(ctx, receiverID)
	if err != nil {
		procLogger.Warn("Failed to resolve receiver device", "err", err)
		return nil, fmt.Errorf("lookup receiver %q: %w", receiverID, err)
	}

	payload := notification.BuildWorkflowPayload(event)
	result, err := d.sender.Send(
		ctx,
		device.PushToken,
		notification.FileWorkflowTitle,
		notification.FileWorkflowMessage(event.FileName.String()),
		payload,
	)
	if err != nil {
		procLogger.Error("Workflow notification dispatch failed", "err", err)
		return nil, err
	}
	procLogger.Info("Workflow notification dispatched", "step", payload.StepNumber, "status", payload.Status)
	return result, nil
}
