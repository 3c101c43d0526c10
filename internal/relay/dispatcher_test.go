package relay_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tinywideclouds/go-notification-relay/internal/relay"
	"github.com/tinywideclouds/go-notification-relay/pkg/notification"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Mocks ---

type mockRegistry struct {
	mock.Mock
}

func (m *mockRegistry) Register(ctx context.Context, reg notification.DeviceRegistration) (*notification.DeviceRegistration, error) {
	args := m.Called(ctx, reg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notification.DeviceRegistration), args.Error(1)
}

func (m *mockRegistry) Lookup(ctx context.Context, userID string) (*notification.DeviceRegistration, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notification.DeviceRegistration), args.Error(1)
}

func (m *mockRegistry) Delete(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, pushToken, title, message string, data any) (json.RawMessage, error) {
	args := m.Called(ctx, pushToken, title, message, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

// --- Tests ---

func TestNotifyUser(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()

	t.Run("Sends minimal payload to the registered token", func(t *testing.T) {
		registry := new(mockRegistry)
		sender := new(mockSender)

		registry.On("Lookup", mock.Anything, "u1").
			Return(&notification.DeviceRegistration{UserID: "u1", PushToken: "p1"}, nil)
		sender.On("Send", mock.Anything, "p1", "Hi", "Msg", nil).
			Return(json.RawMessage(`{"id":"n1"}`), nil)

		d := relay.NewDispatcher(registry, sender, logger)
		result, err := d.NotifyUser(ctx, "u1", "Hi", "Msg")

		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"n1"}`, string(result))
		registry.AssertExpectations(t)
		sender.AssertExpectations(t)
	})

	t.Run("Unregistered user never reaches the provider", func(t *testing.T) {
		registry := new(mockRegistry)
		sender := new(mockSender)

		registry.On("Lookup", mock.Anything, "ghost").Return(nil, notification.ErrNotFound)

		d := relay.NewDispatcher(registry, sender, logger)
		_, err := d.NotifyUser(ctx, "ghost", "Hi", "Msg")

		require.Error(t, err)
		assert.True(t, errors.Is(err, notification.ErrNotFound))
		sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Empty user id is a validation error", func(t *testing.T) {
		registry := new(mockRegistry)
		sender := new(mockSender)

		d := relay.NewDispatcher(registry, sender, logger)
		_, err := d.NotifyUser(ctx, "", "Hi", "Msg")

		assert.True(t, errors.Is(err, notification.ErrValidation))
		registry.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
	})

	t.Run("Provider failure is passed through unchanged", func(t *testing.T) {
		registry := new(mockRegistry)
		sender := new(mockSender)

		registry.On("Lookup", mock.Anything, "u1").
			Return(&notification.DeviceRegistration{UserID: "u1", PushToken: "p1"}, nil)
		sender.On("Send", mock.Anything, "p1", "Hi", "Msg", nil).Return(nil, notification.ErrDelivery)

		d := relay.NewDispatcher(registry, sender, logger)
		_, err := d.NotifyUser(ctx, "u1", "Hi", "Msg")

		assert.ErrorIs(t, err, notification.ErrDelivery)
	})
}

func TestNotifyFileWorkflowEvent(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()

	validEvent := func() notification.FileWorkflowEvent {
		return notification.FileWorkflowEvent{
			ReceiverID: "approver-1",
			SenderID:   "owner-1",
			FileName:   "invoice.pdf",
			FileID:     "file-7",
			WorkflowData: &notification.WorkflowInput{
				OwnerDetails: &notification.OwnerDetails{
					OwnerUser: &notification.UserSummary{ID: "u1", DisplayName: "Ali", ArabicDisplayName: "علي"},
				},
			},
		}
	}

	t.Run("Composes the workflow payload and fixed texts", func(t *testing.T) {
		registry := new(mockRegistry)
		sender := new(mockSender)

		registry.On("Lookup", mock.Anything, "approver-1").
			Return(&notification.DeviceRegistration{UserID: "approver-1", PushToken: "player-9"}, nil)

		isExpectedPayload := mock.MatchedBy(func(data any) bool {
			p, ok := data.(notification.WorkflowPayload)
			return ok &&
				p.ID == "file-7" &&
				p.FileOwnerName == "Ali" &&
				p.FileOwnerArabicName == "علي" &&
				p.ResponsibleName == "" &&
				p.OwnerDetails.AuthRequiredFromUser == nil &&
				p.AuthRequired && p.CanForward && p.CanChangeResponsibleByManager && p.CanReject &&
				p.Status == 0 && p.StepNumber == 1
		})
		sender.On("Send", mock.Anything, "player-9",
			"Document Authentication Required",
			`A new document "invoice.pdf" requires your review`,
			isExpectedPayload,
		).Return(json.RawMessage(`{"id":"n2"}`), nil)

		d := relay.NewDispatcher(registry, sender, logger)
		result, err := d.NotifyFileWorkflowEvent(ctx, validEvent())

		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"n2"}`, string(result))
		sender.AssertExpectations(t)
	})

	t.Run("Missing identifying fields fail before any lookup", func(t *testing.T) {
		mutations := map[string]func(e *notification.FileWorkflowEvent){
			"receiverId": func(e *notification.FileWorkflowEvent) { e.ReceiverID = "" },
			"senderId":   func(e *notification.FileWorkflowEvent) { e.SenderID = "" },
			"fileName":   func(e *notification.FileWorkflowEvent) { e.FileName = "" },
			"fileId":     func(e *notification.FileWorkflowEvent) { e.FileID = "" },
		}
		for field, mutate := range mutations {
			t.Run(field, func(t *testing.T) {
				registry := new(mockRegistry)
				sender := new(mockSender)
				event := validEvent()
				mutate(&event)

				d := relay.NewDispatcher(registry, sender, logger)
				_, err := d.NotifyFileWorkflowEvent(ctx, event)

				require.Error(t, err)
				assert.True(t, errors.Is(err, notification.ErrValidation))
				registry.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
				sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			})
		}
	})

	t.Run("Unknown receiver is not found", func(t *testing.T) {
		registry := new(mockRegistry)
		sender := new(mockSender)

		registry.On("Lookup", mock.Anything, "approver-1").Return(nil, notification.ErrNotFound)

		d := relay.NewDispatcher(registry, sender, logger)
		_, err := d.NotifyFileWorkflowEvent(ctx, validEvent())

		assert.ErrorIs(t, err, notification.ErrNotFound)
		sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
