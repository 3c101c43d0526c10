package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tinywideclouds/go-notification-relay/internal/api"
	"github.com/tinywideclouds/go-notification-relay/pkg/notification"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyUser(ctx context.Context, userID, title, message string) (json.RawMessage, error) {
	args := m.Called(ctx, userID, title, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *mockNotifier) NotifyFileWorkflowEvent(ctx context.Context, event notification.FileWorkflowEvent) (json.RawMessage, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func TestNotify(t *testing.T) {
	logger := newTestLogger()

	t.Run("Success - provider result is returned", func(t *testing.T) {
		notifier := new(mockNotifier)
		notifier.On("NotifyUser", mock.Anything, "u1", "Hi", "Msg").
			Return(json.RawMessage(`{"id":"n1","recipients":1}`), nil)

		req := httptest.NewRequest(http.MethodPost, "/api/notify", strings.NewReader(`{"userId":"u1","title":"Hi","message":"Msg"}`))
		rr := httptest.NewRecorder()
		api.NewNotifyAPI(notifier, logger).Notify(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"success":true,"result":{"id":"n1","recipients":1}}`, rr.Body.String())
	})

	t.Run("Unknown user is 404", func(t *testing.T) {
		notifier := new(mockNotifier)
		notifier.On("NotifyUser", mock.Anything, "ghost", "Hi", "Msg").
			Return(nil, fmt.Errorf("lookup: %w", notification.ErrNotFound))

		req := httptest.NewRequest(http.MethodPost, "/api/notify", strings.NewReader(`{"userId":"ghost","title":"Hi","message":"Msg"}`))
		rr := httptest.NewRecorder()
		api.NewNotifyAPI(notifier, logger).Notify(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "Device not found", decodeError(t, rr).Error)
	})

	t.Run("Missing parameters are 400 with details", func(t *testing.T) {
		notifier := new(mockNotifier)
		notifier.On("NotifyUser", mock.Anything, "u1", "", "Msg").
			Return(nil, notification.NewValidationError("Missing required notification parameters", "title"))

		req := httptest.NewRequest(http.MethodPost, "/api/notify", strings.NewReader(`{"userId":"u1","message":"Msg"}`))
		rr := httptest.NewRecorder()
		api.NewNotifyAPI(notifier, logger).Notify(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		body := decodeError(t, rr)
		assert.Equal(t, "Missing required notification parameters", body.Error)
		assert.Equal(t, []string{"title"}, body.Details)
	})

	t.Run("Configuration and delivery errors are 500", func(t *testing.T) {
		for _, cause := range []error{notification.ErrConfiguration, notification.ErrDelivery} {
			notifier := new(mockNotifier)
			notifier.On("NotifyUser", mock.Anything, "u1", "Hi", "Msg").Return(nil, cause)

			req := httptest.NewRequest(http.MethodPost, "/api/notify", strings.NewReader(`{"userId":"u1","title":"Hi","message":"Msg"}`))
			rr := httptest.NewRecorder()
			api.NewNotifyAPI(notifier, logger).Notify(rr, req)

			assert.Equal(t, http.StatusInternalServerError, rr.Code)
			assert.Equal(t, "Failed to send notification", decodeError(t, rr).Error)
		}
	})
}

func TestNotifyFileUpload(t *testing.T) {
	logger := newTestLogger()

	t.Run("Decodes event and additionalData", func(t *testing.T) {
		notifier := new(mockNotifier)
		isEvent := mock.MatchedBy(func(e notification.FileWorkflowEvent) bool {
			return e.ReceiverID == "r1" && e.SenderID == "s1" &&
				e.FileName == "a.pdf" && e.FileID == "f1" &&
				e.WorkflowData != nil && e.WorkflowData.StepNumber == notification.IntValue(3)
		})
		notifier.On("NotifyFileWorkflowEvent", mock.Anything, isEvent).
			Return(json.RawMessage(`{"id":"n2"}`), nil)

		body := `{"receiverId":"r1","senderId":"s1","fileName":"a.pdf","fileId":"f1","additionalData":{"stepNumber":3}}`
		req := httptest.NewRequest(http.MethodPost, "/api/notify-file-upload", strings.NewReader(body))
		rr := httptest.NewRecorder()
		api.NewNotifyAPI(notifier, logger).NotifyFileUpload(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"success":true,"result":{"id":"n2"}}`, rr.Body.String())
		notifier.AssertExpectations(t)
	})

	t.Run("Numeric identifiers and a string status are accepted", func(t *testing.T) {
		notifier := new(mockNotifier)
		isEvent := mock.MatchedBy(func(e notification.FileWorkflowEvent) bool {
			return e.ReceiverID == "42" && e.SenderID == "7" &&
				e.FileName == "a.pdf" && e.FileID == "99" &&
				e.WorkflowData != nil && e.WorkflowData.Status == notification.IntValue(2)
		})
		notifier.On("NotifyFileWorkflowEvent", mock.Anything, isEvent).
			Return(json.RawMessage(`{"id":"n3"}`), nil)

		body := `{"receiverId":"42","senderId":7,"fileName":"a.pdf","fileId":99,"additionalData":{"status":"2"}}`
		req := httptest.NewRequest(http.MethodPost, "/api/notify-file-upload", strings.NewReader(body))
		rr := httptest.NewRecorder()
		api.NewNotifyAPI(notifier, logger).NotifyFileUpload(rr, req)

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		notifier.AssertExpectations(t)
	})

	t.Run("Unusable status falls back instead of rejecting", func(t *testing.T) {
		notifier := new(mockNotifier)
		isEvent := mock.MatchedBy(func(e notification.FileWorkflowEvent) bool {
			return e.WorkflowData != nil && !e.WorkflowData.Status.Set && !e.WorkflowData.StepNumber.Set
		})
		notifier.On("NotifyFileWorkflowEvent", mock.Anything, isEvent).
			Return(json.RawMessage(`{"id":"n4"}`), nil)

		body := `{"receiverId":"r1","senderId":"s1","fileName":"a.pdf","fileId":"f1","additionalData":{"status":"pending","stepNumber":{"n":1}}}`
		req := httptest.NewRequest(http.MethodPost, "/api/notify-file-upload", strings.NewReader(body))
		rr := httptest.NewRecorder()
		api.NewNotifyAPI(notifier, logger).NotifyFileUpload(rr, req)

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		notifier.AssertExpectations(t)
	})

	t.Run("Unknown receiver is 404", func(t *testing.T) {
		notifier := new(mockNotifier)
		notifier.On("NotifyFileWorkflowEvent", mock.Anything, mock.Anything).
			Return(nil, notification.ErrNotFound)

		body := `{"receiverId":"r1","senderId":"s1","fileName":"a.pdf","fileId":"f1"}`
		req := httptest.NewRequest(http.MethodPost, "/api/notify-file-upload", strings.NewReader(body))
		rr := httptest.NewRecorder()
		api.NewNotifyAPI(notifier, logger).NotifyFileUpload(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "Receiver device not found", decodeError(t, rr).Error)
	})

	t.Run("Malformed JSON never reaches the dispatcher", func(t *testing.T) {
		notifier := new(mockNotifier)

		req := httptest.NewRequest(http.MethodPost, "/api/notify-file-upload", strings.NewReader(`[`))
		rr := httptest.NewRecorder()
		api.NewNotifyAPI(notifier, logger).NotifyFileUpload(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		notifier.AssertNotCalled(t, "NotifyFileWorkflowEvent", mock.Anything, mock.Anything)
	})
}
