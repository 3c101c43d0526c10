package api

import (
	"log/slog"
	"net/http"

	"github.com/tinywideclouds/go-notification-relay/pkg/dispatch"
	"github.com/tinywideclouds/go-notification-relay/pkg/notification"
)

const sendFailedMessage = "Failed to send notification"

type NotifyAPI struct {
	Notifier dispatch.Notifier
	Logger   *slog.Logger
}

func NewNotifyAPI(notifier dispatch.Notifier, logger *slog.Logger) *NotifyAPI {
	return &NotifyAPI{
		Notifier: notifier,
		Logger:   logger.With("component", "NotifyAPI"),
	}
}

type NotifyRequest struct {
	UserID  notification.Text `json:"userId"`
	Title   notification.Text `json:"title"`
	Message notification.Text `json:"message"`
}

func (api *NotifyAPI) Notify(w http.ResponseWriter, r *http.Request) {
	var req NotifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, api.Logger, err, "", sendFailedMessage)
		return
	}

	result, err := api.Notifier.NotifyUser(r.Context(), req.UserID.String(), req.Title.String(), req.Message.String())
	if err != nil {
		writeDomainError(w, api.Logger, err, "Device not found", sendFailedMessage)
		return
	}

	writeJSON(w, http.StatusOK, ResultResponse{Success: true, Result: result})
}

// NotifyFileUpload decodes straight into the domain event; its additionalData
// block becomes the workflow input.
func (api *NotifyAPI) NotifyFileUpload(w http.ResponseWriter, r *http.Request) {
	var event notification.FileWorkflowEvent
	if err := decodeJSON(r, &event); err != nil {
		writeDomainError(w, api.Logger, err, "", sendFailedMessage)
		return
	}

	result, err := api.Notifier.NotifyFileWorkflowEvent(r.Context(), event)
	if err != nil {
		writeDomainError(w, api.Logger, err, "Receiver device not found", sendFailedMessage)
		return
	}

	writeJSON(w, http.StatusOK, ResultResponse{Success: true, Result: result})
}
