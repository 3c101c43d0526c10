package api

import (
	"log/slog"
	"net/http"

	"github.com/tinywideclouds/go-notification-relay/pkg/dispatch"
	"github.com/tinywideclouds/go-notification-relay/pkg/notification"
)

type DeviceAPI struct {
	Registry dispatch.Registry
	Logger   *slog.Logger
}

func NewDeviceAPI(registry dispatch.Registry, logger *slog.Logger) *DeviceAPI {
	return &DeviceAPI{
		Registry: registry,
		Logger:   logger.With("component", "DeviceAPI"),
	}
}

// RegisterDeviceRequest is the body of POST /api/devices. Unknown deviceInfo
// keys are dropped by decoding into notification.DeviceInfo.
type RegisterDeviceRequest struct {
	UserID     notification.Text        `json:"userId" validate:"required"`
	PlayerID   notification.Text        `json:"playerId" validate:"required"`
	DeviceInfo *notification.DeviceInfo `json:"deviceInfo"`
	Tags       map[string]string        `json:"tags"`
}

type registeredDevice struct {
	UserID   string `json:"userId"`
	PlayerID string `json:"playerId"`
}

type RegisterDeviceResponse struct {
	Success bool             `json:"success"`
	Device  registeredDevice `json:"device"`
}

type DeleteDeviceResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (api *DeviceAPI) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RegisterDeviceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, api.Logger, err, "", "Failed to register device")
		return
	}
	if err := notification.ValidateStruct(&req, "Missing required fields"); err != nil {
		writeDomainError(w, api.Logger, err, "", "Failed to register device")
		return
	}

	stored, err := api.Registry.Register(ctx, notification.DeviceRegistration{
		UserID:     req.UserID.String(),
		PushToken:  req.PlayerID.String(),
		DeviceInfo: req.DeviceInfo,
		Tags:       req.Tags,
	})
	if err != nil {
		writeDomainError(w, api.Logger, err, "", "Failed to register device")
		return
	}
	api.Logger.Info("Device registered", "user_id", stored.UserID)

	// Device metadata is deliberately not echoed back.
	writeJSON(w, http.StatusOK, RegisterDeviceResponse{
		Success: true,
		Device: registeredDevice{
			UserID:   stored.UserID,
			PlayerID: stored.PushToken,
		},
	})
}

func (api *DeviceAPI) DeleteDevice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := r.PathValue("userId")
	if userID == "" {
		writeJSONError(w, http.StatusBadRequest, "User ID is required")
		return
	}

	if err := api.Registry.Delete(ctx, userID); err != nil {
		writeDomainError(w, api.Logger, err, "Device not found", "Failed to delete device")
		return
	}
	api.Logger.Info("Device deleted", "user_id", userID)

	writeJSON(w, http.StatusOK, DeleteDeviceResponse{
		Success: true,
		Message: "Device deleted successfully",
	})
}
