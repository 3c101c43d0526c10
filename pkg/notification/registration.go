// Package notification contains the public domain models for the relay:
// device registrations, the workflow payload and the error taxonomy shared by
// the registry, the dispatcher and the HTTP layer.
package notification

import (
	"time"
)

// DeviceInfo is the sanitised device metadata kept alongside a push token.
// Only these three keys are ever stored.
type DeviceInfo struct {
	Platform string `json:"platform,omitempty"`
	Model    string `json:"model,omitempty"`
	Version  string `json:"version,omitempty"`
}

// DeviceRegistration maps one application user to one push token.
type DeviceRegistration struct {
	UserID     string            `json:"userId" validate:"required"`
	PushToken  string            `json:"pushToken" validate:"required"`
	DeviceInfo *DeviceInfo       `json:"deviceInfo,omitempty"`
	Tags       map[string]string `json:"tags,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// Validate checks the fields required to store a registration.
func (r *DeviceRegistration) Validate() error {
	return ValidateStruct(r, "Missing required fields")
}
