// Package onesignal provides the client for the OneSignal REST notifications API.
package onesignal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/tinywideclouds/go-notification-relay/pkg/notification"
	"github.com/tinywideclouds/go-notification-relay/relayservice/config"
)

// HTTPClient is the subset of *http.Client the sender uses.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	appID      string
	restAPIKey string
	apiURL     string
	httpClient HTTPClient
	logger     *slog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default transport.
func WithHTTPClient(hc HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a sender for the given credentials. Missing credentials
// are reported on each Send, not here.
func NewClient(cfg config.OneSignalConfig, logger *slog.Logger, opts ...Option) *Client {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = config.DefaultOneSignalAPIURL
	}
	c := &Client{
		appID:      cfg.AppID,
		restAPIKey: cfg.RESTAPIKey,
		apiURL:     apiURL,
		httpClient: &http.Client{},
		logger:     logger.With("component", "OneSignalClient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// createNotificationRequest is the body of POST /api/v1/notifications.
type createNotificationRequest struct {
	AppID            string            `json:"app_id"`
	IncludePlayerIDs []string          `json:"include_player_ids"`
	Contents         map[string]string `json:"contents"`
	Headings         map[string]string `json:"headings"`
	Data             any               `json:"data,omitempty"`
}

// Send posts one notification for pushToken and returns OneSignal's response
// body untouched. Every transport or provider failure is collapsed into
// notification.ErrDelivery after being logged.
func (c *Client) Send(ctx context.Context, pushToken, title, message string, data any) (json.RawMessage, error) {
	if c.appID == "" || c.restAPIKey == "" {
		c.logger.Error("OneSignal credentials are not configured")
		return nil, notification.ErrConfiguration
	}

	var missing []string
	if pushToken == "" {
		missing = append(missing, "pushToken")
	}
	if title == "" {
		missing = append(missing, "title")
	}
	if message == "" {
		missing = append(missing, "message")
	}
	if len(missing) > 0 {
		return nil, notification.NewValidationError("Missing required notification parameters", missing...)
	}

	body, err := json.Marshal(createNotificationRequest{
		AppID:            c.appID,
		IncludePlayerIDs: []string{pushToken},
		Contents:         map[string]string{"en": message},
		Headings:         map[string]string{"en": title},
		Data:             data,
	})
	if err != nil {
		c.logger.Error("Failed to marshal OneSignal payload", "err", err)
		return nil, notification.ErrDelivery
	}

	c.logger.Debug("Sending notification", "player_id", pushToken, "title", title, "has_data", data != nil)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		c.logger.Error("Failed to build OneSignal request", "err", err)
		return nil, notification.ErrDelivery
	}
	req.Header.Set("Authorization", "Basic "+c.restAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("OneSignal transport failed", "player_id", pushToken, "err", err)
		return nil, notification.ErrDelivery
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("Failed to read OneSignal response", "status", resp.StatusCode, "err", err)
		return nil, notification.ErrDelivery
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("OneSignal rejected notification",
			"status", resp.StatusCode,
			"player_id", pushToken,
			"body", string(respBody),
		)
		return nil, notification.ErrDelivery
	}

	c.logger.Info("OneSignal notification sent", "player_id", pushToken, "status", resp.StatusCode)
	return rawResult(respBody), nil
}

// rawResult makes sure the provider body can be embedded in a JSON response.
func rawResult(body []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return json.RawMessage("null")
	}
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	quoted, _ := json.Marshal(string(trimmed))
	return json.RawMessage(quoted)
}
