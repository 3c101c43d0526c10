// Package relayservice assembles the HTTP surface of the relay on top of the
// shared microservice base server.
package relayservice

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/tinywideclouds/go-microservice-base/pkg/microservice"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
	"github.com/tinywideclouds/go-notification-relay/internal/api"
	"github.com/tinywideclouds/go-notification-relay/pkg/dispatch"
	"github.com/tinywideclouds/go-notification-relay/relayservice/config"
)

type Wrapper struct {
	*microservice.BaseServer
	logger *slog.Logger
}

type healthResponse struct {
	Status string `json:"status"`
}

// New assembles the service. authMiddleware runs after the Authorization
// header presence check; pass an identity function to skip token verification.
func New(
	cfg *config.Config,
	registry dispatch.Registry,
	notifier dispatch.Notifier,
	authMiddleware func(http.Handler) http.Handler,
	logger *slog.Logger,
) *Wrapper {
	baseServer := microservice.NewBaseServer(logger, cfg.ListenAddr)

	deviceAPI := api.NewDeviceAPI(registry, logger)
	notifyAPI := api.NewNotifyAPI(notifier, logger)

	corsMiddleware := middleware.NewCorsMiddleware(cfg.CorsConfig, logger)
	requestLogger := api.RequestLogger(logger)

	protected := func(h http.HandlerFunc) http.Handler {
		return corsMiddleware(requestLogger(api.RequireAuthorization(authMiddleware(h))))
	}

	mux := baseServer.Mux()

	// Preflight for every /api route.
	mux.Handle("OPTIONS /api/", corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))

	mux.Handle("POST /api/devices", protected(deviceAPI.RegisterDevice))
	mux.Handle("DELETE /api/devices/{userId}", protected(deviceAPI.DeleteDevice))
	mux.Handle("POST /api/notify", protected(notifyAPI.Notify))
	mux.Handle("POST /api/notify-file-upload", protected(notifyAPI.NotifyFileUpload))

	mux.Handle("GET /health", requestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(healthResponse{Status: "OK"})
	})))

	return &Wrapper{
		BaseServer: baseServer,
		logger:     logger,
	}
}

func (w *Wrapper) Start(ctx context.Context) error {
	w.SetReady(true)
	w.logger.Info("Service is now ready.")
	return w.BaseServer.Start()
}

func (w *Wrapper) Shutdown(ctx context.Context) error {
	w.logger.Info("Shutting down service components...")
	if err := w.BaseServer.Shutdown(ctx); err != nil {
		w.logger.Error("HTTP server shutdown failed.", "err", err)
		return err
	}
	w.logger.Info("Service shutdown complete.")
	return nil
}
