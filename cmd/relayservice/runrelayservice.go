package main

import (
	"context"
	_ "embed"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"gopkg.in/yaml.v3"

	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"

	"github.com/tinywideclouds/go-notification-relay/internal/platform/onesignal"
	"github.com/tinywideclouds/go-notification-relay/internal/relay"
	"github.com/tinywideclouds/go-notification-relay/internal/storage/cache"
	fsStore "github.com/tinywideclouds/go-notification-relay/internal/storage/firestore"
	"github.com/tinywideclouds/go-notification-relay/pkg/dispatch"

	"github.com/tinywideclouds/go-notification-relay/relayservice"
	"github.com/tinywideclouds/go-notification-relay/relayservice/config"
)

//go:embed local.yaml
var configFile []byte

func main() {
	var logLevel slog.Level
	switch os.Getenv("LOG_LEVEL") {
	case "debug", "DEBUG":
		logLevel = slog.LevelDebug
	case "warn", "WARN":
		logLevel = slog.LevelWarn
	case "error", "ERROR":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})).With("service", "go-notification-relay")
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Config Loading ---
	var yamlCfg config.YamlConfig
	if err := yaml.Unmarshal(configFile, &yamlCfg); err != nil {
		logger.Error("Failed to unmarshal embedded yaml config", "err", err)
		os.Exit(1)
	}
	baseCfg, err := config.NewConfigFromYaml(&yamlCfg, logger)
	if err != nil {
		logger.Error("Failed to map yaml config", "err", err)
		os.Exit(1)
	}
	cfg, err := config.UpdateConfigWithEnvOverrides(baseCfg, logger)
	if err != nil {
		logger.Error("Config failed", "err", err)
		os.Exit(1)
	}

	// --- Infrastructure Clients ---
	var fsOpts []option.ClientOption
	if cfg.CredentialsFile != "" {
		fsOpts = append(fsOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	fsClient, err := firestore.NewClient(ctx, cfg.ProjectID, fsOpts...)
	if err != nil {
		logger.Error("Firestore client failed", "err", err)
		os.Exit(1)
	}
	defer fsClient.Close()

	// --- Device Registry (Decorated) ---
	var registry dispatch.Registry = fsStore.NewFirestoreRegistry(fsClient, cfg.DevicesCollection)
	logger.Info("Registry initialized", "type", "firestore", "collection", cfg.DevicesCollection)

	if cfg.Redis.Enabled {
		logger.Info("Initializing Redis Cache layer...", "addr", cfg.Redis.Addr)
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Error("Failed to connect to Redis", "err", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		registry = cache.NewCachedRegistry(registry, redisClient, cfg.Redis.TTL, logger)
		logger.Info("Registry upgraded", "type", "redis_cached_firestore", "ttl", cfg.Redis.TTL)
	}

	// --- Auth ---
	authMiddleware := func(h http.Handler) http.Handler { return h }
	if cfg.IdentityServiceURL != "" {
		jwksURL, err := middleware.DiscoverAndValidateJWTConfig(cfg.IdentityServiceURL, middleware.RSA256, logger)
		if err != nil {
			logger.Error("JWT config discovery failed", "identity_url", cfg.IdentityServiceURL, "err", err)
			os.Exit(1)
		}
		authMiddleware, err = middleware.NewJWKSAuthMiddleware(jwksURL, logger)
		if err != nil {
			logger.Error("JWKS auth middleware failed", "err", err)
			os.Exit(1)
		}
		logger.Info("JWT verification enabled", "jwks_url", jwksURL)
	} else {
		logger.Warn("IDENTITY_SERVICE_URL not set. Only the presence of the Authorization header is checked.")
	}

	// --- Provider ---
	if !cfg.OneSignal.Configured() {
		logger.Warn("OneSignal credentials missing in configuration. Every send will fail until they are set.")
	}
	sender := onesignal.NewClient(cfg.OneSignal, logger)

	// --- Service ---
	dispatcher := relay.NewDispatcher(registry, sender, logger)
	service := relayservice.New(cfg, registry, dispatcher, authMiddleware, logger)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = service.Shutdown(shutdownCtx)
	}()

	logger.Info("Starting service...", "addr", cfg.ListenAddr)
	if err := service.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Service shutdown with error", "err", err)
		os.Exit(1)
	}
}
