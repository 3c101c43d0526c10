package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
)

const (
	DefaultListenAddr        = ":3000"
	DefaultDevicesCollection = "devices"
	DefaultOneSignalAPIURL   = "https://onesignal.com/api/v1/notifications"
	DefaultRedisTTL          = time.Hour
)

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// OneSignalConfig holds the provider credentials. Empty credentials are not a
// startup error: every send checks them and fails with a configuration error.
type OneSignalConfig struct {
	AppID      string
	RESTAPIKey string
	APIURL     string
}

// Configured reports whether both credentials are present.
func (c OneSignalConfig) Configured() bool {
	return c.AppID != "" && c.RESTAPIKey != ""
}

// Config defines the *single*, authoritative configuration.
type Config struct {
	ProjectID          string
	ListenAddr         string
	CredentialsFile    string
	DevicesCollection  string
	// IdentityServiceURL enables JWT verification of the Authorization header.
	// When empty only the header's presence is checked.
	IdentityServiceURL string

	CorsConfig middleware.CorsConfig
	Redis      RedisConfig
	OneSignal  OneSignalConfig
}

// UpdateConfigWithEnvOverrides applies environment variables and final validation.
func UpdateConfigWithEnvOverrides(cfg *Config, logger *slog.Logger) (*Config, error) {
	logger.Debug("Applying environment variable overrides...")

	if val := os.Getenv("PROJECT_ID"); val != "" {
		logger.Debug("Overriding config value", "key", "PROJECT_ID", "source", "env")
		cfg.ProjectID = val
	}
	if val := os.Getenv("PORT"); val != "" {
		logger.Debug("Overriding config value", "key", "PORT", "source", "env")
		cfg.ListenAddr = ":" + val
	}
	if val := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_FILE"); val != "" {
		logger.Debug("Overriding config value", "key", "GOOGLE_APPLICATION_CREDENTIALS_FILE", "source", "env")
		cfg.CredentialsFile = val
	}
	if val := os.Getenv("DEVICES_COLLECTION"); val != "" {
		logger.Debug("Overriding config value", "key", "DEVICES_COLLECTION", "source", "env")
		cfg.DevicesCollection = val
	}

	if val := os.Getenv("IDENTITY_SERVICE_URL"); val != "" {
		logger.Debug("Overriding config value", "key", "IDENTITY_SERVICE_URL", "source", "env")
		cfg.IdentityServiceURL = val
	}

	// OneSignal
	if val := os.Getenv("ONESIGNAL_APP_ID"); val != "" {
		logger.Debug("Overriding config value", "key", "ONESIGNAL_APP_ID", "source", "env")
		cfg.OneSignal.AppID = val
	}
	if val := os.Getenv("ONESIGNAL_REST_API_KEY"); val != "" {
		logger.Debug("Overriding config value", "key", "ONESIGNAL_REST_API_KEY", "source", "env")
		cfg.OneSignal.RESTAPIKey = val
	}
	if val := os.Getenv("ONESIGNAL_API_URL"); val != "" {
		logger.Debug("Overriding config value", "key", "ONESIGNAL_API_URL", "source", "env")
		cfg.OneSignal.APIURL = val
	}

	// Redis
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		cfg.Redis.Addr = val
		cfg.Redis.Enabled = true
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		cfg.Redis.Password = val
	}
	if val := os.Getenv("REDIS_DB"); val != "" {
		if db, err := strconv.Atoi(val); err == nil {
			cfg.Redis.DB = db
		}
	}
	if val := os.Getenv("REDIS_TTL_SECONDS"); val != "" {
		if secs, err := strconv.Atoi(val); err == nil && secs > 0 {
			cfg.Redis.TTL = time.Duration(secs) * time.Second
		}
	}
	if val := os.Getenv("REDIS_ENABLED"); val != "" {
		enabled, _ := strconv.ParseBool(val)
		cfg.Redis.Enabled = enabled
	}

	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		logger.Debug("Overriding config value", "key", "CORS_ALLOWED_ORIGINS", "source", "env")
		var cleanOrigins []string
		for _, o := range strings.Split(corsOrigins, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				cleanOrigins = append(cleanOrigins, trimmed)
			}
		}
		cfg.CorsConfig.AllowedOrigins = cleanOrigins
	}

	// Final validation and defaults
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("project_id is required (set via YAML or PROJECT_ID env var)")
	}
	if cfg.Redis.Enabled && cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis is enabled but no address is set (REDIS_ADDR)")
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.DevicesCollection == "" {
		cfg.DevicesCollection = DefaultDevicesCollection
	}
	if cfg.OneSignal.APIURL == "" {
		cfg.OneSignal.APIURL = DefaultOneSignalAPIURL
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = DefaultRedisTTL
	}

	logger.Debug("Configuration finalized and validated successfully")
	return cfg, nil
}
