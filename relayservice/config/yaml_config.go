package config

import (
	"log/slog"
	"time"

	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
)

type YamlCorsConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	Role           string   `yaml:"role"`
}

type YamlRedisConfig struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	Enabled    bool   `yaml:"enabled"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

type YamlOneSignalConfig struct {
	AppID      string `yaml:"app_id"`
	RESTAPIKey string `yaml:"rest_api_key"`
	APIURL     string `yaml:"api_url"`
}

// YamlConfig is the structure that mirrors the raw config.yaml file.
type YamlConfig struct {
	ProjectID         string              `yaml:"project_id"`
	ListenAddr        string              `yaml:"listen_addr"`
	CredentialsFile   string              `yaml:"credentials_file"`
	DevicesCollection string              `yaml:"devices_collection"`
	IdentityService   string              `yaml:"identity_service_url"`
	CorsConfig        YamlCorsConfig      `yaml:"cors"`
	RedisConfig       YamlRedisConfig     `yaml:"redis"`
	OneSignalConfig   YamlOneSignalConfig `yaml:"onesignal"`
}

// NewConfigFromYaml converts the YamlConfig into a clean, base Config struct.
func NewConfigFromYaml(baseCfg *YamlConfig, logger *slog.Logger) (*Config, error) {
	logger.Debug("Mapping YAML config to base config struct")

	cfg := &Config{
		ProjectID:          baseCfg.ProjectID,
		ListenAddr:         baseCfg.ListenAddr,
		CredentialsFile:    baseCfg.CredentialsFile,
		DevicesCollection:  baseCfg.DevicesCollection,
		IdentityServiceURL: baseCfg.IdentityService,
		CorsConfig: middleware.CorsConfig{
			AllowedOrigins: baseCfg.CorsConfig.AllowedOrigins,
			Role:           middleware.CorsRole(baseCfg.CorsConfig.Role),
		},
		Redis: RedisConfig{
			Addr:     baseCfg.RedisConfig.Addr,
			Password: baseCfg.RedisConfig.Password,
			DB:       baseCfg.RedisConfig.DB,
			Enabled:  baseCfg.RedisConfig.Enabled,
			TTL:      time.Duration(baseCfg.RedisConfig.TTLSeconds) * time.Second,
		},
		OneSignal: OneSignalConfig{
			AppID:      baseCfg.OneSignalConfig.AppID,
			RESTAPIKey: baseCfg.OneSignalConfig.RESTAPIKey,
			APIURL:     baseCfg.OneSignalConfig.APIURL,
		},
	}

	logger.Debug("YAML config mapping complete",
		"project_id", cfg.ProjectID,
		"listen_addr", cfg.ListenAddr,
		"devices_collection", cfg.DevicesCollection,
		"redis_enabled", cfg.Redis.Enabled,
	)

	return cfg, nil
}
