package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env         string `env:"ENV"          envDefault:"local" validate:"required,oneof=local staging production"`
	Port        string `env:"PORT"         envDefault:"8080"  validate:"required"`
	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`
	LogLevel    string `env:"LOG_LEVEL"    envDefault:"info"  validate:"oneof=debug info warn error"`

	// Backend host literals drifted across the mobile client; keep it configurable.
	APIBaseURL     string `env:"API_BASE_URL"     envDefault:"https://circlapp.online/api" validate:"required,url"`
	HTTPTimeoutSec int    `env:"HTTP_TIMEOUT_SEC" envDefault:"15"                          validate:"min=1,max=120"`

	StoreBackend string `env:"STORE_BACKEND" envDefault:"memory" validate:"required,oneof=memory postgres redis"`
	DatabaseURL  string `env:"DATABASE_URL"                      validate:"required_if=StoreBackend postgres"`
	RedisURL     string `env:"REDIS_URL"                         validate:"required_if=StoreBackend redis"`
	DeviceID     string `env:"DEVICE_ID"     envDefault:"local-device" validate:"required,max=128"`

	JWTSecret string `env:"JWT_SECRET" validate:"omitempty,min=32"`

	CustomScheme      string `env:"CUSTOM_SCHEME"       envDefault:"circl"           validate:"required,alpha"`
	UniversalLinkHost string `env:"UNIVERSAL_LINK_HOST" envDefault:"circlapp.online" validate:"omitempty,hostname"`

	PushIsProduction bool   `env:"PUSH_IS_PRODUCTION" envDefault:"true"`
	PushSweepCron    string `env:"PUSH_SWEEP_CRON"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSec) * time.Second
}
