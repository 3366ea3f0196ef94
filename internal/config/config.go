// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type ServerConfig struct {
	Port        int `yaml:"port"`
	MetricsPort int `yaml:"metrics_port"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type GatewayConfig struct {
	AppID         string        `yaml:"app_id"`
	SecretKey     string        `yaml:"secret_key"`
	WebhookSecret string        `yaml:"webhook_secret"`
	Sandbox       bool          `yaml:"sandbox"`
	Timeout       time.Duration `yaml:"timeout"`
}

type AdminConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
	Email      string        `yaml:"email"` // configured super-admin identity
}

type SweeperConfig struct {
	Interval  time.Duration `yaml:"interval"`
	BatchSize int           `yaml:"batch_size"`
}

type Config struct {
	Log      LogConfig      `yaml:"log"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	Admin    AdminConfig    `yaml:"admin"`
	Sweeper  SweeperConfig  `yaml:"sweeper"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.MetricsPort <= 0 {
		cfg.Server.MetricsPort = 9090
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.Gateway.Timeout <= 0 {
		cfg.Gateway.Timeout = 15 * time.Second
	}
	if cfg.Admin.SessionTTL <= 0 {
		cfg.Admin.SessionTTL = 30 * time.Minute
	}
	if cfg.Sweeper.Interval <= 0 {
		cfg.Sweeper.Interval = 24 * time.Hour
	}
	if cfg.Sweeper.BatchSize <= 0 {
		cfg.Sweeper.BatchSize = 100
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Gateway.SecretKey == "" {
		return nil, errors.New("gateway.secret_key is required")
	}
	if !dev && cfg.Gateway.WebhookSecret == "" {
		return nil, errors.New("gateway.webhook_secret is required outside dev mode")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
