package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Hermes   HermesConfig   `yaml:"hermes"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port               int    `yaml:"port" validate:"min=1,max=65535"`
	MetricsPort        int    `yaml:"metrics_port" validate:"min=1,max=65535,nefield=Port"`
	AdminToken         string `yaml:"admin_token"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute" validate:"min=1"`
}

// DatabaseConfig selects the store. A postgres:// or postgresql:// URL uses
// PostgreSQL; anything else is treated as a SQLite file path.
type DatabaseConfig struct {
	URL string `yaml:"url" validate:"required"`
}

// HermesConfig points at the NATS server. An empty URL disables events.
type HermesConfig struct {
	URL string `yaml:"url"`
}

type ScoringConfig struct {
	DefaultKind  string           `yaml:"default_kind" validate:"oneof=scalar histogram"`
	HistoryLimit int              `yaml:"history_limit" validate:"min=1"`
	Thresholds   ThresholdsConfig `yaml:"thresholds"`
}

type ThresholdsConfig struct {
	Notable   float64 `yaml:"notable" validate:"gte=0"`
	Divergent float64 `yaml:"divergent" validate:"gtfield=Notable"`
	Anomalous float64 `yaml:"anomalous" validate:"gtfield=Divergent"`
}

// MonitorConfig drives the background stats refresh and the anomaly feed.
type MonitorConfig struct {
	StatsIntervalMs int `yaml:"stats_interval_ms" validate:"min=100"`
	RecentAnomalies int `yaml:"recent_anomalies" validate:"min=1"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"oneof=json text"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:               8700,
			MetricsPort:        8701,
			RateLimitPerMinute: 600,
		},
		Database: DatabaseConfig{
			URL: "appraisal.db",
		},
		Hermes: HermesConfig{
			URL: "nats://localhost:4222",
		},
		Scoring: ScoringConfig{
			DefaultKind:  "scalar",
			HistoryLimit: 1000,
			Thresholds: ThresholdsConfig{
				Notable:   0.25,
				Divergent: 0.5,
				Anomalous: 0.8,
			},
		},
		Monitor: MonitorConfig{
			StatsIntervalMs: 30000,
			RecentAnomalies: 100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) StatsInterval() time.Duration {
	return time.Duration(c.Monitor.StatsIntervalMs) * time.Millisecond
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("APPRAISAL_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("APPRAISAL_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("APPRAISAL_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("APPRAISAL_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v, ok := os.LookupEnv("APPRAISAL_HERMES_URL"); ok {
		cfg.Hermes.URL = v
	}
	if v := os.Getenv("APPRAISAL_DEFAULT_KIND"); v != "" {
		cfg.Scoring.DefaultKind = v
	}
	if v := os.Getenv("APPRAISAL_HISTORY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scoring.HistoryLimit = n
		}
	}
	if v := os.Getenv("APPRAISAL_STATS_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Monitor.StatsIntervalMs = n
		}
	}
	if v := os.Getenv("APPRAISAL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("APPRAISAL_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
