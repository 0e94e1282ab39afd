// Package config loads application configuration from YAML, .env and the environment.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	Data struct {
		Path string `yaml:"path"`
	} `yaml:"data"`
	Model struct {
		Path string `yaml:"path"`
	} `yaml:"model"`
	Storage struct {
		Backend       string `yaml:"backend"`
		PostgresDSN   string `yaml:"postgres_dsn"`
		ClickhouseDSN string `yaml:"clickhouse_dsn"`
		SQLitePath    string `yaml:"sqlite_path"`
	} `yaml:"storage"`
	Logging struct {
		Mode string `yaml:"mode"`
	} `yaml:"logging"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Forecast struct {
		DiscountMin float64 `yaml:"discount_min"`
		DiscountMax float64 `yaml:"discount_max"`
	} `yaml:"forecast"`
	Report struct {
		EventDay   int    `yaml:"event_day"`
		EventLabel string `yaml:"event_label"`
		OutputDir  string `yaml:"output_dir"`
	} `yaml:"report"`
}

// Load reads config from a YAML file, loads envFile into the process environment
// (existing variables win), then applies environment overrides and defaults.
// Missing files are not an error.
func Load(path, envFile string) (*Config, error) {
	cfg := &Config{}
	cfg.Forecast.DiscountMin = -50
	cfg.Forecast.DiscountMax = 50

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	// Environment variable overrides
	overrides := []struct {
		env string
		dst *string
	}{
		{"FORECAST_DATA_PATH", &cfg.Data.Path},
		{"FORECAST_MODEL_PATH", &cfg.Model.Path},
		{"FORECAST_STORAGE_BACKEND", &cfg.Storage.Backend},
		{"POSTGRES_DSN", &cfg.Storage.PostgresDSN},
		{"CLICKHOUSE_DSN", &cfg.Storage.ClickhouseDSN},
		{"SQLITE_PATH", &cfg.Storage.SQLitePath},
		{"LOG_MODE", &cfg.Logging.Mode},
		{"METRICS_ADDR", &cfg.Metrics.Addr},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(os.Getenv(o.env)); v != "" {
			*o.dst = v
		}
	}

	// Defaults
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendMemory
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "data/forecast.db"
	}
	if cfg.Logging.Mode == "" {
		cfg.Logging.Mode = "dev"
	}
	if cfg.Report.EventDay == 0 {
		cfg.Report.EventDay = 28
	}
	if cfg.Report.EventLabel == "" {
		cfg.Report.EventLabel = "Black Friday"
	}
	if cfg.Report.OutputDir == "" {
		cfg.Report.OutputDir = "reports"
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendSQLite:
	case BackendPostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("storage.backend %q is not one of memory, postgres, sqlite", c.Storage.Backend)
	}
	if c.Forecast.DiscountMin > c.Forecast.DiscountMax {
		return fmt.Errorf("forecast.discount_min (%g) exceeds discount_max (%g)", c.Forecast.DiscountMin, c.Forecast.DiscountMax)
	}
	if c.Forecast.DiscountMin <= -100 {
		return fmt.Errorf("forecast.discount_min must be above -100, got %g", c.Forecast.DiscountMin)
	}
	if c.Report.EventDay < 1 || c.Report.EventDay > 31 {
		return fmt.Errorf("report.event_day must be within 1..31, got %d", c.Report.EventDay)
	}
	return nil
}
