// Package config provides application configuration loaded from file,
// environment variables, and defaults via Viper.
package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/jonesrussell/socialcrawl/internal/logger"
)

// App holds application-level settings.
type App struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// Database holds relational store settings. Driver selects between the
// embedded sqlite store and a shared postgres instance.
type Database struct {
	Driver string `mapstructure:"driver"`

	// sqlite
	Path string `mapstructure:"path"`

	// postgres
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// Crawler holds the orchestration policy knobs.
type Crawler struct {
	Keyword        string        `mapstructure:"keyword"`
	Platform       string        `mapstructure:"platform"`
	MaxPages       int           `mapstructure:"max_pages"`
	MaxRetries     int           `mapstructure:"max_retries"`
	BatchSize      int           `mapstructure:"batch_size"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RetryDelayMin  time.Duration `mapstructure:"retry_delay_min"`
	RetryDelayMax  time.Duration `mapstructure:"retry_delay_max"`
	PageDelayMin   time.Duration `mapstructure:"page_delay_min"`
	PageDelayMax   time.Duration `mapstructure:"page_delay_max"`
	UserAgents     []string      `mapstructure:"user_agents"`
}

// Storage holds the session archive settings.
type Storage struct {
	DataDir string `mapstructure:"data_dir"`
}

// Config is the root application configuration.
type Config struct {
	App       App           `mapstructure:"app"`
	Logger    logger.Config `mapstructure:"logger"`
	Database  Database      `mapstructure:"database"`
	Crawler   Crawler       `mapstructure:"crawler"`
	Storage   Storage       `mapstructure:"storage"`
	Platforms string        `mapstructure:"platforms"`
}

// Load decodes the current Viper state into a Config. Duration fields accept
// Go duration strings ("30s", "2s500ms").
func Load() (*Config, error) {
	var cfg Config

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result: &cfg,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build config decoder: %w", err)
	}

	if decodeErr := decoder.Decode(viper.AllSettings()); decodeErr != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", decodeErr)
	}

	if validateErr := cfg.Validate(); validateErr != nil {
		return nil, validateErr
	}

	return &cfg, nil
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Crawler.MaxPages < 1 {
		return fmt.Errorf("%w: crawler.max_pages must be >= 1, got %d", ErrInvalidConfig, c.Crawler.MaxPages)
	}
	if c.Crawler.MaxRetries < 1 {
		return fmt.Errorf("%w: crawler.max_retries must be >= 1, got %d", ErrInvalidConfig, c.Crawler.MaxRetries)
	}
	if c.Crawler.BatchSize < 1 {
		return fmt.Errorf("%w: crawler.batch_size must be >= 1, got %d", ErrInvalidConfig, c.Crawler.BatchSize)
	}
	if c.Crawler.RetryDelayMax < c.Crawler.RetryDelayMin {
		return fmt.Errorf("%w: crawler.retry_delay_max below retry_delay_min", ErrInvalidConfig)
	}
	if c.Crawler.PageDelayMax < c.Crawler.PageDelayMin {
		return fmt.Errorf("%w: crawler.page_delay_max below page_delay_min", ErrInvalidConfig)
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("%w: unsupported database.driver %q", ErrInvalidConfig, c.Database.Driver)
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("%w: storage.data_dir is empty", ErrInvalidConfig)
	}
	return nil
}
