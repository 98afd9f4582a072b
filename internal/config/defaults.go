package config

import (
	"github.com/spf13/viper"
)

// Default policy values for the crawl pipeline.
const (
	// DefaultMaxPages is the default number of search pages per run.
	DefaultMaxPages = 50
	// DefaultMaxRetries is the default number of fetch attempts per page.
	DefaultMaxRetries = 3
	// DefaultBatchSize is the default persistence flush threshold.
	DefaultBatchSize = 100
)

// defaultUserAgents is the rotation pool used when the configuration does
// not provide one.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:89.0) Gecko/20100101 Firefox/89.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.1.1 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
}

// SetDefaults registers default configuration values with Viper.
func SetDefaults() {
	viper.SetDefault("app", map[string]any{
		"name":        "socialcrawl",
		"version":     "1.0.0",
		"environment": "production",
		"debug":       false,
	})

	viper.SetDefault("logger", map[string]any{
		"level":        "info",
		"development":  false,
		"encoding":     "json",
		"output_paths": []string{"stdout"},
	})

	viper.SetDefault("database", map[string]any{
		"driver":  "sqlite",
		"path":    "socialcrawl.db",
		"host":    "localhost",
		"port":    "5432",
		"user":    "postgres",
		"dbname":  "socialcrawl",
		"sslmode": "disable",
	})

	viper.SetDefault("crawler", map[string]any{
		"keyword":         "",
		"platform":        "weibo",
		"max_pages":       DefaultMaxPages,
		"max_retries":     DefaultMaxRetries,
		"batch_size":      DefaultBatchSize,
		"request_timeout": "30s",
		"retry_delay_min": "2s",
		"retry_delay_max": "5s",
		"page_delay_min":  "1s",
		"page_delay_max":  "3s",
		"user_agents":     defaultUserAgents,
	})

	viper.SetDefault("storage", map[string]any{
		"data_dir": "data",
	})

	viper.SetDefault("platforms", "platforms.yml")
}
