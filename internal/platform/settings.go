// Package platform resolves platform names to adapters and loads
// per-platform endpoint and cookie settings.
package platform

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AdapterSettings holds the endpoint and identity material for one platform.
// Cookie values are operator-provided session material; they are assembled
// onto requests as-is, nothing here tries to defeat interactive challenges.
type AdapterSettings struct {
	Enabled         bool              `yaml:"enabled"`
	SearchURL       string            `yaml:"search_url"`
	MobileSearchURL string            `yaml:"mobile_search_url"`
	Cookies         map[string]string `yaml:"cookies"`
}

// Settings is the full platforms file.
type Settings struct {
	Platforms map[string]AdapterSettings `yaml:"platforms"`
}

// defaultSettings covers the supported platforms when no platforms file is
// present.
func defaultSettings() *Settings {
	return &Settings{
		Platforms: map[string]AdapterSettings{
			"weibo": {
				Enabled:         true,
				SearchURL:       "https://s.weibo.com/weibo",
				MobileSearchURL: "https://m.weibo.cn/api/container/getIndex",
			},
			"douyin": {
				Enabled:         true,
				SearchURL:       "https://www.douyin.com/aweme/v1/web/general/search/single/",
				MobileSearchURL: "https://www.douyin.com/aweme/v1/web/general/search/single/",
			},
		},
	}
}

// LoadSettings reads the platforms file. A missing file is not an error;
// built-in defaults apply then.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultSettings(), nil
		}
		return nil, fmt.Errorf("failed to read platforms file: %w", err)
	}

	settings := defaultSettings()
	if unmarshalErr := yaml.Unmarshal(data, settings); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse platforms file: %w", unmarshalErr)
	}

	return settings, nil
}

// Get returns the settings for one platform, falling back to the built-in
// defaults when the file does not mention it.
func (s *Settings) Get(name string) (AdapterSettings, bool) {
	if cfg, ok := s.Platforms[name]; ok {
		return cfg, true
	}
	cfg, ok := defaultSettings().Platforms[name]
	return cfg, ok
}
