package platform

import (
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/socialcrawl/internal/crawler"
	"github.com/jonesrussell/socialcrawl/internal/logger"
	"github.com/jonesrussell/socialcrawl/internal/platform/douyin"
	"github.com/jonesrussell/socialcrawl/internal/platform/weibo"
)

// ErrUnknownPlatform is returned when no adapter exists for the given name.
var ErrUnknownPlatform = errors.New("unknown platform")

// ErrPlatformDisabled is returned when the platforms file disables a platform.
var ErrPlatformDisabled = errors.New("platform disabled")

// NewAdapter builds the adapter for the named platform using the loaded
// settings and the request timeout.
func NewAdapter(name string, settings *Settings, timeout time.Duration, log logger.Interface) (crawler.Adapter, error) {
	cfg, ok := settings.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlatform, name)
	}
	if !cfg.Enabled {
		return nil, fmt.Errorf("%w: %s", ErrPlatformDisabled, name)
	}

	switch name {
	case "weibo":
		return weibo.New(weibo.Config{
			SearchURL:       cfg.SearchURL,
			MobileSearchURL: cfg.MobileSearchURL,
			Cookies:         cfg.Cookies,
			Timeout:         timeout,
		}, log), nil
	case "douyin":
		return douyin.New(douyin.Config{
			SearchURL: cfg.SearchURL,
			Cookies:   cfg.Cookies,
			Timeout:   timeout,
		}, log), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlatform, name)
	}
}

// Names lists the platforms the registry can build.
func Names() []string {
	return []string{"weibo", "douyin"}
}
