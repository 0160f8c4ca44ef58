package config

import (
	"net/url"
	"strings"

	"episodedl/failure"
	"episodedl/utils"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateURL(); err != nil {
		return err
	}
	if c.Prefetch < 1 {
		return failure.Wrap(failure.ErrConfiguration, "config", "prefetch", "must be at least 1", nil)
	}
	if c.RequestTimeout < 0 {
		return failure.Wrap(failure.ErrConfiguration, "config", "request_timeout", "must not be negative", nil)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return failure.Wrap(failure.ErrConfiguration, "config", "logging.format", "must be console or json", nil)
	}
	return nil
}

func (c *Config) validateURL() error {
	if strings.TrimSpace(c.URL) == "" {
		return failure.Wrap(failure.ErrConfiguration, "config", "url",
			"is required; set it in "+defaultConfigFile+", with --url, or via "+envURL, nil)
	}
	if !utils.IsValidUrl(c.URL) {
		return failure.Wrap(failure.ErrConfiguration, "config", "url", "must be an absolute http(s) URL: "+c.URL, nil)
	}
	u, _ := url.Parse(c.URL)
	if u.Scheme != "http" && u.Scheme != "https" {
		return failure.Wrap(failure.ErrConfiguration, "config", "url", "must be an absolute http(s) URL: "+c.URL, nil)
	}
	return nil
}
