// Package config loads runtime settings for the myLIST CLI from
// defaults, an optional JSON file (-c/-config), command-line flags, and
// environment variables, each layer overriding the previous one.
package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the myLIST CLI.
//
// Fields:
//   - ServerEndpointURL: base URL of the backend API.
//   - DataDir: directory of the local record cache.
//   - OnlineCheckInterval: minimum spacing between connectivity probes.
//   - OMDBAPIKey / TMDBAPIKey: metadata provider credentials.
type Config struct {
	ServerEndpointURL   string
	DataDir             string
	OnlineCheckInterval time.Duration
	OMDBAPIKey          string
	TMDBAPIKey          string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointURL = "http://localhost:5000"
	c.DataDir = "mylist-data"
	c.OnlineCheckInterval = 3 * time.Second
}

// parseEnv overlays API keys from the environment. Keys are secrets, so
// the environment wins over files and flags.
func parseEnv(c *Config) {
	if v := os.Getenv("MYLIST_OMDB_KEY"); v != "" {
		c.OMDBAPIKey = v
	}
	if v := os.Getenv("MYLIST_TMDB_KEY"); v != "" {
		c.TMDBAPIKey = v
	}
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present), command-line flags, and the environment.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	parseEnv(cfg)
	return cfg
}
