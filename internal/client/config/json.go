package config

import (
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/edavydenko/mylist/internal/flagx"
	"github.com/edavydenko/mylist/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies
// on timex.Duration so JSON can specify intervals either as strings like
// "3s" or as integer nanoseconds.
type JsonConfig struct {
	ServerEndpointURL   string         `json:"server_endpoint_url"`
	DataDir             string         `json:"data_dir"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	OMDBAPIKey          string         `json:"omdb_api_key"`
	TMDBAPIKey          string         `json:"tmdb_api_key"`
}

// parseJson overlays Config with values loaded from the JSON file named
// by the -c/-config flag. With no flag it does nothing. Read or
// unmarshal errors panic; loading config is not recoverable.
// Only fields present in the file override the defaults.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerEndpointURL != "" {
		cfg.ServerEndpointURL = jc.ServerEndpointURL
	}
	if jc.DataDir != "" {
		cfg.DataDir = jc.DataDir
	}
	if jc.OnlineCheckInterval.Duration != 0 {
		cfg.OnlineCheckInterval = time.Duration(jc.OnlineCheckInterval.Duration)
	}
	if jc.OMDBAPIKey != "" {
		cfg.OMDBAPIKey = jc.OMDBAPIKey
	}
	if jc.TMDBAPIKey != "" {
		cfg.TMDBAPIKey = jc.TMDBAPIKey
	}
}
