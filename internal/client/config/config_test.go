package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	orig := os.Args
	os.Args = append([]string{"mylist"}, args...)
	t.Cleanup(func() { os.Args = orig })
}

func TestLoadConfig_Defaults(t *testing.T) {
	withArgs(t)

	cfg := LoadConfig()
	if cfg.ServerEndpointURL != "http://localhost:5000" {
		t.Fatalf("unexpected endpoint: %q", cfg.ServerEndpointURL)
	}
	if cfg.DataDir != "mylist-data" {
		t.Fatalf("unexpected data dir: %q", cfg.DataDir)
	}
	if cfg.OnlineCheckInterval != 3*time.Second {
		t.Fatalf("unexpected interval: %v", cfg.OnlineCheckInterval)
	}
}

func TestLoadConfig_Flags(t *testing.T) {
	withArgs(t, "-a", "http://example.com:9000", "-d", "/tmp/cache", "-i", "7")

	cfg := LoadConfig()
	if cfg.ServerEndpointURL != "http://example.com:9000" {
		t.Fatalf("flag did not override endpoint: %q", cfg.ServerEndpointURL)
	}
	if cfg.DataDir != "/tmp/cache" {
		t.Fatalf("flag did not override data dir: %q", cfg.DataDir)
	}
	if cfg.OnlineCheckInterval != 7*time.Second {
		t.Fatalf("flag did not override interval: %v", cfg.OnlineCheckInterval)
	}
}

func TestLoadConfig_JsonFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.json")
	content := `{
		"server_endpoint_url": "http://json.example:5000",
		"online_check_interval": "30s",
		"omdb_api_key": "omdb-from-file"
	}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	withArgs(t, "-c", path)

	cfg := LoadConfig()
	if cfg.ServerEndpointURL != "http://json.example:5000" {
		t.Fatalf("json did not override endpoint: %q", cfg.ServerEndpointURL)
	}
	if cfg.OnlineCheckInterval != 30*time.Second {
		t.Fatalf("json did not override interval: %v", cfg.OnlineCheckInterval)
	}
	if cfg.OMDBAPIKey != "omdb-from-file" {
		t.Fatalf("json did not set api key: %q", cfg.OMDBAPIKey)
	}
	// Untouched fields keep their defaults.
	if cfg.DataDir != "mylist-data" {
		t.Fatalf("default data dir lost: %q", cfg.DataDir)
	}
}

func TestLoadConfig_FlagOverridesJson(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.json")
	if err := os.WriteFile(path, []byte(`{"server_endpoint_url": "http://json.example"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	withArgs(t, "-c", path, "-a", "http://flag.example")

	cfg := LoadConfig()
	if cfg.ServerEndpointURL != "http://flag.example" {
		t.Fatalf("flag should beat json: %q", cfg.ServerEndpointURL)
	}
}

func TestLoadConfig_EnvWinsForKeys(t *testing.T) {
	withArgs(t)
	t.Setenv("MYLIST_OMDB_KEY", "omdb-from-env")
	t.Setenv("MYLIST_TMDB_KEY", "tmdb-from-env")

	cfg := LoadConfig()
	if cfg.OMDBAPIKey != "omdb-from-env" {
		t.Fatalf("env omdb key not applied: %q", cfg.OMDBAPIKey)
	}
	if cfg.TMDBAPIKey != "tmdb-from-env" {
		t.Fatalf("env tmdb key not applied: %q", cfg.TMDBAPIKey)
	}
}
