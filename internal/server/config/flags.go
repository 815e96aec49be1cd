package config

import (
	"flag"
	"os"

	"github.com/edavydenko/mylist/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   address and port to bind the HTTP API (e.g. ":5000")
//	-d string   PostgreSQL DSN
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.EndpointAddr, "a", cfg.EndpointAddr, "address and port to run server")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}

// parseEnv overlays values from the environment. Env wins over flags so
// container deployments can override baked-in arguments.
func parseEnv(cfg *Config) {
	if v := os.Getenv("MYLIST_ADDR"); v != "" {
		cfg.EndpointAddr = v
	}
	if v := os.Getenv("MYLIST_DATABASE_DSN"); v != "" {
		cfg.DatabaseDSN = v
	}
}
