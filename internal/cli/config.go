package cli

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds environment-sourced defaults for the CLI.
//
// Flags always win; the environment only fills in values the user did
// not pass. This keeps scripted use (CI, cron) free of repetitive --db
// flags without introducing a config file.
type Config struct {
	// Database is the default SQLite path (TALLY_DB).
	Database string `env:"TALLY_DB"`

	// Format is the default output format (TALLY_FORMAT): text or json.
	Format string `env:"TALLY_FORMAT" envDefault:"text"`

	// Verbose enables debug logging by default (TALLY_VERBOSE).
	Verbose bool `env:"TALLY_VERBOSE"`
}

// ConfigFromEnv parses the TALLY_* environment variables.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
