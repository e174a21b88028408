package config

import (
	"fmt"
	"log/slog"
	"slices"
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	// Linguistic service validation
	if c.Linguistic.Endpoint == "" {
		return fmt.Errorf("%w: set linguistic.endpoint in config.yaml or A4S_LINGUISTIC_ENDPOINT",
			ErrMissingLinguisticEndpoint)
	}
	if c.Linguistic.TimeoutMS < 1000 || c.Linguistic.TimeoutMS > 300000 {
		return fmt.Errorf("%w: timeout_ms must be between 1,000 and 300,000, got %d",
			ErrInvalidServiceTimeout, c.Linguistic.TimeoutMS)
	}

	// Moodle web-service validation
	if c.Moodle.BaseURL == "" {
		return fmt.Errorf("%w: set moodle.base_url in config.yaml or A4S_MOODLE_BASE_URL",
			ErrMissingMoodleBaseURL)
	}
	if c.Moodle.Token == "" {
		return fmt.Errorf("%w: set A4S_MOODLE_TOKEN", ErrMissingMoodleToken)
	}

	// PostgreSQL validation
	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host cannot be empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name cannot be empty", ErrInvalidPostgresDBName)
	}

	if c.PostgresPassword == "a4s_dev_password" {
		slog.Warn("Using default development password for PostgreSQL",
			"warning", "Change postgres_password in config.yaml for production deployments")
	}

	// Modern SSL modes only; allow/prefer are deprecated.
	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	if !slices.Contains(validSSLModes, c.PostgresSSLMode) {
		return fmt.Errorf("%w: %q is not valid, must be one of: %v",
			ErrInvalidPostgresSSLMode, c.PostgresSSLMode, validSSLModes)
	}

	// Crawler validation
	if c.Crawler.DelayMS < 0 {
		return fmt.Errorf("%w: delay_ms cannot be negative, got %d", ErrInvalidCrawlDelay, c.Crawler.DelayMS)
	}

	return nil
}
