// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.a4s/config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - Storage: PostgreSQL connection (see storage.go)
//   - Linguistic: external n-gram/POS service endpoint and throttling
//   - Moodle: host LMS web-service API access
//   - Crawler: web crawling politeness settings
//   - Converter: external PDF-to-text command
//
// Security: the database password is never logged; the config directory uses
// 0750 permissions. Validation is fail-fast with sentinel errors so callers
// can check causes with errors.Is().
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingLinguisticEndpoint indicates the linguistic service endpoint is not set.
	ErrMissingLinguisticEndpoint = errors.New("missing linguistic service endpoint")

	// ErrMissingMoodleBaseURL indicates the Moodle base URL is not set.
	ErrMissingMoodleBaseURL = errors.New("missing moodle base URL")

	// ErrMissingMoodleToken indicates the Moodle web-service token is not set.
	ErrMissingMoodleToken = errors.New("missing moodle web-service token")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")

	// ErrInvalidCrawlDelay indicates the crawler delay is negative.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay")

	// ErrInvalidServiceTimeout indicates the linguistic service timeout is out of range.
	ErrInvalidServiceTimeout = errors.New("invalid linguistic service timeout")
)

// LinguisticConfig holds the external n-gram/POS service settings.
type LinguisticConfig struct {
	Endpoint          string  `mapstructure:"endpoint" json:"endpoint"`
	TimeoutMS         int     `mapstructure:"timeout_ms" json:"timeout_ms"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" json:"requests_per_second"`
}

// MoodleConfig holds the host LMS web-service API settings.
type MoodleConfig struct {
	BaseURL string `mapstructure:"base_url" json:"base_url"`
	Token   string `mapstructure:"token" json:"token"` // SENSITIVE: masked in MarshalJSON
}

// CrawlerConfig holds the web crawler politeness settings.
type CrawlerConfig struct {
	UserAgent string `mapstructure:"user_agent" json:"user_agent"`
	DelayMS   int    `mapstructure:"delay_ms" json:"delay_ms"`
	TimeoutMS int    `mapstructure:"timeout_ms" json:"timeout_ms"`
}

// ConverterConfig holds the external document-to-text converter command.
// The file path to convert is appended to Args at invocation time.
type ConverterConfig struct {
	Command   string   `mapstructure:"command" json:"command"`
	Args      []string `mapstructure:"args" json:"args"`
	TimeoutMS int      `mapstructure:"timeout_ms" json:"timeout_ms"`
}

// Config stores application configuration.
// SECURITY: sensitive fields are explicitly masked in MarshalJSON().
type Config struct {
	// Storage configuration (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	Linguistic LinguisticConfig `mapstructure:"linguistic" json:"linguistic"`
	Moodle     MoodleConfig     `mapstructure:"moodle" json:"moodle"`
	Crawler    CrawlerConfig    `mapstructure:"crawler" json:"crawler"`
	Converter  ConverterConfig  `mapstructure:"converter" json:"converter"`
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".a4s")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults apply.
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."},
			"config_name", "config.yaml")
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL, when set, overrides the individual postgres_* settings.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	// PostgreSQL defaults (matching docker-compose.yml)
	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "a4s")
	viper.SetDefault("postgres_password", "a4s_dev_password")
	viper.SetDefault("postgres_db_name", "a4s")
	viper.SetDefault("postgres_ssl_mode", "disable")

	// Linguistic service defaults
	viper.SetDefault("linguistic.timeout_ms", 30000)
	viper.SetDefault("linguistic.requests_per_second", 2.0)

	// Crawler defaults
	viper.SetDefault("crawler.user_agent", "ask4summary-crawler/1.0")
	viper.SetDefault("crawler.delay_ms", 1000)
	viper.SetDefault("crawler.timeout_ms", 30000)

	// Converter defaults (AbiWord in headless text mode)
	viper.SetDefault("converter.command", "abiword")
	viper.SetDefault("converter.args", []string{"--to=txt", "--to-name=fd://1"})
	viper.SetDefault("converter.timeout_ms", 60000)
}

// bindEnvVariables binds environment variables explicitly.
func bindEnvVariables() {
	// Hardcoded keys cannot fail to bind; a panic here is a bug.
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("linguistic.endpoint", "A4S_LINGUISTIC_ENDPOINT")
	mustBind("moodle.base_url", "A4S_MOODLE_BASE_URL")
	mustBind("moodle.token", "A4S_MOODLE_TOKEN")
	mustBind("crawler.user_agent", "A4S_CRAWLER_USER_AGENT")
	mustBind("converter.command", "A4S_CONVERTER_COMMAND")
}

// maskedValue is the placeholder for masked sensitive data.
// Full-width blocks avoid accidental substring matches against real secrets.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging.
// Secrets of 8 characters or fewer are fully masked; longer secrets keep the
// first and last 2 characters for debug utility.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field masking.
func (c *Config) MarshalJSON() ([]byte, error) {
	type alias Config
	masked := alias(*c)
	masked.PostgresPassword = maskSecret(c.PostgresPassword)
	masked.Moodle.Token = maskSecret(c.Moodle.Token)
	return json.Marshal(masked)
}
