package config

import (
	"errors"
	"testing"
)

// validBaseConfig returns a Config with all required fields set.
func validBaseConfig() *Config {
	return &Config{
		PostgresHost:     "localhost",
		PostgresPort:     5432,
		PostgresUser:     "a4s",
		PostgresPassword: "test_password",
		PostgresDBName:   "a4s",
		PostgresSSLMode:  "disable",
		Linguistic: LinguisticConfig{
			Endpoint:  "http://localhost:5000/analyze",
			TimeoutMS: 30000,
		},
		Moodle: MoodleConfig{
			BaseURL: "https://moodle.example.edu",
			Token:   "test-token",
		},
		Crawler: CrawlerConfig{
			UserAgent: "test-agent",
			DelayMS:   1000,
			TimeoutMS: 30000,
		},
	}
}

func TestValidateSuccess(t *testing.T) {
	if err := validBaseConfig().Validate(); err != nil {
		t.Errorf("expected valid config, got: %v", err)
	}
}

func TestValidateFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "missing linguistic endpoint",
			mutate:  func(c *Config) { c.Linguistic.Endpoint = "" },
			wantErr: ErrMissingLinguisticEndpoint,
		},
		{
			name:    "service timeout too small",
			mutate:  func(c *Config) { c.Linguistic.TimeoutMS = 100 },
			wantErr: ErrInvalidServiceTimeout,
		},
		{
			name:    "missing moodle base url",
			mutate:  func(c *Config) { c.Moodle.BaseURL = "" },
			wantErr: ErrMissingMoodleBaseURL,
		},
		{
			name:    "missing moodle token",
			mutate:  func(c *Config) { c.Moodle.Token = "" },
			wantErr: ErrMissingMoodleToken,
		},
		{
			name:    "empty postgres host",
			mutate:  func(c *Config) { c.PostgresHost = "" },
			wantErr: ErrInvalidPostgresHost,
		},
		{
			name:    "postgres port out of range",
			mutate:  func(c *Config) { c.PostgresPort = 70000 },
			wantErr: ErrInvalidPostgresPort,
		},
		{
			name:    "empty database name",
			mutate:  func(c *Config) { c.PostgresDBName = "" },
			wantErr: ErrInvalidPostgresDBName,
		},
		{
			name:    "deprecated ssl mode",
			mutate:  func(c *Config) { c.PostgresSSLMode = "prefer" },
			wantErr: ErrInvalidPostgresSSLMode,
		},
		{
			name:    "negative crawl delay",
			mutate:  func(c *Config) { c.Crawler.DelayMS = -1 },
			wantErr: ErrInvalidCrawlDelay,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBaseConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateNilConfig(t *testing.T) {
	var cfg *Config
	if err := cfg.Validate(); !errors.Is(err, ErrConfigNil) {
		t.Errorf("expected ErrConfigNil, got %v", err)
	}
}
