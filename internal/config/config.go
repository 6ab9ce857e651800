package config

import (
	"fmt"
	"os"
	"strconv"

	"carpark-gate/internal/gate"
)

type Config struct {
	Capacity        int
	JournalSize     int
	Port            string
	Environment     string
	LogLevel        string
	OTelServiceName string
	OTelEndpoint    string
	OTelEnabled     bool
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:            envOr("APP_PORT", "8080"),
		Environment:     envOr("ENVIRONMENT", "development"),
		LogLevel:        envOr("LOG_LEVEL", "info"),
		OTelServiceName: envOr("OTEL_SERVICE_NAME", "carpark-gate"),
		OTelEndpoint:    envOr("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318"),
	}

	var err error
	if cfg.Capacity, err = envOrInt("GATE_CAPACITY", 10); err != nil {
		return nil, err
	}
	if cfg.JournalSize, err = envOrInt("GATE_JOURNAL_SIZE", gate.DefaultJournalSize); err != nil {
		return nil, err
	}
	if cfg.OTelEnabled, err = envOrBool("OTEL_ENABLED", true); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Capacity <= 0 {
		return &gate.ConfigurationError{Field: "capacity", Reason: fmt.Sprintf("must be positive, got %d", c.Capacity)}
	}
	if c.JournalSize <= 0 {
		return &gate.ConfigurationError{Field: "journal_size", Reason: fmt.Sprintf("must be positive, got %d", c.JournalSize)}
	}
	if c.Port == "" {
		return &gate.ConfigurationError{Field: "port", Reason: "must not be empty"}
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, &gate.ConfigurationError{Field: key, Reason: fmt.Sprintf("not an integer: %q", v)}
	}
	return i, nil
}

func envOrBool(key string, fallback bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, &gate.ConfigurationError{Field: key, Reason: fmt.Sprintf("not a boolean: %q", v)}
	}
	return b, nil
}
