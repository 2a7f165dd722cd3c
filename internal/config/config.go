package config

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"kvittera/internal/storage"
)

// Config holds the application configuration
type Config struct {
	Server  ServerConfig   `yaml:"server"`
	Storage storage.Config `yaml:"storage"`
	Events  EventsConfig   `yaml:"events"`
	Logging LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds the HTTP listen settings for the API and realtime
// services.
type ServerConfig struct {
	Listen         string `yaml:"listen"`
	RealtimeListen string `yaml:"realtime_listen"`
}

// EventsConfig holds the NATS settings for post-commit sync events.
type EventsConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Stream  string `yaml:"stream"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:         ":8080",
			RealtimeListen: ":8081",
		},
		Storage: storage.DefaultConfig(),
		Events: EventsConfig{
			Enabled: false,
			URL:     "nats://localhost:4222",
			Stream:  "RECEIPTS",
		},
		Logging: DefaultLoggingConfig(),
	}
}

// LoadConfig loads configuration from files and environment variables.
// Order: defaults -> config.yml -> config.local.yml -> env overrides -> Validate
func LoadConfig() *Config {
	cfg := DefaultConfig()

	loadFile("config/config.yml", cfg)
	loadFile("config/config.local.yml", cfg)

	cfg.Storage.ApplyDefaults()
	cfg.Logging.ApplyDefaults()
	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	return cfg
}

// ApplyEnvOverrides lets deployment environments override file settings.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("KVITTERA_MONGO_URI"); v != "" {
		c.Storage.URI = v
	}
	if v := os.Getenv("KVITTERA_MONGO_DB"); v != "" {
		c.Storage.Database = v
	}
	if v := os.Getenv("KVITTERA_NATS_URL"); v != "" {
		c.Events.URL = v
		c.Events.Enabled = true
	}
	if v := os.Getenv("KVITTERA_LISTEN"); v != "" {
		c.Server.Listen = v
	}
	if v := os.Getenv("KVITTERA_REALTIME_LISTEN"); v != "" {
		c.Server.RealtimeListen = v
	}
	if v := os.Getenv("KVITTERA_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	if c.Storage.URI == "" {
		return fmt.Errorf("storage.uri must not be empty")
	}
	if c.Storage.Database == "" {
		return fmt.Errorf("storage.database must not be empty")
	}
	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen must not be empty")
	}
	if c.Events.Enabled && c.Events.URL == "" {
		return fmt.Errorf("events.url must not be empty when events are enabled")
	}
	return nil
}

func loadFile(filename string, cfg *Config) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return // File doesn't exist, skip
		}
		log.Printf("Warning: Error reading %s: %v", filename, err)
		return
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		log.Printf("Warning: Error parsing %s: %v", filename, err)
	}
}
